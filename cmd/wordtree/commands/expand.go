package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/miajio/wordtree/pkg/wordtree"
)

var (
	expandDepth   int
	expandWorkers int
	expandMinProb float64
	expandLimit   int
	expandOutput  string
)

var expandCmd = &cobra.Command{
	Use:   "expand <prompt>",
	Short: "Grow a continuation tree for a prompt and rank its completions",
	Long: `Grow a continuation tree below the prompt and print every leaf
continuation ranked by cumulative probability.

The prompt becomes a node with probability 1 under an empty root; each
level asks the dictionary for candidates given the text so far. Nodes whose
cumulative probability falls below --min-prob are not expanded.

Flags left unset fall back to the tree section of the config.`,
	Args: cobra.ExactArgs(1),
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().IntVarP(&expandDepth, "depth", "d", 0, "levels to expand below the prompt")
	expandCmd.Flags().IntVarP(&expandWorkers, "workers", "w", 0, "concurrent expansions per level")
	expandCmd.Flags().Float64Var(&expandMinProb, "min-prob", 0, "skip expanding nodes below this cumulative probability")
	expandCmd.Flags().IntVarP(&expandLimit, "limit", "n", 20, "max completions, 0 for all")
	addOutputFlag(expandCmd, &expandOutput)
	rootCmd.AddCommand(expandCmd)
}

// expandResult expand 命令的输出
type expandResult struct {
	Prompt      string                `json:"prompt" yaml:"prompt"`
	Completions []wordtree.Completion `json:"completions" yaml:"completions"`
}

func runExpand(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := wordtree.GrowOptions{
		Depth:          a.cfg.Tree.Depth,
		Workers:        a.cfg.Tree.Workers,
		MinProbability: a.cfg.Tree.MinProbability,
	}
	if cmd.Flags().Changed("depth") {
		opts.Depth = expandDepth
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers = expandWorkers
	}
	if cmd.Flags().Changed("min-prob") {
		opts.MinProbability = expandMinProb
	}

	prompt, err := growPrompt(cmd, a.engine, args[0], opts)
	if err != nil {
		return err
	}

	result := expandResult{Prompt: args[0], Completions: prompt.Rank(expandLimit)}
	a.logger.Debug("expanded prompt", "prompt", args[0], "depth", opts.Depth, "completions", len(result.Completions))

	return writeOutput(cmd.OutOrStdout(), expandOutput, result, func(w io.Writer) error {
		return renderCompletions(w, result)
	})
}

// growPrompt 在空根节点下挂载 prompt 并展开
func growPrompt(cmd *cobra.Command, exp wordtree.Expander, text string, opts wordtree.GrowOptions) (*wordtree.Node, error) {
	root := wordtree.NewRoot()
	prompt, err := wordtree.NewChild(text, 1)
	if err != nil {
		return nil, err
	}
	if err := root.AttachChild(prompt); err != nil {
		return nil, err
	}
	if err := wordtree.Grow(cmd.Context(), prompt, exp, opts); err != nil {
		return nil, fmt.Errorf("grow %q: %w", text, err)
	}
	return prompt, nil
}

func renderCompletions(w io.Writer, result expandResult) error {
	rows := make([]row, 0, len(result.Completions))
	for i, c := range result.Completions {
		rows = append(rows, row{
			fmt.Sprint(i + 1),
			fmt.Sprintf("%.4f", c.Probability),
			mutedStyle.Render(result.Prompt) + c.Text,
		})
	}
	return renderTable(w, row{"#", "PROBABILITY", "TEXT"}, rows, plainStyle, probStyle)
}
