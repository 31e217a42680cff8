package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/miajio/wordtree/pkg/participle"
)

var learnOutput string

var learnCmd = &cobra.Command{
	Use:   "learn [file...]",
	Short: "Learn word frequencies and word pairs from text",
	Long: `Learn from the given files, or from stdin when no file is given.

Each line is learned on its own: word pairs never span lines, and
punctuation breaks a pair.`,
	RunE: runLearn,
}

func init() {
	addOutputFlag(learnCmd, &learnOutput)
	rootCmd.AddCommand(learnCmd)
}

func runLearn(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var total participle.LearnStats
	learn := func(name string, r io.Reader) error {
		stats, err := learnLines(a.engine, r)
		if err != nil {
			return fmt.Errorf("learn %s: %w", name, err)
		}
		a.logger.Info("learned", "source", name, "words", stats.Words, "new_words", stats.NewWords)
		total.Words += stats.Words
		total.NewWords += stats.NewWords
		total.Bigrams += stats.Bigrams
		return nil
	}

	if len(args) == 0 {
		if err := learn("stdin", cmd.InOrStdin()); err != nil {
			return err
		}
	}
	for _, name := range args {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		err = learn(name, f)
		f.Close()
		if err != nil {
			return err
		}
	}

	return writeOutput(cmd.OutOrStdout(), learnOutput, total, func(w io.Writer) error {
		return renderTable(w, row{"WORDS", "NEW", "PAIRS"}, []row{{
			fmt.Sprint(total.Words), fmt.Sprint(total.NewWords), fmt.Sprint(total.Bigrams),
		}})
	})
}

// learnLines 逐行学习
func learnLines(engine *participle.Engine, r io.Reader) (participle.LearnStats, error) {
	var total participle.LearnStats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		stats, err := engine.LearnFromText(scanner.Text())
		if err != nil {
			return total, err
		}
		total.Words += stats.Words
		total.NewWords += stats.NewWords
		total.Bigrams += stats.Bigrams
	}
	return total, scanner.Err()
}
