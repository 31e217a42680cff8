package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	wordFreq float64
	wordPos  string

	wordsLimit  int
	wordsOutput string

	nextLimit  int
	nextOutput string
)

var wordCmd = &cobra.Command{
	Use:   "word",
	Short: "Manage dictionary words",
}

var wordAddCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Add or overwrite a dictionary word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.engine.AddWord(args[0], wordFreq, wordPos); err != nil {
			return err
		}
		entry, _ := a.engine.Lookup(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "added %s (frequency %g, pos %s)\n", entry.Content, entry.Frequency, entry.Pos)
		return nil
	},
}

var wordsCmd = &cobra.Command{
	Use:   "words [prefix]",
	Short: "List dictionary words by frequency",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		words := a.engine.Words(prefix, wordsLimit)
		return writeOutput(cmd.OutOrStdout(), wordsOutput, words, func(w io.Writer) error {
			rows := make([]row, 0, len(words))
			for _, entry := range words {
				rows = append(rows, row{entry.Content, fmt.Sprintf("%g", entry.Frequency), entry.Pos})
			}
			return renderTable(w, row{"WORD", "FREQUENCY", "POS"}, rows)
		})
	},
}

var nextCmd = &cobra.Command{
	Use:   "next <word>",
	Short: "List the words seen after a word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		followers := a.engine.Followers(args[0], nextLimit)
		return writeOutput(cmd.OutOrStdout(), nextOutput, followers, func(w io.Writer) error {
			rows := make([]row, 0, len(followers))
			for _, f := range followers {
				rows = append(rows, row{quote(f.Word), fmt.Sprint(f.Count), fmt.Sprintf("%.4f", f.Probability)})
			}
			return renderTable(w, row{"NEXT", "COUNT", "PROBABILITY"}, rows, plainStyle, plainStyle, probStyle)
		})
	},
}

func init() {
	wordAddCmd.Flags().Float64Var(&wordFreq, "freq", 1, "word frequency")
	wordAddCmd.Flags().StringVar(&wordPos, "pos", "", "part of speech (default from predict.default_pos)")
	wordCmd.AddCommand(wordAddCmd)

	wordsCmd.Flags().IntVarP(&wordsLimit, "limit", "n", 20, "max words, 0 for all")
	addOutputFlag(wordsCmd, &wordsOutput)

	nextCmd.Flags().IntVarP(&nextLimit, "limit", "n", 20, "max words, 0 for all")
	addOutputFlag(nextCmd, &nextOutput)

	rootCmd.AddCommand(wordCmd, wordsCmd, nextCmd)
}
