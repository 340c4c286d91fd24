package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptive/internal/difficulty"
	"github.com/abhisek/adaptive/internal/input"
)

var difficultyCmd = &cobra.Command{
	Use:   "difficulty",
	Short: "Pick the next quiz difficulty from recent results",
	Long: `Pick the next quiz difficulty.

With --file, reads a quiz-history document ({"current": ..., "results": [...]});
--current overrides the document's level when given.
With --learner, uses the stored quiz history and --current.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		file, _ := cmd.Flags().GetString("file")

		if file != "" {
			raw, err := readDocument(cmd)
			if err != nil {
				return err
			}
			doc, err := input.DecodeQuizHistory(raw)
			if err != nil {
				return err
			}
			current := doc.Current
			if cmd.Flags().Changed("current") {
				name, _ := cmd.Flags().GetString("current")
				if current, err = difficulty.ParseLevel(name); err != nil {
					return err
				}
			}
			next := difficulty.Adjust(current, doc.Results)
			fmt.Fprintf(out, "%s -> %s (weighted score %.4f over %d results)\n",
				current, next, difficulty.WeightedScore(doc.Results), len(difficulty.Window(doc.Results)))
			return nil
		}

		learner, err := requireLearner(cmd)
		if err != nil {
			return err
		}
		currentName, _ := cmd.Flags().GetString("current")
		current, err := difficulty.ParseLevel(currentName)
		if err != nil {
			return err
		}

		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		next, err := svc.NextDifficulty(cmd.Context(), learner, current)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s -> %s\n", current, next)
		return nil
	},
}

func init() {
	difficultyCmd.Flags().String("file", "", "Quiz-history JSON document (- for stdin)")
	difficultyCmd.Flags().String("learner", "", "Learner ID for stored history")
	difficultyCmd.Flags().String("current", "beginner", "Current difficulty level")
}
