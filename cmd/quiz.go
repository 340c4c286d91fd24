package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptive/internal/difficulty"
	"github.com/abhisek/adaptive/internal/input"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Record quiz results",
}

var quizRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Append a quiz result to the learner's history",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, err := requireLearner(cmd)
		if err != nil {
			return err
		}
		score, _ := cmd.Flags().GetFloat64("score")
		questions, _ := cmd.Flags().GetInt("questions")
		levelName, _ := cmd.Flags().GetString("difficulty")
		level, err := difficulty.ParseLevel(levelName)
		if err != nil {
			return err
		}
		now, err := evalTime(cmd)
		if err != nil {
			return err
		}

		result := difficulty.QuizResult{
			Score:          score,
			TotalQuestions: questions,
			Difficulty:     level,
			Timestamp:      now,
		}
		if err := input.Struct(result); err != nil {
			return err
		}

		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		if err := svc.RecordQuiz(cmd.Context(), learner, result); err != nil {
			return err
		}
		next, err := svc.NextDifficulty(cmd.Context(), learner, level)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %.0f%% at %s. Next quiz: %s\n", score*100, level, next)
		return nil
	},
}

func init() {
	quizRecordCmd.Flags().String("learner", "", "Learner ID")
	quizRecordCmd.Flags().Float64("score", 0, "Fraction of questions answered correctly (0-1)")
	quizRecordCmd.Flags().Int("questions", 0, "Number of questions in the quiz")
	quizRecordCmd.Flags().String("difficulty", "beginner", "Difficulty the quiz was taken at")

	quizCmd.AddCommand(quizRecordCmd)
}
