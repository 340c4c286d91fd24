package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptive/internal/difficulty"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build the next study plan from due reviews and weak topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, err := requireLearner(cmd)
		if err != nil {
			return err
		}
		currentName, _ := cmd.Flags().GetString("current")
		current, err := difficulty.ParseLevel(currentName)
		if err != nil {
			return err
		}
		now, err := evalTime(cmd)
		if err != nil {
			return err
		}

		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		plan, err := svc.Plan(cmd.Context(), learner, current, now)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Plan at %s\n\n", plan.Level)
		if len(plan.Slots) == 0 {
			fmt.Fprintln(out, "Nothing to study.")
			return nil
		}
		fmt.Fprintf(out, "%3s  %-28s  %-12s  %s\n", "#", "Topic", "Category", "Level")
		fmt.Fprintln(out, strings.Repeat("─", 60))
		for i, slot := range plan.Slots {
			fmt.Fprintf(out, "%3d  %-28s  %-12s  %s\n", i+1, truncate(slot.Topic, 28), slot.Category, slot.Level)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().String("learner", "", "Learner ID")
	planCmd.Flags().String("current", "beginner", "Current difficulty level")
}
