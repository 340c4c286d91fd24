package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptive/internal/difficulty"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save a checkpoint of the learner's derived state",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, err := requireLearner(cmd)
		if err != nil {
			return err
		}
		levelName, _ := cmd.Flags().GetString("level")
		level, err := difficulty.ParseLevel(levelName)
		if err != nil {
			return err
		}
		keep, _ := cmd.Flags().GetInt("keep")
		now, err := evalTime(cmd)
		if err != nil {
			return err
		}

		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		snap, err := svc.Checkpoint(cmd.Context(), learner, level, now, keep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s: %d review items, %d weak topics\n",
			snap.ID, len(snap.Data.Reviews), len(snap.Data.WeakTopics))
		return nil
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the learner's latest checkpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, err := requireLearner(cmd)
		if err != nil {
			return err
		}

		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		snap, err := svc.LatestSnapshot(cmd.Context(), learner)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if snap == nil {
			fmt.Fprintf(out, "No snapshots for %s.\n", learner)
			return nil
		}

		d := snap.Data
		fmt.Fprintf(out, "Snapshot %s taken %s\n", snap.ID, snap.Timestamp.Format("2006-01-02 15:04"))
		fmt.Fprintf(out, "Level: %s\n", d.Level)
		fmt.Fprintf(out, "Review items: %d\n", len(d.Reviews))
		if len(d.WeakTopics) > 0 {
			fmt.Fprintf(out, "Weak topics: %s\n", strings.Join(d.WeakTopics, ", "))
		} else {
			fmt.Fprintln(out, "Weak topics: none")
		}
		return nil
	},
}

func init() {
	snapshotCmd.Flags().String("learner", "", "Learner ID")
	snapshotCmd.Flags().String("level", "beginner", "Current difficulty level to record")
	snapshotCmd.Flags().Int("keep", 10, "Snapshots to retain; 0 keeps all")

	snapshotShowCmd.Flags().String("learner", "", "Learner ID")

	snapshotCmd.AddCommand(snapshotShowCmd)
}
