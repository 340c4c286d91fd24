package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptive/internal/input"
	"github.com/abhisek/adaptive/internal/weakness"
)

var weaknessCmd = &cobra.Command{
	Use:   "weakness",
	Short: "Show topics whose mean score is below the weakness threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		var stats []weakness.TopicStat
		if file != "" {
			raw, err := readDocument(cmd)
			if err != nil {
				return err
			}
			doc, err := input.DecodePerformance(raw)
			if err != nil {
				return err
			}
			stats = weakness.Summarize(doc.Records)
		} else {
			learner, err := requireLearner(cmd)
			if err != nil {
				return err
			}
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()
			if stats, err = svc.Weaknesses(cmd.Context(), learner); err != nil {
				return err
			}
		}

		printTopicStats(cmd, stats)
		return nil
	},
}

var weaknessRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Append a per-topic score to the learner's performance history",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, err := requireLearner(cmd)
		if err != nil {
			return err
		}
		topic, _ := cmd.Flags().GetString("topic")
		score, _ := cmd.Flags().GetFloat64("score")
		rec := weakness.Record{Topic: topic, Score: score}
		if err := input.Struct(rec); err != nil {
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

		if err := svc.RecordScore(cmd.Context(), learner, rec, now); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s: %.2f\n", topic, score)
		return nil
	},
}

func init() {
	weaknessCmd.Flags().String("file", "", "Performance JSON document (- for stdin)")
	weaknessCmd.Flags().String("learner", "", "Learner ID for stored history")

	weaknessRecordCmd.Flags().String("learner", "", "Learner ID")
	weaknessRecordCmd.Flags().String("topic", "", "Topic name")
	weaknessRecordCmd.Flags().Float64("score", 0, "Score between 0 and 1")

	weaknessCmd.AddCommand(weaknessRecordCmd)
}

func printTopicStats(cmd *cobra.Command, stats []weakness.TopicStat) {
	out := cmd.OutOrStdout()
	if len(stats) == 0 {
		fmt.Fprintln(out, "No performance history.")
		return
	}

	fmt.Fprintf(out, "%-28s  %8s  %6s  %s\n", "Topic", "Attempts", "Mean", "")
	fmt.Fprintln(out, strings.Repeat("─", 54))
	weak := 0
	for _, st := range stats {
		mark := ""
		if st.Weak {
			mark = "weak"
			weak++
		}
		fmt.Fprintf(out, "%-28s  %8d  %6.2f  %s\n", truncate(st.Topic, 28), st.Attempts, st.Mean, mark)
	}
	fmt.Fprintf(out, "\n%d of %d topics weak (threshold %.2f)\n", weak, len(stats), weakness.Threshold)
}
