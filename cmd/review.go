package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptive/internal/input"
	"github.com/abhisek/adaptive/internal/session"
	"github.com/abhisek/adaptive/internal/spacedrep"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Schedule and record spaced reviews",
}

var reviewScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Reschedule a review item from a JSON document without storing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readDocument(cmd)
		if err != nil {
			return err
		}
		doc, err := input.DecodeReview(raw)
		if err != nil {
			return err
		}

		now := doc.Now
		if now.IsZero() {
			if now, err = evalTime(cmd); err != nil {
				return err
			}
		}

		next, err := spacedrep.Schedule(doc.Item, spacedrep.Rating(doc.Rating), now)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(next)
	},
}

var reviewAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Start tracking a topic for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, err := requireLearner(cmd)
		if err != nil {
			return err
		}
		topic, _ := cmd.Flags().GetString("topic")
		if topic == "" {
			return fmt.Errorf("--topic is required")
		}
		level, _ := cmd.Flags().GetString("level")
		now, err := evalTime(cmd)
		if err != nil {
			return err
		}

		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		rec, err := svc.AddItem(cmd.Context(), learner, topic, spacedrep.MasteryLevel(level), now)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  next review %s\n",
			rec.ID, rec.Item.Topic, rec.Item.NextReview.Format("2006-01-02"))
		return nil
	},
}

var reviewGradeCmd = &cobra.Command{
	Use:   "grade [ID:RATING ...]",
	Short: "Record ratings for stored review items",
	Long: `Record ratings for stored review items.

Pass one or more ID:RATING pairs, where RATING is 0-5 or a name
(blackout, wrong, hard, difficult, hesitant, perfect). Alternatively grade a
single item by --learner, --topic and --rating.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := evalTime(cmd)
		if err != nil {
			return err
		}

		topic, _ := cmd.Flags().GetString("topic")
		if topic != "" && len(args) > 0 {
			return fmt.Errorf("pass either ID:RATING pairs or --topic, not both")
		}
		var grades []session.Grade
		if topic == "" {
			if len(args) == 0 {
				return fmt.Errorf("pass ID:RATING pairs or --learner/--topic/--rating")
			}
			if grades, err = parseGrades(args); err != nil {
				return err
			}
		}

		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		out := cmd.OutOrStdout()
		if topic != "" {
			learner, err := requireLearner(cmd)
			if err != nil {
				return err
			}
			ratingName, _ := cmd.Flags().GetString("rating")
			rating, err := spacedrep.ParseRating(ratingName)
			if err != nil {
				return err
			}
			rec, err := svc.ReviewTopic(cmd.Context(), learner, topic, rating, now)
			if err != nil {
				return err
			}
			printRecordLine(cmd, rec.ID, rec.Item)
			return nil
		}

		outcomes, err := svc.ReviewBatch(cmd.Context(), grades, now)
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			printRecordLine(cmd, o.Record.ID, o.Record.Item)
		}
		sum := session.BuildSummary(outcomes)
		fmt.Fprintf(out, "\n%d graded, %d passed, %d lapsed; next review %s\n",
			sum.Graded, sum.Passed, sum.Lapsed, sum.NextDue.Format("2006-01-02"))
		return nil
	},
}

var reviewDueCmd = &cobra.Command{
	Use:   "due",
	Short: "List review items due now, most overdue first, then upcoming ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, err := requireLearner(cmd)
		if err != nil {
			return err
		}
		now, err := evalTime(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("upcoming")

		svc, closeFn, err := openService()
		if err != nil {
			return err
		}
		defer closeFn()

		due, err := svc.Due(cmd.Context(), learner, now)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(due) == 0 {
			fmt.Fprintln(out, "Nothing due.")
		} else {
			fmt.Fprintf(out, "%-36s  %-24s  %-10s  %8s  %s\n", "ID", "Topic", "Due", "Overdue", "Status")
			fmt.Fprintln(out, strings.Repeat("─", 96))
			for _, rec := range due {
				fmt.Fprintf(out, "%-36s  %-24s  %-10s  %7.1fd  %s\n",
					rec.ID, truncate(rec.Item.Topic, 24), rec.Item.NextReview.Format("2006-01-02"),
					rec.Item.OverdueDays(now), rec.Item.Status(now))
			}
			fmt.Fprintf(out, "\n%d due\n", len(due))
		}

		if limit <= 0 {
			return nil
		}
		upcoming, err := svc.Upcoming(cmd.Context(), learner, now)
		if err != nil {
			return err
		}
		if len(upcoming) == 0 {
			return nil
		}
		if len(upcoming) > limit {
			upcoming = upcoming[:limit]
		}

		fmt.Fprintf(out, "\nUpcoming\n%-36s  %-24s  %-10s  %s\n", "ID", "Topic", "Next", "In")
		fmt.Fprintln(out, strings.Repeat("─", 84))
		for _, rec := range upcoming {
			fmt.Fprintf(out, "%-36s  %-24s  %-10s  %dd\n",
				rec.ID, truncate(rec.Item.Topic, 24), rec.Item.NextReview.Format("2006-01-02"),
				rec.Item.DaysUntilReview(now))
		}
		return nil
	},
}

func init() {
	reviewScheduleCmd.Flags().String("file", "", "Review JSON document (- for stdin)")

	reviewAddCmd.Flags().String("learner", "", "Learner ID")
	reviewAddCmd.Flags().String("topic", "", "Topic to track")
	reviewAddCmd.Flags().String("level", string(spacedrep.MasteryBeginner), "Mastery level")

	reviewGradeCmd.Flags().String("learner", "", "Learner ID (with --topic)")
	reviewGradeCmd.Flags().String("topic", "", "Topic to grade (with --learner)")
	reviewGradeCmd.Flags().String("rating", "", "Rating 0-5 or name (with --topic)")

	reviewDueCmd.Flags().String("learner", "", "Learner ID")
	reviewDueCmd.Flags().Int("upcoming", 5, "Upcoming items to list after the due ones; 0 hides them")

	reviewCmd.AddCommand(reviewScheduleCmd)
	reviewCmd.AddCommand(reviewAddCmd)
	reviewCmd.AddCommand(reviewGradeCmd)
	reviewCmd.AddCommand(reviewDueCmd)
}

// parseGrades parses ID:RATING arguments.
func parseGrades(args []string) ([]session.Grade, error) {
	grades := make([]session.Grade, 0, len(args))
	for _, arg := range args {
		i := strings.LastIndex(arg, ":")
		if i <= 0 || i == len(arg)-1 {
			return nil, fmt.Errorf("invalid grade %q, want ID:RATING", arg)
		}
		rating, err := spacedrep.ParseRating(arg[i+1:])
		if err != nil {
			return nil, err
		}
		grades = append(grades, session.Grade{ItemID: arg[:i], Rating: rating})
	}
	return grades, nil
}

func printRecordLine(cmd *cobra.Command, id string, it spacedrep.ReviewItem) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %-24s  interval %3dd  ease %.2f  reviews %d  next %s\n",
		id, truncate(it.Topic, 24), it.Interval, it.EaseFactor, it.ReviewCount, it.NextReview.Format("2006-01-02"))
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
