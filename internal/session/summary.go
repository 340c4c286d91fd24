package session

import "time"

// BatchSummary describes the effect of a ReviewBatch.
type BatchSummary struct {
	Graded int
	Passed int
	Lapsed int
	// NextDue is the earliest next review among the graded items.
	NextDue time.Time
}

// BuildSummary aggregates outcomes. Each item counts once toward NextDue,
// using its final state.
func BuildSummary(outcomes []Outcome) *BatchSummary {
	sum := &BatchSummary{}
	final := make(map[string]time.Time)
	for _, o := range outcomes {
		sum.Graded++
		if o.Grade.Rating.Passed() {
			sum.Passed++
		} else {
			sum.Lapsed++
		}
		if o.Record != nil {
			final[o.Grade.ItemID] = o.Record.Item.NextReview
		}
	}

	for _, t := range final {
		if sum.NextDue.IsZero() || t.Before(sum.NextDue) {
			sum.NextDue = t
		}
	}
	return sum
}
