package spacedrep

import (
	"fmt"
	"math"
	"time"
)

// MasteryLevel is the learner's standing on a reviewable topic.
type MasteryLevel string

const (
	MasteryBeginner     MasteryLevel = "beginner"
	MasteryIntermediate MasteryLevel = "intermediate"
	MasteryAdvanced     MasteryLevel = "advanced"
	MasteryMaster       MasteryLevel = "master"
)

// IsValid reports whether m is a known mastery level.
func (m MasteryLevel) IsValid() bool {
	switch m {
	case MasteryBeginner, MasteryIntermediate, MasteryAdvanced, MasteryMaster:
		return true
	}
	return false
}

// ReviewItem holds the spaced repetition state for a single topic.
// Values are never mutated in place; Schedule returns a new item.
type ReviewItem struct {
	Topic       string       `json:"topic"`
	Level       MasteryLevel `json:"level"`
	LastReview  time.Time    `json:"last_review"`
	NextReview  time.Time    `json:"next_review"`
	Interval    int          `json:"interval"`
	EaseFactor  float64      `json:"ease_factor"`
	ReviewCount int          `json:"review_count"`
}

// NewItem seeds a review item first studied at now.
func NewItem(topic string, level MasteryLevel, now time.Time) ReviewItem {
	return ReviewItem{
		Topic:       topic,
		Level:       level,
		LastReview:  now,
		NextReview:  now.AddDate(0, 0, FirstInterval),
		Interval:    FirstInterval,
		EaseFactor:  DefaultEaseFactor,
		ReviewCount: 0,
	}
}

// Validate checks the structural invariants of an item loaded from outside
// the scheduler.
func (it ReviewItem) Validate() error {
	switch {
	case it.Topic == "":
		return fmt.Errorf("review item: empty topic")
	case it.Interval < 1:
		return fmt.Errorf("review item %q: interval %d < 1", it.Topic, it.Interval)
	case it.Interval > MaxInterval:
		return fmt.Errorf("review item %q: interval %d > %d", it.Topic, it.Interval, MaxInterval)
	case it.EaseFactor < MinEaseFactor:
		return fmt.Errorf("review item %q: ease factor %.2f < %.2f", it.Topic, it.EaseFactor, MinEaseFactor)
	case it.ReviewCount < 0:
		return fmt.Errorf("review item %q: negative review count", it.Topic)
	}
	return nil
}

// IsDue returns true if the item is due for review (at or past NextReview).
func (it ReviewItem) IsDue(now time.Time) bool {
	return !now.Before(it.NextReview)
}

// OverdueDays returns how many days past due the item is. Returns 0 if not yet due.
func (it ReviewItem) OverdueDays(now time.Time) float64 {
	if now.Before(it.NextReview) {
		return 0
	}
	return now.Sub(it.NextReview).Hours() / 24.0
}

// IsLapsing returns true once the item has gone unreviewed for more than
// half its interval past the due date.
func (it ReviewItem) IsLapsing(now time.Time) bool {
	if !it.IsDue(now) {
		return false
	}
	graceHours := float64(it.Interval) * 0.5 * 24.0
	threshold := it.NextReview.Add(time.Duration(graceHours * float64(time.Hour)))
	return now.After(threshold)
}

// DaysUntilReview returns the number of days until the next review, counting
// a partial day as a whole one. Returns 0 if already due.
func (it ReviewItem) DaysUntilReview(now time.Time) int {
	if it.IsDue(now) {
		return 0
	}
	return int(math.Ceil(it.NextReview.Sub(now).Hours() / 24.0))
}

// ReviewStatus describes an item's review status for display.
type ReviewStatus string

const (
	ReviewNotDue  ReviewStatus = "not_due"
	ReviewDue     ReviewStatus = "due"
	ReviewOverdue ReviewStatus = "overdue"
)

// Status returns the review status at now.
func (it ReviewItem) Status(now time.Time) ReviewStatus {
	switch {
	case it.IsLapsing(now):
		return ReviewOverdue
	case it.IsDue(now):
		return ReviewDue
	default:
		return ReviewNotDue
	}
}
