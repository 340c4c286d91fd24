package session

import (
	"github.com/abhisek/adaptive/internal/difficulty"
	"github.com/abhisek/adaptive/internal/store"
)

// Planner builds a study plan from due review items and weak topics.
type Planner struct {
	ReviewSlots      int
	RemediationSlots int
}

// NewPlanner creates a Planner with the given slot split.
func NewPlanner(reviewSlots, remediationSlots int) *Planner {
	return &Planner{
		ReviewSlots:      reviewSlots,
		RemediationSlots: remediationSlots,
	}
}

// BuildPlan fills review slots from due (expected most overdue first) and
// remediation slots from weak (expected in detection order). Review slots
// are served at level; remediation slots one level easier. Slots one
// category cannot fill are given to the other. A topic appears at most once.
func (p *Planner) BuildPlan(due []store.ReviewRecord, weak []string, level difficulty.Level) *Plan {
	total := p.ReviewSlots + p.RemediationSlots
	used := make(map[string]bool)

	// Review slots first, capped at their share.
	var review []store.ReviewRecord
	for _, rec := range due {
		if len(review) == p.ReviewSlots {
			break
		}
		review = append(review, rec)
		used[rec.Item.Topic] = true
	}

	// Remediation takes its share plus whatever review left unused.
	var remediation []string
	for _, topic := range weak {
		if len(review)+len(remediation) == total {
			break
		}
		if used[topic] {
			continue
		}
		remediation = append(remediation, topic)
		used[topic] = true
	}

	// Remaining slots go back to review.
	for _, rec := range due[len(review):] {
		if len(review)+len(remediation) == total {
			break
		}
		if used[rec.Item.Topic] {
			continue
		}
		review = append(review, rec)
		used[rec.Item.Topic] = true
	}

	plan := &Plan{Level: level}
	for _, rec := range review {
		plan.Slots = append(plan.Slots, PlanSlot{
			Topic:    rec.Item.Topic,
			Level:    level,
			Category: CategoryReview,
			ItemID:   rec.ID,
		})
	}
	for _, topic := range remediation {
		plan.Slots = append(plan.Slots, PlanSlot{
			Topic:    topic,
			Level:    level.Prev(),
			Category: CategoryRemediation,
		})
	}
	return plan
}
