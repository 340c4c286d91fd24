package session

import (
	"github.com/abhisek/adaptive/internal/difficulty"
)

// PlanCategory represents the reason a topic was included in the plan.
type PlanCategory string

const (
	CategoryReview      PlanCategory = "review"
	CategoryRemediation PlanCategory = "remediation"
)

// PlanSlot is a single slot in the study plan: a topic and the difficulty
// its questions should be served at.
type PlanSlot struct {
	Topic    string
	Level    difficulty.Level
	Category PlanCategory
	// ItemID is set for review slots and names the stored review item.
	ItemID string
}

// Plan is the ordered list of slots for a study session.
type Plan struct {
	Slots []PlanSlot
	// Level is the adjusted difficulty the plan was built for.
	Level difficulty.Level
}

// Count returns the number of slots in category c.
func (p *Plan) Count(c PlanCategory) int {
	n := 0
	for _, s := range p.Slots {
		if s.Category == c {
			n++
		}
	}
	return n
}

// DefaultReviewSlots and DefaultRemediationSlots split the default plan.
const (
	DefaultReviewSlots      = 3
	DefaultRemediationSlots = 2
)
