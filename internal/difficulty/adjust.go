package difficulty

import (
	"math/big"
	"time"
)

// QuizResult is a single graded quiz attempt.
type QuizResult struct {
	Score          float64   `json:"score" validate:"gte=0,lte=1"`
	TotalQuestions int       `json:"total_questions" validate:"gt=0"`
	Difficulty     Level     `json:"difficulty"`
	Timestamp      time.Time `json:"timestamp"`
}

const (
	// WindowSize is the number of most recent results that influence a decision.
	WindowSize = 3

	// RaiseThreshold must be strictly exceeded to move up a level.
	RaiseThreshold = 0.85

	// LowerThreshold must be strictly undercut to move down a level.
	LowerThreshold = 0.60
)

// Window returns the trailing WindowSize results of recent, oldest first.
func Window(recent []QuizResult) []QuizResult {
	if len(recent) <= WindowSize {
		return recent
	}
	return recent[len(recent)-WindowSize:]
}

// WeightedScore returns the recency-weighted mean score of the trailing
// window. Weights run 1..n from oldest to newest. An empty slice scores 0.
func WeightedScore(recent []QuizResult) float64 {
	window := Window(recent)
	if len(window) == 0 {
		return 0
	}

	var sum, weights float64
	for i, r := range window {
		w := float64(i + 1)
		sum += r.Score * w
		weights += w
	}
	return sum / weights
}

// Adjust picks the difficulty for the next quiz. It moves at most one level
// per call and never past Beginner or Master. With no history the current
// level is kept.
func Adjust(current Level, recent []QuizResult) Level {
	if len(recent) == 0 || !current.IsValid() {
		return current
	}

	switch {
	case compareWeighted(recent, RaiseThreshold) > 0:
		return current.Next()
	case compareWeighted(recent, LowerThreshold) < 0:
		return current.Prev()
	default:
		return current
	}
}

// compareWeighted compares the weighted score of the trailing window with
// threshold using exact rational arithmetic on the float64 inputs. It
// returns -1, 0 or +1 like big.Rat.Cmp.
func compareWeighted(recent []QuizResult, threshold float64) int {
	var sum big.Rat
	weights := int64(0)
	for i, r := range Window(recent) {
		w := int64(i + 1)
		score := new(big.Rat).SetFloat64(r.Score)
		sum.Add(&sum, score.Mul(score, big.NewRat(w, 1)))
		weights += w
	}

	bar := new(big.Rat).SetFloat64(threshold)
	bar.Mul(bar, big.NewRat(weights, 1))
	return sum.Cmp(bar)
}
