package spacedrep

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultEaseFactor seeds every new item.
	DefaultEaseFactor = 2.5

	// MinEaseFactor is the floor the ease factor never drops below.
	MinEaseFactor = 1.3

	// FirstInterval is the interval in days after the first successful
	// review, and after any failed one.
	FirstInterval = 1

	// SecondInterval is the interval in days after the second consecutive
	// successful review.
	SecondInterval = 6

	// MaxInterval caps a grown interval at roughly a century.
	MaxInterval = 36500

	// PassingRating is the lowest rating counted as a successful recall.
	PassingRating Rating = 3
)

// ErrInvalidRating is returned for ratings outside 0..5.
var ErrInvalidRating = errors.New("spacedrep: invalid rating")

// Rating is the learner's recall quality for one review, 0 (no recall)
// through 5 (perfect recall).
type Rating int

const (
	RatingBlackout  Rating = iota // complete blackout
	RatingWrong                   // incorrect, answer recognized on reveal
	RatingHard                    // incorrect, answer felt familiar
	RatingDifficult               // correct with serious difficulty
	RatingHesitant                // correct after hesitation
	RatingPerfect                 // correct, instant
)

var ratingNames = [...]string{
	RatingBlackout:  "blackout",
	RatingWrong:     "wrong",
	RatingHard:      "hard",
	RatingDifficult: "difficult",
	RatingHesitant:  "hesitant",
	RatingPerfect:   "perfect",
}

// IsValid reports whether r lies in 0..5.
func (r Rating) IsValid() bool {
	return r >= RatingBlackout && r <= RatingPerfect
}

// Passed reports whether r counts as a successful recall.
func (r Rating) Passed() bool {
	return r >= PassingRating
}

func (r Rating) String() string {
	if !r.IsValid() {
		return fmt.Sprintf("Rating(%d)", int(r))
	}
	return ratingNames[r]
}

// ParseRating accepts either a digit 0..5 or a rating name.
func ParseRating(s string) (Rating, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		r := Rating(n)
		if !r.IsValid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidRating, n)
		}
		return r, nil
	}
	for i, name := range ratingNames {
		if name == s {
			return Rating(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
}

// NextEaseFactor applies the SM-2 ease adjustment for rating q and clamps
// the result at MinEaseFactor.
func NextEaseFactor(ef float64, q Rating) float64 {
	d := float64(RatingPerfect - q)
	next := ef + (0.1 - d*(0.08+d*0.02))
	if next < MinEaseFactor {
		return MinEaseFactor
	}
	return next
}

// growInterval multiplies interval by ease, rounded, saturating at
// MaxInterval before the float is converted back to int.
func growInterval(interval int, ease float64) int {
	grown := math.Round(float64(interval) * ease)
	if grown >= MaxInterval {
		return MaxInterval
	}
	return int(grown)
}

// Schedule grades item with rating at now and returns the rescheduled item.
// The input is left untouched. A passing rating grows the interval
// 1 -> 6 -> round(interval * ease); a failing one resets the interval to a
// day and the review count to zero. The ease factor moves in both cases.
func Schedule(item ReviewItem, rating Rating, now time.Time) (ReviewItem, error) {
	if !rating.IsValid() {
		return ReviewItem{}, fmt.Errorf("schedule %q: %w: %d", item.Topic, ErrInvalidRating, int(rating))
	}

	next := item
	if rating.Passed() {
		switch item.ReviewCount {
		case 0:
			next.Interval = FirstInterval
		case 1:
			next.Interval = SecondInterval
		default:
			next.Interval = growInterval(item.Interval, item.EaseFactor)
		}
		next.ReviewCount = item.ReviewCount + 1
	} else {
		next.Interval = FirstInterval
		next.ReviewCount = 0
	}

	if next.Interval < FirstInterval {
		next.Interval = FirstInterval
	}

	next.EaseFactor = NextEaseFactor(item.EaseFactor, rating)
	next.LastReview = now
	next.NextReview = now.AddDate(0, 0, next.Interval)
	return next, nil
}
