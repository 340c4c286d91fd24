package spacedrep

import (
	"sort"
	"time"
)

// DueItems returns the items due at now, most overdue first. Ties are broken
// by topic so the order is stable across calls.
func DueItems(items []ReviewItem, now time.Time) []ReviewItem {
	var due []ReviewItem
	for _, it := range items {
		if it.IsDue(now) {
			due = append(due, it)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		oi, oj := due[i].OverdueDays(now), due[j].OverdueDays(now)
		if oi != oj {
			return oi > oj
		}
		return due[i].Topic < due[j].Topic
	})
	return due
}

// Upcoming returns the items not yet due, soonest first.
func Upcoming(items []ReviewItem, now time.Time) []ReviewItem {
	var pending []ReviewItem
	for _, it := range items {
		if !it.IsDue(now) {
			pending = append(pending, it)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		if !pending[i].NextReview.Equal(pending[j].NextReview) {
			return pending[i].NextReview.Before(pending[j].NextReview)
		}
		return pending[i].Topic < pending[j].Topic
	})
	return pending
}
