package spacedrep

import (
	"fmt"
	"time"
)

// TimeLayout is RFC3339 with a fixed nine-digit fraction. In UTC its
// strings sort in time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ItemData is the serialized form of a ReviewItem, with timestamps as
// TimeLayout strings, used when items are persisted.
type ItemData struct {
	Topic       string  `json:"topic"`
	Level       string  `json:"level"`
	LastReview  string  `json:"last_review"`
	NextReview  string  `json:"next_review"`
	Interval    int     `json:"interval"`
	EaseFactor  float64 `json:"ease_factor"`
	ReviewCount int     `json:"review_count"`
}

// Data exports the item for persistence.
func (it ReviewItem) Data() ItemData {
	return ItemData{
		Topic:       it.Topic,
		Level:       string(it.Level),
		LastReview:  it.LastReview.UTC().Format(TimeLayout),
		NextReview:  it.NextReview.UTC().Format(TimeLayout),
		Interval:    it.Interval,
		EaseFactor:  it.EaseFactor,
		ReviewCount: it.ReviewCount,
	}
}

// Item restores a ReviewItem from its serialized form.
func (d ItemData) Item() (ReviewItem, error) {
	last, err := time.Parse(time.RFC3339, d.LastReview)
	if err != nil {
		return ReviewItem{}, fmt.Errorf("parse last review: %w", err)
	}
	next, err := time.Parse(time.RFC3339, d.NextReview)
	if err != nil {
		return ReviewItem{}, fmt.Errorf("parse next review: %w", err)
	}
	return ReviewItem{
		Topic:       d.Topic,
		Level:       MasteryLevel(d.Level),
		LastReview:  last,
		NextReview:  next,
		Interval:    d.Interval,
		EaseFactor:  d.EaseFactor,
		ReviewCount: d.ReviewCount,
	}, nil
}
