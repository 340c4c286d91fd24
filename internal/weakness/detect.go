// Package weakness flags topics whose mean score falls below the mastery bar.
package weakness

import "math/big"

// Record is one graded attempt on a topic.
type Record struct {
	Topic string  `json:"topic" validate:"required"`
	Score float64 `json:"score" validate:"gte=0,lte=1"`
}

// Threshold is the mean score a topic must reach to not be weak.
const Threshold = 0.70

// TopicStat aggregates all attempts on one topic.
type TopicStat struct {
	Topic    string  `json:"topic"`
	Attempts int     `json:"attempts"`
	Mean     float64 `json:"mean"`
	Weak     bool    `json:"weak"`
}

// IsWeak reports whether a mean score is strictly below Threshold.
func IsWeak(mean float64) bool {
	return mean < Threshold
}

// Summarize groups history by topic and returns one stat per topic, in the
// order each topic first appears.
func Summarize(history []Record) []TopicStat {
	index := make(map[string]int)
	var sums []*big.Rat
	var stats []TopicStat

	for _, r := range history {
		i, ok := index[r.Topic]
		if !ok {
			i = len(stats)
			index[r.Topic] = i
			stats = append(stats, TopicStat{Topic: r.Topic})
			sums = append(sums, new(big.Rat))
		}
		stats[i].Attempts++
		sums[i].Add(sums[i], new(big.Rat).SetFloat64(r.Score))
	}

	// Means are kept exact for the comparison; Mean is the rounded value.
	bar := new(big.Rat).SetFloat64(Threshold)
	for i := range stats {
		mean := sums[i].Quo(sums[i], big.NewRat(int64(stats[i].Attempts), 1))
		stats[i].Mean, _ = mean.Float64()
		stats[i].Weak = mean.Cmp(bar) < 0
	}
	return stats
}

// Detect returns the weak topics in history, in first-appearance order.
// Topics absent from history are never reported.
func Detect(history []Record) []string {
	var weak []string
	for _, s := range Summarize(history) {
		if s.Weak {
			weak = append(weak, s.Topic)
		}
	}
	return weak
}
