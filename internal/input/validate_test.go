package input

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptive/internal/difficulty"
	"github.com/abhisek/adaptive/internal/spacedrep"
)

func TestDecodeQuizHistory(t *testing.T) {
	raw := []byte(`{
		"current": "intermediate",
		"results": [
			{"score": 0.9, "total_questions": 10, "difficulty": "intermediate", "timestamp": "2025-01-01T12:00:00Z"},
			{"score": 0.95, "total_questions": 10, "difficulty": "intermediate", "timestamp": "2025-01-02T12:00:00Z"},
			{"score": 0.88, "total_questions": 8, "difficulty": "intermediate", "timestamp": "2025-01-03T12:00:00Z"}
		]
	}`)

	doc, err := DecodeQuizHistory(raw)
	require.NoError(t, err)
	assert.Equal(t, difficulty.Intermediate, doc.Current)
	require.Len(t, doc.Results, 3)
	assert.Equal(t, difficulty.Advanced, difficulty.Adjust(doc.Current, doc.Results))
}

func TestDecodeQuizHistoryRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"missing results", `{"current":"beginner"}`},
		{"score above one", `{"current":"beginner","results":[{"score":1.2,"total_questions":3}]}`},
		{"negative score", `{"current":"beginner","results":[{"score":-0.1,"total_questions":3}]}`},
		{"zero questions", `{"current":"beginner","results":[{"score":0.5,"total_questions":0}]}`},
		{"unknown level", `{"current":"expert","results":[]}`},
		{"bad timestamp", `{"current":"beginner","results":[{"score":0.5,"total_questions":1,"timestamp":"monday"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeQuizHistory([]byte(tt.raw))
			var invErr *ErrInvalidDocument
			if !errors.As(err, &invErr) {
				t.Fatalf("expected ErrInvalidDocument, got: %v", err)
			}
			assert.Equal(t, "quiz-history", invErr.Kind)
		})
	}
}

func TestDecodeReview(t *testing.T) {
	raw := []byte(`{
		"item": {
			"topic": "limits",
			"level": "advanced",
			"last_review": "2025-01-01T12:00:00Z",
			"next_review": "2025-01-07T12:00:00Z",
			"interval": 6,
			"ease_factor": 2.5,
			"review_count": 2
		},
		"rating": 5,
		"now": "2025-01-07T12:00:00Z"
	}`)

	doc, err := DecodeReview(raw)
	require.NoError(t, err)
	assert.Equal(t, spacedrep.MasteryAdvanced, doc.Item.Level)

	next, err := spacedrep.Schedule(doc.Item, spacedrep.Rating(doc.Rating), doc.Now)
	require.NoError(t, err)
	assert.Equal(t, 15, next.Interval)
}

func TestDecodeReviewRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"rating too high", `{"item":{"topic":"a","interval":1,"ease_factor":2.5,"review_count":0},"rating":6}`},
		{"ease below floor", `{"item":{"topic":"a","interval":1,"ease_factor":1.1,"review_count":0},"rating":3}`},
		{"interval above maximum", `{"item":{"topic":"a","interval":36501,"ease_factor":2.5,"review_count":3},"rating":5}`},
		{"zero interval", `{"item":{"topic":"a","interval":0,"ease_factor":2.5,"review_count":0},"rating":3}`},
		{"empty topic", `{"item":{"topic":"","interval":1,"ease_factor":2.5,"review_count":0},"rating":3}`},
		{"missing item", `{"rating":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeReview([]byte(tt.raw))
			var invErr *ErrInvalidDocument
			require.True(t, errors.As(err, &invErr), "got %v", err)
		})
	}
}

func TestDecodePerformance(t *testing.T) {
	raw := []byte(`{"records":[
		{"topic":"A","score":0.5},
		{"topic":"B","score":0.9},
		{"topic":"A","score":0.6},
		{"topic":"B","score":0.95}
	]}`)
	doc, err := DecodePerformance(raw)
	require.NoError(t, err)
	assert.Len(t, doc.Records, 4)

	_, err = DecodePerformance([]byte(`{"records":[{"topic":"A","score":2}]}`))
	var invErr *ErrInvalidDocument
	assert.True(t, errors.As(err, &invErr))
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(difficulty.QuizResult{Score: 0.5, TotalQuestions: 2}))
	assert.Error(t, Struct(difficulty.QuizResult{Score: 1.5, TotalQuestions: 2}))
	assert.Error(t, Struct(difficulty.QuizResult{Score: 0.5, TotalQuestions: 0}))
}

func TestSchemaCompiledOnce(t *testing.T) {
	first, err := getCompiledSchema(PerformanceSchema)
	require.NoError(t, err)
	second, err := getCompiledSchema(PerformanceSchema)
	require.NoError(t, err)
	assert.Same(t, first, second)
}
