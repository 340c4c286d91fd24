package input

import "github.com/abhisek/adaptive/internal/spacedrep"

// Schema is a named JSON Schema definition for an input document.
type Schema struct {
	// Name identifies the document kind, e.g. "quiz-history".
	Name string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

var levelEnum = []any{"beginner", "intermediate", "advanced", "master"}

var unitScore = map[string]any{"type": "number", "minimum": 0, "maximum": 1}

// QuizHistorySchema describes a learner's recent quiz attempts.
var QuizHistorySchema = &Schema{
	Name: "quiz-history",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"current": map[string]any{"type": "string", "enum": levelEnum},
			"results": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"score":           unitScore,
						"total_questions": map[string]any{"type": "integer", "minimum": 1},
						"difficulty":      map[string]any{"type": "string", "enum": levelEnum},
						"timestamp":       map[string]any{"type": "string"},
					},
					"required": []any{"score", "total_questions"},
				},
			},
		},
		"required": []any{"current", "results"},
	},
}

// ReviewSchema describes one review item and the rating it received.
var ReviewSchema = &Schema{
	Name: "review",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"item": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"topic":        map[string]any{"type": "string", "minLength": 1},
					"level":        map[string]any{"type": "string", "enum": levelEnum},
					"last_review":  map[string]any{"type": "string"},
					"next_review":  map[string]any{"type": "string"},
					"interval":     map[string]any{"type": "integer", "minimum": 1, "maximum": spacedrep.MaxInterval},
					"ease_factor":  map[string]any{"type": "number", "minimum": 1.3},
					"review_count": map[string]any{"type": "integer", "minimum": 0},
				},
				"required": []any{"topic", "interval", "ease_factor", "review_count"},
			},
			"rating": map[string]any{"type": "integer", "minimum": 0, "maximum": 5},
			"now":    map[string]any{"type": "string"},
		},
		"required": []any{"item", "rating"},
	},
}

// PerformanceSchema describes a flat per-topic score history.
var PerformanceSchema = &Schema{
	Name: "performance",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"records": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"topic": map[string]any{"type": "string", "minLength": 1},
						"score": unitScore,
					},
					"required": []any{"topic", "score"},
				},
			},
		},
		"required": []any{"records"},
	},
}
