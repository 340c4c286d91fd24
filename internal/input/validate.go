// Package input decodes and validates the JSON documents accepted on the
// command line.
package input

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/adaptive/internal/difficulty"
	"github.com/abhisek/adaptive/internal/spacedrep"
	"github.com/abhisek/adaptive/internal/weakness"
)

// ErrInvalidDocument indicates a document failed to parse or validate.
type ErrInvalidDocument struct {
	Kind string
	Err  error
}

func (e *ErrInvalidDocument) Error() string {
	return fmt.Sprintf("invalid %s document: %v", e.Kind, e.Err)
}

func (e *ErrInvalidDocument) Unwrap() error { return e.Err }

// QuizHistory is the input to a difficulty decision.
type QuizHistory struct {
	Current difficulty.Level        `json:"current"`
	Results []difficulty.QuizResult `json:"results" validate:"dive"`
}

// Review is a single grading event for an item.
type Review struct {
	Item   spacedrep.ReviewItem `json:"item"`
	Rating int                  `json:"rating" validate:"gte=0,lte=5"`
	// Now is the evaluation instant. Zero means the caller decides.
	Now time.Time `json:"now"`
}

// Performance is a flat score history.
type Performance struct {
	Records []weakness.Record `json:"records" validate:"dive"`
}

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeQuizHistory parses and validates a quiz-history document.
func DecodeQuizHistory(raw []byte) (*QuizHistory, error) {
	var doc QuizHistory
	if err := decode(QuizHistorySchema, raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DecodeReview parses and validates a review document.
func DecodeReview(raw []byte) (*Review, error) {
	var doc Review
	if err := decode(ReviewSchema, raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DecodePerformance parses and validates a performance document.
func DecodePerformance(raw []byte) (*Performance, error) {
	var doc Performance
	if err := decode(PerformanceSchema, raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// decode checks raw against schema, unmarshals it into dst and runs struct
// validation on the result. Failures are returned as *ErrInvalidDocument.
func decode(schema *Schema, raw []byte, dst any) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrInvalidDocument{Kind: schema.Name, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	compiled, err := getCompiledSchema(schema)
	if err != nil {
		return &ErrInvalidDocument{Kind: schema.Name, Err: fmt.Errorf("compile schema: %w", err)}
	}
	if err := compiled.Validate(parsed); err != nil {
		return &ErrInvalidDocument{Kind: schema.Name, Err: fmt.Errorf("schema validation failed: %w", err)}
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return &ErrInvalidDocument{Kind: schema.Name, Err: err}
	}
	if err := validate.Struct(dst); err != nil {
		return &ErrInvalidDocument{Kind: schema.Name, Err: err}
	}
	return nil
}

// Struct runs tag validation on a value built outside a document, such as
// a quiz result assembled from flags.
func Struct(v any) error {
	return validate.Struct(v)
}

// getCompiledSchema returns a cached compiled schema or compiles and caches it.
func getCompiledSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants plain JSON values, so round-trip the Go literal.
	defBytes, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", schema.Name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(schema.Name, compiled)
	return compiled, nil
}
