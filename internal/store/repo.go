package store

import (
	"context"
	"time"

	"github.com/abhisek/adaptive/internal/difficulty"
	"github.com/abhisek/adaptive/internal/spacedrep"
	"github.com/abhisek/adaptive/internal/weakness"
)

// ReviewRecord is a stored review item with its concurrency metadata.
type ReviewRecord struct {
	ID        string
	LearnerID string
	// Version increments on every successful write and guards
	// compare-and-swap updates.
	Version   int64
	Item      spacedrep.ReviewItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReviewRepo persists review items. Items are unique per learner and topic.
type ReviewRepo interface {
	// Create stores a new item at version 1.
	Create(ctx context.Context, learnerID string, item spacedrep.ReviewItem) (*ReviewRecord, error)

	// Get returns the record with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*ReviewRecord, error)

	// GetByTopic returns the learner's record for topic, or ErrNotFound.
	GetByTopic(ctx context.Context, learnerID, topic string) (*ReviewRecord, error)

	// CompareAndSwap replaces the item if the stored version still equals
	// expected. It returns the updated record, ErrVersionConflict when the
	// version moved, or ErrNotFound.
	CompareAndSwap(ctx context.Context, id string, expected int64, item spacedrep.ReviewItem) (*ReviewRecord, error)

	// List returns all of a learner's records ordered by topic.
	List(ctx context.Context, learnerID string) ([]ReviewRecord, error)

	// Due returns records whose next review is at or before now, most
	// overdue first.
	Due(ctx context.Context, learnerID string, now time.Time) ([]ReviewRecord, error)
}

// QuizRecord is a stored quiz result.
type QuizRecord struct {
	ID        string
	Sequence  int64
	LearnerID string
	Result    difficulty.QuizResult
}

// QuizRepo is an append-only log of quiz results.
type QuizRepo interface {
	Append(ctx context.Context, learnerID string, result difficulty.QuizResult) (*QuizRecord, error)

	// Recent returns up to n of the learner's latest results, oldest first.
	// n <= 0 returns all of them.
	Recent(ctx context.Context, learnerID string, n int) ([]difficulty.QuizResult, error)
}

// PerformanceRepo is an append-only log of per-topic scores.
type PerformanceRepo interface {
	Append(ctx context.Context, learnerID string, rec weakness.Record, at time.Time) error

	// History returns every record for the learner in insertion order.
	History(ctx context.Context, learnerID string) ([]weakness.Record, error)
}

// SnapshotData captures a learner's derived state at a point in time.
type SnapshotData struct {
	Version    int                  `json:"version"`
	Level      difficulty.Level     `json:"level"`
	Reviews    []spacedrep.ItemData `json:"reviews"`
	Topics     []weakness.TopicStat `json:"topics"`
	WeakTopics []string             `json:"weak_topics"`
}

// Snapshot is a stored SnapshotData.
type Snapshot struct {
	ID        string
	Sequence  int64
	LearnerID string
	Timestamp time.Time
	Data      SnapshotData
}

// SnapshotRepo manages learner state snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the learner's most recent snapshot, or nil if none exist.
	Latest(ctx context.Context, learnerID string) (*Snapshot, error)

	// Prune deletes all but the learner's keep most recent snapshots.
	Prune(ctx context.Context, learnerID string, keep int) error
}
