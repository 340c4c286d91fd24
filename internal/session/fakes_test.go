package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/adaptive/internal/difficulty"
	"github.com/abhisek/adaptive/internal/spacedrep"
	"github.com/abhisek/adaptive/internal/store"
	"github.com/abhisek/adaptive/internal/weakness"
)

// fakeReviewRepo is an in-memory ReviewRepo. conflicts[id] makes that many
// CompareAndSwap calls on id lose a race.
type fakeReviewRepo struct {
	mu        sync.Mutex
	records   map[string]*store.ReviewRecord
	conflicts map[string]int
	casCalls  int
	nextID    int
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{
		records:   make(map[string]*store.ReviewRecord),
		conflicts: make(map[string]int),
	}
}

func (f *fakeReviewRepo) Create(_ context.Context, learnerID string, item spacedrep.ReviewItem) (*store.ReviewRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.LearnerID == learnerID && r.Item.Topic == item.Topic {
			return nil, store.ErrDuplicate
		}
	}
	f.nextID++
	rec := &store.ReviewRecord{
		ID:        fmt.Sprintf("item-%d", f.nextID),
		LearnerID: learnerID,
		Version:   1,
		Item:      item,
	}
	f.records[rec.ID] = rec
	cp := *rec
	return &cp, nil
}

func (f *fakeReviewRepo) Get(_ context.Context, id string) (*store.ReviewRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeReviewRepo) GetByTopic(_ context.Context, learnerID, topic string) (*store.ReviewRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.LearnerID == learnerID && r.Item.Topic == topic {
			cp := *r
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeReviewRepo) CompareAndSwap(_ context.Context, id string, expected int64, item spacedrep.ReviewItem) (*store.ReviewRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.casCalls++
	rec, ok := f.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if f.conflicts[id] > 0 {
		// Simulate another writer landing first.
		f.conflicts[id]--
		rec.Version++
	}
	if rec.Version != expected {
		return nil, store.ErrVersionConflict
	}
	rec.Item = item
	rec.Version++
	cp := *rec
	return &cp, nil
}

func (f *fakeReviewRepo) List(_ context.Context, learnerID string) ([]store.ReviewRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.ReviewRecord
	for _, r := range f.records {
		if r.LearnerID == learnerID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item.Topic < out[j].Item.Topic })
	return out, nil
}

func (f *fakeReviewRepo) Due(ctx context.Context, learnerID string, now time.Time) ([]store.ReviewRecord, error) {
	all, _ := f.List(ctx, learnerID)
	return store.Queue(all, now, spacedrep.DueItems), nil
}

type fakeQuizRepo struct {
	results map[string][]difficulty.QuizResult
}

func (f *fakeQuizRepo) Append(_ context.Context, learnerID string, r difficulty.QuizResult) (*store.QuizRecord, error) {
	if f.results == nil {
		f.results = make(map[string][]difficulty.QuizResult)
	}
	f.results[learnerID] = append(f.results[learnerID], r)
	return &store.QuizRecord{LearnerID: learnerID, Result: r, Sequence: int64(len(f.results[learnerID]))}, nil
}

func (f *fakeQuizRepo) Recent(_ context.Context, learnerID string, n int) ([]difficulty.QuizResult, error) {
	all := f.results[learnerID]
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

type fakePerformanceRepo struct {
	records map[string][]weakness.Record
}

func (f *fakePerformanceRepo) Append(_ context.Context, learnerID string, r weakness.Record, _ time.Time) error {
	if f.records == nil {
		f.records = make(map[string][]weakness.Record)
	}
	f.records[learnerID] = append(f.records[learnerID], r)
	return nil
}

func (f *fakePerformanceRepo) History(_ context.Context, learnerID string) ([]weakness.Record, error) {
	return f.records[learnerID], nil
}

type fakeSnapshotRepo struct {
	saved  []*store.Snapshot
	pruned int
}

func (f *fakeSnapshotRepo) Save(_ context.Context, snap *store.Snapshot) error {
	f.saved = append(f.saved, snap)
	return nil
}

func (f *fakeSnapshotRepo) Latest(_ context.Context, learnerID string) (*store.Snapshot, error) {
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].LearnerID == learnerID {
			return f.saved[i], nil
		}
	}
	return nil, nil
}

func (f *fakeSnapshotRepo) Prune(_ context.Context, _ string, keep int) error {
	f.pruned = keep
	return nil
}

type fakes struct {
	reviews     *fakeReviewRepo
	quizzes     *fakeQuizRepo
	performance *fakePerformanceRepo
	snapshots   *fakeSnapshotRepo
}

func newTestService(opts Options) (*Service, *fakes) {
	f := &fakes{
		reviews:     newFakeReviewRepo(),
		quizzes:     &fakeQuizRepo{},
		performance: &fakePerformanceRepo{},
		snapshots:   &fakeSnapshotRepo{},
	}
	return NewService(f.reviews, f.quizzes, f.performance, f.snapshots, opts), f
}
