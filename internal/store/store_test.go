package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptive/internal/difficulty"
	"github.com/abhisek/adaptive/internal/spacedrep"
	"github.com/abhisek/adaptive/internal/weakness"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// openTestStore opens an in-memory database private to the calling test.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is not checked here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		got, err := s.seq.Next(ctx)
		require.NoError(t, err)
		if got != want {
			t.Errorf("Next() = %d, want %d", got, want)
		}
	}

	// Reopening the counter must not reset it.
	again, err := newSequenceCounter(s.DB())
	require.NoError(t, err)
	got, err := again.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)
}

func TestReviewCreateAndGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.ReviewRepo()
	ctx := context.Background()

	item := spacedrep.NewItem("limits", spacedrep.MasteryIntermediate, t0)
	rec, err := repo.Create(ctx, "u1", item)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, int64(1), rec.Version)

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.LearnerID)
	assert.Equal(t, item.Topic, got.Item.Topic)
	assert.Equal(t, item.Level, got.Item.Level)
	assert.Equal(t, item.Interval, got.Item.Interval)
	assert.True(t, item.NextReview.Equal(got.Item.NextReview))

	byTopic, err := repo.GetByTopic(ctx, "u1", "limits")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, byTopic.ID)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewCreateDuplicateTopic(t *testing.T) {
	s := openTestStore(t)
	repo := s.ReviewRepo()
	ctx := context.Background()

	item := spacedrep.NewItem("limits", spacedrep.MasteryBeginner, t0)
	_, err := repo.Create(ctx, "u1", item)
	require.NoError(t, err)

	_, err = repo.Create(ctx, "u1", item)
	assert.ErrorIs(t, err, ErrDuplicate)

	// Another learner may track the same topic.
	_, err = repo.Create(ctx, "u2", item)
	assert.NoError(t, err)
}

func TestReviewCompareAndSwap(t *testing.T) {
	s := openTestStore(t)
	repo := s.ReviewRepo()
	ctx := context.Background()

	rec, err := repo.Create(ctx, "u1", spacedrep.NewItem("sets", spacedrep.MasteryBeginner, t0))
	require.NoError(t, err)

	next, err := spacedrep.Schedule(rec.Item, spacedrep.RatingPerfect, t0.AddDate(0, 0, 1))
	require.NoError(t, err)

	updated, err := repo.CompareAndSwap(ctx, rec.ID, rec.Version, next)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, 1, updated.Item.ReviewCount)
	assert.InDelta(t, 2.6, updated.Item.EaseFactor, 1e-9)

	// A writer holding the old version loses.
	_, err = repo.CompareAndSwap(ctx, rec.ID, rec.Version, next)
	if !errors.Is(err, ErrVersionConflict) {
		t.Errorf("stale CAS err = %v, want ErrVersionConflict", err)
	}

	_, err = repo.CompareAndSwap(ctx, "missing", 1, next)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewListAndDue(t *testing.T) {
	s := openTestStore(t)
	repo := s.ReviewRepo()
	ctx := context.Background()

	// NewItem schedules one day out; shift LastReview to stagger due dates.
	for i, topic := range []string{"c", "a", "b"} {
		item := spacedrep.NewItem(topic, spacedrep.MasteryBeginner, t0.AddDate(0, 0, i))
		_, err := repo.Create(ctx, "u1", item)
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, "u2", spacedrep.NewItem("z", spacedrep.MasteryBeginner, t0))
	require.NoError(t, err)

	all, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Item.Topic)
	assert.Equal(t, "c", all[2].Item.Topic)

	// c is due t0+1, a t0+2, b t0+3.
	due, err := repo.Due(ctx, "u1", t0.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "c", due[0].Item.Topic)
	assert.Equal(t, "a", due[1].Item.Topic)
}

func TestQuizRecent(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	for i, score := range []float64{0.1, 0.2, 0.3, 0.4} {
		_, err := repo.Append(ctx, "u1", difficulty.QuizResult{
			Score:          score,
			TotalQuestions: 5,
			Difficulty:     difficulty.Advanced,
			Timestamp:      t0.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err := repo.Append(ctx, "u2", difficulty.QuizResult{Score: 1, TotalQuestions: 1, Timestamp: t0})
	require.NoError(t, err)

	recent, err := repo.Recent(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, 0.2, recent[0].Score)
	assert.Equal(t, 0.4, recent[2].Score)
	assert.Equal(t, difficulty.Advanced, recent[0].Difficulty)

	all, err := repo.Recent(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestPerformanceHistoryOrder(t *testing.T) {
	s := openTestStore(t)
	repo := s.PerformanceRepo()
	ctx := context.Background()

	records := []weakness.Record{
		{Topic: "b", Score: 0.4},
		{Topic: "a", Score: 0.9},
		{Topic: "b", Score: 0.5},
	}
	// Same timestamp for all; order comes from the sequence.
	for _, r := range records {
		require.NoError(t, repo.Append(ctx, "u1", r, t0))
	}

	got, err := repo.History(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, records, got)
	assert.Equal(t, []string{"b"}, weakness.Detect(got))

	empty, err := repo.History(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSnapshotSaveAndLatest(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	// No snapshot yet.
	snap, err := repo.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, snap)

	item := spacedrep.NewItem("limits", spacedrep.MasteryBeginner, t0)
	for i := 0; i < 3; i++ {
		err := repo.Save(ctx, &Snapshot{
			LearnerID: "u1",
			Timestamp: t0.Add(time.Duration(i) * time.Minute),
			Data: SnapshotData{
				Version:    i + 1,
				Level:      difficulty.Intermediate,
				Reviews:    []spacedrep.ItemData{item.Data()},
				WeakTopics: []string{"limits"},
			},
		})
		require.NoError(t, err)
	}

	snap, err = repo.Latest(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 3, snap.Data.Version)
	assert.Equal(t, difficulty.Intermediate, snap.Data.Level)
	assert.Equal(t, []string{"limits"}, snap.Data.WeakTopics)
	require.Len(t, snap.Data.Reviews, 1)
	assert.Equal(t, "limits", snap.Data.Reviews[0].Topic)
}

func TestSnapshotPrune(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		err := repo.Save(ctx, &Snapshot{
			LearnerID: "u1",
			Timestamp: t0.Add(time.Duration(i) * time.Minute),
			Data:      SnapshotData{Version: i + 1},
		})
		require.NoError(t, err)
	}
	require.NoError(t, repo.Save(ctx, &Snapshot{LearnerID: "u2", Timestamp: t0}))

	require.NoError(t, repo.Prune(ctx, "u1", 5))

	count := func(learner string) int {
		var n int
		err := s.DB().QueryRow(`SELECT COUNT(*) FROM snapshots WHERE learner_id = ?`, learner).Scan(&n)
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, 5, count("u1"))
	assert.Equal(t, 1, count("u2"))

	snap, err := repo.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, snap.Data.Version)

	// Fewer than keep is a no-op.
	require.NoError(t, repo.Prune(ctx, "u2", 5))
	assert.Equal(t, 1, count("u2"))
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("ADAPTIVE_DB", dir+"/custom/x.db")
	p, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, dir+"/custom/x.db", p)

	t.Setenv("ADAPTIVE_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, dir+"/adaptive/adaptive.db", p)
}

func TestReviewTimesKeepSubSecondPrecision(t *testing.T) {
	s := openTestStore(t)
	repo := s.ReviewRepo()
	ctx := context.Background()

	at := t0.Add(123456789 * time.Nanosecond)
	item := spacedrep.NewItem("vectors", spacedrep.MasteryBeginner, at)
	rec, err := repo.Create(ctx, "u1", item)
	require.NoError(t, err)

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.Item.LastReview.Equal(at), "LastReview = %v, want %v", got.Item.LastReview, at)
	assert.True(t, got.Item.NextReview.Equal(item.NextReview))

	// Within the same second as NextReview, Due agrees with IsDue.
	before := item.NextReview.Add(-100 * time.Millisecond)
	due, err := repo.Due(ctx, "u1", before)
	require.NoError(t, err)
	assert.False(t, item.IsDue(before))
	assert.Empty(t, due)

	due, err = repo.Due(ctx, "u1", item.NextReview)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, rec.ID, due[0].ID)
}

func TestQueueUpcoming(t *testing.T) {
	mk := func(id, topic string, next time.Time) ReviewRecord {
		return ReviewRecord{ID: id, Item: spacedrep.ReviewItem{Topic: topic, NextReview: next, Interval: 1, EaseFactor: 2.5}}
	}
	recs := []ReviewRecord{
		mk("1", "late", t0.AddDate(0, 0, 5)),
		mk("2", "due", t0.AddDate(0, 0, -1)),
		mk("3", "soon", t0.AddDate(0, 0, 2)),
	}

	got := Queue(recs, t0, spacedrep.Upcoming)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "1", got[1].ID)

	due := Queue(recs, t0, spacedrep.DueItems)
	require.Len(t, due, 1)
	assert.Equal(t, "2", due[0].ID)
}
