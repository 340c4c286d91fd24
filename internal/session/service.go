// Package session coordinates the stateless engine packages with stored
// learner state: graded reviews, difficulty decisions, weak topics and
// study plans.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/adaptive/internal/difficulty"
	"github.com/abhisek/adaptive/internal/logger"
	"github.com/abhisek/adaptive/internal/spacedrep"
	"github.com/abhisek/adaptive/internal/store"
	"github.com/abhisek/adaptive/internal/weakness"
)

// ErrRetriesExhausted is returned when a review kept losing
// compare-and-swap races.
var ErrRetriesExhausted = errors.New("session: retries exhausted")

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	MaxRetries    int
	Concurrency   int
	HistoryWindow int
	Planner       *Planner
	Logger        *logger.Logger
}

// Service wires the engine to the repositories.
type Service struct {
	reviews     store.ReviewRepo
	quizzes     store.QuizRepo
	performance store.PerformanceRepo
	snapshots   store.SnapshotRepo

	maxRetries    int
	concurrency   int
	historyWindow int
	planner       *Planner
	log           *logger.Logger
}

// NewService creates a Service over the given repositories.
func NewService(reviews store.ReviewRepo, quizzes store.QuizRepo, performance store.PerformanceRepo, snapshots store.SnapshotRepo, opts Options) *Service {
	s := &Service{
		reviews:       reviews,
		quizzes:       quizzes,
		performance:   performance,
		snapshots:     snapshots,
		maxRetries:    opts.MaxRetries,
		concurrency:   opts.Concurrency,
		historyWindow: opts.HistoryWindow,
		planner:       opts.Planner,
		log:           opts.Logger,
	}
	if s.maxRetries <= 0 {
		s.maxRetries = 5
	}
	if s.concurrency <= 0 {
		s.concurrency = 4
	}
	if s.historyWindow < difficulty.WindowSize {
		s.historyWindow = difficulty.WindowSize
	}
	if s.planner == nil {
		s.planner = NewPlanner(DefaultReviewSlots, DefaultRemediationSlots)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	return s
}

// AddItem starts tracking topic for learnerID, first studied at now.
func (s *Service) AddItem(ctx context.Context, learnerID, topic string, level spacedrep.MasteryLevel, now time.Time) (*store.ReviewRecord, error) {
	if !level.IsValid() {
		return nil, fmt.Errorf("add item %q: unknown mastery level %q", topic, level)
	}
	rec, err := s.reviews.Create(ctx, learnerID, spacedrep.NewItem(topic, level, now))
	if err != nil {
		return nil, err
	}
	s.log.Info("review item added", "learner", learnerID, "topic", topic, "id", rec.ID)
	return rec, nil
}

// Review grades the stored item id and writes the rescheduled item back.
// Concurrent writers are detected by version; the loser re-reads and
// re-applies its rating, up to MaxRetries attempts.
func (s *Service) Review(ctx context.Context, id string, rating spacedrep.Rating, now time.Time) (*store.ReviewRecord, error) {
	if !rating.IsValid() {
		return nil, fmt.Errorf("review %s: %w: %d", id, spacedrep.ErrInvalidRating, int(rating))
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := s.reviews.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load review item %s: %w", id, err)
		}

		next, err := spacedrep.Schedule(rec.Item, rating, now)
		if err != nil {
			return nil, err
		}

		updated, err := s.reviews.CompareAndSwap(ctx, id, rec.Version, next)
		if err == nil {
			s.log.Debug("review recorded",
				"id", id,
				"topic", next.Topic,
				"rating", rating.String(),
				"interval", next.Interval,
				"ease_factor", next.EaseFactor,
				"next_review", next.NextReview)
			return updated, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return nil, err
		}
		s.log.Warn("review version conflict", "id", id, "attempt", attempt+1)
	}

	return nil, fmt.Errorf("review %s after %d attempts: %w", id, s.maxRetries, ErrRetriesExhausted)
}

// ReviewTopic grades the learner's item for topic.
func (s *Service) ReviewTopic(ctx context.Context, learnerID, topic string, rating spacedrep.Rating, now time.Time) (*store.ReviewRecord, error) {
	rec, err := s.reviews.GetByTopic(ctx, learnerID, topic)
	if err != nil {
		return nil, fmt.Errorf("find %q for %s: %w", topic, learnerID, err)
	}
	return s.Review(ctx, rec.ID, rating, now)
}

// Grade is one rating submitted for a stored item.
type Grade struct {
	ItemID string
	Rating spacedrep.Rating
}

// Outcome is the result of applying one Grade.
type Outcome struct {
	Grade  Grade
	Record *store.ReviewRecord
}

// ReviewBatch applies grades at now. Grades for different items run in
// parallel, bounded by Concurrency; grades for the same item are applied
// one after another in submission order. Outcomes line up with grades.
// The first failure cancels the remaining work and is returned.
func (s *Service) ReviewBatch(ctx context.Context, grades []Grade, now time.Time) ([]Outcome, error) {
	for _, g := range grades {
		if !g.Rating.IsValid() {
			return nil, fmt.Errorf("review %s: %w: %d", g.ItemID, spacedrep.ErrInvalidRating, int(g.Rating))
		}
	}

	// Group submission indexes by item, keeping first-seen item order.
	var order []string
	byItem := make(map[string][]int)
	for i, g := range grades {
		if _, ok := byItem[g.ItemID]; !ok {
			order = append(order, g.ItemID)
		}
		byItem[g.ItemID] = append(byItem[g.ItemID], i)
	}

	outcomes := make([]Outcome, len(grades))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, id := range order {
		id := id
		idxs := byItem[id]
		g.Go(func() error {
			for _, i := range idxs {
				rec, err := s.Review(gctx, id, grades[i].Rating, now)
				if err != nil {
					return err
				}
				outcomes[i] = Outcome{Grade: grades[i], Record: rec}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.log.Info("review batch applied", "grades", len(grades), "items", len(order))
	return outcomes, nil
}

// Due returns the learner's items due at now, most overdue first.
func (s *Service) Due(ctx context.Context, learnerID string, now time.Time) ([]store.ReviewRecord, error) {
	return s.reviews.Due(ctx, learnerID, now)
}

// Upcoming returns the learner's items not yet due at now, soonest first.
func (s *Service) Upcoming(ctx context.Context, learnerID string, now time.Time) ([]store.ReviewRecord, error) {
	recs, err := s.reviews.List(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list review items: %w", err)
	}
	return store.Queue(recs, now, spacedrep.Upcoming), nil
}

// RecordQuiz appends a graded quiz attempt to the learner's history.
func (s *Service) RecordQuiz(ctx context.Context, learnerID string, result difficulty.QuizResult) error {
	if _, err := s.quizzes.Append(ctx, learnerID, result); err != nil {
		return err
	}
	return nil
}

// RecordScore appends a per-topic score used for weakness detection.
func (s *Service) RecordScore(ctx context.Context, learnerID string, rec weakness.Record, at time.Time) error {
	return s.performance.Append(ctx, learnerID, rec, at)
}

// NextDifficulty loads the learner's recent quizzes and adjusts current.
func (s *Service) NextDifficulty(ctx context.Context, learnerID string, current difficulty.Level) (difficulty.Level, error) {
	recent, err := s.quizzes.Recent(ctx, learnerID, s.historyWindow)
	if err != nil {
		return current, fmt.Errorf("load quiz history: %w", err)
	}

	next := difficulty.Adjust(current, recent)
	s.log.Debug("difficulty decided",
		"learner", learnerID,
		"from", current.String(),
		"to", next.String(),
		"weighted_score", difficulty.WeightedScore(recent),
		"results", len(recent))
	return next, nil
}

// Weaknesses returns per-topic aggregates for the learner in first-seen order.
func (s *Service) Weaknesses(ctx context.Context, learnerID string) ([]weakness.TopicStat, error) {
	history, err := s.performance.History(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("load performance history: %w", err)
	}
	return weakness.Summarize(history), nil
}

// Plan builds the learner's study plan at now, starting from current
// difficulty.
func (s *Service) Plan(ctx context.Context, learnerID string, current difficulty.Level, now time.Time) (*Plan, error) {
	level, err := s.NextDifficulty(ctx, learnerID, current)
	if err != nil {
		return nil, err
	}
	due, err := s.reviews.Due(ctx, learnerID, now)
	if err != nil {
		return nil, fmt.Errorf("load due items: %w", err)
	}
	stats, err := s.Weaknesses(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	plan := s.planner.BuildPlan(due, weakTopics(stats), level)
	s.log.Info("plan built",
		"learner", learnerID,
		"level", level.String(),
		"review", plan.Count(CategoryReview),
		"remediation", plan.Count(CategoryRemediation))
	return plan, nil
}

// Checkpoint saves a snapshot of the learner's derived state and prunes
// older ones beyond keep.
func (s *Service) Checkpoint(ctx context.Context, learnerID string, level difficulty.Level, now time.Time, keep int) (*store.Snapshot, error) {
	items, err := s.reviews.List(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list review items: %w", err)
	}
	stats, err := s.Weaknesses(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	data := store.SnapshotData{
		Version:    1,
		Level:      level,
		Topics:     stats,
		WeakTopics: weakTopics(stats),
	}
	for _, rec := range items {
		data.Reviews = append(data.Reviews, rec.Item.Data())
	}

	snap := &store.Snapshot{LearnerID: learnerID, Timestamp: now, Data: data}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		return nil, err
	}
	if keep > 0 {
		if err := s.snapshots.Prune(ctx, learnerID, keep); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// LatestSnapshot returns the learner's most recent checkpoint, or nil if
// none was taken.
func (s *Service) LatestSnapshot(ctx context.Context, learnerID string) (*store.Snapshot, error) {
	snap, err := s.snapshots.Latest(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	return snap, nil
}

func weakTopics(stats []weakness.TopicStat) []string {
	var out []string
	for _, st := range stats {
		if st.Weak {
			out = append(out, st.Topic)
		}
	}
	return out
}
