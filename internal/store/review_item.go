package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/abhisek/adaptive/internal/spacedrep"
)

// ErrDuplicate is returned when a learner already tracks the topic.
var ErrDuplicate = errors.New("store: duplicate")

const reviewTable = "review_items"

var reviewColumns = []string{
	"id", "learner_id", "topic", "level", "last_review", "next_review",
	"interval_days", "ease_factor", "review_count", "version",
	"created_at", "updated_at",
}

// reviewRepo implements ReviewRepo with SQL rendered by the ent builder.
type reviewRepo struct {
	db *sql.DB
}

func (r *reviewRepo) Create(ctx context.Context, learnerID string, item spacedrep.ReviewItem) (*ReviewRecord, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &ReviewRecord{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		Version:   1,
		Item:      item,
		CreatedAt: now,
		UpdatedAt: now,
	}

	d := item.Data()
	query, args := builder().Insert(reviewTable).
		Columns(reviewColumns...).
		Values(rec.ID, learnerID, d.Topic, d.Level, d.LastReview, d.NextReview,
			d.Interval, d.EaseFactor, d.ReviewCount, rec.Version,
			formatTime(now), formatTime(now)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create review item %q: %w", item.Topic, ErrDuplicate)
		}
		return nil, fmt.Errorf("create review item: %w", err)
	}
	return rec, nil
}

func (r *reviewRepo) Get(ctx context.Context, id string) (*ReviewRecord, error) {
	return r.one(ctx, entsql.EQ("id", id))
}

func (r *reviewRepo) GetByTopic(ctx context.Context, learnerID, topic string) (*ReviewRecord, error) {
	return r.one(ctx, entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("topic", topic)))
}

func (r *reviewRepo) one(ctx context.Context, where *entsql.Predicate) (*ReviewRecord, error) {
	b := builder()
	query, args := b.Select(reviewColumns...).
		From(b.Table(reviewTable)).
		Where(where).
		Limit(1).
		Query()

	rec, err := scanReview(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review item: %w", err)
	}
	return rec, nil
}

func (r *reviewRepo) CompareAndSwap(ctx context.Context, id string, expected int64, item spacedrep.ReviewItem) (*ReviewRecord, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	d := item.Data()
	query, args := builder().Update(reviewTable).
		Set("level", d.Level).
		Set("last_review", d.LastReview).
		Set("next_review", d.NextReview).
		Set("interval_days", d.Interval).
		Set("ease_factor", d.EaseFactor).
		Set("review_count", d.ReviewCount).
		Set("updated_at", formatTime(now)).
		Add("version", 1).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("version", expected))).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update review item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update review item: %w", err)
	}
	if n == 0 {
		// Either the row is gone or someone else wrote first.
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("update review item %s at version %d: %w", id, expected, ErrVersionConflict)
	}
	return r.Get(ctx, id)
}

func (r *reviewRepo) List(ctx context.Context, learnerID string) ([]ReviewRecord, error) {
	b := builder()
	query, args := b.Select(reviewColumns...).
		From(b.Table(reviewTable)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy("topic").
		Query()
	return r.many(ctx, query, args)
}

func (r *reviewRepo) Due(ctx context.Context, learnerID string, now time.Time) ([]ReviewRecord, error) {
	b := builder()
	query, args := b.Select(reviewColumns...).
		From(b.Table(reviewTable)).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.LTE("next_review", formatTime(now)),
		)).
		Query()
	recs, err := r.many(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return Queue(recs, now, spacedrep.DueItems), nil
}

// Queue orders recs with a spacedrep queue builder such as DueItems or
// Upcoming, dropping records the builder leaves out. Records are matched
// by topic, which is unique per learner.
func Queue(recs []ReviewRecord, now time.Time, build func([]spacedrep.ReviewItem, time.Time) []spacedrep.ReviewItem) []ReviewRecord {
	byTopic := make(map[string]ReviewRecord, len(recs))
	items := make([]spacedrep.ReviewItem, 0, len(recs))
	for _, rec := range recs {
		byTopic[rec.Item.Topic] = rec
		items = append(items, rec.Item)
	}

	var out []ReviewRecord
	for _, it := range build(items, now) {
		out = append(out, byTopic[it.Topic])
	}
	return out
}

func (r *reviewRepo) many(ctx context.Context, query string, args []any) ([]ReviewRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query review items: %w", err)
	}
	defer rows.Close()

	var out []ReviewRecord
	for rows.Next() {
		rec, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review item: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (*ReviewRecord, error) {
	var (
		rec                  ReviewRecord
		d                    spacedrep.ItemData
		createdAt, updatedAt string
	)
	err := row.Scan(&rec.ID, &rec.LearnerID, &d.Topic, &d.Level, &d.LastReview, &d.NextReview,
		&d.Interval, &d.EaseFactor, &d.ReviewCount, &rec.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if rec.Item, err = d.Item(); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(spacedrep.TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
