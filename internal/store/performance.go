package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/adaptive/internal/weakness"
)

const performanceTable = "performance_records"

type performanceRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *performanceRepo) Append(ctx context.Context, learnerID string, rec weakness.Record, at time.Time) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}

	query, args := builder().Insert(performanceTable).
		Set("id", uuid.NewString()).
		Set("sequence", seq).
		Set("learner_id", learnerID).
		Set("topic", rec.Topic).
		Set("score", rec.Score).
		Set("recorded_at", formatTime(at)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append performance record: %w", err)
	}
	return nil
}

func (r *performanceRepo) History(ctx context.Context, learnerID string) ([]weakness.Record, error) {
	b := builder()
	query, args := b.Select("topic", "score").
		From(b.Table(performanceTable)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy("sequence").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query performance records: %w", err)
	}
	defer rows.Close()

	var out []weakness.Record
	for rows.Next() {
		var rec weakness.Record
		if err := rows.Scan(&rec.Topic, &rec.Score); err != nil {
			return nil, fmt.Errorf("scan performance record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
