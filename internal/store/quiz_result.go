package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/adaptive/internal/difficulty"
)

const quizTable = "quiz_results"

type quizRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *quizRepo) Append(ctx context.Context, learnerID string, result difficulty.QuizResult) (*QuizRecord, error) {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return nil, err
	}

	rec := &QuizRecord{
		ID:        uuid.NewString(),
		Sequence:  seq,
		LearnerID: learnerID,
		Result:    result,
	}
	query, args := builder().Insert(quizTable).
		Set("id", rec.ID).
		Set("sequence", seq).
		Set("learner_id", learnerID).
		Set("score", result.Score).
		Set("total_questions", result.TotalQuestions).
		Set("difficulty", result.Difficulty.String()).
		Set("taken_at", formatTime(result.Timestamp)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("append quiz result: %w", err)
	}
	return rec, nil
}

func (r *quizRepo) Recent(ctx context.Context, learnerID string, n int) ([]difficulty.QuizResult, error) {
	b := builder()
	sel := b.Select("score", "total_questions", "difficulty", "taken_at").
		From(b.Table(quizTable)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy(entsql.Desc("sequence"))
	if n > 0 {
		sel.Limit(n)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quiz results: %w", err)
	}
	defer rows.Close()

	var out []difficulty.QuizResult
	for rows.Next() {
		var (
			res     difficulty.QuizResult
			level   string
			takenAt string
		)
		if err := rows.Scan(&res.Score, &res.TotalQuestions, &level, &takenAt); err != nil {
			return nil, fmt.Errorf("scan quiz result: %w", err)
		}
		if res.Difficulty, err = difficulty.ParseLevel(level); err != nil {
			return nil, err
		}
		if res.Timestamp, err = parseTime(takenAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest first from the query; callers want oldest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
