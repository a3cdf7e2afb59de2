package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pitchready/refexam-backend/internal/model"
)

const resultColumns = `id, user_id, exam_type, category, questions, score, total, percentage, passed, time_taken_seconds, category_breakdown, created_at`

// ResultRepository is the append-only log of scored exam results.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Create appends a finished result. Results are never updated afterwards.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	questions, err := json.Marshal(res.Questions)
	if err != nil {
		return fmt.Errorf("marshal scored questions: %w", err)
	}
	breakdown, err := json.Marshal(res.CategoryBreakdown)
	if err != nil {
		return fmt.Errorf("marshal category breakdown: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO results (id, user_id, exam_type, category, questions, score, total, percentage, passed, time_taken_seconds, category_breakdown, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		res.ID, res.UserID, res.ExamType, res.Category, questions,
		res.Score, res.Total, res.Percentage, res.Passed,
		res.TimeTakenSeconds, breakdown, res.CreatedAt)
	return err
}

// ListByUser retrieves all results for a user, newest first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM results WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows)
}

// Recent retrieves the newest results for a user, bounded by limit.
func (r *ResultRepository) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM results WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows)
}

// GetByID retrieves a single result.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	res, err := scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

// Delete removes a result owned by the given user.
func (r *ResultRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM results WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByUser clears a user's entire history.
func (r *ResultRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM results WHERE user_id = $1`, userID)
	return err
}

func scanResult(row rowScanner) (*model.Result, error) {
	var res model.Result
	var questions, breakdown []byte
	if err := row.Scan(&res.ID, &res.UserID, &res.ExamType, &res.Category, &questions,
		&res.Score, &res.Total, &res.Percentage, &res.Passed,
		&res.TimeTakenSeconds, &breakdown, &res.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &res.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal scored questions for %s: %w", res.ID, err)
	}
	if err := json.Unmarshal(breakdown, &res.CategoryBreakdown); err != nil {
		return nil, fmt.Errorf("unmarshal category breakdown for %s: %w", res.ID, err)
	}
	return &res, nil
}

func scanResults(rows pgx.Rows) ([]model.Result, error) {
	var results []model.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}
