package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pitchready/refexam-backend/internal/model"
)

// FlaggedRepository stores the persistent per-user review library.
type FlaggedRepository struct {
	pool *pgxpool.Pool
}

// NewFlaggedRepository creates a new FlaggedRepository.
func NewFlaggedRepository(pool *pgxpool.Pool) *FlaggedRepository {
	return &FlaggedRepository{pool: pool}
}

// Exists reports whether the user has flagged the question.
func (r *FlaggedRepository) Exists(ctx context.Context, userID, questionID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM flagged_questions WHERE user_id = $1 AND question_id = $2)`,
		userID, questionID,
	).Scan(&exists)
	return exists, err
}

// Insert adds a flag; a repeated insert for the same pair is a no-op.
func (r *FlaggedRepository) Insert(ctx context.Context, f *model.FlaggedQuestion) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO flagged_questions (user_id, question_id, note)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, question_id) DO NOTHING`,
		f.UserID, f.QuestionID, f.Note)
	return err
}

// Delete removes a flag. Deleting an absent flag is a no-op.
func (r *FlaggedRepository) Delete(ctx context.Context, userID, questionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM flagged_questions WHERE user_id = $1 AND question_id = $2`,
		userID, questionID)
	return err
}

// ListByUser returns the user's flags joined with their live questions.
// Flags whose question no longer exists are excluded by the inner join.
func (r *FlaggedRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.FlaggedView, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT f.user_id, f.question_id, f.note, f.flagged_at,
		        q.id, q.question_text, q.options, q.correct_answer, q.category,
		        q.difficulty, q.explanation, q.law_reference, q.is_active, q.created_at, q.updated_at
		 FROM flagged_questions f
		 JOIN questions q ON q.id = f.question_id
		 WHERE f.user_id = $1
		 ORDER BY f.flagged_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []model.FlaggedView
	for rows.Next() {
		var v model.FlaggedView
		var q model.Question
		var opts []byte
		if err := rows.Scan(&v.UserID, &v.QuestionID, &v.Note, &v.FlaggedAt,
			&q.ID, &q.QuestionText, &opts, &q.CorrectAnswer, &q.Category,
			&q.Difficulty, &q.Explanation, &q.LawReference, &q.IsActive, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(opts, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options for %s: %w", q.ID, err)
		}
		v.Question = &q
		views = append(views, v)
	}
	return views, rows.Err()
}
