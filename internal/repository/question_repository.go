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

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const questionColumns = `id, question_text, options, correct_answer, category, difficulty, explanation, law_reference, is_active, created_at, updated_at`

// QuestionFilters narrows random sampling and listings.
type QuestionFilters struct {
	Category   *model.Category
	Difficulty *model.Difficulty
	ExcludeIDs []uuid.UUID
}

// QuestionRepository handles question corpus data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// SampleRandom returns up to count distinct active questions matching the
// filters, in randomized order without replacement. A filtered pool smaller
// than count yields a short result, never an error.
func (r *QuestionRepository) SampleRandom(ctx context.Context, count int, f QuestionFilters) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE is_active = TRUE`
	var args []any

	if f.Category != nil {
		args = append(args, *f.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.Difficulty != nil {
		args = append(args, *f.Difficulty)
		query += fmt.Sprintf(" AND difficulty = $%d", len(args))
	}
	if len(f.ExcludeIDs) > 0 {
		args = append(args, f.ExcludeIDs)
		query += fmt.Sprintf(" AND NOT (id = ANY($%d))", len(args))
	}

	args = append(args, count)
	query += fmt.Sprintf(" ORDER BY random() LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// GetByID is the authoritative single-question lookup, used at scoring time
// to fetch the ground-truth correct answer and explanation.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)

	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

// List retrieves questions with optional filters and pagination. Inactive
// questions are included so admins can review them.
func (r *QuestionRepository) List(ctx context.Context, f QuestionFilters, page, perPage int) ([]model.Question, int64, error) {
	baseQuery := ` FROM questions WHERE TRUE`
	var args []any

	if f.Category != nil {
		args = append(args, *f.Category)
		baseQuery += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.Difficulty != nil {
		args = append(args, *f.Difficulty)
		baseQuery += fmt.Sprintf(" AND difficulty = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, (page-1)*perPage)
	query := `SELECT ` + questionColumns + baseQuery +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	questions, err := scanQuestions(rows)
	return questions, total, err
}

// Search finds active questions whose text, explanation, or category matches
// the query, case-insensitively.
func (r *QuestionRepository) Search(ctx context.Context, query string) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE is_active = TRUE
		   AND (question_text ILIKE '%' || $1 || '%'
		     OR explanation ILIKE '%' || $1 || '%'
		     OR category ILIKE '%' || $1 || '%')
		 ORDER BY created_at DESC`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// CategoryCounts returns the number of active questions per category.
func (r *QuestionRepository) CategoryCounts(ctx context.Context) (map[model.Category]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category, COUNT(*) FROM questions WHERE is_active = TRUE GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.Category]int)
	for rows.Next() {
		var cat model.Category
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		counts[cat] = n
	}
	return counts, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (question_text, options, correct_answer, category, difficulty, explanation, law_reference, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		q.QuestionText, opts, q.CorrectAnswer, q.Category, q.Difficulty, q.Explanation, q.LawReference, q.IsActive,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update replaces all mutable fields of a question.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET question_text = $1, options = $2, correct_answer = $3, category = $4,
		     difficulty = $5, explanation = $6, law_reference = $7, is_active = $8,
		     updated_at = NOW()
		 WHERE id = $9`,
		q.QuestionText, opts, q.CorrectAnswer, q.Category, q.Difficulty, q.Explanation, q.LawReference, q.IsActive, q.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a question from the corpus.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*model.Question, error) {
	var q model.Question
	var opts []byte
	if err := row.Scan(&q.ID, &q.QuestionText, &opts, &q.CorrectAnswer, &q.Category,
		&q.Difficulty, &q.Explanation, &q.LawReference, &q.IsActive, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(opts, &q.Options); err != nil {
		return nil, fmt.Errorf("unmarshal options for %s: %w", q.ID, err)
	}
	return &q, nil
}

func scanQuestions(rows pgx.Rows) ([]model.Question, error) {
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}
