package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pitchready/refexam-backend/internal/model"
	"github.com/pitchready/refexam-backend/internal/repository"
)

// ErrInvalidQuestion wraps a structural validation failure on create/update.
var ErrInvalidQuestion = errors.New("invalid question")

// QuestionService handles corpus management and lookup.
type QuestionService struct {
	repo *repository.QuestionRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(repo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{repo: repo}
}

// List retrieves questions with optional filters and pagination.
func (s *QuestionService) List(ctx context.Context, category, difficulty string, page, perPage int) ([]model.Question, int64, error) {
	var f repository.QuestionFilters
	if category != "" {
		c := model.Category(category)
		f.Category = &c
	}
	if difficulty != "" {
		d := model.Difficulty(difficulty)
		f.Difficulty = &d
	}
	return s.repo.List(ctx, f, page, perPage)
}

// Get retrieves a single question.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.repo.GetByID(ctx, id)
}

// Search finds active questions matching the free-text query.
func (s *QuestionService) Search(ctx context.Context, query string) ([]model.Question, error) {
	return s.repo.Search(ctx, query)
}

// CategoryCounts reports the number of active questions per category, with
// every known category present even when empty.
func (s *QuestionService) CategoryCounts(ctx context.Context) (map[model.Category]int, error) {
	counts, err := s.repo.CategoryCounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range model.Categories() {
		if _, ok := counts[c]; !ok {
			counts[c] = 0
		}
	}
	return counts, nil
}

// Create validates and inserts a new question. New questions are active
// immediately.
func (s *QuestionService) Create(ctx context.Context, req model.CreateQuestionRequest) (*model.Question, error) {
	q := &model.Question{
		QuestionText:  req.QuestionText,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Category:      model.Category(req.Category),
		Difficulty:    model.Difficulty(req.Difficulty),
		Explanation:   req.Explanation,
		LawReference:  req.LawReference,
		IsActive:      true,
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Update applies the non-empty fields of the request to an existing question
// and re-validates the whole record before writing.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.QuestionText != "" {
		q.QuestionText = req.QuestionText
	}
	if req.Options != nil {
		q.Options = req.Options
	}
	if req.CorrectAnswer != "" {
		q.CorrectAnswer = req.CorrectAnswer
	}
	if req.Category != "" {
		q.Category = model.Category(req.Category)
	}
	if req.Difficulty != "" {
		q.Difficulty = model.Difficulty(req.Difficulty)
	}
	if req.Explanation != "" {
		q.Explanation = req.Explanation
	}
	if req.LawReference != nil {
		q.LawReference = *req.LawReference
	}
	if req.IsActive != nil {
		q.IsActive = *req.IsActive
	}

	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Delete removes a question from the corpus. Already-scored results keep
// their own copies, so history is unaffected.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
