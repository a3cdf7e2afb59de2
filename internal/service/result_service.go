package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pitchready/refexam-backend/internal/model"
	"github.com/pitchready/refexam-backend/internal/repository"
)

// ResultService exposes the user's exam history. Results are owner-scoped:
// a user can only ever read or delete their own.
type ResultService struct {
	repo *repository.ResultRepository
}

// NewResultService creates a new ResultService.
func NewResultService(repo *repository.ResultRepository) *ResultService {
	return &ResultService{repo: repo}
}

// History returns all of the user's results, newest first.
func (s *ResultService) History(ctx context.Context, userID uuid.UUID) ([]model.Result, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns one result, enforcing ownership. A result belonging to
// someone else is indistinguishable from a missing one.
func (s *ResultService) Get(ctx context.Context, id, userID uuid.UUID) (*model.Result, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return res, nil
}

// Delete removes one of the user's results.
func (s *ResultService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.Delete(ctx, id, userID)
}

// ClearHistory removes the user's entire history.
func (s *ResultService) ClearHistory(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteByUser(ctx, userID)
}

// IsNotFound reports whether err is the repository's missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
