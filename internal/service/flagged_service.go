package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pitchready/refexam-backend/internal/model"
	"github.com/pitchready/refexam-backend/internal/repository"
)

// FlaggedService manages the persistent review library: questions a user
// has bookmarked for later study, independent of any exam session.
type FlaggedService struct {
	flags     *repository.FlaggedRepository
	questions *repository.QuestionRepository
}

// NewFlaggedService creates a new FlaggedService.
func NewFlaggedService(flags *repository.FlaggedRepository, questions *repository.QuestionRepository) *FlaggedService {
	return &FlaggedService{flags: flags, questions: questions}
}

// Toggle flips the flag for a question: set it if absent, clear it if
// present. Returns whether the question is flagged afterwards. The question
// must exist so dead ids never enter the library.
func (s *FlaggedService) Toggle(ctx context.Context, userID, questionID uuid.UUID, note string) (bool, error) {
	if _, err := s.questions.GetByID(ctx, questionID); err != nil {
		return false, err
	}

	exists, err := s.flags.Exists(ctx, userID, questionID)
	if err != nil {
		return false, err
	}
	if exists {
		if err := s.flags.Delete(ctx, userID, questionID); err != nil {
			return false, err
		}
		return false, nil
	}

	f := &model.FlaggedQuestion{UserID: userID, QuestionID: questionID, Note: note}
	if err := s.flags.Insert(ctx, f); err != nil {
		return false, err
	}
	return true, nil
}

// List returns the user's flagged questions with their full question bodies,
// newest flag first.
func (s *FlaggedService) List(ctx context.Context, userID uuid.UUID) ([]model.FlaggedView, error) {
	views, err := s.flags.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []model.FlaggedView{}
	}
	return views, nil
}

// Remove clears a single flag.
func (s *FlaggedService) Remove(ctx context.Context, userID, questionID uuid.UUID) error {
	return s.flags.Delete(ctx, userID, questionID)
}
