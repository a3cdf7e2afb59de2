package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/pitchready/refexam-backend/internal/model"
)

// QuestionResolver supplies the authoritative question for a session
// snapshot. Snapshots never carry the correct answer, so scoring always
// re-resolves it here rather than trusting anything client-held.
type QuestionResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
}

// ScoringService grades a finished exam. It is a pure function of the
// question snapshots, the answer map, and the authoritative lookup: the same
// inputs always produce the same result.
type ScoringService struct {
	passingScore int
}

// NewScoringService creates a ScoringService with the given passing
// threshold (percentage).
func NewScoringService(passingScore int) *ScoringService {
	return &ScoringService{passingScore: passingScore}
}

// Score grades each snapshot against the resolver's correct answer and
// returns a result with the scoring fields populated (identity fields such
// as ID and UserID are left for the caller). An unanswered question is
// always incorrect. A snapshot whose question cannot be resolved fails the
// whole submission with ErrQuestionResolution.
func (s *ScoringService) Score(ctx context.Context, snapshots []model.QuestionSnapshot, answers map[uuid.UUID]string, resolver QuestionResolver) (*model.Result, error) {
	if len(snapshots) == 0 {
		return nil, errors.New("scoring requires at least one question")
	}

	scored := make([]model.ScoredQuestion, 0, len(snapshots))
	breakdown := make(map[model.Category]model.CategoryStats)
	correct := 0

	for _, snap := range snapshots {
		q, err := resolver.GetByID(ctx, snap.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: question %s: %v", ErrQuestionResolution, snap.ID, err)
		}

		var selected *string
		isCorrect := false
		if ans, answered := answers[snap.ID]; answered {
			selected = &ans
			isCorrect = ans == q.CorrectAnswer
		}
		if isCorrect {
			correct++
		}

		// The breakdown uses the question's own category, not anything
		// the client sent.
		stats := breakdown[q.Category]
		stats.Total++
		if isCorrect {
			stats.Correct++
		}
		breakdown[q.Category] = stats

		scored = append(scored, model.ScoredQuestion{
			QuestionID:     q.ID,
			QuestionText:   q.QuestionText,
			Options:        q.Options,
			Category:       q.Category,
			Difficulty:     q.Difficulty,
			LawReference:   q.LawReference,
			SelectedAnswer: selected,
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      isCorrect,
			Explanation:    q.Explanation,
		})
	}

	total := len(snapshots)
	percentage := int(math.Round(float64(correct) * 100 / float64(total)))

	return &model.Result{
		Questions:         scored,
		Score:             correct,
		Total:             total,
		Percentage:        percentage,
		Passed:            percentage >= s.passingScore,
		CategoryBreakdown: breakdown,
	}, nil
}
