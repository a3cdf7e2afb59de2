package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pitchready/refexam-backend/internal/model"
)

// fakeResolver serves questions from an in-memory map.
type fakeResolver struct {
	questions map[uuid.UUID]*model.Question
}

func (f *fakeResolver) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	q, ok := f.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %s not found", id)
	}
	return q, nil
}

func makeQuestion(category model.Category, correct string) *model.Question {
	return &model.Question{
		ID:           uuid.New(),
		QuestionText: "What is the restart?",
		Options: []model.Option{
			{ID: "a", Text: "Direct free kick"},
			{ID: "b", Text: "Indirect free kick"},
			{ID: "c", Text: "Drop ball"},
		},
		CorrectAnswer: correct,
		Category:      category,
		Difficulty:    model.DifficultyMedium,
		Explanation:   "See the Laws.",
		IsActive:      true,
	}
}

func fixture(qs ...*model.Question) (*fakeResolver, []model.QuestionSnapshot) {
	resolver := &fakeResolver{questions: make(map[uuid.UUID]*model.Question)}
	snapshots := make([]model.QuestionSnapshot, 0, len(qs))
	for _, q := range qs {
		resolver.questions[q.ID] = q
		snapshots = append(snapshots, q.Snapshot())
	}
	return resolver, snapshots
}

func TestScoreAllCorrect(t *testing.T) {
	q1 := makeQuestion(model.CategoryLawsOfTheGame, "a")
	q2 := makeQuestion(model.CategoryVARTechnology, "b")
	resolver, snapshots := fixture(q1, q2)

	answers := map[uuid.UUID]string{q1.ID: "a", q2.ID: "b"}

	svc := NewScoringService(75)
	result, err := svc.Score(context.Background(), snapshots, answers, resolver)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}

	if result.Score != 2 || result.Total != 2 {
		t.Errorf("score = %d/%d, want 2/2", result.Score, result.Total)
	}
	if result.Percentage != 100 {
		t.Errorf("percentage = %d, want 100", result.Percentage)
	}
	if !result.Passed {
		t.Error("expected passed at 100%")
	}
}

func TestScoreRounding(t *testing.T) {
	tests := []struct {
		name           string
		correct, total int
		wantPercentage int
	}{
		{"two thirds rounds up", 2, 3, 67},
		{"one third rounds down", 1, 3, 33},
		{"exactly half", 1, 2, 50},
		{"zero", 0, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs := make([]*model.Question, tt.total)
			answers := make(map[uuid.UUID]string)
			for i := range qs {
				qs[i] = makeQuestion(model.CategoryLawsOfTheGame, "a")
				if i < tt.correct {
					answers[qs[i].ID] = "a"
				} else {
					answers[qs[i].ID] = "b"
				}
			}
			resolver, snapshots := fixture(qs...)

			result, err := NewScoringService(75).Score(context.Background(), snapshots, answers, resolver)
			if err != nil {
				t.Fatalf("Score() error: %v", err)
			}
			if result.Percentage != tt.wantPercentage {
				t.Errorf("percentage = %d, want %d", result.Percentage, tt.wantPercentage)
			}
		})
	}
}

func TestScoreUnansweredIsIncorrect(t *testing.T) {
	q1 := makeQuestion(model.CategoryLawsOfTheGame, "a")
	q2 := makeQuestion(model.CategoryLawsOfTheGame, "a")
	resolver, snapshots := fixture(q1, q2)

	// Only q1 answered.
	answers := map[uuid.UUID]string{q1.ID: "a"}

	result, err := NewScoringService(75).Score(context.Background(), snapshots, answers, resolver)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if result.Score != 1 {
		t.Errorf("score = %d, want 1", result.Score)
	}

	for _, sq := range result.Questions {
		if sq.QuestionID == q2.ID {
			if sq.SelectedAnswer != nil {
				t.Errorf("unanswered question has selectedAnswer %q", *sq.SelectedAnswer)
			}
			if sq.IsCorrect {
				t.Error("unanswered question marked correct")
			}
		}
	}
}

func TestScorePassBoundary(t *testing.T) {
	tests := []struct {
		name           string
		correct, total int
		wantPassed     bool
	}{
		{"exactly at threshold", 3, 4, true},   // 75%
		{"just below threshold", 7, 10, false}, // 70%
		{"just above threshold", 8, 10, true},  // 80%
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs := make([]*model.Question, tt.total)
			answers := make(map[uuid.UUID]string)
			for i := range qs {
				qs[i] = makeQuestion(model.CategoryMatchProcedures, "a")
				if i < tt.correct {
					answers[qs[i].ID] = "a"
				}
			}
			resolver, snapshots := fixture(qs...)

			result, err := NewScoringService(75).Score(context.Background(), snapshots, answers, resolver)
			if err != nil {
				t.Fatalf("Score() error: %v", err)
			}
			if result.Passed != tt.wantPassed {
				t.Errorf("passed = %v, want %v (%d/%d)", result.Passed, tt.wantPassed, tt.correct, tt.total)
			}
		})
	}
}

func TestScoreCategoryBreakdown(t *testing.T) {
	q1 := makeQuestion(model.CategoryLawsOfTheGame, "a")
	q2 := makeQuestion(model.CategoryLawsOfTheGame, "a")
	q3 := makeQuestion(model.CategoryDisciplinaryActions, "c")
	resolver, snapshots := fixture(q1, q2, q3)

	answers := map[uuid.UUID]string{q1.ID: "a", q2.ID: "b", q3.ID: "c"}

	result, err := NewScoringService(75).Score(context.Background(), snapshots, answers, resolver)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}

	laws := result.CategoryBreakdown[model.CategoryLawsOfTheGame]
	if laws.Correct != 1 || laws.Total != 2 {
		t.Errorf("laws breakdown = %+v, want 1/2", laws)
	}
	disc := result.CategoryBreakdown[model.CategoryDisciplinaryActions]
	if disc.Correct != 1 || disc.Total != 1 {
		t.Errorf("disciplinary breakdown = %+v, want 1/1", disc)
	}
	if len(result.CategoryBreakdown) != 2 {
		t.Errorf("breakdown has %d categories, want 2", len(result.CategoryBreakdown))
	}
}

func TestScoreUsesAuthoritativeAnswer(t *testing.T) {
	// The snapshot was taken before an admin fixed the correct answer.
	q := makeQuestion(model.CategoryLawsOfTheGame, "a")
	resolver, snapshots := fixture(q)
	q.CorrectAnswer = "b"

	answers := map[uuid.UUID]string{q.ID: "a"}

	result, err := NewScoringService(75).Score(context.Background(), snapshots, answers, resolver)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if result.Score != 0 {
		t.Errorf("score = %d, want 0 against the corrected answer", result.Score)
	}
	if got := result.Questions[0].CorrectAnswer; got != "b" {
		t.Errorf("stored correctAnswer = %q, want authoritative %q", got, "b")
	}
}

func TestScoreResolutionFailureFailsSubmission(t *testing.T) {
	q := makeQuestion(model.CategoryLawsOfTheGame, "a")
	resolver := &fakeResolver{questions: map[uuid.UUID]*model.Question{}}
	snapshots := []model.QuestionSnapshot{q.Snapshot()}

	_, err := NewScoringService(75).Score(context.Background(), snapshots, nil, resolver)
	if !errors.Is(err, ErrQuestionResolution) {
		t.Fatalf("error = %v, want ErrQuestionResolution", err)
	}
}

func TestScoreEmptySnapshotsRejected(t *testing.T) {
	resolver := &fakeResolver{}
	if _, err := NewScoringService(75).Score(context.Background(), nil, nil, resolver); err == nil {
		t.Fatal("expected error for empty snapshot set")
	}
}
