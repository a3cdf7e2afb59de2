package model

import (
	"time"

	"github.com/google/uuid"
)

// ScoredQuestion is one question of a finished exam with the authoritative
// correct answer and the user's selection. SelectedAnswer is nil when the
// question was left unanswered.
type ScoredQuestion struct {
	QuestionID     uuid.UUID  `json:"questionId"`
	QuestionText   string     `json:"questionText"`
	Options        []Option   `json:"options"`
	Category       Category   `json:"category"`
	Difficulty     Difficulty `json:"difficulty"`
	LawReference   string     `json:"lawReference,omitempty"`
	SelectedAnswer *string    `json:"selectedAnswer"`
	CorrectAnswer  string     `json:"correctAnswer"`
	IsCorrect      bool       `json:"isCorrect"`
	Explanation    string     `json:"explanation"`
}

// CategoryStats is the per-category correct/total tally within one result.
type CategoryStats struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Result is the immutable scored outcome of one submitted exam session.
// Field names are the interface boundary for the history and analytics
// views and must not change.
type Result struct {
	ID                uuid.UUID                  `json:"id"`
	UserID            uuid.UUID                  `json:"userId"`
	ExamType          ExamType                   `json:"examType"`
	Category          *Category                  `json:"category"`
	Questions         []ScoredQuestion           `json:"questions"`
	Score             int                        `json:"score"`
	Total             int                        `json:"total"`
	Percentage        int                        `json:"percentage"`
	Passed            bool                       `json:"passed"`
	TimeTakenSeconds  int                        `json:"timeTakenSeconds"`
	CategoryBreakdown map[Category]CategoryStats `json:"categoryBreakdown"`
	CreatedAt         time.Time                  `json:"createdAt"`
}
