package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamType enumerates the named exam configurations.
type ExamType string

const (
	ExamTypePractice ExamType = "practice"
	ExamTypeMock     ExamType = "mock"
	ExamTypeCategory ExamType = "category"
)

// TypeConfig fixes the question count and time limit for an exam type.
// A nil TimeLimitSeconds means the exam is untimed. The session honors
// whatever pair it is given; the table itself is injected configuration.
type TypeConfig struct {
	QuestionCount    int  `json:"questionCount"`
	TimeLimitSeconds *int `json:"timeLimitSeconds"`
}

// QuestionSnapshot is the correct-answer-stripped copy of a question attached
// to an active exam. The correct answer and explanation are deliberately
// absent and are re-resolved from the corpus at scoring time.
type QuestionSnapshot struct {
	ID           uuid.UUID  `json:"id"`
	QuestionText string     `json:"questionText"`
	Options      []Option   `json:"options"`
	Category     Category   `json:"category"`
	Difficulty   Difficulty `json:"difficulty"`
	LawReference string     `json:"lawReference,omitempty"`
}

// Snapshot strips a corpus question down to its displayable fields.
func (q *Question) Snapshot() QuestionSnapshot {
	return QuestionSnapshot{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Options:      q.Options,
		Category:     q.Category,
		Difficulty:   q.Difficulty,
		LawReference: q.LawReference,
	}
}

// SessionBackup is the serializable snapshot written to Redis at exam start
// and deleted at submit/cancel. It lets a reloaded client resume.
type SessionBackup struct {
	ID               uuid.UUID          `json:"id"`
	ExamType         ExamType           `json:"examType"`
	Category         *Category          `json:"category"`
	Questions        []QuestionSnapshot `json:"questions"`
	TimeLimitSeconds *int               `json:"timeLimitSeconds"`
	StartedAt        time.Time          `json:"startedAt"`
}

// SessionView is the read-only projection of an active session returned to
// the client. Answers map question id to the selected option id.
type SessionView struct {
	ID               uuid.UUID          `json:"id"`
	ExamType         ExamType           `json:"examType"`
	Category         *Category          `json:"category"`
	Questions        []QuestionSnapshot `json:"questions"`
	TimeLimitSeconds *int               `json:"timeLimitSeconds"`
	StartedAt        time.Time          `json:"startedAt"`
	CurrentIndex     int                `json:"currentIndex"`
	Answers          map[string]string  `json:"answers"`
	Flagged          []string           `json:"flagged"`
	AnsweredCount    int                `json:"answeredCount"`
	RemainingSeconds *int               `json:"remainingSeconds,omitempty"`
}

// StartExamRequest is the payload for starting an exam.
type StartExamRequest struct {
	ExamType      string `json:"examType" binding:"required,oneof=practice mock category"`
	Category      string `json:"category" binding:"omitempty"`
	Difficulty    string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	QuestionCount int    `json:"questionCount" binding:"omitempty,min=1,max=100"`
}

// AnswerRequest selects an option for a question in the active session.
type AnswerRequest struct {
	QuestionID string `json:"questionId" binding:"required,uuid"`
	OptionID   string `json:"optionId" binding:"required,max=10"`
}

// FlagRequest toggles the review flag on a question in the active session.
type FlagRequest struct {
	QuestionID string `json:"questionId" binding:"required,uuid"`
}

// GoToRequest moves the current position to an absolute index.
type GoToRequest struct {
	Index int `json:"index" binding:"min=0"`
}
