package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category enumerates the fixed question categories of the referee syllabus.
type Category string

const (
	CategoryLawsOfTheGame       Category = "Laws of the Game"
	CategoryMatchProcedures     Category = "Match Procedures"
	CategoryDisciplinaryActions Category = "Disciplinary Actions"
	CategoryVARTechnology       Category = "VAR & Technology"
	CategoryFitnessPositioning  Category = "Fitness & Positioning"
)

// Categories returns all known categories in display order.
func Categories() []Category {
	return []Category{
		CategoryLawsOfTheGame,
		CategoryMatchProcedures,
		CategoryDisciplinaryActions,
		CategoryVARTechnology,
		CategoryFitnessPositioning,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Difficulty enumerates question difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty level.
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Option is a single answer choice within a question.
type Option struct {
	ID   string `json:"optionId"`
	Text string `json:"text"`
}

// Question is a multiple-choice question from the corpus. Immutable once
// loaded; CorrectAnswer must equal the ID of one of Options.
type Question struct {
	ID            uuid.UUID  `json:"id"`
	QuestionText  string     `json:"questionText"`
	Options       []Option   `json:"options"`
	CorrectAnswer string     `json:"correctAnswer"`
	Category      Category   `json:"category"`
	Difficulty    Difficulty `json:"difficulty"`
	Explanation   string     `json:"explanation"`
	LawReference  string     `json:"lawReference,omitempty"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Validate checks the structural invariants of a question: at least two
// options, unique option IDs, and a correct answer that refers to one of them.
func (q *Question) Validate() error {
	if len(q.Options) < 2 {
		return fmt.Errorf("question needs at least 2 options, got %d", len(q.Options))
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if opt.ID == "" {
			return fmt.Errorf("option with empty id")
		}
		if _, dup := seen[opt.ID]; dup {
			return fmt.Errorf("duplicate option id %q", opt.ID)
		}
		seen[opt.ID] = struct{}{}
	}
	if _, ok := seen[q.CorrectAnswer]; !ok {
		return fmt.Errorf("correct answer %q does not match any option", q.CorrectAnswer)
	}
	if !q.Category.Valid() {
		return fmt.Errorf("unknown category %q", q.Category)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("unknown difficulty %q", q.Difficulty)
	}
	return nil
}

// CreateQuestionRequest is the admin payload for adding a question.
type CreateQuestionRequest struct {
	QuestionText  string   `json:"questionText" binding:"required,min=1,max=2000"`
	Options       []Option `json:"options" binding:"required,min=2,dive"`
	CorrectAnswer string   `json:"correctAnswer" binding:"required,max=10"`
	Category      string   `json:"category" binding:"required"`
	Difficulty    string   `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Explanation   string   `json:"explanation" binding:"required,min=1,max=2000"`
	LawReference  string   `json:"lawReference" binding:"omitempty,max=255"`
}

// UpdateQuestionRequest is the admin payload for updating a question.
// Nil/zero fields are left unchanged.
type UpdateQuestionRequest struct {
	QuestionText  string   `json:"questionText" binding:"omitempty,min=1,max=2000"`
	Options       []Option `json:"options" binding:"omitempty,min=2,dive"`
	CorrectAnswer string   `json:"correctAnswer" binding:"omitempty,max=10"`
	Category      string   `json:"category" binding:"omitempty"`
	Difficulty    string   `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Explanation   string   `json:"explanation" binding:"omitempty,min=1,max=2000"`
	LawReference  *string  `json:"lawReference" binding:"omitempty"`
	IsActive      *bool    `json:"isActive" binding:"omitempty"`
}
