package model

import (
	"time"

	"github.com/google/uuid"
)

// FlaggedQuestion is a persistent per-user bookmark on a corpus question,
// independent of the transient in-session flag set.
type FlaggedQuestion struct {
	UserID     uuid.UUID `json:"userId"`
	QuestionID uuid.UUID `json:"questionId"`
	Note       string    `json:"note"`
	FlaggedAt  time.Time `json:"flaggedAt"`
}

// FlaggedView joins a flag with its live question for the review page.
// Flags whose question has been deleted are dropped from listings.
type FlaggedView struct {
	FlaggedQuestion
	Question *Question `json:"question"`
}

// ToggleFlagRequest flags or unflags a question in the review library.
type ToggleFlagRequest struct {
	QuestionID string `json:"questionId" binding:"required,uuid"`
	Note       string `json:"note" binding:"omitempty,max=500"`
}
