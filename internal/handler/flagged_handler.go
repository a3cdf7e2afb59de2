package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pitchready/refexam-backend/internal/middleware"
	"github.com/pitchready/refexam-backend/internal/model"
	"github.com/pitchready/refexam-backend/internal/response"
	"github.com/pitchready/refexam-backend/internal/service"
	"github.com/pitchready/refexam-backend/internal/validator"
)

// FlaggedHandler manages the persistent review library.
type FlaggedHandler struct {
	flagged *service.FlaggedService
}

// NewFlaggedHandler creates a new FlaggedHandler.
func NewFlaggedHandler(flagged *service.FlaggedService) *FlaggedHandler {
	return &FlaggedHandler{flagged: flagged}
}

// List godoc
// GET /api/v1/flagged
func (h *FlaggedHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	views, err := h.flagged.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"flagged": views})
}

// Toggle godoc
// POST /api/v1/flagged
// Flips the flag on a question and reports the new state.
func (h *FlaggedHandler) Toggle(c *gin.Context) {
	claims := middleware.GetClaims(c)
	var req model.ToggleFlagRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	flagged, err := h.flagged.Toggle(c.Request.Context(), claims.UserID, questionID, req.Note)
	if err != nil {
		if service.IsNotFound(err) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"flagged": flagged})
}

// Remove godoc
// DELETE /api/v1/flagged/:questionId
func (h *FlaggedHandler) Remove(c *gin.Context) {
	claims := middleware.GetClaims(c)
	questionID, err := uuid.Parse(c.Param("questionId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.flagged.Remove(c.Request.Context(), claims.UserID, questionID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
