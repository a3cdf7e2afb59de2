package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pitchready/refexam-backend/internal/middleware"
	"github.com/pitchready/refexam-backend/internal/model"
	"github.com/pitchready/refexam-backend/internal/response"
	"github.com/pitchready/refexam-backend/internal/service"
	"github.com/pitchready/refexam-backend/internal/validator"
)

// ExamHandler drives the exam session lifecycle over HTTP.
type ExamHandler struct {
	sessions *service.ExamSessionService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(sessions *service.ExamSessionService) *ExamHandler {
	return &ExamHandler{sessions: sessions}
}

// Start godoc
// POST /api/v1/exams
// Starts a new exam session, replacing any active one.
func (h *ExamHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	var req model.StartExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.sessions.Start(c.Request.Context(), claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownExamType):
			response.Fail(c, http.StatusBadRequest, response.ErrUnknownExamType)
		case errors.Is(err, service.ErrNoQuestionsAvailable):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestionsAvailable)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": view})
}

// Active godoc
// GET /api/v1/exams/active
// Returns the current session view.
func (h *ExamHandler) Active(c *gin.Context) {
	claims := middleware.GetClaims(c)
	view, err := h.sessions.Active(claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// Resume godoc
// POST /api/v1/exams/resume
// Restores a session after a reload, from memory or the Redis backup.
func (h *ExamHandler) Resume(c *gin.Context) {
	claims := middleware.GetClaims(c)
	view, err := h.sessions.Restore(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveSession) {
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// Answer godoc
// PUT /api/v1/exams/active/answer
// Selects an option for a question, overwriting any prior selection.
func (h *ExamHandler) Answer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.sessions.SelectAnswer(claims.UserID, questionID, req.OptionID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Flag godoc
// PUT /api/v1/exams/active/flag
// Toggles the in-session review flag on a question.
func (h *ExamHandler) Flag(c *gin.Context) {
	claims := middleware.GetClaims(c)
	var req model.FlagRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.sessions.ToggleFlag(claims.UserID, questionID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// GoTo godoc
// PUT /api/v1/exams/active/position
// Jumps to an absolute question index.
func (h *ExamHandler) GoTo(c *gin.Context) {
	claims := middleware.GetClaims(c)
	var req model.GoToRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessions.GoTo(claims.UserID, req.Index); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Next godoc
// POST /api/v1/exams/active/next
func (h *ExamHandler) Next(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.sessions.Next(claims.UserID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Prev godoc
// POST /api/v1/exams/active/prev
func (h *ExamHandler) Prev(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.sessions.Prev(claims.UserID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Submit godoc
// POST /api/v1/exams/active/submit
// Scores the active session and returns the stored result.
func (h *ExamHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	result, err := h.sessions.Submit(c.Request.Context(), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSession):
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		case errors.Is(err, service.ErrQuestionResolution):
			response.Fail(c, http.StatusBadGateway, response.ErrQuestionResolution)
		case errors.Is(err, service.ErrPersistenceFailure):
			response.Fail(c, http.StatusServiceUnavailable, response.ErrPersistenceFailure)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Cancel godoc
// DELETE /api/v1/exams/active
// Discards the active session without scoring. Idempotent.
func (h *ExamHandler) Cancel(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.sessions.Cancel(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
