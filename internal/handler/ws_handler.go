package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pitchready/refexam-backend/internal/middleware"
	"github.com/pitchready/refexam-backend/internal/service"
	ws "github.com/pitchready/refexam-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the live exam over a WebSocket: countdown ticks out,
// answer/flag/navigation actions in.
type WSHandler struct {
	sessions *service.ExamSessionService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ExamStream godoc
// WS /ws/v1/exams/stream?token=...
// Upgrades to WebSocket for real-time exam interaction.
func (h *WSHandler) ExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userID := claims.UserID

	if _, err := h.sessions.Active(userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer raw.Close()
	conn := ws.Wrap(raw)

	wsLog := h.log.With().Str("user_id", userID.String()).Logger()
	wsLog.Info().Msg("Exam stream connected")

	done := make(chan struct{})
	defer close(done)
	go h.tickLoop(conn, userID, done, wsLog)

	for {
		raw.SetReadDeadline(time.Now().Add(5 * time.Minute))
		_, payload, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		// Peek at the action, then decode the full payload.
		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			conn.WriteError("malformed payload")
			continue
		}

		switch envelope.Action {
		case ws.ActionAnswer:
			h.handleAnswer(conn, userID, payload)
		case ws.ActionFlag:
			h.handleFlag(conn, userID, payload)
		case ws.ActionGoTo:
			h.handleGoTo(conn, userID, payload)
		case ws.ActionSubmit:
			h.handleSubmit(c.Request.Context(), conn, userID, wsLog)
			return
		case ws.ActionPing:
			conn.WriteEvent(ws.PongResponse{Event: ws.EventPong})
		default:
			conn.WriteError("unknown action: " + string(envelope.Action))
		}
	}
}

// tickLoop pushes the countdown once per second until the session ends or
// the connection closes. Untimed sessions get no ticks.
func (h *WSHandler) tickLoop(conn *ws.Conn, userID uuid.UUID, done <-chan struct{}, wsLog zerolog.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			remaining, warning, danger, timed, err := h.sessions.TimerState(userID)
			if err != nil {
				return
			}
			if !timed {
				continue
			}
			if err := conn.WriteEvent(ws.TickResponse{
				Event:            ws.EventTick,
				RemainingSeconds: remaining,
				Warning:          warning,
				Danger:           danger,
			}); err != nil {
				wsLog.Debug().Msg("Tick write failed, stopping")
				return
			}
		}
	}
}

func (h *WSHandler) handleAnswer(conn *ws.Conn, userID uuid.UUID, payload []byte) {
	var req ws.AnswerRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		conn.WriteError("malformed answer payload")
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		conn.WriteError("invalid questionId")
		return
	}
	if err := h.sessions.SelectAnswer(userID, questionID, req.OptionID); err != nil {
		conn.WriteError("no active session")
		return
	}
	conn.WriteEvent(ws.AckResponse{Event: ws.EventAck, Action: ws.ActionAnswer})
}

func (h *WSHandler) handleFlag(conn *ws.Conn, userID uuid.UUID, payload []byte) {
	var req ws.FlagRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		conn.WriteError("malformed flag payload")
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		conn.WriteError("invalid questionId")
		return
	}
	if err := h.sessions.ToggleFlag(userID, questionID); err != nil {
		conn.WriteError("no active session")
		return
	}
	conn.WriteEvent(ws.AckResponse{Event: ws.EventAck, Action: ws.ActionFlag})
}

func (h *WSHandler) handleGoTo(conn *ws.Conn, userID uuid.UUID, payload []byte) {
	var req ws.GoToRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		conn.WriteError("malformed goto payload")
		return
	}
	if err := h.sessions.GoTo(userID, req.Index); err != nil {
		conn.WriteError("no active session")
		return
	}
	conn.WriteEvent(ws.AckResponse{Event: ws.EventAck, Action: ws.ActionGoTo})
}

func (h *WSHandler) handleSubmit(ctx context.Context, conn *ws.Conn, userID uuid.UUID, wsLog zerolog.Logger) {
	result, err := h.sessions.Submit(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSession):
			conn.WriteError("no active session")
		case errors.Is(err, service.ErrPersistenceFailure):
			conn.WriteError("result could not be saved, please retry")
		default:
			wsLog.Error().Err(err).Msg("Stream submit failed")
			conn.WriteError("grading failed")
		}
		return
	}

	wsLog.Info().Int("percentage", result.Percentage).Msg("Exam submitted over stream")
	conn.WriteEvent(ws.GradedResponse{
		Event:      ws.EventGraded,
		ResultID:   result.ID.String(),
		Percentage: result.Percentage,
		Passed:     result.Passed,
	})
}
