package worker

import (
	"context"
	"time"

	"github.com/pitchready/refexam-backend/internal/service"
	"github.com/rs/zerolog"
)

// ExpiryWorker periodically sweeps timed sessions past their deadline and
// auto-submits them. It is the safety net behind the per-session timers, so
// an exam still gets graded even if its timer goroutine died.
type ExpiryWorker struct {
	sessions *service.ExamSessionService
	interval time.Duration
	log      zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(sessions *service.ExamSessionService, interval time.Duration, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		sessions: sessions,
		interval: interval,
		log:      log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// One final sweep so nothing expired is left unscored.
			w.sessions.SweepExpired(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sessions.SweepExpired(ctx)
		}
	}
}
