package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pitchready/refexam-backend/internal/model"
	"github.com/pitchready/refexam-backend/internal/repository"
	"github.com/pitchready/refexam-backend/internal/timer"
	"github.com/rs/zerolog"
)

// QuestionSource is the question repository contract the session core
// relies on: bounded random sampling at start, authoritative lookup at
// scoring time.
type QuestionSource interface {
	SampleRandom(ctx context.Context, count int, f repository.QuestionFilters) ([]model.Question, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
}

// ResultStore is the durable append-only log of scored results.
type ResultStore interface {
	Create(ctx context.Context, res *model.Result) error
}

// BackupStore persists the single recoverable session backup per user.
type BackupStore interface {
	Write(ctx context.Context, userID uuid.UUID, b *model.SessionBackup) error
	Read(ctx context.Context, userID uuid.UUID) (*model.SessionBackup, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// examSession owns the state of one in-progress exam. The question snapshot
// slice is immutable for the session's lifetime; answers, flags, and the
// current position mutate only through the service's operations.
type examSession struct {
	id               uuid.UUID
	userID           uuid.UUID
	examType         model.ExamType
	category         *model.Category
	questions        []model.QuestionSnapshot
	questionIDs      map[uuid.UUID]struct{}
	timeLimitSeconds *int
	startedAt        time.Time

	mu           sync.Mutex
	answers      map[uuid.UUID]string
	flags        map[uuid.UUID]struct{}
	currentIndex int

	// submitting is the single-owner guard: manual submit and timer
	// expiry race for it, and only the winner scores the session.
	submitting atomic.Bool

	clock *timer.Timer // nil when untimed
}

func (sess *examSession) backup() *model.SessionBackup {
	return &model.SessionBackup{
		ID:               sess.id,
		ExamType:         sess.examType,
		Category:         sess.category,
		Questions:        sess.questions,
		TimeLimitSeconds: sess.timeLimitSeconds,
		StartedAt:        sess.startedAt,
	}
}

func (sess *examSession) view() *model.SessionView {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	answers := make(map[string]string, len(sess.answers))
	for id, opt := range sess.answers {
		answers[id.String()] = opt
	}
	flagged := make([]string, 0, len(sess.flags))
	for id := range sess.flags {
		flagged = append(flagged, id.String())
	}
	sort.Strings(flagged)

	v := &model.SessionView{
		ID:               sess.id,
		ExamType:         sess.examType,
		Category:         sess.category,
		Questions:        sess.questions,
		TimeLimitSeconds: sess.timeLimitSeconds,
		StartedAt:        sess.startedAt,
		CurrentIndex:     sess.currentIndex,
		Answers:          answers,
		Flagged:          flagged,
		AnsweredCount:    len(answers),
	}
	if sess.clock != nil {
		rem := int(sess.clock.Remaining().Seconds())
		v.RemainingSeconds = &rem
	}
	return v
}

// ExamSessionService owns all in-progress exam sessions, at most one per
// user, and drives them through start → active → submitted/cancelled.
type ExamSessionService struct {
	questions QuestionSource
	results   ResultStore
	backups   BackupStore
	scoring   *ScoringService
	configs   map[model.ExamType]model.TypeConfig
	log       zerolog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*examSession

	// staleBackups holds session ids whose result was stored but whose
	// backup clear failed; Restore must not resurrect those backups.
	staleBackups map[uuid.UUID]struct{}
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	questions QuestionSource,
	results ResultStore,
	backups BackupStore,
	scoring *ScoringService,
	configs map[model.ExamType]model.TypeConfig,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		questions: questions,
		results:   results,
		backups:   backups,
		scoring:   scoring,
		configs:   configs,
		log:       log.With().Str("component", "exam_session").Logger(),
		now:       time.Now,
		sessions:  make(map[uuid.UUID]*examSession),

		staleBackups: make(map[uuid.UUID]struct{}),
	}
}

// Start assembles a new exam for the user: resolves count and time limit
// from the exam-type table, samples the question pool, strips correct
// answers and explanations from the snapshots, and writes the recovery
// backup. A short sample is accepted; an empty one fails with
// ErrNoQuestionsAvailable. Starting while another exam is active discards
// the previous attempt without scoring it.
func (s *ExamSessionService) Start(ctx context.Context, userID uuid.UUID, req model.StartExamRequest) (*model.SessionView, error) {
	examType := model.ExamType(req.ExamType)
	cfg, ok := s.configs[examType]
	if !ok {
		return nil, ErrUnknownExamType
	}

	count := cfg.QuestionCount
	if req.QuestionCount > 0 {
		count = req.QuestionCount
	}

	var filters repository.QuestionFilters
	var category *model.Category
	if req.Category != "" {
		c := model.Category(req.Category)
		category = &c
		filters.Category = &c
	}
	if req.Difficulty != "" {
		d := model.Difficulty(req.Difficulty)
		filters.Difficulty = &d
	}

	sample, err := s.questions.SampleRandom(ctx, count, filters)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	if len(sample) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	snapshots := make([]model.QuestionSnapshot, len(sample))
	ids := make(map[uuid.UUID]struct{}, len(sample))
	for i := range sample {
		snapshots[i] = sample[i].Snapshot()
		ids[sample[i].ID] = struct{}{}
	}

	sess := &examSession{
		id:               uuid.New(),
		userID:           userID,
		examType:         examType,
		category:         category,
		questions:        snapshots,
		questionIDs:      ids,
		timeLimitSeconds: cfg.TimeLimitSeconds,
		startedAt:        s.now(),
		answers:          make(map[uuid.UUID]string),
		flags:            make(map[uuid.UUID]struct{}),
	}

	if cfg.TimeLimitSeconds != nil {
		limit := time.Duration(*cfg.TimeLimitSeconds) * time.Second
		sess.clock = timer.New(limit, func() { s.autoSubmit(sess) })
		sess.clock.Start()
	}

	s.mu.Lock()
	prev := s.sessions[userID]
	s.sessions[userID] = sess
	s.mu.Unlock()

	if prev != nil {
		if prev.clock != nil {
			prev.clock.Pause()
		}
		s.log.Info().
			Str("user_id", userID.String()).
			Str("discarded_session", prev.id.String()).
			Msg("Previous session discarded by new start")
	}

	if err := s.backups.Write(ctx, userID, sess.backup()); err != nil {
		// Recovery is best-effort; the exam still starts.
		s.log.Warn().Err(err).Str("session_id", sess.id.String()).Msg("Backup write failed")
	}

	s.log.Info().
		Str("session_id", sess.id.String()).
		Str("exam_type", string(examType)).
		Int("questions", len(snapshots)).
		Msg("Exam started")

	return sess.view(), nil
}

// Active returns the user's current session view, or ErrNoActiveSession.
func (s *ExamSessionService) Active(userID uuid.UUID) (*model.SessionView, error) {
	sess := s.session(userID)
	if sess == nil {
		return nil, ErrNoActiveSession
	}
	return sess.view(), nil
}

// SelectAnswer records the selected option for a question, overwriting any
// prior selection. A question id outside the session's snapshot set is
// ignored so a stale client can never pollute the answer map.
func (s *ExamSessionService) SelectAnswer(userID, questionID uuid.UUID, optionID string) error {
	sess := s.session(userID)
	if sess == nil {
		return ErrNoActiveSession
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, ok := sess.questionIDs[questionID]; !ok {
		return nil
	}
	sess.answers[questionID] = optionID
	return nil
}

// ToggleFlag adds the question to the flag set if absent, removes it if
// present. Independent of answer state.
func (s *ExamSessionService) ToggleFlag(userID, questionID uuid.UUID) error {
	sess := s.session(userID)
	if sess == nil {
		return ErrNoActiveSession
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, ok := sess.questionIDs[questionID]; !ok {
		return nil
	}
	if _, flagged := sess.flags[questionID]; flagged {
		delete(sess.flags, questionID)
	} else {
		sess.flags[questionID] = struct{}{}
	}
	return nil
}

// GoTo moves the current position to an absolute index. Out-of-range
// requests leave the position unchanged; rapid UI double-clicks must not
// error.
func (s *ExamSessionService) GoTo(userID uuid.UUID, index int) error {
	sess := s.session(userID)
	if sess == nil {
		return ErrNoActiveSession
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if index >= 0 && index < len(sess.questions) {
		sess.currentIndex = index
	}
	return nil
}

// Next advances the current position by one, clamped at the last question.
func (s *ExamSessionService) Next(userID uuid.UUID) error {
	return s.step(userID, 1)
}

// Prev moves the current position back by one, clamped at zero.
func (s *ExamSessionService) Prev(userID uuid.UUID) error {
	return s.step(userID, -1)
}

func (s *ExamSessionService) step(userID uuid.UUID, delta int) error {
	sess := s.session(userID)
	if sess == nil {
		return ErrNoActiveSession
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	next := sess.currentIndex + delta
	if next >= 0 && next < len(sess.questions) {
		sess.currentIndex = next
	}
	return nil
}

// Submit scores the user's active session and appends the result to the
// result store. The session and its backup are cleared only after the
// result is durably stored; a persistence failure keeps everything intact
// for a retry. Submission is idempotent per session: a concurrent submit
// (manual vs timer expiry) observes ErrNoActiveSession.
func (s *ExamSessionService) Submit(ctx context.Context, userID uuid.UUID) (*model.Result, error) {
	sess := s.session(userID)
	if sess == nil {
		return nil, ErrNoActiveSession
	}
	return s.submitSession(ctx, sess)
}

func (s *ExamSessionService) submitSession(ctx context.Context, sess *examSession) (*model.Result, error) {
	if !sess.submitting.CompareAndSwap(false, true) {
		// The other submit path won the race.
		return nil, ErrNoActiveSession
	}

	sess.mu.Lock()
	answers := make(map[uuid.UUID]string, len(sess.answers))
	for id, opt := range sess.answers {
		answers[id] = opt
	}
	sess.mu.Unlock()

	result, err := s.scoring.Score(ctx, sess.questions, answers, s.questions)
	if err != nil {
		sess.submitting.Store(false)
		return nil, err
	}

	now := s.now()
	result.ID = uuid.New()
	result.UserID = sess.userID
	result.ExamType = sess.examType
	result.Category = sess.category
	result.TimeTakenSeconds = int(now.Sub(sess.startedAt).Seconds())
	result.CreatedAt = now

	if err := s.results.Create(ctx, result); err != nil {
		// Releasing the guard re-arms both submit paths; the session and
		// its backup stay intact so the user can retry.
		sess.submitting.Store(false)
		s.log.Error().Err(err).Str("session_id", sess.id.String()).Msg("Result write failed")
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	if sess.clock != nil {
		sess.clock.Pause()
	}

	if err := s.backups.Clear(ctx, sess.userID); err != nil {
		// The exam is graded either way; mark the backup stale so Restore
		// cannot resurrect a submitted exam. The TTL bounds the leftover.
		s.mu.Lock()
		s.staleBackups[sess.id] = struct{}{}
		s.mu.Unlock()
		s.log.Warn().Err(err).Str("session_id", sess.id.String()).Msg("Backup clear failed")
	}

	s.mu.Lock()
	if s.sessions[sess.userID] == sess {
		delete(s.sessions, sess.userID)
	}
	s.mu.Unlock()

	s.log.Info().
		Str("session_id", sess.id.String()).
		Str("result_id", result.ID.String()).
		Int("score", result.Score).
		Int("total", result.Total).
		Int("percentage", result.Percentage).
		Bool("passed", result.Passed).
		Msg("Exam submitted")

	return result, nil
}

// autoSubmit is the timer-expiry path. The session identity check keeps an
// expired timer of a discarded session from submitting its replacement.
func (s *ExamSessionService) autoSubmit(sess *examSession) {
	ctx := context.Background()

	s.mu.Lock()
	current := s.sessions[sess.userID]
	s.mu.Unlock()
	if current != sess {
		return
	}

	result, err := s.submitSession(ctx, sess)
	switch {
	case errors.Is(err, ErrNoActiveSession):
		s.log.Debug().Str("session_id", sess.id.String()).Msg("Auto-submit lost race to manual submit")
	case err != nil:
		s.log.Error().Err(err).Str("session_id", sess.id.String()).Msg("Auto-submit failed")
	default:
		s.log.Info().
			Str("session_id", sess.id.String()).
			Int("percentage", result.Percentage).
			Msg("Exam auto-submitted on expiry")
	}
}

// Cancel discards the user's session and backup without scoring. Cancelling
// with no active session is a harmless no-op.
func (s *ExamSessionService) Cancel(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	sess := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if sess != nil && sess.clock != nil {
		sess.clock.Pause()
	}
	if err := s.backups.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear backup: %w", err)
	}
	if sess != nil {
		s.log.Info().Str("session_id", sess.id.String()).Msg("Exam cancelled")
	}
	return nil
}

// Restore resumes an exam after a page reload. A live in-memory session
// wins; otherwise the Redis backup is rehydrated with empty answers and
// flags. A timed backup whose deadline already passed is discarded rather
// than resurrected.
func (s *ExamSessionService) Restore(ctx context.Context, userID uuid.UUID) (*model.SessionView, error) {
	if sess := s.session(userID); sess != nil {
		return sess.view(), nil
	}

	b, err := s.backups.Read(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	if b == nil {
		return nil, ErrNoActiveSession
	}

	s.mu.Lock()
	_, stale := s.staleBackups[b.ID]
	s.mu.Unlock()
	if stale {
		if err := s.backups.Clear(ctx, userID); err == nil {
			s.mu.Lock()
			delete(s.staleBackups, b.ID)
			s.mu.Unlock()
		}
		return nil, ErrNoActiveSession
	}

	var remaining time.Duration
	if b.TimeLimitSeconds != nil {
		limit := time.Duration(*b.TimeLimitSeconds) * time.Second
		remaining = limit - s.now().Sub(b.StartedAt)
		if remaining <= 0 {
			if err := s.backups.Clear(ctx, userID); err != nil {
				s.log.Warn().Err(err).Msg("Expired backup clear failed")
			}
			return nil, ErrNoActiveSession
		}
	}

	ids := make(map[uuid.UUID]struct{}, len(b.Questions))
	for _, q := range b.Questions {
		ids[q.ID] = struct{}{}
	}

	sess := &examSession{
		id:               b.ID,
		userID:           userID,
		examType:         b.ExamType,
		category:         b.Category,
		questions:        b.Questions,
		questionIDs:      ids,
		timeLimitSeconds: b.TimeLimitSeconds,
		startedAt:        b.StartedAt,
		answers:          make(map[uuid.UUID]string),
		flags:            make(map[uuid.UUID]struct{}),
	}
	if b.TimeLimitSeconds != nil {
		sess.clock = timer.New(remaining, func() { s.autoSubmit(sess) })
		sess.clock.Start()
	}

	s.mu.Lock()
	if existing := s.sessions[userID]; existing != nil {
		// A session appeared while we were reading the backup; keep it.
		s.mu.Unlock()
		if sess.clock != nil {
			sess.clock.Pause()
		}
		return existing.view(), nil
	}
	s.sessions[userID] = sess
	s.mu.Unlock()

	s.log.Info().Str("session_id", sess.id.String()).Msg("Session restored from backup")
	return sess.view(), nil
}

// TimerState reports the countdown for the user's session: remaining whole
// seconds plus the warning/danger display hints. timed is false for untimed
// exams.
func (s *ExamSessionService) TimerState(userID uuid.UUID) (remaining int, warning, danger, timed bool, err error) {
	sess := s.session(userID)
	if sess == nil {
		return 0, false, false, false, ErrNoActiveSession
	}
	if sess.clock == nil {
		return 0, false, false, false, nil
	}
	return int(sess.clock.Remaining().Seconds()), sess.clock.Warning(), sess.clock.Danger(), true, nil
}

// SweepExpired auto-submits timed sessions whose deadline has passed. It is
// the safety net behind the per-session timer; the idempotent submit guard
// makes double-firing harmless. The grace period keeps the sweep from
// racing a timer that is about to fire on its own.
func (s *ExamSessionService) SweepExpired(ctx context.Context) {
	const grace = 2 * time.Second
	now := s.now()

	s.mu.Lock()
	var expired []*examSession
	for _, sess := range s.sessions {
		if sess.timeLimitSeconds == nil {
			continue
		}
		deadline := sess.startedAt.Add(time.Duration(*sess.timeLimitSeconds) * time.Second)
		if now.After(deadline.Add(grace)) {
			expired = append(expired, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		if _, err := s.submitSession(ctx, sess); err != nil && !errors.Is(err, ErrNoActiveSession) {
			s.log.Error().Err(err).Str("session_id", sess.id.String()).Msg("Expiry sweep submit failed")
		}
	}
}

func (s *ExamSessionService) session(userID uuid.UUID) *examSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}
