package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pitchready/refexam-backend/internal/model"
	"github.com/pitchready/refexam-backend/internal/repository"
	"github.com/rs/zerolog"
)

// fakeQuestionSource serves a fixed pool in insertion order.
type fakeQuestionSource struct {
	pool []*model.Question
}

func (f *fakeQuestionSource) SampleRandom(_ context.Context, count int, filters repository.QuestionFilters) ([]model.Question, error) {
	var out []model.Question
	for _, q := range f.pool {
		if filters.Category != nil && q.Category != *filters.Category {
			continue
		}
		out = append(out, *q)
		if len(out) == count {
			break
		}
	}
	return out, nil
}

func (f *fakeQuestionSource) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	for _, q := range f.pool {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeResultStore struct {
	mu       sync.Mutex
	results  []*model.Result
	failNext bool
}

func (f *fakeResultStore) Create(_ context.Context, res *model.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("database down")
	}
	f.results = append(f.results, res)
	return nil
}

func (f *fakeResultStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

type fakeBackupStore struct {
	mu        sync.Mutex
	backups   map[uuid.UUID]*model.SessionBackup
	failClear bool
}

func newFakeBackupStore() *fakeBackupStore {
	return &fakeBackupStore{backups: make(map[uuid.UUID]*model.SessionBackup)}
}

func (f *fakeBackupStore) Write(_ context.Context, userID uuid.UUID, b *model.SessionBackup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backups[userID] = b
	return nil
}

func (f *fakeBackupStore) Read(_ context.Context, userID uuid.UUID) (*model.SessionBackup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.backups[userID], nil
}

func (f *fakeBackupStore) Clear(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failClear {
		f.failClear = false
		return errors.New("redis down")
	}
	delete(f.backups, userID)
	return nil
}

func (f *fakeBackupStore) has(userID uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.backups[userID]
	return ok
}

func intPtr(v int) *int { return &v }

func testConfigs() map[model.ExamType]model.TypeConfig {
	return map[model.ExamType]model.TypeConfig{
		model.ExamTypePractice: {QuestionCount: 3},
		model.ExamTypeMock:     {QuestionCount: 3, TimeLimitSeconds: intPtr(3600)},
	}
}

type sessionFixture struct {
	svc     *ExamSessionService
	source  *fakeQuestionSource
	results *fakeResultStore
	backups *fakeBackupStore
	userID  uuid.UUID
}

func newSessionFixture(t *testing.T, poolSize int) *sessionFixture {
	t.Helper()
	source := &fakeQuestionSource{}
	for i := 0; i < poolSize; i++ {
		source.pool = append(source.pool, makeQuestion(model.CategoryLawsOfTheGame, "a"))
	}
	results := &fakeResultStore{}
	backups := newFakeBackupStore()

	svc := NewExamSessionService(source, results, backups,
		NewScoringService(75), testConfigs(), zerolog.Nop())

	return &sessionFixture{
		svc:     svc,
		source:  source,
		results: results,
		backups: backups,
		userID:  uuid.New(),
	}
}

func (fx *sessionFixture) start(t *testing.T, examType string) *model.SessionView {
	t.Helper()
	view, err := fx.svc.Start(context.Background(), fx.userID, model.StartExamRequest{ExamType: examType})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return view
}

func TestStartUnknownExamType(t *testing.T) {
	fx := newSessionFixture(t, 3)
	_, err := fx.svc.Start(context.Background(), fx.userID, model.StartExamRequest{ExamType: "marathon"})
	if !errors.Is(err, ErrUnknownExamType) {
		t.Fatalf("error = %v, want ErrUnknownExamType", err)
	}
}

func TestStartEmptyPool(t *testing.T) {
	fx := newSessionFixture(t, 0)
	_, err := fx.svc.Start(context.Background(), fx.userID, model.StartExamRequest{ExamType: "practice"})
	if !errors.Is(err, ErrNoQuestionsAvailable) {
		t.Fatalf("error = %v, want ErrNoQuestionsAvailable", err)
	}
}

func TestStartShortPoolAccepted(t *testing.T) {
	fx := newSessionFixture(t, 2) // config asks for 3
	view := fx.start(t, "practice")
	if len(view.Questions) != 2 {
		t.Errorf("got %d questions, want the 2 available", len(view.Questions))
	}
}

func TestStartWritesBackupAndEmptyState(t *testing.T) {
	fx := newSessionFixture(t, 3)
	view := fx.start(t, "practice")

	if len(view.Answers) != 0 || len(view.Flagged) != 0 || view.CurrentIndex != 0 {
		t.Errorf("fresh session not empty: %+v", view)
	}
	if view.RemainingSeconds != nil {
		t.Error("untimed session has a remaining time")
	}
	if !fx.backups.has(fx.userID) {
		t.Error("backup not written at start")
	}
}

func TestTimedStartHasCountdown(t *testing.T) {
	fx := newSessionFixture(t, 3)
	view := fx.start(t, "mock")
	if view.RemainingSeconds == nil {
		t.Fatal("timed session missing remainingSeconds")
	}
	if *view.RemainingSeconds > 3600 || *view.RemainingSeconds < 3595 {
		t.Errorf("remainingSeconds = %d, want ~3600", *view.RemainingSeconds)
	}
}

func TestSelectAnswerOverwrites(t *testing.T) {
	fx := newSessionFixture(t, 3)
	view := fx.start(t, "practice")
	qid := view.Questions[0].ID

	if err := fx.svc.SelectAnswer(fx.userID, qid, "a"); err != nil {
		t.Fatalf("SelectAnswer() error: %v", err)
	}
	if err := fx.svc.SelectAnswer(fx.userID, qid, "b"); err != nil {
		t.Fatalf("SelectAnswer() error: %v", err)
	}

	active, _ := fx.svc.Active(fx.userID)
	if got := active.Answers[qid.String()]; got != "b" {
		t.Errorf("answer = %q, want overwritten %q", got, "b")
	}
	if active.AnsweredCount != 1 {
		t.Errorf("answeredCount = %d, want 1", active.AnsweredCount)
	}
}

func TestSelectAnswerForeignQuestionIgnored(t *testing.T) {
	fx := newSessionFixture(t, 3)
	fx.start(t, "practice")

	if err := fx.svc.SelectAnswer(fx.userID, uuid.New(), "a"); err != nil {
		t.Fatalf("foreign question id should be ignored, got %v", err)
	}
	active, _ := fx.svc.Active(fx.userID)
	if len(active.Answers) != 0 {
		t.Error("foreign question id polluted the answer map")
	}
}

func TestToggleFlag(t *testing.T) {
	fx := newSessionFixture(t, 3)
	view := fx.start(t, "practice")
	qid := view.Questions[1].ID

	fx.svc.ToggleFlag(fx.userID, qid)
	active, _ := fx.svc.Active(fx.userID)
	if len(active.Flagged) != 1 || active.Flagged[0] != qid.String() {
		t.Errorf("flagged = %v, want [%s]", active.Flagged, qid)
	}

	fx.svc.ToggleFlag(fx.userID, qid)
	active, _ = fx.svc.Active(fx.userID)
	if len(active.Flagged) != 0 {
		t.Errorf("flagged = %v after second toggle, want empty", active.Flagged)
	}
}

func TestNavigationClamped(t *testing.T) {
	fx := newSessionFixture(t, 3)
	fx.start(t, "practice")

	// Prev at the first question stays put.
	fx.svc.Prev(fx.userID)
	active, _ := fx.svc.Active(fx.userID)
	if active.CurrentIndex != 0 {
		t.Errorf("index = %d after Prev at start, want 0", active.CurrentIndex)
	}

	// Next advances, then clamps at the end.
	for i := 0; i < 10; i++ {
		fx.svc.Next(fx.userID)
	}
	active, _ = fx.svc.Active(fx.userID)
	if active.CurrentIndex != 2 {
		t.Errorf("index = %d after many Next, want 2", active.CurrentIndex)
	}

	// Out-of-range GoTo is ignored.
	fx.svc.GoTo(fx.userID, 99)
	active, _ = fx.svc.Active(fx.userID)
	if active.CurrentIndex != 2 {
		t.Errorf("index = %d after out-of-range GoTo, want 2", active.CurrentIndex)
	}

	fx.svc.GoTo(fx.userID, 1)
	active, _ = fx.svc.Active(fx.userID)
	if active.CurrentIndex != 1 {
		t.Errorf("index = %d after GoTo(1), want 1", active.CurrentIndex)
	}
}

func TestSubmitHappyPath(t *testing.T) {
	fx := newSessionFixture(t, 3)
	view := fx.start(t, "practice")
	for _, q := range view.Questions {
		fx.svc.SelectAnswer(fx.userID, q.ID, "a")
	}

	result, err := fx.svc.Submit(context.Background(), fx.userID)
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	if result.Score != 3 || result.Percentage != 100 || !result.Passed {
		t.Errorf("result = %d/%d %d%% passed=%v, want 3/3 100%% passed",
			result.Score, result.Total, result.Percentage, result.Passed)
	}
	if result.UserID != fx.userID {
		t.Error("result not attributed to the submitting user")
	}
	if fx.results.count() != 1 {
		t.Errorf("persisted %d results, want 1", fx.results.count())
	}
	if _, err := fx.svc.Active(fx.userID); !errors.Is(err, ErrNoActiveSession) {
		t.Error("session still active after submit")
	}
	if fx.backups.has(fx.userID) {
		t.Error("backup not cleared after submit")
	}
}

func TestSubmitWithoutSessionFails(t *testing.T) {
	fx := newSessionFixture(t, 3)

	_, err := fx.svc.Submit(context.Background(), fx.userID)
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("error = %v, want ErrNoActiveSession", err)
	}
	if fx.results.count() != 0 {
		t.Errorf("persisted %d results without a session, want 0", fx.results.count())
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	fx := newSessionFixture(t, 3)
	fx.start(t, "practice")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.Submit(context.Background(), fx.userID)
		}(i)
	}
	wg.Wait()

	var ok, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrNoActiveSession):
			lost++
		default:
			t.Fatalf("unexpected submit error: %v", err)
		}
	}
	if ok != 1 || lost != 1 {
		t.Errorf("concurrent submits: %d succeeded, %d lost race; want 1 and 1", ok, lost)
	}
	if fx.results.count() != 1 {
		t.Errorf("persisted %d results, want exactly 1", fx.results.count())
	}
}

func TestSubmitPersistenceFailureKeepsSession(t *testing.T) {
	fx := newSessionFixture(t, 3)
	view := fx.start(t, "practice")
	fx.svc.SelectAnswer(fx.userID, view.Questions[0].ID, "a")
	fx.results.failNext = true

	_, err := fx.svc.Submit(context.Background(), fx.userID)
	if !errors.Is(err, ErrPersistenceFailure) {
		t.Fatalf("error = %v, want ErrPersistenceFailure", err)
	}

	// Session and answers intact for the retry.
	active, err := fx.svc.Active(fx.userID)
	if err != nil {
		t.Fatal("session dropped after persistence failure")
	}
	if active.AnsweredCount != 1 {
		t.Error("answers lost after persistence failure")
	}
	if !fx.backups.has(fx.userID) {
		t.Error("backup cleared despite persistence failure")
	}

	// Retry succeeds.
	if _, err := fx.svc.Submit(context.Background(), fx.userID); err != nil {
		t.Fatalf("retry Submit() error: %v", err)
	}
	if fx.results.count() != 1 {
		t.Errorf("persisted %d results, want 1", fx.results.count())
	}
}

func TestSubmittedBackupNotResumable(t *testing.T) {
	fx := newSessionFixture(t, 3)
	fx.start(t, "practice")
	fx.backups.failClear = true

	if _, err := fx.svc.Submit(context.Background(), fx.userID); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if !fx.backups.has(fx.userID) {
		t.Fatal("backup should survive the failed clear")
	}

	// The leftover backup belongs to a graded exam; restoring it would
	// resurrect a session that no longer exists.
	if _, err := fx.svc.Restore(context.Background(), fx.userID); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("error = %v, want ErrNoActiveSession for a submitted exam's backup", err)
	}
	if fx.backups.has(fx.userID) {
		t.Error("stale backup not cleared on restore")
	}
	if fx.results.count() != 1 {
		t.Errorf("persisted %d results, want 1", fx.results.count())
	}
}

func TestCancelDiscardsWithoutScoring(t *testing.T) {
	fx := newSessionFixture(t, 3)
	fx.start(t, "practice")

	if err := fx.svc.Cancel(context.Background(), fx.userID); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	if fx.results.count() != 0 {
		t.Error("cancel produced a result")
	}
	if fx.backups.has(fx.userID) {
		t.Error("backup survived cancel")
	}

	// Cancelling again is a no-op.
	if err := fx.svc.Cancel(context.Background(), fx.userID); err != nil {
		t.Fatalf("second Cancel() error: %v", err)
	}
}

func TestStartReplacesActiveSession(t *testing.T) {
	fx := newSessionFixture(t, 3)
	first := fx.start(t, "practice")
	fx.svc.SelectAnswer(fx.userID, first.Questions[0].ID, "a")

	second := fx.start(t, "practice")
	if second.ID == first.ID {
		t.Fatal("second start reused the first session")
	}
	if len(second.Answers) != 0 {
		t.Error("answers leaked into the replacement session")
	}
	if fx.results.count() != 0 {
		t.Error("discarded session was scored")
	}
}

func TestRestoreFromBackup(t *testing.T) {
	fx := newSessionFixture(t, 3)
	started := fx.start(t, "practice")

	// Simulate a process restart: drop the in-memory session but keep the
	// backup.
	fx.svc.mu.Lock()
	delete(fx.svc.sessions, fx.userID)
	fx.svc.mu.Unlock()

	view, err := fx.svc.Restore(context.Background(), fx.userID)
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if view.ID != started.ID {
		t.Error("restored session has a different id")
	}
	if len(view.Answers) != 0 {
		t.Error("restored session should start with empty answers")
	}
}

func TestRestoreExpiredBackupDiscarded(t *testing.T) {
	fx := newSessionFixture(t, 3)
	limit := 600
	fx.backups.Write(context.Background(), fx.userID, &model.SessionBackup{
		ID:               uuid.New(),
		ExamType:         model.ExamTypeMock,
		Questions:        []model.QuestionSnapshot{fx.source.pool[0].Snapshot()},
		TimeLimitSeconds: &limit,
		StartedAt:        time.Now().Add(-time.Hour),
	})

	_, err := fx.svc.Restore(context.Background(), fx.userID)
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("error = %v, want ErrNoActiveSession for expired backup", err)
	}
	if fx.backups.has(fx.userID) {
		t.Error("expired backup not cleared")
	}
}

func TestRestoreNothingToRestore(t *testing.T) {
	fx := newSessionFixture(t, 3)
	if _, err := fx.svc.Restore(context.Background(), fx.userID); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("error = %v, want ErrNoActiveSession", err)
	}
}

func TestSweepExpiredSubmitsOverdueSessions(t *testing.T) {
	fx := newSessionFixture(t, 3)
	fx.start(t, "mock")

	fx.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	fx.svc.SweepExpired(context.Background())

	if fx.results.count() != 1 {
		t.Fatalf("persisted %d results after sweep, want 1", fx.results.count())
	}
	if _, err := fx.svc.Active(fx.userID); !errors.Is(err, ErrNoActiveSession) {
		t.Error("expired session still active after sweep")
	}
}

func TestSweepIgnoresUntimedAndLiveSessions(t *testing.T) {
	fx := newSessionFixture(t, 3)
	fx.start(t, "practice") // untimed

	fx.svc.SweepExpired(context.Background())
	if fx.results.count() != 0 {
		t.Error("sweep submitted an untimed session")
	}
	if _, err := fx.svc.Active(fx.userID); err != nil {
		t.Error("sweep dropped a live session")
	}
}
