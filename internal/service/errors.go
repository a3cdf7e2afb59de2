package service

import "errors"

// Exam session error kinds. All are local to the operation that raised them;
// the handler layer maps them to response codes.
var (
	// ErrNoQuestionsAvailable is the only start-time failure: the filtered
	// pool contained zero questions. Recoverable by changing filters.
	ErrNoQuestionsAvailable = errors.New("no questions available for the selected criteria")

	// ErrNoActiveSession means an operation requiring an active exam was
	// invoked with none. Harmless when caused by a submit race.
	ErrNoActiveSession = errors.New("no active exam session")

	// ErrUnknownExamType means the requested type is not in the injected
	// exam configuration table.
	ErrUnknownExamType = errors.New("unknown exam type")

	// ErrQuestionResolution means the authoritative lookup failed for a
	// question that was part of a started session. Fatal to that
	// submission; never silently scored as wrong.
	ErrQuestionResolution = errors.New("question could not be resolved")

	// ErrPersistenceFailure means the result store write failed. The
	// session survives so the user can retry the submit.
	ErrPersistenceFailure = errors.New("result could not be persisted")
)
