package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionFlag   Action = "flag"
	ActionGoTo   Action = "goto"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest records one answer selection.
type AnswerRequest struct {
	Action     Action `json:"action"`
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

// FlagRequest toggles the in-session flag on one question.
type FlagRequest struct {
	Action     Action `json:"action"`
	QuestionID string `json:"questionId"`
}

// GoToRequest moves the current question pointer.
type GoToRequest struct {
	Action Action `json:"action"`
	Index  int    `json:"index"`
}

// SubmitRequest finishes and grades the exam.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick   Event = "tick"
	EventAck    Event = "ack"
	EventGraded Event = "graded"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// TickResponse carries the countdown, pushed once per second on timed exams.
type TickResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remainingSeconds"`
	Warning          bool  `json:"warning"`
	Danger           bool  `json:"danger"`
}

// AckResponse confirms a processed action.
type AckResponse struct {
	Event  Event  `json:"event"`
	Action Action `json:"action"`
}

// GradedResponse announces that the exam was scored.
type GradedResponse struct {
	Event      Event  `json:"event"`
	ResultID   string `json:"resultId"`
	Percentage int    `json:"percentage"`
	Passed     bool   `json:"passed"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
