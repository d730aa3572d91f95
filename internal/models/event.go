package models

// WebSocket message types
const (
	EventSnapshot          = "snapshot"
	EventGenerationStarted = "generation_started"
	EventSessionReplaced   = "session_replaced"
	EventGenerationFailed  = "generation_failed"
	EventAnswerRecorded    = "answer_recorded"
	EventQuizCompleted     = "quiz_completed"
	EventSessionReset      = "session_reset"
	EventTopicChanged      = "topic_changed"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// API Error response
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
