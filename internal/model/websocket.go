package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage carries one ProgressEvent for a run
type WSProgressMessage struct {
	Type  string        `json:"type"`
	RunID string        `json:"runId"`
	Event ProgressEvent `json:"event"`
}

// WSCompleteMessage represents run completion
type WSCompleteMessage struct {
	Type   string      `json:"type"`
	RunID  string      `json:"runId"`
	Result interface{} `json:"result"`
}

// WSErrorMessage represents an error
type WSErrorMessage struct {
	Type  string  `json:"type"`
	RunID string  `json:"runId"`
	Error WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
