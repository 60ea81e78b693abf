package model

import "time"

// JobStatus is the lifecycle state of a queued run.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Job represents a background pipeline run in the system
type Job struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	Phase       Phase      `json:"phase,omitempty"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	Payload     []byte     `json:"-"` // Stored as JSON
	Result      []byte     `json:"-"` // Stored as JSON
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	RetryCount  int        `json:"retryCount"`
}

// Job types
const (
	JobTypeRun = "run"
)

// RunJobPayload contains the data for a pipeline run job
type RunJobPayload struct {
	Identity   RunIdentity       `json:"identity"`
	Transcript []TranscriptEntry `json:"transcript"`
	Config     RunConfig         `json:"config"`
}

// RunStartRequest starts a pipeline run over a supplied transcript.
type RunStartRequest struct {
	ContentID    string            `json:"contentId" validate:"required"`
	Transcript   []TranscriptEntry `json:"transcript" validate:"required,min=1,dive"`
	NumChunks    int               `json:"numChunks" validate:"omitempty,min=1"`
	MaxTokens    int               `json:"maxTokens" validate:"omitempty,min=1"`
	OverlapItems *int              `json:"overlapItems" validate:"omitempty,min=0"`
	Provider     string            `json:"provider" validate:"omitempty,oneof=groq google"`
	Model        string            `json:"model"`
	AddImages    bool              `json:"addImages"`
	VideoPath    string            `json:"videoPath"`
	RefreshNotes bool              `json:"refreshNotes"`
	Feedback     string            `json:"feedback"`
}

// RunStartResponse acknowledges a queued run.
type RunStartResponse struct {
	RunID     string    `json:"runId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// RunStatusResponse reports run progress.
type RunStatusResponse struct {
	RunID       string     `json:"runId"`
	Status      JobStatus  `json:"status"`
	Phase       Phase      `json:"phase,omitempty"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	RetryCount  int        `json:"retryCount"`
}

// RunResultResponse is the final output of a completed run.
type RunResultResponse struct {
	RunID           string `json:"runId"`
	CollectedNote   string `json:"collectedNotes"`
	Summary         string `json:"summary"`
	NotesPDFPath    string `json:"collectedNotesPdfPath,omitempty"`
	SummaryPDFPath  string `json:"summaryPdfPath,omitempty"`
	SummaryDocxPath string `json:"summaryDocxPath,omitempty"`
}

// RunCancelResponse acknowledges a cancel request.
type RunCancelResponse struct {
	Success bool      `json:"success"`
	RunID   string    `json:"runId"`
	Status  JobStatus `json:"status"`
}
