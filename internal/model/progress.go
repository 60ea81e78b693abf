package model

// Phase names the progress band a run is currently in. The terminal phases
// are done, error and cancelled; every run emits exactly one of them last.
type Phase string

const (
	PhaseStarting     Phase = "starting"
	PhaseChunks       Phase = "chunks"
	PhaseChunkNotes   Phase = "chunk_notes"
	PhaseFormatDocs   Phase = "format_docs"
	PhaseCollectNotes Phase = "collect_notes"
	PhaseSummary      Phase = "summary"
	PhaseDone         Phase = "done"
	PhaseError        Phase = "error"
	PhaseCancelled    Phase = "cancelled"
)

// KindCounter reports per-artifact-kind completion for UI consumption,
// independent of the percent/phase computation.
type KindCounter struct {
	ItemsProduced   int `json:"itemsProduced"`
	ChunksCompleted int `json:"chunksCompleted"`
	ChunksExpected  int `json:"chunksExpected"`
}

// ProgressEvent is one element of the ordered event sequence a run emits.
// Percent is monotonically non-decreasing within a run except on
// cancellation or error.
type ProgressEvent struct {
	Phase    Phase                        `json:"phase"`
	Percent  int                          `json:"progress"`
	Message  string                       `json:"message"`
	Data     *PipelineState               `json:"data,omitempty"`
	Counters map[ArtifactKind]KindCounter `json:"counters,omitempty"`
}
