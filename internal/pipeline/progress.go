package pipeline

import (
	"github.com/vidscribe/api/internal/model"
)

// phaseMessages are the default human-readable messages per phase.
var phaseMessages = map[model.Phase]string{
	model.PhaseStarting:     "Starting pipeline execution",
	model.PhaseChunks:       "Transcript chunked",
	model.PhaseChunkNotes:   "Generating notes from chunks",
	model.PhaseFormatDocs:   "Formatting documents",
	model.PhaseCollectNotes: "Notes collected",
	model.PhaseSummary:      "Summary generated",
	model.PhaseDone:         "Pipeline execution completed",
	model.PhaseCancelled:    "Run cancelled",
}

// Tracker derives percent, phase and per-kind counters from a state
// snapshot. Percent is clamped to be non-decreasing across calls so slow or
// out-of-order chunk completions never walk the bar backwards.
type Tracker struct {
	expected    int
	lastPercent int
}

// NewTracker creates a tracker expecting the given number of chunks. The
// expectation may be revised once the chunker has actually run.
func NewTracker(expectedChunks int) *Tracker {
	if expectedChunks < 1 {
		expectedChunks = 1
	}
	return &Tracker{expected: expectedChunks}
}

// SetExpected revises the expected chunk count after chunking.
func (t *Tracker) SetExpected(n int) {
	if n < 1 {
		n = 1
	}
	t.expected = n
}

// Compute maps a state snapshot to a percent and phase. Later stages are
// checked first so a snapshot carrying several stages' output reports the
// most advanced one.
func (t *Tracker) Compute(s *model.PipelineState) (int, model.Phase) {
	switch {
	case s.Summary != "":
		return 100, model.PhaseSummary
	case s.CollectedNote != "":
		return 90, model.PhaseCollectNotes
	case countNonEmpty(s.FormattedNotes) > 0:
		return scaled(50, 80, countNonEmpty(s.FormattedNotes), t.expected), model.PhaseFormatDocs
	case countNonEmpty(s.ChunkNotes) > 0:
		return scaled(20, 50, countNonEmpty(s.ChunkNotes), t.expected), model.PhaseChunkNotes
	case len(s.Chunks) > 0:
		return 20, model.PhaseChunks
	}
	return 0, model.PhaseStarting
}

// Event builds the progress event for a snapshot, enforcing monotonicity.
// An empty message falls back to the phase default.
func (t *Tracker) Event(s *model.PipelineState, message string) model.ProgressEvent {
	percent, phase := t.Compute(s)
	if percent < t.lastPercent {
		percent = t.lastPercent
	}
	t.lastPercent = percent
	if message == "" {
		message = phaseMessages[phase]
	}
	return model.ProgressEvent{
		Phase:    phase,
		Percent:  percent,
		Message:  message,
		Data:     s.Clone(),
		Counters: t.Counters(s),
	}
}

// DoneEvent is the successful terminal event. Percent is always 100 even if
// intermediate updates were missed.
func (t *Tracker) DoneEvent(s *model.PipelineState) model.ProgressEvent {
	t.lastPercent = 100
	return model.ProgressEvent{
		Phase:    model.PhaseDone,
		Percent:  100,
		Message:  phaseMessages[model.PhaseDone],
		Data:     s.Clone(),
		Counters: t.Counters(s),
	}
}

// ErrorEvent is the failed terminal event, carrying the last good percent.
func (t *Tracker) ErrorEvent(s *model.PipelineState, err error) model.ProgressEvent {
	return model.ProgressEvent{
		Phase:    model.PhaseError,
		Percent:  t.lastPercent,
		Message:  err.Error(),
		Data:     s.Clone(),
		Counters: t.Counters(s),
	}
}

// CancelledEvent is the cancelled terminal event.
func (t *Tracker) CancelledEvent(s *model.PipelineState) model.ProgressEvent {
	return model.ProgressEvent{
		Phase:    model.PhaseCancelled,
		Percent:  t.lastPercent,
		Message:  phaseMessages[model.PhaseCancelled],
		Data:     s.Clone(),
		Counters: t.Counters(s),
	}
}

// Counters reports per-kind completion for every chunk-scoped collection
// plus the run-scoped collector and summary outputs.
func (t *Tracker) Counters(s *model.PipelineState) map[model.ArtifactKind]model.KindCounter {
	counters := map[model.ArtifactKind]model.KindCounter{
		model.KindRawNote:       chunkCounter(countNonEmpty(s.ChunkNotes), t.expected),
		model.KindFormattedNote: chunkCounter(countNonEmpty(s.FormattedNotes), t.expected),
		model.KindCollectedNote: runCounter(s.CollectedNote != ""),
		model.KindSummary:       runCounter(s.Summary != ""),
	}
	if len(s.Timestamps) > 0 {
		items, completed := countNested(s.Timestamps)
		counters[model.KindTimestamps] = model.KindCounter{ItemsProduced: items, ChunksCompleted: completed, ChunksExpected: t.expected}
	}
	if len(s.ImageInsertions) > 0 {
		items, completed := countNested(s.ImageInsertions)
		counters[model.KindImageInsertions] = model.KindCounter{ItemsProduced: items, ChunksCompleted: completed, ChunksExpected: t.expected}
	}
	if len(s.ExtractedImages) > 0 {
		items, completed := countNested(s.ExtractedImages)
		counters[model.KindExtractedImages] = model.KindCounter{ItemsProduced: items, ChunksCompleted: completed, ChunksExpected: t.expected}
	}
	if len(s.IntegratedNotes) > 0 {
		counters[model.KindIntegratedNote] = chunkCounter(countNonEmpty(s.IntegratedNotes), t.expected)
	}
	return counters
}

func chunkCounter(completed, expected int) model.KindCounter {
	return model.KindCounter{ItemsProduced: completed, ChunksCompleted: completed, ChunksExpected: expected}
}

func runCounter(present bool) model.KindCounter {
	c := model.KindCounter{ChunksExpected: 1}
	if present {
		c.ItemsProduced = 1
		c.ChunksCompleted = 1
	}
	return c
}

func countNonEmpty(items []string) int {
	n := 0
	for _, s := range items {
		if s != "" {
			n++
		}
	}
	return n
}

func countNested[T any](groups [][]T) (items, completed int) {
	for _, g := range groups {
		if g != nil {
			completed++
			items += len(g)
		}
	}
	return items, completed
}

// scaled maps done/expected into the [low, high] band, clamped at high.
func scaled(low, high, done, expected int) int {
	if expected < 1 {
		expected = 1
	}
	p := low + (high-low)*done/expected
	if p > high {
		p = high
	}
	return p
}
