package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/vidscribe/api/internal/model"
	"github.com/vidscribe/api/internal/store"
)

const eventBuffer = 16

// FrameExtractor captures a still image from a video at a timestamp.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoPath, timestamp, outPath string) error
}

// Renderer converts a markdown file to PDF.
type Renderer interface {
	RenderPDF(ctx context.Context, markdownPath, pdfPath string) error
}

// DocxWriter writes a markdown document as DOCX.
type DocxWriter interface {
	WriteDocx(title, markdown, outPath string) error
}

// EngineParams are the dependencies of an Engine. Remote, Frames, Renderer
// and Docx are optional; a nil value disables the corresponding capability.
type EngineParams struct {
	LLM           LLM
	Frames        FrameExtractor
	Renderer      Renderer
	Docx          DocxWriter
	Local         *store.Local
	Remote        store.Store
	FramesDir     string
	MaxConcurrent int
}

// Engine executes the transcript-to-notes pipeline: chunk, fan out the
// per-chunk stage sequence, fan back in, then collect, summarize and export.
type Engine struct {
	p EngineParams
}

func NewEngine(p EngineParams) *Engine {
	if p.MaxConcurrent < 1 {
		p.MaxConcurrent = 1
	}
	return &Engine{p: p}
}

// chunkUpdate is one completed stage reported by a chunk worker.
type chunkUpdate struct {
	Stage StageKind
	State chunkState
	Err   error
}

// Run executes the pipeline asynchronously and returns its ordered event
// stream. The channel is closed after exactly one terminal event (done,
// error or cancelled). Cancel the context to stop the run; workers observe
// it between stages.
func (e *Engine) Run(ctx context.Context, identity model.RunIdentity, transcript []model.TranscriptEntry, cfg model.RunConfig) <-chan model.ProgressEvent {
	events := make(chan model.ProgressEvent, eventBuffer)
	go func() {
		defer close(events)
		e.run(ctx, identity, transcript, cfg, events)
	}()
	return events
}

func (e *Engine) run(ctx context.Context, identity model.RunIdentity, transcript []model.TranscriptEntry, cfg model.RunConfig, events chan<- model.ProgressEvent) {
	state := &model.PipelineState{}
	tracker := NewTracker(cfg.NumChunks)

	send := func(ev model.ProgressEvent) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}
	// Terminal events must never be dropped, even when the context is
	// already canceled. The consumer drains until close, so this cannot
	// block indefinitely.
	sendFinal := func(ev model.ProgressEvent) {
		events <- ev
	}

	send(model.ProgressEvent{Phase: model.PhaseStarting, Percent: 0, Message: phaseMessages[model.PhaseStarting]})

	chunks, err := Chunk(transcript, Policy{
		MaxTokens:    cfg.MaxTokens,
		NumChunks:    cfg.NumChunks,
		OverlapItems: cfg.OverlapItems,
	})
	if err != nil {
		sendFinal(tracker.ErrorEvent(state, err))
		return
	}
	if len(chunks) == 0 {
		state.ChunkNotes = []string{}
		state.FormattedNotes = []string{}
		sendFinal(tracker.DoneEvent(state))
		return
	}

	tracker.SetExpected(len(chunks))
	state.Chunks = make([]string, len(chunks))
	for i, c := range chunks {
		state.Chunks[i] = c.Text()
	}
	state.ChunkNotes = make([]string, len(chunks))
	state.FormattedNotes = make([]string, len(chunks))

	withImages := cfg.AddImages && cfg.VideoPath != "" && e.p.Frames != nil
	if withImages {
		state.Timestamps = make([][]model.Timestamp, len(chunks))
		state.ImageInsertions = make([][]model.ImageInsertion, len(chunks))
		state.ExtractedImages = make([][]model.FrameExtraction, len(chunks))
		state.IntegratedNotes = make([]string, len(chunks))
	}

	send(tracker.Event(state, fmt.Sprintf("Transcript split into %d chunks", len(chunks))))

	rc := &runContext{
		llm:       e.p.LLM,
		frames:    e.p.Frames,
		renderer:  e.p.Renderer,
		docx:      e.p.Docx,
		local:     e.p.Local,
		remote:    e.p.Remote,
		runner:    &Runner{Remote: e.p.Remote, Local: e.p.Local, ForceRefresh: cfg.RefreshNotes},
		framesDir: e.p.FramesDir,
		id:        identity,
		cfg:       cfg,
	}

	// Fan out one worker per chunk, bounded by the semaphore. Workers report
	// every completed stage; the coordinator is the only writer of state.
	chunkCtx, cancelChunks := context.WithCancel(ctx)
	defer cancelChunks()

	updates := make(chan chunkUpdate)
	sem := make(chan struct{}, e.p.MaxConcurrent)
	var wg sync.WaitGroup
	for i := range chunks {
		wg.Add(1)
		go func(chunk model.TranscriptChunk) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-chunkCtx.Done():
				return
			}
			defer func() { <-sem }()
			rc.runChunk(chunkCtx, chunk, withImages, updates)
		}(chunks[i])
	}
	go func() {
		wg.Wait()
		close(updates)
	}()

	var runErr error
	for up := range updates {
		if up.Err != nil {
			if runErr == nil {
				runErr = fmt.Errorf("chunk %d: %w", up.State.Index, up.Err)
				cancelChunks()
			}
			continue
		}
		applyChunkUpdate(state, up)
		send(tracker.Event(state, fmt.Sprintf("Chunk %d: %s completed", up.State.Index, up.Stage)))
	}

	if ctx.Err() != nil {
		sendFinal(tracker.CancelledEvent(state))
		return
	}
	if runErr != nil {
		sendFinal(tracker.ErrorEvent(state, runErr))
		return
	}

	collected, err := rc.collectNotes(ctx, state.FormattedNotes)
	if err != nil {
		if ctx.Err() != nil {
			sendFinal(tracker.CancelledEvent(state))
			return
		}
		sendFinal(tracker.ErrorEvent(state, err))
		return
	}
	state.CollectedNote = collected
	send(tracker.Event(state, ""))

	if ctx.Err() != nil {
		sendFinal(tracker.CancelledEvent(state))
		return
	}

	summary, err := rc.summarize(ctx, collected)
	if err != nil {
		if ctx.Err() != nil {
			sendFinal(tracker.CancelledEvent(state))
			return
		}
		sendFinal(tracker.ErrorEvent(state, err))
		return
	}
	state.Summary = summary
	send(tracker.Event(state, ""))

	if ctx.Err() != nil {
		sendFinal(tracker.CancelledEvent(state))
		return
	}

	rc.export(ctx, state)

	sendFinal(tracker.DoneEvent(state))
}

// runChunk drives one chunk through its stage sequence, reporting each
// completed stage. Cancellation is observed between stages; a cancelled
// worker reports nothing.
func (rc *runContext) runChunk(ctx context.Context, chunk model.TranscriptChunk, withImages bool, updates chan<- chunkUpdate) {
	cs := &chunkState{Index: chunk.Index, Entries: chunk.Entries, Text: chunk.Text()}
	for _, stage := range chunkStages(withImages) {
		if ctx.Err() != nil {
			return
		}
		if err := rc.runStage(ctx, stage, cs); err != nil {
			select {
			case updates <- chunkUpdate{Stage: stage, State: *cs, Err: err}:
			case <-ctx.Done():
			}
			return
		}
		select {
		case updates <- chunkUpdate{Stage: stage, State: *cs}:
		case <-ctx.Done():
			return
		}
	}
}

// applyChunkUpdate writes a worker's stage result into the indexed slot of
// the matching collection, so collections stay ordered by chunk index no
// matter the completion order.
func applyChunkUpdate(s *model.PipelineState, up chunkUpdate) {
	i := up.State.Index - 1
	switch up.Stage {
	case StageRawNote:
		if i >= 0 && i < len(s.ChunkNotes) {
			s.ChunkNotes[i] = up.State.Note
		}
	case StageTimestamps:
		if i >= 0 && i < len(s.Timestamps) {
			s.Timestamps[i] = up.State.Timestamps
		}
	case StageInsertionPlan:
		if i >= 0 && i < len(s.ImageInsertions) {
			s.ImageInsertions[i] = up.State.Insertions
		}
	case StageExtractFrames:
		if i >= 0 && i < len(s.ExtractedImages) {
			s.ExtractedImages[i] = up.State.Extracted
		}
	case StageIntegrateImages:
		if i >= 0 && i < len(s.IntegratedNotes) {
			s.IntegratedNotes[i] = up.State.IntegratedNote
		}
	case StageFormat:
		if i >= 0 && i < len(s.FormattedNotes) {
			s.FormattedNotes[i] = up.State.FormattedNote
		}
	}
}
