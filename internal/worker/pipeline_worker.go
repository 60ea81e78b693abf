package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/vidscribe/api/internal/model"
	"github.com/vidscribe/api/internal/pipeline"
	"github.com/vidscribe/api/internal/service"
	"github.com/vidscribe/api/internal/websocket"
)

// EngineFactory builds a pipeline engine for one run, binding the requested
// LLM provider/model and the tenant's remote storage tier.
type EngineFactory func(cfg model.RunConfig, identity model.RunIdentity) (*pipeline.Engine, error)

// PipelineWorker processes pipeline run tasks
type PipelineWorker struct {
	runService *service.RunService
	newEngine  EngineFactory
	hub        *websocket.Hub
}

// NewPipelineWorker creates a new pipeline worker
func NewPipelineWorker(runService *service.RunService, newEngine EngineFactory, hub *websocket.Hub) *PipelineWorker {
	return &PipelineWorker{
		runService: runService,
		newEngine:  newEngine,
		hub:        hub,
	}
}

// ProcessTask executes one pipeline run, relaying every progress event to
// the job record and WebSocket subscribers.
func (w *PipelineWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		RunID   string          `json:"runId"`
		Payload json.RawMessage `json:"payload"`
	}

	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	runID := taskPayload.RunID
	log.Printf("Starting pipeline run: %s", runID)

	var payload model.RunJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		w.failRun(ctx, runID, "Invalid payload")
		return fmt.Errorf("failed to unmarshal run payload: %w", err)
	}

	// Cancel endpoint may have beaten the worker to a queued run.
	if w.runService.IsCanceled(ctx, runID) {
		log.Printf("Pipeline run %s was canceled before processing", runID)
		return nil
	}

	engine, err := w.newEngine(payload.Config, payload.Identity)
	if err != nil {
		w.failRun(ctx, runID, err.Error())
		return fmt.Errorf("failed to build engine for run %s: %w", runID, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.runService.RegisterCancel(runID, cancel)
	defer w.runService.UnregisterCancel(runID)

	events := engine.Run(runCtx, payload.Identity, payload.Transcript, payload.Config)

	// Fold event payloads into one resilient final snapshot instead of
	// trusting only the terminal event's shape.
	final := &model.PipelineState{}
	var terminal model.ProgressEvent
	for event := range events {
		terminal = event
		if event.Data != nil {
			if raw, err := json.Marshal(event.Data); err == nil {
				var obj any
				if json.Unmarshal(raw, &obj) == nil {
					pipeline.MergeSnapshot(obj, final)
				}
			}
		}

		switch event.Phase {
		case model.PhaseDone, model.PhaseError, model.PhaseCancelled:
			// Terminal bookkeeping happens below
		default:
			w.updateProgress(ctx, runID, event)
		}
	}

	switch terminal.Phase {
	case model.PhaseDone:
		result := &model.RunResultResponse{
			RunID:         runID,
			CollectedNote: final.CollectedNote,
			Summary:       final.Summary,
		}
		if terminal.Data != nil {
			result.NotesPDFPath = terminal.Data.NotesPDFPath
			result.SummaryPDFPath = terminal.Data.SummaryPDFPath
			result.SummaryDocxPath = terminal.Data.SummaryDocxPath
		}
		if err := w.runService.CompleteRun(ctx, runID, result); err != nil {
			w.failRun(ctx, runID, "Failed to save result")
			return err
		}
		w.hub.BroadcastEvent(runID, terminal)
		w.hub.BroadcastComplete(runID, result)
		log.Printf("Pipeline run %s completed", runID)
		return nil

	case model.PhaseCancelled:
		if err := w.runService.MarkCanceled(ctx, runID); err != nil {
			log.Printf("Failed to mark run %s as canceled: %v", runID, err)
		}
		w.hub.BroadcastEvent(runID, terminal)
		log.Printf("Pipeline run %s cancelled", runID)
		return nil

	case model.PhaseError:
		w.failRun(ctx, runID, terminal.Message)
		return fmt.Errorf("pipeline run %s failed: %s", runID, terminal.Message)
	}

	// A canceled context can close the stream before the terminal event
	// gets delivered.
	if runCtx.Err() != nil {
		if err := w.runService.MarkCanceled(context.WithoutCancel(ctx), runID); err != nil {
			log.Printf("Failed to mark run %s as canceled: %v", runID, err)
		}
		log.Printf("Pipeline run %s cancelled", runID)
		return nil
	}

	// The event channel closed without a terminal event, treat it as a failure.
	w.failRun(ctx, runID, "run ended without a terminal event")
	return fmt.Errorf("pipeline run %s ended without a terminal event", runID)
}

func (w *PipelineWorker) updateProgress(ctx context.Context, runID string, event model.ProgressEvent) {
	if err := w.runService.UpdateRunProgress(ctx, runID, event); err != nil {
		log.Printf("Failed to update progress: %v", err)
	}
	w.hub.BroadcastEvent(runID, event)
}

func (w *PipelineWorker) failRun(ctx context.Context, runID, errMsg string) {
	if err := w.runService.FailRun(ctx, runID, errMsg); err != nil {
		log.Printf("Failed to mark run as failed: %v", err)
	}
	w.hub.BroadcastError(runID, "RUN_FAILED", errMsg)
}
