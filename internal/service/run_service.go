package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/vidscribe/api/internal/config"
	"github.com/vidscribe/api/internal/model"
)

const TaskTypeRun = "run:process"

// RunService manages pipeline run jobs: queueing, status bookkeeping in
// Redis and in-process cancellation of active runs.
type RunService struct {
	redis       *redis.Client
	asynqClient *asynq.Client
	defaults    config.PipelineConfig

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewRunService(redisClient *redis.Client, asynqClient *asynq.Client, defaults config.PipelineConfig) *RunService {
	return &RunService{
		redis:       redisClient,
		asynqClient: asynqClient,
		defaults:    defaults,
		cancels:     make(map[string]context.CancelFunc),
	}
}

// StartRun queues a new pipeline run
func (s *RunService) StartRun(ctx context.Context, tenantID string, req *model.RunStartRequest) (*model.RunStartResponse, error) {
	runID := uuid.New().String()
	now := time.Now()

	cfg := model.RunConfig{
		Provider:     req.Provider,
		Model:        req.Model,
		NumChunks:    req.NumChunks,
		MaxTokens:    req.MaxTokens,
		OverlapItems: s.defaults.OverlapItems,
		AddImages:    req.AddImages,
		VideoPath:    req.VideoPath,
		RefreshNotes: req.RefreshNotes,
		Feedback:     req.Feedback,
	}
	if cfg.NumChunks == 0 && cfg.MaxTokens == 0 {
		cfg.NumChunks = s.defaults.NumChunks
		cfg.MaxTokens = s.defaults.MaxTokens
	}
	if req.OverlapItems != nil {
		cfg.OverlapItems = *req.OverlapItems
	}

	// Identity deliberately omits the run ID: artifacts are keyed by content
	// so a rerun over the same transcript resumes from the cache.
	payload := &model.RunJobPayload{
		Identity: model.RunIdentity{
			TenantID:  tenantID,
			ContentID: req.ContentID,
		},
		Transcript: req.Transcript,
		Config:     cfg,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := &model.Job{
		ID:        runID,
		Type:      model.JobTypeRun,
		Status:    model.JobStatusQueued,
		Progress:  0,
		Payload:   payloadBytes,
		CreatedAt: now,
	}

	if err := s.saveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := newRunTask(runID, payloadBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue("runs"),
		asynq.MaxRetry(1),
		asynq.Timeout(30*time.Minute),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.RunStartResponse{
		RunID:     runID,
		Status:    model.JobStatusQueued,
		CreatedAt: now,
	}, nil
}

// GetStatus returns the current status of a run
func (s *RunService) GetStatus(ctx context.Context, runID string) (*model.RunStatusResponse, error) {
	job, err := s.getJob(ctx, runID)
	if err != nil {
		return nil, err
	}

	return &model.RunStatusResponse{
		RunID:       job.ID,
		Status:      job.Status,
		Phase:       job.Phase,
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		RetryCount:  job.RetryCount,
	}, nil
}

// GetResult returns the result of a completed run
func (s *RunService) GetResult(ctx context.Context, runID string) (*model.RunResultResponse, error) {
	job, err := s.getJob(ctx, runID)
	if err != nil {
		return nil, err
	}

	if job.Status != model.JobStatusSucceeded {
		return nil, fmt.Errorf("run not completed")
	}

	var result model.RunResultResponse
	if err := json.Unmarshal(job.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

// CancelRun cancels a run. An actively processing run is stopped through its
// registered cancel func; a queued one is just marked canceled so the worker
// drops it on pickup.
func (s *RunService) CancelRun(ctx context.Context, runID string) (*model.RunCancelResponse, error) {
	job, err := s.getJob(ctx, runID)
	if err != nil {
		return nil, err
	}

	if job.Status == model.JobStatusSucceeded || job.Status == model.JobStatusFailed {
		return nil, fmt.Errorf("run already completed")
	}

	job.Status = model.JobStatusCanceled
	now := time.Now()
	job.CompletedAt = &now

	if err := s.saveJob(ctx, job); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if cancel, ok := s.cancels[runID]; ok {
		cancel()
	}
	s.mu.Unlock()

	return &model.RunCancelResponse{
		Success: true,
		RunID:   runID,
		Status:  model.JobStatusCanceled,
	}, nil
}

// RegisterCancel makes an active run cancelable (called by worker)
func (s *RunService) RegisterCancel(runID string, cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancels[runID] = cancel
	s.mu.Unlock()
}

// UnregisterCancel removes a run's cancel func (called by worker)
func (s *RunService) UnregisterCancel(runID string) {
	s.mu.Lock()
	delete(s.cancels, runID)
	s.mu.Unlock()
}

// IsCanceled reports whether the run was canceled before or during processing
func (s *RunService) IsCanceled(ctx context.Context, runID string) bool {
	job, err := s.getJob(ctx, runID)
	return err == nil && job.Status == model.JobStatusCanceled
}

// UpdateRunProgress records one pipeline event on the job (called by worker)
func (s *RunService) UpdateRunProgress(ctx context.Context, runID string, event model.ProgressEvent) error {
	job, err := s.getJob(ctx, runID)
	if err != nil {
		return err
	}

	job.Progress = event.Percent
	job.Phase = event.Phase
	job.CurrentStep = event.Message

	if job.Status == model.JobStatusQueued {
		job.Status = model.JobStatusRunning
		now := time.Now()
		job.StartedAt = &now
	}

	return s.saveJob(ctx, job)
}

// CompleteRun marks a run as succeeded (called by worker)
func (s *RunService) CompleteRun(ctx context.Context, runID string, result interface{}) error {
	job, err := s.getJob(ctx, runID)
	if err != nil {
		return err
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusSucceeded
	job.Phase = model.PhaseDone
	job.Progress = 100
	job.Result = resultBytes
	now := time.Now()
	job.CompletedAt = &now

	return s.saveJob(ctx, job)
}

// FailRun marks a run as failed (called by worker)
func (s *RunService) FailRun(ctx context.Context, runID string, errMsg string) error {
	job, err := s.getJob(ctx, runID)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusFailed
	job.Phase = model.PhaseError
	job.Error = &errMsg
	now := time.Now()
	job.CompletedAt = &now

	return s.saveJob(ctx, job)
}

// MarkCanceled finalizes a run that stopped through cancellation (called by worker)
func (s *RunService) MarkCanceled(ctx context.Context, runID string) error {
	job, err := s.getJob(ctx, runID)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusCanceled
	job.Phase = model.PhaseCancelled
	now := time.Now()
	job.CompletedAt = &now

	return s.saveJob(ctx, job)
}

// Helper methods

func (s *RunService) saveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, fmt.Sprintf("job:%s", job.ID), data, 24*time.Hour).Err()
}

func (s *RunService) getJob(ctx context.Context, runID string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, fmt.Sprintf("job:%s", runID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("run not found")
		}
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}

	return &job, nil
}

func newRunTask(runID string, payload []byte) (*asynq.Task, error) {
	taskPayload := map[string]interface{}{
		"runId":   runID,
		"payload": payload,
	}
	data, err := json.Marshal(taskPayload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRun, data), nil
}
