package upload

import (
	"context"
	"sync"
	"time"

	"eventlens-client/pkg/models"
)

const runRetention = 24 * time.Hour

type runContext struct {
	dest      models.DestinationContext
	files     []models.File
	createdAt time.Time
	cancel    context.CancelFunc
	status    State
	progress  Progress
	result    *Result
}

// RunManager tracks background upload runs.
// It provides thread-safe storage and retrieval of run state.
type RunManager struct {
	runs map[string]*runContext
	mu   sync.RWMutex
	stop chan struct{}
	once sync.Once
}

func NewRunManager() *RunManager {
	rm := &RunManager{
		runs: make(map[string]*runContext),
		stop: make(chan struct{}),
	}

	go rm.cleanupExpiredRuns()

	return rm
}

func (rm *RunManager) cleanupExpiredRuns() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-rm.stop:
			return
		case <-ticker.C:
			rm.removeExpired(time.Now())
		}
	}
}

func (rm *RunManager) removeExpired(now time.Time) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for runID, run := range rm.runs {
		// Running uploads are never evicted
		if run.status.Terminal() && now.Sub(run.createdAt) > runRetention {
			delete(rm.runs, runID)
		}
	}
}

// Close stops the cleanup goroutine
func (rm *RunManager) Close() {
	rm.once.Do(func() { close(rm.stop) })
}

func (rm *RunManager) Store(runID string, dest models.DestinationContext, files []models.File, cancel context.CancelFunc) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.runs[runID] = &runContext{
		dest:      dest,
		files:     files,
		createdAt: time.Now(),
		cancel:    cancel,
		status:    StateRunning,
		progress:  Progress{TotalFiles: len(files)},
	}
}

func (rm *RunManager) StartBatch(runID string, batch, total int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if run, exists := rm.runs[runID]; exists {
		run.progress.CurrentBatch = batch
		run.progress.TotalBatches = total
	}
}

func (rm *RunManager) UpdateProgress(runID string, progress Progress) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if run, exists := rm.runs[runID]; exists {
		run.progress = progress
	}
}

func (rm *RunManager) MarkFinished(runID string, result *Result) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if run, exists := rm.runs[runID]; exists {
		run.status = result.State
		run.result = result
		run.progress.Percent = result.Progress
		run.progress.CompletedFiles = result.CompletedFiles
		run.progress.CurrentBatch = result.CurrentBatch
		run.progress.TotalBatches = result.TotalBatches
	}
}

// Cancel signals a running upload to stop. The run reaches the cancelled
// state once its in-flight transfers settle.
func (rm *RunManager) Cancel(runID string) error {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	run, exists := rm.runs[runID]
	if !exists {
		return ErrRunNotFound
	}
	if run.status.Terminal() {
		return ErrRunNotActive
	}
	run.cancel()
	return nil
}

// CancelAll signals every running upload to stop
func (rm *RunManager) CancelAll() {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	for _, run := range rm.runs {
		if !run.status.Terminal() {
			run.cancel()
		}
	}
}

// Snapshot returns a copy of the run's state safe to serialize
func (rm *RunManager) Snapshot(runID string) (*RunStatusResponse, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	run, exists := rm.runs[runID]
	if !exists {
		return nil, false
	}

	status := &RunStatusResponse{
		RunID:          runID,
		Status:         run.status,
		Progress:       run.progress.Percent,
		CurrentBatch:   run.progress.CurrentBatch,
		TotalBatches:   run.progress.TotalBatches,
		TotalFiles:     len(run.files),
		CompletedFiles: run.progress.CompletedFiles,
	}

	if run.result == nil {
		status.Message = "Uploading..."
		return status, true
	}

	status.UploadedFiles = run.result.UploadedFiles
	status.SkippedFiles = run.result.SkippedFiles
	status.FailedFiles = run.result.FailedFiles
	status.Message = run.result.Message
	status.Files = append([]FileResult(nil), run.result.Files...)
	if run.result.Err != nil {
		status.Error = run.result.Err.Error()
	}
	return status, true
}

// Retryable returns the destination and the files to send again for a finished run
func (rm *RunManager) Retryable(runID string) (models.DestinationContext, []models.File, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	run, exists := rm.runs[runID]
	if !exists {
		return models.DestinationContext{}, nil, ErrRunNotFound
	}
	if !run.status.Terminal() {
		return models.DestinationContext{}, nil, ErrRunActive
	}

	files := run.result.Retryable()
	if len(files) == 0 {
		return models.DestinationContext{}, nil, ErrNothingToRetry
	}
	return run.dest, files, nil
}

func (rm *RunManager) Delete(runID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	delete(rm.runs, runID)
}
