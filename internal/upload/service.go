package upload

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eventlens-client/pkg/models"
)

// Service runs uploads in the background on behalf of the local API
type Service struct {
	scheduler *Scheduler
	files     FileResolver
	runs      *RunManager
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func NewService(scheduler *Scheduler, files FileResolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		scheduler: scheduler,
		files:     files,
		runs:      NewRunManager(),
		logger:    logger,
	}
}

// StartUpload validates the request, resolves the local paths, and starts an
// authenticated run. It returns the run id.
func (s *Service) StartUpload(req StartUploadRequest) (string, error) {
	dest := models.DestinationContext{
		CollectionID: req.CollectionID,
		EventID:      req.EventID,
	}
	return s.start(dest, req.Paths, req.Recursive, req.BatchSize)
}

// StartQuickUpload starts a link-based run that carries no credential
func (s *Service) StartQuickUpload(req QuickUploadRequest) (string, error) {
	dest := models.DestinationContext{
		CollectionID: req.CollectionID,
		EventID:      req.EventID,
		Public:       true,
		LinkID:       req.LinkID,
		PIN:          req.PIN,
	}
	return s.start(dest, req.Paths, req.Recursive, req.BatchSize)
}

func (s *Service) start(dest models.DestinationContext, paths []string, recursive bool, batchSize int) (string, error) {
	if !dest.Complete() {
		return "", ErrInvalidDestination
	}
	// Zero means the configured default
	if batchSize < 0 || batchSize > MaxBatchSize {
		return "", ErrInvalidBatchSize
	}
	if len(paths) == 0 {
		return "", ErrNoFiles
	}

	files, err := s.files.Resolve(paths, recursive)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPaths, err)
	}
	if len(files) == 0 {
		return "", ErrNoFiles
	}

	return s.launch(dest, files, batchSize), nil
}

// launch starts the scheduler on its own goroutine
func (s *Service) launch(dest models.DestinationContext, files []models.File, batchSize int) string {
	runID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	s.runs.Store(runID, dest, files, cancel)

	s.logger.Info("upload run started",
		zap.String("run_id", runID),
		zap.Int("files", len(files)),
		zap.Bool("public", dest.Public))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		result, err := s.scheduler.Run(ctx, files, dest,
			WithBatchSize(batchSize),
			WithBatchStart(func(batch, total int) { s.runs.StartBatch(runID, batch, total) }),
			WithProgress(func(p Progress) { s.runs.UpdateProgress(runID, p) }))
		if err != nil {
			s.logger.Warn("upload run ended early",
				zap.String("run_id", runID),
				zap.String("state", string(result.State)),
				zap.Error(err))
		}
		s.runs.MarkFinished(runID, result)
	}()

	return runID
}

// GetRunStatus retrieves the current state of a run
func (s *Service) GetRunStatus(runID string) (*RunStatusResponse, error) {
	status, ok := s.runs.Snapshot(runID)
	if !ok {
		return nil, ErrRunNotFound
	}
	return status, nil
}

// CancelRun stops a running upload before its next batch or transfer
func (s *Service) CancelRun(runID string) error {
	return s.runs.Cancel(runID)
}

// Retry starts a new run with the files of runID that were neither uploaded
// nor skipped
func (s *Service) Retry(runID string) (string, error) {
	dest, files, err := s.runs.Retryable(runID)
	if err != nil {
		return "", err
	}
	return s.launch(dest, files, 0), nil
}

// Shutdown cancels running uploads and waits for them to settle, or until ctx ends
func (s *Service) Shutdown(ctx context.Context) error {
	s.runs.CancelAll()
	s.runs.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
