package upload

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"eventlens-client/pkg/models"
)

const (
	// DefaultBatchSize bounds how many transfers are in flight at once
	DefaultBatchSize = 5
	// MaxBatchSize caps any configured or per-run batch size
	MaxBatchSize = 50
)

// ProgressFunc receives one update per completed batch
type ProgressFunc func(Progress)

// Scheduler drives files to their destinations in sequential batches.
// Files within a batch transfer concurrently; batch k+1 starts only after
// every transfer of batch k has settled.
type Scheduler struct {
	destinations DestinationRequester
	transfers    Transferer
	batchSize    int
	logger       *zap.Logger
}

// SchedulerOption configures a Scheduler
type SchedulerOption func(*Scheduler)

// WithDefaultBatchSize overrides DefaultBatchSize for runs that do not set one
func WithDefaultBatchSize(size int) SchedulerOption {
	return func(s *Scheduler) {
		if size > 0 {
			s.batchSize = min(size, MaxBatchSize)
		}
	}
}

// WithSchedulerLogger sets the logger
func WithSchedulerLogger(logger *zap.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewScheduler(destinations DestinationRequester, transfers Transferer, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		destinations: destinations,
		transfers:    transfers,
		batchSize:    DefaultBatchSize,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type runOptions struct {
	batchSize  int
	onProgress ProgressFunc
	onBatch    func(batch, total int)
}

// RunOption configures a single run
type RunOption func(*runOptions)

// WithBatchSize sets the batch size for one run, capped at MaxBatchSize
func WithBatchSize(size int) RunOption {
	return func(o *runOptions) {
		if size > 0 {
			o.batchSize = min(size, MaxBatchSize)
		}
	}
}

// WithProgress registers the progress callback
func WithProgress(fn ProgressFunc) RunOption {
	return func(o *runOptions) {
		o.onProgress = fn
	}
}

// WithBatchStart registers a callback invoked before each batch starts
func WithBatchStart(fn func(batch, total int)) RunOption {
	return func(o *runOptions) {
		o.onBatch = fn
	}
}

// Partition splits files into consecutive batches of at most size files
func Partition(files []models.File, size int) [][]models.File {
	if size <= 0 {
		size = DefaultBatchSize
	}
	size = min(size, MaxBatchSize)
	batches := make([][]models.File, 0, (len(files)+size-1)/size)
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		batches = append(batches, files[start:end])
	}
	return batches
}

// Run uploads files to dest. The returned Result is never nil. The error is
// non-nil when validation fails (no network call is made), when any transfer
// or destination request fails, or when ctx is cancelled. Files already
// transferred before a failure stay on the backend.
func (s *Scheduler) Run(ctx context.Context, files []models.File, dest models.DestinationContext, opts ...RunOption) (*Result, error) {
	o := runOptions{batchSize: s.batchSize}
	for _, opt := range opts {
		opt(&o)
	}

	result := newResult(files)

	if len(files) == 0 {
		return result.fail(StateIdle, ErrNoFiles)
	}
	if !dest.Complete() {
		return result.fail(StateIdle, ErrInvalidDestination)
	}

	batches := Partition(files, o.batchSize)
	result.State = StateRunning
	result.TotalBatches = len(batches)

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return result.fail(StateCancelled, err)
		}

		result.CurrentBatch = i + 1
		if o.onBatch != nil {
			o.onBatch(result.CurrentBatch, result.TotalBatches)
		}

		s.logger.Debug("upload batch started",
			zap.Int("batch", result.CurrentBatch),
			zap.Int("total_batches", result.TotalBatches),
			zap.Int("files", len(batch)))

		err := s.runBatch(ctx, batch, i*o.batchSize, dest, result)
		result.tally()
		if err != nil {
			if ctx.Err() != nil {
				return result.fail(StateCancelled, ctx.Err())
			}
			s.logger.Warn("upload run failed",
				zap.Int("batch", result.CurrentBatch),
				zap.Int("completed_files", result.CompletedFiles),
				zap.Error(err))
			return result.fail(StateFailed, err)
		}

		result.CompletedFiles += len(batch)
		result.Progress = result.CompletedFiles * 100 / result.TotalFiles
		if o.onProgress != nil {
			o.onProgress(Progress{
				Percent:        result.Progress,
				CompletedFiles: result.CompletedFiles,
				TotalFiles:     result.TotalFiles,
				CurrentBatch:   result.CurrentBatch,
				TotalBatches:   result.TotalBatches,
			})
		}
	}

	result.State = StateSucceeded
	result.Message = StatusMessage(nil)
	s.logger.Info("upload run finished",
		zap.Int("uploaded", result.UploadedFiles),
		zap.Int("skipped", result.SkippedFiles))
	return result, nil
}

// runBatch requests destinations for one batch and transfers its files in
// parallel, waiting for all of them to settle. offset is the input index of
// the batch's first file.
func (s *Scheduler) runBatch(ctx context.Context, batch []models.File, offset int, dest models.DestinationContext, result *Result) error {
	descriptors := make([]models.FileDescriptor, len(batch))
	for i, file := range batch {
		descriptors[i] = file.Descriptor()
	}

	destinations, err := s.destinations.RequestDestinations(ctx, dest, descriptors)
	if err != nil {
		for i := range batch {
			result.Files[offset+i].settle(FileFailed, err)
		}
		return fmt.Errorf("request destinations: %w", err)
	}

	var g errgroup.Group
	for i, file := range batch {
		fr := &result.Files[offset+i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				fr.settle(FileCancelled, err)
				return err
			}

			if i >= len(destinations) || destinations[i].Missing {
				fr.settle(FileFailed, ErrMissingDestination)
				return fmt.Errorf("%s: %w", file.Name, ErrMissingDestination)
			}

			if destinations[i].Skipped() {
				fr.settle(FileSkipped, nil)
				return nil
			}

			if err := s.transfer(ctx, file, destinations[i].URL); err != nil {
				if ctx.Err() != nil {
					fr.settle(FileCancelled, err)
				} else {
					fr.settle(FileFailed, err)
					s.logger.Warn("file transfer failed", zap.String("file", file.Name), zap.Error(err))
				}
				return fmt.Errorf("%s: %w", file.Name, err)
			}

			fr.settle(FileSucceeded, nil)
			return nil
		})
	}

	return g.Wait()
}

func (s *Scheduler) transfer(ctx context.Context, file models.File, url string) error {
	if file.Open == nil {
		return ErrNoContent
	}

	body, err := file.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer body.Close()

	return s.transfers.Put(ctx, url, body, file.Size, file.ContentType())
}

func newResult(files []models.File) *Result {
	r := &Result{
		State:      StateIdle,
		TotalFiles: len(files),
		Files:      make([]FileResult, len(files)),
		inputs:     files,
	}
	for i, file := range files {
		r.Files[i] = FileResult{Index: i, Name: file.Name, Status: FilePending}
	}
	return r
}

func (r *Result) fail(state State, err error) (*Result, error) {
	r.State = state
	r.Err = err
	r.Message = StatusMessage(err)
	return r, err
}

// tally recounts per-file outcomes; called only between batches
func (r *Result) tally() {
	r.UploadedFiles, r.SkippedFiles, r.FailedFiles = 0, 0, 0
	for _, fr := range r.Files {
		switch fr.Status {
		case FileSucceeded:
			r.UploadedFiles++
		case FileSkipped:
			r.SkippedFiles++
		case FileFailed:
			r.FailedFiles++
		}
	}
}

func (fr *FileResult) settle(status FileStatus, err error) {
	fr.Status = status
	fr.Err = err
	if err != nil && !errors.Is(err, context.Canceled) {
		fr.Reason = err.Error()
	}
}
