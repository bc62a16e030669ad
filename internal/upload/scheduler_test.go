package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"eventlens-client/internal/config"
	"eventlens-client/pkg/models"
)

type fakeDestinations struct {
	mu       sync.Mutex
	calls    [][]models.FileDescriptor
	contexts []models.DestinationContext
	// skip maps call number (1-based) to the batch indexes returned with a null URL
	skip     map[int][]int
	short    map[int]int
	failCall int
	inFlight func() int
}

func (f *fakeDestinations) RequestDestinations(ctx context.Context, dest models.DestinationContext, files []models.FileDescriptor) ([]models.TransferDestination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inFlight != nil && f.inFlight() != 0 {
		return nil, errors.New("destination request overlapped with transfers")
	}

	f.calls = append(f.calls, files)
	f.contexts = append(f.contexts, dest)
	call := len(f.calls)
	if call == f.failCall {
		return nil, errors.New("destination service down")
	}

	n := len(files)
	if short, ok := f.short[call]; ok {
		n = short
	}
	out := make([]models.TransferDestination, len(files))
	for i := range files {
		out[i] = models.TransferDestination{FileIndex: i, URL: fmt.Sprintf("https://store/%d/%s", call, files[i].Name)}
		if i >= n {
			out[i] = models.TransferDestination{FileIndex: i, Missing: true}
		}
	}
	for _, idx := range f.skip[call] {
		out[idx].URL = ""
	}
	return out, nil
}

type putCall struct {
	url         string
	contentType string
	body        string
	size        int64
}

type fakeTransfers struct {
	mu          sync.Mutex
	puts        []putCall
	failNames   map[string]bool
	delay       time.Duration
	inFlight    int
	maxInFlight int
}

func (f *fakeTransfers) Put(ctx context.Context, url string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.puts = append(f.puts, putCall{url: url, contentType: contentType, body: string(data), size: size})
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for name := range f.failNames {
		if strings.HasSuffix(url, "/"+name) {
			return errors.New("connection reset by peer")
		}
	}
	return nil
}

func (f *fakeTransfers) current() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

func makeFiles(n int) []models.File {
	files := make([]models.File, n)
	for i := range files {
		name := fmt.Sprintf("IMG_%02d.jpg", i)
		content := "bytes-of-" + name
		files[i] = models.File{
			Name: name,
			Type: "image/jpeg",
			Size: int64(len(content)),
			Open: func() (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader(content)), nil
			},
		}
	}
	return files
}

var testDest = models.DestinationContext{CollectionID: "col-1", EventID: "evt-1"}

func newTestScheduler(t *testing.T, d *fakeDestinations, tr *fakeTransfers) *Scheduler {
	t.Helper()
	return NewScheduler(d, tr, WithSchedulerLogger(zaptest.NewLogger(t)))
}

func TestPartition(t *testing.T) {
	for n := 0; n <= 23; n++ {
		for size := 1; size <= 7; size++ {
			files := makeFiles(n)
			batches := Partition(files, size)

			require.Len(t, batches, (n+size-1)/size, "n=%d size=%d", n, size)

			var joined []models.File
			for i, batch := range batches {
				require.NotEmpty(t, batch)
				if i < len(batches)-1 {
					require.Len(t, batch, size)
				}
				joined = append(joined, batch...)
			}
			require.Len(t, joined, n)
			for i := range joined {
				require.Equal(t, files[i].Name, joined[i].Name)
			}
		}
	}
}

func TestScheduler_Run_ProgressWithoutFailures(t *testing.T) {
	d := &fakeDestinations{}
	tr := &fakeTransfers{}
	var updates []Progress

	result, err := newTestScheduler(t, d, tr).Run(context.Background(), makeFiles(12), testDest,
		WithProgress(func(p Progress) { updates = append(updates, p) }))

	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, result.State)
	require.Len(t, updates, 3)

	var percents []int
	for _, u := range updates {
		percents = append(percents, u.Percent)
		assert.Equal(t, 12, u.TotalFiles)
		assert.Equal(t, 3, u.TotalBatches)
	}
	assert.Equal(t, []int{41, 83, 100}, percents)
	assert.Equal(t, []int{5, 10, 12}, []int{updates[0].CompletedFiles, updates[1].CompletedFiles, updates[2].CompletedFiles})
	assert.Equal(t, 100, result.Progress)
	assert.Equal(t, 12, result.CompletedFiles)
	assert.Equal(t, 12, result.UploadedFiles)
	assert.Len(t, tr.puts, 12)
	assert.Empty(t, result.Retryable())
	assert.Equal(t, "Upload complete.", result.Message)
}

func TestScheduler_Run_ProgressIsMonotonic(t *testing.T) {
	for _, n := range []int{1, 2, 7, 9, 25, 33} {
		for _, size := range []int{1, 3, 5, 10} {
			var percents []int
			_, err := newTestScheduler(t, &fakeDestinations{}, &fakeTransfers{}).Run(
				context.Background(), makeFiles(n), testDest,
				WithBatchSize(size),
				WithProgress(func(p Progress) { percents = append(percents, p.Percent) }))

			require.NoError(t, err)
			require.Len(t, percents, (n+size-1)/size)
			for i := 1; i < len(percents); i++ {
				require.GreaterOrEqual(t, percents[i], percents[i-1])
			}
			for _, p := range percents[:len(percents)-1] {
				require.Less(t, p, 100)
			}
			require.Equal(t, 100, percents[len(percents)-1])
		}
	}
}

func TestScheduler_Run_NullDestinationIsSkipped(t *testing.T) {
	d := &fakeDestinations{skip: map[int][]int{2: {3}}}
	tr := &fakeTransfers{}
	var percents []int

	result, err := newTestScheduler(t, d, tr).Run(context.Background(), makeFiles(12), testDest,
		WithProgress(func(p Progress) { percents = append(percents, p.Percent) }))

	require.NoError(t, err)
	assert.Equal(t, []int{41, 83, 100}, percents)

	var batchTwo int
	for _, put := range tr.puts {
		assert.NotContains(t, put.url, "IMG_08.jpg")
		if strings.HasPrefix(put.url, "https://store/2/") {
			batchTwo++
		}
	}
	assert.Equal(t, 4, batchTwo)
	assert.Len(t, tr.puts, 11)

	assert.Equal(t, 12, result.CompletedFiles)
	assert.Equal(t, 11, result.UploadedFiles)
	assert.Equal(t, 1, result.SkippedFiles)
	assert.Equal(t, FileSkipped, result.Files[8].Status)
	assert.Empty(t, result.Retryable())
}

func TestScheduler_Run_TransferFailureAbortsRun(t *testing.T) {
	d := &fakeDestinations{}
	tr := &fakeTransfers{failNames: map[string]bool{"IMG_07.jpg": true}}
	var percents []int

	result, err := newTestScheduler(t, d, tr).Run(context.Background(), makeFiles(12), testDest,
		WithProgress(func(p Progress) { percents = append(percents, p.Percent) }))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMG_07.jpg")
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, []int{41}, percents)
	assert.Len(t, d.calls, 2, "batch 3 must never start")
	assert.Len(t, tr.puts, 10, "every transfer of batch 2 settles")

	assert.Equal(t, 5, result.CompletedFiles)
	assert.Equal(t, 41, result.Progress)
	assert.Equal(t, 9, result.UploadedFiles)
	assert.Equal(t, 1, result.FailedFiles)
	assert.Equal(t, 2, result.CurrentBatch)

	for i, fr := range result.Files {
		switch {
		case i == 7:
			assert.Equal(t, FileFailed, fr.Status)
			assert.Contains(t, fr.Reason, "connection reset")
		case i < 10:
			assert.Equal(t, FileSucceeded, fr.Status, "file %d", i)
		default:
			assert.Equal(t, FilePending, fr.Status, "file %d", i)
		}
	}

	var retry []string
	for _, f := range result.Retryable() {
		retry = append(retry, f.Name)
	}
	assert.Equal(t, []string{"IMG_07.jpg", "IMG_10.jpg", "IMG_11.jpg"}, retry)
	assert.Contains(t, result.Message, "retry")
}

func TestScheduler_Run_DestinationRequestFailure(t *testing.T) {
	d := &fakeDestinations{failCall: 2}
	tr := &fakeTransfers{}

	result, err := newTestScheduler(t, d, tr).Run(context.Background(), makeFiles(8), testDest)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "destination service down")
	assert.Equal(t, StateFailed, result.State)
	assert.Len(t, tr.puts, 5)
	assert.Equal(t, 5, result.CompletedFiles)
	assert.Equal(t, 3, result.FailedFiles)
	assert.Len(t, result.Retryable(), 3)
}

func TestScheduler_Run_MissingDestinationFailsFile(t *testing.T) {
	d := &fakeDestinations{short: map[int]int{1: 2}}
	tr := &fakeTransfers{}

	result, err := newTestScheduler(t, d, tr).Run(context.Background(), makeFiles(3), testDest)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingDestination)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, FileFailed, result.Files[2].Status)
	assert.Len(t, tr.puts, 2)
}

func TestScheduler_Run_Validation(t *testing.T) {
	tests := []struct {
		name    string
		files   []models.File
		dest    models.DestinationContext
		wantErr error
	}{
		{name: "no files", files: nil, dest: testDest, wantErr: ErrNoFiles},
		{name: "no collection", files: makeFiles(1), dest: models.DestinationContext{EventID: "e"}, wantErr: ErrInvalidDestination},
		{name: "no event", files: makeFiles(1), dest: models.DestinationContext{CollectionID: "c"}, wantErr: ErrInvalidDestination},
		{name: "public without link", files: makeFiles(1), dest: models.DestinationContext{CollectionID: "c", EventID: "e", Public: true}, wantErr: ErrInvalidDestination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDestinations{}
			tr := &fakeTransfers{}

			result, err := newTestScheduler(t, d, tr).Run(context.Background(), tt.files, tt.dest)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, StateIdle, result.State)
			assert.Empty(t, d.calls)
			assert.Empty(t, tr.puts)
		})
	}
}

func TestScheduler_Run_TransferRequest(t *testing.T) {
	d := &fakeDestinations{}
	tr := &fakeTransfers{}
	files := []models.File{
		{Name: "a.png", Type: "image/png", Size: 3, Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("png")), nil }},
		{Name: "b", Size: 4, Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("jpeg")), nil }},
	}
	public := models.DestinationContext{CollectionID: "c", EventID: "e", Public: true, LinkID: "l", PIN: "1"}

	_, err := newTestScheduler(t, d, tr).Run(context.Background(), files, public)
	require.NoError(t, err)

	require.Len(t, d.calls, 1)
	assert.Equal(t, public, d.contexts[0])
	assert.Equal(t, []models.FileDescriptor{{Name: "a.png", Type: "image/png", Size: 3}, {Name: "b", Size: 4}}, d.calls[0])

	byBody := map[string]putCall{}
	for _, p := range tr.puts {
		byBody[p.body] = p
	}
	assert.Equal(t, "image/png", byBody["png"].contentType)
	assert.Equal(t, models.DefaultContentType, byBody["jpeg"].contentType)
	assert.Equal(t, int64(4), byBody["jpeg"].size)
}

func TestScheduler_Run_BatchesDoNotOverlap(t *testing.T) {
	tr := &fakeTransfers{delay: 10 * time.Millisecond}
	d := &fakeDestinations{inFlight: tr.current}

	_, err := newTestScheduler(t, d, tr).Run(context.Background(), makeFiles(17), testDest, WithBatchSize(4))

	require.NoError(t, err)
	assert.Len(t, d.calls, 5)
	assert.LessOrEqual(t, tr.maxInFlight, 4)
	assert.Greater(t, tr.maxInFlight, 1, "files within a batch transfer concurrently")
}

func TestScheduler_Run_BatchSizeIsCapped(t *testing.T) {
	tr := &fakeTransfers{}
	d := &fakeDestinations{}

	result, err := newTestScheduler(t, d, tr).Run(context.Background(), makeFiles(120), testDest, WithBatchSize(1_000_000))

	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalBatches)
	require.Len(t, d.calls, 3)
	for _, call := range d.calls {
		assert.LessOrEqual(t, len(call), MaxBatchSize)
	}
	assert.LessOrEqual(t, tr.maxInFlight, MaxBatchSize)
	assert.Len(t, tr.puts, 120)
}

func TestScheduler_DefaultBatchSizeIsCapped(t *testing.T) {
	d := &fakeDestinations{}
	s := NewScheduler(d, &fakeTransfers{}, WithDefaultBatchSize(500), WithSchedulerLogger(zaptest.NewLogger(t)))

	result, err := s.Run(context.Background(), makeFiles(60), testDest)

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalBatches)
	assert.Len(t, d.calls[0], MaxBatchSize)
}

func TestScheduler_MaxBatchSizeMatchesConfig(t *testing.T) {
	assert.Equal(t, config.MaxBatchSize, MaxBatchSize)
}

func TestScheduler_Run_CancelBetweenBatches(t *testing.T) {
	d := &fakeDestinations{}
	tr := &fakeTransfers{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := newTestScheduler(t, d, tr).Run(ctx, makeFiles(12), testDest,
		WithProgress(func(p Progress) {
			if p.CurrentBatch == 1 {
				cancel()
			}
		}))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateCancelled, result.State)
	assert.Len(t, d.calls, 1)
	assert.Equal(t, 5, result.CompletedFiles)
	assert.Len(t, result.Retryable(), 7)
	assert.Equal(t, "Upload cancelled.", result.Message)
}

func TestScheduler_Run_CancelDuringBatch(t *testing.T) {
	d := &fakeDestinations{}
	tr := &fakeTransfers{delay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := newTestScheduler(t, d, tr).Run(ctx, makeFiles(3), testDest,
		WithBatchStart(func(batch, total int) {
			time.AfterFunc(20*time.Millisecond, cancel)
		}))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateCancelled, result.State)
	for _, fr := range result.Files {
		assert.Equal(t, FileCancelled, fr.Status)
	}
	assert.Equal(t, 0, result.FailedFiles)
}

func TestScheduler_Run_OpenFailure(t *testing.T) {
	files := []models.File{
		{Name: "gone.jpg", Open: func() (io.ReadCloser, error) { return nil, errors.New("file removed") }},
		{Name: "nil-opener.jpg"},
	}

	result, err := newTestScheduler(t, &fakeDestinations{}, &fakeTransfers{}).Run(context.Background(), files, testDest)

	require.Error(t, err)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, 2, result.FailedFiles)
	assert.ErrorIs(t, result.Files[1].Err, ErrNoContent)
}
