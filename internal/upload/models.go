package upload

import "eventlens-client/pkg/models"

// State is the lifecycle state of an upload run
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether the run can no longer change
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// FileStatus is the outcome of one file within a run
type FileStatus string

const (
	FilePending   FileStatus = "pending"
	FileSucceeded FileStatus = "succeeded"
	FileSkipped   FileStatus = "skipped"
	FileFailed    FileStatus = "failed"
	FileCancelled FileStatus = "cancelled"
)

// FileResult records what happened to one input file
type FileResult struct {
	Index  int        `json:"index"`
	Name   string     `json:"name"`
	Status FileStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
	Err    error      `json:"-"`
}

// Progress is reported once per completed batch
type Progress struct {
	Percent        int `json:"percent"`
	CompletedFiles int `json:"completed_files"`
	TotalFiles     int `json:"total_files"`
	CurrentBatch   int `json:"current_batch"` // 1-based
	TotalBatches   int `json:"total_batches"`
}

// Result is the outcome of a run. CompletedFiles only advances when a whole
// batch settles successfully; UploadedFiles and SkippedFiles count individual
// files, including those of a batch that later failed.
type Result struct {
	State          State        `json:"state"`
	TotalFiles     int          `json:"total_files"`
	CompletedFiles int          `json:"completed_files"`
	UploadedFiles  int          `json:"uploaded_files"`
	SkippedFiles   int          `json:"skipped_files"`
	FailedFiles    int          `json:"failed_files"`
	CurrentBatch   int          `json:"current_batch"`
	TotalBatches   int          `json:"total_batches"`
	Progress       int          `json:"progress"`
	Files          []FileResult `json:"files"`
	Message        string       `json:"message"`
	Err            error        `json:"-"`

	inputs []models.File
}

// Retryable returns the files that were neither uploaded nor skipped, in input order
func (r *Result) Retryable() []models.File {
	if r == nil {
		return nil
	}
	var files []models.File
	for _, fr := range r.Files {
		if fr.Status != FileSucceeded && fr.Status != FileSkipped {
			files = append(files, r.inputs[fr.Index])
		}
	}
	return files
}

// StartUploadRequest starts an authenticated upload of local paths
type StartUploadRequest struct {
	CollectionID string   `json:"collection_id"`
	EventID      string   `json:"event_id"`
	Paths        []string `json:"paths"`
	Recursive    bool     `json:"recursive"`
	BatchSize    int      `json:"batch_size,omitempty"`
}

// QuickUploadRequest starts a link-based upload that needs no session
type QuickUploadRequest struct {
	LinkID       string   `json:"link_id"`
	PIN          string   `json:"pin,omitempty"`
	CollectionID string   `json:"collection_id"`
	EventID      string   `json:"event_id"`
	Paths        []string `json:"paths"`
	Recursive    bool     `json:"recursive"`
	BatchSize    int      `json:"batch_size,omitempty"`
}

type StartUploadResponse struct {
	RunID  string `json:"run_id"`
	Status State  `json:"status"`
}

// RunStatusResponse is a point-in-time snapshot of a run
type RunStatusResponse struct {
	RunID          string       `json:"run_id"`
	Status         State        `json:"status"`
	Progress       int          `json:"progress"`
	CurrentBatch   int          `json:"current_batch"`
	TotalBatches   int          `json:"total_batches"`
	TotalFiles     int          `json:"total_files"`
	CompletedFiles int          `json:"completed_files"`
	UploadedFiles  int          `json:"uploaded_files"`
	SkippedFiles   int          `json:"skipped_files"`
	FailedFiles    int          `json:"failed_files"`
	Message        string       `json:"message"`
	Files          []FileResult `json:"files,omitempty"`
	Error          string       `json:"error,omitempty"`
}
