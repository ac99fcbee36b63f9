// Package progress holds the process-wide ingestion status record polled by
// the HTTP layer while an upload is being processed.
package progress

import "sync"

type Status string

const (
	StatusIdle       Status = "idle"
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Snapshot is a consistent copy of the three-field progress record.
type Snapshot struct {
	Status   Status `json:"status"`
	Message  string `json:"message"`
	Progress int    `json:"progress"`
}

// Tracker is the ingestion flow's only structure shared with the polling
// flow. Every read and write goes through the mutex; callers never see a
// torn record.
type Tracker struct {
	mu       sync.Mutex
	status   Status
	message  string
	progress int
}

func NewTracker() *Tracker {
	return &Tracker{status: StatusIdle}
}

// Set replaces the whole record in one step.
func (t *Tracker) Set(status Status, message string, progress int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	t.message = message
	t.progress = progress
}

// Snapshot returns a copy of the current record.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{Status: t.status, Message: t.message, Progress: t.progress}
}

// Reset returns the tracker to idle.
func (t *Tracker) Reset() {
	t.Set(StatusIdle, "", 0)
}
