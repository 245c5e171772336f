package domain

import (
	"fmt"
	"time"
)

// ExportPath is the export strategy chosen for an entry at queue time.
type ExportPath string

const (
	PathManual    ExportPath = "manual"
	PathImmediate ExportPath = "immediate"
	PathScheduled ExportPath = "scheduled"
)

// ValidExportPath reports whether s names a known export path.
func ValidExportPath(s string) bool {
	switch ExportPath(s) {
	case PathManual, PathImmediate, PathScheduled:
		return true
	}
	return false
}

// ExportStatus is the lifecycle state of a queue record.
type ExportStatus string

const (
	StatusQueued     ExportStatus = "queued"
	StatusProcessing ExportStatus = "processing"
	StatusCompleted  ExportStatus = "completed"
	StatusFailed     ExportStatus = "failed"
)

// ExportAction is an audit trail action recorded in the export log.
type ExportAction string

const (
	ActionQueued        ExportAction = "queued"
	ActionExportStarted ExportAction = "export_started"
	ActionCSVGenerated  ExportAction = "csv_generated"
	ActionCompleted     ExportAction = "completed"
	ActionFailed        ExportAction = "failed"
	ActionRetry         ExportAction = "retry"
)

// MaxExportAttempts caps the attempts counter on a queue record. Once a
// record reaches the cap it requires a manual reset.
const MaxExportAttempts = 3

// ExportQueueRecord tracks the export lifecycle of exactly one ledger entry.
// The uniqueness of EntryID across records is the idempotency gate for
// duplicate ingestion and webhook delivery.
//
// State transitions are pure: each Mark method returns a new snapshot and the
// caller persists it explicitly.
type ExportQueueRecord struct {
	QueueID      string         `json:"queueID"`
	EntryID      string         `json:"entryID"`
	ExportPath   ExportPath     `json:"exportPath"`
	Status       ExportStatus   `json:"status"`
	ScheduledFor *time.Time     `json:"scheduledFor,omitempty"`
	Attempts     int            `json:"attempts"`
	LastError    *string        `json:"lastError,omitempty"`
	CompletedAt  *time.Time     `json:"completedAt,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// MarkProcessing transitions queued/failed -> processing.
func (r ExportQueueRecord) MarkProcessing() (ExportQueueRecord, error) {
	if r.Status != StatusQueued && r.Status != StatusFailed {
		return r, fmt.Errorf("cannot start processing queue %s from status %s", r.QueueID, r.Status)
	}
	r.Status = StatusProcessing
	return r, nil
}

// MarkCompleted transitions processing -> completed, stamps CompletedAt and
// merges upload/response metadata into the record.
func (r ExportQueueRecord) MarkCompleted(now time.Time, meta map[string]any) (ExportQueueRecord, error) {
	if r.Status != StatusProcessing {
		return r, fmt.Errorf("cannot complete queue %s from status %s", r.QueueID, r.Status)
	}
	r.Status = StatusCompleted
	r.CompletedAt = &now
	if len(meta) > 0 {
		merged := make(map[string]any, len(r.Metadata)+len(meta))
		for k, v := range r.Metadata {
			merged[k] = v
		}
		for k, v := range meta {
			merged[k] = v
		}
		r.Metadata = merged
	}
	return r, nil
}

// MarkFailed transitions any state -> failed, recording the cause and
// incrementing the attempts counter up to MaxExportAttempts.
func (r ExportQueueRecord) MarkFailed(cause string) ExportQueueRecord {
	r.Status = StatusFailed
	r.LastError = &cause
	if r.Attempts < MaxExportAttempts {
		r.Attempts++
	}
	return r
}

// CanRetry reports whether the record is failed with remaining attempt budget.
func (r ExportQueueRecord) CanRetry() bool {
	return r.Status == StatusFailed && r.Attempts < MaxExportAttempts
}

// RemainingAttempts is the retry budget left on the record.
func (r ExportQueueRecord) RemainingAttempts() int {
	remaining := MaxExportAttempts - r.Attempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ExportLogEntry is one immutable row of the export audit trail. QueueID is
// nil for batch-level events that cover many queue records at once; those
// rows carry BatchDate instead, which backs the daily-batch uniqueness gate.
type ExportLogEntry struct {
	LogID       string         `json:"logID"`
	QueueID     *string        `json:"queueID,omitempty"`
	Action      ExportAction   `json:"action"`
	Message     string         `json:"message"`
	PerformedBy string         `json:"performedBy"`
	BatchDate   *string        `json:"batchDate,omitempty"` // YYYY-MM-DD
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// UploadResult describes a file placed in external storage.
type UploadResult struct {
	FileID      string `json:"fileId"`
	WebViewLink string `json:"webViewLink"`
	Filename    string `json:"filename"`
}

// BatchResult summarizes one daily batch run.
type BatchResult struct {
	Processed        int           `json:"processed"`
	AlreadyGenerated bool          `json:"alreadyGenerated"`
	Upload           *UploadResult `json:"upload,omitempty"`
}
