package dto

import (
	"time"

	"github.com/kritsadas/ledger_export_app/internal/core/domain"
)

// QueueExportRequest is the payload for queueing an approved entry for export.
type QueueExportRequest struct {
	EntryID    string `json:"entryId" binding:"required"`
	ExportPath string `json:"exportPath" binding:"omitempty,oneof=manual immediate scheduled"`
}

// QueueExportResponse is returned after an entry is accepted into the queue.
// ScheduledFor is set only for the scheduled path.
type QueueExportResponse struct {
	QueueID      string     `json:"queueId"`
	Status       string     `json:"status"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	Message      string     `json:"message"`
}

// RetryExportResponse is returned after a failed export is requeued.
type RetryExportResponse struct {
	QueueID           string `json:"queueId"`
	Status            string `json:"status"`
	RemainingAttempts int    `json:"remainingAttempts"`
	Message           string `json:"message"`
}

// ExportQueueResponse is the API shape of a queue record.
type ExportQueueResponse struct {
	QueueID      string         `json:"queueId"`
	EntryID      string         `json:"entryId"`
	ExportPath   string         `json:"exportPath"`
	Status       string         `json:"status"`
	ScheduledFor *time.Time     `json:"scheduledFor,omitempty"`
	Attempts     int            `json:"attempts"`
	LastError    *string        `json:"lastError,omitempty"`
	CompletedAt  *time.Time     `json:"completedAt,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ExportLogResponse is the API shape of an audit log entry.
type ExportLogResponse struct {
	LogID       string         `json:"logId"`
	Action      string         `json:"action"`
	Message     string         `json:"message"`
	PerformedBy string         `json:"performedBy"`
	BatchDate   *string        `json:"batchDate,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// ExportStatusResponse combines a queue record with its audit history.
type ExportStatusResponse struct {
	Queue ExportQueueResponse `json:"queue"`
	Logs  []ExportLogResponse `json:"logs"`
}

// ExportMetricsResponse summarizes queue health for monitoring. SuccessRate
// is completed over all terminal records, zero when none have finished.
type ExportMetricsResponse struct {
	Queued      int64     `json:"queued"`
	Processing  int64     `json:"processing"`
	Completed   int64     `json:"completed"`
	Failed      int64     `json:"failed"`
	Retryable   int64     `json:"retryable"`
	SuccessRate float64   `json:"successRate"`
	Timestamp   time.Time `json:"timestamp"`
}

// TriggerBatchResponse reports the outcome of a manually triggered daily batch.
type TriggerBatchResponse struct {
	Processed        int     `json:"processed"`
	AlreadyGenerated bool    `json:"alreadyGenerated"`
	FileID           *string `json:"fileId,omitempty"`
	WebViewLink      *string `json:"webViewLink,omitempty"`
	Message          string  `json:"message"`
}

// ToExportQueueResponse converts a domain queue record to its API shape.
func ToExportQueueResponse(r *domain.ExportQueueRecord) ExportQueueResponse {
	return ExportQueueResponse{
		QueueID:      r.QueueID,
		EntryID:      r.EntryID,
		ExportPath:   string(r.ExportPath),
		Status:       string(r.Status),
		ScheduledFor: r.ScheduledFor,
		Attempts:     r.Attempts,
		LastError:    r.LastError,
		CompletedAt:  r.CompletedAt,
		Metadata:     r.Metadata,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// ToExportLogResponse converts a domain audit log entry to its API shape.
func ToExportLogResponse(l *domain.ExportLogEntry) ExportLogResponse {
	return ExportLogResponse{
		LogID:       l.LogID,
		Action:      string(l.Action),
		Message:     l.Message,
		PerformedBy: l.PerformedBy,
		BatchDate:   l.BatchDate,
		Metadata:    l.Metadata,
		CreatedAt:   l.CreatedAt,
	}
}

// ToExportLogResponses converts a slice of domain audit log entries.
func ToExportLogResponses(logs []domain.ExportLogEntry) []ExportLogResponse {
	responses := make([]ExportLogResponse, len(logs))
	for i, l := range logs {
		responses[i] = ToExportLogResponse(&l)
	}
	return responses
}
