package models

import "time"

// ExportQueue is the database row shape for an export queue record.
// entry_id carries a unique constraint; it is the idempotency gate for
// duplicate ingestion and webhook delivery.
type ExportQueue struct {
	QueueID      string         `json:"queueID"`
	EntryID      string         `json:"entryID"`
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

// ExportLog is the database row shape for an export audit log entry.
// Rows are insert-only; the repository exposes no update path.
type ExportLog struct {
	LogID       string         `json:"logID"`
	QueueID     *string        `json:"queueID,omitempty"`
	Action      string         `json:"action"`
	Message     string         `json:"message"`
	PerformedBy string         `json:"performedBy"`
	BatchDate   *string        `json:"batchDate,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// SystemConfig is a dynamic configuration row.
type SystemConfig struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedBy string    `json:"updatedBy"`
	UpdatedAt time.Time `json:"updatedAt"`
}
