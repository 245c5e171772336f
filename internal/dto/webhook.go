package dto

// ReviewWebhookFields carries the record fields the review tool sends on
// status changes. Only the fields the export flow cares about are bound.
type ReviewWebhookFields struct {
	Status     string `json:"status"`
	ExportPath string `json:"exportPath"`
	EntryID    string `json:"entryId"`
}

// ReviewWebhookData is the record payload of a review webhook event.
type ReviewWebhookData struct {
	RecordID string              `json:"recordId" binding:"required"`
	TableID  string              `json:"tableId"`
	Fields   ReviewWebhookFields `json:"fields"`
}

// ReviewWebhookRequest is the envelope the review tool delivers on record
// creation and update events.
type ReviewWebhookRequest struct {
	Event string            `json:"event" binding:"required,oneof=record.created record.updated"`
	Data  ReviewWebhookData `json:"data" binding:"required"`
}

// WebhookAckResponse acknowledges a webhook delivery. Ignored and duplicate
// deliveries still return 200 so the sender does not retry.
type WebhookAckResponse struct {
	Status  string `json:"status"`
	QueueID string `json:"queueId,omitempty"`
	Message string `json:"message"`
}
