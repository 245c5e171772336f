// Package mapping converts between database models and domain types.
package mapping

import (
	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	"github.com/kritsadas/ledger_export_app/internal/models"
)

// ToDomainEntry converts a LedgerEntry model to its domain representation.
func ToDomainEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:        m.EntryID,
		ClientID:       m.ClientID,
		EntryDate:      m.EntryDate,
		AccountCode:    m.AccountCode,
		Description:    m.Description,
		Amount:         m.Amount,
		Direction:      domain.EntryDirection(m.Direction),
		Category:       m.Category,
		VATAmount:      m.VATAmount,
		Status:         domain.EntryStatus(m.Status),
		ApprovedBy:     m.ApprovedBy,
		Source:         m.Source,
		ReviewRecordID: m.ReviewRecordID,
		Metadata:       m.Metadata,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// ToModelEntry converts a domain LedgerEntry to its model representation.
func ToModelEntry(e domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:        e.EntryID,
		ClientID:       e.ClientID,
		EntryDate:      e.EntryDate,
		AccountCode:    e.AccountCode,
		Description:    e.Description,
		Amount:         e.Amount,
		Direction:      string(e.Direction),
		Category:       e.Category,
		VATAmount:      e.VATAmount,
		Status:         string(e.Status),
		ApprovedBy:     e.ApprovedBy,
		Source:         e.Source,
		ReviewRecordID: e.ReviewRecordID,
		Metadata:       e.Metadata,
		AuditFields: models.AuditFields{
			CreatedAt:     e.CreatedAt,
			CreatedBy:     e.CreatedBy,
			LastUpdatedAt: e.LastUpdatedAt,
			LastUpdatedBy: e.LastUpdatedBy,
		},
	}
}

// ToDomainQueue converts an ExportQueue model to its domain representation.
func ToDomainQueue(m models.ExportQueue) domain.ExportQueueRecord {
	return domain.ExportQueueRecord{
		QueueID:      m.QueueID,
		EntryID:      m.EntryID,
		ExportPath:   domain.ExportPath(m.ExportPath),
		Status:       domain.ExportStatus(m.Status),
		ScheduledFor: m.ScheduledFor,
		Attempts:     m.Attempts,
		LastError:    m.LastError,
		CompletedAt:  m.CompletedAt,
		Metadata:     m.Metadata,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ToModelQueue converts a domain ExportQueueRecord to its model representation.
func ToModelQueue(r domain.ExportQueueRecord) models.ExportQueue {
	return models.ExportQueue{
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

// ToDomainLog converts an ExportLog model to its domain representation.
func ToDomainLog(m models.ExportLog) domain.ExportLogEntry {
	return domain.ExportLogEntry{
		LogID:       m.LogID,
		QueueID:     m.QueueID,
		Action:      domain.ExportAction(m.Action),
		Message:     m.Message,
		PerformedBy: m.PerformedBy,
		BatchDate:   m.BatchDate,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
	}
}

// ToModelLog converts a domain ExportLogEntry to its model representation.
func ToModelLog(l domain.ExportLogEntry) models.ExportLog {
	return models.ExportLog{
		LogID:       l.LogID,
		QueueID:     l.QueueID,
		Action:      string(l.Action),
		Message:     l.Message,
		PerformedBy: l.PerformedBy,
		BatchDate:   l.BatchDate,
		Metadata:    l.Metadata,
		CreatedAt:   l.CreatedAt,
	}
}
