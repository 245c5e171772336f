package services

import (
	"errors"
	"fmt"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	"github.com/kritsadas/ledger_export_app/internal/core/domain"
)

var (
	ErrEntryNotApproved   = errors.New("entry is not approved for export")
	ErrAmountNotPositive  = errors.New("entry amount must be positive")
	ErrAmountOverLimit    = errors.New("entry amount exceeds export limit")
	ErrAccountCodeMissing = errors.New("entry account code is required")
	ErrInvalidDirection   = errors.New("entry direction must be debit or credit")
)

// validateExportable checks that an entry may enter the export pipeline.
// maxAmount is in minor units; zero disables the limit.
func validateExportable(entry *domain.LedgerEntry, maxAmount int64) error {
	if !entry.IsApproved() {
		return fmt.Errorf("%w: %w: entry %s has status %s", apperrors.ErrValidation, ErrEntryNotApproved, entry.EntryID, entry.Status)
	}
	if entry.Amount <= 0 {
		return fmt.Errorf("%w: %w: entry %s", apperrors.ErrValidation, ErrAmountNotPositive, entry.EntryID)
	}
	if maxAmount > 0 && entry.Amount > maxAmount {
		return fmt.Errorf("%w: %w: entry %s amount %d exceeds %d", apperrors.ErrValidation, ErrAmountOverLimit, entry.EntryID, entry.Amount, maxAmount)
	}
	if entry.AccountCode == "" {
		return fmt.Errorf("%w: %w: entry %s", apperrors.ErrValidation, ErrAccountCodeMissing, entry.EntryID)
	}
	if entry.Direction != domain.Debit && entry.Direction != domain.Credit {
		return fmt.Errorf("%w: %w: entry %s has direction %q", apperrors.ErrValidation, ErrInvalidDirection, entry.EntryID, entry.Direction)
	}
	return nil
}
