package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portsrepo "github.com/kritsadas/ledger_export_app/internal/core/ports/repositories"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
)

// scheduleService stores the dynamic daily export time and notifies
// subscribers when it changes, so the batch job can rearm its timer without
// a restart.
type scheduleService struct {
	configRepo portsrepo.SystemConfigRepositoryFacade
	now        func() time.Time

	mu   sync.RWMutex
	subs []func(string)
}

// NewScheduleService creates a new schedule service.
func NewScheduleService(configRepo portsrepo.SystemConfigRepositoryFacade) portssvc.ScheduleSvc {
	return &scheduleService{
		configRepo: configRepo,
		now:        time.Now,
	}
}

// Ensure scheduleService implements the portssvc.ScheduleSvc interface
var _ portssvc.ScheduleSvc = (*scheduleService)(nil)

// GetDailyExportTime returns the stored HH:MM export time, falling back to
// the default when none is stored.
func (s *scheduleService) GetDailyExportTime(ctx context.Context) (string, error) {
	value, err := s.configRepo.GetConfigValue(ctx, domain.DailyExportTimeKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.DefaultDailyExportTime, nil
		}
		return "", fmt.Errorf("failed to read %s: %w", domain.DailyExportTimeKey, err)
	}
	return value, nil
}

// SetDailyExportTime validates and stores a new HH:MM export time, then
// notifies subscribers with the new value.
func (s *scheduleService) SetDailyExportTime(ctx context.Context, value, updatedBy string) error {
	if _, _, err := domain.ParseDailyTime(value); err != nil {
		return fmt.Errorf("%w: %q is not a valid HH:MM time", apperrors.ErrValidation, value)
	}
	if err := s.configRepo.UpsertConfigValue(ctx, domain.DailyExportTimeKey, value, updatedBy, s.now()); err != nil {
		return fmt.Errorf("failed to store %s: %w", domain.DailyExportTimeKey, err)
	}

	s.mu.RLock()
	subs := make([]func(string), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(value)
	}
	return nil
}

// Subscribe registers a callback invoked after every successful change.
func (s *scheduleService) Subscribe(fn func(newValue string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
