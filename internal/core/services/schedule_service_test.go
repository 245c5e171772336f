package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
	"github.com/kritsadas/ledger_export_app/internal/core/services"
)

type ScheduleServiceTestSuite struct {
	suite.Suite
	mockConfigRepo *MockConfigRepository
	service        portssvc.ScheduleSvc
	ctx            context.Context
}

func (s *ScheduleServiceTestSuite) SetupTest() {
	s.mockConfigRepo = new(MockConfigRepository)
	s.service = services.NewScheduleService(s.mockConfigRepo)
	s.ctx = context.Background()
}

func (s *ScheduleServiceTestSuite) TestGetDailyExportTime_Stored() {
	s.mockConfigRepo.On("GetConfigValue", s.ctx, domain.DailyExportTimeKey).Return("07:45", nil).Once()

	value, err := s.service.GetDailyExportTime(s.ctx)

	s.Require().NoError(err)
	s.Equal("07:45", value)
}

func (s *ScheduleServiceTestSuite) TestGetDailyExportTime_FallsBackToDefault() {
	s.mockConfigRepo.On("GetConfigValue", s.ctx, domain.DailyExportTimeKey).Return("", apperrors.ErrNotFound).Once()

	value, err := s.service.GetDailyExportTime(s.ctx)

	s.Require().NoError(err)
	s.Equal(domain.DefaultDailyExportTime, value)
}

func (s *ScheduleServiceTestSuite) TestGetDailyExportTime_RepoError() {
	s.mockConfigRepo.On("GetConfigValue", s.ctx, domain.DailyExportTimeKey).
		Return("", errors.New("connection refused")).Once()

	_, err := s.service.GetDailyExportTime(s.ctx)

	s.Require().Error(err)
}

func (s *ScheduleServiceTestSuite) TestSetDailyExportTime_StoresAndNotifies() {
	var notified []string
	s.service.Subscribe(func(v string) { notified = append(notified, v) })
	s.mockConfigRepo.On("UpsertConfigValue", s.ctx, domain.DailyExportTimeKey, "21:15", "admin", mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	err := s.service.SetDailyExportTime(s.ctx, "21:15", "admin")

	s.Require().NoError(err)
	s.Equal([]string{"21:15"}, notified)
	s.mockConfigRepo.AssertExpectations(s.T())
}

func (s *ScheduleServiceTestSuite) TestSetDailyExportTime_RejectsInvalidFormat() {
	for _, bad := range []string{"25:00", "9am", "18:60", ""} {
		err := s.service.SetDailyExportTime(s.ctx, bad, "admin")
		s.Require().Error(err, "value %q should be rejected", bad)
		s.True(errors.Is(err, apperrors.ErrValidation))
	}
	s.mockConfigRepo.AssertNotCalled(s.T(), "UpsertConfigValue", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ScheduleServiceTestSuite) TestSetDailyExportTime_StoreFailureSkipsNotify() {
	var notified []string
	s.service.Subscribe(func(v string) { notified = append(notified, v) })
	s.mockConfigRepo.On("UpsertConfigValue", s.ctx, domain.DailyExportTimeKey, "21:15", "admin", mock.Anything).
		Return(errors.New("write failed")).Once()

	err := s.service.SetDailyExportTime(s.ctx, "21:15", "admin")

	s.Require().Error(err)
	s.Empty(notified)
}

func TestScheduleService(t *testing.T) {
	suite.Run(t, new(ScheduleServiceTestSuite))
}
