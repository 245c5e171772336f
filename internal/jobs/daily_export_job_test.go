package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kritsadas/ledger_export_app/internal/core/domain"
)

type MockBatchSvc struct {
	mock.Mock
}

func (m *MockBatchSvc) RunDailyBatch(ctx context.Context, force bool) (*domain.BatchResult, error) {
	args := m.Called(ctx, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

type MockScheduleSvc struct {
	mock.Mock
}

func (m *MockScheduleSvc) GetDailyExportTime(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockScheduleSvc) SetDailyExportTime(ctx context.Context, value, updatedBy string) error {
	args := m.Called(ctx, value, updatedBy)
	return args.Error(0)
}

func (m *MockScheduleSvc) Subscribe(fn func(newValue string)) {
	m.Called(fn)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Info(ctx context.Context, title, message string) {
	m.Called(ctx, title, message)
}

func (m *MockNotifier) Critical(ctx context.Context, title, message string) {
	m.Called(ctx, title, message)
}

type DailyExportJobTestSuite struct {
	suite.Suite
	mockBatch    *MockBatchSvc
	mockSchedule *MockScheduleSvc
	mockNotifier *MockNotifier
	job          *DailyExportJob
	delays       []time.Duration
}

func (s *DailyExportJobTestSuite) SetupTest() {
	s.mockBatch = new(MockBatchSvc)
	s.mockSchedule = new(MockScheduleSvc)
	s.mockNotifier = new(MockNotifier)
	s.delays = nil

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.job = NewDailyExportJob(s.mockBatch, s.mockSchedule, s.mockNotifier, logger, time.UTC, 3)

	// Capture armed delays instead of arming real timers.
	s.job.afterFunc = func(d time.Duration, fn func()) *time.Timer {
		s.delays = append(s.delays, d)
		t := time.NewTimer(time.Hour)
		t.Stop()
		return t
	}
}

func (s *DailyExportJobTestSuite) startJob() {
	s.mockSchedule.On("Subscribe", mock.Anything).Once()
	s.mockSchedule.On("GetDailyExportTime", mock.Anything).Return(domain.DefaultDailyExportTime, nil)
	s.Require().NoError(s.job.Start(context.Background()))
}

func (s *DailyExportJobTestSuite) TearDownTest() {
	s.job.Stop()
}

func (s *DailyExportJobTestSuite) TestBackoffDelay() {
	s.Equal(5*time.Minute, BackoffDelay(0))
	s.Equal(15*time.Minute, BackoffDelay(1))
	s.Equal(45*time.Minute, BackoffDelay(2))
}

func (s *DailyExportJobTestSuite) TestStartArmsDailyTimer() {
	s.startJob()

	s.Require().Len(s.delays, 1)
	s.Greater(s.delays[0], time.Duration(0))
	s.LessOrEqual(s.delays[0], 24*time.Hour)
}

func (s *DailyExportJobTestSuite) TestStartTwiceFails() {
	s.startJob()

	err := s.job.Start(context.Background())

	s.Require().Error(err)
}

func (s *DailyExportJobTestSuite) TestFire_SuccessRearmsForTomorrow() {
	s.startJob()
	s.mockBatch.On("RunDailyBatch", mock.Anything, false).
		Return(&domain.BatchResult{Processed: 5}, nil).Once()

	s.job.fire()

	// Start armed once, the successful run armed again.
	s.Require().Len(s.delays, 2)
	s.mockBatch.AssertExpectations(s.T())
	s.mockNotifier.AssertNotCalled(s.T(), "Critical", mock.Anything, mock.Anything, mock.Anything)
}

func (s *DailyExportJobTestSuite) TestFire_AlreadyGeneratedRearms() {
	s.startJob()
	s.mockBatch.On("RunDailyBatch", mock.Anything, false).
		Return(&domain.BatchResult{AlreadyGenerated: true}, nil).Once()

	s.job.fire()

	s.Require().Len(s.delays, 2)
	s.mockNotifier.AssertNotCalled(s.T(), "Critical", mock.Anything, mock.Anything, mock.Anything)
}

func (s *DailyExportJobTestSuite) TestFire_FailuresBackOffThenAlert() {
	s.startJob()
	s.mockBatch.On("RunDailyBatch", mock.Anything, false).
		Return(nil, errors.New("upload failed")).Times(4)
	s.mockNotifier.On("Critical", mock.Anything, "Daily export failed", mock.AnythingOfType("string")).Once()

	s.job.fire() // retry 1 in 5m
	s.job.fire() // retry 2 in 15m
	s.job.fire() // retry 3 in 45m
	s.job.fire() // budget exhausted, alert and rearm for tomorrow

	s.Require().Len(s.delays, 5)
	s.Equal(5*time.Minute, s.delays[1])
	s.Equal(15*time.Minute, s.delays[2])
	s.Equal(45*time.Minute, s.delays[3])
	s.LessOrEqual(s.delays[4], 24*time.Hour) // daily rearm, not another backoff
	s.mockNotifier.AssertExpectations(s.T())

	// The budget reset: the next failure backs off from the start again.
	s.mockBatch.On("RunDailyBatch", mock.Anything, false).
		Return(nil, errors.New("upload failed")).Once()
	s.job.fire()
	s.Equal(5*time.Minute, s.delays[5])
}

func (s *DailyExportJobTestSuite) TestFire_SuccessResetsRetryCount() {
	s.startJob()
	s.mockBatch.On("RunDailyBatch", mock.Anything, false).
		Return(nil, errors.New("transient")).Once()
	s.mockBatch.On("RunDailyBatch", mock.Anything, false).
		Return(&domain.BatchResult{Processed: 1}, nil).Once()
	s.mockBatch.On("RunDailyBatch", mock.Anything, false).
		Return(nil, errors.New("transient")).Once()

	s.job.fire() // failure: 5m backoff
	s.job.fire() // success: resets the count
	s.job.fire() // next failure backs off from the start

	s.Equal(5*time.Minute, s.delays[1])
	s.Equal(5*time.Minute, s.delays[3])
}

func (s *DailyExportJobTestSuite) TestFire_AfterStopDoesNothing() {
	s.startJob()
	s.job.Stop()

	s.job.fire()

	s.mockBatch.AssertNotCalled(s.T(), "RunDailyBatch", mock.Anything, mock.Anything)
}

func (s *DailyExportJobTestSuite) TestInvalidStoredTimeFallsBackToDefault() {
	s.mockSchedule.On("Subscribe", mock.Anything).Once()
	s.mockSchedule.On("GetDailyExportTime", mock.Anything).Return("half past nine", nil)

	s.Require().NoError(s.job.Start(context.Background()))

	s.Require().Len(s.delays, 1)
	s.Greater(s.delays[0], time.Duration(0))
}

func TestDailyExportJob(t *testing.T) {
	suite.Run(t, new(DailyExportJobTestSuite))
}
