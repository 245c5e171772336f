package handlers_test

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
	"github.com/kritsadas/ledger_export_app/internal/dto"
	"github.com/kritsadas/ledger_export_app/internal/handlers"
	"github.com/kritsadas/ledger_export_app/internal/platform/config"
)

// --- Mock ExportSvcFacade ---
type MockExportService struct {
	mock.Mock
}

var _ portssvc.ExportSvcFacade = (*MockExportService)(nil)

func (m *MockExportService) QueueForExport(ctx context.Context, entryID string, path domain.ExportPath, requestedBy string) (*domain.ExportQueueRecord, error) {
	args := m.Called(ctx, entryID, path, requestedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportQueueRecord), args.Error(1)
}

func (m *MockExportService) ProcessImmediate(ctx context.Context, queueID string) error {
	args := m.Called(ctx, queueID)
	return args.Error(0)
}

func (m *MockExportService) RetryExport(ctx context.Context, queueID string, requestedBy string) (*domain.ExportQueueRecord, error) {
	args := m.Called(ctx, queueID, requestedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportQueueRecord), args.Error(1)
}

func (m *MockExportService) GetExportStatus(ctx context.Context, entryID string) (*dto.ExportStatusResponse, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ExportStatusResponse), args.Error(1)
}

func (m *MockExportService) GetExportMetrics(ctx context.Context) (*dto.ExportMetricsResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ExportMetricsResponse), args.Error(1)
}

func (m *MockExportService) RenderApprovedCSV(ctx context.Context, from, to time.Time) ([]byte, string, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

// --- Mock BatchExportSvc ---
type MockBatchService struct {
	mock.Mock
}

var _ portssvc.BatchExportSvc = (*MockBatchService)(nil)

func (m *MockBatchService) RunDailyBatch(ctx context.Context, force bool) (*domain.BatchResult, error) {
	args := m.Called(ctx, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

// --- Mock IngestSvcFacade ---
type MockIngestService struct {
	mock.Mock
}

var _ portssvc.IngestSvcFacade = (*MockIngestService)(nil)

func (m *MockIngestService) HandleReviewEvent(ctx context.Context, recordID, status, exportPath, entryID string) (*portssvc.WebhookResult, error) {
	args := m.Called(ctx, recordID, status, exportPath, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.WebhookResult), args.Error(1)
}

func (m *MockIngestService) PollReviewRecords(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockIngestService) IngestRecord(ctx context.Context, record domain.ReviewRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// --- Mock ScheduleSvc ---
type MockScheduleService struct {
	mock.Mock
}

var _ portssvc.ScheduleSvc = (*MockScheduleService)(nil)

func (m *MockScheduleService) GetDailyExportTime(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockScheduleService) SetDailyExportTime(ctx context.Context, value, updatedBy string) error {
	args := m.Called(ctx, value, updatedBy)
	return args.Error(0)
}

func (m *MockScheduleService) Subscribe(fn func(newValue string)) {
	m.Called(fn)
}

// setupRouter wires a test router with all routes registered against mocks.
// The webhook secret is left empty so signature verification passes through.
func setupRouter(exportSvc *MockExportService, batchSvc *MockBatchService, ingestSvc *MockIngestService, scheduleSvc *MockScheduleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := &config.Config{}
	container := &portssvc.ServiceContainer{
		Export:   exportSvc,
		Batch:    batchSvc,
		Ingest:   ingestSvc,
		Schedule: scheduleSvc,
	}
	handlers.RegisterRoutes(r, cfg, container)
	return r
}
