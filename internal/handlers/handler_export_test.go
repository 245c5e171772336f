package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	"github.com/kritsadas/ledger_export_app/internal/dto"
)

type ExportHandlerTestSuite struct {
	suite.Suite
	mockExportSvc   *MockExportService
	mockBatchSvc    *MockBatchService
	mockIngestSvc   *MockIngestService
	mockScheduleSvc *MockScheduleService
	router          http.Handler
}

func (s *ExportHandlerTestSuite) SetupTest() {
	s.mockExportSvc = new(MockExportService)
	s.mockBatchSvc = new(MockBatchService)
	s.mockIngestSvc = new(MockIngestService)
	s.mockScheduleSvc = new(MockScheduleService)
	s.router = setupRouter(s.mockExportSvc, s.mockBatchSvc, s.mockIngestSvc, s.mockScheduleSvc)
}

func (s *ExportHandlerTestSuite) postJSON(path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ExportHandlerTestSuite) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ExportHandlerTestSuite) TestQueueExport_Created() {
	rec := &domain.ExportQueueRecord{QueueID: "queue-1", EntryID: "entry-1", Status: domain.StatusQueued}
	s.mockExportSvc.On("QueueForExport", mock.Anything, "entry-1", domain.PathImmediate, "api").
		Return(rec, nil).Once()
	// Immediate queueing dispatches background processing after the response.
	s.mockExportSvc.On("ProcessImmediate", mock.Anything, "queue-1").Return(nil).Maybe()

	w := s.postJSON("/api/export/queue", dto.QueueExportRequest{EntryID: "entry-1"})

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.QueueExportResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("queue-1", resp.QueueID)
	s.Equal("queued", resp.Status)
	s.mockExportSvc.AssertCalled(s.T(), "QueueForExport", mock.Anything, "entry-1", domain.PathImmediate, "api")
}

func (s *ExportHandlerTestSuite) TestQueueExport_ScheduledNotDispatched() {
	scheduledFor := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	rec := &domain.ExportQueueRecord{QueueID: "queue-1", EntryID: "entry-1", Status: domain.StatusQueued, ScheduledFor: &scheduledFor}
	s.mockExportSvc.On("QueueForExport", mock.Anything, "entry-1", domain.PathScheduled, "api").
		Return(rec, nil).Once()

	w := s.postJSON("/api/export/queue", dto.QueueExportRequest{EntryID: "entry-1", ExportPath: "scheduled"})

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.QueueExportResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().NotNil(resp.ScheduledFor)
	s.True(resp.ScheduledFor.Equal(scheduledFor))
	s.mockExportSvc.AssertNotCalled(s.T(), "ProcessImmediate", mock.Anything, mock.Anything)
}

func (s *ExportHandlerTestSuite) TestQueueExport_MissingEntryID() {
	w := s.postJSON("/api/export/queue", map[string]string{"exportPath": "immediate"})

	s.Equal(http.StatusBadRequest, w.Code)
	s.mockExportSvc.AssertNotCalled(s.T(), "QueueForExport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ExportHandlerTestSuite) TestQueueExport_AlreadyQueued() {
	existing := &domain.ExportQueueRecord{QueueID: "queue-existing", EntryID: "entry-1", Status: domain.StatusQueued}
	s.mockExportSvc.On("QueueForExport", mock.Anything, "entry-1", domain.PathImmediate, "api").
		Return(existing, apperrors.ErrDuplicate).Once()

	w := s.postJSON("/api/export/queue", dto.QueueExportRequest{EntryID: "entry-1"})

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "already queued")
	s.mockExportSvc.AssertNotCalled(s.T(), "ProcessImmediate", mock.Anything, mock.Anything)
}

func (s *ExportHandlerTestSuite) TestQueueExport_EntryNotFound() {
	s.mockExportSvc.On("QueueForExport", mock.Anything, "missing", domain.PathImmediate, "api").
		Return(nil, apperrors.ErrNotFound).Once()

	w := s.postJSON("/api/export/queue", dto.QueueExportRequest{EntryID: "missing"})

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ExportHandlerTestSuite) TestQueueExport_NotApproved() {
	s.mockExportSvc.On("QueueForExport", mock.Anything, "entry-1", domain.PathImmediate, "api").
		Return(nil, apperrors.ErrValidation).Once()

	w := s.postJSON("/api/export/queue", dto.QueueExportRequest{EntryID: "entry-1"})

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ExportHandlerTestSuite) TestRetryExport_Dispatched() {
	rec := &domain.ExportQueueRecord{QueueID: "queue-1", EntryID: "entry-1", Status: domain.StatusFailed, Attempts: 1}
	s.mockExportSvc.On("RetryExport", mock.Anything, "queue-1", "api").Return(rec, nil).Once()
	s.mockExportSvc.On("ProcessImmediate", mock.Anything, "queue-1").Return(nil).Maybe()

	w := s.postJSON("/api/export/retry/queue-1", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.RetryExportResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("queue-1", resp.QueueID)
	s.Equal("processing", resp.Status)
	s.Equal(2, resp.RemainingAttempts)
}

func (s *ExportHandlerTestSuite) TestRetryExport_MaxAttemptsReached() {
	s.mockExportSvc.On("RetryExport", mock.Anything, "queue-1", "api").
		Return(nil, apperrors.ErrMaxRetries).Once()

	w := s.postJSON("/api/export/retry/queue-1", nil)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "maximum attempts reached")
	s.mockExportSvc.AssertNotCalled(s.T(), "ProcessImmediate", mock.Anything, mock.Anything)
}

func (s *ExportHandlerTestSuite) TestRetryExport_NotFound() {
	s.mockExportSvc.On("RetryExport", mock.Anything, "missing", "api").
		Return(nil, apperrors.ErrNotFound).Once()

	w := s.postJSON("/api/export/retry/missing", nil)

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ExportHandlerTestSuite) TestGetExportStatus_OK() {
	status := &dto.ExportStatusResponse{
		Queue: dto.ExportQueueResponse{QueueID: "queue-1", EntryID: "entry-1", Status: "completed"},
		Logs:  []dto.ExportLogResponse{{LogID: "log-1", Action: "completed"}},
	}
	// The status route is keyed on the entry, not the queue record.
	s.mockExportSvc.On("GetExportStatus", mock.Anything, "entry-1").Return(status, nil).Once()

	w := s.get("/api/export/status/entry-1")

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ExportStatusResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("queue-1", resp.Queue.QueueID)
	s.Equal("entry-1", resp.Queue.EntryID)
	s.Len(resp.Logs, 1)
	s.mockExportSvc.AssertExpectations(s.T())
}

func (s *ExportHandlerTestSuite) TestGetExportStatus_NotFound() {
	s.mockExportSvc.On("GetExportStatus", mock.Anything, "missing").
		Return(nil, apperrors.ErrNotFound).Once()

	w := s.get("/api/export/status/missing")

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ExportHandlerTestSuite) TestGetExportMetrics() {
	metrics := &dto.ExportMetricsResponse{Queued: 2, Completed: 7, Failed: 1, Retryable: 1, SuccessRate: 0.875, Timestamp: time.Now()}
	s.mockExportSvc.On("GetExportMetrics", mock.Anything).Return(metrics, nil).Once()

	w := s.get("/api/export/metrics")

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ExportMetricsResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(int64(2), resp.Queued)
	s.Equal(int64(7), resp.Completed)
	s.InDelta(0.875, resp.SuccessRate, 1e-9)
}

func (s *ExportHandlerTestSuite) TestDownloadCSV_OK() {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	s.mockExportSvc.On("RenderApprovedCSV", mock.Anything, from, to).
		Return([]byte("entry_id,date\n"), "ledger_export_20250301_20250331.csv", nil).Once()

	w := s.get("/api/export/csv?from=2025-03-01&to=2025-03-31")

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "text/csv")
	s.Contains(w.Header().Get("Content-Disposition"), "ledger_export_20250301_20250331.csv")
}

func (s *ExportHandlerTestSuite) TestDownloadCSV_BadDates() {
	w := s.get("/api/export/csv?from=yesterday&to=2025-03-31")

	s.Equal(http.StatusBadRequest, w.Code)
	s.mockExportSvc.AssertNotCalled(s.T(), "RenderApprovedCSV", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ExportHandlerTestSuite) TestTriggerBatch_OK() {
	result := &domain.BatchResult{
		Processed: 4,
		Upload:    &domain.UploadResult{FileID: "file-1", WebViewLink: "https://drive.example/file-1"},
	}
	s.mockBatchSvc.On("RunDailyBatch", mock.Anything, false).Return(result, nil).Once()

	w := s.postJSON("/api/export/batch/trigger", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.TriggerBatchResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(4, resp.Processed)
	s.Require().NotNil(resp.FileID)
	s.Equal("file-1", *resp.FileID)
}

func (s *ExportHandlerTestSuite) TestTriggerBatch_Force() {
	s.mockBatchSvc.On("RunDailyBatch", mock.Anything, true).
		Return(&domain.BatchResult{}, nil).Once()

	w := s.postJSON("/api/export/batch/trigger?force=true", nil)

	s.Equal(http.StatusOK, w.Code)
	s.mockBatchSvc.AssertExpectations(s.T())
}

func (s *ExportHandlerTestSuite) TestTriggerBatch_AlreadyGenerated() {
	s.mockBatchSvc.On("RunDailyBatch", mock.Anything, false).
		Return(&domain.BatchResult{AlreadyGenerated: true}, nil).Once()

	w := s.postJSON("/api/export/batch/trigger", nil)

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "already generated")
}

func (s *ExportHandlerTestSuite) TestTriggerBatch_AlreadyRunning() {
	s.mockBatchSvc.On("RunDailyBatch", mock.Anything, false).
		Return(nil, apperrors.ErrAlreadyRunning).Once()

	w := s.postJSON("/api/export/batch/trigger", nil)

	s.Equal(http.StatusConflict, w.Code)
}

func TestExportHandler(t *testing.T) {
	suite.Run(t, new(ExportHandlerTestSuite))
}
