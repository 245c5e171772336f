package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portsrepo "github.com/kritsadas/ledger_export_app/internal/core/ports/repositories"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
)

// --- Mock EntryRepository ---
type MockEntryRepository struct {
	mock.Mock
}

// Ensure MockEntryRepository implements portsrepo.EntryRepositoryFacade
var _ portsrepo.EntryRepositoryFacade = (*MockEntryRepository)(nil)

func (m *MockEntryRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockEntryRepository) FindEntryByIDInTx(ctx context.Context, tx pgx.Tx, entryID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, tx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockEntryRepository) FindEntryByReviewRecordID(ctx context.Context, recordID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockEntryRepository) FindEntriesByIDsInTx(ctx context.Context, tx pgx.Tx, entryIDs []string) (map[string]domain.LedgerEntry, error) {
	args := m.Called(ctx, tx, entryIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.LedgerEntry), args.Error(1)
}

func (m *MockEntryRepository) ListApprovedEntriesByDateRange(ctx context.Context, from, to time.Time) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockEntryRepository) SaveEntry(ctx context.Context, entry domain.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEntryRepository) MarkEntryApproved(ctx context.Context, entryID, approvedBy string, at time.Time) error {
	args := m.Called(ctx, entryID, approvedBy, at)
	return args.Error(0)
}

// --- Mock ExportQueueRepository ---
type MockQueueRepository struct {
	mock.Mock
}

// Ensure MockQueueRepository implements portsrepo.ExportQueueRepositoryWithTx
var _ portsrepo.ExportQueueRepositoryWithTx = (*MockQueueRepository)(nil)

func (m *MockQueueRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(pgx.Tx)
	return tx, args.Error(1)
}

func (m *MockQueueRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockQueueRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockQueueRepository) FindQueueByID(ctx context.Context, queueID string) (*domain.ExportQueueRecord, error) {
	args := m.Called(ctx, queueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportQueueRecord), args.Error(1)
}

func (m *MockQueueRepository) FindQueueByEntryID(ctx context.Context, entryID string) (*domain.ExportQueueRecord, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportQueueRecord), args.Error(1)
}

func (m *MockQueueRepository) FindQueueByIDForUpdate(ctx context.Context, tx pgx.Tx, queueID string) (*domain.ExportQueueRecord, error) {
	args := m.Called(ctx, tx, queueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportQueueRecord), args.Error(1)
}

func (m *MockQueueRepository) SelectDueScheduledForUpdate(ctx context.Context, tx pgx.Tx, cutoff time.Time, force bool) ([]domain.ExportQueueRecord, error) {
	args := m.Called(ctx, tx, cutoff, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExportQueueRecord), args.Error(1)
}

func (m *MockQueueRepository) CountQueueByStatus(ctx context.Context) (map[domain.ExportStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.ExportStatus]int64), args.Error(1)
}

func (m *MockQueueRepository) CountRetryableQueues(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQueueRepository) CreateQueueRecord(ctx context.Context, rec domain.ExportQueueRecord, log domain.ExportLogEntry) error {
	args := m.Called(ctx, rec, log)
	return args.Error(0)
}

func (m *MockQueueRepository) UpdateQueueRecord(ctx context.Context, rec domain.ExportQueueRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockQueueRepository) UpdateQueueRecordInTx(ctx context.Context, tx pgx.Tx, rec domain.ExportQueueRecord) error {
	args := m.Called(ctx, tx, rec)
	return args.Error(0)
}

func (m *MockQueueRepository) CompleteQueuesInTx(ctx context.Context, tx pgx.Tx, queueIDs []string, completedAt time.Time, meta map[string]any) error {
	args := m.Called(ctx, tx, queueIDs, completedAt, meta)
	return args.Error(0)
}

// --- Mock ExportLogRepository ---
type MockLogRepository struct {
	mock.Mock
}

// Ensure MockLogRepository implements portsrepo.ExportLogRepositoryFacade
var _ portsrepo.ExportLogRepositoryFacade = (*MockLogRepository)(nil)

func (m *MockLogRepository) AppendLog(ctx context.Context, log domain.ExportLogEntry) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockLogRepository) AppendLogInTx(ctx context.Context, tx pgx.Tx, log domain.ExportLogEntry) error {
	args := m.Called(ctx, tx, log)
	return args.Error(0)
}

func (m *MockLogRepository) ListLogsByQueueID(ctx context.Context, queueID string) ([]domain.ExportLogEntry, error) {
	args := m.Called(ctx, queueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExportLogEntry), args.Error(1)
}

// --- Mock SystemConfigRepository ---
type MockConfigRepository struct {
	mock.Mock
}

// Ensure MockConfigRepository implements portsrepo.SystemConfigRepositoryFacade
var _ portsrepo.SystemConfigRepositoryFacade = (*MockConfigRepository)(nil)

func (m *MockConfigRepository) GetConfigValue(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockConfigRepository) UpsertConfigValue(ctx context.Context, key, value, updatedBy string, at time.Time) error {
	args := m.Called(ctx, key, value, updatedBy, at)
	return args.Error(0)
}

// --- Mock AccountingClient ---
type MockAccountingClient struct {
	mock.Mock
}

var _ portssvc.AccountingClient = (*MockAccountingClient)(nil)

func (m *MockAccountingClient) Post(ctx context.Context, entry domain.LedgerEntry, csvLine string) error {
	args := m.Called(ctx, entry, csvLine)
	return args.Error(0)
}

// --- Mock FileUploader ---
type MockFileUploader struct {
	mock.Mock
}

var _ portssvc.FileUploader = (*MockFileUploader)(nil)

func (m *MockFileUploader) Upload(ctx context.Context, filename string, content []byte) (*domain.UploadResult, error) {
	args := m.Called(ctx, filename, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadResult), args.Error(1)
}

// --- Mock Notifier ---
type MockNotifier struct {
	mock.Mock
}

var _ portssvc.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Info(ctx context.Context, title, message string) {
	m.Called(ctx, title, message)
}

func (m *MockNotifier) Critical(ctx context.Context, title, message string) {
	m.Called(ctx, title, message)
}

// --- Mock ReviewClient ---
type MockReviewClient struct {
	mock.Mock
}

var _ portssvc.ReviewClient = (*MockReviewClient)(nil)

func (m *MockReviewClient) ListPendingRecords(ctx context.Context) ([]domain.ReviewRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReviewRecord), args.Error(1)
}

func (m *MockReviewClient) UpdateRecordEntryID(ctx context.Context, recordID, entryID string) error {
	args := m.Called(ctx, recordID, entryID)
	return args.Error(0)
}

// --- Mock ScheduleSvc ---
type MockScheduleSvc struct {
	mock.Mock
}

var _ portssvc.ScheduleSvc = (*MockScheduleSvc)(nil)

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

// --- Mock ExportWriterSvc (for ingest tests) ---
type MockExportWriter struct {
	mock.Mock
}

var _ portssvc.ExportWriterSvc = (*MockExportWriter)(nil)

func (m *MockExportWriter) QueueForExport(ctx context.Context, entryID string, path domain.ExportPath, requestedBy string) (*domain.ExportQueueRecord, error) {
	args := m.Called(ctx, entryID, path, requestedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportQueueRecord), args.Error(1)
}

func (m *MockExportWriter) ProcessImmediate(ctx context.Context, queueID string) error {
	args := m.Called(ctx, queueID)
	return args.Error(0)
}

func (m *MockExportWriter) RetryExport(ctx context.Context, queueID string, requestedBy string) (*domain.ExportQueueRecord, error) {
	args := m.Called(ctx, queueID, requestedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportQueueRecord), args.Error(1)
}
