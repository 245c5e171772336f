package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kritsadas/ledger_export_app/internal/apperrors"
	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	"github.com/kritsadas/ledger_export_app/internal/dto"
)

type ConfigHandlerTestSuite struct {
	suite.Suite
	mockExportSvc   *MockExportService
	mockBatchSvc    *MockBatchService
	mockIngestSvc   *MockIngestService
	mockScheduleSvc *MockScheduleService
	router          http.Handler
}

func (s *ConfigHandlerTestSuite) SetupTest() {
	s.mockExportSvc = new(MockExportService)
	s.mockBatchSvc = new(MockBatchService)
	s.mockIngestSvc = new(MockIngestService)
	s.mockScheduleSvc = new(MockScheduleService)
	s.router = setupRouter(s.mockExportSvc, s.mockBatchSvc, s.mockIngestSvc, s.mockScheduleSvc)
}

func (s *ConfigHandlerTestSuite) TestGetConfig_DailyExportTime() {
	s.mockScheduleSvc.On("GetDailyExportTime", mock.Anything).Return("18:00", nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/config/"+domain.DailyExportTimeKey, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ConfigValueResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(domain.DailyExportTimeKey, resp.Key)
	s.Equal("18:00", resp.Value)
}

func (s *ConfigHandlerTestSuite) TestGetConfig_UnsupportedKey() {
	req := httptest.NewRequest(http.MethodGet, "/api/config/SOME_OTHER_KEY", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusNotFound, w.Code)
	s.mockScheduleSvc.AssertNotCalled(s.T(), "GetDailyExportTime", mock.Anything)
}

func (s *ConfigHandlerTestSuite) putConfig(key string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPut, "/api/config/"+key, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ConfigHandlerTestSuite) TestUpdateConfig_OK() {
	s.mockScheduleSvc.On("SetDailyExportTime", mock.Anything, "21:30", "api").Return(nil).Once()

	w := s.putConfig(domain.DailyExportTimeKey, dto.UpdateConfigRequest{Value: "21:30"})

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ConfigValueResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("21:30", resp.Value)
	s.mockScheduleSvc.AssertExpectations(s.T())
}

func (s *ConfigHandlerTestSuite) TestUpdateConfig_InvalidTime() {
	s.mockScheduleSvc.On("SetDailyExportTime", mock.Anything, "25:99", "api").
		Return(apperrors.ErrValidation).Once()

	w := s.putConfig(domain.DailyExportTimeKey, dto.UpdateConfigRequest{Value: "25:99"})

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ConfigHandlerTestSuite) TestUpdateConfig_MissingValue() {
	w := s.putConfig(domain.DailyExportTimeKey, map[string]string{})

	s.Equal(http.StatusBadRequest, w.Code)
	s.mockScheduleSvc.AssertNotCalled(s.T(), "SetDailyExportTime", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ConfigHandlerTestSuite) TestUpdateConfig_UnsupportedKey() {
	w := s.putConfig("SOME_OTHER_KEY", dto.UpdateConfigRequest{Value: "21:30"})

	s.Equal(http.StatusNotFound, w.Code)
}

func TestConfigHandler(t *testing.T) {
	suite.Run(t, new(ConfigHandlerTestSuite))
}
