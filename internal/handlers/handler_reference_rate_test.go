package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/recon_engine/internal/apperrors"
	"github.com/SscSPs/recon_engine/internal/core/domain"
	portssvc "github.com/SscSPs/recon_engine/internal/core/ports/services"
	"github.com/SscSPs/recon_engine/internal/dto"
	"github.com/SscSPs/recon_engine/internal/handlers"
	"github.com/SscSPs/recon_engine/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ReferenceRateService ---
type MockReferenceRateService struct {
	mock.Mock
}

func (m *MockReferenceRateService) SaveReferenceRate(ctx context.Context, rate domain.ReferenceRate) (*domain.ReferenceRate, error) {
	args := m.Called(ctx, rate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReferenceRate), args.Error(1)
}

func (m *MockReferenceRateService) ListReferenceRates(ctx context.Context, date time.Time) ([]domain.ReferenceRate, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReferenceRate), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.ReferenceRateSvcFacade = (*MockReferenceRateService)(nil)

type ReferenceRateHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockService *MockReferenceRateService
}

func (suite *ReferenceRateHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.router.Use(middleware.StructuredLoggingMiddleware(slog.Default()))

	suite.mockService = new(MockReferenceRateService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterReferenceRateRoutes(v1, suite.mockService)
}

func (suite *ReferenceRateHandlerTestSuite) TestSaveReferenceRate_Success() {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	want := domain.ReferenceRate{FromCurrency: "EUR", ToCurrency: "USD", Rate: decimal.RequireFromString("1.085"), DateEffective: day}
	suite.mockService.On("SaveReferenceRate", mock.Anything, mock.MatchedBy(func(r domain.ReferenceRate) bool {
		return r.FromCurrency == "EUR" && r.ToCurrency == "USD" && r.Rate.Equal(want.Rate) && r.DateEffective.Equal(day)
	})).Return(&want, nil).Once()

	body := `{"fromCurrency": "eur", "toCurrency": "usd", "rate": "1.085", "dateEffective": "2024-01-15"}`
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/reference-rates", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.ReferenceRateResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("EUR", resp.FromCurrency)
	suite.Equal("2024-01-15", resp.DateEffective)
	suite.True(resp.Rate.Equal(want.Rate))
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *ReferenceRateHandlerTestSuite) TestSaveReferenceRate_BadRequest() {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"fromCurrency": `},
		{name: "short currency", body: `{"fromCurrency": "EU", "toCurrency": "USD", "rate": "1.1", "dateEffective": "2024-01-15"}`},
		{name: "missing date", body: `{"fromCurrency": "EUR", "toCurrency": "USD", "rate": "1.1"}`},
		{name: "bad date", body: `{"fromCurrency": "EUR", "toCurrency": "USD", "rate": "1.1", "dateEffective": "15/01/2024"}`},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			req, _ := http.NewRequest(http.MethodPost, "/api/v1/reference-rates", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			suite.router.ServeHTTP(w, req)
			suite.Equal(http.StatusBadRequest, w.Code)
		})
	}
	suite.mockService.AssertNotCalled(suite.T(), "SaveReferenceRate", mock.Anything, mock.Anything)
}

func (suite *ReferenceRateHandlerTestSuite) TestSaveReferenceRate_ServiceErrors() {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "validation", err: apperrors.NewValidationError("reference rate must be positive"), wantStatus: http.StatusBadRequest},
		{name: "storage", err: errors.New("connection refused"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.mockService.On("SaveReferenceRate", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			body := `{"fromCurrency": "EUR", "toCurrency": "USD", "rate": "1.1", "dateEffective": "2024-01-15"}`
			req, _ := http.NewRequest(http.MethodPost, "/api/v1/reference-rates", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			suite.router.ServeHTTP(w, req)

			suite.Equal(tt.wantStatus, w.Code)
			suite.NotContains(w.Body.String(), "connection refused")
		})
	}
}

func (suite *ReferenceRateHandlerTestSuite) TestListReferenceRates() {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	stored := []domain.ReferenceRate{{FromCurrency: "EUR", ToCurrency: "USD", Rate: decimal.RequireFromString("1.1"), DateEffective: day}}
	suite.mockService.On("ListReferenceRates", mock.Anything, day).Return(stored, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/reference-rates?date=2024-01-15", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListReferenceRatesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("2024-01-15", resp.Date)
	suite.Require().Len(resp.Rates, 1)
	suite.Equal("USD", resp.Rates[0].ToCurrency)
}

func (suite *ReferenceRateHandlerTestSuite) TestListReferenceRates_InvalidDate() {
	for _, url := range []string{"/api/v1/reference-rates", "/api/v1/reference-rates?date=yesterday"} {
		req, _ := http.NewRequest(http.MethodGet, url, nil)
		w := httptest.NewRecorder()
		suite.router.ServeHTTP(w, req)
		suite.Equal(http.StatusBadRequest, w.Code, url)
	}
	suite.mockService.AssertNotCalled(suite.T(), "ListReferenceRates", mock.Anything, mock.Anything)
}

func TestReferenceRateHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ReferenceRateHandlerTestSuite))
}
