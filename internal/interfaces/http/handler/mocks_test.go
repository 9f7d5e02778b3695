package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	currencyapp "github.com/erp/receivables/internal/application/currency"
	dashboardapp "github.com/erp/receivables/internal/application/dashboard"
	"github.com/erp/receivables/internal/application/reconciliation"
	savedviewapp "github.com/erp/receivables/internal/application/savedview"
	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/interfaces/http/dto"
	"github.com/erp/receivables/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

type registrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

func newTestRouter(handlers ...registrar) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Query(ctx context.Context, req dashboardapp.QueryRequest) (*dashboardapp.QueryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboardapp.QueryResponse), args.Error(1)
}

func (m *MockDashboardService) ContractInstallments(ctx context.Context, id uuid.UUID, req dashboardapp.ContractInstallmentsRequest) (*dashboardapp.ContractInstallmentsResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboardapp.ContractInstallmentsResponse), args.Error(1)
}

func (m *MockDashboardService) Export(ctx context.Context, req dashboardapp.QueryRequest) (*dashboardapp.ExportResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboardapp.ExportResult), args.Error(1)
}

func (m *MockDashboardService) PreviewStatuses(req dashboardapp.StatusPreviewRequest) *dashboardapp.StatusPreviewResponse {
	args := m.Called(req)
	return args.Get(0).(*dashboardapp.StatusPreviewResponse)
}

type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) ApplyReceipt(ctx context.Context, req reconciliation.ApplyReceiptRequest) (*reconciliation.ReceiptResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.ReceiptResponse), args.Error(1)
}

func (m *MockReconciliationService) UpdateStatusOverride(ctx context.Context, req reconciliation.StatusOverrideRequest) (*reconciliation.StatusOverrideResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.StatusOverrideResponse), args.Error(1)
}

func (m *MockReconciliationService) OverrideHistory(ctx context.Context, id uuid.UUID) ([]collection.StatusOverrideLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]collection.StatusOverrideLog), args.Error(1)
}

func (m *MockReconciliationService) ListAttachments(ctx context.Context, id uuid.UUID) (*reconciliation.AttachmentListResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.AttachmentListResponse), args.Error(1)
}

func (m *MockReconciliationService) PreviewAttachment(ctx context.Context, key string) (*reconciliation.PreviewResponse, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.PreviewResponse), args.Error(1)
}

type MockRateService struct {
	mock.Mock
}

func (m *MockRateService) Describe(ctx context.Context) (*currencyapp.RateTableResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*currencyapp.RateTableResponse), args.Error(1)
}

type MockSavedViewService struct {
	mock.Mock
}

func (m *MockSavedViewService) List(ctx context.Context, req savedviewapp.ListViewsRequest) ([]savedviewapp.ViewResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]savedviewapp.ViewResponse), args.Error(1)
}

func (m *MockSavedViewService) Get(ctx context.Context, id uuid.UUID) (*savedviewapp.ViewResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*savedviewapp.ViewResponse), args.Error(1)
}

func (m *MockSavedViewService) Save(ctx context.Context, req savedviewapp.SaveViewRequest) (*savedviewapp.ViewResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*savedviewapp.ViewResponse), args.Error(1)
}

func (m *MockSavedViewService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSavedViewService) SetDefault(ctx context.Context, id uuid.UUID) (*savedviewapp.ViewResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*savedviewapp.ViewResponse), args.Error(1)
}
