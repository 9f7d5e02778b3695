package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	currencyapp "github.com/erp/receivables/internal/application/currency"
	savedviewapp "github.com/erp/receivables/internal/application/savedview"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSavedViewHandler_CRUD(t *testing.T) {
	svc := new(MockSavedViewService)
	r := newTestRouter(NewSavedViewHandler(svc))
	id := uuid.New()
	view := &savedviewapp.ViewResponse{ID: id, PageKey: "receivables", Name: "Overdue USD"}

	svc.On("List", mock.Anything, savedviewapp.ListViewsRequest{PageKey: "receivables"}).
		Return([]savedviewapp.ViewResponse{*view}, nil).Once()
	w := doRequest(t, r, http.MethodGet, "/api/v1/saved-views?page_key=receivables", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)

	w = doRequest(t, r, http.MethodGet, "/api/v1/saved-views", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.On("Save", mock.Anything, mock.MatchedBy(func(req savedviewapp.SaveViewRequest) bool {
		return req.Name == "Overdue USD" && req.IsDefault && json.Valid(req.Snapshot)
	})).Return(view, nil).Once()
	w = doRequest(t, r, http.MethodPost, "/api/v1/saved-views", map[string]any{
		"page_key":   "receivables",
		"name":       "Overdue USD",
		"snapshot":   map[string]any{"filters": map[string]any{"status": "Overdue"}},
		"is_default": true,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	svc.On("Get", mock.Anything, id).Return(view, nil).Once()
	w = doRequest(t, r, http.MethodGet, "/api/v1/saved-views/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.On("SetDefault", mock.Anything, id).Return(view, nil).Once()
	w = doRequest(t, r, http.MethodPost, "/api/v1/saved-views/"+id.String()+"/default", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.On("Delete", mock.Anything, id).Return(nil).Once()
	w = doRequest(t, r, http.MethodDelete, "/api/v1/saved-views/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	other := uuid.New()
	svc.On("Delete", mock.Anything, other).Return(shared.NewNotFoundError("VIEW_NOT_FOUND", "Saved view not found")).Once()
	w = doRequest(t, r, http.MethodDelete, "/api/v1/saved-views/"+other.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	svc.AssertExpectations(t)
}

func TestExchangeRateHandler_List(t *testing.T) {
	svc := new(MockRateService)
	r := newTestRouter(NewExchangeRateHandler(svc))

	svc.On("Describe", mock.Anything).Return(&currencyapp.RateTableResponse{
		Base: "CNY", Fallback: "USD", Reference: "CNY",
		Rates: []currencyapp.RateResponse{{Code: "CNY", IsBase: true}},
	}, nil).Once()
	w := doRequest(t, r, http.MethodGet, "/api/v1/exchange-rates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"base":"CNY"`)

	svc.On("Describe", mock.Anything).Return(nil, shared.NewConfigError("BASE_RATE_MISSING", "Base currency has no rate")).Once()
	w = doRequest(t, r, http.MethodGet, "/api/v1/exchange-rates", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "config", decode(t, w).Error.Kind)
}
