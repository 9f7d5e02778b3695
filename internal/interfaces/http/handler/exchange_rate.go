package handler

import (
	"context"

	currencyapp "github.com/erp/receivables/internal/application/currency"
	"github.com/gin-gonic/gin"
)

// RateService describes the active rate table
type RateService interface {
	Describe(ctx context.Context) (*currencyapp.RateTableResponse, error)
}

// ExchangeRateHandler exposes the rate table
type ExchangeRateHandler struct {
	BaseHandler
	service RateService
}

// NewExchangeRateHandler creates an ExchangeRateHandler
func NewExchangeRateHandler(service RateService) *ExchangeRateHandler {
	return &ExchangeRateHandler{service: service}
}

// RegisterRoutes mounts the exchange rate route
func (h *ExchangeRateHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/exchange-rates", h.List)
}

// List godoc
// @ID           listExchangeRates
// @Summary      Current exchange rates
// @Description  Fixed and floating rates per currency against the base, plus currencies that recently missed a rate
// @Tags         currency
// @Produce      json
// @Success      200 {object} APIResponse[currencyapp.RateTableResponse]
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /exchange-rates [get]
func (h *ExchangeRateHandler) List(c *gin.Context) {
	resp, err := h.service.Describe(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
