package currency

import (
	"context"

	"github.com/erp/receivables/internal/domain/currency"
	"github.com/shopspring/decimal"
)

// RateResponse represents one exchange rate in API responses
type RateResponse struct {
	Code     string          `json:"code"`
	Fixed    decimal.Decimal `json:"fixed_rate"`
	Floating decimal.Decimal `json:"floating_rate"`
	IsBase   bool            `json:"is_base"`
}

// RateTableResponse represents the current rate table
type RateTableResponse struct {
	Base      string         `json:"base"`
	Fallback  string         `json:"fallback"`
	Reference string         `json:"reference"`
	Rates     []RateResponse `json:"rates"`
	Misses    []string       `json:"misses"`
}

// Describe returns the current table for the exchange rate endpoint
func (p *RateProvider) Describe(ctx context.Context) (*RateTableResponse, error) {
	table, err := p.Table(ctx)
	if err != nil {
		return nil, err
	}
	return ToRateTableResponse(table, p.Misses()), nil
}

// ToRateTableResponse converts a rate table to its response form
func ToRateTableResponse(t *currency.RateTable, misses []string) *RateTableResponse {
	rates := t.Rates()
	resp := &RateTableResponse{
		Base:      t.Base().String(),
		Fallback:  t.Fallback().String(),
		Reference: t.Reference().String(),
		Rates:     make([]RateResponse, len(rates)),
		Misses:    misses,
	}
	if resp.Misses == nil {
		resp.Misses = []string{}
	}
	for i, r := range rates {
		resp.Rates[i] = RateResponse{
			Code:     r.Code.String(),
			Fixed:    r.Fixed,
			Floating: r.Floating,
			IsBase:   r.IsBase,
		}
	}
	return resp
}
