package models

import (
	"time"

	"github.com/erp/receivables/internal/domain/currency"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ExchangeRateModel is one row of the rate table. Rates are units of the
// currency per one unit of the base currency.
type ExchangeRateModel struct {
	Code         string          `gorm:"column:code;type:varchar(3);primaryKey"`
	FixedRate    decimal.Decimal `gorm:"column:fixed_rate;type:decimal(18,8);not null"`
	FloatingRate decimal.Decimal `gorm:"column:floating_rate;type:decimal(18,8);not null"`
	IsBase       bool            `gorm:"column:is_base;not null;default:false"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExchangeRateModel) TableName() string {
	return "exchange_rates"
}

// ToDomain converts the persistence model to a domain Rate
func (m *ExchangeRateModel) ToDomain() currency.Rate {
	return currency.Rate{
		Code:     valueobject.Currency(m.Code),
		Fixed:    m.FixedRate,
		Floating: m.FloatingRate,
		IsBase:   m.IsBase,
	}
}

// ExchangeRateModelFromDomain creates a new persistence model from a domain Rate
func ExchangeRateModelFromDomain(r currency.Rate) *ExchangeRateModel {
	return &ExchangeRateModel{
		Code:         r.Code.String(),
		FixedRate:    r.Fixed,
		FloatingRate: r.Floating,
		IsBase:       r.IsBase,
	}
}
