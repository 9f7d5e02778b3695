package persistence

import (
	"context"
	"time"

	"github.com/erp/receivables/internal/domain/currency"
	"github.com/erp/receivables/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormExchangeRateRepository implements currency.RateRepository using GORM
type GormExchangeRateRepository struct {
	db *gorm.DB
}

// NewGormExchangeRateRepository creates a new GormExchangeRateRepository
func NewGormExchangeRateRepository(db *gorm.DB) *GormExchangeRateRepository {
	return &GormExchangeRateRepository{db: db}
}

// FindAll returns every configured rate ordered by code
func (r *GormExchangeRateRepository) FindAll(ctx context.Context) ([]currency.Rate, error) {
	var rateModels []models.ExchangeRateModel
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&rateModels).Error; err != nil {
		return nil, err
	}

	rates := make([]currency.Rate, len(rateModels))
	for i := range rateModels {
		rates[i] = rateModels[i].ToDomain()
	}
	return rates, nil
}

// SeedIfEmpty writes rates when the table has no rows
func (r *GormExchangeRateRepository) SeedIfEmpty(ctx context.Context, rates []currency.Rate) (bool, error) {
	if len(rates) == 0 {
		return false, nil
	}
	seeded := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ExchangeRateModel{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now()
		rows := make([]*models.ExchangeRateModel, len(rates))
		for i, rate := range rates {
			rows[i] = models.ExchangeRateModelFromDomain(rate)
			rows[i].UpdatedAt = now
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		seeded = true
		return nil
	})
	return seeded, err
}
