package persistence

import (
	"context"
	"time"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStatusOverrideRepository implements collection.StatusOverrideRepository using GORM
type GormStatusOverrideRepository struct {
	db *gorm.DB
}

// NewGormStatusOverrideRepository creates a new GormStatusOverrideRepository
func NewGormStatusOverrideRepository(db *gorm.DB) *GormStatusOverrideRepository {
	return &GormStatusOverrideRepository{db: db}
}

// SetInstallmentOverride replaces the installment override and appends the
// audit entry in one transaction. entry.PreviousOverride is filled from the
// stored value.
func (r *GormStatusOverrideRepository) SetInstallmentOverride(ctx context.Context, entry *collection.StatusOverrideLog, scope *uuid.UUID) (*collection.Installment, error) {
	var updated *collection.Installment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inst, _, err := findInstallment(tx, entry.EntityID, scope)
		if err != nil {
			return err
		}
		entry.PreviousOverride = inst.StatusOverride

		if err := tx.Model(&models.InstallmentModel{}).
			Where("id = ?", inst.ID).
			Updates(map[string]any{
				"status_override": entry.NewOverride,
				"version":         gorm.Expr("version + 1"),
				"updated_at":      time.Now(),
			}).Error; err != nil {
			return err
		}
		if err := tx.Create(models.StatusOverrideLogModelFromDomain(entry)).Error; err != nil {
			return err
		}

		var model models.InstallmentModel
		if err := tx.First(&model, "id = ?", inst.ID).Error; err != nil {
			return err
		}
		updated = model.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListLogs returns the audit trail of an entity, newest first
func (r *GormStatusOverrideRepository) ListLogs(ctx context.Context, entityID uuid.UUID) ([]collection.StatusOverrideLog, error) {
	var logModels []models.StatusOverrideLogModel
	if err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("created_at DESC").
		Find(&logModels).Error; err != nil {
		return nil, err
	}

	logs := make([]collection.StatusOverrideLog, len(logModels))
	for i := range logModels {
		logs[i] = *logModels[i].ToDomain()
	}
	return logs, nil
}
