package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReceiptRepository implements collection.ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// Apply inserts the receipt and increments amount_paid in one transaction.
// The increment is an SQL expression, so concurrent receipts on the same
// installment never lose an update.
func (r *GormReceiptRepository) Apply(ctx context.Context, installmentID uuid.UUID, scope *uuid.UUID, plan collection.ReceiptPlan) (*collection.ApplyOutcome, error) {
	var outcome *collection.ApplyOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inst, contract, err := findInstallment(tx, installmentID, scope)
		if err != nil {
			return err
		}

		receipt, err := plan.Build(inst, contract)
		if err != nil {
			return err
		}

		if err := tx.Create(models.ReceiptModelFromDomain(receipt)).Error; err != nil {
			if isUniqueViolation(err) {
				return collection.ErrDuplicateReceipt
			}
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.InstallmentModel{}).
			Where("id = ?", inst.ID).
			Updates(map[string]any{
				"amount_paid":         gorm.Expr("amount_paid + ?", receipt.AppliedAmount),
				"last_receipt_at":     receipt.ReceivedDate,
				"last_receipt_method": receipt.Method,
				"last_collector_id":   receipt.CollectorID,
				"version":             gorm.Expr("version + 1"),
				"updated_at":          now,
			}).Error; err != nil {
			return err
		}

		var updatedModel models.InstallmentModel
		if err := tx.First(&updatedModel, "id = ?", inst.ID).Error; err != nil {
			return err
		}
		updated := updatedModel.ToDomain()

		outcome = &collection.ApplyOutcome{Receipt: receipt, Installment: updated, Contract: contract}
		if plan.ShouldClearOverride == nil || !plan.ShouldClearOverride(updated) {
			return nil
		}

		previous := updated.StatusOverride
		if err := tx.Model(&models.InstallmentModel{}).
			Where("id = ?", inst.ID).
			Updates(map[string]any{"status_override": "", "updated_at": now}).Error; err != nil {
			return err
		}
		entry := collection.NewStatusOverrideLog(collection.EntityTypeInstallment, inst.ID, previous, "",
			"cleared by receipt "+receipt.ID.String(), receipt.CreatedBy)
		if err := tx.Create(models.StatusOverrideLogModelFromDomain(entry)).Error; err != nil {
			return err
		}
		updated.StatusOverride = ""
		outcome.OverrideCleared = true
		outcome.PreviousOverride = previous
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// FindByID finds a receipt whose contract is visible within scope
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (*collection.Receipt, error) {
	query := r.db.WithContext(ctx).Where("id = ?", id)
	if scope != nil {
		visible := withOwnerScope(r.db.Model(&models.ContractModel{}).Select("id"), scope)
		query = query.Where("contract_id IN (?)", visible)
	}

	var model models.ReceiptModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIdempotencyKey finds the receipt createdBy recorded under key
func (r *GormReceiptRepository) FindByIdempotencyKey(ctx context.Context, createdBy uuid.UUID, key string) (*collection.Receipt, error) {
	var model models.ReceiptModel
	if err := r.db.WithContext(ctx).
		First(&model, "created_by = ? AND idempotency_key = ?", createdBy, key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// AppendAttachments adds refs to the receipt's attachment list
func (r *GormReceiptRepository) AppendAttachments(ctx context.Context, receiptID uuid.UUID, refs collection.AttachmentRefs) error {
	if len(refs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.ReceiptModel
		if err := tx.Select("id", "attachments").First(&model, "id = ?", receiptID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		merged := append(collection.AttachmentRefs{}, model.Attachments...)
		merged = append(merged, refs...)
		return tx.Model(&models.ReceiptModel{}).
			Where("id = ?", receiptID).
			Updates(map[string]any{"attachments": merged, "updated_at": time.Now()}).Error
	})
}

// FindInstallment loads an installment and its contract, both visible within scope
func (r *GormReceiptRepository) FindInstallment(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (*collection.Installment, *collection.Contract, error) {
	return findInstallment(r.db.WithContext(ctx), id, scope)
}

// findInstallment resolves an installment and its contract on db, which may be a transaction.
// An installment whose contract is outside scope is reported as not found.
func findInstallment(db *gorm.DB, id uuid.UUID, scope *uuid.UUID) (*collection.Installment, *collection.Contract, error) {
	var instModel models.InstallmentModel
	if err := db.First(&instModel, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, shared.ErrNotFound
		}
		return nil, nil, err
	}

	var contractModel models.ContractModel
	if err := withOwnerScope(db.Where("id = ?", instModel.ContractID), scope).
		First(&contractModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, shared.ErrNotFound
		}
		return nil, nil, err
	}
	return instModel.ToDomain(), contractModel.ToDomain(), nil
}
