package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormContractRepository implements collection.ContractReader using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindContracts returns every contract matching filter, newest first
func (r *GormContractRepository) FindContracts(ctx context.Context, filter collection.ContractFilter) ([]collection.Contract, error) {
	var contractModels []models.ContractModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ContractModel{}), filter)
	if err := query.Order("created_at DESC").Order("id ASC").Find(&contractModels).Error; err != nil {
		return nil, err
	}

	contracts := make([]collection.Contract, len(contractModels))
	for i := range contractModels {
		contracts[i] = *contractModels[i].ToDomain()
	}
	return contracts, nil
}

// FindContractByID finds a contract visible within scope
func (r *GormContractRepository) FindContractByID(ctx context.Context, id uuid.UUID, scope *uuid.UUID) (*collection.Contract, error) {
	var model models.ContractModel
	query := withOwnerScope(r.db.WithContext(ctx).Where("id = ?", id), scope)
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindInstallmentsByContracts loads installments of the given contracts in
// contract then sequence order. Large id lists are queried in chunks.
func (r *GormContractRepository) FindInstallmentsByContracts(ctx context.Context, contractIDs []uuid.UUID, filter collection.InstallmentFilter) ([]collection.Installment, error) {
	if len(contractIDs) == 0 {
		return []collection.Installment{}, nil
	}

	installments := make([]collection.Installment, 0, len(contractIDs))
	for _, chunk := range chunkIDs(contractIDs, inChunkSize) {
		var installmentModels []models.InstallmentModel
		query := r.db.WithContext(ctx).Model(&models.InstallmentModel{}).Where("contract_id IN ?", chunk)
		if filter.DueStart != nil {
			query = query.Where("due_date >= ?", *filter.DueStart)
		}
		if filter.DueEnd != nil {
			query = query.Where("due_date <= ?", *filter.DueEnd)
		}
		if err := query.Order("contract_id ASC").Order("sequence ASC").Find(&installmentModels).Error; err != nil {
			return nil, err
		}
		for i := range installmentModels {
			installments = append(installments, *installmentModels[i].ToDomain())
		}
	}
	return installments, nil
}

// applyFilter composes the contract predicates. Sales users win over owners when both are given.
func (r *GormContractRepository) applyFilter(query *gorm.DB, filter collection.ContractFilter) *gorm.DB {
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		pattern := likePattern(kw)
		group := query.Session(&gorm.Session{NewDB: true}).
			Where(`LOWER(contract_number) LIKE ? ESCAPE '\'`, pattern).
			Or(`LOWER(customer_name) LIKE ? ESCAPE '\'`, pattern)
		query = query.Where(group)
	}
	if g := strings.TrimSpace(filter.CustomerGroup); g != "" {
		query = query.Where("customer_group = ?", g)
	}
	if tag := strings.TrimSpace(filter.ActivityTag); tag != "" {
		query = query.Where("activity_tag = ?", tag)
	}
	switch {
	case len(filter.SalesUserIDs) > 0:
		query = query.Where("sales_owner_id IN ?", filter.SalesUserIDs)
	case len(filter.OwnerUserIDs) > 0:
		query = query.Where("account_owner_id IN ?", filter.OwnerUserIDs)
	}
	return withOwnerScope(query, filter.Scope)
}
