package persistence

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with the receivables schema.
// The pool is pinned to one connection so every query sees the same database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&models.ContractModel{},
		&models.InstallmentModel{},
		&models.ReceiptModel{},
		&models.StatusOverrideLogModel{},
		&models.SavedViewModel{},
		&models.ExchangeRateModel{},
	)
	require.NoError(t, err)
	return db
}

// setupMockDB opens gorm on sqlmock with the postgres dialector
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

type contractSeed struct {
	number       string
	customer     string
	group        string
	tag          string
	salesOwner   uuid.UUID
	accountOwner *uuid.UUID
	currency     string
	state        collection.ContractState
	createdAt    time.Time
}

func seedContract(t *testing.T, db *gorm.DB, s contractSeed) *models.ContractModel {
	t.Helper()
	if s.currency == "" {
		s.currency = "CNY"
	}
	if s.state == "" {
		s.state = collection.ContractStateActive
	}
	if s.salesOwner == uuid.Nil {
		s.salesOwner = uuid.New()
	}
	if s.createdAt.IsZero() {
		s.createdAt = time.Now().UTC()
	}
	m := &models.ContractModel{
		AggregateModel: models.AggregateModel{
			BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: s.createdAt, UpdatedAt: s.createdAt},
			Version:   1,
		},
		ContractNumber: s.number,
		CustomerID:     uuid.New(),
		CustomerName:   s.customer,
		CustomerGroup:  s.group,
		ActivityTag:    s.tag,
		SalesOwnerID:   s.salesOwner,
		SalesOwnerName: "owner",
		AccountOwnerID: s.accountOwner,
		Currency:       s.currency,
		State:          s.state,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

func seedInstallment(t *testing.T, db *gorm.DB, contractID uuid.UUID, seq int, due, paid string, dueDate *time.Time, override string) *models.InstallmentModel {
	t.Helper()
	m := &models.InstallmentModel{
		AggregateModel: models.AggregateModel{BaseModel: models.BaseModel{ID: uuid.New()}, Version: 1},
		ContractID:     contractID,
		Sequence:       seq,
		AmountDue:      decimal.RequireFromString(due),
		AmountPaid:     decimal.RequireFromString(paid),
		DueDate:        dueDate,
		StatusOverride: override,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
