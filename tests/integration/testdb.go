// Package integration runs the receivables stack against a real PostgreSQL
// started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/erp/receivables/internal/infrastructure/migration"
	"github.com/erp/receivables/migrations"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// Shared container for all tests in the package
	sharedContainer    testcontainers.Container
	sharedContainerMu  sync.Mutex
	sharedContainerDSN string
)

// TestDB is a migrated database connection
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	DSN   string
	t     *testing.T
}

// NewSharedTestDB returns a connection to the package's shared container,
// starting and migrating it on first use. Tables are truncated so each test
// starts empty.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	ctx := context.Background()
	if sharedContainer == nil {
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("receivables_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("admin123"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		require.NoError(t, err, "Failed to start PostgreSQL container")

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err, "Failed to get connection string")

		_, sqlDB := connectToDatabase(t, dsn)
		runMigrations(t, sqlDB)
		_ = sqlDB.Close()

		sharedContainer = container
		sharedContainerDSN = dsn
	}

	db, sqlDB := connectToDatabase(t, sharedContainerDSN)
	tdb := &TestDB{DB: db, SqlDB: sqlDB, DSN: sharedContainerDSN, t: t}
	tdb.CleanTables()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return tdb
}

// CleanTables truncates every receivables table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()
	err := tdb.DB.Exec(`TRUNCATE TABLE receipts, status_override_logs, installments, contracts,
		saved_views, exchange_rates CASCADE`).Error
	require.NoError(tdb.t, err, "Failed to truncate tables")
}

// CreateContract inserts an active contract and returns its id
func (tdb *TestDB) CreateContract(number, customer string, salesOwner uuid.UUID, currency string) uuid.UUID {
	tdb.t.Helper()
	id := uuid.New()
	err := tdb.DB.Exec(`
		INSERT INTO contracts (id, contract_number, customer_id, customer_name, sales_owner_id, sales_owner_name, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, number, uuid.New(), customer, salesOwner, "Owner "+number, currency).Error
	require.NoError(tdb.t, err, "Failed to create contract")
	return id
}

// CreateInstallment inserts an installment and returns its id. An empty due
// date leaves the column null.
func (tdb *TestDB) CreateInstallment(contractID uuid.UUID, seq int, due, paid string, dueDate string) uuid.UUID {
	tdb.t.Helper()
	id := uuid.New()
	var date any
	if dueDate != "" {
		date = dueDate
	}
	err := tdb.DB.Exec(`
		INSERT INTO installments (id, contract_id, sequence, amount_due, amount_paid, due_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, contractID, seq, decimal.RequireFromString(due), decimal.RequireFromString(paid), date).Error
	require.NoError(tdb.t, err, "Failed to create installment")
	return id
}

// connectToDatabase establishes a GORM connection to the database
func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

// runMigrations applies the embedded schema migrations
func runMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()
	m, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
}

// CleanupSharedContainer terminates the shared container; call it from TestMain
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
		sharedContainerDSN = ""
	}
}
