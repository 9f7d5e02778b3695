package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormContractRepository_FindContracts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c1 := seedContract(t, db, contractSeed{number: "HT-001", customer: "Acme Trading", group: "vip", tag: "spring", salesOwner: alice, createdAt: base})
	c2 := seedContract(t, db, contractSeed{number: "HT-002", customer: "Globex", group: "vip", salesOwner: bob, accountOwner: &alice, createdAt: base.Add(time.Hour)})
	c3 := seedContract(t, db, contractSeed{number: "HT-003", customer: "Initech", group: "retail", salesOwner: carol, createdAt: base.Add(2 * time.Hour)})

	t.Run("returns all contracts newest first", func(t *testing.T) {
		got, err := repo.FindContracts(ctx, collection.ContractFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, c3.ID, got[0].ID)
		assert.Equal(t, c1.ID, got[2].ID)
	})

	t.Run("keyword matches number or customer case-insensitively", func(t *testing.T) {
		got, err := repo.FindContracts(ctx, collection.ContractFilter{Keyword: "ACME"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, c1.ID, got[0].ID)

		got, err = repo.FindContracts(ctx, collection.ContractFilter{Keyword: "ht-00"})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("keyword wildcards are literal", func(t *testing.T) {
		got, err := repo.FindContracts(ctx, collection.ContractFilter{Keyword: "%"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("customer group and activity tag", func(t *testing.T) {
		got, err := repo.FindContracts(ctx, collection.ContractFilter{CustomerGroup: "vip", ActivityTag: "spring"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, c1.ID, got[0].ID)
	})

	t.Run("sales users take precedence over owners", func(t *testing.T) {
		got, err := repo.FindContracts(ctx, collection.ContractFilter{
			SalesUserIDs: []uuid.UUID{carol},
			OwnerUserIDs: []uuid.UUID{alice},
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, c3.ID, got[0].ID)
	})

	t.Run("owner users filter on account owner", func(t *testing.T) {
		got, err := repo.FindContracts(ctx, collection.ContractFilter{OwnerUserIDs: []uuid.UUID{alice}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, c2.ID, got[0].ID)
	})

	t.Run("scope keeps contracts owned as sales or account owner", func(t *testing.T) {
		got, err := repo.FindContracts(ctx, collection.ContractFilter{Scope: &alice})
		require.NoError(t, err)
		ids := []uuid.UUID{got[0].ID, got[1].ID}
		assert.Len(t, got, 2)
		assert.ElementsMatch(t, []uuid.UUID{c1.ID, c2.ID}, ids)
	})
}

func TestGormContractRepository_FindContractByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	c := seedContract(t, db, contractSeed{number: "HT-100", customer: "Acme", salesOwner: owner, currency: "USD"})

	got, err := repo.FindContractByID(ctx, c.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "HT-100", got.ContractNumber)
	assert.Equal(t, "USD", got.Currency.String())

	got, err = repo.FindContractByID(ctx, c.ID, &owner)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	stranger := uuid.New()
	_, err = repo.FindContractByID(ctx, c.ID, &stranger)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindContractByID(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormContractRepository_FindInstallmentsByContracts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	c := seedContract(t, db, contractSeed{number: "HT-200", customer: "Acme"})
	seedInstallment(t, db, c.ID, 2, "500", "0", day(2024, 6, 1), "")
	seedInstallment(t, db, c.ID, 1, "500", "500", day(2024, 3, 1), "")
	seedInstallment(t, db, c.ID, 3, "500", "0", nil, "")

	t.Run("empty id list", func(t *testing.T) {
		got, err := repo.FindInstallmentsByContracts(ctx, nil, collection.InstallmentFilter{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ordered by sequence", func(t *testing.T) {
		got, err := repo.FindInstallmentsByContracts(ctx, []uuid.UUID{c.ID}, collection.InstallmentFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, 1, got[0].Sequence)
		assert.Equal(t, 2, got[1].Sequence)
		assert.Nil(t, got[2].DueDate)
	})

	t.Run("due range excludes undated installments", func(t *testing.T) {
		got, err := repo.FindInstallmentsByContracts(ctx, []uuid.UUID{c.ID}, collection.InstallmentFilter{
			DueStart: day(2024, 5, 1),
			DueEnd:   day(2024, 12, 31),
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 2, got[0].Sequence)
	})
}

func TestGormContractRepository_FindContracts_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormContractRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "contracts"`).WillReturnError(errors.New("connection reset"))

	_, err := repo.FindContracts(context.Background(), collection.ContractFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormContractRepository_FindContractByID_ScopedQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormContractRepository(db)

	id, owner := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "contracts" WHERE id = \$1 AND \(sales_owner_id = \$2 OR account_owner_id = \$3\)`).
		WithArgs(id, owner, owner, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindContractByID(context.Background(), id, &owner)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkIDs(t *testing.T) {
	ids := make([]uuid.UUID, 1201)
	for i := range ids {
		ids[i] = uuid.New()
	}
	chunks := chunkIDs(ids, inChunkSize)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 500)
	assert.Len(t, chunks[2], 201)
	assert.Nil(t, chunkIDs(nil, inChunkSize))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%acme%", likePattern("  ACME "))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
}
