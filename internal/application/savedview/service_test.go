package savedview

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/erp/receivables/internal/domain/savedview"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockRepository is a testify mock of savedview.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*savedview.SavedView, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*savedview.SavedView), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, userID uuid.UUID, pageKey string) ([]savedview.SavedView, error) {
	args := m.Called(ctx, userID, pageKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]savedview.SavedView), args.Error(1)
}

func (m *MockRepository) Upsert(ctx context.Context, view *savedview.SavedView) (*savedview.SavedView, error) {
	args := m.Called(ctx, view)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*savedview.SavedView), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockRepository) SetDefault(ctx context.Context, userID, id uuid.UUID) (*savedview.SavedView, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*savedview.SavedView), args.Error(1)
}

func setup(t *testing.T) (*Service, *MockRepository, uuid.UUID, context.Context) {
	repo := new(MockRepository)
	user := uuid.New()
	ctx := shared.WithIdentity(context.Background(), shared.Identity{UserID: user, Role: "sales", SelfOnly: true})
	return NewService(repo, zaptest.NewLogger(t)), repo, user, ctx
}

func TestService_Save(t *testing.T) {
	t.Run("upserts a view for the caller", func(t *testing.T) {
		svc, repo, user, ctx := setup(t)
		stored := &savedview.SavedView{
			BaseEntity: shared.NewBaseEntity(),
			UserID:     user,
			PageKey:    "receivables",
			Name:       "Overdue",
			Snapshot:   savedview.Snapshot(`{"status":"Overdue"}`),
		}
		repo.On("Upsert", ctx, mock.MatchedBy(func(v *savedview.SavedView) bool {
			return v.UserID == user && v.PageKey == "receivables" && v.Name == "Overdue"
		})).Return(stored, nil)

		resp, err := svc.Save(ctx, SaveViewRequest{PageKey: "receivables", Name: " Overdue ", Snapshot: json.RawMessage(`{"status":"Overdue"}`)})
		require.NoError(t, err)
		assert.Equal(t, "Overdue", resp.Name)
		assert.JSONEq(t, `{"status":"Overdue"}`, string(resp.Snapshot))
		assert.False(t, resp.IsDefault)
		repo.AssertNotCalled(t, "SetDefault", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("marks as default when asked", func(t *testing.T) {
		svc, repo, user, ctx := setup(t)
		stored := &savedview.SavedView{BaseEntity: shared.NewBaseEntity(), UserID: user, PageKey: "p", Name: "n"}
		repo.On("Upsert", ctx, mock.Anything).Return(stored, nil)
		def := *stored
		def.IsDefault = true
		repo.On("SetDefault", ctx, user, stored.ID).Return(&def, nil)

		resp, err := svc.Save(ctx, SaveViewRequest{PageKey: "p", Name: "n", IsDefault: true})
		require.NoError(t, err)
		assert.True(t, resp.IsDefault)
		repo.AssertExpectations(t)
	})

	t.Run("invalid snapshot never reaches the store", func(t *testing.T) {
		svc, repo, _, ctx := setup(t)
		_, err := svc.Save(ctx, SaveViewRequest{PageKey: "p", Name: "n", Snapshot: json.RawMessage(`{oops`)})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("store failure is transient", func(t *testing.T) {
		svc, repo, _, ctx := setup(t)
		repo.On("Upsert", ctx, mock.Anything).Return(nil, errors.New("deadlock"))
		_, err := svc.Save(ctx, SaveViewRequest{PageKey: "p", Name: "n"})
		assert.True(t, shared.IsKind(err, shared.KindTransient))
	})
}

func TestService_ScopedToCaller(t *testing.T) {
	svc, repo, user, ctx := setup(t)
	id := uuid.New()
	repo.On("FindByID", ctx, user, id).Return(nil, savedview.ErrViewNotFound)
	repo.On("Delete", ctx, user, id).Return(savedview.ErrViewNotFound)
	repo.On("SetDefault", ctx, user, id).Return(nil, savedview.ErrViewNotFound)

	_, err := svc.Get(ctx, id)
	assert.ErrorIs(t, err, savedview.ErrViewNotFound)
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
	assert.True(t, shared.IsKind(svc.Delete(ctx, id), shared.KindNotFound))
	_, err = svc.SetDefault(ctx, id)
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
	repo.AssertExpectations(t)
}

func TestService_List(t *testing.T) {
	svc, repo, user, ctx := setup(t)
	views := []savedview.SavedView{
		{BaseEntity: shared.NewBaseEntity(), UserID: user, PageKey: "p", Name: "a", IsDefault: true},
		{BaseEntity: shared.NewBaseEntity(), UserID: user, PageKey: "p", Name: "b"},
	}
	repo.On("List", ctx, user, "p").Return(views, nil)

	resp, err := svc.List(ctx, ListViewsRequest{PageKey: "p"})
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.True(t, resp[0].IsDefault)
	assert.Equal(t, "b", resp[1].Name)
}

func TestService_RequiresIdentity(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, nil)

	_, err := svc.List(context.Background(), ListViewsRequest{PageKey: "p"})
	assert.True(t, shared.IsKind(err, shared.KindPermission))
	_, err = svc.Save(context.Background(), SaveViewRequest{PageKey: "p", Name: "n"})
	assert.True(t, shared.IsKind(err, shared.KindPermission))
	repo.AssertExpectations(t)
}
