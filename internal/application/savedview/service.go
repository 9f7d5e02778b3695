package savedview

import (
	"context"

	"github.com/erp/receivables/internal/domain/savedview"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service stores and loads saved filter views. Views are private: another
// user's view id answers as not found.
type Service struct {
	repo   savedview.Repository
	logger *zap.Logger
}

// NewService creates a new saved view service
func NewService(repo savedview.Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, logger: log}
}

// List returns the caller's views for a page, default first
func (s *Service) List(ctx context.Context, req ListViewsRequest) ([]ViewResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	views, err := s.repo.List(ctx, userID, req.PageKey)
	if err != nil {
		return nil, shared.AsTransient("Failed to list saved views", err)
	}
	return ToViewResponses(views), nil
}

// Get loads one of the caller's views
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ViewResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	view, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, shared.AsTransient("Failed to load saved view", err)
	}
	resp := ToViewResponse(view)
	return &resp, nil
}

// Save inserts the view or replaces the snapshot of the caller's view with
// the same page key and name
func (s *Service) Save(ctx context.Context, req SaveViewRequest) (*ViewResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	view, err := savedview.NewSavedView(userID, req.PageKey, req.Name, savedview.Snapshot(req.Snapshot))
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.Upsert(ctx, view)
	if err != nil {
		return nil, shared.AsTransient("Failed to save view", err)
	}
	if req.IsDefault && !stored.IsDefault {
		if stored, err = s.repo.SetDefault(ctx, userID, stored.ID); err != nil {
			return nil, shared.AsTransient("Failed to mark view as default", err)
		}
	}

	logger.WithLogger(ctx, s.logger).Info("Saved view stored",
		zap.String("view_id", stored.ID.String()),
		zap.String("page_key", stored.PageKey),
	)
	resp := ToViewResponse(stored)
	return &resp, nil
}

// Delete removes one of the caller's views
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := callerID(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return shared.AsTransient("Failed to delete saved view", err)
	}
	return nil
}

// SetDefault makes the view the only default for its page
func (s *Service) SetDefault(ctx context.Context, id uuid.UUID) (*ViewResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	view, err := s.repo.SetDefault(ctx, userID, id)
	if err != nil {
		return nil, shared.AsTransient("Failed to mark view as default", err)
	}
	resp := ToViewResponse(view)
	return &resp, nil
}

func callerID(ctx context.Context) (uuid.UUID, error) {
	id, ok := shared.IdentityFromContext(ctx)
	if !ok || id.IsZero() {
		return uuid.Nil, shared.NewPermissionError("UNAUTHENTICATED", "Caller identity is required")
	}
	return id.UserID, nil
}
