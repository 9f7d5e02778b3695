package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/receivables/internal/domain/savedview"
	"github.com/erp/receivables/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSavedViewRepository implements savedview.Repository using GORM
type GormSavedViewRepository struct {
	db *gorm.DB
}

// NewGormSavedViewRepository creates a new GormSavedViewRepository
func NewGormSavedViewRepository(db *gorm.DB) *GormSavedViewRepository {
	return &GormSavedViewRepository{db: db}
}

// FindByID finds a view owned by userID
func (r *GormSavedViewRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*savedview.SavedView, error) {
	var model models.SavedViewModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, savedview.ErrViewNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns the user's views for a page, default first then by name
func (r *GormSavedViewRepository) List(ctx context.Context, userID uuid.UUID, pageKey string) ([]savedview.SavedView, error) {
	var viewModels []models.SavedViewModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND page_key = ?", userID, pageKey).
		Order("is_default DESC").
		Order("name ASC").
		Find(&viewModels).Error; err != nil {
		return nil, err
	}

	views := make([]savedview.SavedView, len(viewModels))
	for i := range viewModels {
		views[i] = *viewModels[i].ToDomain()
	}
	return views, nil
}

// Upsert inserts the view or replaces the snapshot of the existing view with
// the same (user, page key, name). The stored row is returned.
func (r *GormSavedViewRepository) Upsert(ctx context.Context, view *savedview.SavedView) (*savedview.SavedView, error) {
	model := models.SavedViewModelFromDomain(view)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "page_key"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"snapshot", "updated_at"}),
		}).
		Create(model).Error; err != nil {
		return nil, err
	}

	var stored models.SavedViewModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND page_key = ? AND name = ?", view.UserID, view.PageKey, view.Name).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return stored.ToDomain(), nil
}

// Delete removes a view owned by userID
func (r *GormSavedViewRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&models.SavedViewModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return savedview.ErrViewNotFound
	}
	return nil
}

// SetDefault marks the view as the only default of its (user, page key)
func (r *GormSavedViewRepository) SetDefault(ctx context.Context, userID, id uuid.UUID) (*savedview.SavedView, error) {
	var view *savedview.SavedView
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.SavedViewModel
		if err := tx.Where("user_id = ? AND id = ?", userID, id).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return savedview.ErrViewNotFound
			}
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.SavedViewModel{}).
			Where("user_id = ? AND page_key = ? AND id <> ? AND is_default = ?", userID, model.PageKey, id, true).
			Updates(map[string]any{"is_default": false, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.SavedViewModel{}).
			Where("id = ?", id).
			Updates(map[string]any{"is_default": true, "updated_at": now}).Error; err != nil {
			return err
		}

		model.IsDefault = true
		model.UpdatedAt = now
		view = model.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
