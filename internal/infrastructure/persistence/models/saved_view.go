package models

import (
	"github.com/erp/receivables/internal/domain/savedview"
	"github.com/google/uuid"
)

// SavedViewModel is the persistence model for a saved dashboard filter
type SavedViewModel struct {
	BaseModel
	UserID    uuid.UUID          `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_saved_view_owner_name,priority:1"`
	PageKey   string             `gorm:"column:page_key;type:varchar(100);not null;uniqueIndex:idx_saved_view_owner_name,priority:2"`
	Name      string             `gorm:"column:name;type:varchar(100);not null;uniqueIndex:idx_saved_view_owner_name,priority:3"`
	Snapshot  savedview.Snapshot `gorm:"column:snapshot;type:jsonb;not null"`
	IsDefault bool               `gorm:"column:is_default;not null;default:false"`
}

// TableName returns the table name for GORM
func (SavedViewModel) TableName() string {
	return "saved_views"
}

// ToDomain converts the persistence model to a domain SavedView
func (m *SavedViewModel) ToDomain() *savedview.SavedView {
	return &savedview.SavedView{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		PageKey:    m.PageKey,
		Name:       m.Name,
		Snapshot:   m.Snapshot,
		IsDefault:  m.IsDefault,
	}
}

// SavedViewModelFromDomain creates a new persistence model from a domain SavedView
func SavedViewModelFromDomain(v *savedview.SavedView) *SavedViewModel {
	m := &SavedViewModel{
		UserID:    v.UserID,
		PageKey:   v.PageKey,
		Name:      v.Name,
		Snapshot:  v.Snapshot,
		IsDefault: v.IsDefault,
	}
	m.FromDomainBaseEntity(v.BaseEntity)
	return m
}
