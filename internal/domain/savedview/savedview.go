package savedview

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/google/uuid"
)

// Snapshot is an opaque serialized filter state. It is stored as JSONB and
// never interpreted by this service.
type Snapshot json.RawMessage

// Value implements driver.Valuer
func (s Snapshot) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	return string(s), nil
}

// Scan implements sql.Scanner
func (s *Snapshot) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = Snapshot("{}")
	case []byte:
		*s = append(Snapshot(nil), v...)
	case string:
		*s = Snapshot(v)
	default:
		return errors.New("failed to scan Snapshot: unsupported type")
	}
	return nil
}

// MarshalJSON emits the raw snapshot
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("{}"), nil
	}
	return json.RawMessage(s).MarshalJSON()
}

// UnmarshalJSON keeps the raw bytes
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	*s = append((*s)[0:0], data...)
	return nil
}

// SavedView is a named filter snapshot owned by one user on one page
type SavedView struct {
	shared.BaseEntity
	UserID    uuid.UUID `json:"user_id"`
	PageKey   string    `json:"page_key"`
	Name      string    `json:"name"`
	Snapshot  Snapshot  `json:"snapshot"`
	IsDefault bool      `json:"is_default"`
}

const maxNameLength = 100

// NewSavedView validates and creates a view
func NewSavedView(userID uuid.UUID, pageKey, name string, snapshot Snapshot) (*SavedView, error) {
	pageKey = strings.TrimSpace(pageKey)
	name = strings.TrimSpace(name)
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_USER", "A user is required to save a view")
	}
	if pageKey == "" {
		return nil, shared.NewValidationError("INVALID_PAGE_KEY", "Page key is required")
	}
	if name == "" || len(name) > maxNameLength {
		return nil, shared.NewValidationError("INVALID_VIEW_NAME", "View name must be 1-100 characters")
	}
	if len(snapshot) > 0 && !json.Valid(snapshot) {
		return nil, shared.NewValidationError("INVALID_SNAPSHOT", "Snapshot must be valid JSON")
	}
	return &SavedView{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		PageKey:    pageKey,
		Name:       name,
		Snapshot:   snapshot,
	}, nil
}

// Touch updates the modification time
func (v *SavedView) Touch() {
	v.UpdatedAt = time.Now()
}

// ErrViewNotFound is returned for unknown or foreign views
var ErrViewNotFound = shared.NewNotFoundError("SAVED_VIEW_NOT_FOUND", "Saved view not found")

// Repository is the saved-view store. Every call is scoped to the owner.
type Repository interface {
	FindByID(ctx context.Context, userID, id uuid.UUID) (*SavedView, error)
	List(ctx context.Context, userID uuid.UUID, pageKey string) ([]SavedView, error)
	// Upsert inserts or replaces the view with the same (user, page key, name)
	Upsert(ctx context.Context, view *SavedView) (*SavedView, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// SetDefault marks one view as default and clears the flag on its siblings
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*SavedView, error)
}
