package savedview

import (
	"encoding/json"
	"time"

	"github.com/erp/receivables/internal/domain/savedview"
	"github.com/google/uuid"
)

// SaveViewRequest saves a named filter snapshot for the caller
type SaveViewRequest struct {
	PageKey   string          `json:"page_key" binding:"required,max=100"`
	Name      string          `json:"name" binding:"required,max=100"`
	Snapshot  json.RawMessage `json:"snapshot"`
	IsDefault bool            `json:"is_default"`
}

// ListViewsRequest selects the page whose views are listed
type ListViewsRequest struct {
	PageKey string `form:"page_key" binding:"required,max=100"`
}

// ViewResponse is a saved view as returned by the API
type ViewResponse struct {
	ID        uuid.UUID          `json:"id"`
	PageKey   string             `json:"page_key"`
	Name      string             `json:"name"`
	Snapshot  savedview.Snapshot `json:"snapshot"`
	IsDefault bool               `json:"is_default"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ToViewResponse converts a domain view
func ToViewResponse(v *savedview.SavedView) ViewResponse {
	return ViewResponse{
		ID:        v.ID,
		PageKey:   v.PageKey,
		Name:      v.Name,
		Snapshot:  v.Snapshot,
		IsDefault: v.IsDefault,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

// ToViewResponses converts a list of domain views
func ToViewResponses(views []savedview.SavedView) []ViewResponse {
	out := make([]ViewResponse, len(views))
	for i := range views {
		out[i] = ToViewResponse(&views[i])
	}
	return out
}
