package dashboard

import (
	"github.com/erp/receivables/internal/domain/dashboard"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QueryRequest represents a dashboard query
type QueryRequest struct {
	ViewMode     string       `json:"view_mode" form:"view_mode"`
	Filters      QueryFilters `json:"filters"`
	GroupBy      []string     `json:"group_by" form:"group_by"`
	SortBy       string       `json:"sort_by" form:"sort_by"`
	SortDir      string       `json:"sort_dir" form:"sort_dir"`
	Page         int          `json:"page" form:"page"`
	PerPage      int          `json:"per_page" form:"per_page"`
	CurrencyMode string       `json:"currency_mode" form:"currency_mode"`
	Currency     string       `json:"currency" form:"currency"`
}

// QueryFilters are the predicates of a dashboard query
type QueryFilters struct {
	Keyword       string `json:"keyword" form:"keyword" binding:"max=200"`
	CustomerGroup string `json:"customer_group" form:"customer_group" binding:"max=100"`
	ActivityTag   string `json:"activity_tag" form:"activity_tag" binding:"max=100"`
	Status        string `json:"status" form:"status" binding:"max=50"`
	// DueStart and DueEnd accept 2006-01-02 or RFC3339
	DueStart     string      `json:"due_start" form:"due_start"`
	DueEnd       string      `json:"due_end" form:"due_end"`
	SalesUserIDs []uuid.UUID `json:"sales_user_ids" form:"sales_user_ids"`
	OwnerUserIDs []uuid.UUID `json:"owner_user_ids" form:"owner_user_ids"`
}

// QueryResponse is one page of dashboard rows with summary and groups
type QueryResponse struct {
	ViewMode     string          `json:"view_mode"`
	Rows         []dashboard.Row `json:"rows"`
	Total        int             `json:"total"`
	Page         int             `json:"page"`
	PerPage      int             `json:"per_page"`
	Currency     string          `json:"currency"`
	CurrencyMode string          `json:"currency_mode"`
	Summary      dashboard.Stats `json:"summary"`
	// GroupStats holds exact rollups over the full filtered set; null when not grouped
	GroupStats dashboard.GroupStats `json:"group_stats"`
	Groups     []dashboard.Group    `json:"groups"`
	// RateWarnings lists currencies converted with the fallback rate
	RateWarnings []string `json:"rate_warnings,omitempty"`
}

// ContractInstallmentsRequest selects the currency of lazily loaded child rows
type ContractInstallmentsRequest struct {
	CurrencyMode string `form:"currency_mode"`
	Currency     string `form:"currency"`
}

// ContractInstallmentsResponse holds the installment rows of one contract
type ContractInstallmentsResponse struct {
	ContractID uuid.UUID       `json:"contract_id"`
	Rows       []dashboard.Row `json:"rows"`
	Currency   string          `json:"currency"`
}

// StatusPreviewRequest asks for the derived status of unsaved values
type StatusPreviewRequest struct {
	Items []StatusPreviewItem `json:"items" binding:"required,min=1,max=500,dive"`
}

// StatusPreviewItem is one installment as edited on the client
type StatusPreviewItem struct {
	Key            string          `json:"key"`
	AmountDue      decimal.Decimal `json:"amount_due"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	DueDate        string          `json:"due_date"`
	StatusOverride string          `json:"status_override" binding:"max=50"`
}

// StatusPreviewResult is the derived status of one preview item
type StatusPreviewResult struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Severity int    `json:"severity"`
}

// StatusPreviewResponse lists the preview results in request order
type StatusPreviewResponse struct {
	Today   string                `json:"today"`
	Results []StatusPreviewResult `json:"results"`
}
