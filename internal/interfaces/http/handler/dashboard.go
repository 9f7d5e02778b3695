package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	dashboardapp "github.com/erp/receivables/internal/application/dashboard"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DashboardService is the read side behind the dashboard endpoints
type DashboardService interface {
	Query(ctx context.Context, req dashboardapp.QueryRequest) (*dashboardapp.QueryResponse, error)
	ContractInstallments(ctx context.Context, contractID uuid.UUID, req dashboardapp.ContractInstallmentsRequest) (*dashboardapp.ContractInstallmentsResponse, error)
	Export(ctx context.Context, req dashboardapp.QueryRequest) (*dashboardapp.ExportResult, error)
	PreviewStatuses(req dashboardapp.StatusPreviewRequest) *dashboardapp.StatusPreviewResponse
}

// DashboardHandler serves the receivables dashboard
type DashboardHandler struct {
	BaseHandler
	service DashboardService
}

// NewDashboardHandler creates a DashboardHandler
func NewDashboardHandler(service DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// RegisterRoutes mounts the dashboard and status preview routes
func (h *DashboardHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/dashboard")
	g.POST("/query", h.Query)
	g.GET("/export", h.Export)
	g.GET("/contracts/:id/installments", h.ContractInstallments)
	rg.POST("/status/preview", h.PreviewStatuses)
}

// Query godoc
// @ID           queryDashboard
// @Summary      Query receivables
// @Description  Filter, group, sort and page contract or installment rows, or the per-sales-owner summary
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        request body dashboardapp.QueryRequest true "Dashboard query"
// @Success      200 {object} APIResponse[dashboardapp.QueryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /dashboard/query [post]
func (h *DashboardHandler) Query(c *gin.Context) {
	var req dashboardapp.QueryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.service.Query(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ContractInstallments godoc
// @ID           listContractInstallments
// @Summary      Installments of a contract
// @Description  Lazily loaded child rows of a contract row
// @Tags         dashboard
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        currency_mode query string false "fixed, floating or original"
// @Param        currency query string false "Report currency"
// @Success      200 {object} APIResponse[dashboardapp.ContractInstallmentsResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /dashboard/contracts/{id}/installments [get]
func (h *DashboardHandler) ContractInstallments(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dashboardapp.ContractInstallmentsRequest
	if !h.BindQuery(c, &req) {
		return
	}
	resp, err := h.service.ContractInstallments(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// exportQuery is the query string form of a dashboard query
type exportQuery struct {
	ViewMode      string   `form:"view_mode"`
	SortBy        string   `form:"sort_by"`
	SortDir       string   `form:"sort_dir"`
	CurrencyMode  string   `form:"currency_mode"`
	Currency      string   `form:"currency"`
	Keyword       string   `form:"keyword" binding:"max=200"`
	CustomerGroup string   `form:"customer_group" binding:"max=100"`
	ActivityTag   string   `form:"activity_tag" binding:"max=100"`
	Status        string   `form:"status" binding:"max=50"`
	DueStart      string   `form:"due_start"`
	DueEnd        string   `form:"due_end"`
	SalesUserIDs  []string `form:"sales_user_ids" binding:"omitempty,max=200,dive,uuid"`
	OwnerUserIDs  []string `form:"owner_user_ids" binding:"omitempty,max=200,dive,uuid"`
}

func (q exportQuery) toRequest() dashboardapp.QueryRequest {
	return dashboardapp.QueryRequest{
		ViewMode: q.ViewMode,
		Filters: dashboardapp.QueryFilters{
			Keyword:       q.Keyword,
			CustomerGroup: q.CustomerGroup,
			ActivityTag:   q.ActivityTag,
			Status:        q.Status,
			DueStart:      q.DueStart,
			DueEnd:        q.DueEnd,
			SalesUserIDs:  parseIDs(q.SalesUserIDs),
			OwnerUserIDs:  parseIDs(q.OwnerUserIDs),
		},
		SortBy:       q.SortBy,
		SortDir:      q.SortDir,
		CurrencyMode: q.CurrencyMode,
		Currency:     q.Currency,
	}
}

// parseIDs converts ids already checked by the uuid binding rule
func parseIDs(values []string) []uuid.UUID {
	if len(values) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		if id, err := uuid.Parse(v); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// Export godoc
// @ID           exportDashboard
// @Summary      Export receivables
// @Description  Every row of the query as an xlsx workbook, with a summary sheet
// @Tags         dashboard
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        view_mode query string false "contract or installment"
// @Param        keyword query string false "Contract number or customer keyword"
// @Param        status query string false "Status label"
// @Param        due_start query string false "Due date lower bound (YYYY-MM-DD)"
// @Param        due_end query string false "Due date upper bound (YYYY-MM-DD)"
// @Param        sales_user_ids query []string false "Sales owner ids" collectionFormat(multi)
// @Success      200 {file} file
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /dashboard/export [get]
func (h *DashboardHandler) Export(c *gin.Context) {
	var q exportQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.Export(c.Request.Context(), q.toRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Header("X-Export-Rows", strconv.Itoa(result.Rows))
	c.Data(http.StatusOK, dashboardapp.XLSXContentType, result.Data)
}

// PreviewStatuses godoc
// @ID           previewStatuses
// @Summary      Preview installment statuses
// @Description  Derives status labels for unsaved amounts and due dates using the same rules as the dashboard
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        request body dashboardapp.StatusPreviewRequest true "Items to evaluate"
// @Success      200 {object} APIResponse[dashboardapp.StatusPreviewResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /status/preview [post]
func (h *DashboardHandler) PreviewStatuses(c *gin.Context) {
	var req dashboardapp.StatusPreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.Success(c, h.service.PreviewStatuses(req))
}
