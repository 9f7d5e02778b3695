package handler

import (
	"context"

	savedviewapp "github.com/erp/receivables/internal/application/savedview"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SavedViewService stores per-user filter snapshots
type SavedViewService interface {
	List(ctx context.Context, req savedviewapp.ListViewsRequest) ([]savedviewapp.ViewResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*savedviewapp.ViewResponse, error)
	Save(ctx context.Context, req savedviewapp.SaveViewRequest) (*savedviewapp.ViewResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetDefault(ctx context.Context, id uuid.UUID) (*savedviewapp.ViewResponse, error)
}

// SavedViewHandler serves saved dashboard views
type SavedViewHandler struct {
	BaseHandler
	service SavedViewService
}

// NewSavedViewHandler creates a SavedViewHandler
func NewSavedViewHandler(service SavedViewService) *SavedViewHandler {
	return &SavedViewHandler{service: service}
}

// RegisterRoutes mounts the saved view routes
func (h *SavedViewHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/saved-views")
	g.GET("", h.List)
	g.POST("", h.Save)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/default", h.SetDefault)
}

// List godoc
// @ID           listSavedViews
// @Summary      Saved views of a page
// @Tags         saved-views
// @Produce      json
// @Param        page_key query string true "Page key"
// @Success      200 {object} APIResponse[[]savedviewapp.ViewResponse]
// @Security     BearerAuth
// @Router       /saved-views [get]
func (h *SavedViewHandler) List(c *gin.Context) {
	var req savedviewapp.ListViewsRequest
	if !h.BindQuery(c, &req) {
		return
	}
	views, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, views, int64(len(views)), 1, len(views))
}

// Save godoc
// @ID           saveSavedView
// @Summary      Save a view
// @Description  Creates or replaces the caller's view with the same page key and name
// @Tags         saved-views
// @Accept       json
// @Produce      json
// @Param        request body savedviewapp.SaveViewRequest true "View"
// @Success      201 {object} APIResponse[savedviewapp.ViewResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /saved-views [post]
func (h *SavedViewHandler) Save(c *gin.Context) {
	var req savedviewapp.SaveViewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	view, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, view)
}

// Get godoc
// @ID           getSavedView
// @Summary      Load a view
// @Tags         saved-views
// @Produce      json
// @Param        id path string true "View ID" format(uuid)
// @Success      200 {object} APIResponse[savedviewapp.ViewResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /saved-views/{id} [get]
func (h *SavedViewHandler) Get(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	view, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Delete godoc
// @ID           deleteSavedView
// @Summary      Delete a view
// @Tags         saved-views
// @Param        id path string true "View ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /saved-views/{id} [delete]
func (h *SavedViewHandler) Delete(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SetDefault godoc
// @ID           setDefaultSavedView
// @Summary      Make a view the page default
// @Tags         saved-views
// @Produce      json
// @Param        id path string true "View ID" format(uuid)
// @Success      200 {object} APIResponse[savedviewapp.ViewResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /saved-views/{id}/default [post]
func (h *SavedViewHandler) SetDefault(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	view, err := h.service.SetDefault(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}
