package handler

import (
	"context"

	"github.com/erp/receivables/internal/application/reconciliation"
	"github.com/erp/receivables/internal/domain/collection"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReconciliationService records receipts and status overrides
type ReconciliationService interface {
	ApplyReceipt(ctx context.Context, req reconciliation.ApplyReceiptRequest) (*reconciliation.ReceiptResponse, error)
	UpdateStatusOverride(ctx context.Context, req reconciliation.StatusOverrideRequest) (*reconciliation.StatusOverrideResponse, error)
	OverrideHistory(ctx context.Context, installmentID uuid.UUID) ([]collection.StatusOverrideLog, error)
	ListAttachments(ctx context.Context, receiptID uuid.UUID) (*reconciliation.AttachmentListResponse, error)
	PreviewAttachment(ctx context.Context, key string) (*reconciliation.PreviewResponse, error)
}

// ReceiptHandler serves receipts, vouchers and status overrides
type ReceiptHandler struct {
	BaseHandler
	service ReconciliationService
}

// NewReceiptHandler creates a ReceiptHandler
func NewReceiptHandler(service ReconciliationService) *ReceiptHandler {
	return &ReceiptHandler{service: service}
}

// RegisterRoutes mounts receipt, attachment and override routes
func (h *ReceiptHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/receipts", h.ApplyReceipt)
	rg.GET("/receipts/:id/attachments", h.ListAttachments)
	rg.GET("/attachments/preview", h.PreviewAttachment)
	rg.PUT("/status-overrides", h.UpdateStatusOverride)
	rg.GET("/status-overrides/:id/logs", h.OverrideHistory)
}

// ApplyReceipt godoc
// @ID           applyReceipt
// @Summary      Record a receipt
// @Description  Applies a payment to an installment. A repeated idempotency key returns the original receipt with 200.
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Param        request body reconciliation.ApplyReceiptRequest true "Receipt"
// @Success      201 {object} APIResponse[reconciliation.ReceiptResponse]
// @Success      200 {object} APIResponse[reconciliation.ReceiptResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receipts [post]
func (h *ReceiptHandler) ApplyReceipt(c *gin.Context) {
	var req reconciliation.ApplyReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}
	resp, err := h.service.ApplyReceipt(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if resp.Replayed {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// ListAttachments godoc
// @ID           listReceiptAttachments
// @Summary      Voucher references of a receipt
// @Tags         receipts
// @Produce      json
// @Param        id path string true "Receipt ID" format(uuid)
// @Success      200 {object} APIResponse[reconciliation.AttachmentListResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /receipts/{id}/attachments [get]
func (h *ReceiptHandler) ListAttachments(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	resp, err := h.service.ListAttachments(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

type previewQuery struct {
	Key string `form:"key" binding:"required,max=512"`
}

// PreviewAttachment godoc
// @ID           previewAttachment
// @Summary      Presigned voucher preview URL
// @Tags         receipts
// @Produce      json
// @Param        key query string true "Attachment reference"
// @Success      200 {object} APIResponse[reconciliation.PreviewResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /attachments/preview [get]
func (h *ReceiptHandler) PreviewAttachment(c *gin.Context) {
	var q previewQuery
	if !h.BindQuery(c, &q) {
		return
	}
	resp, err := h.service.PreviewAttachment(c.Request.Context(), q.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateStatusOverride godoc
// @ID           updateStatusOverride
// @Summary      Set or clear a manual status
// @Description  An empty new_status clears the override. Contract statuses are derived and cannot be overridden.
// @Tags         status
// @Accept       json
// @Produce      json
// @Param        request body reconciliation.StatusOverrideRequest true "Override"
// @Success      200 {object} APIResponse[reconciliation.StatusOverrideResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /status-overrides [put]
func (h *ReceiptHandler) UpdateStatusOverride(c *gin.Context) {
	var req reconciliation.StatusOverrideRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.service.UpdateStatusOverride(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// OverrideHistory godoc
// @ID           listStatusOverrideLogs
// @Summary      Status override history of an installment
// @Tags         status
// @Produce      json
// @Param        id path string true "Installment ID" format(uuid)
// @Success      200 {object} APIResponse[[]collection.StatusOverrideLog]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /status-overrides/{id}/logs [get]
func (h *ReceiptHandler) OverrideHistory(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	logs, err := h.service.OverrideHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, logs)
}
