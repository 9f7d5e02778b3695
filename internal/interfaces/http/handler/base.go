package handler

import (
	"net/http"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/logger"
	"github.com/erp/receivables/internal/interfaces/http/dto"
	"github.com/erp/receivables/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return c.GetString(logger.GinRequestIDKey)
}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with paging meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BindJSON binds the body into obj and answers 400 on failure
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, middleware.BindingErrorResponse(err, getRequestID(c)))
		return false
	}
	return true
}

// BindQuery binds the query string into obj and answers 400 on failure
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		c.JSON(http.StatusBadRequest, middleware.BindingErrorResponse(err, getRequestID(c)))
		return false
	}
	return true
}

// PathID parses the :id path parameter
func (h *BaseHandler) PathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.KindValidation, dto.ErrCodeInvalidID,
			"Path parameter id must be a UUID", getRequestID(c)))
		return uuid.Nil, false
	}
	return id, true
}

// HandleError renders err with the status of its kind.
// Server-side kinds are logged at error level with the request id.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	status, resp := dto.FromError(err, getRequestID(c))
	log := logger.L(c.Request.Context())
	fields := []zap.Field{
		zap.String("route", c.FullPath()),
		zap.String("error_code", resp.Error.Code),
		zap.Error(err),
	}
	switch kind := shared.KindOf(err); kind {
	case shared.KindTransient, shared.KindConfig, "":
		log.Error("Request failed", fields...)
	case shared.KindPermission:
		log.Warn("Request denied", fields...)
	default:
		log.Debug("Request rejected", append(fields, zap.String("error_kind", string(kind)))...)
	}
	c.JSON(status, resp)
}
