// Package bulk exposes asynchronous batch operations over HTTP
package bulk

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docstore-backend/internal/domain"
	"docstore-backend/internal/middleware"
	"docstore-backend/internal/service/bulk"
	"docstore-backend/pkg/response"
)

// Handler handles bulk operation HTTP requests
type Handler struct {
	processor *bulk.Processor
}

// NewHandler creates a new bulk handler
func NewHandler(processor *bulk.Processor) *Handler {
	return &Handler{processor: processor}
}

// RegisterRoutes wires the bulk endpoints under the given group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	ops := rg.Group("/bulk-operations")
	{
		ops.POST("", h.Submit)
		ops.GET("/:operation_id", h.Get)
	}
}

// SubmitRequest is the POST body for a bulk submission
type SubmitRequest struct {
	Type           domain.BulkOperationType `json:"type" binding:"required"`
	FileIDs        []uuid.UUID              `json:"file_ids" binding:"required"`
	TargetFolderID *uuid.UUID               `json:"target_folder_id,omitempty"`
	Permanent      bool                     `json:"permanent,omitempty"`
}

// Submit records a bulk operation and starts it in the background
// POST /v1/storage/bulk-operations
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	op, err := h.processor.Submit(c.Request.Context(), bulk.Request{
		Type:           req.Type,
		FileIDs:        req.FileIDs,
		TargetFolderID: req.TargetFolderID,
		Permanent:      req.Permanent,
		RequestedBy:    middleware.UserID(c),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, op)
}

// Get returns the current state of a bulk operation
// GET /v1/storage/bulk-operations/:operation_id
func (h *Handler) Get(c *gin.Context) {
	opID, err := uuid.Parse(c.Param("operation_id"))
	if err != nil {
		response.ValidationError(c, "Invalid operation ID")
		return
	}

	op, err := h.processor.Get(c.Request.Context(), opID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, op)
}
