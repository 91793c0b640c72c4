// Package folder exposes the folder tree operations over HTTP
package folder

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docstore-backend/internal/domain"
	"docstore-backend/internal/middleware"
	"docstore-backend/internal/service/folder"
	"docstore-backend/pkg/response"
)

// Handler handles folder HTTP requests
type Handler struct {
	folderService *folder.Service
}

// NewHandler creates a new folder handler
func NewHandler(folderService *folder.Service) *Handler {
	return &Handler{folderService: folderService}
}

// RegisterRoutes wires the folder endpoints under the given group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	folders := rg.Group("/folders")
	{
		folders.POST("", h.Create)
		folders.GET("", h.List)
		folders.GET("/:folder_id", h.Get)
		folders.GET("/:folder_id/contents", h.Contents)
		folders.DELETE("/:folder_id", h.Delete)
	}
}

// CreateRequest is the POST body for a new folder
type CreateRequest struct {
	Name        string                 `json:"name" binding:"required"`
	ParentID    *uuid.UUID             `json:"parent_id,omitempty"`
	AccessLevel domain.AccessLevel     `json:"access_level,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Create makes a new folder
// POST /v1/storage/folders
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	created, err := h.folderService.CreateFolder(c.Request.Context(), folder.CreateRequest{
		Name:        req.Name,
		ParentID:    req.ParentID,
		AccessLevel: req.AccessLevel,
		Metadata:    req.Metadata,
		OwnerID:     middleware.UserID(c),
		OrgID:       middleware.OrgID(c),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, created)
}

// Get returns a folder's metadata
// GET /v1/storage/folders/:folder_id
func (h *Handler) Get(c *gin.Context) {
	folderID, ok := parseFolderID(c)
	if !ok {
		return
	}

	got, err := h.folderService.GetFolder(c.Request.Context(), folderID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, got)
}

// List returns the direct subfolders of a parent, or the root folders
// GET /v1/storage/folders?parent_id=...
func (h *Handler) List(c *gin.Context) {
	var parentID *uuid.UUID
	if v := c.Query("parent_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.ValidationError(c, "Invalid parent_id")
			return
		}
		parentID = &id
	}

	folders, err := h.folderService.ListFolders(c.Request.Context(), middleware.OrgID(c), parentID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, folders)
}

// Contents returns a folder plus its direct subfolders and files
// GET /v1/storage/folders/:folder_id/contents
func (h *Handler) Contents(c *gin.Context) {
	folderID, ok := parseFolderID(c)
	if !ok {
		return
	}

	contents, err := h.folderService.GetFolderContents(c.Request.Context(), folderID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, contents)
}

// Delete removes a folder; recursive=true removes the whole subtree
// DELETE /v1/storage/folders/:folder_id
func (h *Handler) Delete(c *gin.Context) {
	folderID, ok := parseFolderID(c)
	if !ok {
		return
	}

	recursive := c.Query("recursive") == "true"
	if err := h.folderService.DeleteFolder(c.Request.Context(), folderID, recursive); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true, "recursive": recursive})
}

func parseFolderID(c *gin.Context) (uuid.UUID, bool) {
	folderID, err := uuid.Parse(c.Param("folder_id"))
	if err != nil {
		response.ValidationError(c, "Invalid folder ID")
		return uuid.Nil, false
	}
	return folderID, true
}
