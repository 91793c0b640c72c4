// Package storage exposes the file storage operations over HTTP
package storage

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docstore-backend/internal/domain"
	"docstore-backend/internal/middleware"
	"docstore-backend/internal/service/storage"
	"docstore-backend/pkg/response"
)

// Handler handles storage HTTP requests
type Handler struct {
	storageService *storage.Service
}

// NewHandler creates a new storage handler
func NewHandler(storageService *storage.Service) *Handler {
	return &Handler{storageService: storageService}
}

// RegisterRoutes wires the storage endpoints under the given group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	files := rg.Group("/files")
	{
		files.POST("", h.Upload)
		files.GET("", h.ListFiles)
		files.GET("/search", h.SearchFiles)
		files.GET("/:file_id", h.GetFile)
		files.GET("/:file_id/content", h.Download)
		files.GET("/:file_id/versions", h.GetVersions)
		files.GET("/:file_id/download-url", h.GetDownloadURL)
		files.PATCH("/:file_id", h.UpdateMetadata)
		files.POST("/:file_id/move", h.Move)
		files.POST("/:file_id/copy", h.Copy)
		files.POST("/:file_id/restore", h.Restore)
		files.POST("/:file_id/archive", h.Archive)
		files.DELETE("/:file_id", h.Delete)
	}

	multipart := rg.Group("/uploads")
	{
		multipart.POST("", h.InitiateMultipart)
		multipart.PUT("/:upload_id/parts/:part_number", h.UploadPart)
		multipart.POST("/:upload_id/complete", h.CompleteMultipart)
		multipart.DELETE("/:upload_id", h.AbortMultipart)
	}

	rg.GET("/quota", h.GetQuota)
}

// RegisterPublicRoutes wires the endpoints that authenticate with a
// signed token instead of the identity headers
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/download", h.DownloadWithToken)
}

// Upload handles a single-shot multipart form upload
// POST /v1/storage/files
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ValidationError(c, "Missing form file field 'file'")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, "Failed to read uploaded file")
		return
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		response.InternalError(c, "Failed to read uploaded file")
		return
	}

	opts := domain.UploadOptions{
		Category: domain.FileCategory(c.PostForm("category")),
		Version:  c.PostForm("version") == "true",
		Encrypt:  c.PostForm("encrypt") == "true",
		Compress: c.PostForm("compress") == "true",
		Comment:  c.PostForm("comment"),
	}
	if v := c.PostForm("access_level"); v != "" {
		opts.AccessLevel = domain.AccessLevel(v)
	}
	if v := c.PostForm("folder_id"); v != "" {
		folderID, err := uuid.Parse(v)
		if err != nil {
			response.ValidationError(c, "Invalid folder_id")
			return
		}
		opts.FolderID = &folderID
	}
	if v := c.PostForm("expires_at"); v != "" {
		expiresAt, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.ValidationError(c, "Invalid expires_at, expected RFC 3339")
			return
		}
		opts.ExpiresAt = &expiresAt
	}
	if v := c.PostFormArray("tags"); len(v) > 0 {
		opts.Tags = v
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	file, err := h.storageService.Upload(c.Request.Context(), domain.UploadRequest{
		Content:  content,
		FileName: fileHeader.Filename,
		MimeType: mimeType,
		UserID:   middleware.UserID(c),
		OrgID:    middleware.OrgID(c),
		Options:  opts,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, file)
}

// Download streams a file version's content
// GET /v1/storage/files/:file_id/content
func (h *Handler) Download(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	opts, ok := parseDownloadOptions(c)
	if !ok {
		return
	}

	res, err := h.storageService.Download(c.Request.Context(), fileID, opts)
	if err != nil {
		response.FromError(c, err)
		return
	}
	serveContent(c, res, opts.Inline)
}

// DownloadWithToken streams content authenticated by a signed token
// GET /v1/storage/download?token=...
func (h *Handler) DownloadWithToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.ValidationError(c, "Missing token")
		return
	}

	opts, ok := parseDownloadOptions(c)
	if !ok {
		return
	}

	res, err := h.storageService.DownloadWithToken(c.Request.Context(), token, opts)
	if err != nil {
		response.Unauthorized(c, "Invalid or expired download token")
		return
	}
	serveContent(c, res, opts.Inline)
}

// GetDownloadURL issues a signed download link
// GET /v1/storage/files/:file_id/download-url
func (h *Handler) GetDownloadURL(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	opts, ok := parseDownloadOptions(c)
	if !ok {
		return
	}

	url, err := h.storageService.GetDownloadURL(c.Request.Context(), fileID, middleware.UserID(c), opts)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, url)
}

// GetFile returns a file's metadata
// GET /v1/storage/files/:file_id
func (h *Handler) GetFile(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	file, err := h.storageService.GetFile(c.Request.Context(), fileID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, file)
}

// GetVersions returns the version history, newest first
// GET /v1/storage/files/:file_id/versions
func (h *Handler) GetVersions(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	versions, err := h.storageService.GetFileVersions(c.Request.Context(), fileID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, versions)
}

// ListFiles lists the organization's files
// GET /v1/storage/files
func (h *Handler) ListFiles(c *gin.Context) {
	filter := domain.FileFilter{
		Category: domain.FileCategory(c.Query("category")),
		Status:   domain.FileStatus(c.Query("status")),
		Tag:      c.Query("tag"),
	}
	if v := c.Query("folder_id"); v != "" {
		folderID, err := uuid.Parse(v)
		if err != nil {
			response.ValidationError(c, "Invalid folder_id")
			return
		}
		filter.FolderID = &folderID
	}

	files, err := h.storageService.ListFiles(c.Request.Context(), middleware.OrgID(c), filter)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, files)
}

// SearchFiles matches names and tags against a query
// GET /v1/storage/files/search?q=...
func (h *Handler) SearchFiles(c *gin.Context) {
	files, err := h.storageService.SearchFiles(c.Request.Context(), middleware.OrgID(c), c.Query("q"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, files)
}

// UpdateMetadataRequest is the PATCH body for file metadata
type UpdateMetadataRequest struct {
	Name        *string                `json:"name,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	AccessLevel *domain.AccessLevel    `json:"access_level,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// UpdateMetadata applies a partial metadata update
// PATCH /v1/storage/files/:file_id
func (h *Handler) UpdateMetadata(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	var req UpdateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	file, err := h.storageService.UpdateFileMetadata(c.Request.Context(), fileID, domain.MetadataUpdate{
		Name:        req.Name,
		Tags:        req.Tags,
		AccessLevel: req.AccessLevel,
		Metadata:    req.Metadata,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, file)
}

// MoveRequest carries the move target; null means the organization root
type MoveRequest struct {
	TargetFolderID *uuid.UUID `json:"target_folder_id"`
}

// Move relocates a file to another folder
// POST /v1/storage/files/:file_id/move
func (h *Handler) Move(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	file, err := h.storageService.Move(c.Request.Context(), fileID, req.TargetFolderID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, file)
}

// Copy duplicates a file into a folder
// POST /v1/storage/files/:file_id/copy
func (h *Handler) Copy(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	file, err := h.storageService.Copy(c.Request.Context(), fileID, req.TargetFolderID, middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, file)
}

// Delete removes a file; permanent=true reclaims content and quota
// DELETE /v1/storage/files/:file_id
func (h *Handler) Delete(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	permanent := c.Query("permanent") == "true"
	if err := h.storageService.Delete(c.Request.Context(), fileID, permanent); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true, "permanent": permanent})
}

// Restore brings a soft-deleted file back
// POST /v1/storage/files/:file_id/restore
func (h *Handler) Restore(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	file, err := h.storageService.Restore(c.Request.Context(), fileID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, file)
}

// Archive moves a file to cold status
// POST /v1/storage/files/:file_id/archive
func (h *Handler) Archive(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	file, err := h.storageService.Archive(c.Request.Context(), fileID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, file)
}

// GetQuota returns the organization's quota usage
// GET /v1/storage/quota
func (h *Handler) GetQuota(c *gin.Context) {
	q, err := h.storageService.GetQuota(c.Request.Context(), middleware.OrgID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// InitiateMultipartRequest declares a multipart upload
type InitiateMultipartRequest struct {
	FileName  string                 `json:"file_name" binding:"required"`
	MimeType  string                 `json:"mime_type" binding:"required"`
	TotalSize int64                  `json:"total_size" binding:"required,min=1"`
	Category  domain.FileCategory    `json:"category"`
	FolderID  *uuid.UUID             `json:"folder_id,omitempty"`
	Tags      []string               `json:"tags,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// InitiateMultipart opens a chunked upload session
// POST /v1/storage/uploads
func (h *Handler) InitiateMultipart(c *gin.Context) {
	var req InitiateMultipartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	init, err := h.storageService.InitiateMultipartUpload(c.Request.Context(),
		req.FileName, req.MimeType, req.TotalSize,
		middleware.UserID(c), middleware.OrgID(c),
		domain.UploadOptions{
			Category: req.Category,
			FolderID: req.FolderID,
			Tags:     req.Tags,
			Metadata: req.Metadata,
		})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, init)
}

// UploadPart receives one raw part body
// PUT /v1/storage/uploads/:upload_id/parts/:part_number
func (h *Handler) UploadPart(c *gin.Context) {
	partNumber, err := strconv.Atoi(c.Param("part_number"))
	if err != nil {
		response.ValidationError(c, "Invalid part number")
		return
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.InternalError(c, "Failed to read part body")
		return
	}

	if err := h.storageService.UploadPart(c.Request.Context(), c.Param("upload_id"), partNumber, data); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"part_number": partNumber, "size": len(data)})
}

// CompleteMultipart assembles the parts and commits the file
// POST /v1/storage/uploads/:upload_id/complete
func (h *Handler) CompleteMultipart(c *gin.Context) {
	file, err := h.storageService.CompleteMultipartUpload(c.Request.Context(), c.Param("upload_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, file)
}

// AbortMultipart discards an open session
// DELETE /v1/storage/uploads/:upload_id
func (h *Handler) AbortMultipart(c *gin.Context) {
	if err := h.storageService.AbortMultipartUpload(c.Request.Context(), c.Param("upload_id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"aborted": true})
}

func parseFileID(c *gin.Context) (uuid.UUID, bool) {
	fileID, err := uuid.Parse(c.Param("file_id"))
	if err != nil {
		response.ValidationError(c, "Invalid file ID")
		return uuid.Nil, false
	}
	return fileID, true
}

func parseDownloadOptions(c *gin.Context) (domain.DownloadOptions, bool) {
	opts := domain.DownloadOptions{Inline: c.Query("inline") == "true"}
	if v := c.Query("version"); v != "" {
		version, err := strconv.Atoi(v)
		if err != nil || version < 1 {
			response.ValidationError(c, "Invalid version")
			return opts, false
		}
		opts.Version = version
	}
	return opts, true
}

func serveContent(c *gin.Context, res *domain.DownloadResult, inline bool) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	c.Header("Content-Disposition", disposition+"; filename="+strconv.Quote(res.FileName))
	c.Header("X-File-Version", strconv.Itoa(res.Version))
	c.Header("X-Checksum-SHA256", res.Checksum)
	c.Data(http.StatusOK, res.MimeType, res.Content)
}
