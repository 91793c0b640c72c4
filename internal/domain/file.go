package domain

import (
	"time"

	"github.com/google/uuid"
)

// FileStatus is the lifecycle state of a logical file
type FileStatus string

const (
	FileStatusUploading  FileStatus = "UPLOADING"
	FileStatusProcessing FileStatus = "PROCESSING"
	FileStatusReady      FileStatus = "READY"
	FileStatusArchived   FileStatus = "ARCHIVED"
	FileStatusDeleted    FileStatus = "DELETED"
	FileStatusError      FileStatus = "ERROR"
)

// AccessLevel controls visibility of a file or folder
type AccessLevel string

const (
	AccessPrivate  AccessLevel = "PRIVATE"
	AccessInternal AccessLevel = "INTERNAL"
	AccessShared   AccessLevel = "SHARED"
	AccessPublic   AccessLevel = "PUBLIC"
)

// FileCategory classifies files for storage policy lookup
type FileCategory string

const (
	CategoryDocument       FileCategory = "DOCUMENT"
	CategoryImage          FileCategory = "IMAGE"
	CategoryVideo          FileCategory = "VIDEO"
	CategoryAudio          FileCategory = "AUDIO"
	CategoryArchive        FileCategory = "ARCHIVE"
	CategoryInvoice        FileCategory = "INVOICE"
	CategoryContract       FileCategory = "CONTRACT"
	CategoryReport         FileCategory = "REPORT"
	CategoryAvatar         FileCategory = "AVATAR"
	CategoryCourseMaterial FileCategory = "COURSE_MATERIAL"
	CategoryAttachment     FileCategory = "ATTACHMENT"
	CategoryOther          FileCategory = "OTHER"
)

// File represents the metadata of one logical file
// The ID is stable across versions; content lives in the blob store under StorageKey
type File struct {
	ID                uuid.UUID              `json:"id"`
	Name              string                 `json:"name"`
	OriginalName      string                 `json:"original_name"`
	MimeType          string                 `json:"mime_type"`
	Size              int64                  `json:"size"` // Plaintext bytes of current version
	Category          FileCategory           `json:"category"`
	Status            FileStatus             `json:"status"`
	AccessLevel       AccessLevel            `json:"access_level"`
	StorageKey        string                 `json:"-"` // Internal, don't expose
	Checksum          string                 `json:"checksum"`
	ChecksumAlgorithm string                 `json:"checksum_algorithm"`
	FolderID          *uuid.UUID             `json:"folder_id,omitempty"`
	OwnerID           uuid.UUID              `json:"owner_id"`
	OrganizationID    uuid.UUID              `json:"organization_id"`
	Tags              []string               `json:"tags,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	Version           int                    `json:"version"`
	Versions          []FileVersion          `json:"versions,omitempty"` // History, current excluded
	RetentionPolicyID string                 `json:"retention_policy_id,omitempty"`
	RetentionUntil    *time.Time             `json:"retention_until,omitempty"`
	IsEncrypted       bool                   `json:"is_encrypted"`
	EncryptionKey     string                 `json:"-"` // Hex-encoded per-file key, never exposed
	IsCompressed      bool                   `json:"is_compressed"`
	CompressionAlgo   string                 `json:"compression_algo,omitempty"`
	VersionComment    string                 `json:"version_comment,omitempty"` // Comment attached to the current version
	DownloadCount     int64                  `json:"download_count"`
	LastAccessedAt    *time.Time             `json:"last_accessed_at,omitempty"`
	ExpiresAt         *time.Time             `json:"expires_at,omitempty"`
	UploadID          string                 `json:"-"` // Set while a multipart session is open
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	DeletedAt         *time.Time             `json:"deleted_at,omitempty"` // Soft delete
}

// FileVersion is an immutable snapshot of a superseded version.
// It carries the transform state the version was stored with, so old
// versions stay readable after a re-upload rotates the file key.
type FileVersion struct {
	Version       int       `json:"version"`
	StorageKey    string    `json:"-"`
	Size          int64     `json:"size"`
	Checksum      string    `json:"checksum"`
	UploadedBy    uuid.UUID `json:"uploaded_by"`
	UploadedAt    time.Time `json:"uploaded_at"`
	Comment       string    `json:"comment,omitempty"`
	IsEncrypted   bool      `json:"is_encrypted"`
	EncryptionKey string    `json:"-"`
	IsCompressed  bool      `json:"is_compressed"`
}

// IsDeleted reports whether the file is soft-deleted
func (f *File) IsDeleted() bool {
	return f.Status == FileStatusDeleted
}

// UnderRetention reports whether a retention deadline still blocks permanent deletion
func (f *File) UnderRetention(now time.Time) bool {
	return f.RetentionUntil != nil && now.Before(*f.RetentionUntil)
}

// UploadRequest carries the parameters of a single-shot upload
type UploadRequest struct {
	Content  []byte
	FileName string
	MimeType string
	UserID   uuid.UUID
	OrgID    uuid.UUID
	Options  UploadOptions
}

// UploadOptions are the caller-selectable upload behaviors
// Policy requirements (encryption, compression) are applied on top of these
type UploadOptions struct {
	Category    FileCategory           `json:"category"`
	FolderID    *uuid.UUID             `json:"folder_id,omitempty"`
	AccessLevel AccessLevel            `json:"access_level,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Version     bool                   `json:"version"` // Re-upload as new version of the same logical file
	Encrypt     bool                   `json:"encrypt"`
	Compress    bool                   `json:"compress"`
	Comment     string                 `json:"comment,omitempty"`
	ExpiresAt   *time.Time             `json:"expires_at,omitempty"`
}

// DownloadOptions select a specific version; zero means current
type DownloadOptions struct {
	Version int  `json:"version"`
	Inline  bool `json:"inline"`
}

// DownloadResult is the reconstructed plaintext of one version plus
// the metadata a transport layer needs to serve it
type DownloadResult struct {
	Content  []byte
	FileName string
	MimeType string
	Version  int
	Size     int64
	Checksum string
}

// MetadataUpdate carries the mutable metadata fields; nil means unchanged
type MetadataUpdate struct {
	Name        *string                `json:"name,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	AccessLevel *AccessLevel           `json:"access_level,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// FileFilter narrows ListFiles results; zero-value fields match everything
type FileFilter struct {
	FolderID *uuid.UUID
	Category FileCategory
	Status   FileStatus
	Tag      string
}

// MultipartInit is the part plan returned by InitiateMultipartUpload
type MultipartInit struct {
	FileID    uuid.UUID `json:"file_id"`
	UploadID  string    `json:"upload_id"`
	ChunkSize int64     `json:"chunk_size"`
	PartCount int       `json:"part_count"`
}

// DownloadURL is a signed, time-limited download token plus the
// response headers the transport layer should emit
type DownloadURL struct {
	FileID    uuid.UUID         `json:"file_id"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Headers   map[string]string `json:"headers"`
}
