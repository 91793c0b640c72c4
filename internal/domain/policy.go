package domain

// StoragePolicy is the per-category configuration record
// Policies are registered at startup and read-only at runtime
type StoragePolicy struct {
	ID                 string       `json:"id"`
	Category           FileCategory `json:"category"`
	MaxFileSize        int64        `json:"max_file_size"`               // 0 = unlimited
	AllowedMimeTypes   []string     `json:"allowed_mime_types"`          // Empty = unrestricted
	RetentionDays      int          `json:"retention_days"`              // 0 = no auto-retention
	AutoArchiveDays    int          `json:"auto_archive_days,omitempty"` // 0 = never
	AutoDeleteDays     int          `json:"auto_delete_days,omitempty"`  // 0 = never
	RequireEncryption  bool         `json:"require_encryption"`
	RequireCompression bool         `json:"require_compression"`
	GenerateThumbnails bool         `json:"generate_thumbnails"`
	MaxVersions        int          `json:"max_versions"` // 0 = unbounded history
}

// AllowsMimeType reports whether the policy accepts the given MIME type
// An empty allow-list is unrestricted; "image/*" style prefixes match a family
func (p *StoragePolicy) AllowsMimeType(mimeType string) bool {
	if len(p.AllowedMimeTypes) == 0 {
		return true
	}
	for _, allowed := range p.AllowedMimeTypes {
		if allowed == mimeType {
			return true
		}
		if n := len(allowed); n > 2 && allowed[n-2:] == "/*" && len(mimeType) >= n-1 && mimeType[:n-1] == allowed[:n-1] {
			return true
		}
	}
	return false
}
