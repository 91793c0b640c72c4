package domain

import (
	"time"

	"github.com/google/uuid"
)

// StorageQuota is the per-organization storage budget and usage
// UsedBytes equals the sum of Size over all non-permanently-deleted files
type StorageQuota struct {
	OrganizationID uuid.UUID              `json:"organization_id"`
	TotalBytes     int64                  `json:"total_bytes"`
	UsedBytes      int64                  `json:"used_bytes"`
	FileCount      int64                  `json:"file_count"`
	MaxFileSize    int64                  `json:"max_file_size"` // Org-wide default, 0 = unlimited
	ByCategory     map[FileCategory]int64 `json:"by_category,omitempty"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// PercentUsed returns usage as a percentage of the total budget
func (q *StorageQuota) PercentUsed() float64 {
	if q.TotalBytes == 0 {
		return 0
	}
	return float64(q.UsedBytes) / float64(q.TotalBytes) * 100
}
