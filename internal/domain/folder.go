package domain

import (
	"time"

	"github.com/google/uuid"
)

// Folder is a hierarchical container for files within one organization
// Path is always the parent's path + "/" + name; aggregates are derived
type Folder struct {
	ID             uuid.UUID              `json:"id"`
	Name           string                 `json:"name"`
	ParentID       *uuid.UUID             `json:"parent_id,omitempty"`
	Path           string                 `json:"path"`
	OwnerID        uuid.UUID              `json:"owner_id"`
	OrganizationID uuid.UUID              `json:"organization_id"`
	AccessLevel    AccessLevel            `json:"access_level"`
	FileCount      int                    `json:"file_count"`
	TotalSize      int64                  `json:"total_size"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// FolderContents is a folder plus its direct children (not a recursive tree)
type FolderContents struct {
	Folder     *Folder   `json:"folder"`
	Subfolders []*Folder `json:"subfolders"`
	Files      []*File   `json:"files"`
}
