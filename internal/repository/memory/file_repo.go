// Package memory provides the in-memory reference implementations of the
// repository interfaces: plain maps guarded by RWMutex, returning copies
// so callers never share mutable state with the store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docstore-backend/internal/domain"
	apperrors "docstore-backend/pkg/errors"
)

// FileRepository is a map-backed file metadata store
type FileRepository struct {
	mu    sync.RWMutex
	files map[uuid.UUID]*domain.File
}

// NewFileRepository creates an empty in-memory file repository
func NewFileRepository() *FileRepository {
	return &FileRepository{files: make(map[uuid.UUID]*domain.File)}
}

// Create stores a new file record
func (r *FileRepository) Create(_ context.Context, file *domain.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.files[file.ID]; exists {
		return apperrors.StateError("File already exists")
	}
	r.files[file.ID] = cloneFile(file)
	return nil
}

// Get returns a copy of the file record
func (r *FileRepository) Get(_ context.Context, id uuid.UUID) (*domain.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[id]
	if !ok {
		return nil, apperrors.FileNotFoundError()
	}
	return cloneFile(f), nil
}

// Update replaces an existing file record
func (r *FileRepository) Update(_ context.Context, file *domain.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[file.ID]; !ok {
		return apperrors.FileNotFoundError()
	}
	r.files[file.ID] = cloneFile(file)
	return nil
}

// Delete removes the record permanently
func (r *FileRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[id]; !ok {
		return apperrors.FileNotFoundError()
	}
	delete(r.files, id)
	return nil
}

// FindActiveByName locates a non-deleted file by org, folder and name
func (r *FileRepository) FindActiveByName(_ context.Context, orgID uuid.UUID, folderID *uuid.UUID, name string) (*domain.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.files {
		if f.OrganizationID != orgID || f.IsDeleted() || f.Name != name {
			continue
		}
		if !sameFolder(f.FolderID, folderID) {
			continue
		}
		return cloneFile(f), nil
	}
	return nil, apperrors.FileNotFoundError()
}

// List returns the organization's files matching the filter
func (r *FileRepository) List(_ context.Context, orgID uuid.UUID, filter domain.FileFilter) ([]*domain.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.File
	for _, f := range r.files {
		if f.OrganizationID != orgID {
			continue
		}
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if filter.Status == "" && f.IsDeleted() {
			continue
		}
		if filter.Category != "" && f.Category != filter.Category {
			continue
		}
		if filter.FolderID != nil && !sameFolder(f.FolderID, filter.FolderID) {
			continue
		}
		if filter.Tag != "" && !hasTag(f, filter.Tag) {
			continue
		}
		out = append(out, cloneFile(f))
	}
	sortByCreated(out)
	return out, nil
}

// ListByFolder returns all files directly inside a folder
func (r *FileRepository) ListByFolder(_ context.Context, folderID uuid.UUID) ([]*domain.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.File
	for _, f := range r.files {
		if f.FolderID != nil && *f.FolderID == folderID {
			out = append(out, cloneFile(f))
		}
	}
	sortByCreated(out)
	return out, nil
}

// Search returns non-deleted files whose name or tags contain the query
// (case-insensitive)
func (r *FileRepository) Search(_ context.Context, orgID uuid.UUID, query string) ([]*domain.File, error) {
	q := strings.ToLower(query)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.File
	for _, f := range r.files {
		if f.OrganizationID != orgID || f.IsDeleted() {
			continue
		}
		if strings.Contains(strings.ToLower(f.Name), q) || tagMatches(f, q) {
			out = append(out, cloneFile(f))
		}
	}
	sortByCreated(out)
	return out, nil
}

func tagMatches(f *domain.File, q string) bool {
	for _, t := range f.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// ListActive returns every non-deleted file across all organizations
func (r *FileRepository) ListActive(_ context.Context) ([]*domain.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.File
	for _, f := range r.files {
		if !f.IsDeleted() {
			out = append(out, cloneFile(f))
		}
	}
	sortByCreated(out)
	return out, nil
}

func sameFolder(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func hasTag(f *domain.File, tag string) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func sortByCreated(files []*domain.File) {
	sort.Slice(files, func(i, j int) bool {
		if files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].ID.String() < files[j].ID.String()
		}
		return files[i].CreatedAt.Before(files[j].CreatedAt)
	})
}

func cloneFile(f *domain.File) *domain.File {
	c := *f
	if f.FolderID != nil {
		id := *f.FolderID
		c.FolderID = &id
	}
	c.Tags = append([]string(nil), f.Tags...)
	c.Versions = append([]domain.FileVersion(nil), f.Versions...)
	if f.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(f.Metadata))
		for k, v := range f.Metadata {
			c.Metadata[k] = v
		}
	}
	c.RetentionUntil = cloneTime(f.RetentionUntil)
	c.LastAccessedAt = cloneTime(f.LastAccessedAt)
	c.ExpiresAt = cloneTime(f.ExpiresAt)
	c.DeletedAt = cloneTime(f.DeletedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
