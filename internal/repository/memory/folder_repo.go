package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"docstore-backend/internal/domain"
	apperrors "docstore-backend/pkg/errors"
)

// FolderRepository is a map-backed folder store
type FolderRepository struct {
	mu      sync.RWMutex
	folders map[uuid.UUID]*domain.Folder
}

// NewFolderRepository creates an empty in-memory folder repository
func NewFolderRepository() *FolderRepository {
	return &FolderRepository{folders: make(map[uuid.UUID]*domain.Folder)}
}

// Create stores a new folder record
func (r *FolderRepository) Create(_ context.Context, folder *domain.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.folders[folder.ID]; exists {
		return apperrors.StateError("Folder already exists")
	}
	r.folders[folder.ID] = cloneFolder(folder)
	return nil
}

// Get returns a copy of the folder record
func (r *FolderRepository) Get(_ context.Context, id uuid.UUID) (*domain.Folder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.folders[id]
	if !ok {
		return nil, apperrors.NotFoundError("Folder")
	}
	return cloneFolder(f), nil
}

// Update replaces an existing folder record
func (r *FolderRepository) Update(_ context.Context, folder *domain.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[folder.ID]; !ok {
		return apperrors.NotFoundError("Folder")
	}
	r.folders[folder.ID] = cloneFolder(folder)
	return nil
}

// Delete removes the folder record
func (r *FolderRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[id]; !ok {
		return apperrors.NotFoundError("Folder")
	}
	delete(r.folders, id)
	return nil
}

// ListChildren returns the direct subfolders of parentID
func (r *FolderRepository) ListChildren(_ context.Context, orgID uuid.UUID, parentID *uuid.UUID) ([]*domain.Folder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Folder
	for _, f := range r.folders {
		if f.OrganizationID != orgID {
			continue
		}
		if !sameFolder(f.ParentID, parentID) {
			continue
		}
		out = append(out, cloneFolder(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func cloneFolder(f *domain.Folder) *domain.Folder {
	c := *f
	if f.ParentID != nil {
		id := *f.ParentID
		c.ParentID = &id
	}
	if f.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(f.Metadata))
		for k, v := range f.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
