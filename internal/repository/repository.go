// Package repository defines the persistence interfaces of the metadata
// catalog. The engine is written against these interfaces only, so the
// in-memory reference implementation and a real database are
// interchangeable without touching pipeline logic.
package repository

import (
	"context"

	"github.com/google/uuid"

	"docstore-backend/internal/domain"
)

// FileRepository is the single writer of FileMetadata records
type FileRepository interface {
	Create(ctx context.Context, file *domain.File) error
	Get(ctx context.Context, id uuid.UUID) (*domain.File, error)
	Update(ctx context.Context, file *domain.File) error
	// Delete removes the record permanently; soft deletion is a status
	// change applied through Update
	Delete(ctx context.Context, id uuid.UUID) error
	// FindActiveByName locates a non-deleted file by organization, folder
	// and name, used by the versioning decision on upload
	FindActiveByName(ctx context.Context, orgID uuid.UUID, folderID *uuid.UUID, name string) (*domain.File, error)
	// List returns the organization's files matching the filter
	List(ctx context.Context, orgID uuid.UUID, filter domain.FileFilter) ([]*domain.File, error)
	// ListByFolder returns all files directly inside a folder, including
	// soft-deleted ones (aggregate recomputes exclude them by status)
	ListByFolder(ctx context.Context, folderID uuid.UUID) ([]*domain.File, error)
	// Search returns non-deleted files whose name contains the query
	Search(ctx context.Context, orgID uuid.UUID, query string) ([]*domain.File, error)
	// ListActive returns every non-deleted file across all organizations;
	// used by the lifecycle sweep
	ListActive(ctx context.Context) ([]*domain.File, error)
}

// FolderRepository is the single writer of Folder records
type FolderRepository interface {
	Create(ctx context.Context, folder *domain.Folder) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Folder, error)
	Update(ctx context.Context, folder *domain.Folder) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListChildren returns the direct subfolders of parentID; a nil
	// parent lists the organization's root folders
	ListChildren(ctx context.Context, orgID uuid.UUID, parentID *uuid.UUID) ([]*domain.Folder, error)
}

// BulkOperationRepository stores bulk operation records for polling
type BulkOperationRepository interface {
	Create(ctx context.Context, op *domain.BulkOperation) error
	Get(ctx context.Context, id uuid.UUID) (*domain.BulkOperation, error)
	Update(ctx context.Context, op *domain.BulkOperation) error
}
