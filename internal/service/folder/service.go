// Package folder manages the hierarchical folder tree of an
// organization. File content operations live in the storage service;
// this package owns structure, paths and emptiness rules.
package folder

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docstore-backend/internal/domain"
	"docstore-backend/internal/events"
	"docstore-backend/internal/repository"
	"docstore-backend/internal/service/storage"
	apperrors "docstore-backend/pkg/errors"
	"docstore-backend/pkg/logger"
)

// Service implements the folder tree operations
type Service struct {
	folders  repository.FolderRepository
	files    repository.FileRepository
	storage  *storage.Service
	notifier *events.Notifier
}

// NewService creates the folder service. The storage service is needed
// for recursive deletion, which reclaims file content and quota.
func NewService(
	folders repository.FolderRepository,
	files repository.FileRepository,
	storageSvc *storage.Service,
	notifier *events.Notifier,
) *Service {
	return &Service{
		folders:  folders,
		files:    files,
		storage:  storageSvc,
		notifier: notifier,
	}
}

// CreateRequest carries the parameters for a new folder
type CreateRequest struct {
	Name        string                 `json:"name"`
	ParentID    *uuid.UUID             `json:"parent_id,omitempty"`
	AccessLevel domain.AccessLevel     `json:"access_level,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	OwnerID     uuid.UUID              `json:"-"`
	OrgID       uuid.UUID              `json:"-"`
}

// CreateFolder creates a folder under the given parent, or at the
// organization root when ParentID is nil. Sibling names are unique.
func (s *Service) CreateFolder(ctx context.Context, req CreateRequest) (*domain.Folder, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.ValidationError("Folder name must not be empty")
	}
	if strings.Contains(name, "/") {
		return nil, apperrors.ValidationError("Folder name must not contain '/'")
	}

	path := "/" + name
	if req.ParentID != nil {
		parent, err := s.folders.Get(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.OrganizationID != req.OrgID {
			return nil, apperrors.NotFoundError("Folder")
		}
		path = parent.Path + "/" + name
	}

	siblings, err := s.folders.ListChildren(ctx, req.OrgID, req.ParentID)
	if err != nil {
		return nil, err
	}
	for _, sib := range siblings {
		if sib.Name == name {
			return nil, apperrors.StateError("A folder with this name already exists here")
		}
	}

	accessLevel := req.AccessLevel
	if accessLevel == "" {
		accessLevel = domain.AccessPrivate
	}

	now := time.Now()
	folder := &domain.Folder{
		ID:             uuid.New(),
		Name:           name,
		ParentID:       req.ParentID,
		Path:           path,
		OwnerID:        req.OwnerID,
		OrganizationID: req.OrgID,
		AccessLevel:    accessLevel,
		Metadata:       req.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.folders.Create(ctx, folder); err != nil {
		return nil, err
	}

	s.notifier.Publish(events.FolderCreated, map[string]interface{}{
		"folder_id":       folder.ID.String(),
		"organization_id": folder.OrganizationID.String(),
		"path":            folder.Path,
	})
	logger.Info("folder created",
		zap.String("folder_id", folder.ID.String()),
		zap.String("path", folder.Path))
	return folder, nil
}

// GetFolder returns a folder's metadata
func (s *Service) GetFolder(ctx context.Context, folderID uuid.UUID) (*domain.Folder, error) {
	return s.folders.Get(ctx, folderID)
}

// ListFolders lists the direct subfolders of a parent; a nil parent
// lists the organization root
func (s *Service) ListFolders(ctx context.Context, orgID uuid.UUID, parentID *uuid.UUID) ([]*domain.Folder, error) {
	return s.folders.ListChildren(ctx, orgID, parentID)
}

// GetFolderContents returns a folder together with its direct
// subfolders and its non-deleted files
func (s *Service) GetFolderContents(ctx context.Context, folderID uuid.UUID) (*domain.FolderContents, error) {
	folder, err := s.folders.Get(ctx, folderID)
	if err != nil {
		return nil, err
	}
	subfolders, err := s.folders.ListChildren(ctx, folder.OrganizationID, &folder.ID)
	if err != nil {
		return nil, err
	}
	files, err := s.files.ListByFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	visible := files[:0]
	for _, f := range files {
		if !f.IsDeleted() {
			visible = append(visible, f)
		}
	}
	return &domain.FolderContents{
		Folder:     folder,
		Subfolders: subfolders,
		Files:      visible,
	}, nil
}

// DeleteFolder removes a folder. Without recursive it fails unless the
// folder has no subfolders and no files at all; soft-deleted files count
// as content since they remain restorable. With recursive it removes the
// subtree depth-first, permanently deleting every file; a file under
// retention aborts the deletion.
func (s *Service) DeleteFolder(ctx context.Context, folderID uuid.UUID, recursive bool) error {
	folder, err := s.folders.Get(ctx, folderID)
	if err != nil {
		return err
	}

	subfolders, err := s.folders.ListChildren(ctx, folder.OrganizationID, &folder.ID)
	if err != nil {
		return err
	}
	files, err := s.files.ListByFolder(ctx, folderID)
	if err != nil {
		return err
	}

	// Soft-deleted files still occupy quota and can be restored, so they
	// keep the folder non-empty.
	if !recursive && (len(subfolders) > 0 || len(files) > 0) {
		return apperrors.StateError("Folder is not empty")
	}

	for _, sub := range subfolders {
		if err := s.DeleteFolder(ctx, sub.ID, true); err != nil {
			return err
		}
	}
	for _, f := range files {
		if err := s.storage.Delete(ctx, f.ID, true); err != nil {
			return err
		}
	}

	if err := s.folders.Delete(ctx, folderID); err != nil {
		return err
	}

	s.notifier.Publish(events.FolderDeleted, map[string]interface{}{
		"folder_id":       folder.ID.String(),
		"organization_id": folder.OrganizationID.String(),
		"path":            folder.Path,
	})
	logger.Info("folder deleted",
		zap.String("folder_id", folder.ID.String()),
		zap.String("path", folder.Path),
		zap.Bool("recursive", recursive))
	return nil
}
