package storage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"docstore-backend/internal/domain"
	"docstore-backend/internal/events"
	apperrors "docstore-backend/pkg/errors"
)

// GetFile returns the metadata of a file, soft-deleted included so
// callers can inspect and restore it
func (s *Service) GetFile(ctx context.Context, fileID uuid.UUID) (*domain.File, error) {
	return s.files.Get(ctx, fileID)
}

// GetFileVersions returns the full version history, current version
// first followed by the superseded snapshots newest to oldest
func (s *Service) GetFileVersions(ctx context.Context, fileID uuid.UUID) ([]domain.FileVersion, error) {
	file, err := s.files.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}

	versions := make([]domain.FileVersion, 0, len(file.Versions)+1)
	versions = append(versions, domain.FileVersion{
		Version:      file.Version,
		StorageKey:   file.StorageKey,
		Size:         file.Size,
		Checksum:     file.Checksum,
		UploadedBy:   file.OwnerID,
		UploadedAt:   file.UpdatedAt,
		Comment:      file.VersionComment,
		IsEncrypted:  file.IsEncrypted,
		IsCompressed: file.IsCompressed,
	})
	for i := len(file.Versions) - 1; i >= 0; i-- {
		v := file.Versions[i]
		v.EncryptionKey = ""
		versions = append(versions, v)
	}
	return versions, nil
}

// ListFiles lists an organization's files matching the filter,
// newest first
func (s *Service) ListFiles(ctx context.Context, orgID uuid.UUID, filter domain.FileFilter) ([]*domain.File, error) {
	return s.files.List(ctx, orgID, filter)
}

// SearchFiles matches the query against file names and tags,
// case-insensitive
func (s *Service) SearchFiles(ctx context.Context, orgID uuid.UUID, query string) ([]*domain.File, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ValidationError("Search query must not be empty")
	}
	return s.files.Search(ctx, orgID, query)
}

// GetQuota returns a snapshot of an organization's quota usage
func (s *Service) GetQuota(ctx context.Context, orgID uuid.UUID) (*domain.StorageQuota, error) {
	return s.quota.Get(orgID), nil
}

// UpdateFileMetadata applies a partial metadata update. Content,
// versions and quota are unaffected.
func (s *Service) UpdateFileMetadata(ctx context.Context, fileID uuid.UUID, update domain.MetadataUpdate) (*domain.File, error) {
	unlock := s.fileLocks.Lock(fileID.String())
	defer unlock()

	file, err := s.files.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.IsDeleted() {
		return nil, apperrors.FileNotFoundError()
	}

	if update.Name != nil {
		if *update.Name == "" {
			return nil, apperrors.ValidationError("File name must not be empty")
		}
		file.Name = *update.Name
	}
	if update.Tags != nil {
		file.Tags = update.Tags
	}
	if update.AccessLevel != nil {
		file.AccessLevel = *update.AccessLevel
	}
	if update.Metadata != nil {
		if file.Metadata == nil {
			file.Metadata = make(map[string]interface{}, len(update.Metadata))
		}
		for k, v := range update.Metadata {
			if v == nil {
				delete(file.Metadata, k)
				continue
			}
			file.Metadata[k] = v
		}
	}

	file.UpdatedAt = time.Now()
	if err := s.files.Update(ctx, file); err != nil {
		return nil, err
	}

	s.notifier.Publish(events.FileMetadataUpdated, map[string]interface{}{
		"file_id":         file.ID.String(),
		"organization_id": file.OrganizationID.String(),
	})
	return file, nil
}
