package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docstore-backend/internal/blob"
	"docstore-backend/internal/domain"
	"docstore-backend/internal/events"
	apperrors "docstore-backend/pkg/errors"
	"docstore-backend/pkg/logger"
	"docstore-backend/pkg/metrics"
)

// Move relocates a file to another folder. A nil target means the
// organization root. Content and version history are untouched.
func (s *Service) Move(ctx context.Context, fileID uuid.UUID, targetFolderID *uuid.UUID) (*domain.File, error) {
	if targetFolderID != nil {
		if _, err := s.folders.Get(ctx, *targetFolderID); err != nil {
			return nil, err
		}
	}

	unlock := s.fileLocks.Lock(fileID.String())
	defer unlock()

	file, err := s.files.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.IsDeleted() {
		return nil, apperrors.FileNotFoundError()
	}

	oldFolder := file.FolderID
	file.FolderID = targetFolderID
	file.UpdatedAt = time.Now()
	if err := s.files.Update(ctx, file); err != nil {
		return nil, err
	}

	if oldFolder != nil {
		s.refreshFolderStats(ctx, *oldFolder)
	}
	if targetFolderID != nil {
		s.refreshFolderStats(ctx, *targetFolderID)
	}
	s.notifier.Publish(events.FileMoved, map[string]interface{}{
		"file_id":         file.ID.String(),
		"organization_id": file.OrganizationID.String(),
		"folder_id":       folderIDString(targetFolderID),
	})
	return file, nil
}

// Copy duplicates the current version of a file into the target folder
// as a fresh logical file with no history. The source is never mutated;
// a failure at any step leaves nothing behind.
func (s *Service) Copy(ctx context.Context, fileID uuid.UUID, targetFolderID *uuid.UUID, userID uuid.UUID) (*domain.File, error) {
	src, err := s.files.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if src.IsDeleted() {
		return nil, apperrors.FileNotFoundError()
	}
	if targetFolderID != nil {
		if _, err := s.folders.Get(ctx, *targetFolderID); err != nil {
			return nil, err
		}
	}

	if err := s.quota.Reserve(src.OrganizationID, src.Category, src.Size, 1); err != nil {
		metrics.RecordQuotaRejection()
		return nil, err
	}

	storageKey := blob.NewKey(src.OrganizationID)
	if err := s.blobs.Copy(ctx, src.StorageKey, storageKey); err != nil {
		s.quota.Release(src.OrganizationID, src.Category, src.Size, 1)
		return nil, err
	}

	now := time.Now()
	copyFile := &domain.File{
		ID:                uuid.New(),
		Name:              s.cfg.CopyNamePrefix + src.Name,
		OriginalName:      src.OriginalName,
		MimeType:          src.MimeType,
		Size:              src.Size,
		Category:          src.Category,
		Status:            domain.FileStatusReady,
		AccessLevel:       src.AccessLevel,
		StorageKey:        storageKey,
		Checksum:          src.Checksum,
		ChecksumAlgorithm: src.ChecksumAlgorithm,
		FolderID:          targetFolderID,
		OwnerID:           userID,
		OrganizationID:    src.OrganizationID,
		Tags:              append([]string(nil), src.Tags...),
		Metadata:          cloneMetadata(src.Metadata),
		Version:           1,
		IsEncrypted:       src.IsEncrypted,
		EncryptionKey:     src.EncryptionKey,
		IsCompressed:      src.IsCompressed,
		CompressionAlgo:   src.CompressionAlgo,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.files.Create(ctx, copyFile); err != nil {
		_ = s.blobs.Delete(ctx, storageKey)
		s.quota.Release(src.OrganizationID, src.Category, src.Size, 1)
		return nil, err
	}

	if targetFolderID != nil {
		s.refreshFolderStats(ctx, *targetFolderID)
	}
	s.notifier.Publish(events.FileCopied, map[string]interface{}{
		"file_id":         copyFile.ID.String(),
		"source_file_id":  src.ID.String(),
		"organization_id": src.OrganizationID.String(),
	})
	logger.Info("file copied",
		zap.String("source_id", src.ID.String()),
		zap.String("copy_id", copyFile.ID.String()))
	return copyFile, nil
}

func folderIDString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func cloneMetadata(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
