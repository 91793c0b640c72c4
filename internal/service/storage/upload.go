package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docstore-backend/internal/blob"
	"docstore-backend/internal/domain"
	"docstore-backend/internal/events"
	"docstore-backend/pkg/cryptoutil"
	apperrors "docstore-backend/pkg/errors"
	"docstore-backend/pkg/logger"
	"docstore-backend/pkg/metrics"
)

// Upload runs the single-shot upload pipeline: validation, quota
// reservation, versioning decision, transforms, blob write, metadata
// commit. Failure at any gate leaves no persisted state behind.
func (s *Service) Upload(ctx context.Context, req domain.UploadRequest) (*domain.File, error) {
	pol := s.policies.Lookup(req.Options.Category)

	if err := s.validateUpload(req, pol); err != nil {
		return nil, err
	}

	if req.Options.FolderID != nil {
		if _, err := s.folders.Get(ctx, *req.Options.FolderID); err != nil {
			return nil, err
		}
	}

	// Versioning decision: a matching active file turns this upload
	// into version N+1 instead of a new logical file
	if req.Options.Version {
		existing, err := s.files.FindActiveByName(ctx, req.OrgID, req.Options.FolderID, req.FileName)
		if err == nil {
			return s.uploadNewVersion(ctx, existing.ID, req)
		}
		if !apperrors.IsCode(err, apperrors.ErrCodeFileNotFound) {
			return nil, err
		}
	}

	checksum := cryptoutil.Checksum(req.Content)
	stored, compressed, encrypted, key, err := s.transform(req.Content, req.Options, pol)
	if err != nil {
		return nil, err
	}

	size := int64(len(req.Content))
	if err := s.quota.Reserve(req.OrgID, req.Options.Category, size, 1); err != nil {
		metrics.RecordQuotaRejection()
		return nil, err
	}

	storageKey := blob.NewKey(req.OrgID)
	if err := s.blobs.Put(ctx, storageKey, stored); err != nil {
		s.quota.Release(req.OrgID, req.Options.Category, size, 1)
		return nil, err
	}

	now := time.Now()
	file := &domain.File{
		ID:                uuid.New(),
		Name:              req.FileName,
		OriginalName:      req.FileName,
		MimeType:          req.MimeType,
		Size:              size,
		Category:          req.Options.Category,
		Status:            domain.FileStatusReady,
		AccessLevel:       accessLevelOrDefault(req.Options.AccessLevel),
		StorageKey:        storageKey,
		Checksum:          checksum,
		ChecksumAlgorithm: cryptoutil.ChecksumAlgorithm,
		FolderID:          req.Options.FolderID,
		OwnerID:           req.UserID,
		OrganizationID:    req.OrgID,
		Tags:              req.Options.Tags,
		Metadata:          req.Options.Metadata,
		Version:           1,
		IsEncrypted:       encrypted,
		EncryptionKey:     key,
		IsCompressed:      compressed,
		VersionComment:    req.Options.Comment,
		ExpiresAt:         req.Options.ExpiresAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if compressed {
		file.CompressionAlgo = cryptoutil.CompressionAlgorithm
	}
	if pol != nil && pol.RetentionDays > 0 {
		until := now.AddDate(0, 0, pol.RetentionDays)
		file.RetentionPolicyID = pol.ID
		file.RetentionUntil = &until
	}

	if err := s.files.Create(ctx, file); err != nil {
		_ = s.blobs.Delete(ctx, storageKey)
		s.quota.Release(req.OrgID, req.Options.Category, size, 1)
		return nil, err
	}

	if file.FolderID != nil {
		s.refreshFolderStats(ctx, *file.FolderID)
	}

	metrics.RecordUpload(string(file.Category), size)
	s.notifier.Publish(events.FileUploaded, map[string]interface{}{
		"file_id":         file.ID.String(),
		"organization_id": file.OrganizationID.String(),
		"size":            file.Size,
		"category":        string(file.Category),
		"version":         file.Version,
	})
	logger.Info("file uploaded",
		zap.String("file_id", file.ID.String()),
		zap.String("org_id", file.OrganizationID.String()),
		zap.Int64("size", size),
		zap.String("category", string(file.Category)))

	return file, nil
}

// uploadNewVersion supersedes the current version of an existing
// logical file. The per-file lock serializes concurrent re-uploads.
func (s *Service) uploadNewVersion(ctx context.Context, fileID uuid.UUID, req domain.UploadRequest) (*domain.File, error) {
	unlock := s.fileLocks.Lock(fileID.String())
	defer unlock()

	file, err := s.files.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.IsDeleted() {
		return nil, apperrors.StateError("Cannot add a version to a deleted file")
	}

	// The stored category governs transforms and the history bound,
	// whatever category the re-upload request carries
	pol := s.policies.Lookup(file.Category)

	checksum := cryptoutil.Checksum(req.Content)
	stored, compressed, encrypted, key, err := s.transform(req.Content, req.Options, pol)
	if err != nil {
		return nil, err
	}

	size := int64(len(req.Content))
	delta := size - file.Size
	if delta > 0 {
		if err := s.quota.Reserve(req.OrgID, file.Category, delta, 0); err != nil {
			metrics.RecordQuotaRejection()
			return nil, err
		}
	}

	storageKey := blob.NewKey(req.OrgID)
	if err := s.blobs.Put(ctx, storageKey, stored); err != nil {
		if delta > 0 {
			s.quota.Release(req.OrgID, file.Category, delta, 0)
		}
		return nil, err
	}

	// Snapshot the superseded version before overwriting the record
	snapshot := domain.FileVersion{
		Version:       file.Version,
		StorageKey:    file.StorageKey,
		Size:          file.Size,
		Checksum:      file.Checksum,
		UploadedBy:    file.OwnerID,
		UploadedAt:    file.UpdatedAt,
		Comment:       file.VersionComment,
		IsEncrypted:   file.IsEncrypted,
		EncryptionKey: file.EncryptionKey,
		IsCompressed:  file.IsCompressed,
	}
	file.Versions = append(file.Versions, snapshot)

	// History is bounded by the policy's maxVersions; the current
	// version counts against the bound, oldest entries go first
	var evicted []string
	if pol != nil && pol.MaxVersions > 0 {
		for len(file.Versions) > pol.MaxVersions-1 {
			evicted = append(evicted, file.Versions[0].StorageKey)
			file.Versions = file.Versions[1:]
		}
	}

	now := time.Now()
	file.Version++
	file.Size = size
	file.MimeType = req.MimeType
	file.StorageKey = storageKey
	file.Checksum = checksum
	file.ChecksumAlgorithm = cryptoutil.ChecksumAlgorithm
	file.IsEncrypted = encrypted
	file.EncryptionKey = key
	file.IsCompressed = compressed
	file.CompressionAlgo = ""
	if compressed {
		file.CompressionAlgo = cryptoutil.CompressionAlgorithm
	}
	file.VersionComment = req.Options.Comment
	file.UpdatedAt = now

	if err := s.files.Update(ctx, file); err != nil {
		_ = s.blobs.Delete(ctx, storageKey)
		if delta > 0 {
			s.quota.Release(req.OrgID, file.Category, delta, 0)
		}
		return nil, err
	}

	if delta < 0 {
		s.quota.Release(req.OrgID, file.Category, -delta, 0)
	}
	for _, k := range evicted {
		_ = s.blobs.Delete(ctx, k)
	}
	if file.FolderID != nil {
		s.refreshFolderStats(ctx, *file.FolderID)
	}

	metrics.RecordUpload(string(file.Category), size)
	s.notifier.Publish(events.FileUploaded, map[string]interface{}{
		"file_id":         file.ID.String(),
		"organization_id": file.OrganizationID.String(),
		"size":            file.Size,
		"category":        string(file.Category),
		"version":         file.Version,
	})
	logger.Info("file version uploaded",
		zap.String("file_id", file.ID.String()),
		zap.Int("version", file.Version),
		zap.Int64("size", size))

	return file, nil
}

// validateUpload applies the hard validation gates before any state change
func (s *Service) validateUpload(req domain.UploadRequest, pol *domain.StoragePolicy) error {
	if req.FileName == "" {
		metrics.RecordUploadRejected("empty_filename")
		return apperrors.ValidationError("File name must not be empty")
	}
	if len(req.Content) == 0 {
		metrics.RecordUploadRejected("empty_content")
		return apperrors.ValidationError("File content must not be empty")
	}

	size := int64(len(req.Content))
	if pol != nil && pol.MaxFileSize > 0 && size > pol.MaxFileSize {
		metrics.RecordUploadRejected("size_exceeded")
		return apperrors.ValidationError(fmt.Sprintf(
			"File size %d exceeds the %d byte limit for category %s", size, pol.MaxFileSize, pol.Category))
	}
	if orgMax := s.quota.MaxFileSize(req.OrgID); orgMax > 0 && size > orgMax {
		metrics.RecordUploadRejected("size_exceeded")
		return apperrors.ValidationError(fmt.Sprintf(
			"File size %d exceeds the organization limit of %d bytes", size, orgMax))
	}
	if pol != nil && !pol.AllowsMimeType(req.MimeType) {
		metrics.RecordUploadRejected("invalid_mime")
		return apperrors.ValidationError(fmt.Sprintf(
			"MIME type %s is not allowed for category %s", req.MimeType, pol.Category))
	}
	return nil
}

// transform applies compression then encryption as requested by the
// caller or required by policy. Encryption is always the last transform
// applied and the first reversed on download.
func (s *Service) transform(content []byte, opts domain.UploadOptions, pol *domain.StoragePolicy) (stored []byte, compressed, encrypted bool, key string, err error) {
	stored = content

	compressed = opts.Compress || (pol != nil && pol.RequireCompression)
	if compressed {
		stored, err = cryptoutil.Compress(stored)
		if err != nil {
			return nil, false, false, "", apperrors.StorageError(err)
		}
	}

	encrypted = opts.Encrypt || (pol != nil && pol.RequireEncryption)
	if encrypted {
		key, err = cryptoutil.GenerateKey()
		if err != nil {
			return nil, false, false, "", apperrors.StorageError(err)
		}
		stored, err = cryptoutil.Encrypt(stored, key)
		if err != nil {
			return nil, false, false, "", apperrors.StorageError(err)
		}
	}
	return stored, compressed, encrypted, key, nil
}

func accessLevelOrDefault(level domain.AccessLevel) domain.AccessLevel {
	if level == "" {
		return domain.AccessPrivate
	}
	return level
}

// refreshFolderStats recomputes a folder's aggregate file count and
// total size from its direct children
func (s *Service) refreshFolderStats(ctx context.Context, folderID uuid.UUID) {
	unlock := s.folderLocks.Lock(folderID.String())
	defer unlock()

	folder, err := s.folders.Get(ctx, folderID)
	if err != nil {
		return
	}
	files, err := s.files.ListByFolder(ctx, folderID)
	if err != nil {
		return
	}

	var count int
	var total int64
	for _, f := range files {
		if f.IsDeleted() {
			continue
		}
		count++
		total += f.Size
	}
	folder.FileCount = count
	folder.TotalSize = total
	folder.UpdatedAt = time.Now()
	if err := s.folders.Update(ctx, folder); err != nil {
		logger.Warn("failed to update folder stats",
			zap.String("folder_id", folderID.String()), zap.Error(err))
	}
}
