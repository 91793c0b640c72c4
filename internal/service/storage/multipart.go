package storage

import (
	"context"
	"fmt"
	"sync"
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

// multipartSession buffers the parts of one in-flight chunked upload
type multipartSession struct {
	mu        sync.Mutex
	fileID    uuid.UUID
	fileName  string
	mimeType  string
	userID    uuid.UUID
	orgID     uuid.UUID
	opts      domain.UploadOptions
	totalSize int64
	chunkSize int64
	partCount int
	parts     map[int][]byte
	createdAt time.Time
}

// InitiateMultipartUpload opens a chunked upload session. The declared
// size is validated up front against policy and quota; a placeholder
// record in the UPLOADING state holds the file's identity until the
// session completes.
func (s *Service) InitiateMultipartUpload(ctx context.Context, fileName, mimeType string, totalSize int64, userID, orgID uuid.UUID, opts domain.UploadOptions) (*domain.MultipartInit, error) {
	pol := s.policies.Lookup(opts.Category)

	if fileName == "" {
		return nil, apperrors.ValidationError("File name must not be empty")
	}
	if totalSize <= 0 {
		return nil, apperrors.ValidationError("Declared size must be positive")
	}
	if pol != nil && pol.MaxFileSize > 0 && totalSize > pol.MaxFileSize {
		metrics.RecordUploadRejected("size_exceeded")
		return nil, apperrors.ValidationError(fmt.Sprintf(
			"Declared size %d exceeds the %d byte limit for category %s", totalSize, pol.MaxFileSize, pol.Category))
	}
	if pol != nil && !pol.AllowsMimeType(mimeType) {
		metrics.RecordUploadRejected("invalid_mime")
		return nil, apperrors.ValidationError(fmt.Sprintf(
			"MIME type %s is not allowed for category %s", mimeType, pol.Category))
	}
	if err := s.quota.Check(orgID, totalSize); err != nil {
		metrics.RecordQuotaRejection()
		return nil, err
	}
	if opts.FolderID != nil {
		if _, err := s.folders.Get(ctx, *opts.FolderID); err != nil {
			return nil, err
		}
	}

	uploadID := uuid.NewString()
	chunkSize := s.cfg.MultipartChunkSize
	partCount := int((totalSize + chunkSize - 1) / chunkSize)

	now := time.Now()
	file := &domain.File{
		ID:             uuid.New(),
		Name:           fileName,
		OriginalName:   fileName,
		MimeType:       mimeType,
		Size:           totalSize,
		Category:       opts.Category,
		Status:         domain.FileStatusUploading,
		AccessLevel:    accessLevelOrDefault(opts.AccessLevel),
		FolderID:       opts.FolderID,
		OwnerID:        userID,
		OrganizationID: orgID,
		Tags:           opts.Tags,
		Metadata:       opts.Metadata,
		Version:        1,
		UploadID:       uploadID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.files.Create(ctx, file); err != nil {
		return nil, err
	}

	s.sessions.Store(uploadID, &multipartSession{
		fileID:    file.ID,
		fileName:  fileName,
		mimeType:  mimeType,
		userID:    userID,
		orgID:     orgID,
		opts:      opts,
		totalSize: totalSize,
		chunkSize: chunkSize,
		partCount: partCount,
		parts:     make(map[int][]byte, partCount),
		createdAt: now,
	})

	s.notifier.Publish(events.MultipartInitiated, map[string]interface{}{
		"file_id":         file.ID.String(),
		"upload_id":       uploadID,
		"organization_id": orgID.String(),
		"part_count":      partCount,
	})

	return &domain.MultipartInit{
		FileID:    file.ID,
		UploadID:  uploadID,
		ChunkSize: chunkSize,
		PartCount: partCount,
	}, nil
}

// UploadPart buffers one part of an open session. Parts are 1-based;
// every part except the last must be exactly the chunk size.
func (s *Service) UploadPart(ctx context.Context, uploadID string, partNumber int, data []byte) error {
	sess, err := s.session(uploadID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if partNumber < 1 || partNumber > sess.partCount {
		return apperrors.ValidationError(fmt.Sprintf(
			"Part number %d is out of range 1..%d", partNumber, sess.partCount))
	}
	if len(data) == 0 {
		return apperrors.ValidationError("Part content must not be empty")
	}
	size := int64(len(data))
	if partNumber < sess.partCount && size != sess.chunkSize {
		return apperrors.ValidationError(fmt.Sprintf(
			"Part %d must be exactly %d bytes, got %d", partNumber, sess.chunkSize, size))
	}
	if partNumber == sess.partCount && size > sess.chunkSize {
		return apperrors.ValidationError(fmt.Sprintf(
			"Final part must be at most %d bytes, got %d", sess.chunkSize, size))
	}

	buf := make([]byte, size)
	copy(buf, data)
	sess.parts[partNumber] = buf
	return nil
}

// CompleteMultipartUpload assembles the buffered parts, verifies the
// declared size, reserves the quota and commits the file. Content from
// chunked uploads is stored as-is without compression or encryption.
func (s *Service) CompleteMultipartUpload(ctx context.Context, uploadID string) (*domain.File, error) {
	v, ok := s.sessions.Load(uploadID)
	if !ok {
		// Completed or aborted sessions are gone; completing them again
		// is a state violation, not a lookup miss.
		return nil, apperrors.StateError("Upload is not in the UPLOADING state")
	}
	sess := v.(*multipartSession)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	for p := 1; p <= sess.partCount; p++ {
		if _, ok := sess.parts[p]; !ok {
			return nil, apperrors.StateError(fmt.Sprintf("Part %d is missing", p))
		}
	}

	content := make([]byte, 0, sess.totalSize)
	for p := 1; p <= sess.partCount; p++ {
		content = append(content, sess.parts[p]...)
	}
	if int64(len(content)) != sess.totalSize {
		return nil, apperrors.ValidationError(fmt.Sprintf(
			"Assembled size %d does not match the declared size %d", len(content), sess.totalSize))
	}

	if err := s.quota.Reserve(sess.orgID, sess.opts.Category, sess.totalSize, 1); err != nil {
		metrics.RecordQuotaRejection()
		return nil, err
	}

	storageKey := blob.NewKey(sess.orgID)
	if err := s.blobs.Put(ctx, storageKey, content); err != nil {
		s.quota.Release(sess.orgID, sess.opts.Category, sess.totalSize, 1)
		return nil, err
	}

	file, err := s.files.Get(ctx, sess.fileID)
	if err != nil {
		_ = s.blobs.Delete(ctx, storageKey)
		s.quota.Release(sess.orgID, sess.opts.Category, sess.totalSize, 1)
		return nil, err
	}
	if file.Status != domain.FileStatusUploading {
		_ = s.blobs.Delete(ctx, storageKey)
		s.quota.Release(sess.orgID, sess.opts.Category, sess.totalSize, 1)
		return nil, apperrors.StateError("Upload is not in the UPLOADING state")
	}

	now := time.Now()
	file.Status = domain.FileStatusReady
	file.StorageKey = storageKey
	file.Checksum = cryptoutil.Checksum(content)
	file.ChecksumAlgorithm = cryptoutil.ChecksumAlgorithm
	file.UploadID = ""
	file.UpdatedAt = now
	if err := s.files.Update(ctx, file); err != nil {
		_ = s.blobs.Delete(ctx, storageKey)
		s.quota.Release(sess.orgID, sess.opts.Category, sess.totalSize, 1)
		return nil, err
	}

	s.sessions.Delete(uploadID)
	if file.FolderID != nil {
		s.refreshFolderStats(ctx, *file.FolderID)
	}

	metrics.RecordUpload(string(file.Category), file.Size)
	s.notifier.Publish(events.MultipartCompleted, map[string]interface{}{
		"file_id":         file.ID.String(),
		"upload_id":       uploadID,
		"organization_id": file.OrganizationID.String(),
		"size":            file.Size,
	})
	logger.Info("multipart upload completed",
		zap.String("file_id", file.ID.String()),
		zap.String("upload_id", uploadID),
		zap.Int64("size", file.Size))
	return file, nil
}

// AbortMultipartUpload discards an open session and its placeholder
// record. No quota was committed, so there is nothing to release.
func (s *Service) AbortMultipartUpload(ctx context.Context, uploadID string) error {
	sess, err := s.session(uploadID)
	if err != nil {
		return err
	}
	s.sessions.Delete(uploadID)
	if err := s.files.Delete(ctx, sess.fileID); err != nil {
		logger.Warn("failed to delete placeholder record on abort",
			zap.String("upload_id", uploadID), zap.Error(err))
	}
	return nil
}

func (s *Service) session(uploadID string) (*multipartSession, error) {
	v, ok := s.sessions.Load(uploadID)
	if !ok {
		return nil, apperrors.NotFoundError("Upload session")
	}
	return v.(*multipartSession), nil
}
