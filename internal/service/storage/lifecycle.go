package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docstore-backend/internal/domain"
	"docstore-backend/internal/events"
	apperrors "docstore-backend/pkg/errors"
	"docstore-backend/pkg/logger"
	"docstore-backend/pkg/metrics"
)

// Delete removes a file. A soft delete flips the status and keeps the
// blobs so the file can be restored; a permanent delete reclaims every
// version's blob and releases the quota. Permanent deletion is blocked
// while a retention deadline is active.
func (s *Service) Delete(ctx context.Context, fileID uuid.UUID, permanent bool) error {
	unlock := s.fileLocks.Lock(fileID.String())
	defer unlock()

	file, err := s.files.Get(ctx, fileID)
	if err != nil {
		return err
	}

	if !permanent {
		if file.IsDeleted() {
			return apperrors.StateError("File is already deleted")
		}
		now := time.Now()
		file.Status = domain.FileStatusDeleted
		file.DeletedAt = &now
		file.UpdatedAt = now
		if err := s.files.Update(ctx, file); err != nil {
			return err
		}
		if file.FolderID != nil {
			s.refreshFolderStats(ctx, *file.FolderID)
		}
		metrics.RecordDelete("soft")
		s.notifier.Publish(events.FileDeleted, map[string]interface{}{
			"file_id":         file.ID.String(),
			"organization_id": file.OrganizationID.String(),
			"permanent":       false,
		})
		return nil
	}

	if file.UnderRetention(time.Now()) {
		return apperrors.RetentionViolationError(
			"File is under a retention policy and cannot be permanently deleted")
	}

	for _, v := range file.Versions {
		if err := s.blobs.Delete(ctx, v.StorageKey); err != nil {
			logger.Warn("failed to delete version blob",
				zap.String("file_id", fileID.String()),
				zap.Int("version", v.Version), zap.Error(err))
		}
	}
	if err := s.blobs.Delete(ctx, file.StorageKey); err != nil {
		logger.Warn("failed to delete blob",
			zap.String("file_id", fileID.String()), zap.Error(err))
	}
	if err := s.files.Delete(ctx, fileID); err != nil {
		return err
	}
	s.quota.Release(file.OrganizationID, file.Category, file.Size, 1)

	if file.FolderID != nil {
		s.refreshFolderStats(ctx, *file.FolderID)
	}
	metrics.RecordDelete("permanent")
	s.notifier.Publish(events.FileDeleted, map[string]interface{}{
		"file_id":         file.ID.String(),
		"organization_id": file.OrganizationID.String(),
		"permanent":       true,
	})
	logger.Info("file permanently deleted",
		zap.String("file_id", fileID.String()),
		zap.Int64("size", file.Size))
	return nil
}

// Restore brings a soft-deleted file back to the ready state
func (s *Service) Restore(ctx context.Context, fileID uuid.UUID) (*domain.File, error) {
	unlock := s.fileLocks.Lock(fileID.String())
	defer unlock()

	file, err := s.files.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !file.IsDeleted() {
		return nil, apperrors.StateError("File is not deleted")
	}

	file.Status = domain.FileStatusReady
	file.DeletedAt = nil
	file.UpdatedAt = time.Now()
	if err := s.files.Update(ctx, file); err != nil {
		return nil, err
	}
	if file.FolderID != nil {
		s.refreshFolderStats(ctx, *file.FolderID)
	}
	s.notifier.Publish(events.FileRestored, map[string]interface{}{
		"file_id":         file.ID.String(),
		"organization_id": file.OrganizationID.String(),
	})
	return file, nil
}

// Archive moves a ready file to cold status. Content stays in place and
// downloads keep working.
func (s *Service) Archive(ctx context.Context, fileID uuid.UUID) (*domain.File, error) {
	unlock := s.fileLocks.Lock(fileID.String())
	defer unlock()

	file, err := s.files.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.IsDeleted() {
		return nil, apperrors.FileNotFoundError()
	}
	if file.Status == domain.FileStatusArchived {
		return file, nil
	}

	file.Status = domain.FileStatusArchived
	file.UpdatedAt = time.Now()
	if err := s.files.Update(ctx, file); err != nil {
		return nil, err
	}
	s.notifier.Publish(events.FileArchived, map[string]interface{}{
		"file_id":         file.ID.String(),
		"organization_id": file.OrganizationID.String(),
	})
	return file, nil
}

// SweepResult summarizes one lifecycle sweep pass
type SweepResult struct {
	Scanned  int `json:"scanned"`
	Archived int `json:"archived"`
	Deleted  int `json:"deleted"`
}

// RunLifecycleSweep walks all active files and applies expiry and the
// per-category auto-archive and auto-delete rules. Auto-delete is a
// soft delete so the retention gates stay in force.
func (s *Service) RunLifecycleSweep(ctx context.Context) (SweepResult, error) {
	files, err := s.files.ListActive(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	now := time.Now()
	res := SweepResult{Scanned: len(files)}
	for _, f := range files {
		pol := s.policies.Lookup(f.Category)

		if f.ExpiresAt != nil && now.After(*f.ExpiresAt) {
			if err := s.Delete(ctx, f.ID, false); err == nil {
				res.Deleted++
			}
			continue
		}
		if pol == nil {
			continue
		}
		if pol.AutoDeleteDays > 0 && now.Sub(f.CreatedAt) > daysToDuration(pol.AutoDeleteDays) {
			if err := s.Delete(ctx, f.ID, false); err == nil {
				res.Deleted++
			}
			continue
		}
		if pol.AutoArchiveDays > 0 && f.Status == domain.FileStatusReady {
			idleSince := f.UpdatedAt
			if f.LastAccessedAt != nil && f.LastAccessedAt.After(idleSince) {
				idleSince = *f.LastAccessedAt
			}
			if now.Sub(idleSince) > daysToDuration(pol.AutoArchiveDays) {
				if _, err := s.Archive(ctx, f.ID); err == nil {
					res.Archived++
				}
			}
		}
	}

	if res.Archived > 0 || res.Deleted > 0 {
		logger.Info("lifecycle sweep finished",
			zap.Int("scanned", res.Scanned),
			zap.Int("archived", res.Archived),
			zap.Int("deleted", res.Deleted))
	}
	return res, nil
}

func daysToDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
