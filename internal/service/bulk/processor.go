// Package bulk runs asynchronous batch operations over lists of files.
// A submission returns immediately with a trackable record; items are
// processed sequentially in the background and one file's failure never
// stops the rest of the batch.
package bulk

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docstore-backend/internal/domain"
	"docstore-backend/internal/events"
	"docstore-backend/internal/repository"
	"docstore-backend/internal/service/storage"
	apperrors "docstore-backend/pkg/errors"
	"docstore-backend/pkg/logger"
	"docstore-backend/pkg/metrics"
)

// Processor executes bulk operations against the storage service
type Processor struct {
	ops      repository.BulkOperationRepository
	storage  *storage.Service
	notifier *events.Notifier

	wg sync.WaitGroup
}

// NewProcessor creates the bulk operation processor
func NewProcessor(ops repository.BulkOperationRepository, storageSvc *storage.Service, notifier *events.Notifier) *Processor {
	return &Processor{
		ops:      ops,
		storage:  storageSvc,
		notifier: notifier,
	}
}

// Request describes one bulk submission
type Request struct {
	Type           domain.BulkOperationType `json:"type"`
	FileIDs        []uuid.UUID              `json:"file_ids"`
	TargetFolderID *uuid.UUID               `json:"target_folder_id,omitempty"`
	Permanent      bool                     `json:"permanent,omitempty"` // DELETE only
	RequestedBy    uuid.UUID                `json:"-"`
}

// Submit validates and records a bulk operation, then processes it in
// the background. The returned record is in the PENDING state.
func (p *Processor) Submit(ctx context.Context, req Request) (*domain.BulkOperation, error) {
	switch req.Type {
	case domain.BulkMove, domain.BulkCopy, domain.BulkDelete, domain.BulkArchive:
	default:
		return nil, apperrors.InvalidInputError("Unknown bulk operation type: " + string(req.Type))
	}
	if len(req.FileIDs) == 0 {
		return nil, apperrors.ValidationError("Bulk operation needs at least one file")
	}
	if (req.Type == domain.BulkMove || req.Type == domain.BulkCopy) && req.TargetFolderID == nil {
		return nil, apperrors.MissingFieldError("target_folder_id")
	}

	op := &domain.BulkOperation{
		ID:             uuid.New(),
		Type:           req.Type,
		FileIDs:        req.FileIDs,
		TargetFolderID: req.TargetFolderID,
		RequestedBy:    req.RequestedBy,
		Status:         domain.BulkPending,
		CreatedAt:      time.Now(),
	}
	if err := p.ops.Create(ctx, op); err != nil {
		return nil, err
	}

	p.wg.Add(1)
	go p.run(op.ID, req)

	return op, nil
}

// Get returns the current state of a bulk operation
func (p *Processor) Get(ctx context.Context, opID uuid.UUID) (*domain.BulkOperation, error) {
	return p.ops.Get(ctx, opID)
}

// Wait blocks until every in-flight bulk operation has finished.
// Intended for shutdown and tests.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// run processes the items sequentially and persists progress after
// each one. Item failures are recorded, not propagated.
func (p *Processor) run(opID uuid.UUID, req Request) {
	defer p.wg.Done()
	ctx := context.Background()

	op, err := p.ops.Get(ctx, opID)
	if err != nil {
		logger.Error("bulk operation vanished before processing",
			zap.String("operation_id", opID.String()), zap.Error(err))
		return
	}

	now := time.Now()
	op.Status = domain.BulkInProgress
	op.StartedAt = &now
	if err := p.ops.Update(ctx, op); err != nil {
		logger.Error("failed to mark bulk operation in progress",
			zap.String("operation_id", opID.String()), zap.Error(err))
		p.markFailed(ctx, op, err)
		return
	}

	total := len(op.FileIDs)
	for i, fileID := range op.FileIDs {
		itemErr := p.apply(ctx, req, fileID)

		result := domain.BulkItemResult{FileID: fileID, Success: itemErr == nil}
		outcome := "success"
		if itemErr != nil {
			result.Error = itemErr.Error()
			outcome = "failure"
			logger.Warn("bulk item failed",
				zap.String("operation_id", opID.String()),
				zap.String("file_id", fileID.String()),
				zap.Error(itemErr))
		}
		metrics.RecordBulkItem(string(op.Type), outcome)

		op.Results = append(op.Results, result)
		op.Progress = float64(i+1) / float64(total) * 100
		if err := p.ops.Update(ctx, op); err != nil {
			logger.Error("failed to persist bulk progress",
				zap.String("operation_id", opID.String()), zap.Error(err))
		}
	}

	// Partial success is expressed through the results, not the status
	done := time.Now()
	op.CompletedAt = &done
	op.Progress = 100
	op.Status = domain.BulkCompleted
	if err := p.ops.Update(ctx, op); err != nil {
		logger.Error("failed to finalize bulk operation",
			zap.String("operation_id", opID.String()), zap.Error(err))
		return
	}

	p.notifier.Publish(events.BulkOperationDone, map[string]interface{}{
		"operation_id": op.ID.String(),
		"type":         string(op.Type),
		"status":       string(op.Status),
		"total":        total,
		"succeeded":    op.SuccessCount(),
	})
	logger.Info("bulk operation finished",
		zap.String("operation_id", op.ID.String()),
		zap.String("type", string(op.Type)),
		zap.Int("total", total),
		zap.Int("succeeded", op.SuccessCount()))
}

// markFailed records an orchestration failure; per-item failures never
// come through here
func (p *Processor) markFailed(ctx context.Context, op *domain.BulkOperation, cause error) {
	now := time.Now()
	op.Status = domain.BulkFailed
	op.Error = cause.Error()
	op.CompletedAt = &now
	if err := p.ops.Update(ctx, op); err != nil {
		logger.Error("failed to mark bulk operation failed",
			zap.String("operation_id", op.ID.String()), zap.Error(err))
	}
}

func (p *Processor) apply(ctx context.Context, req Request, fileID uuid.UUID) error {
	switch req.Type {
	case domain.BulkMove:
		_, err := p.storage.Move(ctx, fileID, req.TargetFolderID)
		return err
	case domain.BulkCopy:
		_, err := p.storage.Copy(ctx, fileID, req.TargetFolderID, req.RequestedBy)
		return err
	case domain.BulkDelete:
		return p.storage.Delete(ctx, fileID, req.Permanent)
	case domain.BulkArchive:
		_, err := p.storage.Archive(ctx, fileID)
		return err
	}
	return apperrors.InvalidInputError("Unknown bulk operation type: " + string(req.Type))
}
