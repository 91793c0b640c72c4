package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"docstore-backend/internal/domain"
	apperrors "docstore-backend/pkg/errors"
)

// BulkOperationRepository is a map-backed bulk operation store
type BulkOperationRepository struct {
	mu  sync.RWMutex
	ops map[uuid.UUID]*domain.BulkOperation
}

// NewBulkOperationRepository creates an empty in-memory bulk operation repository
func NewBulkOperationRepository() *BulkOperationRepository {
	return &BulkOperationRepository{ops: make(map[uuid.UUID]*domain.BulkOperation)}
}

// Create stores a new bulk operation record
func (r *BulkOperationRepository) Create(_ context.Context, op *domain.BulkOperation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ops[op.ID]; exists {
		return apperrors.StateError("Bulk operation already exists")
	}
	r.ops[op.ID] = cloneBulk(op)
	return nil
}

// Get returns a copy of the bulk operation record
func (r *BulkOperationRepository) Get(_ context.Context, id uuid.UUID) (*domain.BulkOperation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[id]
	if !ok {
		return nil, apperrors.NotFoundError("Bulk operation")
	}
	return cloneBulk(op), nil
}

// Update replaces an existing record; terminal records are immutable
func (r *BulkOperationRepository) Update(_ context.Context, op *domain.BulkOperation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.ops[op.ID]
	if !ok {
		return apperrors.NotFoundError("Bulk operation")
	}
	if existing.Done() {
		return apperrors.StateError("Bulk operation is already completed")
	}
	r.ops[op.ID] = cloneBulk(op)
	return nil
}

func cloneBulk(op *domain.BulkOperation) *domain.BulkOperation {
	c := *op
	c.FileIDs = append([]uuid.UUID(nil), op.FileIDs...)
	c.Results = append([]domain.BulkItemResult(nil), op.Results...)
	if op.TargetFolderID != nil {
		id := *op.TargetFolderID
		c.TargetFolderID = &id
	}
	c.StartedAt = cloneTimestamp(op.StartedAt)
	c.CompletedAt = cloneTimestamp(op.CompletedAt)
	return &c
}

func cloneTimestamp(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
