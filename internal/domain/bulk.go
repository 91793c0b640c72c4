package domain

import (
	"time"

	"github.com/google/uuid"
)

// BulkOperationType is the single operation applied across a bulk file list
type BulkOperationType string

const (
	BulkMove    BulkOperationType = "MOVE"
	BulkCopy    BulkOperationType = "COPY"
	BulkDelete  BulkOperationType = "DELETE"
	BulkArchive BulkOperationType = "ARCHIVE"
)

// BulkStatus is the lifecycle state of a bulk operation
type BulkStatus string

const (
	BulkPending    BulkStatus = "PENDING"
	BulkInProgress BulkStatus = "IN_PROGRESS"
	BulkCompleted  BulkStatus = "COMPLETED"
	BulkFailed     BulkStatus = "FAILED"
)

// BulkItemResult records the outcome of one file within a bulk operation
type BulkItemResult struct {
	FileID  uuid.UUID `json:"file_id"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
}

// BulkOperation tracks one asynchronous batch operation
// Once Status is COMPLETED or FAILED the record is immutable
type BulkOperation struct {
	ID             uuid.UUID         `json:"id"`
	Type           BulkOperationType `json:"type"`
	FileIDs        []uuid.UUID       `json:"file_ids"`
	TargetFolderID *uuid.UUID        `json:"target_folder_id,omitempty"`
	RequestedBy    uuid.UUID         `json:"requested_by"`
	Status         BulkStatus        `json:"status"`
	Progress       float64           `json:"progress"` // 0..100, monotonic
	Results        []BulkItemResult  `json:"results"`
	Error          string            `json:"error,omitempty"` // Orchestration failure only
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Done reports whether the operation has reached a terminal state
func (op *BulkOperation) Done() bool {
	return op.Status == BulkCompleted || op.Status == BulkFailed
}

// SuccessCount returns the number of items that succeeded so far
func (op *BulkOperation) SuccessCount() int {
	n := 0
	for _, r := range op.Results {
		if r.Success {
			n++
		}
	}
	return n
}
