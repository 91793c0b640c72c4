// Package quota implements the per-organization storage quota ledger.
// Counters are mutated only through atomic reserve/release operations;
// the hot path never recomputes usage by scanning files.
package quota

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"docstore-backend/internal/domain"
	apperrors "docstore-backend/pkg/errors"
)

// Ledger tracks bytes and file counts per organization.
// Each organization has its own lock, so unrelated reservations never
// contend with each other.
type Ledger struct {
	mu             sync.RWMutex
	entries        map[uuid.UUID]*entry
	defaultBudget  int64
	defaultMaxFile int64
}

type entry struct {
	mu    sync.Mutex
	quota domain.StorageQuota
}

// NewLedger creates a ledger; organizations get defaultBudget bytes on first access
func NewLedger(defaultBudget, defaultMaxFileSize int64) *Ledger {
	return &Ledger{
		entries:        make(map[uuid.UUID]*entry),
		defaultBudget:  defaultBudget,
		defaultMaxFile: defaultMaxFileSize,
	}
}

// entryFor returns the organization's entry, creating it lazily
func (l *Ledger) entryFor(orgID uuid.UUID) *entry {
	l.mu.RLock()
	e, ok := l.entries[orgID]
	l.mu.RUnlock()
	if ok {
		return e
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok = l.entries[orgID]; ok {
		return e
	}
	e = &entry{quota: domain.StorageQuota{
		OrganizationID: orgID,
		TotalBytes:     l.defaultBudget,
		MaxFileSize:    l.defaultMaxFile,
		ByCategory:     make(map[domain.FileCategory]int64),
		UpdatedAt:      time.Now(),
	}}
	l.entries[orgID] = e
	return e
}

// Check verifies that additionalBytes fit within the organization's budget
func (l *Ledger) Check(orgID uuid.UUID, additionalBytes int64) error {
	e := l.entryFor(orgID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.quota.UsedBytes+additionalBytes > e.quota.TotalBytes {
		return apperrors.QuotaExceededError(fmt.Sprintf(
			"Storage quota exceeded: %d of %d bytes used, %d requested",
			e.quota.UsedBytes, e.quota.TotalBytes, additionalBytes))
	}
	return nil
}

// Reserve atomically checks the budget and commits the usage delta.
// It fails without mutating anything when the budget would be exceeded.
func (l *Ledger) Reserve(orgID uuid.UUID, category domain.FileCategory, bytes int64, fileCount int64) error {
	e := l.entryFor(orgID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.quota.UsedBytes+bytes > e.quota.TotalBytes {
		return apperrors.QuotaExceededError(fmt.Sprintf(
			"Storage quota exceeded: %d of %d bytes used, %d requested",
			e.quota.UsedBytes, e.quota.TotalBytes, bytes))
	}

	e.quota.UsedBytes += bytes
	e.quota.FileCount += fileCount
	if category != "" {
		e.quota.ByCategory[category] += bytes
	}
	e.quota.UpdatedAt = time.Now()
	return nil
}

// Release returns previously reserved usage to the organization's budget
func (l *Ledger) Release(orgID uuid.UUID, category domain.FileCategory, bytes int64, fileCount int64) {
	e := l.entryFor(orgID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.quota.UsedBytes -= bytes
	if e.quota.UsedBytes < 0 {
		e.quota.UsedBytes = 0
	}
	e.quota.FileCount -= fileCount
	if e.quota.FileCount < 0 {
		e.quota.FileCount = 0
	}
	if category != "" {
		e.quota.ByCategory[category] -= bytes
		if e.quota.ByCategory[category] < 0 {
			e.quota.ByCategory[category] = 0
		}
	}
	e.quota.UpdatedAt = time.Now()
}

// Get returns a snapshot of the organization's quota record
func (l *Ledger) Get(orgID uuid.UUID) *domain.StorageQuota {
	e := l.entryFor(orgID)
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.quota
	snapshot.ByCategory = make(map[domain.FileCategory]int64, len(e.quota.ByCategory))
	for k, v := range e.quota.ByCategory {
		snapshot.ByCategory[k] = v
	}
	return &snapshot
}

// SetBudget overrides the byte budget for one organization
func (l *Ledger) SetBudget(orgID uuid.UUID, totalBytes int64) {
	e := l.entryFor(orgID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.quota.TotalBytes = totalBytes
	e.quota.UpdatedAt = time.Now()
}

// MaxFileSize returns the org-wide default per-file size limit (0 = unlimited)
func (l *Ledger) MaxFileSize(orgID uuid.UUID) int64 {
	e := l.entryFor(orgID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quota.MaxFileSize
}
