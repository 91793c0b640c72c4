// Package storage implements the upload and download pipelines, file
// lifecycle operations, and signed download URLs of the storage engine.
package storage

import (
	"sync"
	"time"

	"docstore-backend/internal/blob"
	"docstore-backend/internal/events"
	"docstore-backend/internal/policy"
	"docstore-backend/internal/quota"
	"docstore-backend/internal/repository"
	"docstore-backend/pkg/signature"
)

// Config holds the tunables of the storage service
type Config struct {
	// MultipartChunkSize is the fixed part size of multipart uploads
	MultipartChunkSize int64
	// DownloadURLTTL is how long signed download tokens stay valid
	DownloadURLTTL time.Duration
	// CopyNamePrefix is prepended to a file name on copy
	CopyNamePrefix string
}

// DefaultConfig returns the baseline service configuration
func DefaultConfig() Config {
	return Config{
		MultipartChunkSize: 5 << 20, // 5 MiB
		DownloadURLTTL:     15 * time.Minute,
		CopyNamePrefix:     "Copy of ",
	}
}

// Service orchestrates validation, quota, transforms, blob I/O and
// metadata commits. It is the single writer of file records.
type Service struct {
	files    repository.FileRepository
	folders  repository.FolderRepository
	blobs    blob.Store
	policies *policy.Registry
	quota    *quota.Ledger
	notifier *events.Notifier
	signer   *signature.Signer
	cfg      Config

	// Per-file and per-folder guards; quota has its own per-org locking
	fileLocks   keyMutex
	folderLocks keyMutex

	sessions sync.Map // uploadID -> *multipartSession
}

// NewService creates the storage service
func NewService(
	files repository.FileRepository,
	folders repository.FolderRepository,
	blobs blob.Store,
	policies *policy.Registry,
	ledger *quota.Ledger,
	notifier *events.Notifier,
	signer *signature.Signer,
	cfg Config,
) *Service {
	if cfg.MultipartChunkSize == 0 {
		cfg.MultipartChunkSize = DefaultConfig().MultipartChunkSize
	}
	if cfg.DownloadURLTTL == 0 {
		cfg.DownloadURLTTL = DefaultConfig().DownloadURLTTL
	}
	if cfg.CopyNamePrefix == "" {
		cfg.CopyNamePrefix = DefaultConfig().CopyNamePrefix
	}
	return &Service{
		files:    files,
		folders:  folders,
		blobs:    blobs,
		policies: policies,
		quota:    ledger,
		notifier: notifier,
		signer:   signer,
		cfg:      cfg,
	}
}

// Quota returns the quota ledger, for read-side reporting
func (s *Service) Quota() *quota.Ledger { return s.quota }

// keyMutex provides one mutex per key so unrelated files and folders
// never contend with each other
type keyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the mutex for key and returns the unlock function
func (k *keyMutex) Lock(key string) func() {
	m := k.get(key)
	m.Lock()
	return m.Unlock
}
