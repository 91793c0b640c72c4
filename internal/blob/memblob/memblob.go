// Package memblob is the map-backed blob store used as the reference
// implementation and in tests.
package memblob

import (
	"context"
	"sync"

	apperrors "docstore-backend/pkg/errors"
)

// Store keeps blobs in an in-process map
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New creates an empty in-memory blob store
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Put stores content under key
func (s *Store) Put(_ context.Context, key string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), content...)
	return nil
}

// Get retrieves the content stored under key
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.blobs[key]
	if !ok {
		return nil, apperrors.NotFoundError("Blob")
	}
	return append([]byte(nil), content...), nil
}

// Delete removes the object; missing keys are ignored
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Copy duplicates the object at srcKey to dstKey
func (s *Store) Copy(_ context.Context, srcKey, dstKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.blobs[srcKey]
	if !ok {
		return apperrors.NotFoundError("Blob")
	}
	s.blobs[dstKey] = append([]byte(nil), content...)
	return nil
}

// Exists checks whether an object is stored under key
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[key]
	return ok, nil
}

// Type returns "memory"
func (s *Store) Type() string { return "memory" }

// Len returns the number of stored blobs; used by tests to assert
// that failed uploads leave no orphans
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
