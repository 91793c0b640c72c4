// Package fsblob stores blobs as files under a root directory, with the
// storage key mapped to a relative path.
package fsblob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "docstore-backend/pkg/errors"
)

// Store persists blobs on the local filesystem
type Store struct {
	root string
}

// New creates a filesystem blob store rooted at dir
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: dir}, nil
}

// path maps a storage key to an on-disk location, rejecting traversal
func (s *Store) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", apperrors.ValidationError("Invalid storage key")
	}
	return filepath.Join(s.root, clean), nil
}

// Put stores content under key
func (s *Store) Put(_ context.Context, key string, content []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return apperrors.StorageError(err)
	}
	if err := os.WriteFile(p, content, 0o640); err != nil {
		return apperrors.StorageError(err)
	}
	return nil
}

// Get retrieves the content stored under key
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, apperrors.NotFoundError("Blob")
	}
	if err != nil {
		return nil, apperrors.StorageError(err)
	}
	return content, nil
}

// Delete removes the object; missing keys are ignored
func (s *Store) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return apperrors.StorageError(err)
	}
	return nil
}

// Copy duplicates the object at srcKey to dstKey
func (s *Store) Copy(ctx context.Context, srcKey, dstKey string) error {
	content, err := s.Get(ctx, srcKey)
	if err != nil {
		return err
	}
	return s.Put(ctx, dstKey, content)
}

// Exists checks whether an object is stored under key
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.StorageError(err)
	}
	return true, nil
}

// Type returns "fs"
func (s *Store) Type() string { return "fs" }
