// Package blob defines the Store interface for content storage.
// Implementations handle raw object I/O (in-memory map, local
// filesystem, MinIO/S3); metadata lives in the repository layer.
// Blobs are written only by the upload pipeline and read only by the
// download pipeline or explicit deletion code paths.
package blob

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Store is the interface for content storage backends
type Store interface {
	// Put stores content under the given key, overwriting any existing object
	Put(ctx context.Context, key string, content []byte) error

	// Get retrieves the content stored under key
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Copy duplicates the object at srcKey to dstKey
	Copy(ctx context.Context, srcKey, dstKey string) error

	// Exists checks whether an object is stored under key
	Exists(ctx context.Context, key string) (bool, error)

	// Type returns the backend type identifier ("memory", "fs", "minio")
	Type() string
}

// NewKey generates a fresh storage key scoped to an organization
func NewKey(orgID uuid.UUID) string {
	return fmt.Sprintf("orgs/%s/%s", orgID, uuid.New())
}
