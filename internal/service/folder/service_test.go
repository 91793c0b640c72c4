package folder

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore-backend/internal/blob/memblob"
	"docstore-backend/internal/domain"
	"docstore-backend/internal/events"
	"docstore-backend/internal/policy"
	"docstore-backend/internal/quota"
	"docstore-backend/internal/repository/memory"
	"docstore-backend/internal/service/storage"
	apperrors "docstore-backend/pkg/errors"
	"docstore-backend/pkg/signature"
)

type testEnv struct {
	svc     *Service
	storage *storage.Service
	blobs   *memblob.Store
	ledger  *quota.Ledger
	orgID   uuid.UUID
	userID  uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	files := memory.NewFileRepository()
	folders := memory.NewFolderRepository()
	blobs := memblob.New()
	ledger := quota.NewLedger(1<<30, 0)
	registry := policy.NewRegistry()
	for _, p := range policy.DefaultPolicies() {
		registry.Register(p)
	}
	notifier := events.NewNotifier()

	storageSvc := storage.NewService(files, folders, blobs, registry, ledger, notifier,
		signature.NewSigner("test-secret"), storage.DefaultConfig())

	return &testEnv{
		svc:     NewService(folders, files, storageSvc, notifier),
		storage: storageSvc,
		blobs:   blobs,
		ledger:  ledger,
		orgID:   uuid.New(),
		userID:  uuid.New(),
	}
}

func (e *testEnv) create(t *testing.T, name string, parentID *uuid.UUID) *domain.Folder {
	t.Helper()
	folder, err := e.svc.CreateFolder(context.Background(), CreateRequest{
		Name: name, ParentID: parentID, OwnerID: e.userID, OrgID: e.orgID,
	})
	require.NoError(t, err)
	return folder
}

func (e *testEnv) uploadInto(t *testing.T, folderID *uuid.UUID, name string, opts domain.UploadOptions) *domain.File {
	t.Helper()
	opts.FolderID = folderID
	file, err := e.storage.Upload(context.Background(), domain.UploadRequest{
		Content: []byte("file body"), FileName: name, MimeType: "application/octet-stream",
		UserID: e.userID, OrgID: e.orgID, Options: opts,
	})
	require.NoError(t, err)
	return file
}

func TestCreateFolder_Paths(t *testing.T) {
	env := newTestEnv(t)

	root := env.create(t, "projects", nil)
	assert.Equal(t, "/projects", root.Path)
	assert.Nil(t, root.ParentID)
	assert.Equal(t, domain.AccessPrivate, root.AccessLevel)

	child := env.create(t, "atlas", &root.ID)
	assert.Equal(t, "/projects/atlas", child.Path)

	grandchild := env.create(t, "specs", &child.ID)
	assert.Equal(t, "/projects/atlas/specs", grandchild.Path)
}

func TestCreateFolder_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreateFolder(ctx, CreateRequest{Name: "  ", OwnerID: env.userID, OrgID: env.orgID})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	_, err = env.svc.CreateFolder(ctx, CreateRequest{Name: "a/b", OwnerID: env.userID, OrgID: env.orgID})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	ghost := uuid.New()
	_, err = env.svc.CreateFolder(ctx, CreateRequest{Name: "x", ParentID: &ghost, OwnerID: env.userID, OrgID: env.orgID})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))

	env.create(t, "dup", nil)
	_, err = env.svc.CreateFolder(ctx, CreateRequest{Name: "dup", OwnerID: env.userID, OrgID: env.orgID})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeState))

	// Same name under a different parent is fine
	parent := env.create(t, "parent", nil)
	_, err = env.svc.CreateFolder(ctx, CreateRequest{Name: "dup", ParentID: &parent.ID, OwnerID: env.userID, OrgID: env.orgID})
	assert.NoError(t, err)
}

func TestGetFolderContents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.create(t, "docs", nil)
	env.create(t, "sub", &root.ID)
	kept := env.uploadInto(t, &root.ID, "kept.txt", domain.UploadOptions{Category: domain.CategoryOther})
	deleted := env.uploadInto(t, &root.ID, "gone.txt", domain.UploadOptions{Category: domain.CategoryOther})
	require.NoError(t, env.storage.Delete(ctx, deleted.ID, false))

	contents, err := env.svc.GetFolderContents(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, contents.Folder.ID)
	require.Len(t, contents.Subfolders, 1)
	assert.Equal(t, "sub", contents.Subfolders[0].Name)
	require.Len(t, contents.Files, 1)
	assert.Equal(t, kept.ID, contents.Files[0].ID)

	// Aggregates reflect the surviving file only
	assert.Equal(t, 1, contents.Folder.FileCount)
	assert.Equal(t, kept.Size, contents.Folder.TotalSize)
}

func TestDeleteFolder_NonRecursive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.create(t, "full", nil)
	env.uploadInto(t, &root.ID, "blocker.txt", domain.UploadOptions{Category: domain.CategoryOther})

	err := env.svc.DeleteFolder(ctx, root.ID, false)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeState))

	empty := env.create(t, "empty", nil)
	assert.NoError(t, env.svc.DeleteFolder(ctx, empty.ID, false))
	_, err = env.svc.GetFolder(ctx, empty.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestDeleteFolder_NonRecursiveKeepsSoftDeletedFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder := env.create(t, "trash", nil)
	file := env.uploadInto(t, &folder.ID, "recoverable.txt", domain.UploadOptions{Category: domain.CategoryOther})
	require.NoError(t, env.storage.Delete(ctx, file.ID, false))

	// A soft-deleted file is still restorable, so the folder is not empty
	err := env.svc.DeleteFolder(ctx, folder.ID, false)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeState))

	restored, err := env.storage.Restore(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusReady, restored.Status)
}

func TestDeleteFolder_Recursive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.create(t, "tree", nil)
	child := env.create(t, "branch", &root.ID)
	leaf := env.create(t, "leaf", &child.ID)
	env.uploadInto(t, &root.ID, "a.txt", domain.UploadOptions{Category: domain.CategoryOther})
	env.uploadInto(t, &child.ID, "b.txt", domain.UploadOptions{Category: domain.CategoryOther})
	env.uploadInto(t, &leaf.ID, "c.txt", domain.UploadOptions{Category: domain.CategoryOther})

	require.NoError(t, env.svc.DeleteFolder(ctx, root.ID, true))

	for _, id := range []uuid.UUID{root.ID, child.ID, leaf.ID} {
		_, err := env.svc.GetFolder(ctx, id)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
	}

	// Content and quota are fully reclaimed
	assert.Equal(t, 0, env.blobs.Len())
	q := env.ledger.Get(env.orgID)
	assert.Equal(t, int64(0), q.UsedBytes)
	assert.Equal(t, int64(0), q.FileCount)
}

func TestDeleteFolder_RecursiveBlockedByRetention(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.create(t, "legal", nil)
	file, err := env.storage.Upload(ctx, domain.UploadRequest{
		Content: []byte("%PDF-1.7"), FileName: "invoice.pdf", MimeType: "application/pdf",
		UserID: env.userID, OrgID: env.orgID,
		Options: domain.UploadOptions{Category: domain.CategoryInvoice, FolderID: &root.ID},
	})
	require.NoError(t, err)

	err = env.svc.DeleteFolder(ctx, root.ID, true)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRetentionViolation))

	// The retained file survives
	_, err = env.storage.GetFile(ctx, file.ID)
	assert.NoError(t, err)
}

func TestListFolders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.create(t, "a", nil)
	env.create(t, "b", nil)
	env.create(t, "nested", &a.ID)

	roots, err := env.svc.ListFolders(ctx, env.orgID, nil)
	require.NoError(t, err)
	assert.Len(t, roots, 2)

	children, err := env.svc.ListFolders(ctx, env.orgID, &a.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "nested", children[0].Name)
}
