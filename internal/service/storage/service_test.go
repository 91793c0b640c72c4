package storage

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore-backend/internal/blob/memblob"
	"docstore-backend/internal/domain"
	"docstore-backend/internal/events"
	"docstore-backend/internal/policy"
	"docstore-backend/internal/quota"
	"docstore-backend/internal/repository/memory"
	apperrors "docstore-backend/pkg/errors"
	"docstore-backend/pkg/signature"
)

type testEnv struct {
	svc     *Service
	files   *memory.FileRepository
	folders *memory.FolderRepository
	blobs   *memblob.Store
	ledger  *quota.Ledger
	signer  *signature.Signer
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
	signer := signature.NewSigner("test-secret")

	svc := NewService(files, folders, blobs, registry, ledger, events.NewNotifier(), signer, DefaultConfig())
	return &testEnv{
		svc:     svc,
		files:   files,
		folders: folders,
		blobs:   blobs,
		ledger:  ledger,
		signer:  signer,
		orgID:   uuid.New(),
		userID:  uuid.New(),
	}
}

func (e *testEnv) upload(t *testing.T, name string, content []byte, opts domain.UploadOptions) *domain.File {
	t.Helper()
	file, err := e.svc.Upload(context.Background(), domain.UploadRequest{
		Content:  content,
		FileName: name,
		MimeType: "application/octet-stream",
		UserID:   e.userID,
		OrgID:    e.orgID,
		Options:  opts,
	})
	require.NoError(t, err)
	return file
}

func TestUpload_DownloadRoundtrip(t *testing.T) {
	content := bytes.Repeat([]byte("roundtrip payload "), 200)

	cases := []struct {
		name string
		opts domain.UploadOptions
	}{
		{"plain", domain.UploadOptions{Category: domain.CategoryOther}},
		{"compressed", domain.UploadOptions{Category: domain.CategoryOther, Compress: true}},
		{"encrypted", domain.UploadOptions{Category: domain.CategoryOther, Encrypt: true}},
		{"compressed_encrypted", domain.UploadOptions{Category: domain.CategoryOther, Compress: true, Encrypt: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			file := env.upload(t, "data.bin", content, tc.opts)

			assert.Equal(t, int64(len(content)), file.Size)
			assert.Equal(t, domain.FileStatusReady, file.Status)
			assert.Equal(t, 1, file.Version)

			res, err := env.svc.Download(context.Background(), file.ID, domain.DownloadOptions{})
			require.NoError(t, err)
			assert.Equal(t, content, res.Content)
			assert.Equal(t, file.Checksum, res.Checksum)
		})
	}
}

func TestUpload_PolicyTransformsApplied(t *testing.T) {
	env := newTestEnv(t)
	content := []byte("%PDF-1.7 fake invoice body")

	file, err := env.svc.Upload(context.Background(), domain.UploadRequest{
		Content:  content,
		FileName: "invoice.pdf",
		MimeType: "application/pdf",
		UserID:   env.userID,
		OrgID:    env.orgID,
		Options:  domain.UploadOptions{Category: domain.CategoryInvoice},
	})
	require.NoError(t, err)

	assert.True(t, file.IsEncrypted)
	assert.NotEmpty(t, file.EncryptionKey)
	assert.NotNil(t, file.RetentionUntil)

	// Stored bytes must not be the plaintext
	stored, err := env.blobs.Get(context.Background(), file.StorageKey)
	require.NoError(t, err)
	assert.NotEqual(t, content, stored)

	res, err := env.svc.Download(context.Background(), file.ID, domain.DownloadOptions{})
	require.NoError(t, err)
	assert.Equal(t, content, res.Content)
}

func TestUpload_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Upload(ctx, domain.UploadRequest{
		Content: []byte("x"), FileName: "", MimeType: "text/plain",
		UserID: env.userID, OrgID: env.orgID,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	_, err = env.svc.Upload(ctx, domain.UploadRequest{
		Content: nil, FileName: "empty.txt", MimeType: "text/plain",
		UserID: env.userID, OrgID: env.orgID,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	// Avatars are capped at 5 MiB
	_, err = env.svc.Upload(ctx, domain.UploadRequest{
		Content: make([]byte, 5<<20+1), FileName: "avatar.png", MimeType: "image/png",
		UserID: env.userID, OrgID: env.orgID,
		Options: domain.UploadOptions{Category: domain.CategoryAvatar},
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	// Invoices accept PDFs only
	_, err = env.svc.Upload(ctx, domain.UploadRequest{
		Content: []byte("not a pdf"), FileName: "invoice.docx",
		MimeType: "application/msword",
		UserID:   env.userID, OrgID: env.orgID,
		Options: domain.UploadOptions{Category: domain.CategoryInvoice},
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	// Unknown folder
	badFolder := uuid.New()
	_, err = env.svc.Upload(ctx, domain.UploadRequest{
		Content: []byte("x"), FileName: "a.txt", MimeType: "text/plain",
		UserID: env.userID, OrgID: env.orgID,
		Options: domain.UploadOptions{FolderID: &badFolder},
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))

	// Nothing leaked into the blob store
	assert.Equal(t, 0, env.blobs.Len())
}

func TestUpload_QuotaEnforcedAndConserved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.ledger.SetBudget(env.orgID, 1000)

	file := env.upload(t, "a.bin", make([]byte, 600), domain.UploadOptions{Category: domain.CategoryOther})

	q := env.ledger.Get(env.orgID)
	assert.Equal(t, int64(600), q.UsedBytes)
	assert.Equal(t, int64(1), q.FileCount)

	_, err := env.svc.Upload(ctx, domain.UploadRequest{
		Content: make([]byte, 500), FileName: "b.bin", MimeType: "application/octet-stream",
		UserID: env.userID, OrgID: env.orgID,
		Options: domain.UploadOptions{Category: domain.CategoryOther},
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeQuotaExceeded))

	// Rejected upload must not change usage
	q = env.ledger.Get(env.orgID)
	assert.Equal(t, int64(600), q.UsedBytes)
	assert.Equal(t, int64(1), q.FileCount)

	// Permanent delete returns the space
	require.NoError(t, env.svc.Delete(ctx, file.ID, true))
	q = env.ledger.Get(env.orgID)
	assert.Equal(t, int64(0), q.UsedBytes)
	assert.Equal(t, int64(0), q.FileCount)
	assert.Equal(t, 0, env.blobs.Len())
}

func TestUpload_NewVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	v1Content := []byte("version one body")
	v2Content := []byte("version two body, somewhat longer than the first")

	f1 := env.upload(t, "doc.txt", v1Content, domain.UploadOptions{Category: domain.CategoryDocument})
	f2 := env.upload(t, "doc.txt", v2Content, domain.UploadOptions{Category: domain.CategoryDocument, Version: true, Comment: "second draft"})

	assert.Equal(t, f1.ID, f2.ID)
	assert.Equal(t, 2, f2.Version)
	assert.Equal(t, "second draft", f2.VersionComment)
	require.Len(t, f2.Versions, 1)
	assert.Equal(t, 1, f2.Versions[0].Version)

	// Quota tracks the current version only
	q := env.ledger.Get(env.orgID)
	assert.Equal(t, int64(len(v2Content)), q.UsedBytes)
	assert.Equal(t, int64(1), q.FileCount)

	// Both versions stay downloadable
	cur, err := env.svc.Download(ctx, f2.ID, domain.DownloadOptions{})
	require.NoError(t, err)
	assert.Equal(t, v2Content, cur.Content)

	old, err := env.svc.Download(ctx, f2.ID, domain.DownloadOptions{Version: 1})
	require.NoError(t, err)
	assert.Equal(t, v1Content, old.Content)

	_, err = env.svc.Download(ctx, f2.ID, domain.DownloadOptions{Version: 9})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeVersionNotFound))
}

func TestUpload_VersionHistoryBounded(t *testing.T) {
	env := newTestEnv(t)

	// DOCUMENT keeps at most 5 versions including the current one
	var file *domain.File
	for i := 0; i < 8; i++ {
		file = env.upload(t, "doc.txt", bytes.Repeat([]byte{byte('a' + i)}, 100),
			domain.UploadOptions{Category: domain.CategoryDocument, Version: i > 0})
	}

	assert.Equal(t, 8, file.Version)
	assert.Len(t, file.Versions, 4)
	assert.Equal(t, 4, file.Versions[0].Version) // Oldest surviving snapshot

	// Evicted version blobs are reclaimed: 1 current + 4 history
	assert.Equal(t, 5, env.blobs.Len())
}

func TestVersionedUpload_UsesStoredCategoryPolicy(t *testing.T) {
	env := newTestEnv(t)

	// Re-uploads claiming a different category still apply the DOCUMENT
	// bound of 5 versions; the file keeps its original category
	var file *domain.File
	for i := 0; i < 8; i++ {
		cat := domain.CategoryDocument
		if i > 0 {
			cat = domain.CategoryOther
		}
		file = env.upload(t, "doc.txt", bytes.Repeat([]byte{byte('a' + i)}, 100),
			domain.UploadOptions{Category: cat, Version: i > 0})
	}

	assert.Equal(t, domain.CategoryDocument, file.Category)
	assert.Equal(t, 8, file.Version)
	assert.Len(t, file.Versions, 4)
	assert.Equal(t, 5, env.blobs.Len())
}

func TestVersionedUpload_KeepsOldVersionReadableAfterKeyRotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	v1 := []byte("encrypted v1")
	v2 := []byte("encrypted v2")
	opts := domain.UploadOptions{Category: domain.CategoryOther, Encrypt: true}

	env.upload(t, "secret.txt", v1, opts)
	opts.Version = true
	file := env.upload(t, "secret.txt", v2, opts)

	// Each version was stored under its own key
	res, err := env.svc.Download(ctx, file.ID, domain.DownloadOptions{Version: 1})
	require.NoError(t, err)
	assert.Equal(t, v1, res.Content)
}

func TestDelete_SoftAndRestore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file := env.upload(t, "a.txt", []byte("body"), domain.UploadOptions{Category: domain.CategoryOther})
	require.NoError(t, env.svc.Delete(ctx, file.ID, false))

	// Soft-deleted files don't download, but the metadata survives
	_, err := env.svc.Download(ctx, file.ID, domain.DownloadOptions{})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFileNotFound))

	got, err := env.svc.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())
	assert.NotNil(t, got.DeletedAt)

	restored, err := env.svc.Restore(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusReady, restored.Status)
	assert.Nil(t, restored.DeletedAt)

	res, err := env.svc.Download(ctx, file.ID, domain.DownloadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("body"), res.Content)

	_, err = env.svc.Restore(ctx, file.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeState))
}

func TestDelete_RetentionBlocksPermanent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file, err := env.svc.Upload(ctx, domain.UploadRequest{
		Content: []byte("%PDF-1.7"), FileName: "invoice.pdf", MimeType: "application/pdf",
		UserID: env.userID, OrgID: env.orgID,
		Options: domain.UploadOptions{Category: domain.CategoryInvoice},
	})
	require.NoError(t, err)

	err = env.svc.Delete(ctx, file.ID, true)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRetentionViolation))

	// Soft delete is still allowed under retention
	assert.NoError(t, env.svc.Delete(ctx, file.ID, false))
}

func TestDelete_PermanentReclaimsAllVersions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.upload(t, "doc.txt", []byte("v1"), domain.UploadOptions{Category: domain.CategoryOther})
	file := env.upload(t, "doc.txt", []byte("v2"), domain.UploadOptions{Category: domain.CategoryOther, Version: true})

	assert.Equal(t, 2, env.blobs.Len())
	require.NoError(t, env.svc.Delete(ctx, file.ID, true))
	assert.Equal(t, 0, env.blobs.Len())

	_, err := env.svc.GetFile(ctx, file.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFileNotFound))
}

func TestArchive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file := env.upload(t, "a.txt", []byte("body"), domain.UploadOptions{Category: domain.CategoryOther})
	archived, err := env.svc.Archive(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusArchived, archived.Status)

	// Archived files still download
	res, err := env.svc.Download(ctx, file.ID, domain.DownloadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("body"), res.Content)
}

func TestMoveAndCopy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder := &domain.Folder{
		ID: uuid.New(), Name: "reports", Path: "/reports",
		OwnerID: env.userID, OrganizationID: env.orgID,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, env.folders.Create(ctx, folder))

	file := env.upload(t, "a.txt", []byte("movable"), domain.UploadOptions{Category: domain.CategoryOther})

	moved, err := env.svc.Move(ctx, file.ID, &folder.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.FolderID)
	assert.Equal(t, folder.ID, *moved.FolderID)

	got, err := env.folders.Get(ctx, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.FileCount)
	assert.Equal(t, int64(len("movable")), got.TotalSize)

	cp, err := env.svc.Copy(ctx, file.ID, &folder.ID, env.userID)
	require.NoError(t, err)
	assert.Equal(t, "Copy of a.txt", cp.Name)
	assert.NotEqual(t, file.ID, cp.ID)
	assert.Equal(t, 1, cp.Version)
	assert.Empty(t, cp.Versions)
	assert.Zero(t, cp.DownloadCount)

	res, err := env.svc.Download(ctx, cp.ID, domain.DownloadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("movable"), res.Content)

	// Copy counts against the quota
	q := env.ledger.Get(env.orgID)
	assert.Equal(t, int64(2*len("movable")), q.UsedBytes)
	assert.Equal(t, int64(2), q.FileCount)

	// Moving to a missing folder fails without mutating the file
	ghost := uuid.New()
	_, err = env.svc.Move(ctx, file.ID, &ghost)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
	unchanged, err := env.svc.GetFile(ctx, file.ID)
	require.NoError(t, err)
	require.NotNil(t, unchanged.FolderID)
	assert.Equal(t, folder.ID, *unchanged.FolderID)
}

func TestCopy_EncryptedStaysReadable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file := env.upload(t, "sec.txt", []byte("cipher me"), domain.UploadOptions{Category: domain.CategoryOther, Encrypt: true})
	cp, err := env.svc.Copy(ctx, file.ID, nil, env.userID)
	require.NoError(t, err)

	res, err := env.svc.Download(ctx, cp.ID, domain.DownloadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("cipher me"), res.Content)
}

func TestDownloadURL_TokenFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file := env.upload(t, "a.txt", []byte("via token"), domain.UploadOptions{Category: domain.CategoryOther})

	dl, err := env.svc.GetDownloadURL(ctx, file.ID, env.userID, domain.DownloadOptions{})
	require.NoError(t, err)
	assert.Contains(t, dl.Headers["Content-Disposition"], "attachment")

	fileID, userID, err := env.svc.VerifyDownloadToken(dl.Token)
	require.NoError(t, err)
	assert.Equal(t, file.ID, fileID)
	assert.Equal(t, env.userID, userID)

	res, err := env.svc.DownloadWithToken(ctx, dl.Token, domain.DownloadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("via token"), res.Content)

	// Expired tokens are rejected
	expired := env.signer.Sign(file.ID, env.userID, time.Now().Add(-time.Minute))
	_, err = env.svc.DownloadWithToken(ctx, expired, domain.DownloadOptions{})
	assert.Error(t, err)
}

func TestDownload_BumpsAccessCounters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file := env.upload(t, "a.txt", []byte("count me"), domain.UploadOptions{Category: domain.CategoryOther})
	for i := 0; i < 3; i++ {
		_, err := env.svc.Download(ctx, file.ID, domain.DownloadOptions{})
		require.NoError(t, err)
	}

	got, err := env.svc.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.DownloadCount)
	assert.NotNil(t, got.LastAccessedAt)
}

func TestMultipartUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	chunk := env.svc.cfg.MultipartChunkSize
	content := bytes.Repeat([]byte{0xAB}, int(chunk)+512)

	init, err := env.svc.InitiateMultipartUpload(ctx, "big.bin", "application/octet-stream",
		int64(len(content)), env.userID, env.orgID, domain.UploadOptions{Category: domain.CategoryOther})
	require.NoError(t, err)
	assert.Equal(t, 2, init.PartCount)
	assert.Equal(t, chunk, init.ChunkSize)

	// Placeholder record exists in the uploading state
	placeholder, err := env.svc.GetFile(ctx, init.FileID)
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusUploading, placeholder.Status)

	// Interior parts must be exactly chunk-sized
	err = env.svc.UploadPart(ctx, init.UploadID, 1, content[:100])
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	require.NoError(t, env.svc.UploadPart(ctx, init.UploadID, 1, content[:chunk]))

	// Completing with a missing part fails
	_, err = env.svc.CompleteMultipartUpload(ctx, init.UploadID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeState))

	require.NoError(t, env.svc.UploadPart(ctx, init.UploadID, 2, content[chunk:]))

	file, err := env.svc.CompleteMultipartUpload(ctx, init.UploadID)
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusReady, file.Status)
	assert.Equal(t, int64(len(content)), file.Size)

	res, err := env.svc.Download(ctx, file.ID, domain.DownloadOptions{})
	require.NoError(t, err)
	assert.Equal(t, content, res.Content)

	// Re-completing a finished upload is a state violation
	_, err = env.svc.CompleteMultipartUpload(ctx, init.UploadID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeState))
}

func TestMultipartUpload_Abort(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	init, err := env.svc.InitiateMultipartUpload(ctx, "doomed.bin", "application/octet-stream",
		1024, env.userID, env.orgID, domain.UploadOptions{Category: domain.CategoryOther})
	require.NoError(t, err)

	require.NoError(t, env.svc.AbortMultipartUpload(ctx, init.UploadID))

	_, err = env.svc.GetFile(ctx, init.FileID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFileNotFound))
	assert.Equal(t, 0, env.blobs.Len())

	q := env.ledger.Get(env.orgID)
	assert.Equal(t, int64(0), q.UsedBytes)
}

func TestMultipartUpload_QuotaCheckedAtInitiate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.ledger.SetBudget(env.orgID, 100)

	_, err := env.svc.InitiateMultipartUpload(ctx, "big.bin", "application/octet-stream",
		200, env.userID, env.orgID, domain.UploadOptions{Category: domain.CategoryOther})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeQuotaExceeded))
}

func TestUpdateFileMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file := env.upload(t, "a.txt", []byte("meta"), domain.UploadOptions{
		Category: domain.CategoryOther,
		Metadata: map[string]interface{}{"project": "atlas", "stale": true},
	})

	newName := "renamed.txt"
	shared := domain.AccessShared
	updated, err := env.svc.UpdateFileMetadata(ctx, file.ID, domain.MetadataUpdate{
		Name:        &newName,
		Tags:        []string{"q3"},
		AccessLevel: &shared,
		Metadata:    map[string]interface{}{"reviewed": true, "stale": nil},
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed.txt", updated.Name)
	assert.Equal(t, "a.txt", updated.OriginalName)
	assert.Equal(t, []string{"q3"}, updated.Tags)
	assert.Equal(t, domain.AccessShared, updated.AccessLevel)
	assert.Equal(t, true, updated.Metadata["reviewed"])
	assert.Equal(t, "atlas", updated.Metadata["project"])
	_, stale := updated.Metadata["stale"]
	assert.False(t, stale)

	empty := ""
	_, err = env.svc.UpdateFileMetadata(ctx, file.ID, domain.MetadataUpdate{Name: &empty})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestGetFileVersions(t *testing.T) {
	env := newTestEnv(t)

	env.upload(t, "doc.txt", []byte("one"), domain.UploadOptions{Category: domain.CategoryOther, Comment: "first"})
	env.upload(t, "doc.txt", []byte("two"), domain.UploadOptions{Category: domain.CategoryOther, Version: true})
	file := env.upload(t, "doc.txt", []byte("three"), domain.UploadOptions{Category: domain.CategoryOther, Version: true})

	versions, err := env.svc.GetFileVersions(context.Background(), file.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, 3, versions[0].Version)
	assert.Equal(t, 2, versions[1].Version)
	assert.Equal(t, 1, versions[2].Version)
	assert.Equal(t, "first", versions[2].Comment)
	for _, v := range versions {
		assert.Empty(t, v.EncryptionKey)
	}
}

func TestLifecycleSweep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Expired file
	past := time.Now().Add(-time.Hour)
	expired := env.upload(t, "tmp.txt", []byte("expired"), domain.UploadOptions{
		Category: domain.CategoryOther, ExpiresAt: &past,
	})

	// Attachment idle past the auto-archive window
	idle := env.upload(t, "old.txt", []byte("idle"), domain.UploadOptions{Category: domain.CategoryAttachment})
	aged, err := env.files.Get(ctx, idle.ID)
	require.NoError(t, err)
	aged.UpdatedAt = time.Now().AddDate(0, 0, -200)
	require.NoError(t, env.files.Update(ctx, aged))

	// Fresh file stays untouched
	fresh := env.upload(t, "fresh.txt", []byte("fresh"), domain.UploadOptions{Category: domain.CategoryOther})

	res, err := env.svc.RunLifecycleSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 1, res.Archived)

	got, err := env.svc.GetFile(ctx, expired.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())

	got, err = env.svc.GetFile(ctx, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusArchived, got.Status)

	got, err = env.svc.GetFile(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusReady, got.Status)
}

func TestLifecycleSweep_AutoDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file := env.upload(t, "stale.txt", []byte("stale"), domain.UploadOptions{Category: domain.CategoryAttachment})
	aged, err := env.files.Get(ctx, file.ID)
	require.NoError(t, err)
	aged.CreatedAt = time.Now().AddDate(0, 0, -400)
	require.NoError(t, env.files.Update(ctx, aged))

	res, err := env.svc.RunLifecycleSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	// Auto-delete is soft, the file can still be restored
	_, err = env.svc.Restore(ctx, file.ID)
	assert.NoError(t, err)
}

func TestSearchAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.upload(t, "q3-report.pdf", []byte("r"), domain.UploadOptions{Category: domain.CategoryOther, Tags: []string{"finance"}})
	env.upload(t, "notes.txt", []byte("n"), domain.UploadOptions{Category: domain.CategoryDocument})

	found, err := env.svc.SearchFiles(ctx, env.orgID, "REPORT")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "q3-report.pdf", found[0].Name)

	found, err = env.svc.SearchFiles(ctx, env.orgID, "finance")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = env.svc.SearchFiles(ctx, env.orgID, "  ")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	listed, err := env.svc.ListFiles(ctx, env.orgID, domain.FileFilter{Category: domain.CategoryDocument})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "notes.txt", listed[0].Name)
}

func TestGetQuota(t *testing.T) {
	env := newTestEnv(t)

	env.upload(t, "a.bin", make([]byte, 128), domain.UploadOptions{Category: domain.CategoryDocument})

	q, err := env.svc.GetQuota(context.Background(), env.orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(128), q.UsedBytes)
	assert.Equal(t, int64(128), q.ByCategory[domain.CategoryDocument])
}
