package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchly/parchly/internal/model"
	"github.com/parchly/parchly/internal/repository"
)

func newFileServiceFixture() (*FileService, *fakeFileStore, *fakeLinkStore, *fakeBlobStore) {
	files := newFakeFileStore()
	links := newFakeLinkStore()
	blobs := newFakeBlobStore()
	svc := NewFileService(files, links, blobs, 15*time.Minute)
	return svc, files, links, blobs
}

func seedFile(t *testing.T, files *fakeFileStore, blobs *fakeBlobStore, id, path string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, files.Create(ctx, &model.File{
		ID:       id,
		UserID:   "user-1",
		Name:     id + ".pdf",
		FilePath: path,
	}))
	if path != "" {
		require.NoError(t, blobs.Save(ctx, path, strings.NewReader("blob")))
	}
}

func TestFileServiceDownloadURL(t *testing.T) {
	svc, _, _, _ := newFileServiceFixture()

	url := svc.DownloadURL(&model.File{FilePath: "user-1/f/f.pdf"})
	assert.Equal(t, "https://blobs.test/user-1/f/f.pdf", url)

	assert.Empty(t, svc.DownloadURL(&model.File{}), "no blob, no URL")
	assert.Empty(t, svc.DownloadURL(nil))
}

func TestFileServiceDelete(t *testing.T) {
	svc, files, links, blobs := newFileServiceFixture()
	ctx := context.Background()
	seedFile(t, files, blobs, "file-1", "user-1/file-1/file-1.pdf")
	require.NoError(t, links.Create(ctx, &model.FileWorkspace{
		UserID: "user-1", FileID: "file-1", WorkspaceID: "ws-1",
	}))

	require.NoError(t, svc.Delete(ctx, "file-1"))

	assert.Zero(t, files.count())
	assert.Zero(t, links.count())
	assert.Zero(t, blobs.count())
}

func TestFileServiceDeleteMissing(t *testing.T) {
	svc, _, _, _ := newFileServiceFixture()

	err := svc.Delete(context.Background(), "no-such-file")

	assert.ErrorIs(t, err, repository.ErrFileNotFound)
}

func TestFileServiceDeleteSurvivesBlobFailure(t *testing.T) {
	svc, files, _, blobs := newFileServiceFixture()
	ctx := context.Background()
	seedFile(t, files, blobs, "file-1", "user-1/file-1/file-1.pdf")
	blobs.failDelete = errors.New("bucket unreachable")

	require.NoError(t, svc.Delete(ctx, "file-1"), "blob cleanup is best effort")
	assert.Zero(t, files.count(), "the record must still be removed")
}

func TestFileServiceUnlink(t *testing.T) {
	svc, files, links, blobs := newFileServiceFixture()
	ctx := context.Background()
	seedFile(t, files, blobs, "file-1", "user-1/file-1/file-1.pdf")
	require.NoError(t, links.Create(ctx, &model.FileWorkspace{
		UserID: "user-1", FileID: "file-1", WorkspaceID: "ws-1",
	}))

	require.NoError(t, svc.Unlink(ctx, "file-1", "ws-1"))

	assert.Zero(t, links.count())
	assert.Equal(t, 1, files.count(), "unlinking must not delete the file")
	assert.Equal(t, 1, blobs.count())

	err := svc.Unlink(ctx, "file-1", "ws-1")
	assert.ErrorIs(t, err, repository.ErrFileWorkspaceNotFound)
}
