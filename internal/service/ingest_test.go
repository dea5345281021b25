package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchly/parchly/internal/model"
	"github.com/parchly/parchly/internal/processing"
	"github.com/parchly/parchly/internal/repository"
)

type fakeFileStore struct {
	mu    sync.Mutex
	files map[string]*model.File

	failCreate error
	failUpdate error
	failByID   error
	failDelete error
	deletes    int
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: map[string]*model.File{}}
}

func (s *fakeFileStore) Create(_ context.Context, file *model.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	cp := *file
	s.files[file.ID] = &cp
	return nil
}

func (s *fakeFileStore) ByID(_ context.Context, id string) (*model.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failByID != nil {
		return nil, s.failByID
	}
	file, ok := s.files[id]
	if !ok {
		return nil, repository.ErrFileNotFound
	}
	cp := *file
	return &cp, nil
}

func (s *fakeFileStore) UpdatePath(_ context.Context, id, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate != nil {
		return s.failUpdate
	}
	file, ok := s.files[id]
	if !ok {
		return repository.ErrFileNotFound
	}
	file.FilePath = path
	return nil
}

func (s *fakeFileStore) ByWorkspace(_ context.Context, _ string) ([]*model.File, error) {
	return nil, nil
}

func (s *fakeFileStore) AllUserFiles(_ context.Context, _ string) ([]*model.File, error) {
	return nil, nil
}

func (s *fakeFileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.failDelete != nil {
		return s.failDelete
	}
	delete(s.files, id)
	return nil
}

func (s *fakeFileStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

type fakeLinkStore struct {
	mu    sync.Mutex
	links map[string]*model.FileWorkspace // keyed by fileID + "/" + workspaceID

	failCreate error
	failDelete error
	deletes    int
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{links: map[string]*model.FileWorkspace{}}
}

func (s *fakeLinkStore) Create(_ context.Context, link *model.FileWorkspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	cp := *link
	s.links[link.FileID+"/"+link.WorkspaceID] = &cp
	return nil
}

func (s *fakeLinkStore) ByFileID(_ context.Context, fileID string) ([]*model.FileWorkspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.FileWorkspace
	for _, link := range s.links {
		if link.FileID == fileID {
			cp := *link
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeLinkStore) Delete(_ context.Context, fileID, workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fileID + "/" + workspaceID
	if _, ok := s.links[key]; !ok {
		return repository.ErrFileWorkspaceNotFound
	}
	delete(s.links, key)
	return nil
}

func (s *fakeLinkStore) DeleteByFile(_ context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.failDelete != nil {
		return s.failDelete
	}
	for key, link := range s.links {
		if link.FileID == fileID {
			delete(s.links, key)
		}
	}
	return nil
}

func (s *fakeLinkStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links)
}

type fakeWorkspaceStore struct {
	workspaces map[string]*model.Workspace
}

func (s *fakeWorkspaceStore) ByID(_ context.Context, id string) (*model.Workspace, error) {
	workspace, ok := s.workspaces[id]
	if !ok {
		return nil, repository.ErrWorkspaceNotFound
	}
	return workspace, nil
}

type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	failSave   error
	failDelete error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (s *fakeBlobStore) Save(_ context.Context, path string, file io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	s.blobs[path] = data
	return nil
}

func (s *fakeBlobStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete != nil {
		return s.failDelete
	}
	delete(s.blobs, path)
	return nil
}

func (s *fakeBlobStore) DownloadURL(path string, _ time.Duration) (string, error) {
	return "https://blobs.test/" + path, nil
}

func (s *fakeBlobStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

type processCall struct {
	fileID   string
	provider string
}

type processTextCall struct {
	text      string
	fileID    string
	provider  string
	extension string
}

type fakeTrigger struct {
	mu        sync.Mutex
	calls     []processCall
	textCalls []processTextCall
	fail      error
}

func (t *fakeTrigger) Process(_ context.Context, fileID, embeddingsProvider string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return t.fail
	}
	t.calls = append(t.calls, processCall{fileID: fileID, provider: embeddingsProvider})
	return nil
}

func (t *fakeTrigger) ProcessText(_ context.Context, text, fileID, embeddingsProvider, fileExtension string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return t.fail
	}
	t.textCalls = append(t.textCalls, processTextCall{
		text:      text,
		fileID:    fileID,
		provider:  embeddingsProvider,
		extension: fileExtension,
	})
	return nil
}

type ingestFixture struct {
	files   *fakeFileStore
	links   *fakeLinkStore
	blobs   *fakeBlobStore
	trigger *fakeTrigger
	svc     *IngestService
}

func newIngestFixture() *ingestFixture {
	files := newFakeFileStore()
	links := newFakeLinkStore()
	blobs := newFakeBlobStore()
	trigger := &fakeTrigger{}
	workspaces := &fakeWorkspaceStore{workspaces: map[string]*model.Workspace{
		"ws-1": {ID: "ws-1", UserID: "user-1", Name: "research"},
	}}

	return &ingestFixture{
		files:   files,
		links:   links,
		blobs:   blobs,
		trigger: trigger,
		svc:     NewIngestService(files, links, workspaces, blobs, trigger),
	}
}

func (f *ingestFixture) assertEmpty(t *testing.T) {
	t.Helper()
	assert.Zero(t, f.files.count(), "file records must be rolled back")
	assert.Zero(t, f.links.count(), "workspace links must be rolled back")
	assert.Zero(t, f.blobs.count(), "blobs must be rolled back")
}

func passThroughInput() IngestInput {
	return IngestInput{
		UserID:             "user-1",
		Name:               "Quarterly Report.pdf",
		Description:        "Q2 numbers",
		Type:               "application/pdf",
		Content:            []byte("%PDF-1.4 fake"),
		WorkspaceID:        "ws-1",
		EmbeddingsProvider: "openai",
	}
}

func makeDocx(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	xml := fmt.Sprintf(
		`<w:document xmlns:w="ns"><w:body><w:p><w:r><w:t>%s</w:t></w:r></w:p></w:body></w:document>`,
		text,
	)
	_, err = w.Write([]byte(xml))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestIngestPassThrough(t *testing.T) {
	f := newIngestFixture()

	file, err := f.svc.Ingest(context.Background(), passThroughInput())

	require.NoError(t, err)
	assert.Equal(t, "quarterly_report.pdf", file.Name)
	assert.Equal(t, "user-1", file.UserID)
	assert.Equal(t, int64(len("%PDF-1.4 fake")), file.Size)

	wantPath := fmt.Sprintf("user-1/%s/quarterly_report.pdf", file.ID)
	assert.Equal(t, wantPath, file.FilePath)
	assert.Equal(t, 1, f.blobs.count())

	links, err := f.links.ByFileID(context.Background(), file.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "ws-1", links[0].WorkspaceID)

	require.Len(t, f.trigger.calls, 1)
	assert.Equal(t, processCall{fileID: file.ID, provider: "openai"}, f.trigger.calls[0])
	assert.Empty(t, f.trigger.textCalls)
}

func TestIngestRichText(t *testing.T) {
	f := newIngestFixture()
	input := passThroughInput()
	input.Name = "Meeting Notes.docx"
	input.Type = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	input.Content = makeDocx(t, "hello from the meeting")
	input.EmbeddingsProvider = "local"

	file, err := f.svc.Ingest(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "meeting_notes.docx", file.Name)

	require.Len(t, f.trigger.textCalls, 1)
	call := f.trigger.textCalls[0]
	assert.Equal(t, "hello from the meeting", call.text)
	assert.Equal(t, file.ID, call.fileID)
	assert.Equal(t, "local", call.provider)
	assert.Equal(t, "docx", call.extension)
	assert.Empty(t, f.trigger.calls, "rich text documents must not hit the binary endpoint")
}

func TestIngestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*IngestInput)
	}{
		{"missing user", func(in *IngestInput) { in.UserID = "" }},
		{"missing name", func(in *IngestInput) { in.Name = "" }},
		{"missing workspace", func(in *IngestInput) { in.WorkspaceID = "" }},
		{"empty content", func(in *IngestInput) { in.Content = nil }},
		{"no extension", func(in *IngestInput) { in.Name = "README" }},
		{"unknown provider", func(in *IngestInput) { in.EmbeddingsProvider = "azure" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIngestFixture()
			input := passThroughInput()
			tt.mutate(&input)

			_, err := f.svc.Ingest(context.Background(), input)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			f.assertEmpty(t)
			assert.Empty(t, f.trigger.calls)
			assert.Empty(t, f.trigger.textCalls)
		})
	}
}

func TestIngestCorruptDocxRejectedBeforeAnyWrite(t *testing.T) {
	f := newIngestFixture()
	input := passThroughInput()
	input.Name = "broken.docx"
	input.Content = []byte("not a zip archive at all")

	_, err := f.svc.Ingest(context.Background(), input)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	f.assertEmpty(t)
	assert.Zero(t, f.files.deletes, "nothing was created, so nothing should be rolled back")
}

func TestIngestUnknownWorkspace(t *testing.T) {
	f := newIngestFixture()
	input := passThroughInput()
	input.WorkspaceID = "ws-missing"

	_, err := f.svc.Ingest(context.Background(), input)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "ws-missing")
	f.assertEmpty(t)
}

func TestIngestCreateFailureIsTerminal(t *testing.T) {
	f := newIngestFixture()
	f.files.failCreate = errors.New("connection refused")

	_, err := f.svc.Ingest(context.Background(), passThroughInput())

	var rerr *RecordStoreError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "files", rerr.Table)
	assert.Equal(t, "create", rerr.Op)

	f.assertEmpty(t)
	assert.Zero(t, f.files.deletes, "no compensation when step one fails")
	assert.Zero(t, f.links.deletes)
}

func TestIngestLinkFailureRollsBackRecord(t *testing.T) {
	f := newIngestFixture()
	f.links.failCreate = errors.New("foreign key violation")

	_, err := f.svc.Ingest(context.Background(), passThroughInput())

	var rerr *RecordStoreError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "file_workspaces", rerr.Table)
	f.assertEmpty(t)
}

func TestIngestUploadFailureRollsBackRecordAndLink(t *testing.T) {
	f := newIngestFixture()
	f.blobs.failSave = errors.New("bucket unreachable")

	_, err := f.svc.Ingest(context.Background(), passThroughInput())

	var uerr *UploadError
	require.ErrorAs(t, err, &uerr)
	f.assertEmpty(t)
	assert.Empty(t, f.trigger.calls, "processing must not run after a failed upload")
}

func TestIngestPathUpdateFailureRollsBackEverything(t *testing.T) {
	f := newIngestFixture()
	f.files.failUpdate = errors.New("deadlock detected")

	_, err := f.svc.Ingest(context.Background(), passThroughInput())

	var rerr *RecordStoreError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "update", rerr.Op)
	f.assertEmpty(t)
}

func TestIngestProcessingFailureRollsBackEverything(t *testing.T) {
	f := newIngestFixture()
	f.trigger.fail = &processing.Failure{
		StatusCode: http.StatusUnprocessableEntity,
		Message:    "unsupported encoding",
	}

	_, err := f.svc.Ingest(context.Background(), passThroughInput())

	var perr *ProcessingError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusUnprocessableEntity, perr.Status)
	assert.Equal(t, "unsupported encoding", perr.Message)
	f.assertEmpty(t)
}

func TestIngestFinalReadFailureRollsBackEverything(t *testing.T) {
	f := newIngestFixture()
	f.files.failByID = errors.New("connection reset")

	_, err := f.svc.Ingest(context.Background(), passThroughInput())

	var rerr *RecordStoreError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "get", rerr.Op)
	assert.Zero(t, f.links.count())
	assert.Zero(t, f.blobs.count())
}

func TestIngestRollbackFailureDoesNotMaskOriginalError(t *testing.T) {
	f := newIngestFixture()
	f.blobs.failSave = errors.New("bucket unreachable")
	f.links.failDelete = errors.New("rollback also broken")
	f.files.failDelete = errors.New("rollback also broken")

	_, err := f.svc.Ingest(context.Background(), passThroughInput())

	var uerr *UploadError
	require.ErrorAs(t, err, &uerr, "the caller must see the upload failure, not the rollback failure")
	assert.ErrorContains(t, err, "bucket unreachable")
}

func TestIngestConcurrentSameWorkspace(t *testing.T) {
	f := newIngestFixture()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			input := passThroughInput()
			input.Name = fmt.Sprintf("doc-%d.pdf", i)
			_, errs[i] = f.svc.Ingest(context.Background(), input)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "ingest %d", i)
	}
	assert.Equal(t, 4, f.files.count())
	assert.Equal(t, 4, f.links.count())
	assert.Equal(t, 4, f.blobs.count())
}
