package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/parchly/parchly/internal/extract"
	"github.com/parchly/parchly/internal/model"
	"github.com/parchly/parchly/internal/processing"
	"github.com/parchly/parchly/internal/repository"
	"github.com/parchly/parchly/internal/storage"
	"github.com/parchly/parchly/internal/validation"
)

// ingestStage tracks how far an ingestion attempt got, which determines
// the compensation scope when a later step fails.
type ingestStage int

const (
	stageCreated ingestStage = iota + 1
	stageLinked
	stageUploaded
	stagePathSet
	stageProcessed
)

// ingestAttempt is the ephemeral saga state for one Ingest call. Never
// persisted, never shared between concurrent attempts.
type ingestAttempt struct {
	fileID      string
	workspaceID string
	storagePath string
	stage       ingestStage
}

// IngestService runs the document ingestion pipeline: create the file
// record, link it to its workspace, upload the blob, persist the storage
// path and trigger remote processing. Any failure after the record
// exists rolls the whole attempt back so no orphaned rows or blobs
// survive.
type IngestService struct {
	fileRepo repository.FileRepository
	linkRepo repository.FileWorkspaceRepository
	wsRepo   repository.WorkspaceRepository
	storage  storage.Storage
	trigger  processing.Trigger
}

func NewIngestService(
	fileRepo repository.FileRepository,
	linkRepo repository.FileWorkspaceRepository,
	wsRepo repository.WorkspaceRepository,
	storage storage.Storage,
	trigger processing.Trigger,
) *IngestService {
	return &IngestService{
		fileRepo: fileRepo,
		linkRepo: linkRepo,
		wsRepo:   wsRepo,
		storage:  storage,
		trigger:  trigger,
	}
}

// IngestInput carries one document to ingest plus its provisional
// metadata.
type IngestInput struct {
	UserID             string
	Name               string // user-supplied display name, normalized during ingestion
	Description        string
	Type               string // declared MIME type
	Content            []byte
	WorkspaceID        string
	EmbeddingsProvider string // "openai" or "local"
}

// Ingest runs the pipeline for one document and returns the finalized
// file record. Steps are strictly ordered; each depends on the previous
// one's output. On failure every record and blob created during the
// attempt is deleted best-effort before the original error is returned.
// Context cancellation mid-pipeline counts as a step failure and
// triggers the same rollback.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*model.File, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	name := validation.NormalizeFilename(input.Name)
	strategy := SelectStrategy(name)

	// Rich-text formats are extracted up front so a corrupt document is
	// rejected before any row exists.
	var text string
	if strategy == StrategyRichText {
		var err error
		text, err = extract.DocxText(bytes.NewReader(input.Content), int64(len(input.Content)))
		if err != nil {
			return nil, &ValidationError{Reason: fmt.Sprintf("could not extract document text: %v", err)}
		}
	}

	// The workspace is owned elsewhere; resolving it validates the
	// target before the saga starts mutating state.
	if _, err := s.wsRepo.ByID(ctx, input.WorkspaceID); err != nil {
		if errors.Is(err, repository.ErrWorkspaceNotFound) {
			return nil, &ValidationError{Reason: fmt.Sprintf("workspace %s not found", input.WorkspaceID)}
		}
		return nil, &RecordStoreError{Table: "workspaces", Op: "get", Err: err}
	}

	file := &model.File{
		ID:          uuid.New().String(),
		UserID:      input.UserID,
		Name:        name,
		Description: input.Description,
		Size:        int64(len(input.Content)),
		Type:        input.Type,
		CreatedAt:   time.Now().UTC(),
	}

	// Step 1: create the file record (storage path still empty).
	// Failure here is terminal; nothing to compensate.
	if err := s.fileRepo.Create(ctx, file); err != nil {
		return nil, &RecordStoreError{Table: "files", Op: "create", Err: err}
	}

	attempt := &ingestAttempt{
		fileID:      file.ID,
		workspaceID: input.WorkspaceID,
		stage:       stageCreated,
	}

	// Step 2: link the file to its workspace.
	link := &model.FileWorkspace{
		UserID:      input.UserID,
		FileID:      file.ID,
		WorkspaceID: input.WorkspaceID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.linkRepo.Create(ctx, link); err != nil {
		s.compensate(ctx, attempt)
		return nil, &RecordStoreError{Table: "file_workspaces", Op: "create", Err: err}
	}
	attempt.stage = stageLinked

	// Step 3: upload the blob under user/file/name.
	path := fmt.Sprintf("%s/%s/%s", input.UserID, file.ID, name)
	if err := s.storage.Save(ctx, path, bytes.NewReader(input.Content)); err != nil {
		s.compensate(ctx, attempt)
		return nil, &UploadError{Err: err}
	}
	attempt.storagePath = path
	attempt.stage = stageUploaded

	// Step 4: persist the storage path on the record.
	if err := s.fileRepo.UpdatePath(ctx, file.ID, path); err != nil {
		s.compensate(ctx, attempt)
		return nil, &RecordStoreError{Table: "files", Op: "update", Err: err}
	}
	attempt.stage = stagePathSet

	// Step 5: trigger remote processing with the routed strategy.
	var err error
	switch strategy {
	case StrategyRichText:
		err = s.trigger.ProcessText(ctx, text, file.ID, input.EmbeddingsProvider, validation.FileExtension(name))
	default:
		err = s.trigger.Process(ctx, file.ID, input.EmbeddingsProvider)
	}
	if err != nil {
		s.compensate(ctx, attempt)
		return nil, processingError(err)
	}
	attempt.stage = stageProcessed

	// Step 6: re-read and return the finalized record.
	finalized, err := s.fileRepo.ByID(ctx, file.ID)
	if err != nil {
		s.compensate(ctx, attempt)
		return nil, &RecordStoreError{Table: "files", Op: "get", Err: err}
	}

	return finalized, nil
}

func (s *IngestService) validate(input IngestInput) error {
	switch {
	case input.UserID == "":
		return &ValidationError{Reason: "user id is required"}
	case input.Name == "":
		return &ValidationError{Reason: "file name is required"}
	case input.WorkspaceID == "":
		return &ValidationError{Reason: "workspace id is required"}
	case len(input.Content) == 0:
		return &ValidationError{Reason: "file is empty"}
	case validation.FileExtension(input.Name) == "":
		return &ValidationError{Reason: "file has no extension"}
	}

	switch input.EmbeddingsProvider {
	case "openai", "local":
		return nil
	default:
		return &ValidationError{Reason: fmt.Sprintf("unknown embeddings provider %q", input.EmbeddingsProvider)}
	}
}

// compensate deletes everything this attempt created: the workspace
// link, the file record and the uploaded blob. Best-effort only; each
// failure is logged and swallowed so the original pipeline error is
// what the caller sees. The rollback runs on a detached context so a
// canceled request still gets cleaned up.
func (s *IngestService) compensate(ctx context.Context, attempt *ingestAttempt) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if attempt.stage >= stageLinked {
		err := s.linkRepo.DeleteByFile(ctx, attempt.fileID)
		if err != nil {
			slog.Warn("ingest rollback: failed to delete workspace link",
				"error", err, "file_id", attempt.fileID, "workspace_id", attempt.workspaceID)
		}
	}

	if attempt.stage >= stageCreated {
		err := s.fileRepo.Delete(ctx, attempt.fileID)
		if err != nil {
			slog.Warn("ingest rollback: failed to delete file record",
				"error", err, "file_id", attempt.fileID)
		}
	}

	if attempt.stage >= stageUploaded {
		err := s.storage.Delete(ctx, attempt.storagePath)
		if err != nil {
			slog.Warn("ingest rollback: failed to delete blob",
				"error", err, "path", attempt.storagePath)
		}
	}
}

// processingError converts a trigger failure into the service error
// taxonomy, preserving the remote status and message when present.
func processingError(err error) error {
	var failure *processing.Failure
	if errors.As(err, &failure) {
		return &ProcessingError{
			Status:  failure.StatusCode,
			Message: failure.Message,
			Err:     err,
		}
	}
	return &ProcessingError{Err: err}
}
