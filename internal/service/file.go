package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parchly/parchly/internal/model"
	"github.com/parchly/parchly/internal/repository"
	"github.com/parchly/parchly/internal/storage"
)

// FileService covers file management outside the ingestion pipeline:
// lookups, workspace listings, download URLs and deletion.
type FileService struct {
	fileRepo          repository.FileRepository
	linkRepo          repository.FileWorkspaceRepository
	storage           storage.Storage
	downloadURLExpiry time.Duration
}

func NewFileService(fileRepo repository.FileRepository, linkRepo repository.FileWorkspaceRepository, storage storage.Storage, downloadURLExpiry time.Duration) *FileService {
	return &FileService{
		fileRepo:          fileRepo,
		linkRepo:          linkRepo,
		storage:           storage,
		downloadURLExpiry: downloadURLExpiry,
	}
}

func (s *FileService) ByID(ctx context.Context, id string) (*model.File, error) {
	return s.fileRepo.ByID(ctx, id)
}

func (s *FileService) ByWorkspace(ctx context.Context, workspaceID string) ([]*model.File, error) {
	return s.fileRepo.ByWorkspace(ctx, workspaceID)
}

func (s *FileService) AllUserFiles(ctx context.Context, userID string) ([]*model.File, error) {
	return s.fileRepo.AllUserFiles(ctx, userID)
}

// DownloadURL returns a presigned URL for the file's blob. Empty when
// the file has no uploaded blob yet.
func (s *FileService) DownloadURL(file *model.File) string {
	if file == nil || file.FilePath == "" {
		return ""
	}

	url, err := s.storage.DownloadURL(file.FilePath, s.downloadURLExpiry)
	if err != nil {
		slog.Error("failed to presign download URL", "error", err, "path", file.FilePath)
		return ""
	}
	return url
}

// Delete removes a file: blob first (best effort), then the record. The
// workspace links go with the record via the cascading foreign key.
func (s *FileService) Delete(ctx context.Context, id string) error {
	file, err := s.fileRepo.ByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	if file.FilePath != "" {
		delErr := s.storage.Delete(ctx, file.FilePath)
		if delErr != nil {
			slog.Warn("failed to delete blob from storage", "error", delErr, "path", file.FilePath)
		}
	}

	// Explicit link cleanup as well, for backends without FK enforcement
	err = s.linkRepo.DeleteByFile(ctx, id)
	if err != nil {
		slog.Warn("failed to delete workspace links", "error", err, "file_id", id)
	}

	err = s.fileRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}

// Unlink removes a file from one workspace without deleting the file.
func (s *FileService) Unlink(ctx context.Context, fileID, workspaceID string) error {
	return s.linkRepo.Delete(ctx, fileID, workspaceID)
}
