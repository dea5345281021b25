package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/parchly/parchly/internal/ctxkeys"
	"github.com/parchly/parchly/internal/model"
	"github.com/parchly/parchly/internal/repository"
	"github.com/parchly/parchly/internal/service"
	"github.com/parchly/parchly/internal/validation"
)

type FileHandler struct {
	ingestService *service.IngestService
	fileService   *service.FileService
	maxUploadSize int64
}

func NewFileHandler(ingestService *service.IngestService, fileService *service.FileService, maxUploadSize int64) *FileHandler {
	return &FileHandler{
		ingestService: ingestService,
		fileService:   fileService,
		maxUploadSize: maxUploadSize,
	}
}

type fileResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	FilePath    string    `json:"file_path"`
	Size        int64     `json:"size"`
	Type        string    `json:"type"`
	Tokens      int64     `json:"tokens"`
	CreatedAt   time.Time `json:"created_at"`
	DownloadURL string    `json:"download_url,omitempty"`
}

func toFileResponse(file *model.File, downloadURL string) fileResponse {
	return fileResponse{
		ID:          file.ID,
		UserID:      file.UserID,
		Name:        file.Name,
		Description: file.Description,
		FilePath:    file.FilePath,
		Size:        file.Size,
		Type:        file.Type,
		Tokens:      file.Tokens,
		CreatedAt:   file.CreatedAt,
		DownloadURL: downloadURL,
	}
}

// Upload ingests a document into a workspace.
// POST /api/workspaces/{id}/files
// multipart form: file, embeddings_provider, description (optional)
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	workspaceID := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1<<20)
	err := r.ParseMultipartForm(h.maxUploadSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	err = validation.ValidateUpload(header, h.maxUploadSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	provider := r.FormValue("embeddings_provider")
	if provider == "" {
		provider = "openai"
	}

	ingested, err := h.ingestService.Ingest(r.Context(), service.IngestInput{
		UserID:             userID,
		Name:               header.Filename,
		Description:        strings.TrimSpace(r.FormValue("description")),
		Type:               header.Header.Get("Content-Type"),
		Content:            content,
		WorkspaceID:        workspaceID,
		EmbeddingsProvider: provider,
	})
	if err != nil {
		h.writeIngestError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFileResponse(ingested, h.fileService.DownloadURL(ingested)))
}

// writeIngestError maps pipeline failures to status codes, keeping the
// original failure's message so the client can render it.
func (h *FileHandler) writeIngestError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	slog.Error("file ingestion failed", "error", err, "user_id", ctxkeys.UserID(r.Context()), "path", r.URL.Path)

	var processingErr *service.ProcessingError
	if errors.As(err, &processingErr) {
		writeError(w, http.StatusBadGateway, "Failed to process file. Reason: "+processingErr.Error())
		return
	}

	var uploadErr *service.UploadError
	if errors.As(err, &uploadErr) {
		writeError(w, http.StatusBadGateway, "Failed to upload file.")
		return
	}

	writeError(w, http.StatusInternalServerError, "Failed to create file.")
}

// ByID returns one file's metadata with a presigned download URL.
// GET /api/files/{id}
func (h *FileHandler) ByID(w http.ResponseWriter, r *http.Request) {
	file, err := h.fileService.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		slog.Error("failed to load file", "error", err, "file_id", r.PathValue("id"))
		writeError(w, http.StatusInternalServerError, "Failed to load file")
		return
	}

	if file.UserID != ctxkeys.UserID(r.Context()) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	writeJSON(w, http.StatusOK, toFileResponse(file, h.fileService.DownloadURL(file)))
}

// ListByWorkspace returns the files linked to a workspace.
// GET /api/workspaces/{id}/files
func (h *FileHandler) ListByWorkspace(w http.ResponseWriter, r *http.Request) {
	files, err := h.fileService.ByWorkspace(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to list workspace files", "error", err, "workspace_id", r.PathValue("id"))
		writeError(w, http.StatusInternalServerError, "Failed to list files")
		return
	}

	resp := make([]fileResponse, 0, len(files))
	for _, file := range files {
		resp = append(resp, toFileResponse(file, ""))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Delete removes a file, its blob and its workspace links.
// DELETE /api/files/{id}
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	fileID := r.PathValue("id")

	file, err := h.fileService.ByID(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		slog.Error("failed to load file", "error", err, "file_id", fileID)
		writeError(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}

	if file.UserID != ctxkeys.UserID(r.Context()) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	err = h.fileService.Delete(r.Context(), fileID)
	if err != nil {
		slog.Error("failed to delete file", "error", err, "file_id", fileID)
		writeError(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unlink removes a file from a workspace without deleting the file.
// DELETE /api/workspaces/{workspaceID}/files/{fileID}
func (h *FileHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	err := h.fileService.Unlink(r.Context(), r.PathValue("fileID"), r.PathValue("workspaceID"))
	if err != nil {
		if errors.Is(err, repository.ErrFileWorkspaceNotFound) {
			writeError(w, http.StatusNotFound, "File is not in this workspace")
			return
		}
		slog.Error("failed to unlink file", "error", err, "file_id", r.PathValue("fileID"))
		writeError(w, http.StatusInternalServerError, "Failed to remove file from workspace")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
