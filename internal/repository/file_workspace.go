package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/parchly/parchly/internal/model"
)

var (
	ErrFileWorkspaceNotFound = errors.New("file workspace link not found")
)

type FileWorkspaceRepository interface {
	Create(ctx context.Context, link *model.FileWorkspace) error
	ByFileID(ctx context.Context, fileID string) ([]*model.FileWorkspace, error)
	Delete(ctx context.Context, fileID, workspaceID string) error
	DeleteByFile(ctx context.Context, fileID string) error
}

type fileWorkspaceRepository struct {
	db *sqlx.DB
}

func NewFileWorkspaceRepository(db *sqlx.DB) *fileWorkspaceRepository {
	return &fileWorkspaceRepository{db: db}
}

func (r *fileWorkspaceRepository) Create(ctx context.Context, link *model.FileWorkspace) error {
	query := `INSERT INTO file_workspaces (user_id, file_id, workspace_id, created_at)
	          VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query,
		link.UserID,
		link.FileID,
		link.WorkspaceID,
		link.CreatedAt,
	)

	return err
}

func (r *fileWorkspaceRepository) ByFileID(ctx context.Context, fileID string) ([]*model.FileWorkspace, error) {
	var links []*model.FileWorkspace
	query := `SELECT * FROM file_workspaces WHERE file_id = $1`

	err := r.db.SelectContext(ctx, &links, query, fileID)
	if err != nil {
		return nil, err
	}

	return links, nil
}

func (r *fileWorkspaceRepository) Delete(ctx context.Context, fileID, workspaceID string) error {
	query := `DELETE FROM file_workspaces WHERE file_id = $1 AND workspace_id = $2`

	res, err := r.db.ExecContext(ctx, query, fileID, workspaceID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrFileWorkspaceNotFound
	}

	return nil
}

func (r *fileWorkspaceRepository) DeleteByFile(ctx context.Context, fileID string) error {
	query := `DELETE FROM file_workspaces WHERE file_id = $1`
	_, err := r.db.ExecContext(ctx, query, fileID)
	return err
}
