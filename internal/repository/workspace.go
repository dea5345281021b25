package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/parchly/parchly/internal/model"
)

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
)

// WorkspaceRepository is read-only. Workspaces are owned by another part
// of the system; ingestion only resolves their identifiers.
type WorkspaceRepository interface {
	ByID(ctx context.Context, id string) (*model.Workspace, error)
}

type workspaceRepository struct {
	db *sqlx.DB
}

func NewWorkspaceRepository(db *sqlx.DB) *workspaceRepository {
	return &workspaceRepository{db: db}
}

func (r *workspaceRepository) ByID(ctx context.Context, id string) (*model.Workspace, error) {
	workspace := &model.Workspace{}
	query := `SELECT * FROM workspaces WHERE id = $1`

	err := r.db.GetContext(ctx, workspace, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrWorkspaceNotFound
	}

	return workspace, err
}
