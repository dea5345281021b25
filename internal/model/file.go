package model

import (
	"time"
)

// File is a user-uploaded document. FilePath stays empty until the blob
// has been uploaded to storage; a File with a non-empty FilePath always
// has a reachable blob at that path.
type File struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Name        string    `db:"name"` // normalized display name
	Description string    `db:"description"`
	FilePath    string    `db:"file_path"`
	Size        int64     `db:"size"`
	Type        string    `db:"type"` // declared MIME type or extension
	Tokens      int64     `db:"tokens"`
	CreatedAt   time.Time `db:"created_at"`
}

// FileWorkspace links a File to a Workspace (many-to-many membership).
type FileWorkspace struct {
	UserID      string    `db:"user_id"`
	FileID      string    `db:"file_id"`
	WorkspaceID string    `db:"workspace_id"`
	CreatedAt   time.Time `db:"created_at"`
}
