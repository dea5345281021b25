package model

import (
	"time"
)

// Workspace is an external aggregate. The ingestion pipeline only reads
// its identifier and never mutates it.
type Workspace struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}
