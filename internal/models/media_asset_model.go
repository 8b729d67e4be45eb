package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaAsset is a file uploaded to object storage for use in a post.
type MediaAsset struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	OrgID     string    `db:"org_id" json:"org_id,omitempty"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	FileURL   string    `db:"file_url" json:"file_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
