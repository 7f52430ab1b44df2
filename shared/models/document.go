package models

import (
	"time"

	"gorm.io/gorm"
)

// Document is the metadata row for a stored file. The object itself lives in
// S3 under StorageKey; download access goes through presigned URLs.
type Document struct {
	ID            string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	WorkspaceSlug string         `json:"workspace_slug" gorm:"type:varchar(64);not null;index"`
	ClientID      string         `json:"client_id" gorm:"type:varchar(64);index"`
	FileName      string         `json:"file_name" gorm:"not null"`
	ContentType   string         `json:"content_type" gorm:"type:varchar(128)"`
	Size          int64          `json:"size"`
	StorageKey    string         `json:"storage_key" gorm:"type:varchar(255);not null"`
	UploadedBy    string         `json:"uploaded_by" gorm:"type:varchar(64)"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
