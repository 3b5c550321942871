package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FileAttachment struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TaskID        string    `gorm:"type:varchar(36);not null;index" json:"taskId"`
	StoredName    string    `gorm:"type:varchar(512);not null" json:"storedName"`
	OriginalName  string    `gorm:"type:varchar(255);not null" json:"originalName"`
	StoragePath   string    `gorm:"type:varchar(1024);not null" json:"-"`
	MimeType      string    `gorm:"type:varchar(255);not null" json:"mimeType"`
	Size          int64     `gorm:"not null" json:"size"`
	UploadedBy    string    `gorm:"type:varchar(36);not null;index" json:"uploadedBy"`
	UploadedAt    time.Time `gorm:"not null" json:"uploadedAt"`
	DownloadCount int64     `gorm:"not null;default:0" json:"downloadCount"`
}

func (f *FileAttachment) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now().UTC()
	}
	return nil
}
