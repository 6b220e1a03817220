package model

import "time"

// Project is a generated-artifact record linked to a session.
type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SessionID   uint      `gorm:"not null;index" json:"session_id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	FileName    string    `gorm:"size:256;not null" json:"file_name"`
	ContentType string    `gorm:"size:128" json:"content_type"`
	SizeBytes   int64     `gorm:"not null;default:0" json:"size_bytes"`
	StorageKey  string    `gorm:"size:128;not null;uniqueIndex" json:"-"`
	PreviewURL  string    `gorm:"size:512" json:"preview_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
