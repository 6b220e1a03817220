package model

import "time"

const (
	SessionActive    = "active"
	SessionArchived  = "archived"
	SessionCompleted = "completed"
)

type Session struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	Title          string     `gorm:"size:128;not null" json:"title"`
	Status         string     `gorm:"size:16;not null;default:active;index" json:"status"`
	AgentSessionID string     `gorm:"size:64;not null;uniqueIndex" json:"agent_session_id"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func ValidSessionStatus(status string) bool {
	switch status {
	case SessionActive, SessionArchived, SessionCompleted:
		return true
	}
	return false
}
