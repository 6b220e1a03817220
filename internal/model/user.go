package model

import (
	"encoding/json"
	"time"
)

const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email         string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PasswordHash  string    `gorm:"size:255;not null" json:"-"`
	DisplayName   string    `gorm:"size:128" json:"display_name"`
	Plan          string    `gorm:"size:32;not null;default:free" json:"plan"`
	MessagesTotal int64     `gorm:"not null;default:0" json:"messages_total"`
	SessionsTotal int64     `gorm:"not null;default:0" json:"sessions_total"`
	Settings      string    `gorm:"type:text" json:"-"` // JSON object
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SettingsMap returns the parsed settings blob; empty map on parse error.
func (u *User) SettingsMap() map[string]interface{} {
	if u.Settings == "" {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(u.Settings), &m); err != nil || m == nil {
		return map[string]interface{}{}
	}
	return m
}

// SetSettings stores the settings blob as JSON.
func (u *User) SetSettings(m map[string]interface{}) {
	if len(m) == 0 {
		u.Settings = "{}"
		return
	}
	b, _ := json.Marshal(m)
	u.Settings = string(b)
}
