package model

import (
	"encoding/json"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	SessionID        uint      `gorm:"not null;index" json:"session_id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	Role             string    `gorm:"size:16;not null;index" json:"role"`
	Content          string    `gorm:"type:text;not null" json:"content"`
	SuggestedActions string    `gorm:"type:text" json:"-"` // JSON array of strings
	Metadata         string    `gorm:"type:text" json:"-"` // JSON object
	CreatedAt        time.Time `json:"created_at"`
}

// SuggestedActionList returns the parsed suggested actions; nil on parse error.
func (m *Message) SuggestedActionList() []string {
	if m.SuggestedActions == "" {
		return nil
	}
	var actions []string
	_ = json.Unmarshal([]byte(m.SuggestedActions), &actions)
	return actions
}

// SetSuggestedActions stores the suggested actions as JSON.
func (m *Message) SetSuggestedActions(actions []string) {
	if len(actions) == 0 {
		m.SuggestedActions = ""
		return
	}
	b, _ := json.Marshal(actions)
	m.SuggestedActions = string(b)
}

// MetadataMap returns the parsed metadata blob; empty map on parse error.
func (m *Message) MetadataMap() map[string]interface{} {
	if m.Metadata == "" {
		return map[string]interface{}{}
	}
	var meta map[string]interface{}
	if err := json.Unmarshal([]byte(m.Metadata), &meta); err != nil || meta == nil {
		return map[string]interface{}{}
	}
	return meta
}

// SetMetadata stores the metadata blob as JSON.
func (m *Message) SetMetadata(meta map[string]interface{}) {
	if len(meta) == 0 {
		m.Metadata = ""
		return
	}
	b, _ := json.Marshal(meta)
	m.Metadata = string(b)
}

// MessageView is the API representation with JSON columns expanded.
type MessageView struct {
	ID               uint                   `json:"id"`
	SessionID        uint                   `json:"session_id"`
	UserID           uint                   `json:"user_id"`
	Role             string                 `json:"role"`
	Content          string                 `json:"content"`
	SuggestedActions []string               `json:"suggested_actions,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

func (m *Message) View() MessageView {
	view := MessageView{
		ID:               m.ID,
		SessionID:        m.SessionID,
		UserID:           m.UserID,
		Role:             m.Role,
		Content:          m.Content,
		SuggestedActions: m.SuggestedActionList(),
		CreatedAt:        m.CreatedAt,
	}
	if m.Metadata != "" {
		view.Metadata = m.MetadataMap()
	}
	return view
}

func MessageViews(messages []Message) []MessageView {
	views := make([]MessageView, 0, len(messages))
	for i := range messages {
		views = append(views, messages[i].View())
	}
	return views
}
