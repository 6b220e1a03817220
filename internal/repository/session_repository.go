package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"agentboard/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

// ListByUserID returns the user's sessions, most recently updated first.
// An empty status lists all of them.
func (r *SessionRepository) ListByUserID(userID uint, status string) ([]model.Session, error) {
	query := r.db.Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var sessions []model.Session
	if err := query.Order("updated_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) GetByIDAndUserID(sessionID, userID uint) (*model.Session, error) {
	var session model.Session
	if err := r.db.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) Update(session *model.Session) error {
	updates := map[string]interface{}{
		"title":  session.Title,
		"status": session.Status,
	}
	if err := r.db.Model(&model.Session{}).Where("id = ?", session.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) TouchLastMessage(sessionID uint, at time.Time) error {
	updates := map[string]interface{}{
		"last_message_at": at,
		"updated_at":      at,
	}
	if err := r.db.Model(&model.Session{}).Where("id = ?", sessionID).Updates(updates).Error; err != nil {
		return fmt.Errorf("touch session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByIDAndUserID(sessionID, userID uint) error {
	if err := r.db.Where("id = ? AND user_id = ?", sessionID, userID).Delete(&model.Session{}).Error; err != nil {
		return fmt.Errorf("delete session failed: %w", err)
	}
	return nil
}
