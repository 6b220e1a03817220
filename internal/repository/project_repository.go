package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"agentboard/internal/model"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(project *model.Project) error {
	if err := r.db.Create(project).Error; err != nil {
		return fmt.Errorf("create project failed: %w", err)
	}
	return nil
}

// ListByUserID returns the user's projects, newest first. A sessionID of 0
// lists across all sessions.
func (r *ProjectRepository) ListByUserID(userID, sessionID uint) ([]model.Project, error) {
	query := r.db.Where("user_id = ?", userID)
	if sessionID > 0 {
		query = query.Where("session_id = ?", sessionID)
	}

	var projects []model.Project
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects failed: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepository) GetByIDAndUserID(projectID, userID uint) (*model.Project, error) {
	var project model.Project
	if err := r.db.Where("id = ? AND user_id = ?", projectID, userID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get project failed: %w", err)
	}
	return &project, nil
}

func (r *ProjectRepository) DeleteByIDAndUserID(projectID, userID uint) error {
	if err := r.db.Where("id = ? AND user_id = ?", projectID, userID).Delete(&model.Project{}).Error; err != nil {
		return fmt.Errorf("delete project failed: %w", err)
	}
	return nil
}
