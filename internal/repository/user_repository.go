package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"agentboard/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(username string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by username failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) UpdateProfile(user *model.User) error {
	updates := map[string]interface{}{
		"display_name": user.DisplayName,
		"settings":     user.Settings,
	}
	if err := r.db.Model(&model.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update user profile failed: %w", err)
	}
	return nil
}

func (r *UserRepository) IncrementMessagesTotal(userID uint, delta int64) error {
	if err := r.db.Model(&model.User{}).Where("id = ?", userID).
		UpdateColumn("messages_total", gorm.Expr("messages_total + ?", delta)).Error; err != nil {
		return fmt.Errorf("increment messages total failed: %w", err)
	}
	return nil
}

func (r *UserRepository) IncrementSessionsTotal(userID uint, delta int64) error {
	if err := r.db.Model(&model.User{}).Where("id = ?", userID).
		UpdateColumn("sessions_total", gorm.Expr("sessions_total + ?", delta)).Error; err != nil {
		return fmt.Errorf("increment sessions total failed: %w", err)
	}
	return nil
}
