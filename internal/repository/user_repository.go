package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"favlinks/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	pool *Pool
}

func NewUserRepository(pool *Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// ExistsByUsername reports whether the username is already registered.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.pool.DB(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.pool.DB(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("user %q: %w", user.Username, ErrDuplicate)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByUsername returns the full record, password hash included.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.pool.DB(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// FindSessionUser loads the id/username projection used for session identity.
func (r *UserRepository) FindSessionUser(ctx context.Context, id uint) (*models.SessionUser, error) {
	var user models.SessionUser
	err := r.pool.DB(ctx).Model(&models.User{}).Select("id", "username").Where("id = ?", id).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
