// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"kolboard/internal/cache"
	"kolboard/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	EnsureExists(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	TopByFollowers(ctx context.Context, limit int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername matches case-insensitively. Returns (nil, nil) when no user has the name.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(username)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	if err := readDB(r.db).WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// EnsureExists inserts the profile row for an authenticated account on first sight.
// Existing rows are left untouched.
func (r *userRepository) EnsureExists(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(user).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username already taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.Invalidate(ctx, cache.UserKey(id), cache.ProfileCardKey(id.String()))
	return nil
}

func (r *userRepository) TopByFollowers(ctx context.Context, limit int) ([]models.User, error) {
	users := []models.User{}
	if err := readDB(r.db).WithContext(ctx).
		Order("follower_count DESC").
		Order("username ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
