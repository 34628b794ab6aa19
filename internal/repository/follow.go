package repository

import (
	"context"
	"errors"

	"kolboard/internal/cache"
	"kolboard/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines persistence for the follow relation and its counters.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followeeID uuid.UUID) (created bool, err error)
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) (deleted bool, err error)
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	FollowerCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Follow inserts the relation and bumps both counters in one transaction.
// An existing relation is left as is and created is false.
func (r *followRepository) Follow(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		if err := tx.Model(&models.User{}).Where("id = ?", followeeID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", followerID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if created {
		r.invalidate(ctx, followerID, followeeID)
	}
	return created, nil
}

// Unfollow deletes the relation and lowers both counters, never below zero.
func (r *followRepository) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		if err := tx.Model(&models.User{}).Where("id = ?", followeeID).
			UpdateColumn("follower_count", decrementExpr("follower_count")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", followerID).
			UpdateColumn("following_count", decrementExpr("following_count")).Error
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if deleted {
		r.invalidate(ctx, followerID, followeeID)
	}
	return deleted, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) FollowerCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("follower_count").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, models.NewNotFoundError("User", userID)
		}
		return 0, models.NewInternalError(err)
	}
	return user.FollowerCount, nil
}

func (r *followRepository) invalidate(ctx context.Context, ids ...uuid.UUID) {
	keys := make([]string, 0, len(ids)*2)
	for _, id := range ids {
		keys = append(keys, cache.UserKey(id), cache.ProfileCardKey(id.String()))
	}
	cache.Invalidate(ctx, keys...)
}
