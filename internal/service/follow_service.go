package service

import (
	"context"
	"fmt"
	"log/slog"

	"kolboard/internal/models"
	"kolboard/internal/observability"
	"kolboard/internal/repository"

	"github.com/google/uuid"
)

// FollowService provides the user-to-user follow relation.
type FollowService struct {
	followRepo    repository.FollowRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, notifications *NotificationService) *FollowService {
	return &FollowService{
		followRepo:    followRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

// Follow is idempotent. A new relation notifies the followee.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID uuid.UUID) (*models.FollowStatus, error) {
	if followerID == followeeID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return nil, err
	}

	created, err := s.followRepo.Follow(ctx, followerID, followeeID)
	if err != nil {
		return nil, err
	}
	if created && s.notifications != nil {
		s.notifyFollow(ctx, followerID, followeeID)
	}
	return s.status(ctx, true, followeeID)
}

// Unfollow is idempotent.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) (*models.FollowStatus, error) {
	if followerID == followeeID {
		return nil, models.NewValidationError("You cannot unfollow yourself")
	}
	if _, err := s.followRepo.Unfollow(ctx, followerID, followeeID); err != nil {
		return nil, err
	}
	return s.status(ctx, false, followeeID)
}

// Status reports whether viewer follows target. An anonymous viewer never does.
func (s *FollowService) Status(ctx context.Context, viewerID *uuid.UUID, targetID uuid.UUID) (*models.FollowStatus, error) {
	following := false
	if viewerID != nil && *viewerID != targetID {
		var err error
		following, err = s.followRepo.IsFollowing(ctx, *viewerID, targetID)
		if err != nil {
			return nil, err
		}
	}
	return s.status(ctx, following, targetID)
}

func (s *FollowService) status(ctx context.Context, following bool, targetID uuid.UUID) (*models.FollowStatus, error) {
	count, err := s.followRepo.FollowerCount(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return &models.FollowStatus{IsFollowing: following, FollowerCount: count}, nil
}

func (s *FollowService) notifyFollow(ctx context.Context, followerID, followeeID uuid.UUID) {
	name := "Someone"
	if follower, err := s.userRepo.GetByID(ctx, followerID); err == nil && follower.Username != "" {
		name = "@" + follower.Username
	}
	related := followerID
	err := s.notifications.Notify(ctx, &models.Notification{
		UserID:        followeeID,
		Type:          models.NotificationFollow,
		Title:         "New follower",
		Message:       fmt.Sprintf("%s started following you", name),
		RelatedUserID: &related,
	})
	if err != nil {
		observability.Logger.WarnContext(ctx, "failed to create follow notification",
			slog.String("followee_id", followeeID.String()),
			slog.String("error", err.Error()),
		)
	}
}
