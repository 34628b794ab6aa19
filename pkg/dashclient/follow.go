package dashclient

import (
	"context"
	"net/http"

	"kolboard/internal/models"

	"github.com/google/uuid"
)

func followPath(userID uuid.UUID) string {
	return "/users/" + userID.String() + "/follow"
}

func (c *Client) Follow(ctx context.Context, userID uuid.UUID) (*models.FollowStatus, error) {
	var status models.FollowStatus
	if err := c.send(ctx, http.MethodPost, followPath(userID), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Unfollow(ctx context.Context, userID uuid.UUID) (*models.FollowStatus, error) {
	var status models.FollowStatus
	if err := c.send(ctx, http.MethodDelete, followPath(userID), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// FollowStatus works without a token; an anonymous viewer is never following.
func (c *Client) FollowStatus(ctx context.Context, userID uuid.UUID) (*models.FollowStatus, error) {
	var status models.FollowStatus
	if err := c.get(ctx, "/users/"+userID.String()+"/follow-status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
