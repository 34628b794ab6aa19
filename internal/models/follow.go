package models

import (
	"time"

	"github.com/google/uuid"
)

// Follow is a directed user-to-user follow relation.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FolloweeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair;index" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}

// FollowStatus is returned by follow, unfollow and status lookups.
type FollowStatus struct {
	IsFollowing   bool `json:"is_following"`
	FollowerCount int  `json:"follower_count"`
}
