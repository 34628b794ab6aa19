// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Theme is the UI theme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// MembershipTier is the subscription tier shown on the profile.
type MembershipTier string

const (
	TierFree  MembershipTier = "free"
	TierPro   MembershipTier = "pro"
	TierElite MembershipTier = "elite"
)

// User is the local profile row for an account issued by the managed auth service.
// ID equals the JWT subject.
type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username       string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	DisplayName    string         `gorm:"size:100" json:"display_name"`
	Email          string         `gorm:"size:255" json:"email,omitempty"`
	Phone          string         `gorm:"size:16" json:"phone,omitempty"`
	AvatarURL      string         `json:"avatar_url"`
	Bio            string         `gorm:"size:500" json:"bio"`
	Theme          Theme          `gorm:"type:varchar(10);default:'system'" json:"theme"`
	MembershipTier MembershipTier `gorm:"type:varchar(10);default:'free'" json:"membership_tier"`

	NotifyEmail       bool `gorm:"not null" json:"notify_email"`
	NotifyPush        bool `gorm:"not null" json:"notify_push"`
	NotifyKOLPosts    bool `gorm:"not null" json:"notify_kol_posts"`
	NotifyPriceAlerts bool `gorm:"not null" json:"notify_price_alerts"`

	FollowerCount  int `gorm:"default:0;not null;check:follower_count >= 0" json:"follower_count"`
	FollowingCount int `gorm:"default:0;not null;check:following_count >= 0" json:"following_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// SettingsUpdate is a partial update of the settings form. Nil fields are left unchanged.
type SettingsUpdate struct {
	DisplayName       *string `json:"display_name" validate:"omitempty,max=100"`
	Bio               *string `json:"bio" validate:"omitempty,max=500"`
	Phone             *string `json:"phone" validate:"omitempty,e164phone"`
	Theme             *Theme  `json:"theme" validate:"omitempty,oneof=light dark system"`
	NotifyEmail       *bool   `json:"notify_email"`
	NotifyPush        *bool   `json:"notify_push"`
	NotifyKOLPosts    *bool   `json:"notify_kol_posts"`
	NotifyPriceAlerts *bool   `json:"notify_price_alerts"`
}

// ProfileCard is the compact profile used by hover cards.
type ProfileCard struct {
	ID             uuid.UUID      `json:"id"`
	Username       string         `json:"username"`
	DisplayName    string         `json:"display_name"`
	AvatarURL      string         `json:"avatar_url"`
	Bio            string         `json:"bio"`
	MembershipTier MembershipTier `json:"membership_tier"`
	FollowerCount  int            `json:"follower_count"`
	FollowingCount int            `json:"following_count"`
	HoldingsPublic bool           `json:"holdings_public"`
}

// ToProfileCard projects a user onto the hover-card shape.
func (u *User) ToProfileCard() ProfileCard {
	return ProfileCard{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		AvatarURL:      u.AvatarURL,
		Bio:            u.Bio,
		MembershipTier: u.MembershipTier,
		FollowerCount:  u.FollowerCount,
		FollowingCount: u.FollowingCount,
	}
}
