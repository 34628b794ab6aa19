package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies notifications for icons and filtering.
type NotificationType string

const (
	NotificationFollow     NotificationType = "follow"
	NotificationKOLPost    NotificationType = "kol_post"
	NotificationPriceAlert NotificationType = "price_alert"
	NotificationMention    NotificationType = "mention"
	NotificationSystem     NotificationType = "system"
)

// Notification is a per-user inbox entry.
type Notification struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	UserID        uuid.UUID        `gorm:"type:uuid;not null;index:idx_notifications_user_read" json:"user_id"`
	Type          NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Title         string           `gorm:"size:200;not null" json:"title"`
	Message       string           `gorm:"size:1000" json:"message"`
	Read          bool             `gorm:"index:idx_notifications_user_read" json:"read"`
	RelatedSymbol *string          `gorm:"size:16" json:"related_symbol,omitempty"`
	RelatedUserID *uuid.UUID       `gorm:"type:uuid" json:"related_user_id,omitempty"`
	CreatedAt     time.Time        `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
