package service

import (
	"context"
	"log/slog"

	"kolboard/internal/cache"
	"kolboard/internal/models"
	"kolboard/internal/notifications"
	"kolboard/internal/observability"
	"kolboard/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultNotificationLimit = 20
	MaxNotificationLimit     = 100
)

// NotificationPage is the response of the inbox listing.
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	UnreadCount   int64                 `json:"unread_count"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
}

type NotificationService struct {
	repo     repository.NotificationRepository
	notifier *notifications.Notifier
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// WithNotifier publishes inbox changes so open dashboards update without polling.
func (s *NotificationService) WithNotifier(n *notifications.Notifier) *NotificationService {
	s.notifier = n
	return s
}

// Notify stores a notification for n.UserID.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.UserID == uuid.Nil {
		return models.NewValidationError("notification recipient is required")
	}
	if n.Type == "" {
		n.Type = models.NotificationSystem
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.UnreadCountKey(n.UserID))
	s.publish(ctx, n.UserID, notifications.EventCreated, n.ID)
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) (*NotificationPage, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	if limit > MaxNotificationLimit {
		limit = MaxNotificationLimit
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.repo.List(ctx, userID, limit, offset, unreadOnly)
	if err != nil {
		return nil, err
	}
	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NotificationPage{
		Notifications: items,
		Total:         total,
		UnreadCount:   unread,
		Limit:         limit,
		Offset:        offset,
	}, nil
}

// UnreadCount is served from Redis when present.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	key := cache.UnreadCountKey(userID)
	if v, ok := cache.GetInt64(ctx, key); ok {
		return v, nil
	}
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	cache.SetInt64(ctx, key, count, cache.UnreadCountTTL)
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID uuid.UUID, id uint) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.UnreadCountKey(userID))
	s.publish(ctx, userID, notifications.EventUnreadCount, 0)
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	cache.Invalidate(ctx, cache.UnreadCountKey(userID))
	s.publish(ctx, userID, notifications.EventUnreadCount, 0)
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID uuid.UUID, id uint) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.UnreadCountKey(userID))
	s.publish(ctx, userID, notifications.EventUnreadCount, 0)
	return nil
}

// publish sends the fresh unread count to the user's channel. Delivery is best
// effort; the inbox itself is already consistent.
func (s *NotificationService) publish(ctx context.Context, userID uuid.UUID, kind string, id uint) {
	if !s.notifier.Enabled() {
		return
	}
	unread, err := s.UnreadCount(ctx, userID)
	if err == nil {
		err = s.notifier.PublishUser(ctx, userID, notifications.Event{
			Type:           kind,
			NotificationID: id,
			UnreadCount:    unread,
		})
	}
	if err != nil {
		observability.Logger.WarnContext(ctx, "notification event not published",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
	}
}
