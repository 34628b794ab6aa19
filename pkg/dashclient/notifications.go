package dashclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"kolboard/internal/models"
)

type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	UnreadCount   int64                 `json:"unread_count"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
}

func (c *Client) Notifications(ctx context.Context, limit, offset int, unreadOnly bool) (*NotificationPage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if unreadOnly {
		q.Set("unread_only", "true")
	}
	var page NotificationPage
	if err := c.get(ctx, "/notifications", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := c.get(ctx, "/notifications/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id uint) error {
	return c.send(ctx, http.MethodPatch, "/notifications/"+strconv.FormatUint(uint64(id), 10)+"/read", nil, nil)
}

// MarkAllNotificationsRead returns how many notifications changed state.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	if err := c.send(ctx, http.MethodPost, "/notifications/read-all", nil, &out); err != nil {
		return 0, err
	}
	return out.Updated, nil
}

func (c *Client) DeleteNotification(ctx context.Context, id uint) error {
	return c.send(ctx, http.MethodDelete, "/notifications/"+strconv.FormatUint(uint64(id), 10), nil, nil)
}
