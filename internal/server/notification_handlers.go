package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kolboard/internal/middleware"
	"kolboard/internal/models"
	"kolboard/internal/notifications"
	"kolboard/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const streamHeartbeat = 25 * time.Second

var errStreamUnavailable = errors.New("notification stream requires redis")

// ListNotifications handles GET /api/notifications?limit=&offset=&unread_only=
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	page := parsePagination(c, service.DefaultNotificationLimit)
	result, err := s.notificationService.List(c.UserContext(), currentUser(c), page.Limit, page.Offset, c.QueryBool("unread_only"))
	if err != nil {
		return respondList(c, err, fiber.Map{"notifications": []models.Notification{}, "total": 0})
	}
	return c.JSON(result)
}

// GetUnreadCount handles GET /api/notifications/unread-count
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.notificationService.UnreadCount(c.UserContext(), currentUser(c))
	if err != nil {
		return respondList(c, err, fiber.Map{"count": 0})
	}
	return c.JSON(fiber.Map{"count": count})
}

// MarkNotificationRead handles PATCH /api/notifications/:id/read
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.notificationService.MarkRead(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": id, "read": true})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	updated, err := s.notificationService.MarkAllRead(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}

// DeleteNotification handles DELETE /api/notifications/:id
func (s *Server) DeleteNotification(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.notificationService.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// StreamNotifications handles GET /api/notifications/stream. It pushes the
// unread count as server-sent events whenever the inbox changes; the first
// event carries the current count.
func (s *Server) StreamNotifications(c *fiber.Ctx) error {
	userID := currentUser(c)
	if !s.notifier.Enabled() {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(errStreamUnavailable))
	}

	unread, err := s.notificationService.UnreadCount(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	// The body is written after the handler returns, so the subscription is
	// bound to the server's lifetime instead of the request context.
	ctx, cancel := context.WithCancel(s.streams)
	events, err := s.notifier.Subscribe(ctx, userID)
	if err != nil {
		cancel()
		return respondError(c, models.NewInternalError(err))
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		if err := writeEvent(w, notifications.Event{Type: notifications.EventUnreadCount, UnreadCount: unread}); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := writeEvent(w, ev); err != nil {
					middleware.Logger.Debug("notification stream closed",
						slog.String("user_id", userID.String()),
						slog.String("error", err.Error()),
					)
					return
				}
			case <-heartbeat.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, ev notifications.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	return w.Flush()
}
