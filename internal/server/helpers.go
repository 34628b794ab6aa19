// Package server contains the HTTP handlers for the dashboard API.
package server

import (
	"context"
	"errors"
	"log/slog"

	"kolboard/internal/middleware"
	"kolboard/internal/models"
	"kolboard/internal/upstream"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseUUID extracts a route parameter as a user id.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseUUID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid user ID"))
		return uuid.Nil, errResponseWritten
	}
	return id, nil
}

// parseID extracts a route parameter as a positive numeric id.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// currentUser returns the authenticated user id. Routes using it sit behind AuthRequired.
func currentUser(c *fiber.Ctx) uuid.UUID {
	id, _ := middleware.UserID(c)
	return id
}

// upstreamCtx forwards the caller's Authorization header to upstream calls.
func upstreamCtx(c *fiber.Ctx) context.Context {
	return upstream.WithAuthorization(c.UserContext(), c.Get(fiber.HeaderAuthorization))
}

// mapServiceError maps an AppError code to an HTTP status.
func mapServiceError(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout
	}
	switch models.ErrorCode(err) {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeUnauthorized, models.CodeAuthRequired:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	case models.CodeConflict:
		return fiber.StatusConflict
	case models.CodeUpstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// respondList answers a failed list route with 500 and an empty collection so
// the client can render its empty state. Validation errors keep their 400.
func respondList(c *fiber.Ctx, err error, empty fiber.Map) error {
	status := fiber.StatusInternalServerError
	if s := mapServiceError(err); s < fiber.StatusInternalServerError {
		status = s
	}
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "list request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithErrorDefault(c, status, err, empty)
}

// respondError answers a failed single-resource route, logging server-side failures.
func respondError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}
