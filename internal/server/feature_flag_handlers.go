package server

import (
	"kolboard/internal/middleware"
	"kolboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

var errFeatureDisabled = &models.AppError{Code: models.CodeNotFound, Message: "Feature not available"}

// GetFeatureFlags handles GET /api/users/me/features: the configured flags
// and their evaluated state for the current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUser(c)
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}

// requireFeature answers 404 for viewers outside a flag's rollout. Flags that
// are not configured stay on.
func (s *Server) requireFeature(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewer, _ := middleware.UserID(c)
		if !s.featureFlags.EnabledOrDefault(name, viewer) {
			return models.RespondWithError(c, fiber.StatusNotFound, errFeatureDisabled)
		}
		return c.Next()
	}
}
