package server

import (
	"kolboard/internal/middleware"
	"kolboard/internal/models"
	"kolboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPortfolioStatus handles GET /api/portfolio/status
func (s *Server) GetPortfolioStatus(c *fiber.Ctx) error {
	status, err := s.portfolioService.Status(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

// RegisterPortfolio handles POST /api/portfolio/register
func (s *Server) RegisterPortfolio(c *fiber.Ctx) error {
	status, err := s.portfolioService.Register(upstreamCtx(c), currentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

// SyncPortfolio handles POST /api/portfolio/sync
func (s *Server) SyncPortfolio(c *fiber.Ctx) error {
	holdings, err := s.portfolioService.Sync(upstreamCtx(c), currentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(holdings)
}

// GetMyHoldings handles GET /api/portfolio/holdings
func (s *Server) GetMyHoldings(c *fiber.Ctx) error {
	holdings, err := s.portfolioService.Holdings(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(holdings)
}

// GetPublicHoldings handles GET /api/users/:id/holdings. A private portfolio
// answers 404 with is_public=false so the client can render the private state.
func (s *Server) GetPublicHoldings(c *fiber.Ctx) error {
	ownerID, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	holdings, err := s.portfolioService.PublicHoldings(c.UserContext(), middleware.ViewerID(c), ownerID)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return models.RespondWithErrorDefault(c, fiber.StatusNotFound, err, fiber.Map{"is_public": false})
		}
		return respondError(c, err)
	}
	return c.JSON(holdings)
}

// SetPortfolioPublic handles PUT /api/portfolio/public
func (s *Server) SetPortfolioPublic(c *fiber.Ctx) error {
	var req struct {
		IsPublic *bool `json:"is_public"`
	}
	if err := c.BodyParser(&req); err != nil || req.IsPublic == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("is_public is required"))
	}
	public, err := s.portfolioService.SetPublic(c.UserContext(), currentUser(c), *req.IsPublic)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"is_public": public})
}

// GetPortfolioPrivacy handles GET /api/portfolio/privacy
func (s *Server) GetPortfolioPrivacy(c *fiber.Ctx) error {
	settings, err := s.portfolioService.GetPrivacy(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(settings)
}

// UpdatePortfolioPrivacy handles PUT /api/portfolio/privacy
func (s *Server) UpdatePortfolioPrivacy(c *fiber.Ctx) error {
	var req models.PrivacyUpdate
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	settings, err := s.portfolioService.UpdatePrivacy(c.UserContext(), currentUser(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(settings)
}

// SetPositionVisibility handles PUT /api/portfolio/positions/:id/visibility
func (s *Server) SetPositionVisibility(c *fiber.Ctx) error {
	positionID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		IsHidden *bool `json:"is_hidden"`
	}
	if err := c.BodyParser(&req); err != nil || req.IsHidden == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("is_hidden is required"))
	}
	if err := s.portfolioService.SetPositionVisibility(c.UserContext(), currentUser(c), positionID, *req.IsHidden); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": positionID, "is_hidden": *req.IsHidden})
}

// GetLeaderboard handles GET /api/leaderboard?metric=followers|return&limit=
func (s *Server) GetLeaderboard(c *fiber.Ctx) error {
	metric := c.Query("metric", service.LeaderboardFollowers)
	entries, err := s.leaderboardService.Leaderboard(c.UserContext(), metric, c.QueryInt("limit", service.DefaultLeaderboardLimit))
	if err != nil {
		return respondList(c, err, fiber.Map{"entries": []models.LeaderboardEntry{}})
	}
	return c.JSON(fiber.Map{"metric": metric, "entries": entries})
}
