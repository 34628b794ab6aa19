package server

import (
	"kolboard/internal/models"
	"kolboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

type notifyRequest struct {
	Notify *bool `json:"notify"`
}

func parseNotify(c *fiber.Ctx) (bool, error) {
	var req notifyRequest
	if err := c.BodyParser(&req); err != nil || req.Notify == nil {
		return false, models.NewValidationError("notify is required")
	}
	return *req.Notify, nil
}

// ListTrackedKOLs handles GET /api/tracked-kols
func (s *Server) ListTrackedKOLs(c *fiber.Ctx) error {
	subs, err := s.trackingService.ListTrackedKOLs(c.UserContext(), currentUser(c))
	if err != nil {
		return respondList(c, err, fiber.Map{"kols": []models.KOLSubscription{}})
	}
	return c.JSON(fiber.Map{"kols": subs})
}

// TrackKOL handles POST /api/tracked-kols
func (s *Server) TrackKOL(c *fiber.Ctx) error {
	var req service.TrackKOLInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	status, err := s.trackingService.TrackKOL(c.UserContext(), currentUser(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

// UpdateTrackedKOL handles PATCH /api/tracked-kols/:platform/:kolId
func (s *Server) UpdateTrackedKOL(c *fiber.Ctx) error {
	notify, err := parseNotify(c)
	if err != nil {
		return respondError(c, err)
	}
	sub, err := s.trackingService.SetKOLNotify(c.UserContext(), currentUser(c), c.Params("platform"), c.Params("kolId"), notify)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}

// UntrackKOL handles DELETE /api/tracked-kols/:platform/:kolId
func (s *Server) UntrackKOL(c *fiber.Ctx) error {
	status, err := s.trackingService.UntrackKOL(c.UserContext(), currentUser(c), c.Params("platform"), c.Params("kolId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

// ListTrackedStocks handles GET /api/tracked-stocks
func (s *Server) ListTrackedStocks(c *fiber.Ctx) error {
	stocks, err := s.trackingService.ListTrackedStocks(upstreamCtx(c), currentUser(c))
	if err != nil {
		return respondList(c, err, fiber.Map{"stocks": []models.TrackedStockView{}})
	}
	return c.JSON(fiber.Map{"stocks": stocks})
}

// TrackStock handles POST /api/tracked-stocks
func (s *Server) TrackStock(c *fiber.Ctx) error {
	var req service.TrackStockInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	status, err := s.trackingService.TrackStock(c.UserContext(), currentUser(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

// UpdateTrackedStock handles PATCH /api/tracked-stocks/:symbol
func (s *Server) UpdateTrackedStock(c *fiber.Ctx) error {
	notify, err := parseNotify(c)
	if err != nil {
		return respondError(c, err)
	}
	stock, err := s.trackingService.SetStockNotify(c.UserContext(), currentUser(c), c.Params("symbol"), notify)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stock)
}

// UntrackStock handles DELETE /api/tracked-stocks/:symbol
func (s *Server) UntrackStock(c *fiber.Ctx) error {
	status, err := s.trackingService.UntrackStock(c.UserContext(), currentUser(c), c.Params("symbol"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}
