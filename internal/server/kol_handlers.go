package server

import (
	"strings"

	"kolboard/internal/listing"
	"kolboard/internal/middleware"
	"kolboard/internal/models"
	"kolboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// parseSort reads sort_by/sort_direction and rejects columns the table does not know.
func parseSort[T any](c *fiber.Ctx, columns map[string]listing.Column[T]) (listing.SortState, error) {
	state := listing.SortState{
		Column:    strings.TrimSpace(c.Query("sort_by")),
		Direction: listing.ParseDirection(c.Query("sort_direction")),
	}
	if state.Column == "" {
		return listing.SortState{}, nil
	}
	if _, ok := columns[state.Column]; !ok {
		return listing.SortState{}, models.NewValidationError("unknown sort column " + state.Column)
	}
	return state, nil
}

// ListKOLs handles GET /api/kols
func (s *Server) ListKOLs(c *fiber.Ctx) error {
	empty := fiber.Map{"profiles": []models.KOLProfile{}, "total": 0}

	sort, err := parseSort(c, service.KOLColumns)
	if err != nil {
		return respondList(c, err, empty)
	}
	page := parsePagination(c, service.DefaultKOLPageSize)

	list, err := s.kolService.List(upstreamCtx(c), middleware.ViewerID(c), service.KOLListQuery{
		Platform: strings.ToLower(strings.TrimSpace(c.Query("platform"))),
		Category: strings.TrimSpace(c.Query("category")),
		Sort:     sort,
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return respondList(c, err, empty)
	}
	return c.JSON(list)
}

// GetKOL handles GET /api/kol?platform=&kolId=&tweet_limit=
func (s *Server) GetKOL(c *fiber.Ctx) error {
	detail, err := s.kolService.Detail(upstreamCtx(c), middleware.ViewerID(c),
		c.Query("platform", service.SelfTrackPlatform),
		c.Query("kolId"),
		c.QueryInt("tweet_limit", service.DefaultTweetLimit),
	)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// GetKOLAnalysis handles GET /api/kol/analysis?platform=&kolId=&tweet_limit=
func (s *Server) GetKOLAnalysis(c *fiber.Ctx) error {
	report, err := s.kolService.Analysis(upstreamCtx(c),
		c.Query("platform", service.SelfTrackPlatform),
		c.Query("kolId"),
		c.QueryInt("tweet_limit", service.DefaultAnalysisLimit),
	)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
