package server

import (
	"kolboard/internal/middleware"
	"kolboard/internal/models"
	"kolboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetTrendingStocks handles GET /api/trending-stocks
func (s *Server) GetTrendingStocks(c *fiber.Ctx) error {
	empty := fiber.Map{"stocks": []models.TrendingStock{}, "total": 0}

	sort, err := parseSort(c, service.TrendingStockColumns)
	if err != nil {
		return respondList(c, err, empty)
	}

	page, err := s.stockService.Trending(upstreamCtx(c), middleware.ViewerID(c), service.TrendingQuery{
		Query:    c.Query("query"),
		Sort:     sort,
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", service.DefaultTrendingPageSize),
	})
	if err != nil {
		return respondList(c, err, empty)
	}
	return c.JSON(fiber.Map{
		"stocks":    page.Items,
		"total":     page.Total,
		"page":      page.Page,
		"page_size": page.PageSize,
	})
}

// GetStockQuote handles GET /api/stocks/:symbol/quote
func (s *Server) GetStockQuote(c *fiber.Ctx) error {
	quote, err := s.stockService.Quote(upstreamCtx(c), c.Params("symbol"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quote)
}

// GetStockChart handles GET /api/stocks/:symbol/chart?range=
func (s *Server) GetStockChart(c *fiber.Ctx) error {
	points, err := s.stockService.Chart(upstreamCtx(c), c.Params("symbol"), c.Query("range", "1M"))
	if err != nil {
		return respondList(c, err, fiber.Map{"points": []models.ChartPoint{}})
	}
	return c.JSON(fiber.Map{"points": points})
}

// GetStockDiscussions handles GET /api/stocks/:symbol/discussions?limit=
func (s *Server) GetStockDiscussions(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	items, err := s.stockService.Discussions(upstreamCtx(c), c.Params("symbol"), page.Limit)
	if err != nil {
		return respondList(c, err, fiber.Map{"discussions": []models.Discussion{}})
	}
	return c.JSON(fiber.Map{"discussions": items})
}

// GetStockNews handles GET /api/stocks/:symbol/news?limit=
func (s *Server) GetStockNews(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	items, err := s.stockService.News(upstreamCtx(c), c.Params("symbol"), page.Limit)
	if err != nil {
		return respondList(c, err, fiber.Map{"news": []models.NewsItem{}})
	}
	return c.JSON(fiber.Map{"news": items})
}
