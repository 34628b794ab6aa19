package upstream

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"kolboard/internal/models"
)

type trendingResponse struct {
	Stocks []models.TrendingStock `json:"stocks"`
}

type chartResponse struct {
	Points []models.ChartPoint `json:"points"`
}

type discussionsResponse struct {
	Discussions []models.Discussion `json:"discussions"`
}

type newsResponse struct {
	News []models.NewsItem `json:"news"`
}

func symbolPath(symbol, suffix string) string {
	return "/api/v1/stocks/" + url.PathEscape(strings.ToUpper(symbol)) + "/" + suffix
}

// TrendingStocks returns the upstream trending list in upstream order.
func (c *Client) TrendingStocks(ctx context.Context) ([]models.TrendingStock, error) {
	var out trendingResponse
	if err := c.getJSON(ctx, "stocks_trending", "/api/v1/stocks/trending", nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Stocks {
		out.Stocks[i].Symbol = strings.ToUpper(out.Stocks[i].Symbol)
		if out.Stocks[i].TopKOLs == nil {
			out.Stocks[i].TopKOLs = []string{}
		}
	}
	if out.Stocks == nil {
		out.Stocks = []models.TrendingStock{}
	}
	return out.Stocks, nil
}

// Quote returns the latest quote for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	var out models.StockQuote
	if err := c.getJSON(ctx, "stock_quote", symbolPath(symbol, "quote"), nil, &out); err != nil {
		return nil, err
	}
	if out.Symbol == "" {
		out.Symbol = strings.ToUpper(symbol)
	}
	return &out, nil
}

// Change returns the percentage change of symbol over the last days days.
func (c *Client) Change(ctx context.Context, symbol string, days int) (*models.StockChange, error) {
	q := url.Values{"days": {strconv.Itoa(days)}}
	var out models.StockChange
	if err := c.getJSON(ctx, "stock_change", symbolPath(symbol, "change"), q, &out); err != nil {
		return nil, err
	}
	if out.Symbol == "" {
		out.Symbol = strings.ToUpper(symbol)
	}
	if out.Days == 0 {
		out.Days = days
	}
	return &out, nil
}

// Chart returns price samples for symbol over the given range (e.g. "1d", "1m").
func (c *Client) Chart(ctx context.Context, symbol, rng string) ([]models.ChartPoint, error) {
	q := url.Values{}
	if rng != "" {
		q.Set("range", rng)
	}
	var out chartResponse
	if err := c.getJSON(ctx, "stock_chart", symbolPath(symbol, "chart"), q, &out); err != nil {
		return nil, err
	}
	if out.Points == nil {
		out.Points = []models.ChartPoint{}
	}
	return out.Points, nil
}

// Discussions returns KOL posts mentioning symbol.
func (c *Client) Discussions(ctx context.Context, symbol string, limit int) ([]models.Discussion, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out discussionsResponse
	if err := c.getJSON(ctx, "stock_discussions", symbolPath(symbol, "discussions"), q, &out); err != nil {
		return nil, err
	}
	if out.Discussions == nil {
		out.Discussions = []models.Discussion{}
	}
	return out.Discussions, nil
}

// News returns news articles about symbol.
func (c *Client) News(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out newsResponse
	if err := c.getJSON(ctx, "stock_news", symbolPath(symbol, "news"), q, &out); err != nil {
		return nil, err
	}
	if out.News == nil {
		out.News = []models.NewsItem{}
	}
	return out.News, nil
}
