package dashclient

import (
	"context"
	"net/http"
	"net/url"

	"kolboard/internal/models"
)

// TrackKOLRequest is the body of POST /tracked-kols. A nil Notify keeps the
// server default (on).
type TrackKOLRequest struct {
	Platform    string `json:"platform"`
	KOLID       string `json:"kol_id"`
	KOLUsername string `json:"kol_username,omitempty"`
	Notify      *bool  `json:"notify,omitempty"`
}

type TrackStockRequest struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
	Notify      *bool  `json:"notify,omitempty"`
}

func kolPath(platform, kolID string) string {
	return "/tracked-kols/" + url.PathEscape(platform) + "/" + url.PathEscape(kolID)
}

func (c *Client) TrackedKOLs(ctx context.Context) ([]models.KOLSubscription, error) {
	var out struct {
		KOLs []models.KOLSubscription `json:"kols"`
	}
	if err := c.get(ctx, "/tracked-kols", nil, &out); err != nil {
		return nil, err
	}
	return out.KOLs, nil
}

func (c *Client) TrackKOL(ctx context.Context, req TrackKOLRequest) (*models.TrackStatus, error) {
	var status models.TrackStatus
	if err := c.send(ctx, http.MethodPost, "/tracked-kols", req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) UntrackKOL(ctx context.Context, platform, kolID string) (*models.TrackStatus, error) {
	var status models.TrackStatus
	if err := c.send(ctx, http.MethodDelete, kolPath(platform, kolID), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) SetKOLNotify(ctx context.Context, platform, kolID string, notify bool) (*models.KOLSubscription, error) {
	var sub models.KOLSubscription
	if err := c.send(ctx, http.MethodPatch, kolPath(platform, kolID), boolBody("notify", notify), &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) TrackedStocks(ctx context.Context) ([]models.TrackedStockView, error) {
	var out struct {
		Stocks []models.TrackedStockView `json:"stocks"`
	}
	if err := c.get(ctx, "/tracked-stocks", nil, &out); err != nil {
		return nil, err
	}
	return out.Stocks, nil
}

func (c *Client) TrackStock(ctx context.Context, req TrackStockRequest) (*models.StockTrackStatus, error) {
	var status models.StockTrackStatus
	if err := c.send(ctx, http.MethodPost, "/tracked-stocks", req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) UntrackStock(ctx context.Context, symbol string) (*models.StockTrackStatus, error) {
	var status models.StockTrackStatus
	if err := c.send(ctx, http.MethodDelete, "/tracked-stocks/"+url.PathEscape(symbol), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) SetStockNotify(ctx context.Context, symbol string, notify bool) (*models.TrackedStock, error) {
	var stock models.TrackedStock
	if err := c.send(ctx, http.MethodPatch, "/tracked-stocks/"+url.PathEscape(symbol), boolBody("notify", notify), &stock); err != nil {
		return nil, err
	}
	return &stock, nil
}
