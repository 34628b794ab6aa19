package dashclient

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"kolboard/internal/models"

	"github.com/google/uuid"
)

// ErrPortfolioPrivate is returned by PublicHoldings when the owner keeps the portfolio private.
var ErrPortfolioPrivate = errors.New("dashclient: portfolio is private")

func (c *Client) PortfolioStatus(ctx context.Context) (*models.ConnectionStatus, error) {
	var status models.ConnectionStatus
	if err := c.get(ctx, "/portfolio/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) RegisterPortfolio(ctx context.Context) (*models.ConnectionStatus, error) {
	var status models.ConnectionStatus
	if err := c.send(ctx, http.MethodPost, "/portfolio/register", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SyncPortfolio pulls accounts and positions from the brokerage and returns the refreshed holdings.
func (c *Client) SyncPortfolio(ctx context.Context) (*models.Holdings, error) {
	var holdings models.Holdings
	if err := c.send(ctx, http.MethodPost, "/portfolio/sync", nil, &holdings); err != nil {
		return nil, err
	}
	return &holdings, nil
}

func (c *Client) Holdings(ctx context.Context) (*models.Holdings, error) {
	var holdings models.Holdings
	if err := c.get(ctx, "/portfolio/holdings", nil, &holdings); err != nil {
		return nil, err
	}
	return &holdings, nil
}

func (c *Client) PublicHoldings(ctx context.Context, ownerID uuid.UUID) (*models.Holdings, error) {
	var holdings models.Holdings
	if err := c.get(ctx, "/users/"+ownerID.String()+"/holdings", nil, &holdings); err != nil {
		if IsNotFound(err) {
			return nil, errors.Join(ErrPortfolioPrivate, err)
		}
		return nil, err
	}
	return &holdings, nil
}

func (c *Client) SetPortfolioPublic(ctx context.Context, public bool) (bool, error) {
	var out struct {
		IsPublic bool `json:"is_public"`
	}
	if err := c.send(ctx, http.MethodPut, "/portfolio/public", boolBody("is_public", public), &out); err != nil {
		return false, err
	}
	return out.IsPublic, nil
}

func (c *Client) Privacy(ctx context.Context) (*models.PrivacySettings, error) {
	var settings models.PrivacySettings
	if err := c.get(ctx, "/portfolio/privacy", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *Client) UpdatePrivacy(ctx context.Context, update models.PrivacyUpdate) (*models.PrivacySettings, error) {
	var settings models.PrivacySettings
	if err := c.send(ctx, http.MethodPut, "/portfolio/privacy", update, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *Client) SetPositionVisibility(ctx context.Context, positionID uint, hidden bool) error {
	path := "/portfolio/positions/" + strconv.FormatUint(uint64(positionID), 10) + "/visibility"
	return c.send(ctx, http.MethodPut, path, boolBody("is_hidden", hidden), nil)
}
