package upstream

import (
	"context"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// SnapTradeUser is the aggregator identity created for a local user.
type SnapTradeUser struct {
	UserID string `json:"user_id"`
}

// SnapTradeAccount is a brokerage account as reported by the aggregator.
type SnapTradeAccount struct {
	ID              string          `json:"id"`
	InstitutionName string          `json:"institution_name"`
	Name            string          `json:"name"`
	Number          string          `json:"number"`
	TotalValue      decimal.Decimal `json:"total_value"`
	Currency        string          `json:"currency"`
}

// SnapTradePosition is one holding inside an aggregator account. Option rows
// carry OptionType, Strike, Expiration and Underlying.
type SnapTradePosition struct {
	Symbol               string           `json:"symbol"`
	Description          string           `json:"description"`
	Units                decimal.Decimal  `json:"units"`
	Price                decimal.Decimal  `json:"price"`
	AveragePurchasePrice decimal.Decimal  `json:"average_purchase_price"`
	OptionType           string           `json:"option_type,omitempty"`
	Strike               *decimal.Decimal `json:"strike_price,omitempty"`
	Expiration           *time.Time       `json:"expiration_date,omitempty"`
	Underlying           string           `json:"underlying_symbol,omitempty"`
}

// IsOption reports whether the position is an option contract.
func (p SnapTradePosition) IsOption() bool {
	return p.OptionType != ""
}

type accountsResponse struct {
	Accounts []SnapTradeAccount `json:"accounts"`
}

type positionsResponse struct {
	Positions []SnapTradePosition `json:"positions"`
}

// RegisterSnapTradeUser creates the aggregator user for localUserID.
func (c *Client) RegisterSnapTradeUser(ctx context.Context, localUserID string) (*SnapTradeUser, error) {
	var out SnapTradeUser
	body := map[string]string{"user_id": localUserID}
	if err := c.postJSON(ctx, "snaptrade_register", "/api/v1/snaptrade/users", body, &out); err != nil {
		return nil, err
	}
	if out.UserID == "" {
		out.UserID = localUserID
	}
	return &out, nil
}

// SnapTradeAccounts lists the aggregator accounts of snapUserID.
func (c *Client) SnapTradeAccounts(ctx context.Context, snapUserID string) ([]SnapTradeAccount, error) {
	var out accountsResponse
	path := "/api/v1/snaptrade/users/" + url.PathEscape(snapUserID) + "/accounts"
	if err := c.getJSON(ctx, "snaptrade_accounts", path, nil, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

// SnapTradePositions lists the positions of one aggregator account.
func (c *Client) SnapTradePositions(ctx context.Context, snapUserID, accountID string) ([]SnapTradePosition, error) {
	var out positionsResponse
	path := "/api/v1/snaptrade/users/" + url.PathEscape(snapUserID) + "/accounts/" + url.PathEscape(accountID) + "/positions"
	if err := c.getJSON(ctx, "snaptrade_positions", path, nil, &out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}
