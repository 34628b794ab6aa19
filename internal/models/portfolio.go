package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Money and unit values render as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ConnectionState is the three-state onboarding flow of the holdings page.
type ConnectionState string

const (
	StateNotRegistered       ConnectionState = "not_registered"
	StateRegisteredNotSynced ConnectionState = "registered_not_synced"
	StateSynced              ConnectionState = "synced"
)

// PositionKind distinguishes equity rows from option rows.
type PositionKind string

const (
	PositionEquity PositionKind = "equity"
	PositionOption PositionKind = "option"
)

// OptionContractMultiplier converts per-share option prices into contract values.
const OptionContractMultiplier = 100

// SnapTradeConnection links a local user to the brokerage aggregator.
type SnapTradeConnection struct {
	UserID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	SnapTradeUserID string     `gorm:"size:100;not null" json:"snaptrade_user_id"`
	RegisteredAt    time.Time  `json:"registered_at"`
	LastSyncedAt    *time.Time `json:"last_synced_at"`
}

func (SnapTradeConnection) TableName() string {
	return "snaptrade_connections"
}

// ConnectionStatus is the response of GET /api/portfolio/status.
type ConnectionStatus struct {
	State        ConnectionState `json:"state"`
	RegisteredAt *time.Time      `json:"registered_at,omitempty"`
	LastSyncedAt *time.Time      `json:"last_synced_at,omitempty"`
}

// BrokerageAccount is an account synced from the aggregator.
type BrokerageAccount struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_account_external" json:"user_id"`
	ExternalID   string          `gorm:"size:100;not null;uniqueIndex:idx_account_external" json:"external_id"`
	Institution  string          `gorm:"size:100" json:"institution"`
	Name         string          `gorm:"size:100" json:"name"`
	NumberMasked string          `gorm:"size:32" json:"number_masked"`
	TotalValue   decimal.Decimal `gorm:"type:numeric(20,4)" json:"total_value"`
	Currency     string          `gorm:"size:8;default:'USD'" json:"currency"`
	Positions    []Position      `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (BrokerageAccount) TableName() string {
	return "brokerage_accounts"
}

// Position is an equity or option holding inside an account.
type Position struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	AccountID   uint             `gorm:"not null;index" json:"account_id"`
	UserID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Symbol      string           `gorm:"size:32;not null" json:"symbol"`
	Description string           `gorm:"size:200" json:"description"`
	Kind        PositionKind     `gorm:"type:varchar(10);not null;default:'equity'" json:"kind"`
	OptionType  string           `gorm:"size:4" json:"option_type,omitempty"`
	Strike      *decimal.Decimal `gorm:"type:numeric(20,4)" json:"strike,omitempty"`
	Expiration  *time.Time       `json:"expiration,omitempty"`
	Underlying  string           `gorm:"size:16" json:"underlying,omitempty"`
	Units       decimal.Decimal  `gorm:"type:numeric(20,6)" json:"units"`
	Price       decimal.Decimal  `gorm:"type:numeric(20,4)" json:"price"`
	AverageCost decimal.Decimal  `gorm:"type:numeric(20,4)" json:"average_cost"`
	IsHidden    bool             `gorm:"not null" json:"is_hidden"`
}

func (Position) TableName() string {
	return "positions"
}

// HoldingsSettings is the holdings-level public/private flag.
type HoldingsSettings struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	IsPublic  bool      `gorm:"not null" json:"is_public"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (HoldingsSettings) TableName() string {
	return "holdings_settings"
}

// PrivacySettings controls which holdings fields non-owners can see.
type PrivacySettings struct {
	UserID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	ShowTotalValue   bool      `gorm:"not null" json:"show_total_value"`
	ShowUnits        bool      `gorm:"not null" json:"show_units"`
	ShowCostBasis    bool      `gorm:"not null" json:"show_cost_basis"`
	ShowPnL          bool      `gorm:"column:show_pnl" json:"show_pnl"`
	ShowWeights      bool      `gorm:"not null" json:"show_weights"`
	ShowOptions      bool      `gorm:"not null" json:"show_options"`
	HiddenAccountIDs []uint    `gorm:"serializer:json" json:"hidden_account_ids"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (PrivacySettings) TableName() string {
	return "privacy_settings"
}

// DefaultPrivacySettings returns the settings used before the owner saves any.
func DefaultPrivacySettings(userID uuid.UUID) PrivacySettings {
	return PrivacySettings{
		UserID:           userID,
		ShowTotalValue:   true,
		ShowUnits:        false,
		ShowCostBasis:    false,
		ShowPnL:          false,
		ShowWeights:      true,
		ShowOptions:      true,
		HiddenAccountIDs: []uint{},
	}
}

// PrivacyUpdate is a partial update of PrivacySettings.
type PrivacyUpdate struct {
	ShowTotalValue   *bool   `json:"show_total_value"`
	ShowUnits        *bool   `json:"show_units"`
	ShowCostBasis    *bool   `json:"show_cost_basis"`
	ShowPnL          *bool   `json:"show_pnl"`
	ShowWeights      *bool   `json:"show_weights"`
	ShowOptions      *bool   `json:"show_options"`
	HiddenAccountIDs *[]uint `json:"hidden_account_ids"`
}

// AccountView is an account as rendered on the holdings page.
type AccountView struct {
	ID           uint             `json:"id"`
	Institution  string           `json:"institution"`
	Name         string           `json:"name"`
	NumberMasked string           `json:"number_masked"`
	Currency     string           `json:"currency"`
	TotalValue   *decimal.Decimal `json:"total_value"`
	Hidden       bool             `json:"hidden"`
}

// PositionView is a position with computed fields. Pointer fields are nulled
// when the owner's privacy settings hide them from the viewer.
type PositionView struct {
	ID          uint             `json:"id"`
	AccountID   uint             `json:"account_id"`
	Symbol      string           `json:"symbol"`
	Description string           `json:"description"`
	Kind        PositionKind     `json:"kind"`
	OptionType  string           `json:"option_type,omitempty"`
	Strike      *decimal.Decimal `json:"strike,omitempty"`
	Expiration  *time.Time       `json:"expiration,omitempty"`
	Underlying  string           `json:"underlying,omitempty"`
	Units       *decimal.Decimal `json:"units"`
	Price       *decimal.Decimal `json:"price"`
	AverageCost *decimal.Decimal `json:"average_cost"`
	MarketValue *decimal.Decimal `json:"market_value"`
	CostBasis   *decimal.Decimal `json:"cost_basis"`
	PnL         *decimal.Decimal `json:"pnl"`
	PnLPercent  *decimal.Decimal `json:"pnl_percent"`
	Weight      *decimal.Decimal `json:"weight"`
	IsHidden    bool             `json:"is_hidden"`
}

// HoldingsTotals aggregates visible positions.
type HoldingsTotals struct {
	MarketValue *decimal.Decimal `json:"market_value"`
	CostBasis   *decimal.Decimal `json:"cost_basis"`
	PnL         *decimal.Decimal `json:"pnl"`
	PnLPercent  *decimal.Decimal `json:"pnl_percent"`
}

// Holdings is the response of the holdings endpoints.
type Holdings struct {
	UserID       uuid.UUID        `json:"user_id"`
	IsPublic     bool             `json:"is_public"`
	IsOwner      bool             `json:"is_owner"`
	LastSyncedAt *time.Time       `json:"last_synced_at,omitempty"`
	Accounts     []AccountView    `json:"accounts"`
	Equities     []PositionView   `json:"equities"`
	Options      []PositionView   `json:"options"`
	Totals       HoldingsTotals   `json:"totals"`
	Privacy      *PrivacySettings `json:"privacy,omitempty"`
}

// LeaderboardEntry is one row of a community leaderboard.
type LeaderboardEntry struct {
	Rank        int              `json:"rank"`
	User        ProfileCard      `json:"user"`
	Followers   int              `json:"followers"`
	ReturnPct   *decimal.Decimal `json:"return_pct,omitempty"`
	MarketValue *decimal.Decimal `json:"-"`
}
