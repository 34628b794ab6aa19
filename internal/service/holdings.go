package service

import (
	"time"

	"kolboard/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// HoldingsInput is everything needed to render one user's holdings.
type HoldingsInput struct {
	OwnerID      uuid.UUID
	IsOwner      bool
	IsPublic     bool
	LastSyncedAt *time.Time
	Accounts     []models.BrokerageAccount
	Positions    []models.Position
	Privacy      models.PrivacySettings
}

type computedPosition struct {
	pos         models.Position
	marketValue decimal.Decimal
	costBasis   decimal.Decimal
}

// ComputeHoldings derives market value, cost basis, P&L and weights with
// decimal arithmetic and applies privacy filtering for non-owners. The owner
// always sees everything. Values are rounded to 2 places only in the output.
func ComputeHoldings(in HoldingsInput) models.Holdings {
	out := models.Holdings{
		UserID:       in.OwnerID,
		IsPublic:     in.IsPublic,
		IsOwner:      in.IsOwner,
		LastSyncedAt: in.LastSyncedAt,
		Accounts:     []models.AccountView{},
		Equities:     []models.PositionView{},
		Options:      []models.PositionView{},
	}
	p := in.Privacy

	hiddenAccounts := make(map[uint]bool, len(p.HiddenAccountIDs))
	for _, id := range p.HiddenAccountIDs {
		hiddenAccounts[id] = true
	}

	for _, a := range in.Accounts {
		if !in.IsOwner && hiddenAccounts[a.ID] {
			continue
		}
		view := models.AccountView{
			ID:           a.ID,
			Institution:  a.Institution,
			Name:         a.Name,
			NumberMasked: a.NumberMasked,
			Currency:     a.Currency,
			Hidden:       hiddenAccounts[a.ID],
		}
		if in.IsOwner || p.ShowTotalValue {
			view.TotalValue = roundedPtr(a.TotalValue)
		}
		out.Accounts = append(out.Accounts, view)
	}

	visible := make([]computedPosition, 0, len(in.Positions))
	total := decimal.Zero
	for _, pos := range in.Positions {
		if !in.IsOwner {
			if pos.IsHidden || hiddenAccounts[pos.AccountID] {
				continue
			}
			if pos.Kind == models.PositionOption && !p.ShowOptions {
				continue
			}
		}
		mult := decimal.NewFromInt(1)
		if pos.Kind == models.PositionOption {
			mult = decimal.NewFromInt(models.OptionContractMultiplier)
		}
		cp := computedPosition{
			pos:         pos,
			marketValue: pos.Units.Mul(pos.Price).Mul(mult),
			costBasis:   pos.Units.Mul(pos.AverageCost).Mul(mult),
		}
		total = total.Add(cp.marketValue)
		visible = append(visible, cp)
	}

	totalCost := decimal.Zero
	for _, cp := range visible {
		view := positionView(cp, total)
		if !in.IsOwner {
			applyPrivacy(&view, p)
		}
		totalCost = totalCost.Add(cp.costBasis)
		if cp.pos.Kind == models.PositionOption {
			out.Options = append(out.Options, view)
		} else {
			out.Equities = append(out.Equities, view)
		}
	}

	pnl := total.Sub(totalCost)
	out.Totals = models.HoldingsTotals{
		MarketValue: roundedPtr(total),
		CostBasis:   roundedPtr(totalCost),
		PnL:         roundedPtr(pnl),
		PnLPercent:  roundedPtr(percentOf(pnl, totalCost)),
	}
	if !in.IsOwner {
		if !p.ShowTotalValue {
			out.Totals.MarketValue = nil
		}
		if !p.ShowCostBasis {
			out.Totals.CostBasis = nil
		}
		if !p.ShowPnL {
			out.Totals.PnL = nil
			out.Totals.PnLPercent = nil
		}
	}
	if in.IsOwner {
		privacy := in.Privacy
		out.Privacy = &privacy
	}
	return out
}

func positionView(cp computedPosition, total decimal.Decimal) models.PositionView {
	pos := cp.pos
	pnl := cp.marketValue.Sub(cp.costBasis)
	view := models.PositionView{
		ID:          pos.ID,
		AccountID:   pos.AccountID,
		Symbol:      pos.Symbol,
		Description: pos.Description,
		Kind:        pos.Kind,
		OptionType:  pos.OptionType,
		Expiration:  pos.Expiration,
		Underlying:  pos.Underlying,
		Units:       ptr(pos.Units),
		Price:       roundedPtr(pos.Price),
		AverageCost: roundedPtr(pos.AverageCost),
		MarketValue: roundedPtr(cp.marketValue),
		CostBasis:   roundedPtr(cp.costBasis),
		PnL:         roundedPtr(pnl),
		PnLPercent:  roundedPtr(percentOf(pnl, cp.costBasis)),
		Weight:      roundedPtr(percentOf(cp.marketValue, total)),
		IsHidden:    pos.IsHidden,
	}
	if pos.Strike != nil {
		view.Strike = roundedPtr(*pos.Strike)
	}
	return view
}

// applyPrivacy nulls the fields a non-owner may not see. Hiding units also
// hides market value, which would reveal units given the price.
func applyPrivacy(v *models.PositionView, p models.PrivacySettings) {
	if !p.ShowUnits {
		v.Units = nil
		v.MarketValue = nil
	}
	if !p.ShowCostBasis {
		v.AverageCost = nil
		v.CostBasis = nil
	}
	if !p.ShowPnL {
		v.PnL = nil
		v.PnLPercent = nil
	}
	if !p.ShowWeights {
		v.Weight = nil
	}
}

// percentOf returns part/whole*100, or 0 when whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

func roundedPtr(d decimal.Decimal) *decimal.Decimal {
	r := d.Round(2)
	return &r
}

func ptr[T any](v T) *T {
	return &v
}
