package dashclient

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"kolboard/internal/models"
)

// PrivacyField names one of the show_* switches on the privacy panel.
type PrivacyField string

const (
	ShowTotalValue PrivacyField = "show_total_value"
	ShowUnits      PrivacyField = "show_units"
	ShowCostBasis  PrivacyField = "show_cost_basis"
	ShowPnL        PrivacyField = "show_pnl"
	ShowWeights    PrivacyField = "show_weights"
	ShowOptions    PrivacyField = "show_options"
)

// HoldingsAPI is the subset of Client the holdings page mutates through.
type HoldingsAPI interface {
	SetPortfolioPublic(ctx context.Context, public bool) (bool, error)
	UpdatePrivacy(ctx context.Context, update models.PrivacyUpdate) (*models.PrivacySettings, error)
	SetPositionVisibility(ctx context.Context, positionID uint, hidden bool) error
}

// HoldingsView is the owner's local state for the holdings page switches.
// TogglePublic keeps its optimistic value when the save fails; the privacy
// and position switches roll back.
type HoldingsView struct {
	mu      sync.Mutex
	api     HoldingsAPI
	public  bool
	privacy models.PrivacySettings
	hidden  map[uint]bool
}

func NewHoldingsView(api HoldingsAPI, holdings *models.Holdings) *HoldingsView {
	v := &HoldingsView{api: api, hidden: map[uint]bool{}}
	if holdings == nil {
		return v
	}
	v.public = holdings.IsPublic
	if holdings.Privacy != nil {
		v.privacy = *holdings.Privacy
		v.privacy.HiddenAccountIDs = slices.Clone(holdings.Privacy.HiddenAccountIDs)
	}
	for _, list := range [][]models.PositionView{holdings.Equities, holdings.Options} {
		for _, p := range list {
			v.hidden[p.ID] = p.IsHidden
		}
	}
	return v
}

func (v *HoldingsView) IsPublic() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.public
}

func (v *HoldingsView) Privacy() models.PrivacySettings {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := v.privacy
	p.HiddenAccountIDs = slices.Clone(v.privacy.HiddenAccountIDs)
	return p
}

func (v *HoldingsView) PositionHidden(id uint) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hidden[id]
}

func (v *HoldingsView) TogglePublic(ctx context.Context) error {
	v.mu.Lock()
	v.public = !v.public
	next := v.public
	v.mu.Unlock()

	saved, err := v.api.SetPortfolioPublic(ctx, next)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.public = saved
	v.mu.Unlock()
	return nil
}

func (v *HoldingsView) TogglePrivacyField(ctx context.Context, field PrivacyField) error {
	v.mu.Lock()
	ptr := v.fieldPtr(field)
	if ptr == nil {
		v.mu.Unlock()
		return fmt.Errorf("dashclient: unknown privacy field %q", field)
	}
	*ptr = !*ptr
	next := *ptr
	v.mu.Unlock()

	update := models.PrivacyUpdate{}
	switch field {
	case ShowTotalValue:
		update.ShowTotalValue = &next
	case ShowUnits:
		update.ShowUnits = &next
	case ShowCostBasis:
		update.ShowCostBasis = &next
	case ShowPnL:
		update.ShowPnL = &next
	case ShowWeights:
		update.ShowWeights = &next
	case ShowOptions:
		update.ShowOptions = &next
	}

	saved, err := v.api.UpdatePrivacy(ctx, update)
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		*v.fieldPtr(field) = !next
		return err
	}
	if saved != nil {
		v.privacy = *saved
	}
	return nil
}

func (v *HoldingsView) TogglePositionVisibility(ctx context.Context, positionID uint) error {
	v.mu.Lock()
	prev := v.hidden[positionID]
	v.hidden[positionID] = !prev
	v.mu.Unlock()

	if err := v.api.SetPositionVisibility(ctx, positionID, !prev); err != nil {
		v.mu.Lock()
		v.hidden[positionID] = prev
		v.mu.Unlock()
		return err
	}
	return nil
}

func (v *HoldingsView) fieldPtr(field PrivacyField) *bool {
	switch field {
	case ShowTotalValue:
		return &v.privacy.ShowTotalValue
	case ShowUnits:
		return &v.privacy.ShowUnits
	case ShowCostBasis:
		return &v.privacy.ShowCostBasis
	case ShowPnL:
		return &v.privacy.ShowPnL
	case ShowWeights:
		return &v.privacy.ShowWeights
	case ShowOptions:
		return &v.privacy.ShowOptions
	}
	return nil
}
