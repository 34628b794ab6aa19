package dashclient

import (
	"context"
	"testing"

	"kolboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type holdingsAPIStub struct {
	err         error
	publicCalls []bool
	updates     []models.PrivacyUpdate
	positions   map[uint]bool
}

func (s *holdingsAPIStub) SetPortfolioPublic(_ context.Context, public bool) (bool, error) {
	s.publicCalls = append(s.publicCalls, public)
	if s.err != nil {
		return false, s.err
	}
	return public, nil
}

func (s *holdingsAPIStub) UpdatePrivacy(_ context.Context, update models.PrivacyUpdate) (*models.PrivacySettings, error) {
	s.updates = append(s.updates, update)
	if s.err != nil {
		return nil, s.err
	}
	settings := models.PrivacySettings{ShowTotalValue: true}
	if update.ShowUnits != nil {
		settings.ShowUnits = *update.ShowUnits
	}
	return &settings, nil
}

func (s *holdingsAPIStub) SetPositionVisibility(_ context.Context, id uint, hidden bool) error {
	if s.err != nil {
		return s.err
	}
	if s.positions == nil {
		s.positions = map[uint]bool{}
	}
	s.positions[id] = hidden
	return nil
}

func holdingsFixture() *models.Holdings {
	return &models.Holdings{
		IsPublic: false,
		IsOwner:  true,
		Privacy:  &models.PrivacySettings{ShowTotalValue: true, HiddenAccountIDs: []uint{9}},
		Equities: []models.PositionView{{ID: 1, Symbol: "AAPL"}, {ID: 2, Symbol: "TSLA", IsHidden: true}},
		Options:  []models.PositionView{{ID: 3, Symbol: "AAPL 250C"}},
	}
}

func TestHoldingsViewInitialState(t *testing.T) {
	v := NewHoldingsView(&holdingsAPIStub{}, holdingsFixture())
	assert.False(t, v.IsPublic())
	assert.True(t, v.PositionHidden(2))
	assert.False(t, v.PositionHidden(3))

	privacy := v.Privacy()
	assert.True(t, privacy.ShowTotalValue)
	privacy.HiddenAccountIDs[0] = 42
	assert.Equal(t, []uint{9}, v.Privacy().HiddenAccountIDs, "Privacy returns a copy")
}

func TestHoldingsViewTogglePublicKeepsOptimisticValue(t *testing.T) {
	api := &holdingsAPIStub{err: errSave}
	v := NewHoldingsView(api, holdingsFixture())

	err := v.TogglePublic(context.Background())
	assert.ErrorIs(t, err, errSave)
	assert.True(t, v.IsPublic(), "public switch does not roll back")
	assert.Equal(t, []bool{true}, api.publicCalls)
}

func TestHoldingsViewPrivacyRollsBack(t *testing.T) {
	api := &holdingsAPIStub{err: errSave}
	v := NewHoldingsView(api, holdingsFixture())

	err := v.TogglePrivacyField(context.Background(), ShowUnits)
	assert.ErrorIs(t, err, errSave)
	assert.False(t, v.Privacy().ShowUnits)
	require.Len(t, api.updates, 1)
	require.NotNil(t, api.updates[0].ShowUnits)
	assert.True(t, *api.updates[0].ShowUnits)
	assert.Nil(t, api.updates[0].ShowPnL, "only the toggled field is sent")

	api.err = nil
	require.NoError(t, v.TogglePrivacyField(context.Background(), ShowUnits))
	assert.True(t, v.Privacy().ShowUnits)

	assert.Error(t, v.TogglePrivacyField(context.Background(), PrivacyField("show_secrets")))
}

func TestHoldingsViewPositionRollsBack(t *testing.T) {
	api := &holdingsAPIStub{err: errSave}
	v := NewHoldingsView(api, holdingsFixture())

	assert.ErrorIs(t, v.TogglePositionVisibility(context.Background(), 1), errSave)
	assert.False(t, v.PositionHidden(1))

	api.err = nil
	require.NoError(t, v.TogglePositionVisibility(context.Background(), 2))
	assert.False(t, v.PositionHidden(2))
	assert.Equal(t, map[uint]bool{2: false}, api.positions)
}
