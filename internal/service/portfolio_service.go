package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kolboard/internal/cache"
	"kolboard/internal/models"
	"kolboard/internal/repository"
	"kolboard/internal/upstream"

	"github.com/google/uuid"
)

// PortfolioService connects users to the brokerage aggregator and renders
// their holdings.
type PortfolioService struct {
	repo     repository.PortfolioRepository
	userRepo repository.UserRepository
	broker   BrokerageSource
	now      func() time.Time
}

func NewPortfolioService(repo repository.PortfolioRepository, userRepo repository.UserRepository, broker BrokerageSource) *PortfolioService {
	return &PortfolioService{
		repo:     repo,
		userRepo: userRepo,
		broker:   broker,
		now:      time.Now,
	}
}

func (s *PortfolioService) Status(ctx context.Context, userID uuid.UUID) (*models.ConnectionStatus, error) {
	conn, err := s.repo.GetConnection(ctx, userID)
	if err != nil {
		return nil, err
	}
	return connectionStatus(conn), nil
}

func connectionStatus(conn *models.SnapTradeConnection) *models.ConnectionStatus {
	if conn == nil {
		return &models.ConnectionStatus{State: models.StateNotRegistered}
	}
	registered := conn.RegisteredAt
	status := &models.ConnectionStatus{
		State:        models.StateRegisteredNotSynced,
		RegisteredAt: &registered,
		LastSyncedAt: conn.LastSyncedAt,
	}
	if conn.LastSyncedAt != nil {
		status.State = models.StateSynced
	}
	return status
}

// Register is idempotent: an existing connection is returned unchanged.
func (s *PortfolioService) Register(ctx context.Context, userID uuid.UUID) (*models.ConnectionStatus, error) {
	conn, err := s.repo.GetConnection(ctx, userID)
	if err != nil {
		return nil, err
	}
	if conn != nil {
		return connectionStatus(conn), nil
	}

	remote, err := s.broker.RegisterSnapTradeUser(ctx, userID.String())
	if err != nil {
		return nil, models.NewUpstreamError("register brokerage user", err)
	}
	conn = &models.SnapTradeConnection{
		UserID:          userID,
		SnapTradeUserID: remote.UserID,
		RegisteredAt:    s.now().UTC(),
	}
	if err := s.repo.CreateConnection(ctx, conn); err != nil {
		if models.ErrorCode(err) != models.CodeConflict {
			return nil, err
		}
		// Lost a race with a concurrent registration.
		if conn, err = s.repo.GetConnection(ctx, userID); err != nil {
			return nil, err
		}
	}
	return connectionStatus(conn), nil
}

// Sync pulls accounts, then each account's positions, one call at a time, and
// replaces the stored holdings in one transaction.
func (s *PortfolioService) Sync(ctx context.Context, userID uuid.UUID) (*models.Holdings, error) {
	conn, err := s.repo.GetConnection(ctx, userID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, models.NewConflictError("Connect a brokerage before syncing")
	}

	remoteAccounts, err := s.broker.SnapTradeAccounts(ctx, conn.SnapTradeUserID)
	if err != nil {
		return nil, models.NewUpstreamError("fetch brokerage accounts", err)
	}

	accounts := make([]models.BrokerageAccount, 0, len(remoteAccounts))
	for _, ra := range remoteAccounts {
		remotePositions, err := s.broker.SnapTradePositions(ctx, conn.SnapTradeUserID, ra.ID)
		if err != nil {
			return nil, models.NewUpstreamError(fmt.Sprintf("fetch positions for account %s", ra.ID), err)
		}
		accounts = append(accounts, toAccount(userID, ra, remotePositions))
	}

	if err := s.repo.ReplaceHoldings(ctx, userID, accounts, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.Holdings(ctx, userID)
}

func toAccount(userID uuid.UUID, ra upstream.SnapTradeAccount, remote []upstream.SnapTradePosition) models.BrokerageAccount {
	currency := strings.ToUpper(ra.Currency)
	if currency == "" {
		currency = "USD"
	}
	acct := models.BrokerageAccount{
		UserID:       userID,
		ExternalID:   ra.ID,
		Institution:  ra.InstitutionName,
		Name:         ra.Name,
		NumberMasked: maskAccountNumber(ra.Number),
		TotalValue:   ra.TotalValue,
		Currency:     currency,
		Positions:    make([]models.Position, 0, len(remote)),
	}
	for _, rp := range remote {
		pos := models.Position{
			UserID:      userID,
			Symbol:      strings.ToUpper(rp.Symbol),
			Description: rp.Description,
			Kind:        models.PositionEquity,
			Units:       rp.Units,
			Price:       rp.Price,
			AverageCost: rp.AveragePurchasePrice,
		}
		if rp.IsOption() {
			pos.Kind = models.PositionOption
			pos.OptionType = strings.ToUpper(rp.OptionType)
			pos.Strike = rp.Strike
			pos.Expiration = rp.Expiration
			pos.Underlying = strings.ToUpper(rp.Underlying)
		}
		acct.Positions = append(acct.Positions, pos)
	}
	return acct
}

func maskAccountNumber(n string) string {
	n = strings.TrimSpace(n)
	if len(n) <= 4 {
		return n
	}
	return strings.Repeat("*", 4) + n[len(n)-4:]
}

// Holdings renders the owner's own view.
func (s *PortfolioService) Holdings(ctx context.Context, ownerID uuid.UUID) (*models.Holdings, error) {
	return s.render(ctx, ownerID, true)
}

// PublicHoldings renders ownerID's holdings for viewerID (nil when anonymous).
// Private holdings are reported as not found to anyone but the owner.
func (s *PortfolioService) PublicHoldings(ctx context.Context, viewerID *uuid.UUID, ownerID uuid.UUID) (*models.Holdings, error) {
	if viewerID != nil && *viewerID == ownerID {
		return s.render(ctx, ownerID, true)
	}
	settings, err := s.repo.GetHoldingsSettings(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !settings.IsPublic {
		return nil, models.NewNotFoundError("Public holdings", ownerID)
	}
	return s.render(ctx, ownerID, false)
}

func (s *PortfolioService) render(ctx context.Context, ownerID uuid.UUID, isOwner bool) (*models.Holdings, error) {
	conn, err := s.repo.GetConnection(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	settings, err := s.repo.GetHoldingsSettings(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	privacy, err := s.repo.GetPrivacy(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.repo.ListAccounts(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	positions, err := s.repo.ListPositions(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	in := HoldingsInput{
		OwnerID:   ownerID,
		IsOwner:   isOwner,
		IsPublic:  settings.IsPublic,
		Accounts:  accounts,
		Positions: positions,
		Privacy:   *privacy,
	}
	if conn != nil {
		in.LastSyncedAt = conn.LastSyncedAt
	}
	holdings := ComputeHoldings(in)
	return &holdings, nil
}

func (s *PortfolioService) SetPublic(ctx context.Context, userID uuid.UUID, public bool) (bool, error) {
	if err := s.repo.SetPublic(ctx, userID, public); err != nil {
		return false, err
	}
	s.invalidateCard(ctx, userID)
	return public, nil
}

func (s *PortfolioService) GetPrivacy(ctx context.Context, userID uuid.UUID) (*models.PrivacySettings, error) {
	return s.repo.GetPrivacy(ctx, userID)
}

// UpdatePrivacy applies a partial update. Hidden account ids must belong to the user.
func (s *PortfolioService) UpdatePrivacy(ctx context.Context, userID uuid.UUID, patch models.PrivacyUpdate) (*models.PrivacySettings, error) {
	settings, err := s.repo.GetPrivacy(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.HiddenAccountIDs != nil {
		accounts, err := s.repo.ListAccounts(ctx, userID)
		if err != nil {
			return nil, err
		}
		owned := make(map[uint]bool, len(accounts))
		for _, a := range accounts {
			owned[a.ID] = true
		}
		ids := make([]uint, 0, len(*patch.HiddenAccountIDs))
		seen := make(map[uint]bool)
		for _, id := range *patch.HiddenAccountIDs {
			if !owned[id] {
				return nil, models.NewValidationError(fmt.Sprintf("account %d does not belong to you", id))
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		settings.HiddenAccountIDs = ids
	}

	setBool(&settings.ShowTotalValue, patch.ShowTotalValue)
	setBool(&settings.ShowUnits, patch.ShowUnits)
	setBool(&settings.ShowCostBasis, patch.ShowCostBasis)
	setBool(&settings.ShowPnL, patch.ShowPnL)
	setBool(&settings.ShowWeights, patch.ShowWeights)
	setBool(&settings.ShowOptions, patch.ShowOptions)

	settings.UserID = userID
	if err := s.repo.SavePrivacy(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func (s *PortfolioService) SetPositionVisibility(ctx context.Context, userID uuid.UUID, positionID uint, hidden bool) error {
	return s.repo.SetPositionHidden(ctx, userID, positionID, hidden)
}

func (s *PortfolioService) invalidateCard(ctx context.Context, userID uuid.UUID) {
	keys := []string{cache.ProfileCardKey(userID.String())}
	if s.userRepo != nil {
		if user, err := s.userRepo.GetByID(ctx, userID); err == nil {
			keys = append(keys, cache.ProfileCardKey(user.Username))
		}
	}
	cache.Invalidate(ctx, keys...)
}
