package service

import (
	"context"
	"log/slog"
	"strings"

	"kolboard/internal/models"
	"kolboard/internal/observability"
	"kolboard/internal/repository"
	"kolboard/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SelfTrackPlatform is the platform on which a user's username is their KOL identity.
const SelfTrackPlatform = "twitter"

type TrackKOLInput struct {
	Platform    string `json:"platform" validate:"required"`
	KOLID       string `json:"kol_id" validate:"required"`
	KOLUsername string `json:"kol_username" validate:"max=100"`
	Notify      *bool  `json:"notify"`
}

type TrackStockInput struct {
	Symbol      string `json:"symbol" validate:"required"`
	CompanyName string `json:"company_name" validate:"max=200"`
	LogoURL     string `json:"logo_url" validate:"omitempty,url"`
	Notify      *bool  `json:"notify"`
}

// TrackingService manages the KOL and stock watchlists.
type TrackingService struct {
	kolRepo   repository.KOLSubscriptionRepository
	stockRepo repository.TrackedStockRepository
	userRepo  repository.UserRepository
	stocks    *StockService
	fanout    int
}

func NewTrackingService(
	kolRepo repository.KOLSubscriptionRepository,
	stockRepo repository.TrackedStockRepository,
	userRepo repository.UserRepository,
	stocks *StockService,
	fanout int,
) *TrackingService {
	if fanout <= 0 {
		fanout = DefaultFanoutLimit
	}
	return &TrackingService{
		kolRepo:   kolRepo,
		stockRepo: stockRepo,
		userRepo:  userRepo,
		stocks:    stocks,
		fanout:    fanout,
	}
}

// TrackKOL is idempotent: tracking an already tracked KOL leaves the counter alone.
func (s *TrackingService) TrackKOL(ctx context.Context, userID uuid.UUID, in TrackKOLInput) (*models.TrackStatus, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	platform, kolID, err := validation.ValidateKOLRef(in.Platform, in.KOLID)
	if err != nil {
		return nil, err
	}
	username := strings.TrimPrefix(strings.TrimSpace(in.KOLUsername), "@")

	if platform == SelfTrackPlatform && username != "" {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(user.Username, username) {
			return nil, models.NewValidationError("You cannot track yourself")
		}
	}

	notify := true
	if in.Notify != nil {
		notify = *in.Notify
	}
	_, count, err := s.kolRepo.Track(ctx, &models.KOLSubscription{
		UserID:      userID,
		Platform:    platform,
		KOLID:       kolID,
		KOLUsername: username,
		Notify:      notify,
	})
	if err != nil {
		return nil, err
	}
	return &models.TrackStatus{Tracked: true, TrackerCount: count}, nil
}

// UntrackKOL is idempotent.
func (s *TrackingService) UntrackKOL(ctx context.Context, userID uuid.UUID, platform, kolID string) (*models.TrackStatus, error) {
	platform, kolID, err := validation.ValidateKOLRef(platform, kolID)
	if err != nil {
		return nil, err
	}
	_, count, err := s.kolRepo.Untrack(ctx, userID, repository.KOLKey{Platform: platform, KOLID: kolID})
	if err != nil {
		return nil, err
	}
	return &models.TrackStatus{Tracked: false, TrackerCount: count}, nil
}

func (s *TrackingService) SetKOLNotify(ctx context.Context, userID uuid.UUID, platform, kolID string, notify bool) (*models.KOLSubscription, error) {
	platform, kolID, err := validation.ValidateKOLRef(platform, kolID)
	if err != nil {
		return nil, err
	}
	return s.kolRepo.SetNotify(ctx, userID, repository.KOLKey{Platform: platform, KOLID: kolID}, notify)
}

func (s *TrackingService) ListTrackedKOLs(ctx context.Context, userID uuid.UUID) ([]models.KOLSubscription, error) {
	return s.kolRepo.ListByUser(ctx, userID)
}

func (s *TrackingService) TrackStock(ctx context.Context, userID uuid.UUID, in TrackStockInput) (*models.StockTrackStatus, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	symbol, err := validation.ValidateSymbol(in.Symbol)
	if err != nil {
		return nil, err
	}
	notify := true
	if in.Notify != nil {
		notify = *in.Notify
	}
	if _, err := s.stockRepo.Track(ctx, &models.TrackedStock{
		UserID:      userID,
		Symbol:      symbol,
		CompanyName: strings.TrimSpace(in.CompanyName),
		LogoURL:     in.LogoURL,
		Notify:      notify,
	}); err != nil {
		return nil, err
	}
	return &models.StockTrackStatus{Symbol: symbol, Tracked: true}, nil
}

func (s *TrackingService) UntrackStock(ctx context.Context, userID uuid.UUID, symbol string) (*models.StockTrackStatus, error) {
	symbol, err := validation.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if _, err := s.stockRepo.Untrack(ctx, userID, symbol); err != nil {
		return nil, err
	}
	return &models.StockTrackStatus{Symbol: symbol, Tracked: false}, nil
}

func (s *TrackingService) SetStockNotify(ctx context.Context, userID uuid.UUID, symbol string, notify bool) (*models.TrackedStock, error) {
	symbol, err := validation.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return s.stockRepo.SetNotify(ctx, userID, symbol, notify)
}

// ListTrackedStocks joins the watchlist with cached quotes. A symbol whose
// quote cannot be fetched is listed without a price.
func (s *TrackingService) ListTrackedStocks(ctx context.Context, userID uuid.UUID) ([]models.TrackedStockView, error) {
	stocks, err := s.stockRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]models.TrackedStockView, len(stocks))
	for i, st := range stocks {
		views[i] = models.TrackedStockView{TrackedStock: st}
	}
	if s.stocks == nil || len(views) == 0 {
		return views, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for i := range views {
		g.Go(func() error {
			quote, err := s.stocks.Quote(gctx, views[i].Symbol)
			if err != nil {
				observability.Logger.WarnContext(ctx, "quote unavailable for tracked stock",
					slog.String("symbol", views[i].Symbol),
					slog.String("error", err.Error()),
				)
				return nil
			}
			price, change := quote.Price, quote.ChangePercent
			views[i].Price = &price
			views[i].ChangePercent = &change
			return nil
		})
	}
	_ = g.Wait()
	return views, nil
}
