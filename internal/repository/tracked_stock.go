package repository

import (
	"context"

	"kolboard/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackedStockRepository persists the per-user stock watchlist.
type TrackedStockRepository interface {
	Track(ctx context.Context, stock *models.TrackedStock) (created bool, err error)
	Untrack(ctx context.Context, userID uuid.UUID, symbol string) (deleted bool, err error)
	SetNotify(ctx context.Context, userID uuid.UUID, symbol string, notify bool) (*models.TrackedStock, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.TrackedStock, error)
	TrackedSymbols(ctx context.Context, userID uuid.UUID) (map[string]bool, error)
	DistinctSymbols(ctx context.Context) ([]string, error)
}

type trackedStockRepository struct {
	db *gorm.DB
}

// NewTrackedStockRepository creates a new tracked stock repository.
func NewTrackedStockRepository(db *gorm.DB) TrackedStockRepository {
	return &trackedStockRepository{db: db}
}

func (r *trackedStockRepository) Track(ctx context.Context, stock *models.TrackedStock) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(stock)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *trackedStockRepository) Untrack(ctx context.Context, userID uuid.UUID, symbol string) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND symbol = ?", userID, symbol).Delete(&models.TrackedStock{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *trackedStockRepository) SetNotify(ctx context.Context, userID uuid.UUID, symbol string, notify bool) (*models.TrackedStock, error) {
	res := r.db.WithContext(ctx).Model(&models.TrackedStock{}).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Update("notify", notify)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Tracked stock", symbol)
	}
	var stock models.TrackedStock
	if err := r.db.WithContext(ctx).Where("user_id = ? AND symbol = ?", userID, symbol).First(&stock).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stock, nil
}

func (r *trackedStockRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.TrackedStock, error) {
	stocks := []models.TrackedStock{}
	if err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&stocks).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return stocks, nil
}

func (r *trackedStockRepository) TrackedSymbols(ctx context.Context, userID uuid.UUID) (map[string]bool, error) {
	var symbols []string
	if err := readDB(r.db).WithContext(ctx).Model(&models.TrackedStock{}).
		Where("user_id = ?", userID).
		Pluck("symbol", &symbols).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[s] = true
	}
	return set, nil
}

// DistinctSymbols lists every symbol tracked by at least one user.
func (r *trackedStockRepository) DistinctSymbols(ctx context.Context) ([]string, error) {
	symbols := []string{}
	if err := readDB(r.db).WithContext(ctx).Model(&models.TrackedStock{}).
		Distinct("symbol").
		Order("symbol").
		Pluck("symbol", &symbols).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return symbols, nil
}
