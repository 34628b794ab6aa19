package repository

import (
	"context"
	"errors"
	"time"

	"kolboard/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PortfolioRepository persists brokerage connections, synced holdings and their privacy settings.
type PortfolioRepository interface {
	GetConnection(ctx context.Context, userID uuid.UUID) (*models.SnapTradeConnection, error)
	CreateConnection(ctx context.Context, conn *models.SnapTradeConnection) error
	ReplaceHoldings(ctx context.Context, userID uuid.UUID, accounts []models.BrokerageAccount, syncedAt time.Time) error
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]models.BrokerageAccount, error)
	ListPositions(ctx context.Context, userID uuid.UUID) ([]models.Position, error)
	SetPositionHidden(ctx context.Context, userID uuid.UUID, positionID uint, hidden bool) error
	GetHoldingsSettings(ctx context.Context, userID uuid.UUID) (*models.HoldingsSettings, error)
	SetPublic(ctx context.Context, userID uuid.UUID, public bool) error
	ListPublicUserIDs(ctx context.Context) ([]uuid.UUID, error)
	GetPrivacy(ctx context.Context, userID uuid.UUID) (*models.PrivacySettings, error)
	SavePrivacy(ctx context.Context, settings *models.PrivacySettings) error
}

type portfolioRepository struct {
	db *gorm.DB
}

// NewPortfolioRepository creates a new portfolio repository.
func NewPortfolioRepository(db *gorm.DB) PortfolioRepository {
	return &portfolioRepository{db: db}
}

// GetConnection returns (nil, nil) when the user has not registered with the aggregator.
func (r *portfolioRepository) GetConnection(ctx context.Context, userID uuid.UUID) (*models.SnapTradeConnection, error) {
	var conn models.SnapTradeConnection
	if err := r.db.WithContext(ctx).First(&conn, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &conn, nil
}

func (r *portfolioRepository) CreateConnection(ctx context.Context, conn *models.SnapTradeConnection) error {
	if err := r.db.WithContext(ctx).Create(conn).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Brokerage connection already registered")
		}
		return models.NewInternalError(err)
	}
	return nil
}

type hiddenKey struct {
	externalID string
	symbol     string
}

// ReplaceHoldings swaps the user's synced accounts and positions in one transaction.
// Accounts keep their ids across syncs (matched by external id) and positions keep
// their hidden flag when the same symbol reappears in the same account.
func (r *portfolioRepository) ReplaceHoldings(ctx context.Context, userID uuid.UUID, accounts []models.BrokerageAccount, syncedAt time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.BrokerageAccount
		if err := tx.Where("user_id = ?", userID).Find(&existing).Error; err != nil {
			return err
		}
		byExternal := make(map[string]uint, len(existing))
		externalByID := make(map[uint]string, len(existing))
		for _, a := range existing {
			byExternal[a.ExternalID] = a.ID
			externalByID[a.ID] = a.ExternalID
		}

		var hiddenPositions []models.Position
		if err := tx.Where("user_id = ? AND is_hidden = ?", userID, true).Find(&hiddenPositions).Error; err != nil {
			return err
		}
		hidden := make(map[hiddenKey]bool, len(hiddenPositions))
		for _, p := range hiddenPositions {
			hidden[hiddenKey{externalID: externalByID[p.AccountID], symbol: p.Symbol}] = true
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.Position{}).Error; err != nil {
			return err
		}

		keep := make([]uint, 0, len(accounts))
		for i := range accounts {
			acct := accounts[i]
			positions := acct.Positions
			acct.Positions = nil
			acct.UserID = userID

			if id, ok := byExternal[acct.ExternalID]; ok {
				acct.ID = id
				if err := tx.Model(&models.BrokerageAccount{}).Where("id = ?", id).Updates(map[string]any{
					"institution":   acct.Institution,
					"name":          acct.Name,
					"number_masked": acct.NumberMasked,
					"total_value":   acct.TotalValue,
					"currency":      acct.Currency,
				}).Error; err != nil {
					return err
				}
			} else if err := tx.Create(&acct).Error; err != nil {
				return err
			}
			keep = append(keep, acct.ID)

			for j := range positions {
				positions[j].ID = 0
				positions[j].AccountID = acct.ID
				positions[j].UserID = userID
				positions[j].IsHidden = hidden[hiddenKey{externalID: acct.ExternalID, symbol: positions[j].Symbol}]
			}
			if len(positions) > 0 {
				if err := tx.Create(&positions).Error; err != nil {
					return err
				}
			}
		}

		stale := tx.Where("user_id = ?", userID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&models.BrokerageAccount{}).Error; err != nil {
			return err
		}

		return tx.Model(&models.SnapTradeConnection{}).
			Where("user_id = ?", userID).
			Update("last_synced_at", syncedAt).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *portfolioRepository) ListAccounts(ctx context.Context, userID uuid.UUID) ([]models.BrokerageAccount, error) {
	accounts := []models.BrokerageAccount{}
	if err := readDB(r.db).WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&accounts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return accounts, nil
}

func (r *portfolioRepository) ListPositions(ctx context.Context, userID uuid.UUID) ([]models.Position, error) {
	positions := []models.Position{}
	if err := readDB(r.db).WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&positions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return positions, nil
}

// SetPositionHidden only touches positions owned by userID.
func (r *portfolioRepository) SetPositionHidden(ctx context.Context, userID uuid.UUID, positionID uint, hidden bool) error {
	res := r.db.WithContext(ctx).Model(&models.Position{}).
		Where("id = ? AND user_id = ?", positionID, userID).
		Update("is_hidden", hidden)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Position", positionID)
	}
	return nil
}

// GetHoldingsSettings returns private defaults when the user never saved settings.
func (r *portfolioRepository) GetHoldingsSettings(ctx context.Context, userID uuid.UUID) (*models.HoldingsSettings, error) {
	var settings models.HoldingsSettings
	if err := readDB(r.db).WithContext(ctx).First(&settings, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.HoldingsSettings{UserID: userID}, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &settings, nil
}

func (r *portfolioRepository) SetPublic(ctx context.Context, userID uuid.UUID, public bool) error {
	settings := models.HoldingsSettings{UserID: userID, IsPublic: public, UpdatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_public", "updated_at"}),
	}).Create(&settings).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *portfolioRepository) ListPublicUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if err := readDB(r.db).WithContext(ctx).Model(&models.HoldingsSettings{}).
		Where("is_public = ?", true).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// GetPrivacy returns DefaultPrivacySettings when the user never saved any.
func (r *portfolioRepository) GetPrivacy(ctx context.Context, userID uuid.UUID) (*models.PrivacySettings, error) {
	var settings models.PrivacySettings
	if err := readDB(r.db).WithContext(ctx).First(&settings, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			defaults := models.DefaultPrivacySettings(userID)
			return &defaults, nil
		}
		return nil, models.NewInternalError(err)
	}
	if settings.HiddenAccountIDs == nil {
		settings.HiddenAccountIDs = []uint{}
	}
	return &settings, nil
}

// SavePrivacy upserts the full settings row.
func (r *portfolioRepository) SavePrivacy(ctx context.Context, settings *models.PrivacySettings) error {
	settings.UpdatedAt = time.Now().UTC()
	if err := r.db.WithContext(ctx).Save(settings).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
