package repository

import (
	"context"
	"errors"

	"kolboard/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KOLKey identifies a KOL across platforms.
type KOLKey struct {
	Platform string
	KOLID    string
}

// KOLSubscriptionRepository persists tracking relations and per-KOL tracker counters.
type KOLSubscriptionRepository interface {
	Track(ctx context.Context, sub *models.KOLSubscription) (created bool, trackerCount int, err error)
	Untrack(ctx context.Context, userID uuid.UUID, key KOLKey) (deleted bool, trackerCount int, err error)
	SetNotify(ctx context.Context, userID uuid.UUID, key KOLKey, notify bool) (*models.KOLSubscription, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.KOLSubscription, error)
	TrackedSet(ctx context.Context, userID uuid.UUID, platform string) (map[KOLKey]bool, error)
	TrackerCounts(ctx context.Context, platform string) (map[KOLKey]int, error)
}

type kolSubscriptionRepository struct {
	db *gorm.DB
}

// NewKOLSubscriptionRepository creates a new KOL subscription repository.
func NewKOLSubscriptionRepository(db *gorm.DB) KOLSubscriptionRepository {
	return &kolSubscriptionRepository{db: db}
}

func (r *kolSubscriptionRepository) Track(ctx context.Context, sub *models.KOLSubscription) (bool, int, error) {
	created := false
	count := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(sub)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			created = true
			stat := models.KOLStat{Platform: sub.Platform, KOLID: sub.KOLID, TrackerCount: 1}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "platform"}, {Name: "kol_id"}},
				DoUpdates: clause.Assignments(map[string]any{"tracker_count": gorm.Expr("kol_stats.tracker_count + 1")}),
			}).Create(&stat).Error; err != nil {
				return err
			}
		}
		var err error
		count, err = trackerCount(tx, KOLKey{Platform: sub.Platform, KOLID: sub.KOLID})
		return err
	})
	if err != nil {
		return false, 0, models.NewInternalError(err)
	}
	return created, count, nil
}

func (r *kolSubscriptionRepository) Untrack(ctx context.Context, userID uuid.UUID, key KOLKey) (bool, int, error) {
	deleted := false
	count := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND platform = ? AND kol_id = ?", userID, key.Platform, key.KOLID).
			Delete(&models.KOLSubscription{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			deleted = true
			if err := tx.Model(&models.KOLStat{}).
				Where("platform = ? AND kol_id = ?", key.Platform, key.KOLID).
				UpdateColumn("tracker_count", decrementExpr("tracker_count")).Error; err != nil {
				return err
			}
		}
		var err error
		count, err = trackerCount(tx, key)
		return err
	})
	if err != nil {
		return false, 0, models.NewInternalError(err)
	}
	return deleted, count, nil
}

func trackerCount(tx *gorm.DB, key KOLKey) (int, error) {
	var stat models.KOLStat
	err := tx.Where("platform = ? AND kol_id = ?", key.Platform, key.KOLID).First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return stat.TrackerCount, err
}

func (r *kolSubscriptionRepository) SetNotify(ctx context.Context, userID uuid.UUID, key KOLKey, notify bool) (*models.KOLSubscription, error) {
	res := r.db.WithContext(ctx).Model(&models.KOLSubscription{}).
		Where("user_id = ? AND platform = ? AND kol_id = ?", userID, key.Platform, key.KOLID).
		Update("notify", notify)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Tracked KOL", key.Platform+"/"+key.KOLID)
	}
	var sub models.KOLSubscription
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND platform = ? AND kol_id = ?", userID, key.Platform, key.KOLID).
		First(&sub).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &sub, nil
}

func (r *kolSubscriptionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.KOLSubscription, error) {
	subs := []models.KOLSubscription{}
	if err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return subs, nil
}

// TrackedSet returns the user's tracked KOLs in one query. An empty platform matches all.
func (r *kolSubscriptionRepository) TrackedSet(ctx context.Context, userID uuid.UUID, platform string) (map[KOLKey]bool, error) {
	var subs []models.KOLSubscription
	q := readDB(r.db).WithContext(ctx).Select("platform", "kol_id").Where("user_id = ?", userID)
	if platform != "" {
		q = q.Where("platform = ?", platform)
	}
	if err := q.Find(&subs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	set := make(map[KOLKey]bool, len(subs))
	for _, s := range subs {
		set[KOLKey{Platform: s.Platform, KOLID: s.KOLID}] = true
	}
	return set, nil
}

func (r *kolSubscriptionRepository) TrackerCounts(ctx context.Context, platform string) (map[KOLKey]int, error) {
	var stats []models.KOLStat
	q := readDB(r.db).WithContext(ctx).Where("tracker_count > 0")
	if platform != "" {
		q = q.Where("platform = ?", platform)
	}
	if err := q.Find(&stats).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	counts := make(map[KOLKey]int, len(stats))
	for _, s := range stats {
		counts[KOLKey{Platform: s.Platform, KOLID: s.KOLID}] = s.TrackerCount
	}
	return counts, nil
}
