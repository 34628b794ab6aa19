package database

import "kolboard/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.Notification{},
		&models.KOLSubscription{},
		&models.KOLStat{},
		&models.TrackedStock{},
		&models.SnapTradeConnection{},
		&models.BrokerageAccount{},
		&models.Position{},
		&models.HoldingsSettings{},
		&models.PrivacySettings{},
	}
}
