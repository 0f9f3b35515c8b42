package database

import "stride/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.NotificationPreference{},
		&models.Workout{},
		&models.Comment{},
		&models.Report{},
		&models.ReportComment{},
		&models.ModerationAction{},
		&models.Appeal{},
		&models.Notification{},
	}
}
