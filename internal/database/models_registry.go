package database

import "confessional/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Reaction{},
		&models.Report{},
		&models.ReportEscalation{},
		&models.Sequence{},
		&models.AuditLogEntry{},
	}
}
