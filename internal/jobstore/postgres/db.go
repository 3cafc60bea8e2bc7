package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to dsn and auto-migrates the matcher's schema,
// grounded on fulcrumproject-core's gorm.Open(postgres.Open(dsn),
// &gorm.Config{}) + AutoMigrate convention (see internal/database/postgres.go).
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}
	if err := db.AutoMigrate(&jobModel{}, &jobOptParamModel{}, &taskQueueModel{}, &siteMaskModel{}, &loggingRecordModel{}); err != nil {
		return nil, fmt.Errorf("postgres: migrating: %w", err)
	}
	return db, nil
}
