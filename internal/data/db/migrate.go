package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/codezs3/edusight-ai-new-sub001/internal/domain/history"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(history.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// EnsureHistoryIndexes adds the partial indexes gorm tags cannot express. Postgres only.
func EnsureHistoryIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_model_snapshot_one_active
		ON model_snapshot (model_key)
		WHERE active;
	`).Error; err != nil {
		return fmt.Errorf("create idx_model_snapshot_one_active: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_historical_record_open
		ON historical_record (student_id, recorded_at DESC)
		WHERE next_academic_score IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_historical_record_open: %w", err)
	}
	return nil
}
