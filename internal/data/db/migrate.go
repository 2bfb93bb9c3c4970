package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/hausee/navigator-backend/internal/domain/formstore"
	"github.com/hausee/navigator-backend/internal/domain/homes"
)

// AutoMigrateForms creates one table per module plus its scope index.
// Every upsert relies on the unique (user_id, workspace_id, subject) index.
func AutoMigrateForms(db *gorm.DB, tables []string) error {
	for _, table := range tables {
		if err := formstore.ValidTable(table); err != nil {
			return err
		}
		if err := db.Table(table).AutoMigrate(&formstore.FormRecord{}); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
		stmt := fmt.Sprintf(
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_scope ON %s (user_id, workspace_id, subject)",
			table, table,
		)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("index %s: %w", table, err)
		}
	}
	return nil
}

// AutoMigrateHomes creates the homes table.
func AutoMigrateHomes(db *gorm.DB) error {
	if err := db.AutoMigrate(&homes.Home{}); err != nil {
		return fmt.Errorf("migrate homes: %w", err)
	}
	return nil
}
