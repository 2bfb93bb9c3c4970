package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/hausee/navigator-backend/internal/domain/formstore"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

// OpenSQLiteCache opens (creating if needed) the local cache database at
// path and migrates the cache table.
func OpenSQLiteCache(logg *logger.Logger, path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger: gormLog(),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		// One writer keeps SQLite from returning SQLITE_BUSY under load.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&formstore.CacheEntry{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite cache: %w", err)
	}
	logg.Info("local form cache opened", "path", path)
	return db, nil
}
