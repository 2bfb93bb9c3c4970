package formrecords

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hausee/navigator-backend/internal/domain/formstore"
	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

// SQLiteCache is a forms.LocalCache backed by a small key/value table,
// normally in an on-disk SQLite file next to the server.
type SQLiteCache struct {
	db      *gorm.DB
	log     *logger.Logger
	timeout time.Duration
}

func NewSQLiteCache(db *gorm.DB, baseLog *logger.Logger) *SQLiteCache {
	return &SQLiteCache{
		db:      db,
		log:     baseLog.With("service", "SQLiteFormCache"),
		timeout: 2 * time.Second,
	}
}

type cachedValue struct {
	Payload   datatypes.JSON `json:"payload"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (c *SQLiteCache) Put(key string, rec forms.RawRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	val, err := encodeCached(rec)
	if err != nil {
		return err
	}
	row := &formstore.CacheEntry{Key: key, Value: val, UpdatedAt: time.Now().UTC()}
	err = c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(row).Error
	return MapError("cache put", err)
}

func (c *SQLiteCache) Get(key string) (*forms.RawRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var row formstore.CacheEntry
	if err := c.db.WithContext(ctx).
		Where("cache_key = ?", key).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, MapError("cache get", err)
	}
	if row.Key == "" {
		return nil, nil
	}
	return decodeCached(row.Value)
}
