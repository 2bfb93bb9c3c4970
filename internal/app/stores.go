package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/hausee/navigator-backend/internal/clients/redis"
	"github.com/hausee/navigator-backend/internal/data/db"
	"github.com/hausee/navigator-backend/internal/data/repos/formrecords"
	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

type Stores struct {
	Postgres *gorm.DB
	Local    forms.LocalCache
	Remote   forms.RemoteStore

	closers []func() error
}

func wireStores(log *logger.Logger, cfg Config, tables []string) (Stores, error) {
	log.Info("Wiring stores...", "local_cache_mode", cfg.LocalCacheMode)

	pg, err := db.NewPostgresService(log, cfg.Postgres)
	if err != nil {
		return Stores{}, fmt.Errorf("init postgres: %w", err)
	}
	if err := db.AutoMigrateForms(pg.DB(), tables); err != nil {
		return Stores{}, fmt.Errorf("postgres automigrate: %w", err)
	}
	if err := db.AutoMigrateHomes(pg.DB()); err != nil {
		return Stores{}, fmt.Errorf("postgres automigrate: %w", err)
	}
	s := Stores{
		Postgres: pg.DB(),
		Remote:   formrecords.NewRemoteStore(formrecords.NewFormRecordRepo(pg.DB(), log), log),
	}
	s.closers = append(s.closers, func() error { return closeGorm(pg.DB()) })

	switch cfg.LocalCacheMode {
	case CacheModeSQLite:
		lite, err := db.OpenSQLiteCache(log, cfg.LocalCachePath)
		if err != nil {
			s.Close()
			return Stores{}, fmt.Errorf("init sqlite cache: %w", err)
		}
		s.Local = formrecords.NewSQLiteCache(lite, log)
		s.closers = append(s.closers, func() error { return closeGorm(lite) })
	case CacheModeRedis:
		rc, err := redis.NewFormCache(log, redis.FormCacheConfig{Addr: cfg.RedisAddr, TTL: cfg.RedisCacheTTL})
		if err != nil {
			s.Close()
			return Stores{}, fmt.Errorf("init redis cache: %w", err)
		}
		s.Local = rc
		s.closers = append(s.closers, rc.Close)
	default:
		s.Local = forms.NewMemoryCache()
	}
	return s, nil
}

func closeGorm(g *gorm.DB) error {
	sqlDB, err := g.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Close releases stores in reverse order of opening.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
	s.closers = nil
}
