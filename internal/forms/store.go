package forms

import (
	"context"

	"github.com/hausee/navigator-backend/internal/platform/logger"
)

// LocalCache is the fast, device-local sink.
type LocalCache interface {
	Put(key string, rec RawRecord) error
	// Get returns nil, nil when nothing is cached under key.
	Get(key string) (*RawRecord, error)
}

// RemoteStore is the hosted relational sink. Upsert must be idempotent
// on (user, workspace, subject) within table.
type RemoteStore interface {
	Upsert(ctx context.Context, table string, key ScopeKey, rec RawRecord) error
	// Get returns nil, nil when no record exists yet.
	Get(ctx context.Context, table string, key ScopeKey) (*RawRecord, error)
}

// DualStore combines both sinks behind the load/save contract used by
// Holder. Local failures are logged and swallowed; remote failures are
// returned to the caller.
type DualStore struct {
	local  LocalCache
	remote RemoteStore
	log    *logger.Logger
}

func NewDualStore(local LocalCache, remote RemoteStore, baseLog *logger.Logger) *DualStore {
	return &DualStore{local: local, remote: remote, log: baseLog.With("service", "DualStore")}
}

func (s *DualStore) WriteLocal(cacheKey string, rec RawRecord) {
	if s.local == nil {
		return
	}
	if err := s.local.Put(cacheKey, rec); err != nil {
		s.log.Warn("local cache write failed", "cache_key", cacheKey, "error", err)
	}
}

func (s *DualStore) ReadLocal(cacheKey string) *RawRecord {
	if s.local == nil {
		return nil
	}
	rec, err := s.local.Get(cacheKey)
	if err != nil {
		s.log.Warn("local cache read failed", "cache_key", cacheKey, "error", err)
		return nil
	}
	return rec
}

func (s *DualStore) WriteRemote(ctx context.Context, table string, key ScopeKey, rec RawRecord) error {
	return s.remote.Upsert(ctx, table, key, rec)
}

func (s *DualStore) ReadRemote(ctx context.Context, table string, key ScopeKey) (*RawRecord, error) {
	return s.remote.Get(ctx, table, key)
}
