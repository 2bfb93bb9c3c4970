package forms

import (
	"time"

	"github.com/google/uuid"
)

// Env carries the only non-payload inputs a Derive function may read.
type Env struct {
	AsOf   time.Time
	UserID uuid.UUID
}

// Module describes one persisted form: where it lives, how long edits
// are coalesced, and how derived fields are computed.
type Module[P any] struct {
	ID          ModuleID
	CachePrefix string
	Table       string
	Delay       time.Duration
	// SubjectRequired marks modules keyed per instance (home evaluations).
	SubjectRequired bool

	Default func() P
	// Derive recomputes every derived field. It must be a pure function
	// of its arguments.
	Derive func(p P, env Env) P
	// Validate rejects payloads that must never be stored. Optional.
	Validate func(p P) error
	// Guard vetoes an edit given the payload it replaces. Reset is never
	// guarded. Optional.
	Guard func(prev, next P) error
}

func (m Module[P]) derive(p P, env Env) P {
	if m.Derive == nil {
		return p
	}
	return m.Derive(p, env)
}

// ModuleInfo is the type-free description of a registered module.
type ModuleInfo struct {
	ID              ModuleID      `json:"id"`
	Table           string        `json:"table"`
	CachePrefix     string        `json:"cache_prefix"`
	Delay           time.Duration `json:"-"`
	DelayMS         int64         `json:"debounce_ms"`
	SubjectRequired bool          `json:"subject_required"`
}

func (m Module[P]) Info() ModuleInfo {
	return ModuleInfo{
		ID:              m.ID,
		Table:           m.Table,
		CachePrefix:     m.CachePrefix,
		Delay:           m.Delay,
		DelayMS:         m.Delay.Milliseconds(),
		SubjectRequired: m.SubjectRequired,
	}
}
