package forms

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hausee/navigator-backend/internal/platform/clock"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

const loadTimeout = 10 * time.Second

type opener func(ctx context.Context, key ScopeKey) Session

type registration struct {
	info ModuleInfo
	open opener
}

// SubjectCheck confirms that key.Subject names something the caller may
// attach a record to. It runs before a session for key is loaded.
type SubjectCheck func(ctx context.Context, key ScopeKey) error

// Registry keeps exactly one live Session per scope key so that writes
// for a key are always serialized through a single Debouncer. A key
// being evicted stays reserved in closing until its final flush ends.
type Registry struct {
	deps Deps
	log  *logger.Logger

	mu       sync.Mutex
	modules  map[ModuleID]registration
	checks   map[ModuleID]SubjectCheck
	sessions map[ScopeKey]Session
	closing  map[ScopeKey]chan struct{}
	closed   bool
	group    singleflight.Group
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:     deps,
		log:      deps.Log.With("service", "FormRegistry"),
		modules:  map[ModuleID]registration{},
		checks:   map[ModuleID]SubjectCheck{},
		sessions: map[ScopeKey]Session{},
		closing:  map[ScopeKey]chan struct{}{},
	}
}

// Register makes mod available to Open. Registering an ID twice
// replaces the earlier definition.
func Register[P any](r *Registry, mod Module[P]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[mod.ID] = registration{
		info: mod.Info(),
		open: func(ctx context.Context, key ScopeKey) Session {
			h := NewHolder(mod, key, r.deps)
			h.Load(ctx)
			return h
		},
	}
}

// CheckSubjects installs check for every new session of module id.
func (r *Registry) CheckSubjects(id ModuleID, check SubjectCheck) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if check == nil {
		delete(r.checks, id)
		return
	}
	r.checks[id] = check
}

func (r *Registry) Modules() []ModuleInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ModuleInfo, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Module(id ModuleID) (ModuleInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.modules[id]
	return m.info, ok
}

// Open returns the live session for key, loading it on first use.
// Concurrent first opens of one key share a single load.
func (r *Registry) Open(ctx context.Context, key ScopeKey) (Session, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	reg, ok := r.modules[key.Module]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, key.Module)
	}
	if reg.info.SubjectRequired && key.Subject == "" {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s requires a subject", ErrInvalidScope, key.Module)
	}
	if !reg.info.SubjectRequired && key.Subject != "" {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s does not take a subject", ErrInvalidScope, key.Module)
	}
	check := r.checks[key.Module]
	s, err := r.liveLocked(ctx, key)
	r.mu.Unlock()
	if err != nil || s != nil {
		return s, err
	}
	if check != nil {
		if err := check(ctx, key); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidScope, err)
		}
	}

	v, err, _ := r.group.Do(key.String(), func() (interface{}, error) {
		r.mu.Lock()
		s, err := r.liveLocked(ctx, key)
		r.mu.Unlock()
		if err != nil || s != nil {
			return s, err
		}

		// The load is shared, so it must not die with the first caller.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		s = reg.open(loadCtx, key)
		cancel()

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			return nil, ErrClosed
		}
		r.sessions[key] = s
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Session), nil
}

// liveLocked returns the live session for key, or nil if there is none.
// While an evicted session for key is still flushing it waits, so the
// next load sees the evicted session's last write. Called and returns
// with r.mu held.
func (r *Registry) liveLocked(ctx context.Context, key ScopeKey) (Session, error) {
	for {
		if r.closed {
			return nil, ErrClosed
		}
		if s, ok := r.sessions[key]; ok {
			return s, nil
		}
		done, ok := r.closing[key]
		if !ok {
			return nil, nil
		}
		r.mu.Unlock()
		select {
		case <-done:
			r.mu.Lock()
		case <-ctx.Done():
			r.mu.Lock()
			return nil, ctx.Err()
		}
	}
}

// OpenHolder is Open with the concrete payload type restored.
func OpenHolder[P any](ctx context.Context, r *Registry, key ScopeKey) (*Holder[P], error) {
	s, err := r.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	h, ok := s.(*Holder[P])
	if !ok {
		return nil, fmt.Errorf("%w: %s registered with a different payload type", ErrUnknownModule, key.Module)
	}
	return h, nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

type eviction struct {
	key  ScopeKey
	sess Session
	done chan struct{}
}

// detachLocked moves the session for k from sessions to closing.
func (r *Registry) detachLocked(k ScopeKey, s Session) eviction {
	e := eviction{key: k, sess: s, done: make(chan struct{})}
	r.closing[k] = e.done
	delete(r.sessions, k)
	return e
}

// finish closes an evicted session and releases its key.
func (r *Registry) finish(ctx context.Context, e eviction) error {
	err := e.sess.Close(ctx)
	r.mu.Lock()
	delete(r.closing, e.key)
	r.mu.Unlock()
	close(e.done)
	return err
}

// Sweep flushes and evicts sessions idle since before now-idle. An
// evicted key cannot be reopened until its flush has finished.
func (r *Registry) Sweep(ctx context.Context, now time.Time, idle time.Duration) int {
	cutoff := now.Add(-idle)
	r.mu.Lock()
	var stale []eviction
	for k, s := range r.sessions {
		if s.IdleSince().Before(cutoff) {
			stale = append(stale, r.detachLocked(k, s))
		}
	}
	r.mu.Unlock()

	for _, e := range stale {
		if err := r.finish(ctx, e); err != nil {
			r.log.Warn("evicted session flush failed", append(e.key.logFields(), "error", err)...)
		}
	}
	if len(stale) > 0 {
		r.log.Debug("evicted idle sessions", "count", len(stale))
	}
	return len(stale)
}

// Evict flushes and drops the live session for key, if any, so that the
// next Open loads it again and reruns its subject check.
func (r *Registry) Evict(ctx context.Context, key ScopeKey) error {
	r.mu.Lock()
	s, ok := r.sessions[key]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	e := r.detachLocked(key, s)
	r.mu.Unlock()
	return r.finish(ctx, e)
}

// Run sweeps idle sessions every interval, as measured by the registry
// clock, until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	clk := r.clock()
	tick := make(chan struct{}, 1)
	for {
		t := clk.AfterFunc(interval, func() {
			select {
			case tick <- struct{}{}:
			default:
			}
		})
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-tick:
			r.Sweep(ctx, clk.Now(), idle)
		}
	}
}

func (r *Registry) clock() clock.Clock {
	if r.deps.Clock != nil {
		return r.deps.Clock
	}
	return clock.Real()
}

// Close flushes every live session in parallel and rejects further opens.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	sessions := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = map[ScopeKey]Session{}
	evicting := make([]chan struct{}, 0, len(r.closing))
	for _, done := range r.closing {
		evicting = append(evicting, done)
	}
	r.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(8)
	for _, s := range sessions {
		s := s
		g.Go(func() error {
			if err := s.Close(ctx); err != nil {
				r.log.Warn("session flush on shutdown failed", append(s.Key().logFields(), "error", err)...)
				return err
			}
			return nil
		})
	}
	err := g.Wait()
	for _, done := range evicting {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
