package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hausee/navigator-backend/internal/platform/clock"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

// Deps are the collaborators shared by every Holder.
type Deps struct {
	Store    *DualStore
	Clock    clock.Clock
	Log      *logger.Logger
	Observer SaveObserver
	// Context bounds timer-driven remote writes.
	Context context.Context
}

// Holder owns the in-memory Record for one scope key. Every edit is
// applied, derived, validated, and cached locally on the caller's
// goroutine; the remote write is debounced.
type Holder[P any] struct {
	mod      Module[P]
	key      ScopeKey
	cacheKey string
	store    *DualStore
	clock    clock.Clock
	log      *logger.Logger
	observer SaveObserver
	deb      *Debouncer[RawRecord]

	mu         sync.Mutex
	rec        Record[P]
	closed     bool
	lastActive time.Time

	statusMu sync.Mutex
	status   SaveStatus
}

func NewHolder[P any](mod Module[P], key ScopeKey, deps Deps) *Holder[P] {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	h := &Holder[P]{
		mod:      mod,
		key:      key,
		cacheKey: key.CacheKey(mod.CachePrefix),
		store:    deps.Store,
		clock:    clk,
		log:      deps.Log.With(append([]interface{}{"service", "FormHolder"}, key.logFields()...)...),
		observer: deps.Observer,
		status:   SaveStatus{State: SaveIdle},
	}
	h.rec = Record[P]{Payload: mod.derive(mod.Default(), h.env(clk.Now()))}
	h.lastActive = clk.Now()
	h.deb = NewDebouncer(deps.Context, clk, mod.Delay, h.persist, h.saved)
	return h
}

func (h *Holder[P]) Key() ScopeKey { return h.key }

func (h *Holder[P]) env(asOf time.Time) Env {
	return Env{AsOf: asOf, UserID: h.key.UserID}
}

// Load replaces the in-memory record using remote, then local, then the
// module default. It never fails; every fallback is logged.
func (h *Holder[P]) Load(ctx context.Context) Record[P] {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec, source := h.loadLocked(ctx)
	rec.Payload = h.mod.derive(rec.Payload, h.env(h.clock.Now()))
	h.rec = rec
	h.lastActive = h.clock.Now()
	h.log.Debug("form loaded", "source", source)
	out, _ := h.copyLocked()
	return out
}

func (h *Holder[P]) loadLocked(ctx context.Context) (Record[P], string) {
	remote, err := h.store.ReadRemote(ctx, h.mod.Table, h.key)
	if err != nil {
		h.log.Warn("remote load failed, falling back to local cache", "error", err)
	} else if remote != nil {
		if rec, err := Decode[P](*remote); err == nil {
			h.store.WriteLocal(h.cacheKey, *remote)
			return rec, "remote"
		} else {
			h.log.Warn("remote record malformed, falling back to local cache", "error", err)
		}
	}
	if local := h.store.ReadLocal(h.cacheKey); local != nil {
		if rec, err := Decode[P](*local); err == nil {
			return rec, "local"
		} else {
			h.log.Warn("cached record malformed, using default", "error", err)
		}
	}
	return Record[P]{Payload: h.mod.Default()}, "default"
}

// Snapshot returns a copy of the current record.
func (h *Holder[P]) Snapshot() Record[P] {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastActive = h.clock.Now()
	out, _ := h.copyLocked()
	return out
}

// Edit applies every field edit to the current payload as one batch.
// On error nothing changes and nothing is persisted.
func (h *Holder[P]) Edit(edits ...FieldEdit) (Record[P], error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return Record[P]{}, ErrClosed
	}
	if len(edits) == 0 {
		return Record[P]{}, fmt.Errorf("%w: no edits", ErrInvalidEdit)
	}
	data, err := json.Marshal(h.rec.Payload)
	if err != nil {
		return Record[P]{}, fmt.Errorf("encode payload: %w", err)
	}
	for _, e := range edits {
		if data, err = applyEdit(data, e); err != nil {
			return Record[P]{}, fmt.Errorf("%w: %v", ErrInvalidEdit, err)
		}
	}
	var next P
	if err := decodeStrict(data, &next); err != nil {
		return Record[P]{}, fmt.Errorf("%w: %v", ErrInvalidEdit, err)
	}
	return h.commitLocked(next)
}

// Update runs fn on a copy of the payload and commits the result through
// the same derive, validate, and save path as Edit.
func (h *Holder[P]) Update(fn func(P) (P, error)) (Record[P], error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return Record[P]{}, ErrClosed
	}
	next, err := h.applyLocked(fn)
	if err != nil {
		return Record[P]{}, err
	}
	return h.commitLocked(next)
}

// Commit is Update followed by an immediate remote write. The write
// runs after the lock is released so readers are never held up by it.
func (h *Holder[P]) Commit(ctx context.Context, fn func(P) (P, error)) (Record[P], error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return Record[P]{}, ErrClosed
	}
	next, err := h.applyLocked(fn)
	if err != nil {
		h.mu.Unlock()
		return Record[P]{}, err
	}
	rec, err := h.commitLocked(next)
	h.mu.Unlock()
	if err != nil {
		return Record[P]{}, err
	}
	h.flushImmediate(ctx)
	return rec, nil
}

// Reset restores the module default and writes it through immediately.
// A closed holder returns ErrClosed so the caller can reopen the scope.
func (h *Holder[P]) Reset(ctx context.Context) (Record[P], error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return Record[P]{}, ErrClosed
	}
	rec, raw, err := h.stageLocked(h.mod.Default())
	if err != nil {
		h.mu.Unlock()
		h.log.Error("reset produced an invalid default", "error", err)
		return Record[P]{}, err
	}
	if err := h.deb.Schedule(raw); err != nil {
		h.mu.Unlock()
		return Record[P]{}, err
	}
	h.setState(SavePending)
	h.mu.Unlock()
	h.flushImmediate(ctx)
	return rec, nil
}

func (h *Holder[P]) applyLocked(fn func(P) (P, error)) (P, error) {
	cur, err := clonePayload(h.rec.Payload)
	if err != nil {
		return cur, fmt.Errorf("copy payload: %w", err)
	}
	next, err := fn(cur)
	if err != nil {
		return next, err
	}
	return next, nil
}

// stageLocked derives and validates next, makes it current, and writes
// it to the local cache.
func (h *Holder[P]) stageLocked(next P) (Record[P], RawRecord, error) {
	now := h.clock.Now()
	next = h.mod.derive(next, h.env(now))
	if h.mod.Validate != nil {
		if err := h.mod.Validate(next); err != nil {
			return Record[P]{}, RawRecord{}, fmt.Errorf("%w: %v", ErrInvalidEdit, err)
		}
	}
	rec := Record[P]{Payload: next, UpdatedAt: now}
	raw, err := rec.Raw()
	if err != nil {
		return Record[P]{}, RawRecord{}, err
	}
	h.rec = rec
	h.lastActive = now
	h.store.WriteLocal(h.cacheKey, raw)
	out, err := Decode[P](raw)
	if err != nil {
		return Record[P]{}, RawRecord{}, err
	}
	return out, raw, nil
}

func (h *Holder[P]) guardLocked(next P) error {
	if h.mod.Guard == nil {
		return nil
	}
	if err := h.mod.Guard(h.rec.Payload, next); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEdit, err)
	}
	return nil
}

func (h *Holder[P]) commitLocked(next P) (Record[P], error) {
	if err := h.guardLocked(next); err != nil {
		return Record[P]{}, err
	}
	rec, raw, err := h.stageLocked(next)
	if err != nil {
		return Record[P]{}, err
	}
	if err := h.deb.Schedule(raw); err != nil {
		return Record[P]{}, err
	}
	h.setState(SavePending)
	return rec, nil
}

// flushImmediate writes the newest scheduled record without waiting for
// the quiet period. Remote failures land in Status, not the caller.
func (h *Holder[P]) flushImmediate(ctx context.Context) {
	err := h.deb.Flush(ctx)
	if err != nil && (errors.Is(err, ErrClosed) || ctx.Err() != nil) {
		h.log.Warn("immediate save abandoned", "error", err)
	}
}

func (h *Holder[P]) copyLocked() (Record[P], error) {
	raw, err := h.rec.Raw()
	if err != nil {
		return h.rec, err
	}
	return Decode[P](raw)
}

// persist is the debounced write: local first, then remote.
func (h *Holder[P]) persist(ctx context.Context, raw RawRecord) error {
	h.setState(SaveSaving)
	h.store.WriteLocal(h.cacheKey, raw)
	start := h.clock.Now()
	err := h.store.WriteRemote(ctx, h.mod.Table, h.key, raw)
	if h.observer != nil {
		h.observer.ObserveFormSave(string(h.mod.ID), err, h.clock.Now().Sub(start))
	}
	return err
}

func (h *Holder[P]) saved(raw RawRecord, err error) {
	h.statusMu.Lock()
	defer h.statusMu.Unlock()
	if err != nil {
		h.log.Warn("remote save failed", "error", err)
		h.status.State = SaveFailed
		h.status.LastError = err.Error()
		h.status.Retryable = errors.Is(err, ErrStoreUnavailable)
		return
	}
	now := h.clock.Now()
	h.status.State = SaveSaved
	h.status.LastSavedAt = &now
	h.status.LastError = ""
	h.status.Retryable = false
}

func (h *Holder[P]) setState(s SaveState) {
	h.statusMu.Lock()
	h.status.State = s
	h.statusMu.Unlock()
}

func (h *Holder[P]) Status() SaveStatus {
	h.statusMu.Lock()
	defer h.statusMu.Unlock()
	st := h.status
	if h.deb.State() == Scheduled && st.State != SaveSaving {
		st.State = SavePending
	}
	return st
}

// Flush writes any pending edit now.
func (h *Holder[P]) Flush(ctx context.Context) error {
	return h.deb.Flush(ctx)
}

// Close flushes pending edits and rejects further ones.
func (h *Holder[P]) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return h.deb.Close(ctx)
}

func (h *Holder[P]) IdleSince() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastActive
}
