package forms_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hausee/navigator-backend/internal/forms"
)

func TestHolderLoadPrefersRemote(t *testing.T) {
	f := newFixture(t)
	f.seedRemote(t, ledger{Income: 100}, f.clock.Now().Add(-time.Hour))
	f.seedLocal(t, ledger{Income: 200}, f.clock.Now())

	h := forms.NewHolder(ledgerModule(), f.key, f.deps)
	rec := h.Load(context.Background())
	if rec.Payload.Income != 100 {
		t.Fatalf("income=%v want remote 100", rec.Payload.Income)
	}
	if rec.Payload.Savings != 100 {
		t.Fatalf("derived savings not recomputed on load: %v", rec.Payload.Savings)
	}
}

func TestHolderLoadFallsBack(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(t *testing.T, f *fixture)
		income float64
		tags   int
	}{
		{
			name: "no remote record uses local",
			setup: func(t *testing.T, f *fixture) {
				f.seedLocal(t, ledger{Income: 200}, f.clock.Now())
			},
			income: 200,
		},
		{
			name: "remote error uses local",
			setup: func(t *testing.T, f *fixture) {
				f.seedRemote(t, ledger{Income: 100}, f.clock.Now())
				f.seedLocal(t, ledger{Income: 200}, f.clock.Now())
				f.remote.FailReadsWith(errors.New("network down"))
			},
			income: 200,
		},
		{
			name: "malformed remote uses local",
			setup: func(t *testing.T, f *fixture) {
				f.remote.Seed("ledgers", f.key, forms.RawRecord{Payload: json.RawMessage(`{"income":"lots","bogus":1}`)})
				f.seedLocal(t, ledger{Income: 200}, f.clock.Now())
			},
			income: 200,
		},
		{
			name:   "nothing stored uses default",
			setup:  func(t *testing.T, f *fixture) {},
			income: 0,
			tags:   2,
		},
		{
			name: "malformed local uses default",
			setup: func(t *testing.T, f *fixture) {
				_ = f.cache.Put(f.key.CacheKey("hausee_ledger"), forms.RawRecord{Payload: json.RawMessage(`[1,2`)})
			},
			income: 0,
			tags:   2,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.setup(t, f)
			rec := forms.NewHolder(ledgerModule(), f.key, f.deps).Load(context.Background())
			if rec.Payload.Income != tc.income {
				t.Fatalf("income=%v want %v", rec.Payload.Income, tc.income)
			}
			if len(rec.Payload.Tags) != tc.tags {
				t.Fatalf("tags=%v want %d entries", rec.Payload.Tags, tc.tags)
			}
		})
	}
}

func TestHolderEditWritesLocalNowRemoteLater(t *testing.T) {
	f := newFixture(t)
	h := forms.NewHolder(ledgerModule(), f.key, f.deps)
	h.Load(context.Background())

	rec, err := h.Edit(num("5000"), forms.FieldEdit{Path: "spend", Value: []byte("2400")})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if rec.Payload.Savings != 2600 {
		t.Fatalf("savings=%v want 2600", rec.Payload.Savings)
	}
	if !rec.UpdatedAt.Equal(f.clock.Now()) {
		t.Fatalf("updated_at=%v want %v", rec.UpdatedAt, f.clock.Now())
	}
	cached, _ := f.cache.Get(f.key.CacheKey("hausee_ledger"))
	if cached == nil {
		t.Fatalf("local cache not written on edit")
	}
	if got, _ := forms.Decode[ledger](*cached); got.Payload.Savings != 2600 {
		t.Fatalf("cached savings=%v", got.Payload.Savings)
	}
	if len(f.remote.Writes()) != 0 {
		t.Fatalf("remote written before debounce")
	}
	if st := h.Status(); st.State != forms.SavePending {
		t.Fatalf("status=%v want pending", st.State)
	}

	f.clock.Advance(time.Second)
	if got := f.remoteIncomes(t); len(got) != 1 || got[0] != 5000 {
		t.Fatalf("remote writes=%v want [5000]", got)
	}
	if st := h.Status(); st.State != forms.SaveSaved || st.LastSavedAt == nil {
		t.Fatalf("status=%+v want saved", st)
	}
}

func TestHolderCoalescesAndKeepsLatest(t *testing.T) {
	f := newFixture(t)
	h := forms.NewHolder(ledgerModule(), f.key, f.deps)
	h.Load(context.Background())

	if _, err := h.Edit(num("5500")); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	f.clock.Advance(200 * time.Millisecond)
	if _, err := h.Edit(num("5800")); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	f.clock.Advance(time.Second)
	if got := f.remoteIncomes(t); len(got) != 1 || got[0] != 5800 {
		t.Fatalf("remote writes=%v want [5800]", got)
	}
}

func TestHolderRejectedEditChangesNothing(t *testing.T) {
	cases := []struct {
		name string
		edit forms.FieldEdit
	}{
		{"validation", num("-1")},
		{"type mismatch", forms.FieldEdit{Path: "income", Value: []byte(`"many"`)}},
		{"unknown field", forms.FieldEdit{Path: "nope", Value: []byte(`1`)}},
		{"index out of range", forms.FieldEdit{Path: "tags[5]", Value: []byte(`"x"`)}},
		{"bad path", forms.FieldEdit{Path: "tags[", Value: []byte(`"x"`)}},
		{"invalid json", forms.FieldEdit{Path: "income", Value: []byte(`{`)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			h := forms.NewHolder(ledgerModule(), f.key, f.deps)
			h.Load(context.Background())
			before := h.Snapshot()

			_, err := h.Edit(tc.edit)
			if !errors.Is(err, forms.ErrInvalidEdit) {
				t.Fatalf("err=%v want ErrInvalidEdit", err)
			}
			after := h.Snapshot()
			if after.Payload.Income != before.Payload.Income || !after.UpdatedAt.Equal(before.UpdatedAt) {
				t.Fatalf("state changed: %+v -> %+v", before, after)
			}
			if c, _ := f.cache.Get(f.key.CacheKey("hausee_ledger")); c != nil {
				t.Fatalf("local cache written for rejected edit")
			}
			f.clock.Advance(time.Minute)
			if len(f.remote.Writes()) != 0 {
				t.Fatalf("remote written for rejected edit")
			}
		})
	}
}

func TestHolderArrayIndexEdit(t *testing.T) {
	f := newFixture(t)
	h := forms.NewHolder(ledgerModule(), f.key, f.deps)
	h.Load(context.Background())

	rec, err := h.Edit(forms.FieldEdit{Path: "tags[1]", Value: []byte(`"z"`)})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if rec.Payload.Tags[0] != "a" || rec.Payload.Tags[1] != "z" {
		t.Fatalf("tags=%v", rec.Payload.Tags)
	}
}

func TestHolderResetFlushesImmediately(t *testing.T) {
	f := newFixture(t)
	h := forms.NewHolder(ledgerModule(), f.key, f.deps)
	h.Load(context.Background())
	if _, err := h.Edit(num("900")); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	rec, err := h.Reset(context.Background())
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if rec.Payload.Income != 0 || len(rec.Payload.Tags) != 2 {
		t.Fatalf("reset payload=%+v", rec.Payload)
	}
	if got := f.remoteIncomes(t); len(got) != 1 || got[0] != 0 {
		t.Fatalf("remote writes=%v want immediate [0]", got)
	}
	f.clock.Advance(time.Minute)
	if got := f.remoteIncomes(t); len(got) != 1 {
		t.Fatalf("pending edit written after reset: %v", got)
	}
}

func TestHolderSaveFailureIsNotRetried(t *testing.T) {
	f := newFixture(t)
	f.remote.FailWith(errors.New("503"))
	h := forms.NewHolder(ledgerModule(), f.key, f.deps)
	h.Load(context.Background())

	if _, err := h.Edit(num("42")); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	f.clock.Advance(time.Second)
	st := h.Status()
	if st.State != forms.SaveFailed || st.LastError == "" || st.Retryable {
		t.Fatalf("status=%+v want failed, not retryable", st)
	}
	f.clock.Advance(time.Hour)
	if n := len(f.remote.Writes()); n != 1 {
		t.Fatalf("attempts=%d want 1", n)
	}
	cached, _ := f.cache.Get(f.key.CacheKey("hausee_ledger"))
	if got, _ := forms.Decode[ledger](*cached); got.Payload.Income != 42 {
		t.Fatalf("local cache lost edit: %+v", got.Payload)
	}
}

func TestHolderStatusFlagsTransientFailures(t *testing.T) {
	f := newFixture(t)
	f.remote.FailWith(fmt.Errorf("upsert ledgers: %w", forms.ErrStoreUnavailable))
	h := forms.NewHolder(ledgerModule(), f.key, f.deps)
	h.Load(context.Background())

	if _, err := h.Edit(num("8")); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	f.clock.Advance(time.Second)
	if st := h.Status(); st.State != forms.SaveFailed || !st.Retryable {
		t.Fatalf("status=%+v want failed and retryable", st)
	}

	f.remote.FailWith(nil)
	if _, err := h.Edit(num("9")); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	f.clock.Advance(time.Second)
	if st := h.Status(); st.State != forms.SaveSaved || st.Retryable || st.LastError != "" {
		t.Fatalf("status=%+v want saved with the failure cleared", st)
	}
}

func TestHolderFlushIsIdempotent(t *testing.T) {
	f := newFixture(t)
	h := forms.NewHolder(ledgerModule(), f.key, f.deps)
	h.Load(context.Background())
	if _, err := h.Edit(num("10")); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := h.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	first, _ := f.remote.Get(context.Background(), "ledgers", f.key)
	if err := f.deps.Store.WriteRemote(context.Background(), "ledgers", f.key, *first); err != nil {
		t.Fatalf("WriteRemote: %v", err)
	}
	second, _ := f.remote.Get(context.Background(), "ledgers", f.key)
	if string(first.Payload) != string(second.Payload) || !first.UpdatedAt.Equal(second.UpdatedAt) {
		t.Fatalf("repeat flush changed record: %s vs %s", first.Payload, second.Payload)
	}
}

func TestHolderUpdateAndCommit(t *testing.T) {
	f := newFixture(t)
	h := forms.NewHolder(ledgerModule(), f.key, f.deps)
	h.Load(context.Background())

	rec, err := h.Update(func(p ledger) (ledger, error) {
		p.Tags = append(p.Tags, "c")
		return p, nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(rec.Payload.Tags) != 3 {
		t.Fatalf("tags=%v", rec.Payload.Tags)
	}

	stop := errors.New("stop")
	if _, err := h.Update(func(p ledger) (ledger, error) { return p, stop }); !errors.Is(err, stop) {
		t.Fatalf("err=%v want stop", err)
	}

	if _, err := h.Commit(context.Background(), func(p ledger) (ledger, error) {
		p.Income = 77
		return p, nil
	}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := f.remoteIncomes(t); len(got) != 1 || got[0] != 77 {
		t.Fatalf("remote writes=%v want [77]", got)
	}
}

func TestHolderClosedRejectsEdits(t *testing.T) {
	f := newFixture(t)
	h := forms.NewHolder(ledgerModule(), f.key, f.deps)
	h.Load(context.Background())
	if _, err := h.Edit(num("1")); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := h.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(f.remote.Writes()) != 1 {
		t.Fatalf("close did not flush pending edit")
	}
	if _, err := h.Edit(num("2")); !errors.Is(err, forms.ErrClosed) {
		t.Fatalf("err=%v want ErrClosed", err)
	}
}

func TestHolderResetAfterCloseFails(t *testing.T) {
	f := newFixture(t)
	h := forms.NewHolder(ledgerModule(), f.key, f.deps)
	h.Load(context.Background())
	if _, err := h.Edit(num("3")); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := h.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := h.Reset(context.Background()); !errors.Is(err, forms.ErrClosed) {
		t.Fatalf("err=%v want ErrClosed", err)
	}
	if _, err := h.ResetRaw(context.Background()); !errors.Is(err, forms.ErrClosed) {
		t.Fatalf("ResetRaw err=%v want ErrClosed", err)
	}
	if got := f.remoteIncomes(t); len(got) != 1 || got[0] != 3 {
		t.Fatalf("remote writes=%v want only the flushed edit", got)
	}
}

func TestHolderGuardBlocksEditsButNotReset(t *testing.T) {
	f := newFixture(t)
	mod := ledgerModule()
	mod.Guard = func(prev, next ledger) error {
		if prev.Stamp == "locked" {
			return errors.New("locked")
		}
		return nil
	}
	h := forms.NewHolder(mod, f.key, f.deps)
	h.Load(context.Background())

	if _, err := h.Update(func(p ledger) (ledger, error) {
		p.Stamp = "locked"
		return p, nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := h.Edit(num("5")); !errors.Is(err, forms.ErrInvalidEdit) {
		t.Fatalf("err=%v want ErrInvalidEdit", err)
	}
	rec, err := h.Reset(context.Background())
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if rec.Payload.Stamp != "" {
		t.Fatalf("reset kept guarded payload: %+v", rec.Payload)
	}
	if _, err := h.Edit(num("5")); err != nil {
		t.Fatalf("Edit after reset: %v", err)
	}
}

// within fails the test if fn does not return before d elapses.
func within(t *testing.T, d time.Duration, what string, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("%s blocked for %v", what, d)
	}
}

func TestHolderResetDoesNotBlockReadersDuringWrite(t *testing.T) {
	f := newFixture(t)
	h := forms.NewHolder(ledgerModule(), f.key, f.deps)
	h.Load(context.Background())

	entered := f.remote.Block()
	if _, err := h.Edit(num("900")); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	advanced := make(chan struct{})
	go func() {
		defer close(advanced)
		f.clock.Advance(time.Second)
	}()
	<-entered

	type result struct {
		rec forms.Record[ledger]
		err error
	}
	resetDone := make(chan result, 1)
	go func() {
		rec, err := h.Reset(context.Background())
		resetDone <- result{rec, err}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		var cur forms.Record[ledger]
		within(t, time.Second, "Snapshot", func() { cur = h.Snapshot() })
		if cur.Payload.Income == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("reset never staged")
		}
		time.Sleep(time.Millisecond)
	}
	within(t, time.Second, "Edit", func() {
		if _, err := h.Edit(num("7")); err != nil {
			t.Errorf("Edit: %v", err)
		}
	})

	f.remote.Release()
	r := <-resetDone
	<-advanced
	if r.err != nil {
		t.Fatalf("Reset: %v", r.err)
	}
	if r.rec.Payload.Income != 0 {
		t.Fatalf("reset payload=%+v", r.rec.Payload)
	}
	if got := f.remoteIncomes(t); len(got) != 2 || got[0] != 900 || got[1] != 7 {
		t.Fatalf("remote writes=%v want [900 7]", got)
	}
}
