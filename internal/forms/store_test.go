package forms_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hausee/navigator-backend/internal/forms"
)

type brokenCache struct{ puts int }

func (c *brokenCache) Put(string, forms.RawRecord) error {
	c.puts++
	return errors.New("disk full")
}

func (c *brokenCache) Get(string) (*forms.RawRecord, error) {
	return nil, errors.New("disk unreadable")
}

func TestDualStoreSwallowsLocalFailures(t *testing.T) {
	f := newFixture(t)
	cache := &brokenCache{}
	f.deps.Store = forms.NewDualStore(cache, f.remote, testLogger(t))
	f.seedRemote(t, ledger{Income: 10}, f.clock.Now().Add(-time.Hour))

	h := forms.NewHolder(ledgerModule(), f.key, f.deps)
	if rec := h.Load(context.Background()); rec.Payload.Income != 10 {
		t.Fatalf("load income=%v want 10", rec.Payload.Income)
	}
	if _, err := h.Edit(num("700")); err != nil {
		t.Fatalf("Edit with a failing cache: %v", err)
	}
	if cache.puts == 0 {
		t.Fatalf("edit never reached the local cache")
	}

	f.clock.Advance(time.Second)
	if got := f.remoteIncomes(t); len(got) != 1 || got[0] != 700 {
		t.Fatalf("remote writes=%v want [700]", got)
	}
}

func TestDualStoreReadLocalMissing(t *testing.T) {
	s := forms.NewDualStore(nil, nil, testLogger(t))
	s.WriteLocal("k", forms.RawRecord{})
	if rec := s.ReadLocal("k"); rec != nil {
		t.Fatalf("expected nil without a local cache, got %+v", rec)
	}
	broken := forms.NewDualStore(&brokenCache{}, nil, testLogger(t))
	if rec := broken.ReadLocal("k"); rec != nil {
		t.Fatalf("expected nil on a read error, got %+v", rec)
	}
}
