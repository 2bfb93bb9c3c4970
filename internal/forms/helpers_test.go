package forms_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/forms/formstest"
	"github.com/hausee/navigator-backend/internal/platform/clock"
	"github.com/hausee/navigator-backend/internal/platform/logger"
)

var (
	testLogOnce sync.Once
	testLog     *logger.Logger
)

func testLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	testLogOnce.Do(func() {
		l, err := logger.New("test")
		if err != nil {
			tb.Fatalf("logger init: %v", err)
		}
		testLog = l
	})
	return testLog
}

type ledger struct {
	Income  float64  `json:"income"`
	Spend   float64  `json:"spend"`
	Savings float64  `json:"savings"`
	Tags    []string `json:"tags"`
	Stamp   string   `json:"stamp,omitempty"`
}

var errNegative = errors.New("income must not be negative")

func ledgerModule() forms.Module[ledger] {
	return forms.Module[ledger]{
		ID:          "ledger",
		CachePrefix: "hausee_ledger",
		Table:       "ledgers",
		Delay:       time.Second,
		Default: func() ledger {
			return ledger{Tags: []string{"a", "b"}}
		},
		Derive: func(p ledger, env forms.Env) ledger {
			p.Savings = p.Income - p.Spend
			return p
		},
		Validate: func(p ledger) error {
			if p.Income < 0 {
				return errNegative
			}
			return nil
		},
	}
}

type fixture struct {
	clock  *clock.Fake
	remote *formstest.Remote
	cache  *forms.MemoryCache
	deps   forms.Deps
	key    forms.ScopeKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := clock.NewFake(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC))
	remote := formstest.NewRemote()
	cache := forms.NewMemoryCache()
	log := testLogger(t)
	return &fixture{
		clock:  c,
		remote: remote,
		cache:  cache,
		deps: forms.Deps{
			Store: forms.NewDualStore(cache, remote, log),
			Clock: c,
			Log:   log,
		},
		key: forms.ScopeKey{UserID: uuid.New(), WorkspaceID: uuid.New(), Module: "ledger"},
	}
}

func (f *fixture) seedRemote(t *testing.T, p ledger, at time.Time) {
	t.Helper()
	raw, err := forms.Record[ledger]{Payload: p, UpdatedAt: at}.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	f.remote.Seed("ledgers", f.key, raw)
}

func (f *fixture) seedLocal(t *testing.T, p ledger, at time.Time) {
	t.Helper()
	raw, err := forms.Record[ledger]{Payload: p, UpdatedAt: at}.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	_ = f.cache.Put(f.key.CacheKey("hausee_ledger"), raw)
}

func (f *fixture) remoteIncomes(t *testing.T) []float64 {
	t.Helper()
	var out []float64
	for _, w := range f.remote.Writes() {
		rec, err := forms.Decode[ledger](w.Rec)
		if err != nil {
			t.Fatalf("Decode write: %v", err)
		}
		out = append(out, rec.Payload.Income)
	}
	return out
}

func num(s string) forms.FieldEdit {
	return forms.FieldEdit{Path: "income", Value: []byte(s)}
}
