package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/forms/formstest"
	"github.com/hausee/navigator-backend/internal/modules"
	"github.com/hausee/navigator-backend/internal/modules/catalog"
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

type env struct {
	clock    *clock.Fake
	remote   *formstest.Remote
	registry *forms.Registry
	userID   uuid.UUID
	wsID     uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := testLogger(t)
	clk := clock.NewFake(time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC))
	remote := formstest.NewRemote()
	r := forms.NewRegistry(forms.Deps{
		Store: forms.NewDualStore(forms.NewMemoryCache(), remote, log),
		Clock: clk,
		Log:   log,
	})
	cat, err := catalog.Embedded()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if err := modules.RegisterAll(r, cat); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	return &env{clock: clk, remote: remote, registry: r, userID: uuid.New(), wsID: uuid.New()}
}

func (e *env) key(module forms.ModuleID) forms.ScopeKey {
	return forms.ScopeKey{UserID: e.userID, WorkspaceID: e.wsID, Module: module}
}
