package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/modules/budget"
	"github.com/hausee/navigator-backend/internal/modules/evaluation"
)

func TestFormServiceEditDebouncesAndFlushes(t *testing.T) {
	e := newEnv(t)
	svc := NewFormService(testLogger(t), e.registry)
	ctx := context.Background()
	key := e.key(budget.ModuleID)

	v, err := svc.Edit(ctx, key, []forms.FieldEdit{
		{Path: "budget.income.net_income.current", Value: json.RawMessage(`4200`)},
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if v.Status.State != forms.SavePending {
		t.Fatalf("state=%s want pending", v.Status.State)
	}
	var p budget.Plan
	if err := json.Unmarshal(v.Record.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Calculations.CurrentMonthlySavings != 4200 {
		t.Fatalf("derived savings=%v", p.Calculations.CurrentMonthlySavings)
	}
	if len(e.remote.Writes()) != 0 {
		t.Fatalf("remote written before flush")
	}

	v, err = svc.Flush(ctx, key)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if v.Status.State != forms.SaveSaved || len(e.remote.Writes()) != 1 {
		t.Fatalf("state=%s writes=%d", v.Status.State, len(e.remote.Writes()))
	}
}

func TestFormServiceFlushReportsFailureInStatus(t *testing.T) {
	e := newEnv(t)
	svc := NewFormService(testLogger(t), e.registry)
	ctx := context.Background()
	key := e.key(budget.ModuleID)

	if _, err := svc.Edit(ctx, key, []forms.FieldEdit{{Path: "budget.income.net_income.current", Value: json.RawMessage(`10`)}}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	e.remote.FailWith(errors.New("db down"))
	v, err := svc.Flush(ctx, key)
	if err != nil {
		t.Fatalf("Flush should not fail the request: %v", err)
	}
	if v.Status.State != forms.SaveFailed || v.Status.LastError == "" {
		t.Fatalf("status=%+v", v.Status)
	}
}

func TestFormServiceRejects(t *testing.T) {
	e := newEnv(t)
	svc := NewFormService(testLogger(t), e.registry)
	ctx := context.Background()

	if _, err := svc.Get(ctx, e.key("no-such-module")); !errors.Is(err, forms.ErrUnknownModule) {
		t.Fatalf("expected ErrUnknownModule, got %v", err)
	}
	if _, err := svc.Get(ctx, e.key(evaluation.ModuleID)); !errors.Is(err, forms.ErrInvalidScope) {
		t.Fatalf("expected ErrInvalidScope without subject, got %v", err)
	}
	_, err := svc.Edit(ctx, e.key(budget.ModuleID), []forms.FieldEdit{
		{Path: "budget.income.net_income.current", Value: json.RawMessage(`-1`)},
	})
	if !errors.Is(err, forms.ErrInvalidEdit) {
		t.Fatalf("expected ErrInvalidEdit, got %v", err)
	}
}

func TestFormServiceReopensAfterEviction(t *testing.T) {
	e := newEnv(t)
	svc := NewFormService(testLogger(t), e.registry)
	ctx := context.Background()
	key := e.key(budget.ModuleID)

	if _, err := svc.Get(ctx, key); err != nil {
		t.Fatalf("Get: %v", err)
	}
	e.clock.Advance(time.Hour)
	if n := e.registry.Sweep(ctx, e.clock.Now(), time.Minute); n != 1 {
		t.Fatalf("swept %d sessions", n)
	}
	if _, err := svc.Edit(ctx, key, []forms.FieldEdit{{Path: "budget.income.net_income.current", Value: json.RawMessage(`1`)}}); err != nil {
		t.Fatalf("Edit after eviction: %v", err)
	}
}

func TestFormServiceResetWritesThrough(t *testing.T) {
	e := newEnv(t)
	svc := NewFormService(testLogger(t), e.registry)
	ctx := context.Background()
	key := e.key(budget.ModuleID)

	if _, err := svc.Edit(ctx, key, []forms.FieldEdit{{Path: "budget.income.net_income.current", Value: json.RawMessage(`99`)}}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	v, err := svc.Reset(ctx, key)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	writes := e.remote.Writes()
	if len(writes) != 1 {
		t.Fatalf("reset should write once immediately, got %d writes", len(writes))
	}
	var p budget.Plan
	if err := json.Unmarshal(v.Record.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Budget.Income.NetIncome.Current != 0 {
		t.Fatalf("reset kept income %v", p.Budget.Income.NetIncome.Current)
	}
	e.clock.Advance(time.Minute)
	if len(e.remote.Writes()) != 1 {
		t.Fatalf("the discarded edit was written after reset")
	}
}

func TestWithSessionReopensWhenResetHitsEvictedSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	key := e.key(budget.ModuleID)

	svc := NewFormService(testLogger(t), e.registry)
	if _, err := svc.Edit(ctx, key, []forms.FieldEdit{{Path: "budget.income.net_income.current", Value: json.RawMessage(`55`)}}); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	var seen []forms.Session
	rec, err := withSession(ctx, e.registry, key, func(sess forms.Session) (forms.RawRecord, error) {
		seen = append(seen, sess)
		if len(seen) == 1 {
			// The idle sweep lands between Open and the reset.
			if n := e.registry.Sweep(ctx, e.clock.Now().Add(time.Hour), time.Minute); n != 1 {
				t.Fatalf("swept %d sessions", n)
			}
		}
		return sess.ResetRaw(ctx)
	})
	if err != nil {
		t.Fatalf("reset after eviction: %v", err)
	}
	if len(seen) != 2 || seen[0] == seen[1] {
		t.Fatalf("reset was not retried on a fresh session: %d attempts", len(seen))
	}
	var p budget.Plan
	if err := json.Unmarshal(rec.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Budget.Income.NetIncome.Current != 0 {
		t.Fatalf("reset kept income %v", p.Budget.Income.NetIncome.Current)
	}
	// One write from the eviction flush, one from the retried reset.
	if n := len(e.remote.Writes()); n != 2 {
		t.Fatalf("writes=%d want 2", n)
	}
}
