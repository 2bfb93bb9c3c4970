package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/hausee/navigator-backend/internal/data/repos/testutil"
	"github.com/hausee/navigator-backend/internal/domain/homes"
	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/modules/evaluation"
)

func newHomeEnv(t *testing.T) (*env, HomeService, homes.Scope) {
	t.Helper()
	e := newEnv(t)
	db := testutil.SQLite(t)
	svc := NewHomeService(db, testLogger(t), e.registry)
	e.registry.CheckSubjects(evaluation.ModuleID, svc.EvaluationSubject)
	return e, svc, homes.Scope{UserID: e.userID, WorkspaceID: e.wsID}
}

func addHome(t *testing.T, svc HomeService, scope homes.Scope, addr string) *homes.Home {
	t.Helper()
	h, err := svc.Add(context.Background(), scope, homes.NewHome{Address: addr, Price: 550000, Bedrooms: 3, Bathrooms: 2})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return h
}

func TestHomeServiceAddDefaults(t *testing.T) {
	_, svc, scope := newHomeEnv(t)
	h := addHome(t, svc, scope, "14 Birch Lane")
	if h.Favorite || h.CompareSelected || h.EvaluationStatus != homes.NotStarted || h.OverallRating != 0 {
		t.Fatalf("new home defaults=%+v", h)
	}
	if _, err := svc.Add(context.Background(), scope, homes.NewHome{Address: "  "}); !errors.Is(err, homes.ErrInvalid) {
		t.Fatalf("err=%v want ErrInvalid for a blank address", err)
	}
	list, err := svc.List(context.Background(), scope)
	if err != nil || len(list) != 1 {
		t.Fatalf("List=%v err=%v", list, err)
	}
}

func TestHomeServiceCompareLimit(t *testing.T) {
	_, svc, scope := newHomeEnv(t)
	ctx := context.Background()
	on := true

	var ids []uuid.UUID
	for _, addr := range []string{"1 A St", "2 B St", "3 C St", "4 D St"} {
		ids = append(ids, addHome(t, svc, scope, addr).ID)
	}
	for _, id := range ids[:homes.MaxCompareSelected] {
		if _, err := svc.Update(ctx, scope, id, homes.Patch{CompareSelected: &on}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if _, err := svc.Update(ctx, scope, ids[3], homes.Patch{CompareSelected: &on}); !errors.Is(err, homes.ErrCompareLimit) {
		t.Fatalf("err=%v want ErrCompareLimit", err)
	}
	// Re-selecting an already selected home is not a fourth selection.
	if _, err := svc.Update(ctx, scope, ids[0], homes.Patch{CompareSelected: &on}); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	off := false
	if _, err := svc.Update(ctx, scope, ids[0], homes.Patch{CompareSelected: &off}); err != nil {
		t.Fatalf("deselect: %v", err)
	}
	got, err := svc.Update(ctx, scope, ids[3], homes.Patch{CompareSelected: &on})
	if err != nil || !got.CompareSelected {
		t.Fatalf("select after deselect: %+v %v", got, err)
	}
}

func TestHomeServiceRejectsBadOfferIntent(t *testing.T) {
	_, svc, scope := newHomeEnv(t)
	h := addHome(t, svc, scope, "5 Cedar Ct")
	bad := homes.OfferIntent("definitely")
	if _, err := svc.Update(context.Background(), scope, h.ID, homes.Patch{OfferIntent: &bad}); !errors.Is(err, homes.ErrInvalid) {
		t.Fatalf("err=%v want ErrInvalid", err)
	}
	maybe := homes.OfferMaybe
	got, err := svc.Update(context.Background(), scope, h.ID, homes.Patch{OfferIntent: &maybe})
	if err != nil || got.OfferIntent == nil || *got.OfferIntent != homes.OfferMaybe {
		t.Fatalf("Update=%+v err=%v", got, err)
	}
}

func TestEvaluationSubjectMustBeAHome(t *testing.T) {
	e, svc, scope := newHomeEnv(t)
	ctx := context.Background()
	formSvc := NewFormService(testLogger(t), e.registry)

	key := e.key(evaluation.ModuleID)
	key.Subject = uuid.NewString()
	if _, err := formSvc.Get(ctx, key); !errors.Is(err, homes.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound for an unknown home", err)
	}
	key.Subject = "home-1"
	if _, err := formSvc.Get(ctx, key); !errors.Is(err, homes.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound for a malformed subject", err)
	}

	h := addHome(t, svc, scope, "77 Maple Dr")
	key.Subject = h.ID.String()
	if _, err := formSvc.Edit(ctx, key, []forms.FieldEdit{{Path: "section_notes.kitchen", Value: json.RawMessage(`"small"`)}}); err != nil {
		t.Fatalf("Edit evaluation: %v", err)
	}

	if err := svc.Delete(ctx, scope, h.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := len(e.remote.Writes()); n != 1 {
		t.Fatalf("writes=%d want the pending evaluation flushed on delete", n)
	}
	if _, err := formSvc.Get(ctx, key); !errors.Is(err, homes.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound after delete", err)
	}
	if err := svc.Delete(ctx, scope, h.ID); !errors.Is(err, homes.ErrNotFound) {
		t.Fatalf("second delete err=%v want ErrNotFound", err)
	}
}
