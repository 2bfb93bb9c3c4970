package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("X_DUR", "90s")
	if got := Duration("X_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("got %v", got)
	}
	t.Setenv("X_DUR", "30")
	if got := Duration("X_DUR", time.Second); got != 30*time.Second {
		t.Fatalf("bare seconds: got %v", got)
	}
	t.Setenv("X_DUR", "soon")
	if got := Duration("X_DUR", time.Second); got != time.Second {
		t.Fatalf("fallback: got %v", got)
	}
}

func TestBoolAndList(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	if Bool("X_BOOL", true) {
		t.Fatalf("expected false")
	}
	t.Setenv("X_LIST", " a, ,b ")
	got := List("X_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v", got)
	}
}
