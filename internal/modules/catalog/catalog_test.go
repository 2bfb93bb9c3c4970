package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEmbeddedCatalog(t *testing.T) {
	c, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded: %v", err)
	}
	want := map[string]time.Duration{
		"my-dream-home":        time.Second,
		"self-assessment":      500 * time.Millisecond,
		"budget-planner":       time.Second,
		"down-payment-tracker": time.Second,
		"mortgage-checklist":   100 * time.Millisecond,
		"moving-todo-list":     100 * time.Millisecond,
		"home-evaluation":      500 * time.Millisecond,
		"agent-matching":       500 * time.Millisecond,
	}
	for id, delay := range want {
		e, ok := c.Entry(id)
		if !ok {
			t.Fatalf("module %s missing", id)
		}
		if e.Delay() != delay {
			t.Fatalf("%s delay=%v want %v", id, e.Delay(), delay)
		}
	}
	if n := len(c.MustEntry("mortgage-checklist").ItemIDs()); n != 16 {
		t.Fatalf("checklist items=%d want 16", n)
	}
	if n := len(c.MustEntry("self-assessment").ItemIDs()); n != 15 {
		t.Fatalf("assessment questions=%d want 15", n)
	}
	eval := c.MustEntry("home-evaluation")
	if !eval.Subject {
		t.Fatalf("home-evaluation should be keyed per subject")
	}
	it, ok := eval.Item("home-systems", "water-heater-age")
	if !ok || it.Kind != KindDropdown || len(it.Options) == 0 {
		t.Fatalf("water-heater-age=%+v ok=%v", it, ok)
	}
	if it, _ := eval.Item("exteriors", "roof"); it.Kind != KindRating {
		t.Fatalf("roof kind=%q want rating", it.Kind)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"wrong name":   "catalog: other\nmodules: [{id: a, table: t, cache_prefix: p, debounce_ms: 1}]\n",
		"no modules":   "catalog: hausee_forms\n",
		"dup id":       "catalog: hausee_forms\nmodules: [{id: a, table: t, cache_prefix: p, debounce_ms: 1}, {id: a, table: u, cache_prefix: p, debounce_ms: 1}]\n",
		"zero delay":   "catalog: hausee_forms\nmodules: [{id: a, table: t, cache_prefix: p}]\n",
		"bad kind":     "catalog: hausee_forms\nmodules: [{id: a, table: t, cache_prefix: p, debounce_ms: 1, groups: [{id: g, items: [{id: x, kind: slider}]}]}]\n",
		"empty choice": "catalog: hausee_forms\nmodules: [{id: a, table: t, cache_prefix: p, debounce_ms: 1, groups: [{id: g, items: [{id: x, kind: dropdown}]}]}]\n",
		"not yaml":     "catalog: [",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: Parse accepted invalid catalog", name)
		}
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	doc := "catalog: hausee_forms\nmodules: [{id: budget-planner, table: budget_planner, cache_prefix: hausee_budget, debounce_ms: 250}]\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv(catalogEnv, path)
	c, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d := c.MustEntry("budget-planner").Delay(); d != 250*time.Millisecond {
		t.Fatalf("delay=%v want 250ms", d)
	}

	if err := os.WriteFile(path, []byte("catalog: ["), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	c, err = Load(nil)
	if err != nil {
		t.Fatalf("Load fallback: %v", err)
	}
	if !strings.HasPrefix(c.MustEntry("agent-matching").CachePrefix, "agentMatching") {
		t.Fatalf("fallback did not use embedded catalog")
	}
}
