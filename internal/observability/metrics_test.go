package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFormSaveMetrics(t *testing.T) {
	m := newMetrics()
	m.ObserveFormSave("budget-planner", nil, 20*time.Millisecond)
	m.ObserveFormSave("budget-planner", errors.New("boom"), time.Second)
	m.ObserveFormSave("budget-planner", context.DeadlineExceeded, time.Second)

	if got := m.FormSaves("budget-planner", "ok"); got != 1 {
		t.Fatalf("ok saves=%v", got)
	}
	if got := m.FormSaves("budget-planner", "error"); got != 1 {
		t.Fatalf("error saves=%v", got)
	}
	if got := m.FormSaves("budget-planner", "timeout"); got != 1 {
		t.Fatalf("timeout saves=%v", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`hn_form_saves_total{module="budget-planner",result="ok"} 1`,
		`hn_form_save_duration_seconds_bucket{module="budget-planner",result="ok",le="0.025"} 1`,
		`hn_form_save_duration_seconds_count{module="budget-planner",result="error"} 1`,
		"# TYPE hn_api_inflight_requests gauge",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveFormSave("x", nil, time.Millisecond)
	m.ApiInflightInc()
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"a", "b"}, []string{`x"y`, ""})
	if got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString=%s", got)
	}
	if got := withLe("", "+Inf"); got != `{le="+Inf"}` {
		t.Fatalf("withLe=%s", got)
	}
}
