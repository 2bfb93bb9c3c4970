package forms

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestParsePath(t *testing.T) {
	cases := []struct {
		path string
		want string
		bad  bool
	}{
		{path: "budget.income.net_income.expected", want: "budget|income|net_income|expected"},
		{path: "answers[3]", want: "answers|[3]"},
		{path: "accounts[0].current_balance", want: "accounts|[0]|current_balance"},
		{path: "items.income-employee-letter.checked", want: "items|income-employee-letter|checked"},
		{path: "grid[1][2]", want: "grid|[1]|[2]"},
		{path: "", bad: true},
		{path: "a..b", bad: true},
		{path: "a[", bad: true},
		{path: "a[-1]", bad: true},
		{path: "a[x]", bad: true},
		{path: "a[1]b", bad: true},
	}
	for _, tc := range cases {
		keys, err := parsePath(tc.path)
		if tc.bad {
			if err == nil {
				t.Fatalf("parsePath(%q) accepted, keys=%v", tc.path, keys)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parsePath(%q): %v", tc.path, err)
		}
		if got := strings.Join(keys, "|"); got != tc.want {
			t.Fatalf("parsePath(%q)=%s want %s", tc.path, got, tc.want)
		}
	}
}

func TestScopeKeyCacheKey(t *testing.T) {
	k := ScopeKey{UserID: uuid.New(), WorkspaceID: uuid.New(), Module: "budget-planner"}
	got := k.CacheKey("hausee_budget")
	want := "hausee_budget_" + k.UserID.String() + "_" + k.WorkspaceID.String()
	if got != want {
		t.Fatalf("CacheKey=%s want %s", got, want)
	}
	personal := k
	personal.WorkspaceID = uuid.Nil
	if got := personal.CacheKey("hausee_budget"); got != "hausee_budget_"+k.UserID.String() {
		t.Fatalf("personal CacheKey=%s", got)
	}
	k.Subject = "home-9"
	if got := k.CacheKey("hausee_evaluation"); !strings.HasSuffix(got, "_home-9") {
		t.Fatalf("CacheKey with subject=%s", got)
	}
}
