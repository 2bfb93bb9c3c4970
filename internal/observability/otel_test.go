package observability

import "testing"

func TestParseRatio(t *testing.T) {
	cases := map[string]float64{"": 0.1, "junk": 0.1, "-1": 0, "2": 1, "0.25": 0.25}
	for in, want := range cases {
		if got := parseRatio(in); got != want {
			t.Fatalf("parseRatio(%q)=%v want %v", in, got, want)
		}
	}
}

func TestParseHeaders(t *testing.T) {
	got := parseHeaders("x-api-key=abc, bad, =empty,team=forms")
	if len(got) != 2 || got["x-api-key"] != "abc" || got["team"] != "forms" {
		t.Fatalf("parseHeaders=%v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty headers should be nil")
	}
}
