package main

import (
	"math"
	"testing"

	"github.com/san-kum/safecar/internal/sweep"
)

func TestParseState(t *testing.T) {
	v, delta, err := parseState([]string{"1.5", "-0.25"})
	if err != nil || v != 1.5 || delta != -0.25 {
		t.Errorf("parseState = %v, %v, %v", v, delta, err)
	}
	if _, _, err := parseState([]string{"fast", "0"}); err == nil {
		t.Error("expected error for non-numeric speed")
	}
	if _, _, err := parseState([]string{"1", "left"}); err == nil {
		t.Error("expected error for non-numeric steering angle")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want sweep.Kind
	}{
		{"next", sweep.NextStep},
		{"next-step", sweep.NextStep},
		{"worst", sweep.WorstCase},
		{"worst-case", sweep.WorstCase},
	}
	for _, tt := range tests {
		got, err := parseKind(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseKind(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := parseKind("best"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParseRange(t *testing.T) {
	name, values, err := parseRange("omega=1:3:5")
	if err != nil {
		t.Fatal(err)
	}
	if name != "omega" || len(values) != 5 {
		t.Fatalf("got %s %v", name, values)
	}
	if math.Abs(values[1]-1.5) > 1e-12 || values[4] != 3 {
		t.Errorf("values = %v", values)
	}

	_, values, err = parseRange("dt=0.02:0.05:1")
	if err != nil || len(values) != 1 || values[0] != 0.02 {
		t.Errorf("single value: %v %v", values, err)
	}

	for _, bad := range []string{"omega", "omega=1:3", "omega=a:3:5", "omega=1:b:5", "omega=1:3:0", "omega=1:3:x"} {
		if _, _, err := parseRange(bad); err == nil {
			t.Errorf("parseRange(%q) should fail", bad)
		}
	}
}
