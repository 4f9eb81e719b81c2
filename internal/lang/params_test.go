package lang

import (
	"math"
	"testing"
)

func TestParseParamExprPiNotation(t *testing.T) {
	cases := map[string]float64{
		"pi":     math.Pi,
		"pi/2":   math.Pi / 2,
		"3*pi/4": 3 * math.Pi / 4,
		"-pi/2":  -math.Pi / 2,
		"2pi":    2 * math.Pi,
		"0.3":    0.3,
	}
	for expr, want := range cases {
		got, err := ParseParamExpr(expr)
		if err != nil {
			t.Fatalf("ParseParamExpr(%q): %v", expr, err)
		}
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("ParseParamExpr(%q) = %v, want %v", expr, got, want)
		}
	}
}

func TestParseParamExprRejectsGarbage(t *testing.T) {
	if _, err := ParseParamExpr("not-a-number"); err == nil {
		t.Fatal("expected an error for a non-numeric, non-pi expression")
	}
}

func TestParseParamListSplitsAndParsesEachEntry(t *testing.T) {
	params, err := ParseParamList("pi/2, 0.3")
	if err != nil {
		t.Fatalf("ParseParamList: %v", err)
	}
	if len(params) != 2 {
		t.Fatalf("len(params) = %d, want 2", len(params))
	}
	if math.Abs(params[0]-math.Pi/2) > 1e-9 {
		t.Fatalf("params[0] = %v, want pi/2", params[0])
	}
	if math.Abs(params[1]-0.3) > 1e-9 {
		t.Fatalf("params[1] = %v, want 0.3", params[1])
	}
}

func TestParseParamListEmptyIsNil(t *testing.T) {
	params, err := ParseParamList("")
	if err != nil {
		t.Fatalf("ParseParamList: %v", err)
	}
	if params != nil {
		t.Fatalf("params = %v, want nil", params)
	}
}

func TestFormatParamRoundTrips(t *testing.T) {
	cases := map[float64]string{
		math.Pi:         "pi",
		math.Pi / 2:     "pi/2",
		3 * math.Pi / 4: "3*pi/4",
		-math.Pi / 2:    "-pi/2",
	}
	for val, want := range cases {
		if got := FormatParam(val); got != want {
			t.Fatalf("FormatParam(%v) = %q, want %q", val, got, want)
		}
	}
}
