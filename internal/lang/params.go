package lang

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParamError reports a gate-parameter expression that is neither a plain
// number nor a recognized pi-multiple.
type ParamError struct {
	Expr string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid gate parameter %q", e.Expr)
}

// piExprRegex recognizes expressions like pi, 2pi, 2*pi, pi/2, 3*pi/4,
// -pi, -3*pi/4, the pi-notation this dialect's gate parameters share with
// QASM's own pi literals.
var piExprRegex = regexp.MustCompile(`^(-?)(\d*\.?\d*)\s*\*?\s*pi(?:\s*/\s*(\d+\.?\d*))?$`)

// ParseParamExpr parses a single gate-parameter expression: a plain number
// or a pi expression ("pi", "pi/2", "3*pi/4", "-pi/2", ...).
func ParseParamExpr(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, &ParamError{Expr: s}
	}
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return v, nil
	}

	m := piExprRegex.FindStringSubmatch(strings.ToLower(trimmed))
	if m == nil {
		return 0, &ParamError{Expr: s}
	}
	coeff := 1.0
	if m[2] != "" {
		var err error
		coeff, err = strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, &ParamError{Expr: s}
		}
	}
	result := coeff * math.Pi
	if m[3] != "" {
		denom, err := strconv.ParseFloat(m[3], 64)
		if err != nil || denom == 0 {
			return 0, &ParamError{Expr: s}
		}
		result /= denom
	}
	if m[1] == "-" {
		result = -result
	}
	return result, nil
}

// ParseParamList splits a gate header's parenthesized parameter text
// ("pi/2,0.3") on commas and parses each entry with ParseParamExpr,
// returning nil for an empty list. This is the shared entry point for both
// the engine's gate decoder and the compile pass, so a parenthesized
// parameter list is always parsed and canonicalized the same way regardless
// of which one is reading it.
func ParseParamList(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	fields := strings.Split(raw, ",")
	params := make([]float64, len(fields))
	for i, f := range fields {
		v, err := ParseParamExpr(f)
		if err != nil {
			return nil, err
		}
		params[i] = v
	}
	return params, nil
}

// piFractions lists the pi-multiples FormatParam recognizes. The entries
// are distinct values, so at most one of them matches a given input and
// their order does not affect the result.
var piFractions = []struct {
	num, denom int
}{
	{1, 8}, {1, 6}, {1, 4}, {1, 3}, {1, 2}, {2, 3}, {3, 4}, {1, 1}, {3, 2}, {2, 1},
}

// FormatParam renders a float64 as a pi-multiple ("pi/2", "3*pi/4") when it
// is recognizably one within tolerance, falling back to %g. Used by
// internal/compile when re-emitting gate parameters and when deciding
// whether two parameterized gates are equivalent for coalescing.
func FormatParam(val float64) string {
	for _, f := range piFractions {
		mag := math.Pi * float64(f.num) / float64(f.denom)
		display := piFractionDisplay(f.num, f.denom)
		if math.Abs(val-mag) < 1e-10 {
			return display
		}
		if math.Abs(val+mag) < 1e-10 {
			return "-" + display
		}
	}
	return fmt.Sprintf("%g", val)
}

func piFractionDisplay(num, denom int) string {
	var coeff string
	if num != 1 {
		coeff = strconv.Itoa(num) + "*"
	}
	if denom == 1 {
		return coeff + "pi"
	}
	return coeff + "pi/" + strconv.Itoa(denom)
}
