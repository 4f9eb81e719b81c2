package assertion

import (
	"fmt"
	"math/cmplx"
	"strconv"
	"strings"
)

// ExpectedAmplitudes expands the parsed Body into a literal amplitude
// vector of length 2^len(Targets), used by the execution engine when
// evaluating eq/ineq. A body consisting only of '0'/'1' characters equal in
// length to len(Targets) is treated as a computational basis state;
// otherwise the body is parsed as a comma-separated list of complex
// numbers (each "re", "re+imi" or "im i").
func (a *Assertion) ExpectedAmplitudes() ([]complex128, error) {
	body := strings.TrimSpace(a.Body)
	dim := 1 << uint(len(a.Targets))

	if isBitstring(body) && len(body) == len(a.Targets) {
		amps := make([]complex128, dim)
		index := 0
		for i, c := range body {
			if c == '1' {
				index |= 1 << uint(i)
			}
		}
		amps[index] = 1
		return amps, nil
	}

	parts := strings.Split(body, ",")
	if len(parts) != dim {
		return nil, fmt.Errorf("assert-%s body has %d entries, want %d for %d target(s)",
			a.Kind, len(parts), dim, len(a.Targets))
	}
	amps := make([]complex128, dim)
	for i, p := range parts {
		v, err := parseComplex(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("assert-%s body entry %d: %w", a.Kind, i, err)
		}
		amps[i] = v
	}
	return amps, nil
}

func isBitstring(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c != '0' && c != '1' {
			return false
		}
	}
	return true
}

// parseComplex parses "1", "-0.5", "0.5i", "1+0.5i", "1-0.5i" style
// literals; it does not need to handle arbitrary whitespace since body text
// has already been trimmed per-entry.
func parseComplex(s string) (complex128, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amplitude literal")
	}
	if !strings.ContainsAny(s, "iI") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return complex(v, 0), nil
	}
	trimmed := strings.TrimSuffix(strings.TrimSuffix(s, "i"), "I")
	if trimmed == "" || trimmed == "+" {
		return complex(0, 1), nil
	}
	if trimmed == "-" {
		return complex(0, -1), nil
	}

	// Find the split between real and imaginary parts: the last '+' or '-'
	// not at index 0 and not preceded by 'e'/'E' (exponent sign).
	splitAt := -1
	for i := len(trimmed) - 1; i > 0; i-- {
		c := trimmed[i]
		if (c == '+' || c == '-') && trimmed[i-1] != 'e' && trimmed[i-1] != 'E' {
			splitAt = i
			break
		}
	}
	if splitAt < 0 {
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, err
		}
		return complex(0, v), nil
	}
	reText := trimmed[:splitAt]
	imText := trimmed[splitAt:]
	re, err := strconv.ParseFloat(reText, 64)
	if err != nil {
		return 0, err
	}
	if imText == "+" {
		imText = "1"
	} else if imText == "-" {
		imText = "-1"
	}
	im, err := strconv.ParseFloat(imText, 64)
	if err != nil {
		return 0, err
	}
	return complex(re, im), nil
}

// Magnitude is a small helper diagnostics uses when printing amplitudes.
func Magnitude(c complex128) float64 {
	return cmplx.Abs(c)
}
