package compnum

import "math/cmplx"

// QubitProbabilityOne returns P(qubit == 1) marginalized over the full
// state vector.
func (s *StateVector) QubitProbabilityOne(qubit int) float64 {
	bit := 1 << uint(qubit)
	total := 0.0
	for i, a := range s.Amplitudes {
		if i&bit != 0 {
			total += real(a * cmplx.Conj(a))
		}
	}
	return total
}

// IsBasisState reports whether the 2x2 single-qubit reduced density matrix
// rho is within EpsilonState of a computational basis state (|0><0| or
// |1><1|), i.e. the qubit shows no superposition.
func IsBasisState(rho [][]complex128) bool {
	if len(rho) != 2 {
		return false
	}
	offDiag := real(rho[0][1] * cmplx.Conj(rho[0][1]))
	if offDiag > EpsilonState {
		return false
	}
	p0 := real(rho[0][0])
	return p0 < EpsilonState || p0 > 1-EpsilonState
}

// StateVectorsEqual compares two equal-length amplitude slices for
// equality up to global phase. When ignorePhase is true, a single global
// phase correction is derived from the largest-magnitude entry of expected
// before comparing, so that |psi> and e^{i*theta}|psi> are treated as
// equal, matching how physical measurement can never distinguish them.
func StateVectorsEqual(actual, expected []complex128, ignorePhase bool) bool {
	return StateVectorsEqualTol(actual, expected, ignorePhase, EpsilonState)
}

// StateVectorsEqualTol is StateVectorsEqual with an explicit tolerance,
// used when an equality assertion's body overrides the default tolerance
// via its `@ tolerance` clause.
func StateVectorsEqualTol(actual, expected []complex128, ignorePhase bool, tol float64) bool {
	if len(actual) != len(expected) {
		return false
	}
	factor := complex(1, 0)
	if ignorePhase {
		best := -1.0
		bestIdx := -1
		for i, e := range expected {
			mag := cmplx.Abs(e)
			if mag > best {
				best = mag
				bestIdx = i
			}
		}
		if bestIdx >= 0 && best > tol {
			factor = actual[bestIdx] / expected[bestIdx]
			if d := cmplx.Abs(factor) - 1; d > tol || d < -tol {
				// Not a pure phase (magnitude mismatch); fall back to
				// direct comparison so the mismatch still surfaces.
				factor = complex(1, 0)
			}
		}
	}
	for i := range actual {
		if cmplx.Abs(actual[i]-factor*expected[i]) > tol {
			return false
		}
	}
	return true
}
