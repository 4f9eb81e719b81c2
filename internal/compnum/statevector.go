// Package compnum implements dense state-vector arithmetic: gate
// application and inversion, measurement with an exact restore closure,
// partial trace for reduced density matrices, and tolerance-based
// amplitude comparisons, all in support of a reversible execution engine
// and its assertion evaluator.
package compnum

import (
	"math"
	"math/cmplx"
	"math/rand"
)

// EpsilonState is the default tolerance used when comparing amplitudes or
// reduced states.
const EpsilonState = 1e-6

// EpsilonNorm is the tolerance on Σ|amplitude|².
const EpsilonNorm = 1e-6

// StateVector is a dense 2^NumQubits amplitude vector.
type StateVector struct {
	Amplitudes []complex128
	NumQubits  int
}

// New returns a StateVector initialized to |0...0>.
func New(numQubits int) *StateVector {
	if numQubits < 1 {
		numQubits = 1
	}
	amps := make([]complex128, 1<<uint(numQubits))
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

// Clone returns a deep copy.
func (s *StateVector) Clone() *StateVector {
	amps := make([]complex128, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

// Norm returns Σ|amplitude|².
func (s *StateVector) Norm() float64 {
	total := 0.0
	for _, a := range s.Amplitudes {
		total += real(a * cmplx.Conj(a))
	}
	return total
}

// Amplitude returns the amplitude of the given basis index.
func (s *StateVector) Amplitude(index int) complex128 {
	if index < 0 || index >= len(s.Amplitudes) {
		return 0
	}
	return s.Amplitudes[index]
}

// AmplitudeBitstring returns the amplitude for a bitstring, where bits[0] is
// qubit 0 (least significant), the little-endian qubit indexing convention
// used throughout this package.
func (s *StateVector) AmplitudeBitstring(bits string) (complex128, bool) {
	if len(bits) != s.NumQubits {
		return 0, false
	}
	index := 0
	for i, c := range bits {
		switch c {
		case '1':
			index |= 1 << uint(i)
		case '0':
		default:
			return 0, false
		}
	}
	return s.Amplitudes[index], true
}

// pairOp transforms the pair of amplitudes (a0 = target-bit-0, a1 =
// target-bit-1) belonging to one basis-index pair. Every single-qubit
// unitary (controlled or not) is expressed as a pairOp so that
// applyControlled can share the exact same math as the uncontrolled
// fast path, instead of duplicating each gate's 2x2 matrix.
type pairOp func(a0, a1 complex128) (complex128, complex128)

func hPair(a0, a1 complex128) (complex128, complex128) {
	f := complex(1.0/math.Sqrt2, 0)
	return f * (a0 + a1), f * (a0 - a1)
}

func xPair(a0, a1 complex128) (complex128, complex128) {
	return a1, a0
}

func yPair(a0, a1 complex128) (complex128, complex128) {
	return 1i * a1, -1i * a0
}

func phasePair(theta float64) pairOp {
	factor := cmplx.Exp(complex(0, theta))
	return func(a0, a1 complex128) (complex128, complex128) {
		return a0, a1 * factor
	}
}

func rxPair(theta float64) pairOp {
	c := complex(math.Cos(theta/2), 0)
	js := complex(0, -math.Sin(theta/2))
	return func(a0, a1 complex128) (complex128, complex128) {
		return c*a0 + js*a1, js*a0 + c*a1
	}
}

func ryPair(theta float64) pairOp {
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)
	return func(a0, a1 complex128) (complex128, complex128) {
		return c*a0 - sn*a1, sn*a0 + c*a1
	}
}

func rzPair(theta float64) pairOp {
	phase := cmplx.Exp(complex(0, theta/2))
	conj := cmplx.Conj(phase)
	return func(a0, a1 complex128) (complex128, complex128) {
		return a0 * conj, a1 * phase
	}
}

func param(p []float64) float64 {
	if len(p) > 0 {
		return p[0]
	}
	return 0
}

// gateOp resolves a canonical gate name and its params into the pairOp that
// implements it, as one table shared by the controlled and uncontrolled
// application paths and by Inverse().
func gateOp(name string, params []float64) (pairOp, bool) {
	switch name {
	case "H":
		return hPair, true
	case "X":
		return xPair, true
	case "Y":
		return yPair, true
	case "Z":
		return phasePair(math.Pi), true
	case "S":
		return phasePair(math.Pi / 2), true
	case "SDG":
		return phasePair(-math.Pi / 2), true
	case "T":
		return phasePair(math.Pi / 4), true
	case "TDG":
		return phasePair(-math.Pi / 4), true
	case "RX":
		return rxPair(param(params)), true
	case "RY":
		return ryPair(param(params)), true
	case "RZ":
		return rzPair(param(params)), true
	case "P", "U1", "CP", "CU1":
		return phasePair(param(params)), true
	case "CRX":
		return rxPair(param(params)), true
	case "CRY":
		return ryPair(param(params)), true
	case "CRZ":
		return rzPair(param(params)), true
	case "CH":
		return hPair, true
	default:
		return nil, false
	}
}

// inverseName returns the canonical name and params that undo the given
// gate analytically, so stepping backward never needs a stored snapshot of
// the state vector.
func inverseName(name string, params []float64) (string, []float64) {
	switch name {
	case "S":
		return "SDG", nil
	case "SDG":
		return "S", nil
	case "T":
		return "TDG", nil
	case "TDG":
		return "T", nil
	case "RX", "RY", "RZ", "P", "U1", "CRX", "CRY", "CRZ", "CP", "CU1":
		return name, []float64{-param(params)}
	default:
		// H, X, Y, Z, CX, CZ, CH, SWAP and the CCX Toffoli are all
		// self-inverse.
		return name, params
	}
}

// ApplyGate applies a single- or multi-controlled gate in place. controls
// may be empty for uncontrolled gates. target is the acted-upon qubit.
func (s *StateVector) ApplyGate(name string, target int, controls []int, params []float64) {
	switch name {
	case "CX", "CCX", "TOFFOLI":
		s.applyControlledX(controls, target)
		return
	case "CZ":
		s.applyControlledZ(controls, target)
		return
	case "SWAP":
		if len(controls) > 0 {
			s.applySWAP(controls[0], target)
		}
		return
	case "RESET":
		s.applyReset(target)
		return
	case "MEASURE", "BARRIER", "NOISE":
		return
	}

	op, ok := gateOp(name, params)
	if !ok {
		return
	}
	s.applyControlled(controls, target, op)
}

// ApplyInverse applies the analytic inverse of ApplyGate, used by the
// engine's backward stepping instead of a snapshot log.
func (s *StateVector) ApplyInverse(name string, target int, controls []int, params []float64) {
	if !IsReversible(name) {
		return
	}
	invName, invParams := inverseName(name, params)
	s.ApplyGate(invName, target, controls, invParams)
}

// IsReversible reports whether name has a well-defined analytic inverse.
func IsReversible(name string) bool {
	switch name {
	case "RESET", "MEASURE", "NOISE", "BARRIER":
		return false
	default:
		return true
	}
}

// AllZeroControls reports whether every qubit in controls is in the |0>
// basis state within EpsilonState, the condition under which a controlled
// gate has no observable effect.
func (s *StateVector) AllZeroControls(controls []int) bool {
	if len(controls) == 0 {
		return false
	}
	for _, c := range controls {
		if !s.isBasisZero(c) {
			return false
		}
	}
	return true
}

func (s *StateVector) isBasisZero(qubit int) bool {
	bit := 1 << uint(qubit)
	prob1 := 0.0
	for i, a := range s.Amplitudes {
		if i&bit != 0 {
			prob1 += real(a * cmplx.Conj(a))
		}
	}
	return prob1 < EpsilonState
}

// applyControlled applies op to target for every basis index whose control
// qubits are all set, one arbitrary-arity routine shared by every
// controlled gate rather than a separate routine per control count.
func (s *StateVector) applyControlled(controls []int, target int, op pairOp) {
	mask := 0
	for _, c := range controls {
		mask |= 1 << uint(c)
	}
	tBit := 1 << uint(target)
	n := len(s.Amplitudes)
	for i := 0; i < n; i++ {
		if i&mask != mask || i&tBit != 0 {
			continue
		}
		j := i | tBit
		s.Amplitudes[i], s.Amplitudes[j] = op(s.Amplitudes[i], s.Amplitudes[j])
	}
}

func (s *StateVector) applyControlledX(controls []int, target int) {
	mask := 0
	for _, c := range controls {
		mask |= 1 << uint(c)
	}
	tBit := 1 << uint(target)
	n := len(s.Amplitudes)
	for i := 0; i < n; i++ {
		if i&mask != mask || i&tBit != 0 {
			continue
		}
		j := i | tBit
		s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
	}
}

func (s *StateVector) applyControlledZ(controls []int, target int) {
	mask := 0
	for _, c := range controls {
		mask |= 1 << uint(c)
	}
	tBit := 1 << uint(target)
	fullMask := mask | tBit
	n := len(s.Amplitudes)
	for i := 0; i < n; i++ {
		if i&fullMask == fullMask {
			s.Amplitudes[i] *= -1
		}
	}
}

func (s *StateVector) applySWAP(q1, q2 int) {
	n := len(s.Amplitudes)
	bit1 := 1 << uint(q1)
	bit2 := 1 << uint(q2)
	for i := 0; i < n; i++ {
		if i&bit1 != 0 && i&bit2 == 0 {
			j := (i &^ bit1) | bit2
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyReset(q int) {
	n := len(s.Amplitudes)
	bit := 1 << uint(q)
	prob0 := 0.0
	for i := 0; i < n; i++ {
		if i&bit == 0 {
			prob0 += real(s.Amplitudes[i] * cmplx.Conj(s.Amplitudes[i]))
		}
	}
	norm := 1.0
	if prob0 > 0 {
		norm = math.Sqrt(prob0)
	}
	for i := 0; i < n; i++ {
		if i&bit == 0 {
			s.Amplitudes[i] /= complex(norm, 0)
		} else {
			s.Amplitudes[i] = 0
		}
	}
}

// Measure performs a probabilistic computational-basis measurement of
// qubit, collapsing the state and returning the observed bit plus a
// restore closure that undoes the collapse exactly, so a measurement can be
// stepped backward like any other instruction.
func (s *StateVector) Measure(qubit int, rng *rand.Rand) (bit int, restore func()) {
	preState := s.Clone()
	bitMask := 1 << uint(qubit)
	prob1 := 0.0
	for i, a := range s.Amplitudes {
		if i&bitMask != 0 {
			prob1 += real(a * cmplx.Conj(a))
		}
	}
	outcome := 0
	if rng.Float64() < prob1 {
		outcome = 1
	}
	keepSet := outcome == 1
	prob := prob1
	if !keepSet {
		prob = 1 - prob1
	}
	norm := 1.0
	if prob > 0 {
		norm = math.Sqrt(prob)
	}
	for i := range s.Amplitudes {
		bitSet := i&bitMask != 0
		if bitSet != keepSet {
			s.Amplitudes[i] = 0
		} else {
			s.Amplitudes[i] /= complex(norm, 0)
		}
	}
	return outcome, func() {
		copy(s.Amplitudes, preState.Amplitudes)
	}
}

// SetAmplitude sets the amplitude of the given basis index and renormalizes
// the remaining amplitudes uniformly so total probability returns to 1.
// Returns false if the requested amplitude already has magnitude > 1.
func (s *StateVector) SetAmplitude(index int, value complex128) bool {
	mag := real(value * cmplx.Conj(value))
	if mag > 1+EpsilonNorm {
		return false
	}
	remaining := 1 - mag
	if remaining < 0 {
		remaining = 0
	}

	otherProb := 0.0
	for i, a := range s.Amplitudes {
		if i == index {
			continue
		}
		otherProb += real(a * cmplx.Conj(a))
	}

	scale := 0.0
	if otherProb > EpsilonNorm {
		scale = math.Sqrt(remaining / otherProb)
	}

	for i := range s.Amplitudes {
		if i == index {
			s.Amplitudes[i] = value
			continue
		}
		if otherProb > EpsilonNorm {
			s.Amplitudes[i] *= complex(scale, 0)
		} else {
			s.Amplitudes[i] = 0
		}
	}
	return true
}
