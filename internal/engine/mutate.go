package engine

import "strconv"

// ChangeClassicalVariable overwrites a classical variable, type-checked
// against its declared kind.
func (e *Engine) ChangeClassicalVariable(name string, value Value) error {
	return e.classical.Set(name, value)
}

// ChangeAmplitude sets one basis amplitude and renormalizes the rest
// uniformly, failing with ErrNormalization if the requested amplitude's
// magnitude exceeds 1.
func (e *Engine) ChangeAmplitude(bits string, value complex128) error {
	if _, ok := e.vector.AmplitudeBitstring(bits); !ok {
		return ErrLookup
	}
	index := bitstringIndex(bits)
	if index < 0 {
		return ErrLookup
	}
	if !e.vector.SetAmplitude(index, value) {
		return ErrNormalization
	}
	return nil
}

func bitstringIndex(bits string) int {
	index := 0
	for i, c := range bits {
		switch c {
		case '1':
			index |= 1 << uint(i)
		case '0':
		default:
			return -1
		}
	}
	return index
}

// GetAmplitudeIndex and GetAmplitudeBitstring read a single amplitude by
// basis index or by bitstring.
func (e *Engine) GetAmplitudeIndex(i int) complex128 { return e.vector.Amplitude(i) }

func (e *Engine) GetAmplitudeBitstring(bits string) (complex128, bool) {
	return e.vector.AmplitudeBitstring(bits)
}

// GetStateVectorFull returns a copy of the full amplitude vector.
func (e *Engine) GetStateVectorFull() []complex128 {
	out := make([]complex128, len(e.vector.Amplitudes))
	copy(out, e.vector.Amplitudes)
	return out
}

// GetStateVectorSub returns the amplitude vector projected onto the given
// qubits (no repetition permitted; reordering allowed), with every other
// qubit fixed at 0, matching evalEquality's projection convention.
func (e *Engine) GetStateVectorSub(qubits []int) ([]complex128, error) {
	seen := make(map[int]bool, len(qubits))
	for _, q := range qubits {
		if seen[q] {
			return nil, ErrInvalidOperation
		}
		seen[q] = true
	}
	return e.projectedAmplitudes(qubits), nil
}

// GetClassicalVariable, GetNumClassicalVariables and GetClassicalVariableName
// expose ClassicalStore through the engine.
func (e *Engine) GetClassicalVariable(name string) (Value, bool) { return e.classical.Get(name) }
func (e *Engine) GetNumClassicalVariables() int                  { return e.classical.Len() }
func (e *Engine) GetClassicalVariableName(i int) (string, bool)  { return e.classical.NameAt(i) }

// GetQuantumVariableName returns the qubit at flat index i's register-form
// name (e.g. "q[1]"), or false if out of range.
func (e *Engine) GetQuantumVariableName(i int) (string, bool) {
	base := 0
	for _, r := range e.Program.QuantumRegisters {
		if i >= base && i < base+r.Size {
			return formatQubitName(r.Name, i-base), true
		}
		base += r.Size
	}
	return "", false
}

func formatQubitName(reg string, idx int) string {
	return reg + "[" + strconv.Itoa(idx) + "]"
}
