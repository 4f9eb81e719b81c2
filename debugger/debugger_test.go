package debugger

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qdebugger/internal/engine"
)

const epsilonState = 1e-6

func mustLoad(t *testing.T, src string) *Debugger {
	t.Helper()
	d := New()
	require.NoError(t, d.LoadCode(src))
	return d
}

// runToStop runs to Finished/AssertionFailed/BreakpointHit, stopping at the
// first assertion failure rather than continuing past it (unlike RunAll,
// which counts failures and keeps going).
func runToStop(t *testing.T, d *Debugger) {
	t.Helper()
	require.NoError(t, d.Run())
}

// Two qubits entangled via h+cx should measure superposed on both.
func TestBellStateSuperposition(t *testing.T) {
	d := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; h q[0]; cx q[0],q[1];
assert-sup q[0], q[1];
`)
	runToStop(t, d)

	assert.False(t, d.DidAssertionFail())
	assert.Equal(t, engine.Finished, d.State())

	amp00, ok := d.GetAmplitudeBitstring("00")
	require.True(t, ok)
	amp11, ok := d.GetAmplitudeBitstring("11")
	require.True(t, ok)

	assert.InDelta(t, 1/sqrt2, cmplx.Abs(amp00), epsilonState)
	assert.InDelta(t, 1/sqrt2, cmplx.Abs(amp11), epsilonState)
}

const sqrt2 = 1.4142135623730951

// Asserting entanglement between qubits that never interacted should fail
// and surface a missing-interaction cause.
func TestMissingInteraction(t *testing.T) {
	d := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; h q[0]; assert-ent q[0], q[1];
`)
	runToStop(t, d)

	require.True(t, d.DidAssertionFail())
	causes := d.Diagnostics().PotentialErrorCauses()
	found := false
	for _, c := range causes {
		if c.Kind.String() == "MissingInteraction" && c.Instruction == d.FailedInstruction() {
			found = true
		}
	}
	assert.True(t, found, "expected MissingInteraction at the assertion line, got %v", causes)
}

// A cx whose control qubit never left |0> can never entangle the target,
// so asserting superposition on the target should fail with that cause.
func TestControlAlwaysZero(t *testing.T) {
	d := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; cx q[0],q[1]; assert-sup q[1];
`)
	runToStop(t, d)

	require.True(t, d.DidAssertionFail())
	zc := d.ZeroControlInstructions()
	require.Len(t, zc, 1)

	causes := d.Diagnostics().PotentialErrorCauses()
	found := false
	for _, c := range causes {
		if c.Kind.String() == "ControlAlwaysZero" && c.Instruction == zc[0] {
			found = true
		}
	}
	assert.True(t, found, "expected ControlAlwaysZero at the cx line, got %v", causes)
}

// Stepping forward through h/s/h and back again should restore the
// starting state vector to within epsilonState.
func TestReversibilityRestoresState(t *testing.T) {
	d := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[1]; h q[0]; s q[0]; h q[0];
`)
	before := d.GetStateVectorFull()

	for i := 0; i < 3; i++ {
		require.NoError(t, d.StepForward())
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, d.StepBackward())
	}

	after := d.GetStateVectorFull()
	require.Len(t, after, len(before))
	for i := range before {
		assert.InDelta(t, 0, cmplx.Abs(before[i]-after[i]), epsilonState)
	}
}

// A breakpoint set on the cx instruction's source offset should halt
// execution there.
func TestBreakpointHaltsAtInstruction(t *testing.T) {
	src := `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; h q[0]; cx q[0],q[1];
`
	d := mustLoad(t, src)
	offset := indexOf(src, "cx q[0],q[1]")
	require.GreaterOrEqual(t, offset, 0)

	instr := d.SetBreakpoint(offset)
	require.GreaterOrEqual(t, instr, 0)

	require.NoError(t, d.Run())

	assert.Equal(t, engine.BreakpointHit, d.State())
	assert.True(t, d.WasBreakpointHit())
	assert.Equal(t, instr, d.GetCurrentInstruction())
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// Calling a user-defined gate should push a call frame for its duration.
func TestGateDefinitionCallStackDepth(t *testing.T) {
	d := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
gate bell a,b { h a; cx a,b; }
qreg q[2]; bell q[0],q[1]; assert-ent q[0],q[1];
`)

	sawDepthOne := false
	for d.CanStepForward() {
		if d.StackDepth() == 1 {
			sawDepthOne = true
		}
		require.NoError(t, d.StepForward())
		if d.State() == engine.AssertionFailed || d.State() == engine.Finished {
			break
		}
	}

	assert.True(t, sawDepthOne, "expected stack depth 1 while inside the gate body")
	assert.False(t, d.DidAssertionFail())
}
