package engine

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"qdebugger/internal/lang"
)

func mustLoad(t *testing.T, src string) *Engine {
	t.Helper()
	e := New()
	if err := e.LoadCode(src); err != nil {
		t.Fatalf("LoadCode: %v", err)
	}
	return e
}

func runToFinish(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		if e.State() == Finished {
			return
		}
		if !e.CanStepForward() {
			t.Fatalf("cannot step forward in state %v", e.State())
		}
		if err := e.StepForward(); err != nil {
			t.Fatalf("StepForward: %v", err)
		}
		if e.State() == AssertionFailed {
			t.Fatalf("unexpected assertion failure at instruction %d", e.FailedInstruction())
		}
	}
	t.Fatal("program did not finish")
}

func TestBellStateSuperpositionPasses(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; h q[0]; cx q[0],q[1];
assert-sup q[0], q[1];
`)
	runToFinish(t, e)

	amp00, ok := e.GetAmplitudeBitstring("00")
	if !ok {
		t.Fatalf("bad bitstring")
	}
	amp11, _ := e.GetAmplitudeBitstring("11")
	want := 1 / math.Sqrt2
	if math.Abs(cmplx.Abs(amp00)-want) > 1e-6 {
		t.Errorf("amplitude(00) = %v, want magnitude %v", amp00, want)
	}
	if math.Abs(cmplx.Abs(amp11)-want) > 1e-6 {
		t.Errorf("amplitude(11) = %v, want magnitude %v", amp11, want)
	}
}

func TestEntanglementAssertionFailsOnProductState(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; h q[0]; assert-ent q[0], q[1];
`)
	for e.CanStepForward() && e.State() != AssertionFailed {
		if err := e.StepForward(); err != nil {
			t.Fatalf("StepForward: %v", err)
		}
	}
	if e.State() != AssertionFailed {
		t.Fatalf("expected AssertionFailed, got %v", e.State())
	}
	if !e.DidAssertionFail() {
		t.Fatal("did_assertion_fail should be set")
	}
}

func TestZeroControlDetection(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; cx q[0],q[1]; assert-sup q[1];
`)
	for e.CanStepForward() && e.State() != AssertionFailed {
		if err := e.StepForward(); err != nil {
			t.Fatalf("StepForward: %v", err)
		}
	}
	if e.State() != AssertionFailed {
		t.Fatalf("expected AssertionFailed, got %v", e.State())
	}
	cxInstr := -1
	for i, instr := range e.Program.Instructions {
		if lang.IsFunctionDefinitionCode(instr.Code) {
			continue
		}
		if instr.Assertion == nil && len(instr.Targets) == 2 {
			cxInstr = i
			break
		}
	}
	zc := e.ZeroControlInstructions()
	if len(zc) != 1 || zc[0] != cxInstr {
		t.Fatalf("zero control instructions = %v, want [%d]", zc, cxInstr)
	}
}

func TestReversibilityNoMeasurement(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; h q[0]; cx q[0],q[1]; rz(0.37) q[1]; x q[0];
`)
	initial := e.GetStateVectorFull()

	steps := 0
	for e.CanStepForward() {
		if err := e.StepForward(); err != nil {
			t.Fatalf("StepForward: %v", err)
		}
		steps++
	}
	for i := 0; i < steps; i++ {
		if err := e.StepBackward(); err != nil {
			t.Fatalf("StepBackward: %v", err)
		}
	}
	final := e.GetStateVectorFull()
	for i := range initial {
		if cmplx.Abs(initial[i]-final[i]) > 1e-6 {
			t.Fatalf("amplitude[%d] = %v, want %v", i, final[i], initial[i])
		}
	}
}

func TestMeasurementReversibility(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[1]; creg c[1]; h q[0]; measure q[0] -> c[0];
`)
	var preMeasure []complex128
	for e.CanStepForward() {
		instr := e.Program.Instructions[e.ProgramCounter()]
		isMeasure := lang.IsMeasurement(instr.Code)
		if isMeasure {
			preMeasure = e.GetStateVectorFull()
		}
		if err := e.StepForward(); err != nil {
			t.Fatalf("StepForward: %v", err)
		}
		if isMeasure {
			break
		}
	}
	if preMeasure == nil {
		t.Fatal("never captured pre-measurement state")
	}
	if len(e.measurementLog) != 1 {
		t.Fatalf("measurement log length = %d, want 1", len(e.measurementLog))
	}
	if err := e.StepBackward(); err != nil {
		t.Fatalf("StepBackward: %v", err)
	}
	if len(e.measurementLog) != 0 {
		t.Fatalf("measurement log length after undo = %d, want 0", len(e.measurementLog))
	}
	post := e.GetStateVectorFull()
	for i := range preMeasure {
		if cmplx.Abs(preMeasure[i]-post[i]) > 1e-12 {
			t.Fatalf("restored amplitude[%d] = %v, want exactly %v", i, post[i], preMeasure[i])
		}
	}
}

func TestGateDefinitionCallStackDepth(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
gate bell a,b { h a; cx a,b; }
qreg q[2]; bell q[0],q[1]; assert-ent q[0],q[1];
`)
	sawDepthOne := false
	for e.CanStepForward() && e.State() != AssertionFailed {
		if e.StackDepth() == 1 {
			sawDepthOne = true
		}
		if err := e.StepForward(); err != nil {
			t.Fatalf("StepForward: %v", err)
		}
	}
	if e.State() == AssertionFailed {
		t.Fatalf("unexpected assertion failure at %d", e.FailedInstruction())
	}
	if !sawDepthOne {
		t.Fatal("never observed call stack depth 1 inside gate body")
	}
	if e.StackDepth() != 0 {
		t.Fatalf("final stack depth = %d, want 0", e.StackDepth())
	}
}

func TestStepOutAtTopLevelIsInvalidOperation(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[1]; h q[0];
`)
	if err := e.StepOutForward(); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("StepOutForward at top level = %v, want ErrInvalidOperation", err)
	}
	if err := e.StepForward(); err != nil {
		t.Fatalf("StepForward: %v", err)
	}
	if err := e.StepOutBackward(); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("StepOutBackward at top level = %v, want ErrInvalidOperation", err)
	}
}

func TestBreakpointHitAndStepOver(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
gate bell a,b { h a; cx a,b; }
qreg q[2]; bell q[0],q[1];
`)
	callInstr := -1
	for i, instr := range e.Program.Instructions {
		if instr.IsFunctionCall {
			callInstr = i
			break
		}
	}
	if callInstr < 0 {
		t.Fatal("no call instruction found")
	}
	instr := e.Program.Instructions[callInstr]
	got := e.SetBreakpoint(instr.OriginalStart)
	if got != callInstr {
		t.Fatalf("SetBreakpoint = %d, want %d", got, callInstr)
	}

	for e.State() != BreakpointHit && e.CanStepForward() {
		if err := e.StepForward(); err != nil {
			t.Fatalf("StepForward: %v", err)
		}
	}
	if e.State() != BreakpointHit {
		t.Fatalf("expected BreakpointHit, got %v", e.State())
	}
	if err := e.StepOverForward(); err != nil {
		t.Fatalf("StepOverForward: %v", err)
	}
	if e.StackDepth() != 0 {
		t.Fatalf("stack depth after step-over = %d, want 0", e.StackDepth())
	}
}

func TestNormalizationPreservedThroughoutRun(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; h q[0]; cx q[0],q[1]; ry(1.1) q[1]; x q[0];
`)
	for e.CanStepForward() {
		if err := e.StepForward(); err != nil {
			t.Fatalf("StepForward: %v", err)
		}
		if n := e.vector.Norm(); math.Abs(n-1) > 1e-6 {
			t.Fatalf("norm = %v after instruction %d, want ~1", n, e.ProgramCounter())
		}
	}
}

func TestChangeAmplitudeNormalizationError(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[1];
`)
	if err := e.ChangeAmplitude("1", complex(1.5, 0)); err != ErrNormalization {
		t.Fatalf("ChangeAmplitude err = %v, want ErrNormalization", err)
	}
	if err := e.ChangeAmplitude("1", complex(1, 0)); err != nil {
		t.Fatalf("ChangeAmplitude: %v", err)
	}
	if amp, _ := e.GetAmplitudeBitstring("0"); cmplx.Abs(amp) > 1e-9 {
		t.Fatalf("amplitude(0) = %v, want ~0", amp)
	}
}
