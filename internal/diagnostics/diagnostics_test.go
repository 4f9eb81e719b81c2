package diagnostics

import (
	"testing"

	"qdebugger/internal/engine"
)

func mustLoad(t *testing.T, src string) *engine.Engine {
	t.Helper()
	e := engine.New()
	if err := e.LoadCode(src); err != nil {
		t.Fatalf("LoadCode: %v", err)
	}
	return e
}

func runUntilFailedOrDone(t *testing.T, e *engine.Engine) {
	t.Helper()
	for e.CanStepForward() && e.State() != engine.AssertionFailed {
		if err := e.StepForward(); err != nil {
			t.Fatalf("StepForward: %v", err)
		}
	}
}

func TestPotentialErrorCausesMissingInteraction(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; h q[0]; assert-ent q[0], q[1];
`)
	runUntilFailedOrDone(t, e)
	if e.State() != engine.AssertionFailed {
		t.Fatalf("expected AssertionFailed, got %v", e.State())
	}
	d := New(e.Program, e)
	causes := d.PotentialErrorCauses()
	found := false
	for _, c := range causes {
		if c.Kind == MissingInteraction {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected MissingInteraction among causes, got %v", causes)
	}
}

func TestPotentialErrorCausesControlAlwaysZero(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; cx q[0],q[1]; assert-sup q[1];
`)
	runUntilFailedOrDone(t, e)
	if e.State() != engine.AssertionFailed {
		t.Fatalf("expected AssertionFailed, got %v", e.State())
	}
	d := New(e.Program, e)

	zc := d.ZeroControlInstructions()
	if len(zc) != 1 {
		t.Fatalf("zero control instructions = %v, want exactly one", zc)
	}

	causes := d.PotentialErrorCauses()
	found := false
	for _, c := range causes {
		if c.Kind == ControlAlwaysZero && c.Instruction == zc[0] {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ControlAlwaysZero at %d among causes, got %v", zc[0], causes)
	}
}

func TestDataDependenciesIncludesPriorWriter(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; h q[0]; cx q[0],q[1]; assert-sup q[0], q[1];
`)
	d := New(e.Program, e)

	assertIdx := -1
	for i, instr := range e.Program.Instructions {
		if instr.Assertion != nil {
			assertIdx = i
		}
	}
	if assertIdx < 0 {
		t.Fatal("no assertion instruction found")
	}

	deps := d.DataDependencies(assertIdx, true)
	foundSelf, foundCX := false, false
	for _, dep := range deps {
		if dep == assertIdx {
			foundSelf = true
		}
		if instr := e.Program.Instructions[dep]; len(instr.Targets) == 2 && instr.Assertion == nil {
			foundCX = true
		}
	}
	if !foundSelf {
		t.Fatal("data_dependencies must include the instruction itself")
	}
	if !foundCX {
		t.Fatalf("expected the cx instruction among dependencies, got %v", deps)
	}
}

func TestInteractionsGrowsAcrossEntanglingGate(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; h q[0]; cx q[0],q[1];
`)
	d := New(e.Program, e)
	s := d.Interactions(len(e.Program.Instructions), 0)
	seen := map[int]bool{}
	for _, q := range s {
		seen[q] = true
	}
	if !seen[0] || !seen[1] {
		t.Fatalf("interactions(len, 0) = %v, want {0,1}", s)
	}
}

func TestSuggestAssertionMovementsSkipsDisjointTrailer(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[3]; h q[0]; cx q[0],q[1]; x q[2]; assert-ent q[0], q[1];
`)
	d := New(e.Program, e)
	moves := d.SuggestAssertionMovements()
	if len(moves) != 1 {
		t.Fatalf("moves = %v, want exactly one", moves)
	}
	if moves[0].NewLine >= moves[0].AssertionLine {
		t.Fatalf("moves[0] = %+v, want new_line < assertion_line", moves[0])
	}
	moved := e.Program.Instructions[moves[0].NewLine]
	if len(moved.Targets) != 1 || moved.Targets[0] != "q[2]" {
		t.Fatalf("moved assertion lands on %v, want the disjoint x q[2] instruction", moved.Targets)
	}
}

func TestSuggestNewAssertionsOnThreeWayJoin(t *testing.T) {
	e := mustLoad(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[3]; h q[0]; h q[1]; ccx q[0],q[1],q[2];
`)
	d := New(e.Program, e)
	sugg := d.SuggestNewAssertions()
	if len(sugg) == 0 {
		t.Fatal("expected at least one new-assertion suggestion for the three-way join")
	}
}
