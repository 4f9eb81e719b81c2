package compile

import (
	"strings"
	"testing"

	"qdebugger/internal/lang"
)

func mustParse(t *testing.T, src string) *lang.Program {
	t.Helper()
	prog, err := lang.Preprocess(src)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	return prog
}

func TestCompileOmitsAssertions(t *testing.T) {
	prog := mustParse(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; h q[0]; cx q[0],q[1]; assert-ent q[0], q[1];
`)
	out, err := Compile(prog, Settings{SliceIndex: -1})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if strings.Contains(out, "assert") {
		t.Fatalf("compiled output still contains an assertion:\n%s", out)
	}
	if !strings.Contains(out, "h q[0]") || !strings.Contains(out, "cx q[0],q[1]") {
		t.Fatalf("compiled output missing expected gates:\n%s", out)
	}
}

func TestCompileSliceIndexTruncatesAtAssertion(t *testing.T) {
	prog := mustParse(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; h q[0]; assert-sup q[0]; cx q[0],q[1]; assert-ent q[0], q[1];
`)
	out, err := Compile(prog, Settings{SliceIndex: 0})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if strings.Contains(out, "cx") {
		t.Fatalf("compiled output should stop before the first assertion, got:\n%s", out)
	}
	if !strings.Contains(out, "h q[0]") {
		t.Fatalf("compiled output missing the gate before the cut, got:\n%s", out)
	}
}

func TestCompileReemitsGateDefinition(t *testing.T) {
	prog := mustParse(t, `OPENQASM 2.0; include "qelib1.inc";
gate bell a,b { h a; cx a,b; }
qreg q[2]; bell q[0],q[1];
`)
	out, err := Compile(prog, Settings{SliceIndex: -1})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(out, "gate bell a,b {") {
		t.Fatalf("compiled output missing gate header, got:\n%s", out)
	}
	if !strings.Contains(out, "h a") || !strings.Contains(out, "cx a,b") {
		t.Fatalf("compiled output missing gate body, got:\n%s", out)
	}
	if !strings.Contains(out, "bell q[0],q[1]") {
		t.Fatalf("compiled output missing call site, got:\n%s", out)
	}
}

func TestCompileOptCoalescesDisjointSingleQubitGates(t *testing.T) {
	prog := mustParse(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[3]; h q[0]; h q[1]; h q[2];
`)
	out, err := Compile(prog, Settings{Opt: 1, SliceIndex: -1})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(out, "h q[0],q[1],q[2]") {
		t.Fatalf("expected coalesced h statement, got:\n%s", out)
	}
}

func TestCompileOptCoalescesEquivalentParameterizedGates(t *testing.T) {
	prog := mustParse(t, `OPENQASM 2.0; include "qelib1.inc";
qreg q[2]; rx(pi/2) q[0]; rx(1.5707963267948966) q[1];
`)
	out, err := Compile(prog, Settings{Opt: 1, SliceIndex: -1})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(out, "rx(pi/2) q[0],q[1]") {
		t.Fatalf("expected coalesced parameterized rx statement, got:\n%s", out)
	}
}
