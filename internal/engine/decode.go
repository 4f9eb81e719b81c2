package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"qdebugger/internal/lang"
)

// gateHeaderRegex splits an instruction's normalized code into its gate
// name and optional parenthesized parameter list, e.g. "rx(pi/2)" or "cx".
var gateHeaderRegex = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(?:\(([^)]*)\))?`)

// controlArity reports how many of a gate's leading targets are control
// qubits (the last target is the acted-upon qubit), as one lookup table shared by every controlled gate.
// name is always the canonicalGateName form (upper case).
func controlArity(name string) (controls int, isSwap bool) {
	switch name {
	case "CX", "CZ", "CH", "CRX", "CRY", "CRZ", "CP", "CU1":
		return 1, false
	case "CCX":
		return 2, false
	case "SWAP":
		return 0, true
	default:
		return 0, false
	}
}

func canonicalGateName(name string) string {
	switch strings.ToUpper(name) {
	case "CX", "CNOT":
		return "CX"
	case "TOFFOLI", "CCX":
		return "CCX"
	default:
		return strings.ToUpper(name)
	}
}

// decodedGate is the result of interpreting one non-control-flow
// instruction against the current call stack.
type decodedGate struct {
	Name     string
	Controls []int
	Target   int
	Targets  []int // set only for SWAP
	Params   []float64
}

// decodeGate parses instr.Code's gate header and resolves instr.Targets to
// concrete qubit indices through the active call-stack substitution chain.
func decodeGate(prog *lang.Program, stack []CallFrame, instr *lang.Instruction) (*decodedGate, error) {
	return decodeGateCode(prog, stack, instr.Code, instr.Targets)
}

// decodeGateCode is decodeGate generalized over an explicit code/targets
// pair, used directly when re-dispatching the individual operations inlined
// into a classic-controlled gate's Code field, each of which has its own
// target list distinct from the owning instruction's concatenated one.
func decodeGateCode(prog *lang.Program, stack []CallFrame, code string, targets []string) (*decodedGate, error) {
	m := gateHeaderRegex.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return nil, fmt.Errorf("cannot decode gate from %q", code)
	}
	name := canonicalGateName(m[1])

	params, err := lang.ParseParamList(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w in %q", err, code)
	}

	qubits := make([]int, 0, len(targets))
	for _, t := range targets {
		q, err := resolveQubit(prog, stack, t)
		if err != nil {
			return nil, err
		}
		qubits = append(qubits, q)
	}

	controls, isSwap := controlArity(name)
	g := &decodedGate{Name: name, Params: params}
	switch {
	case isSwap:
		g.Targets = qubits
	case len(qubits) == 0:
		// barrier/no-operand instructions.
	default:
		if controls > len(qubits)-1 {
			controls = len(qubits) - 1
		}
		g.Controls = qubits[:controls]
		g.Target = qubits[len(qubits)-1]
	}
	return g, nil
}

// ResolveQubit resolves target against the engine's current call stack,
// exposed for internal/diagnostics to interpret a failed assertion's target
// list the same way the engine did at the moment of failure.
func (e *Engine) ResolveQubit(target string) (int, error) {
	return resolveQubit(e.Program, e.callStack, target)
}

var concreteTargetRegex = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\[(\d+)\]$`)

// resolveQubit resolves a target token (possibly a formal parameter name
// inherited from an enclosing gate definition) to a flat qubit index,
// walking the call stack's substitution chain from the innermost frame
// outward.
func resolveQubit(prog *lang.Program, stack []CallFrame, target string) (int, error) {
	cur := target
	for i := len(stack) - 1; i >= 0; i-- {
		actual, ok := stack[i].Substitution[cur]
		if !ok {
			break
		}
		cur = actual
	}
	m := concreteTargetRegex.FindStringSubmatch(cur)
	if m == nil {
		return -1, fmt.Errorf("%w: could not resolve target %q to a qubit", ErrLookup, target)
	}
	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return -1, fmt.Errorf("%w: %v", ErrLookup, err)
	}
	q := prog.QubitIndex(m[1], idx)
	if q < 0 {
		return -1, fmt.Errorf("%w: unknown qubit %q", ErrLookup, cur)
	}
	return q, nil
}
