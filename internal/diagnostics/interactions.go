package diagnostics

import (
	"regexp"
	"strconv"

	"qdebugger/internal/lang"
)

var concreteTargetRegex = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\[(\d+)\]$`)

// resolveStatic mirrors internal/engine's resolveQubit but walks an explicit
// chain of substitution maps built during a static traversal instead of a
// live call stack, since interactions() and suggest_new_assertions() run
// without an engine.
func (d *Diagnostics) resolveStatic(chain []map[string]string, target string) (int, bool) {
	cur := target
	for i := len(chain) - 1; i >= 0; i-- {
		actual, ok := chain[i][cur]
		if !ok {
			break
		}
		cur = actual
	}
	m := concreteTargetRegex.FindStringSubmatch(cur)
	if m == nil {
		return -1, false
	}
	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return -1, false
	}
	q := d.Program.QubitIndex(m[1], idx)
	if q < 0 {
		return -1, false
	}
	return q, true
}

// isStructuralGate reports whether instr should be treated as a "gate" for
// interaction-propagation purposes: not an assertion, call, definition
// header, or return marker, and with at least one target. Register
// declarations are not excluded here; their `name[size]` token never
// resolves to a qubit, so walkInteractions never passes them to visit.
func isStructuralGate(instr *lang.Instruction) bool {
	if instr.Assertion != nil {
		return false
	}
	if instr.IsFunctionCall || instr.IsFunctionDefinition {
		return false
	}
	if instr.Code == "RETURN" {
		return false
	}
	return len(instr.Targets) > 0
}

// walkInteractions is the shared traversal behind Interactions and the
// join-point detector in suggest_new_assertions: it visits every
// "structural gate" instruction executed on the path [0, limit), in
// execution order, descending into called bodies with the call's
// substitution applied. visit is called only for instructions whose
// targets resolve to at least two qubits, with that resolved qubit list; it
// returns false to stop the walk early.
func (d *Diagnostics) walkInteractions(limit int, visit func(instrIndex int, qubits []int) bool) {
	owner := d.ownerOf()
	bound := limit
	if bound > len(d.Program.Instructions) {
		bound = len(d.Program.Instructions)
	}

	var walkOne func(idx int, chain []map[string]string) bool
	walkOne = func(idx int, chain []map[string]string) bool {
		instr := &d.Program.Instructions[idx]
		switch {
		case instr.IsFunctionCall:
			def, ok := d.Program.Functions[instr.CalledFunction]
			if !ok || len(def.Parameters) != len(instr.Targets) {
				return true
			}
			sub := make(map[string]string, len(def.Parameters))
			for i, p := range def.Parameters {
				sub[p] = instr.Targets[i]
			}
			nextChain := append(append([]map[string]string{}, chain...), sub)
			header, ok := findHeader(d.Program, instr.CalledFunction)
			if !ok {
				return true
			}
			for _, child := range d.Program.Instructions[header].ChildInstructions {
				if !walkOne(child, nextChain) {
					return false
				}
			}
			return true
		case isStructuralGate(instr):
			qubits := make([]int, 0, len(instr.Targets))
			for _, t := range instr.Targets {
				if q, ok := d.resolveStatic(chain, t); ok {
					qubits = append(qubits, q)
				}
			}
			if len(qubits) >= 2 {
				return visit(idx, qubits)
			}
			return true
		default:
			return true
		}
	}

	for i := 0; i < bound; i++ {
		if _, isBody := owner[i]; isBody {
			continue // only reachable via a call, handled by walkOne's recursion
		}
		if !walkOne(i, nil) {
			return
		}
	}
}

func findHeader(prog *lang.Program, name string) (int, bool) {
	for i, instr := range prog.Instructions {
		if instr.IsFunctionDefinition && lang.ParseFunctionDefinition(instr.Code).Name == name {
			return i, true
		}
	}
	return 0, false
}

// Interactions starts from S={qubit} and walks instructions [0, before_instr)
// in execution order, growing S whenever a multi-qubit gate touches a qubit
// already in S.
func (d *Diagnostics) Interactions(beforeInstr, qubit int) []int {
	inS := map[int]bool{qubit: true}
	d.walkInteractions(beforeInstr, func(_ int, qubits []int) bool {
		touched := false
		for _, q := range qubits {
			if inS[q] {
				touched = true
				break
			}
		}
		if touched {
			for _, q := range qubits {
				inS[q] = true
			}
		}
		return true
	})
	out := make([]int, 0, len(inS))
	for q := range inS {
		out = append(out, q)
	}
	return out
}
