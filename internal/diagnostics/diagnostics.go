// Package diagnostics implements a set of side-effect-free queries over the
// frozen instruction graph (static) and, for a handful of dynamic queries, a
// read-only snapshot of a running engine.
//
// Dependency and interaction walks favor small map-based frontier traversals
// over recursion, since the graphs involved are shallow instruction chains
// rather than deep nesting.
package diagnostics

import (
	"qdebugger/internal/assertion"
	"qdebugger/internal/engine"
	"qdebugger/internal/lang"
)

// Diagnostics binds the static instruction graph to a live engine snapshot.
// All methods are read-only: they never mutate Program or Engine.
type Diagnostics struct {
	Program *lang.Program
	Engine  *engine.Engine
}

// New constructs a Diagnostics view over prog and eng.
func New(prog *lang.Program, eng *engine.Engine) *Diagnostics {
	return &Diagnostics{Program: prog, Engine: eng}
}

// CauseKind tags one potential-error-cause record. The taxonomy is additive.
type CauseKind int

const (
	Unknown CauseKind = iota
	MissingInteraction
	ControlAlwaysZero
)

func (k CauseKind) String() string {
	switch k {
	case MissingInteraction:
		return "MissingInteraction"
	case ControlAlwaysZero:
		return "ControlAlwaysZero"
	default:
		return "Unknown"
	}
}

// Cause is one {instruction, kind} record.
type Cause struct {
	Instruction int
	Kind        CauseKind
}

// GetNumQubits and GetInstructionCount mirror the engine's own program-model
// queries so a diagnostics sub-object can be used standalone.
func (d *Diagnostics) GetNumQubits() int        { return d.Program.NumQubits() }
func (d *Diagnostics) GetInstructionCount() int { return len(d.Program.Instructions) }

// ownerOf maps a body instruction index to the index of the gate-definition
// header instruction that contains it.
func (d *Diagnostics) ownerOf() map[int]int {
	owner := make(map[int]int)
	for i, instr := range d.Program.Instructions {
		if !instr.IsFunctionDefinition {
			continue
		}
		for _, child := range instr.ChildInstructions {
			owner[child] = i
		}
	}
	return owner
}

// callSitesOf returns every IsFunctionCall instruction index invoking name.
func (d *Diagnostics) callSitesOf(name string) []int {
	var sites []int
	for i, instr := range d.Program.Instructions {
		if instr.IsFunctionCall && instr.CalledFunction == name {
			sites = append(sites, i)
		}
	}
	return sites
}

// DataDependencies returns a breadth-first union over
// Instruction.DataDependencies, optionally crossing from a gate-definition
// body out to every call site of that definition. Never returns gate
// declarations or register
// declarations, since preprocessing never records a DataDependency pointing
// at one (see internal/lang's linkDataDependenciesAndCalls). The instruction
// itself is included.
func (d *Diagnostics) DataDependencies(instr int, includeCallers bool) []int {
	if instr < 0 || instr >= len(d.Program.Instructions) {
		return nil
	}
	owner := d.ownerOf()
	visited := map[int]bool{instr: true}
	order := []int{instr}
	queue := []int{instr}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curInstr := d.Program.Instructions[cur]

		for _, dep := range curInstr.DataDependencies {
			di := dep.DefiningInstruction
			if !visited[di] {
				visited[di] = true
				order = append(order, di)
				queue = append(queue, di)
			}
		}

		if includeCallers && curInstr.InFunctionDefinition {
			if header, ok := owner[cur]; ok {
				name := lang.ParseFunctionDefinition(d.Program.Instructions[header].Code).Name
				for _, site := range d.callSitesOf(name) {
					if !visited[site] {
						visited[site] = true
						order = append(order, site)
						queue = append(queue, site)
					}
				}
			}
		}
	}
	return order
}

// ZeroControlInstructions is dynamic, borrowed from the live engine's
// bitmap.
func (d *Diagnostics) ZeroControlInstructions() []int {
	return d.Engine.ZeroControlInstructions()
}

// PotentialErrorCauses is valid once the engine has entered AssertionFailed.
// Returns nil if no assertion is currently failed.
func (d *Diagnostics) PotentialErrorCauses() []Cause {
	failedPC := d.Engine.FailedInstruction()
	if failedPC < 0 {
		return nil
	}
	instr := d.Program.Instructions[failedPC]
	a := instr.Assertion
	if a == nil {
		return nil
	}

	zeroList := d.Engine.ZeroControlInstructions()
	zero := make(map[int]bool, len(zeroList))
	for _, i := range zeroList {
		zero[i] = true
	}

	seen := map[Cause]bool{}
	var causes []Cause
	add := func(c Cause) {
		if !seen[c] {
			seen[c] = true
			causes = append(causes, c)
		}
	}

	// A DataDependency's TargetPosition indexes into the *defining*
	// instruction's own target list (see internal/lang's
	// linkDataDependenciesAndCalls), not into a.Targets, so there is no
	// clean per-target split here; treat the assertion's full
	// data-dependency slice as covering all of its targets at once.
	for _, d2 := range d.DataDependencies(failedPC, true) {
		if zero[d2] {
			add(Cause{Instruction: d2, Kind: ControlAlwaysZero})
		}
	}

	if a.Kind == assertion.KindEntanglement {
		qubits := make([]int, 0, len(a.Targets))
		for _, t := range a.Targets {
			q, err := d.Engine.ResolveQubit(t)
			if err != nil {
				continue
			}
			qubits = append(qubits, q)
		}
		sets := make([][]int, len(qubits))
		for i, q := range qubits {
			sets[i] = d.Interactions(failedPC, q)
		}
		for i := 0; i < len(sets); i++ {
			for j := i + 1; j < len(sets); j++ {
				if disjoint(sets[i], sets[j]) {
					add(Cause{Instruction: failedPC, Kind: MissingInteraction})
				}
			}
		}
	}

	if len(causes) == 0 {
		add(Cause{Instruction: failedPC, Kind: Unknown})
	}
	return causes
}

func disjoint(a, b []int) bool {
	set := make(map[int]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if set[v] {
			return false
		}
	}
	return true
}
