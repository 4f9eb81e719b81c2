package lang

import "qdebugger/internal/assertion"

// Block captures a braced body swept out of the source during block
// extraction: a classic-controlled gate's operations or a gate definition's
// body.
type Block struct {
	Valid bool
	Code  string
}

// DataDependency records the most recent prior write to one of an
// instruction's targets: DefiningInstruction is the index of the
// instruction that wrote it, TargetPosition is the position of the matched
// target in that instruction's own target list.
type DataDependency struct {
	DefiningInstruction int
	TargetPosition      int
}

// FunctionDefinition is a registered `gate name a,b { ... }` signature;
// Parameters holds the formal qubit arguments. A parenthesized classical
// parameter list is not split off: it stays part of Name.
type FunctionDefinition struct {
	Name       string
	Parameters []string
}

// Instruction is one `;`-terminated fragment of preprocessed source.
// LineNumber doubles as its index into the owning Program.Instructions
// slice.
type Instruction struct {
	LineNumber int
	Code       string

	OriginalStart int
	OriginalEnd   int

	Targets []string

	SuccessorIndex int

	IsFunctionCall bool
	CalledFunction string

	InFunctionDefinition bool
	IsFunctionDefinition bool

	Block Block

	Assertion *assertion.Assertion

	ChildInstructions []int

	DataDependencies []DataDependency

	CallSubstitution map[string]string
}

// IsReturn reports whether this instruction pops the call stack: either a
// synthetic RETURN marker or any instruction whose SuccessorIndex is 0.
func (i *Instruction) IsReturn() bool {
	return i.Code == "RETURN" || i.SuccessorIndex == 0
}

// Program is the frozen output of Preprocess: the instruction graph plus
// the declared registers needed to interpret it. Built once per load and
// never mutated afterward.
type Program struct {
	Source             string
	ProcessedSource    string
	Instructions       []Instruction
	QuantumRegisters   []RegisterDecl
	ClassicalRegisters []RegisterDecl
	Functions          map[string]FunctionDefinition
}

// RegisterDecl is one `qreg`/`creg` declaration, order-preserved.
type RegisterDecl struct {
	Name string
	Size int
}

// NumQubits sums the declared qreg sizes, fixing qubit index assignment in
// declaration order.
func (p *Program) NumQubits() int {
	total := 0
	for _, r := range p.QuantumRegisters {
		total += r.Size
	}
	return total
}

// QubitIndex resolves "name[k]" to its flat qubit index, or -1 if unknown.
func (p *Program) QubitIndex(name string, k int) int {
	base := 0
	for _, r := range p.QuantumRegisters {
		if r.Name == name {
			if k < 0 || k >= r.Size {
				return -1
			}
			return base + k
		}
		base += r.Size
	}
	return -1
}
