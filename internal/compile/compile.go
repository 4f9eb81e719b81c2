// Package compile re-serializes the frozen instruction graph back into
// OpenQASM-2.0-like source text with every assertion omitted, optionally
// truncated at a given assertion and optionally compacted.
//
// Compilation walks the instruction graph in program order and Fprintfs one
// statement per gate rather than slicing the original source text, giving a
// canonical, whitespace-minimal rendering independent of how the source was
// originally formatted.
package compile

import (
	"fmt"
	"strings"

	"qdebugger/internal/lang"
)

// Settings configures one compile call.
type Settings struct {
	Opt int

	// SliceIndex selects a zero-based assertion cut: only the prefix of
	// instructions strictly before the (SliceIndex+1)-th assertion is
	// emitted, with that assertion also dropped. A negative value (the
	// default) means no truncation: every assertion is still omitted, but
	// nothing else is cut.
	SliceIndex int
}

// Compile implements compile(settings) -> string.
func Compile(prog *lang.Program, settings Settings) (string, error) {
	var units []unit
	assertionCount := 0

outer:
	for i := range prog.Instructions {
		instr := &prog.Instructions[i]
		if instr.InFunctionDefinition {
			continue // only reachable through its owning definition, below
		}
		if instr.Code == "RETURN" {
			continue
		}
		if instr.Assertion != nil {
			assertionCount++
			if settings.SliceIndex >= 0 && assertionCount == settings.SliceIndex+1 {
				break outer
			}
			continue
		}
		if instr.IsFunctionDefinition {
			units = append(units, gateDefUnit(prog, instr))
			continue
		}
		units = append(units, unit{code: normalizeCode(instr.Code), targets: instr.Targets})
	}

	if settings.Opt >= 1 {
		units = coalesceSingleQubitGates(units)
	}

	var sb strings.Builder
	for _, u := range units {
		u.write(&sb)
	}
	return sb.String(), nil
}

// unit is one emittable statement: either a plain instruction line or a
// pre-rendered gate-definition block (rendered is non-empty in that case).
type unit struct {
	code     string
	targets  []string
	rendered string
}

func (u unit) write(sb *strings.Builder) {
	if u.rendered != "" {
		sb.WriteString(u.rendered)
		return
	}
	sb.WriteString(u.code)
	sb.WriteString(";\n")
}

func normalizeCode(code string) string {
	return strings.TrimSuffix(strings.TrimSpace(code), ";")
}

func gateDefUnit(prog *lang.Program, header *lang.Instruction) unit {
	def := lang.ParseFunctionDefinition(header.Code)
	var body strings.Builder
	fmt.Fprintf(&body, "gate %s %s {\n", def.Name, strings.Join(def.Parameters, ","))
	for _, child := range header.ChildInstructions {
		childInstr := prog.Instructions[child]
		if childInstr.Code == "RETURN" || childInstr.Assertion != nil {
			continue
		}
		body.WriteString(normalizeCode(childInstr.Code))
		body.WriteString(";\n")
	}
	body.WriteString("}\n")
	return unit{rendered: body.String()}
}

// coalesceSingleQubitGates merges consecutive single-qubit gate statements
// of the same gate name on disjoint qubits into one comma-separated
// statement, which OpenQASM treats as applying the gate to each listed
// qubit independently — an observably identical rewrite.
func coalesceSingleQubitGates(units []unit) []unit {
	var out []unit
	i := 0
	for i < len(units) {
		u := units[i]
		name, qubit := singleQubitGate(u)
		if name == "" {
			out = append(out, u)
			i++
			continue
		}
		qubits := []string{qubit}
		seen := map[string]bool{qubit: true}
		j := i + 1
		for j < len(units) {
			nextName, nextQubit := singleQubitGate(units[j])
			if nextName != name || seen[nextQubit] {
				break
			}
			qubits = append(qubits, nextQubit)
			seen[nextQubit] = true
			j++
		}
		if len(qubits) > 1 {
			out = append(out, unit{code: name + " " + strings.Join(qubits, ",")})
		} else {
			out = append(out, u)
		}
		i = j
	}
	return out
}

// singleQubitGate reports the gate name (with any parameter list
// canonicalized through lang.FormatParam, so "rx(1.5707963267948966)" and
// "rx(pi/2)" coalesce as the same gate) and sole qubit operand of u, if u is
// a single-target gate statement.
func singleQubitGate(u unit) (name, qubit string) {
	if u.rendered != "" || len(u.targets) != 1 {
		return "", ""
	}
	fields := strings.Fields(u.code)
	if len(fields) != 2 {
		return "", ""
	}
	head, qubit := fields[0], fields[1]

	open := strings.Index(head, "(")
	if open < 0 {
		if strings.ContainsAny(head, "),") {
			return "", ""
		}
		return head, qubit
	}
	if !strings.HasSuffix(head, ")") {
		return "", ""
	}
	gateName := head[:open]
	params, err := lang.ParseParamList(head[open+1 : len(head)-1])
	if err != nil {
		return "", ""
	}
	canon := make([]string, len(params))
	for i, v := range params {
		canon[i] = lang.FormatParam(v)
	}
	return gateName + "(" + strings.Join(canon, ",") + ")", qubit
}
