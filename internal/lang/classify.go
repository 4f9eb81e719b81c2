package lang

import (
	"strings"

	"qdebugger/internal/assertion"
)

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isFunctionDefinition(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "gate ")
}

func isReset(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "reset ")
}

func isBarrier(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "barrier ") || strings.HasPrefix(trimmed, "barrier;")
}

func isClassicControlledGate(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "if") && strings.Contains(line, "(") && strings.Contains(line, ")")
}

func isMeasurement(line string) bool {
	return strings.Contains(line, "->")
}

// IsReset, IsBarrier, IsMeasurement and IsFunctionDefinitionCode expose the
// instruction-classification predicates used during preprocessing so
// internal/engine can dispatch on the same rules at execution time.
func IsReset(code string) bool                 { return isReset(code) }
func IsBarrier(code string) bool                { return isBarrier(code) }
func IsMeasurement(code string) bool            { return isMeasurement(code) }
func IsFunctionDefinitionCode(code string) bool { return isFunctionDefinition(code) }
func IsClassicControlledGate(code string) bool  { return isClassicControlledGate(code) }

// ParseClassicControlledGate exposes parseClassicControlledGate for
// internal/engine, which must re-evaluate the condition and re-dispatch
// each inlined operation at execution time.
func ParseClassicControlledGate(code string) ClassicControlledGate {
	return parseClassicControlledGate(code)
}

// ParseParameters exposes parseParameters for internal/engine, which needs
// to recover a single inlined operation's own target list when re-dispatching
// the operations of a classic-controlled gate individually.
func ParseParameters(code string) []string {
	return parseParameters(code)
}

// ParseFunctionDefinition exposes parseFunctionDefinition for
// internal/diagnostics, which needs to recover a gate definition's name from
// its header instruction's Code to find the definition's call sites.
func ParseFunctionDefinition(code string) FunctionDefinition {
	return parseFunctionDefinition(code)
}

func isVariableDeclaration(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "creg ") || strings.HasPrefix(trimmed, "qreg ")
}

// parseFunctionDefinition parses `gate name p0,p1 { ... }`'s header into a
// FunctionDefinition.
func parseFunctionDefinition(signature string) FunctionDefinition {
	flat := strings.ReplaceAll(strings.ReplaceAll(signature, "\n", " "), "\t", " ")
	parts := strings.Fields(flat)

	name := ""
	index := 0
	for i, part := range parts {
		index = i + 1
		if part != "gate" && part != "" {
			name = part
			break
		}
	}

	var paramParts strings.Builder
	for i := index; i < len(parts); i++ {
		paramParts.WriteString(parts[i])
	}
	params := splitNonEmpty(removeWhitespace(paramParts.String()), ',')
	return FunctionDefinition{Name: name, Parameters: params}
}

func removeWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, s)
}

func splitNonEmpty(s string, sep byte) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, string(sep))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		out = append(out, r)
	}
	return out
}

// parseParameters extracts an instruction's ordered target list, handling
// gate definitions, measurements, and classic-controlled gates specially.
func parseParameters(instruction string) []string {
	switch {
	case isFunctionDefinition(instruction):
		return parseFunctionDefinition(instruction).Parameters
	case isMeasurement(instruction):
		before := strings.SplitN(instruction, "-", 2)[0]
		return parseParameters(before)
	case isClassicControlledGate(instruction):
		cc := parseClassicControlledGate(instruction)
		var params []string
		for _, op := range cc.Operations {
			params = append(params, parseParameters(op)...)
		}
		return params
	}

	flat := strings.NewReplacer(";", " ", "\n", " ", "\t", " ").Replace(instruction)
	tokens := strings.Fields(flat)

	index := 0
	openBrackets := 0
	for i, tok := range tokens {
		openBrackets += strings.Count(tok, "(") - strings.Count(tok, ")")
		index = i + 1
		if tok != "" && openBrackets == 0 {
			break
		}
	}

	var paramParts strings.Builder
	for i := index; i < len(tokens); i++ {
		paramParts.WriteString(tokens[i])
	}
	params := splitNonEmpty(removeWhitespace(paramParts.String()), ',')
	if len(params) == 1 && params[0] == "" {
		return nil
	}
	return params
}

// ClassicControlledGate is a parsed `if (cond) { op; op; }` statement.
type ClassicControlledGate struct {
	Condition  string
	Operations []string
}

func parseClassicControlledGate(code string) ClassicControlledGate {
	sanitized := strings.TrimSpace(strings.ReplaceAll(code, "if", ""))
	var condition strings.Builder
	openBrackets := 0
	i := 0
	for ; i < len(sanitized); i++ {
		c := sanitized[i]
		if c == '(' {
			openBrackets++
		} else if c == ')' {
			openBrackets--
		}
		if openBrackets == 0 {
			break
		}
		condition.WriteByte(c)
	}
	rest := ""
	if i+1 <= len(sanitized) {
		rest = sanitized[min2(i+1, len(sanitized)):]
	}
	rest = strings.ReplaceAll(strings.ReplaceAll(rest, "}", ""), "{", "")
	var operations []string
	for _, op := range strings.Split(rest, ";") {
		op = strings.TrimSpace(op)
		if op != "" {
			operations = append(operations, op)
		}
	}
	return ClassicControlledGate{Condition: condition.String(), Operations: operations}
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func isAssertion(line string) bool {
	return assertion.IsAssertionLine(strings.TrimSpace(line))
}

// MeasurementTarget returns the classical destination token of a
// "measure q[0] -> c[0];" statement.
func MeasurementTarget(code string) (string, bool) {
	idx := strings.Index(code, "->")
	if idx == -1 {
		return "", false
	}
	dest := strings.TrimSpace(code[idx+2:])
	dest = strings.TrimSuffix(dest, ";")
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return "", false
	}
	return dest, true
}
