package lang

import (
	"fmt"
	"strings"
)

// removeComments replaces every `//` through end-of-line with spaces,
// preserving character offsets exactly so later offset-based diagnostics
// still point at the right column.
func removeComments(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	i := 0
	for i < len(code) {
		next := strings.Index(code[i:], "//")
		if next == -1 {
			b.WriteString(code[i:])
			break
		}
		next += i
		b.WriteString(code[i:next])
		end := strings.IndexByte(code[next:], '\n')
		if end == -1 {
			end = len(code)
		} else {
			end += next
		}
		b.WriteString(strings.Repeat(" ", end-next))
		i = end
	}
	return b.String()
}

// sweepBlocks walks character by character tracking brace depth; each
// top-level {...} is replaced with a placeholder "$__blockN$;" and its body
// recorded in blocks. Nested blocks remain verbatim inside the outer body.
func sweepBlocks(code string, blocks map[string]string) string {
	result := []byte(code)
	start := 0
	level := 0
	pos := 0
	for pos < len(result) {
		switch result[pos] {
		case '{':
			if level == 0 {
				start = pos
			}
			level++
		case '}':
			level--
			if level == 0 {
				block := string(result[start+1 : pos])
				name := fmt.Sprintf("$__block%d$;", len(blocks))
				blocks[name] = block
				rebuilt := make([]byte, 0, start+len(name)+len(result)-(pos+1))
				rebuilt = append(rebuilt, result[:start]...)
				rebuilt = append(rebuilt, name...)
				rebuilt = append(rebuilt, result[pos+1:]...)
				result = rebuilt
				pos = start
			}
		}
		pos++
	}
	return string(result)
}

// splitFragments splits s on every ';' or '}' occurrence, giving
// sweepFunctionNames one statement-or-block-close fragment per iteration.
func splitFragments(s string) []string {
	var out []string
	cur := strings.Builder{}
	for _, r := range s {
		if r == ';' || r == '}' {
			out = append(out, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// sweepFunctionNames discovers every `gate <name>` signature in the
// block-elided text.
func sweepFunctionNames(code string) []string {
	var names []string
	for _, fragment := range splitFragments(code) {
		if isFunctionDefinition(fragment) {
			names = append(names, parseFunctionDefinition(fragment).Name)
		}
	}
	return names
}
