package diagnostics

import (
	"fmt"
	"sort"
	"strings"
)

// Movement is one suggested relocation of an assertion, emitted only when
// new_line < a.line.
type Movement struct {
	AssertionLine int
	NewLine       int
}

// SuggestAssertionMovements scans backward from each assertion's own line
// through the run of immediately preceding, same-scope instructions whose
// targets are disjoint from the assertion's target set; the earliest
// instruction reached by that run is where the assertion could move to
// without changing what it observes. The scan stops at a scope boundary
// (a call, a gate-definition header, a return marker) or at another
// assertion, and at the first instruction whose targets are not disjoint.
func (d *Diagnostics) SuggestAssertionMovements() []Movement {
	owner := d.ownerOf()
	var moves []Movement

	for i, instr := range d.Program.Instructions {
		if instr.Assertion == nil {
			continue
		}
		targetSet := make(map[string]bool, len(instr.Targets))
		for _, t := range instr.Targets {
			targetSet[t] = true
		}
		scope, hasScope := owner[i]

		newLine := i
		for j := i - 1; j >= 0; j-- {
			cand := d.Program.Instructions[j]
			candScope, candHasScope := owner[j]
			if candHasScope != hasScope || candScope != scope {
				break
			}
			if cand.Assertion != nil || cand.IsFunctionCall || cand.IsFunctionDefinition || cand.Code == "RETURN" {
				break
			}
			if !disjointStrings(cand.Targets, targetSet) {
				break
			}
			newLine = j
		}
		if newLine < i {
			moves = append(moves, Movement{AssertionLine: i, NewLine: newLine})
		}
	}
	return moves
}

func disjointStrings(targets []string, set map[string]bool) bool {
	for _, t := range targets {
		if set[t] {
			return false
		}
	}
	return true
}

// NewAssertionSuggestion is one synthesized assertion, to be inserted before
// InsertBefore.
type NewAssertionSuggestion struct {
	InsertBefore int
	Text         string
}

// SuggestNewAssertions locates join points: a structural gate that merges
// two or more previously disjoint interaction groups such that some
// involved qubit's interaction set grows by at least 2 in that single step.
// Groups are tracked with a small map-based union structure rather than a
// general union-find, since qubit counts stay small.
func (d *Diagnostics) SuggestNewAssertions() []NewAssertionSuggestion {
	numQubits := d.Program.NumQubits()
	groupOf := make([]int, numQubits)
	groups := make(map[int]map[int]bool, numQubits)
	for q := 0; q < numQubits; q++ {
		groupOf[q] = q
		groups[q] = map[int]bool{q: true}
	}

	var suggestions []NewAssertionSuggestion
	d.walkInteractions(len(d.Program.Instructions), func(instrIndex int, qubits []int) bool {
		distinct := map[int]bool{}
		for _, q := range qubits {
			if q >= 0 && q < numQubits {
				distinct[groupOf[q]] = true
			}
		}
		if len(distinct) <= 1 {
			return true
		}

		newSize := 0
		var oldSizes []int
		var oldGroupIDs []int
		for gid := range distinct {
			oldSizes = append(oldSizes, len(groups[gid]))
			oldGroupIDs = append(oldGroupIDs, gid)
			newSize += len(groups[gid])
		}

		triggered := false
		for _, sz := range oldSizes {
			if newSize-sz >= 2 {
				triggered = true
				break
			}
		}

		merged := map[int]bool{}
		for _, gid := range oldGroupIDs {
			for q := range groups[gid] {
				merged[q] = true
			}
		}
		newGID := oldGroupIDs[0]
		groups[newGID] = merged
		for q := range merged {
			groupOf[q] = newGID
		}
		for _, gid := range oldGroupIDs[1:] {
			delete(groups, gid)
		}

		if triggered {
			names := make([]string, 0, len(merged))
			qs := make([]int, 0, len(merged))
			for q := range merged {
				qs = append(qs, q)
			}
			sort.Ints(qs)
			for _, q := range qs {
				names = append(names, fmt.Sprintf("q[%d]", q))
			}
			suggestions = append(suggestions, NewAssertionSuggestion{
				InsertBefore: instrIndex + 1,
				Text:         "assert-ent " + strings.Join(names, ", ") + ";",
			})
		}
		return true
	})
	return suggestions
}
