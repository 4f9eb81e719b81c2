package engine

// StackDepth returns the current call stack depth.
func (e *Engine) StackDepth() int { return len(e.callStack) }

// StackTrace returns up to maxDepth return-instruction indices, innermost
// frame first.
func (e *Engine) StackTrace(maxDepth int) []int {
	n := len(e.callStack)
	if maxDepth >= 0 && maxDepth < n {
		n = maxDepth
	}
	trace := make([]int, n)
	for i := 0; i < n; i++ {
		trace[i] = e.callStack[len(e.callStack)-1-i].ReturnInstruction
	}
	return trace
}

// GetCurrentInstruction, GetInstructionCount, GetNumQubits and
// GetInstructionPosition are the read-only program-model queries.
func (e *Engine) GetCurrentInstruction() int { return e.pc }

func (e *Engine) GetInstructionCount() int { return len(e.Program.Instructions) }

func (e *Engine) GetNumQubits() int { return e.Program.NumQubits() }

func (e *Engine) GetInstructionPosition(instr int) (start, end int, ok bool) {
	if instr < 0 || instr >= len(e.Program.Instructions) {
		return 0, 0, false
	}
	in := e.Program.Instructions[instr]
	return in.OriginalStart, in.OriginalEnd, true
}
