package engine

import (
	"fmt"
	"strconv"
	"strings"

	"qdebugger/internal/compnum"
	"qdebugger/internal/lang"
)

// stepRecord is one entry of the undo history: prevPC is the program
// counter to restore, undo reverts whatever state change the instruction
// made. Using a targeted closure per step (rather than a full state-vector
// snapshot per instruction) keeps backward stepping cheap over long runs,
// in the spirit of compnum.StateVector.Measure's own restore closure.
type stepRecord struct {
	prevPC int
	undo   func()
}

func (e *Engine) pushHistory(prevPC int, undo func()) {
	e.history = append(e.history, stepRecord{prevPC: prevPC, undo: undo})
}

// StepForward executes the single instruction at the current program
// counter and advances.
func (e *Engine) StepForward() error {
	if !e.CanStepForward() {
		return ErrInvalidOperation
	}
	e.clearStickyFlags()
	return e.stepForwardOnce()
}

// StepBackward implements the dual of StepForward.
func (e *Engine) StepBackward() error {
	if !e.CanStepBackward() {
		return ErrInvalidOperation
	}
	e.clearStickyFlags()
	e.undoLast()
	e.state = Ready
	return nil
}

func (e *Engine) undoLast() {
	rec := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	rec.undo()
	e.pc = rec.prevPC
}

// StepOverForward steps until the call stack has returned to its starting
// depth, treating a gate call as one unit; assertion failures and
// breakpoints still interrupt it.
func (e *Engine) StepOverForward() error {
	if !e.CanStepForward() {
		return ErrInvalidOperation
	}
	e.clearStickyFlags()
	startDepth := len(e.callStack)
	for {
		if err := e.stepForwardOnce(); err != nil {
			return err
		}
		if e.state != Ready {
			return nil
		}
		if len(e.callStack) <= startDepth {
			return nil
		}
	}
}

// StepOutForward steps until the call stack depth decreases by one. At top
// level (no enclosing gate call) there is no depth to decrease out of, so
// it is a no-op returning ErrInvalidOperation rather than silently running
// to completion.
func (e *Engine) StepOutForward() error {
	if !e.CanStepForward() {
		return ErrInvalidOperation
	}
	startDepth := len(e.callStack)
	if startDepth == 0 {
		return ErrInvalidOperation
	}
	e.clearStickyFlags()
	for {
		if err := e.stepForwardOnce(); err != nil {
			return err
		}
		if e.state != Ready {
			return nil
		}
		if len(e.callStack) < startDepth {
			return nil
		}
	}
}

// StepOverBackward is the backward dual of StepOverForward, walking the undo
// history instead of the instruction graph.
func (e *Engine) StepOverBackward() error {
	if !e.CanStepBackward() {
		return ErrInvalidOperation
	}
	e.clearStickyFlags()
	startDepth := len(e.callStack)
	for len(e.history) > 0 {
		e.undoLast()
		e.state = Ready
		if len(e.callStack) <= startDepth {
			return nil
		}
	}
	return nil
}

// StepOutBackward is the backward dual of StepOutForward, walking the undo
// history instead of the instruction graph. Symmetric with StepOutForward at
// top level: there is no enclosing call to unwind out of, so it is a no-op
// returning ErrInvalidOperation.
func (e *Engine) StepOutBackward() error {
	if !e.CanStepBackward() {
		return ErrInvalidOperation
	}
	startDepth := len(e.callStack)
	if startDepth == 0 {
		return ErrInvalidOperation
	}
	e.clearStickyFlags()
	for len(e.history) > 0 {
		e.undoLast()
		e.state = Ready
		if len(e.callStack) < startDepth {
			return nil
		}
	}
	return nil
}

// Run repeatedly steps until Finished, AssertionFailed, BreakpointHit, or a
// pause request.
func (e *Engine) Run() error {
	switch e.state {
	case Ready, Paused, BreakpointHit, AssertionFailed:
	default:
		return ErrInvalidOperation
	}
	e.clearStickyFlags()
	e.pauseRequested.Store(false)
	e.logger().Debug("run started", "pc", e.pc)
	for {
		if e.pauseRequested.Load() {
			e.state = Paused
			return nil
		}
		if e.pc >= len(e.Program.Instructions) {
			e.state = Finished
			return nil
		}
		e.state = Running
		if err := e.stepForwardOnce(); err != nil {
			return err
		}
		switch e.state {
		case AssertionFailed, BreakpointHit, Finished:
			return nil
		}
	}
}

// RunBackward runs step_backward repeatedly until history is exhausted, a
// breakpoint is crossed, or a pause request lands.
func (e *Engine) RunBackward() error {
	switch e.state {
	case Ready, Paused, BreakpointHit, AssertionFailed, Finished:
	default:
		return ErrInvalidOperation
	}
	e.clearStickyFlags()
	e.pauseRequested.Store(false)
	for len(e.history) > 0 {
		if e.pauseRequested.Load() {
			e.state = Paused
			return nil
		}
		e.undoLast()
		if e.breakpoints[e.pc] {
			e.state = BreakpointHit
			e.wasBreakpointHit = true
			return nil
		}
	}
	e.state = Ready
	return nil
}

// RunAll runs to completion counting assertion failures instead of
// stopping on them.
func (e *Engine) RunAll() (int, error) {
	switch e.state {
	case Ready, Paused, BreakpointHit, AssertionFailed:
	default:
		return 0, ErrInvalidOperation
	}
	e.clearStickyFlags()
	e.pauseRequested.Store(false)
	e.runAllFailures = 0
	for {
		if e.pauseRequested.Load() {
			e.state = Paused
			return e.runAllFailures, nil
		}
		if e.pc >= len(e.Program.Instructions) {
			e.state = Finished
			return e.runAllFailures, nil
		}
		e.state = Running
		if err := e.stepForwardOnce(); err != nil {
			return e.runAllFailures, err
		}
		switch e.state {
		case BreakpointHit, Finished:
			return e.runAllFailures, nil
		case AssertionFailed:
			e.runAllFailures++
			e.didAssertionFail = false
			prev := e.pc
			e.pc++
			e.pushHistory(prev, func() {})
			e.state = Ready
		}
	}
}

// Pause requests that a running Run/RunBackward/RunAll stop at the next
// instruction boundary.
func (e *Engine) Pause() {
	e.pauseRequested.Store(true)
}

// stepForwardOnce executes exactly the instruction at the current PC and
// advances: function-definition headers are skipped over, calls push a
// frame, returns pop one, assertions evaluate without moving state, and
// everything else runs through executeCode.
func (e *Engine) stepForwardOnce() error {
	idx := e.pc
	instr := &e.Program.Instructions[idx]
	prevPC := e.pc

	switch {
	case instr.IsFunctionDefinition:
		e.pc = instr.SuccessorIndex
		e.pushHistory(prevPC, func() {})

	case instr.IsReturn():
		if len(e.callStack) == 0 {
			return fmt.Errorf("%w: return with empty call stack at instruction %d", ErrInvalidOperation, idx)
		}
		frame := e.callStack[len(e.callStack)-1]
		e.callStack = e.callStack[:len(e.callStack)-1]
		e.pc = frame.ReturnInstruction + 1
		e.pushHistory(prevPC, func() {
			e.callStack = append(e.callStack, frame)
		})

	case instr.IsFunctionCall:
		frame := CallFrame{ReturnInstruction: prevPC, Substitution: instr.CallSubstitution}
		e.callStack = append(e.callStack, frame)
		e.pc = instr.SuccessorIndex
		e.pushHistory(prevPC, func() {
			e.callStack = e.callStack[:len(e.callStack)-1]
		})

	case instr.Assertion != nil:
		ok, err := e.evaluateAssertion(instr.Assertion)
		if err != nil {
			return err
		}
		if !ok {
			e.state = AssertionFailed
			e.didAssertionFail = true
			e.failedInstruction = idx
			e.logger().Info("assertion failed", "instruction", idx, "kind", instr.Assertion.Kind)
			return nil
		}
		e.pc = prevPC + 1
		e.pushHistory(prevPC, func() {})

	default:
		undo, err := e.executeCode(idx, instr.Code, instr.Targets)
		if err != nil {
			return err
		}
		e.pc = prevPC + 1
		e.pushHistory(prevPC, undo)
	}

	e.afterAdvance()
	return nil
}

func (e *Engine) afterAdvance() {
	if e.pc >= len(e.Program.Instructions) {
		e.state = Finished
		return
	}
	if e.breakpoints[e.pc] {
		e.state = BreakpointHit
		e.wasBreakpointHit = true
		e.logger().Info("breakpoint hit", "instruction", e.pc)
		return
	}
	e.state = Ready
}

// executeCode dispatches one ;-terminated code fragment: the OPENQASM
// header, an include, or a qreg/creg declaration (no runtime effect), a
// measurement, a classic-controlled gate (re-evaluated and re-dispatched
// operation by operation), or a plain gate/reset/barrier.
func (e *Engine) executeCode(idx int, code string, targets []string) (func(), error) {
	trimmed := strings.TrimSpace(code)
	switch {
	case strings.HasPrefix(trimmed, "OPENQASM"), strings.HasPrefix(trimmed, "include"),
		strings.HasPrefix(trimmed, "qreg "), strings.HasPrefix(trimmed, "creg "):
		return func() {}, nil
	case lang.IsMeasurement(trimmed):
		return e.doMeasurement(idx, trimmed, targets)
	case lang.IsClassicControlledGate(trimmed):
		return e.doClassicControlled(idx, trimmed)
	default:
		return e.doGate(idx, trimmed, targets)
	}
}

func (e *Engine) doGate(idx int, code string, targets []string) (func(), error) {
	decoded, err := decodeGateCode(e.Program, e.callStack, code, targets)
	if err != nil {
		return nil, err
	}

	zero := false
	if len(decoded.Controls) > 0 {
		zero = e.vector.AllZeroControls(decoded.Controls)
	}
	prevZero := e.zeroControl[idx]
	e.zeroControl[idx] = zero

	target := decoded.Target
	controls := decoded.Controls
	if len(decoded.Targets) > 0 {
		target = decoded.Targets[len(decoded.Targets)-1]
		controls = decoded.Targets[:len(decoded.Targets)-1]
	}

	var snapshot []complex128
	if !compnum.IsReversible(decoded.Name) {
		snapshot = append([]complex128(nil), e.vector.Amplitudes...)
	}
	e.vector.ApplyGate(decoded.Name, target, controls, decoded.Params)
	return func() {
		if snapshot != nil {
			copy(e.vector.Amplitudes, snapshot)
		} else {
			e.vector.ApplyInverse(decoded.Name, target, controls, decoded.Params)
		}
		e.zeroControl[idx] = prevZero
	}, nil
}

func (e *Engine) doMeasurement(idx int, code string, targets []string) (func(), error) {
	if len(targets) != 1 {
		return nil, fmt.Errorf("%w: measurement at instruction %d needs exactly one qubit target", ErrInvalidOperation, idx)
	}
	qubit, err := resolveQubit(e.Program, e.callStack, targets[0])
	if err != nil {
		return nil, err
	}
	dest, ok := lang.MeasurementTarget(code)
	if !ok {
		return nil, fmt.Errorf("%w: measurement at instruction %d has no destination", ErrInvalidOperation, idx)
	}

	bit, restore := e.vector.Measure(qubit, e.rng)
	oldVal, hadOld := e.classical.Get(dest)
	if err := e.classical.Set(dest, BoolValue(bit == 1)); err != nil {
		restore()
		return nil, err
	}
	e.measurementLog = append(e.measurementLog, MeasurementRecord{
		Instruction: idx,
		Qubit:       qubit,
		Outcome:     bit,
		Destination: dest,
		restore:     restore,
	})

	return func() {
		last := e.measurementLog[len(e.measurementLog)-1]
		e.measurementLog = e.measurementLog[:len(e.measurementLog)-1]
		last.restore()
		if hadOld {
			_ = e.classical.Set(dest, oldVal)
		}
	}, nil
}

func (e *Engine) doClassicControlled(idx int, code string) (func(), error) {
	cc := lang.ParseClassicControlledGate(code)
	taken, err := e.evalCondition(cc.Condition)
	if err != nil {
		return nil, err
	}
	if !taken {
		return func() {}, nil
	}

	var undos []func()
	for _, op := range cc.Operations {
		opTargets := lang.ParseParameters(op)
		undo, err := e.executeCode(idx, op, opTargets)
		if err != nil {
			for i := len(undos) - 1; i >= 0; i-- {
				undos[i]()
			}
			return nil, err
		}
		undos = append(undos, undo)
	}
	return func() {
		for i := len(undos) - 1; i >= 0; i-- {
			undos[i]()
		}
	}, nil
}

// evalCondition evaluates an `if(cond)` condition against the classical
// store: "name==literal" compares a single bit or a whole register
// (bits ordered LSB-first, matching qubit index 0 convention elsewhere); a
// bare name is a truthy check.
func (e *Engine) evalCondition(cond string) (bool, error) {
	cond = strings.TrimSpace(strings.Trim(strings.TrimSpace(cond), "()"))
	eq := strings.Index(cond, "==")
	if eq < 0 {
		v, ok := e.classical.Get(cond)
		if !ok {
			return false, fmt.Errorf("%w: unknown classical condition %q", ErrLookup, cond)
		}
		return valueTruthy(v), nil
	}
	left := strings.TrimSpace(cond[:eq])
	right := strings.TrimSpace(cond[eq+2:])
	want, err := strconv.ParseInt(right, 10, 64)
	if err != nil {
		return false, fmt.Errorf("%w: invalid condition literal %q", ErrInvalidOperation, right)
	}

	if strings.Contains(left, "[") {
		v, ok := e.classical.Get(left)
		if !ok {
			return false, fmt.Errorf("%w: unknown classical variable %q", ErrLookup, left)
		}
		return int64(valueBit(v)) == want, nil
	}

	var value int64
	for k := 0; ; k++ {
		v, ok := e.classical.Get(fmt.Sprintf("%s[%d]", left, k))
		if !ok {
			break
		}
		if valueBit(v) != 0 {
			value |= 1 << uint(k)
		}
	}
	return value == want, nil
}

func valueTruthy(v Value) bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	default:
		return false
	}
}

func valueBit(v Value) int {
	if valueTruthy(v) {
		return 1
	}
	return 0
}
