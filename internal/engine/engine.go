package engine

import (
	"log/slog"
	"math/rand"
	"sync/atomic"

	"qdebugger/internal/compnum"
	"qdebugger/internal/lang"
)

// CallFrame is one entry of the call stack.
type CallFrame struct {
	ReturnInstruction int
	Substitution      map[string]string
}

// MeasurementRecord is one entry of the measurement log, holding the
// closure that exactly restores the pre-measurement amplitudes.
type MeasurementRecord struct {
	Instruction int
	Qubit       int
	Outcome     int
	Destination string
	restore     func()
}

// LoadResult is a structured parse outcome that never requires a type
// switch on error across the public API boundary.
type LoadResult struct {
	OK          bool
	ErrorLine   int
	ErrorColumn int
	Detail      string
}

// Engine owns the live simulation: program counter, call stack, state
// vector, classical store, measurement log, breakpoints, and the
// zero-control bitmap.
type Engine struct {
	Program *lang.Program

	state State

	pc        int
	callStack []CallFrame

	vector    *compnum.StateVector
	classical *ClassicalStore

	measurementLog []MeasurementRecord
	zeroControl    []bool
	breakpoints    map[int]bool

	history []stepRecord

	rng *rand.Rand

	didAssertionFail  bool
	wasBreakpointHit  bool
	failedInstruction int

	runAllFailures int

	pauseRequested atomic.Bool

	log *slog.Logger
}

// New creates an Engine in the Loaded state with no program.
func New() *Engine {
	return &Engine{state: Loaded, breakpoints: map[int]bool{}, failedInstruction: -1, rng: rand.New(rand.NewSource(1))}
}

// LoadCode preprocesses source and, on success, resets the simulation to
// Ready. On failure the engine remains Loaded and the *lang.ParsingError is
// returned.
func (e *Engine) LoadCode(source string) error {
	prog, err := lang.Preprocess(source)
	if err != nil {
		e.state = Loaded
		e.logger().Warn("parse failed", "error", err)
		return err
	}
	e.Program = prog
	e.resetState()
	e.state = Ready
	e.logger().Debug("program loaded", "instructions", len(prog.Instructions), "qubits", prog.NumQubits())
	return nil
}

// LoadCodeWithResult is LoadCode with a structured, non-error result
// surface for hosts that prefer not to type-switch on error.
func (e *Engine) LoadCodeWithResult(source string) LoadResult {
	err := e.LoadCode(source)
	if err == nil {
		return LoadResult{OK: true}
	}
	if pe, ok := err.(*lang.ParsingError); ok {
		return LoadResult{ErrorLine: pe.Line, ErrorColumn: pe.Column, Detail: pe.Detail}
	}
	return LoadResult{Detail: err.Error()}
}

// ResetSimulation re-creates the mutable runtime state while keeping the
// frozen instruction graph, so the same loaded program can be re-run from
// scratch.
func (e *Engine) ResetSimulation() {
	if e.Program == nil {
		return
	}
	e.resetState()
	e.state = Ready
}

func (e *Engine) resetState() {
	numQubits := e.Program.NumQubits()
	if numQubits < 1 {
		numQubits = 1
	}
	e.vector = compnum.New(numQubits)
	e.classical = NewClassicalStore()
	for _, r := range e.Program.ClassicalRegisters {
		e.classical.DeclareRegister(r.Name, r.Size)
	}
	e.pc = 0
	e.callStack = nil
	e.measurementLog = nil
	e.history = nil
	e.zeroControl = make([]bool, len(e.Program.Instructions))
	e.didAssertionFail = false
	e.wasBreakpointHit = false
	e.failedInstruction = -1
	e.runAllFailures = 0
}

// State returns the engine's current state-machine state.
func (e *Engine) State() State { return e.state }

// ProgramCounter returns the current instruction index.
func (e *Engine) ProgramCounter() int { return e.pc }

// StateVector returns the live state vector. Callers other than the
// engine itself should treat it as read-only.
func (e *Engine) StateVector() *compnum.StateVector { return e.vector }

// Classical returns the live classical store.
func (e *Engine) Classical() *ClassicalStore { return e.classical }

// DidAssertionFail and WasBreakpointHit are sticky one-shot flags, cleared
// on the next step call.
func (e *Engine) DidAssertionFail() bool { return e.didAssertionFail }
func (e *Engine) WasBreakpointHit() bool { return e.wasBreakpointHit }

func (e *Engine) clearStickyFlags() {
	e.didAssertionFail = false
	e.wasBreakpointHit = false
}

// IsFinished reports whether the engine has reached the Finished state.
func (e *Engine) IsFinished() bool { return e.state == Finished }

// CanStepForward and CanStepBackward report whether the corresponding step
// call would currently succeed.
func (e *Engine) CanStepForward() bool {
	switch e.state {
	case Ready, Paused, BreakpointHit, AssertionFailed:
		return e.pc < len(e.Program.Instructions)
	default:
		return false
	}
}

func (e *Engine) CanStepBackward() bool {
	switch e.state {
	case Ready, Paused, BreakpointHit, AssertionFailed, Finished:
		return len(e.history) > 0
	default:
		return false
	}
}

// ZeroControlInstructions returns the indices flagged by zero-control
// detection.
func (e *Engine) ZeroControlInstructions() []int {
	var out []int
	for i, v := range e.zeroControl {
		if v {
			out = append(out, i)
		}
	}
	return out
}

// FailedInstruction returns the instruction index the engine was at when
// it last transitioned into AssertionFailed, or -1.
func (e *Engine) FailedInstruction() int { return e.failedInstruction }
