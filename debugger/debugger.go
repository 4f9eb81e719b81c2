// Package debugger is the binding seam between the simulation core
// (internal/engine), the diagnostics engine (internal/diagnostics), and the
// compilation pass (internal/compile): it collects every debugger operation
// onto one public Debugger type, so a single struct owns the pieces a UI
// (here, cmd/qdbg) drives.
package debugger

import (
	"log/slog"

	"qdebugger/internal/compile"
	"qdebugger/internal/diagnostics"
	"qdebugger/internal/engine"
)

// Debugger owns one engine instance and lazily-rebuilt diagnostics and
// compile views over it.
type Debugger struct {
	engine *engine.Engine
}

// Option configures a Debugger at construction time.
type Option func(*Debugger)

// WithLogger installs a structured logger for state-transition and
// parse-error events. Nil reverts to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(d *Debugger) { d.engine.SetLogger(log) }
}

// New creates a Debugger with no program loaded.
func New(opts ...Option) *Debugger {
	d := &Debugger{engine: engine.New()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// --- Lifecycle ---------------------------------------------------------

func (d *Debugger) LoadCode(source string) error { return d.engine.LoadCode(source) }

func (d *Debugger) LoadCodeWithResult(source string) engine.LoadResult {
	return d.engine.LoadCodeWithResult(source)
}

func (d *Debugger) ResetSimulation() { d.engine.ResetSimulation() }

func (d *Debugger) State() engine.State { return d.engine.State() }

// --- Stepping ------------------------------------------------------------

func (d *Debugger) StepForward() error      { return d.engine.StepForward() }
func (d *Debugger) StepBackward() error     { return d.engine.StepBackward() }
func (d *Debugger) StepOverForward() error  { return d.engine.StepOverForward() }
func (d *Debugger) StepOverBackward() error { return d.engine.StepOverBackward() }
func (d *Debugger) StepOutForward() error   { return d.engine.StepOutForward() }
func (d *Debugger) StepOutBackward() error  { return d.engine.StepOutBackward() }
func (d *Debugger) Run() error              { return d.engine.Run() }
func (d *Debugger) RunBackward() error      { return d.engine.RunBackward() }
func (d *Debugger) RunAll() (int, error)    { return d.engine.RunAll() }
func (d *Debugger) Pause()                  { d.engine.Pause() }

// --- Predicates ------------------------------------------------------------

func (d *Debugger) CanStepForward() bool   { return d.engine.CanStepForward() }
func (d *Debugger) CanStepBackward() bool  { return d.engine.CanStepBackward() }
func (d *Debugger) IsFinished() bool       { return d.engine.IsFinished() }
func (d *Debugger) DidAssertionFail() bool { return d.engine.DidAssertionFail() }
func (d *Debugger) WasBreakpointHit() bool { return d.engine.WasBreakpointHit() }

// --- Program-model queries ------------------------------------------------

func (d *Debugger) GetCurrentInstruction() int { return d.engine.GetCurrentInstruction() }
func (d *Debugger) GetInstructionCount() int   { return d.engine.GetInstructionCount() }
func (d *Debugger) GetNumQubits() int          { return d.engine.GetNumQubits() }

func (d *Debugger) GetInstructionPosition(instr int) (start, end int, ok bool) {
	return d.engine.GetInstructionPosition(instr)
}

func (d *Debugger) StackDepth() int                { return d.engine.StackDepth() }
func (d *Debugger) StackTrace(maxDepth int) []int  { return d.engine.StackTrace(maxDepth) }
func (d *Debugger) FailedInstruction() int         { return d.engine.FailedInstruction() }
func (d *Debugger) ZeroControlInstructions() []int { return d.engine.ZeroControlInstructions() }

// --- State access ----------------------------------------------------------

func (d *Debugger) GetAmplitudeIndex(i int) complex128 { return d.engine.GetAmplitudeIndex(i) }

func (d *Debugger) GetAmplitudeBitstring(bits string) (complex128, bool) {
	return d.engine.GetAmplitudeBitstring(bits)
}

func (d *Debugger) GetStateVectorFull() []complex128 { return d.engine.GetStateVectorFull() }

func (d *Debugger) GetStateVectorSub(qubits []int) ([]complex128, error) {
	return d.engine.GetStateVectorSub(qubits)
}

func (d *Debugger) GetClassicalVariable(name string) (engine.Value, bool) {
	return d.engine.GetClassicalVariable(name)
}

func (d *Debugger) GetNumClassicalVariables() int { return d.engine.GetNumClassicalVariables() }

func (d *Debugger) GetClassicalVariableName(i int) (string, bool) {
	return d.engine.GetClassicalVariableName(i)
}

func (d *Debugger) GetQuantumVariableName(i int) (string, bool) {
	return d.engine.GetQuantumVariableName(i)
}

// --- Mutation ----------------------------------------------------------

func (d *Debugger) ChangeClassicalVariable(name string, value engine.Value) error {
	return d.engine.ChangeClassicalVariable(name, value)
}

func (d *Debugger) ChangeAmplitude(bits string, value complex128) error {
	return d.engine.ChangeAmplitude(bits, value)
}

// --- Breakpoints ------------------------------------------------------------

func (d *Debugger) SetBreakpoint(position int) int { return d.engine.SetBreakpoint(position) }
func (d *Debugger) ClearBreakpoints()              { d.engine.ClearBreakpoints() }

// --- Diagnostics -----------------------------------------------------------

// Diagnostics returns a read-only diagnostics view bound to the currently
// loaded program and the live engine snapshot. Valid only once a program has
// been loaded.
func (d *Debugger) Diagnostics() *diagnostics.Diagnostics {
	return diagnostics.New(d.engine.Program, d.engine)
}

// --- Compilation -----------------------------------------------------------

// Compile re-serializes the loaded program back into source text with
// assertions omitted.
func (d *Debugger) Compile(settings compile.Settings) (string, error) {
	return compile.Compile(d.engine.Program, settings)
}
