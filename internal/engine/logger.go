package engine

import "log/slog"

// logger returns e.log, defaulting to slog.Default() so an Engine built with
// engine.New() (no logger configured) never needs a nil check at call sites.
func (e *Engine) logger() *slog.Logger {
	if e.log != nil {
		return e.log
	}
	return slog.Default()
}

// SetLogger installs a structured logger for state-transition and parse-error
// events. Passing nil reverts to slog.Default().
func (e *Engine) SetLogger(log *slog.Logger) {
	e.log = log
}
