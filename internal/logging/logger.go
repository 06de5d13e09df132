// Package logging provides the leveled console output used across safeget.
//
// Every message carries a threshold level; it is only emitted when the
// logger's configured verbosity meets or exceeds that threshold. The logger
// is passed explicitly to the components that need it instead of living in
// package-level state.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level is a verbosity threshold.
type Level int

// Verbosity levels, lowest to highest. Failure warnings are emitted at
// LevelProgress so the default verbosity surfaces them; LevelWarning gates
// transient detail such as per-retry notices.
const (
	LevelQuiet Level = iota
	LevelProgress
	LevelWarning
	LevelDebug
)

// Logger writes leveled messages to a single output stream.
type Logger struct {
	verbosity Level
	out       io.Writer
	mu        sync.Mutex
}

// New creates a Logger with the given verbosity. If out is nil, os.Stderr
// is used.
func New(verbosity Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{verbosity: verbosity, out: out}
}

// Enabled reports whether messages at the given threshold would be emitted.
func (l *Logger) Enabled(thr Level) bool {
	return l != nil && l.verbosity >= thr
}

// Infof emits an informational message if verbosity >= thr.
func (l *Logger) Infof(thr Level, format string, args ...any) {
	if !l.Enabled(thr) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[safeget] "+format+"\n", args...)
}

// Warnf emits a warning message if verbosity >= thr.
func (l *Logger) Warnf(thr Level, format string, args ...any) {
	if !l.Enabled(thr) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[safeget] warning: "+format+"\n", args...)
}
