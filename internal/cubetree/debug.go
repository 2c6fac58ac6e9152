package cubetree

import (
	"io"
	"log"
	"sync"
)

// Two diagnostic streams, both disabled by default. Ops carries growth
// warnings and invariant diagnostics worth acting on; trace carries
// high-frequency split/growth/relocation telemetry.
var (
	logMu       sync.RWMutex
	opsLogger   *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures the diagnostic streams. Pass nil for a writer to
// disable that stream.
func SetLogWriters(ops, trace io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	opsLogger = newLogger(ops)
	traceLogger = newLogger(trace)
}

func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, "[cubetree] ", log.LstdFlags|log.Lmicroseconds)
}

// Opsf logs to the ops stream.
func Opsf(format string, args ...interface{}) {
	logMu.RLock()
	l := opsLogger
	logMu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Tracef logs to the trace stream.
func Tracef(format string, args ...interface{}) {
	logMu.RLock()
	l := traceLogger
	logMu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}
