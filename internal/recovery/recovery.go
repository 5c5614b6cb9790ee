// internal/recovery/recovery.go
package recovery

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
)

// ErrPanic marks an error recovered from a panic by Guard
var ErrPanic = errors.New("panic")

// HandlePanic should be deferred at the top of main() or goroutines.
// It logs panic details and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		fatal(r)
	}
}

// HandlePanicFunc logs panic details and calls the provided cleanup function
// before exiting. Use it where the terminal or an audio device must be
// restored first.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		if cleanup != nil {
			cleanup()
		}
		fatal(r)
	}
}

func fatal(r any) {
	_, _ = fmt.Fprintf(os.Stderr, "FATAL: %v\n\nStack trace:\n%s\n", r, debug.Stack())
	os.Exit(1)
}

// Go runs fn on a new goroutine guarded by HandlePanicFunc(cleanup).
func Go(fn func(), cleanup func()) {
	go func() {
		defer HandlePanicFunc(cleanup)
		fn()
	}()
}

// Guard runs fn and turns a panic into an error wrapping ErrPanic, so the
// caller can unwind normally.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanic, r, debug.Stack())
		}
	}()
	return fn()
}
