// Package invariant holds the contract assertions used across the generator.
//
// A failed assertion is a bug in the grammar or tree-building code that called
// into the engine, never a condition to recover from, so every check panics.
package invariant

import (
	"fmt"
	"reflect"
	"runtime"
)

// Precondition panics with PRECONDITION VIOLATION when cond is false.
func Precondition(cond bool, format string, args ...any) {
	if !cond {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition panics with POSTCONDITION VIOLATION when cond is false.
func Postcondition(cond bool, format string, args ...any) {
	if !cond {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant panics with INVARIANT VIOLATION when cond is false.
func Invariant(cond bool, format string, args ...any) {
	if !cond {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics when value is nil, including typed nil pointers held in an interface.
func NotNil(value any, name string) {
	if value == nil {
		fail("PRECONDITION", "%s must not be nil", name)
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		if v.IsNil() {
			fail("PRECONDITION", "%s must not be nil", name)
		}
	}
}

// ExpectNoError panics when an operation that cannot fail for well-formed
// input returned an error.
func ExpectNoError(err error, what string) {
	if err != nil {
		fail("POSTCONDITION", "%s must not fail: %v", what, err)
	}
}

func fail(kind, format string, args ...any) {
	msg := fmt.Sprintf("%s VIOLATION: %s", kind, fmt.Sprintf(format, args...))

	pc := make([]uintptr, 4)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])
	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}
	panic(msg)
}
