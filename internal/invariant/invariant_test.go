package invariant_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"swiftsmith/internal/invariant"
)

func panicMessage(fn func()) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprint(r)
		}
	}()
	fn()
	return ""
}

func TestAssertionsPassWhenTrue(t *testing.T) {
	assert.NotPanics(t, func() {
		invariant.Precondition(true, "unused")
		invariant.Postcondition(1+1 == 2, "unused")
		invariant.Invariant(len("ab") == 2, "unused")
		invariant.NotNil(&struct{}{}, "value")
	})
}

func TestAssertionsPanicWithKind(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
		want string
	}{
		{"precondition", func() { invariant.Precondition(false, "lhs %q", "a") }, `PRECONDITION VIOLATION: lhs "a"`},
		{"postcondition", func() { invariant.Postcondition(false, "frontier") }, "POSTCONDITION VIOLATION: frontier"},
		{"invariant", func() { invariant.Invariant(false, "depth") }, "INVARIANT VIOLATION: depth"},
		{"nil", func() { invariant.NotNil(nil, "scope") }, "PRECONDITION VIOLATION: scope must not be nil"},
		{"typed nil", func() {
			var p *int
			invariant.NotNil(p, "ptr")
		}, "PRECONDITION VIOLATION: ptr must not be nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := panicMessage(tt.fn)
			assert.Contains(t, msg, tt.want)
			assert.Contains(t, msg, "\n  at ")
		})
	}
}
