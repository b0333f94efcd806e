// Package testutil holds helpers shared by the audiolab test suites.
package testutil

import (
	"testing"

	"go.uber.org/goleak"
)

// VerifyNoLeaks fails t if goroutines other than the ignored ones are still
// running. Defer it first thing in tests that start loops, pumps or streams.
func VerifyNoLeaks(t *testing.T, opts ...goleak.Option) {
	t.Helper()
	goleak.VerifyNone(t, opts...)
}

// IgnoreFyneGoroutines skips the driver and animation goroutines a Fyne test
// app leaves behind after its windows are closed.
func IgnoreFyneGoroutines() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreTopFunction("fyne.io/fyne/v2/internal/animation.(*Runner).runAnimations"),
		goleak.IgnoreAnyFunction("fyne.io/fyne/v2/test"),
		goleak.IgnoreAnyFunction("fyne.io/fyne/v2"),
	}
}
