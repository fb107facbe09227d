package fault

import (
	"fmt"
	"time"
)

// Violation is the panic value raised by a failed Assert. It carries enough
// context for a top-level Guard to report and reset without needing to
// unwind through typed error returns at event boundaries.
type Violation struct {
	Code   Code
	Op     string // the operation/handler that detected the violation
	Detail string
	TS     time.Time
}

func (v Violation) Error() string {
	if v.Detail == "" {
		return fmt.Sprintf("%s: %s", v.Op, v.Code)
	}
	return fmt.Sprintf("%s: %s: %s", v.Op, v.Code, v.Detail)
}

// Assert panics with a Violation if cond is false. Used at every point a
// condition is a hard contract violation, or a handler must treat an
// unexpected signal as fatal.
func Assert(cond bool, code Code, op, detail string) {
	if !cond {
		panic(Violation{Code: code, Op: op, Detail: detail, TS: time.Now()})
	}
}

// Assertf is Assert with a formatted detail message, evaluated lazily only
// on failure so the common (passing) path pays no formatting cost.
func Assertf(cond bool, code Code, op, format string, args ...any) {
	if !cond {
		panic(Violation{Code: code, Op: op, Detail: fmt.Sprintf(format, args...), TS: time.Now()})
	}
}

// Guard wraps fn, recovering any Violation panic and handing it to onFatal
// instead of letting it propagate. It is the stand-in, on a hosted
// simulation, for "system reset via fault handler that disables
// interrupts, turns off an indicator LED, and resets": onFatal is expected
// to stop further dispatch and report the violation, not to resume fn.
//
// Non-Violation panics are re-raised unchanged: Guard only absorbs the
// specific fatal-assertion vocabulary this package defines, never arbitrary
// programmer error.
func Guard(onFatal func(Violation), fn func()) {
	defer func() {
		if r := recover(); r != nil {
			v, ok := r.(Violation)
			if !ok {
				panic(r)
			}
			onFatal(v)
		}
	}()
	fn()
}
