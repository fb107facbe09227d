package fault

import "testing"

func TestAssertPasses(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("unexpected panic on a true condition: %v", r)
		}
	}()
	Assert(true, CodeQueueOverflow, "op", "")
}

func TestAssertFailsWithViolation(t *testing.T) {
	defer func() {
		r := recover()
		v, ok := r.(Violation)
		if !ok {
			t.Fatalf("expected a Violation panic, got %#v", r)
		}
		if v.Code != CodeQueueOverflow || v.Op != "spimgr.PostRequest" {
			t.Fatalf("unexpected violation fields: %+v", v)
		}
	}()
	Assert(false, CodeQueueOverflow, "spimgr.PostRequest", "fifo full")
}

func TestAssertfFormatsDetailOnlyOnFailure(t *testing.T) {
	defer func() {
		r := recover()
		v, ok := r.(Violation)
		if !ok {
			t.Fatalf("expected a Violation panic, got %#v", r)
		}
		if v.Detail != "job 7 exceeds 16 bytes" {
			t.Fatalf("unexpected detail: %q", v.Detail)
		}
	}()
	Assertf(false, CodeInvalidJob, "spimgr.PostRequest", "job %d exceeds %d bytes", 7, 16)
}

func TestGuardAbsorbsViolationAndCallsOnFatal(t *testing.T) {
	var got Violation
	called := false
	Guard(func(v Violation) {
		called = true
		got = v
	}, func() {
		Assert(false, CodeUnexpectedEvent, "spimgr.run", "COMPLETE while READY")
	})
	if !called {
		t.Fatal("onFatal was not invoked")
	}
	if got.Code != CodeUnexpectedEvent {
		t.Fatalf("unexpected code: %v", got.Code)
	}
}

func TestGuardRepanicsNonViolation(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected the non-Violation panic to propagate")
		}
		if _, ok := r.(Violation); ok {
			t.Fatal("unexpected Violation; wanted the raw panic value")
		}
	}()
	Guard(func(Violation) {
		t.Fatal("onFatal must not be called for a non-Violation panic")
	}, func() {
		panic("ordinary bug, not a contract violation")
	})
}

func TestOf(t *testing.T) {
	if c, ok := Of(CodeHardwareSubmit); !ok || c != CodeHardwareSubmit {
		t.Fatalf("Of(Code) should round-trip: got %v, %v", c, ok)
	}
	if _, ok := Of(nil); ok {
		t.Fatal("Of(nil) should report false")
	}
}
