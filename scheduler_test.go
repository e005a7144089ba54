package main

import "testing"

func TestSchedulerDispatchesDueEntriesInOrder(t *testing.T) {
	s := NewScheduler()
	var fired []string

	a := s.Register("a", func(at TState) { fired = append(fired, "a") })
	b := s.Register("b", func(at TState) { fired = append(fired, "b") })

	s.Add(10, b)
	s.Add(5, a)
	s.Add(5, b)

	s.ForceEvents(20)

	if len(fired) != 3 {
		t.Fatalf("fired = %v, want 3 entries", fired)
	}
	// due_tstate 5 entries fire before due_tstate 10, FIFO among ties.
	if fired[0] != "a" || fired[1] != "b" || fired[2] != "b" {
		t.Fatalf("fired = %v, want [a b b]", fired)
	}
}

func TestSchedulerForceEventsLeavesFutureEntriesQueued(t *testing.T) {
	s := NewScheduler()
	kind := s.Register("x", func(at TState) {})
	s.Add(100, kind)

	s.ForceEvents(50)
	if !s.Pending(kind) {
		t.Fatalf("entry due at 100 should still be pending after ForceEvents(50)")
	}

	s.ForceEvents(100)
	if s.Pending(kind) {
		t.Fatalf("entry due at 100 should have fired by ForceEvents(100)")
	}
}

func TestSchedulerFrameRebasesAndClampsAtZero(t *testing.T) {
	s := NewScheduler()
	kind := s.Register("x", func(at TState) {})
	s.Add(50, kind)
	s.Add(5, kind)

	s.Frame(69888)

	if s.Len() != 2 {
		t.Fatalf("Frame should not drop entries, Len() = %d", s.Len())
	}
	s.ForceEvents(0)
	if s.Pending(kind) {
		t.Fatalf("entries rebased below zero should be clamped to 0 and fire immediately")
	}
}

func TestSchedulerAddWithUnregisteredKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic adding an unregistered event kind")
		}
	}()
	s := NewScheduler()
	s.Add(0, EventKind(99))
}
