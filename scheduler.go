// scheduler.go - the event scheduler (§4.1): a priority queue of
// (due_tstate, event_kind) entries, dispatched at every instruction boundary.

package main

// EventKind is an opaque handle returned by Scheduler.Register.
type EventKind int

// EventCallback is invoked when a scheduled entry's due time has passed. It
// receives the T-state at which it was actually dispatched.
type EventCallback func(at TState)

type schedulerHandler struct {
	label    string
	callback EventCallback
}

type schedulerEntry struct {
	dueTstate TState
	kind      EventKind
	seq       uint64 // insertion order, for FIFO tie-break
}

// Scheduler is the single owner of all pending peripheral/interrupt events
// for one Machine. It is not safe for concurrent use — the driver thread is
// the only mutator (§5).
type Scheduler struct {
	handlers []schedulerHandler
	queue    []schedulerEntry
	nextSeq  uint64
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Register installs a callback handler and returns its opaque kind id. Done
// once per event kind at startup.
func (s *Scheduler) Register(label string, cb EventCallback) EventKind {
	s.handlers = append(s.handlers, schedulerHandler{label: label, callback: cb})
	return EventKind(len(s.handlers) - 1)
}

// Add enqueues a new entry due at the given T-state. Scheduling into the past
// is legal: the entry fires at the next ForceEvents call.
func (s *Scheduler) Add(dueTstate TState, kind EventKind) {
	if int(kind) < 0 || int(kind) >= len(s.handlers) {
		panic("scheduler: add with unregistered event kind")
	}
	s.queue = append(s.queue, schedulerEntry{dueTstate: dueTstate, kind: kind, seq: s.nextSeq})
	s.nextSeq++
}

// Frame subtracts frameLength from every queued entry's due_tstate, clamping
// negatives to zero. Rebases the scheduler's notion of "now" at frame end
// without risking wraparound of the T-state counter.
func (s *Scheduler) Frame(frameLength TState) {
	for i := range s.queue {
		s.queue[i].dueTstate -= frameLength
		if s.queue[i].dueTstate < 0 {
			s.queue[i].dueTstate = 0
		}
	}
}

// ForceEvents dispatches every entry whose due_tstate <= current, in
// due-time order (FIFO among ties), removing them from the queue. Called
// implicitly between every CPU instruction boundary.
func (s *Scheduler) ForceEvents(current TState) {
	for {
		idx := -1
		for i, e := range s.queue {
			if e.dueTstate > current {
				continue
			}
			if idx == -1 {
				idx = i
				continue
			}
			if e.dueTstate < s.queue[idx].dueTstate ||
				(e.dueTstate == s.queue[idx].dueTstate && e.seq < s.queue[idx].seq) {
				idx = i
			}
		}
		if idx == -1 {
			return
		}
		entry := s.queue[idx]
		s.queue = append(s.queue[:idx], s.queue[idx+1:]...)
		h := s.handlers[entry.kind]
		h.callback(current)
	}
}

// Pending reports whether any entry is currently queued for the given kind.
// Used by tests asserting §8's scheduler invariants.
func (s *Scheduler) Pending(kind EventKind) bool {
	for _, e := range s.queue {
		if e.kind == kind {
			return true
		}
	}
	return false
}

// Len reports the number of queued entries. Test helper.
func (s *Scheduler) Len() int {
	return len(s.queue)
}
