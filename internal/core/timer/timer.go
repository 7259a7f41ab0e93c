// Package timer implements a virtual-time scheduler for delayed and repeating
// state machine events. Time only moves when the owner calls Advance, which
// keeps every machine deterministic under test and lets the server drive it
// from its wall-clock ticker.
package timer

import "time"

// Fired describes a timer that came due during Advance.
type Fired[E any] struct {
	ID    string
	At    time.Duration // virtual time the timer fired at
	Event E
}

type entry[E any] struct {
	at       time.Duration
	interval time.Duration // zero for one-shot timers
	seq      uint64
	event    E
}

// Scheduler owns a set of named timers. Starting a timer with an id that is
// already scheduled replaces it.
type Scheduler[E any] struct {
	now    time.Duration
	seq    uint64
	timers map[string]*entry[E]
}

func NewScheduler[E any]() *Scheduler[E] {
	return &Scheduler[E]{timers: make(map[string]*entry[E])}
}

// Now returns the scheduler's virtual clock.
func (s *Scheduler[E]) Now() time.Duration { return s.now }

// After schedules a one-shot timer. Negative delays fire on the next Advance.
func (s *Scheduler[E]) After(id string, d time.Duration, ev E) {
	if d < 0 {
		d = 0
	}
	s.seq++
	s.timers[id] = &entry[E]{at: s.now + d, seq: s.seq, event: ev}
}

// Every schedules a repeating timer. Intervals under a millisecond are clamped.
func (s *Scheduler[E]) Every(id string, interval time.Duration, ev E) {
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	s.seq++
	s.timers[id] = &entry[E]{at: s.now + interval, interval: interval, seq: s.seq, event: ev}
}

// Cancel stops a timer. Returns false if no such timer was scheduled.
func (s *Scheduler[E]) Cancel(id string) bool {
	if _, ok := s.timers[id]; !ok {
		return false
	}
	delete(s.timers, id)
	return true
}

// Active reports whether id is scheduled.
func (s *Scheduler[E]) Active(id string) bool {
	_, ok := s.timers[id]
	return ok
}

func (s *Scheduler[E]) Len() int { return len(s.timers) }

// Clear cancels every timer. The clock is left untouched.
func (s *Scheduler[E]) Clear() {
	for id := range s.timers {
		delete(s.timers, id)
	}
}

// NextDue returns the delay until the earliest timer fires.
func (s *Scheduler[E]) NextDue() (time.Duration, bool) {
	_, e := s.earliest()
	if e == nil {
		return 0, false
	}
	return e.at - s.now, true
}

// Advance moves the clock forward by d, firing due timers one at a time in
// due order (ties broken by scheduling order). fire may start or cancel
// timers; the changes are honored for the remainder of the window.
// Returns the number of timers fired.
func (s *Scheduler[E]) Advance(d time.Duration, fire func(Fired[E])) int {
	if d < 0 {
		d = 0
	}
	target := s.now + d
	n := 0
	for {
		id, e := s.earliest()
		if e == nil || e.at > target {
			break
		}
		s.now = e.at
		if e.interval > 0 {
			e.at += e.interval
			s.seq++
			e.seq = s.seq
		} else {
			delete(s.timers, id)
		}
		n++
		if fire != nil {
			fire(Fired[E]{ID: id, At: s.now, Event: e.event})
		}
	}
	s.now = target
	return n
}

func (s *Scheduler[E]) earliest() (string, *entry[E]) {
	var (
		bestID string
		best   *entry[E]
	)
	for id, e := range s.timers {
		if best == nil || e.at < best.at || (e.at == best.at && e.seq < best.seq) {
			bestID, best = id, e
		}
	}
	return bestID, best
}
