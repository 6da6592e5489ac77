// Package manual is a hand-driven clock for tests: nothing fires until
// Advance moves time forward.
package manual

import (
	"sync"
	"time"

	"metroterminal/internal/app/ports"
)

type timer struct {
	id       ports.TimerID
	due      time.Time
	interval time.Duration
	fn       func()
}

type Scheduler struct {
	mu     sync.Mutex
	now    time.Time
	nextID ports.TimerID
	timers map[ports.TimerID]*timer
}

func New(start time.Time) *Scheduler {
	return &Scheduler{now: start, timers: map[ports.TimerID]*timer{}}
}

func (s *Scheduler) Every(interval time.Duration, fn func()) ports.TimerID {
	if interval <= 0 || fn == nil {
		return 0
	}
	return s.add(interval, interval, fn)
}

func (s *Scheduler) After(delay time.Duration, fn func()) ports.TimerID {
	if fn == nil {
		return 0
	}
	if delay < 0 {
		delay = 0
	}
	return s.add(delay, 0, fn)
}

func (s *Scheduler) add(delay, interval time.Duration, fn func()) ports.TimerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.timers[s.nextID] = &timer{id: s.nextID, due: s.now.Add(delay), interval: interval, fn: fn}
	return s.nextID
}

func (s *Scheduler) Cancel(id ports.TimerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, id)
}

func (s *Scheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Advance moves the clock by d, firing due timers in due-time order. Timers
// scheduled or cancelled by callbacks are honored within the same call.
func (s *Scheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	for {
		t := s.earliestDue(target)
		if t == nil {
			break
		}
		s.now = t.due
		if t.interval > 0 {
			t.due = t.due.Add(t.interval)
		} else {
			delete(s.timers, t.id)
		}
		fn := t.fn
		s.mu.Unlock()
		fn()
		s.mu.Lock()
	}
	s.now = target
	s.mu.Unlock()
}

func (s *Scheduler) earliestDue(limit time.Time) *timer {
	var best *timer
	for _, t := range s.timers {
		if t.due.After(limit) {
			continue
		}
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.id < best.id) {
			best = t
		}
	}
	return best
}
