package realtime

import (
	"sync"
	"time"

	"metroterminal/internal/app/ports"
)

type entry struct {
	t *time.Timer
}

// Scheduler runs callbacks on wall-clock timers. Every callback goes through
// dispatch, which the session uses to serialize callbacks with requests.
type Scheduler struct {
	mu       sync.Mutex
	dispatch func(func())
	nextID   ports.TimerID
	timers   map[ports.TimerID]*entry
	now      func() time.Time
}

func New(dispatch func(func())) *Scheduler {
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &Scheduler{
		dispatch: dispatch,
		timers:   map[ports.TimerID]*entry{},
		now:      time.Now,
	}
}

// SetDispatch swaps the dispatcher; the session installs its loop here
// after construction.
func (s *Scheduler) SetDispatch(dispatch func(func())) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dispatch != nil {
		s.dispatch = dispatch
	}
}

func (s *Scheduler) Every(interval time.Duration, fn func()) ports.TimerID {
	if interval <= 0 || fn == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	e := &entry{}
	e.t = time.AfterFunc(interval, func() {
		s.fire(id, false, fn)
		s.mu.Lock()
		defer s.mu.Unlock()
		if cur, ok := s.timers[id]; ok && cur == e {
			e.t.Reset(interval)
		}
	})
	s.timers[id] = e
	return id
}

func (s *Scheduler) After(delay time.Duration, fn func()) ports.TimerID {
	if fn == nil {
		return 0
	}
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	e := &entry{}
	e.t = time.AfterFunc(delay, func() {
		s.fire(id, true, fn)
	})
	s.timers[id] = e
	return id
}

func (s *Scheduler) Cancel(id ports.TimerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.timers[id]; ok {
		e.t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) Now() time.Time {
	return s.now()
}

// Close stops every timer; pending callbacks are dropped.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.timers {
		e.t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) fire(id ports.TimerID, once bool, fn func()) {
	s.mu.Lock()
	dispatch := s.dispatch
	s.mu.Unlock()
	dispatch(func() {
		s.mu.Lock()
		_, live := s.timers[id]
		if live && once {
			delete(s.timers, id)
		}
		s.mu.Unlock()
		if live {
			fn()
		}
	})
}
