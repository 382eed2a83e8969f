// Package scheduler provides one-shot timed callbacks. There is no
// cancellation API for individual callbacks: every scheduled callback
// re-checks game state when it fires, so a timer that outlives the game it
// was armed for is harmless.
package scheduler

import (
	"sync"
	"time"
)

type Handle uint64

type Scheduler struct {
	mu     sync.Mutex
	next   Handle
	timers map[Handle]*time.Timer
}

func New() *Scheduler {
	return &Scheduler{timers: make(map[Handle]*time.Timer)}
}

// At arms fn to run once at or after t. A timestamp in the past fires
// immediately.
func (s *Scheduler) At(t time.Time, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	h := s.next
	s.timers[h] = time.AfterFunc(time.Until(t), func() {
		s.remove(h)
		fn()
	})
	return h
}

// Pending reports how many callbacks are armed but not yet fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop discards all armed callbacks. Used only at process shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for h, timer := range s.timers {
		timer.Stop()
		delete(s.timers, h)
	}
}

func (s *Scheduler) remove(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, h)
}
