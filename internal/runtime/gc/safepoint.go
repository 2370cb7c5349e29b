package gc

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// Safepoint implements the pause-requested/parked-threads rendezvous of
// spec.md §5: a collection cycle cannot proceed until every registered
// mutator thread has voluntarily parked, and a parked thread cannot
// resume until the cycle finishes.
type Safepoint struct {
	mu         sync.Mutex
	cond       *sync.Cond
	registered map[*Handle]struct{}
	paused     bool
	parkedN    int
}

// Handle is a mutator thread's registration token.
type Handle struct {
	sp *Safepoint
}

func NewSafepoint() *Safepoint {
	s := &Safepoint{registered: make(map[*Handle]struct{})}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Register enrolls a new mutator thread, returning its Handle.
func (s *Safepoint) Register() *Handle {
	h := &Handle{sp: s}
	s.mu.Lock()
	s.registered[h] = struct{}{}
	s.mu.Unlock()
	return h
}

// Unregister removes a thread, used when it exits so a pending Pause
// doesn't wait on a handle that will never check in again.
func (s *Safepoint) Unregister(h *Handle) {
	s.mu.Lock()
	delete(s.registered, h)
	s.cond.Broadcast()
	s.mu.Unlock()
}

// CheckIn is called by the mutator at a cooperative safepoint — between
// bytecode instructions, and before/after anything that can block
// (Mutex.Lock, Thread.Join) so a waiting collector is never starved by a
// thread that's merely blocked rather than actually running.
func (h *Handle) CheckIn() {
	s := h.sp
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.paused {
		s.parkedN++
		s.cond.Broadcast()
		for s.paused {
			s.cond.Wait()
		}
		s.parkedN--
	}
}

// Pause blocks until every registered thread has parked, then returns
// with the safepoint held open; Resume releases it. The collector itself
// does not register, so it never waits on its own parked count.
func (s *Safepoint) Pause() {
	s.mu.Lock()
	s.paused = true
	want := len(s.registered)
	s.mu.Unlock()

	if want == 0 {
		return
	}

	var g errgroup.Group
	g.Go(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		for s.parkedN < want {
			s.cond.Wait()
		}
		return nil
	})
	_ = g.Wait()
}

// Resume lets every parked thread continue.
func (s *Safepoint) Resume() {
	s.mu.Lock()
	s.paused = false
	s.cond.Broadcast()
	s.mu.Unlock()
}
