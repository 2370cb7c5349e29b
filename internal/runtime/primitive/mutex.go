package primitive

import (
	"sync"
	"time"

	"github.com/emojicode/emojicode/internal/runtime/gc"
)

const mutexTag = "Mutex"

// Mutex wraps a sync.Mutex behind a try-loop that checks in at the
// safepoint between attempts instead of blocking inside Lock, so a
// thread waiting on contended application-level lock still parks
// promptly when the collector wants to run a cycle.
type Mutex struct {
	mu sync.Mutex
}

func NewMutex() *gc.Object {
	return &gc.Object{Tag: mutexTag}
}

// mutexes maps a Mutex-tagged Object to its backing sync.Mutex; the
// gc.Object itself only needs to be traceable and identity-comparable.
var (
	mutexRegistryMu sync.Mutex
	mutexRegistry   = map[*gc.Object]*Mutex{}
)

func mutexFor(o *gc.Object) *Mutex {
	mutexRegistryMu.Lock()
	defer mutexRegistryMu.Unlock()
	m, ok := mutexRegistry[o]
	if !ok {
		m = &Mutex{}
		mutexRegistry[o] = m
	}
	return m
}

// MutexLock acquires o's lock, checking in at h between attempts so a
// thread spinning on a contended mutex still yields to a pending GC
// pause rather than starving it.
func MutexLock(o *gc.Object, h *gc.Handle) {
	m := mutexFor(o)
	for {
		if m.mu.TryLock() {
			return
		}
		h.CheckIn()
		time.Sleep(time.Microsecond)
	}
}

func MutexUnlock(o *gc.Object) {
	mutexFor(o).mu.Unlock()
}

// MutexForget drops o's backing lock once the object becomes
// unreachable, called from the Mutex deinitializer hook.
func MutexForget(o *gc.Object) {
	mutexRegistryMu.Lock()
	delete(mutexRegistry, o)
	mutexRegistryMu.Unlock()
}
