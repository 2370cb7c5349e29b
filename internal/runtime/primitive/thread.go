package primitive

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/emojicode/emojicode/internal/runtime/gc"
)

const threadTag = "Thread"

// threadLimit caps how many Emojicode Thread objects may run their body
// concurrently, independent of GOMAXPROCS — spec.md §4.K bounds
// concurrent thread execution rather than leaving it to the host
// scheduler unchecked.
const threadLimit = 64

var threadSem = semaphore.NewWeighted(threadLimit)

// Thread is the runtime state backing a Thread-tagged Object: the
// goroutine running its body, its safepoint registration, and the
// result slot Join reads once the goroutine finishes.
type Thread struct {
	ID     uuid.UUID
	handle *gc.Handle
	done   chan struct{}
	result gc.Something
	err    error
}

var (
	threadRegistryMu sync.Mutex
	threadRegistry   = map[*gc.Object]*Thread{}
)

// NewThread allocates a Thread-tagged Object and starts body running on
// its own goroutine, gated by threadSem so at most threadLimit bodies
// run at once. body receives the Handle it must call CheckIn on at its
// own cooperative safepoints (the interpreter's instruction-dispatch
// loop does this on every iteration for bytecode bodies).
func NewThread(sp *gc.Safepoint, body func(h *gc.Handle) (gc.Something, error)) *gc.Object {
	o := &gc.Object{Tag: threadTag}
	t := &Thread{ID: uuid.New(), handle: sp.Register(), done: make(chan struct{})}

	threadRegistryMu.Lock()
	threadRegistry[o] = t
	threadRegistryMu.Unlock()

	go func() {
		defer close(t.done)
		defer sp.Unregister(t.handle)
		ctx := context.Background()
		if err := threadSem.Acquire(ctx, 1); err != nil {
			t.err = err
			return
		}
		defer threadSem.Release(1)
		t.result, t.err = body(t.handle)
	}()

	return o
}

// ThreadJoin blocks the calling thread until target finishes, checking
// in at caller's own safepoint while waiting so a collector pause isn't
// blocked on a thread that is merely joining another.
func ThreadJoin(target *gc.Object, caller *gc.Handle) (gc.Something, error) {
	threadRegistryMu.Lock()
	t := threadRegistry[target]
	threadRegistryMu.Unlock()
	if t == nil {
		return gc.Nothingness(), nil
	}
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return t.result, t.err
		case <-ticker.C:
			caller.CheckIn()
		}
	}
}

func ThreadForget(o *gc.Object) {
	threadRegistryMu.Lock()
	delete(threadRegistry, o)
	threadRegistryMu.Unlock()
}
