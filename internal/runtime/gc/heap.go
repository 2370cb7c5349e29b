package gc

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrHeapExhausted and ErrAllocationTooLarge are the two allocation
// failure modes spec.md §7 lists among the runtime's aborting errors.
var (
	ErrHeapExhausted      = fmt.Errorf("gc: heap exhausted")
	ErrAllocationTooLarge = fmt.Errorf("gc: allocation exceeds heap threshold")
)

// Heap owns every live Object and the safepoint-gated collection cycle.
// threshold bounds the logical size (counted in instance-variable slots
// plus raw payload words, not bytes) a single generation may hold before
// a cycle is forced.
type Heap struct {
	threshold int
	used      int
	cycles    int

	live  map[*Object]struct{}
	hooks Hooks

	safepoint *Safepoint
	log       *logrus.Entry
}

// NewHeap allocates an empty Heap. log may be nil, in which case a
// discarding entry is used so call sites never need a nil check.
func NewHeap(threshold int, hooks Hooks, log *logrus.Entry) *Heap {
	if log == nil {
		l := logrus.New()
		l.SetOutput(logDiscard{})
		log = logrus.NewEntry(l)
	}
	return &Heap{
		threshold: threshold,
		live:      make(map[*Object]struct{}),
		hooks:     hooks,
		safepoint: NewSafepoint(),
		log:       log,
	}
}

type logDiscard struct{}

func (logDiscard) Write(p []byte) (int, error) { return len(p), nil }

// Safepoint exposes the Heap's coordination object so runtime threads
// can register/park against it.
func (h *Heap) Safepoint() *Safepoint { return h.safepoint }

// size is the logical cost charged against the threshold: the
// instance-variable count plus a constant per-object header charge, so
// that zero-ivar objects (enum-backed markers, empty raw arrays) still
// consume heap budget.
func size(ivarCount int) int { return ivarCount + 1 }

// Allocate reserves space for a new Object with ivarCount instance
// variables, running a collection cycle first if the budget would
// otherwise be exceeded. roots supplies every currently-reachable
// Something the caller can see (thread stacks, in-flight registers) —
// the same role spec.md §4.H assigns to "every thread's stack".
func (h *Heap) Allocate(classIndex int, tag string, ivarCount int, roots func() []Something) (*Object, error) {
	n := size(ivarCount)
	if n > h.threshold {
		return nil, ErrAllocationTooLarge
	}
	if h.used+n > h.threshold {
		h.Collect(roots)
		if h.used+n > h.threshold {
			return nil, ErrHeapExhausted
		}
	}
	obj := &Object{ClassIndex: classIndex, Tag: tag, IVars: make([]Something, ivarCount)}
	h.live[obj] = struct{}{}
	h.used += n
	return obj, nil
}

// Collect runs one stop-the-world cycle: every mutator thread parks at
// the safepoint, every object reachable from roots is marked and its
// class marker callback (if any) invoked exactly once, and every
// unreached object's deinitializer (if any) runs exactly once before it
// is dropped from the live set.
func (h *Heap) Collect(roots func() []Something) {
	h.safepoint.Pause()
	defer h.safepoint.Resume()

	h.cycles++
	h.log.WithField("cycle", h.cycles).WithField("used", h.used).Debug("gc: cycle start")

	for obj := range h.live {
		obj.marked = false
	}

	var stack []*Object
	mark := func(s Something) {
		if s.Kind == KindObject && s.Obj != nil && !s.Obj.marked {
			s.Obj.marked = true
			stack = append(stack, s.Obj)
		}
	}
	if roots != nil {
		for _, r := range roots() {
			mark(r)
		}
	}
	for len(stack) > 0 {
		obj := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if marker, ok := h.hooks.Markers[obj.ClassIndex]; ok {
			marker(obj)
		}
		for _, iv := range obj.IVars {
			mark(iv)
		}
		for _, it := range obj.Items {
			mark(it)
		}
		for _, b := range obj.Buckets {
			if b.Used {
				mark(b.Value)
			}
		}
		mark(obj.ClosureSelf)
		for _, c := range obj.ClosureCaptures {
			mark(c)
		}
	}

	survivors := make(map[*Object]struct{}, len(h.live))
	newUsed := 0
	for obj := range h.live {
		if obj.marked {
			survivors[obj] = struct{}{}
			newUsed += size(len(obj.IVars))
			continue
		}
		if deinit, ok := h.hooks.Deinitializers[obj.ClassIndex]; ok {
			deinit(obj)
		}
	}
	h.live = survivors
	h.used = newUsed

	h.log.WithField("cycle", h.cycles).WithField("used", h.used).Debug("gc: cycle end")
}

// Used and Threshold expose accounting for diagnostics/tests.
func (h *Heap) Used() int      { return h.used }
func (h *Heap) Threshold() int { return h.threshold }
