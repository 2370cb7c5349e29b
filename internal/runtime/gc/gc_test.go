package gc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/runtime/gc"
)

func TestAllocateChargesThresholdAndRejectsTooLarge(t *testing.T) {
	h := gc.NewHeap(4, gc.Hooks{}, nil)
	_, err := h.Allocate(0, "", 2, func() []gc.Something { return nil })
	require.NoError(t, err)
	require.Equal(t, 3, h.Used())

	_, err = h.Allocate(0, "", 10, func() []gc.Something { return nil })
	require.ErrorIs(t, err, gc.ErrAllocationTooLarge)
}

func TestAllocateTriggersCollectionWhenOverBudget(t *testing.T) {
	h := gc.NewHeap(3, gc.Hooks{}, nil)
	garbage, err := h.Allocate(0, "", 1, func() []gc.Something { return nil })
	require.NoError(t, err)
	_ = garbage

	// Nothing roots garbage, so the next allocation should collect it
	// and succeed instead of returning ErrHeapExhausted.
	_, err = h.Allocate(0, "", 1, func() []gc.Something { return nil })
	require.NoError(t, err)
}

func TestCollectMarksEachSurvivorOnceAndDeinitsTheRest(t *testing.T) {
	var marked, deinited []int

	hooks := gc.Hooks{
		Markers:        map[int]func(*gc.Object){0: func(o *gc.Object) { marked = append(marked, o.ClassIndex) }},
		Deinitializers: map[int]func(*gc.Object){0: func(o *gc.Object) { deinited = append(deinited, o.ClassIndex) }},
	}
	h := gc.NewHeap(1000, hooks, nil)

	survivor, err := h.Allocate(0, "", 0, nil)
	require.NoError(t, err)
	garbage, err := h.Allocate(0, "", 0, nil)
	require.NoError(t, err)
	_ = garbage

	h.Collect(func() []gc.Something { return []gc.Something{gc.FromObject(survivor)} })

	require.Equal(t, []int{0}, marked)
	require.Equal(t, []int{0}, deinited)
}

func TestCollectTracesNestedIvars(t *testing.T) {
	h := gc.NewHeap(1000, gc.Hooks{}, nil)
	child, err := h.Allocate(1, "", 0, nil)
	require.NoError(t, err)
	parent, err := h.Allocate(0, "", 1, nil)
	require.NoError(t, err)
	parent.IVars[0] = gc.FromObject(child)

	before := h.Used()
	h.Collect(func() []gc.Something { return []gc.Something{gc.FromObject(parent)} })
	// Both parent and child survive — used shouldn't shrink.
	require.Equal(t, before, h.Used())
}

func TestSafepointPauseWaitsForRegisteredHandles(t *testing.T) {
	sp := gc.NewSafepoint()
	h := sp.Register()
	defer sp.Unregister(h)

	parked := make(chan struct{})
	go func() {
		h.CheckIn()
		close(parked)
	}()

	sp.Pause()
	sp.Resume()
	<-parked
}

func TestSomethingConstructorsSetKind(t *testing.T) {
	require.True(t, gc.Nothingness().IsNothingness())
	require.Equal(t, gc.KindBoolean, gc.FromBool(true).Kind)
	require.Equal(t, gc.KindInteger, gc.FromInt(1).Kind)
	require.Equal(t, gc.KindDouble, gc.FromDouble(1.5).Kind)
	require.Equal(t, gc.KindSymbol, gc.FromSymbol('a').Kind)
}
