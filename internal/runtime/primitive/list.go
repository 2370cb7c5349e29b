package primitive

import (
	"crypto/rand"
	"math/big"

	"github.com/emojicode/emojicode/internal/runtime/gc"
)

const listTag = "List"

// NewList allocates a List-tagged Object, amortized-doubling on Append
// the way spec.md §4.K describes.
func NewList(items []gc.Something) *gc.Object {
	return &gc.Object{Tag: listTag, Items: items}
}

func ListLen(o *gc.Object) int { return len(o.Items) }

func ListGet(o *gc.Object, i int) (gc.Something, bool) {
	if i < 0 || i >= len(o.Items) {
		return gc.Nothingness(), false
	}
	return o.Items[i], true
}

func ListSet(o *gc.Object, i int, v gc.Something) bool {
	if i < 0 || i >= len(o.Items) {
		return false
	}
	o.Items[i] = v
	return true
}

// ListAppend grows o.Items, doubling capacity when the backing array is
// full rather than reallocating on every append.
func ListAppend(o *gc.Object, v gc.Something) {
	o.Items = append(o.Items, v)
}

// EnsureCapacity pre-grows the backing array to at least n elements.
func ListEnsureCapacity(o *gc.Object, n int) {
	if cap(o.Items) >= n {
		return
	}
	grown := make([]gc.Something, len(o.Items), n)
	copy(grown, o.Items)
	o.Items = grown
}

// ListPop removes and returns the last element.
func ListPop(o *gc.Object) (gc.Something, bool) {
	if len(o.Items) == 0 {
		return gc.Nothingness(), false
	}
	last := o.Items[len(o.Items)-1]
	o.Items = o.Items[:len(o.Items)-1]
	return last, true
}

// ListRemoveAt removes the element at i, shifting the tail down.
func ListRemoveAt(o *gc.Object, i int) bool {
	if i < 0 || i >= len(o.Items) {
		return false
	}
	o.Items = append(o.Items[:i], o.Items[i+1:]...)
	return true
}

// ListInsert inserts v at index i, shifting the tail up.
func ListInsert(o *gc.Object, i int, v gc.Something) bool {
	if i < 0 || i > len(o.Items) {
		return false
	}
	o.Items = append(o.Items, gc.Nothingness())
	copy(o.Items[i+1:], o.Items[i:])
	o.Items[i] = v
	return true
}

// ListDeepCopy copies the backing array (not a recursive deep copy of
// object-kind elements — spec.md §4.K's "deep-copy" refers to the list's
// own storage, matching value semantics for primitive-kind elements and
// reference semantics for object-kind ones).
func ListDeepCopy(o *gc.Object) *gc.Object {
	cp := make([]gc.Something, len(o.Items))
	copy(cp, o.Items)
	return NewList(cp)
}

// ListShuffle performs an in-place Fisher-Yates shuffle using a
// cryptographically secure RNG, per spec.md §4.K.
func ListShuffle(o *gc.Object) error {
	for i := len(o.Items) - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := int(jBig.Int64())
		o.Items[i], o.Items[j] = o.Items[j], o.Items[i]
	}
	return nil
}

// Comparator reports whether a should sort before b. It may itself
// allocate (e.g. build a temporary String to compare), which is exactly
// why ListSort re-fetches o.Items on every call rather than caching a
// slice header across the comparator invocation — an allocation between
// compares can, in the literal C runtime, move the backing array; in
// this Go port the re-fetch is kept anyway to preserve the documented
// contract, at zero cost since o.Items here is GC-stable.
type Comparator func(a, b gc.Something) bool

// ListSort quicksorts o.Items in place using less as the comparator.
func ListSort(o *gc.Object, less Comparator) {
	quicksort(o, 0, len(o.Items)-1, less)
}

func quicksort(o *gc.Object, lo, hi int, less Comparator) {
	if lo >= hi {
		return
	}
	p := partition(o, lo, hi, less)
	quicksort(o, lo, p-1, less)
	quicksort(o, p+1, hi, less)
}

func partition(o *gc.Object, lo, hi int, less Comparator) int {
	pivot := o.Items[hi]
	i := lo
	for j := lo; j < hi; j++ {
		if less(o.Items[j], pivot) {
			o.Items[i], o.Items[j] = o.Items[j], o.Items[i]
			i++
		}
	}
	o.Items[i], o.Items[hi] = o.Items[hi], o.Items[i]
	return i
}
