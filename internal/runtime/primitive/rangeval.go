package primitive

import "github.com/emojicode/emojicode/internal/runtime/gc"

const rangeTag = "Range"

// NewRange constructs a Range-tagged Object. A zero step is replaced by
// sign(stop-start) (1, -1, or 0 if start == stop), matching spec.md
// §4.K's "a zero step produces the natural direction, or an empty range
// if start equals stop" rule rather than looping forever.
func NewRange(start, stop, step int64) *gc.Object {
	if step == 0 {
		switch {
		case stop > start:
			step = 1
		case stop < start:
			step = -1
		default:
			step = 0
		}
	}
	return &gc.Object{Tag: rangeTag, Start: start, Stop: stop, Step: step}
}

// RangeLen reports how many values the range yields.
func RangeLen(o *gc.Object) int64 {
	if o.Step == 0 {
		return 0
	}
	n := (o.Stop - o.Start) / o.Step
	if (o.Stop-o.Start)%o.Step != 0 {
		n++
	}
	if n < 0 {
		return 0
	}
	return n
}

// RangeGet returns the i-th value of the range, start + i*step, failing
// if i is out of bounds.
func RangeGet(o *gc.Object, i int64) (int64, bool) {
	if i < 0 || i >= RangeLen(o) {
		return 0, false
	}
	return o.Start + i*o.Step, true
}
