package primitive

import (
	"bytes"
	"unicode/utf8"

	"github.com/emojicode/emojicode/internal/runtime/gc"
)

const dataTag = "Data"

func NewData(b []byte) *gc.Object {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &gc.Object{Tag: dataTag, Bytes: cp}
}

func DataLen(o *gc.Object) int { return len(o.Bytes) }

func DataByteAt(o *gc.Object, i int) (byte, bool) {
	if i < 0 || i >= len(o.Bytes) {
		return 0, false
	}
	return o.Bytes[i], true
}

func DataSlice(o *gc.Object, from, to int) *gc.Object {
	if from < 0 {
		from = 0
	}
	if to > len(o.Bytes) {
		to = len(o.Bytes)
	}
	if from >= to {
		return NewData(nil)
	}
	return NewData(o.Bytes[from:to])
}

func DataConcat(a, b *gc.Object) *gc.Object {
	out := make([]byte, 0, len(a.Bytes)+len(b.Bytes))
	out = append(out, a.Bytes...)
	out = append(out, b.Bytes...)
	return NewData(out)
}

func DataEquals(a, b *gc.Object) bool { return bytes.Equal(a.Bytes, b.Bytes) }

// DataIndexOf performs a byte-level search for needle in o, reusing the
// same Boyer-Moore-Horspool skip-table approach as StringIndexOf.
func DataIndexOf(o, needle *gc.Object, from int) int {
	h, n := o.Bytes, needle.Bytes
	if len(n) == 0 {
		return from
	}
	if from < 0 {
		from = 0
	}
	if len(n) > len(h)-from {
		return -1
	}
	skip := make(map[byte]int, len(n))
	for i := 0; i < len(n)-1; i++ {
		skip[n[i]] = len(n) - 1 - i
	}
	i := from
	for i <= len(h)-len(n) {
		j := len(n) - 1
		for j >= 0 && h[i+j] == n[j] {
			j--
		}
		if j < 0 {
			return i
		}
		d, ok := skip[h[i+len(n)-1]]
		if !ok {
			d = len(n)
		}
		i += d
	}
	return -1
}

// DataToString decodes o as UTF-8, failing (ok=false) if it isn't valid
// — "to-string (valid-UTF-8 only)" per spec.md §4.K.
func DataToString(o *gc.Object) (*gc.Object, bool) {
	if !utf8.Valid(o.Bytes) {
		return nil, false
	}
	return NewString([]rune(string(o.Bytes))), true
}
