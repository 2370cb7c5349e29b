// Package primitive implements the built-in types spec.md §4.K lists —
// String, List, Dictionary, Data, Range, Thread, Mutex, Error, and the
// JSON parser — directly in Go rather than through internal/native's
// registered-Provider ABI. These are the types every program gets "for
// free" regardless of which native packages its package manifest
// requests, so resolving them in-process instead of through a
// registered provider matches the §4.G reader's own "sentinel package
// section means use the host's built-in providers" rule.
package primitive

import (
	"sort"
	"strconv"
	"strings"

	"github.com/emojicode/emojicode/internal/runtime/gc"
)

const stringTag = "String"

// NewString allocates a String-tagged Object over rs.
func NewString(rs []rune) *gc.Object {
	cp := make([]rune, len(rs))
	copy(cp, rs)
	return &gc.Object{Tag: stringTag, Runes: cp}
}

// NewStringFromGo is a convenience wrapper for Go string literals, used
// by the compiler's interned string pool at load time.
func NewStringFromGo(s string) *gc.Object {
	return NewString([]rune(s))
}

// StringLen returns the code-point length, the unit spec.md's length
// method uses (as opposed to the UTF-8 byte length below).
func StringLen(o *gc.Object) int { return len(o.Runes) }

// StringUTF8Len returns the byte length of o's UTF-8 encoding, the
// distinct accessor spec.md §3's SUPPLEMENTED FEATURES calls out
// alongside code-point length.
func StringUTF8Len(o *gc.Object) int { return len(string(o.Runes)) }

func StringEquals(a, b *gc.Object) bool { return string(a.Runes) == string(b.Runes) }

// StringCompare orders two strings code-point-wise, returning -1/0/1.
func StringCompare(a, b *gc.Object) int {
	return strings.Compare(string(a.Runes), string(b.Runes))
}

// StringSubstring returns the code-point range [from, to), clamped to
// o's bounds.
func StringSubstring(o *gc.Object, from, to int) *gc.Object {
	if from < 0 {
		from = 0
	}
	if to > len(o.Runes) {
		to = len(o.Runes)
	}
	if from >= to {
		return NewString(nil)
	}
	return NewString(o.Runes[from:to])
}

// StringIndexOf finds needle in haystack starting at the code-point
// index "from", using a Boyer-Moore-Horspool bad-character skip table —
// the "Boyer-Moore-like substring search" spec.md's SUPPLEMENTED
// FEATURES calls for over a naive scan. Returns -1 if absent.
func StringIndexOf(haystack, needle *gc.Object, from int) int {
	h, n := haystack.Runes, needle.Runes
	if len(n) == 0 {
		return from
	}
	if from < 0 {
		from = 0
	}
	if len(n) > len(h)-from {
		return -1
	}

	skip := make(map[rune]int, len(n))
	for i := 0; i < len(n)-1; i++ {
		skip[n[i]] = len(n) - 1 - i
	}
	fullSkip := len(n)

	i := from
	for i <= len(h)-len(n) {
		j := len(n) - 1
		for j >= 0 && h[i+j] == n[j] {
			j--
		}
		if j < 0 {
			return i
		}
		bad := h[i+len(n)-1]
		d, ok := skip[bad]
		if !ok {
			d = fullSkip
		}
		i += d
	}
	return -1
}

func StringBeginsWith(o, prefix *gc.Object) bool {
	return strings.HasPrefix(string(o.Runes), string(prefix.Runes))
}

func StringEndsWith(o, suffix *gc.Object) bool {
	return strings.HasSuffix(string(o.Runes), string(suffix.Runes))
}

func StringTrim(o *gc.Object) *gc.Object {
	return NewString([]rune(strings.TrimSpace(string(o.Runes))))
}

func StringToUpper(o *gc.Object) *gc.Object {
	return NewString([]rune(strings.ToUpper(string(o.Runes))))
}

func StringToLower(o *gc.Object) *gc.Object {
	return NewString([]rune(strings.ToLower(string(o.Runes))))
}

// StringSplitByString splits on every occurrence of sep.
func StringSplitByString(o, sep *gc.Object) []*gc.Object {
	parts := strings.Split(string(o.Runes), string(sep.Runes))
	out := make([]*gc.Object, len(parts))
	for i, p := range parts {
		out[i] = NewString([]rune(p))
	}
	return out
}

// StringSplitBySymbol splits on every occurrence of the single code
// point sep — the symbol-valued split form spec.md §4.K lists alongside
// the string-valued one.
func StringSplitBySymbol(o *gc.Object, sep rune) []*gc.Object {
	var out []*gc.Object
	var cur []rune
	for _, r := range o.Runes {
		if r == sep {
			out = append(out, NewString(cur))
			cur = nil
			continue
		}
		cur = append(cur, r)
	}
	out = append(out, NewString(cur))
	return out
}

func StringConcat(a, b *gc.Object) *gc.Object {
	out := make([]rune, 0, len(a.Runes)+len(b.Runes))
	out = append(out, a.Runes...)
	out = append(out, b.Runes...)
	return NewString(out)
}

// StringParseInteger parses o in the given base (0 lets strconv infer a
// prefix-indicated base, matching spec.md's "arbitrary base" wording);
// ok is false on a malformed literal, the signal callers turn into a
// nothingness return for the optional-typed result.
func StringParseInteger(o *gc.Object, base int) (int64, bool) {
	v, err := strconv.ParseInt(string(o.Runes), base, 64)
	return v, err == nil
}

// StringParseDouble parses a float literal, exponent form included.
func StringParseDouble(o *gc.Object) (float64, bool) {
	v, err := strconv.ParseFloat(string(o.Runes), 64)
	return v, err == nil
}

// SortStrings is a small helper used by the native package surface to
// present a stable code-point ordering (e.g. the JSON object key order
// that insertion-order dictionaries don't guarantee elsewhere).
func SortStrings(ss []*gc.Object) {
	sort.Slice(ss, func(i, j int) bool { return StringCompare(ss[i], ss[j]) < 0 })
}
