package primitive_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/runtime/gc"
	"github.com/emojicode/emojicode/internal/runtime/primitive"
)

func TestStringIndexOfFindsNeedle(t *testing.T) {
	h := primitive.NewStringFromGo("the quick brown fox")
	n := primitive.NewStringFromGo("brown")
	require.Equal(t, 10, primitive.StringIndexOf(h, n, 0))
}

func TestStringIndexOfNotFound(t *testing.T) {
	h := primitive.NewStringFromGo("hello")
	n := primitive.NewStringFromGo("xyz")
	require.Equal(t, -1, primitive.StringIndexOf(h, n, 0))
}

func TestStringSplitBySymbolRoundTrips(t *testing.T) {
	o := primitive.NewStringFromGo("a,b,,c")
	parts := primitive.StringSplitBySymbol(o, ',')
	require.Len(t, parts, 4)
	require.Equal(t, "a", string(parts[0].Runes))
	require.Equal(t, "", string(parts[2].Runes))
	require.Equal(t, "c", string(parts[3].Runes))
}

func TestListAppendAndInsert(t *testing.T) {
	l := primitive.NewList(nil)
	primitive.ListAppend(l, gc.FromInt(1))
	primitive.ListAppend(l, gc.FromInt(3))
	require.True(t, primitive.ListInsert(l, 1, gc.FromInt(2)))
	require.Equal(t, 3, primitive.ListLen(l))
	v, ok := primitive.ListGet(l, 1)
	require.True(t, ok)
	require.Equal(t, int64(2), v.Integer)
}

func TestListRemoveAtShiftsTail(t *testing.T) {
	l := primitive.NewList([]gc.Something{gc.FromInt(1), gc.FromInt(2), gc.FromInt(3)})
	require.True(t, primitive.ListRemoveAt(l, 0))
	require.Equal(t, 2, primitive.ListLen(l))
	v, _ := primitive.ListGet(l, 0)
	require.Equal(t, int64(2), v.Integer)
}

func TestListSortOrdersAscending(t *testing.T) {
	l := primitive.NewList([]gc.Something{gc.FromInt(3), gc.FromInt(1), gc.FromInt(2)})
	primitive.ListSort(l, func(a, b gc.Something) bool { return a.Integer < b.Integer })
	for i, want := range []int64{1, 2, 3} {
		v, _ := primitive.ListGet(l, i)
		require.Equal(t, want, v.Integer)
	}
}

func TestDictSetGetDelete(t *testing.T) {
	d := primitive.NewDict()
	primitive.DictSet(d, "a", gc.FromInt(1))
	primitive.DictSet(d, "b", gc.FromInt(2))

	v, ok := primitive.DictGet(d, "a")
	require.True(t, ok)
	require.Equal(t, int64(1), v.Integer)

	require.True(t, primitive.DictDelete(d, "a"))
	_, ok = primitive.DictGet(d, "a")
	require.False(t, ok)

	v, ok = primitive.DictGet(d, "b")
	require.True(t, ok)
	require.Equal(t, int64(2), v.Integer)
}

func TestDictGrowsPastLoadFactor(t *testing.T) {
	d := primitive.NewDict()
	for i := 0; i < 100; i++ {
		primitive.DictSet(d, string(rune('a'+i%26))+string(rune(i)), gc.FromInt(int64(i)))
	}
	require.Equal(t, 100, primitive.DictLen(d))
}

func TestDataIndexOfAndToString(t *testing.T) {
	d := primitive.NewData([]byte("hello world"))
	n := primitive.NewData([]byte("world"))
	require.Equal(t, 6, primitive.DataIndexOf(d, n, 0))

	s, ok := primitive.DataToString(d)
	require.True(t, ok)
	require.Equal(t, "hello world", string(s.Runes))
}

func TestDataToStringRejectsInvalidUTF8(t *testing.T) {
	d := primitive.NewData([]byte{0xff, 0xfe})
	_, ok := primitive.DataToString(d)
	require.False(t, ok)
}

func TestRangeGetAppliesStep(t *testing.T) {
	r := primitive.NewRange(0, 10, 2)
	require.Equal(t, int64(5), primitive.RangeLen(r))
	v, ok := primitive.RangeGet(r, 2)
	require.True(t, ok)
	require.Equal(t, int64(4), v)
}

func TestRangeZeroStepDefaultsToNaturalDirection(t *testing.T) {
	down := primitive.NewRange(5, 0, 0)
	require.Equal(t, int64(-1), down.Step)

	up := primitive.NewRange(0, 5, 0)
	require.Equal(t, int64(1), up.Step)

	flat := primitive.NewRange(3, 3, 0)
	require.Equal(t, int64(0), flat.Step)
	require.Equal(t, int64(0), primitive.RangeLen(flat))
}

func TestParseJSONObjectAndArray(t *testing.T) {
	v, err := primitive.ParseJSON(`{"name": "fox", "legs": 4, "tags": ["quick", "brown"]}`)
	require.NoError(t, err)
	require.Equal(t, gc.KindObject, v.Kind)

	name, ok := primitive.DictGet(v.Obj, "name")
	require.True(t, ok)
	require.Equal(t, "fox", string(name.Obj.Runes))

	legs, ok := primitive.DictGet(v.Obj, "legs")
	require.True(t, ok)
	require.Equal(t, int64(4), legs.Integer)

	tags, ok := primitive.DictGet(v.Obj, "tags")
	require.True(t, ok)
	require.Equal(t, 2, primitive.ListLen(tags.Obj))
}

func TestParseJSONDistinguishesIntFromDouble(t *testing.T) {
	i, err := primitive.ParseJSON("42")
	require.NoError(t, err)
	require.Equal(t, gc.KindInteger, i.Kind)

	d, err := primitive.ParseJSON("4.2")
	require.NoError(t, err)
	require.Equal(t, gc.KindDouble, d.Kind)

	e, err := primitive.ParseJSON("1e3")
	require.NoError(t, err)
	require.Equal(t, gc.KindDouble, e.Kind)
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	_, err := primitive.ParseJSON("1 2")
	require.Error(t, err)
}

func TestParseJSONStringEscapes(t *testing.T) {
	v, err := primitive.ParseJSON(`"a\nb\tcA"`)
	require.NoError(t, err)
	require.Equal(t, "a\nb\tcA", string(v.Obj.Runes))
}
