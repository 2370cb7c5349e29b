// Package gc implements the runtime value representation (spec.md §3's
// "Something") and the heap: object allocation, the copying-collector
// lifecycle (trace, mark survivors, invoke deinitializers on the dead),
// and the cooperative safepoint protocol threads rendezvous on before a
// cycle runs.
//
// spec.md §4.H describes a literal two-semispace bump allocator with
// pointer forwarding, grounded on the teacher's register-machine memory
// model. Relocating raw pointers the way a C collector does has no safe
// equivalent in Go — object identity already lives behind the Go
// runtime's own (non-relocating, from our code's perspective) pointers —
// so this package keeps the *lifecycle* contract byte-for-byte (every
// survivor is visited and marked exactly once per cycle, every object
// that doesn't survive receives exactly one deinitializer call, threads
// fully park before a cycle proceeds) while letting the host Go runtime
// own the actual payload memory. Heap.used/threshold accounting still
// enforces the same allocation-too-large and heap-exhausted failure
// modes spec.md §7 lists as aborting runtime errors.
package gc

import "github.com/emojicode/emojicode/internal/bytecode"

// Kind tags the variant carried by a Something, the tagged runtime value
// every stack slot, instance variable, and argument holds.
type Kind uint8

const (
	KindNothingness Kind = iota
	KindBoolean
	KindInteger
	KindDouble
	KindSymbol
	KindObject
)

// Something is the universal runtime value (spec.md §3). Only the field
// matching Kind is meaningful, mirroring internal/types.Type's
// one-active-field-per-kind shape at the value level instead of the
// static-type level.
type Something struct {
	Kind    Kind
	Integer int64
	Double  float64
	Boolean bool
	Symbol  rune
	Obj     *Object
}

func Nothingness() Something           { return Something{Kind: KindNothingness} }
func FromBool(b bool) Something        { return Something{Kind: KindBoolean, Boolean: b} }
func FromInt(v int64) Something        { return Something{Kind: KindInteger, Integer: v} }
func FromDouble(v float64) Something   { return Something{Kind: KindDouble, Double: v} }
func FromSymbol(r rune) Something      { return Something{Kind: KindSymbol, Symbol: r} }
func FromObject(o *Object) Something   { return Something{Kind: KindObject, Obj: o} }

// IsNothingness reports whether s is the nothingness value, which every
// optional type accepts regardless of its declared kind.
func (s Something) IsNothingness() bool { return s.Kind == KindNothingness }

// Object is a heap-allocated instance: a class identity, its flattened
// instance-variable slots, and (for the built-in primitives, which this
// runtime resolves directly rather than through the native-package ABI;
// see internal/runtime/primitive) an opaque payload plus a type tag.
type Object struct {
	ClassIndex int
	Class      *bytecode.Class

	IVars []Something

	// Tag and payload fields back the built-in primitives (String, List,
	// Dictionary, Data, Range, Thread, Mutex, Error). A zero Tag means an
	// ordinary user-declared class instance with no native payload.
	Tag     string
	Runes   []rune          // String
	Items   []Something     // List
	Buckets []DictBucket    // Dictionary
	Bytes   []byte          // Data
	Start, Stop, Step int64 // Range
	Message string          // Error
	Code    int64           // Error

	// Closure payload. ClosureBoundVTI >= 0 means o is a bound-method
	// value (🎣): ClosureSelf is the receiver and ClosureBoundVTI is the
	// method to dispatch on it, with ClosureCode unused. Otherwise o
	// wraps an inline closure literal body: ClosureCode is the
	// instruction slice to run, ClosureSelf is the captured self (when
	// the closure captured self), ClosureParamCount is how many leading
	// frame slots its declared parameters occupy, and ClosureCaptures
	// holds the values of the outer-scope variables the closure body
	// referenced at the time it was created (spec.md §4.E), copied into
	// the frame slots immediately following the parameters on each call.
	ClosureCode       []bytecode.Instruction
	ClosureSelf       Something
	ClosureBoundVTI   int
	ClosureParamCount int
	ClosureCaptures   []Something

	generation uint32
	marked     bool
}

// DictBucket is one open-addressed slot of a Dictionary-tagged Object's
// hash table.
type DictBucket struct {
	Key   string
	Value Something
	Used  bool
}

// marker and deinitializer callbacks are looked up by class index. A
// nil map means no class in the program registered either hook, which
// is the common case for plain data classes.
type Hooks struct {
	Markers        map[int]func(*Object)
	Deinitializers map[int]func(*Object)
}
