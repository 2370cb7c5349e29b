// Package native is the Go-native stand-in for spec.md §6's dynamic
// library ABI: "a dynamic library exports five symbols: getVersion,
// methodFor, initializerFor, markerFor, deinitializerFor, sizeFor".
//
// A real Go binary doesn't dlopen anything, so each native extension
// package (packages/files, packages/sockets, packages/sqlite,
// packages/httpx, packages/sdl, packages/allegro) is compiled straight
// into the program and registers a Provider here by package name, the
// same "resolve by name at load time, not at link time" contract the
// original ABI gives a shared library. internal/bytecode/reader's own
// doc comment draws this exact boundary: Read only reconstructs the IR,
// resolving a native-flagged Function against a provider is this
// package's job.
package native

import "github.com/emojicode/emojicode/internal/runtime/gc"

// Kind mirrors interp.MethodKind/TypeMethodKind/InitializerKind without
// depending on interp's unexported funcKind type, which a Provider
// implementation outside internal/runtime/interp cannot name directly.
type Kind int

const (
	MethodKind Kind = iota
	TypeMethodKind
	InitializerKind
)

// Func is a native function body: spec.md §4.J says native invocation
// "pushes the frame, invokes the function pointer, pops" with arguments
// read via stack-slot accessors — args here is that accessor surface,
// already popped and ordered by the interpreter.
type Func func(this gc.Something, args []gc.Something) (gc.Something, error)

// Marker and Deinitializer match the callback shapes gc.Hooks expects,
// letting a Provider attach GC lifecycle hooks to the classes it backs
// (spec.md §5's "native packages may attach deinitializers to classes,
// called once per dead instance per cycle").
type Marker func(*gc.Object)
type Deinitializer func(*gc.Object)

// Provider answers the five-symbol ABI for one native package's worth
// of classes. class and member are the declaration's emoji code point
// (spec.md §4.C's "name code-point"), matching bytecode.Class.Name and
// bytecode.Function.Name exactly rather than a string lookup.
type Provider interface {
	// Version reports the package's (major, minor), spec.md §6's
	// getVersion.
	Version() (major, minor uint16)

	// Method resolves a method or type-method body. kind distinguishes
	// the two, since a class can declare both under the same member
	// code point.
	Method(class, member rune, kind Kind) (Func, bool)

	// Initializer resolves an initializer body.
	Initializer(class, member rune) (Func, bool)

	// Marker and Deinitializer resolve the optional per-class GC hooks;
	// ok is false when the class has neither.
	Marker(class rune) (Marker, bool)
	Deinitializer(class rune) (Deinitializer, bool)
}

var registry = map[string]Provider{}

// Register adds p under name, the package name spec.md §6's manifest
// record carries. Intended to be called from each packages/* package's
// init().
func Register(name string, p Provider) {
	registry[name] = p
}

// Lookup returns the Provider registered under name, if any.
func Lookup(name string) (Provider, bool) {
	p, ok := registry[name]
	return p, ok
}

// All returns every registered Provider, used by Resolve when the
// loaded Program's package manifest doesn't pin a native-flagged
// function to one specific package (see resolve.go).
func All() map[string]Provider {
	return registry
}
