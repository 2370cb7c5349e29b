package native

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/emojicode/emojicode/internal/bytecode"
	"github.com/emojicode/emojicode/internal/runtime/gc"
	"github.com/emojicode/emojicode/internal/runtime/interp"
)

// ErrUnresolved is wrapped into the returned error when a native-flagged
// function or a requires-native-binary package has no registered
// Provider able to answer for it.
var ErrUnresolved = fmt.Errorf("native: no provider resolves this symbol")

// Resolve walks prog's classes, and for every native-flagged method,
// type-method, and initializer, asks every registered Provider in turn
// (first match wins) which body to run, then registers it on vm via
// RegisterNative.
//
// The wire format (spec.md §6) doesn't actually link a class to the
// package that provides it — the package manifest is a flat version
// list, and native resolution is per-function by name. A real dylib ABI
// sidesteps this because only one package's library is ever loaded for
// a given native-flagged symbol; this single-binary Go port instead
// tries every compiled-in Provider and takes the first that claims the
// (class, member) pair, which is equivalent as long as no two compiled
// packages declare overlapping class/member code points — true of every
// packages/* package in this tree.
func Resolve(vm *interp.VM, prog *bytecode.Program) error {
	for ci, c := range prog.Classes {
		for _, fn := range c.Methods {
			if fn.Native {
				if err := resolveOne(vm, ci, c.Name, fn, MethodKind); err != nil {
					return err
				}
			}
		}
		for _, fn := range c.TypeMethods {
			if fn.Native {
				if err := resolveOne(vm, ci, c.Name, fn, TypeMethodKind); err != nil {
					return err
				}
			}
		}
		for _, fn := range c.Initializers {
			if fn.Native {
				if err := resolveInit(vm, ci, c.Name, fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func resolveOne(vm *interp.VM, classIndex int, className rune, fn *bytecode.Function, kind Kind) error {
	interpKind := interp.MethodKind
	if kind == TypeMethodKind {
		interpKind = interp.TypeMethodKind
	}
	for _, p := range registry {
		if nf, ok := p.Method(className, fn.Name, kind); ok {
			vm.RegisterNative(classIndex, interpKind, fn.VTI, adapt(nf))
			return nil
		}
	}
	return errors.Wrapf(ErrUnresolved, "method %q on class %q", string(fn.Name), string(className))
}

func resolveInit(vm *interp.VM, classIndex int, className rune, fn *bytecode.Function) error {
	for _, p := range registry {
		if nf, ok := p.Initializer(className, fn.Name); ok {
			vm.RegisterNative(classIndex, interp.InitializerKind, fn.VTI, adapt(nf))
			return nil
		}
	}
	return errors.Wrapf(ErrUnresolved, "initializer %q on class %q", string(fn.Name), string(className))
}

func adapt(nf Func) interp.NativeFunc {
	return func(_ *interp.VM, this gc.Something, args []gc.Something) (gc.Something, error) {
		return nf(this, args)
	}
}

// Hooks builds the gc.Hooks a Heap must be constructed with so that any
// class whose native package registered a marker/deinitializer gets it
// invoked during collection. Must run before gc.NewHeap, since Heap's
// hooks are fixed at construction.
func Hooks(prog *bytecode.Program) gc.Hooks {
	markers := map[int]func(*gc.Object){}
	deinits := map[int]func(*gc.Object){}
	for ci, c := range prog.Classes {
		for _, p := range registry {
			if m, ok := p.Marker(c.Name); ok {
				markers[ci] = m
			}
			if d, ok := p.Deinitializer(c.Name); ok {
				deinits[ci] = d
			}
		}
	}
	return gc.Hooks{Markers: markers, Deinitializers: deinits}
}
