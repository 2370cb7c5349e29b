package native_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/bytecode"
	"github.com/emojicode/emojicode/internal/native"
	"github.com/emojicode/emojicode/internal/runtime/gc"
	"github.com/emojicode/emojicode/internal/runtime/interp"
	"github.com/emojicode/emojicode/internal/runtime/stack"
	_ "github.com/emojicode/emojicode/packages/files"
)

func TestResolveWiresNativeFileMethodsIntoVM(t *testing.T) {
	fileClass := &bytecode.Class{
		Name: '📄', SuperIndex: -1,
		Initializers: []*bytecode.Function{{Name: '🆕', VTI: 0, ArgCount: 1, Native: true}},
		Methods:      []*bytecode.Function{{Name: '🔒', VTI: 0, ArgCount: 0, Native: true}},
	}
	prog := &bytecode.Program{
		FormatVersion: bytecode.CurrentFormatVersion,
		Classes:       []*bytecode.Class{fileClass},
	}

	heap := gc.NewHeap(1<<20, native.Hooks(prog), nil)
	st := stack.New(stack.DefaultSize)
	vm := interp.New(prog, heap, st)

	require.NoError(t, native.Resolve(vm, prog))
}

func TestResolveFailsForUnknownNativeSymbol(t *testing.T) {
	mystery := &bytecode.Class{
		Name: '🦄', SuperIndex: -1,
		Methods: []*bytecode.Function{{Name: '🪄', VTI: 0, ArgCount: 0, Native: true}},
	}
	prog := &bytecode.Program{
		FormatVersion: bytecode.CurrentFormatVersion,
		Classes:       []*bytecode.Class{mystery},
	}
	heap := gc.NewHeap(1<<20, native.Hooks(prog), nil)
	st := stack.New(stack.DefaultSize)
	vm := interp.New(prog, heap, st)

	require.ErrorIs(t, native.Resolve(vm, prog), native.ErrUnresolved)
}
