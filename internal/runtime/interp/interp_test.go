package interp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/bytecode"
	"github.com/emojicode/emojicode/internal/runtime/gc"
	"github.com/emojicode/emojicode/internal/runtime/interp"
	"github.com/emojicode/emojicode/internal/runtime/primitive"
	"github.com/emojicode/emojicode/internal/runtime/stack"
)

func newVM(prog *bytecode.Program) *interp.VM {
	heap := gc.NewHeap(1<<20, gc.Hooks{}, nil)
	st := stack.New(stack.DefaultSize)
	return interp.New(prog, heap, st)
}

func TestRunStartupEvaluatesArithmetic(t *testing.T) {
	prog := &bytecode.Program{
		FormatVersion: bytecode.CurrentFormatVersion,
		Classes: []*bytecode.Class{{
			Name: 'A', SuperIndex: -1,
			TypeMethods: []*bytecode.Function{{
				Name: 'x', VTI: 0, ArgCount: 0,
				Code: []bytecode.Instruction{
					{Op: bytecode.OpPushInt, Operands: []int32{3}},
					{Op: bytecode.OpPushInt, Operands: []int32{4}},
					{Op: bytecode.OpPushInt, Operands: []int32{2}},
					{Op: bytecode.OpMul},
					{Op: bytecode.OpAdd},
					{Op: bytecode.OpReturn},
				},
			}},
		}},
	}
	v, err := newVM(prog).RunStartup()
	require.NoError(t, err)
	require.Equal(t, int64(11), v.Integer)
}

func TestDispatchMethodResolvesSubclassOverride(t *testing.T) {
	base := &bytecode.Class{
		Name: 'A', SuperIndex: -1,
		Methods: []*bytecode.Function{{
			Name: '🐾', VTI: 0, ArgCount: 0,
			Code: []bytecode.Instruction{
				{Op: bytecode.OpPushInt, Operands: []int32{1}},
				{Op: bytecode.OpReturn},
			},
		}},
		Initializers: []*bytecode.Function{{Name: '🆕', VTI: 0, ArgCount: 0, Code: []bytecode.Instruction{
			{Op: bytecode.OpLoadLocal, Operands: []int32{0}}, {Op: bytecode.OpReturn},
		}}},
	}
	sub := &bytecode.Class{
		Name: 'B', SuperIndex: 0,
		Methods: []*bytecode.Function{{
			Name: '🐾', VTI: 0, ArgCount: 0,
			Code: []bytecode.Instruction{
				{Op: bytecode.OpPushInt, Operands: []int32{2}},
				{Op: bytecode.OpReturn},
			},
		}},
		InheritsInitializer: true,
	}
	startup := &bytecode.Class{
		Name: 'M', SuperIndex: -1,
		TypeMethods: []*bytecode.Function{{
			Name: 'x', VTI: 0, ArgCount: 0,
			Code: []bytecode.Instruction{
				{Op: bytecode.OpCallInitializer, Operands: []int32{1, 0}},
				{Op: bytecode.OpDispatchMethod, Operands: []int32{0}},
				{Op: bytecode.OpReturn},
			},
		}},
	}
	prog := &bytecode.Program{
		FormatVersion:     bytecode.CurrentFormatVersion,
		Classes:           []*bytecode.Class{base, sub, startup},
		StartupClassIndex: 2,
	}
	v, err := newVM(prog).RunStartup()
	require.NoError(t, err)
	require.Equal(t, int64(2), v.Integer)
}

func TestForListLoopSumsElements(t *testing.T) {
	// Local slots: 0 unused (type-method has no self), 1 = list,
	// 2 = index, 3 = elem, 4 = accumulator.
	startup := &bytecode.Class{
		Name: 'M', SuperIndex: -1,
		TypeMethods: []*bytecode.Function{{
			Name: 'x', VTI: 0, ArgCount: 0, VariableCount: 5,
			Code: []bytecode.Instruction{
				{Op: bytecode.OpPushInt, Operands: []int32{0}},
				{Op: bytecode.OpStoreLocal, Operands: []int32{4}}, // acc = 0
				{Op: bytecode.OpForListStart, Operands: []int32{1, 2, 3}},
				{Op: bytecode.OpForListNext, Operands: []int32{1, 2, 3, 5}}, // pc=3
				{Op: bytecode.OpLoadLocal, Operands: []int32{4}},
				{Op: bytecode.OpLoadLocal, Operands: []int32{3}},
				{Op: bytecode.OpAdd},
				{Op: bytecode.OpStoreLocal, Operands: []int32{4}},
				{Op: bytecode.OpJumpBack, Operands: []int32{5}}, // back to pc=3
				{Op: bytecode.OpLoadLocal, Operands: []int32{4}},
				{Op: bytecode.OpReturn},
			},
		}},
	}
	// Seed the list into slot 1 by prepending a BuildList + StoreLocal
	// pair ahead of the accumulator reset, so the function is self-
	// contained. Rebuild Code with that prefix.
	startup.TypeMethods[0].Code = append([]bytecode.Instruction{
		{Op: bytecode.OpPushInt, Operands: []int32{10}},
		{Op: bytecode.OpPushInt, Operands: []int32{20}},
		{Op: bytecode.OpPushInt, Operands: []int32{12}},
		{Op: bytecode.OpBuildList, Operands: []int32{3}},
		{Op: bytecode.OpStoreLocal, Operands: []int32{1}},
	}, startup.TypeMethods[0].Code...)

	prog := &bytecode.Program{
		FormatVersion:     bytecode.CurrentFormatVersion,
		Classes:           []*bytecode.Class{startup},
		StartupClassIndex: 0,
	}
	v, err := newVM(prog).RunStartup()
	require.NoError(t, err)
	require.Equal(t, int64(42), v.Integer)
}

func TestNativeMethodIsDispatched(t *testing.T) {
	class := &bytecode.Class{
		Name: 'A', SuperIndex: -1,
		Methods: []*bytecode.Function{{Name: '🐾', VTI: 0, ArgCount: 0, Native: true}},
		Initializers: []*bytecode.Function{{Name: '🆕', VTI: 0, ArgCount: 0, Code: []bytecode.Instruction{
			{Op: bytecode.OpLoadLocal, Operands: []int32{0}}, {Op: bytecode.OpReturn},
		}}},
	}
	startup := &bytecode.Class{
		Name: 'M', SuperIndex: -1,
		TypeMethods: []*bytecode.Function{{
			Name: 'x', VTI: 0, ArgCount: 0,
			Code: []bytecode.Instruction{
				{Op: bytecode.OpCallInitializer, Operands: []int32{0, 0}},
				{Op: bytecode.OpDispatchMethod, Operands: []int32{0}},
				{Op: bytecode.OpReturn},
			},
		}},
	}
	prog := &bytecode.Program{
		FormatVersion:     bytecode.CurrentFormatVersion,
		Classes:           []*bytecode.Class{class, startup},
		StartupClassIndex: 1,
	}
	vm := newVM(prog)
	vm.RegisterNative(0, interp.MethodKind, 0, func(vm *interp.VM, this gc.Something, args []gc.Something) (gc.Something, error) {
		return gc.FromInt(99), nil
	})
	v, err := vm.RunStartup()
	require.NoError(t, err)
	require.Equal(t, int64(99), v.Integer)
}

func TestCastClassAcceptsSubclassRejectsUnrelated(t *testing.T) {
	base := &bytecode.Class{Name: 'A', SuperIndex: -1, Initializers: []*bytecode.Function{{
		Name: '🆕', VTI: 0, ArgCount: 0, Code: []bytecode.Instruction{{Op: bytecode.OpLoadLocal, Operands: []int32{0}}, {Op: bytecode.OpReturn}},
	}}}
	sub := &bytecode.Class{Name: 'B', SuperIndex: 0, InheritsInitializer: true}
	unrelated := &bytecode.Class{Name: 'C', SuperIndex: -1, Initializers: []*bytecode.Function{{
		Name: '🆕', VTI: 0, ArgCount: 0, Code: []bytecode.Instruction{{Op: bytecode.OpLoadLocal, Operands: []int32{0}}, {Op: bytecode.OpReturn}},
	}}}
	startup := &bytecode.Class{
		Name: 'M', SuperIndex: -1,
		TypeMethods: []*bytecode.Function{{
			Name: 'x', VTI: 0, ArgCount: 0,
			Code: []bytecode.Instruction{
				{Op: bytecode.OpCallInitializer, Operands: []int32{1, 0}}, // allocate B
				{Op: bytecode.OpCastClass, Operands: []int32{0}},          // cast to A: ok
				{Op: bytecode.OpReturn},
			},
		}},
	}
	prog := &bytecode.Program{
		FormatVersion:     bytecode.CurrentFormatVersion,
		Classes:           []*bytecode.Class{base, sub, unrelated, startup},
		StartupClassIndex: 3,
	}
	v, err := newVM(prog).RunStartup()
	require.NoError(t, err)
	require.Equal(t, gc.KindObject, v.Kind)

	startup.TypeMethods[0].Code[1].Operands[0] = 2 // cast to C: unrelated, fails
	v2, err := newVM(prog).RunStartup()
	require.NoError(t, err)
	require.True(t, v2.IsNothingness())
}

func TestIfElseTakesFalseBranchAndSkipsTrueBranch(t *testing.T) {
	// if false { return 1 } else { return 2 }
	//   0: push.bool false
	//   1: jmp.iffalse -> 4        (offset = 4-1-1 = 2)
	//   2: push.int 1
	//   3: return
	//   4: push.int 2
	//   5: return
	startup := &bytecode.Class{
		Name: 'M', SuperIndex: -1,
		TypeMethods: []*bytecode.Function{{
			Name: 'x', VTI: 0, ArgCount: 0,
			Code: []bytecode.Instruction{
				{Op: bytecode.OpPushBool, Operands: []int32{0}},
				{Op: bytecode.OpJumpIfFalse, Operands: []int32{2}},
				{Op: bytecode.OpPushInt, Operands: []int32{1}},
				{Op: bytecode.OpReturn},
				{Op: bytecode.OpPushInt, Operands: []int32{2}},
				{Op: bytecode.OpReturn},
			},
		}},
	}
	prog := &bytecode.Program{
		FormatVersion:     bytecode.CurrentFormatVersion,
		Classes:           []*bytecode.Class{startup},
		StartupClassIndex: 0,
	}
	v, err := newVM(prog).RunStartup()
	require.NoError(t, err)
	require.Equal(t, int64(2), v.Integer)
}

func TestIfElseTakesTrueBranchAndJumpsPastElse(t *testing.T) {
	// if true { x := 1 } else { x := 2 }; return x, confirming the
	// unconditional end-of-then jmp also lands exactly on the instruction
	// after the else block rather than one short of it.
	//   0: push.bool true
	//   1: jmp.iffalse -> 5        (offset = 5-1-1 = 3)
	//   2: push.int 1
	//   3: store.local 0
	//   4: jmp -> 7                (offset = 7-4-1 = 2)
	//   5: push.int 2
	//   6: store.local 0
	//   7: load.local 0
	//   8: return
	startup := &bytecode.Class{
		Name: 'M', SuperIndex: -1,
		TypeMethods: []*bytecode.Function{{
			Name: 'x', VTI: 0, ArgCount: 0, VariableCount: 1,
			Code: []bytecode.Instruction{
				{Op: bytecode.OpPushBool, Operands: []int32{1}},
				{Op: bytecode.OpJumpIfFalse, Operands: []int32{3}},
				{Op: bytecode.OpPushInt, Operands: []int32{1}},
				{Op: bytecode.OpStoreLocal, Operands: []int32{0}},
				{Op: bytecode.OpJump, Operands: []int32{2}},
				{Op: bytecode.OpPushInt, Operands: []int32{2}},
				{Op: bytecode.OpStoreLocal, Operands: []int32{0}},
				{Op: bytecode.OpLoadLocal, Operands: []int32{0}},
				{Op: bytecode.OpReturn},
			},
		}},
	}
	prog := &bytecode.Program{
		FormatVersion:     bytecode.CurrentFormatVersion,
		Classes:           []*bytecode.Class{startup},
		StartupClassIndex: 0,
	}
	v, err := newVM(prog).RunStartup()
	require.NoError(t, err)
	require.Equal(t, int64(1), v.Integer)
}

func TestWhileLoopJumpsBackToCondition(t *testing.T) {
	// n := 0; while n < 3 { n := n + 1 }; return n
	//   0: push.int 0
	//   1: store.local 0
	//   2: load.local 0        <- loopStart
	//   3: push.int 3
	//   4: cmp.lt
	//   5: jmp.iffalse -> 11       (offset = 11-5-1 = 5)
	//   6: load.local 0
	//   7: push.int 1
	//   8: add
	//   9: store.local 0
	//  10: jmp.back -> 2           (offset = back-loopStart = 10-2 = 8)
	//  11: load.local 0
	//  12: return
	startup := &bytecode.Class{
		Name: 'M', SuperIndex: -1,
		TypeMethods: []*bytecode.Function{{
			Name: 'x', VTI: 0, ArgCount: 0, VariableCount: 1,
			Code: []bytecode.Instruction{
				{Op: bytecode.OpPushInt, Operands: []int32{0}},
				{Op: bytecode.OpStoreLocal, Operands: []int32{0}},
				{Op: bytecode.OpLoadLocal, Operands: []int32{0}}, // idx 2, loopStart
				{Op: bytecode.OpPushInt, Operands: []int32{3}},
				{Op: bytecode.OpCmpLt},
				{Op: bytecode.OpJumpIfFalse, Operands: []int32{5}}, // idx 5, exit target idx 11
				{Op: bytecode.OpLoadLocal, Operands: []int32{0}},
				{Op: bytecode.OpPushInt, Operands: []int32{1}},
				{Op: bytecode.OpAdd},
				{Op: bytecode.OpStoreLocal, Operands: []int32{0}}, // idx 9
				{Op: bytecode.OpJumpBack, Operands: []int32{8}},   // idx 10, back to idx 2: 10-2=8
				{Op: bytecode.OpLoadLocal, Operands: []int32{0}},  // idx 11
				{Op: bytecode.OpReturn},
			},
		}},
	}
	prog := &bytecode.Program{
		FormatVersion:     bytecode.CurrentFormatVersion,
		Classes:           []*bytecode.Class{startup},
		StartupClassIndex: 0,
	}
	v, err := newVM(prog).RunStartup()
	require.NoError(t, err)
	require.Equal(t, int64(3), v.Integer)
}

func TestDictionaryJSONRoundTripsThroughInterpValues(t *testing.T) {
	// Sanity check that the primitive JSON parser and interp's Something
	// representation agree: exercised here rather than in the primitive
	// package since it cross-checks gc.FromObject wrapping.
	v, err := primitive.ParseJSON(`{"a": 1}`)
	require.NoError(t, err)
	require.Equal(t, gc.KindObject, v.Kind)
}
