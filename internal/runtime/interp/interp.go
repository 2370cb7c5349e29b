// Package interp is the opcode-dispatch loop (spec.md §4.J): it ties a
// compiled internal/bytecode.Program to an internal/runtime/gc.Heap and
// internal/runtime/stack.Stack and actually runs a program's startup
// type-method to completion.
//
// The dispatch loop's shape — a flat switch over Op inside a for loop
// advancing an explicit program counter, with a separate expression
// value stack local to the Go call that runs one Function's Code — is
// grounded on the general "fetch, decode, execute" shape every register
// or stack machine uses; the teacher's wam/ is a unification machine
// with no analogous runtime loop of its own to imitate directly; this
// package instead follows spec.md §4.J's own description of
// performFunction's two call conventions (native: look the symbol up
// and invoke it directly; bytecode: push a frame, run until return,
// restore the caller's frame) and of initializer invocation (a plain
// call site allocates before invoking; a super-init call invokes
// against an already-allocated self).
package interp

import (
	"math"

	"github.com/pkg/errors"

	"github.com/emojicode/emojicode/internal/bytecode"
	"github.com/emojicode/emojicode/internal/runtime/gc"
	"github.com/emojicode/emojicode/internal/runtime/primitive"
	"github.com/emojicode/emojicode/internal/runtime/stack"
)

// NativeFunc implements a Function whose Native flag is set: the
// runtime-resolved body of a built-in method, type-method, or
// initializer that internal/native or internal/runtime/primitive
// provides in place of bytecode.
type NativeFunc func(vm *VM, this gc.Something, args []gc.Something) (gc.Something, error)

type funcKind int

const (
	kindMethod funcKind = iota
	kindTypeMethod
	kindInitializer
)

type nativeKey struct {
	Class int
	Kind  funcKind
	VTI   int
}

// VM is one thread's interpreter context: the program being run, the
// heap and stack it runs against, and this thread's safepoint handle.
// A multi-threaded program (spec.md §4.K's Thread primitive) runs one
// VM per goroutine, all sharing the same Heap.
type VM struct {
	prog   *bytecode.Program
	heap   *gc.Heap
	stack  *stack.Stack
	handle *gc.Handle

	natives map[nativeKey]NativeFunc

	classes        []*bytecode.Class
	methodVT       map[int]map[int]*bytecode.Function
	typeMethodVT   map[int]map[int]*bytecode.Function
	initVT         map[int]map[int]*bytecode.Function
	methodArgCount map[int]int
	protoVTI       map[int]map[int]int // protoIndex -> cellIdx -> real method VTI
	protoArgCount  map[int]map[int]int
}

// New builds a VM over prog. Native method/type-method/initializer
// bodies are registered afterward via RegisterNative — internal/native
// and internal/runtime/primitive's own installer populate these once a
// VM exists, since nativeKey is this package's private wiring and not
// something a caller can construct a map of directly.
func New(prog *bytecode.Program, heap *gc.Heap, st *stack.Stack) *VM {
	vm := &VM{
		prog:           prog,
		heap:           heap,
		stack:          st,
		handle:         heap.Safepoint().Register(),
		natives:        map[nativeKey]NativeFunc{},
		classes:        prog.Classes,
		methodVT:       map[int]map[int]*bytecode.Function{},
		typeMethodVT:   map[int]map[int]*bytecode.Function{},
		initVT:         map[int]map[int]*bytecode.Function{},
		methodArgCount: map[int]int{},
		protoVTI:       map[int]map[int]int{},
		protoArgCount:  map[int]map[int]int{},
	}
	vm.buildTables()
	return vm
}

// buildTables resolves every class's inherited vtables up front: a
// subclass that doesn't override a VTI dispatches to the ancestor
// Function that declared it. Virtual dispatch requires every override
// to share its base method's argument count, so methodArgCount is a
// single global table keyed by VTI alone.
func (vm *VM) buildTables() {
	for i := range vm.classes {
		vm.resolveClassVT(i)
	}
	for _, c := range vm.classes {
		for _, entry := range c.ProtocolTable {
			if _, ok := vm.protoVTI[entry.Index]; !ok {
				vm.protoVTI[entry.Index] = map[int]int{}
				vm.protoArgCount[entry.Index] = map[int]int{}
			}
			for cell, vti := range entry.Methods {
				if _, have := vm.protoVTI[entry.Index][cell]; have {
					continue
				}
				vm.protoVTI[entry.Index][cell] = vti
				vm.protoArgCount[entry.Index][cell] = vm.methodArgCount[vti]
			}
		}
	}
}

func (vm *VM) resolveClassVT(idx int) (map[int]*bytecode.Function, map[int]*bytecode.Function, map[int]*bytecode.Function) {
	if mvt, ok := vm.methodVT[idx]; ok {
		return mvt, vm.typeMethodVT[idx], vm.initVT[idx]
	}

	c := vm.classes[idx]
	mvt := map[int]*bytecode.Function{}
	tvt := map[int]*bytecode.Function{}
	ivt := map[int]*bytecode.Function{}

	if c.SuperIndex >= 0 && c.SuperIndex != idx {
		superM, superT, superI := vm.resolveClassVT(c.SuperIndex)
		for k, v := range superM {
			mvt[k] = v
		}
		for k, v := range superT {
			tvt[k] = v
		}
		if c.InheritsInitializer {
			for k, v := range superI {
				ivt[k] = v
			}
		}
	}
	for _, fn := range c.Methods {
		mvt[fn.VTI] = fn
		vm.methodArgCount[fn.VTI] = fn.ArgCount
	}
	for _, fn := range c.TypeMethods {
		tvt[fn.VTI] = fn
	}
	for _, fn := range c.Initializers {
		ivt[fn.VTI] = fn
	}

	vm.methodVT[idx] = mvt
	vm.typeMethodVT[idx] = tvt
	vm.initVT[idx] = ivt
	return mvt, tvt, ivt
}

// RegisterNative installs a native implementation for a method (or
// type-method/initializer via kind) VTI on classIndex.
func (vm *VM) RegisterNative(classIndex int, kind funcKind, vti int, fn NativeFunc) {
	vm.natives[nativeKey{Class: classIndex, Kind: kind, VTI: vti}] = fn
}

// MethodKind, TypeMethodKind, InitializerKind are RegisterNative's kind
// argument, exported under readable names for internal/native call sites.
const (
	MethodKind      = kindMethod
	TypeMethodKind  = kindTypeMethod
	InitializerKind = kindInitializer
)

// Close releases this VM's safepoint registration, called when its
// thread exits.
func (vm *VM) Close() {
	vm.heap.Safepoint().Unregister(vm.handle)
}

// Roots reports every Something reachable from this VM's stack, this
// thread's contribution to a Heap.Collect root set.
func (vm *VM) Roots() []gc.Something { return vm.stack.Roots() }

// RunStartup invokes the program's startup type-method (spec.md §6's
// startup-class-index / startup-type-method-vti pair) with no arguments
// and returns its result.
func (vm *VM) RunStartup() (gc.Something, error) {
	c := vm.classes[vm.prog.StartupClassIndex]
	fn, ok := vm.typeMethodVT[vm.prog.StartupClassIndex][vm.prog.StartupTypeMethodVTI]
	if !ok {
		return gc.Nothingness(), errors.Errorf("interp: class %c has no startup type-method", c.Name)
	}
	return vm.call(vm.prog.StartupClassIndex, fn, kindTypeMethod, gc.Nothingness(), nil)
}

// call runs fn (a method/type-method/initializer of the class at
// definingClass) against this, with args already evaluated. Native
// functions are looked up by identity; bytecode functions get a fresh
// reserved call-stack frame.
func (vm *VM) call(definingClass int, fn *bytecode.Function, kind funcKind, this gc.Something, args []gc.Something) (gc.Something, error) {
	if fn.Native {
		native, ok := vm.natives[nativeKey{Class: definingClass, Kind: kind, VTI: fn.VTI}]
		if !ok {
			return gc.Nothingness(), errors.Errorf("interp: no native binding for %c/%d", vm.classes[definingClass].Name, fn.VTI)
		}
		return native(vm, this, args)
	}

	base := 0
	if kind != kindTypeMethod {
		base = 1
	}
	n := fn.VariableCount
	if n < base+len(args) {
		n = base + len(args)
	}
	r, err := vm.stack.ReserveFrame(this, n)
	if err != nil {
		return gc.Nothingness(), err
	}
	slots := r.Slots()
	if base == 1 {
		slots[0] = this // slot 0 is self, as the compiler numbers locals
	}
	copy(slots[base:], args)
	vm.stack.CommitReservedFrame(r)
	defer vm.stack.Pop()

	return vm.exec(definingClass, fn.Code, slots, this)
}

// frame is the mutable state of one in-flight exec call: the program
// counter, the expression value stack, and a scratch table for
// for-enumerable cursors (keyed by the iterator's local slot, since the
// bytecode gives for-enumerable no dedicated index slot of its own).
type frame struct {
	code  []bytecode.Instruction
	pc    int
	stack []gc.Something

	enumCursor map[int]int
	enumKeys   map[int][]string
}

func (f *frame) push(v gc.Something) { f.stack = append(f.stack, v) }

func (f *frame) pop() gc.Something {
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

func (f *frame) popN(n int) []gc.Something {
	out := make([]gc.Something, n)
	copy(out, f.stack[len(f.stack)-n:])
	f.stack = f.stack[:len(f.stack)-n]
	return out
}

// exec runs code to completion (an OpReturn), against the given local
// slots and defining class (used to resolve super-init calls).
func (vm *VM) exec(definingClass int, code []bytecode.Instruction, slots []gc.Something, self gc.Something) (gc.Something, error) {
	f := &frame{code: code, enumCursor: map[int]int{}, enumKeys: map[int][]string{}}

	for {
		vm.handle.CheckIn()

		if f.pc >= len(f.code) {
			return gc.Nothingness(), nil
		}
		in := f.code[f.pc]
		switch in.Op {
		case bytecode.OpNop:

		case bytecode.OpPushInt:
			f.push(gc.FromInt(int64(in.Operands[0])))
		case bytecode.OpPushDouble:
			bits := uint64(uint32(in.Operands[0])) | uint64(uint32(in.Operands[1]))<<32
			f.push(gc.FromDouble(math.Float64frombits(bits)))
		case bytecode.OpPushBool:
			f.push(gc.FromBool(in.Operands[0] != 0))
		case bytecode.OpPushSymbol:
			f.push(gc.FromSymbol(rune(in.Operands[0])))
		case bytecode.OpPushString:
			f.push(gc.FromObject(primitive.NewStringFromGo(vm.prog.StringPool[in.Operands[0]])))
		case bytecode.OpPushNothingness:
			f.push(gc.Nothingness())

		case bytecode.OpLoadLocal:
			f.push(slotAt(slots, int(in.Operands[0])))
		case bytecode.OpStoreLocal:
			storeSlot(slots, int(in.Operands[0]), f.pop())
		case bytecode.OpLoadIVar:
			recv := f.pop()
			f.push(slotAt(recv.Obj.IVars, int(in.Operands[0])))
		case bytecode.OpStoreIVar:
			v := f.pop()
			recv := f.pop()
			storeSlot(recv.Obj.IVars, int(in.Operands[0]), v)

		case bytecode.OpDispatchMethod, bytecode.OpSafeDispatchMethod:
			vti := int(in.Operands[0])
			argc := vm.methodArgCount[vti]
			args := f.popN(argc)
			recv := f.pop()
			if in.Op == bytecode.OpSafeDispatchMethod && recv.IsNothingness() {
				f.push(gc.Nothingness())
				break
			}
			if recv.Kind != gc.KindObject || recv.Obj == nil {
				return gc.Nothingness(), errors.Errorf("interp: method dispatch on a non-object receiver")
			}
			fn, ok := vm.methodVT[recv.Obj.ClassIndex][vti]
			if !ok {
				return gc.Nothingness(), errors.Errorf("interp: class %d has no method vti %d", recv.Obj.ClassIndex, vti)
			}
			v, err := vm.call(recv.Obj.ClassIndex, fn, kindMethod, recv, args)
			if err != nil {
				return gc.Nothingness(), err
			}
			f.push(v)

		case bytecode.OpDispatchTypeMethod:
			classIndex := int(in.Operands[0])
			vti := int(in.Operands[1])
			fn, ok := vm.typeMethodVT[classIndex][vti]
			if !ok {
				return gc.Nothingness(), errors.Errorf("interp: class %d has no type-method vti %d", classIndex, vti)
			}
			argc := fn.ArgCount
			args := f.popN(argc)
			v, err := vm.call(classIndex, fn, kindTypeMethod, gc.Nothingness(), args)
			if err != nil {
				return gc.Nothingness(), err
			}
			f.push(v)

		case bytecode.OpDispatchProtocol:
			protoIndex := int(in.Operands[0])
			cell := int(in.Operands[1])
			argc := vm.protoArgCount[protoIndex][cell]
			args := f.popN(argc)
			recv := f.pop()
			if recv.Kind != gc.KindObject || recv.Obj == nil {
				return gc.Nothingness(), errors.Errorf("interp: protocol dispatch on a non-object receiver")
			}
			vti := vm.protoVTI[protoIndex][cell]
			for _, entry := range vm.classes[recv.Obj.ClassIndex].ProtocolTable {
				if entry.Index == protoIndex && cell < len(entry.Methods) {
					vti = entry.Methods[cell]
					break
				}
			}
			fn, ok := vm.methodVT[recv.Obj.ClassIndex][vti]
			if !ok {
				return gc.Nothingness(), errors.Errorf("interp: class %d has no protocol method vti %d", recv.Obj.ClassIndex, vti)
			}
			v, err := vm.call(recv.Obj.ClassIndex, fn, kindMethod, recv, args)
			if err != nil {
				return gc.Nothingness(), err
			}
			f.push(v)

		case bytecode.OpCallInitializer, bytecode.OpCallInitializerDyn:
			// OpCallInitializerDyn (the "required" initializer's
			// runtime-class form, spec.md §4.E) shares this case rather
			// than picking a class at runtime: the emitter only ever has
			// a statically named class to allocate (internal/ast's
			// InitCall carries a parsed Namespace/ClassName pair, never a
			// runtime class reference), so there is no dynamic class
			// value for this opcode to dispatch against in this port —
			// see DESIGN.md's internal/runtime/interp entry.
			classIndex := int(in.Operands[0])
			vti := int(in.Operands[1])
			fn, ok := vm.initVT[classIndex][vti]
			if !ok {
				return gc.Nothingness(), errors.Errorf("interp: class %d has no initializer vti %d", classIndex, vti)
			}
			args := f.popN(fn.ArgCount)
			obj, err := vm.heap.Allocate(classIndex, "", vm.classes[classIndex].InstanceVarCount, vm.Roots)
			if err != nil {
				return gc.Nothingness(), err
			}
			obj.ClassIndex = classIndex
			obj.Class = vm.classes[classIndex]
			self := gc.FromObject(obj)
			result, err := vm.call(classIndex, fn, kindInitializer, self, args)
			if err != nil {
				return gc.Nothingness(), err
			}
			// A bytecode initializer's implicit fallthrough pushes self
			// (internal/compiler's compileProcedure); an explicit bare
			// "return" inside a can-return-nothingness initializer's
			// body pushes nothingness instead, leaving the this slot
			// NULL. Forwarding whatever the call returned, rather than
			// unconditionally pushing self, is what lets that failure
			// surface to the caller. Native initializers already follow
			// the same convention directly in Go (e.g.
			// packages/sqlite's openInitializer returns this on success).
			f.push(result)

		case bytecode.OpSuperInitCall:
			vti := int(in.Operands[0])
			super := vm.classes[definingClass].SuperIndex
			fn, ok := vm.initVT[super][vti]
			if !ok {
				return gc.Nothingness(), errors.Errorf("interp: superclass %d has no initializer vti %d", super, vti)
			}
			args := f.popN(fn.ArgCount)
			selfVal := f.pop()
			if _, err := vm.call(super, fn, kindInitializer, selfVal, args); err != nil {
				return gc.Nothingness(), err
			}

		case bytecode.OpCastClass:
			v := f.pop()
			target := int(in.Operands[0])
			if v.Kind == gc.KindObject && v.Obj != nil && isSubclass(vm.classes, v.Obj.ClassIndex, target) {
				f.push(v)
			} else {
				f.push(gc.Nothingness())
			}
		case bytecode.OpCastProtocol:
			v := f.pop()
			protoIndex := int(in.Operands[0])
			ok := false
			if v.Kind == gc.KindObject && v.Obj != nil {
				for _, entry := range vm.classes[v.Obj.ClassIndex].ProtocolTable {
					if entry.Index == protoIndex {
						ok = true
						break
					}
				}
			}
			if ok {
				f.push(v)
			} else {
				f.push(gc.Nothingness())
			}
		case bytecode.OpCastPrimitive:
			v := f.pop()
			f.push(castPrimitive(v, int(in.Operands[0])))
		case bytecode.OpUnwrapOptional:
			v := f.pop()
			if v.IsNothingness() {
				return gc.Nothingness(), errors.New("interp: unwrap of nothingness")
			}
			f.push(v)

		// Forward jumps (Jump, the taken branch of JumpIfFalse, and every
		// for-loop exit) are patched by the compiler as
		// targetIndex-thisIndex-1, i.e. relative to the instruction
		// that would run next anyway — so they fall through to the
		// trailing pc++ below like any other instruction. Only the
		// backward JumpBack is patched as a plain back-distance and
		// must skip that trailing increment via continue.
		case bytecode.OpJump:
			f.pc += int(in.Operands[0])
		case bytecode.OpJumpIfFalse:
			v := f.pop()
			if !v.Boolean {
				f.pc += int(in.Operands[0])
			}
		case bytecode.OpJumpBack:
			f.pc -= int(in.Operands[0])
			continue

		case bytecode.OpForListStart:
			storeSlot(slots, int(in.Operands[1]), gc.FromInt(0))
		case bytecode.OpForListNext:
			listSlot, idxSlot, elemSlot, off := int(in.Operands[0]), int(in.Operands[1]), int(in.Operands[2]), int(in.Operands[3])
			list := slotAt(slots, listSlot)
			idx := slotAt(slots, idxSlot).Integer
			if list.Obj == nil || int(idx) >= len(list.Obj.Items) {
				f.pc += off
				break
			}
			storeSlot(slots, elemSlot, list.Obj.Items[idx])
			storeSlot(slots, idxSlot, gc.FromInt(idx+1))

		case bytecode.OpForRangeStart:
			rangeSlot, elemSlot := int(in.Operands[0]), int(in.Operands[1])
			r := slotAt(slots, rangeSlot)
			storeSlot(slots, elemSlot, gc.FromInt(r.Obj.Start-r.Obj.Step))
		case bytecode.OpForRangeNext:
			rangeSlot, elemSlot, off := int(in.Operands[0]), int(in.Operands[1]), int(in.Operands[2])
			r := slotAt(slots, rangeSlot).Obj
			cursor := slotAt(slots, elemSlot).Integer + r.Step
			cont := (r.Step > 0 && cursor < r.Stop) || (r.Step < 0 && cursor > r.Stop)
			if !cont {
				f.pc += off
				break
			}
			storeSlot(slots, elemSlot, gc.FromInt(cursor))

		case bytecode.OpForEnumStart:
			iterSlot := int(in.Operands[0])
			f.enumCursor[iterSlot] = 0
			iter := slotAt(slots, iterSlot)
			if iter.Obj != nil && iter.Obj.Tag == "Dictionary" {
				f.enumKeys[iterSlot] = primitive.DictKeys(iter.Obj)
			}
		case bytecode.OpForEnumNext:
			iterSlot, elemSlot, off := int(in.Operands[0]), int(in.Operands[1]), int(in.Operands[2])
			iter := slotAt(slots, iterSlot).Obj
			cursor := f.enumCursor[iterSlot]
			switch {
			case iter != nil && iter.Tag == "Dictionary":
				keys := f.enumKeys[iterSlot]
				if cursor >= len(keys) {
					f.pc += off
					break
				}
				v, _ := primitive.DictGet(iter, keys[cursor])
				pair := primitive.NewList([]gc.Something{gc.FromObject(primitive.NewStringFromGo(keys[cursor])), v})
				storeSlot(slots, elemSlot, gc.FromObject(pair))
				f.enumCursor[iterSlot] = cursor + 1
			case iter != nil:
				if cursor >= len(iter.Items) {
					f.pc += off
					break
				}
				storeSlot(slots, elemSlot, iter.Items[cursor])
				f.enumCursor[iterSlot] = cursor + 1
			default:
				f.pc += off
			}

		case bytecode.OpReturn:
			return f.pop(), nil

		case bytecode.OpMakeClosure:
			f.push(vm.makeClosure(in, f, slots, self))
			if in.Operands[0] >= 0 {
				f.pc += int(in.Operands[2]) // skip the inline body
			}
		case bytecode.OpCallCaptured:
			argc := int(in.Operands[0])
			args := f.popN(argc)
			closure := f.pop()
			v, err := vm.callClosure(closure.Obj, args)
			if err != nil {
				return gc.Nothingness(), err
			}
			f.push(v)

		case bytecode.OpGetStringPool:
			f.push(gc.FromObject(primitive.NewStringFromGo(vm.prog.StringPool[in.Operands[0]])))
		case bytecode.OpGetClassByIndex:
			f.push(gc.FromInt(in.Operands[0]))

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpRem,
			bytecode.OpShl, bytecode.OpShr:
			rhs := f.pop()
			lhs := f.pop()
			v, err := arith(in.Op, lhs, rhs)
			if err != nil {
				return gc.Nothingness(), err
			}
			f.push(v)
		case bytecode.OpCmpEq:
			rhs := f.pop()
			lhs := f.pop()
			f.push(gc.FromBool(valuesEqual(lhs, rhs)))
		case bytecode.OpCmpLt:
			rhs := f.pop()
			lhs := f.pop()
			f.push(gc.FromBool(compare(lhs, rhs) < 0))
		case bytecode.OpCmpLe:
			rhs := f.pop()
			lhs := f.pop()
			f.push(gc.FromBool(compare(lhs, rhs) <= 0))
		case bytecode.OpLogicAnd:
			rhs := f.pop()
			lhs := f.pop()
			f.push(gc.FromBool(lhs.Boolean && rhs.Boolean))
		case bytecode.OpLogicOr:
			rhs := f.pop()
			lhs := f.pop()
			f.push(gc.FromBool(lhs.Boolean || rhs.Boolean))
		case bytecode.OpLogicNot:
			v := f.pop()
			f.push(gc.FromBool(!v.Boolean))

		case bytecode.OpPop:
			f.pop()
		case bytecode.OpDup:
			v := f.pop()
			f.push(v)
			f.push(v)

		case bytecode.OpBuildList:
			n := int(in.Operands[0])
			items := f.popN(n)
			cp := make([]gc.Something, n)
			copy(cp, items)
			f.push(gc.FromObject(primitive.NewList(cp)))
		case bytecode.OpBuildDict:
			n := int(in.Operands[0])
			pairs := f.popN(n * 2)
			d := primitive.NewDict()
			for i := 0; i < n; i++ {
				key := pairs[i*2]
				val := pairs[i*2+1]
				primitive.DictSet(d, dictKeyOf(key), val)
			}
			f.push(gc.FromObject(d))
		case bytecode.OpBuildRange:
			hasStep := in.Operands[0] != 0
			var step int64
			if hasStep {
				step = f.pop().Integer
			}
			stop := f.pop().Integer
			start := f.pop().Integer
			f.push(gc.FromObject(primitive.NewRange(start, stop, step)))
		case bytecode.OpConcatStrings:
			rhs := f.pop()
			lhs := f.pop()
			f.push(gc.FromObject(primitive.StringConcat(lhs.Obj, rhs.Obj)))

		case bytecode.OpHalt:
			return gc.Nothingness(), nil

		default:
			return gc.Nothingness(), errors.Errorf("interp: unimplemented opcode %s", in.Op)
		}
		f.pc++
	}
}

func dictKeyOf(v gc.Something) string {
	if v.Kind == gc.KindObject && v.Obj != nil && v.Obj.Tag == "String" {
		return string(v.Obj.Runes)
	}
	return ""
}

func (vm *VM) makeClosure(in bytecode.Instruction, f *frame, slots []gc.Something, self gc.Something) gc.Something {
	paramCount := in.Operands[0]
	if paramCount < 0 {
		// Bound-method form (🎣): the receiver is already on the value
		// stack, operand[2] is the target method's VTI.
		recv := f.pop()
		return gc.FromObject(&gc.Object{Tag: "Closure", ClosureSelf: recv, ClosureBoundVTI: int(in.Operands[2])})
	}
	selfCaptured := in.Operands[1] != 0
	blockLen := in.Operands[2]
	body := f.code[f.pc+1 : f.pc+1+int(blockLen)]
	cs := gc.Nothingness()
	if selfCaptured {
		cs = self
	}
	// Operands beyond the first three are the outer-frame slot indices
	// emitClosureLit computed for every free variable the closure body
	// references (internal/compiler/closure.go's freeVarNames). Their
	// current values are snapshotted here, at closure-creation time, into
	// a fresh slice the closure object owns; callClosure copies them back
	// into each call's own frame.
	captureSlots := in.Operands[3:]
	var captures []gc.Something
	if len(captureSlots) > 0 {
		captures = make([]gc.Something, len(captureSlots))
		for i, slot := range captureSlots {
			captures[i] = slotAt(slots, int(slot))
		}
	}
	return gc.FromObject(&gc.Object{
		Tag: "Closure", ClosureCode: body, ClosureSelf: cs,
		ClosureBoundVTI: -1, ClosureParamCount: int(paramCount),
		ClosureCaptures: captures,
	})
}

func (vm *VM) callClosure(o *gc.Object, args []gc.Something) (gc.Something, error) {
	if o.ClosureBoundVTI >= 0 && o.ClosureCode == nil {
		recv := o.ClosureSelf
		if recv.Kind != gc.KindObject || recv.Obj == nil {
			return gc.Nothingness(), errors.New("interp: captured method on a non-object receiver")
		}
		fn, ok := vm.methodVT[recv.Obj.ClassIndex][o.ClosureBoundVTI]
		if !ok {
			return gc.Nothingness(), errors.Errorf("interp: class %d has no method vti %d", recv.Obj.ClassIndex, o.ClosureBoundVTI)
		}
		return vm.call(recv.Obj.ClassIndex, fn, kindMethod, recv, args)
	}

	base := 0
	if !o.ClosureSelf.IsNothingness() {
		base = 1
	}
	slots := make([]gc.Something, base+o.ClosureParamCount+len(o.ClosureCaptures)+closureScratchSlots)
	if base == 1 {
		slots[0] = o.ClosureSelf
	}
	copy(slots[base:], args)
	copy(slots[base+o.ClosureParamCount:], o.ClosureCaptures)
	return vm.exec(-1, o.ClosureCode, slots, o.ClosureSelf)
}

// closureScratchSlots pads a closure's frame so that local var
// declarations inside the closure body (which continue numbering from
// its params) have somewhere to land.
const closureScratchSlots = 16

func slotAt(slots []gc.Something, i int) gc.Something {
	if i < 0 || i >= len(slots) {
		return gc.Nothingness()
	}
	return slots[i]
}

func storeSlot(slots []gc.Something, i int, v gc.Something) {
	if i < 0 || i >= len(slots) {
		return
	}
	slots[i] = v
}

func isSubclass(classes []*bytecode.Class, idx, target int) bool {
	for idx >= 0 {
		if idx == target {
			return true
		}
		c := classes[idx]
		if c.SuperIndex == idx {
			return false
		}
		idx = c.SuperIndex
	}
	return false
}

func castPrimitive(v gc.Something, targetKind int) gc.Something {
	switch gcKindFromTypesKind(targetKind) {
	case gc.KindInteger:
		switch v.Kind {
		case gc.KindInteger:
			return v
		case gc.KindDouble:
			return gc.FromInt(int64(v.Double))
		}
	case gc.KindDouble:
		switch v.Kind {
		case gc.KindDouble:
			return v
		case gc.KindInteger:
			return gc.FromDouble(float64(v.Integer))
		}
	case gc.KindBoolean:
		if v.Kind == gc.KindBoolean {
			return v
		}
	case gc.KindSymbol:
		if v.Kind == gc.KindSymbol {
			return v
		}
	}
	return gc.Nothingness()
}

// gcKindFromTypesKind maps the types.Kind constant values OpCastPrimitive
// carries (types.KindBoolean, KindInteger, KindSymbol, KindDouble — see
// internal/types/type.go) onto gc.Kind, duplicated here as plain ints
// rather than importing internal/types, which this runtime-only package
// otherwise has no reason to depend on.
func gcKindFromTypesKind(k int) gc.Kind {
	switch k {
	case 3: // types.KindBoolean
		return gc.KindBoolean
	case 4: // types.KindInteger
		return gc.KindInteger
	case 5: // types.KindSymbol
		return gc.KindSymbol
	case 6: // types.KindDouble
		return gc.KindDouble
	default:
		return gc.KindNothingness
	}
}

func arith(op bytecode.Op, lhs, rhs gc.Something) (gc.Something, error) {
	if lhs.Kind == gc.KindDouble || rhs.Kind == gc.KindDouble {
		a, b := asDouble(lhs), asDouble(rhs)
		switch op {
		case bytecode.OpAdd:
			return gc.FromDouble(a + b), nil
		case bytecode.OpSub:
			return gc.FromDouble(a - b), nil
		case bytecode.OpMul:
			return gc.FromDouble(a * b), nil
		case bytecode.OpDiv:
			return gc.FromDouble(a / b), nil
		}
		return gc.Nothingness(), errors.Errorf("interp: invalid operator %s on doubles", op)
	}
	a, b := lhs.Integer, rhs.Integer
	switch op {
	case bytecode.OpAdd:
		return gc.FromInt(a + b), nil
	case bytecode.OpSub:
		return gc.FromInt(a - b), nil
	case bytecode.OpMul:
		return gc.FromInt(a * b), nil
	case bytecode.OpDiv:
		if b == 0 {
			return gc.Nothingness(), errors.New("interp: integer division by zero")
		}
		return gc.FromInt(a / b), nil
	case bytecode.OpRem:
		if b == 0 {
			return gc.Nothingness(), errors.New("interp: integer remainder by zero")
		}
		return gc.FromInt(a % b), nil
	case bytecode.OpShl:
		return gc.FromInt(a << uint(b)), nil
	case bytecode.OpShr:
		return gc.FromInt(a >> uint(b)), nil
	}
	return gc.Nothingness(), errors.Errorf("interp: invalid operator %s on integers", op)
}

func asDouble(v gc.Something) float64 {
	if v.Kind == gc.KindDouble {
		return v.Double
	}
	return float64(v.Integer)
}

func compare(lhs, rhs gc.Something) int {
	if lhs.Kind == gc.KindDouble || rhs.Kind == gc.KindDouble {
		a, b := asDouble(lhs), asDouble(rhs)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	if lhs.Kind == gc.KindObject && lhs.Obj != nil && lhs.Obj.Tag == "String" {
		return primitive.StringCompare(lhs.Obj, rhs.Obj)
	}
	a, b := lhs.Integer, rhs.Integer
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func valuesEqual(lhs, rhs gc.Something) bool {
	if lhs.Kind != rhs.Kind {
		return false
	}
	switch lhs.Kind {
	case gc.KindNothingness:
		return true
	case gc.KindBoolean:
		return lhs.Boolean == rhs.Boolean
	case gc.KindInteger:
		return lhs.Integer == rhs.Integer
	case gc.KindDouble:
		return lhs.Double == rhs.Double
	case gc.KindSymbol:
		return lhs.Symbol == rhs.Symbol
	case gc.KindObject:
		if lhs.Obj == rhs.Obj {
			return true
		}
		if lhs.Obj != nil && rhs.Obj != nil && lhs.Obj.Tag == "String" && rhs.Obj.Tag == "String" {
			return primitive.StringEquals(lhs.Obj, rhs.Obj)
		}
		return false
	default:
		return false
	}
}
