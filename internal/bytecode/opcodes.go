// Package bytecode defines the instruction set shared by the expression
// compiler (the producer), the writer/reader (the serializer), and the
// interpreter (the consumer).
//
// The instruction shape — an opcode word followed by a variable number of
// operand words — and the constant-pool/disassembly pattern are carried
// over from the teacher's wam/program.go and wam/asm.go: an instruct there
// is {opcode, arity, cid, reg1, reg2}; here an Instruction is {Op, Operands}
// with the same "small fixed struct, printable via String()" shape,
// generalized from WAM's fact-compilation instructions to Emojicode's
// expression-directed instruction set (spec.md §4.E, §4.J).
package bytecode

// Op is one instruction opcode.
type Op uint8

// The opcode allocation. Each constant corresponds to one emission site of
// spec.md §4.E and one dispatch case of §4.J.
const (
	OpNop Op = iota

	OpPushInt
	OpPushDouble
	OpPushBool
	OpPushSymbol
	OpPushString // operand: string-pool index
	OpPushNothingness

	OpLoadLocal
	OpStoreLocal
	OpLoadIVar
	OpStoreIVar

	OpDispatchMethod      // operands: methodVTI
	OpDispatchTypeMethod  // operands: classIndex, methodVTI
	OpDispatchProtocol    // operands: protoIndex, methodVTI
	OpSafeDispatchMethod  // guarded: yields nothingness if receiver is nothingness
	OpCallInitializer     // operands: classIndex, initVTI
	OpCallInitializerDyn  // dynamic "runtime class" form, for required initializers
	OpSuperInitCall       // operands: initVTI

	OpCastClass
	OpCastProtocol
	OpCastPrimitive
	OpUnwrapOptional

	OpJump        // unconditional; operand: relative offset
	OpJumpIfFalse // operand: relative offset (placeholder/patch pattern, §4.E)
	OpJumpBack    // operand: relative back-offset, used by while

	OpForListStart  // operands: localSlot of list, localSlot of index, localSlot of elem
	OpForListNext   // operand: relative offset to loop end
	OpForRangeStart // operands: start/stop/step locals, elem local
	OpForRangeNext
	OpForEnumStart // operand: enumerator local
	OpForEnumNext

	OpReturn
	OpMakeClosure   // operands: paramCount (-1 for a bound-method literal), selfCaptured(0/1), blockLen, then captured outer-frame slot ids inline
	OpCallCaptured

	OpGetStringPool
	OpGetClassByIndex

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpCmpEq
	OpCmpLt
	OpCmpLe
	OpLogicAnd
	OpLogicOr
	OpLogicNot
	OpShl
	OpShr

	OpPop
	OpDup

	OpBuildList
	OpBuildDict
	OpBuildRange // operands: hasStep(0/1)
	OpConcatStrings

	OpHalt
)

var names = map[Op]string{
	OpNop:                "nop",
	OpPushInt:            "push.int",
	OpPushDouble:         "push.double",
	OpPushBool:           "push.bool",
	OpPushSymbol:         "push.symbol",
	OpPushString:         "push.string",
	OpPushNothingness:    "push.nothingness",
	OpLoadLocal:          "load.local",
	OpStoreLocal:         "store.local",
	OpLoadIVar:           "load.ivar",
	OpStoreIVar:          "store.ivar",
	OpDispatchMethod:     "dispatch.method",
	OpDispatchTypeMethod: "dispatch.typemethod",
	OpDispatchProtocol:   "dispatch.protocol",
	OpSafeDispatchMethod: "dispatch.safe",
	OpCallInitializer:    "call.init",
	OpCallInitializerDyn: "call.init.dyn",
	OpSuperInitCall:      "call.superinit",
	OpCastClass:          "cast.class",
	OpCastProtocol:       "cast.protocol",
	OpCastPrimitive:      "cast.primitive",
	OpUnwrapOptional:     "unwrap",
	OpJump:               "jmp",
	OpJumpIfFalse:        "jmp.iffalse",
	OpJumpBack:           "jmp.back",
	OpForListStart:       "for.list.start",
	OpForListNext:        "for.list.next",
	OpForRangeStart:      "for.range.start",
	OpForRangeNext:       "for.range.next",
	OpForEnumStart:       "for.enum.start",
	OpForEnumNext:        "for.enum.next",
	OpReturn:             "ret",
	OpMakeClosure:        "closure",
	OpCallCaptured:       "call.captured",
	OpGetStringPool:      "get.strpool",
	OpGetClassByIndex:    "get.class",
	OpAdd:                "add",
	OpSub:                "sub",
	OpMul:                "mul",
	OpDiv:                "div",
	OpRem:                "rem",
	OpCmpEq:               "cmp.eq",
	OpCmpLt:               "cmp.lt",
	OpCmpLe:               "cmp.le",
	OpLogicAnd:           "and",
	OpLogicOr:            "or",
	OpLogicNot:           "not",
	OpShl:                "shl",
	OpShr:                "shr",
	OpPop:                "pop",
	OpDup:                "dup",
	OpBuildList:          "build.list",
	OpBuildDict:          "build.dict",
	OpBuildRange:         "build.range",
	OpConcatStrings:      "concat",
	OpHalt:               "halt",
}

func (o Op) String() string {
	if n, ok := names[o]; ok {
		return n
	}
	return "unknown"
}
