package compiler

import (
	"math"

	"github.com/emojicode/emojicode/internal/ast"
	"github.com/emojicode/emojicode/internal/bytecode"
	"github.com/emojicode/emojicode/internal/diag"
	"github.com/emojicode/emojicode/internal/types"
)

// emitExpr emits code that leaves exactly one value on the stack and
// returns that value's static type, used both for later type-compatibility
// checks and for picking the right dispatch/arithmetic opcode.
func (e *emitter) emitExpr(expr ast.Expr) types.Type {
	switch v := expr.(type) {
	case *ast.IntLit:
		e.emit(bytecode.OpPushInt, int32(v.Value))
		return types.Integer()

	case *ast.DoubleLit:
		bits := math.Float64bits(v.Value)
		e.emit(bytecode.OpPushDouble, int32(bits), int32(bits>>32))
		return types.Double()

	case *ast.BoolLit:
		b := int32(0)
		if v.Value {
			b = 1
		}
		e.emit(bytecode.OpPushBool, b)
		return types.Boolean()

	case *ast.SymbolLit:
		e.emit(bytecode.OpPushSymbol, int32(v.Value))
		return types.Symbol()

	case *ast.StringLit:
		e.emit(bytecode.OpPushString, e.pool.intern(v.Value))
		return stringType(e.prog)

	case *ast.StringInterp:
		return e.emitStringInterp(v)

	case *ast.NothingnessLit:
		e.emit(bytecode.OpPushNothingness)
		return types.Nothingness().AsOptional()

	case *ast.VarLoad:
		return e.emitVarLoad(v)

	case *ast.IVarLoad:
		return e.emitIVarLoad(v)

	case *ast.MethodCall:
		return e.emitMethodCall(v)

	case *ast.ProtocolCall:
		return e.emitProtocolCall(v)

	case *ast.InitCall:
		return e.emitInitCall(v)

	case *ast.SuperInitCall:
		return e.emitSuperInitCall(v)

	case *ast.CastExpr:
		return e.emitCast(v)

	case *ast.ListLit:
		return e.emitListLit(v)

	case *ast.DictLit:
		return e.emitDictLit(v)

	case *ast.RangeLit:
		return e.emitRangeLit(v)

	case *ast.BinOp:
		return e.emitBinOp(v)

	case *ast.UnaryOp:
		return e.emitUnaryOp(v)

	case *ast.ClosureLit:
		return e.emitClosureLit(v)

	case *ast.CapturedMethod:
		return e.emitCapturedMethod(v)

	default:
		return types.Something()
	}
}

// stringType returns 🔤's class type if the 🔤 native package registered a
// String class under the program's default namespace, else SomeObject — the
// literal still compiles (and still pushes a value), it just loses static
// typing for method dispatch on the result, matching how native-class
// resolution degrades gracefully before internal/native is wired in.
func stringType(prog *types.Program) types.Type {
	if c, ok := prog.LookupClass(0, '🔤'); ok {
		return types.ClassType(c)
	}
	return types.SomeObject()
}

func (e *emitter) emitStringInterp(v *ast.StringInterp) types.Type {
	if len(v.Parts) == 0 {
		e.emit(bytecode.OpPushString, e.pool.intern(""))
		return stringType(e.prog)
	}
	e.emitExpr(v.Parts[0])
	for _, part := range v.Parts[1:] {
		e.emitExpr(part)
		e.emit(bytecode.OpConcatStrings)
	}
	return stringType(e.prog)
}

func (e *emitter) emitVarLoad(v *ast.VarLoad) types.Type {
	if v.Name == ast.SelfName {
		if e.isInitializer && e.class != nil && !e.class.IsRoot() && !e.superInitCalled {
			e.errorf(diag.BadSuperInit, v.Pos, "self used before the superclass initializer is called")
		}
		e.emit(bytecode.OpLoadLocal, 0)
		if e.class != nil {
			return types.ClassType(e.class)
		}
		return types.SomeObject()
	}
	vr, ok := e.scope.lookup(v.Name)
	if !ok {
		e.errorf(diag.UnknownMember, v.Pos, "use of undeclared variable %c", v.Name)
		return types.Something()
	}
	e.emit(bytecode.OpLoadLocal, vr.slot)
	return vr.typ
}

func (e *emitter) emitIVarLoad(v *ast.IVarLoad) types.Type {
	idx, typ, ok := instanceVar(e.class, v.Name)
	if !ok {
		e.errorf(diag.UnknownMember, v.Pos, "class has no instance variable %c", v.Name)
		return types.Something()
	}
	if e.isInitializer && !typ.Optional && !e.ivarInit[v.Name] {
		e.errorf(diag.UseBeforeInit, v.Pos, "instance variable %c used before it is initialized", v.Name)
	}
	e.emit(bytecode.OpLoadLocal, 0)
	e.emit(bytecode.OpLoadIVar, int32(idx))
	return typ
}

func (e *emitter) emitArgs(args []ast.Expr) {
	for _, a := range args {
		e.emitExpr(a)
	}
}

func (e *emitter) emitMethodCall(v *ast.MethodCall) types.Type {
	var recvClass *types.Class
	if v.Receiver == nil {
		e.emit(bytecode.OpLoadLocal, 0)
		recvClass = e.class
	} else {
		t := e.emitExpr(v.Receiver)
		recvClass = t.Class
	}
	e.emitArgs(v.Args)

	var proc *types.Procedure
	var ok bool
	if recvClass != nil {
		if v.TypeCall {
			proc, ok = lookupTypeMethodVTI(recvClass, v.Name)
		} else {
			proc, ok = lookupMethodVTI(recvClass, v.Name)
		}
	}
	if !ok {
		e.errorf(diag.UnknownMember, v.Pos, "unknown method %c", v.Name)
		e.emit(bytecode.OpPushNothingness)
		return types.Something()
	}
	e.checkAccess(proc, v.Pos, v.Name)

	switch {
	case v.TypeCall:
		e.emit(bytecode.OpDispatchTypeMethod, int32(recvClass.Index), int32(proc.VTI))
	case v.Safe:
		e.emit(bytecode.OpSafeDispatchMethod, int32(proc.VTI))
	default:
		e.emit(bytecode.OpDispatchMethod, int32(proc.VTI))
	}
	if v.Safe {
		return proc.Return.AsOptional()
	}
	return proc.Return
}

// checkAccess enforces spec.md §4.E/§7's call-site visibility rule: a
// private procedure may only be called from code whose enclosing class
// is its own defining class; a protected one additionally allows any
// class related to the definer by inheritance, in either direction.
func (e *emitter) checkAccess(proc *types.Procedure, pos ast.Pos, name rune) {
	if proc.Owner == nil || e.class == nil {
		return
	}
	switch proc.Access {
	case types.Private:
		if e.class != proc.Owner {
			e.errorf(diag.AccessViolation, pos, "%c is private to %c", name, proc.Owner.Name)
		}
	case types.Protected:
		if !relatedByInheritance(e.class, proc.Owner) {
			e.errorf(diag.AccessViolation, pos, "%c is protected by %c", name, proc.Owner.Name)
		}
	}
}

// relatedByInheritance reports whether a and b share an ancestor/descendant
// relationship, walking each one's classChain for the other.
func relatedByInheritance(a, b *types.Class) bool {
	for _, c := range classChain(a) {
		if c == b {
			return true
		}
	}
	for _, c := range classChain(b) {
		if c == a {
			return true
		}
	}
	return false
}

func (e *emitter) emitProtocolCall(v *ast.ProtocolCall) types.Type {
	t := e.emitExpr(v.Receiver)
	e.emitArgs(v.Args)
	if t.Protocol == nil {
		e.errorf(diag.UnknownMember, v.Pos, "protocol call on a non-protocol receiver")
		e.emit(bytecode.OpPushNothingness)
		return types.Something()
	}
	methodVTI := -1
	var ret types.Type
	for i, m := range t.Protocol.Methods {
		if m.Name == v.Name {
			methodVTI = i
			ret = m.Return
			break
		}
	}
	e.emit(bytecode.OpDispatchProtocol, int32(t.Protocol.Index), int32(methodVTI))
	return ret
}

func (e *emitter) emitInitCall(v *ast.InitCall) types.Type {
	c, ok := e.prog.LookupClass(v.Namespace, v.ClassName)
	if !ok {
		e.errorf(diag.UnknownType, v.Pos, "unknown class %c", v.ClassName)
		e.emit(bytecode.OpPushNothingness)
		return types.Something()
	}
	e.emitArgs(v.Args)
	init, ok := c.Initializers[v.Name]
	if !ok {
		e.errorf(diag.UnknownMember, v.Pos, "class %c has no initializer %c", v.ClassName, v.Name)
		e.emit(bytecode.OpPushNothingness)
		return types.ClassType(c)
	}
	e.checkAccess(init, v.Pos, v.Name)
	if v.Dynamic {
		e.emit(bytecode.OpCallInitializerDyn, int32(c.Index), int32(init.VTI))
	} else {
		e.emit(bytecode.OpCallInitializer, int32(c.Index), int32(init.VTI))
	}
	if init.CanReturnNothingness {
		return types.ClassType(c).AsOptional()
	}
	return types.ClassType(c)
}

// emitSuperInitCall enforces spec.md §4.E's super-init ordering rules: a
// super-init call must come after every non-optional instance variable
// declared on this class is initialized, must sit outside any
// if/while/for structure, and must run at most once. e.superInitCalled
// is set before the receiver/args are emitted, not after the call
// succeeds, so the call's own argument expressions (which may
// legitimately read the ivars just assigned above it) are never
// mistaken for a use-before-super-init violation — only statements
// textually preceding this one can trip emitVarLoad's self check.
func (e *emitter) emitSuperInitCall(v *ast.SuperInitCall) types.Type {
	if e.class == nil || e.class.IsRoot() {
		e.errorf(diag.BadSuperInit, v.Pos, "no superclass to initialize")
		e.emit(bytecode.OpPushNothingness)
		return types.Nothingness()
	}
	if e.superInitCalled {
		e.errorf(diag.BadSuperInit, v.Pos, "superclass initializer already called")
	}
	if e.flowDepth > 0 {
		e.errorf(diag.BadSuperInit, v.Pos, "superclass initializer call must be outside any flow-control structure")
	}
	if missing := e.missingNonOptionalIVars(); len(missing) > 0 {
		e.errorf(diag.BadSuperInit, v.Pos, "instance variable %c must be initialized before calling the superclass initializer", missing[0])
	}
	e.superInitCalled = true

	e.emit(bytecode.OpLoadLocal, 0)
	e.emitArgs(v.Args)
	init, ok := e.class.Super.Initializers[v.Name]
	if !ok {
		e.errorf(diag.BadSuperInit, v.Pos, "superclass has no initializer %c", v.Name)
		e.emit(bytecode.OpPushNothingness)
		return types.Nothingness()
	}
	e.checkAccess(init, v.Pos, v.Name)
	e.emit(bytecode.OpSuperInitCall, int32(init.VTI))
	e.markInheritedIVarsInit()
	e.emit(bytecode.OpPushNothingness)
	return types.Nothingness()
}

func (e *emitter) emitCast(v *ast.CastExpr) types.Type {
	e.emitExpr(v.Value)
	switch v.Target.Kind {
	case types.KindClass:
		e.emit(bytecode.OpCastClass, int32(v.Target.Class.Index))
	case types.KindProtocol:
		e.emit(bytecode.OpCastProtocol, int32(v.Target.Protocol.Index))
	default:
		e.emit(bytecode.OpCastPrimitive, int32(v.Target.Kind))
	}
	return v.Target.AsOptional()
}

func (e *emitter) emitListLit(v *ast.ListLit) types.Type {
	var elemTypes []types.Type
	for _, el := range v.Elems {
		elemTypes = append(elemTypes, e.emitExpr(el))
	}
	e.emit(bytecode.OpBuildList, int32(len(v.Elems)))
	if len(elemTypes) > 1 {
		e.diags.Report(diag.AmbiguousCommonType, e.pos(v.Pos), "inferring list element type from %d elements", len(elemTypes))
	}
	_ = commonType(elemTypes)
	return types.SomeObject()
}

func (e *emitter) emitDictLit(v *ast.DictLit) types.Type {
	for i := range v.Keys {
		e.emitExpr(v.Keys[i])
		e.emitExpr(v.Vals[i])
	}
	e.emit(bytecode.OpBuildDict, int32(len(v.Keys)))
	return types.SomeObject()
}

func (e *emitter) emitRangeLit(v *ast.RangeLit) types.Type {
	e.emitExpr(v.Start)
	e.emitExpr(v.Stop)
	hasStep := int32(0)
	if v.Step != nil {
		e.emitExpr(v.Step)
		hasStep = 1
	}
	e.emit(bytecode.OpBuildRange, hasStep)
	return types.SomeObject()
}

var binOps = map[string]bytecode.Op{
	"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul,
	"/": bytecode.OpDiv, "%": bytecode.OpRem,
	"<<": bytecode.OpShl, ">>": bytecode.OpShr,
	"&&": bytecode.OpLogicAnd, "||": bytecode.OpLogicOr,
}

func (e *emitter) emitBinOp(v *ast.BinOp) types.Type {
	switch v.Op {
	case "==":
		e.emitExpr(v.Lhs)
		e.emitExpr(v.Rhs)
		e.emit(bytecode.OpCmpEq)
		return types.Boolean()
	case "!=":
		e.emitExpr(v.Lhs)
		e.emitExpr(v.Rhs)
		e.emit(bytecode.OpCmpEq)
		e.emit(bytecode.OpLogicNot)
		return types.Boolean()
	case "<":
		e.emitExpr(v.Lhs)
		e.emitExpr(v.Rhs)
		e.emit(bytecode.OpCmpLt)
		return types.Boolean()
	case "<=":
		e.emitExpr(v.Lhs)
		e.emitExpr(v.Rhs)
		e.emit(bytecode.OpCmpLe)
		return types.Boolean()
	case ">":
		// a > b  <=>  b < a
		e.emitExpr(v.Rhs)
		e.emitExpr(v.Lhs)
		e.emit(bytecode.OpCmpLt)
		return types.Boolean()
	case ">=":
		e.emitExpr(v.Rhs)
		e.emitExpr(v.Lhs)
		e.emit(bytecode.OpCmpLe)
		return types.Boolean()
	}

	op, ok := binOps[v.Op]
	if !ok {
		e.errorf(diag.TypeMismatch, v.Pos, "unknown operator %s", v.Op)
		return types.Something()
	}
	lhs := e.emitExpr(v.Lhs)
	e.emitExpr(v.Rhs)
	e.emit(op)
	switch v.Op {
	case "&&", "||":
		return types.Boolean()
	default:
		return lhs
	}
}

func (e *emitter) emitUnaryOp(v *ast.UnaryOp) types.Type {
	if v.Op == "!" {
		e.emitExpr(v.Operand)
		e.emit(bytecode.OpLogicNot)
		return types.Boolean()
	}
	// "-x" compiles as "0 - x", avoiding a dedicated negate opcode.
	e.emit(bytecode.OpPushInt, 0)
	t := e.emitExpr(v.Operand)
	e.emit(bytecode.OpSub)
	return t
}

// emitClosureLit emits a closure literal's body and, per spec.md §4.E,
// the captured-variable IDs of every outer-scope variable the body
// references: the closure body runs in its own call frame starting
// numbering at slot 0 again, so an outer variable resolved by name
// inside that frame would otherwise land on a meaningless slot index —
// real capture means copying the value out of the enclosing frame at
// OpMakeClosure time (internal/runtime/interp.makeClosure) and binding
// the closure's own fresh slot for it, the way self already was.
func (e *emitter) emitClosureLit(v *ast.ClosureLit) types.Type {
	type capture struct {
		name      rune
		outerSlot int32
		typ       types.Type
	}
	var caps []capture
	for _, name := range freeVarNames(v.Params, v.Body) {
		if vr, ok := e.scope.lookup(name); ok {
			caps = append(caps, capture{name: name, outerSlot: vr.slot, typ: vr.typ})
		}
	}

	operands := make([]int32, 3+len(caps))
	operands[0] = int32(len(v.Params))
	operands[1] = boolOperand(v.SelfCaptured)
	for i, c := range caps {
		operands[3+i] = c.outerSlot
	}
	makeIdx := e.emit(bytecode.OpMakeClosure, operands...)
	bodyStart := len(e.code)

	e.withScope(func() {
		savedNext := e.nextSlot
		e.nextSlot = 0
		if v.SelfCaptured {
			e.nextSlot = 1
		}
		for _, p := range v.Params {
			slot := e.nextSlot
			e.nextSlot++
			e.scope.define(p.Name, p.Type, false, slot)
		}
		for _, c := range caps {
			slot := e.nextSlot
			e.nextSlot++
			e.scope.define(c.name, c.typ, false, slot)
		}
		e.emitBlock(v.Body)
		if len(e.code) == 0 || e.code[len(e.code)-1].Op != bytecode.OpReturn {
			e.emit(bytecode.OpPushNothingness)
			e.emit(bytecode.OpReturn)
		}
		e.nextSlot = savedNext
	})

	blockLen := int32(len(e.code) - bodyStart)
	e.patchOperand(makeIdx, 2, blockLen)
	return types.Callable(argTypes(v.Params), v.Return)
}

func argTypes(params []types.Arg) []types.Type {
	ts := make([]types.Type, len(params))
	for i, p := range params {
		ts[i] = p.Type
	}
	return ts
}

func boolOperand(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// emitCapturedMethod binds a method to a receiver without calling it
// (🎣 name). Unlike a closure literal, there is no inline body to skip over:
// OpMakeClosure's third operand here is the bound method's VTI rather than a
// block length, and the instruction consumes the receiver value already on
// the stack instead of one captured from an enclosing self slot.
func (e *emitter) emitCapturedMethod(v *ast.CapturedMethod) types.Type {
	t := e.emitExpr(v.Receiver)
	var vti int32 = -1
	var ret types.Type
	if t.Class != nil {
		if proc, ok := lookupMethodVTI(t.Class, v.Name); ok {
			vti = int32(proc.VTI)
			ret = types.Callable(argTypesOf(proc), proc.Return)
		}
	}
	// operand[0] == -1 is the sentinel the interpreter uses to tell a
	// bound-method value (no inline body to skip, operand[2] is a VTI)
	// apart from an ordinary closure literal (operand[0] is a param
	// count >= 0, operand[2] is the inline body's instruction length).
	e.emit(bytecode.OpMakeClosure, int32(-1), 1, vti)
	return ret
}

func argTypesOf(proc *types.Procedure) []types.Type {
	ts := make([]types.Type, len(proc.Args))
	for i, a := range proc.Args {
		ts[i] = a.Type
	}
	return ts
}
