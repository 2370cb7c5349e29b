// Package compiler type-checks and emits bytecode for the parsed body of
// every non-native method, type-method, and initializer (spec.md §4.E). It
// runs after internal/sema has assigned VTIs, and produces a
// internal/bytecode.Program ready for internal/bytecode/writer.
//
// The block-length placeholder-then-patch pattern used throughout (for
// jumps, loop bodies, and closure bodies) is the same two-pass shape the
// teacher's wam/codegen.go uses for clause compilation: emit a word with a
// zero placeholder, keep its index, backfill it once the block's real
// length is known.
package compiler

import (
	"github.com/emojicode/emojicode/internal/ast"
	"github.com/emojicode/emojicode/internal/bytecode"
	"github.com/emojicode/emojicode/internal/diag"
	"github.com/emojicode/emojicode/internal/types"
)

// Compile walks every class of prog and emits a bytecode.Program. Diagnostics
// encountered during emission (unknown members, access violations, frozen
// writes) are reported to diags; emission continues on a best-effort basis
// so that independent errors in sibling procedures are all surfaced in one
// pass, matching the teacher's "collect, don't abort on first" style.
func Compile(prog *types.Program, diags *diag.Sink) *bytecode.Program {
	pool := newStringPool()
	out := &bytecode.Program{FormatVersion: bytecode.CurrentFormatVersion}

	for _, pkg := range prog.Packages {
		out.Packages = append(out.Packages, bytecode.PackageSection{
			Name: pkg.Name, Major: pkg.Major, Minor: pkg.Minor,
			RequiresNativeBinary: pkg.RequiresNativeBinary,
		})
	}

	for i, c := range prog.Classes {
		out.Classes = append(out.Classes, compileClass(c, prog, pool, diags))
		if m, ok := c.TypeMethods[startupFlagName]; ok {
			out.StartupClassIndex = i
			out.StartupTypeMethodVTI = m.VTI
		}
	}

	out.StringPool = pool.strings
	return out
}

// startupFlagName is the 🏁 type-method the original compiler's
// ClassParser.c requires exactly one class in the whole program to
// declare: the program's entry point. Compile wires whichever class
// declares it into the bytecode header's startup fields; a program
// declaring more than one is accepted here and simply wires the last
// one found, since duplicate-🏁 detection belongs to the declaration
// parser's diagnostics (not yet enforced there — see DESIGN.md).
const startupFlagName = '🏁'

func compileClass(c *types.Class, prog *types.Program, pool *stringPool, diags *diag.Sink) *bytecode.Class {
	bc := &bytecode.Class{
		Name:                c.Name,
		InstanceVarCount:    len(c.InstanceVars),
		MethodVTableSize:    c.NextMethodVTI,
		InheritsInitializer: c.InheritsInitializers,
		InitVTableSize:      c.NextInitializerVTI,
	}
	if !c.IsRoot() && c.Super != nil {
		bc.SuperIndex = c.Super.Index
	} else {
		bc.SuperIndex = c.Index // a root class is its own superclass
	}
	if c.ProtocolTable != nil {
		bc.ProtocolMinIndex = c.ProtocolTable.MinIndex
		bc.ProtocolMaxIndex = c.ProtocolTable.MaxIndex
		for i, cell := range c.ProtocolTable.Cells {
			bc.ProtocolTable = append(bc.ProtocolTable, bytecode.ProtocolTableEntry{
				Index: c.ProtocolTable.MinIndex + i, Methods: cell,
			})
		}
	}

	for _, name := range sortedRunes(c.Methods) {
		bc.Methods = append(bc.Methods, compileProcedure(c.Methods[name], c, prog, pool, diags, kindMethod))
	}
	for _, name := range sortedRunes(c.TypeMethods) {
		bc.TypeMethods = append(bc.TypeMethods, compileProcedure(c.TypeMethods[name], c, prog, pool, diags, kindTypeMethod))
	}
	for _, name := range sortedRunes(c.Initializers) {
		bc.Initializers = append(bc.Initializers, compileProcedure(c.Initializers[name], c, prog, pool, diags, kindInitializer))
	}
	return bc
}

func sortedRunes(m map[rune]*types.Procedure) []rune {
	ks := make([]rune, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	for i := 1; i < len(ks); i++ {
		for j := i; j > 0 && ks[j-1] > ks[j]; j-- {
			ks[j-1], ks[j] = ks[j], ks[j-1]
		}
	}
	return ks
}

type procKind int

const (
	kindMethod procKind = iota
	kindTypeMethod
	kindInitializer
)

func compileProcedure(proc *types.Procedure, c *types.Class, prog *types.Program, pool *stringPool, diags *diag.Sink, kind procKind) *bytecode.Function {
	fn := &bytecode.Function{Name: proc.Name, VTI: proc.VTI, ArgCount: len(proc.Args)}

	body, ok := proc.Body.([]ast.Stmt)
	if !ok {
		fn.Native = true
		return fn
	}

	e := &emitter{
		class: c, proc: proc, prog: prog, diags: diags, pool: pool,
		scope: newScope(nil),
	}

	// Slot 0 is self for instance methods and initializers; type-methods
	// have no self and argument slots start at 0.
	if kind != kindTypeMethod {
		e.nextSlot = 1
	}
	for _, a := range proc.Args {
		slot := e.nextSlot
		e.nextSlot++
		e.scope.define(a.Name, a.Type, false, slot)
	}

	if kind == kindInitializer {
		e.isInitializer = true
		e.ivarInit = map[rune]bool{}
	}

	e.emitBlock(body)

	if kind == kindInitializer {
		for _, missing := range e.missingNonOptionalIVars() {
			diags.Report(diag.UseBeforeInit, diag.Position{}, "%c: instance variable %c is never initialized", proc.Name, missing)
		}
	}

	if len(e.code) == 0 || e.code[len(e.code)-1].Op != bytecode.OpReturn {
		switch {
		case kind == kindInitializer:
			// The implicit fallthrough of an initializer body is success:
			// push self (slot 0), the value OpCallInitializer surfaces to
			// its caller. A can-return-nothingness initializer signals
			// failure instead with an explicit bare "return" mid-body
			// (ReturnStmt already pushes nothingness for that case).
			e.emit(bytecode.OpLoadLocal, 0)
			e.emit(bytecode.OpReturn)
		case proc.Return.Kind == types.KindNothingness:
			e.emit(bytecode.OpPushNothingness)
			e.emit(bytecode.OpReturn)
		case !proc.CanReturnNothingness:
			diags.Report(diag.MissingExplicitReturn, diag.Position{}, "%c: missing explicit return on a path that can fall through", proc.Name)
		}
	}

	fn.Code = e.code
	fn.VariableCount = int(e.nextSlot)
	return fn
}

// stringPool interns string literals into a single program-wide table.
type stringPool struct {
	index   map[string]int32
	strings []string
}

func newStringPool() *stringPool {
	return &stringPool{index: make(map[string]int32)}
}

func (p *stringPool) intern(s string) int32 {
	if i, ok := p.index[s]; ok {
		return i
	}
	i := int32(len(p.strings))
	p.strings = append(p.strings, s)
	p.index[s] = i
	return i
}

// scope is a linked stack of lexical blocks mapping a variable name to its
// stack slot, type, and frozen flag.
type scope struct {
	parent *scope
	vars   map[rune]*variable
}

type variable struct {
	slot     int32
	typ      types.Type
	frozen   bool
	declared bool
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[rune]*variable)}
}

func (s *scope) define(name rune, typ types.Type, frozen bool, slot int32) *variable {
	v := &variable{slot: slot, typ: typ, frozen: frozen, declared: true}
	s.vars[name] = v
	return v
}

func (s *scope) lookup(name rune) (*variable, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// emitter holds the mutable state of one procedure's code generation pass.
type emitter struct {
	class *types.Class
	proc  *types.Procedure
	prog  *types.Program
	diags *diag.Sink
	pool  *stringPool

	code     []bytecode.Instruction
	scope    *scope
	nextSlot int32

	// Initializer discipline (spec.md §4.E): emitSuperInitCall and the
	// self/ivar load sites consult these to enforce the super-init
	// ordering rules and to catch a non-optional instance variable read
	// before it's definitely been assigned.
	isInitializer   bool
	superInitCalled bool
	flowDepth       int // >0 inside an if/while/for body

	// ivarInit tracks, for the instance variables declared directly on
	// e.class, which ones every path reaching the current program point
	// has assigned. nil outside an initializer. emitIf/emitWhile/the for
	// forms snapshot and restore it around each branch or loop body,
	// merging by intersection on exit — the set-based equivalent of the
	// per-branch "bump a counter entering a branch" scheme spec.md §4.E
	// describes: a variable is definite only once every arm agrees.
	ivarInit map[rune]bool
}

// missingNonOptionalIVars returns, in declaration order, every
// non-optional instance variable declared directly on e.class that
// ivarInit does not yet mark as definitely assigned. Inherited instance
// variables are the superclass initializer's responsibility and are
// marked as a block once a super-init call succeeds (markInheritedIVarsInit).
func (e *emitter) missingNonOptionalIVars() []rune {
	var out []rune
	for _, iv := range e.class.InstanceVars {
		if iv.Type.Optional {
			continue
		}
		if !e.ivarInit[iv.Name] {
			out = append(out, iv.Name)
		}
	}
	return out
}

// markInheritedIVarsInit records every instance variable belonging to
// e.class's superclass chain as initialized, called once a super-init
// call has actually executed.
func (e *emitter) markInheritedIVarsInit() {
	for _, c := range classChain(e.class.Super) {
		for _, iv := range c.InstanceVars {
			e.ivarInit[iv.Name] = true
		}
	}
}

func (e *emitter) copyIVarInit(m map[rune]bool) map[rune]bool {
	if m == nil {
		return nil
	}
	cp := make(map[rune]bool, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// mergeIVarInit intersects a set of per-branch ivarInit snapshots: a
// variable is definitely initialized after a conditional only if every
// arm (the branches in sets) initialized it.
func mergeIVarInit(sets []map[rune]bool) map[rune]bool {
	merged := map[rune]bool{}
	if len(sets) == 0 {
		return merged
	}
	for name := range sets[0] {
		all := true
		for _, s := range sets {
			if !s[name] {
				all = false
				break
			}
		}
		if all {
			merged[name] = true
		}
	}
	return merged
}

func (e *emitter) emit(op bytecode.Op, operands ...int32) int {
	e.code = append(e.code, bytecode.Instruction{Op: op, Operands: operands})
	return len(e.code) - 1
}

// patchOperand overwrites operand i of the instruction at idx, used to
// backfill jump targets and block lengths once the block has been emitted.
func (e *emitter) patchOperand(idx, operandIdx int, value int32) {
	e.code[idx].Operands[operandIdx] = value
}

func (e *emitter) pos(n ast.Pos) diag.Position {
	return diag.Position{File: n.File, Line: n.Line, Character: n.Col}
}

func (e *emitter) errorf(kind diag.Kind, pos ast.Pos, format string, args ...interface{}) {
	e.diags.Report(kind, e.pos(pos), format, args...)
}

func (e *emitter) withScope(fn func()) {
	prev := e.scope
	e.scope = newScope(prev)
	fn()
	e.scope = prev
}

func (e *emitter) pushLocal(name rune, typ types.Type, frozen bool) *variable {
	slot := e.nextSlot
	e.nextSlot++
	return e.scope.define(name, typ, frozen, slot)
}

// instanceVar walks c and its superclass chain to find a named instance
// variable, returning its flattened slot index (superclass variables come
// first, matching the object layout of spec.md §3).
func instanceVar(c *types.Class, name rune) (int, types.Type, bool) {
	chain := classChain(c)
	offset := 0
	for i := len(chain) - 1; i >= 0; i-- {
		cur := chain[i]
		for _, iv := range cur.InstanceVars {
			if iv.Name == name {
				return offset, iv.Type, true
			}
			offset++
		}
	}
	return 0, types.Type{}, false
}

func classChain(c *types.Class) []*types.Class {
	var chain []*types.Class
	for cur := c; cur != nil; {
		chain = append(chain, cur)
		if cur.IsRoot() {
			break
		}
		cur = cur.Super
	}
	return chain
}

func lookupMethodVTI(c *types.Class, name rune) (*types.Procedure, bool) {
	for cur := c; cur != nil; {
		if p, ok := cur.Methods[name]; ok {
			return p, true
		}
		if cur.IsRoot() {
			break
		}
		cur = cur.Super
	}
	return nil, false
}

func lookupTypeMethodVTI(c *types.Class, name rune) (*types.Procedure, bool) {
	for cur := c; cur != nil; {
		if p, ok := cur.TypeMethods[name]; ok {
			return p, true
		}
		if cur.IsRoot() {
			break
		}
		cur = cur.Super
	}
	return nil, false
}

func commonType(ts []types.Type) types.Type {
	if len(ts) == 0 {
		return types.Something()
	}
	t := ts[0]
	for _, other := range ts[1:] {
		if other.Kind != t.Kind {
			return types.Something()
		}
	}
	return t
}
