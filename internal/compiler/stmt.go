package compiler

import (
	"github.com/emojicode/emojicode/internal/ast"
	"github.com/emojicode/emojicode/internal/bytecode"
	"github.com/emojicode/emojicode/internal/diag"
	"github.com/emojicode/emojicode/internal/types"
)

func (e *emitter) emitBlock(stmts []ast.Stmt) {
	e.withScope(func() {
		terminated := false
		for _, s := range stmts {
			if terminated {
				e.errorf(diag.DeadCode, stmtPos(s), "unreachable statement")
			}
			e.emitStmt(s)
			if _, ok := s.(*ast.ReturnStmt); ok {
				terminated = true
			}
		}
	})
}

// stmtPos extracts a statement's source position for diagnostics that
// fire before emitStmt's own dispatch would otherwise have it.
func stmtPos(s ast.Stmt) ast.Pos {
	switch v := s.(type) {
	case *ast.ExprStmt:
		return v.Pos
	case *ast.VarDecl:
		return v.Pos
	case *ast.Assign:
		return v.Pos
	case *ast.IfStmt:
		return v.Pos
	case *ast.WhileStmt:
		return v.Pos
	case *ast.ForListStmt:
		return v.Pos
	case *ast.ForRangeStmt:
		return v.Pos
	case *ast.ForEnumerableStmt:
		return v.Pos
	case *ast.ReturnStmt:
		return v.Pos
	case *ast.SuperInitStmt:
		return v.Pos
	default:
		return ast.Pos{}
	}
}

func (e *emitter) emitStmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.ExprStmt:
		e.emitExpr(v.Expr)
		e.emit(bytecode.OpPop)

	case *ast.VarDecl:
		e.emitVarDecl(v)

	case *ast.Assign:
		e.emitAssign(v)

	case *ast.IfStmt:
		e.emitIf(v)

	case *ast.WhileStmt:
		e.emitWhile(v)

	case *ast.ForListStmt:
		e.emitForList(v)

	case *ast.ForRangeStmt:
		e.emitForRange(v)

	case *ast.ForEnumerableStmt:
		e.emitForEnumerable(v)

	case *ast.ReturnStmt:
		if v.Value != nil {
			e.emitExpr(v.Value)
		} else {
			e.emit(bytecode.OpPushNothingness)
		}
		e.emit(bytecode.OpReturn)

	case *ast.SuperInitStmt:
		e.emitExpr(v.Call)
		e.emit(bytecode.OpPop)

	default:
		e.errorf(diag.UnexpectedToken, ast.Pos{}, "unsupported statement form")
	}
}

func (e *emitter) emitVarDecl(v *ast.VarDecl) {
	if _, exists := e.scope.vars[v.Name]; exists {
		e.errorf(diag.DuplicateDeclaration, v.Pos, "%c is already declared in this scope", v.Name)
	}
	vr := e.pushLocal(v.Name, v.Type, v.Frozen)
	e.scope.vars[v.Name] = vr
	if v.Init != nil {
		initType := e.emitExpr(v.Init)
		if !types.Compatible(initType, v.Type, e.class) {
			e.errorf(diag.TypeMismatch, v.Pos, "cannot initialize %c of type %s with value of type %s", v.Name, v.Type.Kind, initType.Kind)
		}
		e.emit(bytecode.OpStoreLocal, vr.slot)
	}
}

func (e *emitter) emitAssign(v *ast.Assign) {
	switch target := v.Target.(type) {
	case *ast.VarLoad:
		vr, ok := e.scope.lookup(target.Name)
		if !ok {
			e.errorf(diag.UnknownMember, v.Pos, "use of undeclared variable %c", target.Name)
			e.emitExpr(v.Value)
			e.emit(bytecode.OpPop)
			return
		}
		if vr.frozen {
			e.errorf(diag.FrozenWrite, v.Pos, "cannot reassign frozen variable %c", target.Name)
		}
		e.emitExpr(v.Value)
		e.emit(bytecode.OpStoreLocal, vr.slot)

	case *ast.IVarLoad:
		idx, _, ok := instanceVar(e.class, target.Name)
		if !ok {
			e.errorf(diag.UnknownMember, v.Pos, "class has no instance variable %c", target.Name)
			e.emitExpr(v.Value)
			e.emit(bytecode.OpPop)
			return
		}
		e.emit(bytecode.OpLoadLocal, 0)
		e.emitExpr(v.Value)
		e.emit(bytecode.OpStoreIVar, int32(idx))
		if e.isInitializer {
			e.ivarInit[target.Name] = true
		}

	default:
		e.errorf(diag.UnexpectedToken, v.Pos, "invalid assignment target")
	}
}

// emitIf tracks flowDepth across every branch (so a super-init call
// inside any of them is rejected) and, for initializer bodies, snapshots
// ivarInit before the branches and merges their results by intersection
// afterward: a variable only carries forward as definitely initialized
// if every arm — including an else, when present — assigned it. With no
// else, the whole conditional might not run at all, so nothing new can
// be claimed and the pre-statement baseline is kept instead.
func (e *emitter) emitIf(v *ast.IfStmt) {
	e.emitExpr(v.Cond)
	jf := e.emit(bytecode.OpJumpIfFalse, 0)

	var baseline map[rune]bool
	if e.isInitializer {
		baseline = e.copyIVarInit(e.ivarInit)
	}
	var results []map[rune]bool

	e.flowDepth++
	e.emitBlock(v.Then)
	e.flowDepth--
	if e.isInitializer {
		results = append(results, e.ivarInit)
	}

	var endJumps []int
	hasMore := len(v.ElseIfs) > 0 || v.Else != nil
	if hasMore {
		endJumps = append(endJumps, e.emit(bytecode.OpJump, 0))
	}
	e.patchOperand(jf, 0, int32(len(e.code)-jf-1))

	for i, ei := range v.ElseIfs {
		e.emitExpr(ei.Cond)
		jf2 := e.emit(bytecode.OpJumpIfFalse, 0)
		if e.isInitializer {
			e.ivarInit = e.copyIVarInit(baseline)
		}
		e.flowDepth++
		e.emitBlock(ei.Body)
		e.flowDepth--
		if e.isInitializer {
			results = append(results, e.ivarInit)
		}
		last := i == len(v.ElseIfs)-1
		if !last || v.Else != nil {
			endJumps = append(endJumps, e.emit(bytecode.OpJump, 0))
		}
		e.patchOperand(jf2, 0, int32(len(e.code)-jf2-1))
	}

	if v.Else != nil {
		if e.isInitializer {
			e.ivarInit = e.copyIVarInit(baseline)
		}
		e.flowDepth++
		e.emitBlock(v.Else)
		e.flowDepth--
		if e.isInitializer {
			results = append(results, e.ivarInit)
		}
	}

	for _, idx := range endJumps {
		e.patchOperand(idx, 0, int32(len(e.code)-idx-1))
	}

	if e.isInitializer {
		if v.Else != nil {
			e.ivarInit = mergeIVarInit(results)
		} else {
			e.ivarInit = baseline
		}
	}
}

// emitWhile tracks flowDepth around the body and, for initializer
// bodies, always restores the pre-loop ivarInit snapshot afterward: a
// while loop can run zero times, so nothing it assigns can be claimed as
// definitely initialized once it's done.
func (e *emitter) emitWhile(v *ast.WhileStmt) {
	loopStart := len(e.code)
	e.emitExpr(v.Cond)
	jf := e.emit(bytecode.OpJumpIfFalse, 0)
	var baseline map[rune]bool
	if e.isInitializer {
		baseline = e.copyIVarInit(e.ivarInit)
	}
	e.flowDepth++
	e.emitBlock(v.Body)
	e.flowDepth--
	if e.isInitializer {
		e.ivarInit = baseline
	}
	back := e.emit(bytecode.OpJumpBack, 0)
	e.patchOperand(back, 0, int32(back-loopStart))
	e.patchOperand(jf, 0, int32(len(e.code)-jf-1))
}

func (e *emitter) emitForList(v *ast.ForListStmt) {
	e.emitExpr(v.List)
	listSlot := e.nextSlot
	e.nextSlot++
	e.emit(bytecode.OpStoreLocal, listSlot)
	indexSlot := e.nextSlot
	e.nextSlot++

	e.withScope(func() {
		elemSlot := e.nextSlot
		e.nextSlot++
		e.scope.define(v.ElemVar, types.SomeObject(), false, elemSlot)

		e.emit(bytecode.OpForListStart, listSlot, indexSlot, elemSlot)
		loopStart := len(e.code)
		next := e.emit(bytecode.OpForListNext, listSlot, indexSlot, elemSlot, 0)
		var baseline map[rune]bool
		if e.isInitializer {
			baseline = e.copyIVarInit(e.ivarInit)
		}
		e.flowDepth++
		e.emitBlock(v.Body)
		e.flowDepth--
		if e.isInitializer {
			e.ivarInit = baseline
		}
		back := e.emit(bytecode.OpJumpBack, 0)
		e.patchOperand(back, 0, int32(back-loopStart))
		e.patchOperand(next, 3, int32(len(e.code)-next-1))
	})
}

func (e *emitter) emitForRange(v *ast.ForRangeStmt) {
	e.emitExpr(v.Range)
	rangeSlot := e.nextSlot
	e.nextSlot++
	e.emit(bytecode.OpStoreLocal, rangeSlot)

	e.withScope(func() {
		elemSlot := e.nextSlot
		e.nextSlot++
		e.scope.define(v.ElemVar, types.Integer(), false, elemSlot)

		e.emit(bytecode.OpForRangeStart, rangeSlot, elemSlot)
		loopStart := len(e.code)
		next := e.emit(bytecode.OpForRangeNext, rangeSlot, elemSlot, 0)
		var baseline map[rune]bool
		if e.isInitializer {
			baseline = e.copyIVarInit(e.ivarInit)
		}
		e.flowDepth++
		e.emitBlock(v.Body)
		e.flowDepth--
		if e.isInitializer {
			e.ivarInit = baseline
		}
		back := e.emit(bytecode.OpJumpBack, 0)
		e.patchOperand(back, 0, int32(back-loopStart))
		e.patchOperand(next, 2, int32(len(e.code)-next-1))
	})
}

func (e *emitter) emitForEnumerable(v *ast.ForEnumerableStmt) {
	e.emitExpr(v.Iter)
	iterSlot := e.nextSlot
	e.nextSlot++
	e.emit(bytecode.OpStoreLocal, iterSlot)

	e.withScope(func() {
		elemSlot := e.nextSlot
		e.nextSlot++
		e.scope.define(v.ElemVar, types.SomeObject(), false, elemSlot)

		e.emit(bytecode.OpForEnumStart, iterSlot)
		loopStart := len(e.code)
		next := e.emit(bytecode.OpForEnumNext, iterSlot, elemSlot, 0)
		var baseline map[rune]bool
		if e.isInitializer {
			baseline = e.copyIVarInit(e.ivarInit)
		}
		e.flowDepth++
		e.emitBlock(v.Body)
		e.flowDepth--
		if e.isInitializer {
			e.ivarInit = baseline
		}
		back := e.emit(bytecode.OpJumpBack, 0)
		e.patchOperand(back, 0, int32(back-loopStart))
		e.patchOperand(next, 2, int32(len(e.code)-next-1))
	})
}
