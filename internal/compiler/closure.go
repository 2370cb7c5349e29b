package compiler

import (
	"github.com/emojicode/emojicode/internal/ast"
	"github.com/emojicode/emojicode/internal/types"
)

// freeVarNames returns, in a deterministic order, every variable name a
// closure body references that isn't one of its own parameters, a local
// it declares itself, or a parameter of a closure nested inside it. These
// are exactly the names emitClosureLit must capture from the enclosing
// scope (spec.md §4.E): instance variables aren't included here since
// they're reached through the captured self, not a captured slot.
func freeVarNames(params []types.Arg, body []ast.Stmt) []rune {
	bound := map[rune]bool{}
	for _, p := range params {
		bound[p.Name] = true
	}
	free := map[rune]bool{}

	w := &freeVarWalker{bound: bound, free: free}
	for _, s := range body {
		w.stmt(s)
	}

	names := make([]rune, 0, len(free))
	for n := range free {
		names = append(names, n)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}

type freeVarWalker struct {
	bound map[rune]bool
	free  map[rune]bool
}

func (w *freeVarWalker) use(name rune) {
	if name != ast.SelfName && !w.bound[name] {
		w.free[name] = true
	}
}

func (w *freeVarWalker) stmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.ExprStmt:
		w.expr(v.Expr)
	case *ast.VarDecl:
		if v.Init != nil {
			w.expr(v.Init)
		}
		w.bound[v.Name] = true
	case *ast.Assign:
		w.expr(v.Value)
		if vl, ok := v.Target.(*ast.VarLoad); ok {
			w.use(vl.Name)
		}
	case *ast.IfStmt:
		w.expr(v.Cond)
		for _, st := range v.Then {
			w.stmt(st)
		}
		for _, ei := range v.ElseIfs {
			w.expr(ei.Cond)
			for _, st := range ei.Body {
				w.stmt(st)
			}
		}
		for _, st := range v.Else {
			w.stmt(st)
		}
	case *ast.WhileStmt:
		w.expr(v.Cond)
		for _, st := range v.Body {
			w.stmt(st)
		}
	case *ast.ForListStmt:
		w.expr(v.List)
		w.bound[v.ElemVar] = true
		for _, st := range v.Body {
			w.stmt(st)
		}
	case *ast.ForRangeStmt:
		w.expr(v.Range)
		w.bound[v.ElemVar] = true
		for _, st := range v.Body {
			w.stmt(st)
		}
	case *ast.ForEnumerableStmt:
		w.expr(v.Iter)
		w.bound[v.ElemVar] = true
		for _, st := range v.Body {
			w.stmt(st)
		}
	case *ast.ReturnStmt:
		if v.Value != nil {
			w.expr(v.Value)
		}
	case *ast.SuperInitStmt:
		w.expr(v.Call)
	}
}

func (w *freeVarWalker) expr(e ast.Expr) {
	switch v := e.(type) {
	case *ast.StringInterp:
		for _, p := range v.Parts {
			w.expr(p)
		}
	case *ast.VarLoad:
		w.use(v.Name)
	case *ast.MethodCall:
		if v.Receiver != nil {
			w.expr(v.Receiver)
		}
		for _, a := range v.Args {
			w.expr(a)
		}
	case *ast.ProtocolCall:
		w.expr(v.Receiver)
		for _, a := range v.Args {
			w.expr(a)
		}
	case *ast.InitCall:
		for _, a := range v.Args {
			w.expr(a)
		}
	case *ast.SuperInitCall:
		for _, a := range v.Args {
			w.expr(a)
		}
	case *ast.CastExpr:
		w.expr(v.Value)
	case *ast.ListLit:
		for _, el := range v.Elems {
			w.expr(el)
		}
	case *ast.DictLit:
		for i := range v.Keys {
			w.expr(v.Keys[i])
			w.expr(v.Vals[i])
		}
	case *ast.RangeLit:
		w.expr(v.Start)
		w.expr(v.Stop)
		if v.Step != nil {
			w.expr(v.Step)
		}
	case *ast.BinOp:
		w.expr(v.Lhs)
		w.expr(v.Rhs)
	case *ast.UnaryOp:
		w.expr(v.Operand)
	case *ast.ClosureLit:
		// A nested closure's own free variables that aren't its params
		// are free in the enclosing body too (it will capture them from
		// here in turn), unless this body already binds them itself.
		inner := map[rune]bool{}
		for k := range w.bound {
			inner[k] = true
		}
		for _, p := range v.Params {
			inner[p.Name] = true
		}
		nested := &freeVarWalker{bound: inner, free: w.free}
		for _, st := range v.Body {
			nested.stmt(st)
		}
	case *ast.CapturedMethod:
		w.expr(v.Receiver)
	}
}
