package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/ast"
	"github.com/emojicode/emojicode/internal/bytecode"
	"github.com/emojicode/emojicode/internal/compiler"
	"github.com/emojicode/emojicode/internal/diag"
	"github.com/emojicode/emojicode/internal/types"
)

func newRootClass(name rune) *types.Class {
	c := types.NewClass(name, 0)
	c.Super = c
	return c
}

func TestCompileArithmeticReturn(t *testing.T) {
	prog := types.NewProgram()
	cls := newRootClass('🦴')

	// 🍎 3 + 4 * 2
	body := []ast.Stmt{
		&ast.ReturnStmt{Value: &ast.BinOp{
			Op:  "+",
			Lhs: &ast.IntLit{Value: 3},
			Rhs: &ast.BinOp{Op: "*", Lhs: &ast.IntLit{Value: 4}, Rhs: &ast.IntLit{Value: 2}},
		}},
	}
	cls.Methods['🏃'] = &types.Procedure{Name: '🏃', Return: types.Integer(), Body: body}
	prog.AddClass(cls)

	var diags diag.Sink
	out := compiler.Compile(prog, &diags)
	require.False(t, diags.Fatal())
	require.Len(t, out.Classes, 1)

	fn := out.Classes[0].Methods[0]
	require.False(t, fn.Native)
	require.Equal(t, []bytecode.Instruction{
		{Op: bytecode.OpPushInt, Operands: []int32{3}},
		{Op: bytecode.OpPushInt, Operands: []int32{4}},
		{Op: bytecode.OpPushInt, Operands: []int32{2}},
		{Op: bytecode.OpMul},
		{Op: bytecode.OpAdd},
		{Op: bytecode.OpReturn},
	}, fn.Code)
}

func TestCompileIfElseBranchesJumpPastEachOther(t *testing.T) {
	prog := types.NewProgram()
	cls := newRootClass('🦉')

	// 🍊 true 🍱 🍎 1 🍱 🍉 🍱 🍎 2 🍱
	body := []ast.Stmt{
		&ast.IfStmt{
			Cond: &ast.BoolLit{Value: true},
			Then: []ast.Stmt{&ast.ReturnStmt{Value: &ast.IntLit{Value: 1}}},
			Else: []ast.Stmt{&ast.ReturnStmt{Value: &ast.IntLit{Value: 2}}},
		},
	}
	cls.Methods['🍴'] = &types.Procedure{Name: '🍴', Return: types.Integer(), Body: body}
	prog.AddClass(cls)

	var diags diag.Sink
	out := compiler.Compile(prog, &diags)
	require.False(t, diags.Fatal())

	fn := out.Classes[0].Methods[0]
	// push true; jmp.iffalse -> else; push 1; ret; jmp -> end; push 2; ret
	require.Len(t, fn.Code, 7)
	require.Equal(t, bytecode.OpPushBool, fn.Code[0].Op)
	require.Equal(t, bytecode.OpJumpIfFalse, fn.Code[1].Op)
	require.Equal(t, int32(3), fn.Code[1].Operands[0], "should skip the then-branch (2 instrs) plus its trailing jump")
	require.Equal(t, bytecode.OpReturn, fn.Code[3].Op)
	require.Equal(t, bytecode.OpJump, fn.Code[4].Op)
	require.Equal(t, int32(2), fn.Code[4].Operands[0], "should skip the else-branch (2 instrs)")
	require.Equal(t, bytecode.OpReturn, fn.Code[6].Op)
}

func TestCompileWhileLoopJumpsBackToCondition(t *testing.T) {
	prog := types.NewProgram()
	cls := newRootClass('🐺')

	// 🔂 true 🍱 🍎 1 🍱
	body := []ast.Stmt{
		&ast.WhileStmt{
			Cond: &ast.BoolLit{Value: true},
			Body: []ast.Stmt{&ast.ExprStmt{Expr: &ast.IntLit{Value: 1}}},
		},
		&ast.ReturnStmt{},
	}
	cls.Methods['🏃'] = &types.Procedure{Name: '🏃', Return: types.Nothingness(), Body: body}
	prog.AddClass(cls)

	var diags diag.Sink
	out := compiler.Compile(prog, &diags)
	require.False(t, diags.Fatal())

	fn := out.Classes[0].Methods[0]
	// push true; jmp.iffalse -> past loop; push 1; pop; jmp.back -> cond; push nothingness; ret
	require.Equal(t, bytecode.OpPushBool, fn.Code[0].Op)
	require.Equal(t, bytecode.OpJumpIfFalse, fn.Code[1].Op)
	jumpBack := fn.Code[4]
	require.Equal(t, bytecode.OpJumpBack, jumpBack.Op)
	require.Equal(t, int32(4), jumpBack.Operands[0], "back-offset is measured from the condition, not the loop body")
}

func TestCompileMethodCallDispatchesOnInheritedVTI(t *testing.T) {
	prog := types.NewProgram()
	base := newRootClass('🦴')
	base.Methods['🐾'] = &types.Procedure{Name: '🐾', Return: types.Integer(), VTI: 0}

	sub := types.NewClass('🐕', 0)
	sub.Super = base
	// 🍴 implicit-self call to 🐾, inherited from 🦴
	body := []ast.Stmt{
		&ast.ReturnStmt{Value: &ast.MethodCall{Name: '🐾'}},
	}
	sub.Methods['🍴'] = &types.Procedure{Name: '🍴', Return: types.Integer(), Body: body}
	prog.AddClass(base)
	prog.AddClass(sub)

	var diags diag.Sink
	out := compiler.Compile(prog, &diags)
	require.False(t, diags.Fatal())

	var subClass *bytecode.Class
	for _, c := range out.Classes {
		if c.Name == '🐕' {
			subClass = c
		}
	}
	require.NotNil(t, subClass)
	fn := subClass.Methods[0]
	require.Equal(t, []bytecode.Instruction{
		{Op: bytecode.OpLoadLocal, Operands: []int32{0}},
		{Op: bytecode.OpDispatchMethod, Operands: []int32{0}},
		{Op: bytecode.OpReturn},
	}, fn.Code)
}

func TestCompileNativeProcedureSkipsEmission(t *testing.T) {
	prog := types.NewProgram()
	cls := newRootClass('🦴')
	cls.Methods['🐾'] = &types.Procedure{Name: '🐾', Native: true, Return: types.Nothingness()}
	prog.AddClass(cls)

	var diags diag.Sink
	out := compiler.Compile(prog, &diags)
	require.False(t, diags.Fatal())
	require.True(t, out.Classes[0].Methods[0].Native)
	require.Empty(t, out.Classes[0].Methods[0].Code)
}

func TestCompileUndeclaredVariableReportsUnknownMember(t *testing.T) {
	prog := types.NewProgram()
	cls := newRootClass('🦴')
	cls.Methods['🏃'] = &types.Procedure{
		Name: '🏃', Return: types.Integer(),
		Body: []ast.Stmt{&ast.ReturnStmt{Value: &ast.VarLoad{Name: 'x'}}},
	}
	prog.AddClass(cls)

	var diags diag.Sink
	compiler.Compile(prog, &diags)
	require.True(t, diags.Fatal())
	require.Equal(t, diag.UnknownMember, diags.All()[0].Type)
}
