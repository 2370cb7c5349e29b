package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/ast"
	"github.com/emojicode/emojicode/internal/diag"
	"github.com/emojicode/emojicode/internal/parser"
	"github.com/emojicode/emojicode/internal/types"
)

func parseProgram(t *testing.T, src string) (*types.Program, *diag.Sink) {
	t.Helper()
	prog := types.NewProgram()
	sink := &diag.Sink{}
	p, err := parser.New("test.emojic", strings.NewReader(src), prog, sink)
	require.NoError(t, err)
	p.Parse()
	return prog, sink
}

func TestParseClassWithMethodBody(t *testing.T) {
	src := `🐇🦉🍱
🐖🍴$a🔢➡🔢🍱
🍎 $a
🍚
🍚`
	prog, sink := parseProgram(t, src)
	require.False(t, sink.Fatal(), "%v", sink.All())
	c, ok := prog.LookupClass(0, '🦉')
	require.True(t, ok)
	proc, ok := c.Methods['🍴']
	require.True(t, ok)
	body, ok := proc.Body.([]ast.Stmt)
	require.True(t, ok)
	require.Len(t, body, 1)
	ret, ok := body[0].(*ast.ReturnStmt)
	require.True(t, ok)
	load, ok := ret.Value.(*ast.VarLoad)
	require.True(t, ok)
	require.Equal(t, 'a', load.Name)
}

func TestParseIfElseWhile(t *testing.T) {
	src := `🐇🦉🍱
🐖🍴➡🔢🍱
🍇$x🔢🖊5
🍊👍🍱
🍎$x
🍋👎🍱
🍎$x
🍉🍱
🍎$x
🍚
🔁👍🍱
🍎$x
🍚
🍎$x
🍚
🍚`
	_, sink := parseProgram(t, src)
	require.False(t, sink.Fatal(), "%v", sink.All())
}

func TestParseSuperclassAndConformance(t *testing.T) {
	src := `🐊🦋🍱
🐖🍴➡🔢
🍚
🐇🦴🍱
🍚
🐇🐺⏫🦴🍱
🤝🦋
🍚`
	prog, sink := parseProgram(t, src)
	require.False(t, sink.Fatal(), "%v", sink.All())
	sub, ok := prog.LookupClass(0, '🐺')
	require.True(t, ok)
	require.NotNil(t, sub.Super)
	require.Equal(t, '🦴', sub.Super.Name)
	require.Len(t, sub.Protocols, 1)
}

func TestParseUnknownSuperclassReportsError(t *testing.T) {
	src := `🐇🐺⏫🦊🍱
🍚`
	_, sink := parseProgram(t, src)
	require.True(t, sink.Fatal())
	require.Equal(t, diag.BadSuperclass, sink.All()[0].Type)
}

func TestParseBinaryExpression(t *testing.T) {
	src := `🐇🦉🍱
🐖🍴➡🔢🍱
🍎 3 + 4 * 2
🍚
🍚`
	prog, sink := parseProgram(t, src)
	require.False(t, sink.Fatal(), "%v", sink.All())
	c, _ := prog.LookupClass(0, '🦉')
	proc := c.Methods['🍴']
	body := proc.Body.([]ast.Stmt)
	ret := body[0].(*ast.ReturnStmt)
	add, ok := ret.Value.(*ast.BinOp)
	require.True(t, ok)
	require.Equal(t, "+", add.Op)
	_, lhsIsInt := add.Lhs.(*ast.IntLit)
	require.True(t, lhsIsInt)
	mul, ok := add.Rhs.(*ast.BinOp)
	require.True(t, ok)
	require.Equal(t, "*", mul.Op)
}
