package parser

import (
	"github.com/emojicode/emojicode/internal/ast"
	"github.com/emojicode/emojicode/internal/diag"
	"github.com/emojicode/emojicode/internal/lexer"
)

func (p *Parser) parseBlock() []ast.Stmt {
	p.expectBlockOpen()
	var stmts []ast.Stmt
	for !isKw(p.cur(), kwBlockClose) && p.cur().Kind != lexer.EOF {
		stmts = append(stmts, p.parseStmt())
	}
	p.expectBlockClose()
	return stmts
}

func (p *Parser) parseStmt() ast.Stmt {
	pos := p.pos0()
	switch {
	case isKw(p.cur(), kwVarDecl):
		p.advance()
		frozen := false
		if isKw(p.cur(), kwFrozenMarker) {
			frozen = true
			p.advance()
		}
		if p.cur().Kind != lexer.Variable {
			p.errorf(diag.UnexpectedToken, "expected a variable after 🍇")
			return &ast.ExprStmt{Pos: pos}
		}
		nameRunes := p.advance().Runes
		var name rune
		if len(nameRunes) > 0 {
			name = nameRunes[0]
		}
		declType := p.parseType()
		var init ast.Expr
		if isKw(p.cur(), kwAssign) {
			p.advance()
			init = p.parseExpr(0)
		}
		return &ast.VarDecl{Pos: pos, Name: name, Type: declType, Frozen: frozen, Init: init}

	case isKw(p.cur(), kwAssign):
		p.advance()
		target := p.parseLValue()
		value := p.parseExpr(0)
		return &ast.Assign{Pos: pos, Target: target, Value: value}

	case isKw(p.cur(), kwIf):
		return p.parseIf()

	case isKw(p.cur(), kwWhile):
		p.advance()
		cond := p.parseExpr(0)
		body := p.parseBlock()
		return &ast.WhileStmt{Pos: pos, Cond: cond, Body: body}

	case isKw(p.cur(), kwForList):
		p.advance()
		elem := p.parseLoopVar()
		list := p.parseExpr(0)
		body := p.parseBlock()
		return &ast.ForListStmt{Pos: pos, List: list, ElemVar: elem, Body: body}

	case isKw(p.cur(), kwForRange):
		p.advance()
		elem := p.parseLoopVar()
		rangeExpr := p.parseExpr(0)
		body := p.parseBlock()
		return &ast.ForRangeStmt{Pos: pos, Range: rangeExpr, ElemVar: elem, Body: body}

	case isKw(p.cur(), kwForEnumerable):
		p.advance()
		elem := p.parseLoopVar()
		iter := p.parseExpr(0)
		body := p.parseBlock()
		return &ast.ForEnumerableStmt{Pos: pos, Iter: iter, ElemVar: elem, Body: body}

	case isKw(p.cur(), kwReturn):
		p.advance()
		if isKw(p.cur(), kwBlockClose) {
			return &ast.ReturnStmt{Pos: pos}
		}
		val := p.parseExpr(0)
		return &ast.ReturnStmt{Pos: pos, Value: val}

	case isKw(p.cur(), kwSuperInit):
		call := p.parseSuperInitCall(pos)
		return &ast.SuperInitStmt{Pos: pos, Call: call}

	default:
		e := p.parseExpr(0)
		return &ast.ExprStmt{Pos: pos, Expr: e}
	}
}

func (p *Parser) parseLoopVar() rune {
	if p.cur().Kind != lexer.Variable {
		p.errorf(diag.UnexpectedToken, "expected a loop variable")
		return 0
	}
	r := p.advance().Runes
	if len(r) == 0 {
		return 0
	}
	return r[0]
}

func (p *Parser) parseLValue() ast.Expr {
	pos := p.pos0()
	if p.cur().Kind == lexer.Variable {
		r := p.advance().Runes
		var n rune
		if len(r) > 0 {
			n = r[0]
		}
		return &ast.VarLoad{Pos: pos, Name: n}
	}
	if p.cur().Kind == lexer.Identifier && len(p.cur().Runes) == 1 {
		n := p.advance().Runes[0]
		return &ast.IVarLoad{Pos: pos, Name: n}
	}
	p.errorf(diag.UnexpectedToken, "expected an assignable variable")
	return &ast.VarLoad{Pos: pos}
}

func (p *Parser) parseIf() ast.Stmt {
	pos := p.pos0()
	p.advance() // 🍊
	cond := p.parseExpr(0)
	then := p.parseBlock()
	stmt := &ast.IfStmt{Pos: pos, Cond: cond, Then: then}
	for isKw(p.cur(), kwElseIf) {
		p.advance()
		c := p.parseExpr(0)
		b := p.parseBlock()
		stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIf{Cond: c, Body: b})
	}
	if isKw(p.cur(), kwElse) {
		p.advance()
		stmt.Else = p.parseBlock()
	}
	return stmt
}

func (p *Parser) parseSuperInitCall(pos ast.Pos) *ast.SuperInitCall {
	p.advance() // 🔝
	name := p.expectIdentifierRune()
	args := p.parseArgList()
	return &ast.SuperInitCall{Pos: pos, Name: name, Args: args}
}

func (p *Parser) parseArgList() []ast.Expr {
	var args []ast.Expr
	for !isKw(p.cur(), kwBlockClose) && p.cur().Kind != lexer.EOF {
		if isStmtStart(p.cur()) {
			break
		}
		args = append(args, p.parseExpr(precedenceUnary))
		if isKw(p.cur(), kwArgSep) {
			p.advance()
			continue
		}
		break
	}
	return args
}

// isStmtStart is a coarse heuristic used to stop argument-list parsing at
// the next statement keyword when a procedure call's argument list is not
// explicitly delimited.
func isStmtStart(t lexer.Token) bool {
	if t.Kind != lexer.Identifier || len(t.Runes) != 1 {
		return false
	}
	switch t.Runes[0] {
	case kwVarDecl, kwAssign, kwIf, kwElseIf, kwElse, kwWhile, kwForList, kwForRange,
		kwForEnumerable, kwReturn, kwSuperInit, kwBlockClose, kwBlockOpen, kwArgSep:
		return true
	}
	return false
}
