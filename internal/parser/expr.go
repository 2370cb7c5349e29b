package parser

import (
	"strconv"

	"github.com/emojicode/emojicode/internal/ast"
	"github.com/emojicode/emojicode/internal/diag"
	"github.com/emojicode/emojicode/internal/lexer"
	"github.com/emojicode/emojicode/internal/types"
)

// Binary operator precedence, climbed left to right. Unary operators bind
// tighter than any binary form, and argument lists stop before a binary
// operator would begin (see precedenceUnary in stmt.go's parseArgList).
const (
	precedenceOr = iota + 1
	precedenceAnd
	precedenceEquality
	precedenceRelational
	precedenceShift
	precedenceAdditive
	precedenceMultiplicative
	precedenceUnary
)

var binPrec = map[string]int{
	"||": precedenceOr,
	"&&": precedenceAnd,
	"==": precedenceEquality,
	"!=": precedenceEquality,
	"<":  precedenceRelational,
	"<=": precedenceRelational,
	">":  precedenceRelational,
	">=": precedenceRelational,
	"<<": precedenceShift,
	">>": precedenceShift,
	"+":  precedenceAdditive,
	"-":  precedenceAdditive,
	"*":  precedenceMultiplicative,
	"/":  precedenceMultiplicative,
	"%":  precedenceMultiplicative,
}

// parseExpr implements operator-precedence climbing (grounded on the
// teacher's lang/operators.go precedence table, generalized from Prolog's
// user-definable operator declarations to Emojicode's fixed arithmetic and
// logical operator set).
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	lhs := p.parseUnary()
	for {
		t := p.cur()
		if t.Kind != lexer.Symbol {
			return lhs
		}
		prec, ok := binPrec[t.Value]
		if !ok || prec < minPrec {
			return lhs
		}
		op := t.Value
		pos := p.pos0()
		p.advance()
		rhs := p.parseExpr(prec + 1)
		lhs = &ast.BinOp{Pos: pos, Op: op, Lhs: lhs, Rhs: rhs}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	pos := p.pos0()
	if p.cur().Kind == lexer.Symbol && (p.cur().Value == "-" || p.cur().Value == "!") {
		op := p.advance().Value
		operand := p.parseUnary()
		return &ast.UnaryOp{Pos: pos, Op: op, Operand: operand}
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by any chain of method
// calls, safe-calls, and type-method calls applied to it.
func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		pos := p.pos0()
		switch {
		case isKw(p.cur(), kwSafeCall):
			p.advance()
			name := p.expectIdentifierRune()
			args := p.parseArgList()
			e = &ast.MethodCall{Pos: pos, Receiver: e, Name: name, Args: args, Safe: true}
		case p.cur().Kind == lexer.Identifier && len(p.cur().Runes) == 1 && isCallableFollow(p):
			name := p.advance().Runes[0]
			args := p.parseArgList()
			e = &ast.MethodCall{Pos: pos, Receiver: e, Name: name, Args: args}
		default:
			return e
		}
	}
}

// isCallableFollow is a conservative lookahead used to decide whether the
// current identifier token continues a method-call chain on the
// already-parsed receiver, rather than starting an unrelated statement or
// the next argument in an enclosing argument list.
func isCallableFollow(p *Parser) bool {
	t := p.cur()
	if isStmtStart(t) || isReservedEmoji(t.Runes[0]) {
		return false
	}
	return true
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.pos0()
	t := p.cur()

	switch t.Kind {
	case lexer.Integer:
		p.advance()
		n, _ := strconv.ParseInt(t.Value, 10, 64)
		return &ast.IntLit{Pos: pos, Value: n}
	case lexer.Double:
		p.advance()
		f, _ := strconv.ParseFloat(t.Value, 64)
		return &ast.DoubleLit{Pos: pos, Value: f}
	case lexer.BooleanTrue:
		p.advance()
		return &ast.BoolLit{Pos: pos, Value: true}
	case lexer.BooleanFalse:
		p.advance()
		return &ast.BoolLit{Pos: pos, Value: false}
	case lexer.String:
		p.advance()
		return &ast.StringLit{Pos: pos, Value: t.Value}
	case lexer.Variable:
		p.advance()
		var n rune
		if len(t.Runes) > 0 {
			n = t.Runes[0]
		}
		return &ast.VarLoad{Pos: pos, Name: n}
	}

	if t.Kind == lexer.Symbol && t.Value == "(" {
		p.advance()
		inner := p.parseExpr(0)
		if p.cur().Kind == lexer.Symbol && p.cur().Value == ")" {
			p.advance()
		} else {
			p.errorf(diag.UnexpectedToken, "expected ), found %v", p.cur())
		}
		return inner
	}

	if t.Kind != lexer.Identifier || len(t.Runes) != 1 {
		p.errorf(diag.UnexpectedToken, "expected an expression, found %v", t)
		p.advance()
		return &ast.NothingnessLit{Pos: pos}
	}

	switch t.Runes[0] {
	case kwNothingness:
		p.advance()
		return &ast.NothingnessLit{Pos: pos}

	case kwSelf:
		p.advance()
		return &ast.VarLoad{Pos: pos, Name: ast.SelfName}

	case kwSuperInit:
		return p.parseSuperInitCall(pos)

	case kwCastClass, kwCastProtocol, kwCastPrimitive:
		p.advance()
		target := p.parseType()
		value := p.parseExpr(precedenceUnary)
		return &ast.CastExpr{Pos: pos, Target: target, Value: value}

	case kwList:
		p.advance()
		var elems []ast.Expr
		for !isKw(p.cur(), kwList) && p.cur().Kind != lexer.EOF {
			elems = append(elems, p.parseExpr(0))
		}
		if isKw(p.cur(), kwList) {
			p.advance()
		}
		return &ast.ListLit{Pos: pos, Elems: elems}

	case kwDict:
		p.advance()
		var keys, vals []ast.Expr
		for !isKw(p.cur(), kwDict) && p.cur().Kind != lexer.EOF {
			keys = append(keys, p.parseExpr(0))
			vals = append(vals, p.parseExpr(0))
		}
		if isKw(p.cur(), kwDict) {
			p.advance()
		}
		return &ast.DictLit{Pos: pos, Keys: keys, Vals: vals}

	case kwRange:
		p.advance()
		start := p.parseExpr(precedenceUnary)
		stop := p.parseExpr(precedenceUnary)
		var step ast.Expr
		if !isKw(p.cur(), kwRange) {
			step = p.parseExpr(precedenceUnary)
		}
		if isKw(p.cur(), kwRange) {
			p.advance()
		}
		return &ast.RangeLit{Pos: pos, Start: start, Stop: stop, Step: step}

	case kwClosure:
		return p.parseClosureLit(pos)

	case kwCapturedCall:
		p.advance()
		recv := p.parseExpr(precedenceUnary)
		name := p.expectIdentifierRune()
		return &ast.CapturedMethod{Pos: pos, Receiver: recv, Name: name}

	case kwInitializerDecl:
		p.advance()
		dynamic := false
		if isKw(p.cur(), kwRequiredInit) {
			dynamic = true
			p.advance()
		}
		className := p.expectIdentifierRune()
		name := p.expectIdentifierRune()
		args := p.parseArgList()
		return &ast.InitCall{Pos: pos, Namespace: p.namespace, ClassName: className, Name: name, Args: args, Dynamic: dynamic}

	default:
		// Bare identifier: an implicit-self method call.
		name := p.advance().Runes[0]
		args := p.parseArgList()
		return &ast.MethodCall{Pos: pos, Name: name, Args: args}
	}
}

func (p *Parser) parseClosureLit(pos ast.Pos) ast.Expr {
	p.advance() // 🌂
	var params []types.Arg
	for p.cur().Kind == lexer.Variable {
		rn := p.advance().Runes
		var n rune
		if len(rn) > 0 {
			n = rn[0]
		}
		argType := p.parseType()
		params = append(params, types.Arg{Name: n, Type: argType})
	}
	ret := types.Nothingness()
	if isKw(p.cur(), kwArrow) {
		p.advance()
		ret = p.parseType()
	}
	body := p.parseBlock()
	return &ast.ClosureLit{Pos: pos, Params: params, Return: ret, Body: body}
}
