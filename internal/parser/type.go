package parser

import (
	"github.com/emojicode/emojicode/internal/diag"
	"github.com/emojicode/emojicode/internal/lexer"
	"github.com/emojicode/emojicode/internal/types"
)

// parseType parses a type expression: an optional-marker suffix, a
// primitive keyword, a class/protocol/enum reference (with generic
// arguments), a generic-parameter reference, or a callable signature.
func (p *Parser) parseType() types.Type {
	var t types.Type
	switch {
	case isKw(p.cur(), '🔲'): // something (top)
		p.advance()
		t = types.Something()
	case isKw(p.cur(), '🔳'): // someobject
		p.advance()
		t = types.SomeObject()
	case isKw(p.cur(), '👌'): // boolean
		p.advance()
		t = types.Boolean()
	case isKw(p.cur(), '🔢'): // integer
		p.advance()
		t = types.Integer()
	case isKw(p.cur(), '🔡'): // symbol
		p.advance()
		t = types.Symbol()
	case isKw(p.cur(), '💯'): // double
		p.advance()
		t = types.Double()
	case isKw(p.cur(), '🎵'): // callable: 🎵 argType* ➡ retType 🎵
		t = p.parseCallableType()
	case p.cur().Kind == lexer.Identifier && len(p.cur().Runes) == 1:
		name := p.cur().Runes[0]
		if idx, ok := p.genericScope[name]; ok {
			p.advance()
			t = types.GenericRef(idx)
			break
		}
		p.advance()
		if pr, ok := p.prog.LookupProtocol(p.namespace, name); ok {
			t = types.ProtocolType(pr)
		} else if e, ok := p.prog.LookupEnum(p.namespace, name); ok {
			t = types.EnumType(e)
		} else if c, ok := p.prog.LookupClass(p.namespace, name); ok {
			args := p.parseGenericArgsIfAny()
			t = types.ClassType(c, args...)
		} else {
			p.errorf(diag.UnknownType, "unknown type %c", name)
			t = types.Something()
		}
	default:
		p.errorf(diag.UnknownType, "expected a type, found %v", p.cur())
		p.advance()
		t = types.Something()
	}

	if isKw(p.cur(), '❔') { // optional marker suffix
		p.advance()
		t = t.AsOptional()
	}
	return t
}

func (p *Parser) parseGenericArgsIfAny() []types.Type {
	if !isKw(p.cur(), '<') {
		return nil
	}
	p.advance()
	var args []types.Type
	for !isKw(p.cur(), '>') && p.cur().Kind != lexer.EOF {
		args = append(args, p.parseType())
	}
	if isKw(p.cur(), '>') {
		p.advance()
	}
	return args
}

func (p *Parser) parseCallableType() types.Type {
	p.advance() // 🎵
	var args []types.Type
	for !isKw(p.cur(), kwArrow) && !isKw(p.cur(), '🎵') && p.cur().Kind != lexer.EOF {
		args = append(args, p.parseType())
	}
	ret := types.Nothingness()
	if isKw(p.cur(), kwArrow) {
		p.advance()
		ret = p.parseType()
	}
	if isKw(p.cur(), '🎵') {
		p.advance()
	}
	return types.Callable(args, ret)
}
