package parser

import (
	"github.com/emojicode/emojicode/internal/diag"
	"github.com/emojicode/emojicode/internal/lexer"
	"github.com/emojicode/emojicode/internal/types"
)

func (p *Parser) parseClassDecl() {
	p.advance() // 🐇 or 🐋
	name := p.expectIdentifierRune()
	c, _ := p.prog.LookupClass(p.namespace, name)
	if c == nil {
		c = types.NewClass(name, p.namespace)
		p.prog.AddClass(c)
	}

	c.OwnGenericArgs = p.parseGenericParamsIfAny(c)

	if isKw(p.cur(), '⏫') { // superclass marker
		p.advance()
		superName := p.expectIdentifierRune()
		super, ok := p.prog.LookupClass(p.namespace, superName)
		if !ok {
			p.errorf(diag.BadSuperclass, "unknown superclass %c", superName)
		} else {
			c.Super = super
			c.SuperGenericArgs = p.parseGenericArgsIfAny()
		}
	} else if c.Super == nil {
		c.Super = c // root class sentinel (spec.md §3, §6)
	}

	p.curClass = c
	prevScope := p.genericScope
	p.genericScope = genericScopeOf(c)

	// A class with zero instance variables and zero initializers
	// automatically inherits its superclass's initializers (spec.md §4.C).
	hasOwnIvarOrInit := false

	p.expectBlockOpen()
	for !isKw(p.cur(), kwBlockClose) && p.cur().Kind != lexer.EOF {
		switch {
		case isKw(p.cur(), kwConformsTo):
			p.advance()
			protoName := p.expectIdentifierRune()
			if pr, ok := p.prog.LookupProtocol(p.namespace, protoName); ok {
				if len(c.Protocols) >= 1<<16 {
					p.errorf(diag.TooManyProtocols, "too many protocols")
				} else {
					c.Protocols = append(c.Protocols, pr)
				}
			} else {
				p.errorf(diag.NotAProtocol, "unknown protocol %c", protoName)
			}

		case isKw(p.cur(), kwInstanceVarDecl):
			p.advance()
			ivName := p.expectIdentifierRune()
			ivType := p.parseType()
			if len(c.InstanceVars) >= 65535 {
				p.errorf(diag.TooManyInstanceVariables, "too many instance variables")
			} else {
				c.InstanceVars = append(c.InstanceVars, types.InstanceVar{Name: ivName, Type: ivType})
				hasOwnIvarOrInit = true
			}

		default:
			final, access, overriding, classSide, required, canReturnNothing := p.parseModifiers()
			switch {
			case isKw(p.cur(), kwMethodDecl):
				p.advance()
				proc := p.parseProcedureSignature()
				proc.Final, proc.Access, proc.Overriding = final, access, overriding
				proc.Body = p.parseProcedureBody()
				if classSide {
					c.TypeMethods[proc.Name] = proc
				} else {
					c.Methods[proc.Name] = proc
				}

			case isKw(p.cur(), kwTypeMethodDecl):
				p.advance()
				proc := p.parseProcedureSignature()
				proc.Final, proc.Access, proc.Overriding = final, access, overriding
				proc.Body = p.parseProcedureBody()
				c.TypeMethods[proc.Name] = proc

			case isKw(p.cur(), kwInitializerDecl):
				p.advance()
				proc := p.parseProcedureSignature()
				proc.Access = access
				proc.Required = required
				proc.CanReturnNothingness = canReturnNothing
				proc.Body = p.parseProcedureBody()
				c.Initializers[proc.Name] = proc
				hasOwnIvarOrInit = true

			default:
				p.errorf(diag.UnexpectedToken, "expected a class member, found %v", p.cur())
				p.advance()
			}
		}
	}
	p.expectBlockClose()

	c.InheritsInitializers = !hasOwnIvarOrInit

	p.curClass = nil
	p.genericScope = prevScope
}

func genericScopeOf(c *types.Class) map[rune]int {
	m := make(map[rune]int, len(c.OwnGenericArgs))
	for i, g := range c.OwnGenericArgs {
		m[g.Name] = i
	}
	return m
}

func (p *Parser) parseGenericParamsIfAny(c *types.Class) []types.GenericParam {
	if !isKw(p.cur(), '<') {
		return nil
	}
	p.advance()
	prevScope := p.genericScope
	p.genericScope = make(map[rune]int)
	var params []types.GenericParam
	for !isKw(p.cur(), '>') && p.cur().Kind != lexer.EOF {
		name := p.expectIdentifierRune()
		p.genericScope[name] = len(params)
		constraint := types.Something()
		if isKw(p.cur(), ':') {
			p.advance()
			constraint = p.parseType()
		}
		params = append(params, types.GenericParam{Name: name, Constraint: constraint})
	}
	if isKw(p.cur(), '>') {
		p.advance()
	}
	p.genericScope = prevScope
	return params
}

// parseModifiers consumes the class-body member modifiers, which may
// appear in any order (spec.md §4.C).
func (p *Parser) parseModifiers() (final bool, access types.AccessLevel, overriding, classSide, required, canReturnNothing bool) {
	for {
		t := p.cur()
		if t.Kind != lexer.Identifier || len(t.Runes) != 1 {
			return
		}
		switch t.Runes[0] {
		case kwFinal:
			final = true
		case kwOverride:
			overriding = true
		case kwPublicAccess:
			access = types.Public
		case kwProtectedAccess:
			access = types.Protected
		case kwPrivateAccess:
			access = types.Private
		case kwClassSide:
			classSide = true
		case kwRequiredInit:
			required = true
		case kwCanReturnNothingness:
			canReturnNothing = true
		default:
			return
		}
		p.advance()
	}
}

func (p *Parser) parseProcedureSignature() *types.Procedure {
	name := p.expectIdentifierRune()
	if isReservedEmoji(name) {
		p.errorf(diag.ReservedName, "%c is a reserved name", name)
	}
	proc := &types.Procedure{Name: name}
	for p.cur().Kind == lexer.Variable {
		argName := p.advance().Runes
		var rn rune
		if len(argName) > 0 {
			rn = argName[0]
		}
		argType := p.parseType()
		proc.Args = append(proc.Args, types.Arg{Name: rn, Type: argType})
	}
	if isKw(p.cur(), kwArrow) {
		p.advance()
		proc.Return = p.parseType()
	} else {
		proc.Return = types.Nothingness()
	}
	return proc
}

// parseProcedureBody parses 🍱 ... 🍚, or consumes nothing and marks the
// procedure native if no block follows (spec.md §4.G "native-flag").
func (p *Parser) parseProcedureBody() interface{} {
	if !isKw(p.cur(), kwBlockOpen) {
		return nil
	}
	return p.parseBlock()
}

var reservedEmoji = map[rune]bool{
	'🍎': true, '🔁': true, '🍊': true,
}

func isReservedEmoji(r rune) bool {
	return reservedEmoji[r]
}

func (p *Parser) unknownMember(format string, args ...interface{}) {
	p.errorf(diag.UnknownMember, format, args...)
}
