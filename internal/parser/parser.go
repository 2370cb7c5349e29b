// Package parser is the recursive-descent declaration parser of spec.md
// §4.C: it turns a token stream into the program's type graph (classes,
// protocols, enums) plus, for each non-native procedure, a parsed statement
// body (internal/ast) that internal/compiler later type-checks and emits.
//
// The channel-fed token buffering and the "read one token of lookahead,
// dispatch on its kind" control flow are carried over from the teacher's
// lang/parser.go (its Parser.read/readOp/readFunctor family); unlike the
// teacher, which parses a flat Prolog term arena, this parser builds a
// conventional class/protocol/enum declaration graph because Emojicode's
// grammar is declaration-shaped rather than term-shaped.
package parser

import (
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/emojicode/emojicode/internal/ast"
	"github.com/emojicode/emojicode/internal/diag"
	"github.com/emojicode/emojicode/internal/lexer"
	"github.com/emojicode/emojicode/internal/types"
)

// Parser parses one source file's declarations into a shared Program.
type Parser struct {
	file  string
	toks  []lexer.Token
	pos   int
	prog  *types.Program
	diags *diag.Sink

	namespace rune
	// genericScope maps a generic type-variable name to its index within
	// the class currently being parsed.
	genericScope map[rune]int
	curClass     *types.Class
}

// New reads all tokens of src eagerly (small source files; the teacher's
// channel-based streaming is preserved at the lexer layer) and returns a
// Parser ready to populate prog.
func New(file string, src io.Reader, prog *types.Program, diags *diag.Sink) (*Parser, error) {
	var toks []lexer.Token
	for tok := range lexer.Lex(file, src) {
		switch tok.Kind {
		case lexer.Comment, lexer.DocComment:
			continue
		case lexer.Error:
			diags.Report(diag.LexicalSyntax, diag.Position{File: file, Line: tok.Line, Character: tok.Col}, "%s", tok.Value)
			return nil, errors.New(tok.Value)
		}
		toks = append(toks, tok)
		if tok.Kind == lexer.EOF {
			break
		}
	}
	return &Parser{file: file, toks: toks, prog: prog, diags: diags}, nil
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(off int) lexer.Token {
	i := p.pos + off
	if i >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) pos0() ast.Pos {
	t := p.cur()
	return ast.Pos{File: p.file, Line: t.Line, Col: t.Col}
}

func (p *Parser) errorf(kind diag.Kind, format string, args ...interface{}) {
	t := p.cur()
	p.diags.Report(kind, diag.Position{File: p.file, Line: t.Line, Character: t.Col}, format, args...)
}

func (p *Parser) expectIdentifierRune() rune {
	t := p.cur()
	if t.Kind != lexer.Identifier || len(t.Runes) != 1 {
		p.errorf(diag.UnexpectedToken, "expected a single-codepoint identifier, found %v", t)
		p.advance()
		return 0
	}
	p.advance()
	return t.Runes[0]
}

// Parse consumes the whole token stream, registering declarations (and
// their parsed bodies) into p.prog.
func (p *Parser) Parse() {
	p.prescan()
	for p.cur().Kind != lexer.EOF {
		p.parseTopLevel()
	}
}

// prescan registers stub Class/Protocol/Enum declarations for every
// top-level declaration before full parsing, so that forward type
// references (a class using a sibling class declared later in the file)
// resolve during the main pass.
func (p *Parser) prescan() {
	ns := p.namespace
	for i := 0; i < len(p.toks); i++ {
		t := p.toks[i]
		if t.Kind != lexer.Identifier || len(t.Runes) != 1 {
			continue
		}
		switch t.Runes[0] {
		case kwClassDecl:
			if name, ok := identAt(p.toks, i+1); ok {
				if _, exists := p.prog.LookupClass(ns, name); !exists {
					p.prog.AddClass(types.NewClass(name, ns))
				}
			}
		case kwProtocolDecl:
			if name, ok := identAt(p.toks, i+1); ok {
				if _, exists := p.prog.LookupProtocol(ns, name); !exists {
					p.prog.AddProtocol(&types.Protocol{Name: name, Namespace: ns})
				}
			}
		case kwEnumDecl:
			if name, ok := identAt(p.toks, i+1); ok {
				if _, exists := p.prog.LookupEnum(ns, name); !exists {
					p.prog.AddEnum(types.NewEnum(name, ns))
				}
			}
		}
	}
}

func identAt(toks []lexer.Token, i int) (rune, bool) {
	if i >= len(toks) {
		return 0, false
	}
	t := toks[i]
	if t.Kind == lexer.Identifier && len(t.Runes) == 1 {
		return t.Runes[0], true
	}
	return 0, false
}

func (p *Parser) parseTopLevel() {
	t := p.cur()
	if t.Kind != lexer.Identifier || len(t.Runes) != 1 {
		p.errorf(diag.UnexpectedToken, "expected a top-level declaration, found %v", t)
		p.advance()
		return
	}
	switch t.Runes[0] {
	case kwPackageImport:
		p.parsePackageImport()
	case kwVersionDecl:
		p.parseVersionDecl()
	case kwNativeBinary:
		p.advance()
	case kwProtocolDecl:
		p.parseProtocolDecl()
	case kwEnumDecl:
		p.parseEnumDecl()
	case kwClassDecl, kwExtensionDecl:
		p.parseClassDecl()
	default:
		p.errorf(diag.UnexpectedToken, "unknown top-level declaration %v", t)
		p.advance()
	}
}

func (p *Parser) parsePackageImport() {
	p.advance() // 📦
	if p.cur().Kind != lexer.String {
		p.errorf(diag.UnexpectedToken, "expected package name string after 📦")
		return
	}
	name := p.advance().Value
	pkg := &types.Package{Name: name}
	if p.cur().Kind == lexer.Integer {
		pkg.Major = uint16(parseIntTok(p.advance().Value))
	}
	if p.cur().Kind == lexer.Integer {
		pkg.Minor = uint16(parseIntTok(p.advance().Value))
	}
	p.prog.Packages = append(p.prog.Packages, pkg)
}

func (p *Parser) parseVersionDecl() {
	p.advance() // 🆚
	if p.cur().Kind == lexer.Integer {
		p.advance()
	}
	if p.cur().Kind == lexer.Integer {
		p.advance()
	}
}

func (p *Parser) parseProtocolDecl() {
	p.advance() // 🐊
	name := p.expectIdentifierRune()
	pr, _ := p.prog.LookupProtocol(p.namespace, name)
	if pr == nil {
		pr = &types.Protocol{Name: name, Namespace: p.namespace}
		p.prog.AddProtocol(pr)
	}
	p.expectBlockOpen()
	for p.cur().Kind == lexer.Identifier && len(p.cur().Runes) == 1 && p.cur().Runes[0] == kwMethodDecl {
		p.advance()
		proc := p.parseProcedureSignature()
		pr.Methods = append(pr.Methods, proc)
	}
	p.expectBlockClose()
}

func (p *Parser) parseEnumDecl() {
	p.advance() // 🦃
	name := p.expectIdentifierRune()
	e, _ := p.prog.LookupEnum(p.namespace, name)
	if e == nil {
		e = types.NewEnum(name, p.namespace)
		p.prog.AddEnum(e)
	}
	p.expectBlockOpen()
	for p.cur().Kind == lexer.Identifier && len(p.cur().Runes) == 1 {
		member := p.advance().Runes[0]
		if member == kwBlockClose {
			p.pos--
			break
		}
		if p.cur().Kind == lexer.Integer {
			v := parseIntTok(p.advance().Value)
			e.Add(member, v, true)
		} else {
			e.Add(member, 0, false)
		}
	}
	p.expectBlockClose()
}

func (p *Parser) expectBlockOpen() {
	if isKw(p.cur(), kwBlockOpen) {
		p.advance()
		return
	}
	p.errorf(diag.UnexpectedToken, "expected 🍱, found %v", p.cur())
}

func (p *Parser) expectBlockClose() {
	if isKw(p.cur(), kwBlockClose) {
		p.advance()
		return
	}
	p.errorf(diag.UnexpectedToken, "expected 🍚, found %v", p.cur())
}

func isKw(t lexer.Token, kw rune) bool {
	if t.Kind == lexer.Identifier && len(t.Runes) == 1 && t.Runes[0] == kw {
		return true
	}
	if t.Kind == lexer.Symbol && t.Value == string(kw) {
		return true
	}
	return false
}

func parseIntTok(s string) int64 {
	var n int64
	neg := false
	for i, r := range s {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int64(r-'0')
	}
	if neg {
		n = -n
	}
	return n
}

// sortedProcNames is used where deterministic ordering matters for tests
// and for stable bytecode layout.
func sortedProcNames(m map[rune]*types.Procedure) []rune {
	ks := make([]rune, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	return ks
}
