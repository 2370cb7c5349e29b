// Package lexer turns Emojicode source bytes into a stream of Tokens.
//
// The state machine here is lifted from the teacher's Prolog lexer
// (lang/lexer.go in the retrieval pack): a goroutine drives a chain of
// lexState functions over a normalized rune reader, emitting onto a
// channel, with the same buffer/line/col bookkeeping. Where the teacher
// dispatches on ASCII symbol runs and Unicode punctuation classes for
// Prolog functors, this lexer dispatches on the emoji/pictographic
// identifier ranges used by Emojicode for keywords, type names, and
// member names.
package lexer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// Norm is the normalization form applied to source bytes before lexing.
const Norm = norm.NFC

// ErrUnterminatedString is returned (wrapped) when end-of-file is reached
// while scanning a string literal.
var ErrUnterminatedString = errors.New("unterminated string literal")

// ErrInvalidEncoding is returned (wrapped) when the input contains bytes
// that do not decode to valid UTF-8.
var ErrInvalidEncoding = errors.New("invalid encoding")

// IdentifierRanges are the Unicode blocks from which identifier code points
// are drawn: emoji, pictographs, and the dingbat/symbol blocks Emojicode
// uses for its built-in keywords.
var IdentifierRanges = []*unicode.RangeTable{
	unicode.Symbol,
	unicode.So, // symbol, other (covers most emoji)
	unicode.Sk,
	{
		R16: []unicode.Range16{
			{Lo: 0x2600, Hi: 0x27BF, Stride: 1},  // misc symbols & dingbats
			{Lo: 0x2190, Hi: 0x21FF, Stride: 1},  // arrows
			{Lo: 0x2300, Hi: 0x23FF, Stride: 1},  // misc technical
			{Lo: 0x25A0, Hi: 0x25FF, Stride: 1},  // geometric shapes
		},
		R32: []unicode.Range32{
			{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1}, // misc symbols & pictographs
			{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1}, // emoticons
			{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1}, // transport & map
			{Lo: 0x1F900, Hi: 0x1F9FF, Stride: 1}, // supplemental symbols
		},
	},
}

// DocCommentMarker delimits doc-comments, per spec.md §4.A's "taco marker".
const DocCommentMarker = '🌮'

// IsIdentifierRune reports whether r is an identifier code point. ASCII is
// excluded: unicode.Symbol and unicode.Sk also hold ASCII punctuation such
// as + < = > ^ | ~, which lexes as Symbol tokens.
func IsIdentifierRune(r rune) bool {
	return r > 0x7F && unicode.In(r, IdentifierRanges...)
}

func isNewline(r rune) bool {
	return r == 0x0A || r == 0x2028 || r == 0x2029
}

// Lex returns a channel yielding all tokens of the source read from r.
// file is used only to annotate Token.File for diagnostics. The channel is
// closed once EOF (or an Error token) has been emitted.
func Lex(file string, r io.Reader) <-chan Token {
	ch := make(chan Token, 8)
	go lex(file, r, ch)
	return ch
}

type lexer struct {
	file string
	rd   *bufio.Reader
	ret  chan<- Token
	buf  *bytes.Buffer
	cur  rune
	line int
	col  int
	eof  bool
}

type lexState func(*lexer) lexState

func lex(file string, r io.Reader, ret chan<- Token) {
	rd := bufio.NewReaderSize(Norm.Reader(r), 4096)
	l := lexer{
		file: file,
		rd:   rd,
		ret:  ret,
		buf:  new(bytes.Buffer),
	}

	defer func() {
		if rec := recover(); rec != nil {
			msg := fmt.Sprint(rec)
			ret <- Token{Kind: Error, Value: msg, Line: l.line, Col: l.col, File: file}
		}
		close(ret)
	}()

	l.read()
	state := lexState(lexAny)
	for state != nil {
		state = state(&l)
	}
}

func (l *lexer) read() rune {
	if l.cur != 0 {
		l.buf.WriteRune(l.cur)
	}
	if l.eof {
		l.cur = 0
		return 0
	}
	r, _, err := l.rd.ReadRune()
	if err == io.EOF {
		l.eof = true
		l.cur = 0
		return 0
	}
	if err != nil {
		panic(errors.Wrap(err, "lex"))
	}
	if r == '�' {
		panic(ErrInvalidEncoding)
	}
	l.cur = r
	return r
}

func (l *lexer) emit(kind Kind, value string) {
	tok := l.buf.String()
	if value == "" {
		value = tok
	}
	var runes []rune
	if kind == Identifier || kind == Variable {
		runes = []rune(tok)
	}
	if kind == Variable && len(runes) > 0 {
		runes = runes[1:] // the name, without its leading $
	}
	l.ret <- Token{Kind: kind, Value: value, Runes: runes, Line: l.line, Col: l.col, File: l.file}

	for _, r := range tok {
		if isNewline(r) {
			l.line++
			l.col = 0
		} else {
			l.col++
		}
	}
	l.buf.Reset()
}

func lexAny(l *lexer) lexState {
	r := l.cur
	switch {
	case r == 0 && l.eof:
		l.buf.Reset()
		l.ret <- Token{Kind: EOF, Line: l.line, Col: l.col, File: l.file}
		return nil

	case unicode.IsSpace(r):
		for unicode.IsSpace(l.cur) {
			l.read()
		}
		l.buf.Reset()
		return lexAny

	case r == '💭': // line comment marker
		for l.cur != 0 && !isNewline(l.cur) {
			l.read()
		}
		l.emit(Comment, "")
		return lexAny

	case r == DocCommentMarker:
		return lexDocComment

	case r == '🔤': // string delimiter
		return lexString

	case r >= '0' && r <= '9':
		return lexNumber

	case r == '$':
		return lexVariable

	case IsIdentifierRune(r):
		return lexIdentifier

	case strings.ContainsRune(operatorRunes, r):
		return lexOperator

	default:
		panic(errors.Wrapf(ErrInvalidEncoding, "unexpected rune %q", r))
	}
}

// operatorRunes are the ASCII punctuation characters recognized as
// grouping/argument/operator Symbol tokens. Identifier code points live in
// the emoji/pictographic ranges (IsIdentifierRune), so there is no overlap.
const operatorRunes = "+-*/%<>=!&|^~(),.[]{}:;"

// twoCharOps lists operator spellings longer than one rune.
var twoCharOps = []string{"==", "<=", ">=", "&&", "||", "<<", ">>", "!="}

func lexOperator(l *lexer) lexState {
	first := l.cur
	l.read()
	for _, op := range twoCharOps {
		if rune(op[0]) == first && l.cur == rune(op[1]) {
			l.read()
			l.emit(Symbol, op)
			return lexAny
		}
	}
	l.emit(Symbol, string(first))
	return lexAny
}

func lexDocComment(l *lexer) lexState {
	l.read() // consume opening marker
	for {
		if l.eof {
			panic(ErrUnterminatedString)
		}
		if l.cur == DocCommentMarker {
			l.read()
			break
		}
		l.read()
	}
	l.emit(DocComment, l.buf.String())
	return lexAny
}

func lexString(l *lexer) lexState {
	l.read() // consume opening 🔤
	var out bytes.Buffer
	for {
		if l.eof {
			panic(ErrUnterminatedString)
		}
		r := l.cur
		if r == '🔤' {
			l.read()
			break
		}
		if r == '\\' {
			l.read()
			esc := l.cur
			switch esc {
			case 'n':
				out.WriteRune('\n')
			case 't':
				out.WriteRune('\t')
			case 'r':
				out.WriteRune('\r')
			case 'e':
				out.WriteRune(0x1B)
			case '❌':
				out.WriteRune('\\')
			case '🔤':
				out.WriteRune('🔤')
			default:
				out.WriteRune(esc)
			}
			l.read()
			continue
		}
		out.WriteRune(r)
		l.read()
	}
	l.emit(String, out.String())
	return lexAny
}

func lexNumber(l *lexer) lexState {
	isDouble := false
	var digits bytes.Buffer

	if l.cur == '0' {
		digits.WriteRune(l.cur)
		l.read()
		if l.cur == 'x' || l.cur == 'X' {
			digits.WriteRune(l.cur)
			l.read()
			for isHexDigit(l.cur) || l.cur == '_' {
				if l.cur != '_' {
					digits.WriteRune(l.cur)
				}
				l.read()
			}
			val, err := strconv.ParseInt(digits.String(), 0, 64)
			if err != nil {
				panic(errors.Wrap(err, "malformed hex integer"))
			}
			l.emit(Integer, strconv.FormatInt(val, 10))
			return lexAny
		}
	}

	for isDecDigit(l.cur) || l.cur == '_' {
		if l.cur != '_' {
			digits.WriteRune(l.cur)
		}
		l.read()
	}
	if l.cur == '.' {
		isDouble = true
		digits.WriteRune('.')
		l.read()
		for isDecDigit(l.cur) || l.cur == '_' {
			if l.cur != '_' {
				digits.WriteRune(l.cur)
			}
			l.read()
		}
	}
	if l.cur == 'e' || l.cur == 'E' {
		isDouble = true
		digits.WriteRune('e')
		l.read()
		if l.cur == '+' || l.cur == '-' {
			digits.WriteRune(l.cur)
			l.read()
		}
		for isDecDigit(l.cur) {
			digits.WriteRune(l.cur)
			l.read()
		}
	}

	if isDouble {
		l.emit(Double, digits.String())
	} else {
		l.emit(Integer, digits.String())
	}
	return lexAny
}

func isDecDigit(r rune) bool { return r >= '0' && r <= '9' }
func isHexDigit(r rune) bool {
	return isDecDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func lexVariable(l *lexer) lexState {
	l.read() // consume $
	for unicode.IsLetter(l.cur) || isDecDigit(l.cur) {
		l.read()
	}
	l.emit(Variable, "")
	return lexAny
}

// lexIdentifier emits one identifier code point per token.
func lexIdentifier(l *lexer) lexState {
	l.read()
	tok := l.buf.String()
	switch tok {
	case "👍":
		l.emit(BooleanTrue, tok)
	case "👎":
		l.emit(BooleanFalse, tok)
	default:
		l.emit(Identifier, "")
	}
	return lexAny
}
