package primitive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emojicode/emojicode/internal/runtime/gc"
)

// jsonMaxDepth bounds nested array/object depth, per spec.md §4.K's
// call for a fixed-depth parser rather than unbounded recursion — a
// maliciously or accidentally deep document fails cleanly instead of
// blowing the Go stack.
const jsonMaxDepth = 256

type jsonFrame byte

const (
	frameArray jsonFrame = iota
	frameObject
)

// jsonParser is a single-pass parser over a rune slice: one left-to-
// right scan, no backtracking, with an explicit frame stack standing in
// for the call stack a naive recursive-descent parser would use.
type jsonParser struct {
	src   []rune
	pos   int
	stack []jsonFrame
}

// ParseJSON parses s into a gc.Something tree: objects become
// Dictionary, arrays become List, and numbers become Integer when they
// carry no '.' or exponent, Double otherwise.
func ParseJSON(s string) (gc.Something, error) {
	p := &jsonParser{src: []rune(s)}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return gc.Nothingness(), err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return gc.Nothingness(), fmt.Errorf("json: trailing data at offset %d", p.pos)
	}
	return v, nil
}

func (p *jsonParser) push(f jsonFrame) error {
	if len(p.stack) >= jsonMaxDepth {
		return fmt.Errorf("json: nesting exceeds depth %d", jsonMaxDepth)
	}
	p.stack = append(p.stack, f)
	return nil
}

func (p *jsonParser) pop() { p.stack = p.stack[:len(p.stack)-1] }

func (p *jsonParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) peek() (rune, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *jsonParser) parseValue() (gc.Something, error) {
	c, ok := p.peek()
	if !ok {
		return gc.Nothingness(), fmt.Errorf("json: unexpected end of input")
	}
	switch {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return gc.Nothingness(), err
		}
		return gc.FromObject(NewStringFromGo(s)), nil
	case c == 't':
		return p.parseLiteral("true", gc.FromBool(true))
	case c == 'f':
		return p.parseLiteral("false", gc.FromBool(false))
	case c == 'n':
		return p.parseLiteral("null", gc.Nothingness())
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return gc.Nothingness(), fmt.Errorf("json: unexpected character %q at offset %d", c, p.pos)
	}
}

func (p *jsonParser) parseLiteral(lit string, v gc.Something) (gc.Something, error) {
	runes := []rune(lit)
	if p.pos+len(runes) > len(p.src) || string(p.src[p.pos:p.pos+len(runes)]) != lit {
		return gc.Nothingness(), fmt.Errorf("json: invalid literal at offset %d", p.pos)
	}
	p.pos += len(runes)
	return v, nil
}

func (p *jsonParser) parseObject() (gc.Something, error) {
	if err := p.push(frameObject); err != nil {
		return gc.Nothingness(), err
	}
	defer p.pop()

	p.pos++ // consume '{'
	dict := NewDict()
	p.skipSpace()
	if c, ok := p.peek(); ok && c == '}' {
		p.pos++
		return gc.FromObject(dict), nil
	}
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok || c != '"' {
			return gc.Nothingness(), fmt.Errorf("json: expected string key at offset %d", p.pos)
		}
		key, err := p.parseString()
		if err != nil {
			return gc.Nothingness(), err
		}
		p.skipSpace()
		if c, ok := p.peek(); !ok || c != ':' {
			return gc.Nothingness(), fmt.Errorf("json: expected ':' at offset %d", p.pos)
		}
		p.pos++
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return gc.Nothingness(), err
		}
		DictSet(dict, key, v)

		p.skipSpace()
		c, ok = p.peek()
		if !ok {
			return gc.Nothingness(), fmt.Errorf("json: unterminated object")
		}
		if c == ',' {
			p.pos++
			continue
		}
		if c == '}' {
			p.pos++
			return gc.FromObject(dict), nil
		}
		return gc.Nothingness(), fmt.Errorf("json: expected ',' or '}' at offset %d", p.pos)
	}
}

func (p *jsonParser) parseArray() (gc.Something, error) {
	if err := p.push(frameArray); err != nil {
		return gc.Nothingness(), err
	}
	defer p.pop()

	p.pos++ // consume '['
	var items []gc.Something
	p.skipSpace()
	if c, ok := p.peek(); ok && c == ']' {
		p.pos++
		return gc.FromObject(NewList(items)), nil
	}
	for {
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return gc.Nothingness(), err
		}
		items = append(items, v)

		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return gc.Nothingness(), fmt.Errorf("json: unterminated array")
		}
		if c == ',' {
			p.pos++
			continue
		}
		if c == ']' {
			p.pos++
			return gc.FromObject(NewList(items)), nil
		}
		return gc.Nothingness(), fmt.Errorf("json: expected ',' or ']' at offset %d", p.pos)
	}
}

func (p *jsonParser) parseString() (string, error) {
	p.pos++ // consume opening quote
	var b strings.Builder
	for {
		c, ok := p.peek()
		if !ok {
			return "", fmt.Errorf("json: unterminated string")
		}
		p.pos++
		if c == '"' {
			return b.String(), nil
		}
		if c != '\\' {
			b.WriteRune(c)
			continue
		}
		esc, ok := p.peek()
		if !ok {
			return "", fmt.Errorf("json: unterminated escape")
		}
		p.pos++
		switch esc {
		case '"':
			b.WriteRune('"')
		case '\\':
			b.WriteRune('\\')
		case '/':
			b.WriteRune('/')
		case 'b':
			b.WriteRune('\b')
		case 'f':
			b.WriteRune('\f')
		case 'n':
			b.WriteRune('\n')
		case 'r':
			b.WriteRune('\r')
		case 't':
			b.WriteRune('\t')
		case 'u':
			if p.pos+4 > len(p.src) {
				return "", fmt.Errorf("json: truncated \\u escape")
			}
			hex := string(p.src[p.pos : p.pos+4])
			v, err := strconv.ParseUint(hex, 16, 32)
			if err != nil {
				return "", fmt.Errorf("json: invalid \\u escape %q", hex)
			}
			p.pos += 4
			b.WriteRune(rune(v))
		default:
			return "", fmt.Errorf("json: invalid escape \\%c", esc)
		}
	}
}

func (p *jsonParser) parseNumber() (gc.Something, error) {
	start := p.pos
	isDouble := false
	if c, ok := p.peek(); ok && c == '-' {
		p.pos++
	}
	for {
		c, ok := p.peek()
		if !ok {
			break
		}
		switch {
		case c >= '0' && c <= '9':
			p.pos++
		case c == '.' || c == 'e' || c == 'E':
			isDouble = true
			p.pos++
			if c2, ok := p.peek(); ok && (c2 == '+' || c2 == '-') {
				p.pos++
			}
		default:
			goto done
		}
	}
done:
	lit := string(p.src[start:p.pos])
	if isDouble {
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return gc.Nothingness(), fmt.Errorf("json: invalid number %q", lit)
		}
		return gc.FromDouble(v), nil
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return gc.Nothingness(), fmt.Errorf("json: invalid number %q", lit)
	}
	return gc.FromInt(v), nil
}
