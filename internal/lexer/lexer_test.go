package lexer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/lexer"
)

func drain(t *testing.T, src string) []lexer.Token {
	t.Helper()
	var toks []lexer.Token
	for tok := range lexer.Lex("test.emojic", strings.NewReader(src)) {
		if tok.Kind == lexer.Comment {
			continue
		}
		toks = append(toks, tok)
		if tok.Kind == lexer.EOF || tok.Kind == lexer.Error {
			break
		}
	}
	return toks
}

func TestLexIntegerWithUnderscoresAndHex(t *testing.T) {
	toks := drain(t, "1_000 0xFF 42")
	require.Len(t, toks, 4)
	require.Equal(t, lexer.Integer, toks[0].Kind)
	require.Equal(t, "1000", toks[0].Value)
	require.Equal(t, "255", toks[1].Value)
	require.Equal(t, "42", toks[2].Value)
}

// Unary minus lexes as its own Symbol token, not fused into the numeric
// literal, so that "$a - $b" and "-$a" both lex the same "-" token the
// expression parser dispatches on.
func TestLexMinusIsSeparateFromDigits(t *testing.T) {
	toks := drain(t, "5 - 3")
	require.Len(t, toks, 4)
	require.Equal(t, lexer.Integer, toks[0].Kind)
	require.Equal(t, lexer.Symbol, toks[1].Kind)
	require.Equal(t, "-", toks[1].Value)
	require.Equal(t, lexer.Integer, toks[2].Kind)
}

func TestLexDouble(t *testing.T) {
	toks := drain(t, "3.14 2e10")
	require.Equal(t, lexer.Double, toks[0].Kind)
	require.Equal(t, "3.14", toks[0].Value)
	require.Equal(t, lexer.Double, toks[1].Kind)
}

func TestLexStringEscapes(t *testing.T) {
	toks := drain(t, `🔤a\nb🔤`)
	require.Equal(t, lexer.String, toks[0].Kind)
	require.Equal(t, "a\nb", toks[0].Value)
}

func TestLexUnterminatedString(t *testing.T) {
	toks := drain(t, `🔤abc`)
	require.Equal(t, lexer.Error, toks[len(toks)-1].Kind)
}

func TestLexBooleans(t *testing.T) {
	toks := drain(t, "👍 👎")
	require.Equal(t, lexer.BooleanTrue, toks[0].Kind)
	require.Equal(t, lexer.BooleanFalse, toks[1].Kind)
}
