package scanner_test

import (
	"testing"

	"github.com/loxlang/lox/lang/scanner"
	"github.com/loxlang/lox/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(src string) []token.Token {
	s := scanner.New(src)
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestScanBasics(t *testing.T) {
	toks := scanAll(`var x = 1 + 2; // comment
print x;`)
	kinds := make([]token.Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	require.Equal(t, []token.Kind{
		token.VAR, token.IDENT, token.EQUAL, token.NUMBER, token.PLUS, token.NUMBER, token.SEMICOLON,
		token.PRINT, token.IDENT, token.SEMICOLON, token.EOF,
	}, kinds)
	require.Equal(t, 2, toks[7].Line)
}

func TestScanStringAndOperators(t *testing.T) {
	toks := scanAll(`"hi" == "hi" != nil <= this >= super`)
	kinds := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	require.Equal(t, []token.Kind{
		token.STRING, token.EQUAL_EQUAL, token.STRING, token.BANG_EQUAL, token.NIL,
		token.LESS_EQUAL, token.THIS, token.GREATER_EQUAL, token.SUPER, token.EOF,
	}, kinds)
}

func TestUnterminatedString(t *testing.T) {
	toks := scanAll(`"unterminated`)
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
}
