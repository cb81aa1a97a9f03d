package parser

import (
	"strings"
	"unicode"

	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/lexer"
	"github.com/funvibe/ktjvm/internal/token"
)

// parseStringLiteral splits a STRING token into its literal text and the
// interpolated expressions. Each span is removed from the text and its
// expression is recorded at the rune offset where the span started in the
// reduced text.
func parseStringLiteral(tok token.Token) (*ast.StringLiteral, error) {
	raw := []rune(tok.Literal.(string))
	lit := &ast.StringLiteral{Token: tok}
	var out []rune

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch != '$' || i+1 >= len(raw) {
			out = append(out, ch)
			continue
		}

		next := raw[i+1]
		switch {
		case next == '{':
			end := matchingBrace(raw, i+2)
			if end < 0 {
				return nil, diagnostics.NewError(diagnostics.ErrP006, tok, "unterminated interpolation: missing '}'")
			}
			exp, err := parseSpan(tok, string(raw[i+2:end]))
			if err != nil {
				return nil, err
			}
			lit.Interpolations = append(lit.Interpolations, ast.Interpolation{Offset: len(out), Expr: exp})
			i = end

		case isIdentStart(next):
			end := i + 1
			for end < len(raw) && isIdentPart(raw[end]) {
				end++
			}
			exp, err := parseSpan(tok, string(raw[i+1:end]))
			if err != nil {
				return nil, err
			}
			lit.Interpolations = append(lit.Interpolations, ast.Interpolation{Offset: len(out), Expr: exp})
			i = end - 1

		default:
			out = append(out, ch)
		}
	}

	lit.Value = strings.ReplaceAll(string(out), lexer.EscapedDollar, "$")
	return lit, nil
}

// matchingBrace returns the index of the '}' closing a block that starts at
// from, or -1.
func matchingBrace(raw []rune, from int) int {
	depth := 0
	for i := from; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

// parseSpan tokenizes and parses the text of one interpolation span. Errors
// inside it are reported at the enclosing string token.
func parseSpan(tok token.Token, text string) (ast.Expression, error) {
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		return nil, relocate(tok, text, err)
	}
	exp, err := ParseExpression(tokens)
	if err != nil {
		return nil, relocate(tok, text, err)
	}
	return exp, nil
}

func relocate(tok token.Token, text string, err error) error {
	msg := err.Error()
	if de, ok := diagnostics.As(err); ok {
		msg = de.Message
	}
	return diagnostics.NewErrorf(diagnostics.ErrP006, tok, "in interpolation %q: %s", text, msg)
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || unicode.IsDigit(ch)
}
