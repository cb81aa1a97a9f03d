package lexer

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number

	prev token.TokenType // type of the last emitted token, "" at start
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// Tokenize scans the whole input. The result carries no EOF token.
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)
	var tokens []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == token.EOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

// NextToken returns the next token, or an EOF token at end of input.
func (l *Lexer) NextToken() (token.Token, error) {
	if err := l.skipWhitespace(); err != nil {
		return token.Token{}, err
	}

	line, col := l.line, l.column
	if l.atEnd() {
		return token.Token{Type: token.EOF, Line: line, Column: col}, nil
	}

	var tok token.Token
	switch l.ch {
	case '\n':
		tok = l.fixed(token.NEWLINE, "\n")
	case ';':
		tok = l.fixed(token.SEMICOLON, ";")
	case ',':
		tok = l.fixed(token.COMMA, ",")
	case ':':
		tok = l.fixed(token.COLON, ":")
	case '(':
		tok = l.fixed(token.LPAREN, "(")
	case ')':
		tok = l.fixed(token.RPAREN, ")")
	case '{':
		tok = l.fixed(token.LBRACE, "{")
	case '}':
		tok = l.fixed(token.RBRACE, "}")
	case '[':
		tok = l.fixed(token.LBRACKET, "[")
	case ']':
		tok = l.fixed(token.RBRACKET, "]")
	case '%':
		tok = l.fixed(token.PERCENT, "%")
	case '=':
		tok = l.either('=', token.EQ, "==", token.ASSIGN, "=")
	case '!':
		tok = l.either('=', token.NOT_EQ, "!=", token.BANG, "!")
	case '<':
		tok = l.either('=', token.LTE, "<=", token.LT, "<")
	case '>':
		tok = l.either('=', token.GTE, ">=", token.GT, ">")
	case '*':
		tok = l.either('=', token.ASTERISK_ASSIGN, "*=", token.ASTERISK, "*")
	case '/':
		tok = l.either('=', token.SLASH_ASSIGN, "/=", token.SLASH, "/")
	case '+':
		if l.peekChar() == '+' {
			l.readChar()
			tok = l.fixed(token.INCREMENT, "++")
		} else {
			tok = l.either('=', token.PLUS_ASSIGN, "+=", token.PLUS, "+")
		}
	case '-':
		switch {
		case l.peekChar() == '-':
			l.readChar()
			tok = l.fixed(token.DECREMENT, "--")
		case l.peekChar() == '=':
			l.readChar()
			tok = l.fixed(token.MINUS_ASSIGN, "-=")
		case l.peekChar() == '>':
			l.readChar()
			tok = l.fixed(token.ARROW, "->")
		case isDigit(l.peekChar()) && !l.prev.EndsOperand():
			l.readChar()
			t, err := l.readNumber(true, line, col)
			if err != nil {
				return token.Token{}, err
			}
			tok = t
		default:
			tok = l.fixed(token.MINUS, "-")
		}
	case '&':
		if l.peekChar() != '&' {
			return token.Token{}, l.illegal(line, col)
		}
		l.readChar()
		tok = l.fixed(token.AND, "&&")
	case '|':
		if l.peekChar() != '|' {
			return token.Token{}, l.illegal(line, col)
		}
		l.readChar()
		tok = l.fixed(token.OR, "||")
	case '.':
		if l.peekChar() != '.' {
			return token.Token{}, l.illegal(line, col)
		}
		l.readChar()
		tok = l.fixed(token.DOT_DOT, "..")
	case '"':
		tok = l.readString()
	default:
		if isLetter(l.ch) {
			ident := l.readIdentifier()
			tt := token.LookupIdent(ident)
			tok = token.Token{Type: tt, Lexeme: ident, Literal: ident}
			tok.Line, tok.Column = line, col
			l.prev = tt
			// readIdentifier already advanced past the identifier
			return tok, nil
		}
		if isDigit(l.ch) {
			t, err := l.readNumber(false, line, col)
			if err != nil {
				return token.Token{}, err
			}
			l.prev = t.Type
			return t, nil
		}
		return token.Token{}, l.illegal(line, col)
	}

	tok.Line, tok.Column = line, col
	l.prev = tok.Type
	if tok.Type != token.INT {
		l.readChar()
	}
	return tok, nil
}

func (l *Lexer) fixed(tt token.TokenType, lexeme string) token.Token {
	return token.Token{Type: tt, Lexeme: lexeme, Literal: lexeme}
}

// either consumes the next char when it equals next and returns the two-char
// token, otherwise the single-char one.
func (l *Lexer) either(next rune, long token.TokenType, longLex string, short token.TokenType, shortLex string) token.Token {
	if l.peekChar() == next {
		l.readChar()
		return l.fixed(long, longLex)
	}
	return l.fixed(short, shortLex)
}

func (l *Lexer) illegal(line, col int) error {
	tok := token.Token{Type: token.ILLEGAL, Lexeme: string(l.ch), Literal: string(l.ch), Line: line, Column: col}
	return diagnostics.NewErrorf(diagnostics.ErrL001, tok, "unexpected character %q", l.ch)
}

// readString reads a double-quoted string. Interpolation markers are kept
// verbatim; an unterminated string runs to the end of input.
func (l *Lexer) readString() token.Token {
	start := l.position
	var sb strings.Builder
	for {
		l.readChar()
		if l.atEnd() || l.ch == '"' {
			break
		}
		if l.ch == '\\' {
			switch l.peekChar() {
			case 'n':
				l.readChar()
				sb.WriteRune('\n')
				continue
			case 't':
				l.readChar()
				sb.WriteRune('\t')
				continue
			case '"':
				l.readChar()
				sb.WriteRune('"')
				continue
			case '\\':
				l.readChar()
				sb.WriteRune('\\')
				continue
			case '$':
				// an escaped dollar must not start an interpolation later on
				l.readChar()
				sb.WriteString(EscapedDollar)
				continue
			}
		}
		sb.WriteRune(l.ch)
	}
	end := l.position
	if !l.atEnd() {
		end++
	}
	return token.Token{Type: token.STRING, Lexeme: l.input[start:end], Literal: sb.String()}
}

// EscapedDollar stands in for \$ inside string token literals until the
// parser turns it back into a plain '$'.
const EscapedDollar = "\uE000"

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a decimal integer. When negative is set the '-' has
// already been consumed and l.ch is the first digit.
func (l *Lexer) readNumber(negative bool, line, col int) (token.Token, error) {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	digits := l.input[position:l.position]
	lexeme := digits
	if negative {
		lexeme = "-" + digits
	}
	tok := token.Token{Type: token.INT, Lexeme: lexeme, Line: line, Column: col}

	if isLetter(l.ch) {
		tok.Type = token.ILLEGAL
		return token.Token{}, diagnostics.NewErrorf(diagnostics.ErrL001, tok, "malformed number %q", lexeme+string(l.ch))
	}

	val, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil || val < math.MinInt32 || val > math.MaxInt32 {
		tok.Type = token.ILLEGAL
		return token.Token{}, diagnostics.NewErrorf(diagnostics.ErrL003, tok, "integer literal %s out of range", lexeme)
	}
	tok.Literal = int32(val)
	return tok, nil
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || (ch >= 0x80 && unicode.IsLetter(ch))
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) skipWhitespace() error {
	for {
		for !l.atEnd() && (l.ch == ' ' || l.ch == '\t' || l.ch == '\r') {
			l.readChar()
		}
		if l.atEnd() || l.ch != '/' {
			return nil
		}
		switch l.peekChar() {
		case '/':
			for !l.atEnd() && l.ch != '\n' {
				l.readChar()
			}
		case '*':
			line, col := l.line, l.column
			l.readChar() // consume /
			l.readChar() // consume *
			closed := false
			for !l.atEnd() {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar() // consume *
					l.readChar() // consume /
					closed = true
					break
				}
				l.readChar()
			}
			if !closed {
				tok := token.Token{Type: token.ILLEGAL, Lexeme: "/*", Literal: "/*", Line: line, Column: col}
				return diagnostics.NewError(diagnostics.ErrL002, tok, "unterminated block comment")
			}
		default:
			return nil
		}
	}
}
