// Package parser turns a token slice into an *ast.Program.
//
// The parser is hand-written recursive descent over a position-indexed
// cursor. Optional and alternative productions are tried from a checkpoint
// (mark/reset) and rewound when they do not match, so a failed attempt never
// consumes input. Errors are returned only for input that no alternative
// accepts.
package parser

import (
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/token"
)

// MaxRecursionDepth bounds expression nesting.
const MaxRecursionDepth = 256

type Parser struct {
	tokens []token.Token
	pos    int
	depth  int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseProgram parses a whole compilation unit.
func ParseProgram(tokens []token.Token) (*ast.Program, error) {
	return New(tokens).ParseProgram()
}

// ParseExpression parses tokens that must form exactly one expression.
func ParseExpression(tokens []token.Token) (ast.Expression, error) {
	p := New(tokens)
	p.skipNewlines()
	exp, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if !p.atEnd() {
		return nil, p.extraTokens("end of expression")
	}
	return exp, nil
}

func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{}
	p.skipSeparators()
	for !p.atEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
		if p.atEnd() {
			break
		}
		if !p.isSeparator() {
			return nil, p.extraTokens("end of input")
		}
		p.skipSeparators()
	}
	return program, nil
}

// --- cursor ---

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

// cur returns the current token, or a synthetic EOF token past the end.
func (p *Parser) cur() token.Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}
	eof := token.Token{Type: token.EOF, Line: 1, Column: 1}
	if len(p.tokens) > 0 {
		last := p.tokens[len(p.tokens)-1]
		eof.Line = last.Line
		eof.Column = last.Column + len([]rune(last.Lexeme))
	}
	return eof
}

func (p *Parser) curIs(tt token.TokenType) bool {
	return p.cur().Type == tt
}

func (p *Parser) peekIs(tt token.TokenType) bool {
	return p.peekAt(1).Type == tt
}

func (p *Parser) advance() token.Token {
	tok := p.cur()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

// accept consumes the current token if it has one of the given types.
func (p *Parser) accept(types ...token.TokenType) (token.Token, bool) {
	tok := p.cur()
	for _, tt := range types {
		if tok.Type == tt {
			p.advance()
			return tok, true
		}
	}
	return tok, false
}

// expect consumes a token of type tt or fails describing what was wanted.
func (p *Parser) expect(tt token.TokenType, what string) (token.Token, error) {
	if tok, ok := p.accept(tt); ok {
		return tok, nil
	}
	return token.Token{}, p.errorExpected(what)
}

func (p *Parser) mark() int {
	return p.pos
}

func (p *Parser) reset(m int) {
	p.pos = m
}

// attempt runs fn from a checkpoint and rewinds when it reports no match.
func (p *Parser) attempt(fn func() bool) bool {
	m := p.mark()
	if fn() {
		return true
	}
	p.reset(m)
	return false
}

func (p *Parser) isSeparator() bool {
	return p.curIs(token.NEWLINE) || p.curIs(token.SEMICOLON)
}

func (p *Parser) skipSeparators() {
	for p.isSeparator() {
		p.advance()
	}
}

func (p *Parser) skipNewlines() {
	for p.curIs(token.NEWLINE) {
		p.advance()
	}
}

// --- errors ---

func describe(tok token.Token) string {
	return tok.String()
}

func (p *Parser) errorExpected(what string) *diagnostics.DiagnosticError {
	tok := p.cur()
	if tok.Type == token.EOF {
		return diagnostics.NewExpected(diagnostics.ErrP002, tok, what, "end of input")
	}
	return diagnostics.NewExpected(diagnostics.ErrP001, tok, what, describe(tok))
}

func (p *Parser) extraTokens(expected string) *diagnostics.DiagnosticError {
	tok := p.cur()
	e := diagnostics.NewErrorf(diagnostics.ErrP003, tok, "extra tokens at end: expected %s, received %s", expected, describe(tok))
	e.Expected = expected
	e.Received = describe(tok)
	return e
}
