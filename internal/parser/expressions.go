package parser

import (
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/token"
)

func (p *Parser) parseExpression() (ast.Expression, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxRecursionDepth {
		return nil, diagnostics.NewError(diagnostics.ErrP001, p.cur(), "expression nested too deeply")
	}
	return p.parseLogical()
}

// parseLogical handles && and || as one left-associative tier.
func (p *Parser) parseLogical() (ast.Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.accept(token.AND, token.OR)
		if !ok {
			return left, nil
		}
		p.skipNewlines()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.LogicalExpression{Token: op, Operator: op.Lexeme, Left: left, Right: right}
	}
}

// parseComparison applies at most one comparison operator; a < b < c leaves
// the second '<' to the caller, which rejects it.
func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := p.accept(token.EQ, token.NOT_EQ, token.LT, token.GT, token.LTE, token.GTE)
	if !ok {
		return left, nil
	}
	p.skipNewlines()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &ast.ComparisonExpression{Token: op, Operator: op.Lexeme, Left: left, Right: right}, nil
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	return p.parseArithmeticTier(p.parseMultiplicative, token.PLUS, token.MINUS)
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	return p.parseArithmeticTier(p.parseUnary, token.ASTERISK, token.SLASH, token.PERCENT)
}

// parseArithmeticTier folds operand (op operand)* to the left.
func (p *Parser) parseArithmeticTier(operand func() (ast.Expression, error), ops ...token.TokenType) (ast.Expression, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.accept(ops...)
		if !ok {
			return left, nil
		}
		p.skipNewlines()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &ast.ArithmeticExpression{Token: op, Operator: op.Lexeme, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	if bang, ok := p.accept(token.BANG); ok {
		p.depth++
		defer func() { p.depth-- }()
		if p.depth > MaxRecursionDepth {
			return nil, diagnostics.NewError(diagnostics.ErrP001, bang, "expression nested too deeply")
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.NotExpression{Token: bang, Right: right}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.cur()
	switch tok.Type {
	case token.INT:
		p.advance()
		return &ast.IntegerLiteral{Token: tok, Value: tok.Literal.(int32)}, nil
	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.BooleanLiteral{Token: tok, Value: tok.Type == token.TRUE}, nil
	case token.STRING:
		p.advance()
		return parseStringLiteral(tok)
	case token.LPAREN:
		p.advance()
		p.skipNewlines()
		exp, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
		if _, err := p.expect(token.RPAREN, "')'"); err != nil {
			return nil, err
		}
		return exp, nil
	case token.INCREMENT, token.DECREMENT:
		return p.parsePrefixIncDec()
	case token.IDENT:
		return p.parseIdentExpression()
	case token.LBRACE:
		return p.parseLambda()
	case token.ARRAY_OF, token.MUTABLE_LIST_OF:
		return p.parseCollectionLiteral()
	case token.TYPE_ARRAY, token.TYPE_MUTABLE_LIST:
		return p.parseSizedConstructor()
	}
	return nil, p.errorExpected("expression")
}

// parseIdentExpression parses a call, a variable or an indexed read, each
// optionally followed by a postfix ++/-- when it is a target.
func (p *Parser) parseIdentExpression() (ast.Expression, error) {
	if p.peekIs(token.LPAREN) {
		return p.parseCallExpression()
	}
	target, err := p.parseTarget()
	if err != nil {
		return nil, err
	}
	if op, ok := p.accept(token.INCREMENT, token.DECREMENT); ok {
		return &ast.IncDecExpression{Token: op, Operator: op.Lexeme, Target: target}, nil
	}
	return target, nil
}

func (p *Parser) parsePrefixIncDec() (*ast.IncDecExpression, error) {
	op := p.advance()
	target, err := p.parseTarget()
	if err != nil {
		return nil, err
	}
	return &ast.IncDecExpression{Token: op, Operator: op.Lexeme, Prefix: true, Target: target}, nil
}

func (p *Parser) parseCallExpression() (*ast.CallExpression, error) {
	nameTok := p.advance()
	call := &ast.CallExpression{Function: &ast.Identifier{Token: nameTok, Value: nameTok.Literal.(string)}}
	lparen, err := p.expect(token.LPAREN, "'('")
	if err != nil {
		return nil, err
	}
	call.Token = lparen
	if call.Arguments, err = p.parseArgumentsTail(); err != nil {
		return nil, err
	}
	return call, nil
}

// parseArgumentsTail parses e, e, ... ) after an already consumed '('.
func (p *Parser) parseArgumentsTail() ([]ast.Expression, error) {
	var args []ast.Expression
	p.skipNewlines()
	if _, ok := p.accept(token.RPAREN); ok {
		return args, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.skipNewlines()
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
		p.skipNewlines()
	}
	if _, err := p.expect(token.RPAREN, "',' or ')'"); err != nil {
		return nil, err
	}
	return args, nil
}

// parseLambda parses { a: Int, b -> body } and { -> body }.
func (p *Parser) parseLambda() (*ast.LambdaExpression, error) {
	lambda := &ast.LambdaExpression{Token: p.advance()}
	p.skipNewlines()
	if _, ok := p.accept(token.ARROW); !ok {
		for {
			param, err := p.parseParameter(false)
			if err != nil {
				return nil, err
			}
			lambda.Parameters = append(lambda.Parameters, param)
			if _, ok := p.accept(token.COMMA); !ok {
				break
			}
			p.skipNewlines()
		}
		if _, err := p.expect(token.ARROW, "',' or '->'"); err != nil {
			return nil, err
		}
	}
	if err := checkDuplicateParams(lambda.Parameters); err != nil {
		return nil, err
	}

	p.skipNewlines()
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	lambda.Body = body
	p.skipNewlines()
	if _, err := p.expect(token.RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return lambda, nil
}

func collectionKind(tt token.TokenType) ast.CollectionKind {
	if tt == token.MUTABLE_LIST_OF || tt == token.TYPE_MUTABLE_LIST {
		return ast.MutableListKind
	}
	return ast.ArrayKind
}

func (p *Parser) parseCollectionLiteral() (*ast.CollectionLiteral, error) {
	tok := p.advance()
	lit := &ast.CollectionLiteral{Token: tok, Kind: collectionKind(tok.Type)}
	if _, err := p.expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	p.skipNewlines()
	if p.curIs(token.RPAREN) {
		return nil, diagnostics.NewErrorf(diagnostics.ErrP004, tok, "%s: at least one element required", tok.Lexeme)
	}
	elements, err := p.parseArgumentsTail()
	if err != nil {
		return nil, err
	}
	lit.Elements = elements
	return lit, nil
}

// parseSizedConstructor parses Array(n, gen) and the trailing form
// Array(n) { i -> ... }.
func (p *Parser) parseSizedConstructor() (*ast.SizedConstructor, error) {
	tok := p.advance()
	sc := &ast.SizedConstructor{Token: tok, Kind: collectionKind(tok.Type)}
	if _, err := p.expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	p.skipNewlines()
	size, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	sc.Size = size
	p.skipNewlines()

	if _, ok := p.accept(token.COMMA); ok {
		p.skipNewlines()
		if !p.curIs(token.LBRACE) {
			return nil, p.errorExpected("generator lambda")
		}
		if sc.Generator, err = p.parseLambda(); err != nil {
			return nil, err
		}
		p.skipNewlines()
		if _, err := p.expect(token.RPAREN, "')'"); err != nil {
			return nil, err
		}
		return sc, nil
	}

	if _, err := p.expect(token.RPAREN, "',' or ')'"); err != nil {
		return nil, err
	}
	if !p.curIs(token.LBRACE) {
		return nil, p.errorExpected("generator lambda")
	}
	if sc.Generator, err = p.parseLambda(); err != nil {
		return nil, err
	}
	return sc, nil
}
