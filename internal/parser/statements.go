package parser

import (
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/token"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Type {
	case token.VAR, token.VAL:
		return p.parseVarDeclaration()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.FUN:
		return p.parseFunctionStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		return &ast.BreakStatement{Token: p.advance()}, nil
	case token.CONTINUE:
		return &ast.ContinueStatement{Token: p.advance()}, nil
	case token.PRINT, token.PRINTLN:
		return p.parsePrintStatement()
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.INCREMENT, token.DECREMENT:
		exp, err := p.parsePrefixIncDec()
		if err != nil {
			return nil, err
		}
		return &ast.SelfOpStatement{Token: exp.Token, Expression: exp}, nil
	case token.IDENT:
		return p.parseIdentStatement()
	}
	return nil, p.errorExpected("statement")
}

// parseIdentStatement handles statements that start with a name: calls,
// assignments, compound assignments and postfix increments.
func (p *Parser) parseIdentStatement() (ast.Statement, error) {
	first := p.cur()
	if p.peekIs(token.LPAREN) {
		call, err := p.parseCallExpression()
		if err != nil {
			return nil, err
		}
		return &ast.CallStatement{Token: first, Call: call}, nil
	}

	target, err := p.parseTarget()
	if err != nil {
		return nil, err
	}

	tok := p.cur()
	switch tok.Type {
	case token.ASSIGN:
		p.advance()
		p.skipNewlines()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.AssignStatement{Token: tok, Target: target, Value: value}, nil
	case token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.ASTERISK_ASSIGN, token.SLASH_ASSIGN:
		p.advance()
		p.skipNewlines()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.CompoundAssignStatement{Token: tok, Target: target, Operator: tok.Lexeme, Value: value}, nil
	case token.INCREMENT, token.DECREMENT:
		p.advance()
		exp := &ast.IncDecExpression{Token: tok, Operator: tok.Lexeme, Target: target}
		return &ast.SelfOpStatement{Token: first, Expression: exp}, nil
	}
	return nil, p.errorExpected("assignment, '++' or '--'")
}

// parseTarget parses a plain variable or an indexed element of one.
func (p *Parser) parseTarget() (ast.Target, error) {
	nameTok, err := p.expect(token.IDENT, "variable name")
	if err != nil {
		return nil, err
	}
	ident := &ast.Identifier{Token: nameTok, Value: nameTok.Literal.(string)}
	if !p.curIs(token.LBRACKET) {
		return ident, nil
	}
	return p.parseIndex(ident)
}

func (p *Parser) parseIndex(left *ast.Identifier) (*ast.IndexExpression, error) {
	lbracket := p.advance()
	p.skipNewlines()
	index, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if _, err := p.expect(token.RBRACKET, "']'"); err != nil {
		return nil, err
	}
	return &ast.IndexExpression{Token: lbracket, Left: left, Index: index}, nil
}

func (p *Parser) parseVarDeclaration() (*ast.VarDeclaration, error) {
	decl := &ast.VarDeclaration{Token: p.advance()}
	decl.Mutable = decl.Token.Type == token.VAR

	nameTok, err := p.expect(token.IDENT, "variable name")
	if err != nil {
		return nil, err
	}
	decl.Name = &ast.Identifier{Token: nameTok, Value: nameTok.Literal.(string)}

	if _, ok := p.accept(token.COLON); ok {
		if decl.Type, err = p.parseType(); err != nil {
			return nil, err
		}
	}
	if _, ok := p.accept(token.ASSIGN); ok {
		p.skipNewlines()
		if decl.Value, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	return decl, nil
}

func (p *Parser) parsePrintStatement() (*ast.PrintStatement, error) {
	stmt := &ast.PrintStatement{Token: p.advance()}
	stmt.Newline = stmt.Token.Type == token.PRINTLN
	if _, err := p.expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	p.skipNewlines()
	if stmt.Newline && p.curIs(token.RPAREN) {
		p.advance()
		return stmt, nil
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt.Value = value
	p.skipNewlines()
	if _, err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseCondition() (ast.Expression, error) {
	if _, err := p.expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	p.skipNewlines()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if _, err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, err
	}
	return cond, nil
}

func (p *Parser) parseIfStatement() (*ast.IfStatement, error) {
	stmt := &ast.IfStatement{Token: p.advance()}
	var err error
	if stmt.Condition, err = p.parseCondition(); err != nil {
		return nil, err
	}
	p.skipNewlines()
	if stmt.Consequence, err = p.parseBlockStatement(); err != nil {
		return nil, err
	}

	hasElse := p.attempt(func() bool {
		p.skipNewlines()
		_, ok := p.accept(token.ELSE)
		return ok
	})
	if !hasElse {
		return stmt, nil
	}

	p.skipNewlines()
	if p.curIs(token.IF) {
		nested, err := p.parseIfStatement()
		if err != nil {
			return nil, err
		}
		stmt.Alternative = &ast.BlockStatement{
			Token:       nested.Token,
			Statements:  []ast.Statement{nested},
			RBraceToken: nested.Token,
		}
		return stmt, nil
	}
	if stmt.Alternative, err = p.parseBlockStatement(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseWhileStatement() (*ast.WhileStatement, error) {
	stmt := &ast.WhileStatement{Token: p.advance()}
	var err error
	if stmt.Condition, err = p.parseCondition(); err != nil {
		return nil, err
	}
	p.skipNewlines()
	if stmt.Body, err = p.parseBlockStatement(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseForStatement parses for (x in a..b [step s]) { } and
// for (x in iterable) { }.
func (p *Parser) parseForStatement() (*ast.ForStatement, error) {
	stmt := &ast.ForStatement{Token: p.advance()}
	if _, err := p.expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.IDENT, "loop variable")
	if err != nil {
		return nil, err
	}
	stmt.Variable = &ast.Identifier{Token: nameTok, Value: nameTok.Literal.(string)}
	if _, err := p.expect(token.IN, "'in'"); err != nil {
		return nil, err
	}

	from, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if dots, ok := p.accept(token.DOT_DOT); ok {
		rng := &ast.RangeExpression{Token: dots, From: from}
		if rng.To, err = p.parseExpression(); err != nil {
			return nil, err
		}
		if _, ok := p.accept(token.STEP); ok {
			if rng.Step, err = p.parseExpression(); err != nil {
				return nil, err
			}
		}
		stmt.Range = rng
	} else {
		stmt.Iterable = from
	}

	if _, err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, err
	}
	p.skipNewlines()
	if stmt.Body, err = p.parseBlockStatement(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseFunctionStatement() (*ast.FunctionStatement, error) {
	stmt := &ast.FunctionStatement{Token: p.advance(), ReturnType: typesystem.Unit}
	nameTok, err := p.expect(token.IDENT, "function name")
	if err != nil {
		return nil, err
	}
	stmt.Name = &ast.Identifier{Token: nameTok, Value: nameTok.Literal.(string)}

	if _, err := p.expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	p.skipNewlines()
	for !p.curIs(token.RPAREN) {
		param, err := p.parseParameter(true)
		if err != nil {
			return nil, err
		}
		stmt.Parameters = append(stmt.Parameters, param)
		p.skipNewlines()
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
		p.skipNewlines()
	}
	if _, err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, err
	}
	if err := checkDuplicateParams(stmt.Parameters); err != nil {
		return nil, err
	}

	if _, ok := p.accept(token.COLON); ok {
		if stmt.ReturnType, err = p.parseType(); err != nil {
			return nil, err
		}
	}
	p.skipNewlines()
	if stmt.Body, err = p.parseBlockStatement(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseParameter parses name[: Type]; the type is mandatory for function
// parameters.
func (p *Parser) parseParameter(typeRequired bool) (*ast.Parameter, error) {
	nameTok, err := p.expect(token.IDENT, "parameter name")
	if err != nil {
		return nil, err
	}
	param := &ast.Parameter{Token: nameTok, Name: &ast.Identifier{Token: nameTok, Value: nameTok.Literal.(string)}}
	if _, ok := p.accept(token.COLON); ok {
		if param.Type, err = p.parseType(); err != nil {
			return nil, err
		}
	} else if typeRequired {
		return nil, p.errorExpected("':' and parameter type")
	}
	return param, nil
}

func checkDuplicateParams(params []*ast.Parameter) error {
	seen := make(map[string]bool, len(params))
	for _, param := range params {
		if seen[param.Name.Value] {
			return diagnostics.NewErrorf(diagnostics.ErrP005, param.Token, "duplicate parameter name '%s'", param.Name.Value)
		}
		seen[param.Name.Value] = true
	}
	return nil
}

func (p *Parser) parseReturnStatement() (*ast.ReturnStatement, error) {
	stmt := &ast.ReturnStatement{Token: p.advance()}
	if p.atEnd() || p.isSeparator() || p.curIs(token.RBRACE) {
		return stmt, nil
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt.Value = value
	return stmt, nil
}

// parseBlockStatement parses { stmt (sep stmt)* } with optional separators
// right after '{' and right before '}'.
func (p *Parser) parseBlockStatement() (*ast.BlockStatement, error) {
	lbrace, err := p.expect(token.LBRACE, "'{'")
	if err != nil {
		return nil, err
	}
	block := &ast.BlockStatement{Token: lbrace}
	p.skipSeparators()
	for !p.curIs(token.RBRACE) {
		if p.atEnd() {
			return nil, p.errorExpected("'}'")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
		if p.curIs(token.RBRACE) {
			break
		}
		if !p.isSeparator() {
			if p.atEnd() {
				return nil, p.errorExpected("'}'")
			}
			return nil, p.extraTokens("'}'")
		}
		p.skipSeparators()
	}
	block.RBraceToken = p.advance()
	return block, nil
}
