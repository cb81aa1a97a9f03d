package parser

import (
	"github.com/funvibe/ktjvm/internal/token"
	"github.com/funvibe/ktjvm/internal/typesystem"
)

// parseType parses a scalar, Array<Scalar>, MutableList<Scalar> or a
// function type (T, ...) -> R.
func (p *Parser) parseType() (typesystem.Type, error) {
	switch p.cur().Type {
	case token.TYPE_INT, token.TYPE_BOOLEAN, token.TYPE_STRING, token.TYPE_UNIT, token.TYPE_ANY:
		return scalarOf(p.advance().Type), nil

	case token.TYPE_ARRAY, token.TYPE_MUTABLE_LIST:
		kind := p.advance().Type
		if _, err := p.expect(token.LT, "'<'"); err != nil {
			return nil, err
		}
		elem, err := p.parseElementType()
		if err != nil {
			return nil, err
		}
		if err := p.closeTypeArgument(); err != nil {
			return nil, err
		}
		if kind == token.TYPE_MUTABLE_LIST {
			return typesystem.MutableList{Elem: elem}, nil
		}
		return typesystem.Array{Elem: elem}, nil

	case token.LPAREN:
		p.advance()
		fn := typesystem.Func{}
		if !p.curIs(token.RPAREN) {
			for {
				param, err := p.parseType()
				if err != nil {
					return nil, err
				}
				fn.Params = append(fn.Params, param)
				if _, ok := p.accept(token.COMMA); !ok {
					break
				}
			}
		}
		if _, err := p.expect(token.RPAREN, "',' or ')'"); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.ARROW, "'->'"); err != nil {
			return nil, err
		}
		ret, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fn.Return = ret
		return fn, nil
	}
	return nil, p.errorExpected("type")
}

// closeTypeArgument consumes the '>' ending a type argument list. The lexer
// reads `Array<Int>=` as Array < Int >=, so a '>=' here is split into '>'
// and '='. Tokens before the cursor keep their indices, which keeps every
// live checkpoint valid.
func (p *Parser) closeTypeArgument() error {
	if tok := p.cur(); tok.Type == token.GTE {
		gt := token.Token{Type: token.GT, Lexeme: ">", Literal: ">", Line: tok.Line, Column: tok.Column}
		assign := token.Token{Type: token.ASSIGN, Lexeme: "=", Literal: "=", Line: tok.Line, Column: tok.Column + 1}
		tokens := make([]token.Token, 0, len(p.tokens)+1)
		tokens = append(tokens, p.tokens[:p.pos]...)
		tokens = append(tokens, gt, assign)
		p.tokens = append(tokens, p.tokens[p.pos+1:]...)
	}
	_, err := p.expect(token.GT, "'>'")
	return err
}

// parseElementType accepts the scalars that may be stored in a collection.
func (p *Parser) parseElementType() (typesystem.Scalar, error) {
	switch p.cur().Type {
	case token.TYPE_INT, token.TYPE_BOOLEAN, token.TYPE_STRING, token.TYPE_ANY:
		return scalarOf(p.advance().Type), nil
	}
	return 0, p.errorExpected("element type")
}

func scalarOf(tt token.TokenType) typesystem.Scalar {
	switch tt {
	case token.TYPE_BOOLEAN:
		return typesystem.Boolean
	case token.TYPE_STRING:
		return typesystem.String
	case token.TYPE_UNIT:
		return typesystem.Unit
	case token.TYPE_ANY:
		return typesystem.Any
	}
	return typesystem.Int
}
