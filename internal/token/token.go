package token

import "fmt"

type TokenType string

// Token is a single lexical unit. Equality is structural over Type and
// Literal; positions never take part in it.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{} // int32 for INT, string otherwise
	Line    int
	Column  int
}

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	// Literals
	INT    TokenType = "INT"
	IDENT  TokenType = "IDENT"
	STRING TokenType = "STRING"

	// Binary operators
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	PERCENT  TokenType = "%"
	EQ       TokenType = "=="
	NOT_EQ   TokenType = "!="
	LT       TokenType = "<"
	GT       TokenType = ">"
	LTE      TokenType = "<="
	GTE      TokenType = ">="
	AND      TokenType = "&&"
	OR       TokenType = "||"

	// Unary operators
	BANG      TokenType = "!"
	INCREMENT TokenType = "++"
	DECREMENT TokenType = "--"

	// Brackets
	LPAREN   TokenType = "("
	RPAREN   TokenType = ")"
	LBRACE   TokenType = "{"
	RBRACE   TokenType = "}"
	LBRACKET TokenType = "["
	RBRACKET TokenType = "]"

	// Symbols
	ASSIGN          TokenType = "="
	PLUS_ASSIGN     TokenType = "+="
	MINUS_ASSIGN    TokenType = "-="
	ASTERISK_ASSIGN TokenType = "*="
	SLASH_ASSIGN    TokenType = "/="
	COMMA           TokenType = ","
	COLON           TokenType = ":"
	SEMICOLON       TokenType = ";"
	ARROW           TokenType = "->"
	DOT_DOT         TokenType = ".."
	NEWLINE         TokenType = "NEWLINE"

	// Keywords
	VAR             TokenType = "VAR"
	VAL             TokenType = "VAL"
	FUN             TokenType = "FUN"
	IF              TokenType = "IF"
	ELSE            TokenType = "ELSE"
	WHILE           TokenType = "WHILE"
	FOR             TokenType = "FOR"
	IN              TokenType = "IN"
	STEP            TokenType = "STEP"
	RETURN          TokenType = "RETURN"
	BREAK           TokenType = "BREAK"
	CONTINUE        TokenType = "CONTINUE"
	TRUE            TokenType = "TRUE"
	FALSE           TokenType = "FALSE"
	PRINT           TokenType = "PRINT"
	PRINTLN         TokenType = "PRINTLN"
	ARRAY_OF        TokenType = "ARRAY_OF"
	MUTABLE_LIST_OF TokenType = "MUTABLE_LIST_OF"

	// Type names
	TYPE_INT          TokenType = "Int"
	TYPE_BOOLEAN      TokenType = "Boolean"
	TYPE_STRING       TokenType = "String"
	TYPE_UNIT         TokenType = "Unit"
	TYPE_ANY          TokenType = "Any"
	TYPE_ARRAY        TokenType = "Array"
	TYPE_MUTABLE_LIST TokenType = "MutableList"
)

var keywords = map[string]TokenType{
	"var":           VAR,
	"val":           VAL,
	"fun":           FUN,
	"if":            IF,
	"else":          ELSE,
	"while":         WHILE,
	"for":           FOR,
	"in":            IN,
	"step":          STEP,
	"return":        RETURN,
	"break":         BREAK,
	"continue":      CONTINUE,
	"true":          TRUE,
	"false":         FALSE,
	"print":         PRINT,
	"println":       PRINTLN,
	"arrayOf":       ARRAY_OF,
	"mutableListOf": MUTABLE_LIST_OF,

	"Int":         TYPE_INT,
	"Boolean":     TYPE_BOOLEAN,
	"String":      TYPE_STRING,
	"Unit":        TYPE_UNIT,
	"Any":         TYPE_ANY,
	"Array":       TYPE_ARRAY,
	"MutableList": TYPE_MUTABLE_LIST,
}

// LookupIdent classifies an identifier as a keyword, a type name or a plain
// variable.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

func (t Token) Equal(other Token) bool {
	return t.Type == other.Type && t.Literal == other.Literal
}

func (t Token) String() string {
	switch t.Type {
	case INT:
		return fmt.Sprintf("INT(%d)", t.Literal)
	case IDENT:
		return fmt.Sprintf("IDENT(%s)", t.Literal)
	case STRING:
		return fmt.Sprintf("STRING(%q)", t.Literal)
	case NEWLINE:
		return "NEWLINE"
	case EOF:
		return "end of input"
	}
	return fmt.Sprintf("'%s'", t.Lexeme)
}

// IsKeyword reports whether the type is a reserved word (type names excluded).
func (tt TokenType) IsKeyword() bool {
	switch tt {
	case VAR, VAL, FUN, IF, ELSE, WHILE, FOR, IN, STEP, RETURN, BREAK, CONTINUE,
		TRUE, FALSE, PRINT, PRINTLN, ARRAY_OF, MUTABLE_LIST_OF:
		return true
	}
	return false
}

func (tt TokenType) IsTypeName() bool {
	switch tt {
	case TYPE_INT, TYPE_BOOLEAN, TYPE_STRING, TYPE_UNIT, TYPE_ANY, TYPE_ARRAY, TYPE_MUTABLE_LIST:
		return true
	}
	return false
}

// EndsOperand reports whether a token of this type can close an operand, so
// that a following '-' is a binary minus rather than the sign of a literal.
func (tt TokenType) EndsOperand() bool {
	switch tt {
	case INT, IDENT, STRING, TRUE, FALSE, RPAREN, RBRACKET, RBRACE, INCREMENT, DECREMENT:
		return true
	}
	return tt.IsTypeName()
}
