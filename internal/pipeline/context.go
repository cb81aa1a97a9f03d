package pipeline

import (
	"github.com/funvibe/ktjvm/internal/ast"
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/token"
)

// Processor is one stage of the compilation pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries one compilation unit through the stages. Each
// stage reads what the previous ones produced and adds its own output.
type PipelineContext struct {
	SourceCode string
	FilePath   string
	UnitName   string

	TokenStream []token.Token
	AstRoot     *ast.Program

	// TypeInfo is the typechecker's result (*analyzer.Info). It is kept
	// untyped so this package does not depend on the analyzer.
	TypeInfo interface{}

	// ClassFile is the generated unit (*classfile.ClassFile).
	ClassFile interface{}

	Errors []*diagnostics.DiagnosticError
}

func NewPipelineContext(source string) *PipelineContext {
	return &PipelineContext{SourceCode: source}
}

func (ctx *PipelineContext) Failed() bool {
	return len(ctx.Errors) > 0
}

// Err returns the first recorded error, or nil.
func (ctx *PipelineContext) Err() error {
	if len(ctx.Errors) == 0 {
		return nil
	}
	return ctx.Errors[0]
}

// AddError records err, tagging it with the unit's file path. Errors that
// are not diagnostics are wrapped as internal code generation faults.
func (ctx *PipelineContext) AddError(err error) {
	de, ok := diagnostics.As(err)
	if !ok {
		de = diagnostics.NewError(diagnostics.ErrG002, token.Token{}, err.Error())
	}
	if de.File == "" {
		de.File = ctx.FilePath
	}
	ctx.Errors = append(ctx.Errors, de)
}
