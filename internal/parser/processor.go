package parser

import (
	"github.com/funvibe/ktjvm/internal/pipeline"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	prog, err := ParseProgram(ctx.TokenStream)
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	prog.File = ctx.FilePath
	ctx.AstRoot = prog
	return ctx
}
