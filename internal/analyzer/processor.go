package analyzer

import (
	"github.com/funvibe/ktjvm/internal/pipeline"
)

type SemanticAnalyzerProcessor struct{}

func (sap *SemanticAnalyzerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil {
		return ctx
	}
	info, err := Typecheck(ctx.AstRoot)
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	ctx.TypeInfo = info
	return ctx
}
