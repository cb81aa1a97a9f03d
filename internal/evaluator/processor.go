package evaluator

import (
	"context"
	"io"

	"github.com/funvibe/ktjvm/internal/analyzer"
	"github.com/funvibe/ktjvm/internal/pipeline"
)

// EvaluatorProcessor interprets the unit after typechecking.
type EvaluatorProcessor struct {
	Out     io.Writer
	Context context.Context
}

func (ep *EvaluatorProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil || ctx.Failed() {
		return ctx
	}
	info, ok := ctx.TypeInfo.(*analyzer.Info)
	if !ok {
		var err error
		if info, err = analyzer.Typecheck(ctx.AstRoot); err != nil {
			ctx.AddError(err)
			return ctx
		}
		ctx.TypeInfo = info
	}
	e := New(info)
	if ep.Out != nil {
		e.Out = ep.Out
	}
	if ep.Context != nil {
		e.Context = ep.Context
	}
	if err := e.Run(ctx.AstRoot); err != nil {
		ctx.AddError(err)
	}
	return ctx
}
