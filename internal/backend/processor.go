package backend

import (
	"github.com/funvibe/ktjvm/internal/diagnostics"
	"github.com/funvibe/ktjvm/internal/pipeline"
	"github.com/funvibe/ktjvm/internal/token"
)

// ExecutionProcessor runs a Backend as the last pipeline stage.
type ExecutionProcessor struct {
	Backend Backend
}

// NewExecutionProcessor creates a new pipeline step for the given backend
func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.AstRoot == nil || ctx.Failed() {
		return ctx
	}
	if err := p.Backend.Run(ctx); err != nil {
		// Failures to start the program are runtime errors, not faults of
		// the compiler.
		if _, ok := diagnostics.As(err); !ok {
			err = diagnostics.NewError(diagnostics.ErrR001, token.Token{}, err.Error())
		}
		ctx.AddError(err)
	}
	return ctx
}
