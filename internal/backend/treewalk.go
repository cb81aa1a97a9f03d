package backend

import (
	"context"
	"fmt"
	"io"

	"github.com/funvibe/ktjvm/internal/analyzer"
	"github.com/funvibe/ktjvm/internal/evaluator"
	"github.com/funvibe/ktjvm/internal/pipeline"
)

// TreeWalkBackend wraps the reference interpreter
type TreeWalkBackend struct {
	Out     io.Writer // os.Stdout when nil
	Context context.Context
}

// NewTreeWalk creates a new tree-walk backend
func NewTreeWalk(out io.Writer) *TreeWalkBackend {
	return &TreeWalkBackend{Out: out}
}

func (b *TreeWalkBackend) Name() string { return "tree-walk" }

// Run interprets the program, typechecking it first if no earlier stage did.
func (b *TreeWalkBackend) Run(ctx *pipeline.PipelineContext) error {
	if ctx.AstRoot == nil {
		return fmt.Errorf("no AST to execute")
	}
	if len(ctx.Errors) > 0 {
		return ctx.Errors[0]
	}
	info, ok := ctx.TypeInfo.(*analyzer.Info)
	if !ok {
		var err error
		if info, err = analyzer.Typecheck(ctx.AstRoot); err != nil {
			return err
		}
		ctx.TypeInfo = info
	}
	eval := evaluator.New(info)
	if b.Out != nil {
		eval.Out = b.Out
	}
	if b.Context != nil {
		eval.Context = b.Context
	}
	return eval.Run(ctx.AstRoot)
}
