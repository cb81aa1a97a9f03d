package codegen

import (
	"github.com/funvibe/ktjvm/internal/analyzer"
	"github.com/funvibe/ktjvm/internal/config"
	"github.com/funvibe/ktjvm/internal/pipeline"
)

// CodegenProcessor emits the class for a typechecked unit. It reuses the
// analyzer's Info when an earlier stage produced one.
type CodegenProcessor struct {
	ClassVersion uint16
	// OmitSourceFile leaves out the SourceFile attribute.
	OmitSourceFile bool
}

func (cp *CodegenProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil {
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
	unit := ctx.UnitName
	if unit == "" {
		unit = config.UnitName(ctx.FilePath)
	}
	gen := New(unit, info)
	if cp.ClassVersion != 0 {
		gen.ClassVersion = cp.ClassVersion
	}
	if cp.OmitSourceFile {
		gen.SourceFile = "-"
	}
	cf, err := gen.Generate(ctx.AstRoot)
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	ctx.ClassFile = cf
	return ctx
}
