package pipeline

import (
	"errors"

	"github.com/Elipzer/clavender/internal/diagnostics"
	"github.com/Elipzer/clavender/internal/token"
	"github.com/Elipzer/clavender/internal/vm"
)

// CompileProcessor compiles the token stream into a vm.Unit and verifies
// the stack effect of every program it produced.
type CompileProcessor struct{}

func (cp *CompileProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.TokenStream == nil || ctx.Registry == nil {
		ctx.AddError(diagnostics.NewError(diagnostics.ErrSetup, token.Token{}, "compile: token stream or registry missing"))
		return ctx
	}

	c := vm.NewCompiler(ctx.TokenStream, ctx.Registry)
	c.SetNamespace(ctx.Config.Namespace)
	c.SetLogger(ctx.Logger)

	unit, err := c.CompileUnit()
	if err != nil {
		var de *diagnostics.DiagnosticError
		if errors.As(err, &de) {
			ctx.AddError(de)
		} else {
			ctx.Fail(diagnostics.ErrSetup, err)
		}
		return ctx
	}

	for _, fn := range unit.Functions {
		cp.verify(ctx, fn.Program)
	}
	for _, prog := range unit.Main {
		cp.verify(ctx, prog)
	}
	ctx.Unit = unit
	return ctx
}

func (cp *CompileProcessor) verify(ctx *PipelineContext, prog *vm.Program) {
	if err := vm.Verify(prog); err != nil {
		ctx.AddError(diagnostics.NewError(diagnostics.ErrVerify, token.Token{}, prog.Name+": "+err.Error()))
	}
}
