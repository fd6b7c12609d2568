package pipeline

import (
	"github.com/Elipzer/clavender/internal/diagnostics"
	"github.com/Elipzer/clavender/internal/symbols"
)

// RegistryProcessor builds the operator registry from the configuration:
// the builtin prelude, extra prelude files, using scopes and imports. A
// registry already present in the context is reused as is.
type RegistryProcessor struct{}

func (rp *RegistryProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Registry != nil {
		return ctx
	}
	cfg := ctx.Config
	reg := symbols.NewRegistry()

	if !cfg.NoPrelude {
		if err := symbols.LoadBuiltinPrelude(reg); err != nil {
			ctx.Fail(diagnostics.ErrSetup, err)
			return ctx
		}
	}
	for _, p := range cfg.Prelude {
		if err := symbols.LoadPreludeFile(reg, cfg.ResolvePath(p)); err != nil {
			ctx.Fail(diagnostics.ErrSetup, err)
			return ctx
		}
	}
	for _, scope := range cfg.Using {
		reg.Use(scope)
	}
	for _, imp := range cfg.Imports {
		if err := reg.Import(imp); err != nil {
			ctx.Fail(diagnostics.ErrSetup, err)
			return ctx
		}
	}

	ctx.Logger.Printf("registry: %d prefix, %d infix operators, using %v",
		len(reg.Operators(symbols.NamespacePrefix)), len(reg.Operators(symbols.NamespaceInfix)), reg.UsingScopes())
	ctx.Registry = reg
	return ctx
}
