package pipeline

import (
	"log"

	"github.com/Elipzer/clavender/internal/config"
	"github.com/Elipzer/clavender/internal/diagnostics"
	"github.com/Elipzer/clavender/internal/logutil"
	"github.com/Elipzer/clavender/internal/symbols"
	"github.com/Elipzer/clavender/internal/token"
	"github.com/Elipzer/clavender/internal/vm"
)

// PipelineContext carries a source file through the pipeline stages.
type PipelineContext struct {
	SourceCode string
	FilePath   string
	Config     *config.Config
	Logger     *log.Logger

	// Filled in by the stages
	TokenStream *token.Stream
	Registry    *symbols.Registry
	Unit        *vm.Unit

	Errors []*diagnostics.DiagnosticError
}

// NewPipelineContext returns a context for source with the default
// configuration and no tracing.
func NewPipelineContext(source string) *PipelineContext {
	return &PipelineContext{
		SourceCode: source,
		Config:     config.Default(),
		Logger:     logutil.Discard,
	}
}

// AddError records err, filling in the file path when it is missing.
func (ctx *PipelineContext) AddError(err *diagnostics.DiagnosticError) {
	if err.File == "" {
		err.File = ctx.FilePath
	}
	ctx.Errors = append(ctx.Errors, err)
}

// Fail records a non-diagnostic error, such as a failed prelude load, under
// code.
func (ctx *PipelineContext) Fail(code diagnostics.ErrorCode, err error) {
	ctx.AddError(diagnostics.NewError(code, token.Token{}, err.Error()))
}
