package lexer

import (
	"errors"

	"github.com/Elipzer/clavender/internal/diagnostics"
	"github.com/Elipzer/clavender/internal/pipeline"
	"github.com/Elipzer/clavender/internal/token"
)

type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	toks, err := Tokenize(ctx.SourceCode)
	if err != nil {
		var de *diagnostics.DiagnosticError
		if errors.As(err, &de) {
			ctx.AddError(de)
		} else {
			ctx.Fail(diagnostics.ErrIllegalChar, err)
		}
		return ctx
	}
	ctx.TokenStream = token.NewStream(toks)
	ctx.TokenStream.File = ctx.FilePath
	return ctx
}
