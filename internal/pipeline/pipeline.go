package pipeline

// Processor is one stage of the compile pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Each stage consumes what the previous one
// produced, so the first stage that reports errors ends the run.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		if len(ctx.Errors) > 0 {
			break
		}
	}
	return ctx
}

// Default returns the standard lex, registry and compile pipeline. The
// lexer stage lives in the lexer package, so callers pass it in.
func Default(lex Processor) *Pipeline {
	return New(lex, &RegistryProcessor{}, &CompileProcessor{})
}
