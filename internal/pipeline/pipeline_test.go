package pipeline_test

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Elipzer/clavender/internal/config"
	"github.com/Elipzer/clavender/internal/diagnostics"
	"github.com/Elipzer/clavender/internal/lexer"
	"github.com/Elipzer/clavender/internal/pipeline"
	"github.com/Elipzer/clavender/internal/symbols"
)

func run(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return pipeline.Default(&lexer.LexerProcessor{}).Run(ctx)
}

func errorCodes(ctx *pipeline.PipelineContext) []diagnostics.ErrorCode {
	var codes []diagnostics.ErrorCode
	for _, e := range ctx.Errors {
		codes = append(codes, e.Code)
	}
	return codes
}

func TestDefaultPipeline(t *testing.T) {
	ctx := pipeline.NewPipelineContext("def sq(x) => x * x; sq 4")
	ctx.FilePath = "sq.lv"
	ctx = run(ctx)
	if len(ctx.Errors) > 0 {
		t.Fatalf("errors: %v", ctx.Errors)
	}
	if ctx.Unit == nil || len(ctx.Unit.Main) != 2 || len(ctx.Unit.Functions) != 1 {
		t.Fatalf("unit = %+v", ctx.Unit)
	}
	if ctx.Unit.File != "sq.lv" || ctx.Unit.Main[1].File != "sq.lv" {
		t.Errorf("file not propagated: %q", ctx.Unit.File)
	}
}

func TestStopsAtFirstFailingStage(t *testing.T) {
	ctx := pipeline.NewPipelineContext("1 ` 2")
	ctx.FilePath = "bad.lv"
	ctx = run(ctx)
	if diff := cmp.Diff([]diagnostics.ErrorCode{diagnostics.ErrIllegalChar}, errorCodes(ctx)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if ctx.Registry != nil {
		t.Error("registry stage ran after a lexer error")
	}
	if !strings.HasPrefix(ctx.Errors[0].Error(), "bad.lv:1:3: [L001]") {
		t.Errorf("error = %q", ctx.Errors[0].Error())
	}
}

func TestCompileErrorIsReported(t *testing.T) {
	ctx := run(pipeline.NewPipelineContext("len(1, 2)"))
	if diff := cmp.Diff([]diagnostics.ErrorCode{diagnostics.ErrBadArity}, errorCodes(ctx)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if ctx.Unit != nil {
		t.Error("unit set after a failed compile")
	}
}

func TestNoPrelude(t *testing.T) {
	ctx := pipeline.NewPipelineContext("1 + 2")
	ctx.Config = &config.Config{Namespace: "main", NoPrelude: true}
	ctx = run(ctx)
	if diff := cmp.Diff([]diagnostics.ErrorCode{diagnostics.ErrNameNotFound}, errorCodes(ctx)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestConfigPreludeUsingAndImports(t *testing.T) {
	dir := t.TempDir()
	prelude := "namespace: math\noperators:\n  - {name: sqrt, params: [x]}\n  - {name: \"<>\", fixing: i, params: [a, b]}\n"
	if err := os.WriteFile(filepath.Join(dir, "math.yaml"), []byte(prelude), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, config.ConfigFileName)
	cfgData := "namespace: app\nprelude: [math.yaml]\nusing: [math]\nimports: [\"math:sqrt\"]\n"
	cfg, err := config.ParseConfig([]byte(cfgData), cfgPath)
	if err != nil {
		t.Fatal(err)
	}

	var trace bytes.Buffer
	ctx := pipeline.NewPipelineContext("def f(x) => sqrt x <> 1; f 2")
	ctx.Config = cfg
	ctx.Logger = log.New(&trace, "", 0)
	ctx = run(ctx)
	if len(ctx.Errors) > 0 {
		t.Fatalf("errors: %v", ctx.Errors)
	}
	got := ctx.Unit.Function("app:f", symbols.NamespacePrefix)
	if got == nil {
		t.Fatal("app:f not compiled")
	}
	want := []string{"PARAM 0", "FUNCTION math:sqrt", "INTEGER 1", "FUNCTION math:<>"}
	if diff := cmp.Diff(want, got.Program.Listing()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	for _, line := range []string{"registry:", "declared prefix app:f/1", "compiled app[1]"} {
		if !strings.Contains(trace.String(), line) {
			t.Errorf("trace missing %q:\n%s", line, trace.String())
		}
	}
}

func TestUsingScopeShadowsBuiltin(t *testing.T) {
	dir := t.TempDir()
	prelude := "namespace: mylib\noperators:\n  - {name: len, params: [xs]}\n"
	if err := os.WriteFile(filepath.Join(dir, "mylib.yaml"), []byte(prelude), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.ParseConfig([]byte("prelude: [mylib.yaml]\nusing: [mylib]\n"), filepath.Join(dir, config.ConfigFileName))
	if err != nil {
		t.Fatal(err)
	}

	ctx := pipeline.NewPipelineContext("len 1")
	ctx.Config = cfg
	ctx = run(ctx)
	if len(ctx.Errors) > 0 {
		t.Fatalf("errors: %v", ctx.Errors)
	}
	if diff := cmp.Diff([]string{"mylib", "lv"}, ctx.Registry.UsingScopes()); diff != "" {
		t.Errorf("using (-want +got):\n%s", diff)
	}
	want := []string{"INTEGER 1", "FUNCTION mylib:len"}
	if diff := cmp.Diff(want, ctx.Unit.Main[0].Listing()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestSetupFailure(t *testing.T) {
	ctx := pipeline.NewPipelineContext("1")
	ctx.Config = &config.Config{Namespace: "main", Prelude: []string{"/does/not/exist.yaml"}}
	ctx = run(ctx)
	if diff := cmp.Diff([]diagnostics.ErrorCode{diagnostics.ErrSetup}, errorCodes(ctx)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(ctx.Errors[0].Error(), "[C001]") {
		t.Errorf("error = %q", ctx.Errors[0].Error())
	}
}

func TestExistingRegistryIsReused(t *testing.T) {
	reg := symbols.NewRegistry()
	if err := reg.Add(&symbols.Operator{Name: "main:one", Fixing: symbols.FixPrefix}); err != nil {
		t.Fatal(err)
	}
	ctx := pipeline.NewPipelineContext("one")
	ctx.Registry = reg
	ctx = run(ctx)
	if len(ctx.Errors) > 0 {
		t.Fatalf("errors: %v", ctx.Errors)
	}
	if diff := cmp.Diff([]string{"FUNCTION main:one"}, ctx.Unit.Main[0].Listing()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

type failingStage struct{ ran *bool }

func (f failingStage) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	*f.ran = true
	ctx.Fail(diagnostics.ErrSetup, os.ErrNotExist)
	return ctx
}

func TestRunOrder(t *testing.T) {
	var first, second bool
	ctx := pipeline.New(failingStage{&first}, failingStage{&second}).Run(pipeline.NewPipelineContext(""))
	if !first || second {
		t.Errorf("first ran %v, second ran %v", first, second)
	}
	if len(ctx.Errors) != 1 {
		t.Errorf("errors: %v", ctx.Errors)
	}
}
