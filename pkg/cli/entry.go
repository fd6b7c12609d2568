package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/Elipzer/clavender/internal/cache"
	"github.com/Elipzer/clavender/internal/config"
	"github.com/Elipzer/clavender/internal/diagnostics"
	"github.com/Elipzer/clavender/internal/lexer"
	"github.com/Elipzer/clavender/internal/logutil"
	"github.com/Elipzer/clavender/internal/pipeline"
	"github.com/Elipzer/clavender/internal/symbols"
	"github.com/Elipzer/clavender/internal/utils"
	"github.com/Elipzer/clavender/internal/vm"
)

const usage = `usage: lavc [options] <file.lv>
       lavc [options] -e '<expressions>'

options:
  -config <file>   use this lavender.yaml instead of searching for one
  -cache <db>      reuse and store listings in a SQLite cache
  -trace           log declarations and compiled programs to stderr
  -version         print the compiler version
  -help [topic]    print this help; topics: operators
`

// options are the parsed command line.
type options struct {
	configPath string
	cachePath  string
	trace      bool
	expr       string
	hasExpr    bool
	file       string
	help       bool
	helpTopic  string
	version    bool

	stdout io.Writer
	stderr io.Writer
}

func parseArgs(args []string) (*options, error) {
	o := &options{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		next := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s needs an argument", arg)
			}
			i++
			return args[i], nil
		}
		var err error
		switch arg {
		case "-config", "--config":
			o.configPath, err = next()
		case "-cache", "--cache":
			o.cachePath, err = next()
		case "-trace", "--trace":
			o.trace = true
		case "-e":
			o.expr, err = next()
			o.hasExpr = true
		case "-v", "-version", "--version":
			o.version = true
		case "-h", "-help", "--help", "help":
			o.help = true
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				o.helpTopic = args[i]
			}
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("unknown option %s", arg)
			}
			if o.file != "" {
				return nil, fmt.Errorf("only one source file may be given")
			}
			o.file = arg
		}
		if err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Run is the entry point of the lavc command.
func Run() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) (code int) {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(stderr, "Internal error: %v\n", r)
			fmt.Fprintln(stderr, "This is a bug. Please report it.")
			code = 1
		}
	}()

	color.NoColor = !isTerminal(stderr)

	o, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n\n%s", err, usage)
		return 2
	}
	o.stdout, o.stderr = stdout, stderr

	if handleVersion(o) || handleHelp(o) {
		return 0
	}
	if o.file == "" && !o.hasExpr {
		fmt.Fprint(stderr, usage)
		return 2
	}
	return handleCompile(o)
}

func handleVersion(o *options) bool {
	if !o.version {
		return false
	}
	fmt.Fprintln(o.stdout, "lavc "+config.Version)
	return true
}

func handleHelp(o *options) bool {
	if !o.help {
		return false
	}
	switch o.helpTopic {
	case "":
		fmt.Fprint(o.stdout, usage)
	case "operators":
		reg := symbols.NewRegistry()
		if err := symbols.LoadBuiltinPrelude(reg); err != nil {
			fmt.Fprintf(o.stderr, "Error: %s\n", err)
			return true
		}
		printOperators(o.stdout, reg)
	default:
		fmt.Fprintf(o.stdout, "Unknown topic: %s\n", o.helpTopic)
		fmt.Fprintln(o.stdout, "Use '-help operators' to list the builtin operators")
	}
	return true
}

// printOperators lists every operator with its fixing and, for infix
// operators, its precedence class.
func printOperators(w io.Writer, reg *symbols.Registry) {
	for _, ns := range []symbols.Namespace{symbols.NamespacePrefix, symbols.NamespaceInfix} {
		fmt.Fprintf(w, "%s:\n", ns)
		for _, op := range reg.Operators(ns) {
			params := make([]string, len(op.Params))
			for i, p := range op.Params {
				params[i] = p.Name
				if p.ByName {
					params[i] = config.ByNameMarker + p.Name
				}
			}
			sig := strings.Join(params, ", ")
			if op.Varargs {
				sig += "..."
			}
			line := fmt.Sprintf("  %-12s %-12s (%s)", op.Name, op.Fixing, sig)
			if ns == symbols.NamespaceInfix {
				line += fmt.Sprintf("  precedence %d", vm.InfixPrecedence(op.SimpleName()))
			}
			fmt.Fprintln(w, line)
		}
	}
}

// handleCompile compiles the file or -e source and prints its listing.
func handleCompile(o *options) int {
	source, filePath, err := readSource(o)
	if err != nil {
		fmt.Fprintf(o.stderr, "Error: %s\n", err)
		return 1
	}

	cfg, err := loadConfig(o, filePath)
	if err != nil {
		fmt.Fprintf(o.stderr, "Error: %s\n", err)
		return 1
	}

	logger := logutil.Discard
	if o.trace {
		logger = logutil.Stderr("lavc: ")
		logger.SetOutput(o.stderr)
	}

	cachePath := o.cachePath
	if cachePath == "" {
		cachePath = cfg.ResolvePath(cfg.Cache)
	}
	if cachePath == "" {
		listing, ok := runPipeline(o, source, filePath, cfg, logger)
		if !ok {
			return 1
		}
		fmt.Fprint(o.stdout, listing)
		return 0
	}
	return compileCached(o, cachePath, source, filePath, cfg, logger)
}

// compileCached serves the listing from the cache when the same source was
// compiled before with the same compiler version and configuration.
func compileCached(o *options, cachePath, source, filePath string, cfg *config.Config, logger *log.Logger) int {
	ctx := context.Background()
	c, err := cache.Open(ctx, cachePath)
	if err != nil {
		fmt.Fprintf(o.stderr, "Error: %s\n", err)
		return 1
	}
	defer c.Close()

	key, err := cacheKey(cfg, source)
	if err != nil {
		// The pipeline reports unreadable prelude files itself.
		logger.Printf("cache skipped: %s", err)
		listing, ok := runPipeline(o, source, filePath, cfg, logger)
		if ok {
			fmt.Fprint(o.stdout, listing)
			return 0
		}
		return 1
	}
	hash := cache.Hash(config.Version, key)

	entry, err := c.Lookup(ctx, hash)
	switch {
	case err == nil:
		logger.Printf("cache hit %s (%s)", entry.ID, entry.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprint(o.stdout, entry.Listing)
		return 0
	case !errors.Is(err, cache.ErrMiss):
		fmt.Fprintf(o.stderr, "Error: %s\n", err)
		return 1
	}

	listing, ok := runPipeline(o, source, filePath, cfg, logger)
	if !ok {
		return 1
	}
	entry, err = c.Store(ctx, hash, filePath, config.Version, listing)
	if err != nil {
		fmt.Fprintf(o.stderr, "Error: %s\n", err)
		return 1
	}
	logger.Printf("cache store %s", entry.ID)
	fmt.Fprint(o.stdout, listing)
	return 0
}

// cacheKey covers everything a listing depends on besides the compiler
// version: the configuration, the resolved path and content of every extra
// prelude file, and the source.
func cacheKey(cfg *config.Config, source string) (string, error) {
	cfgData, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.Write(cfgData)
	for _, p := range cfg.Prelude {
		path := cfg.ResolvePath(p)
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "\x00%s\x00%d\x00", path, len(data))
		sb.Write(data)
	}
	sb.WriteString("\x00")
	sb.WriteString(source)
	return sb.String(), nil
}

func runPipeline(o *options, source, filePath string, cfg *config.Config, logger *log.Logger) (string, bool) {
	// 1. Create the initial pipeline context
	initialContext := pipeline.NewPipelineContext(source)
	initialContext.FilePath = filePath
	initialContext.Config = cfg
	initialContext.Logger = logger

	// 2. Run the lex, registry and compile stages
	finalContext := pipeline.Default(&lexer.LexerProcessor{}).Run(initialContext)

	// 3. Check the results and print errors
	if len(finalContext.Errors) > 0 {
		fmt.Fprintln(o.stderr, "Compilation failed with errors:")
		for _, err := range finalContext.Errors {
			fmt.Fprintf(o.stderr, "- %s\n", formatError(err))
		}
		return "", false
	}
	return vm.DisassembleUnit(finalContext.Unit), true
}

var codeColor = color.New(color.FgRed, color.Bold)

// formatError highlights the error code of a diagnostic.
func formatError(err *diagnostics.DiagnosticError) string {
	msg := err.Error()
	code := "[" + string(err.Code) + "]"
	return strings.Replace(msg, code, codeColor.Sprint(code), 1)
}

func readSource(o *options) (source, filePath string, err error) {
	if o.hasExpr {
		return o.expr, "<expr>", nil
	}
	if !config.HasSourceExt(o.file) {
		return "", "", fmt.Errorf("%s: not a Lavender source file (want %s)", o.file, strings.Join(config.SourceFileExtensions, " or "))
	}
	data, err := os.ReadFile(o.file)
	if err != nil {
		return "", "", err
	}
	return string(data), o.file, nil
}

// loadConfig uses -config when given, otherwise the nearest lavender.yaml
// above the source file (or the working directory for -e).
func loadConfig(o *options, filePath string) (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadConfig(o.configPath)
	}
	dir := "."
	if !o.hasExpr {
		dir = utils.GetSourceDir(filePath)
	}
	path, err := config.FindConfig(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadConfig(path)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
