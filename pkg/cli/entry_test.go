package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Elipzer/clavender/internal/config"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "-version")
	if code != 0 || out != "lavc "+config.Version+"\n" {
		t.Errorf("exit %d, output %q", code, out)
	}
}

func TestHelp(t *testing.T) {
	code, out, _ := runCLI(t, "-help")
	if code != 0 || !strings.HasPrefix(out, "usage: lavc") {
		t.Errorf("exit %d, output %q", code, out)
	}

	code, out, _ = runCLI(t, "-help", "operators")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	for _, want := range []string{"prefix:", "infix:", "lv:vect", "(xs...)", "(a, =>b)", "precedence 8"} {
		if !strings.Contains(out, want) {
			t.Errorf("operator help missing %q:\n%s", want, out)
		}
	}

	_, out, _ = runCLI(t, "-help", "nope")
	if !strings.Contains(out, "Unknown topic: nope") {
		t.Errorf("output %q", out)
	}
}

func TestUsageErrors(t *testing.T) {
	tests := [][]string{
		nil,
		{"-bogus"},
		{"-e"},
		{"a.lv", "b.lv"},
	}
	for _, args := range tests {
		code, _, errOut := runCLI(t, args...)
		if code != 2 || !strings.Contains(errOut, "usage: lavc") {
			t.Errorf("%v: exit %d, stderr %q", args, code, errOut)
		}
	}
}

func TestCompileExpression(t *testing.T) {
	code, out, errOut := runCLI(t, "-e", "-1")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	want := "== main[0] ==\n" +
		"0000    1 INTEGER          1\n" +
		"0001    | FUNCTION         lv:-/1\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestCompileErrors(t *testing.T) {
	code, out, errOut := runCLI(t, "-e", "len(1, 2)")
	if code != 1 || out != "" {
		t.Errorf("exit %d, stdout %q", code, out)
	}
	if !strings.HasPrefix(errOut, "Compilation failed with errors:\n- <expr>:1:10: [E012]") {
		t.Errorf("stderr %q", errOut)
	}
}

func TestRejectsOtherExtensions(t *testing.T) {
	code, _, errOut := runCLI(t, "main.go")
	if code != 1 || !strings.Contains(errOut, "not a Lavender source file") {
		t.Errorf("exit %d, stderr %q", code, errOut)
	}
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(cfgPath, []byte("namespace: app\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, out, errOut := runCLI(t, "-config", cfgPath, "-e", "def f(x) => x")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "== prefix app:f/1 ==") || !strings.Contains(out, "== app[0] ==") {
		t.Errorf("output %q", out)
	}
}

func TestConfigDiscovery(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("no_prelude: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(dir, "main.lv")
	if err := os.WriteFile(src, []byte("1 + 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, errOut := runCLI(t, src)
	if code != 1 || !strings.Contains(errOut, "[E007]") {
		t.Errorf("the discovered config should disable the prelude: exit %d, stderr %q", code, errOut)
	}
}

func TestCache(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cache.db")

	code, first, errOut := runCLI(t, "-cache", db, "-trace", "-e", "1 + 2")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(errOut, "cache store") {
		t.Errorf("first run did not store: %q", errOut)
	}

	code, second, errOut := runCLI(t, "-cache", db, "-trace", "-e", "1 + 2")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(errOut, "cache hit") {
		t.Errorf("second run missed the cache: %q", errOut)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached listing differs (-first +second):\n%s", diff)
	}

	// Failed compiles are not cached.
	code, _, _ = runCLI(t, "-cache", db, "-e", "1 +")
	if code != 1 {
		t.Errorf("exit %d", code)
	}
}

func TestCacheSeesPreludeChanges(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cache.db")
	cfgPath := filepath.Join(dir, config.ConfigFileName)
	opsPath := filepath.Join(dir, "ops.yaml")
	if err := os.WriteFile(cfgPath, []byte("prelude: [ops.yaml]\nusing: [ops]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeOps := func(params string) {
		t.Helper()
		data := "namespace: ops\noperators:\n  - {name: twice, params: [" + params + "]}\n"
		if err := os.WriteFile(opsPath, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	writeOps("x")
	code, out, errOut := runCLI(t, "-config", cfgPath, "-cache", db, "-e", "twice 1")
	if code != 0 || !strings.Contains(out, "FUNCTION") || !strings.Contains(out, "ops:twice") {
		t.Fatalf("exit %d, output %q: %s", code, out, errOut)
	}

	writeOps("x, y")
	code, _, errOut = runCLI(t, "-config", cfgPath, "-cache", db, "-trace", "-e", "twice 1")
	if code != 1 || !strings.Contains(errOut, "[E012]") {
		t.Errorf("exit %d, stderr %q", code, errOut)
	}
	if strings.Contains(errOut, "cache hit") {
		t.Errorf("stale listing served after the prelude changed: %q", errOut)
	}
}

func TestCacheWithMissingPrelude(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.ConfigFileName)
	if err := os.WriteFile(cfgPath, []byte("prelude: [gone.yaml]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, errOut := runCLI(t, "-config", cfgPath, "-cache", filepath.Join(dir, "cache.db"), "-e", "1")
	if code != 1 || !strings.Contains(errOut, "[C001]") {
		t.Errorf("exit %d, stderr %q", code, errOut)
	}
}

func TestTrace(t *testing.T) {
	code, _, errOut := runCLI(t, "-trace", "-e", "def f(x) => x")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	for _, want := range []string{"lavc: registry:", "lavc: declared prefix main:f/1", "lavc: compiled main[0]"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("trace missing %q:\n%s", want, errOut)
		}
	}
}
