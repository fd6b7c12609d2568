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

// TestFunctional compiles every source file in testdata that has a .want
// file and compares the printed listing with it.
func TestFunctional(t *testing.T) {
	var testFiles []string
	err := filepath.Walk("testdata", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !config.HasSourceExt(path) {
			return nil
		}
		wantFile := config.TrimSourceExt(path) + ".want"
		if _, err := os.Stat(wantFile); err == nil {
			testFiles = append(testFiles, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk directory: %v", err)
	}
	if len(testFiles) == 0 {
		t.Skip("No test files with .want found")
	}

	for _, testFile := range testFiles {
		testFile := testFile
		testName := config.TrimSourceExt(filepath.Base(testFile))
		t.Run(testName, func(t *testing.T) {
			wantBytes, err := os.ReadFile(config.TrimSourceExt(testFile) + ".want")
			if err != nil {
				t.Fatalf("Failed to read .want file: %v", err)
			}

			var stdout, stderr bytes.Buffer
			code := run([]string{testFile}, &stdout, &stderr)
			if code != 0 {
				t.Fatalf("exit %d\n%s", code, stderr.String())
			}
			want := strings.TrimSpace(string(wantBytes))
			got := strings.TrimSpace(stdout.String())
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("%s output mismatch (-want +got):\n%s", testFile, diff)
			}
		})
	}
}
