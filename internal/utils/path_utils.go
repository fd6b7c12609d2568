package utils

import (
	"path/filepath"

	"github.com/Elipzer/clavender/internal/config"
)

// GetSourceDir returns the directory a config search starts from for path.
// If the path points to a source file, returns the file's directory.
// Anything else is taken to be a directory already.
func GetSourceDir(path string) string {
	if config.HasSourceExt(path) {
		return filepath.Dir(path)
	}
	return path
}
