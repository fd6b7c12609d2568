package config

import "strings"

const SourceFileExt = ".lv"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".lv", ".lavender"}

// Version is reported by `lavc -version`.
var Version = "0.4.0"

// Namespaces
const (
	RootNamespace    = "main" // top-level expressions and declarations
	PreludeNamespace = "lv"   // builtin operators, always a using scope
	ConfigFileName   = "lavender.yaml"
)

// Name separators. A ':' inside a symbolic simple name is rewritten to
// SymbolSeparator so it never reads as a namespace separator.
const (
	NamespaceSeparator = ':'
	SymbolSeparator    = '#'
)

// Keywords and reserved symbols
const (
	DefKeyword      = "def"
	BodyArrow       = "=>"
	ByNameMarker    = "=>"
	AnonymousPrefix = "lambda$"
)

// Fixing tags accepted as a name prefix (i_add, r_**, u_!).
const (
	FixingTagLeft  = 'i'
	FixingTagRight = 'r'
	FixingTagUnary = 'u'
)

// HasSourceExt reports whether path ends in a recognized extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// TrimSourceExt removes a recognized source extension from name.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}
