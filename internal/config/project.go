package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level lavender.yaml configuration.
type Config struct {
	// Namespace is the namespace top-level declarations are placed in.
	// Defaults to RootNamespace.
	Namespace string `yaml:"namespace,omitempty"`

	// Prelude lists extra operator prelude files (YAML, relative to the
	// config file) loaded after the builtin prelude.
	Prelude []string `yaml:"prelude,omitempty"`

	// NoPrelude skips the builtin prelude entirely.
	NoPrelude bool `yaml:"no_prelude,omitempty"`

	// Using lists scopes searched by simple name after the scope ladder,
	// in order. The prelude namespace is always searched last.
	Using []string `yaml:"using,omitempty"`

	// Imports lists fully qualified names (e.g. "math:sqrt") that may be
	// referred to by their simple name.
	Imports []string `yaml:"imports,omitempty"`

	// Cache is the path of the sqlite compile cache. Empty disables caching.
	Cache string `yaml:"cache,omitempty"`

	// dir is the directory containing the config file.
	dir string
}

// Default returns the configuration used when no lavender.yaml is found.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a lavender.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses lavender.yaml content from bytes.
// The path argument is used for error messages and relative paths.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for lavender.yaml starting from dir and walking up
// to parent directories. Returns "" and a nil error when none exists.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if strings.ContainsRune(c.Namespace, NamespaceSeparator) {
		return fmt.Errorf("%s: namespace %q must be a single segment", path, c.Namespace)
	}
	for i, scope := range c.Using {
		if scope == "" {
			return fmt.Errorf("%s: using[%d]: empty scope", path, i)
		}
	}
	seen := make(map[string]string)
	for i, imp := range c.Imports {
		sep := strings.IndexRune(imp, NamespaceSeparator)
		if sep <= 0 || sep == len(imp)-1 {
			return fmt.Errorf("%s: imports[%d]: %q is not a qualified name", path, i, imp)
		}
		simple := imp[sep+1:]
		if prev, ok := seen[simple]; ok {
			return fmt.Errorf("%s: imports[%d]: %q conflicts with %s", path, i, imp, prev)
		}
		seen[simple] = imp
	}
	for i, p := range c.Prelude {
		if p == "" {
			return fmt.Errorf("%s: prelude[%d]: empty path", path, i)
		}
	}
	return nil
}

// setDefaults fills in default values for omitted fields.
func (c *Config) setDefaults() {
	if c.Namespace == "" {
		c.Namespace = RootNamespace
	}
}

// ResolvePath makes p relative to the config file's directory.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}
