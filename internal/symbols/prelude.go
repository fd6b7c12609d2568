package symbols

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/Elipzer/clavender/internal/config"
	"gopkg.in/yaml.v3"
)

//go:embed prelude.yaml
var builtinPrelude []byte

// Prelude is the YAML form of a set of builtin operators.
type Prelude struct {
	// Namespace all operators are declared in.
	Namespace string `yaml:"namespace"`

	// Using adds Namespace to the registry's using scopes.
	Using bool `yaml:"using,omitempty"`

	Operators []PreludeOperator `yaml:"operators"`
}

// PreludeOperator declares one builtin operator.
type PreludeOperator struct {
	Name string `yaml:"name"`

	// Fixing is one of p, i, r, u. Defaults to p.
	Fixing string `yaml:"fixing,omitempty"`

	// Params are parameter names; a "=>" prefix marks a by-name param.
	Params []string `yaml:"params"`

	// Varargs collects the last param and any extra arguments into a vector.
	Varargs bool `yaml:"varargs,omitempty"`
}

// LoadBuiltinPrelude installs the embedded builtin operators.
func LoadBuiltinPrelude(r *Registry) error {
	return LoadPrelude(r, builtinPrelude, "<builtin prelude>")
}

// LoadPreludeFile reads a prelude file and installs its operators.
func LoadPreludeFile(r *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading prelude %s: %w", path, err)
	}
	return LoadPrelude(r, data, path)
}

// LoadPrelude parses prelude YAML and installs its operators.
// The path argument is used only for error messages.
func LoadPrelude(r *Registry, data []byte, path string) error {
	var p Prelude
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if p.Namespace == "" {
		return fmt.Errorf("%s: namespace is required", path)
	}
	if strings.ContainsRune(p.Namespace, config.NamespaceSeparator) {
		return fmt.Errorf("%s: namespace %q must be a single segment", path, p.Namespace)
	}
	for i, po := range p.Operators {
		op, err := po.operator(p.Namespace)
		if err != nil {
			return fmt.Errorf("%s: operators[%d]: %w", path, i, err)
		}
		if err := r.Add(op); err != nil {
			return fmt.Errorf("%s: operators[%d]: %w", path, i, err)
		}
	}
	if p.Using {
		r.Use(p.Namespace)
	}
	return nil
}

func (po PreludeOperator) operator(namespace string) (*Operator, error) {
	if po.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	fixing := FixPrefix
	if po.Fixing != "" {
		f, ok := FixingFromTag(po.Fixing[0])
		if !ok || len(po.Fixing) != 1 {
			return nil, fmt.Errorf("%s: unknown fixing %q", po.Name, po.Fixing)
		}
		fixing = f
	}
	params := make([]Param, len(po.Params))
	for i, name := range po.Params {
		byName := strings.HasPrefix(name, config.ByNameMarker)
		name = strings.TrimPrefix(name, config.ByNameMarker)
		if name == "" {
			return nil, fmt.Errorf("%s: params[%d]: empty name", po.Name, i)
		}
		params[i] = Param{Name: name, ByName: byName}
	}
	if po.Varargs && len(params) == 0 {
		return nil, fmt.Errorf("%s: varargs needs at least one param", po.Name)
	}
	if fixing == FixUnary && len(params) != 1 {
		return nil, fmt.Errorf("%s: unary operators take exactly one param", po.Name)
	}
	return &Operator{
		Name:      QualifiedName(namespace, po.Name),
		Namespace: fixing.Namespace(),
		Arity:     len(params),
		Fixing:    fixing,
		Varargs:   po.Varargs,
		Params:    params,
		Builtin:   true,
	}, nil
}
