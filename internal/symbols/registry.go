package symbols

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Elipzer/clavender/internal/config"
)

// ErrDuplicate is returned by Add when the name already exists in the
// operator's namespace.
var ErrDuplicate = errors.New("duplicate declaration")

// Registry maps qualified names to operators, one table per namespace.
// It also tracks imported names and active using scopes. It is not safe for
// concurrent writers.
type Registry struct {
	tables  [2]map[string]*Operator
	using   []string
	prelude bool // PreludeNamespace is a using scope
	imports map[string]string // simple name -> qualified name
	anon    int
}

func NewRegistry() *Registry {
	return &Registry{
		tables:  [2]map[string]*Operator{{}, {}},
		imports: make(map[string]string),
	}
}

// Lookup finds an operator by fully qualified name.
func (r *Registry) Lookup(name string, ns Namespace) *Operator {
	return r.tables[ns][name]
}

// LookupScoped finds scope:simple in ns.
func (r *Registry) LookupScoped(scope, simple string, ns Namespace) *Operator {
	return r.tables[ns][scope+string(config.NamespaceSeparator)+simple]
}

// QualNameFor returns the qualified name imported for simple, if any.
func (r *Registry) QualNameFor(simple string) (string, bool) {
	q, ok := r.imports[simple]
	return q, ok
}

// UsingScopes returns the active using scopes in search order. The
// prelude namespace always comes last so configured scopes can shadow
// builtins.
func (r *Registry) UsingScopes() []string {
	if !r.prelude {
		return r.using
	}
	return append(r.using[:len(r.using):len(r.using)], config.PreludeNamespace)
}

// Add installs op in its namespace.
func (r *Registry) Add(op *Operator) error {
	table := r.tables[op.Namespace]
	if _, exists := table[op.Name]; exists {
		return fmt.Errorf("%s: %w", op.Name, ErrDuplicate)
	}
	table[op.Name] = op
	return nil
}

// Use appends scope to the using list. Adding a scope twice is a no-op.
func (r *Registry) Use(scope string) {
	if scope == config.PreludeNamespace {
		r.prelude = true
		return
	}
	for _, s := range r.using {
		if s == scope {
			return
		}
	}
	r.using = append(r.using, scope)
}

// Import makes the qualified name qual available by its simple name.
func (r *Registry) Import(qual string) error {
	sep := strings.IndexRune(qual, config.NamespaceSeparator)
	if sep <= 0 || sep == len(qual)-1 {
		return fmt.Errorf("import %q: not a qualified name", qual)
	}
	qual = NormalizeQualified(qual)
	simple := qual[sep+1:]
	if prev, ok := r.imports[simple]; ok && prev != qual {
		return fmt.Errorf("import %q: %s already imported as %s", qual, simple, prev)
	}
	r.imports[simple] = qual
	return nil
}

// NextAnonymousName returns a fresh simple name for an unnamed declaration.
func (r *Registry) NextAnonymousName() string {
	r.anon++
	return fmt.Sprintf("%s%d", config.AnonymousPrefix, r.anon)
}

// Operators returns every operator in ns sorted by name.
func (r *Registry) Operators(ns Namespace) []*Operator {
	ops := make([]*Operator, 0, len(r.tables[ns]))
	for _, op := range r.tables[ns] {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops
}
