package vm

import (
	"github.com/Elipzer/clavender/internal/config"
	"github.com/Elipzer/clavender/internal/diagnostics"
	"github.com/Elipzer/clavender/internal/symbols"
	"github.com/Elipzer/clavender/internal/token"
)

// scopeLadder lists the scopes visible from the enclosing function,
// outermost first. For main:f:g it is main, main:f, main:f:g.
func (cx *exprContext) scopeLadder() []string {
	name := cx.decl.Name
	var scopes []string
	for i := 0; i < cx.startOfName; i++ {
		if name[i] == config.NamespaceSeparator {
			scopes = append(scopes, name[:i])
		}
	}
	if cx.startOfName < len(name) {
		scopes = append(scopes, name)
	}
	return scopes
}

// resolve finds the operator a simple name refers to: the innermost scope
// on the ladder, then an imported name, then the using scopes in order.
func (cx *exprContext) resolve(tok token.Token, name string, ns symbols.Namespace) (*symbols.Operator, error) {
	reg := cx.c.registry
	simple := symbols.EscapeSimpleName(name)

	scopes := cx.scopeLadder()
	for i := len(scopes) - 1; i >= 0; i-- {
		if op := reg.LookupScoped(scopes[i], simple, ns); op != nil {
			return op, nil
		}
	}
	if qual, ok := reg.QualNameFor(simple); ok {
		if op := reg.Lookup(qual, ns); op != nil {
			return op, nil
		}
	}
	for _, scope := range reg.UsingScopes() {
		if op := reg.LookupScoped(scope, simple, ns); op != nil {
			return op, nil
		}
	}
	return nil, diagnostics.NewError(diagnostics.ErrNameNotFound, tok, name+" ("+ns.String()+")")
}

// resolveQualified looks up ns:name directly. Separators after the first
// belong to the simple name.
func (cx *exprContext) resolveQualified(tok token.Token, name string, ns symbols.Namespace) (*symbols.Operator, error) {
	qual := symbols.NormalizeQualified(name)
	if op := cx.c.registry.Lookup(qual, ns); op != nil {
		return op, nil
	}
	return nil, diagnostics.NewError(diagnostics.ErrNameNotFound, tok, name+" ("+ns.String()+")")
}
