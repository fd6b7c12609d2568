package symbols

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestQualifiedNames(t *testing.T) {
	tests := []struct {
		scope, simple, want string
	}{
		{"main", "f", "main:f"},
		{"lv", "::", "lv:##"},
		{"main:f", "g", "main:f:g"},
	}
	for _, tt := range tests {
		if got := QualifiedName(tt.scope, tt.simple); got != tt.want {
			t.Errorf("QualifiedName(%q, %q) = %q, want %q", tt.scope, tt.simple, got, tt.want)
		}
	}
	if got := NormalizeQualified("lv:::"); got != "lv:##" {
		t.Errorf("NormalizeQualified = %q", got)
	}
	if got := NormalizeQualified("plain"); got != "plain" {
		t.Errorf("NormalizeQualified = %q", got)
	}
}

func TestOperatorNames(t *testing.T) {
	op := &Operator{Name: "main:f:g"}
	if op.SimpleName() != "g" || op.SimpleNameStart() != 7 || op.ChildScope() != "main:f:g" {
		t.Errorf("simple %q at %d, child scope %q", op.SimpleName(), op.SimpleNameStart(), op.ChildScope())
	}
	root := NewRoot("main")
	if root.SimpleName() != "" || root.ChildScope() != "main" {
		t.Errorf("root simple %q, child scope %q", root.SimpleName(), root.ChildScope())
	}
}

func TestParamIndexIgnoresExtraParams(t *testing.T) {
	op := &Operator{Arity: 1, Locals: 1, Params: []Param{{Name: "a"}, {Name: "t"}, {Name: "stale"}}}
	if i, ok := op.ParamIndex("t"); !ok || i != 1 {
		t.Errorf("t at %d, %v", i, ok)
	}
	if _, ok := op.ParamIndex("stale"); ok {
		t.Error("slot past the frame was found")
	}
}

func TestRegistryNamespacesAreSeparate(t *testing.T) {
	r := NewRegistry()
	prefix := &Operator{Name: "lv:-", Namespace: NamespacePrefix, Arity: 1}
	infix := &Operator{Name: "lv:-", Namespace: NamespaceInfix, Arity: 2, Fixing: FixLeftInfix}
	for _, op := range []*Operator{prefix, infix} {
		if err := r.Add(op); err != nil {
			t.Fatal(err)
		}
	}
	if r.Lookup("lv:-", NamespacePrefix) != prefix || r.LookupScoped("lv", "-", NamespaceInfix) != infix {
		t.Error("lookup returned the wrong operator")
	}

	err := r.Add(&Operator{Name: "lv:-", Namespace: NamespaceInfix})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestPreludeScopeSearchedLast(t *testing.T) {
	r := NewRegistry()
	r.Use("lv")
	r.Use("mylib")
	r.Use("lv")
	r.Use("other")
	if diff := cmp.Diff([]string{"mylib", "other", "lv"}, r.UsingScopes()); diff != "" {
		t.Errorf("using (-want +got):\n%s", diff)
	}
}

func TestRegistryUseAndImport(t *testing.T) {
	r := NewRegistry()
	r.Use("a")
	r.Use("b")
	r.Use("a")
	if diff := cmp.Diff([]string{"a", "b"}, r.UsingScopes()); diff != "" {
		t.Errorf("using (-want +got):\n%s", diff)
	}

	if err := r.Import("math:sqrt"); err != nil {
		t.Fatal(err)
	}
	if err := r.Import("math:sqrt"); err != nil {
		t.Errorf("re-importing the same name: %v", err)
	}
	if q, ok := r.QualNameFor("sqrt"); !ok || q != "math:sqrt" {
		t.Errorf("QualNameFor = %q, %v", q, ok)
	}
	if err := r.Import("other:sqrt"); err == nil {
		t.Error("conflicting import accepted")
	}
	if err := r.Import("lv:::"); err != nil {
		t.Fatal(err)
	}
	if q, _ := r.QualNameFor("##"); q != "lv:##" {
		t.Errorf("QualNameFor(##) = %q", q)
	}
	for _, bad := range []string{"sqrt", ":sqrt", "math:"} {
		if err := r.Import(bad); err == nil {
			t.Errorf("Import(%q) accepted", bad)
		}
	}
}

func TestNextAnonymousName(t *testing.T) {
	r := NewRegistry()
	a, b := r.NextAnonymousName(), r.NextAnonymousName()
	if a == b || !strings.HasPrefix(a, "lambda$") {
		t.Errorf("names %q, %q", a, b)
	}
}

func TestOperatorsSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"m:c", "m:a", "m:b"} {
		if err := r.Add(&Operator{Name: name}); err != nil {
			t.Fatal(err)
		}
	}
	var got []string
	for _, op := range r.Operators(NamespacePrefix) {
		got = append(got, op.Name)
	}
	if diff := cmp.Diff([]string{"m:a", "m:b", "m:c"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
