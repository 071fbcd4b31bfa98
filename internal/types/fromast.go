package types

import (
	"fmt"

	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/errors"
	"github.com/sunholo/amc/internal/scope"
)

// Resolve looks up a surface type reference in scope, solidifying generics
// as needed. It is the shared entry point used both by FromAST (struct
// field types) and by function/microstatement lowering (argument and
// return type annotations).
func Resolve(tn ast.TypeNode, sc *scope.Scope) (*Type, error) {
	if u, ok := tn.(*ast.UnionType); ok {
		members := make([]*Type, len(u.Members))
		for i, m := range u.Members {
			resolved, err := Resolve(m, sc)
			if err != nil {
				return nil, err
			}
			members[i] = resolved
		}
		return Union(members), nil
	}
	named, ok := tn.(*ast.NamedType)
	if !ok {
		return nil, errors.New(errors.TYP001, tn.Position(), "type reference is not a named type")
	}
	bound, ok := sc.DeepGet(named.Name)
	if !ok {
		return nil, errors.New(errors.TYP001, tn.Position(), fmt.Sprintf("undefined type %q", named.Name))
	}
	base, ok := bound.(*Type)
	if !ok {
		return nil, errors.New(errors.TYP001, tn.Position(), fmt.Sprintf("%q does not name a type", named.Name))
	}
	if len(named.TypeArgs) == 0 {
		return base, nil
	}
	args := make([]*Type, len(named.TypeArgs))
	for i, a := range named.TypeArgs {
		resolved, err := Resolve(a, sc)
		if err != nil {
			return nil, err
		}
		args[i] = resolved
	}
	return base.Solidify(args), nil
}

// FromAST constructs a Type from a parsed type declaration. Generic
// parameters are recorded by positional index; each property
// line resolves its annotated type from scope, substituting a fresh
// generic standin when the annotation names one of the declaration's own
// generic parameters.
func FromAST(decl *ast.TypeDecl, sc *scope.Scope) (*Type, error) {
	t := NewNominal(decl.Name, false)
	for i, g := range decl.Generics {
		t.Generics[g] = i
	}

	if decl.Alias != nil {
		aliasTarget, err := resolveWithGenericStandins(decl.Alias, sc, decl.Generics)
		if err != nil {
			return nil, err
		}
		t.Alias = aliasTarget
		return t, nil
	}

	if len(decl.UnionOf) > 0 {
		members := make([]*Type, len(decl.UnionOf))
		for i, alt := range decl.UnionOf {
			m, err := resolveWithGenericStandins(alt, sc, decl.Generics)
			if err != nil {
				return nil, err
			}
			members[i] = m
		}
		t.UnionTypes = members
		return t, nil
	}

	for _, field := range decl.Fields {
		ft, err := resolveWithGenericStandins(field.Type, sc, decl.Generics)
		if err != nil {
			return nil, err
		}
		t.Properties.Set(field.Name, ft)
	}
	return t, nil
}

// resolveWithGenericStandins resolves tn as Resolve does, except that a
// bare name matching one of generics yields a fresh standin rather than a
// scope lookup.
func resolveWithGenericStandins(tn ast.TypeNode, sc *scope.Scope, generics []string) (*Type, error) {
	named, ok := tn.(*ast.NamedType)
	if !ok {
		return Resolve(tn, sc)
	}
	if len(named.TypeArgs) == 0 {
		for _, g := range generics {
			if g == named.Name {
				return NewGenericStandin(g), nil
			}
		}
	}
	return Resolve(tn, sc)
}
