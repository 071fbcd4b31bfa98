package lower

import (
	"fmt"

	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/errors"
	"github.com/sunholo/amc/internal/scope"
	"github.com/sunholo/amc/internal/types"
)

// Arg is a function parameter: a name paired with its resolved type.
type Arg struct {
	Name string
	Type *types.Type
}

// UserFunction is one overload of a user-declared function: its signature,
// the scope it closes over, and its unlowered body. Overload sets with the
// same name share a FuncSet binding in module/closure scope, mirroring how
// the opcode scope binds multiple Builtin overloads under one name.
//
// A UserFunction never survives lowering as a callable IR node: every call
// site is resolved to a single candidate and its body is inlined directly
// into the caller's microstatement list: no function-call node ever
// appears in the output. The struct exists only during lowering.
type UserFunction struct {
	Name         string
	Generics     []string
	Args         []Arg
	ReturnType   *types.Type
	ClosureScope *scope.Scope
	Body         []ast.Stmt
	Pure         bool
}

// ArgTypes returns the function's parameter types in order.
func (f *UserFunction) ArgTypes() []*types.Type {
	out := make([]*types.Type, len(f.Args))
	for i, a := range f.Args {
		out[i] = a.Type
	}
	return out
}

// FuncSet is an overload set bound to one name in scope. It satisfies
// types.FuncSet so interface structural matching can see through a
// user-declared function the same way it sees through an opcode Builtin.
type FuncSet []*UserFunction

func (fs FuncSet) Candidates() []types.FunctionType {
	out := make([]types.FunctionType, len(fs))
	for i, f := range fs {
		out[i] = types.FunctionType{Name: f.Name, Args: f.ArgTypes(), Return: f.ReturnType}
	}
	return out
}

// FromAST builds a UserFunction from a parsed declaration, resolving its
// argument and return type annotations against declScope (the scope the
// declaration itself sees, not the call site). The function's own generic
// parameters shadow outer type names the same way a type declaration's
// generics do.
func FromAST(decl *ast.FuncDecl, declScope *scope.Scope) (*UserFunction, error) {
	fn := &UserFunction{
		Name:         decl.Name,
		Generics:     decl.Generics,
		ClosureScope: declScope,
		Body:         decl.Body,
		Pure:         decl.Pure,
	}
	for _, a := range decl.Args {
		t, err := resolveArgType(a.Type, declScope, decl.Generics)
		if err != nil {
			return nil, err
		}
		fn.Args = append(fn.Args, Arg{Name: a.Name, Type: t})
	}
	for i, st := range decl.Body {
		if _, ok := st.(*ast.ReturnStmt); ok && i < len(decl.Body)-1 {
			return nil, errors.New(errors.LOW003, decl.Body[i+1].Position(), "unreachable statement after return")
		}
	}
	if decl.ReturnType != nil {
		t, err := resolveArgType(decl.ReturnType, declScope, decl.Generics)
		if err != nil {
			return nil, err
		}
		fn.ReturnType = t
	} else {
		fn.ReturnType = inferOneLinerReturn(decl.Body)
	}
	return fn, nil
}

// inferOneLinerReturn infers the return type of a function declared without
// an annotation from its one-liner tail: a single `return <literal>` yields
// the literal's type, anything else stays void until the statement is
// lowered.
func inferOneLinerReturn(body []ast.Stmt) *types.Type {
	if len(body) != 1 {
		return types.Void
	}
	ret, ok := body[0].(*ast.ReturnStmt)
	if !ok || ret.Value == nil {
		return types.Void
	}
	if lit, ok := ret.Value.(*ast.Literal); ok {
		return literalType(lit.Kind)
	}
	return types.Void
}

func resolveArgType(tn ast.TypeNode, sc *scope.Scope, generics []string) (*types.Type, error) {
	named, ok := tn.(*ast.NamedType)
	if ok && len(named.TypeArgs) == 0 {
		for _, g := range generics {
			if g == named.Name {
				return types.NewGenericStandin(g), nil
			}
		}
	}
	return types.Resolve(tn, sc)
}

// dispatchFn selects the first candidate in the overload set whose
// parameter list matches argTypes elementwise, per the matching rules
// spelled out for UserFunction dispatch: exact typename equality,
// structural interface satisfaction, a generic parameter matching any
// argument, shared-template solidifications, and union containment. The
// first match in declaration order wins; overload sets are never
// reordered, so declaration order is significant and intentional.
func dispatchFn(candidates FuncSet, argTypes []*types.Type, sc *scope.Scope) (*UserFunction, error) {
	for _, cand := range candidates {
		if len(cand.Args) != len(argTypes) {
			continue
		}
		ok := true
		for i, want := range argTypes {
			if !matchArg(cand.Args[i].Type, want, sc) {
				ok = false
				break
			}
		}
		if ok {
			return cand, nil
		}
	}
	return nil, errors.New(errors.DIS001, ast.Pos{}, fmt.Sprintf("no overload of %q matches the supplied argument types", candidateName(candidates)))
}

func candidateName(candidates FuncSet) string {
	if len(candidates) == 0 {
		return "<anonymous>"
	}
	return candidates[0].Name
}

// matchArg is true when have (a candidate's declared parameter type) can
// bind actual (the argument's real type): equal typenames, a structural
// interface requirement satisfied by actual, a generic standin acting as a
// wildcard binder, a shared solidification template with property-wise
// compatibility, or actual being a member of have's union.
func matchArg(have *types.Type, actual *types.Type, sc *scope.Scope) bool {
	if have.Equals(actual) {
		return true
	}
	if have.IsGenericStandin {
		return true
	}
	if have.Iface != nil && have.Iface.TypeApplies(actual, sc) {
		return true
	}
	if len(have.UnionTypes) > 0 && have.Contains(actual.Typename) {
		return true
	}
	if have.OriginalType != nil && actual.OriginalType != nil && have.OriginalType == actual.OriginalType {
		for _, pname := range have.Properties.Names() {
			hp, _ := have.Properties.Get(pname)
			ap, ok := actual.Properties.Get(pname)
			if !ok || !matchArg(hp, ap, sc) {
				return false
			}
		}
		return true
	}
	return false
}
