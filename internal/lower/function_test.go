package lower

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/opcode"
	"github.com/sunholo/amc/internal/scope"
	"github.com/sunholo/amc/internal/types"
)

func TestDispatchFnExactMatch(t *testing.T) {
	intOverload := &UserFunction{Name: "show", Args: []Arg{{Name: "n", Type: types.Int64}}}
	strOverload := &UserFunction{Name: "show", Args: []Arg{{Name: "s", Type: types.String}}}
	set := FuncSet{intOverload, strOverload}
	sc := scope.New(opcode.Scope())

	got, err := dispatchFn(set, []*types.Type{types.String}, sc)
	require.NoError(t, err)
	require.Same(t, strOverload, got)

	got, err = dispatchFn(set, []*types.Type{types.Int64}, sc)
	require.NoError(t, err)
	require.Same(t, intOverload, got)
}

func TestDispatchFnFirstMatchWins(t *testing.T) {
	first := &UserFunction{Name: "f", Args: []Arg{{Name: "n", Type: types.Int64}}}
	second := &UserFunction{Name: "f", Args: []Arg{{Name: "n", Type: types.Int64}}}
	got, err := dispatchFn(FuncSet{first, second}, []*types.Type{types.Int64}, scope.New(nil))
	require.NoError(t, err)
	require.Same(t, first, got, "forward scan order decides between equal overloads")
}

func TestDispatchFnGenericStandinMatchesAnything(t *testing.T) {
	generic := &UserFunction{Name: "id", Args: []Arg{{Name: "x", Type: types.NewGenericStandin("T")}}}
	got, err := dispatchFn(FuncSet{generic}, []*types.Type{types.String}, scope.New(nil))
	require.NoError(t, err)
	require.Same(t, generic, got)
}

func TestDispatchFnUnionContainment(t *testing.T) {
	u := types.Union([]*types.Type{types.Int64, types.String})
	fn := &UserFunction{Name: "f", Args: []Arg{{Name: "x", Type: u}}}
	set := FuncSet{fn}

	_, err := dispatchFn(set, []*types.Type{types.String}, scope.New(nil))
	require.NoError(t, err)

	_, err = dispatchFn(set, []*types.Type{types.Bool}, scope.New(nil))
	require.Error(t, err)
}

func TestDispatchFnInterfaceSatisfaction(t *testing.T) {
	iface := types.NewInterface("HasName")
	iface.RequiredProperties.Set("name", types.String)
	ifaceType := types.NewNominal("HasName", false)
	ifaceType.Iface = iface

	fn := &UserFunction{Name: "greet", Args: []Arg{{Name: "who", Type: ifaceType}}}

	user := types.NewNominal("User", false)
	user.Properties.Set("name", types.String)

	point := types.NewNominal("Point", false)
	point.Properties.Set("x", types.Int64)

	sc := scope.New(nil)
	_, err := dispatchFn(FuncSet{fn}, []*types.Type{user}, sc)
	require.NoError(t, err)
	_, err = dispatchFn(FuncSet{fn}, []*types.Type{point}, sc)
	require.Error(t, err)
}

func TestDispatchFnArityMismatch(t *testing.T) {
	fn := &UserFunction{Name: "f", Args: []Arg{{Name: "a", Type: types.Int64}, {Name: "b", Type: types.Int64}}}
	_, err := dispatchFn(FuncSet{fn}, []*types.Type{types.Int64}, scope.New(nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no overload")
}

func TestInlineCallSplicesBodyAndRebindsParams(t *testing.T) {
	ctx := NewCtx()
	sc := scope.New(opcode.Scope())

	// fn double(n: int64): int64 { return n + n }
	double := &UserFunction{
		Name:         "double",
		Args:         []Arg{{Name: "n", Type: types.Int64}},
		ReturnType:   types.Int64,
		ClosureScope: scope.New(opcode.Scope()),
		Body: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.OperatorExpr{
				Operands: []ast.Expr{&ast.Identifier{Name: "n"}, &ast.Identifier{Name: "n"}},
				Ops:      []string{"+"},
			}},
		},
	}
	sc.Put("double", FuncSet{double})

	var out []*Microstatement
	result, err := LowerExpr(ctx, sc, &out, &ast.CallExpr{
		Callee: &ast.Identifier{Name: "double"},
		Args:   []ast.Expr{intLit(21)},
	})
	require.NoError(t, err)
	require.Equal(t, TAIL, result.StatementType)
	require.Equal(t, "int64", result.OutputType.Typename)

	// The parameter binds through a REREF of the caller's argument, and
	// the body's + call lands flat in the caller's list.
	var reref, plus *Microstatement
	for _, ms := range out {
		switch {
		case ms.StatementType == REREF && ms.Alias == "n":
			reref = ms
		case ms.StatementType == CALL && len(ms.Fns) > 0 && ms.Fns[0].Opcode == "+":
			plus = ms
		}
	}
	require.NotNil(t, reref)
	require.NotNil(t, plus)
	require.Equal(t, out[0].OutputName, reref.InputNames[0], "REREF aliases the lowered argument")
	checkResolvable(t, out)
}

func TestFromASTResolvesSignature(t *testing.T) {
	decl := &ast.FuncDecl{
		Name: "add",
		Args: []ast.FuncArg{
			{Name: "a", Type: &ast.NamedType{Name: "int64"}},
			{Name: "b", Type: &ast.NamedType{Name: "int64"}},
		},
		ReturnType: &ast.NamedType{Name: "int64"},
		Body:       []ast.Stmt{},
	}
	fn, err := FromAST(decl, scope.New(opcode.Scope()))
	require.NoError(t, err)
	require.Equal(t, "add", fn.Name)
	require.Len(t, fn.Args, 2)
	require.Same(t, types.Int64, fn.Args[0].Type)
	require.Same(t, types.Int64, fn.ReturnType)
}

func TestFromASTGenericArgsBecomeStandins(t *testing.T) {
	decl := &ast.FuncDecl{
		Name:     "identity",
		Generics: []string{"T"},
		Args:     []ast.FuncArg{{Name: "x", Type: &ast.NamedType{Name: "T"}}},
		Body:     []ast.Stmt{},
	}
	fn, err := FromAST(decl, scope.New(opcode.Scope()))
	require.NoError(t, err)
	require.True(t, fn.Args[0].Type.IsGenericStandin)
	require.Equal(t, "T", fn.Args[0].Type.Typename)
}

func TestFromASTInfersOneLinerReturn(t *testing.T) {
	decl := &ast.FuncDecl{
		Name: "answer",
		Body: []ast.Stmt{&ast.ReturnStmt{Value: intLit(42)}},
	}
	fn, err := FromAST(decl, scope.New(opcode.Scope()))
	require.NoError(t, err)
	require.Same(t, types.Int64, fn.ReturnType)
}
