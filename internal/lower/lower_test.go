package lower

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/opcode"
	"github.com/sunholo/amc/internal/scope"
)

// lowerStmts lowers a hand-built statement list against a fresh scope
// chained to the opcode scope, failing the test on any lowering error.
func lowerStmts(t *testing.T, stmts []ast.Stmt) []*Microstatement {
	t.Helper()
	ctx := NewCtx()
	sc := scope.New(opcode.Scope())
	var out []*Microstatement
	for _, s := range stmts {
		require.NoError(t, LowerStmt(ctx, sc, &out, s))
	}
	return out
}

func intLit(n int64) *ast.Literal {
	return &ast.Literal{Kind: ast.IntLit, Value: n}
}

var synthName = regexp.MustCompile(`^_[0-9a-f]{32}$`)

// checkResolvable walks list linearly and asserts that every reference
// input of every call-like microstatement resolves, by backward scan, to
// an earlier OutputName or Alias (closure bodies contribute their names
// once the closure itself has appeared).
func checkResolvable(t *testing.T, list []*Microstatement) {
	t.Helper()
	defined := make(map[string]bool)
	checkResolvableInto(t, list, defined)
}

func checkResolvableInto(t *testing.T, list []*Microstatement, defined map[string]bool) {
	t.Helper()
	for _, ms := range list {
		// ENTERFN carries the inlined function's name as a label, not a
		// reference; literal-carrying declarations hold their token in
		// InputNames[0] rather than a prior output name.
		label := ms.StatementType == ENTERFN || ms.StatementType == ENTERCONDFN
		literalCarrier := (ms.StatementType == CONSTDEC || ms.StatementType == LETDEC || ms.StatementType == ASSIGNMENT) && len(ms.Fns) == 0
		if !label && !literalCarrier {
			for _, in := range ms.InputNames {
				if in == "void" {
					continue
				}
				if !defined[in] && in != ms.OutputName {
					t.Errorf("input %q of %s microstatement %q does not resolve backward", in, ms.StatementType, ms.OutputName)
				}
			}
		}
		if len(ms.ClosureStatements) > 0 {
			checkResolvableInto(t, ms.ClosureStatements, defined)
		}
		defined[ms.OutputName] = true
		if ms.Alias != "" {
			defined[ms.Alias] = true
		}
	}
}

func TestSyntheticNamesAreUniqueAndWellFormed(t *testing.T) {
	gen := &NameGen{}
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		name := gen.Next()
		require.Regexp(t, synthName, name)
		require.False(t, seen[name], "duplicate synthetic name %q", name)
		seen[name] = true
	}
}

func TestConstLiteralLowersToSingleConstdec(t *testing.T) {
	out := lowerStmts(t, []ast.Stmt{
		&ast.ConstStmt{Name: "x", Type: &ast.NamedType{Name: "int64"}, Value: intLit(3)},
	})
	require.Len(t, out, 1)
	ms := out[0]
	require.Equal(t, CONSTDEC, ms.StatementType)
	require.Equal(t, "x", ms.Alias)
	require.Equal(t, "int64", ms.OutputType.Typename)
	require.Equal(t, []string{"3"}, ms.InputNames)
	require.Empty(t, ms.Fns)
	require.Regexp(t, synthName, ms.OutputName)
}

func TestAssignToConstIsFatal(t *testing.T) {
	ctx := NewCtx()
	sc := scope.New(opcode.Scope())
	var out []*Microstatement
	require.NoError(t, LowerStmt(ctx, sc, &out, &ast.ConstStmt{Name: "x", Value: intLit(1)}))

	err := LowerStmt(ctx, sc, &out, &ast.AssignStmt{
		Target: &ast.Identifier{Name: "x"},
		Value:  intLit(2),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot assign to const")
}

func TestLetReassignmentKeepsBindingName(t *testing.T) {
	ctx := NewCtx()
	sc := scope.New(opcode.Scope())
	var out []*Microstatement
	require.NoError(t, LowerStmt(ctx, sc, &out, &ast.LetStmt{Name: "x", Value: intLit(1)}))
	letName := out[len(out)-1].OutputName

	require.NoError(t, LowerStmt(ctx, sc, &out, &ast.AssignStmt{
		Target: &ast.Identifier{Name: "x"},
		Value:  intLit(2),
	}))
	last := out[len(out)-1]
	require.Equal(t, ASSIGNMENT, last.StatementType)
	require.Equal(t, letName, last.OutputName, "the assignment takes over the let binding's output name")
	checkResolvable(t, out)
}

func TestArrayLiteralProtocol(t *testing.T) {
	out := lowerStmts(t, []ast.Stmt{
		&ast.ConstStmt{Name: "xs", Value: &ast.ArrayLiteral{Elements: []ast.Expr{intLit(10), intLit(20), intLit(30)}}},
	})

	var newarrs, pusharrs []*Microstatement
	for _, ms := range out {
		if len(ms.Fns) == 0 {
			continue
		}
		switch ms.Fns[0].Opcode {
		case "newarr":
			newarrs = append(newarrs, ms)
		case "pusharr":
			pusharrs = append(pusharrs, ms)
		}
	}
	require.Len(t, newarrs, 1)
	require.Len(t, pusharrs, 3)
	require.Equal(t, "Array<int64>", newarrs[0].OutputType.Typename)

	byName := make(map[string]*Microstatement)
	for _, ms := range out {
		byName[ms.OutputName] = ms
	}
	// Elements land in declaration order, each stored with scalar size 8.
	wantValues := []string{"10", "20", "30"}
	for i, push := range pusharrs {
		require.Equal(t, newarrs[0].OutputName, push.InputNames[0])
		elem := byName[push.InputNames[1]]
		require.NotNil(t, elem)
		require.Equal(t, []string{wantValues[i]}, elem.InputNames)
		size := byName[push.InputNames[2]]
		require.NotNil(t, size)
		require.Equal(t, []string{"8"}, size.InputNames)
	}

	// A REREF closes the literal and the binding carries the solidified type.
	tail := out[len(out)-1]
	require.Equal(t, REREF, tail.StatementType)
	require.Equal(t, "xs", tail.Alias)
	require.Equal(t, "Array<int64>", tail.OutputType.Typename)
	checkResolvable(t, out)
}

func TestOperatorPrecedence(t *testing.T) {
	// 1 + 2 * 3: the higher-precedence * resolves first, then + consumes
	// its result. The + call is absorbed into the const binding (a CONSTDEC
	// that keeps its Fns), so both applications are found by their Fns.
	out := lowerStmts(t, []ast.Stmt{
		&ast.ConstStmt{Name: "r", Value: &ast.OperatorExpr{
			Operands: []ast.Expr{intLit(1), intLit(2), intLit(3)},
			Ops:      []string{"+", "*"},
		}},
	})

	var calls []*Microstatement
	for _, ms := range out {
		if len(ms.Fns) > 0 {
			calls = append(calls, ms)
		}
	}
	require.Len(t, calls, 2)
	require.Equal(t, "*", calls[0].Fns[0].Opcode)
	require.Equal(t, "+", calls[1].Fns[0].Opcode)
	require.Equal(t, calls[0].OutputName, calls[1].InputNames[1], "the + call consumes the * result")
	require.Equal(t, "int64", calls[1].OutputType.Typename)
	checkResolvable(t, out)
}

func TestComparisonYieldsBool(t *testing.T) {
	out := lowerStmts(t, []ast.Stmt{
		&ast.ConstStmt{Name: "r", Value: &ast.OperatorExpr{
			Operands: []ast.Expr{intLit(1), intLit(2)},
			Ops:      []string{"<"},
		}},
	})
	tail := out[len(out)-1]
	require.Equal(t, "bool", tail.OutputType.Typename)
}

func TestUnresolvableOperatorIsFatal(t *testing.T) {
	ctx := NewCtx()
	sc := scope.New(opcode.Scope())
	var out []*Microstatement
	err := LowerStmt(ctx, sc, &out, &ast.ConstStmt{Name: "r", Value: &ast.OperatorExpr{
		Operands: []ast.Expr{intLit(1), intLit(2)},
		Ops:      []string{"**"},
	}})
	require.Error(t, err)
}

func TestTypeofEmitsSolidifiedTypeName(t *testing.T) {
	out := lowerStmts(t, []ast.Stmt{
		&ast.ConstStmt{Name: "n", Value: &ast.TypeOfExpr{
			Expr: &ast.ArrayLiteral{Elements: []ast.Expr{intLit(1)}},
		}},
	})
	var found bool
	for _, ms := range out {
		if ms.StatementType == CONSTDEC && len(ms.InputNames) == 1 && ms.InputNames[0] == `"Array<int64>"` {
			found = true
		}
	}
	require.True(t, found, "typeof should lower to a string constant of the solidified name")
}

func TestIndexAccessRequiresInt64(t *testing.T) {
	ctx := NewCtx()
	sc := scope.New(opcode.Scope())
	var out []*Microstatement
	require.NoError(t, LowerStmt(ctx, sc, &out, &ast.ConstStmt{
		Name:  "xs",
		Value: &ast.ArrayLiteral{Elements: []ast.Expr{intLit(1)}},
	}))
	err := LowerStmt(ctx, sc, &out, &ast.ConstStmt{
		Name: "y",
		Value: &ast.IndexAccess{
			Base:  &ast.Identifier{Name: "xs"},
			Index: &ast.Literal{Kind: ast.StringLit, Value: "zero"},
		},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "array index must be int64")
}

func TestEmitUndefinedEventIsFatal(t *testing.T) {
	ctx := NewCtx()
	sc := scope.New(opcode.Scope())
	var out []*Microstatement
	err := LowerStmt(ctx, sc, &out, &ast.EmitStmt{Event: "nosuch", Value: intLit(1)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined event")
}
