package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/lexer"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(lexer.New(src, "test.amm"), "test.amm")
	prog := p.Parse()
	require.Empty(t, p.Errors(), "unexpected parse errors for:\n%s", src)
	return prog
}

func TestParseTopLevelBinning(t *testing.T) {
	prog := parse(t, `
module app

import "@std/list"
from "./util" import helper as h

type User {
  name: string,
  age: int64,
}

interface Showable {
  fn show(Showable): string
}

const limit: int64 = 10

event clicked: User

fn greet(u: User): string {
  return u.name
}

operator prefix ! 7 negate

export greet

on clicked fn (u: User) {
  emit clicked u
}
`)
	assert.Equal(t, "app", prog.Module.Path)
	assert.Len(t, prog.Imports, 2)
	assert.Len(t, prog.Types, 1)
	assert.Len(t, prog.Interfaces, 1)
	assert.Len(t, prog.Consts, 1)
	assert.Len(t, prog.Events, 1)
	assert.Len(t, prog.Funcs, 1)
	assert.Len(t, prog.Operators, 1)
	assert.Len(t, prog.Exports, 1)
	assert.Len(t, prog.Handlers, 1)
}

func TestParseImportForms(t *testing.T) {
	prog := parse(t, `
import "@std/list" as l
from "./util" import a, b as c
`)
	std := prog.Imports[0]
	assert.False(t, std.IsFrom)
	assert.Equal(t, "@std/list", std.Path)
	assert.Equal(t, "l", std.Alias)
	assert.True(t, std.IsStd())

	from := prog.Imports[1]
	assert.True(t, from.IsFrom)
	assert.Equal(t, []ast.ImportName{{Name: "a", Alias: "a"}, {Name: "b", Alias: "c"}}, from.FromNames)
}

func TestParseOperatorChainStaysFlat(t *testing.T) {
	prog := parse(t, `
fn f(): int64 {
  return 1 + 2 * 3 - 4
}
`)
	ret := prog.Funcs[0].Body[0].(*ast.ReturnStmt)
	op, ok := ret.Value.(*ast.OperatorExpr)
	require.True(t, ok)
	assert.Len(t, op.Operands, 4)
	assert.Equal(t, []string{"+", "*", "-"}, op.Ops, "no precedence grouping at parse time")
}

func TestParseIfElseChain(t *testing.T) {
	prog := parse(t, `
fn f(x: int64): int64 {
  if x > 0 {
    return 1
  } else if x < 0 {
    return -1
  } else {
    return 0
  }
}
`)
	ifStmt := prog.Funcs[0].Body[0].(*ast.IfStmt)
	require.Len(t, ifStmt.Else, 1)
	inner, ok := ifStmt.Else[0].(*ast.IfStmt)
	require.True(t, ok, "else-if nests a single IfStmt")
	require.Len(t, inner.Else, 1)
}

func TestParseParenthesizedCondition(t *testing.T) {
	prog := parse(t, `
fn f(x: int64): int64 {
  if (x > 0) {
    return 1
  }
  return 0
}
`)
	_, ok := prog.Funcs[0].Body[0].(*ast.IfStmt)
	assert.True(t, ok)
}

func TestParseTypeDeclForms(t *testing.T) {
	prog := parse(t, `
type Box<T> {
  value: T,
}
type Id = int64
type Num = int64 | float64
`)
	box := prog.Types[0]
	assert.Equal(t, []string{"T"}, box.Generics)
	require.Len(t, box.Fields, 1)

	alias := prog.Types[1]
	require.NotNil(t, alias.Alias)
	assert.Equal(t, "int64", alias.Alias.(*ast.NamedType).Name)

	union := prog.Types[2]
	assert.Len(t, union.UnionOf, 2)
}

func TestParseGenericTypeReference(t *testing.T) {
	prog := parse(t, `
fn f(m: Map<string, Array<int64>>): void {
}
`)
	arg := prog.Funcs[0].Args[0].Type.(*ast.NamedType)
	assert.Equal(t, "Map", arg.Name)
	require.Len(t, arg.TypeArgs, 2)
	inner := arg.TypeArgs[1].(*ast.NamedType)
	assert.Equal(t, "Array", inner.Name)
}

func TestParseInlineUnionAnnotation(t *testing.T) {
	prog := parse(t, `
fn f(x: int64 | string): void {
}
`)
	u, ok := prog.Funcs[0].Args[0].Type.(*ast.UnionType)
	require.True(t, ok)
	require.Len(t, u.Members, 2)
	assert.Equal(t, "int64", u.Members[0].(*ast.NamedType).Name)
	assert.Equal(t, "string", u.Members[1].(*ast.NamedType).Name)
}

func TestParseObjectAndArrayLiterals(t *testing.T) {
	prog := parse(t, `
fn f(): void {
  const u = User{ name: "ada", age: 36 }
  const xs = [1, 2, 3]
}
`)
	body := prog.Funcs[0].Body
	obj := body[0].(*ast.ConstStmt).Value.(*ast.ObjectLiteral)
	assert.Len(t, obj.Fields, 2)
	arr := body[1].(*ast.ConstStmt).Value.(*ast.ArrayLiteral)
	assert.Len(t, arr.Elements, 3)
}

func TestParseChainedCallsAndIndexing(t *testing.T) {
	prog := parse(t, `
fn f(): void {
  const x = a.b.c(1)[0]
}
`)
	val := prog.Funcs[0].Body[0].(*ast.ConstStmt).Value
	idx, ok := val.(*ast.IndexAccess)
	require.True(t, ok)
	call, ok := idx.Base.(*ast.CallExpr)
	require.True(t, ok)
	fa, ok := call.Callee.(*ast.FieldAccess)
	require.True(t, ok)
	assert.Equal(t, "c", fa.Field)
}

func TestParseErrorOnMalformedTopLevel(t *testing.T) {
	p := New(lexer.New("wat", "test.amm"), "test.amm")
	p.Parse()
	assert.NotEmpty(t, p.Errors())
}
