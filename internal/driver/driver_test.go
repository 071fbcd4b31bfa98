package driver

import (
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunholo/amc/internal/errors"
	"github.com/sunholo/amc/internal/stdlib"
	"github.com/sunholo/amc/testutil"
)

// run compiles an in-memory root source file end to end and returns its
// AMM text.
func run(t *testing.T, source string) string {
	t.Helper()
	out, err := tryRun(t, source)
	require.NoError(t, err)
	return out
}

func tryRun(t *testing.T, source string) (string, error) {
	t.Helper()
	require.NoError(t, stdlib.Prepare())
	dir := t.TempDir()
	file := testutil.WriteSource(t, dir, "main.amm", source)
	return New().Run(file)
}

func TestEmptyHandler(t *testing.T) {
	out := run(t, "on start fn () {\n}\n")
	testutil.CompareWithGolden(t, "empty_handler", out)
	require.NotContains(t, out, "const ")
}

func TestIntegerLiteralDedupAcrossHandlers(t *testing.T) {
	out := run(t, `
event tick: int64

on start fn () {
  const x: int64 = 3
  emit tick x
}

on tick fn (n: int64) {
  const y: int64 = 3
}
`)
	require.Equal(t, 1, strings.Count(out, ": int64 = 3"), "one hoisted constant for both handlers:\n%s", out)

	// Both handlers reference the surviving name.
	hoisted := regexp.MustCompile(`const (_[0-9a-f]{32}): int64 = 3`).FindStringSubmatch(out)
	require.NotNil(t, hoisted, "missing hoisted constant in:\n%s", out)
	require.Contains(t, out, "emit tick "+hoisted[1])
}

func TestConditionalReturnHandler(t *testing.T) {
	out := run(t, `
event foo: int64

fn f(x: int64): int64 {
  if (x > 0) {
    return 1
  }
  return -1
}

on start fn () {
  emit foo f(5)
}
`)
	require.NotContains(t, out, "event foo: int64", "foo has no handler, so it gets no event line")
	require.Equal(t, 2, strings.Count(out, "cond("), "one cond per branch plus the retNotSet guard:\n%s", out)
	require.Equal(t, 2, strings.Count(out, "let _"), "retVal and retNotSet let-bindings:\n%s", out)
	require.Contains(t, out, "let _")
	require.Contains(t, out, ": bool = assign(")
	require.Contains(t, out, ": int64 = assign(")
	require.Contains(t, out, "emit foo _")
}

func TestArrayLiteralEmission(t *testing.T) {
	out := run(t, `
on start fn () {
  const xs: Array<int64> = [10, 20, 30]
}
`)
	require.Equal(t, 1, strings.Count(out, "newarr("), out)
	require.Equal(t, 3, strings.Count(out, "pusharr("), out)
	idxNew := strings.Index(out, "newarr(")
	idxPush := strings.Index(out, "pusharr(")
	require.Less(t, idxNew, idxPush, "newarr precedes every pusharr")
}

func TestOperatorPrecedenceEmission(t *testing.T) {
	out := run(t, `
on start fn () {
  const r: int64 = 1 + 2 * 3
}
`)
	mulAt := strings.Index(out, "*(")
	addAt := strings.Index(out, "+(")
	require.GreaterOrEqual(t, mulAt, 0, out)
	require.GreaterOrEqual(t, addAt, 0, out)
	require.Less(t, mulAt, addAt, "the higher-precedence * call is emitted first:\n%s", out)
}

func TestInterfaceImportBindsMatchingTypeAndFunction(t *testing.T) {
	require.NoError(t, stdlib.Prepare())
	dir := t.TempDir()
	testutil.WriteSource(t, dir, "shapes.amm", `
module shapes

type Square {
  side: int64,
}

interface Measurable {
  fn area(Measurable): int64
}

fn area(s: Square): int64 {
  return s.side * s.side
}

export Measurable
export Square
export area
`)
	file := testutil.WriteSource(t, dir, "main.amm", `
from "./shapes" import Measurable

event sized: int64

on start fn () {
  const sq: Square = Square{ side: 4 }
  emit sized area(sq)
}
`)
	out, err := New().Run(file)
	require.NoError(t, err)
	require.NotContains(t, out, "event sized: int64", "sized has no handler, so it gets no event line")
	require.Contains(t, out, "emit sized")
}

func TestStdlibImport(t *testing.T) {
	out := run(t, `
import "@std/list"

event both: int64

on start fn () {
  const xs: Array<int64> = list.pair(1, 2)
  emit both list.first(xs)
}
`)
	require.Contains(t, out, "emit both")
	require.Contains(t, out, "newarr(")
}

func TestEmitTypeMismatchIsFatal(t *testing.T) {
	_, err := tryRun(t, `
event foo: int64

on start fn () {
  emit foo "nope"
}
`)
	require.Error(t, err)
	diag, ok := err.(*errors.Diagnostic)
	require.True(t, ok)
	require.Equal(t, errors.TYP003, diag.Code)
}

func TestHandlerArityMismatchIsFatal(t *testing.T) {
	_, err := tryRun(t, `
event foo: int64

on foo fn (a: int64, b: int64) {
}
`)
	require.Error(t, err)
	diag, ok := err.(*errors.Diagnostic)
	require.True(t, ok)
	require.Equal(t, errors.MOD003, diag.Code)
}

func TestMissingRootFile(t *testing.T) {
	require.NoError(t, stdlib.Prepare())
	_, err := New().Run(filepath.Join(t.TempDir(), "absent.amm"))
	require.Error(t, err)
	diag, ok := err.(*errors.Diagnostic)
	require.True(t, ok)
	require.Equal(t, errors.DRV002, diag.Code)
}

// TestHandlerOutputsAreStructural asserts the §8 invariants on a nontrivial
// program's serialized form: no structural node names leak, and no two
// constant lines share a name.
func TestHandlerOutputsAreStructural(t *testing.T) {
	out := run(t, `
event foo: int64

fn pick(x: int64): int64 {
  if (x > 10) {
    return x
  }
  return 10
}

on start fn () {
  const a: int64 = pick(99)
  emit foo a
}
`)
	names := regexp.MustCompile(`const (_[0-9a-f]{32})`).FindAllStringSubmatch(out, -1)
	seen := make(map[string]bool)
	for _, m := range names {
		require.False(t, seen[m[1]], "duplicate constant name %s in:\n%s", m[1], out)
		seen[m[1]] = true
	}
}
