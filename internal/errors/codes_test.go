package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunholo/amc/internal/ast"
)

func TestGetInfo(t *testing.T) {
	info, ok := GetInfo(TYP001)
	require.True(t, ok)
	assert.Equal(t, "typecheck", info.Phase)
}

func TestDiagnosticError(t *testing.T) {
	d := New(DIS001, ast.Pos{File: "f.amm", Line: 3, Column: 5}, "no overload matches")
	assert.Contains(t, d.Error(), "DIS001")
	assert.Contains(t, d.Error(), "f.amm:3:5")
}

func TestDiagnosticToJSON(t *testing.T) {
	d := NewWithToken(LOW001, ast.Pos{File: "f.amm", Line: 1, Column: 1}, "x", "assignment to constant")
	js, err := d.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, js, "LOW001")
	assert.Contains(t, js, "\"token\": \"x\"")
}
