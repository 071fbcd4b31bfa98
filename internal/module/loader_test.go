package module

import (
	"testing"

	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/errors"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader()

	if loader.cache == nil {
		t.Error("cache should be initialized")
	}
	if loader.resolver == nil {
		t.Error("resolver should be initialized")
	}
}

func TestNormalizeIdentity(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"module.amm", "module"},
		{"path/to/module.amm", "path/to/module"},
		{"path\\to\\module", "path/to/module"},
		{"module", "module"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizeIdentity(tt.input); got != tt.expected {
				t.Errorf("normalizeIdentity(%s) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCycleDetection(t *testing.T) {
	loader := NewLoader()

	// A -> B -> C -> A
	loader.loadStack = []string{"modules/a", "modules/b", "modules/c"}

	err := loader.checkCycle("modules/a")
	if err == nil {
		t.Fatal("expected cycle detection error")
	}
	diag, ok := err.(*errors.Diagnostic)
	if !ok {
		t.Fatalf("expected *errors.Diagnostic, got %T", err)
	}
	if diag.Code != errors.MOD004 {
		t.Errorf("error code = %s, want %s", diag.Code, errors.MOD004)
	}

	if err := loader.checkCycle("modules/d"); err != nil {
		t.Errorf("unexpected error for a non-cyclic identity: %v", err)
	}
}

func TestExtractDependencies(t *testing.T) {
	program := &ast.Program{
		Imports: []*ast.ImportDecl{
			{Path: "@std/list"},
			{Path: "./utils"},
			{Path: "data/tree"},
		},
	}

	deps := extractDependencies(program)
	expected := []string{"@std/list", "./utils", "data/tree"}
	if len(deps) != len(expected) {
		t.Fatalf("dependencies count = %d, want %d", len(deps), len(expected))
	}
	for i, dep := range deps {
		if dep != expected[i] {
			t.Errorf("dependency[%d] = %s, want %s", i, dep, expected[i])
		}
	}
}

func TestLastSegment(t *testing.T) {
	tests := []struct{ path, want string }{
		{"@std/collections/list", "list"},
		{"utils", "utils"},
		{"a/b/c", "c"},
	}
	for _, tt := range tests {
		if got := lastSegment(tt.path); got != tt.want {
			t.Errorf("lastSegment(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestTopologicalSortEmpty(t *testing.T) {
	loader := NewLoader()
	order, err := loader.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 0 {
		t.Errorf("expected an empty order for an empty cache, got %v", order)
	}
}

func TestTopologicalSortOrdersDependenciesFirst(t *testing.T) {
	loader := NewLoader()
	loader.cache["a"] = &Module{Identity: "a", Deps: []string{"b"}}
	loader.cache["b"] = &Module{Identity: "b", Deps: []string{"c"}}
	loader.cache["c"] = &Module{Identity: "c"}

	order, err := loader.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(order))
	}

	index := make(map[string]int, len(order))
	for i, id := range order {
		index[id] = i
	}
	if index["c"] > index["b"] || index["b"] > index["a"] {
		t.Errorf("expected c before b before a, got %v", order)
	}
}

func TestTopologicalSortDetectsCycle(t *testing.T) {
	loader := NewLoader()
	loader.cache["a"] = &Module{Identity: "a", Deps: []string{"b"}}
	loader.cache["b"] = &Module{Identity: "b", Deps: []string{"a"}}

	if _, err := loader.TopologicalSort(); err == nil {
		t.Error("expected a circular dependency error")
	}
}

func TestLoadRootMissingFile(t *testing.T) {
	loader := NewLoader()
	if _, err := loader.LoadRoot("/no/such/file.amm"); err == nil {
		t.Error("expected an error loading a nonexistent root file")
	}
}
