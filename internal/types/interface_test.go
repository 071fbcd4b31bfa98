package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeScope is the minimal Lookup used by interface matching tests.
type fakeScope map[string]interface{}

func (f fakeScope) DeepGet(name string) (interface{}, bool) {
	v, ok := f[name]
	return v, ok
}

// fakeFuncs adapts a signature list to the FuncSet surface.
type fakeFuncs []FunctionType

func (f fakeFuncs) Candidates() []FunctionType { return f }

func TestTypeAppliesRequiredProperties(t *testing.T) {
	iface := NewInterface("HasName")
	iface.RequiredProperties.Set("name", String)

	named := NewNominal("User", false)
	named.Properties.Set("name", String)
	named.Properties.Set("age", Int64)

	unnamed := NewNominal("Point", false)
	unnamed.Properties.Set("x", Int64)

	sc := fakeScope{}
	assert.True(t, iface.TypeApplies(named, sc))
	assert.False(t, iface.TypeApplies(unnamed, sc))
}

func TestTypeAppliesFunctionRequirement(t *testing.T) {
	candidate := NewNominal("Blob", false)

	iface := NewInterface("Sized")
	iface.Funcs = append(iface.Funcs, FunctionType{Name: "len", Args: []*Type{candidate}, Return: Int64})

	withLen := fakeScope{
		"len": fakeFuncs{{Name: "len", Args: []*Type{candidate}, Return: Int64}},
	}
	assert.True(t, iface.TypeApplies(candidate, withLen))

	wrongArity := fakeScope{
		"len": fakeFuncs{{Name: "len", Args: []*Type{candidate, Int64}, Return: Int64}},
	}
	assert.False(t, iface.TypeApplies(candidate, wrongArity))

	assert.False(t, iface.TypeApplies(candidate, fakeScope{}))
}

func TestTypeAppliesSelfReference(t *testing.T) {
	iface := NewInterface("Comparable")
	self := NewNominal("Comparable", false)
	self.Iface = iface
	iface.Funcs = append(iface.Funcs, FunctionType{Name: "compare", Args: []*Type{self, self}, Return: Int64})

	candidate := NewNominal("Version", false)
	sc := fakeScope{
		"compare": fakeFuncs{{Name: "compare", Args: []*Type{candidate, candidate}, Return: Int64}},
	}
	assert.True(t, iface.TypeApplies(candidate, sc), "candidate's own type satisfies a self-referential signature")
}

func TestTypeAppliesOperatorRequirement(t *testing.T) {
	iface := NewInterface("Addable")
	candidate := NewNominal("Money", false)
	iface.Operators = append(iface.Operators, OperatorType{Op: "+", Args: []*Type{candidate, candidate}, Return: candidate})

	op := &Operator{Op: "+", Precedence: 5, Funcs: []FunctionType{{Name: "+", Args: []*Type{candidate, candidate}, Return: candidate}}}
	sc := fakeScope{"operator:+": op}
	assert.True(t, iface.TypeApplies(candidate, sc))
	assert.False(t, iface.TypeApplies(candidate, fakeScope{}))
}

func TestArgMatchesSharedOriginalType(t *testing.T) {
	tmpl := NewNominal("List", false)
	tmpl.Generics["T"] = 0
	tmpl.Properties.Set("__elem", NewGenericStandin("T"))

	ints := tmpl.Solidify([]*Type{Int64})
	strs := tmpl.Solidify([]*Type{String})
	assert.True(t, argMatches(ints, strs, nil), "two solidifications of one template match structurally")
	assert.False(t, argMatches(ints, Int64, nil))
}
