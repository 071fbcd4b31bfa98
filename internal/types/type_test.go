package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropsPreserveInsertionOrder(t *testing.T) {
	p := NewProps()
	p.Set("z", Int64)
	p.Set("a", String)
	p.Set("m", Bool)

	assert.Equal(t, []string{"z", "a", "m"}, p.Names())
	assert.Equal(t, 0, p.Index("z"))
	assert.Equal(t, 2, p.Index("m"))
	assert.Equal(t, -1, p.Index("missing"))
}

func TestSolidifyNamesAndProperties(t *testing.T) {
	box := NewNominal("Box", false)
	box.Generics["T"] = 0
	box.Properties.Set("value", NewGenericStandin("T"))
	box.Properties.Set("count", Int64)

	solid := box.Solidify([]*Type{String})
	assert.Equal(t, "Box<string>", solid.Typename)
	assert.Same(t, box, solid.OriginalType)

	v, ok := solid.Properties.Get("value")
	require.True(t, ok)
	assert.Same(t, String, v)
	c, ok := solid.Properties.Get("count")
	require.True(t, ok)
	assert.Same(t, Int64, c)
}

func TestSolidifyIsIdempotent(t *testing.T) {
	box := NewNominal("Pair", false)
	box.Generics["K"] = 0
	box.Generics["V"] = 1
	box.Properties.Set("key", NewGenericStandin("K"))
	box.Properties.Set("val", NewGenericStandin("V"))

	first := box.Solidify([]*Type{String, Int64})
	second := box.Solidify([]*Type{String, Int64})
	assert.Same(t, first, second, "repeat solidification must return the interned instance")

	other := box.Solidify([]*Type{Int64, String})
	assert.NotSame(t, first, other, "different replacements must intern separately")
}

func TestArrayOfInterns(t *testing.T) {
	a := ArrayOf(Int64)
	b := ArrayOf(Int64)
	assert.Same(t, a, b)
	assert.Equal(t, "Array<int64>", a.Typename)
	elem, ok := a.Properties.Get("__elem")
	require.True(t, ok)
	assert.Same(t, Int64, elem)
}

func TestCastable(t *testing.T) {
	cases := []struct {
		name string
		from *Type
		to   *Type
		want bool
	}{
		{"int to int", Int64, Int8, true},
		{"float to float", Float32, Float64, true},
		{"float receiver, int other", Float64, Int64, true},
		{"int receiver, float other", Int64, Float64, false},
		{"string to string", String, String, false},
		{"bool to int", Bool, Int64, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.Castable(tc.to))
		})
	}
}

func TestUnionContains(t *testing.T) {
	u := Union([]*Type{Int64, String})
	assert.Equal(t, "int64|string", u.Typename)
	assert.True(t, u.Contains("int64"))
	assert.True(t, u.Contains("string"))
	assert.False(t, u.Contains("bool"))
}

func TestZeroValue(t *testing.T) {
	assert.Equal(t, int64(0), ZeroValue(Int32))
	assert.Equal(t, float64(0), ZeroValue(Float64))
	assert.Equal(t, false, ZeroValue(Bool))
	assert.Equal(t, "", ZeroValue(String))
	assert.Equal(t, []interface{}{}, ZeroValue(NewNominal("User", false)))
}
