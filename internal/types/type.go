// Package types implements the core type model of the lowering pass:
// nominal types, structural generics, union types, interfaces (structural
// polymorphism), generic instantiation ("solidification"), and the numeric
// castability predicate.
package types

import (
	"fmt"
	"strings"
)

// Props is an insertion-ordered name->Type mapping. Order defines field
// layout for array/object-literal lowering, so a plain Go
// map cannot be used here.
type Props struct {
	order []string
	byKey map[string]*Type
}

func NewProps() *Props { return &Props{byKey: make(map[string]*Type)} }

func (p *Props) Set(name string, t *Type) {
	if _, exists := p.byKey[name]; !exists {
		p.order = append(p.order, name)
	}
	p.byKey[name] = t
}

func (p *Props) Get(name string) (*Type, bool) {
	t, ok := p.byKey[name]
	return t, ok
}

func (p *Props) Len() int { return len(p.order) }

// Names returns field names in declaration order.
func (p *Props) Names() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Index returns the positional index of name, or -1.
func (p *Props) Index(name string) int {
	for i, n := range p.order {
		if n == name {
			return i
		}
	}
	return -1
}

// Type is a value in the lowering core's type system.
type Type struct {
	Typename         string
	BuiltIn          bool
	IsGenericStandin bool
	Properties       *Props
	Generics         map[string]int // generic parameter name -> positional index
	OriginalType     *Type          // set iff this is a solidified instance
	UnionTypes       []*Type        // nil unless this is a union
	Iface            *Interface     // set iff this type represents an interface
	Alias            *Type          // set iff this is a plain alias
}

// NewNominal creates a bare nominal type with no properties or generics.
func NewNominal(name string, builtIn bool) *Type {
	return &Type{Typename: name, BuiltIn: builtIn, Properties: NewProps(), Generics: map[string]int{}}
}

// NewGenericStandin creates the placeholder type used for a generic
// parameter inside a generic definition's own property types.
func NewGenericStandin(name string) *Type {
	return &Type{Typename: name, IsGenericStandin: true, Properties: NewProps(), Generics: map[string]int{}}
}

// IsSolidified reports whether t was produced by Solidify.
func (t *Type) IsSolidified() bool {
	return t.OriginalType != nil && !t.IsGenericStandin
}

func (t *Type) String() string {
	if t.Alias != nil {
		return t.Typename + " = " + t.Alias.Typename
	}
	if len(t.UnionTypes) > 0 {
		names := make([]string, len(t.UnionTypes))
		for i, u := range t.UnionTypes {
			names[i] = u.Typename
		}
		return strings.Join(names, " | ")
	}
	return t.Typename
}

// Equals is identity-by-typename equality; solidified instances are
// interned (see Solidify below) so pointer equality usually also
// holds for types produced by this package.
func (t *Type) Equals(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Typename == other.Typename
}

// Castable is true iff both types are integer widths, both are float
// widths, or the receiver is float and other is integer. No other implicit
// conversions exist.
func (t *Type) Castable(other *Type) bool {
	if isIntWidth(t.Typename) && isIntWidth(other.Typename) {
		return true
	}
	if isFloatWidth(t.Typename) && isFloatWidth(other.Typename) {
		return true
	}
	if isFloatWidth(t.Typename) && isIntWidth(other.Typename) {
		return true
	}
	return false
}

func isIntWidth(name string) bool {
	switch name {
	case "int8", "int16", "int32", "int64":
		return true
	}
	return false
}

func isFloatWidth(name string) bool {
	switch name {
	case "float32", "float64":
		return true
	}
	return false
}

// interner is the solidification cache keyed on (originalType identity,
// replacement type names).
type interner struct {
	cache map[string]*Type
}

func newInterner() *interner { return &interner{cache: make(map[string]*Type)} }

func internKey(orig *Type, replacements []*Type) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%p", orig))
	for _, r := range replacements {
		b.WriteString("|")
		b.WriteString(r.Typename)
	}
	return b.String()
}

// globalInterner backs every Solidify call in the process. There is no
// per-driver cache: driver runs, tests and the REPL within one process all
// share this table, so solidification is idempotent process-wide.
var globalInterner = newInterner()

// Solidify produces a new type whose name is "name<A, B, ...>", whose
// OriginalType is the receiver, and whose properties are the receiver's
// properties with every generic standin replaced by the corresponding
// replacement (by positional index, per t.Generics). The solidified type
// is interned so repeat calls with the same receiver and replacements
// return the identical *Type instance.
func (t *Type) Solidify(replacements []*Type) *Type {
	key := internKey(t, replacements)
	if cached, ok := globalInterner.cache[key]; ok {
		return cached
	}

	names := make([]string, len(replacements))
	for i, r := range replacements {
		names[i] = r.Typename
	}
	newName := fmt.Sprintf("%s<%s>", t.Typename, strings.Join(names, ", "))

	solid := &Type{
		Typename:     newName,
		BuiltIn:      t.BuiltIn,
		Properties:   NewProps(),
		Generics:     map[string]int{},
		OriginalType: t,
	}
	for _, pname := range t.Properties.Names() {
		pt, _ := t.Properties.Get(pname)
		solid.Properties.Set(pname, substituteGeneric(pt, t.Generics, replacements))
	}
	globalInterner.cache[key] = solid
	return solid
}

func substituteGeneric(pt *Type, generics map[string]int, replacements []*Type) *Type {
	if pt.IsGenericStandin {
		if idx, ok := generics[pt.Typename]; ok && idx < len(replacements) {
			return replacements[idx]
		}
	}
	return pt
}

// Union constructs an (unnamed, structurally equal) union type from
// members, used for inline union type annotations.
func Union(members []*Type) *Type {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Typename
	}
	return &Type{
		Typename:   strings.Join(names, "|"),
		Properties: NewProps(),
		Generics:   map[string]int{},
		UnionTypes: members,
	}
}

// Contains reports whether a union contains a member with the given typename.
func (t *Type) Contains(typename string) bool {
	for _, m := range t.UnionTypes {
		if m.Typename == typename {
			return true
		}
	}
	return false
}
