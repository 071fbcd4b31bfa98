// Package scope implements the name-binding stack used throughout the
// lowering core: a mapping from name to bound value with an optional
// parent.
package scope

import "strings"

// Dotted is implemented by any value whose sub-scopes or fields can be
// walked by a dotted-name lookup (§4.3): user-type instances expose their
// fields this way so `deepGet("a.b.c")` can cross from a Scope into a
// value and back into a Scope.
type Dotted interface {
	// Field returns the value bound to name within the receiver, and
	// whether it exists.
	Field(name string) (interface{}, bool)
	// SetField updates name in place. It returns false if name is not a
	// field of the receiver.
	SetField(name string, value interface{}) bool
}

// Scope is a stack frame of name->value bindings with a parent pointer.
// Module scopes live for the lifetime of a single driver run; function
// closure scopes may be nested arbitrarily deep but never form a cycle.
type Scope struct {
	vals map[string]interface{}
	keys []string // insertion order, for deterministic iteration
	par  *Scope
}

// New creates an empty scope with the given parent (nil for a root scope).
func New(parent *Scope) *Scope {
	return &Scope{vals: make(map[string]interface{}), par: parent}
}

// Parent returns the receiver's parent scope, or nil at the root.
func (s *Scope) Parent() *Scope { return s.par }

// Put inserts name into the receiver only, overwriting any existing
// shallow binding.
func (s *Scope) Put(name string, value interface{}) {
	if _, exists := s.vals[name]; !exists {
		s.keys = append(s.keys, name)
	}
	s.vals[name] = value
}

// Get is a shallow lookup: it never consults the parent.
func (s *Scope) Get(name string) (interface{}, bool) {
	v, ok := s.vals[name]
	return v, ok
}

// ShallowGet is identical to Get; both names exist because callers reach
// for whichever one reads more naturally at the call site.
func (s *Scope) ShallowGet(name string) (interface{}, bool) { return s.Get(name) }

// DeepGet walks the parent chain until name resolves or the chain is
// exhausted.
func (s *Scope) DeepGet(name string) (interface{}, bool) {
	for cur := s; cur != nil; cur = cur.par {
		if v, ok := cur.vals[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// DeepGetPath resolves a dotted path, walking through sub-scopes (when a
// segment yields a *Scope) and through Dotted-implementing values (when a
// segment yields such a value).
func (s *Scope) DeepGetPath(path string) (interface{}, bool) {
	segments := strings.Split(path, ".")
	v, ok := s.DeepGet(segments[0])
	if !ok {
		return nil, false
	}
	for _, seg := range segments[1:] {
		switch cur := v.(type) {
		case *Scope:
			v, ok = cur.Get(seg)
		case Dotted:
			v, ok = cur.Field(seg)
		default:
			return nil, false
		}
		if !ok {
			return nil, false
		}
	}
	return v, true
}

// DeepPut writes through the same walk as DeepGetPath, updating the
// leaf-owning scope or Dotted value in place. Used for exports and
// user-type field writes.
func (s *Scope) DeepPut(path string, value interface{}) bool {
	segments := strings.Split(path, ".")
	if len(segments) == 1 {
		for cur := s; cur != nil; cur = cur.par {
			if _, ok := cur.vals[segments[0]]; ok {
				cur.vals[segments[0]] = value
				return true
			}
		}
		s.Put(segments[0], value)
		return true
	}

	cur, ok := s.DeepGet(segments[0])
	if !ok {
		return false
	}
	for _, seg := range segments[1 : len(segments)-1] {
		switch c := cur.(type) {
		case *Scope:
			cur, ok = c.Get(seg)
		case Dotted:
			cur, ok = c.Field(seg)
		default:
			return false
		}
		if !ok {
			return false
		}
	}
	last := segments[len(segments)-1]
	switch c := cur.(type) {
	case *Scope:
		c.Put(last, value)
		return true
	case Dotted:
		return c.SetField(last, value)
	default:
		return false
	}
}

// Keys returns bound names in insertion order (shallow).
func (s *Scope) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}
