package types

// FunctionType is a function-signature requirement: an optional concrete
// name, ordered argument types, and a return type.
type FunctionType struct {
	Name   string // empty for an anonymous signature requirement
	Args   []*Type
	Return *Type
}

// OperatorType is an operator-signature requirement.
type OperatorType struct {
	Op       string
	IsPrefix bool
	Args     []*Type
	Return   *Type
}

// Interface is a structural type predicate: a candidate type satisfies an
// interface if it has every required property and a matching overload for
// every required function/operator signature.
type Interface struct {
	Name               string
	Funcs              []FunctionType
	Operators          []OperatorType
	RequiredProperties *Props
}

func NewInterface(name string) *Interface {
	return &Interface{Name: name, RequiredProperties: NewProps()}
}

// Lookup is the minimal scope surface Interface.TypeApplies needs: a
// deep, name-based lookup that returns a dispatchable function/operator
// set. internal/scope.Scope satisfies this directly.
type Lookup interface {
	DeepGet(name string) (interface{}, bool)
}

// FuncSet is whatever a scope binds a function name to: a slice of
// candidates each exposing its argument types. internal/lower's FuncSet
// and internal/opcode's BuiltinSet both satisfy it.
type FuncSet interface {
	Candidates() []FunctionType
}

// TypeApplies reports whether candidate structurally satisfies iface
// within scope:
//  1. every required property name exists on candidate (types not checked deeply here)
//  2. for each required function signature with a concrete name, some
//     overload bound to that name in scope matches elementwise
//  3. each required operator signature matches analogously
func (iface *Interface) TypeApplies(candidate *Type, scope Lookup) bool {
	for _, pname := range iface.RequiredProperties.Names() {
		if _, ok := candidate.Properties.Get(pname); !ok {
			return false
		}
	}

	for _, req := range iface.Funcs {
		if req.Name == "" {
			continue
		}
		bound, ok := scope.DeepGet(req.Name)
		if !ok {
			return false
		}
		set, ok := bound.(FuncSet)
		if !ok {
			return false
		}
		if !anyCandidateMatches(set.Candidates(), req.Args, req.Return, candidate) {
			return false
		}
	}

	for _, req := range iface.Operators {
		bound, ok := scope.DeepGet("operator:" + req.Op)
		if !ok {
			bound, ok = scope.DeepGet(req.Op)
		}
		if !ok {
			return false
		}
		set, ok := bound.(FuncSet)
		if !ok {
			return false
		}
		if !anyCandidateMatches(set.Candidates(), req.Args, req.Return, candidate) {
			return false
		}
	}
	return true
}

func anyCandidateMatches(candidates []FunctionType, reqArgs []*Type, reqReturn *Type, self *Type) bool {
	for _, cand := range candidates {
		if len(cand.Args) != len(reqArgs) {
			continue
		}
		allMatch := true
		for i, want := range reqArgs {
			if !argMatches(cand.Args[i], want, self) {
				allMatch = false
				break
			}
		}
		if allMatch {
			return true
		}
	}
	return false
}

// argMatches is true when have is identical to want, shares an
// OriginalType with want, is self (self-reference), or want and have
// share an interface.
func argMatches(have *Type, want *Type, self *Type) bool {
	if have.Equals(want) {
		return true
	}
	if have.Equals(self) {
		return true
	}
	if have.OriginalType != nil && want.OriginalType != nil && have.OriginalType == want.OriginalType {
		return true
	}
	if have.Iface != nil && want.Iface != nil && have.Iface.Name == want.Iface.Name {
		return true
	}
	return false
}

// Operator is the metadata bound to an operator token in a module scope:
// a precedence, a prefix flag, and the function set it dispatches through.
// Targets parallels Funcs one-for-one and carries the actual callable
// handle (an opcode builtin or a user function) lowering needs to inline;
// it is declared as interface{} so this package stays free of a dependency
// on the lowering package that defines those concrete handle types.
type Operator struct {
	Op         string
	Precedence int
	IsPrefix   bool
	Funcs      []FunctionType
	Targets    []interface{}
}

func (o *Operator) Candidates() []FunctionType { return o.Funcs }

// Append merges another operator declaration into the receiver: operator
// bindings merge the same way function bindings do, pushed onto any
// existing list under the same token.
func (o *Operator) Append(funcs []FunctionType, targets []interface{}) {
	o.Funcs = append(o.Funcs, funcs...)
	o.Targets = append(o.Targets, targets...)
}
