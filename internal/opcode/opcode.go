// Package opcode provides the opcode scope: a read-only catalogue of
// built-in functions and types, consulted by lowering for primitives like
// newarr, pusharr, copyfrom, cond, assign, getR and noneM. It sits outside
// the lowering core proper, but
// shipped here as a concrete, process-lifetime-immutable scope so the
// driver is runnable end to end.
package opcode

import (
	"github.com/sunholo/amc/internal/scope"
	"github.com/sunholo/amc/internal/types"
)

// Builtin is one overload of an opcode function. It never owns a body to
// inline: lowering emits a CALL microstatement naming it directly rather
// than inlining a statement list, which is what distinguishes an opcode
// call from a user function call in the AMM IR.
type Builtin struct {
	Name   string
	Args   []*types.Type
	Return *types.Type
	Pure   bool
}

// BuiltinSet is the function-set value bound to a name in the opcode
// scope; multiple overloads share one name, mirroring how user function
// overload sets merge in module scopes.
type BuiltinSet []*Builtin

// Candidates satisfies types.FuncSet / iface.Lookup matching.
func (b BuiltinSet) Candidates() []types.FunctionType {
	out := make([]types.FunctionType, len(b))
	for i, fn := range b {
		out[i] = types.FunctionType{Name: fn.Name, Args: fn.Args, Return: fn.Return}
	}
	return out
}

var root *scope.Scope

// Scope returns the process-lifetime opcode scope. It is built once and
// never mutated after init; every module scope chains to it as its
// ultimate parent.
func Scope() *scope.Scope {
	if root == nil {
		root = build()
	}
	return root
}

func build() *scope.Scope {
	s := scope.New(nil)

	for name, t := range types.Builtins {
		s.Put(name, t)
	}

	any := types.NewGenericStandin("any")
	int64T := types.Int64
	boolT := types.Bool
	stringT := types.String

	def := func(name string, args []*types.Type, ret *types.Type, pure bool) {
		existing, _ := s.Get(name)
		set, _ := existing.(BuiltinSet)
		set = append(set, &Builtin{Name: name, Args: args, Return: ret, Pure: pure})
		s.Put(name, set)
	}

	// Array / object primitives.
	def("newarr", []*types.Type{int64T}, types.ArrayOf(any), true)
	def("pusharr", []*types.Type{types.ArrayOf(any), any, int64T}, types.Void, false)
	def("copyfrom", []*types.Type{any, int64T}, any, true)

	// Control-flow / assignment primitives.
	def("cond", []*types.Type{boolT, types.Func}, types.Void, false)
	def("assign", []*types.Type{any}, any, true)
	def("getR", []*types.Type{types.ErrorT}, any, true)
	def("noneM", []*types.Type{}, types.Void, true)

	// Arithmetic / comparison overload sets, one per numeric width, plus
	// the boolean and string overloads operator declarations dispatch
	// through.
	for _, width := range []*types.Type{types.Int8, types.Int16, types.Int32, types.Int64, types.Float32, types.Float64} {
		def("+", []*types.Type{width, width}, width, true)
		def("-", []*types.Type{width, width}, width, true)
		def("*", []*types.Type{width, width}, width, true)
		def("/", []*types.Type{width, width}, width, true)
		def("%", []*types.Type{width, width}, width, true)
		def("<", []*types.Type{width, width}, boolT, true)
		def(">", []*types.Type{width, width}, boolT, true)
		def("<=", []*types.Type{width, width}, boolT, true)
		def(">=", []*types.Type{width, width}, boolT, true)
		def("==", []*types.Type{width, width}, boolT, true)
		def("!=", []*types.Type{width, width}, boolT, true)
	}
	def("+", []*types.Type{stringT, stringT}, stringT, true)
	def("==", []*types.Type{stringT, stringT}, boolT, true)
	def("!=", []*types.Type{stringT, stringT}, boolT, true)
	def("&&", []*types.Type{boolT, boolT}, boolT, true)
	def("||", []*types.Type{boolT, boolT}, boolT, true)
	def("!", []*types.Type{boolT}, boolT, true)
	def("-", []*types.Type{int64T}, int64T, true)

	// Precedence table for the built-in operator tokens: used by
	// internal/module when a user module does not declare its own
	// `operator` mapping for a token already provided by the opcode scope.
	precedence := map[string]int{
		"!": 7, "*": 6, "/": 6, "%": 6, "+": 5, "-": 5,
		"<": 4, ">": 4, "<=": 4, ">=": 4, "==": 3, "!=": 3,
		"&&": 2, "||": 1,
	}
	for op, prec := range precedence {
		bound, _ := s.Get(op)
		set, _ := bound.(BuiltinSet)
		targets := make([]interface{}, len(set))
		for i, b := range set {
			targets[i] = b
		}
		s.Put("operator:"+op, &types.Operator{
			Op:         op,
			Precedence: prec,
			IsPrefix:   op == "!",
			Funcs:      set.Candidates(),
			Targets:    targets,
		})
	}

	return s
}
