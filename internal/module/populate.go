package module

import (
	"fmt"

	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/errors"
	"github.com/sunholo/amc/internal/lower"
	"github.com/sunholo/amc/internal/scope"
	"github.com/sunholo/amc/internal/types"
)

// EventInfo is what an `event` declaration binds: the type the event
// carries (types.Void for a bare event).
type EventInfo struct {
	Name    string
	Carries *types.Type
}

// CarriedType satisfies lower.EventCarrier so emit lowering can validate
// an emitted value's type against the event without importing this package.
func (e *EventInfo) CarriedType() *types.Type { return e.Carries }

// builtinStart is the implicit `start` event every program has; it is
// seeded into each module scope so `on start` handlers bind without a
// declaration, and it never renders an `event` line in AMM output.
var builtinStart = &EventInfo{Name: "start", Carries: types.Void}

// HandlerBinding pairs an event name with the user function that handles
// it, ready for the driver to lower.
type HandlerBinding struct {
	Event string
	Fn    *lower.UserFunction
}

// populateModule binds every top-level declaration of mod.Program into
// modScope, in the fixed order the component design requires: types,
// interfaces, constants, events, functions, operators, exports, handlers.
// Imports have already been bound into modScope by the caller, so type and
// function references can cross module boundaries freely from the first
// phase onward.
func populateModule(mod *Module, modScope *scope.Scope) error {
	if err := populateTypes(mod, modScope); err != nil {
		return err
	}
	if err := populateInterfaces(mod, modScope); err != nil {
		return err
	}
	if err := populateConsts(mod, modScope); err != nil {
		return err
	}
	if err := populateEvents(mod, modScope); err != nil {
		return err
	}
	if err := populateFuncs(mod, modScope); err != nil {
		return err
	}
	if err := populateOperators(mod, modScope); err != nil {
		return err
	}
	if err := populateExports(mod, modScope); err != nil {
		return err
	}
	return populateHandlers(mod, modScope)
}

func populateTypes(mod *Module, sc *scope.Scope) error {
	for _, decl := range mod.Program.Types {
		t, err := types.FromAST(decl, sc)
		if err != nil {
			return err
		}
		sc.Put(decl.Name, t)
	}
	return nil
}

func populateInterfaces(mod *Module, sc *scope.Scope) error {
	for _, decl := range mod.Program.Interfaces {
		iface := types.NewInterface(decl.Name)
		// Bound before the members resolve: an interface's signatures may
		// refer to the interface itself.
		t := types.NewNominal(decl.Name, false)
		t.Iface = iface
		sc.Put(decl.Name, t)
		for _, p := range decl.Properties {
			pt, err := types.Resolve(p.Type, sc)
			if err != nil {
				return err
			}
			iface.RequiredProperties.Set(p.Name, pt)
		}
		for _, f := range decl.Funcs {
			args := make([]*types.Type, len(f.Args))
			for i, a := range f.Args {
				at, err := types.Resolve(a, sc)
				if err != nil {
					return err
				}
				args[i] = at
			}
			ret := types.Void
			if f.Return != nil {
				var err error
				ret, err = types.Resolve(f.Return, sc)
				if err != nil {
					return err
				}
			}
			iface.Funcs = append(iface.Funcs, types.FunctionType{Name: f.Name, Args: args, Return: ret})
		}
		for _, o := range decl.Operators {
			args := make([]*types.Type, len(o.Args))
			for i, a := range o.Args {
				at, err := types.Resolve(a, sc)
				if err != nil {
					return err
				}
				args[i] = at
			}
			ret := types.Void
			if o.Return != nil {
				var err error
				ret, err = types.Resolve(o.Return, sc)
				if err != nil {
					return err
				}
			}
			iface.Operators = append(iface.Operators, types.OperatorType{Op: o.Op, IsPrefix: o.IsPrefix, Args: args, Return: ret})
		}
	}
	return nil
}

func populateConsts(mod *Module, sc *scope.Scope) error {
	for _, c := range mod.Program.Consts {
		lit, ok := c.Value.(*ast.Literal)
		if !ok {
			return errors.New(errors.TYP001, c.Pos, fmt.Sprintf("module-level const %q must be a literal", c.Name))
		}
		var t *types.Type
		if c.Type != nil {
			var err error
			t, err = types.Resolve(c.Type, sc)
			if err != nil {
				return err
			}
		} else {
			t = literalTypeFor(lit.Kind)
		}
		sc.Put(c.Name, &lower.ConstValue{Type: t, Value: lit.Value})
	}
	return nil
}

func literalTypeFor(kind ast.LiteralKind) *types.Type {
	switch kind {
	case ast.IntLit:
		return types.Int64
	case ast.FloatLit:
		return types.Float64
	case ast.StringLit:
		return types.String
	case ast.BoolLit:
		return types.Bool
	default:
		return types.Void
	}
}

func populateEvents(mod *Module, sc *scope.Scope) error {
	for _, e := range mod.Program.Events {
		carries := types.Void
		if e.Carries != nil {
			var err error
			carries, err = types.Resolve(e.Carries, sc)
			if err != nil {
				return err
			}
		}
		sc.Put("event:"+e.Name, &EventInfo{Name: e.Name, Carries: carries})
	}
	return nil
}

func populateFuncs(mod *Module, sc *scope.Scope) error {
	for _, decl := range mod.Program.Funcs {
		fn, err := lower.FromAST(decl, sc)
		if err != nil {
			return err
		}
		existing, _ := sc.ShallowGet(decl.Name)
		set, _ := existing.(lower.FuncSet)
		set = append(set, fn)
		sc.Put(decl.Name, set)
	}
	return nil
}

func populateOperators(mod *Module, sc *scope.Scope) error {
	for _, decl := range mod.Program.Operators {
		bound, ok := sc.DeepGet(decl.FuncName)
		if !ok {
			return errors.New(errors.TYP001, decl.Pos, fmt.Sprintf("operator %q names undefined function %q", decl.Op, decl.FuncName))
		}
		set, ok := bound.(lower.FuncSet)
		if !ok {
			return errors.New(errors.TYP001, decl.Pos, fmt.Sprintf("%q is not a function", decl.FuncName))
		}
		targets := make([]interface{}, len(set))
		for i, fn := range set {
			targets[i] = fn
		}
		key := "operator:" + decl.Op
		if existing, ok := sc.ShallowGet(key); ok {
			if op, ok := existing.(*types.Operator); ok {
				op.Append(set.Candidates(), targets)
				continue
			}
		}
		fresh := &types.Operator{
			Op: decl.Op, Precedence: decl.Precedence, IsPrefix: decl.IsPrefix,
			Funcs: set.Candidates(), Targets: targets,
		}
		// Mapping a token the opcode scope already provides extends the
		// built-in overloads rather than hiding them; the opcode scope is
		// immutable, so the merged operator lives in the module scope.
		if inherited, ok := sc.DeepGet(key); ok {
			if op, ok := inherited.(*types.Operator); ok {
				merged := &types.Operator{Op: decl.Op, Precedence: decl.Precedence, IsPrefix: decl.IsPrefix || op.IsPrefix}
				merged.Append(op.Funcs, op.Targets)
				merged.Append(fresh.Funcs, fresh.Targets)
				fresh = merged
			}
		}
		sc.Put(key, fresh)
	}
	return nil
}

// populateExports builds the module's export scope: each exported name is
// copied from the module scope into a standalone scope that standard
// imports bind under their alias.
func populateExports(mod *Module, sc *scope.Scope) error {
	mod.Exports = make(map[string]bool, len(mod.Program.Exports))
	mod.ExportScope = scope.New(nil)
	for _, e := range mod.Program.Exports {
		if mod.Exports[e.Name] {
			return errors.New(errors.MOD002, e.Pos, fmt.Sprintf("duplicate export %q", e.Name))
		}
		bound, ok := sc.ShallowGet(e.Name)
		if !ok {
			return errors.New(errors.TYP001, e.Pos, fmt.Sprintf("export of undefined name %q", e.Name))
		}
		mod.Exports[e.Name] = true
		mod.ExportScope.Put(e.Name, bound)
	}
	return nil
}

// populateHandlers binds each `on Event fn (...) {...}` declaration,
// validating that the handler's arity and argument type (if any) are
// compatible with the event's declared carried type.
func populateHandlers(mod *Module, sc *scope.Scope) error {
	for _, h := range mod.Program.Handlers {
		bound, ok := sc.DeepGet("event:" + h.Event)
		if !ok {
			return errors.New(errors.TYP001, h.Pos, fmt.Sprintf("handler refers to undefined event %q", h.Event))
		}
		evt := bound.(*EventInfo)

		fn, err := lower.FromAST(h.Fn, sc)
		if err != nil {
			return err
		}
		switch len(fn.Args) {
		case 0:
			if evt.Carries != types.Void {
				return errors.New(errors.MOD003, h.Pos, fmt.Sprintf("handler for event %q must accept the carried type %q", h.Event, evt.Carries))
			}
		case 1:
			if !fn.Args[0].Type.Equals(evt.Carries) {
				return errors.New(errors.MOD003, h.Pos, fmt.Sprintf("handler for event %q expects %q, declared %q", h.Event, evt.Carries, fn.Args[0].Type))
			}
		default:
			return errors.New(errors.MOD003, h.Pos, fmt.Sprintf("handler for event %q takes at most one argument", h.Event))
		}
		mod.Handlers = append(mod.Handlers, HandlerBinding{Event: h.Event, Fn: fn})
	}
	return nil
}
