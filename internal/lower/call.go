package lower

import (
	"fmt"

	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/errors"
	"github.com/sunholo/amc/internal/opcode"
	"github.com/sunholo/amc/internal/scope"
	"github.com/sunholo/amc/internal/types"
)

// lowerCallExpr resolves a call's callee (a plain name, a dotted
// module-qualified path, or a method-style `value.name(...)` form) against
// scope and dispatches to either an opcode builtin (emits a CALL) or a user
// function (inlines its body at this call site).
func lowerCallExpr(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, ce *ast.CallExpr) (*Microstatement, error) {
	if path, ok := dottedPathName(ce.Callee); ok {
		if bound, ok := sc.DeepGetPath(path); ok {
			args, err := lowerArgs(ctx, sc, out, ce.Args)
			if err != nil {
				return nil, err
			}
			return dispatchCallable(ctx, sc, out, bound, args, ce.Pos, path)
		}
	}

	if fa, ok := ce.Callee.(*ast.FieldAccess); ok {
		base, err := LowerExpr(ctx, sc, out, fa.Base)
		if err != nil {
			return nil, err
		}
		bound, ok := sc.DeepGet(fa.Field)
		if !ok {
			return nil, errors.New(errors.TYP001, ce.Pos, fmt.Sprintf("undefined reference %q", fa.Field))
		}
		rest, err := lowerArgs(ctx, sc, out, ce.Args)
		if err != nil {
			return nil, err
		}
		args := append([]*Microstatement{base}, rest...)
		return dispatchCallable(ctx, sc, out, bound, args, ce.Pos, fa.Field)
	}

	return nil, errors.New(errors.TYP001, ce.Pos, "call target is not callable")
}

func lowerArgs(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, exprs []ast.Expr) ([]*Microstatement, error) {
	args := make([]*Microstatement, len(exprs))
	for i, e := range exprs {
		ms, err := LowerExpr(ctx, sc, out, e)
		if err != nil {
			return nil, err
		}
		args[i] = ms
	}
	return args, nil
}

// dottedPathName flattens a chain of Identifier/FieldAccess nodes into a
// dotted string, e.g. `std.math.sqrt`, or reports false if the chain
// contains anything else (a call, an index, a literal).
func dottedPathName(e ast.Expr) (string, bool) {
	switch v := e.(type) {
	case *ast.Identifier:
		return v.Name, true
	case *ast.FieldAccess:
		base, ok := dottedPathName(v.Base)
		if !ok {
			return "", false
		}
		return base + "." + v.Field, true
	default:
		return "", false
	}
}

func dispatchCallable(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, bound interface{}, args []*Microstatement, pos ast.Pos, name string) (*Microstatement, error) {
	switch v := bound.(type) {
	case opcode.BuiltinSet:
		return resolveOpcodeCall(ctx, sc, out, name, v, args, pos)
	case FuncSet:
		argTypes := make([]*types.Type, len(args))
		for i, a := range args {
			argTypes[i] = a.OutputType
		}
		fn, err := dispatchFn(v, argTypes, sc)
		if err != nil {
			return nil, err
		}
		return inlineCall(ctx, sc, out, fn, args, pos)
	case *Microstatement:
		if v.StatementType == CLOSUREDEF || v.StatementType == CLOSURE {
			return inlineClosureValue(ctx, sc, out, v, args, pos)
		}
		return nil, errors.New(errors.TYP001, pos, fmt.Sprintf("%q is not callable", name))
	default:
		return nil, errors.New(errors.TYP001, pos, fmt.Sprintf("%q is not callable", name))
	}
}

func resolveOpcodeCall(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, name string, set opcode.BuiltinSet, args []*Microstatement, pos ast.Pos) (*Microstatement, error) {
	for _, b := range set {
		if len(b.Args) != len(args) {
			continue
		}
		ok := true
		for i, want := range b.Args {
			if !matchArg(want, args[i].OutputType, sc) {
				ok = false
				break
			}
		}
		if ok {
			return emitOpcodeCall(ctx, sc, out, b.Name, args, b.Return), nil
		}
	}
	return nil, errors.New(errors.DIS001, pos, fmt.Sprintf("no overload of %q matches the supplied argument types", name))
}

func emitOpcodeCall(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, name string, args []*Microstatement, ret *types.Type) *Microstatement {
	inputNames := make([]string, len(args))
	pure := true
	for i, a := range args {
		inputNames[i] = a.OutputName
		pure = pure && a.Pure
	}
	// Opcodes declared against the generic `any` standin (assign, copyfrom)
	// take on the first argument's concrete type: the AMM output is fully
	// typed even where the opcode table is generic.
	if ret != nil && ret.IsGenericStandin && len(args) > 0 {
		ret = args[0].OutputType
	}
	return appendMS(out, &Microstatement{
		StatementType: CALL, Scope: sc, Pure: pure,
		OutputName: ctx.Gen.Next(), OutputType: ret,
		InputNames: inputNames,
		Fns:        []FnBinding{{Opcode: name}},
	})
}

// inlineCall implements microstatement inlining: it splices the callee's
// entire lowered body into the caller's flat microstatement list, binding
// each parameter by a REREF to the already-lowered argument value rather
// than copying it, and returns the TAIL microstatement that addresses the
// call's result.
func inlineCall(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, fn *UserFunction, args []*Microstatement, pos ast.Pos) (*Microstatement, error) {
	if len(fn.Args) != len(args) {
		return nil, errors.New(errors.DIS001, pos, fmt.Sprintf("function %q expects %d arguments, got %d", fn.Name, len(fn.Args), len(args)))
	}

	funcScope := scope.New(fn.ClosureScope)
	appendMS(out, &Microstatement{StatementType: ENTERFN, Scope: funcScope, OutputName: ctx.Gen.Next(), InputNames: []string{fn.Name}})

	for i, a := range fn.Args {
		reref := appendMS(out, &Microstatement{
			StatementType: REREF, Scope: funcScope, Pure: true,
			OutputName: ctx.Gen.Next(), Alias: a.Name, OutputType: a.Type,
			InputNames: []string{args[i].OutputName},
		})
		funcScope.Put(a.Name, reref)
	}

	var body []*Microstatement
	for _, st := range maybeTransform(fn, ctx.Gen) {
		if err := LowerStmt(ctx, funcScope, &body, st); err != nil {
			return nil, err
		}
	}

	var tail *Microstatement
	if n := len(body); n > 0 && body[n-1].StatementType == TAIL {
		tail = body[n-1]
	} else {
		tail = appendMS(&body, &Microstatement{StatementType: TAIL, Scope: funcScope, Pure: true, OutputName: ctx.Gen.Next(), OutputType: types.Void, InputNames: []string{"void"}})
	}

	*out = append(*out, body...)
	return tail, nil
}

// inlineClosureValue invokes a closure value already bound in scope (a
// variable holding a `fn {...}` literal) by splicing its pre-lowered
// ClosureStatements into the caller's list, the same way inlineCall splices
// a named UserFunction's body. args is accepted for symmetry with
// dispatchCallable but is not bound: no REREF parameter binding is emitted,
// so a closure's parameters are not bound to the call's arguments. (The
// if/else branch closures are not invoked here; they are passed to the
// `cond` opcode.)
func inlineClosureValue(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, closure *Microstatement, args []*Microstatement, pos ast.Pos) (*Microstatement, error) {
	*out = append(*out, closure.ClosureStatements...)
	var tail *Microstatement
	for _, ms := range closure.ClosureStatements {
		if ms.StatementType == TAIL {
			tail = ms
		}
	}
	if tail == nil {
		tail = appendMS(out, &Microstatement{StatementType: TAIL, Scope: sc, Pure: true, OutputName: ctx.Gen.Next(), OutputType: types.Void, InputNames: []string{"void"}})
	}
	return tail, nil
}
