package lower

import (
	"fmt"

	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/errors"
	"github.com/sunholo/amc/internal/opcode"
	"github.com/sunholo/amc/internal/scope"
	"github.com/sunholo/amc/internal/types"
)

// LowerExpr lowers a single surface expression into zero or more
// microstatements appended to out, and returns the microstatement whose
// OutputName addresses the expression's value.
func LowerExpr(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, e ast.Expr) (*Microstatement, error) {
	switch v := e.(type) {
	case *ast.Identifier:
		bound, ok := sc.DeepGet(v.Name)
		if !ok {
			return nil, errors.New(errors.TYP001, v.Pos, fmt.Sprintf("undefined reference %q", v.Name))
		}
		switch b := bound.(type) {
		case *Microstatement:
			return b, nil
		case *ConstValue:
			return appendMS(out, &Microstatement{
				StatementType: CONSTDEC, Scope: sc, Pure: true,
				OutputName: ctx.Gen.Next(), OutputType: b.Type,
				InputNames: []string{fmt.Sprintf("%v", b.Value)},
			}), nil
		default:
			return nil, errors.New(errors.TYP001, v.Pos, fmt.Sprintf("%q does not name a value", v.Name))
		}

	case *ast.Literal:
		return lowerLiteral(ctx, sc, out, v), nil

	case *ast.OperatorExpr:
		return lowerOperatorExpr(ctx, sc, out, v)

	case *ast.PrefixExpr:
		return lowerPrefixExpr(ctx, sc, out, v)

	case *ast.CallExpr:
		return lowerCallExpr(ctx, sc, out, v)

	case *ast.FieldAccess:
		return lowerFieldAccess(ctx, sc, out, v)

	case *ast.IndexAccess:
		return lowerIndexAccess(ctx, sc, out, v)

	case *ast.ArrayLiteral:
		return lowerArrayLiteral(ctx, sc, out, v)

	case *ast.ObjectLiteral:
		return lowerObjectLiteral(ctx, sc, out, v)

	case *ast.TypeOfExpr:
		return lowerTypeOf(ctx, sc, out, v)

	case *ast.ClosureExpr:
		return lowerClosureExpr(ctx, sc, out, v)

	case *ast.FuncDecl:
		// A bare FuncDecl reached in expression position is an anonymous
		// function literal without the `fn` wrapper token (e.g. nested in
		// a from-source rewrite); treat it the same as ClosureExpr.
		return lowerClosureExpr(ctx, sc, out, &ast.ClosureExpr{Pos: v.Pos, Fn: v})

	default:
		return nil, errors.New(errors.TYP001, e.Position(), "unsupported expression form")
	}
}

func literalType(kind ast.LiteralKind) *types.Type {
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

func lowerLiteral(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, lit *ast.Literal) *Microstatement {
	return appendMS(out, &Microstatement{
		StatementType: CONSTDEC,
		Scope:         sc,
		Pure:          true,
		OutputName:    ctx.Gen.Next(),
		OutputType:    literalType(lit.Kind),
		InputNames:    []string{fmt.Sprintf("%v", lit.Value)},
	})
}

// lowerOperatorExpr resolves a flat operand/operator sequence using the
// precedence table bound in scope (the opcode scope's defaults, overridden
// per-module by any `operator` declarations), via a standard precedence
// climb, then folds it into nested binary CALL microstatements.
func lowerOperatorExpr(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, oe *ast.OperatorExpr) (*Microstatement, error) {
	operands := make([]*Microstatement, len(oe.Operands))
	for i, o := range oe.Operands {
		ms, err := LowerExpr(ctx, sc, out, o)
		if err != nil {
			return nil, err
		}
		operands[i] = ms
	}
	return climb(ctx, sc, out, operands, oe.Ops, 0, oe.Pos)
}

// climb implements precedence climbing over the flattened operand/operator
// lists, consuming operators with a new minimum precedence at each
// recursive step.
func climb(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, operands []*Microstatement, ops []string, minPrec int, pos ast.Pos) (*Microstatement, error) {
	lhs := operands[0]
	operands = operands[1:]
	for len(ops) > 0 {
		op := ops[0]
		prec, err := operatorPrecedence(sc, op, pos)
		if err != nil {
			return nil, err
		}
		if prec < minPrec {
			break
		}
		ops = ops[1:]
		rhs := operands[0]
		operands = operands[1:]

		for len(ops) > 0 {
			nextPrec, err := operatorPrecedence(sc, ops[0], pos)
			if err != nil {
				return nil, err
			}
			if nextPrec <= prec {
				break
			}
			var sub *Microstatement
			sub, ops, operands, err = climbOnce(ctx, sc, out, rhs, ops, operands, prec+1, pos)
			if err != nil {
				return nil, err
			}
			rhs = sub
		}

		lhs, err = applyOperator(ctx, sc, out, op, lhs, rhs, pos)
		if err != nil {
			return nil, err
		}
	}
	return lhs, nil
}

func climbOnce(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, lhs *Microstatement, ops []string, operands []*Microstatement, minPrec int, pos ast.Pos) (*Microstatement, []string, []*Microstatement, error) {
	for len(ops) > 0 {
		op := ops[0]
		prec, err := operatorPrecedence(sc, op, pos)
		if err != nil {
			return nil, nil, nil, err
		}
		if prec < minPrec {
			break
		}
		ops = ops[1:]
		rhs := operands[0]
		operands = operands[1:]
		for len(ops) > 0 {
			nextPrec, err := operatorPrecedence(sc, ops[0], pos)
			if err != nil {
				return nil, nil, nil, err
			}
			if nextPrec <= prec {
				break
			}
			var sub *Microstatement
			sub, ops, operands, err = climbOnce(ctx, sc, out, rhs, ops, operands, prec+1, pos)
			if err != nil {
				return nil, nil, nil, err
			}
			rhs = sub
		}
		lhs, err = applyOperator(ctx, sc, out, op, lhs, rhs, pos)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return lhs, ops, operands, nil
}

func operatorPrecedence(sc *scope.Scope, op string, pos ast.Pos) (int, error) {
	bound, ok := sc.DeepGet("operator:" + op)
	if !ok {
		return 0, errors.New(errors.DIS002, pos, fmt.Sprintf("unresolvable operator %q", op))
	}
	o, ok := bound.(*types.Operator)
	if !ok {
		return 0, errors.New(errors.DIS002, pos, fmt.Sprintf("%q is not an operator", op))
	}
	return o.Precedence, nil
}

// applyOperator dispatches op against lhs/rhs's output types by scanning
// the operator's bound targets (parallel to its Funcs signatures) for the
// first elementwise match, then emits the call (or inlines it, for a
// user-defined operator function).
func applyOperator(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, op string, lhs, rhs *Microstatement, pos ast.Pos) (*Microstatement, error) {
	bound, ok := sc.DeepGet("operator:" + op)
	if !ok {
		return nil, errors.New(errors.DIS002, pos, fmt.Sprintf("unresolvable operator %q", op))
	}
	o, ok := bound.(*types.Operator)
	if !ok {
		return nil, errors.New(errors.DIS002, pos, fmt.Sprintf("%q is not an operator", op))
	}
	argTypes := []*types.Type{lhs.OutputType, rhs.OutputType}
	for i, sig := range o.Funcs {
		if len(sig.Args) != 2 {
			continue
		}
		if matchArg(sig.Args[0], argTypes[0], sc) && matchArg(sig.Args[1], argTypes[1], sc) {
			return invokeTarget(ctx, sc, out, o.Targets[i], []*Microstatement{lhs, rhs}, sig.Return, pos)
		}
	}
	return nil, errors.New(errors.DIS002, pos, fmt.Sprintf("no overload of operator %q matches operand types", op))
}

func lowerPrefixExpr(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, pe *ast.PrefixExpr) (*Microstatement, error) {
	operand, err := LowerExpr(ctx, sc, out, pe.Operand)
	if err != nil {
		return nil, err
	}
	return applyPrefix(ctx, sc, out, pe.Op, operand, pe.Pos)
}

// applyPrefix resolves and applies a prefix operator to an already-lowered
// operand; shared by expression-position prefix operators and the `!cond`
// negation `if`/`else` desugaring emits.
func applyPrefix(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, op string, operand *Microstatement, pos ast.Pos) (*Microstatement, error) {
	bound, ok := sc.DeepGet("operator:" + op)
	if !ok {
		return nil, errors.New(errors.DIS002, pos, fmt.Sprintf("unresolvable prefix operator %q", op))
	}
	o, ok := bound.(*types.Operator)
	if !ok {
		return nil, errors.New(errors.DIS002, pos, fmt.Sprintf("%q is not an operator", op))
	}
	for i, sig := range o.Funcs {
		if len(sig.Args) != 1 {
			continue
		}
		if matchArg(sig.Args[0], operand.OutputType, sc) {
			return invokeTarget(ctx, sc, out, o.Targets[i], []*Microstatement{operand}, sig.Return, pos)
		}
	}
	return nil, errors.New(errors.DIS002, pos, fmt.Sprintf("no overload of prefix operator %q matches operand type", op))
}

// invokeTarget emits the call for a resolved operator/function target:
// either a direct CALL microstatement (opcode builtin) or a fully inlined
// UserFunction body.
func invokeTarget(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, target interface{}, args []*Microstatement, ret *types.Type, pos ast.Pos) (*Microstatement, error) {
	switch t := target.(type) {
	case *opcode.Builtin:
		return emitOpcodeCall(ctx, sc, out, t.Name, args, ret), nil
	case *UserFunction:
		return inlineCall(ctx, sc, out, t, args, pos)
	default:
		return nil, errors.New(errors.DIS002, pos, "operator target is neither an opcode nor a user function")
	}
}

func lowerFieldAccess(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, fa *ast.FieldAccess) (*Microstatement, error) {
	base, err := LowerExpr(ctx, sc, out, fa.Base)
	if err != nil {
		return nil, err
	}
	idx := base.OutputType.Properties.Index(fa.Field)
	if idx < 0 {
		return nil, errors.New(errors.TYP002, fa.Pos, fmt.Sprintf("type %q has no field %q", base.OutputType.Typename, fa.Field))
	}
	fieldType, _ := base.OutputType.Properties.Get(fa.Field)
	idxMS := appendMS(out, &Microstatement{
		StatementType: CONSTDEC, Scope: sc, Pure: true,
		OutputName: ctx.Gen.Next(), OutputType: types.Int64,
		InputNames: []string{fmt.Sprintf("%d", idx)},
	})
	return appendMS(out, &Microstatement{
		StatementType: CALL, Scope: sc, Pure: true,
		OutputName: ctx.Gen.Next(), OutputType: fieldType,
		InputNames: []string{base.OutputName, idxMS.OutputName},
		Fns:        []FnBinding{{Opcode: "copyfrom"}},
	}), nil
}

func lowerIndexAccess(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, ix *ast.IndexAccess) (*Microstatement, error) {
	base, err := LowerExpr(ctx, sc, out, ix.Base)
	if err != nil {
		return nil, err
	}
	idx, err := LowerExpr(ctx, sc, out, ix.Index)
	if err != nil {
		return nil, err
	}
	if !idx.OutputType.Equals(types.Int64) {
		return nil, errors.New(errors.TYP004, ix.Pos, "array index must be int64")
	}
	elemType := types.Void
	if base.OutputType.OriginalType == types.ArrayTemplate {
		elemType, _ = base.OutputType.Properties.Get("__elem")
	}
	return appendMS(out, &Microstatement{
		StatementType: CALL, Scope: sc, Pure: true,
		OutputName: ctx.Gen.Next(), OutputType: elemType,
		InputNames: []string{base.OutputName, idx.OutputName},
		Fns:        []FnBinding{{Opcode: "copyfrom"}},
	}), nil
}

// elemSize is the pusharr size argument for one stored element: 8 for
// built-in non-string scalars, 0 for strings and user-defined types (the
// backend stores those by reference).
func elemSize(t *types.Type) int {
	if t.BuiltIn && t.Typename != "string" && t.Properties.Len() == 0 {
		return 8
	}
	return 0
}

// lowerArrayLiteral lowers every element first, then emits newarr sized
// for the literal, then one pusharr CALL per element in declaration order.
// A closing REREF re-exposes the array with its element type solidified
// from the first element, so an empty literal stays Array<void> until a
// later assignment context narrows it.
func lowerArrayLiteral(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, al *ast.ArrayLiteral) (*Microstatement, error) {
	elems := make([]*Microstatement, len(al.Elements))
	for i, elExpr := range al.Elements {
		el, err := LowerExpr(ctx, sc, out, elExpr)
		if err != nil {
			return nil, err
		}
		elems[i] = el
	}
	elemType := types.Void
	if len(elems) > 0 {
		elemType = elems[0].OutputType
	}

	sizeMS := appendMS(out, &Microstatement{
		StatementType: CONSTDEC, Scope: sc, Pure: true,
		OutputName: ctx.Gen.Next(), OutputType: types.Int64,
		InputNames: []string{fmt.Sprintf("%d", len(al.Elements))},
	})
	arr := appendMS(out, &Microstatement{
		StatementType: CALL, Scope: sc, Pure: true,
		OutputName: ctx.Gen.Next(), OutputType: types.ArrayOf(elemType),
		InputNames: []string{sizeMS.OutputName},
		Fns:        []FnBinding{{Opcode: "newarr"}},
	})
	for _, el := range elems {
		szMS := appendMS(out, &Microstatement{
			StatementType: CONSTDEC, Scope: sc, Pure: true,
			OutputName: ctx.Gen.Next(), OutputType: types.Int64,
			InputNames: []string{fmt.Sprintf("%d", elemSize(el.OutputType))},
		})
		appendMS(out, &Microstatement{
			StatementType: CALL, Scope: sc, Pure: false,
			OutputName: ctx.Gen.Next(), OutputType: types.Void,
			InputNames: []string{arr.OutputName, el.OutputName, szMS.OutputName},
			Fns:        []FnBinding{{Opcode: "pusharr"}},
		})
	}
	return appendMS(out, &Microstatement{
		StatementType: REREF, Scope: sc, Pure: true,
		OutputName: ctx.Gen.Next(), OutputType: types.ArrayOf(elemType),
		InputNames: []string{arr.OutputName},
	}), nil
}

// lowerObjectLiteral resolves the literal's named type, validates that the
// field set supplied matches it exactly, then lowers field values in the
// type's declared property order (not the literal's written order) so
// downstream array-backed field access by index stays correct.
func lowerObjectLiteral(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, ol *ast.ObjectLiteral) (*Microstatement, error) {
	t, err := types.Resolve(ol.Type, sc)
	if err != nil {
		return nil, err
	}
	if t.Properties.Len() != len(ol.Fields) {
		return nil, errors.New(errors.TYP002, ol.Pos, fmt.Sprintf("type %q expects %d fields, got %d", t.Typename, t.Properties.Len(), len(ol.Fields)))
	}
	byName := make(map[string]ast.Expr, len(ol.Fields))
	for _, f := range ol.Fields {
		byName[f.Name] = f.Value
	}
	fields := make([]*Microstatement, 0, t.Properties.Len())
	for _, pname := range t.Properties.Names() {
		valExpr, ok := byName[pname]
		if !ok {
			return nil, errors.New(errors.TYP002, ol.Pos, fmt.Sprintf("missing field %q for type %q", pname, t.Typename))
		}
		vms, err := LowerExpr(ctx, sc, out, valExpr)
		if err != nil {
			return nil, err
		}
		fields = append(fields, vms)
	}

	// A user-typed value is laid out as an array of its fields in the
	// type's declared property order, so field access by numeric index
	// (copyfrom) lines up with construction.
	sizeMS := appendMS(out, &Microstatement{
		StatementType: CONSTDEC, Scope: sc, Pure: true,
		OutputName: ctx.Gen.Next(), OutputType: types.Int64,
		InputNames: []string{fmt.Sprintf("%d", len(fields))},
	})
	obj := appendMS(out, &Microstatement{
		StatementType: CALL, Scope: sc, Pure: true,
		OutputName: ctx.Gen.Next(), OutputType: t,
		InputNames: []string{sizeMS.OutputName},
		Fns:        []FnBinding{{Opcode: "newarr"}},
	})
	for _, f := range fields {
		szMS := appendMS(out, &Microstatement{
			StatementType: CONSTDEC, Scope: sc, Pure: true,
			OutputName: ctx.Gen.Next(), OutputType: types.Int64,
			InputNames: []string{fmt.Sprintf("%d", elemSize(f.OutputType))},
		})
		appendMS(out, &Microstatement{
			StatementType: CALL, Scope: sc, Pure: false,
			OutputName: ctx.Gen.Next(), OutputType: types.Void,
			InputNames: []string{obj.OutputName, f.OutputName, szMS.OutputName},
			Fns:        []FnBinding{{Opcode: "pusharr"}},
		})
	}
	return appendMS(out, &Microstatement{
		StatementType: REREF, Scope: sc, Pure: true,
		OutputName: ctx.Gen.Next(), OutputType: t,
		InputNames: []string{obj.OutputName},
	}), nil
}

// lowerTypeOf lowers the operand for its type, then emits a string CONSTDEC
// whose literal content is that type's name. Solidified instances report
// their solidified name ("Array<int64>", not "Array"), consistently across
// every branch.
func lowerTypeOf(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, te *ast.TypeOfExpr) (*Microstatement, error) {
	target, err := LowerExpr(ctx, sc, out, te.Expr)
	if err != nil {
		return nil, err
	}
	return appendMS(out, &Microstatement{
		StatementType: CONSTDEC, Scope: sc, Pure: true,
		OutputName: ctx.Gen.Next(), OutputType: types.String,
		InputNames: []string{fmt.Sprintf("%q", target.OutputType.Typename)},
	}), nil
}

func lowerClosureExpr(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, ce *ast.ClosureExpr) (*Microstatement, error) {
	closureScope := scope.New(sc)
	fn, err := FromAST(ce.Fn, sc)
	if err != nil {
		return nil, err
	}
	fn.ClosureScope = closureScope

	var body []*Microstatement
	funcScope := scope.New(closureScope)
	for _, a := range fn.Args {
		ph := &Microstatement{StatementType: ARG, Scope: funcScope, OutputName: ctx.Gen.Next(), Alias: a.Name, OutputType: a.Type}
		body = append(body, ph)
		funcScope.Put(a.Name, ph)
	}
	for _, st := range maybeTransform(fn, ctx.Gen) {
		if err := LowerStmt(ctx, funcScope, &body, st); err != nil {
			return nil, err
		}
	}

	return appendMS(out, &Microstatement{
		StatementType:     CLOSUREDEF,
		Scope:             sc,
		Pure:              fn.Pure,
		OutputName:        ctx.Gen.Next(),
		OutputType:        types.Func,
		ClosureStatements: body,
	}), nil
}
