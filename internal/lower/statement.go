package lower

import (
	"fmt"

	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/errors"
	"github.com/sunholo/amc/internal/scope"
	"github.com/sunholo/amc/internal/types"
)

// LowerStmt lowers one surface statement into the out microstatement list.
func LowerStmt(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, s ast.Stmt) error {
	switch v := s.(type) {
	case *ast.ConstStmt:
		return lowerBinding(ctx, sc, out, v.Name, v.Type, v.Value, CONSTDEC)
	case *ast.LetStmt:
		return lowerBinding(ctx, sc, out, v.Name, v.Type, v.Value, LETDEC)
	case *ast.AssignStmt:
		return lowerAssign(ctx, sc, out, v)
	case *ast.IfStmt:
		return lowerIfStmt(ctx, sc, out, v)
	case *ast.ReturnStmt:
		return lowerReturn(ctx, sc, out, v)
	case *ast.EmitStmt:
		return lowerEmit(ctx, sc, out, v)
	case *ast.ExitStmt:
		return lowerExit(ctx, sc, out, v)
	case *ast.ExprStmt:
		_, err := LowerExpr(ctx, sc, out, v.Value)
		return err
	default:
		return errors.New(errors.TYP001, s.Position(), "unsupported statement form")
	}
}

// lowerBinding implements both const and let declarations. A literal
// initializer produces exactly one CONSTDEC/LETDEC carrying its literal
// value in InputNames[0]. A computed initializer is lowered first and the
// binding either absorbs its tail CALL in place or re-exposes the value
// under the surface name.
func lowerBinding(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, name string, declared ast.TypeNode, value ast.Expr, st StatementType) error {
	if value == nil {
		if declared == nil {
			return errors.New(errors.PAR003, ast.Pos{}, fmt.Sprintf("declaration of %q needs a type or a value", name))
		}
		t, err := types.Resolve(declared, sc)
		if err != nil {
			return err
		}
		zero := types.ZeroValue(t)
		ms := appendMS(out, &Microstatement{
			StatementType: st, Scope: sc, Pure: true,
			OutputName: ctx.Gen.Next(), Alias: name, OutputType: t,
			InputNames: []string{fmt.Sprintf("%v", zero)},
		})
		sc.Put(name, ms)
		return nil
	}

	if lit, ok := value.(*ast.Literal); ok {
		var t *types.Type
		var err error
		if declared != nil {
			t, err = types.Resolve(declared, sc)
			if err != nil {
				return err
			}
		} else {
			t = literalType(lit.Kind)
		}
		ms := appendMS(out, &Microstatement{
			StatementType: st, Scope: sc, Pure: true,
			OutputName: ctx.Gen.Next(), Alias: name, OutputType: t,
			InputNames: []string{fmt.Sprintf("%v", lit.Value)},
		})
		sc.Put(name, ms)
		return nil
	}

	valueMS, err := LowerExpr(ctx, sc, out, value)
	if err != nil {
		return err
	}
	bindType := valueMS.OutputType
	if declared != nil {
		// An explicit annotation wins over the computed value's inferred
		// type, narrowing generic opcode results like newarr's Array<any>.
		t, err := types.Resolve(declared, sc)
		if err != nil {
			return err
		}
		bindType = t
	}
	// When the initializer's tail is the CALL this binding just produced,
	// the declaration absorbs it in place: `let x = assign(e)` is one
	// LETDEC carrying the call, not a call plus a wrapper. Anything else
	// (an inlined function's TAIL, an array literal's closing REREF, an
	// already-bound name) is re-exposed under the surface name: a REREF
	// for const, a LETDEC wrapper for let so the binding stays
	// independently addressable for reassignment.
	if n := len(*out); n > 0 && (*out)[n-1] == valueMS && valueMS.StatementType == CALL {
		valueMS.StatementType = st
		valueMS.Alias = name
		valueMS.OutputType = bindType
		sc.Put(name, valueMS)
		return nil
	}
	wrapperType := st
	if st == CONSTDEC {
		wrapperType = REREF
	}
	wrapper := appendMS(out, &Microstatement{
		StatementType: wrapperType, Scope: sc, Pure: valueMS.Pure,
		OutputName: ctx.Gen.Next(), Alias: name, OutputType: bindType,
		InputNames: []string{valueMS.OutputName},
	})
	sc.Put(name, wrapper)
	return nil
}

func lowerAssign(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, as *ast.AssignStmt) error {
	switch tgt := as.Target.(type) {
	case *ast.Identifier:
		existing, ok := sc.DeepGet(tgt.Name)
		if !ok {
			return errors.New(errors.TYP001, as.Pos, fmt.Sprintf("assignment to undeclared name %q", tgt.Name))
		}
		existingMS, ok := existing.(*Microstatement)
		if !ok {
			return errors.New(errors.LOW001, as.Pos, fmt.Sprintf("cannot assign to %q", tgt.Name))
		}
		switch existingMS.StatementType {
		case CONSTDEC:
			return errors.New(errors.LOW001, as.Pos, fmt.Sprintf("cannot assign to const %q", tgt.Name))
		case REREF, ARG:
			return errors.New(errors.LOW002, as.Pos, fmt.Sprintf("cannot rebind %q: it re-exposes an immutable value", tgt.Name))
		}

		valueMS, err := LowerExpr(ctx, sc, out, as.Value)
		if err != nil {
			return err
		}
		// The tail microstatement of the value expression takes over the
		// original binding's output name and flips to ASSIGNMENT, so every
		// reference to the binding keeps resolving by one stable name. A
		// value that lowered to an already-bound microstatement (a bare
		// `x = y`) cannot be rewritten in place and gets a fresh
		// ASSIGNMENT move instead.
		if n := len(*out); n > 0 && (*out)[n-1] == valueMS {
			valueMS.StatementType = ASSIGNMENT
			valueMS.OutputName = existingMS.OutputName
			valueMS.Alias = tgt.Name
			sc.DeepPut(tgt.Name, valueMS)
			return nil
		}
		newMS := appendMS(out, &Microstatement{
			StatementType: ASSIGNMENT, Scope: sc, Pure: valueMS.Pure,
			OutputName: existingMS.OutputName, Alias: tgt.Name, OutputType: valueMS.OutputType,
			InputNames: []string{valueMS.OutputName},
		})
		sc.DeepPut(tgt.Name, newMS)
		return nil

	case *ast.FieldAccess:
		base, err := LowerExpr(ctx, sc, out, tgt.Base)
		if err != nil {
			return err
		}
		idx := base.OutputType.Properties.Index(tgt.Field)
		if idx < 0 {
			return errors.New(errors.TYP002, as.Pos, fmt.Sprintf("type %q has no field %q", base.OutputType.Typename, tgt.Field))
		}
		valueMS, err := LowerExpr(ctx, sc, out, as.Value)
		if err != nil {
			return err
		}
		idxMS := appendMS(out, &Microstatement{StatementType: CONSTDEC, Scope: sc, Pure: true, OutputName: ctx.Gen.Next(), OutputType: types.Int64, InputNames: []string{fmt.Sprintf("%d", idx)}})
		appendMS(out, &Microstatement{
			StatementType: CALL, Scope: sc, Pure: false,
			OutputName: ctx.Gen.Next(), OutputType: types.Void,
			InputNames: []string{base.OutputName, valueMS.OutputName, idxMS.OutputName},
			Fns:        []FnBinding{{Opcode: "pusharr"}},
		})
		return nil

	case *ast.IndexAccess:
		base, err := LowerExpr(ctx, sc, out, tgt.Base)
		if err != nil {
			return err
		}
		idxMS, err := LowerExpr(ctx, sc, out, tgt.Index)
		if err != nil {
			return err
		}
		if !idxMS.OutputType.Equals(types.Int64) {
			return errors.New(errors.TYP004, as.Pos, "array index must be int64")
		}
		valueMS, err := LowerExpr(ctx, sc, out, as.Value)
		if err != nil {
			return err
		}
		appendMS(out, &Microstatement{
			StatementType: CALL, Scope: sc, Pure: false,
			OutputName: ctx.Gen.Next(), OutputType: types.Void,
			InputNames: []string{base.OutputName, valueMS.OutputName, idxMS.OutputName},
			Fns:        []FnBinding{{Opcode: "pusharr"}},
		})
		return nil

	default:
		return errors.New(errors.TYP001, as.Pos, "invalid assignment target")
	}
}

// lowerIfStmt desugars if/else into one or two `cond` opcode calls, one per
// branch, the second (if present) gated on the negated condition. By the
// time this runs, any conditional early return inside Then/Else has
// already been rewritten by maybeTransform into retVal/retNotSet writes,
// so the branch bodies here are ordinary straight-line statement lists.
func lowerIfStmt(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, ifs *ast.IfStmt) error {
	condMS, err := LowerExpr(ctx, sc, out, ifs.Cond)
	if err != nil {
		return err
	}

	thenClosure, err := buildCondBranch(ctx, sc, ifs.Then)
	if err != nil {
		return err
	}
	appendMS(out, thenClosure)
	appendMS(out, &Microstatement{
		StatementType: CALL, Scope: sc, Pure: false,
		OutputName: ctx.Gen.Next(), OutputType: types.Void,
		InputNames: []string{condMS.OutputName, thenClosure.OutputName},
		Fns:        []FnBinding{{Opcode: "cond"}},
	})

	if len(ifs.Else) == 0 {
		return nil
	}

	negMS, err := applyPrefix(ctx, sc, out, "!", condMS, ifs.Pos)
	if err != nil {
		return err
	}
	elseClosure, err := buildCondBranch(ctx, sc, ifs.Else)
	if err != nil {
		return err
	}
	appendMS(out, elseClosure)
	appendMS(out, &Microstatement{
		StatementType: CALL, Scope: sc, Pure: false,
		OutputName: ctx.Gen.Next(), OutputType: types.Void,
		InputNames: []string{negMS.OutputName, elseClosure.OutputName},
		Fns:        []FnBinding{{Opcode: "cond"}},
	})
	return nil
}

// buildCondBranch lowers a branch's statement list into its own nested
// scope and wraps it as a CLOSUREDEF microstatement (mirroring
// lowerClosureExpr) so the branch is itself an addressable value the
// `cond` opcode call can reference by OutputName, with its lowered body
// held in ClosureStatements rather than spliced flat into the caller.
func buildCondBranch(ctx *Ctx, sc *scope.Scope, stmts []ast.Stmt) (*Microstatement, error) {
	branchScope := scope.New(sc)
	var body []*Microstatement
	appendMS(&body, &Microstatement{StatementType: ENTERCONDFN, Scope: branchScope, OutputName: ctx.Gen.Next()})
	for _, st := range stmts {
		if err := LowerStmt(ctx, branchScope, &body, st); err != nil {
			return nil, err
		}
	}
	return &Microstatement{
		StatementType:     CLOSUREDEF,
		Scope:             sc,
		Pure:              false,
		OutputName:        ctx.Gen.Next(),
		OutputType:        types.Func,
		ClosureStatements: body,
	}, nil
}

func lowerReturn(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, rs *ast.ReturnStmt) error {
	var valueMS *Microstatement
	if rs.Value != nil {
		var err error
		valueMS, err = LowerExpr(ctx, sc, out, rs.Value)
		if err != nil {
			return err
		}
	} else {
		valueMS = appendMS(out, &Microstatement{StatementType: CONSTDEC, Scope: sc, Pure: true, OutputName: ctx.Gen.Next(), OutputType: types.Void, InputNames: []string{"void"}})
	}
	appendMS(out, &Microstatement{
		StatementType: TAIL, Scope: sc, Pure: valueMS.Pure,
		OutputName: ctx.Gen.Next(), OutputType: valueMS.OutputType,
		InputNames: []string{valueMS.OutputName},
	})
	return nil
}

// EventCarrier is the minimal surface lowering needs from whatever a
// module binds under an "event:" key: the type the event carries.
// internal/module's EventInfo satisfies it.
type EventCarrier interface {
	CarriedType() *types.Type
}

func lowerEmit(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, es *ast.EmitStmt) error {
	bound, ok := sc.DeepGet("event:" + es.Event)
	if !ok {
		return errors.New(errors.TYP001, es.Pos, fmt.Sprintf("emit refers to undefined event %q", es.Event))
	}
	carrier, _ := bound.(EventCarrier)

	var inputNames []string
	if es.Value != nil {
		valueMS, err := LowerExpr(ctx, sc, out, es.Value)
		if err != nil {
			return err
		}
		if carrier != nil {
			carried := carrier.CarriedType()
			if carried.Equals(types.Void) {
				return errors.New(errors.TYP003, es.Pos, fmt.Sprintf("event %q carries no value", es.Event))
			}
			if !valueMS.OutputType.Equals(carried) && !carried.Castable(valueMS.OutputType) {
				return errors.New(errors.TYP003, es.Pos, fmt.Sprintf("emit value type %q does not match event %q carrying %q", valueMS.OutputType, es.Event, carried))
			}
		}
		inputNames = []string{valueMS.OutputName}
	} else if carrier != nil && !carrier.CarriedType().Equals(types.Void) {
		return errors.New(errors.TYP003, es.Pos, fmt.Sprintf("event %q requires a value of type %q", es.Event, carrier.CarriedType()))
	}
	appendMS(out, &Microstatement{
		StatementType: EMIT, Scope: sc, Pure: false,
		OutputName: ctx.Gen.Next(), Alias: es.Event,
		InputNames: inputNames,
	})
	return nil
}

func lowerExit(ctx *Ctx, sc *scope.Scope, out *[]*Microstatement, ex *ast.ExitStmt) error {
	var inputNames []string
	if ex.Code != nil {
		codeMS, err := LowerExpr(ctx, sc, out, ex.Code)
		if err != nil {
			return err
		}
		inputNames = []string{codeMS.OutputName}
	}
	appendMS(out, &Microstatement{
		StatementType: EXIT, Scope: sc,
		OutputName: ctx.Gen.Next(),
		InputNames: inputNames,
	})
	return nil
}
