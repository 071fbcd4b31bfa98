package lower

import (
	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/types"
)

func zeroValueFor(t *types.Type) interface{} { return types.ZeroValue(t) }

// containsReturn reports whether stmts contains a return reachable without
// crossing into a nested function/closure literal.
func containsReturn(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		switch v := s.(type) {
		case *ast.ReturnStmt:
			return true
		case *ast.IfStmt:
			if containsReturn(v.Then) || containsReturn(v.Else) {
				return true
			}
		}
	}
	return false
}

// needsHoist reports whether any conditional branch in stmts contains an
// early return that is not simply the final statement of the function.
func needsHoist(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		if ifs, ok := s.(*ast.IfStmt); ok && (containsReturn(ifs.Then) || containsReturn(ifs.Else)) {
			return true
		}
	}
	return false
}

// hoistReturns rewrites an early `return` nested inside a conditional into
// a write to the synthetic retVal/retNotSet pair, and wraps every
// statement that would otherwise run after a branch returns inside a
// guard on retNotSet. A trailing, unconditional `return` at the very end
// of the outermost body is left untouched: straight-line functions never
// pay for the rewrite.
func hoistReturns(stmts []ast.Stmt, retVal, retNotSet string, top bool) []ast.Stmt {
	var out []ast.Stmt
	for i := 0; i < len(stmts); i++ {
		st := stmts[i]

		if ifs, ok := st.(*ast.IfStmt); ok && (containsReturn(ifs.Then) || containsReturn(ifs.Else)) {
			newIf := &ast.IfStmt{
				Pos:  ifs.Pos,
				Cond: ifs.Cond,
				Then: hoistReturns(ifs.Then, retVal, retNotSet, false),
				Else: hoistReturns(ifs.Else, retVal, retNotSet, false),
			}
			out = append(out, newIf)

			rest := stmts[i+1:]
			if len(rest) > 0 {
				// Once wrapped in the retNotSet guard the trailing
				// statements are no longer top level: a return among them
				// must also divert through retVal.
				wrapped := hoistReturns(rest, retVal, retNotSet, false)
				guard := &ast.IfStmt{
					Pos:  ifs.Pos,
					Cond: &ast.Identifier{Pos: ifs.Pos, Name: retNotSet},
					Then: wrapped,
				}
				out = append(out, guard)
			}
			return out
		}

		if ret, ok := st.(*ast.ReturnStmt); ok {
			if top && i == len(stmts)-1 {
				out = append(out, ret)
				continue
			}
			val := ret.Value
			if val == nil {
				val = &ast.Literal{Pos: ret.Pos, Kind: ast.VoidLit, Value: nil}
			}
			out = append(out,
				&ast.AssignStmt{Pos: ret.Pos, Target: &ast.Identifier{Pos: ret.Pos, Name: retVal}, Value: val},
				&ast.AssignStmt{Pos: ret.Pos, Target: &ast.Identifier{Pos: ret.Pos, Name: retNotSet}, Value: &ast.Literal{Pos: ret.Pos, Kind: ast.BoolLit, Value: false}},
			)
			continue
		}

		out = append(out, st)
	}
	return out
}

// literalFor wraps a Go zero value (from types.ZeroValue) back into a
// surface literal node so it can be spliced into a synthesized let binding.
func literalFor(pos ast.Pos, kind ast.LiteralKind, value interface{}) ast.Expr {
	return &ast.Literal{Pos: pos, Kind: kind, Value: value}
}

func zeroLiteralKind(typename string) ast.LiteralKind {
	switch typename {
	case "int8", "int16", "int32", "int64":
		return ast.IntLit
	case "float32", "float64":
		return ast.FloatLit
	case "bool":
		return ast.BoolLit
	case "string":
		return ast.StringLit
	default:
		return ast.VoidLit
	}
}

// anyConditional reports whether stmts contains an if statement at any
// nesting depth short of a nested function literal.
func anyConditional(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		if _, ok := s.(*ast.IfStmt); ok {
			return true
		}
	}
	return false
}

// wrapAssign routes a write through the `assign` opcode so each one is a
// named call: `x = e` becomes `x = assign(e)`, `let x = e` becomes
// `let x = assign(e)`. Already-wrapped values pass through unchanged.
func wrapAssign(pos ast.Pos, value ast.Expr) ast.Expr {
	if call, ok := value.(*ast.CallExpr); ok {
		if id, ok := call.Callee.(*ast.Identifier); ok && id.Name == "assign" {
			return value
		}
	}
	return &ast.CallExpr{Pos: pos, Callee: &ast.Identifier{Pos: pos, Name: "assign"}, Args: []ast.Expr{value}}
}

// wrapAssigns applies wrapAssign to every assignment and initialized let
// declaration in stmts, recursing into conditional branches.
func wrapAssigns(stmts []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, len(stmts))
	for i, s := range stmts {
		switch v := s.(type) {
		case *ast.AssignStmt:
			out[i] = &ast.AssignStmt{Pos: v.Pos, Target: v.Target, Value: wrapAssign(v.Pos, v.Value)}
		case *ast.LetStmt:
			if v.Value == nil {
				out[i] = v
				continue
			}
			out[i] = &ast.LetStmt{Pos: v.Pos, Name: v.Name, Type: v.Type, Value: wrapAssign(v.Pos, v.Value)}
		case *ast.IfStmt:
			out[i] = &ast.IfStmt{Pos: v.Pos, Cond: v.Cond, Then: wrapAssigns(v.Then), Else: wrapAssigns(v.Else)}
		default:
			out[i] = s
		}
	}
	return out
}

// maybeTransform rewrites fn's body ahead of lowering when it contains any
// conditional: every write is routed through `assign`, and any early return
// nested inside a conditional is hoisted through a fresh retVal/retNotSet
// pair named by gen. Straight-line bodies pass through unchanged.
func maybeTransform(fn *UserFunction, gen *NameGen) []ast.Stmt {
	if !anyConditional(fn.Body) {
		return fn.Body
	}

	body := fn.Body
	if needsHoist(body) {
		pos := ast.Pos{}
		if len(body) > 0 {
			pos = body[0].Position()
		}
		retVal := gen.Next()
		retNotSet := gen.Next()
		zero := zeroValueFor(fn.ReturnType)

		prelude := []ast.Stmt{
			&ast.LetStmt{Pos: pos, Name: retVal, Value: literalFor(pos, zeroLiteralKind(fn.ReturnType.Typename), zero)},
			&ast.LetStmt{Pos: pos, Name: retNotSet, Value: literalFor(pos, ast.BoolLit, true)},
		}
		body = hoistReturns(body, retVal, retNotSet, true)
		body = append(prelude, body...)
		body = append(body, &ast.ReturnStmt{Pos: pos, Value: &ast.Identifier{Pos: pos, Name: retVal}})
	}
	return wrapAssigns(body)
}
