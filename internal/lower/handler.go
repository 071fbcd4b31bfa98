package lower

import "github.com/sunholo/amc/internal/scope"

// LowerFunctionBody lowers fn as a standalone (non-inlined) statement
// sequence: each parameter becomes an ARG microstatement bound into a
// fresh scope nested under fn's closure scope, then the body (after
// maybeTransform's conditional-return desugaring) is lowered in order.
// This is what the driver calls for every event handler, since a handler
// is never inlined at a call site the way a user function invocation is.
func LowerFunctionBody(ctx *Ctx, fn *UserFunction) ([]*Microstatement, error) {
	sc := scope.New(fn.ClosureScope)
	var body []*Microstatement
	for _, a := range fn.Args {
		arg := appendMS(&body, &Microstatement{
			StatementType: ARG, Scope: sc, Pure: true,
			OutputName: a.Name, Alias: a.Name, OutputType: a.Type,
		})
		sc.Put(a.Name, arg)
	}
	for _, st := range maybeTransform(fn, ctx.Gen) {
		if err := LowerStmt(ctx, sc, &body, st); err != nil {
			return nil, err
		}
	}
	return body, nil
}
