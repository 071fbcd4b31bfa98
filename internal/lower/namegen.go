// Package lower implements UserFunction construction, desugaring, and
// dispatch together with the Microstatement AMM IR and its
// expression-lowering entry points. The two live in one Go package because
// they are mutually recursive: a UserFunction inlines its body by lowering
// statements into microstatements, and a CALL microstatement dispatches and
// inlines a UserFunction, so splitting them into separate packages would
// require an import cycle.
package lower

import "fmt"

// NameGen produces the synthetic "_<32 hex>" names microstatements use for
// their OutputName. A deterministic counter keyed by driver run is used
// instead of a random UUID so lowering output is reproducible across runs.
type NameGen struct {
	n uint64
}

// Next returns the next synthetic name, 32 hex characters after the
// leading underscore.
func (g *NameGen) Next() string {
	g.n++
	return fmt.Sprintf("_%032x", g.n)
}

// Collision returns a short hex suffix used to disambiguate a duplicate
// event or type name on first collision.
func (g *NameGen) Collision() string {
	g.n++
	return fmt.Sprintf("%08x", g.n)
}
