package lower

import (
	"github.com/sunholo/amc/internal/scope"
	"github.com/sunholo/amc/internal/types"
)

// StatementType classifies a Microstatement for textual emission and for
// the hoist/dedup passes that run after a handler body is fully lowered.
type StatementType int

const (
	CONSTDEC StatementType = iota
	LETDEC
	ASSIGNMENT
	CALL
	EMIT
	REREF
	CLOSURE
	ARG
	ENTERFN
	ENTERCONDFN
	EXIT
	TAIL
	CLOSUREDEF
)

func (t StatementType) String() string {
	switch t {
	case CONSTDEC:
		return "CONSTDEC"
	case LETDEC:
		return "LETDEC"
	case ASSIGNMENT:
		return "ASSIGNMENT"
	case CALL:
		return "CALL"
	case EMIT:
		return "EMIT"
	case REREF:
		return "REREF"
	case CLOSURE:
		return "CLOSURE"
	case ARG:
		return "ARG"
	case ENTERFN:
		return "ENTERFN"
	case ENTERCONDFN:
		return "ENTERCONDFN"
	case EXIT:
		return "EXIT"
	case TAIL:
		return "TAIL"
	case CLOSUREDEF:
		return "CLOSUREDEF"
	default:
		return "UNKNOWN"
	}
}

// ConstValue is what a module-level `const` declaration binds in module
// scope: not a microstatement (nothing has been lowered yet), just the
// literal value and its type. Each site that reads the constant lowers its
// own fresh CONSTDEC microstatement; the driver's hoist/dedup pass later
// collapses the resulting duplicates across handlers.
type ConstValue struct {
	Type  *types.Type
	Value interface{}
}

// FnBinding records what a CALL (or operator) microstatement invokes: an
// opcode name for a builtin, or a UserFunction for provenance when a user
// function's own call graph is being traced (its body is still inlined
// separately; this field never causes re-emission of a call node).
type FnBinding struct {
	Opcode string
	Fn     *UserFunction
}

// Microstatement is one line of the flat AMM IR, per the data model: a
// synthetic output name, a statement type, a scope, a purity flag, an
// optional alias (the user-facing name it also addresses, for
// const/let/assign bindings), an output type, a list of input names
// resolved by backward scan within the same statement list, and, for
// calls and operator applications, the function/opcode binding(s) it
// dispatched to. ClosureStatements holds the nested, self-contained
// microstatement list of a closure literal passed as an argument (e.g. to
// the `cond` opcode during if/else desugaring).
type Microstatement struct {
	StatementType     StatementType
	Scope             *scope.Scope
	Pure              bool
	OutputName        string
	Alias             string
	OutputType        *types.Type
	InputNames        []string
	Fns               []FnBinding
	ClosureStatements []*Microstatement
}

// Ctx carries the per-lowering-run state threaded through every LowerStmt /
// LowerExpr call: just the synthetic name generator. Conditional early
// returns are resolved ahead of lowering by maybeTransform rewriting the
// AST itself (see desugar.go), so no additional runtime state is needed
// here.
type Ctx struct {
	Gen *NameGen
}

// NewCtx creates a fresh lowering context with its own name generator.
func NewCtx() *Ctx {
	return &Ctx{Gen: &NameGen{}}
}

// appendMS is a small convenience used throughout statement/expr lowering.
func appendMS(out *[]*Microstatement, ms *Microstatement) *Microstatement {
	*out = append(*out, ms)
	return ms
}
