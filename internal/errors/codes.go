// Package errors provides the centralized diagnostic taxonomy for the
// lowering core. Every fatal condition the lowering core can raise is a
// *Diagnostic carrying one of these codes.
package errors

const (
	// Lexer errors (LEX###)
	LEX001 = "LEX001" // illegal character

	// Parser errors (PAR###)
	PAR001 = "PAR001" // unexpected token
	PAR002 = "PAR002" // malformed declaration (neither const nor let)
	PAR003 = "PAR003" // let reassignment with no value

	// Module errors (MOD###)
	MOD001 = "MOD001" // unresolved import
	MOD002 = "MOD002" // duplicate export
	MOD003 = "MOD003" // event handler type mismatch
	MOD004 = "MOD004" // circular import

	// Type errors (TYP###)
	TYP001 = "TYP001" // undefined reference (type/function/operator/variable/event)
	TYP002 = "TYP002" // object-literal field set mismatch
	TYP003 = "TYP003" // emit value type incompatible with event's carried type
	TYP004 = "TYP004" // array index is not int64
	TYP005 = "TYP005" // generic instantiation with non-type argument

	// Dispatch errors (DIS###)
	DIS001 = "DIS001" // no overload matches supplied argument types
	DIS002 = "DIS002" // unresolvable operator expression

	// Lowering errors (LOW###)
	LOW001 = "LOW001" // assignment to a const binding
	LOW002 = "LOW002" // reassignment of a REREF
	LOW003 = "LOW003" // unreachable statement after return

	// Driver errors (DRV###)
	DRV001 = "DRV001" // standard library file failed to parse
	DRV002 = "DRV002" // root source file not found
)

// Info carries human-facing metadata about an error code.
type Info struct {
	Code        string
	Phase       string
	Description string
}

// Registry maps every code to its phase and description.
var Registry = map[string]Info{
	LEX001: {LEX001, "lex", "illegal character"},
	PAR001: {PAR001, "parse", "unexpected token"},
	PAR002: {PAR002, "parse", "malformed declaration"},
	PAR003: {PAR003, "parse", "let reassignment with no value"},
	MOD001: {MOD001, "module", "unresolved import"},
	MOD002: {MOD002, "module", "duplicate export"},
	MOD003: {MOD003, "module", "event handler type mismatch"},
	MOD004: {MOD004, "module", "circular import"},
	TYP001: {TYP001, "typecheck", "undefined reference"},
	TYP002: {TYP002, "typecheck", "object-literal field mismatch"},
	TYP003: {TYP003, "typecheck", "emit type mismatch"},
	TYP004: {TYP004, "typecheck", "array index not int64"},
	TYP005: {TYP005, "typecheck", "generic instantiation with non-type"},
	DIS001: {DIS001, "dispatch", "no matching overload"},
	DIS002: {DIS002, "dispatch", "unresolvable operator expression"},
	LOW001: {LOW001, "lowering", "assignment to constant"},
	LOW002: {LOW002, "lowering", "reassignment of REREF"},
	LOW003: {LOW003, "lowering", "unreachable code"},
	DRV001: {DRV001, "driver", "standard library parse failure"},
	DRV002: {DRV002, "driver", "root source file not found"},
}

// GetInfo looks up metadata for a code.
func GetInfo(code string) (Info, bool) {
	info, ok := Registry[code]
	return info, ok
}
