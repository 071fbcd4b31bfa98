package errors

import (
	"encoding/json"
	"fmt"

	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/lexer"
)

// Diagnostic is the canonical fatal-error type raised by every phase of the
// lowering core. Every error is fatal: there is no recovery,
// only propagation as a Go error up to the driver and CLI.
type Diagnostic struct {
	Schema  string  `json:"schema"`
	Code    string  `json:"code"`
	Phase   string  `json:"phase"`
	Message string  `json:"message"`
	Pos     ast.Pos `json:"pos"`
	Token   string  `json:"token,omitempty"`
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s %s: %s (near %q)", d.Code, d.Pos, d.Message, d.Token)
}

// New creates a Diagnostic for code at pos with message, no offending token.
func New(code string, pos ast.Pos, message string) *Diagnostic {
	phase := ""
	if info, ok := GetInfo(code); ok {
		phase = info.Phase
	}
	return &Diagnostic{Schema: "amm.error/v1", Code: code, Phase: phase, Message: message, Pos: pos}
}

// NewWithToken creates a Diagnostic carrying the offending token's text.
func NewWithToken(code string, pos ast.Pos, token string, message string) *Diagnostic {
	d := New(code, pos, message)
	d.Token = token
	return d
}

// NewParseError is the parser's entry point: it carries the raw lexer.Token
// that triggered the error.
func NewParseError(code string, pos ast.Pos, tok lexer.Token, message string) *Diagnostic {
	return NewWithToken(code, pos, tok.Literal, message)
}

// ToJSON renders the diagnostic as deterministic JSON for the CLI's --json flag.
func (d *Diagnostic) ToJSON() (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
