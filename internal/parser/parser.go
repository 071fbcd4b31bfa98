// Package parser implements the surface-syntax parser. The lowering core
// treats it as an external collaborator: every function here returns
// ast.Node values exposing only the labelled accessors defined in
// internal/ast, never parser-internal state. It is a straightforward
// recursive-descent parser over the token stream internal/lexer produces;
// binary operator chains are deliberately left flat (an ast.OperatorExpr of
// operands and operator tokens) because operator precedence is a per-module,
// per-scope property resolved during lowering, not a parse-time constant.
package parser

import (
	"fmt"

	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/errors"
	"github.com/sunholo/amc/internal/lexer"
)

// Parser turns a token stream into an *ast.Program.
type Parser struct {
	l         *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
	file      string
	errs      []error

	// noBraceLit suppresses the `Name { ... }` object-literal form while
	// parsing an unparenthesized if condition, where the brace opens the
	// block instead.
	noBraceLit bool
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer, file string) *Parser {
	p := &Parser{l: l, file: file}
	p.next()
	p.next()
	return p
}

// Errors returns every parse error accumulated so far.
func (p *Parser) Errors() []error { return p.errs }

func (p *Parser) next() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{File: p.file, Line: p.curToken.Line, Column: p.curToken.Column}
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

// expect asserts the current token's type, records a PAR001 diagnostic and
// advances past it on mismatch (so the parser can keep scanning for
// further errors in the same file), and always consumes the token.
func (p *Parser) expect(t lexer.TokenType) lexer.Token {
	tok := p.curToken
	if tok.Type != t {
		p.errs = append(p.errs, errors.NewParseError(errors.PAR001, p.pos(), tok,
			fmt.Sprintf("expected %s, got %s", t, tok.Type)))
	}
	p.next()
	return tok
}

func (p *Parser) errorf(code string, pos ast.Pos, format string, args ...interface{}) {
	p.errs = append(p.errs, errors.New(code, pos, fmt.Sprintf(format, args...)))
}

// Parse consumes the entire token stream and returns the resulting
// *ast.Program, binning each top-level declaration into the fixed
// categories internal/module expects (imports, types, interfaces,
// consts, events, funcs, operators, exports, handlers).
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{Pos: p.pos()}

	if p.curIs(lexer.MODULE) {
		prog.Module = p.parseModuleDecl()
	}

	for !p.curIs(lexer.EOF) {
		switch p.curToken.Type {
		case lexer.IMPORT, lexer.FROM:
			prog.Imports = append(prog.Imports, p.parseImportDecl())
		case lexer.TYPE:
			prog.Types = append(prog.Types, p.parseTypeDecl())
		case lexer.INTERFACE:
			prog.Interfaces = append(prog.Interfaces, p.parseInterfaceDecl())
		case lexer.CONST:
			prog.Consts = append(prog.Consts, p.parseConstStmt())
		case lexer.EVENT:
			prog.Events = append(prog.Events, p.parseEventDecl())
		case lexer.PURE, lexer.FN:
			prog.Funcs = append(prog.Funcs, p.parseFuncDecl())
		case lexer.OPERATOR:
			prog.Operators = append(prog.Operators, p.parseOperatorDecl())
		case lexer.EXPORT:
			prog.Exports = append(prog.Exports, p.parseExportDecl())
		case lexer.ON:
			prog.Handlers = append(prog.Handlers, p.parseHandlerDecl())
		default:
			p.errorf(errors.PAR002, p.pos(), "unexpected top-level token %s", p.curToken.Type)
			p.next()
		}
	}
	return prog
}
