package parser

import (
	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/errors"
	"github.com/sunholo/amc/internal/lexer"
)

func (p *Parser) parseModuleDecl() *ast.ModuleDecl {
	pos := p.pos()
	p.expect(lexer.MODULE)
	path := p.parseDottedPath()
	return &ast.ModuleDecl{Pos: pos, Path: path}
}

// parseDottedPath reads a bare dotted module name, e.g. `main` or `app.cli`.
// Used only for the `module` declaration itself, which never needs the
// `@std/`, `./`, or project-relative forms an import path can take.
func (p *Parser) parseDottedPath() string {
	path := p.curToken.Literal
	p.next()
	for p.curIs(lexer.DOT) {
		p.next()
		path += "." + p.curToken.Literal
		p.next()
	}
	return path
}

// parseImportPath reads an import target as a quoted string literal, since
// `@std/...`, `./...`, and `../...` forms contain characters the lexer does
// not treat as identifier constituents.
func (p *Parser) parseImportPath() string {
	tok := p.expect(lexer.STRING)
	return tok.Literal
}

func (p *Parser) parseImportDecl() *ast.ImportDecl {
	pos := p.pos()
	if p.curIs(lexer.FROM) {
		p.next()
		path := p.parseImportPath()
		p.expect(lexer.IMPORT)
		decl := &ast.ImportDecl{Pos: pos, Path: path, IsFrom: true}
		for {
			name := p.expect(lexer.IDENT).Literal
			alias := name
			if p.curIs(lexer.AS) {
				p.next()
				alias = p.expect(lexer.IDENT).Literal
			}
			decl.FromNames = append(decl.FromNames, ast.ImportName{Name: name, Alias: alias})
			if p.curIs(lexer.COMMA) {
				p.next()
				continue
			}
			break
		}
		return decl
	}

	p.expect(lexer.IMPORT)
	path := p.parseImportPath()
	decl := &ast.ImportDecl{Pos: pos, Path: path}
	if p.curIs(lexer.AS) {
		p.next()
		decl.Alias = p.expect(lexer.IDENT).Literal
	} else {
		decl.Alias = lastSegment(path)
	}
	return decl
}

func lastSegment(path string) string {
	last := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '.' {
			last = path[i+1:]
			break
		}
	}
	return last
}

// parseTypeDecl parses `type Name<G> { field: T, ... }`, `type Name = Alias`,
// and `type Name = A | B`.
func (p *Parser) parseTypeDecl() *ast.TypeDecl {
	pos := p.pos()
	p.expect(lexer.TYPE)
	name := p.expect(lexer.IDENT).Literal
	decl := &ast.TypeDecl{Pos: pos, Name: name, Generics: p.parseGenericParams()}

	if p.curIs(lexer.ASSIGN) {
		p.next()
		union := p.parseUnionType()
		if len(union) == 1 {
			decl.Alias = union[0]
		} else {
			decl.UnionOf = union
		}
		return decl
	}

	p.expect(lexer.LBRACE)
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		fname := p.expect(lexer.IDENT).Literal
		p.expect(lexer.COLON)
		ftype := p.parseTypeNode()
		decl.Fields = append(decl.Fields, ast.TypeField{Name: fname, Type: ftype})
		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACE)
	return decl
}

// parseInterfaceDecl parses a structural interface body, where each member
// is one of: `fn name(Type, ...): Type`, `operator <op> (Type, Type): Type`,
// or a bare property `name: Type`.
func (p *Parser) parseInterfaceDecl() *ast.InterfaceDecl {
	pos := p.pos()
	p.expect(lexer.INTERFACE)
	name := p.expect(lexer.IDENT).Literal
	decl := &ast.InterfaceDecl{Pos: pos, Name: name}
	p.expect(lexer.LBRACE)
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		switch {
		case p.curIs(lexer.FN):
			p.next()
			fname := p.expect(lexer.IDENT).Literal
			args := p.parseTypeArgList()
			var ret ast.TypeNode
			if p.curIs(lexer.COLON) {
				p.next()
				ret = p.parseTypeNode()
			}
			decl.Funcs = append(decl.Funcs, ast.InterfaceFunc{Name: fname, Args: args, Return: ret})
		case p.curIs(lexer.OPERATOR):
			p.next()
			isPrefix := false
			if p.curIs(lexer.BANG) {
				isPrefix = true
			}
			op := p.curToken.Literal
			p.next()
			args := p.parseTypeArgList()
			var ret ast.TypeNode
			if p.curIs(lexer.COLON) {
				p.next()
				ret = p.parseTypeNode()
			}
			decl.Operators = append(decl.Operators, ast.InterfaceOperator{Op: op, IsPrefix: isPrefix, Args: args, Return: ret})
		case p.curIs(lexer.IDENT):
			fname := p.curToken.Literal
			p.next()
			p.expect(lexer.COLON)
			ftype := p.parseTypeNode()
			decl.Properties = append(decl.Properties, ast.TypeField{Name: fname, Type: ftype})
		default:
			p.errorfTok(errors.PAR002, "malformed interface member")
			p.next()
		}
		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACE)
	return decl
}

// parseTypeArgList parses a parenthesized, comma-separated type list used
// by interface function/operator signatures: `(Type, Type)`.
func (p *Parser) parseTypeArgList() []ast.TypeNode {
	p.expect(lexer.LPAREN)
	var args []ast.TypeNode
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		args = append(args, p.parseTypeNode())
		if p.curIs(lexer.COMMA) {
			p.next()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN)
	return args
}

func (p *Parser) parseConstStmt() *ast.ConstStmt {
	pos := p.pos()
	p.expect(lexer.CONST)
	name := p.expect(lexer.IDENT).Literal
	typ := p.parseTypeAnnotation()
	p.expect(lexer.ASSIGN)
	value := p.parseExpr()
	return &ast.ConstStmt{Pos: pos, Name: name, Type: typ, Value: value}
}

func (p *Parser) parseEventDecl() *ast.EventDecl {
	pos := p.pos()
	p.expect(lexer.EVENT)
	name := p.expect(lexer.IDENT).Literal
	decl := &ast.EventDecl{Pos: pos, Name: name}
	if p.curIs(lexer.COLON) {
		p.next()
		decl.Carries = p.parseTypeNode()
	}
	return decl
}

// parseFuncDecl parses `[pure] fn name<G>(arg: Type, ...) [: Type] { ... }`.
// The name is optional: when `fn` is followed directly by `(` or `<`, the
// declaration is anonymous, which is the form closure expressions and
// handler declarations use.
func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	pos := p.pos()
	pure := false
	if p.curIs(lexer.PURE) {
		pure = true
		p.next()
	}
	p.expect(lexer.FN)
	decl := &ast.FuncDecl{Pos: pos, Pure: pure}
	if p.curIs(lexer.IDENT) {
		decl.Name = p.curToken.Literal
		p.next()
	}
	decl.Generics = p.parseGenericParams()
	p.expect(lexer.LPAREN)
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		argName := p.expect(lexer.IDENT).Literal
		p.expect(lexer.COLON)
		argType := p.parseTypeNode()
		decl.Args = append(decl.Args, ast.FuncArg{Name: argName, Type: argType})
		if p.curIs(lexer.COMMA) {
			p.next()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN)
	if p.curIs(lexer.COLON) {
		p.next()
		decl.ReturnType = p.parseTypeNode()
	}
	decl.Body = p.parseBlock()
	return decl
}

// parseOperatorDecl parses `operator <op> <precedence> <funcName>` and
// `operator prefix <op> <precedence> <funcName>`.
func (p *Parser) parseOperatorDecl() *ast.OperatorDecl {
	pos := p.pos()
	p.expect(lexer.OPERATOR)
	isPrefix := false
	if p.curIs(lexer.IDENT) && p.curToken.Literal == "prefix" {
		isPrefix = true
		p.next()
	}
	op := p.curToken.Literal
	p.next()
	prec := p.parseIntLiteral()
	fn := p.expect(lexer.IDENT).Literal
	return &ast.OperatorDecl{Pos: pos, Op: op, IsPrefix: isPrefix, Precedence: prec, FuncName: fn}
}

func (p *Parser) parseIntLiteral() int {
	tok := p.expect(lexer.INT)
	n := 0
	for _, c := range tok.Literal {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func (p *Parser) parseExportDecl() *ast.ExportDecl {
	pos := p.pos()
	p.expect(lexer.EXPORT)
	name := p.expect(lexer.IDENT).Literal
	return &ast.ExportDecl{Pos: pos, Name: name}
}

// parseHandlerDecl parses `on <event> fn (args...) { ... }`; the handler's
// function literal is always anonymous.
func (p *Parser) parseHandlerDecl() *ast.HandlerDecl {
	pos := p.pos()
	p.expect(lexer.ON)
	event := p.expect(lexer.IDENT).Literal
	fn := p.parseFuncDecl()
	return &ast.HandlerDecl{Pos: pos, Event: event, Fn: fn}
}
