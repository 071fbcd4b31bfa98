package parser

import (
	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/lexer"
)

func (p *Parser) parseBlock() []ast.Stmt {
	p.expect(lexer.LBRACE)
	var stmts []ast.Stmt
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		stmts = append(stmts, p.parseStmt())
		for p.curIs(lexer.SEMICOLON) {
			p.next()
		}
	}
	p.expect(lexer.RBRACE)
	return stmts
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.curToken.Type {
	case lexer.CONST:
		return p.parseConstStmt()
	case lexer.LET:
		return p.parseLetStmt()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.EMIT:
		return p.parseEmitStmt()
	case lexer.EXIT:
		return p.parseExitStmt()
	default:
		return p.parseSimpleStmt()
	}
}

func (p *Parser) parseLetStmt() *ast.LetStmt {
	pos := p.pos()
	p.expect(lexer.LET)
	name := p.expect(lexer.IDENT).Literal
	typ := p.parseTypeAnnotation()
	var value ast.Expr
	if p.curIs(lexer.ASSIGN) {
		p.next()
		value = p.parseExpr()
	}
	return &ast.LetStmt{Pos: pos, Name: name, Type: typ, Value: value}
}

// parseIfStmt parses `if cond { ... } [else { ... } | else if ... ]`. The
// condition may be parenthesized; without parens, a bare `Name { ... }`
// before the block is read as the block opening, not an object literal.
func (p *Parser) parseIfStmt() *ast.IfStmt {
	pos := p.pos()
	p.expect(lexer.IF)
	var cond ast.Expr
	if p.curIs(lexer.LPAREN) {
		p.next()
		cond = p.parseExpr()
		p.expect(lexer.RPAREN)
	} else {
		p.noBraceLit = true
		cond = p.parseExpr()
		p.noBraceLit = false
	}
	then := p.parseBlock()
	stmt := &ast.IfStmt{Pos: pos, Cond: cond, Then: then}
	if p.curIs(lexer.ELSE) {
		p.next()
		if p.curIs(lexer.IF) {
			stmt.Else = []ast.Stmt{p.parseIfStmt()}
		} else {
			stmt.Else = p.parseBlock()
		}
	}
	return stmt
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	pos := p.pos()
	p.expect(lexer.RETURN)
	if p.curIs(lexer.RBRACE) || p.curIs(lexer.SEMICOLON) {
		return &ast.ReturnStmt{Pos: pos}
	}
	return &ast.ReturnStmt{Pos: pos, Value: p.parseExpr()}
}

func (p *Parser) parseEmitStmt() *ast.EmitStmt {
	pos := p.pos()
	p.expect(lexer.EMIT)
	name := p.expect(lexer.IDENT).Literal
	stmt := &ast.EmitStmt{Pos: pos, Event: name}
	if !p.curIs(lexer.RBRACE) && !p.curIs(lexer.SEMICOLON) {
		stmt.Value = p.parseExpr()
	}
	return stmt
}

func (p *Parser) parseExitStmt() *ast.ExitStmt {
	pos := p.pos()
	p.expect(lexer.EXIT)
	stmt := &ast.ExitStmt{Pos: pos}
	if !p.curIs(lexer.RBRACE) && !p.curIs(lexer.SEMICOLON) {
		stmt.Code = p.parseExpr()
	}
	return stmt
}

// parseSimpleStmt parses either an assignment (`target = value`) or a bare
// expression statement (a call used for its side effect).
func (p *Parser) parseSimpleStmt() ast.Stmt {
	pos := p.pos()
	expr := p.parseExpr()
	if p.curIs(lexer.ASSIGN) {
		p.next()
		value := p.parseExpr()
		return &ast.AssignStmt{Pos: pos, Target: expr, Value: value}
	}
	return &ast.ExprStmt{Pos: pos, Value: expr}
}
