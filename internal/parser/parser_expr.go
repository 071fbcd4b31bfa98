package parser

import (
	"strconv"

	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/errors"
	"github.com/sunholo/amc/internal/lexer"
)

var binaryOps = map[lexer.TokenType]string{
	lexer.PLUS: "+", lexer.MINUS: "-", lexer.STAR: "*", lexer.SLASH: "/", lexer.PERCENT: "%",
	lexer.LT: "<", lexer.GT: ">", lexer.LTE: "<=", lexer.GTE: ">=",
	lexer.EQ: "==", lexer.NEQ: "!=", lexer.ANDAND: "&&", lexer.OROR: "||",
}

// parseExpr parses a flat operand/operator sequence with no parse-time
// precedence grouping: `a + b * c` becomes one OperatorExpr with three
// operands and two operators, left for the lowering core's scope-driven
// precedence climb to structure.
func (p *Parser) parseExpr() ast.Expr {
	pos := p.pos()
	first := p.parseUnary()
	var operands []ast.Expr
	var ops []string
	operands = append(operands, first)
	for {
		op, ok := binaryOps[p.curToken.Type]
		if !ok {
			break
		}
		p.next()
		operands = append(operands, p.parseUnary())
		ops = append(ops, op)
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return &ast.OperatorExpr{Pos: pos, Operands: operands, Ops: ops}
}

// parseUnary handles the prefix operators `!` and unary `-`.
func (p *Parser) parseUnary() ast.Expr {
	if p.curIs(lexer.BANG) || p.curIs(lexer.MINUS) {
		pos := p.pos()
		op := p.curToken.Literal
		p.next()
		return &ast.PrefixExpr{Pos: pos, Op: op, Operand: p.parseUnary()}
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by any chain of
// `.field`, `[index]`, and `(args)` suffixes, e.g. `a.b[0](c)`.
func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		switch p.curToken.Type {
		case lexer.DOT:
			pos := p.pos()
			p.next()
			field := p.expect(lexer.IDENT).Literal
			expr = &ast.FieldAccess{Pos: pos, Base: expr, Field: field}
		case lexer.LBRACKET:
			pos := p.pos()
			p.next()
			idx := p.parseExpr()
			p.expect(lexer.RBRACKET)
			expr = &ast.IndexAccess{Pos: pos, Base: expr, Index: idx}
		case lexer.LPAREN:
			pos := p.pos()
			p.next()
			var args []ast.Expr
			for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
				args = append(args, p.parseExpr())
				if p.curIs(lexer.COMMA) {
					p.next()
					continue
				}
				break
			}
			p.expect(lexer.RPAREN)
			expr = &ast.CallExpr{Pos: pos, Callee: expr, Args: args}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.pos()
	switch p.curToken.Type {
	case lexer.INT:
		lit := p.curToken.Literal
		p.next()
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			p.errorf(errors.PAR001, pos, "invalid integer literal %q", lit)
		}
		return &ast.Literal{Pos: pos, Kind: ast.IntLit, Value: n}
	case lexer.FLOAT:
		lit := p.curToken.Literal
		p.next()
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			p.errorf(errors.PAR001, pos, "invalid float literal %q", lit)
		}
		return &ast.Literal{Pos: pos, Kind: ast.FloatLit, Value: f}
	case lexer.STRING:
		lit := p.curToken.Literal
		p.next()
		return &ast.Literal{Pos: pos, Kind: ast.StringLit, Value: lit}
	case lexer.TRUE:
		p.next()
		return &ast.Literal{Pos: pos, Kind: ast.BoolLit, Value: true}
	case lexer.FALSE:
		p.next()
		return &ast.Literal{Pos: pos, Kind: ast.BoolLit, Value: false}
	case lexer.LPAREN:
		p.next()
		expr := p.parseExpr()
		p.expect(lexer.RPAREN)
		return expr
	case lexer.LBRACKET:
		return p.parseArrayLiteral()
	case lexer.TYPEOF:
		p.next()
		p.expect(lexer.LPAREN)
		inner := p.parseExpr()
		p.expect(lexer.RPAREN)
		return &ast.TypeOfExpr{Pos: pos, Expr: inner}
	case lexer.FN, lexer.PURE:
		return &ast.ClosureExpr{Pos: pos, Fn: p.parseFuncDecl()}
	case lexer.IDENT:
		name := p.curToken.Literal
		p.next()
		if p.curIs(lexer.LBRACE) && !p.noBraceLit {
			return p.parseObjectLiteral(pos, name)
		}
		return &ast.Identifier{Pos: pos, Name: name}
	default:
		p.errorf(errors.PAR001, pos, "unexpected token %s in expression", p.curToken.Type)
		p.next()
		return &ast.Literal{Pos: pos, Kind: ast.VoidLit, Value: nil}
	}
}

func (p *Parser) parseArrayLiteral() *ast.ArrayLiteral {
	pos := p.pos()
	p.expect(lexer.LBRACKET)
	lit := &ast.ArrayLiteral{Pos: pos}
	for !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.EOF) {
		lit.Elements = append(lit.Elements, p.parseExpr())
		if p.curIs(lexer.COMMA) {
			p.next()
			continue
		}
		break
	}
	p.expect(lexer.RBRACKET)
	return lit
}

// parseObjectLiteral parses `TypeName{ field: expr, ... }`, called once the
// caller has already consumed the leading type-name identifier.
func (p *Parser) parseObjectLiteral(pos ast.Pos, typeName string) *ast.ObjectLiteral {
	lit := &ast.ObjectLiteral{Pos: pos, Type: &ast.NamedType{Pos: pos, Name: typeName}}
	p.expect(lexer.LBRACE)
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		fname := p.expect(lexer.IDENT).Literal
		p.expect(lexer.COLON)
		value := p.parseExpr()
		lit.Fields = append(lit.Fields, ast.ObjectField{Name: fname, Value: value})
		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACE)
	return lit
}
