package parser

import (
	"github.com/sunholo/amc/internal/ast"
	"github.com/sunholo/amc/internal/errors"
	"github.com/sunholo/amc/internal/lexer"
)

// parseTypeNode parses a single type reference: a name optionally followed
// by a generic-argument list (`Array<int64>`, `Map<string, User>`),
// possibly continued by `| Other` into an inline union annotation.
func (p *Parser) parseTypeNode() ast.TypeNode {
	pos := p.pos()
	first := p.parseSingleType()
	if !p.curIs(lexer.PIPE) {
		return first
	}
	members := []ast.TypeNode{first}
	for p.curIs(lexer.PIPE) {
		p.next()
		members = append(members, p.parseSingleType())
	}
	return &ast.UnionType{Pos: pos, Members: members}
}

func (p *Parser) parseSingleType() ast.TypeNode {
	pos := p.pos()
	name := p.expect(lexer.IDENT).Literal
	nt := &ast.NamedType{Pos: pos, Name: name}
	if p.curIs(lexer.LT) {
		p.next()
		for {
			nt.TypeArgs = append(nt.TypeArgs, p.parseTypeNode())
			if p.curIs(lexer.COMMA) {
				p.next()
				continue
			}
			break
		}
		p.expect(lexer.GT)
	}
	return nt
}

// parseUnionType parses `A | B | C` as a member slice for type
// declarations, which distinguish a single-member alias from a union.
func (p *Parser) parseUnionType() []ast.TypeNode {
	var types []ast.TypeNode
	types = append(types, p.parseSingleType())
	for p.curIs(lexer.PIPE) {
		p.next()
		types = append(types, p.parseSingleType())
	}
	return types
}

// parseTypeAnnotation parses an optional `: Type` suffix.
func (p *Parser) parseTypeAnnotation() ast.TypeNode {
	if !p.curIs(lexer.COLON) {
		return nil
	}
	p.next()
	return p.parseTypeNode()
}

func (p *Parser) parseGenericParams() []string {
	if !p.curIs(lexer.LT) {
		return nil
	}
	p.next()
	var names []string
	for {
		names = append(names, p.expect(lexer.IDENT).Literal)
		if p.curIs(lexer.COMMA) {
			p.next()
			continue
		}
		break
	}
	p.expect(lexer.GT)
	return names
}

func (p *Parser) errorfTok(code string, format string) {
	p.errs = append(p.errs, errors.NewParseError(code, p.pos(), p.curToken, format))
}
