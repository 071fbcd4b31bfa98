// Package ast defines the surface abstract syntax tree produced by the
// parser and consumed by the lowering core. Every node exposes its
// children through named accessor methods rather than a generic
// child-list, mirroring the "labelled child accessors" the lowering
// pass is specified against.
package ast

import (
	"fmt"
	"strings"
)

// Pos is a source position.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Node is the base interface implemented by every AST node.
type Node interface {
	Position() Pos
	String() string
}

// Expr is any node that can appear in expression position.
type Expr interface {
	Node
	exprNode()
}

// Stmt is any node that can appear in statement position.
type Stmt interface {
	Node
	stmtNode()
}

// TypeNode is the surface syntax for a type annotation.
type TypeNode interface {
	Node
	typeNode()
}

// Program is the root of a parsed file.
type Program struct {
	Pos        Pos
	Module     *ModuleDecl
	Imports    []*ImportDecl
	Types      []*TypeDecl
	Interfaces []*InterfaceDecl
	Consts     []*ConstStmt
	Events     []*EventDecl
	Funcs      []*FuncDecl
	Operators  []*OperatorDecl
	Exports    []*ExportDecl
	Handlers   []*HandlerDecl
}

func (p *Program) Position() Pos { return p.Pos }
func (p *Program) String() string {
	return fmt.Sprintf("Program(%d types, %d funcs, %d handlers)", len(p.Types), len(p.Funcs), len(p.Handlers))
}

// ModuleDecl names the module being declared, if any.
type ModuleDecl struct {
	Pos  Pos
	Path string
}

func (m *ModuleDecl) Position() Pos  { return m.Pos }
func (m *ModuleDecl) String() string { return "module " + m.Path }

// ImportDecl is either a standard import (`import foo as bar`) or a
// from-import (`from foo import a, b as c`).
type ImportDecl struct {
	Pos       Pos
	Path      string
	Alias     string       // standard import: bound name (defaults to last path segment)
	FromNames []ImportName // from-import: names pulled into scope, empty for standard import
	IsFrom    bool
}

// ImportName is a single `name` or `name as alias` inside a from-import.
type ImportName struct {
	Name  string
	Alias string // equals Name when not renamed
}

func (i *ImportDecl) Position() Pos { return i.Pos }
func (i *ImportDecl) String() string {
	if i.IsFrom {
		return fmt.Sprintf("from %s import %v", i.Path, i.FromNames)
	}
	return fmt.Sprintf("import %s as %s", i.Path, i.Alias)
}
func (i *ImportDecl) IsStd() bool { return len(i.Path) >= 5 && i.Path[:5] == "@std/" }

// TypeDecl declares a nominal type: `type Name<G1,G2> { field: T, ... }`
// or an alias `type Name = Other` / union `type Name = A | B`.
type TypeDecl struct {
	Pos      Pos
	Name     string
	Generics []string
	Fields   []TypeField // struct form
	Alias    TypeNode    // single-alias form
	UnionOf  []TypeNode  // union form (len > 1)
}

type TypeField struct {
	Name string
	Type TypeNode
}

func (t *TypeDecl) Position() Pos  { return t.Pos }
func (t *TypeDecl) String() string { return "type " + t.Name }

// NamedType is a reference to a (possibly generic-applied) type name.
type NamedType struct {
	Pos      Pos
	Name     string
	TypeArgs []TypeNode
}

func (n *NamedType) Position() Pos  { return n.Pos }
func (n *NamedType) String() string { return n.Name }
func (n *NamedType) typeNode()      {}

// UnionType is an inline `A | B` annotation, legal in type declarations
// and function argument/return positions.
type UnionType struct {
	Pos     Pos
	Members []TypeNode
}

func (u *UnionType) Position() Pos { return u.Pos }
func (u *UnionType) String() string {
	names := make([]string, len(u.Members))
	for i, m := range u.Members {
		names[i] = m.String()
	}
	return strings.Join(names, " | ")
}
func (u *UnionType) typeNode() {}

// InterfaceDecl declares a structural interface.
type InterfaceDecl struct {
	Pos        Pos
	Name       string
	Funcs      []InterfaceFunc
	Operators  []InterfaceOperator
	Properties []TypeField
}

type InterfaceFunc struct {
	Name   string // may be empty for an anonymous signature requirement
	Args   []TypeNode
	Return TypeNode
}

type InterfaceOperator struct {
	Op       string
	IsPrefix bool
	Args     []TypeNode
	Return   TypeNode
}

func (i *InterfaceDecl) Position() Pos  { return i.Pos }
func (i *InterfaceDecl) String() string { return "interface " + i.Name }

// EventDecl declares an event and the type it carries.
type EventDecl struct {
	Pos     Pos
	Name    string
	Carries TypeNode // nil means void
}

func (e *EventDecl) Position() Pos  { return e.Pos }
func (e *EventDecl) String() string { return "event " + e.Name }

// FuncDecl is a named (or anonymous, inside a closure literal) function.
type FuncDecl struct {
	Pos        Pos
	Name       string // empty for function literals
	Generics   []string
	Args       []FuncArg
	ReturnType TypeNode // nil means inferred
	Body       []Stmt
	Pure       bool
}

type FuncArg struct {
	Name string
	Type TypeNode
}

func (f *FuncDecl) Position() Pos { return f.Pos }
func (f *FuncDecl) String() string {
	return fmt.Sprintf("fn %s(%d args)", f.Name, len(f.Args))
}
func (f *FuncDecl) exprNode() {} // function literals are expressions too

// OperatorDecl maps an operator token onto a function set.
type OperatorDecl struct {
	Pos        Pos
	Op         string
	IsPrefix   bool
	Precedence int
	FuncName   string
}

func (o *OperatorDecl) Position() Pos  { return o.Pos }
func (o *OperatorDecl) String() string { return "operator " + o.Op }

// ExportDecl re-exports a module-scope binding.
type ExportDecl struct {
	Pos  Pos
	Name string
}

func (e *ExportDecl) Position() Pos  { return e.Pos }
func (e *ExportDecl) String() string { return "export " + e.Name }

// HandlerDecl binds a function to an event: `on <event> fn (...) { ... }`.
type HandlerDecl struct {
	Pos   Pos
	Event string
	Fn    *FuncDecl
}

func (h *HandlerDecl) Position() Pos  { return h.Pos }
func (h *HandlerDecl) String() string { return "on " + h.Event }

// ---- Statements ----

type ConstStmt struct {
	Pos   Pos
	Name  string
	Type  TypeNode // nil means inferred
	Value Expr
}

func (c *ConstStmt) Position() Pos  { return c.Pos }
func (c *ConstStmt) String() string { return "const " + c.Name }
func (c *ConstStmt) stmtNode()      {}

type LetStmt struct {
	Pos   Pos
	Name  string
	Type  TypeNode
	Value Expr // nil when declared without an initializer
}

func (l *LetStmt) Position() Pos  { return l.Pos }
func (l *LetStmt) String() string { return "let " + l.Name }
func (l *LetStmt) stmtNode()      {}

type AssignStmt struct {
	Pos    Pos
	Target Expr // Identifier, FieldAccess, or IndexAccess
	Value  Expr
}

func (a *AssignStmt) Position() Pos  { return a.Pos }
func (a *AssignStmt) String() string { return "assign" }
func (a *AssignStmt) stmtNode()      {}

type IfStmt struct {
	Pos  Pos
	Cond Expr
	Then []Stmt
	Else []Stmt // may contain a single *IfStmt to model `else if`
}

func (i *IfStmt) Position() Pos  { return i.Pos }
func (i *IfStmt) String() string { return "if" }
func (i *IfStmt) stmtNode()      {}

type ReturnStmt struct {
	Pos   Pos
	Value Expr // nil for a bare `return`
}

func (r *ReturnStmt) Position() Pos  { return r.Pos }
func (r *ReturnStmt) String() string { return "return" }
func (r *ReturnStmt) stmtNode()      {}

type EmitStmt struct {
	Pos   Pos
	Event string
	Value Expr // nil for void events
}

func (e *EmitStmt) Position() Pos  { return e.Pos }
func (e *EmitStmt) String() string { return "emit " + e.Event }
func (e *EmitStmt) stmtNode()      {}

type ExitStmt struct {
	Pos  Pos
	Code Expr // nil means exit 0
}

func (e *ExitStmt) Position() Pos  { return e.Pos }
func (e *ExitStmt) String() string { return "exit" }
func (e *ExitStmt) stmtNode()      {}

// ExprStmt wraps a bare expression used for its side effect (a call).
type ExprStmt struct {
	Pos   Pos
	Value Expr
}

func (e *ExprStmt) Position() Pos  { return e.Pos }
func (e *ExprStmt) String() string { return "exprstmt" }
func (e *ExprStmt) stmtNode()      {}

// ---- Expressions ----

type Identifier struct {
	Pos  Pos
	Name string
}

func (i *Identifier) Position() Pos  { return i.Pos }
func (i *Identifier) String() string { return i.Name }
func (i *Identifier) exprNode()      {}

type LiteralKind int

const (
	IntLit LiteralKind = iota
	FloatLit
	StringLit
	BoolLit
	VoidLit
)

type Literal struct {
	Pos   Pos
	Kind  LiteralKind
	Value interface{}
}

func (l *Literal) Position() Pos  { return l.Pos }
func (l *Literal) String() string { return fmt.Sprintf("%v", l.Value) }
func (l *Literal) exprNode()      {}

// OperatorExpr is a flat sequence of operands interleaved with operator
// references, left unparenthesized by the parser; precedence resolution
// happens during lowering.
type OperatorExpr struct {
	Pos      Pos
	Operands []Expr
	Ops      []string // len(Ops) == len(Operands)-1
}

func (o *OperatorExpr) Position() Pos  { return o.Pos }
func (o *OperatorExpr) String() string { return "opexpr" }
func (o *OperatorExpr) exprNode()      {}

// PrefixExpr is a single prefix operator applied to an operand, e.g. `!x`.
type PrefixExpr struct {
	Pos     Pos
	Op      string
	Operand Expr
}

func (p *PrefixExpr) Position() Pos  { return p.Pos }
func (p *PrefixExpr) String() string { return p.Op + "<expr>" }
func (p *PrefixExpr) exprNode()      {}

// CallExpr is `callee(args...)`, possibly chained from a dotted prefix.
type CallExpr struct {
	Pos    Pos
	Callee Expr
	Args   []Expr
}

func (c *CallExpr) Position() Pos  { return c.Pos }
func (c *CallExpr) String() string { return "call" }
func (c *CallExpr) exprNode()      {}

// FieldAccess is `base.field`.
type FieldAccess struct {
	Pos   Pos
	Base  Expr
	Field string
}

func (f *FieldAccess) Position() Pos  { return f.Pos }
func (f *FieldAccess) String() string { return "." + f.Field }
func (f *FieldAccess) exprNode()      {}

// IndexAccess is `base[index]`.
type IndexAccess struct {
	Pos   Pos
	Base  Expr
	Index Expr
}

func (ix *IndexAccess) Position() Pos  { return ix.Pos }
func (ix *IndexAccess) String() string { return "index" }
func (ix *IndexAccess) exprNode()      {}

// ArrayLiteral is `[e1, e2, ...]`.
type ArrayLiteral struct {
	Pos      Pos
	Elements []Expr
}

func (a *ArrayLiteral) Position() Pos  { return a.Pos }
func (a *ArrayLiteral) String() string { return "arraylit" }
func (a *ArrayLiteral) exprNode()      {}

// ObjectLiteral is `TypeName{ field: e, ... }`.
type ObjectLiteral struct {
	Pos    Pos
	Type   TypeNode
	Fields []ObjectField
}

type ObjectField struct {
	Name  string
	Value Expr
}

func (o *ObjectLiteral) Position() Pos  { return o.Pos }
func (o *ObjectLiteral) String() string { return "objectlit" }
func (o *ObjectLiteral) exprNode()      {}

// TypeOfExpr is `typeof e`.
type TypeOfExpr struct {
	Pos  Pos
	Expr Expr
}

func (t *TypeOfExpr) Position() Pos  { return t.Pos }
func (t *TypeOfExpr) String() string { return "typeof" }
func (t *TypeOfExpr) exprNode()      {}

// ClosureExpr is an inline `fn (args) { ... }` expression.
type ClosureExpr struct {
	Pos Pos
	Fn  *FuncDecl
}

func (c *ClosureExpr) Position() Pos  { return c.Pos }
func (c *ClosureExpr) String() string { return "closure" }
func (c *ClosureExpr) exprNode()      {}
