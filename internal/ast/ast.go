// Package ast defines the GML syntax tree. Node kinds form a closed set
// distinguished by one discriminant, dispatched through lookup tables (see
// visitor.go) rather than per-kind method hierarchies.
//
// A node exclusively owns its children; parent references are non-owning
// back-links used only for upward scope-walking lookups and are never
// serialized.
package ast

import (
	"fmt"

	"github.com/SimulatorLife/gml-parser/internal/position"
)

// NodeKind is the discriminant over the closed node-kind set.
type NodeKind int

const (
	KindProgram NodeKind = iota
	KindBlock
	KindIfStatement
	KindWhileStatement
	KindDoUntilStatement
	KindRepeatStatement
	KindForStatement
	KindWithStatement
	KindSwitchStatement
	KindSwitchCase
	KindTryStatement
	KindThrowStatement
	KindReturnStatement
	KindExitStatement
	KindBreakStatement
	KindContinueStatement
	KindDeleteStatement
	KindAssignmentStatement
	KindExpressionStatement
	KindEmptyStatement
	KindVarDeclaration
	KindVariableDeclarator
	KindGlobalVarStatement
	KindEnumDeclaration
	KindEnumMember
	KindFunctionDeclaration
	KindParameter
	KindConstructorClause
	KindMacroDeclaration

	KindIdentifier
	KindLiteral
	KindTemplateString
	KindArrayLiteral
	KindStructLiteral
	KindStructProperty
	KindMemberExpression
	KindCallExpression
	KindNewExpression
	KindUnaryExpression
	KindBinaryExpression
	KindTernaryExpression
	KindParenExpression
	KindPreIncDecExpression
	KindPostIncDecExpression
	KindMissingArgument
)

var kindNames = map[NodeKind]string{
	KindProgram:              "Program",
	KindBlock:                "Block",
	KindIfStatement:          "IfStatement",
	KindWhileStatement:       "WhileStatement",
	KindDoUntilStatement:     "DoUntilStatement",
	KindRepeatStatement:      "RepeatStatement",
	KindForStatement:         "ForStatement",
	KindWithStatement:        "WithStatement",
	KindSwitchStatement:      "SwitchStatement",
	KindSwitchCase:           "SwitchCase",
	KindTryStatement:         "TryStatement",
	KindThrowStatement:       "ThrowStatement",
	KindReturnStatement:      "ReturnStatement",
	KindExitStatement:        "ExitStatement",
	KindBreakStatement:       "BreakStatement",
	KindContinueStatement:    "ContinueStatement",
	KindDeleteStatement:      "DeleteStatement",
	KindAssignmentStatement:  "AssignmentStatement",
	KindExpressionStatement:  "ExpressionStatement",
	KindEmptyStatement:       "EmptyStatement",
	KindVarDeclaration:       "VarDeclaration",
	KindVariableDeclarator:   "VariableDeclarator",
	KindGlobalVarStatement:   "GlobalVarStatement",
	KindEnumDeclaration:      "EnumDeclaration",
	KindEnumMember:           "EnumMember",
	KindFunctionDeclaration:  "FunctionDeclaration",
	KindParameter:            "Parameter",
	KindConstructorClause:    "ConstructorClause",
	KindMacroDeclaration:     "MacroDeclaration",
	KindIdentifier:           "Identifier",
	KindLiteral:              "Literal",
	KindTemplateString:       "TemplateString",
	KindArrayLiteral:         "ArrayLiteral",
	KindStructLiteral:        "StructLiteral",
	KindStructProperty:       "StructProperty",
	KindMemberExpression:     "MemberExpression",
	KindCallExpression:       "CallExpression",
	KindNewExpression:        "NewExpression",
	KindUnaryExpression:      "UnaryExpression",
	KindBinaryExpression:     "BinaryExpression",
	KindTernaryExpression:    "TernaryExpression",
	KindParenExpression:      "ParenExpression",
	KindPreIncDecExpression:  "PreIncDecExpression",
	KindPostIncDecExpression: "PostIncDecExpression",
	KindMissingArgument:      "MissingArgument",
}

// String returns the node kind name.
func (k NodeKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is implemented by every syntax tree node.
type Node interface {
	Kind() NodeKind
	// Span returns the node's source location, or nil for synthesized nodes.
	Span() *position.Span
	// Parent returns the non-owning back-reference set by SetParents.
	Parent() Node
	base() *Base
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Base carries the location and comment attachments shared by all nodes.
type Base struct {
	Loc      *position.Span `json:"loc,omitempty"`
	Leading  []*Comment     `json:"leadingComments,omitempty"`
	Trailing []*Comment     `json:"trailingComments,omitempty"`

	parent Node // non-owning; scope walking only
}

// Span returns the node's source location, or nil for synthesized nodes.
func (b *Base) Span() *position.Span { return b.Loc }

// Parent returns the enclosing node, or nil.
func (b *Base) Parent() Node { return b.parent }

func (b *Base) base() *Base { return b }

// AccessorKind distinguishes how a member expression's index should be
// interpreted by later passes.
type AccessorKind int

const (
	AccessorDot    AccessorKind = iota // a.b
	AccessorIndex                      // a[i]
	AccessorList                       // a[| i]
	AccessorMap                        // a[? k]
	AccessorGrid                       // a[# x, y]
	AccessorStruct                     // a[$ k]
	AccessorArray                      // a[@ i]
)

var accessorNames = map[AccessorKind]string{
	AccessorDot:    "dot",
	AccessorIndex:  "index",
	AccessorList:   "list",
	AccessorMap:    "map",
	AccessorGrid:   "grid",
	AccessorStruct: "struct",
	AccessorArray:  "array",
}

// String returns the accessor name.
func (a AccessorKind) String() string {
	if name, ok := accessorNames[a]; ok {
		return name
	}
	return fmt.Sprintf("AccessorKind(%d)", int(a))
}

// CommentKind distinguishes line and block comments.
type CommentKind int

const (
	CommentLine CommentKind = iota
	CommentBlock
)

// Comment is a classified comment attached to exactly one node (or to the
// program when no node can own it). Text is preserved verbatim, including
// doc-comment bodies — structured tag parsing is a collaborator's concern.
type Comment struct {
	CommentKind        CommentKind    `json:"kind"`
	Text               string         `json:"text"`
	LeadingWhitespace  string         `json:"leadingWhitespace"`
	TrailingWhitespace string         `json:"trailingWhitespace"`
	IsDoc              bool           `json:"isDoc"`
	Loc                *position.Span `json:"loc,omitempty"`

	owner Node // non-owning back-reference
}

// Owner returns the node the comment is attached to.
func (c *Comment) Owner() Node { return c.owner }

// SetOwner records the owning node.
func (c *Comment) SetOwner(n Node) { c.owner = n }

// WhitespaceRun is a retained inter-token whitespace run (exact text), kept
// so a formatter can decide how much of the original spacing to preserve.
type WhitespaceRun struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

// Program is the tree root.
type Program struct {
	Base
	Body       []Stmt          `json:"body"`
	Comments   []*Comment      `json:"comments,omitempty"`
	Whitespace []WhitespaceRun `json:"whitespace,omitempty"`
}

// Block is a `{}` (or `begin/end`) statement list.
type Block struct {
	Base
	Body []Stmt `json:"body"`
}

type IfStatement struct {
	Base
	Test       Expr `json:"test"`
	Consequent Stmt `json:"consequent"`
	Alternate  Stmt `json:"alternate,omitempty"`
}

type WhileStatement struct {
	Base
	Test Expr `json:"test"`
	Body Stmt `json:"body"`
}

type DoUntilStatement struct {
	Base
	Body Stmt `json:"body"`
	Test Expr `json:"test"`
}

type RepeatStatement struct {
	Base
	Count Expr `json:"count"`
	Body  Stmt `json:"body"`
}

type ForStatement struct {
	Base
	Init   Stmt `json:"init,omitempty"`
	Test   Expr `json:"test,omitempty"`
	Update Stmt `json:"update,omitempty"`
	Body   Stmt `json:"body"`
}

type WithStatement struct {
	Base
	Target Expr `json:"target"`
	Body   Stmt `json:"body"`
}

type SwitchStatement struct {
	Base
	Discriminant Expr          `json:"discriminant"`
	Cases        []*SwitchCase `json:"cases"`
}

// SwitchCase is one `case test:` arm; a nil Test is the default arm.
type SwitchCase struct {
	Base
	Test Expr   `json:"test,omitempty"`
	Body []Stmt `json:"body"`
}

type TryStatement struct {
	Base
	Block      *Block      `json:"block"`
	CatchParam *Identifier `json:"catchParam,omitempty"`
	Handler    *Block      `json:"handler,omitempty"`
	Finalizer  *Block      `json:"finalizer,omitempty"`
}

type ThrowStatement struct {
	Base
	Argument Expr `json:"argument"`
}

type ReturnStatement struct {
	Base
	Argument Expr `json:"argument,omitempty"`
}

type ExitStatement struct{ Base }

type BreakStatement struct{ Base }

type ContinueStatement struct{ Base }

type DeleteStatement struct {
	Base
	Argument Expr `json:"argument"`
}

// AssignmentStatement covers `=` and every compound assignment operator.
// Assignment is a statement-level construct, never an expression.
type AssignmentStatement struct {
	Base
	Operator string `json:"operator"`
	Target   Expr   `json:"target"`
	Value    Expr   `json:"value"`
}

type ExpressionStatement struct {
	Base
	Expression Expr `json:"expression"`
}

// EmptyStatement is a bare `;`.
type EmptyStatement struct{ Base }

// VarDeclaration is a `var`/`static` declaration list. Declarators stay a
// sequence even when exactly one is present.
type VarDeclaration struct {
	Base
	Declarators []*VariableDeclarator `json:"declarators"`
	Static      bool                  `json:"static,omitempty"`
}

type VariableDeclarator struct {
	Base
	Name *Identifier `json:"name"`
	Init Expr        `json:"init,omitempty"`
}

// GlobalVarStatement is the legacy `globalvar` declaration; its names
// register in the root scope.
type GlobalVarStatement struct {
	Base
	Names []*Identifier `json:"names"`
}

type EnumDeclaration struct {
	Base
	Name    *Identifier   `json:"name"`
	Members []*EnumMember `json:"members"`
}

type EnumMember struct {
	Base
	Name *Identifier `json:"name"`
	Init Expr        `json:"init,omitempty"`
}

// FunctionDeclaration is both a declaration and, with a nil Name, an
// anonymous function expression. A constructor may carry an inheritance
// clause naming the parent constructor and its call arguments.
type FunctionDeclaration struct {
	Base
	Name          *Identifier        `json:"name,omitempty"`
	Params        []*Parameter       `json:"params"`
	Body          *Block             `json:"body"`
	IsConstructor bool               `json:"isConstructor,omitempty"`
	Inherits      *ConstructorClause `json:"inherits,omitempty"`
}

type Parameter struct {
	Base
	Name    *Identifier `json:"name"`
	Default Expr        `json:"default,omitempty"`
}

// ConstructorClause is the `: Parent(args)` inheritance clause. The parent
// name cannot share the promoted Parent() accessor's name, hence ParentName.
type ConstructorClause struct {
	Base
	ParentName *Identifier `json:"parent"`
	Args       []Expr      `json:"args"`
}

// MacroDeclaration is a `#macro NAME value` directive. Value holds the raw
// replacement text verbatim; it is never re-parsed here.
type MacroDeclaration struct {
	Base
	Name       *Identifier `json:"name"`
	ConfigName string      `json:"configName,omitempty"`
	Value      string      `json:"value"`
}

// IdentifierMeta is the scope-derived annotation decorating an identifier
// occurrence. Role and ScopeID are produced by the scope tracker.
type IdentifierMeta struct {
	Role    string `json:"role"`
	ScopeID string `json:"scopeId"`
}

type Identifier struct {
	Base
	Name     string          `json:"name"`
	Metadata *IdentifierMeta `json:"identifierMetadata,omitempty"`
}

// LiteralKind refines literal tokens so later passes never re-scan bodies.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitDecimal
	LitHex
	LitBinary
	LitString
	LitVerbatimString
	LitBool
	LitUndefined
	LitNoone
	LitAll
)

var literalNames = map[LiteralKind]string{
	LitInt:            "int",
	LitDecimal:        "decimal",
	LitHex:            "hex",
	LitBinary:         "binary",
	LitString:         "string",
	LitVerbatimString: "verbatimString",
	LitBool:           "bool",
	LitUndefined:      "undefined",
	LitNoone:          "noone",
	LitAll:            "all",
}

// String returns the literal kind name.
func (k LiteralKind) String() string {
	if name, ok := literalNames[k]; ok {
		return name
	}
	return fmt.Sprintf("LiteralKind(%d)", int(k))
}

// Literal keeps the raw source text; no value analysis happens here.
type Literal struct {
	Base
	LiteralKind LiteralKind `json:"literalKind"`
	Raw         string      `json:"raw"`
}

/// TemplateString is a `$"..{expr}.."` literal: the raw text plus the parsed
// embedded expressions in order of appearance.
type TemplateString struct {
	Base
	Raw           string `json:"raw"`
	Substitutions []Expr `json:"substitutions"`
}

type ArrayLiteral struct {
	Base
	Elements []Expr `json:"elements"`
}

type StructLiteral struct {
	Base
	Properties []*StructProperty `json:"properties"`
}

// StructProperty is one `key: value` entry; Key is an identifier or a
// string literal.
type StructProperty struct {
	Base
	Key   Expr `json:"key"`
	Value Expr `json:"value"`
}

// MemberExpression folds every accessor form — dot access, plain bracket and
// the specialized container markers — into one node parameterized by
// AccessorKind. Property is set for dot access, Indices for the others
// (grid access carries two).
type MemberExpression struct {
	Base
	Object   Expr         `json:"object"`
	Accessor AccessorKind `json:"accessor"`
	Property *Identifier  `json:"property,omitempty"`
	Indices  []Expr       `json:"indices,omitempty"`
}

// CallExpression preserves call arity: elided arguments appear as
// MissingArgument placeholders, never silently dropped.
type CallExpression struct {
	Base
	Callee    Expr   `json:"callee"`
	Arguments []Expr `json:"arguments"`
}

type NewExpression struct {
	Base
	Callee    Expr   `json:"callee"`
	Arguments []Expr `json:"arguments"`
}

type UnaryExpression struct {
	Base
	Operator string `json:"operator"`
	Operand  Expr   `json:"operand"`
}

type BinaryExpression struct {
	Base
	Operator string `json:"operator"`
	Left     Expr   `json:"left"`
	Right    Expr   `json:"right"`
}

type TernaryExpression struct {
	Base
	Test       Expr `json:"test"`
	Consequent Expr `json:"consequent"`
	Alternate  Expr `json:"alternate"`
}

type ParenExpression struct {
	Base
	Expression Expr `json:"expression"`
}

// IncDecExpression is `++`/`--` applied to a target. Prefix and postfix
// forms are distinct node kinds sharing one shape.
type IncDecExpression struct {
	Base
	Operator string `json:"operator"`
	Target   Expr   `json:"target"`
	Prefix   bool   `json:"prefix"`
}

// MissingArgument is the placeholder for an elided call argument, preserving
// arity for legacy variadic-by-position idioms.
type MissingArgument struct{ Base }

func (*Program) Kind() NodeKind             { return KindProgram }
func (*Block) Kind() NodeKind               { return KindBlock }
func (*IfStatement) Kind() NodeKind         { return KindIfStatement }
func (*WhileStatement) Kind() NodeKind      { return KindWhileStatement }
func (*DoUntilStatement) Kind() NodeKind    { return KindDoUntilStatement }
func (*RepeatStatement) Kind() NodeKind     { return KindRepeatStatement }
func (*ForStatement) Kind() NodeKind        { return KindForStatement }
func (*WithStatement) Kind() NodeKind       { return KindWithStatement }
func (*SwitchStatement) Kind() NodeKind     { return KindSwitchStatement }
func (*SwitchCase) Kind() NodeKind          { return KindSwitchCase }
func (*TryStatement) Kind() NodeKind        { return KindTryStatement }
func (*ThrowStatement) Kind() NodeKind      { return KindThrowStatement }
func (*ReturnStatement) Kind() NodeKind     { return KindReturnStatement }
func (*ExitStatement) Kind() NodeKind       { return KindExitStatement }
func (*BreakStatement) Kind() NodeKind      { return KindBreakStatement }
func (*ContinueStatement) Kind() NodeKind   { return KindContinueStatement }
func (*DeleteStatement) Kind() NodeKind     { return KindDeleteStatement }
func (*AssignmentStatement) Kind() NodeKind { return KindAssignmentStatement }
func (*ExpressionStatement) Kind() NodeKind { return KindExpressionStatement }
func (*EmptyStatement) Kind() NodeKind      { return KindEmptyStatement }
func (*VarDeclaration) Kind() NodeKind      { return KindVarDeclaration }
func (*VariableDeclarator) Kind() NodeKind  { return KindVariableDeclarator }
func (*GlobalVarStatement) Kind() NodeKind  { return KindGlobalVarStatement }
func (*EnumDeclaration) Kind() NodeKind     { return KindEnumDeclaration }
func (*EnumMember) Kind() NodeKind          { return KindEnumMember }
func (*FunctionDeclaration) Kind() NodeKind { return KindFunctionDeclaration }
func (*Parameter) Kind() NodeKind           { return KindParameter }
func (*ConstructorClause) Kind() NodeKind   { return KindConstructorClause }
func (*MacroDeclaration) Kind() NodeKind    { return KindMacroDeclaration }
func (*Identifier) Kind() NodeKind          { return KindIdentifier }
func (*Literal) Kind() NodeKind             { return KindLiteral }
func (*TemplateString) Kind() NodeKind      { return KindTemplateString }
func (*ArrayLiteral) Kind() NodeKind        { return KindArrayLiteral }
func (*StructLiteral) Kind() NodeKind       { return KindStructLiteral }
func (*StructProperty) Kind() NodeKind      { return KindStructProperty }
func (*MemberExpression) Kind() NodeKind    { return KindMemberExpression }
func (*CallExpression) Kind() NodeKind      { return KindCallExpression }
func (*NewExpression) Kind() NodeKind       { return KindNewExpression }
func (*UnaryExpression) Kind() NodeKind     { return KindUnaryExpression }
func (*BinaryExpression) Kind() NodeKind    { return KindBinaryExpression }
func (*TernaryExpression) Kind() NodeKind   { return KindTernaryExpression }
func (*ParenExpression) Kind() NodeKind     { return KindParenExpression }
func (*MissingArgument) Kind() NodeKind     { return KindMissingArgument }

// Kind distinguishes the prefix and postfix forms as separate node kinds.
func (e *IncDecExpression) Kind() NodeKind {
	if e.Prefix {
		return KindPreIncDecExpression
	}
	return KindPostIncDecExpression
}

func (*Block) stmtNode()               {}
func (*IfStatement) stmtNode()         {}
func (*WhileStatement) stmtNode()      {}
func (*DoUntilStatement) stmtNode()    {}
func (*RepeatStatement) stmtNode()     {}
func (*ForStatement) stmtNode()        {}
func (*WithStatement) stmtNode()       {}
func (*SwitchStatement) stmtNode()     {}
func (*TryStatement) stmtNode()        {}
func (*ThrowStatement) stmtNode()      {}
func (*ReturnStatement) stmtNode()     {}
func (*ExitStatement) stmtNode()       {}
func (*BreakStatement) stmtNode()      {}
func (*ContinueStatement) stmtNode()   {}
func (*DeleteStatement) stmtNode()     {}
func (*AssignmentStatement) stmtNode() {}
func (*ExpressionStatement) stmtNode() {}
func (*EmptyStatement) stmtNode()      {}
func (*VarDeclaration) stmtNode()      {}
func (*GlobalVarStatement) stmtNode()  {}
func (*EnumDeclaration) stmtNode()     {}
func (*FunctionDeclaration) stmtNode() {}
func (*MacroDeclaration) stmtNode()    {}

func (*Identifier) exprNode()          {}
func (*Literal) exprNode()             {}
func (*TemplateString) exprNode()      {}
func (*ArrayLiteral) exprNode()        {}
func (*StructLiteral) exprNode()       {}
func (*MemberExpression) exprNode()    {}
func (*CallExpression) exprNode()      {}
func (*NewExpression) exprNode()       {}
func (*UnaryExpression) exprNode()     {}
func (*BinaryExpression) exprNode()    {}
func (*TernaryExpression) exprNode()   {}
func (*ParenExpression) exprNode()     {}
func (*IncDecExpression) exprNode()    {}
func (*MissingArgument) exprNode()     {}
func (*FunctionDeclaration) exprNode() {} // anonymous function expressions

// AddLeading attaches a leading comment to the node.
func AddLeading(n Node, c *Comment) {
	b := n.base()
	b.Leading = append(b.Leading, c)
	c.SetOwner(n)
}

// AddTrailing attaches a trailing comment to the node.
func AddTrailing(n Node, c *Comment) {
	b := n.base()
	b.Trailing = append(b.Trailing, c)
	c.SetOwner(n)
}
