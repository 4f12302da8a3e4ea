// Package printer renders a syntax tree back to canonical source text. The
// output is deliberately normalized — one statement per line, uniform
// spacing — and always reparses to an equivalent tree, which is what the
// round-trip tests rely on.
package printer

import (
	"strings"

	"github.com/SimulatorLife/gml-parser/internal/ast"
)

// Options controls the rendered style.
type Options struct {
	// IndentSize is the number of spaces per nesting level.
	IndentSize int
	// PreferTabs uses one tab per level instead of spaces.
	PreferTabs bool
}

// DefaultOptions returns the canonical style.
func DefaultOptions() Options {
	return Options{IndentSize: 4}
}

// Printer renders nodes into an internal buffer.
type Printer struct {
	options Options
	indent  int
	buffer  strings.Builder
}

// New creates a printer with the given options.
func New(options Options) *Printer {
	if options.IndentSize <= 0 && !options.PreferTabs {
		options.IndentSize = 4
	}
	return &Printer{options: options}
}

// Print renders the tree rooted at node and returns the source text.
func (p *Printer) Print(node ast.Node) string {
	p.buffer.Reset()
	p.indent = 0
	if node != nil {
		p.printNode(node)
	}
	return p.buffer.String()
}

func (p *Printer) write(s string) { p.buffer.WriteString(s) }

func (p *Printer) writeIndent() {
	if p.options.PreferTabs {
		p.write(strings.Repeat("\t", p.indent))
		return
	}
	p.write(strings.Repeat(" ", p.indent*p.options.IndentSize))
}

func (p *Printer) printNode(n ast.Node) {
	switch n := n.(type) {
	case *ast.Program:
		for i, s := range n.Body {
			if i > 0 {
				p.write("\n")
			}
			p.writeIndent()
			p.printStmt(s)
		}
		p.write("\n")
	case ast.Stmt:
		p.printStmt(n)
	case ast.Expr:
		p.printExpr(n)
	}
}

func (p *Printer) printStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Block:
		p.printBlock(s)
	case *ast.IfStatement:
		p.write("if ")
		p.printExpr(s.Test)
		p.write(" ")
		p.printBodyStmt(s.Consequent)
		if s.Alternate != nil {
			p.write(" else ")
			p.printBodyStmt(s.Alternate)
		}
	case *ast.WhileStatement:
		p.write("while ")
		p.printExpr(s.Test)
		p.write(" ")
		p.printBodyStmt(s.Body)
	case *ast.DoUntilStatement:
		p.write("do ")
		p.printBodyStmt(s.Body)
		p.write(" until ")
		p.printExpr(s.Test)
		p.write(";")
	case *ast.RepeatStatement:
		p.write("repeat ")
		p.printExpr(s.Count)
		p.write(" ")
		p.printBodyStmt(s.Body)
	case *ast.ForStatement:
		p.write("for (")
		if s.Init != nil {
			p.printClause(s.Init)
		}
		p.write("; ")
		if s.Test != nil {
			p.printExpr(s.Test)
		}
		p.write("; ")
		if s.Update != nil {
			p.printClause(s.Update)
		}
		p.write(") ")
		p.printBodyStmt(s.Body)
	case *ast.WithStatement:
		p.write("with ")
		p.printExpr(s.Target)
		p.write(" ")
		p.printBodyStmt(s.Body)
	case *ast.SwitchStatement:
		p.write("switch ")
		p.printExpr(s.Discriminant)
		p.write(" {\n")
		for _, c := range s.Cases {
			p.writeIndent()
			if c.Test != nil {
				p.write("case ")
				p.printExpr(c.Test)
				p.write(":\n")
			} else {
				p.write("default:\n")
			}
			p.indent++
			for _, b := range c.Body {
				p.writeIndent()
				p.printStmt(b)
				p.write("\n")
			}
			p.indent--
		}
		p.writeIndent()
		p.write("}")
	case *ast.TryStatement:
		p.write("try ")
		p.printBlock(s.Block)
		if s.Handler != nil {
			p.write(" catch (")
			if s.CatchParam != nil {
				p.write(s.CatchParam.Name)
			}
			p.write(") ")
			p.printBlock(s.Handler)
		}
		if s.Finalizer != nil {
			p.write(" finally ")
			p.printBlock(s.Finalizer)
		}
	case *ast.ThrowStatement:
		p.write("throw ")
		p.printExpr(s.Argument)
		p.write(";")
	case *ast.ReturnStatement:
		p.write("return")
		if s.Argument != nil {
			p.write(" ")
			p.printExpr(s.Argument)
		}
		p.write(";")
	case *ast.EmptyStatement:
		p.write(";")
	case *ast.ExitStatement:
		p.write("exit;")
	case *ast.BreakStatement:
		p.write("break;")
	case *ast.ContinueStatement:
		p.write("continue;")
	case *ast.DeleteStatement:
		p.write("delete ")
		p.printExpr(s.Argument)
		p.write(";")
	case *ast.AssignmentStatement:
		p.printClause(s)
		p.write(";")
	case *ast.ExpressionStatement:
		p.printExpr(s.Expression)
		p.write(";")
	case *ast.VarDeclaration:
		p.printClause(s)
		p.write(";")
	case *ast.GlobalVarStatement:
		p.write("globalvar ")
		for i, id := range s.Names {
			if i > 0 {
				p.write(", ")
			}
			p.write(id.Name)
		}
		p.write(";")
	case *ast.EnumDeclaration:
		p.write("enum ")
		p.write(s.Name.Name)
		p.write(" {\n")
		p.indent++
		for _, m := range s.Members {
			p.writeIndent()
			p.write(m.Name.Name)
			if m.Init != nil {
				p.write(" = ")
				p.printExpr(m.Init)
			}
			p.write(",\n")
		}
		p.indent--
		p.writeIndent()
		p.write("}")
	case *ast.FunctionDeclaration:
		p.printFunction(s)
	case *ast.MacroDeclaration:
		p.write("#macro ")
		if s.ConfigName != "" {
			p.write(s.ConfigName)
			p.write(":")
		}
		p.write(s.Name.Name)
		if s.Value != "" {
			p.write(" ")
			p.write(s.Value)
		}
	}
}

// printBodyStmt prints a statement used as a control-flow body.
func (p *Printer) printBodyStmt(s ast.Stmt) {
	p.printStmt(s)
}

// printClause prints a statement without its terminator, as inside a for
// header.
func (p *Printer) printClause(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.AssignmentStatement:
		p.printExpr(s.Target)
		p.write(" ")
		p.write(s.Operator)
		p.write(" ")
		p.printExpr(s.Value)
	case *ast.ExpressionStatement:
		p.printExpr(s.Expression)
	case *ast.VarDeclaration:
		if s.Static {
			p.write("static ")
		} else {
			p.write("var ")
		}
		for i, d := range s.Declarators {
			if i > 0 {
				p.write(", ")
			}
			p.write(d.Name.Name)
			if d.Init != nil {
				p.write(" = ")
				p.printExpr(d.Init)
			}
		}
	default:
		p.printStmt(s)
	}
}

func (p *Printer) printBlock(b *ast.Block) {
	if b == nil || len(b.Body) == 0 {
		p.write("{ }")
		return
	}
	p.write("{\n")
	p.indent++
	for _, s := range b.Body {
		p.writeIndent()
		p.printStmt(s)
		p.write("\n")
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *Printer) printFunction(fn *ast.FunctionDeclaration) {
	p.write("function")
	if fn.Name != nil {
		p.write(" ")
		p.write(fn.Name.Name)
	}
	p.write("(")
	for i, param := range fn.Params {
		if i > 0 {
			p.write(", ")
		}
		p.write(param.Name.Name)
		if param.Default != nil {
			p.write(" = ")
			p.printExpr(param.Default)
		}
	}
	p.write(")")
	if fn.Inherits != nil {
		p.write(" : ")
		p.write(fn.Inherits.ParentName.Name)
		p.write("(")
		p.printArguments(fn.Inherits.Args)
		p.write(")")
	}
	if fn.IsConstructor {
		p.write(" constructor")
	}
	p.write(" ")
	p.printBlock(fn.Body)
}

func (p *Printer) printExpr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Identifier:
		p.write(e.Name)
	case *ast.Literal:
		p.write(e.Raw)
	case *ast.TemplateString:
		p.write(e.Raw)
	case *ast.ArrayLiteral:
		p.write("[")
		p.printArguments(e.Elements)
		p.write("]")
	case *ast.StructLiteral:
		if len(e.Properties) == 0 {
			p.write("{ }")
			return
		}
		p.write("{ ")
		for i, prop := range e.Properties {
			if i > 0 {
				p.write(", ")
			}
			p.printExpr(prop.Key)
			p.write(": ")
			p.printExpr(prop.Value)
		}
		p.write(" }")
	case *ast.ParenExpression:
		p.write("(")
		p.printExpr(e.Expression)
		p.write(")")
	case *ast.UnaryExpression:
		p.write(e.Operator)
		if isWordOperator(e.Operator) {
			p.write(" ")
		}
		p.printOperand(e.Operand)
	case *ast.BinaryExpression:
		p.printOperand(e.Left)
		p.write(" ")
		p.write(e.Operator)
		p.write(" ")
		p.printOperand(e.Right)
	case *ast.TernaryExpression:
		p.printOperand(e.Test)
		p.write(" ? ")
		p.printExpr(e.Consequent)
		p.write(" : ")
		p.printExpr(e.Alternate)
	case *ast.IncDecExpression:
		if e.Prefix {
			p.write(e.Operator)
			p.printExpr(e.Target)
		} else {
			p.printExpr(e.Target)
			p.write(e.Operator)
		}
	case *ast.MemberExpression:
		p.printExpr(e.Object)
		if e.Accessor == ast.AccessorDot {
			p.write(".")
			p.write(e.Property.Name)
			return
		}
		p.write(accessorOpen(e.Accessor))
		p.printArguments(e.Indices)
		p.write("]")
	case *ast.CallExpression:
		p.printExpr(e.Callee)
		p.write("(")
		p.printArguments(e.Arguments)
		p.write(")")
	case *ast.NewExpression:
		p.write("new ")
		p.printExpr(e.Callee)
		p.write("(")
		p.printArguments(e.Arguments)
		p.write(")")
	case *ast.FunctionDeclaration:
		p.printFunction(e)
	case *ast.MissingArgument:
		// Rendered by printArguments as an elided slot.
	}
}

// printOperand parenthesizes nested binary and ternary operands so the
// rendered text reparses with the same structure regardless of precedence.
func (p *Printer) printOperand(e ast.Expr) {
	switch e.(type) {
	case *ast.BinaryExpression, *ast.TernaryExpression:
		p.write("(")
		p.printExpr(e)
		p.write(")")
	default:
		p.printExpr(e)
	}
}

// printArguments renders a comma list, keeping elided-argument slots: a
// MissingArgument contributes nothing between its commas, and a trailing
// one gets an extra comma so arity survives a reparse.
func (p *Printer) printArguments(args []ast.Expr) {
	for i, a := range args {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(a)
	}
	if len(args) > 0 {
		if _, ok := args[len(args)-1].(*ast.MissingArgument); ok {
			p.write(",")
		}
	}
}

func isWordOperator(op string) bool {
	return len(op) > 0 && op[0] >= 'a' && op[0] <= 'z'
}

func accessorOpen(a ast.AccessorKind) string {
	switch a {
	case ast.AccessorList:
		return "[| "
	case ast.AccessorMap:
		return "[? "
	case ast.AccessorGrid:
		return "[# "
	case ast.AccessorStruct:
		return "[$ "
	case ast.AccessorArray:
		return "[@ "
	default:
		return "["
	}
}
