// Traversal dispatch framework. Both traversal shapes — the visitor with
// caller-controlled recursion and the enter/exit listener — dispatch through
// one table keyed by node kind; no per-kind method synthesis.
package ast

import "fmt"

// DefaultMaxDepth caps traversal depth. Exceeding it is an internal
// invariant violation and always fatal, never a silent truncation.
const DefaultMaxDepth = 10000

// InvariantError reports a defensive invariant violation during traversal.
type InvariantError struct {
	Message string
	Depth   int
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal invariant violation: %s (depth %d)", e.Message, e.Depth)
}

// Children returns a node's children in declaration order. Nil children are
// skipped so the result is safe to range over.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		// Typed-nil interface values from nil struct pointers are filtered
		// by the callers below before reaching here.
		if c != nil {
			out = append(out, c)
		}
	}
	addExpr := func(c Expr) {
		if c != nil {
			add(c)
		}
	}
	addStmt := func(c Stmt) {
		if c != nil {
			add(c)
		}
	}

	switch n := n.(type) {
	case *Program:
		for _, s := range n.Body {
			addStmt(s)
		}
	case *Block:
		for _, s := range n.Body {
			addStmt(s)
		}
	case *IfStatement:
		addExpr(n.Test)
		addStmt(n.Consequent)
		addStmt(n.Alternate)
	case *WhileStatement:
		addExpr(n.Test)
		addStmt(n.Body)
	case *DoUntilStatement:
		addStmt(n.Body)
		addExpr(n.Test)
	case *RepeatStatement:
		addExpr(n.Count)
		addStmt(n.Body)
	case *ForStatement:
		addStmt(n.Init)
		addExpr(n.Test)
		addStmt(n.Update)
		addStmt(n.Body)
	case *WithStatement:
		addExpr(n.Target)
		addStmt(n.Body)
	case *SwitchStatement:
		addExpr(n.Discriminant)
		for _, c := range n.Cases {
			if c != nil {
				add(c)
			}
		}
	case *SwitchCase:
		addExpr(n.Test)
		for _, s := range n.Body {
			addStmt(s)
		}
	case *TryStatement:
		if n.Block != nil {
			add(n.Block)
		}
		if n.CatchParam != nil {
			add(n.CatchParam)
		}
		if n.Handler != nil {
			add(n.Handler)
		}
		if n.Finalizer != nil {
			add(n.Finalizer)
		}
	case *ThrowStatement:
		addExpr(n.Argument)
	case *ReturnStatement:
		addExpr(n.Argument)
	case *DeleteStatement:
		addExpr(n.Argument)
	case *AssignmentStatement:
		addExpr(n.Target)
		addExpr(n.Value)
	case *ExpressionStatement:
		addExpr(n.Expression)
	case *VarDeclaration:
		for _, d := range n.Declarators {
			if d != nil {
				add(d)
			}
		}
	case *VariableDeclarator:
		if n.Name != nil {
			add(n.Name)
		}
		addExpr(n.Init)
	case *GlobalVarStatement:
		for _, id := range n.Names {
			if id != nil {
				add(id)
			}
		}
	case *EnumDeclaration:
		if n.Name != nil {
			add(n.Name)
		}
		for _, m := range n.Members {
			if m != nil {
				add(m)
			}
		}
	case *EnumMember:
		if n.Name != nil {
			add(n.Name)
		}
		addExpr(n.Init)
	case *FunctionDeclaration:
		if n.Name != nil {
			add(n.Name)
		}
		for _, p := range n.Params {
			if p != nil {
				add(p)
			}
		}
		if n.Inherits != nil {
			add(n.Inherits)
		}
		if n.Body != nil {
			add(n.Body)
		}
	case *Parameter:
		if n.Name != nil {
			add(n.Name)
		}
		addExpr(n.Default)
	case *ConstructorClause:
		if n.ParentName != nil {
			add(n.ParentName)
		}
		for _, a := range n.Args {
			addExpr(a)
		}
	case *MacroDeclaration:
		if n.Name != nil {
			add(n.Name)
		}
	case *TemplateString:
		for _, s := range n.Substitutions {
			addExpr(s)
		}
	case *ArrayLiteral:
		for _, e := range n.Elements {
			addExpr(e)
		}
	case *StructLiteral:
		for _, p := range n.Properties {
			if p != nil {
				add(p)
			}
		}
	case *StructProperty:
		addExpr(n.Key)
		addExpr(n.Value)
	case *MemberExpression:
		addExpr(n.Object)
		if n.Property != nil {
			add(n.Property)
		}
		for _, i := range n.Indices {
			addExpr(i)
		}
	case *CallExpression:
		addExpr(n.Callee)
		for _, a := range n.Arguments {
			addExpr(a)
		}
	case *NewExpression:
		addExpr(n.Callee)
		for _, a := range n.Arguments {
			addExpr(a)
		}
	case *UnaryExpression:
		addExpr(n.Operand)
	case *BinaryExpression:
		addExpr(n.Left)
		addExpr(n.Right)
	case *TernaryExpression:
		addExpr(n.Test)
		addExpr(n.Consequent)
		addExpr(n.Alternate)
	case *ParenExpression:
		addExpr(n.Expression)
	case *IncDecExpression:
		addExpr(n.Target)
	}
	return out
}

// VisitFunc handles one node. Recursion is caller-controlled: descend into
// children with w.Descend(n), or skip them by returning without it.
type VisitFunc func(w *Walker, n Node) error

// Visitor dispatches a single call per node kind through one handler table.
// Kinds without a handler fall back to Default; a nil Default recurses into
// children in declaration order.
type Visitor struct {
	Handlers map[NodeKind]VisitFunc
	Default  VisitFunc
	MaxDepth int // zero means DefaultMaxDepth
}

// Walker carries traversal state for a single Visit call.
type Walker struct {
	visitor  *Visitor
	depth    int
	maxDepth int
}

// Visit walks the tree rooted at n, dispatching through the handler table.
func (v *Visitor) Visit(n Node) error {
	maxDepth := v.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	w := &Walker{visitor: v, maxDepth: maxDepth}
	return w.visit(n)
}

func (w *Walker) visit(n Node) error {
	if n == nil {
		return nil
	}
	if w.depth >= w.maxDepth {
		return &InvariantError{Message: "traversal depth cap exceeded", Depth: w.depth}
	}
	w.depth++
	defer func() { w.depth-- }()

	if h, ok := w.visitor.Handlers[n.Kind()]; ok {
		return h(w, n)
	}
	if w.visitor.Default != nil {
		return w.visitor.Default(w, n)
	}
	return w.Descend(n)
}

// Descend visits the node's children in declaration order.
func (w *Walker) Descend(n Node) error {
	for _, c := range Children(n) {
		if err := w.visit(c); err != nil {
			return err
		}
	}
	return nil
}

// Listener receives paired enter/exit calls during a depth-first walk:
// exactly one Enter before, and one Exit after, visiting all descendants.
type Listener struct {
	Enter map[NodeKind]func(Node)
	Exit  map[NodeKind]func(Node)

	// EnterAny and ExitAny run for every node, before the per-kind hook on
	// enter and after it on exit.
	EnterAny func(Node)
	ExitAny  func(Node)

	MaxDepth int // zero means DefaultMaxDepth
}

// Walk drives the listener over the tree rooted at n.
func (l *Listener) Walk(n Node) error {
	maxDepth := l.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return l.walk(n, 0, maxDepth)
}

func (l *Listener) walk(n Node, depth, maxDepth int) error {
	if n == nil {
		return nil
	}
	if depth >= maxDepth {
		return &InvariantError{Message: "traversal depth cap exceeded", Depth: depth}
	}

	if l.EnterAny != nil {
		l.EnterAny(n)
	}
	if h, ok := l.Enter[n.Kind()]; ok {
		h(n)
	}

	for _, c := range Children(n) {
		if err := l.walk(c, depth+1, maxDepth); err != nil {
			return err
		}
	}

	if h, ok := l.Exit[n.Kind()]; ok {
		h(n)
	}
	if l.ExitAny != nil {
		l.ExitAny(n)
	}
	return nil
}

// SetParents installs the non-owning parent back-references used by upward
// scope-walking lookups. Ownership still flows strictly downward.
func SetParents(root Node) error {
	var stack []Node
	l := &Listener{
		EnterAny: func(n Node) {
			if len(stack) > 0 {
				n.base().parent = stack[len(stack)-1]
			}
			stack = append(stack, n)
		},
		ExitAny: func(Node) {
			stack = stack[:len(stack)-1]
		},
	}
	return l.Walk(root)
}
