package scope

import (
	"github.com/SimulatorLife/gml-parser/internal/ast"
	"github.com/SimulatorLife/gml-parser/internal/lang"
)

// Tracker maintains the scope stack during a tree walk and keeps every
// created scope addressable by ID for override resolution afterwards.
type Tracker struct {
	root    *Scope
	current *Scope
	byID    map[string]*Scope
}

// NewTracker creates a tracker positioned in a fresh root scope.
func NewTracker() *Tracker {
	root := newScope(KindRoot, nil)
	return &Tracker{
		root:    root,
		current: root,
		byID:    map[string]*Scope{root.ID: root},
	}
}

// Root returns the script-level scope.
func (t *Tracker) Root() *Scope { return t.root }

// Current returns the scope at the top of the stack.
func (t *Tracker) Current() *Scope { return t.current }

// Push enters a new scope nested in the current one.
func (t *Tracker) Push(kind Kind) *Scope {
	sc := newScope(kind, t.current)
	t.byID[sc.ID] = sc
	t.current = sc
	return sc
}

// Pop leaves the current scope. Popping the root is an invariant violation
// in the walk driving the tracker, so it is simply ignored here.
func (t *Tracker) Pop() {
	if t.current.Parent != nil {
		t.current = t.current.Parent
	}
}

// ByID returns a scope created during the walk.
func (t *Tracker) ByID(id string) (*Scope, bool) {
	sc, ok := t.byID[id]
	return sc, ok
}

// Resolve looks name up from the current scope outward. Undeclared names
// fall back to the builtin table; a name known nowhere stays unresolved —
// implicit globals are never registered on the caller's behalf.
func (t *Tracker) Resolve(name string) (Role, *Scope) {
	if role, sc := t.current.Lookup(name); sc != nil {
		return role, sc
	}
	if lang.IsBuiltin(name) {
		return RoleBuiltin, nil
	}
	return RoleUnresolved, nil
}

// ResolveOverride resolves name against an explicit target instead of the
// current scope: the literal keyword "global" for the root scope, or the ID
// of any scope the tracker created. An unknown target is caller misuse.
func (t *Tracker) ResolveOverride(name, target string) (Role, *Scope, error) {
	switch {
	case target == lang.GlobalKeyword:
		if role, ok := t.root.Declarations[name]; ok {
			return role, t.root, nil
		}
		return RoleUnresolved, nil, nil
	case target == "":
		return RoleUnresolved, nil, &MisuseError{Target: target, Message: "empty resolution target"}
	default:
		sc, ok := t.byID[target]
		if !ok {
			return RoleUnresolved, nil, &MisuseError{Target: target, Message: "no such scope"}
		}
		role, found := sc.Lookup(name)
		return role, found, nil
	}
}

// Annotate walks the program, building its scope tree and decorating every
// identifier occurrence with role and owning-scope metadata. The returned
// tracker gives callers override resolution over the same scope tree.
func Annotate(prog *ast.Program) (*Tracker, error) {
	t := NewTracker()
	t.hoist(prog)

	var stack []ast.Node
	parentOf := func() ast.Node {
		// The identifier itself is already on the stack when its hook runs.
		if len(stack) < 2 {
			return nil
		}
		return stack[len(stack)-2]
	}

	l := &ast.Listener{
		EnterAny: func(n ast.Node) { stack = append(stack, n) },
		ExitAny:  func(ast.Node) { stack = stack[:len(stack)-1] },
		Enter: map[ast.NodeKind]func(ast.Node){
			ast.KindFunctionDeclaration: func(n ast.Node) {
				fn := n.(*ast.FunctionDeclaration)
				if fn.Name != nil {
					t.current.Declare(fn.Name.Name, RoleFunction)
				}
				kind := KindFunction
				if fn.IsConstructor {
					kind = KindStruct
				}
				t.Push(kind)
				for _, p := range fn.Params {
					if p.Name != nil {
						t.current.Declare(p.Name.Name, RoleParameter)
					}
				}
			},
			ast.KindVariableDeclarator: func(n ast.Node) {
				d := n.(*ast.VariableDeclarator)
				if d.Name != nil {
					t.current.Declare(d.Name.Name, RoleLocal)
				}
			},
			ast.KindGlobalVarStatement: func(n ast.Node) {
				for _, id := range n.(*ast.GlobalVarStatement).Names {
					t.root.Declare(id.Name, RoleGlobal)
				}
			},
			ast.KindEnumDeclaration: func(n ast.Node) {
				decl := n.(*ast.EnumDeclaration)
				if decl.Name != nil {
					t.root.Declare(decl.Name.Name, RoleEnum)
				}
			},
			ast.KindMacroDeclaration: func(n ast.Node) {
				decl := n.(*ast.MacroDeclaration)
				if decl.Name != nil {
					t.root.Declare(decl.Name.Name, RoleMacro)
				}
			},
			ast.KindTryStatement: func(n ast.Node) {
				try := n.(*ast.TryStatement)
				if try.CatchParam != nil {
					t.current.Declare(try.CatchParam.Name, RoleLocal)
				}
			},
			ast.KindIdentifier: func(n ast.Node) {
				t.annotate(n.(*ast.Identifier), parentOf())
			},
		},
		Exit: map[ast.NodeKind]func(ast.Node){
			ast.KindFunctionDeclaration: func(ast.Node) { t.Pop() },
		},
	}
	if err := l.Walk(prog); err != nil {
		return nil, err
	}
	return t, nil
}

// hoist pre-registers script-level declarations so references ahead of the
// declaring statement still resolve.
func (t *Tracker) hoist(prog *ast.Program) {
	for _, stmt := range prog.Body {
		switch s := stmt.(type) {
		case *ast.FunctionDeclaration:
			if s.Name != nil {
				t.root.Declare(s.Name.Name, RoleFunction)
			}
		case *ast.EnumDeclaration:
			if s.Name != nil {
				t.root.Declare(s.Name.Name, RoleEnum)
			}
		case *ast.MacroDeclaration:
			if s.Name != nil {
				t.root.Declare(s.Name.Name, RoleMacro)
			}
		case *ast.GlobalVarStatement:
			for _, id := range s.Names {
				t.root.Declare(id.Name, RoleGlobal)
			}
		}
	}
}

// annotate decorates one identifier occurrence.
func (t *Tracker) annotate(id *ast.Identifier, parent ast.Node) {
	switch p := parent.(type) {
	case *ast.MemberExpression:
		if p.Property == id {
			if obj, ok := p.Object.(*ast.Identifier); ok && obj.Name == lang.GlobalKeyword {
				// global.name declares the variable on first touch.
				t.root.Declare(id.Name, RoleGlobal)
				setMeta(id, RoleGlobal, t.root.ID)
				return
			}
			setMeta(id, RoleProperty, "")
			return
		}
	case *ast.StructProperty:
		if p.Key == ast.Expr(id) {
			setMeta(id, RoleProperty, "")
			return
		}
	case *ast.EnumMember:
		if p.Name == id {
			setMeta(id, RoleEnum, t.root.ID)
			return
		}
	}

	if id.Name == lang.GlobalKeyword {
		setMeta(id, RoleGlobal, t.root.ID)
		return
	}

	role, sc := t.Resolve(id.Name)
	scopeID := ""
	if sc != nil {
		scopeID = sc.ID
	}
	setMeta(id, role, scopeID)
}

func setMeta(id *ast.Identifier, role Role, scopeID string) {
	id.Metadata = &ast.IdentifierMeta{Role: role.String(), ScopeID: scopeID}
}
