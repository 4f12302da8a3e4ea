// Package scope tracks lexical scopes across a parsed program and decorates
// identifier occurrences with their resolved role and owning scope.
package scope

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind represents the kind of scope.
type Kind int

const (
	// KindRoot is the script-level scope. Resolution terminates here.
	KindRoot Kind = iota
	// KindFunction is the body of a plain function.
	KindFunction
	// KindStruct is the body of a constructor function.
	KindStruct
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindFunction:
		return "function"
	case KindStruct:
		return "struct"
	default:
		return "unknown"
	}
}

// Role classifies what an identifier occurrence refers to.
type Role int

const (
	RoleUnresolved Role = iota
	RoleLocal
	RoleParameter
	RoleFunction
	RoleEnum
	RoleMacro
	RoleGlobal
	RoleBuiltin
	// RoleProperty marks dot-access and struct-key identifiers, which name
	// members of a runtime value and never resolve lexically.
	RoleProperty
)

// String returns the string representation of Role.
func (r Role) String() string {
	switch r {
	case RoleUnresolved:
		return "unresolved"
	case RoleLocal:
		return "local"
	case RoleParameter:
		return "parameter"
	case RoleFunction:
		return "function"
	case RoleEnum:
		return "enum"
	case RoleMacro:
		return "macro"
	case RoleGlobal:
		return "global"
	case RoleBuiltin:
		return "builtin"
	case RoleProperty:
		return "property"
	default:
		return "unknown"
	}
}

// Scope is one lexical scope. Declarations holds every name declared
// directly in this scope with the role its references resolve to.
type Scope struct {
	ID           string          `json:"id"`
	Kind         Kind            `json:"kind"`
	Parent       *Scope          `json:"-"`
	Declarations map[string]Role `json:"declarations"`
}

func newScope(kind Kind, parent *Scope) *Scope {
	return &Scope{
		ID:           uuid.NewString(),
		Kind:         kind,
		Parent:       parent,
		Declarations: map[string]Role{},
	}
}

// Declare records a name in this scope. A redeclaration keeps the first
// role; shadowing across scopes is expressed by separate Scope entries.
func (s *Scope) Declare(name string, role Role) {
	if _, ok := s.Declarations[name]; ok {
		return
	}
	s.Declarations[name] = role
}

// Lookup walks this scope and its ancestors for name. The root scope is the
// terminal state of the walk.
func (s *Scope) Lookup(name string) (Role, *Scope) {
	for sc := s; sc != nil; sc = sc.Parent {
		if role, ok := sc.Declarations[name]; ok {
			return role, sc
		}
	}
	return RoleUnresolved, nil
}

// MisuseError reports an invalid scope-resolution request, e.g. an override
// naming a scope that does not exist. It signals caller error rather than a
// property of the source program.
type MisuseError struct {
	Target  string
	Message string
}

// Error implements the error interface.
func (e *MisuseError) Error() string {
	return fmt.Sprintf("scope resolution misuse: %s (target %q)", e.Message, e.Target)
}
