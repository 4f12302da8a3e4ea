package scope

import (
	"errors"
	"testing"

	"github.com/SimulatorLife/gml-parser/internal/ast"
	"github.com/SimulatorLife/gml-parser/internal/lexer"
	"github.com/SimulatorLife/gml-parser/internal/parser"
)

func annotateSource(t *testing.T, src string) (*ast.Program, *Tracker) {
	t.Helper()
	tokens, err := lexer.New(src, lexer.ModeStrict).Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	prog, err := parser.New(src, tokens).Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tracker, err := Annotate(prog)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	return prog, tracker
}

// identifiers collects every annotated occurrence of name in source order.
func identifiers(t *testing.T, prog *ast.Program, name string) []*ast.Identifier {
	t.Helper()
	var out []*ast.Identifier
	l := &ast.Listener{
		Enter: map[ast.NodeKind]func(ast.Node){
			ast.KindIdentifier: func(n ast.Node) {
				id := n.(*ast.Identifier)
				if id.Name == name {
					out = append(out, id)
				}
			},
		},
	}
	if err := l.Walk(prog); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestLocalDeclarationResolves(t *testing.T) {
	prog, tracker := annotateSource(t, "var hp = 100;\nhp -= 10;")

	ids := identifiers(t, prog, "hp")
	if len(ids) != 2 {
		t.Fatalf("occurrences = %d, want 2", len(ids))
	}
	for i, id := range ids {
		if id.Metadata == nil {
			t.Fatalf("occurrence %d has no metadata", i)
		}
		if id.Metadata.Role != "local" {
			t.Errorf("occurrence %d role = %q, want local", i, id.Metadata.Role)
		}
		if id.Metadata.ScopeID != tracker.Root().ID {
			t.Errorf("occurrence %d scope = %q, want root", i, id.Metadata.ScopeID)
		}
	}
}

func TestImplicitGlobalStaysUnresolved(t *testing.T) {
	prog, _ := annotateSource(t, "score = 1;")

	ids := identifiers(t, prog, "score")
	if len(ids) != 1 {
		t.Fatalf("occurrences = %d, want 1", len(ids))
	}
	meta := ids[0].Metadata
	if meta.Role != "unresolved" || meta.ScopeID != "" {
		t.Errorf("metadata = %+v, want unresolved with no scope", meta)
	}
}

func TestShadowingResolvesToNearestScope(t *testing.T) {
	src := `
var hp = 100;
function drain(amount) {
	var hp = 1;
	hp -= amount;
}
hp -= 5;
`
	prog, tracker := annotateSource(t, src)

	ids := identifiers(t, prog, "hp")
	if len(ids) != 4 {
		t.Fatalf("occurrences = %d, want 4", len(ids))
	}
	rootID := tracker.Root().ID
	// Outer declaration and final use resolve to root; the two inside the
	// function resolve to the function scope.
	if ids[0].Metadata.ScopeID != rootID {
		t.Errorf("outer declaration scope = %q, want root", ids[0].Metadata.ScopeID)
	}
	if ids[3].Metadata.ScopeID != rootID {
		t.Errorf("outer use scope = %q, want root", ids[3].Metadata.ScopeID)
	}
	inner := ids[1].Metadata.ScopeID
	if inner == rootID || inner == "" {
		t.Fatalf("inner declaration scope = %q, want a nested scope", inner)
	}
	if ids[2].Metadata.ScopeID != inner {
		t.Errorf("inner use scope = %q, want %q", ids[2].Metadata.ScopeID, inner)
	}
	sc, ok := tracker.ByID(inner)
	if !ok || sc.Kind != KindFunction {
		t.Errorf("inner scope = %+v", sc)
	}
}

func TestParameterRole(t *testing.T) {
	prog, _ := annotateSource(t, "function heal(target) { target += 1; }")

	ids := identifiers(t, prog, "target")
	if len(ids) != 2 {
		t.Fatalf("occurrences = %d, want 2", len(ids))
	}
	for i, id := range ids {
		if id.Metadata.Role != "parameter" {
			t.Errorf("occurrence %d role = %q, want parameter", i, id.Metadata.Role)
		}
	}
}

func TestFunctionNameVisibleBeforeDeclaration(t *testing.T) {
	prog, _ := annotateSource(t, "boot();\nfunction boot() { }")

	ids := identifiers(t, prog, "boot")
	if ids[0].Metadata.Role != "function" {
		t.Errorf("call before declaration role = %q, want function", ids[0].Metadata.Role)
	}
}

func TestGlobalvarRegistersInRoot(t *testing.T) {
	prog, tracker := annotateSource(t, "globalvar score;\nfunction f() { score += 1; }")

	ids := identifiers(t, prog, "score")
	use := ids[len(ids)-1]
	if use.Metadata.Role != "global" {
		t.Errorf("use role = %q, want global", use.Metadata.Role)
	}
	if use.Metadata.ScopeID != tracker.Root().ID {
		t.Errorf("use scope = %q, want root", use.Metadata.ScopeID)
	}
}

func TestGlobalDotAccessDeclaresAndResolves(t *testing.T) {
	prog, tracker := annotateSource(t, "global.high_score = 10;")

	ids := identifiers(t, prog, "high_score")
	if len(ids) != 1 {
		t.Fatalf("occurrences = %d, want 1", len(ids))
	}
	if ids[0].Metadata.Role != "global" || ids[0].Metadata.ScopeID != tracker.Root().ID {
		t.Errorf("metadata = %+v", ids[0].Metadata)
	}
	if role, ok := tracker.Root().Declarations["high_score"]; !ok || role != RoleGlobal {
		t.Errorf("root declarations = %v", tracker.Root().Declarations)
	}
}

func TestDotPropertyNeverResolvesLexically(t *testing.T) {
	prog, _ := annotateSource(t, "var hp = 1;\nother.hp = 2;")

	ids := identifiers(t, prog, "hp")
	if len(ids) != 2 {
		t.Fatalf("occurrences = %d, want 2", len(ids))
	}
	if ids[1].Metadata.Role != "property" {
		t.Errorf("property role = %q, want property", ids[1].Metadata.Role)
	}
	if ids[1].Metadata.ScopeID != "" {
		t.Errorf("property scope = %q, want empty", ids[1].Metadata.ScopeID)
	}
}

func TestBuiltinFallback(t *testing.T) {
	prog, _ := annotateSource(t, "self.hp = argument_count;")

	ids := identifiers(t, prog, "argument_count")
	if ids[0].Metadata.Role != "builtin" {
		t.Errorf("role = %q, want builtin", ids[0].Metadata.Role)
	}
}

func TestConstructorBodyIsStructScope(t *testing.T) {
	src := "function Vec(vx, vy) constructor { var len = 0; }"
	_, tracker := annotateSource(t, src)

	var structScope *Scope
	rootID := tracker.Root().ID
	for id := range tracker.byID {
		if id != rootID {
			structScope, _ = tracker.ByID(id)
		}
	}
	if structScope == nil || structScope.Kind != KindStruct {
		t.Fatalf("constructor scope = %+v, want struct kind", structScope)
	}
	if structScope.Declarations["vx"] != RoleParameter {
		t.Errorf("vx role = %v, want parameter", structScope.Declarations["vx"])
	}
	if structScope.Declarations["len"] != RoleLocal {
		t.Errorf("len role = %v, want local", structScope.Declarations["len"])
	}
}

func TestResolveOverride(t *testing.T) {
	src := "globalvar score;\nfunction f(score) { score += 1; }"
	_, tracker := annotateSource(t, src)

	role, sc, err := tracker.ResolveOverride("score", "global")
	if err != nil {
		t.Fatalf("override to global: %v", err)
	}
	if role != RoleGlobal || sc != tracker.Root() {
		t.Errorf("override = %v in %+v, want global in root", role, sc)
	}

	// Override against the function scope by ID.
	var fnScope *Scope
	for id := range tracker.byID {
		if id != tracker.Root().ID {
			fnScope, _ = tracker.ByID(id)
		}
	}
	role, sc, err = tracker.ResolveOverride("score", fnScope.ID)
	if err != nil {
		t.Fatalf("override to scope ID: %v", err)
	}
	if role != RoleParameter || sc != fnScope {
		t.Errorf("override = %v in %+v, want parameter in function scope", role, sc)
	}
}

func TestResolveOverrideMisuse(t *testing.T) {
	_, tracker := annotateSource(t, "var a = 1;")

	_, _, err := tracker.ResolveOverride("a", "not-a-scope-id")
	var misuse *MisuseError
	if !errors.As(err, &misuse) {
		t.Fatalf("err = %v, want *MisuseError", err)
	}

	if _, _, err := tracker.ResolveOverride("a", ""); !errors.As(err, &misuse) {
		t.Fatalf("empty target err = %v, want *MisuseError", err)
	}
}

func TestOverrideToUnknownGlobalIsNotMisuse(t *testing.T) {
	_, tracker := annotateSource(t, "var a = 1;")

	role, sc, err := tracker.ResolveOverride("never_declared", "global")
	if err != nil {
		t.Fatalf("err = %v, want nil (unknown name is not misuse)", err)
	}
	if role != RoleUnresolved || sc != nil {
		t.Errorf("resolution = %v in %+v, want unresolved", role, sc)
	}
}

func TestScopeIDsAreUnique(t *testing.T) {
	_, tracker := annotateSource(t, "function a() { }\nfunction b() { }\nfunction c() { }")

	seen := map[string]bool{}
	for id := range tracker.byID {
		if seen[id] {
			t.Fatalf("duplicate scope ID %q", id)
		}
		seen[id] = true
	}
	if len(seen) != 4 {
		t.Errorf("scopes = %d, want 4 (root + three functions)", len(seen))
	}
}

func TestCatchParameterIsLocal(t *testing.T) {
	prog, _ := annotateSource(t, "try { risky(); } catch (err) { log(err); }")

	ids := identifiers(t, prog, "err")
	for i, id := range ids {
		if id.Metadata.Role != "local" {
			t.Errorf("occurrence %d role = %q, want local", i, id.Metadata.Role)
		}
	}
}
