package parser

import (
	"errors"
	"testing"

	"github.com/SimulatorLife/gml-parser/internal/ast"
	"github.com/SimulatorLife/gml-parser/internal/lexer"
)

func parseSource(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := tryParse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return prog
}

func tryParse(src string) (*ast.Program, error) {
	tokens, err := lexer.New(src, lexer.ModeStrict).Tokenize()
	if err != nil {
		return nil, err
	}
	return New(src, tokens).Parse()
}

func TestVariableDeclarationList(t *testing.T) {
	prog := parseSource(t, "var a = 1, b, c = a + 2;")
	if len(prog.Body) != 1 {
		t.Fatalf("body length = %d, want 1", len(prog.Body))
	}
	decl, ok := prog.Body[0].(*ast.VarDeclaration)
	if !ok {
		t.Fatalf("statement is %s, want VarDeclaration", prog.Body[0].Kind())
	}
	if len(decl.Declarators) != 3 {
		t.Fatalf("declarators = %d, want 3", len(decl.Declarators))
	}
	if decl.Declarators[1].Name.Name != "b" || decl.Declarators[1].Init != nil {
		t.Errorf("second declarator = %+v", decl.Declarators[1])
	}
}

func TestSingleDeclaratorStaysAList(t *testing.T) {
	prog := parseSource(t, "var only = 1;")
	decl := prog.Body[0].(*ast.VarDeclaration)
	if len(decl.Declarators) != 1 {
		t.Fatalf("declarators = %d, want 1", len(decl.Declarators))
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		src string
		// topOperator is the operator expected at the root of the
		// expression tree (binding loosest).
		topOperator string
	}{
		{"1 + 2 * 3", "+"},
		{"1 * 2 + 3", "+"},
		{"1 < 2 & 3", "<"},
		{"a && b || c", "||"},
		{"a || b ^^ c", "^^"},
		{"a ?? b && c", "&&"},
		{"1 | 2 ^ 3 & 4", "|"},
		{"1 << 2 + 3", "<<"},
		{"a == b && c == d", "&&"},
	}

	for _, tt := range tests {
		prog := parseSource(t, tt.src+";")
		stmt := prog.Body[0].(*ast.ExpressionStatement)
		bin, ok := stmt.Expression.(*ast.BinaryExpression)
		if !ok {
			t.Fatalf("%q: expression is %s", tt.src, stmt.Expression.Kind())
		}
		if bin.Operator != tt.topOperator {
			t.Errorf("%q: top operator = %q, want %q", tt.src, bin.Operator, tt.topOperator)
		}
	}
}

func TestNullCoalescingIsRightAssociative(t *testing.T) {
	prog := parseSource(t, "x = a ?? b ?? c;")
	assign := prog.Body[0].(*ast.AssignmentStatement)
	outer := assign.Value.(*ast.BinaryExpression)
	if outer.Operator != "??" {
		t.Fatalf("outer operator = %q", outer.Operator)
	}
	if _, ok := outer.Left.(*ast.Identifier); !ok {
		t.Errorf("left of right-associative ?? should be the bare identifier, got %s",
			outer.Left.Kind())
	}
	if inner, ok := outer.Right.(*ast.BinaryExpression); !ok || inner.Operator != "??" {
		t.Errorf("right of ?? should be the nested ??, got %s", outer.Right.Kind())
	}
}

func TestTernaryIsRightAssociative(t *testing.T) {
	prog := parseSource(t, "x = a ? b : c ? d : e;")
	assign := prog.Body[0].(*ast.AssignmentStatement)
	outer := assign.Value.(*ast.TernaryExpression)
	if _, ok := outer.Alternate.(*ast.TernaryExpression); !ok {
		t.Errorf("alternate = %s, want nested ternary", outer.Alternate.Kind())
	}
}

func TestLegacyEqualsReadsAsEqualityInExpressions(t *testing.T) {
	prog := parseSource(t, "if (a = 1) exit;")
	stmt := prog.Body[0].(*ast.IfStatement)
	paren := stmt.Test.(*ast.ParenExpression)
	bin, ok := paren.Expression.(*ast.BinaryExpression)
	if !ok || bin.Operator != "=" {
		t.Fatalf("test = %+v, want binary '='", paren.Expression)
	}
}

func TestWordOperators(t *testing.T) {
	prog := parseSource(t, "x = a and b or not c;")
	assign := prog.Body[0].(*ast.AssignmentStatement)
	or := assign.Value.(*ast.BinaryExpression)
	if or.Operator != "or" {
		t.Fatalf("top operator = %q, want %q", or.Operator, "or")
	}
	unary, ok := or.Right.(*ast.UnaryExpression)
	if !ok || unary.Operator != "not" {
		t.Errorf("right side = %+v, want unary not", or.Right)
	}
}

func TestLvalueChainLegality(t *testing.T) {
	// A chain terminating in an index is assignable even with a call
	// earlier in the chain.
	prog := parseSource(t, "a[0].b()[1] = 2;")
	assign := prog.Body[0].(*ast.AssignmentStatement)
	member, ok := assign.Target.(*ast.MemberExpression)
	if !ok || member.Accessor != ast.AccessorIndex {
		t.Fatalf("target = %+v, want index member expression", assign.Target)
	}
	if _, ok := member.Object.(*ast.CallExpression); !ok {
		t.Errorf("target object = %s, want the call", member.Object.Kind())
	}

	prog = parseSource(t, "a()[1] = 2;")
	if _, ok := prog.Body[0].(*ast.AssignmentStatement); !ok {
		t.Errorf("a()[1] = 2 should parse as assignment, got %s", prog.Body[0].Kind())
	}

	// A chain terminating in a call is read-only.
	_, err := tryParse("a[0]() = 2;")
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("a[0]() = 2: err = %v, want *SyntaxError", err)
	}
	if serr.Fatal {
		t.Error("lvalue violation should be recoverable")
	}
}

func TestAccessorNormalization(t *testing.T) {
	tests := []struct {
		src      string
		accessor ast.AccessorKind
		indices  int
	}{
		{"x = a[0];", ast.AccessorIndex, 1},
		{"x = a[| 0];", ast.AccessorList, 1},
		{`x = a[? "k"];`, ast.AccessorMap, 1},
		{"x = a[# 1, 2];", ast.AccessorGrid, 2},
		{`x = a[$ "k"];`, ast.AccessorStruct, 1},
		{"x = a[@ 3];", ast.AccessorArray, 1},
	}

	for _, tt := range tests {
		prog := parseSource(t, tt.src)
		assign := prog.Body[0].(*ast.AssignmentStatement)
		member, ok := assign.Value.(*ast.MemberExpression)
		if !ok {
			t.Fatalf("%q: value is %s, want MemberExpression", tt.src, assign.Value.Kind())
		}
		if member.Accessor != tt.accessor {
			t.Errorf("%q: accessor = %s, want %s", tt.src, member.Accessor, tt.accessor)
		}
		if len(member.Indices) != tt.indices {
			t.Errorf("%q: indices = %d, want %d", tt.src, len(member.Indices), tt.indices)
		}
	}
}

func TestDotAccessSharesTheMemberShape(t *testing.T) {
	prog := parseSource(t, "x = obj.field;")
	assign := prog.Body[0].(*ast.AssignmentStatement)
	member := assign.Value.(*ast.MemberExpression)
	if member.Accessor != ast.AccessorDot {
		t.Errorf("accessor = %s, want dot", member.Accessor)
	}
	if member.Property == nil || member.Property.Name != "field" {
		t.Errorf("property = %+v", member.Property)
	}
}

func TestElidedArgumentsBecomePlaceholders(t *testing.T) {
	prog := parseSource(t, "f(a,, b);")
	stmt := prog.Body[0].(*ast.ExpressionStatement)
	call := stmt.Expression.(*ast.CallExpression)
	if len(call.Arguments) != 3 {
		t.Fatalf("arity = %d, want 3", len(call.Arguments))
	}
	if _, ok := call.Arguments[1].(*ast.MissingArgument); !ok {
		t.Errorf("middle argument = %s, want MissingArgument", call.Arguments[1].Kind())
	}
}

func TestTrailingCommaAddsNoPlaceholder(t *testing.T) {
	prog := parseSource(t, "f(a, b,);")
	call := prog.Body[0].(*ast.ExpressionStatement).Expression.(*ast.CallExpression)
	if len(call.Arguments) != 2 {
		t.Errorf("arity = %d, want 2", len(call.Arguments))
	}

	prog = parseSource(t, "x = [1, 2,];")
	arr := prog.Body[0].(*ast.AssignmentStatement).Value.(*ast.ArrayLiteral)
	if len(arr.Elements) != 2 {
		t.Errorf("array elements = %d, want 2", len(arr.Elements))
	}
}

func TestLeadingElisionStillCountsArity(t *testing.T) {
	prog := parseSource(t, "f(, b);")
	call := prog.Body[0].(*ast.ExpressionStatement).Expression.(*ast.CallExpression)
	if len(call.Arguments) != 2 {
		t.Fatalf("arity = %d, want 2", len(call.Arguments))
	}
	if _, ok := call.Arguments[0].(*ast.MissingArgument); !ok {
		t.Errorf("first argument = %s, want MissingArgument", call.Arguments[0].Kind())
	}
}

func TestConstructorInheritanceClause(t *testing.T) {
	prog := parseSource(t, "function Child(a) : Parent(a, 1) constructor { }")
	fn := prog.Body[0].(*ast.FunctionDeclaration)
	if !fn.IsConstructor {
		t.Fatal("IsConstructor not set")
	}
	if fn.Inherits == nil {
		t.Fatal("inheritance clause missing")
	}
	if fn.Inherits.ParentName.Name != "Parent" {
		t.Errorf("parent = %q", fn.Inherits.ParentName.Name)
	}
	if len(fn.Inherits.Args) != 2 {
		t.Errorf("inherit args = %d, want 2", len(fn.Inherits.Args))
	}
}

func TestInheritanceClauseIsTraversed(t *testing.T) {
	prog := parseSource(t, "function Child() : Base(1) constructor { }")

	var clause *ast.ConstructorClause
	var parent *ast.Identifier
	l := &ast.Listener{EnterAny: func(n ast.Node) {
		switch n := n.(type) {
		case *ast.ConstructorClause:
			clause = n
		case *ast.Identifier:
			if clause != nil && parent == nil {
				parent = n
			}
		}
	}}
	if err := l.Walk(prog); err != nil {
		t.Fatal(err)
	}
	if clause == nil {
		t.Fatal("inheritance clause never visited")
	}
	if parent == nil || parent.Name != "Base" {
		t.Errorf("first identifier under the clause = %+v, want Base", parent)
	}
}

func TestPlainConstructor(t *testing.T) {
	prog := parseSource(t, "function Vec(x, y) constructor { self.x = x; self.y = y; }")
	fn := prog.Body[0].(*ast.FunctionDeclaration)
	if !fn.IsConstructor || fn.Inherits != nil {
		t.Errorf("fn = %+v", fn)
	}
}

func TestAnonymousFunctionExpression(t *testing.T) {
	prog := parseSource(t, "var f = function(a) { return a; };")
	decl := prog.Body[0].(*ast.VarDeclaration)
	fn, ok := decl.Declarators[0].Init.(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("init = %s, want FunctionDeclaration", decl.Declarators[0].Init.Kind())
	}
	if fn.Name != nil {
		t.Errorf("anonymous function has name %q", fn.Name.Name)
	}
}

func TestPreAndPostIncDec(t *testing.T) {
	prog := parseSource(t, "i++;\n++j;")
	post := prog.Body[0].(*ast.ExpressionStatement).Expression
	if post.Kind() != ast.KindPostIncDecExpression {
		t.Errorf("i++ kind = %s", post.Kind())
	}
	pre := prog.Body[1].(*ast.ExpressionStatement).Expression
	if pre.Kind() != ast.KindPreIncDecExpression {
		t.Errorf("++j kind = %s", pre.Kind())
	}
}

func TestControlStatements(t *testing.T) {
	src := `
for (var i = 0; i < 10; i++) { total += i; }
while (alive) step();
do { tick(); } until (done);
repeat (8) spawn();
with (other) hp -= 1;
switch (state) {
case 0: idle(); break;
case 1:
case 2: run(); break;
default: exit;
}
try { risky(); } catch (err) { log(err); } finally { cleanup(); }
`
	prog := parseSource(t, src)
	wantKinds := []ast.NodeKind{
		ast.KindForStatement,
		ast.KindWhileStatement,
		ast.KindDoUntilStatement,
		ast.KindRepeatStatement,
		ast.KindWithStatement,
		ast.KindSwitchStatement,
		ast.KindTryStatement,
	}
	if len(prog.Body) != len(wantKinds) {
		t.Fatalf("body length = %d, want %d", len(prog.Body), len(wantKinds))
	}
	for i, want := range wantKinds {
		if prog.Body[i].Kind() != want {
			t.Errorf("body[%d] = %s, want %s", i, prog.Body[i].Kind(), want)
		}
	}

	sw := prog.Body[5].(*ast.SwitchStatement)
	if len(sw.Cases) != 4 {
		t.Errorf("switch cases = %d, want 4", len(sw.Cases))
	}
	if sw.Cases[3].Test != nil {
		t.Error("default case should have nil test")
	}

	try := prog.Body[6].(*ast.TryStatement)
	if try.CatchParam == nil || try.CatchParam.Name != "err" {
		t.Errorf("catch param = %+v", try.CatchParam)
	}
	if try.Finalizer == nil {
		t.Error("finalizer missing")
	}
}

func TestEnumDeclaration(t *testing.T) {
	prog := parseSource(t, "enum Color { Red, Green = 3, Blue, }")
	decl := prog.Body[0].(*ast.EnumDeclaration)
	if decl.Name.Name != "Color" || len(decl.Members) != 3 {
		t.Fatalf("enum = %+v", decl)
	}
	if decl.Members[1].Init == nil {
		t.Error("Green should carry an initializer")
	}
}

func TestMacroDeclaration(t *testing.T) {
	prog := parseSource(t, "#macro MAX_HP 100\n")
	decl := prog.Body[0].(*ast.MacroDeclaration)
	if decl.Name.Name != "MAX_HP" || decl.Value != "100" {
		t.Errorf("macro = %+v", decl)
	}

	prog = parseSource(t, "#macro Debug:LOG_LEVEL 3\n")
	decl = prog.Body[0].(*ast.MacroDeclaration)
	if decl.ConfigName != "Debug" || decl.Name.Name != "LOG_LEVEL" {
		t.Errorf("config macro = %+v", decl)
	}
}

func TestTemplateStringSubstitutions(t *testing.T) {
	src := `msg = $"hp {hp} of {max_hp + 1}";`
	prog := parseSource(t, src)
	assign := prog.Body[0].(*ast.AssignmentStatement)
	tmpl := assign.Value.(*ast.TemplateString)
	if len(tmpl.Substitutions) != 2 {
		t.Fatalf("substitutions = %d, want 2", len(tmpl.Substitutions))
	}
	if _, ok := tmpl.Substitutions[0].(*ast.Identifier); !ok {
		t.Errorf("first substitution = %s", tmpl.Substitutions[0].Kind())
	}
	bin, ok := tmpl.Substitutions[1].(*ast.BinaryExpression)
	if !ok || bin.Operator != "+" {
		t.Fatalf("second substitution = %s", tmpl.Substitutions[1].Kind())
	}

	// Sub-parsed locations are rebased into enclosing-source coordinates.
	loc := tmpl.Substitutions[0].Span()
	if loc == nil {
		t.Fatal("substitution has no location")
	}
	if got := src[loc.Start.Offset:loc.End.Offset]; got != "hp" {
		t.Errorf("substitution covers %q, want %q", got, "hp")
	}
}

func TestStructLiteral(t *testing.T) {
	prog := parseSource(t, `var s = { x: 1, "key": 2, nested: { y: 3 } };`)
	decl := prog.Body[0].(*ast.VarDeclaration)
	lit := decl.Declarators[0].Init.(*ast.StructLiteral)
	if len(lit.Properties) != 3 {
		t.Fatalf("properties = %d, want 3", len(lit.Properties))
	}
	if _, ok := lit.Properties[1].Key.(*ast.Literal); !ok {
		t.Errorf("string key = %s", lit.Properties[1].Key.Kind())
	}
}

func TestNewExpression(t *testing.T) {
	prog := parseSource(t, "var v = new Vec(1, 2);")
	decl := prog.Body[0].(*ast.VarDeclaration)
	ne := decl.Declarators[0].Init.(*ast.NewExpression)
	if len(ne.Arguments) != 2 {
		t.Errorf("arguments = %d, want 2", len(ne.Arguments))
	}

	// 'new' construction is a legal lvalue-chain base.
	prog = parseSource(t, "new Registry().items[0] = 1;")
	if _, ok := prog.Body[0].(*ast.AssignmentStatement); !ok {
		t.Errorf("chain off new should assign, got %s", prog.Body[0].Kind())
	}
}

func TestBeginEndBlocks(t *testing.T) {
	prog := parseSource(t, "if (ok) begin hp += 1; end")
	stmt := prog.Body[0].(*ast.IfStatement)
	if _, ok := stmt.Consequent.(*ast.Block); !ok {
		t.Errorf("consequent = %s, want Block", stmt.Consequent.Kind())
	}
}

func TestSyntaxErrorCarriesOffsetAndResync(t *testing.T) {
	_, err := tryParse("function f( { }")
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want *SyntaxError", err)
	}
	if serr.Pos.Offset <= 0 {
		t.Errorf("offending offset = %d, want > 0", serr.Pos.Offset)
	}
	if serr.Resync <= serr.Pos.Offset {
		t.Errorf("resync = %d, want past offending offset %d", serr.Resync, serr.Pos.Offset)
	}
}

func TestMalformedTopLevelIsFatal(t *testing.T) {
	tests := []string{
		"}",
		"{ var a = 1;",
	}
	for _, src := range tests {
		_, err := tryParse(src)
		var serr *SyntaxError
		if !errors.As(err, &serr) {
			t.Fatalf("%q: err = %v, want *SyntaxError", src, err)
		}
		if !serr.Fatal {
			t.Errorf("%q: expected fatal error", src)
		}
	}
}

func TestNodeSpansNestWithinParents(t *testing.T) {
	src := "if (hp > 0) { heal(hp); }"
	prog := parseSource(t, src)
	stmt := prog.Body[0].(*ast.IfStatement)

	l := &ast.Listener{}
	var bad int
	l.EnterAny = func(n ast.Node) {
		if n.Span() == nil {
			return
		}
		if p := n.Parent(); p != nil && p.Span() != nil {
			if !p.Span().Encloses(*n.Span()) {
				bad++
			}
		}
	}
	if err := ast.SetParents(prog); err != nil {
		t.Fatal(err)
	}
	if err := l.Walk(prog); err != nil {
		t.Fatal(err)
	}
	if bad != 0 {
		t.Errorf("%d child spans escape their parents", bad)
	}
	if stmt.Span() == nil || stmt.Span().Start.Offset != 0 {
		t.Errorf("if span = %v", stmt.Span())
	}
}
