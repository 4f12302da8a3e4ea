package printer

import (
	"testing"

	"github.com/SimulatorLife/gml-parser/internal/ast"
	"github.com/SimulatorLife/gml-parser/internal/lexer"
	"github.com/SimulatorLife/gml-parser/internal/parser"
)

func parseSource(t *testing.T, src string) *ast.Program {
	t.Helper()
	tokens, err := lexer.New(src, lexer.ModeStrict).Tokenize()
	if err != nil {
		t.Fatalf("tokenize %q: %v", src, err)
	}
	prog, err := parser.New(src, tokens).Parse()
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return prog
}

func TestPrintedSourceReachesAFixpoint(t *testing.T) {
	sources := []string{
		"var a = 1, b, c = a + 2;",
		"hp -= damage * (1 - armor);",
		"if (hp > 0) { heal(hp); } else { hp = 0; }",
		"if a = 1 exit;",
		"for (var i = 0; i < 10; i++) total += i;",
		"while (alive) step();",
		"do { tick(); } until (done);",
		"repeat (8) spawn();",
		"with (other) hp -= 1;",
		"switch (state) {\ncase 0: idle(); break;\ndefault: exit;\n}",
		"try { risky(); } catch (e) { log(e); } finally { cleanup(); }",
		"enum Color { Red, Green = 3, Blue }",
		"function Child(a) : Parent(a, 1) constructor { self.a = a; }",
		"var f = function(a, b = 1) { return a + b; };",
		"x = a[0].b()[1];",
		"grid[# 1, 2] = ds_list[| 0];",
		`name = map[? "key"];`,
		"f(a,, b);",
		"f(,);",
		"x = arr[@ 2];",
		"x = a and b or not c;",
		"x = a ?? b ?? c;",
		"x = cond ? yes : no;",
		"x = -y + ~z;",
		"v = new Vec(1, 2);",
		"s = { x: 1, \"k\": 2 };",
		"x = [1, 2, 3];",
		`msg = $"hp {hp} left";`,
		"#macro MAX_HP 100\nhp = MAX_HP;",
		"globalvar score;\nglobal.best = 0;",
		"throw make_error();",
		"delete inst;",
		"static cache = 0;",
	}

	for _, src := range sources {
		p := New(DefaultOptions())
		once := p.Print(parseSource(t, src))
		twice := p.Print(parseSource(t, once))
		if once != twice {
			t.Errorf("not a fixpoint for %q:\nfirst:  %q\nsecond: %q", src, once, twice)
		}
	}
}

func TestCanonicalStatementLayout(t *testing.T) {
	prog := parseSource(t, "if(hp>0){heal( hp );}")
	got := New(DefaultOptions()).Print(prog)
	want := "if (hp > 0) {\n    heal(hp);\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTabIndentation(t *testing.T) {
	prog := parseSource(t, "function f() { return 1; }")
	got := New(Options{PreferTabs: true}).Print(prog)
	want := "function f() {\n\treturn 1;\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNestedOperandsKeepStructure(t *testing.T) {
	// 1 * 2 + 3: the multiplication is the left operand and must stay so
	// after printing and reparsing.
	prog := parseSource(t, "x = 1 * 2 + 3;")
	printed := New(DefaultOptions()).Print(prog)

	reparsed := parseSource(t, printed)
	assign := reparsed.Body[0].(*ast.AssignmentStatement)
	top := assign.Value.(*ast.BinaryExpression)
	if top.Operator != "+" {
		t.Fatalf("top operator after reparse = %q, want +", top.Operator)
	}
}

func TestElidedArgumentsSurviveReprint(t *testing.T) {
	prog := parseSource(t, "f(a,, b);")
	printed := New(DefaultOptions()).Print(prog)

	reparsed := parseSource(t, printed)
	call := reparsed.Body[0].(*ast.ExpressionStatement).Expression.(*ast.CallExpression)
	if len(call.Arguments) != 3 {
		t.Fatalf("arity after reprint = %d, want 3 (printed %q)", len(call.Arguments), printed)
	}
	if _, ok := call.Arguments[1].(*ast.MissingArgument); !ok {
		t.Errorf("middle argument lost its placeholder in %q", printed)
	}
}

func TestWordOperatorSpellingSurvives(t *testing.T) {
	prog := parseSource(t, "x = a and b;")
	printed := New(DefaultOptions()).Print(prog)
	if printed != "x = a and b;\n" {
		t.Errorf("printed = %q, want the word spelling kept", printed)
	}
}
