// Package parser implements the GML recursive descent parser. It consumes
// the scanner's code-channel tokens and builds the normalized syntax tree:
// accessor forms fold into one member-expression shape, declarator lists stay
// lists, and elided call arguments become explicit placeholders.
package parser

import (
	"fmt"

	"github.com/SimulatorLife/gml-parser/internal/ast"
	"github.com/SimulatorLife/gml-parser/internal/lexer"
	"github.com/SimulatorLife/gml-parser/internal/position"
)

// SyntaxError reports a grammar violation. Recoverable errors carry the
// offset of the nearest statement boundary so a caller may resume there;
// fatal errors indicate malformed top-level program structure.
type SyntaxError struct {
	Message string
	Pos     position.Position
	Fatal   bool
	Resync  int // offset of the nearest statement boundary
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: %s", e.Pos, e.Message)
}

// Parser holds the state of one parse invocation. All state is per
// invocation; concurrent parses never share a Parser.
type Parser struct {
	src    string
	tokens []lexer.Token // all channels, as produced by the scanner
	code   []int         // indices of code-channel tokens
	cur    int           // current index into code

	lastEnd position.Position // end of the most recently consumed token
}

// New creates a parser over the scanner's full token stream. The source text
// is needed to sub-parse template string substitutions.
func New(src string, tokens []lexer.Token) *Parser {
	p := &Parser{
		src:     src,
		tokens:  tokens,
		lastEnd: position.Position{Line: 1, Column: 1, Offset: 0},
	}
	for i, tok := range tokens {
		if tok.Channel == lexer.ChannelCode {
			p.code = append(p.code, i)
		}
	}
	return p
}

// Tokens returns the full token stream the parser was built over, for the
// comment attacher.
func (p *Parser) Tokens() []lexer.Token { return p.tokens }

// Parse parses a whole program. On a syntax error the partial tree is
// discarded: a partially built tree is not a valid resumable state.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}
	start := p.peek()
	for !p.at(lexer.KindEOF) {
		if p.at(lexer.KindRBrace) {
			tok := p.peek()
			return nil, p.fatalError(tok, "unmatched %q at top level", tok.Text)
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, stmt)
	}
	if len(prog.Body) > 0 {
		prog.Loc = p.spanFrom(start)
	}
	return prog, nil
}

func (p *Parser) peek() lexer.Token {
	if p.cur < len(p.code) {
		return p.tokens[p.code[p.cur]]
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return lexer.Token{Kind: lexer.KindEOF, Line: 1, Column: 1}
}

func (p *Parser) next() lexer.Token {
	tok := p.peek()
	if p.cur < len(p.code) {
		p.cur++
	}
	p.lastEnd = tok.Span().End
	return tok
}

func (p *Parser) at(kind lexer.Kind) bool { return p.peek().Kind == kind }

func (p *Parser) accept(kind lexer.Kind) (lexer.Token, bool) {
	if p.at(kind) {
		return p.next(), true
	}
	return lexer.Token{}, false
}

func (p *Parser) expect(kind lexer.Kind) (lexer.Token, error) {
	if p.at(kind) {
		return p.next(), nil
	}
	tok := p.peek()
	return tok, p.errorAt(tok, "expected %s, found %q", kind, tokenText(tok))
}

func tokenText(tok lexer.Token) string {
	if tok.Kind == lexer.KindEOF {
		return "end of file"
	}
	return tok.Text
}

// spanFrom builds a span from a start token to the last consumed token.
func (p *Parser) spanFrom(start lexer.Token) *position.Span {
	s := position.NewSpan(start.Pos(), p.lastEnd)
	return &s
}

func (p *Parser) errorAt(tok lexer.Token, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Message: fmt.Sprintf(format, args...),
		Pos:     tok.Pos(),
		Resync:  p.resyncOffset(),
	}
}

func (p *Parser) fatalError(tok lexer.Token, format string, args ...any) *SyntaxError {
	err := p.errorAt(tok, format, args...)
	err.Fatal = true
	return err
}

// resyncOffset finds the nearest statement boundary after the current
// position: just past the next semicolon or closing brace, or end of input.
func (p *Parser) resyncOffset() int {
	for i := p.cur; i < len(p.code); i++ {
		tok := p.tokens[p.code[i]]
		switch tok.Kind {
		case lexer.KindSemicolon, lexer.KindRBrace:
			return tok.End
		}
	}
	return len(p.src)
}

// acceptSemicolon consumes an optional statement terminator.
func (p *Parser) acceptSemicolon() {
	p.accept(lexer.KindSemicolon)
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.peek().Kind {
	case lexer.KindLBrace:
		return p.parseBlock()
	case lexer.KindIf:
		return p.parseIf()
	case lexer.KindWhile:
		return p.parseWhile()
	case lexer.KindDo:
		return p.parseDoUntil()
	case lexer.KindRepeat:
		return p.parseRepeat()
	case lexer.KindFor:
		return p.parseFor()
	case lexer.KindWith:
		return p.parseWith()
	case lexer.KindSwitch:
		return p.parseSwitch()
	case lexer.KindTry:
		return p.parseTry()
	case lexer.KindThrow:
		return p.parseThrow()
	case lexer.KindReturn:
		return p.parseReturn()
	case lexer.KindExit:
		start := p.next()
		p.acceptSemicolon()
		return &ast.ExitStatement{Base: ast.Base{Loc: p.spanFrom(start)}}, nil
	case lexer.KindBreak:
		start := p.next()
		p.acceptSemicolon()
		return &ast.BreakStatement{Base: ast.Base{Loc: p.spanFrom(start)}}, nil
	case lexer.KindContinue:
		start := p.next()
		p.acceptSemicolon()
		return &ast.ContinueStatement{Base: ast.Base{Loc: p.spanFrom(start)}}, nil
	case lexer.KindDelete:
		return p.parseDelete()
	case lexer.KindVar:
		return p.parseVarDeclaration(false)
	case lexer.KindStatic:
		return p.parseVarDeclaration(true)
	case lexer.KindGlobalVar:
		return p.parseGlobalVar()
	case lexer.KindEnum:
		return p.parseEnum()
	case lexer.KindFunction:
		return p.parseFunctionStatement()
	case lexer.KindMacro:
		return p.parseMacro()
	case lexer.KindSemicolon:
		start := p.next()
		return &ast.EmptyStatement{Base: ast.Base{Loc: p.spanFrom(start)}}, nil
	case lexer.KindError:
		tok := p.peek()
		return nil, p.errorAt(tok, "invalid token %q", tok.Text)
	default:
		return p.parseSimpleStatement(true)
	}
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	open, err := p.expect(lexer.KindLBrace)
	if err != nil {
		return nil, err
	}
	block := &ast.Block{}
	for !p.at(lexer.KindRBrace) {
		if p.at(lexer.KindEOF) {
			return nil, p.fatalError(p.peek(), "unterminated block: missing %q", "}")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Body = append(block.Body, stmt)
	}
	p.next() // '}'
	block.Loc = p.spanFrom(open)
	return block, nil
}

// parseBodyStatement parses the body of a control statement: a block or a
// single statement.
func (p *Parser) parseBodyStatement() (ast.Stmt, error) {
	if p.at(lexer.KindLBrace) {
		return p.parseBlock()
	}
	return p.parseStatement()
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	start := p.next() // 'if'
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	cons, err := p.parseBodyStatement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStatement{Test: test, Consequent: cons}
	if _, ok := p.accept(lexer.KindElse); ok {
		alt, err := p.parseBodyStatement()
		if err != nil {
			return nil, err
		}
		stmt.Alternate = alt
	}
	stmt.Loc = p.spanFrom(start)
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	start := p.next() // 'while'
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBodyStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStatement{
		Base: ast.Base{Loc: p.spanFrom(start)},
		Test: test,
		Body: body,
	}, nil
}

func (p *Parser) parseDoUntil() (ast.Stmt, error) {
	start := p.next() // 'do'
	body, err := p.parseBodyStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindUntil); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.acceptSemicolon()
	return &ast.DoUntilStatement{
		Base: ast.Base{Loc: p.spanFrom(start)},
		Body: body,
		Test: test,
	}, nil
}

func (p *Parser) parseRepeat() (ast.Stmt, error) {
	start := p.next() // 'repeat'
	count, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBodyStatement()
	if err != nil {
		return nil, err
	}
	return &ast.RepeatStatement{
		Base:  ast.Base{Loc: p.spanFrom(start)},
		Count: count,
		Body:  body,
	}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	start := p.next() // 'for'
	if _, err := p.expect(lexer.KindLParen); err != nil {
		return nil, err
	}

	stmt := &ast.ForStatement{}
	if !p.at(lexer.KindSemicolon) {
		init, err := p.parseForClause()
		if err != nil {
			return nil, err
		}
		stmt.Init = init
	}
	if _, err := p.expect(lexer.KindSemicolon); err != nil {
		return nil, err
	}
	if !p.at(lexer.KindSemicolon) {
		test, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Test = test
	}
	if _, err := p.expect(lexer.KindSemicolon); err != nil {
		return nil, err
	}
	if !p.at(lexer.KindRParen) {
		update, err := p.parseForClause()
		if err != nil {
			return nil, err
		}
		stmt.Update = update
	}
	if _, err := p.expect(lexer.KindRParen); err != nil {
		return nil, err
	}

	body, err := p.parseBodyStatement()
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	stmt.Loc = p.spanFrom(start)
	return stmt, nil
}

// parseForClause parses a for-header init or update clause: a declaration,
// an assignment, or an expression, with no trailing semicolon.
func (p *Parser) parseForClause() (ast.Stmt, error) {
	if p.at(lexer.KindVar) {
		return p.parseVarDeclarators(false)
	}
	return p.parseSimpleStatement(false)
}

func (p *Parser) parseWith() (ast.Stmt, error) {
	start := p.next() // 'with'
	target, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBodyStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WithStatement{
		Base:   ast.Base{Loc: p.spanFrom(start)},
		Target: target,
		Body:   body,
	}, nil
}

func (p *Parser) parseSwitch() (ast.Stmt, error) {
	start := p.next() // 'switch'
	disc, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindLBrace); err != nil {
		return nil, err
	}

	stmt := &ast.SwitchStatement{Discriminant: disc}
	for !p.at(lexer.KindRBrace) {
		if p.at(lexer.KindEOF) {
			return nil, p.fatalError(p.peek(), "unterminated switch: missing %q", "}")
		}
		c, err := p.parseSwitchCase()
		if err != nil {
			return nil, err
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	p.next() // '}'
	stmt.Loc = p.spanFrom(start)
	return stmt, nil
}

func (p *Parser) parseSwitchCase() (*ast.SwitchCase, error) {
	c := &ast.SwitchCase{}
	var start lexer.Token
	switch p.peek().Kind {
	case lexer.KindCase:
		start = p.next()
		test, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Test = test
	case lexer.KindDefault:
		start = p.next()
	default:
		tok := p.peek()
		return nil, p.errorAt(tok, "expected case or default, found %q", tokenText(tok))
	}
	if _, err := p.expect(lexer.KindColon); err != nil {
		return nil, err
	}
	for !p.at(lexer.KindCase) && !p.at(lexer.KindDefault) && !p.at(lexer.KindRBrace) {
		if p.at(lexer.KindEOF) {
			return nil, p.fatalError(p.peek(), "unterminated switch case")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		c.Body = append(c.Body, stmt)
	}
	c.Loc = p.spanFrom(start)
	return c, nil
}

func (p *Parser) parseTry() (ast.Stmt, error) {
	start := p.next() // 'try'
	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.TryStatement{Block: block}

	if _, ok := p.accept(lexer.KindCatch); ok {
		if _, ok := p.accept(lexer.KindLParen); ok {
			nameTok, err := p.expect(lexer.KindIdentifier)
			if err != nil {
				return nil, err
			}
			stmt.CatchParam = p.identifier(nameTok)
			if _, err := p.expect(lexer.KindRParen); err != nil {
				return nil, err
			}
		}
		handler, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.Handler = handler
	}
	if _, ok := p.accept(lexer.KindFinally); ok {
		fin, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.Finalizer = fin
	}
	if stmt.Handler == nil && stmt.Finalizer == nil {
		return nil, p.errorAt(p.peek(), "try statement requires a catch or finally clause")
	}
	stmt.Loc = p.spanFrom(start)
	return stmt, nil
}

func (p *Parser) parseThrow() (ast.Stmt, error) {
	start := p.next() // 'throw'
	arg, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.acceptSemicolon()
	return &ast.ThrowStatement{
		Base:     ast.Base{Loc: p.spanFrom(start)},
		Argument: arg,
	}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	start := p.next() // 'return'
	stmt := &ast.ReturnStatement{}
	if !p.at(lexer.KindSemicolon) && !p.at(lexer.KindRBrace) && !p.at(lexer.KindEOF) {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Argument = arg
	}
	p.acceptSemicolon()
	stmt.Loc = p.spanFrom(start)
	return stmt, nil
}

func (p *Parser) parseDelete() (ast.Stmt, error) {
	start := p.next() // 'delete'
	arg, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.acceptSemicolon()
	return &ast.DeleteStatement{
		Base:     ast.Base{Loc: p.spanFrom(start)},
		Argument: arg,
	}, nil
}

func (p *Parser) parseVarDeclaration(static bool) (ast.Stmt, error) {
	decl, err := p.parseVarDeclarators(static)
	if err != nil {
		return nil, err
	}
	p.acceptSemicolon()
	return decl, nil
}

// parseVarDeclarators parses a `var`/`static` declarator list. The list
// shape survives even for a single declarator.
func (p *Parser) parseVarDeclarators(static bool) (*ast.VarDeclaration, error) {
	start := p.next() // 'var' or 'static'
	decl := &ast.VarDeclaration{Static: static}
	for {
		nameTok, err := p.expect(lexer.KindIdentifier)
		if err != nil {
			return nil, err
		}
		d := &ast.VariableDeclarator{Name: p.identifier(nameTok)}
		if _, ok := p.accept(lexer.KindAssign); ok {
			init, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			d.Init = init
		}
		d.Loc = p.spanFrom(nameTok)
		decl.Declarators = append(decl.Declarators, d)
		if _, ok := p.accept(lexer.KindComma); !ok {
			break
		}
	}
	decl.Loc = p.spanFrom(start)
	return decl, nil
}

func (p *Parser) parseGlobalVar() (ast.Stmt, error) {
	start := p.next() // 'globalvar'
	stmt := &ast.GlobalVarStatement{}
	for {
		nameTok, err := p.expect(lexer.KindIdentifier)
		if err != nil {
			return nil, err
		}
		stmt.Names = append(stmt.Names, p.identifier(nameTok))
		if _, ok := p.accept(lexer.KindComma); !ok {
			break
		}
	}
	p.acceptSemicolon()
	stmt.Loc = p.spanFrom(start)
	return stmt, nil
}

func (p *Parser) parseEnum() (ast.Stmt, error) {
	start := p.next() // 'enum'
	nameTok, err := p.expect(lexer.KindIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindLBrace); err != nil {
		return nil, err
	}

	decl := &ast.EnumDeclaration{Name: p.identifier(nameTok)}
	for !p.at(lexer.KindRBrace) {
		memberTok, err := p.expect(lexer.KindIdentifier)
		if err != nil {
			return nil, err
		}
		member := &ast.EnumMember{Name: p.identifier(memberTok)}
		if _, ok := p.accept(lexer.KindAssign); ok {
			init, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			member.Init = init
		}
		member.Loc = p.spanFrom(memberTok)
		decl.Members = append(decl.Members, member)
		if _, ok := p.accept(lexer.KindComma); !ok {
			break
		}
	}
	if _, err := p.expect(lexer.KindRBrace); err != nil {
		return nil, err
	}
	p.acceptSemicolon()
	decl.Loc = p.spanFrom(start)
	return decl, nil
}

func (p *Parser) parseFunctionStatement() (ast.Stmt, error) {
	fn, err := p.parseFunction()
	if err != nil {
		return nil, err
	}
	p.acceptSemicolon()
	return fn, nil
}

// parseFunction parses a function declaration or anonymous function
// expression, including the optional constructor-inheritance clause.
func (p *Parser) parseFunction() (*ast.FunctionDeclaration, error) {
	start := p.next() // 'function'
	fn := &ast.FunctionDeclaration{}
	if tok, ok := p.accept(lexer.KindIdentifier); ok {
		fn.Name = p.identifier(tok)
	}

	params, err := p.parseParameters()
	if err != nil {
		return nil, err
	}
	fn.Params = params

	if colon, ok := p.accept(lexer.KindColon); ok {
		parentTok, err := p.expect(lexer.KindIdentifier)
		if err != nil {
			return nil, err
		}
		clause := &ast.ConstructorClause{ParentName: p.identifier(parentTok)}
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		clause.Args = args
		clause.Loc = p.spanFrom(colon)
		fn.Inherits = clause
		if _, err := p.expect(lexer.KindConstructor); err != nil {
			return nil, err
		}
		fn.IsConstructor = true
	} else if _, ok := p.accept(lexer.KindConstructor); ok {
		fn.IsConstructor = true
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	fn.Loc = p.spanFrom(start)
	return fn, nil
}

func (p *Parser) parseParameters() ([]*ast.Parameter, error) {
	if _, err := p.expect(lexer.KindLParen); err != nil {
		return nil, err
	}
	var params []*ast.Parameter
	for !p.at(lexer.KindRParen) {
		if p.at(lexer.KindEOF) {
			return nil, p.errorAt(p.peek(), "unterminated parameter list")
		}
		nameTok, err := p.expect(lexer.KindIdentifier)
		if err != nil {
			return nil, err
		}
		param := &ast.Parameter{Name: p.identifier(nameTok)}
		if _, ok := p.accept(lexer.KindAssign); ok {
			def, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			param.Default = def
		}
		param.Loc = p.spanFrom(nameTok)
		params = append(params, param)
		if _, ok := p.accept(lexer.KindComma); !ok {
			break
		}
	}
	if _, err := p.expect(lexer.KindRParen); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseMacro() (ast.Stmt, error) {
	start := p.next() // '#macro'
	nameTok, err := p.expect(lexer.KindIdentifier)
	if err != nil {
		return nil, err
	}
	decl := &ast.MacroDeclaration{}
	if _, ok := p.accept(lexer.KindColon); ok {
		// Config form: '#macro Config:NAME value'.
		decl.ConfigName = nameTok.Text
		nameTok, err = p.expect(lexer.KindIdentifier)
		if err != nil {
			return nil, err
		}
	}
	decl.Name = p.identifier(nameTok)
	if tok, ok := p.accept(lexer.KindMacroValue); ok {
		decl.Value = tok.Text
	}
	decl.Loc = p.spanFrom(start)
	return decl, nil
}

// parseSimpleStatement parses a statement that starts with an expression:
// an assignment, an increment/decrement, or a bare expression statement.
// Assignment targets must be lvalue chains terminating in an identifier,
// index, or dot-member access; a chain ending in a call is rejected.
func (p *Parser) parseSimpleStatement(terminated bool) (ast.Stmt, error) {
	start := p.peek()

	// Parse the lvalue chain first: assignment operators are claimed by the
	// statement, while `=` deeper inside an expression reads as equality.
	chain, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	if op, ok := p.acceptAssignOperator(); ok {
		if err := checkAssignable(p, chain, start); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if terminated {
			p.acceptSemicolon()
		}
		return &ast.AssignmentStatement{
			Base:     ast.Base{Loc: p.spanFrom(start)},
			Operator: op,
			Target:   chain,
			Value:    value,
		}, nil
	}

	// Not an assignment: keep parsing the surrounding expression with the
	// chain as the leftmost operand.
	expr, err := p.continueExpression(chain)
	if err != nil {
		return nil, err
	}
	if terminated {
		p.acceptSemicolon()
	}
	return &ast.ExpressionStatement{
		Base:       ast.Base{Loc: p.spanFrom(start)},
		Expression: expr,
	}, nil
}

func (p *Parser) acceptAssignOperator() (string, bool) {
	switch p.peek().Kind {
	case lexer.KindAssign, lexer.KindPlusAssign, lexer.KindMinusAssign,
		lexer.KindStarAssign, lexer.KindSlashAssign, lexer.KindPercentAssign,
		lexer.KindAmpAssign, lexer.KindPipeAssign, lexer.KindCaretAssign,
		lexer.KindShlAssign, lexer.KindShrAssign, lexer.KindNullishAssign:
		return p.next().Text, true
	}
	return "", false
}

// checkAssignable enforces the lvalue-chain rule: only an identifier, or a
// member expression (index or dot access), terminates an assignable chain.
func checkAssignable(p *Parser, target ast.Expr, start lexer.Token) *SyntaxError {
	switch target.(type) {
	case *ast.Identifier, *ast.MemberExpression:
		return nil
	case *ast.CallExpression:
		return p.errorAt(start, "cannot assign to a call result")
	default:
		return p.errorAt(start, "invalid assignment target (%s)", target.Kind())
	}
}

func (p *Parser) identifier(tok lexer.Token) *ast.Identifier {
	s := position.NewSpan(tok.Pos(), tok.Span().End)
	return &ast.Identifier{
		Base: ast.Base{Loc: &s},
		Name: tok.Text,
	}
}
