package parser

import (
	"github.com/SimulatorLife/gml-parser/internal/ast"
	"github.com/SimulatorLife/gml-parser/internal/lexer"
	"github.com/SimulatorLife/gml-parser/internal/position"
)

// Binary operator precedence, highest binding first. Unary operators bind
// tighter than every entry; the ternary conditional sits below all of them.
// Assignment never appears here: it is a statement-level construct.
const (
	precXor         = iota + 1 // ^^ / xor
	precOr                     // ||
	precAnd                    // &&
	precNullish                // ?? (right-associative)
	precEquality               // == != <> < <= > >= and legacy '='
	precBitOr                  // |
	precBitXor                 // ^
	precBitAnd                 // &
	precShift                  // << >>
	precAdditive               // + -
	precMultiplica             // * / div mod %
)

var binaryPrec = map[lexer.Kind]int{
	lexer.KindStar:    precMultiplica,
	lexer.KindSlash:   precMultiplica,
	lexer.KindIntDiv:  precMultiplica,
	lexer.KindPercent: precMultiplica,

	lexer.KindPlus:  precAdditive,
	lexer.KindMinus: precAdditive,

	lexer.KindShl: precShift,
	lexer.KindShr: precShift,

	lexer.KindAmp:   precBitAnd,
	lexer.KindCaret: precBitXor,
	lexer.KindPipe:  precBitOr,

	lexer.KindEq:        precEquality,
	lexer.KindNotEq:     precEquality,
	lexer.KindLess:      precEquality,
	lexer.KindLessEq:    precEquality,
	lexer.KindGreater:   precEquality,
	lexer.KindGreaterEq: precEquality,
	// Legacy GML reads a bare '=' as equality in expression position.
	lexer.KindAssign: precEquality,

	lexer.KindNullish: precNullish,
	lexer.KindAndAnd:  precAnd,
	lexer.KindOrOr:    precOr,
	lexer.KindXorXor:  precXor,
}

func rightAssociative(kind lexer.Kind) bool {
	return kind == lexer.KindNullish
}

// parseExpression parses a full expression including the ternary
// conditional, which is right-associative and binds loosest.
func (p *Parser) parseExpression() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.continueExpression(left)
}

// continueExpression finishes an expression whose leftmost operand has
// already been parsed, used by statement parsing which claims assignment
// operators before expression parsing can read '=' as equality.
func (p *Parser) continueExpression(left ast.Expr) (ast.Expr, error) {
	expr, err := p.parseBinary(left, 1)
	if err != nil {
		return nil, err
	}
	return p.parseTernary(expr)
}

func (p *Parser) parseBinary(left ast.Expr, minPrec int) (ast.Expr, error) {
	for {
		opTok := p.peek()
		prec, ok := binaryPrec[opTok.Kind]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.next()

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		nextMin := prec + 1
		if rightAssociative(opTok.Kind) {
			nextMin = prec
		}
		right, err = p.parseBinary(right, nextMin)
		if err != nil {
			return nil, err
		}

		loc := spanOver(left, right)
		left = &ast.BinaryExpression{
			Base:     ast.Base{Loc: loc},
			Operator: opTok.Text,
			Left:     left,
			Right:    right,
		}
	}
}

func (p *Parser) parseTernary(test ast.Expr) (ast.Expr, error) {
	if _, ok := p.accept(lexer.KindQuestion); !ok {
		return test, nil
	}
	cons, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindColon); err != nil {
		return nil, err
	}
	// Right-associative: the alternate swallows any nested ternary.
	alt, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.TernaryExpression{
		Base:       ast.Base{Loc: spanOver(test, alt)},
		Test:       test,
		Consequent: cons,
		Alternate:  alt,
	}, nil
}

// parseUnary parses prefix operators and hands off to the postfix chain.
func (p *Parser) parseUnary() (ast.Expr, error) {
	switch tok := p.peek(); tok.Kind {
	case lexer.KindBang, lexer.KindTilde, lexer.KindMinus, lexer.KindPlus:
		start := p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{
			Base:     ast.Base{Loc: p.spanFrom(start)},
			Operator: start.Text,
			Operand:  operand,
		}, nil
	case lexer.KindPlusPlus, lexer.KindMinusMinus:
		start := p.next()
		target, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.IncDecExpression{
			Base:     ast.Base{Loc: p.spanFrom(start)},
			Operator: start.Text,
			Target:   target,
			Prefix:   true,
		}, nil
	case lexer.KindNew:
		return p.parseNew()
	default:
		primary, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return p.parsePostfix(primary)
	}
}

// parseNew parses `new Ctor(args)`. The construction target is a dot chain,
// never a call: the argument list belongs to the construction itself.
func (p *Parser) parseNew() (ast.Expr, error) {
	start := p.next() // 'new'
	nameTok, err := p.expect(lexer.KindIdentifier)
	if err != nil {
		return nil, err
	}
	var callee ast.Expr = p.identifier(nameTok)
	for {
		if _, ok := p.accept(lexer.KindDot); !ok {
			break
		}
		propTok, err := p.expect(lexer.KindIdentifier)
		if err != nil {
			return nil, err
		}
		callee = &ast.MemberExpression{
			Base:     ast.Base{Loc: p.spanFrom(nameTok)},
			Object:   callee,
			Accessor: ast.AccessorDot,
			Property: p.identifier(propTok),
		}
	}
	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	expr := &ast.NewExpression{
		Base:      ast.Base{Loc: p.spanFrom(start)},
		Callee:    callee,
		Arguments: args,
	}
	return p.parsePostfix(expr)
}

var accessorKinds = map[lexer.Kind]ast.AccessorKind{
	lexer.KindLBracket:       ast.AccessorIndex,
	lexer.KindLBracketList:   ast.AccessorList,
	lexer.KindLBracketMap:    ast.AccessorMap,
	lexer.KindLBracketGrid:   ast.AccessorGrid,
	lexer.KindLBracketStruct: ast.AccessorStruct,
	lexer.KindLBracketArray:  ast.AccessorArray,
}

// parsePostfix parses the lvalue-chain operators: indexing (all accessor
// forms), dot-member access, calls, and a postfix increment/decrement.
func (p *Parser) parsePostfix(expr ast.Expr) (ast.Expr, error) {
	startPos := exprStart(expr)
	for {
		tok := p.peek()
		if accessor, ok := accessorKinds[tok.Kind]; ok {
			p.next()
			indices, err := p.parseIndexList()
			if err != nil {
				return nil, err
			}
			s := position.NewSpan(startPos, p.lastEnd)
			expr = &ast.MemberExpression{
				Base:     ast.Base{Loc: &s},
				Object:   expr,
				Accessor: accessor,
				Indices:  indices,
			}
			continue
		}
		switch tok.Kind {
		case lexer.KindDot:
			p.next()
			propTok, err := p.expect(lexer.KindIdentifier)
			if err != nil {
				return nil, err
			}
			s := position.NewSpan(startPos, p.lastEnd)
			expr = &ast.MemberExpression{
				Base:     ast.Base{Loc: &s},
				Object:   expr,
				Accessor: ast.AccessorDot,
				Property: p.identifier(propTok),
			}
		case lexer.KindLParen:
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			s := position.NewSpan(startPos, p.lastEnd)
			expr = &ast.CallExpression{
				Base:      ast.Base{Loc: &s},
				Callee:    expr,
				Arguments: args,
			}
		case lexer.KindPlusPlus, lexer.KindMinusMinus:
			op := p.next()
			s := position.NewSpan(startPos, p.lastEnd)
			return &ast.IncDecExpression{
				Base:     ast.Base{Loc: &s},
				Operator: op.Text,
				Target:   expr,
			}, nil
		default:
			return expr, nil
		}
	}
}

// parseIndexList parses the index expressions of a bracket accessor; grid
// access carries two, the others one.
func (p *Parser) parseIndexList() ([]ast.Expr, error) {
	var indices []ast.Expr
	for {
		idx, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
		if _, ok := p.accept(lexer.KindComma); !ok {
			break
		}
	}
	if _, err := p.expect(lexer.KindRBracket); err != nil {
		return nil, err
	}
	return indices, nil
}

// parseArguments parses a call argument list. Elided arguments become
// explicit MissingArgument placeholders so call arity survives; a trailing
// comma adds nothing.
func (p *Parser) parseArguments() ([]ast.Expr, error) {
	if _, err := p.expect(lexer.KindLParen); err != nil {
		return nil, err
	}
	var args []ast.Expr
	expectElement := true
	for !p.at(lexer.KindRParen) {
		if p.at(lexer.KindEOF) {
			return nil, p.errorAt(p.peek(), "unterminated argument list")
		}
		if tok, ok := p.accept(lexer.KindComma); ok {
			if expectElement {
				s := position.NewSpan(tok.Pos(), tok.Pos())
				args = append(args, &ast.MissingArgument{Base: ast.Base{Loc: &s}})
			}
			expectElement = true
			continue
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		expectElement = false
	}
	p.next() // ')'
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case lexer.KindIdentifier, lexer.KindGlobal:
		p.next()
		return p.identifier(tok), nil
	case lexer.KindIntLit:
		return p.literal(ast.LitInt), nil
	case lexer.KindDecimalLit:
		return p.literal(ast.LitDecimal), nil
	case lexer.KindHexLit:
		return p.literal(ast.LitHex), nil
	case lexer.KindBinaryLit:
		return p.literal(ast.LitBinary), nil
	case lexer.KindStringLit:
		return p.literal(ast.LitString), nil
	case lexer.KindVerbatimStringLit:
		return p.literal(ast.LitVerbatimString), nil
	case lexer.KindTrue, lexer.KindFalse:
		return p.literal(ast.LitBool), nil
	case lexer.KindUndefined:
		return p.literal(ast.LitUndefined), nil
	case lexer.KindNoone:
		return p.literal(ast.LitNoone), nil
	case lexer.KindAll:
		return p.literal(ast.LitAll), nil
	case lexer.KindTemplateStringLit:
		return p.parseTemplateString()
	case lexer.KindLParen:
		start := p.next()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.KindRParen); err != nil {
			return nil, err
		}
		return &ast.ParenExpression{
			Base:       ast.Base{Loc: p.spanFrom(start)},
			Expression: inner,
		}, nil
	case lexer.KindLBracket:
		return p.parseArrayLiteral()
	case lexer.KindLBrace:
		return p.parseStructLiteral()
	case lexer.KindFunction:
		return p.parseFunction()
	default:
		return nil, p.errorAt(tok, "unexpected token %q in expression", tokenText(tok))
	}
}

func (p *Parser) literal(kind ast.LiteralKind) *ast.Literal {
	tok := p.next()
	s := position.NewSpan(tok.Pos(), tok.Span().End)
	return &ast.Literal{
		Base:        ast.Base{Loc: &s},
		LiteralKind: kind,
		Raw:         tok.Text,
	}
}

// parseTemplateString builds a template-string node by sub-parsing each
// embedded expression span recorded by the scanner. The literal body itself
// is never re-scanned.
func (p *Parser) parseTemplateString() (ast.Expr, error) {
	tok := p.next()
	node := &ast.TemplateString{Raw: tok.Text}
	s := position.NewSpan(tok.Pos(), tok.Span().End)
	node.Loc = &s

	for _, span := range tok.Embedded {
		text := p.src[span.Start.Offset:span.End.Offset]
		expr, err := parseExpressionText(text)
		if err != nil {
			serr := err.(*SyntaxError)
			serr.Pos = span.Start
			return nil, serr
		}
		rebase(expr, span.Start)
		node.Substitutions = append(node.Substitutions, expr)
	}
	return node, nil
}

// parseExpressionText parses a standalone expression, for template string
// substitutions.
func parseExpressionText(text string) (ast.Expr, error) {
	tokens, err := lexer.New(text, lexer.ModeStrict).Tokenize()
	if err != nil {
		lerr := err.(*lexer.LexicalError)
		return nil, &SyntaxError{
			Message: lerr.Message,
			Pos:     position.Position{Line: lerr.Line, Column: lerr.Column, Offset: lerr.Offset},
		}
	}
	sub := New(text, tokens)
	expr, perr := sub.parseExpression()
	if perr != nil {
		return nil, perr
	}
	if !sub.at(lexer.KindEOF) {
		tok := sub.peek()
		return nil, sub.errorAt(tok, "unexpected token %q after expression", tokenText(tok))
	}
	return expr, nil
}

// rebase shifts a sub-parsed expression's locations from substitution-local
// coordinates into the coordinates of the enclosing source.
func rebase(root ast.Node, base position.Position) {
	shift := func(pos *position.Position) {
		if pos.Line == 1 {
			pos.Column += base.Column - 1
		}
		pos.Line += base.Line - 1
		pos.Offset += base.Offset
	}
	l := &ast.Listener{
		EnterAny: func(n ast.Node) {
			if loc := n.Span(); loc != nil {
				shift(&loc.Start)
				shift(&loc.End)
			}
		},
	}
	// The sub-tree was just built; walking it cannot exceed the depth cap.
	_ = l.Walk(root)
}

func (p *Parser) parseArrayLiteral() (ast.Expr, error) {
	start := p.next() // '['
	lit := &ast.ArrayLiteral{}
	for !p.at(lexer.KindRBracket) {
		if p.at(lexer.KindEOF) {
			return nil, p.errorAt(p.peek(), "unterminated array literal")
		}
		elem, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		lit.Elements = append(lit.Elements, elem)
		if _, ok := p.accept(lexer.KindComma); !ok {
			break
		}
	}
	if _, err := p.expect(lexer.KindRBracket); err != nil {
		return nil, err
	}
	lit.Loc = p.spanFrom(start)
	return lit, nil
}

func (p *Parser) parseStructLiteral() (ast.Expr, error) {
	start := p.next() // '{'
	lit := &ast.StructLiteral{}
	for !p.at(lexer.KindRBrace) {
		if p.at(lexer.KindEOF) {
			return nil, p.errorAt(p.peek(), "unterminated struct literal")
		}
		prop, err := p.parseStructProperty()
		if err != nil {
			return nil, err
		}
		lit.Properties = append(lit.Properties, prop)
		if _, ok := p.accept(lexer.KindComma); !ok {
			break
		}
	}
	if _, err := p.expect(lexer.KindRBrace); err != nil {
		return nil, err
	}
	lit.Loc = p.spanFrom(start)
	return lit, nil
}

func (p *Parser) parseStructProperty() (*ast.StructProperty, error) {
	keyTok := p.peek()
	var key ast.Expr
	switch keyTok.Kind {
	case lexer.KindIdentifier:
		p.next()
		key = p.identifier(keyTok)
	case lexer.KindStringLit:
		key = p.literal(ast.LitString)
	default:
		return nil, p.errorAt(keyTok, "expected struct key, found %q", tokenText(keyTok))
	}
	if _, err := p.expect(lexer.KindColon); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.StructProperty{
		Base:  ast.Base{Loc: p.spanFrom(keyTok)},
		Key:   key,
		Value: value,
	}, nil
}

func exprStart(e ast.Expr) position.Position {
	if loc := e.Span(); loc != nil {
		return loc.Start
	}
	return position.Position{}
}

func spanOver(left, right ast.Expr) *position.Span {
	ls, rs := left.Span(), right.Span()
	if ls == nil || rs == nil {
		return nil
	}
	s := ls.Union(*rs)
	return &s
}
