// Package lexer implements the GML lexical scanner. The scanner is lossless:
// whitespace and comments are retained on side channels instead of being
// discarded, so concatenating every token's text in order reconstructs the
// source exactly.
package lexer

import (
	"fmt"
	"strings"

	"github.com/SimulatorLife/gml-parser/internal/lang"
	"github.com/SimulatorLife/gml-parser/internal/position"
)

// Mode selects the scanner's recovery behavior.
type Mode int

const (
	// ModeStrict fails immediately on an unterminated string, template or
	// block comment.
	ModeStrict Mode = iota

	// ModeLenient synthesizes an error token and resumes scanning at the
	// next recognizable boundary, for partial analysis of in-progress text.
	ModeLenient
)

// LexicalError reports an unterminated literal or an unexpected character,
// carrying the offending start offset.
type LexicalError struct {
	Message string
	Offset  int
	Line    int
	Column  int
}

// Error implements the error interface.
func (e *LexicalError) Error() string {
	return fmt.Sprintf("lexical error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// macro scanning phases
const (
	macroNone  = iota
	macroName  // '#macro' seen, expecting the macro name
	macroValue // name seen, expecting the raw replacement text
)

// Lexer scans GML source text into tokens. State is per invocation; the only
// shared data are the read-only classification tables in package lang.
type Lexer struct {
	input string
	pos   int // byte offset of the next unread character
	line  int // 1-based line of input[pos]
	col   int // 1-based column of input[pos]

	mode       Mode
	errs       []*LexicalError
	macroPhase int
}

// New creates a scanner for the given source text.
func New(input string, mode Mode) *Lexer {
	return &Lexer{input: input, line: 1, col: 1, mode: mode}
}

// Errors returns the lexical errors accumulated in lenient mode.
func (l *Lexer) Errors() []*LexicalError { return l.errs }

// Tokenize scans the whole input. In strict mode the first lexical error
// aborts the scan; in lenient mode error tokens are synthesized and scanning
// continues. The returned slice always ends with an EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, lerr := l.next()
		if lerr != nil {
			if l.mode == ModeStrict {
				return tokens, lerr
			}
			l.errs = append(l.errs, lerr)
			// The error token covers everything consumed since the error's
			// start offset, keeping the token stream lossless.
			tok = l.makeToken(KindError, lerr.Offset, lerr.Line, lerr.Column)
			tokens = append(tokens, tok)
			continue
		}
		tokens = append(tokens, tok)
		if tok.Kind == KindEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) makeToken(kind Kind, start, line, col int) Token {
	channel := ChannelCode
	switch kind {
	case KindWhitespace:
		channel = ChannelWhitespace
	case KindLineComment, KindBlockComment, KindRegion, KindEndRegion:
		channel = ChannelComment
	}
	return Token{
		Kind:    kind,
		Text:    l.input[start:l.pos],
		Start:   start,
		End:     l.pos,
		Line:    line,
		Column:  col,
		Channel: channel,
	}
}

func (l *Lexer) errorAt(start, line, col int, format string, args ...any) *LexicalError {
	return &LexicalError{
		Message: fmt.Sprintf(format, args...),
		Offset:  start,
		Line:    line,
		Column:  col,
	}
}

// next scans one token. On a lexical error the input is already positioned
// at the resume boundary so that lenient mode can continue.
func (l *Lexer) next() (Token, *LexicalError) {
	start, line, col := l.pos, l.line, l.col
	ch := l.peek()

	if l.macroPhase == macroValue && ch != 0 && ch != ' ' && ch != '\t' &&
		ch != '\r' && ch != '\n' {
		return l.scanMacroValue(start, line, col), nil
	}

	switch {
	case ch == 0:
		return l.makeToken(KindEOF, start, line, col), nil
	case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
		return l.scanWhitespace(start, line, col), nil
	case ch == '/' && l.peekAt(1) == '/':
		return l.scanLineComment(start, line, col), nil
	case ch == '/' && l.peekAt(1) == '*':
		return l.scanBlockComment(start, line, col)
	case ch == '"':
		return l.scanString(start, line, col)
	case ch == '@' && (l.peekAt(1) == '"' || l.peekAt(1) == '\''):
		return l.scanVerbatimString(start, line, col)
	case ch == '$' && l.peekAt(1) == '"':
		return l.scanTemplateString(start, line, col)
	case ch == '$' && isHexDigit(l.peekAt(1)):
		return l.scanPrefixedDigits(start, line, col, KindHexLit, isHexDigit), nil
	case ch == '#':
		return l.scanDirective(start, line, col)
	case isDigit(ch) || (ch == '.' && isDigit(l.peekAt(1))):
		return l.scanNumber(start, line, col), nil
	case isWordStart(ch):
		return l.scanWord(start, line, col), nil
	default:
		return l.scanOperator(start, line, col)
	}
}

func (l *Lexer) scanWhitespace(start, line, col int) Token {
	for {
		ch := l.peek()
		if ch != ' ' && ch != '\t' && ch != '\r' && ch != '\n' {
			break
		}
		if ch == '\n' && l.macroPhase != macroNone {
			// A macro directive ends at an unescaped end of line.
			l.macroPhase = macroNone
		}
		l.advance()
	}
	return l.makeToken(KindWhitespace, start, line, col)
}

func (l *Lexer) scanLineComment(start, line, col int) Token {
	for l.peek() != 0 && l.peek() != '\n' {
		l.advance()
	}
	tok := l.makeToken(KindLineComment, start, line, col)
	tok.IsDoc = strings.HasPrefix(tok.Text, "///")
	return tok
}

func (l *Lexer) scanBlockComment(start, line, col int) (Token, *LexicalError) {
	l.advance() // '/'
	l.advance() // '*'
	for {
		ch := l.peek()
		if ch == 0 {
			return Token{}, l.errorAt(start, line, col, "unterminated block comment")
		}
		if ch == '*' && l.peekAt(1) == '/' {
			l.advance()
			l.advance()
			break
		}
		l.advance()
	}
	tok := l.makeToken(KindBlockComment, start, line, col)
	tok.IsDoc = strings.HasPrefix(tok.Text, "/**") && tok.Text != "/**/"
	return tok, nil
}

func (l *Lexer) scanString(start, line, col int) (Token, *LexicalError) {
	l.advance() // opening quote
	for {
		switch l.peek() {
		case 0, '\n':
			// Resume at the line boundary.
			return Token{}, l.errorAt(start, line, col, "unterminated string literal")
		case '\\':
			l.advance()
			l.advance()
		case '"':
			l.advance()
			return l.makeToken(KindStringLit, start, line, col), nil
		default:
			l.advance()
		}
	}
}

func (l *Lexer) scanVerbatimString(start, line, col int) (Token, *LexicalError) {
	l.advance() // '@'
	quote := l.advance()
	for {
		ch := l.peek()
		if ch == 0 {
			return Token{}, l.errorAt(start, line, col, "unterminated verbatim string literal")
		}
		l.advance()
		if ch == quote {
			return l.makeToken(KindVerbatimStringLit, start, line, col), nil
		}
	}
}

func (l *Lexer) scanTemplateString(start, line, col int) (Token, *LexicalError) {
	l.advance() // '$'
	l.advance() // '"'
	var embedded []position.Span
	for {
		switch l.peek() {
		case 0, '\n':
			return Token{}, l.errorAt(start, line, col, "unterminated template string literal")
		case '\\':
			l.advance()
			l.advance()
		case '"':
			l.advance()
			tok := l.makeToken(KindTemplateStringLit, start, line, col)
			tok.Embedded = embedded
			return tok, nil
		case '{':
			l.advance()
			exprStart := position.Position{Line: l.line, Column: l.col, Offset: l.pos}
			depth := 1
			for depth > 0 {
				ch := l.peek()
				if ch == 0 || ch == '\n' {
					return Token{}, l.errorAt(start, line, col, "unterminated template string literal")
				}
				if ch == '{' {
					depth++
				}
				if ch == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				l.advance()
			}
			exprEnd := position.Position{Line: l.line, Column: l.col, Offset: l.pos}
			l.advance() // '}'
			embedded = append(embedded, position.Span{Start: exprStart, End: exprEnd})
		default:
			l.advance()
		}
	}
}

// scanDirective handles '#macro', '#region'/'#endregion' and '#RRGGBB'
// colour literals.
func (l *Lexer) scanDirective(start, line, col int) (Token, *LexicalError) {
	l.advance() // '#'
	wordStart := l.pos
	for isWordPart(l.peek()) {
		l.advance()
	}
	switch word := l.input[wordStart:l.pos]; word {
	case "macro":
		l.macroPhase = macroName
		return l.makeToken(KindMacro, start, line, col), nil
	case "region", "endregion":
		for l.peek() != 0 && l.peek() != '\n' {
			l.advance()
		}
		kind := KindRegion
		if word == "endregion" {
			kind = KindEndRegion
		}
		return l.makeToken(kind, start, line, col), nil
	default:
		if isAllHex(word) && word != "" {
			return l.makeToken(KindHexLit, start, line, col), nil
		}
		return Token{}, l.errorAt(start, line, col, "unexpected character '#'")
	}
}

// scanMacroValue captures the raw replacement text of a macro up to the end
// of line, honoring '\' line continuations. The text is preserved verbatim;
// this scanner never re-parses it.
func (l *Lexer) scanMacroValue(start, line, col int) Token {
	for {
		ch := l.peek()
		if ch == 0 {
			break
		}
		if ch == '\n' {
			break
		}
		if ch == '\\' && (l.peekAt(1) == '\n' || (l.peekAt(1) == '\r' && l.peekAt(2) == '\n')) {
			l.advance() // '\'
			if l.peek() == '\r' {
				l.advance()
			}
			l.advance() // '\n'
			continue
		}
		l.advance()
	}
	l.macroPhase = macroNone
	return l.makeToken(KindMacroValue, start, line, col)
}

func (l *Lexer) scanNumber(start, line, col int) Token {
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.advance()
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
		return l.makeToken(KindHexLit, start, line, col)
	}
	if l.peek() == '0' && (l.peekAt(1) == 'b' || l.peekAt(1) == 'B') {
		l.advance()
		l.advance()
		for l.peek() == '0' || l.peek() == '1' {
			l.advance()
		}
		return l.makeToken(KindBinaryLit, start, line, col)
	}

	decimal := false
	if l.peek() == '.' {
		decimal = true
		l.advance()
	}
	for isDigit(l.peek()) {
		l.advance()
	}
	if !decimal && l.peek() == '.' && isDigit(l.peekAt(1)) {
		decimal = true
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	kind := KindIntLit
	if decimal {
		kind = KindDecimalLit
	}
	return l.makeToken(kind, start, line, col)
}

func (l *Lexer) scanPrefixedDigits(start, line, col int, kind Kind, digit func(byte) bool) Token {
	l.advance() // prefix character
	for digit(l.peek()) {
		l.advance()
	}
	return l.makeToken(kind, start, line, col)
}

func (l *Lexer) scanWord(start, line, col int) Token {
	for isWordPart(l.peek()) {
		l.advance()
	}
	word := l.input[start:l.pos]

	var tok Token
	switch lang.Classify(word) {
	case lang.ClassKeyword, lang.ClassLiteral, lang.ClassWordOperator:
		kind, ok := keywordKinds[word]
		if !ok {
			kind = KindIdentifier
		}
		tok = l.makeToken(kind, start, line, col)
	default:
		// Builtin variables stay plain identifiers at this stage; the scope
		// tracker classifies them.
		tok = l.makeToken(KindIdentifier, start, line, col)
	}

	// The config form '#macro Config:NAME value' carries two words; the
	// value phase starts only after the one not followed by ':'.
	if l.macroPhase == macroName && l.peek() != ':' {
		l.macroPhase = macroValue
	}
	return tok
}

func (l *Lexer) scanOperator(start, line, col int) (Token, *LexicalError) {
	ch := l.advance()
	kind := KindError

	two := func(next byte, with, without Kind) Kind {
		if l.peek() == next {
			l.advance()
			return with
		}
		return without
	}

	switch ch {
	case '+':
		switch l.peek() {
		case '+':
			l.advance()
			kind = KindPlusPlus
		case '=':
			l.advance()
			kind = KindPlusAssign
		default:
			kind = KindPlus
		}
	case '-':
		switch l.peek() {
		case '-':
			l.advance()
			kind = KindMinusMinus
		case '=':
			l.advance()
			kind = KindMinusAssign
		default:
			kind = KindMinus
		}
	case '*':
		kind = two('=', KindStarAssign, KindStar)
	case '/':
		kind = two('=', KindSlashAssign, KindSlash)
	case '%':
		kind = two('=', KindPercentAssign, KindPercent)
	case '=':
		kind = two('=', KindEq, KindAssign)
	case '!':
		kind = two('=', KindNotEq, KindBang)
	case '<':
		switch l.peek() {
		case '=':
			l.advance()
			kind = KindLessEq
		case '>':
			l.advance()
			kind = KindNotEq
		case '<':
			l.advance()
			kind = two('=', KindShlAssign, KindShl)
		default:
			kind = KindLess
		}
	case '>':
		switch l.peek() {
		case '=':
			l.advance()
			kind = KindGreaterEq
		case '>':
			l.advance()
			kind = two('=', KindShrAssign, KindShr)
		default:
			kind = KindGreater
		}
	case '&':
		switch l.peek() {
		case '&':
			l.advance()
			kind = KindAndAnd
		case '=':
			l.advance()
			kind = KindAmpAssign
		default:
			kind = KindAmp
		}
	case '|':
		switch l.peek() {
		case '|':
			l.advance()
			kind = KindOrOr
		case '=':
			l.advance()
			kind = KindPipeAssign
		default:
			kind = KindPipe
		}
	case '^':
		switch l.peek() {
		case '^':
			l.advance()
			kind = KindXorXor
		case '=':
			l.advance()
			kind = KindCaretAssign
		default:
			kind = KindCaret
		}
	case '~':
		kind = KindTilde
	case '?':
		if l.peek() == '?' {
			l.advance()
			kind = two('=', KindNullishAssign, KindNullish)
		} else {
			kind = KindQuestion
		}
	case ':':
		kind = KindColon
	case '(':
		kind = KindLParen
	case ')':
		kind = KindRParen
	case '{':
		kind = KindLBrace
	case '}':
		kind = KindRBrace
	case '[':
		if name, ok := lang.AccessorName(l.peek()); ok {
			l.advance()
			kind = accessorKinds[name]
		} else {
			kind = KindLBracket
		}
	case ']':
		kind = KindRBracket
	case ',':
		kind = KindComma
	case '.':
		kind = KindDot
	case ';':
		kind = KindSemicolon
	default:
		return Token{}, l.errorAt(start, line, col, "unexpected character %q", string(ch))
	}
	return l.makeToken(kind, start, line, col), nil
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isWordStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isWordPart(ch byte) bool { return isWordStart(ch) || isDigit(ch) }

func isAllHex(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return len(s) > 0
}
