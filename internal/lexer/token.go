package lexer

import (
	"fmt"

	"github.com/SimulatorLife/gml-parser/internal/position"
)

// Kind identifies the lexical kind of a token.
type Kind int

// String returns a string representation of the token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(k))
}

// Token kinds. Literal sub-kinds are distinguished here so later stages
// never have to re-scan literal bodies.
const (
	KindEOF Kind = iota
	KindError

	// Trivia channels.
	KindWhitespace
	KindLineComment
	KindBlockComment
	KindRegion
	KindEndRegion

	KindIdentifier

	// Literals.
	KindIntLit
	KindDecimalLit
	KindHexLit
	KindBinaryLit
	KindStringLit
	KindVerbatimStringLit
	KindTemplateStringLit

	// Keywords.
	KindVar
	KindGlobalVar
	KindFunction
	KindConstructor
	KindStatic
	KindNew
	KindDelete
	KindIf
	KindElse
	KindWhile
	KindDo
	KindUntil
	KindFor
	KindRepeat
	KindSwitch
	KindCase
	KindDefault
	KindBreak
	KindContinue
	KindExit
	KindReturn
	KindWith
	KindEnum
	KindTry
	KindCatch
	KindFinally
	KindThrow
	KindGlobal

	// Keyword-shaped literals.
	KindTrue
	KindFalse
	KindUndefined
	KindNoone
	KindAll

	// Macro directive. The value token carries the raw replacement text up
	// to the (unescaped) end of line.
	KindMacro
	KindMacroValue

	// Operators.
	KindPlus
	KindMinus
	KindStar
	KindSlash
	KindPercent
	KindIntDiv
	KindPlusPlus
	KindMinusMinus
	KindAssign
	KindPlusAssign
	KindMinusAssign
	KindStarAssign
	KindSlashAssign
	KindPercentAssign
	KindAmpAssign
	KindPipeAssign
	KindCaretAssign
	KindShlAssign
	KindShrAssign
	KindNullishAssign
	KindEq
	KindNotEq
	KindLess
	KindLessEq
	KindGreater
	KindGreaterEq
	KindAndAnd
	KindOrOr
	KindXorXor
	KindBang
	KindAmp
	KindPipe
	KindCaret
	KindTilde
	KindShl
	KindShr
	KindNullish
	KindQuestion
	KindColon

	// Delimiters. The specialized bracket kinds carry the accessor marker
	// for list/map/grid/struct/array container indexing.
	KindLParen
	KindRParen
	KindLBrace
	KindRBrace
	KindLBracket
	KindLBracketList
	KindLBracketMap
	KindLBracketGrid
	KindLBracketStruct
	KindLBracketArray
	KindRBracket
	KindComma
	KindDot
	KindSemicolon
)

var kindNames = map[Kind]string{
	KindEOF:        "EOF",
	KindError:      "ERROR",
	KindWhitespace: "WHITESPACE",

	KindLineComment:  "LINE_COMMENT",
	KindBlockComment: "BLOCK_COMMENT",
	KindRegion:       "REGION",
	KindEndRegion:    "END_REGION",

	KindIdentifier: "IDENTIFIER",

	KindIntLit:            "INT",
	KindDecimalLit:        "DECIMAL",
	KindHexLit:            "HEX",
	KindBinaryLit:         "BINARY",
	KindStringLit:         "STRING",
	KindVerbatimStringLit: "VERBATIM_STRING",
	KindTemplateStringLit: "TEMPLATE_STRING",

	KindVar:         "VAR",
	KindGlobalVar:   "GLOBALVAR",
	KindFunction:    "FUNCTION",
	KindConstructor: "CONSTRUCTOR",
	KindStatic:      "STATIC",
	KindNew:         "NEW",
	KindDelete:      "DELETE",
	KindIf:          "IF",
	KindElse:        "ELSE",
	KindWhile:       "WHILE",
	KindDo:          "DO",
	KindUntil:       "UNTIL",
	KindFor:         "FOR",
	KindRepeat:      "REPEAT",
	KindSwitch:      "SWITCH",
	KindCase:        "CASE",
	KindDefault:     "DEFAULT",
	KindBreak:       "BREAK",
	KindContinue:    "CONTINUE",
	KindExit:        "EXIT",
	KindReturn:      "RETURN",
	KindWith:        "WITH",
	KindEnum:        "ENUM",
	KindTry:         "TRY",
	KindCatch:       "CATCH",
	KindFinally:     "FINALLY",
	KindThrow:       "THROW",
	KindGlobal:      "GLOBAL",

	KindTrue:      "TRUE",
	KindFalse:     "FALSE",
	KindUndefined: "UNDEFINED",
	KindNoone:     "NOONE",
	KindAll:       "ALL",

	KindMacro:      "MACRO",
	KindMacroValue: "MACRO_VALUE",

	KindPlus:          "PLUS",
	KindMinus:         "MINUS",
	KindStar:          "STAR",
	KindSlash:         "SLASH",
	KindPercent:       "PERCENT",
	KindIntDiv:        "INT_DIV",
	KindPlusPlus:      "PLUS_PLUS",
	KindMinusMinus:    "MINUS_MINUS",
	KindAssign:        "ASSIGN",
	KindPlusAssign:    "PLUS_ASSIGN",
	KindMinusAssign:   "MINUS_ASSIGN",
	KindStarAssign:    "STAR_ASSIGN",
	KindSlashAssign:   "SLASH_ASSIGN",
	KindPercentAssign: "PERCENT_ASSIGN",
	KindAmpAssign:     "AMP_ASSIGN",
	KindPipeAssign:    "PIPE_ASSIGN",
	KindCaretAssign:   "CARET_ASSIGN",
	KindShlAssign:     "SHL_ASSIGN",
	KindShrAssign:     "SHR_ASSIGN",
	KindNullishAssign: "NULLISH_ASSIGN",
	KindEq:            "EQ",
	KindNotEq:         "NOT_EQ",
	KindLess:          "LESS",
	KindLessEq:        "LESS_EQ",
	KindGreater:       "GREATER",
	KindGreaterEq:     "GREATER_EQ",
	KindAndAnd:        "AND_AND",
	KindOrOr:          "OR_OR",
	KindXorXor:        "XOR_XOR",
	KindBang:          "BANG",
	KindAmp:           "AMP",
	KindPipe:          "PIPE",
	KindCaret:         "CARET",
	KindTilde:         "TILDE",
	KindShl:           "SHL",
	KindShr:           "SHR",
	KindNullish:       "NULLISH",
	KindQuestion:      "QUESTION",
	KindColon:         "COLON",

	KindLParen:         "LPAREN",
	KindRParen:         "RPAREN",
	KindLBrace:         "LBRACE",
	KindRBrace:         "RBRACE",
	KindLBracket:       "LBRACKET",
	KindLBracketList:   "LBRACKET_LIST",
	KindLBracketMap:    "LBRACKET_MAP",
	KindLBracketGrid:   "LBRACKET_GRID",
	KindLBracketStruct: "LBRACKET_STRUCT",
	KindLBracketArray:  "LBRACKET_ARRAY",
	KindRBracket:       "RBRACKET",
	KindComma:          "COMMA",
	KindDot:            "DOT",
	KindSemicolon:      "SEMICOLON",
}

// keywordKinds maps keyword spellings to token kinds. Word operators share
// the kind of their symbolic twin so the parser has one case per operator;
// the original spelling survives in Token.Text.
var keywordKinds = map[string]Kind{
	"var":         KindVar,
	"globalvar":   KindGlobalVar,
	"function":    KindFunction,
	"constructor": KindConstructor,
	"static":      KindStatic,
	"new":         KindNew,
	"delete":      KindDelete,
	"if":          KindIf,
	"else":        KindElse,
	"while":       KindWhile,
	"do":          KindDo,
	"until":       KindUntil,
	"for":         KindFor,
	"repeat":      KindRepeat,
	"switch":      KindSwitch,
	"case":        KindCase,
	"default":     KindDefault,
	"break":       KindBreak,
	"continue":    KindContinue,
	"exit":        KindExit,
	"return":      KindReturn,
	"with":        KindWith,
	"enum":        KindEnum,
	"try":         KindTry,
	"catch":       KindCatch,
	"finally":     KindFinally,
	"throw":       KindThrow,
	"global":      KindGlobal,

	"true":      KindTrue,
	"false":     KindFalse,
	"undefined": KindUndefined,
	"noone":     KindNoone,
	"all":       KindAll,

	"begin": KindLBrace,
	"end":   KindRBrace,

	"and": KindAndAnd,
	"or":  KindOrOr,
	"xor": KindXorXor,
	"not": KindBang,
	"div": KindIntDiv,
	"mod": KindPercent,
}

// accessorKinds maps the container names of the lang accessor table to token
// kinds. Kept in lockstep with lang.AccessorName.
var accessorKinds = map[string]Kind{
	"list":   KindLBracketList,
	"map":    KindLBracketMap,
	"grid":   KindLBracketGrid,
	"struct": KindLBracketStruct,
	"array":  KindLBracketArray,
}

// Channel separates code tokens from the retained trivia streams.
type Channel int

const (
	ChannelCode Channel = iota
	ChannelComment
	ChannelWhitespace
)

// String returns a string representation of the channel.
func (c Channel) String() string {
	switch c {
	case ChannelCode:
		return "code"
	case ChannelComment:
		return "comment"
	case ChannelWhitespace:
		return "whitespace"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// Token is a single lexical token. Text always holds the exact source slice,
// so concatenating every token's text in order reconstructs the input.
// Tokens are immutable once produced.
type Token struct {
	Kind    Kind
	Text    string
	Start   int // byte offset of first character
	End     int // byte offset one past the last character
	Line    int // 1-based line of Start
	Column  int // 1-based column of Start
	Channel Channel

	// IsDoc marks documentation-form comments (/// and /** ... */).
	IsDoc bool

	// Embedded holds the source spans of the {expression} regions inside a
	// template string token, in order of appearance.
	Embedded []position.Span
}

// String returns a string representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("{Kind: %s, Text: %q, Line: %d, Column: %d}",
		t.Kind, t.Text, t.Line, t.Column)
}

// Pos returns the token's start position.
func (t Token) Pos() position.Position {
	return position.Position{Line: t.Line, Column: t.Column, Offset: t.Start}
}

// Span returns the source span covered by the token.
func (t Token) Span() position.Span {
	end := position.Position{Line: t.Line, Column: t.Column + (t.End - t.Start), Offset: t.End}
	for i := 0; i < len(t.Text); i++ {
		if t.Text[i] == '\n' {
			// Multi-line token: the end column is relative to the last line.
			end.Line = t.Line + countNewlines(t.Text)
			end.Column = len(t.Text) - lastNewlineIndex(t.Text)
			break
		}
	}
	return position.Span{Start: t.Pos(), End: end}
}

func countNewlines(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
		}
	}
	return n
}

func lastNewlineIndex(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\n' {
			return i + 1
		}
	}
	return 0
}
