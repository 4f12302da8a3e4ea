// Package diagnostic renders pipeline errors in one uniform shape. Every
// stage keeps its own typed error; callers that report across stages (the
// batch driver, CLI output) convert here instead of type-switching on each
// stage's type themselves.
package diagnostic

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/SimulatorLife/gml-parser/internal/ast"
	"github.com/SimulatorLife/gml-parser/internal/lexer"
	"github.com/SimulatorLife/gml-parser/internal/parser"
	"github.com/SimulatorLife/gml-parser/internal/position"
	"github.com/SimulatorLife/gml-parser/internal/scope"
)

// Level represents the severity of a diagnostic.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Category represents which pipeline stage produced a diagnostic.
type Category int

const (
	CategoryLexical Category = iota
	CategorySyntax
	CategoryScope
	CategoryInternal
)

// String returns the string representation of Category.
func (c Category) String() string {
	switch c {
	case CategoryLexical:
		return "lexical"
	case CategorySyntax:
		return "syntax"
	case CategoryScope:
		return "scope"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Diagnostic is a single rendered message.
type Diagnostic struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Unit     string            `json:"unit,omitempty"`
	Pos      position.Position `json:"pos"`
	Level    Level             `json:"level"`
	Category Category          `json:"category"`
	// Fatal marks conditions the producing stage could not recover from.
	Fatal bool `json:"fatal,omitempty"`
}

// String formats the diagnostic as unit:line:column: level[code]: message.
func (d Diagnostic) String() string {
	unit := d.Unit
	if unit == "" {
		unit = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d: %s %s[%s]: %s",
		unit, d.Pos.Line, d.Pos.Column, d.Category, d.Level, d.Code, d.Message)
}

// FromError converts a typed pipeline error into a diagnostic. Unrecognized
// errors come back as internal diagnostics so nothing is silently dropped.
func FromError(err error) Diagnostic {
	var lex *lexer.LexicalError
	if errors.As(err, &lex) {
		return Diagnostic{
			Code:     "GML1001",
			Message:  lex.Message,
			Pos:      position.Position{Line: lex.Line, Column: lex.Column, Offset: lex.Offset},
			Level:    LevelError,
			Category: CategoryLexical,
		}
	}

	var syn *parser.SyntaxError
	if errors.As(err, &syn) {
		return Diagnostic{
			Code:     "GML2001",
			Message:  syn.Message,
			Pos:      syn.Pos,
			Level:    LevelError,
			Category: CategorySyntax,
			Fatal:    syn.Fatal,
		}
	}

	var misuse *scope.MisuseError
	if errors.As(err, &misuse) {
		return Diagnostic{
			Code:     "GML3001",
			Message:  misuse.Message,
			Level:    LevelError,
			Category: CategoryScope,
			Fatal:    true,
		}
	}

	var inv *ast.InvariantError
	if errors.As(err, &inv) {
		return Diagnostic{
			Code:     "GML9001",
			Message:  inv.Message,
			Level:    LevelError,
			Category: CategoryInternal,
			Fatal:    true,
		}
	}

	return Diagnostic{
		Code:     "GML9000",
		Message:  err.Error(),
		Level:    LevelError,
		Category: CategoryInternal,
		Fatal:    true,
	}
}

// Engine collects diagnostics across units.
type Engine struct {
	diagnostics []Diagnostic
	maxErrors   int
}

// NewEngine creates an engine. maxErrors of zero means unbounded.
func NewEngine(maxErrors int) *Engine {
	return &Engine{maxErrors: maxErrors}
}

// Add records a diagnostic unless the error budget is exhausted.
func (e *Engine) Add(d Diagnostic) {
	if e.maxErrors > 0 && e.errorCount() >= e.maxErrors {
		return
	}
	e.diagnostics = append(e.diagnostics, d)
}

// AddError converts and records a pipeline error for the named unit.
func (e *Engine) AddError(unit string, err error) {
	d := FromError(err)
	d.Unit = unit
	e.Add(d)
}

// Diagnostics returns everything recorded so far, sorted by unit and
// position with errors before lesser severities at the same spot.
func (e *Engine) Diagnostics() []Diagnostic {
	sort.SliceStable(e.diagnostics, func(i, j int) bool {
		a, b := e.diagnostics[i], e.diagnostics[j]
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		if a.Pos.Offset != b.Pos.Offset {
			return a.Pos.Offset < b.Pos.Offset
		}
		return a.Level < b.Level
	})
	return e.diagnostics
}

// HasErrors reports whether any error-level diagnostic was recorded.
func (e *Engine) HasErrors() bool {
	return e.errorCount() > 0
}

func (e *Engine) errorCount() int {
	n := 0
	for _, d := range e.diagnostics {
		if d.Level == LevelError {
			n++
		}
	}
	return n
}

// Format renders all diagnostics, one per line.
func (e *Engine) Format() string {
	var b strings.Builder
	for i, d := range e.Diagnostics() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(d.String())
	}
	return b.String()
}
