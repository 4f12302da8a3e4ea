// Package gmlparser is a parsing front-end for GameMaker Language. It turns
// source text into a lossless syntax tree: every token, comment and
// whitespace run of the input is recoverable from the output, and optional
// pipeline stages attach trivia, scope metadata and serialized forms.
package gmlparser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SimulatorLife/gml-parser/internal/ast"
	"github.com/SimulatorLife/gml-parser/internal/batch"
	"github.com/SimulatorLife/gml-parser/internal/comment"
	"github.com/SimulatorLife/gml-parser/internal/diagnostic"
	"github.com/SimulatorLife/gml-parser/internal/lang"
	"github.com/SimulatorLife/gml-parser/internal/lexer"
	"github.com/SimulatorLife/gml-parser/internal/parser"
	"github.com/SimulatorLife/gml-parser/internal/position"
	"github.com/SimulatorLife/gml-parser/internal/printer"
	"github.com/SimulatorLife/gml-parser/internal/scope"
)

// Result is a completed parse.
type Result struct {
	// Program is the syntax tree.
	Program *ast.Program

	// Source is the canonical reprint of the tree, set when ASTFormat is
	// FormatSource.
	Source string

	// JSON is the serialized tree, set when AsJSON is requested.
	JSON []byte
}

// Parse runs the pipeline over one source text.
func Parse(src string, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	mode := lexer.ModeStrict
	if opts.Lenient {
		mode = lexer.ModeLenient
	}
	tokens, err := lexer.New(src, mode).Tokenize()
	if err != nil {
		return nil, err
	}

	if err := checkRuntimeFeatures(tokens, opts.RuntimeVersion); err != nil {
		return nil, err
	}

	prog, err := parser.New(src, tokens).Parse()
	if err != nil {
		return nil, err
	}
	if err := checkParsedFeatures(prog, opts.RuntimeVersion); err != nil {
		return nil, err
	}

	if opts.GetComments {
		cfg := comment.Config{ParagraphBreakThreshold: opts.ParagraphBreakThreshold}
		if err := comment.Attach(prog, tokens, cfg); err != nil {
			return nil, err
		}
	}
	if err := ast.SetParents(prog); err != nil {
		return nil, err
	}
	if opts.GetIdentifierMetadata {
		if _, err := scope.Annotate(prog); err != nil {
			return nil, err
		}
	}

	res := &Result{Program: prog}
	if opts.ASTFormat == FormatSource {
		res.Source = printer.New(printer.DefaultOptions()).Print(prog)
	}

	if !opts.GetLocations {
		if err := ast.StripLocations(prog); err != nil {
			return nil, err
		}
	} else if opts.SimplifyLocations {
		if err := ast.SimplifyLocations(prog); err != nil {
			return nil, err
		}
	}

	if opts.AsJSON {
		if err := ast.ClearBackReferences(prog); err != nil {
			return nil, err
		}
		data, err := json.MarshalIndent(prog, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("serialize tree: %w", err)
		}
		res.JSON = data
	}
	return res, nil
}

// ParseSuppressed is Parse with failure suppression: any pipeline error
// yields a nil result instead of an error. Intended for callers that probe
// many files and only care which ones parse.
func ParseSuppressed(src string, opts Options) *Result {
	res, err := Parse(src, opts)
	if err != nil {
		return nil
	}
	return res
}

// Unit is one named source for batch parsing.
type Unit struct {
	Name   string
	Source string
}

// BatchResult pairs a unit with its outcome.
type BatchResult struct {
	Name   string
	Result *Result
	Err    error
}

// ParseBatch parses every unit concurrently with at most workers
// goroutines. One unit's failure never aborts the rest; each failure is
// recorded in its own result.
func ParseBatch(ctx context.Context, units []Unit, opts Options, workers int) []BatchResult {
	in := make([]batch.Unit, len(units))
	for i, u := range units {
		in[i] = batch.Unit{Name: u.Name, Source: u.Source}
	}

	raw := batch.Run(ctx, in, workers, func(ctx context.Context, u batch.Unit) (*Result, error) {
		return Parse(u.Source, opts)
	})

	results := make([]BatchResult, len(raw))
	for i, r := range raw {
		results[i] = BatchResult{Name: r.Name, Result: r.Value, Err: r.Err}
	}
	return results
}

// FormatErrors renders every failed unit's error as one diagnostic per
// line, sorted by unit and position.
func FormatErrors(results []BatchResult) string {
	engine := diagnostic.NewEngine(0)
	for _, r := range results {
		if r.Err != nil {
			engine.AddError(r.Name, r.Err)
		}
	}
	return engine.Format()
}

// checkRuntimeFeatures rejects constructs newer than the pinned runtime.
func checkRuntimeFeatures(tokens []lexer.Token, version string) error {
	features, err := lang.Features(version)
	if err != nil {
		return err
	}
	for _, tok := range tokens {
		if tok.Channel != lexer.ChannelCode {
			continue
		}
		var feature string
		switch tok.Kind {
		case lexer.KindTemplateStringLit:
			if !features.TemplateStrings {
				feature = "template strings"
			}
		case lexer.KindNullish, lexer.KindNullishAssign:
			if !features.NullishOperators {
				feature = "nullish operators"
			}
		case lexer.KindFunction, lexer.KindConstructor:
			if !features.Functions {
				feature = "function declarations"
			}
		}
		if feature != "" {
			return &parser.SyntaxError{
				Message: fmt.Sprintf("%s require a newer runtime than %s", feature, version),
				Pos:     tok.Pos(),
			}
		}
	}
	return nil
}

// checkParsedFeatures rejects gated constructs that are only recognizable as
// trees: a struct literal's opening brace is indistinguishable from a block
// before parsing.
func checkParsedFeatures(prog *ast.Program, version string) error {
	features, err := lang.Features(version)
	if err != nil {
		return err
	}
	if features.StructLiterals {
		return nil
	}

	var found *ast.StructLiteral
	l := &ast.Listener{EnterAny: func(n ast.Node) {
		if s, ok := n.(*ast.StructLiteral); ok && found == nil {
			found = s
		}
	}}
	if err := l.Walk(prog); err != nil {
		return err
	}
	if found == nil {
		return nil
	}
	var pos position.Position
	if sp := found.Span(); sp != nil {
		pos = sp.Start
	}
	return &parser.SyntaxError{
		Message: fmt.Sprintf("struct literals require a newer runtime than %s", version),
		Pos:     pos,
	}
}

// Error-classification helpers, so callers can branch on failure category
// without reaching into internal packages.

// IsLexicalError reports whether err came from the scanner.
func IsLexicalError(err error) bool {
	var e *lexer.LexicalError
	return errors.As(err, &e)
}

// IsSyntaxError reports whether err came from the parser.
func IsSyntaxError(err error) bool {
	var e *parser.SyntaxError
	return errors.As(err, &e)
}

// IsScopeMisuse reports whether err was caller misuse of scope resolution.
func IsScopeMisuse(err error) bool {
	var e *scope.MisuseError
	return errors.As(err, &e)
}

// IsInvariantViolation reports whether err was an internal invariant
// violation.
func IsInvariantViolation(err error) bool {
	var e *ast.InvariantError
	return errors.As(err, &e)
}
