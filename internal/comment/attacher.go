// Package comment attaches retained comment and whitespace trivia to the
// syntax tree. The lexer keeps trivia on side channels; this stage decides,
// per comment, which node owns it and whether it reads as leading or
// trailing documentation.
package comment

import (
	"sort"

	"github.com/SimulatorLife/gml-parser/internal/ast"
	"github.com/SimulatorLife/gml-parser/internal/lexer"
)

// Config controls attachment decisions.
type Config struct {
	// ParagraphBreakThreshold is the number of blank lines allowed between a
	// comment and the following code before the comment stops reading as
	// that code's leading documentation. At the default of zero a single
	// blank line already detaches the comment, making it trailing on the
	// preceding node instead.
	ParagraphBreakThreshold int
}

// nodeAt is one indexed tree node with the offsets needed for attachment.
type nodeAt struct {
	start   int
	end     int
	endLine int
	node    ast.Node
}

type nodeIndex struct {
	byStart []nodeAt
	byEnd   []nodeAt
}

func indexNodes(prog *ast.Program) (*nodeIndex, error) {
	idx := &nodeIndex{}
	l := &ast.Listener{
		EnterAny: func(n ast.Node) {
			if _, ok := n.(*ast.Program); ok {
				return
			}
			sp := n.Span()
			if sp == nil {
				return
			}
			idx.byStart = append(idx.byStart, nodeAt{
				start:   sp.Start.Offset,
				end:     sp.End.Offset,
				endLine: sp.End.Line,
				node:    n,
			})
		},
	}
	if err := l.Walk(prog); err != nil {
		return nil, err
	}
	idx.byEnd = append([]nodeAt(nil), idx.byStart...)
	// Stable sorts keep pre-order among ties, so the outermost node of a
	// tie group comes first in byStart.
	sort.SliceStable(idx.byStart, func(i, j int) bool {
		return idx.byStart[i].start < idx.byStart[j].start
	})
	sort.SliceStable(idx.byEnd, func(i, j int) bool {
		return idx.byEnd[i].end < idx.byEnd[j].end
	})
	return idx, nil
}

// following returns the outermost node starting at or after off, or nil.
func (idx *nodeIndex) following(off int) ast.Node {
	i := sort.Search(len(idx.byStart), func(i int) bool {
		return idx.byStart[i].start >= off
	})
	if i == len(idx.byStart) {
		return nil
	}
	return idx.byStart[i].node
}

// preceding returns the outermost node ending at or before off, or nil.
func (idx *nodeIndex) preceding(off int) (ast.Node, int) {
	i := sort.Search(len(idx.byEnd), func(i int) bool {
		return idx.byEnd[i].end > off
	})
	if i == 0 {
		return nil, 0
	}
	// Among nodes sharing the winning end offset, the one with the smallest
	// start encloses the rest.
	best := idx.byEnd[i-1]
	for j := i - 2; j >= 0 && idx.byEnd[j].end == best.end; j-- {
		if idx.byEnd[j].start < best.start {
			best = idx.byEnd[j]
		}
	}
	return best.node, best.endLine
}

// Attach walks the full token stream, records whitespace runs on the
// program, and attaches every comment-channel token to a tree node. The
// token slice must be the lexer's complete output for the same source the
// program was parsed from.
func Attach(prog *ast.Program, tokens []lexer.Token, cfg Config) error {
	idx, err := indexNodes(prog)
	if err != nil {
		return err
	}

	for i, tok := range tokens {
		switch tok.Channel {
		case lexer.ChannelWhitespace:
			prog.Whitespace = append(prog.Whitespace, ast.WhitespaceRun{
				Text:   tok.Text,
				Offset: tok.Start,
			})
		case lexer.ChannelComment:
			c := newComment(tokens, i)
			prog.Comments = append(prog.Comments, c)
			attachOne(prog, idx, c, tok, cfg)
		}
	}
	return nil
}

func newComment(tokens []lexer.Token, i int) *ast.Comment {
	tok := tokens[i]
	kind := ast.CommentLine
	if tok.Kind == lexer.KindBlockComment {
		kind = ast.CommentBlock
	}
	sp := tok.Span()
	c := &ast.Comment{
		CommentKind: kind,
		Text:        tok.Text,
		IsDoc:       tok.IsDoc,
		Loc:         &sp,
	}
	if i > 0 && tokens[i-1].Channel == lexer.ChannelWhitespace {
		c.LeadingWhitespace = tokens[i-1].Text
	}
	if i+1 < len(tokens) && tokens[i+1].Channel == lexer.ChannelWhitespace {
		c.TrailingWhitespace = tokens[i+1].Text
	}
	return c
}

func attachOne(prog *ast.Program, idx *nodeIndex, c *ast.Comment, tok lexer.Token, cfg Config) {
	prev, prevEndLine := idx.preceding(tok.Start)

	// A comment on the same line as the code it follows trails that code.
	if prev != nil && prevEndLine == tok.Line {
		ast.AddTrailing(prev, c)
		return
	}

	next := idx.following(tok.End)
	if next != nil && blankLinesIn(c.TrailingWhitespace) <= cfg.ParagraphBreakThreshold {
		ast.AddLeading(next, c)
		return
	}
	if prev != nil {
		ast.AddTrailing(prev, c)
		return
	}
	if next != nil {
		ast.AddLeading(next, c)
		return
	}
	// Nothing to own it (comment-only source); the program keeps it.
	c.SetOwner(prog)
}

// blankLinesIn counts whole blank lines in a whitespace run. The first
// newline only terminates the current line, so it does not count.
func blankLinesIn(ws string) int {
	n := 0
	for i := 0; i < len(ws); i++ {
		if ws[i] == '\n' {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return n - 1
}
