package ast

// StripLocations removes position metadata from every node and attached
// comment, for callers that requested a location-free tree.
func StripLocations(root Node) error {
	l := &Listener{
		EnterAny: func(n Node) {
			b := n.base()
			b.Loc = nil
			for _, c := range b.Leading {
				c.Loc = nil
			}
			for _, c := range b.Trailing {
				c.Loc = nil
			}
		},
	}
	if err := l.Walk(root); err != nil {
		return err
	}
	if p, ok := root.(*Program); ok {
		for _, c := range p.Comments {
			c.Loc = nil
		}
	}
	return nil
}

// SimplifyLocations flattens location objects to bare offsets: line and
// column fields are zeroed, offsets survive.
func SimplifyLocations(root Node) error {
	simplify := func(n Node) {
		b := n.base()
		if b.Loc != nil {
			b.Loc.Start.Line, b.Loc.Start.Column = 0, 0
			b.Loc.End.Line, b.Loc.End.Column = 0, 0
		}
	}
	l := &Listener{EnterAny: simplify}
	if err := l.Walk(root); err != nil {
		return err
	}
	if p, ok := root.(*Program); ok {
		for _, c := range p.Comments {
			if c.Loc != nil {
				c.Loc.Start.Line, c.Loc.Start.Column = 0, 0
				c.Loc.End.Line, c.Loc.End.Column = 0, 0
			}
		}
	}
	return nil
}

// ClearBackReferences drops the non-owning parent and comment-owner links so
// the tree is a plain downward-owned structure, e.g. before handing it to a
// serializer that walks unexported state.
func ClearBackReferences(root Node) error {
	l := &Listener{
		EnterAny: func(n Node) {
			b := n.base()
			b.parent = nil
			for _, c := range b.Leading {
				c.owner = nil
			}
			for _, c := range b.Trailing {
				c.owner = nil
			}
		},
	}
	if err := l.Walk(root); err != nil {
		return err
	}
	if p, ok := root.(*Program); ok {
		for _, c := range p.Comments {
			c.owner = nil
		}
	}
	return nil
}
