package position

import "testing"

func TestPositionValidity(t *testing.T) {
	tests := []struct {
		name  string
		pos   Position
		valid bool
	}{
		{"valid", Position{Line: 1, Column: 1, Offset: 0}, true},
		{"zero line", Position{Line: 0, Column: 1, Offset: 0}, false},
		{"zero column", Position{Line: 1, Column: 0, Offset: 0}, false},
		{"negative offset", Position{Line: 1, Column: 1, Offset: -1}, false},
	}

	for _, tt := range tests {
		if got := tt.pos.IsValid(); got != tt.valid {
			t.Errorf("%s: IsValid() = %v, want %v", tt.name, got, tt.valid)
		}
	}
}

func TestSpanContains(t *testing.T) {
	s := Span{
		Start: Position{Line: 1, Column: 1, Offset: 0},
		End:   Position{Line: 1, Column: 11, Offset: 10},
	}

	inside := Position{Line: 1, Column: 5, Offset: 4}
	if !s.Contains(inside) {
		t.Errorf("expected span %s to contain %s", s, inside)
	}

	// End is exclusive.
	atEnd := Position{Line: 1, Column: 11, Offset: 10}
	if s.Contains(atEnd) {
		t.Errorf("expected span %s not to contain its exclusive end", s)
	}
}

func TestSpanEncloses(t *testing.T) {
	parent := Span{
		Start: Position{Line: 1, Column: 1, Offset: 0},
		End:   Position{Line: 3, Column: 1, Offset: 30},
	}
	child := Span{
		Start: Position{Line: 2, Column: 1, Offset: 10},
		End:   Position{Line: 2, Column: 6, Offset: 15},
	}

	if !parent.Encloses(child) {
		t.Errorf("expected %s to enclose %s", parent, child)
	}
	if child.Encloses(parent) {
		t.Errorf("expected %s not to enclose %s", child, parent)
	}
}

func TestSpanUnion(t *testing.T) {
	a := Span{
		Start: Position{Line: 1, Column: 1, Offset: 0},
		End:   Position{Line: 1, Column: 6, Offset: 5},
	}
	b := Span{
		Start: Position{Line: 2, Column: 1, Offset: 10},
		End:   Position{Line: 2, Column: 6, Offset: 15},
	}

	u := a.Union(b)
	if u.Start.Offset != 0 || u.End.Offset != 15 {
		t.Errorf("Union = %s, want 0..15", u)
	}
	if u.Length() != 15 {
		t.Errorf("Length = %d, want 15", u.Length())
	}
}
