package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/SimulatorLife/gml-parser/internal/ast"
)

func TestRunKeepsInputOrder(t *testing.T) {
	units := []Unit{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	results := Run(context.Background(), units, 3, func(ctx context.Context, u Unit) (string, error) {
		return "parsed " + u.Name, nil
	})

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for i, want := range []string{"a", "b", "c"} {
		if results[i].Name != want {
			t.Errorf("results[%d].Name = %q, want %q", i, results[i].Name, want)
		}
		if results[i].Value != "parsed "+want || results[i].Err != nil {
			t.Errorf("results[%d] = %+v", i, results[i])
		}
	}
}

func TestOneFailureNeverAbortsTheRest(t *testing.T) {
	boom := errors.New("bad unit")
	units := []Unit{{Name: "ok1"}, {Name: "bad"}, {Name: "ok2"}}
	results := Run(context.Background(), units, 2, func(ctx context.Context, u Unit) (*ast.Program, error) {
		if u.Name == "bad" {
			return nil, boom
		}
		return &ast.Program{}, nil
	})

	if !errors.Is(results[1].Err, boom) {
		t.Errorf("bad unit err = %v", results[1].Err)
	}
	if results[0].Value == nil || results[2].Value == nil {
		t.Error("healthy units did not complete")
	}
}

func TestPanicIsContainedAsInvariantViolation(t *testing.T) {
	units := []Unit{{Name: "panics"}, {Name: "fine"}}
	results := Run(context.Background(), units, 1, func(ctx context.Context, u Unit) (*ast.Program, error) {
		if u.Name == "panics" {
			panic("cyclic tree")
		}
		return &ast.Program{}, nil
	})

	var inv *ast.InvariantError
	if !errors.As(results[0].Err, &inv) {
		t.Fatalf("err = %v, want *InvariantError", results[0].Err)
	}
	if results[1].Value == nil {
		t.Error("following unit did not run")
	}
}

func TestWorkerLimitIsRespected(t *testing.T) {
	var active, peak atomic.Int32
	units := make([]Unit, 16)
	Run(context.Background(), units, 2, func(ctx context.Context, u Unit) (struct{}, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		active.Add(-1)
		return struct{}{}, nil
	})

	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

func TestCancelledContextShortCircuits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := atomic.Int32{}
	units := []Unit{{Name: "a"}, {Name: "b"}}
	results := Run(ctx, units, 1, func(ctx context.Context, u Unit) (struct{}, error) {
		ran.Add(1)
		return struct{}{}, nil
	})

	if ran.Load() != 0 {
		t.Errorf("pipeline ran %d times under a cancelled context", ran.Load())
	}
	for i, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("results[%d].Err = %v, want context.Canceled", i, r.Err)
		}
	}
}
