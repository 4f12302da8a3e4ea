// Package batch runs the parse pipeline over many compilation units
// concurrently. Units are fully isolated: one unit's failure — including a
// panic inside the pipeline — is recorded in its own result and never
// disturbs the others.
package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/SimulatorLife/gml-parser/internal/ast"
)

// Unit is one named source to process.
type Unit struct {
	Name   string
	Source string
}

// Result pairs a unit with its pipeline outcome.
type Result[T any] struct {
	Name  string
	Value T
	Err   error
}

// Run processes every unit with at most workers goroutines and returns the
// results in input order. Only context cancellation ends the run early;
// pipeline errors stay inside their unit's result.
func Run[T any](ctx context.Context, units []Unit, workers int, fn func(context.Context, Unit) (T, error)) []Result[T] {
	if workers <= 0 {
		workers = 1
	}

	results := make([]Result[T], len(units))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, u := range units {
		i, u := i, u
		results[i].Name = u.Name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			value, err := runOne(ctx, u, fn)
			results[i].Value = value
			results[i].Err = err
			return nil
		})
	}
	// Workers never return errors, so Wait only synchronizes.
	_ = g.Wait()
	return results
}

// runOne invokes the pipeline with panic containment. A panicking unit
// reports an invariant violation instead of taking down the process.
func runOne[T any](ctx context.Context, u Unit, fn func(context.Context, Unit) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = &ast.InvariantError{Message: fmt.Sprintf("panic in pipeline: %v", r)}
		}
	}()
	return fn(ctx, u)
}
