// Package eval implements §4.6: short-circuit boolean evaluation of the
// parsed expression tree against a file context, plus the cost-ordering
// rewrite that reorders conjunctions cheapest-first before evaluation.
package eval

import (
	"errors"

	"github.com/rdump-dev/rdump/internal/debug"
	rdumperrors "github.com/rdump-dev/rdump/internal/errors"
	"github.com/rdump-dev/rdump/internal/fsctx"
	"github.com/rdump-dev/rdump/internal/predicate"
	"github.com/rdump-dev/rdump/internal/query"
)

// Evaluator walks a rewritten expression tree against a file context. Per
// §7, a per-file predicate error (a read or parse failure the predicate did
// not already absorb) is logged under verbose mode and treated as false —
// a single unreadable or unparsable file cannot poison the whole search.
// An InvalidValueError (an unparsable regex, size, or time qualifier) is
// fatal instead and propagates to the caller, since it names a defect in
// the query itself rather than in one file.
type Evaluator struct {
	registry *predicate.Registry
}

func New(registry *predicate.Registry) *Evaluator {
	return &Evaluator{registry: registry}
}

// Evaluate applies the cost-ordering rewrite and then walks the tree per
// the rules of §4.6: And/Or short-circuit, Not inverts (treating an
// absorbed per-file error as false before inversion). The returned error is
// non-nil only for a fatal InvalidValueError.
func (e *Evaluator) Evaluate(ctx *fsctx.Context, expr query.Expr) (bool, error) {
	return e.walk(ctx, Rewrite(expr, e.registry))
}

func (e *Evaluator) walk(ctx *fsctx.Context, expr query.Expr) (bool, error) {
	switch n := expr.(type) {
	case *query.Predicate:
		ev, ok := e.registry.Get(n.Name)
		if !ok {
			return false, nil
		}
		result, err := ev.Evaluate(ctx, n.Value)
		if err != nil {
			var invalid *rdumperrors.InvalidValueError
			if errors.As(err, &invalid) {
				return false, err
			}
			debug.Logf("predicate %s:%s failed for %s: %v", n.Name, n.Value, ctx.Path(), err)
			return false, nil
		}
		return result, nil
	case *query.And:
		left, err := e.walk(ctx, n.Left)
		if err != nil {
			return false, err
		}
		if !left {
			return false, nil
		}
		return e.walk(ctx, n.Right)
	case *query.Or:
		left, err := e.walk(ctx, n.Left)
		if err != nil {
			return false, err
		}
		if left {
			return true, nil
		}
		return e.walk(ctx, n.Right)
	case *query.Not:
		inner, err := e.walk(ctx, n.Inner)
		if err != nil {
			return false, err
		}
		return !inner, nil
	}
	return false, nil
}
