package eval

import (
	"sort"

	"github.com/rdump-dev/rdump/internal/predicate"
	"github.com/rdump-dev/rdump/internal/query"
)

// Rewrite reorders each conjunction chain cheapest-first (§4.6): metadata
// predicates before content predicates before semantic predicates. This is
// semantics-preserving because every predicate is a pure function of the
// file context, so And's short-circuit result never depends on evaluation
// order — only its cost does. Or and Not subtrees are rewritten internally
// but otherwise left in place; a negated or disjoined subtree still has to
// run in full on at least one branch, so reordering buys nothing there
// beyond what rewriting each operand achieves on its own.
func Rewrite(expr query.Expr, registry *predicate.Registry) query.Expr {
	switch n := expr.(type) {
	case *query.Predicate:
		return n
	case *query.Not:
		return &query.Not{Inner: Rewrite(n.Inner, registry)}
	case *query.Or:
		return &query.Or{Left: Rewrite(n.Left, registry), Right: Rewrite(n.Right, registry)}
	case *query.And:
		chain := flattenAnd(n)
		for i := range chain {
			chain[i] = Rewrite(chain[i], registry)
		}
		sort.SliceStable(chain, func(i, j int) bool {
			return costOf(chain[i], registry) < costOf(chain[j], registry)
		})
		return rebuildAnd(chain)
	}
	return expr
}

// flattenAnd collects a left-associative chain of Ands into an ordered
// slice of its leaf operands (each of which may itself be a compound
// subtree headed by Or/Not).
func flattenAnd(e query.Expr) []query.Expr {
	and, ok := e.(*query.And)
	if !ok {
		return []query.Expr{e}
	}
	return append(flattenAnd(and.Left), flattenAnd(and.Right)...)
}

func rebuildAnd(chain []query.Expr) query.Expr {
	result := chain[0]
	for _, e := range chain[1:] {
		result = &query.And{Left: result, Right: e}
	}
	return result
}

// costOf determines the cost class used to sort a conjunction operand. A
// compound subtree (Or, Not, or an And nested beneath one of them)
// inherits the maximum cost among its children: it
// cannot finish cheaper than its most expensive predicate.
func costOf(e query.Expr, registry *predicate.Registry) predicate.CostClass {
	switch n := e.(type) {
	case *query.Predicate:
		ev, ok := registry.Get(n.Name)
		if !ok {
			return predicate.CostSemantic
		}
		return ev.Cost()
	case *query.Not:
		return costOf(n.Inner, registry)
	case *query.And:
		return maxCost(costOf(n.Left, registry), costOf(n.Right, registry))
	case *query.Or:
		return maxCost(costOf(n.Left, registry), costOf(n.Right, registry))
	}
	return predicate.CostSemantic
}

func maxCost(a, b predicate.CostClass) predicate.CostClass {
	if a > b {
		return a
	}
	return b
}
