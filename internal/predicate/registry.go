// Package predicate implements §3's predicate registry and the concrete
// metadata (§4.3), content (§4.4), and semantic (§4.5, via internal/semantic)
// evaluators, each tagged with the cost class the evaluator's
// cost-ordering rewrite (§4.6) sorts on.
package predicate

import (
	edlib "github.com/hbollon/go-edlib"

	"github.com/rdump-dev/rdump/internal/fsctx"
	"github.com/rdump-dev/rdump/internal/semantic"
)

// CostClass orders predicates cheapest-first for the conjunction rewrite
// of §4.6: metadata (O(1) stat) before content (O(file size) read) before
// semantic (O(parse cost)).
type CostClass int

const (
	CostMetadata CostClass = iota
	CostContent
	CostSemantic
)

// Evaluator is the "tagged interface" of §9's polymorphic-predicates
// design note: a value implementing evaluate(file_context) -> bool plus a
// cost_class tag.
type Evaluator interface {
	Cost() CostClass
	Evaluate(ctx *fsctx.Context, value string) (bool, error)
}

// universalSemanticPredicates is the name set from §3's Language profile
// definition — the contract every profile may partially implement.
var universalSemanticPredicates = []string{
	"func", "def", "import", "call", "class", "struct", "enum", "trait",
	"impl", "interface", "type", "macro", "comment", "str",
	"element", "hook", "customhook", "prop", "component",
}

// Registry is the start-up-built, read-only name-to-evaluator mapping of
// §3, shared without locking across all evaluator workers (§5).
type Registry struct {
	byName map[string]Evaluator
	names  []string
}

// New builds the full registry: metadata predicates, content predicates
// (with their contains/matches aliases c/m), and one semantic evaluator
// per universal predicate name, all dispatching through engine.
func New(engine *semantic.Engine) *Registry {
	r := &Registry{byName: make(map[string]Evaluator)}

	r.register("ext", extEvaluator{})
	r.register("name", nameEvaluator{})
	r.register("path", pathEvaluator{})
	r.register("in", inEvaluator{})
	r.register("size", sizeEvaluator{})
	r.register("modified", modifiedEvaluator{})

	contains := containsEvaluator{}
	r.register("contains", contains)
	r.register("c", contains)

	matches := &matchesEvaluator{}
	r.register("matches", matches)
	r.register("m", matches)

	for _, name := range universalSemanticPredicates {
		r.register(name, semanticEvaluator{name: name, engine: engine})
	}

	return r
}

func (r *Registry) register(name string, ev Evaluator) {
	if _, exists := r.byName[name]; !exists {
		r.names = append(r.names, name)
	}
	r.byName[name] = ev
}

// Get resolves a predicate name to its evaluator (§4.1: the parser's
// referenced-name list is cross-checked here at orchestrator start-up).
func (r *Registry) Get(name string) (Evaluator, bool) {
	ev, ok := r.byName[name]
	return ev, ok
}

// Names returns every registered predicate name, in registration order.
func (r *Registry) Names() []string { return r.names }

// suggestionThreshold mirrors the teacher's FuzzyMatcher default (0.80).
const suggestionThreshold = 0.80

// Suggest returns the closest registered predicate name to name by
// Jaro-Winkler similarity, or "" if nothing clears the threshold. Used to
// fill UnknownPredicateError.Suggestion.
func (r *Registry) Suggest(name string) string {
	best := ""
	var bestScore float32
	for _, candidate := range r.names {
		score, err := edlib.StringsSimilarity(name, candidate, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	if bestScore < suggestionThreshold {
		return ""
	}
	return best
}
