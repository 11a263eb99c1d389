package predicate

import (
	rdumperrors "github.com/rdump-dev/rdump/internal/errors"
	"github.com/rdump-dev/rdump/internal/fsctx"
	"github.com/rdump-dev/rdump/internal/semantic"
)

// semanticEvaluator dispatches one universal predicate name through the
// generic engine of §4.5. A file whose extension has no profile, or whose
// content fails to parse, yields "no tree" and evaluates false rather than
// erroring (§7 ParseTreeError is absorbed here).
type semanticEvaluator struct {
	name   string
	engine *semantic.Engine
}

func (semanticEvaluator) Cost() CostClass { return CostSemantic }

func (s semanticEvaluator) Evaluate(ctx *fsctx.Context, value string) (bool, error) {
	tree, profile, ok := ctx.Tree(s.engine)
	if !ok {
		return false, nil
	}
	content, err := ctx.Content()
	if err != nil {
		return false, rdumperrors.NewFileAccessError(ctx.Path(), "read", err)
	}
	return s.engine.Evaluate(profile, s.name, tree, content, value), nil
}
