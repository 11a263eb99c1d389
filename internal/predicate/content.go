package predicate

import (
	"regexp"
	"strings"
	"sync"

	rdumperrors "github.com/rdump-dev/rdump/internal/errors"
	"github.com/rdump-dev/rdump/internal/fsctx"
)

// containsEvaluator implements `contains`/`c` (§4.4): a case-insensitive
// literal substring search over the file's content, treated as lossy UTF-8.
type containsEvaluator struct{}

func (containsEvaluator) Cost() CostClass { return CostContent }

func (containsEvaluator) Evaluate(ctx *fsctx.Context, value string) (bool, error) {
	content, err := ctx.Content()
	if err != nil {
		return false, rdumperrors.NewFileAccessError(ctx.Path(), "read", err)
	}
	text := strings.ToValidUTF8(string(content), "�")
	return strings.Contains(strings.ToLower(text), strings.ToLower(value)), nil
}

// matchesEvaluator implements `matches`/`m` (§4.4): the value compiles to
// a regular expression once, cached by pattern text for the lifetime of
// the predicate instance (shared, read-only, across all evaluator workers
// per §5).
type matchesEvaluator struct {
	cache sync.Map // pattern string -> *regexp.Regexp
}

func (m *matchesEvaluator) Cost() CostClass { return CostContent }

func (m *matchesEvaluator) Evaluate(ctx *fsctx.Context, value string) (bool, error) {
	re, err := m.compile(value)
	if err != nil {
		return false, err
	}
	content, err := ctx.Content()
	if err != nil {
		return false, rdumperrors.NewFileAccessError(ctx.Path(), "read", err)
	}
	return re.Match(content), nil
}

func (m *matchesEvaluator) compile(pattern string) (*regexp.Regexp, error) {
	if v, ok := m.cache.Load(pattern); ok {
		return v.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, rdumperrors.NewInvalidValueError("matches", pattern, err)
	}
	actual, _ := m.cache.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}
