package predicate

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	rdumperrors "github.com/rdump-dev/rdump/internal/errors"
	"github.com/rdump-dev/rdump/internal/fsctx"
)

// hasGlobMeta reports whether s contains a glob metacharacter, the
// promotion rule §9 asks implementations to make explicit for the path
// predicate.
func hasGlobMeta(s string) bool { return strings.ContainsAny(s, "*?[") }

type extEvaluator struct{}

func (extEvaluator) Cost() CostClass { return CostMetadata }

func (extEvaluator) Evaluate(ctx *fsctx.Context, value string) (bool, error) {
	return strings.EqualFold(ctx.Ext(), strings.TrimPrefix(value, ".")), nil
}

type nameEvaluator struct{}

func (nameEvaluator) Cost() CostClass { return CostMetadata }

func (nameEvaluator) Evaluate(ctx *fsctx.Context, value string) (bool, error) {
	base := filepath.Base(ctx.Path())
	ok, err := doublestar.Match(strings.ToLower(value), strings.ToLower(base))
	if err != nil {
		return false, rdumperrors.NewInvalidValueError("name", value, err)
	}
	return ok, nil
}

type pathEvaluator struct{}

func (pathEvaluator) Cost() CostClass { return CostMetadata }

func (pathEvaluator) Evaluate(ctx *fsctx.Context, value string) (bool, error) {
	rel := filepath.ToSlash(relativePath(ctx))
	if hasGlobMeta(value) {
		ok, err := doublestar.Match(value, rel)
		if err != nil {
			return false, rdumperrors.NewInvalidValueError("path", value, err)
		}
		return ok, nil
	}
	return strings.Contains(rel, value), nil
}

type inEvaluator struct{}

func (inEvaluator) Cost() CostClass { return CostMetadata }

func (inEvaluator) Evaluate(ctx *fsctx.Context, value string) (bool, error) {
	rel := filepath.ToSlash(relativePath(ctx))
	if strings.HasSuffix(value, "**") {
		ok, err := doublestar.Match(value, rel)
		if err != nil {
			return false, rdumperrors.NewInvalidValueError("in", value, err)
		}
		return ok, nil
	}
	dir := filepath.ToSlash(filepath.Dir(rel))
	want := strings.TrimSuffix(strings.TrimSuffix(value, "/"), "\\")
	return dir == want, nil
}

func relativePath(ctx *fsctx.Context) string {
	abs := ctx.Path()
	root := ctx.Root()
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return abs
	}
	return rel
}

type sizeEvaluator struct{}

func (sizeEvaluator) Cost() CostClass { return CostMetadata }

func (sizeEvaluator) Evaluate(ctx *fsctx.Context, value string) (bool, error) {
	cmp, want, err := ParseSize(value)
	if err != nil {
		return false, err
	}
	meta, err := ctx.Metadata()
	if err != nil {
		return false, rdumperrors.NewFileAccessError(ctx.Path(), "stat", err)
	}
	return compareOrdered(cmp, float64(meta.Size()), want), nil
}

type modifiedEvaluator struct {
	now func() time.Time
}

func (modifiedEvaluator) Cost() CostClass { return CostMetadata }

func (e modifiedEvaluator) Evaluate(ctx *fsctx.Context, value string) (bool, error) {
	cmp, wantSeconds, unitSeconds, err := ParseTime(value)
	if err != nil {
		return false, err
	}
	meta, err := ctx.Metadata()
	if err != nil {
		return false, rdumperrors.NewFileAccessError(ctx.Path(), "stat", err)
	}
	now := time.Now
	if e.now != nil {
		now = e.now
	}
	age := now().Sub(meta.ModTime()).Seconds()

	if cmp == "=" {
		diff := age - wantSeconds
		if diff < 0 {
			diff = -diff
		}
		return diff <= unitSeconds, nil
	}
	return compareOrdered(cmp, age, wantSeconds), nil
}
