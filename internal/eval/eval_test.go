package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rdumperrors "github.com/rdump-dev/rdump/internal/errors"
	"github.com/rdump-dev/rdump/internal/fsctx"
	"github.com/rdump-dev/rdump/internal/lang"
	"github.com/rdump-dev/rdump/internal/predicate"
	"github.com/rdump-dev/rdump/internal/query"
	"github.com/rdump-dev/rdump/internal/semantic"
)

func newTestRegistry(t *testing.T) *predicate.Registry {
	t.Helper()
	reg, err := lang.Load()
	require.NoError(t, err)
	return predicate.New(semantic.NewEngine(reg))
}

func mustParse(t *testing.T, q string) query.Expr {
	t.Helper()
	expr, err := query.Parse(q)
	require.NoError(t, err)
	return expr
}

func TestRewriteOrdersCheapestFirst(t *testing.T) {
	r := newTestRegistry(t)
	expr := mustParse(t, `matches:'fn\s+main' and struct:'.' and ext:'go'`)

	rewritten := Rewrite(expr, r)

	assert.Equal(t, "ext:'go' & matches:'fn\\\\s+main' & struct:'.'", query.Print(rewritten))
}

func TestRewriteLeavesOrUntouchedButRewritesOperands(t *testing.T) {
	r := newTestRegistry(t)
	expr := mustParse(t, `(matches:'x' and ext:'go') or struct:'.'`)

	rewritten := Rewrite(expr, r)

	assert.Equal(t, "ext:'go' & matches:'x' | struct:'.'", query.Print(rewritten))
}

func TestEvaluateAndShortCircuits(t *testing.T) {
	r := newTestRegistry(t)
	e := New(r)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	ctx := fsctx.New(path, dir)

	// ext:go is false and sorts before the invalid-regex matches predicate
	// post-rewrite, so matches is never evaluated: no panic, no error
	// surfacing, result simply false.
	expr := mustParse(t, `ext:'go' and matches:'(unterminated'`)
	result, err := e.Evaluate(ctx, expr)
	require.NoError(t, err)
	assert.False(t, result)
}

func TestEvaluateOrShortCircuits(t *testing.T) {
	r := newTestRegistry(t)
	e := New(r)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	ctx := fsctx.New(path, dir)

	expr := mustParse(t, `ext:'txt' or matches:'(unterminated'`)
	result, err := e.Evaluate(ctx, expr)
	require.NoError(t, err)
	assert.True(t, result)
}

func TestEvaluateInvalidValueErrorPropagatesAsFatal(t *testing.T) {
	r := newTestRegistry(t)
	e := New(r)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	ctx := fsctx.New(path, dir)

	// An unparsable regex is a defect in the query, not in this one file,
	// so it must propagate rather than being absorbed as false.
	expr := mustParse(t, `matches:'(unterminated'`)
	_, err := e.Evaluate(ctx, expr)
	var invalid *rdumperrors.InvalidValueError
	assert.ErrorAs(t, err, &invalid)
}

func TestEvaluateInvalidValueErrorPropagatesThroughNot(t *testing.T) {
	r := newTestRegistry(t)
	e := New(r)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	ctx := fsctx.New(path, dir)

	expr := mustParse(t, `!matches:'(unterminated'`)
	_, err := e.Evaluate(ctx, expr)
	var invalid *rdumperrors.InvalidValueError
	assert.ErrorAs(t, err, &invalid)
}

func TestEvaluateUnknownPredicateNameIsFalse(t *testing.T) {
	r := newTestRegistry(t)
	e := New(r)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	ctx := fsctx.New(path, dir)

	result, err := e.Evaluate(ctx, &query.Predicate{Name: "nope", Value: "."})
	require.NoError(t, err)
	assert.False(t, result)
}
