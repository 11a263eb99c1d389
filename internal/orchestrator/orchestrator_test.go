package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	rdumperrors "github.com/rdump-dev/rdump/internal/errors"
	"github.com/rdump-dev/rdump/internal/lang"
	"github.com/rdump-dev/rdump/internal/predicate"
	"github.com/rdump-dev/rdump/internal/semantic"
)

func newTestRegistry(t *testing.T) *predicate.Registry {
	t.Helper()
	reg, err := lang.Load()
	require.NoError(t, err)
	return predicate.New(semantic.NewEngine(reg))
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func paths(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Path
	}
	return out
}

func TestRunFindsMatchingFilesSortedByPath(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"b.go":     "package b",
		"a.go":     "package a",
		"c.txt":    "not go",
		"sub/d.go": "package d",
	})

	records, err := Run(context.Background(), Options{
		Query:    "ext:'go'",
		Root:     dir,
		MaxDepth: -1,
		Workers:  4,
	}, newTestRegistry(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.go"),
		filepath.Join(dir, "b.go"),
		filepath.Join(dir, "sub", "d.go"),
	}, paths(records))
}

func TestRunLoadsContentOnlyWhenContentPredicateRan(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.go": "package a\nfunc main() {}\n",
	})

	records, err := Run(context.Background(), Options{
		Query:    "contains:'func main'",
		Root:     dir,
		MaxDepth: -1,
		Workers:  1,
	}, newTestRegistry(t))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].Content)
}

func TestRunMetadataOnlyQueryDoesNotLoadContent(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.go": "package a\n",
	})

	records, err := Run(context.Background(), Options{
		Query:    "ext:'go'",
		Root:     dir,
		MaxDepth: -1,
		Workers:  1,
	}, newTestRegistry(t))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Content)
}

func TestRunUnknownPredicateIsFatal(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.go": "package a"})

	_, err := Run(context.Background(), Options{
		Query:    "nope:'x'",
		Root:     dir,
		MaxDepth: -1,
		Workers:  2,
	}, newTestRegistry(t))

	require.Error(t, err)
	var unknown *rdumperrors.UnknownPredicateError
	assert.ErrorAs(t, err, &unknown)
}

func TestRunInvalidPredicateValueIsFatal(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.go": "package a"})

	_, err := Run(context.Background(), Options{
		Query:    `matches:'(unterminated'`,
		Root:     dir,
		MaxDepth: -1,
		Workers:  2,
	}, newTestRegistry(t))

	require.Error(t, err)
	var invalid *rdumperrors.InvalidValueError
	assert.ErrorAs(t, err, &invalid)
}

func TestRunMalformedQueryIsFatal(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.go": "package a"})

	_, err := Run(context.Background(), Options{
		Query:    "ext:'go' and",
		Root:     dir,
		MaxDepth: -1,
		Workers:  2,
	}, newTestRegistry(t))

	assert.Error(t, err)
}

func TestRunMissingRootIsFatal(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Query:    "ext:'go'",
		Root:     filepath.Join(t.TempDir(), "missing"),
		MaxDepth: -1,
		Workers:  2,
	}, newTestRegistry(t))

	require.Error(t, err)
	var rootErr *rdumperrors.RootError
	assert.ErrorAs(t, err, &rootErr)
}

func TestRunNoGoroutineLeaksOnSuccess(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := writeTree(t, map[string]string{
		"a.go": "package a",
		"b.go": "package b",
	})

	_, err := Run(context.Background(), Options{
		Query:    "ext:'go'",
		Root:     dir,
		MaxDepth: -1,
		Workers:  4,
	}, newTestRegistry(t))
	require.NoError(t, err)
}

func TestRunNoGoroutineLeaksOnCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := writeTree(t, map[string]string{
		"a.go": "package a",
		"b.go": "package b",
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	time.Sleep(2 * time.Millisecond)

	_, _ = Run(ctx, Options{
		Query:    "ext:'go'",
		Root:     dir,
		MaxDepth: -1,
		Workers:  4,
	}, newTestRegistry(t))
}
