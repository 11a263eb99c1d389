package fsctx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdump-dev/rdump/internal/lang"
	"github.com/rdump-dev/rdump/internal/semantic"
)

func TestMetadataCachedAfterFirstCall(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	ctx := New(path, dir)
	m1, err := ctx.Metadata()
	require.NoError(t, err)
	m2, err := ctx.Metadata()
	require.NoError(t, err)
	assert.Same(t, m1, m2, "second call should return the cached FileInfo")
}

func TestContentLoadErrorIsCachedAndNonFatal(t *testing.T) {
	ctx := New(filepath.Join(t.TempDir(), "missing.txt"), t.TempDir())
	_, err1 := ctx.Content()
	_, err2 := ctx.Content()
	assert.Error(t, err1)
	assert.Error(t, err2)
	assert.Same(t, err1, err2, "second call should return the cached error")
}

func TestContentHashMatchesXXHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	ctx := New(path, dir)
	h1, err := ctx.ContentHash()
	require.NoError(t, err)
	h2, err := ctx.ContentHash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.NotZero(t, h1)
	assert.Equal(t, xxhash.Sum64([]byte("hello")), h1)
}

func TestTreeCachedPerLanguage(t *testing.T) {
	reg, err := lang.Load()
	require.NoError(t, err)
	engine := semantic.NewEngine(reg)

	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package t\n"), 0o644))

	ctx := New(path, dir)
	tree1, profile1, ok1 := ctx.Tree(engine)
	require.True(t, ok1)
	tree2, profile2, ok2 := ctx.Tree(engine)
	require.True(t, ok2)

	assert.Same(t, tree1, tree2, "second call should reuse the cached tree")
	assert.Equal(t, profile1, profile2)
}

func TestTreeNoProfileReturnsFalse(t *testing.T) {
	reg, err := lang.Load()
	require.NoError(t, err)
	engine := semantic.NewEngine(reg)

	dir := t.TempDir()
	path := filepath.Join(dir, "a.unknownlang")
	require.NoError(t, os.WriteFile(path, []byte("whatever"), 0o644))

	ctx := New(path, dir)
	tree, profile, ok := ctx.Tree(engine)
	assert.False(t, ok)
	assert.Nil(t, tree)
	assert.Nil(t, profile)
}
