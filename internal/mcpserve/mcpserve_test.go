package mcpserve

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdump-dev/rdump/internal/lang"
	"github.com/rdump-dev/rdump/internal/predicate"
	"github.com/rdump-dev/rdump/internal/semantic"
)

func newTestServer(t *testing.T, presets map[string]string) *Server {
	t.Helper()
	profiles, err := lang.Load()
	require.NoError(t, err)
	registry := predicate.New(semantic.NewEngine(profiles))
	return New(registry, presets)
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

func callToolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	text := ""
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			text += tc.Text
		}
	}
	return text
}

func TestHandleSearchFilesReturnsMatches(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.go":  "package a",
		"b.txt": "not go",
	})
	s := newTestServer(t, nil)

	params, err := json.Marshal(searchFilesArgs{Query: "ext:'go'", Root: dir})
	require.NoError(t, err)

	result, err := s.handleSearchFiles(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: params},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var payload struct {
		Count   int `json:"count"`
		Matches []struct {
			Path string `json:"path"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(callToolText(t, result)), &payload))
	require.Equal(t, 1, payload.Count)
	assert.Equal(t, filepath.Join(dir, "a.go"), payload.Matches[0].Path)
}

func TestHandleSearchFilesResolvesPreset(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.go":  "package a",
		"b.txt": "not go",
	})
	s := newTestServer(t, map[string]string{"go-only": "ext:'go'"})

	params, err := json.Marshal(searchFilesArgs{Query: "@go-only", Root: dir})
	require.NoError(t, err)

	result, err := s.handleSearchFiles(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: params},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var payload struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(callToolText(t, result)), &payload))
	assert.Equal(t, 1, payload.Count)
}

func TestHandleSearchFilesInvalidQueryReturnsErrorResult(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.go": "package a"})
	s := newTestServer(t, nil)

	params, err := json.Marshal(searchFilesArgs{Query: "nope:'x'", Root: dir})
	require.NoError(t, err)

	result, err := s.handleSearchFiles(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: params},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSearchFilesMalformedArgumentsReturnsErrorResult(t *testing.T) {
	s := newTestServer(t, nil)

	result, err := s.handleSearchFiles(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: []byte("not json")},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
