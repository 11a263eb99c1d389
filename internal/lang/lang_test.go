package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistersKnownExtensions(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	for ext, wantLang := range map[string]string{
		"go":  "go",
		"rs":  "rust",
		"py":  "python",
		"js":  "javascript",
		"jsx": "javascript",
		"ts":  "typescript",
		"tsx": "tsx",
		"cpp": "cpp",
		"java": "java",
		"cs":  "csharp",
		"php": "php",
		"zig": "zig",
	} {
		p := reg.ForExtension(ext)
		if assert.NotNilf(t, p, "extension %q", ext) {
			assert.Equal(t, wantLang, p.Name)
		}
	}
}

func TestExtensionLookupIsCaseInsensitive(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)
	assert.Same(t, reg.ForExtension("go"), reg.ForExtension("GO"))
}

func TestUnknownExtensionHasNoProfile(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)
	assert.Nil(t, reg.ForExtension("xyzzy"))
}

func TestJSXFlagOnlyOnJSXProfiles(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	assert.True(t, reg.ForName("javascript").JSX)
	assert.True(t, reg.ForName("tsx").JSX)
	assert.False(t, reg.ForName("typescript").JSX)
	assert.False(t, reg.ForName("go").JSX)
}

func TestProfilesOmitUnsupportedPredicates(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	zig := reg.ForName("zig")
	_, hasImport := zig.Queries["import"]
	assert.False(t, hasImport, "zig profile should omit predicates it cannot express")

	goProfile := reg.ForName("go")
	_, hasFunc := goProfile.Queries["func"]
	assert.True(t, hasFunc)
	_, hasTrait := goProfile.Queries["trait"]
	assert.False(t, hasTrait, "go has no trait construct")
}
