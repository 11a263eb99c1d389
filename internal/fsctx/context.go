// Package fsctx implements the per-file context of §3/§4.2/§9: a
// canonical path plus three compute-once cells (metadata, content, parse
// trees) that materialize lazily as predicates ask for them. A context is
// owned by exactly one evaluation task and is never shared across
// goroutines, so the cells need no locking (§5 "Shared resources").
package fsctx

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/rdump-dev/rdump/internal/lang"
	"github.com/rdump-dev/rdump/internal/semantic"
)

// Context is the lazily-materialized per-candidate bundle described in
// §3. Each Loaded/Error slot below is populated at most once.
type Context struct {
	path string
	root string

	metaLoaded bool
	meta       os.FileInfo
	metaErr    error

	contentLoaded bool
	content       []byte
	contentHash   uint64
	contentErr    error

	trees map[string]*treeSlot
}

type treeSlot struct {
	tree    *tree_sitter.Tree
	profile *lang.Profile
	err     error
}

// New creates a file context for path (already canonicalized by the
// walker) rooted at root, used for path/in predicates' relative matching.
func New(path, root string) *Context {
	return &Context{path: path, root: root, trees: make(map[string]*treeSlot)}
}

// Path returns the canonical absolute path (§3, eager, no I/O).
func (c *Context) Path() string { return c.path }

// Root returns the search root this context was discovered under.
func (c *Context) Root() string { return c.root }

// Ext returns the file's extension without the leading dot, lower-cased.
func (c *Context) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(c.path), "."))
}

// Metadata returns the cached os.FileInfo for the file, performing the
// stat on first call. A failure is cached and returned on every
// subsequent call (§7 FileAccessError: non-fatal, behaves as "missing").
func (c *Context) Metadata() (os.FileInfo, error) {
	if !c.metaLoaded {
		c.meta, c.metaErr = os.Lstat(c.path)
		c.metaLoaded = true
	}
	return c.meta, c.metaErr
}

// Content returns the cached file bytes, reading the file on first call.
// A read failure is cached; all content-dependent predicates then
// evaluate false for this context (§4.2).
func (c *Context) Content() ([]byte, error) {
	if !c.contentLoaded {
		c.content, c.contentErr = os.ReadFile(c.path)
		if c.contentErr == nil {
			c.contentHash = xxhash.Sum64(c.content)
		}
		c.contentLoaded = true
	}
	return c.content, c.contentErr
}

// ContentLoaded reports whether Content has already been read for this
// context, without triggering a read. Used by the orchestrator to decide
// whether the emitted record should carry content bytes (§6: "loaded if
// any content or semantic predicate ran").
func (c *Context) ContentLoaded() bool {
	return c.contentLoaded
}

// ContentHash returns the xxhash fingerprint of the file's content,
// loading it first if necessary. Watch mode does not consult it: every
// debounced fire re-runs the whole search.
func (c *Context) ContentHash() (uint64, error) {
	if _, err := c.Content(); err != nil {
		return 0, err
	}
	return c.contentHash, nil
}

// Tree returns the parsed syntax tree for the file's detected language,
// parsing on first use and caching the result keyed by language name
// (§4.2). A file whose extension matches no profile returns
// (nil, nil, false); one whose content cannot be read or parsed returns
// (nil, profile, false). Either way that is "no tree", so semantic
// predicates evaluate false rather than erroring (§7 ParseTreeError).
func (c *Context) Tree(engine *semantic.Engine) (*tree_sitter.Tree, *lang.Profile, bool) {
	profile := engine.ProfileForExtension(c.Ext())
	if profile == nil {
		return nil, nil, false
	}

	if slot, ok := c.trees[profile.Name]; ok {
		return slot.tree, slot.profile, slot.err == nil && slot.tree != nil
	}

	content, err := c.Content()
	if err != nil {
		c.trees[profile.Name] = &treeSlot{profile: profile, err: err}
		return nil, profile, false
	}

	tree := engine.Parse(profile, content)
	c.trees[profile.Name] = &treeSlot{tree: tree, profile: profile}
	return tree, profile, tree != nil
}
