// Package walk implements §4.7: parallel-friendly candidate file discovery
// with layered ignore-file precedence, hidden-entry filtering, and a
// max-depth bound. Walk itself runs the single-pass directory traversal
// (grounded on the teacher's FileScanner.ScanDirectory single-pass design
// with early pruning via filepath.SkipDir and symlink-cycle detection);
// the orchestrator supplies the worker pool that drains the resulting
// channel in parallel.
package walk

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rdump-dev/rdump/internal/debug"
	rdumperrors "github.com/rdump-dev/rdump/internal/errors"
)

// RdumpIgnoreFile is the highest-precedence ignore source name (§4.7, §6).
const RdumpIgnoreFile = ".rdumpignore"

// Options configures one discovery run (§6 core entry contract).
type Options struct {
	Root             string
	IncludeHidden    bool
	NoIgnore         bool
	MaxDepth         int // -1 means unbounded; 0 means root-directory children only
	GlobalIgnorePath string
}

// Walk traverses Root and sends each candidate file's path (Root joined
// with the entry's relative path, so absolute when Root is) on out. It returns when the traversal completes, the context is canceled,
// or an unrecoverable root-level error occurs; per-entry errors are
// logged under verbose mode and otherwise skipped (§7 FileAccessError).
func Walk(ctx context.Context, opts Options, out chan<- string) error {
	root := filepath.Clean(opts.Root)
	opts.Root = root

	info, err := os.Stat(root)
	if err != nil {
		return rdumperrors.NewRootError(root, err)
	}
	if !info.IsDir() {
		return rdumperrors.NewRootError(root, errNotADirectory)
	}

	base := NewIgnoreSet()
	if opts.NoIgnore {
		base = &IgnoreSet{}
	} else if opts.GlobalIgnorePath != "" {
		if err := base.LoadFile(opts.GlobalIgnorePath); err != nil {
			debug.Logf("walk: failed to load global ignore file %s: %v", opts.GlobalIgnorePath, err)
		}
	}
	if !opts.NoIgnore {
		_ = base.LoadFile(filepath.Join(root, ".gitignore"))
	}
	_ = base.LoadFile(filepath.Join(root, RdumpIgnoreFile))

	visitedDirs := make(map[string]bool)
	dirSets := map[string]*IgnoreSet{root: base}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if walkErr != nil {
			debug.Logf("walk: %s: %v", path, walkErr)
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		depth := strings.Count(rel, "/")
		if rel == "." {
			depth = -1
		}

		if d.IsDir() {
			return walkDir(opts, path, rel, depth, d, dirSets, visitedDirs)
		}
		return walkFile(ctx, opts, path, rel, depth, dirSets, out)
	})
}

func walkDir(opts Options, path, rel string, depth int, d fs.DirEntry, dirSets map[string]*IgnoreSet, visitedDirs map[string]bool) error {
	if depth < 0 {
		return nil // the root itself
	}
	if !opts.IncludeHidden && isHidden(d.Name()) {
		return filepath.SkipDir
	}

	if d.Type()&os.ModeSymlink != 0 {
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return filepath.SkipDir
		}
		if visitedDirs[real] {
			return filepath.SkipDir
		}
		visitedDirs[real] = true
	}

	parent := dirSets[filepath.Dir(path)]
	if parent == nil {
		parent = dirSets[filepath.Clean(path)]
	}
	set := parent.clone()
	if !opts.NoIgnore {
		_ = set.LoadFile(filepath.Join(path, ".gitignore"))
	}
	_ = set.LoadFile(filepath.Join(path, RdumpIgnoreFile))
	dirSets[filepath.Clean(path)] = set

	if set.ShouldIgnore(rel, true) {
		return filepath.SkipDir
	}
	if opts.MaxDepth >= 0 && depth >= opts.MaxDepth {
		return filepath.SkipDir
	}
	return nil
}

func walkFile(ctx context.Context, opts Options, path, rel string, depth int, dirSets map[string]*IgnoreSet, out chan<- string) error {
	name := filepath.Base(path)
	if !opts.IncludeHidden && isHidden(name) {
		return nil
	}
	if opts.MaxDepth >= 0 && depth > opts.MaxDepth {
		return nil
	}

	set := dirSets[filepath.Clean(filepath.Dir(path))]
	if set == nil {
		set = dirSets[filepath.Clean(opts.Root)]
	}
	if set != nil && set.ShouldIgnore(rel, false) {
		return nil
	}

	select {
	case out <- path:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

var errNotADirectory = errors.New("not a directory")
