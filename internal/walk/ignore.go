package walk

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Pattern is one parsed line of a gitignore-style ignore file, the same
// modifier set the teacher's GitignoreParser recognizes: leading "!"
// negates, a trailing "/" restricts the pattern to directories, a leading
// "/" anchors it to the root instead of matching at any depth.
type Pattern struct {
	Raw       string
	Negate    bool
	Directory bool
	Anchored  bool
}

func parsePatternLine(line string) (Pattern, bool) {
	line = strings.TrimRight(line, "\r")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Pattern{}, false
	}

	p := Pattern{}
	if strings.HasPrefix(trimmed, "!") {
		p.Negate = true
		trimmed = trimmed[1:]
	}
	if strings.HasSuffix(trimmed, "/") {
		p.Directory = true
		trimmed = strings.TrimSuffix(trimmed, "/")
	}
	if strings.HasPrefix(trimmed, "/") {
		p.Anchored = true
		trimmed = strings.TrimPrefix(trimmed, "/")
	}
	if trimmed == "" {
		return Pattern{}, false
	}
	p.Raw = trimmed
	return p, true
}

// IgnoreSet is the effective, precedence-ordered rule stack of §4.7: later
// entries were loaded from a higher-precedence source and are evaluated
// after earlier ones, so a later negation can re-include a path an earlier
// layer excluded (last match wins, exactly like git's own layering).
type IgnoreSet struct {
	patterns []Pattern
}

// NewIgnoreSet starts from the built-in default pattern set — the lowest
// precedence layer.
func NewIgnoreSet() *IgnoreSet {
	s := &IgnoreSet{}
	for _, raw := range defaultIgnorePatterns {
		if p, ok := parsePatternLine(raw); ok {
			s.patterns = append(s.patterns, p)
		}
	}
	return s
}

// defaultIgnorePatterns mirrors the VCS/build-output directories the
// teacher's binary detector and scanner steer around by convention.
var defaultIgnorePatterns = []string{
	".git/",
	".hg/",
	".svn/",
	"node_modules/",
	"target/",
	"dist/",
	"build/",
	".cache/",
	"vendor/",
}

// LoadFile appends one ignore-file's patterns as a new, higher-precedence
// layer. A missing file is not an error (§4.7: any source may be absent).
func (s *IgnoreSet) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if p, ok := parsePatternLine(scanner.Text()); ok {
			s.patterns = append(s.patterns, p)
		}
	}
	return scanner.Err()
}

// clone returns a copy sharing no backing array with s, for a traversal
// branch that layers in a directory-local ignore file without mutating
// the parent's view.
func (s *IgnoreSet) clone() *IgnoreSet {
	c := &IgnoreSet{patterns: make([]Pattern, len(s.patterns))}
	copy(c.patterns, s.patterns)
	return c
}

// ShouldIgnore reports whether rel (slash-separated, relative to the
// search root) is excluded under the effective rule stack. isDir
// distinguishes directory-only patterns from file patterns, as in
// gitignore semantics.
func (s *IgnoreSet) ShouldIgnore(rel string, isDir bool) bool {
	ignored := false
	for _, p := range s.patterns {
		if matchesPattern(p, rel, isDir) {
			ignored = !p.Negate
		}
	}
	return ignored
}

func matchesPattern(p Pattern, rel string, isDir bool) bool {
	if p.Directory && !isDir {
		return matchesWithinDirectory(p, rel)
	}
	if matchOne(p.Raw, rel, p.Anchored) {
		return true
	}
	if p.Directory {
		return matchesWithinDirectory(p, rel)
	}
	return false
}

// matchesWithinDirectory reports whether rel names something nested
// inside a directory the pattern matches (a file inside an ignored
// directory is itself ignored, and so is a subdirectory of one).
func matchesWithinDirectory(p Pattern, rel string) bool {
	parts := strings.Split(rel, "/")
	for i := range parts {
		candidate := strings.Join(parts[:i+1], "/")
		if matchOne(p.Raw, candidate, p.Anchored) {
			return true
		}
	}
	return false
}

func matchOne(pattern, rel string, anchored bool) bool {
	if anchored {
		ok, _ := doublestar.Match(pattern, rel)
		return ok
	}
	if ok, _ := doublestar.Match(pattern, rel); ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		if ok, _ := doublestar.Match(pattern, filepath.Base(rel)); ok {
			return true
		}
	}
	if ok, _ := doublestar.Match("**/"+pattern, rel); ok {
		return true
	}
	return false
}
