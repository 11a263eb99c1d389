// Package semantic implements §4.5: dispatch a universal predicate name
// through a language profile's query source, execute it over a cached
// syntax tree, and compare captured text against the predicate value.
package semantic

import (
	"sync"
	"unicode"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/rdump-dev/rdump/internal/lang"
	"github.com/rdump-dev/rdump/internal/query"
)

// Engine owns the mutable tree-sitter machinery (parsers, compiled
// queries) behind the immutable profile data in internal/lang. Safe for
// concurrent use by multiple evaluator workers.
type Engine struct {
	registry    *lang.Registry
	parserPools sync.Map // language name -> *sync.Pool of *tree_sitter.Parser
	queries     sync.Map // "language:predicate" -> *tree_sitter.Query (nil entry means "none")
}

func NewEngine(registry *lang.Registry) *Engine {
	return &Engine{registry: registry}
}

// ProfileForExtension resolves a file extension to its language profile,
// or nil if the file's extension does not appear in any profile (§4.2:
// such files return "no tree" for every semantic predicate).
func (e *Engine) ProfileForExtension(ext string) *lang.Profile {
	return e.registry.ForExtension(ext)
}

// Parse invokes the profile's grammar over content and returns the parsed
// tree. The caller owns the returned tree and should cache it on the file
// context keyed by language, per §4.2 and §3's compute-once cell model.
func (e *Engine) Parse(p *lang.Profile, content []byte) *tree_sitter.Tree {
	parser := e.borrowParser(p)
	defer e.returnParser(p, parser)

	// tree-sitter's C library mutates its input buffer; a defensive copy
	// keeps the caller's content slice immutable (the file context may
	// hand the same bytes to content predicates concurrently).
	buf := make([]byte, len(content))
	copy(buf, content)
	return parser.Parse(buf, nil)
}

func (e *Engine) borrowParser(p *lang.Profile) *tree_sitter.Parser {
	poolIface, _ := e.parserPools.LoadOrStore(p.Name, &sync.Pool{
		New: func() any {
			parser := tree_sitter.NewParser()
			_ = parser.SetLanguage(p.Grammar)
			return parser
		},
	})
	return poolIface.(*sync.Pool).Get().(*tree_sitter.Parser)
}

func (e *Engine) returnParser(p *lang.Profile, parser *tree_sitter.Parser) {
	poolIface, _ := e.parserPools.Load(p.Name)
	poolIface.(*sync.Pool).Put(parser)
}

// queryFor compiles (and caches) the query source for name under profile
// p. Reports false if the profile has no query for that predicate, or if
// the tree-sitter binding's known nil-error bug leaves the query unusable
// (the teacher's setup* functions all guard on `query != nil` rather than
// trusting the error return).
func (e *Engine) queryFor(p *lang.Profile, name string) (*tree_sitter.Query, bool) {
	src, ok := p.Queries[name]
	if !ok {
		return nil, false
	}
	key := p.Name + ":" + name
	if v, ok := e.queries.Load(key); ok {
		q, ok := v.(*tree_sitter.Query)
		return q, ok
	}
	q, _ := tree_sitter.NewQuery(p.Grammar, src)
	if q == nil {
		e.queries.Store(key, (*tree_sitter.Query)(nil))
		return nil, false
	}
	e.queries.Store(key, q)
	return q, true
}

// matchCaptureName is the fixed capture tag every profiles.kdl query uses
// to mark its match node (§3: "a designated capture tag").
const matchCaptureName = "match"

// Evaluate runs predicate name from profile p over tree, comparing
// captured text against value under the rules of §4.5 steps 5-6. A nil
// tree (no profile, or a failed parse) evaluates false.
func (e *Engine) Evaluate(p *lang.Profile, name string, tree *tree_sitter.Tree, content []byte, value string) bool {
	if p == nil || tree == nil {
		return false
	}
	q, ok := e.queryFor(p, name)
	if !ok {
		return false
	}
	filter, gated := reactFilters[name]
	if gated && !p.JSX {
		return false
	}

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()
	matches := qc.Matches(q, tree.RootNode(), content)
	names := q.CaptureNames()
	wildcard := value == query.Wildcard

	for {
		m := matches.Next()
		if m == nil {
			return false
		}
		for _, c := range m.Captures {
			if names[c.Index] != matchCaptureName {
				continue
			}
			text := captureText(c.Node, content)
			if filter != nil && !filter(text) {
				continue
			}
			if wildcard || text == value {
				return true
			}
		}
	}
}

func captureText(n tree_sitter.Node, content []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if end > uint(len(content)) || start > end {
		return ""
	}
	return stripQuoting(string(content[start:end]))
}

// stripQuoting removes one layer of surrounding quote or angle-bracket
// delimiters from a captured literal (string literals, import paths,
// #include targets) so that e.g. import:fmt matches the captured Go
// import literal `"fmt"` by its unquoted text fmt.
func stripQuoting(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	switch {
	case first == '"' && last == '"',
		first == '\'' && last == '\'',
		first == '`' && last == '`',
		first == '<' && last == '>':
		return s[1 : len(s)-1]
	}
	return s
}

var builtinReactHooks = map[string]bool{
	"useState": true, "useEffect": true, "useContext": true, "useMemo": true,
	"useCallback": true, "useRef": true, "useReducer": true,
	"useLayoutEffect": true, "useImperativeHandle": true, "useDebugValue": true,
	"useTransition": true, "useDeferredValue": true, "useId": true,
	"useSyncExternalStore": true, "useInsertionEffect": true,
}

func looksLikeHookName(s string) bool {
	if len(s) < 4 || s[:3] != "use" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[3:])
	return unicode.IsUpper(r)
}

func looksLikeComponentName(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// reactFilters narrows an otherwise broad capture set (every call
// expression, every declaration) down to the React-specific meaning of
// hook/customhook/component, since profiles.kdl's tree-sitter queries
// alone cannot express "starts with use" or "is capitalized" (§4.5 calls
// these out as applying only to JSX-aware profiles). element and prop are
// precise from the grammar's own node shape and need no filter.
var reactFilters = map[string]func(string) bool{
	"hook":       func(s string) bool { return looksLikeHookName(s) && builtinReactHooks[s] },
	"customhook": func(s string) bool { return looksLikeHookName(s) && !builtinReactHooks[s] },
	"component":  looksLikeComponentName,
}
