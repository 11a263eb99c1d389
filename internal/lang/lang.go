// Package lang holds language profiles as data (§4.5, §9 "per-language
// data-driven extension"): a profile is an extension set plus a mapping
// from universal predicate name to a tree-sitter query source string. The
// profile records live in profiles.kdl and are loaded here; grammars.go
// only wires grammar handles, which cannot themselves be expressed as data.
package lang

import (
	_ "embed"
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

//go:embed profiles.kdl
var profilesKDL string

// Profile is the immutable per-language record of §3: a language name, the
// extensions it claims, its compiled grammar, and the universal-predicate
// query strings a profile chooses to support. JSX carries true for
// languages whose grammar parses JSX/TSX nodes, gating the React-oriented
// predicate set (element, hook, customhook, prop, component).
type Profile struct {
	Name       string
	Extensions []string
	Grammar    *tree_sitter.Language
	Queries    map[string]string
	JSX        bool
}

// Registry is the read-only, start-up-built mapping from file extension to
// language profile (§3 "Language profile").
type Registry struct {
	byExtension map[string]*Profile
	byName      map[string]*Profile
}

// ForExtension returns the profile claiming ext (no leading dot, matched
// case-insensitively), or nil if no profile covers it.
func (r *Registry) ForExtension(ext string) *Profile {
	return r.byExtension[strings.ToLower(ext)]
}

// ForName returns the profile with the given language name, or nil.
func (r *Registry) ForName(name string) *Profile {
	return r.byName[name]
}

// Load parses the embedded profiles.kdl document into a Registry,
// resolving each language's grammar handle. A language block naming a
// grammar with no Go bindings is skipped entirely rather than causing load
// to fail — profiles are additive data, and an unbuildable grammar simply
// means that language's semantic predicates are unavailable (§4.5 "if
// none, return false").
func Load() (*Registry, error) {
	doc, err := kdl.Parse(strings.NewReader(profilesKDL))
	if err != nil {
		return nil, fmt.Errorf("lang: parse profiles.kdl: %w", err)
	}

	reg := &Registry{
		byExtension: make(map[string]*Profile),
		byName:      make(map[string]*Profile),
	}

	for _, n := range doc.Nodes {
		if nodeName(n) != "language" {
			continue
		}
		name, ok := firstStringArg(n)
		if !ok {
			continue
		}
		grammar, ok := grammarFor(name)
		if !ok {
			continue
		}

		p := &Profile{
			Name:    name,
			Grammar: grammar,
			Queries: make(map[string]string),
		}

		for _, cn := range n.Children {
			switch nodeName(cn) {
			case "extensions":
				p.Extensions = append(p.Extensions, stringArgs(cn)...)
			case "jsx":
				p.JSX = true
			case "query":
				args := stringArgs(cn)
				if len(args) == 2 {
					p.Queries[args[0]] = args[1]
				}
			}
		}

		p.Extensions = normalizeExtensions(p.Extensions)
		reg.byName[p.Name] = p
		for _, ext := range p.Extensions {
			reg.byExtension[ext] = p
		}
	}

	return reg, nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		out = append(out, strings.ToLower(strings.TrimPrefix(e, ".")))
	}
	return out
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if n == nil || len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}

func stringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
