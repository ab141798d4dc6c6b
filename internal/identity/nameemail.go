// Package identity rewrites author/committer/tagger identity lines, either
// by literal name/email substitution or by mailmap-grammar rules, grounded
// on filter-repo-rs/src/commit.rs's AuthorRewriter and MailmapRewriter.
// Mailmap rules take precedence over literal ones when both are configured,
// matching the original's rewrite order.
package identity

import "github.com/cactusinhand/filter-repo-go/internal/ahocorasick"

// NameRewriter applies literal OLD==>NEW substitutions to a whole identity
// line's text (e.g. full "Name <email>" strings), using an Aho-Corasick
// automaton the same way internal/blob does for --replace-text rules.
type NameRewriter struct {
	automaton    *ahocorasick.Automaton
	replacements [][]byte
}

// NewNameRewriter builds a rewriter from OLD==>NEW pairs. Returns a
// rewriter whose IsEmpty() is true if pairs is empty.
func NewNameRewriter(pairs [][2]string) *NameRewriter {
	if len(pairs) == 0 {
		return &NameRewriter{}
	}
	patterns := make([][]byte, len(pairs))
	repls := make([][]byte, len(pairs))
	for i, p := range pairs {
		patterns[i] = []byte(p[0])
		repls[i] = []byte(p[1])
	}
	return &NameRewriter{automaton: ahocorasick.Build(patterns), replacements: repls}
}

// IsEmpty reports whether no rewrite pairs are configured.
func (r *NameRewriter) IsEmpty() bool {
	return r == nil || r.automaton == nil
}

// Rewrite substitutes every configured OLD occurrence in line with its NEW
// counterpart and reports whether anything changed.
func (r *NameRewriter) Rewrite(line []byte) ([]byte, bool) {
	if r.IsEmpty() {
		return line, false
	}
	return r.automaton.Replace(line, r.replacements)
}
