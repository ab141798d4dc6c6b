// Package pathfilter implements path-based keep/drop filtering, ordered
// prefix renaming, and platform-compatibility path encoding for file-change
// lines, grounded on filter-repo-rs/src/filechange.rs and
// filter-repo-rs/src/pathutil.rs.
package pathfilter

import (
	"bytes"
	"regexp"
)

// Predicate bundles the three ways a path can be selected: exact/prefix
// literal paths, glob patterns, and compiled regexes. An empty Predicate
// (no entries in any slice) matches every path, matching
// filter-repo-rs/src/filechange.rs's should_keep: "empty predicate sets
// match all".
type Predicate struct {
	Paths   [][]byte
	Globs   [][]byte
	Regexes []*regexp.Regexp
	Invert  bool
}

// IsEmpty reports whether no selection criteria were configured at all.
func (p Predicate) IsEmpty() bool {
	return len(p.Paths) == 0 && len(p.Globs) == 0 && len(p.Regexes) == 0
}

// Matches reports whether path satisfies any configured literal-prefix,
// glob, or regex rule.
func (p Predicate) Matches(path []byte) bool {
	for _, prefix := range p.Paths {
		if bytes.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, g := range p.Globs {
		if GlobMatchBytes(g, path) {
			return true
		}
	}
	for _, re := range p.Regexes {
		if re.Match(path) {
			return true
		}
	}
	return false
}

// ShouldKeep reports whether a file-change touching path should survive
// filtering, honoring Invert (filter-repo-rs/src/filechange.rs's
// should_keep): an empty predicate always keeps, otherwise the predicate
// match is XORed with Invert.
func (p Predicate) ShouldKeep(path []byte) bool {
	if p.IsEmpty() {
		return true
	}
	return p.Matches(path) != p.Invert
}
