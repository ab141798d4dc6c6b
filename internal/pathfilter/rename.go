package pathfilter

import "bytes"

// RenameRule is an (old prefix, new prefix) pair applied to paths, the same
// shape as options.Rename but kept local so this package has no dependency
// on internal/options.
type RenameRule struct {
	Old []byte
	New []byte
}

// RewritePath applies each rule in order, feeding the output of one rule as
// the input to the next (filter-repo-rs/src/filechange.rs's rewrite_path:
// "a single pass, each rule's output feeds into the next rule's input").
// The prefix match is a plain byte prefix, not a path-component boundary, so
// an empty Old prepends New to every path.
func RewritePath(path []byte, rules []RenameRule) []byte {
	cur := path
	for _, r := range rules {
		cur = rewriteOne(cur, r)
	}
	return cur
}

func rewriteOne(path []byte, r RenameRule) []byte {
	if !bytes.HasPrefix(path, r.Old) {
		return path
	}
	rest := path[len(r.Old):]
	out := make([]byte, 0, len(r.New)+len(rest))
	out = append(out, r.New...)
	out = append(out, rest...)
	return out
}

// RefRewrite applies an (old, new) ref-name prefix rename the same way
// path renaming works, used for commit-header ref rewriting and branch/tag
// renames (filter-repo-rs/src/commit.rs's rename_commit_header_ref).
func RefRewrite(ref string, old, new string) (string, bool) {
	b := []byte(ref)
	oldB := []byte(old)
	if !bytes.HasPrefix(b, oldB) {
		return ref, false
	}
	rest := b[len(oldB):]
	out := append(append([]byte(nil), []byte(new)...), rest...)
	renamed := string(out)
	return renamed, !bytes.Equal(out, b)
}
