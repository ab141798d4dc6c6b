// Package message rewrites commit and tag message bodies: literal/regex/glob
// substitution (reusing internal/blob's replacer, since
// filter-repo-rs/src/message.rs's MessageReplacer and its msg_regex.rs
// sibling are the same mechanism blob.go uses for blob content) followed by
// short-hash remapping against the old-oid -> new-oid commit map.
package message

import "github.com/cactusinhand/filter-repo-go/internal/blob"

// Replacer is an alias for blob.Replacer: commit/tag messages and blob
// content share identical literal/regex/glob replacement semantics.
type Replacer = blob.Replacer

// NewReplacer builds a message Replacer the same way blob.NewReplacer does.
func NewReplacer(literals []blob.LiteralRule, regexes []blob.RegexRule) *Replacer {
	return blob.NewReplacer(literals, regexes)
}

// Rewrite applies, in order: literal/regex/glob replacement, then short-hash
// remapping. Either stage may be nil/empty to skip it.
func Rewrite(body []byte, replacer *Replacer, hashes *ShortHashMapper) ([]byte, bool) {
	out := body
	changed := false
	if replacer != nil && !replacer.IsEmpty() {
		var c bool
		out, c = replacer.Apply(out)
		changed = changed || c
	}
	if hashes != nil {
		var c bool
		out, c = hashes.Rewrite(out)
		changed = changed || c
	}
	return out, changed
}
