// Package blob rewrites blob (and, by the same pipeline, commit/tag
// message) payloads according to literal, regex, and glob rules, grounded
// on filter-repo-rs/src/message.rs's MessageReplacer plus its
// blob_regex.rs/msg_regex.rs siblings. Literal rules run through
// internal/ahocorasick once three or more are registered (matching the
// original's AHO_CORASICK_THRESHOLD); below that, or when only regex/glob
// rules are present, replacement falls back to a direct sequential scan.
package blob

import (
	"bytes"

	"github.com/cactusinhand/filter-repo-go/internal/ahocorasick"
	"github.com/cactusinhand/filter-repo-go/internal/options"
)

// ahoCorasickThreshold mirrors message.rs's AHO_CORASICK_THRESHOLD: below
// this many literal pairs, a sequential scan is as fast as building an
// automaton and simpler to reason about.
const ahoCorasickThreshold = 3

// StreamingThreshold is the payload size above which Replacer.ApplyStreaming
// should be used instead of Apply, mirroring message.rs's STREAMING_THRESHOLD
// (1 MiB).
const StreamingThreshold = 1 << 20

// LiteralRule is one literal byte-string substitution.
type LiteralRule struct {
	Pattern     []byte
	Replacement []byte
}

// Replacer applies a configured set of literal, regex, and glob rules, in
// that order, to blob and message payloads.
type Replacer struct {
	literals     []LiteralRule
	automaton    *ahocorasick.Automaton
	replacements [][]byte

	regexRules []RegexRule
}

// NewReplacer builds a Replacer from parsed rule files. literalPairs come
// from a --replace-text file with no "regex:"/"glob:" prefix; regexAndGlob
// rules come from the same file's regex:/glob: lines.
func NewReplacer(literalPairs []LiteralRule, regexAndGlob []RegexRule) *Replacer {
	r := &Replacer{literals: literalPairs, regexRules: regexAndGlob}
	if len(literalPairs) >= ahoCorasickThreshold {
		patterns := make([][]byte, len(literalPairs))
		repls := make([][]byte, len(literalPairs))
		for i, p := range literalPairs {
			patterns[i] = p.Pattern
			repls[i] = p.Replacement
		}
		r.automaton = ahocorasick.Build(patterns)
		r.replacements = repls
	}
	return r
}

// FromRawRules converts the Kind/Pattern/Replacement triples parsed by
// options.ParseRulesFile into a Replacer, compiling regex/glob rules along
// the way.
func FromRawRules(raw []options.RawRule) (*Replacer, error) {
	var literals []LiteralRule
	var regexes []RegexRule
	for _, rr := range raw {
		switch rr.Kind {
		case "":
			literals = append(literals, LiteralRule{Pattern: rr.Pattern, Replacement: rr.Replacement})
		case "regex":
			re, err := CompileRegexRule(string(rr.Pattern), rr.Replacement)
			if err != nil {
				return nil, err
			}
			regexes = append(regexes, re)
		case "glob":
			re, err := CompileGlobRule(string(rr.Pattern), rr.Replacement)
			if err != nil {
				return nil, err
			}
			regexes = append(regexes, re)
		}
	}
	return NewReplacer(literals, regexes), nil
}

// IsEmpty reports whether the replacer has no rules configured at all,
// letting callers take a fast-path copy instead of calling Apply.
func (r *Replacer) IsEmpty() bool {
	return r == nil || (len(r.literals) == 0 && len(r.regexRules) == 0)
}

// SupportsStreaming reports whether the literal half of this replacer built
// an automaton, the only path ApplyStreaming can drive (message.rs's
// supports_streaming).
func (r *Replacer) SupportsStreaming() bool {
	return r != nil && r.automaton != nil
}

// Apply runs literal rules (automaton if available, else sequential) and
// then regex/glob rules, in that order, over data and reports whether
// anything changed.
func (r *Replacer) Apply(data []byte) ([]byte, bool) {
	if r.IsEmpty() {
		return data, false
	}
	out := data
	changed := false

	if r.automaton != nil {
		var c bool
		out, c = r.automaton.Replace(out, r.replacements)
		changed = changed || c
	} else {
		for _, lit := range r.literals {
			var c bool
			out, c = replaceAllLiteral(out, lit.Pattern, lit.Replacement)
			changed = changed || c
		}
	}

	for _, rx := range r.regexRules {
		var c bool
		out, c = rx.Apply(out)
		changed = changed || c
	}

	return out, changed
}

// replaceAllLiteral is the sequential fallback used when fewer than
// ahoCorasickThreshold literal rules are configured (message.rs's
// replace_all_bytes).
func replaceAllLiteral(data, pattern, replacement []byte) ([]byte, bool) {
	if len(pattern) == 0 || !bytes.Contains(data, pattern) {
		return data, false
	}
	return bytes.ReplaceAll(data, pattern, replacement), true
}
