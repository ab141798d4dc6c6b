package blob

import (
	"bytes"
	"fmt"
	"regexp"
)

// RegexRule is a compiled regex substitution with a $N/$-style replacement
// template, grounded on filter-repo-rs/src/blob_regex.rs and msg_regex.rs
// (the two are near-identical in the original; Go's regexp.ReplaceAll
// already implements $N-capture expansion so both collapse into one type
// here).
type RegexRule struct {
	re       *regexp.Regexp
	template []byte
}

// CompileRegexRule compiles a "regex:" rule line's pattern and replacement
// template.
func CompileRegexRule(pattern string, replacement []byte) (RegexRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return RegexRule{}, fmt.Errorf("blob: invalid regex rule %q: %w", pattern, err)
	}
	return RegexRule{re: re, template: toGoTemplate(replacement)}, nil
}

// CompileGlobRule converts a "glob:" rule line's pattern into an anchored
// regex ('*' -> ".*", '?' -> ".", every other metacharacter escaped) and
// compiles it, matching filter-repo-rs/src/blob_regex.rs's glob handling. A
// glob-derived rule has no capture groups, so its replacement is inserted
// literally rather than template-expanded.
func CompileGlobRule(pattern string, replacement []byte) (RegexRule, error) {
	var b bytes.Buffer
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	re, err := regexp.Compile(b.String())
	if err != nil {
		return RegexRule{}, fmt.Errorf("blob: invalid glob rule %q: %w", pattern, err)
	}
	return RegexRule{re: re, template: literalTemplate(replacement)}, nil
}

// Apply substitutes every match of the rule's regex in data with its
// expanded replacement template and reports whether anything changed.
func (r RegexRule) Apply(data []byte) ([]byte, bool) {
	if !r.re.Match(data) {
		return data, false
	}
	return r.re.ReplaceAll(data, r.template), true
}

// toGoTemplate converts a "$1".."$9"/"$$" style template (as used by the
// original's expand_bytes_template) into Go regexp's "${1}" form so stray
// digits following a capture reference are not swallowed into the group
// number (e.g. "$1x" must stay "$1" followed by literal "x").
func toGoTemplate(tmpl []byte) []byte {
	var out bytes.Buffer
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '$' {
			out.WriteByte(c)
			continue
		}
		if i+1 >= len(tmpl) {
			out.WriteByte('$')
			break
		}
		next := tmpl[i+1]
		switch {
		case next == '$':
			out.WriteString("$$")
			i++
		case next >= '0' && next <= '9':
			out.WriteString("${")
			out.WriteByte(next)
			out.WriteByte('}')
			i++
		default:
			out.WriteByte('$')
		}
	}
	return out.Bytes()
}

// literalTemplate escapes any '$' in a glob-derived replacement so Go's
// regexp engine treats it as a literal dollar sign rather than a capture
// reference, since glob patterns never produce capture groups.
func literalTemplate(repl []byte) []byte {
	return bytes.ReplaceAll(repl, []byte("$"), []byte("$$"))
}
