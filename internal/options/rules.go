package options

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
)

// DefaultReplacement is substituted for a literal rule that names only a
// pattern, with no "==>REPLACEMENT" half (filter-repo-rs/src/message.rs).
const DefaultReplacement = "***REMOVED***"

// RawRule is one line of a rules file, split into its kind prefix (empty,
// "regex:", or "glob:") and its PATTERN==>REPLACEMENT halves.
type RawRule struct {
	Kind        string // "", "regex", "glob"
	Pattern     []byte
	Replacement []byte
}

// ParseRulesFile loads a literal/regex/glob rules file (spec.md §4.2, the
// "Rules file" external interface in §6). Blank lines and lines starting
// with '#' are ignored; "regex:" and "glob:" prefixes select the rule kind;
// "==>" splits pattern from replacement, defaulting the replacement to
// DefaultReplacement when absent.
func ParseRulesFile(path string) ([]RawRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("options: opening rules file %s: %w", path, err)
	}
	defer f.Close()

	var rules []RawRule
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		kind := ""
		rest := raw
		switch {
		case bytes.HasPrefix(raw, []byte("regex:")):
			kind = "regex"
			rest = raw[len("regex:"):]
		case bytes.HasPrefix(raw, []byte("glob:")):
			kind = "glob"
			rest = raw[len("glob:"):]
		}
		pattern, replacement := rest, []byte(DefaultReplacement)
		if idx := bytes.Index(rest, []byte("==>")); idx >= 0 {
			pattern = rest[:idx]
			replacement = append([]byte(nil), rest[idx+3:]...)
		}
		if len(pattern) == 0 {
			continue
		}
		rules = append(rules, RawRule{
			Kind:        kind,
			Pattern:     append([]byte(nil), pattern...),
			Replacement: replacement,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("options: reading rules file %s: %w", path, err)
	}
	return rules, nil
}

// ParseNameMapFile loads an "OLD==>NEW" rewrite-pairs file used by
// --author-rewrite/--email-rewrite (filter-repo-rs/src/commit.rs's
// AuthorRewriter::from_reader).
func ParseNameMapFile(path string) ([][2]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("options: opening name-map file %s: %w", path, err)
	}
	defer f.Close()

	var pairs [][2]string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		idx := bytes.Index(line, []byte("==>"))
		if idx < 0 {
			continue
		}
		old := bytes.TrimSpace(line[:idx])
		newv := bytes.TrimSpace(line[idx+3:])
		if len(old) == 0 {
			continue
		}
		pairs = append(pairs, [2]string{string(old), string(newv)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("options: reading name-map file %s: %w", path, err)
	}
	return pairs, nil
}
