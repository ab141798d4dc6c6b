package identity

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// mailmapLineRegex mirrors filter-repo-rs/src/commit.rs's mailmap parser:
//
//	[Proper Name] <proper-email> [Commit Name] <commit-email>
//
// The proper name and the commit name are both optional; when the commit
// name is omitted, the rule matches any commit identity with the given
// commit email regardless of name.
var mailmapLineRegex = regexp.MustCompile(`^(?:([^<]*?)\s+)?<([^>]+)>\s+(?:<([^>]+)>|([^<]*?)\s+<([^>]+)>)\s*$`)

// MailmapRule is one parsed mailmap entry. CommitName is empty when the
// rule should match any commit identity bearing CommitEmail.
type MailmapRule struct {
	ProperName  string
	ProperEmail string
	CommitName  string
	CommitEmail string
}

// MailmapRewriter rewrites author/committer/tagger identity lines according
// to a loaded .mailmap-style file, matching
// filter-repo-rs/src/commit.rs's MailmapRewriter.
type MailmapRewriter struct {
	rules []MailmapRule
}

// identityLineRegex splits a "author Name <email> epoch tz\n" (or
// committer/tagger) line into its role keyword, name, email, and the
// trailing timestamp fields, which are passed through unchanged.
var identityLineRegex = regexp.MustCompile(`^(author|committer|tagger) (.*) <([^>]*)> (.*)$`)

// LoadMailmap reads a mailmap file from path.
func LoadMailmap(path string) (*MailmapRewriter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("identity: opening mailmap %s: %w", path, err)
	}
	defer f.Close()

	var rules []MailmapRule
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := mailmapLineRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rule := MailmapRule{
			ProperName:  m[1],
			ProperEmail: m[2],
		}
		if m[3] != "" {
			rule.CommitEmail = m[3]
		} else {
			rule.CommitName = m[4]
			rule.CommitEmail = m[5]
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("identity: reading mailmap %s: %w", path, err)
	}
	return &MailmapRewriter{rules: rules}, nil
}

// IsEmpty reports whether no mailmap rules are configured.
func (m *MailmapRewriter) IsEmpty() bool {
	return m == nil || len(m.rules) == 0
}

// RewriteLine rewrites a single "author "/"committer "/"tagger " identity
// line, substituting the name and/or email per the first matching rule. A
// rule whose ProperName/ProperEmail is empty leaves that half of the
// identity unchanged (filter-repo-rs's "empty new value means keep old").
func (m *MailmapRewriter) RewriteLine(line []byte) ([]byte, bool) {
	if m.IsEmpty() {
		return line, false
	}
	trimmed := bytes.TrimRight(line, "\n")
	parts := identityLineRegex.FindSubmatch(trimmed)
	if parts == nil {
		return line, false
	}
	role := string(parts[1])
	name := string(parts[2])
	email := string(parts[3])
	tail := string(parts[4])

	for _, rule := range m.rules {
		if !strings.EqualFold(rule.CommitEmail, email) {
			continue
		}
		if rule.CommitName != "" && rule.CommitName != name {
			continue
		}
		newName, newEmail := name, email
		if rule.ProperName != "" {
			newName = rule.ProperName
		}
		if rule.ProperEmail != "" {
			newEmail = rule.ProperEmail
		}
		if newName == name && newEmail == email {
			return line, false
		}
		rewritten := fmt.Sprintf("%s %s <%s> %s\n", role, newName, newEmail, tail)
		return []byte(rewritten), true
	}
	return line, false
}
