// Package detect is the thin secret-pattern-matching shell spec.md §1 names
// as an external collaborator of the core pipeline: a --detect-secrets mode
// would load a pattern library and feed matches into the same
// internal/blob rule format --replace-text already uses, rather than the
// core implementing its own secret-scanning heuristics.
package detect

import "github.com/cactusinhand/filter-repo-go/internal/blob"

// Pattern names one secret-detection rule: a regex to match and the
// literal text to substitute in its place.
type Pattern struct {
	Name        string
	Regex       string
	Replacement string
}

// BuiltinPatterns is a small, illustrative starter set covering the most
// common accidentally-committed credential shapes; a real deployment is
// expected to supply its own pattern file rather than rely on this list
// being exhaustive.
var BuiltinPatterns = []Pattern{
	{Name: "aws-access-key-id", Regex: `AKIA[0-9A-Z]{16}`, Replacement: "***AWS-ACCESS-KEY-ID-REMOVED***"},
	{Name: "github-token", Regex: `ghp_[0-9A-Za-z]{36}`, Replacement: "***GITHUB-TOKEN-REMOVED***"},
	{Name: "generic-private-key-header", Regex: `-----BEGIN [A-Z ]*PRIVATE KEY-----`, Replacement: "***PRIVATE-KEY-REMOVED***"},
}

// ToReplacer compiles patterns into an internal/blob Replacer, the same
// rule engine --replace-text rules go through, so a detected-secrets run
// and a --replace-text run share one code path.
func ToReplacer(patterns []Pattern) (*blob.Replacer, error) {
	var regexRules []blob.RegexRule
	for _, p := range patterns {
		rule, err := blob.CompileRegexRule(p.Regex, []byte(p.Replacement))
		if err != nil {
			return nil, err
		}
		regexRules = append(regexRules, rule)
	}
	return blob.NewReplacer(nil, regexRules), nil
}
