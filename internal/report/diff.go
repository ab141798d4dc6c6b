package report

import (
	"strings"

	"github.com/ianbruene/go-difflib/difflib"
)

// UnifiedDiff renders a unified diff between before and after (e.g. a
// commit message or a small blob snippet, before and after content
// replacement), for --verbose report output. Returns "" if the two are
// identical.
func UnifiedDiff(label string, before, after []byte) (string, error) {
	if string(before) == string(after) {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: label + " (before)",
		ToFile:   label + " (after)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(text, "\n"), nil
}
