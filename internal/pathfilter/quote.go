package pathfilter

import (
	"fmt"
	"strings"

	"github.com/cactusinhand/filter-repo-go/internal/stream"
)

// EncodeForFastImport prepares a path for writing to a fast-import
// file-change line: control bytes (0x00-0x1F, 0x7F) are unconditionally
// replaced with '_' regardless of platform-compatibility policy, and the
// result is then C-quoted if it needs it, matching
// filter-repo-rs/src/pathutil.rs's encode_path_for_fi (sanitize step is
// "unconditional, not gated by policy or platform").
func EncodeForFastImport(path []byte) []byte {
	sanitized := sanitizeControlBytes(path)
	if stream.NeedsCQuote(sanitized) {
		return stream.EnquoteCStyle(sanitized)
	}
	return sanitized
}

func sanitizeControlBytes(path []byte) []byte {
	out := make([]byte, len(path))
	for i, c := range path {
		if c <= 0x1F || c == 0x7F {
			out[i] = '_'
		} else {
			out[i] = c
		}
	}
	return out
}

// NormalizeCLIPath validates and normalizes a user-supplied --path argument:
// rejects Windows drive letters, doubled separators, a leading '/', and '.'
// or '..' path segments, and converts '\' separators to '/'. Mirrors
// filter-repo-rs/src/pathutil.rs's normalize_cli_path_like_str for the
// Path kind.
func NormalizeCLIPath(raw string) (string, error) {
	return normalizeCLIPathLike(raw, "path")
}

// NormalizeCLIGlob is NormalizeCLIPath's glob-argument counterpart, using
// the glob-specific error message the original emits.
func NormalizeCLIGlob(raw string) (string, error) {
	return normalizeCLIPathLike(raw, "glob")
}

func normalizeCLIPathLike(raw, kind string) (string, error) {
	if len(raw) >= 2 && raw[1] == ':' && isASCIILetter(raw[0]) {
		return "", fmt.Errorf("pathfilter: %s %q looks like a Windows drive-letter path, which is never valid inside a repository", kind, raw)
	}
	normalized := strings.ReplaceAll(raw, `\`, "/")
	if strings.HasPrefix(normalized, "/") {
		return "", fmt.Errorf("pathfilter: %s %q must not start with '/'", kind, raw)
	}
	if strings.Contains(normalized, "//") {
		return "", fmt.Errorf("pathfilter: %s %q must not contain a doubled '/'", kind, raw)
	}
	for _, seg := range strings.Split(normalized, "/") {
		if seg == "." || seg == ".." {
			return "", fmt.Errorf("pathfilter: %s %q must not contain '.' or '..' segments", kind, raw)
		}
	}
	return normalized, nil
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
