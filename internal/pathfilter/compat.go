package pathfilter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cactusinhand/filter-repo-go/internal/options"
)

// forbiddenWindowsChars are the characters NTFS/Windows reject in a path
// component, matching filter-repo-rs/src/pathutil.rs's
// windows_path_compat_reasons.
var forbiddenWindowsChars = []byte(`<>:"|?*`)

// CompatEvent records one path touched by the platform-compatibility
// policy, for reporting (filter-repo-rs/src/pathutil.rs's PathCompatEvent).
type CompatEvent struct {
	Action    string // "sanitized", "skipped"
	Original  []byte
	Rewritten []byte
	Reason    string
}

// WindowsCompatReasons reports every reason path would be rejected by a
// Windows checkout: forbidden characters anywhere, or the final path
// component ending in '.' or ' '.
func WindowsCompatReasons(path []byte) []string {
	var reasons []string
	for _, c := range path {
		if bytes.IndexByte(forbiddenWindowsChars, c) >= 0 {
			reasons = append(reasons, fmt.Sprintf("contains forbidden character %q", string(c)))
			break
		}
	}
	last := lastComponent(path)
	if len(last) > 0 {
		switch last[len(last)-1] {
		case '.':
			reasons = append(reasons, "final component ends with '.'")
		case ' ':
			reasons = append(reasons, "final component ends with a space")
		}
	}
	return reasons
}

func lastComponent(path []byte) []byte {
	if idx := bytes.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// ApplyCompatPolicy enforces the platform-compatibility predicate when
// platformAware is true (by default, when the host checking out the
// rewritten repository is Windows; see options.Options.PlatformAwareResolved).
// Unlike the Windows-specific predicate, control-byte sanitization in
// EncodeForFastImport always runs regardless of this policy or platform.
func ApplyCompatPolicy(path []byte, policy options.PathCompatPolicy, platformAware bool) (out []byte, event *CompatEvent, err error) {
	if !platformAware {
		return path, nil, nil
	}
	reasons := WindowsCompatReasons(path)
	if len(reasons) == 0 {
		return path, nil, nil
	}
	reason := reasons[0]
	switch policy {
	case options.CompatSanitize:
		sanitized := sanitizeWindowsPath(path)
		return sanitized, &CompatEvent{Action: "sanitized", Original: path, Rewritten: sanitized, Reason: reason}, nil
	case options.CompatSkip:
		return nil, &CompatEvent{Action: "skipped", Original: path, Reason: reason}, nil
	case options.CompatError:
		return nil, nil, fmt.Errorf("pathfilter: path %s is not Windows-compatible: %s", formatPathForReport(path), strings.Join(reasons, "; "))
	default:
		return path, nil, nil
	}
}

func sanitizeWindowsPath(path []byte) []byte {
	out := make([]byte, len(path))
	copy(out, path)
	for i, c := range out {
		if bytes.IndexByte(forbiddenWindowsChars, c) >= 0 {
			out[i] = '_'
		}
	}
	if idx := bytes.LastIndexByte(out, '/'); idx >= 0 {
		head, last := out[:idx+1], out[idx+1:]
		last = bytes.TrimRight(last, ". ")
		out = append(head, last...)
	} else {
		out = bytes.TrimRight(out, ". ")
	}
	return out
}

func formatPathForReport(path []byte) string {
	var b bytes.Buffer
	b.WriteByte('"')
	for _, c := range path {
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c >= 0x7F:
			fmt.Fprintf(&b, "\\x%02x", c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
