package tagref

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cactusinhand/filter-repo-go/internal/stream"
)

// PendingReset captures a lightweight tag's "reset refs/tags/<name>"
// header together with the "from <oid>" line fast-export emits immediately
// after it, so the pair can be re-emitted (possibly under a renamed ref)
// once both halves are known. Mirrors filter-repo-rs/src/tag.rs's
// maybe_capture_pending_tag_reset/process_reset_header.
type PendingReset struct {
	Name string // tag name, without the refs/tags/ prefix
	From string // raw "from <oid>\n" line, verbatim
}

// ProcessResetHeader rewrites a "reset refs/tags/<name>\n" line according to
// the tag-rename prefix, recording the rename in log, and returns the
// renamed tag name (without prefix) so the caller can track a pending
// lightweight tag until its "from" line arrives. Returns ok=false if line
// is not a refs/tags/ reset.
func ProcessResetHeader(line []byte, tagOld, tagNew string, log *RenameLog) (rewrittenLine []byte, name string, ok bool) {
	const prefix = "reset refs/tags/"
	if !bytes.HasPrefix(line, []byte(prefix)) {
		return line, "", false
	}
	name = strings.TrimSuffix(string(line[len(prefix):]), "\n")
	newName := name
	if tagOld != "" && strings.HasPrefix(name, tagOld) {
		candidate := tagNew + name[len(tagOld):]
		if candidate != name {
			newName = candidate
			log.Record("refs/tags/"+name, "refs/tags/"+newName)
		}
	}
	return []byte(fmt.Sprintf("reset refs/tags/%s\n", newName)), newName, true
}

// CaptureFollowingFrom peeks the next line after a reset header: if it is a
// "from " line, it is consumed and returned; otherwise it is pushed back so
// the caller's normal dispatch loop sees it untouched. A lightweight tag's
// reset is always immediately followed by exactly one "from" line in a
// well-formed fast-export stream; its absence (e.g. a reset with no
// following ref update) is not an error, just an empty PendingReset.From.
func CaptureFollowingFrom(r *stream.Reader) ([]byte, error) {
	line, err := r.Line()
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(line, []byte("from ")) {
		return line, nil
	}
	r.Pushback(line)
	return nil, nil
}
