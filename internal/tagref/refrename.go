// Package tagref handles annotated- and lightweight-tag records in a
// fast-export stream: branch/tag renaming, annotated-tag deduplication by
// target ref, and lightweight-tag reset/from capture, grounded on
// filter-repo-rs/src/tag.rs and the ref-rename handling in
// filter-repo-rs/src/commit.rs's rename_commit_header_ref.
package tagref

import (
	"bytes"
	"fmt"

	"github.com/emirpasic/gods/sets/treeset"

	"github.com/cactusinhand/filter-repo-go/internal/pathfilter"
)

// RefSet is an ordered set of ref names, used both for "which refs has this
// run already written" (duplicate-tag detection) and "which refs are
// annotated tags" bookkeeping for reporting. Backed by emirpasic/gods'
// treeset so a final report can list affected refs in sorted order.
type RefSet struct {
	set *treeset.Set
}

// NewRefSet returns an empty, lexicographically ordered ref set.
func NewRefSet() *RefSet {
	return &RefSet{set: treeset.NewWithStringComparator()}
}

// Add records ref as present.
func (s *RefSet) Add(ref string) { s.set.Add(ref) }

// Contains reports whether ref was previously added.
func (s *RefSet) Contains(ref string) bool { return s.set.Contains(ref) }

// Sorted returns every recorded ref in ascending order.
func (s *RefSet) Sorted() []string {
	values := s.set.Values()
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.(string)
	}
	return out
}

// RenameEntry is one recorded branch/tag rename, kept for the final report.
type RenameEntry struct {
	Old string
	New string
}

// RenameLog accumulates every ref actually renamed during a run.
type RenameLog struct {
	entries []RenameEntry
}

// NewRenameLog returns an empty log.
func NewRenameLog() *RenameLog { return &RenameLog{} }

// Record appends a rename if old != new.
func (l *RenameLog) Record(old, new string) {
	if old == new {
		return
	}
	l.entries = append(l.entries, RenameEntry{Old: old, New: new})
}

// Entries returns every recorded rename in the order observed.
func (l *RenameLog) Entries() []RenameEntry { return l.entries }

// RewriteCommitHeaderRef rewrites a commit block's leading
// "commit refs/heads/<name>\n" or "commit refs/tags/<name>\n" header line
// according to the configured branch/tag rename prefixes, recording the
// rename in log if it changed anything. Matches
// filter-repo-rs/src/commit.rs's rename_commit_header_ref.
func RewriteCommitHeaderRef(line []byte, branchOld, branchNew, tagOld, tagNew string, log *RenameLog) ([]byte, bool) {
	const prefix = "commit "
	if !bytes.HasPrefix(line, []byte(prefix)) {
		return line, false
	}
	ref := string(bytes.TrimSuffix(line[len(prefix):], []byte("\n")))

	var renamed string
	var changed bool
	switch {
	case bytes.HasPrefix([]byte(ref), []byte("refs/heads/")) && branchOld != "":
		renamed, changed = pathfilter.RefRewrite(ref, "refs/heads/"+branchOld, "refs/heads/"+branchNew)
	case bytes.HasPrefix([]byte(ref), []byte("refs/tags/")) && tagOld != "":
		renamed, changed = pathfilter.RefRewrite(ref, "refs/tags/"+tagOld, "refs/tags/"+tagNew)
	default:
		return line, false
	}
	if !changed {
		return line, false
	}
	if log != nil {
		log.Record(ref, renamed)
	}
	return []byte(fmt.Sprintf("%s%s\n", prefix, renamed)), true
}
