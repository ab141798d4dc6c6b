package finalize

import (
	"bufio"
	"fmt"
	"os"
)

const zeroOID = "0000000000000000000000000000000000000000"

// CommitMapEntry is one row of the commit-map report: the commit's oid
// before the run and its oid after, or zeroOID for a commit the run pruned.
type CommitMapEntry struct {
	Old string
	New string
}

// CommitRecord is one commit the transform stage processed, recorded in
// commit-stream order whether it was kept or pruned: filter-repo-rs's
// commit.rs keeps a commit_pairs list with a (old, None) entry for every
// pruned commit (commit.rs:264-265), not just the ones it kept, so the
// commit-map can report every input commit's fate.
type CommitRecord struct {
	OriginalOID string
	Mark        int64 // meaningful only when Kept
	Kept        bool
}

// BuildCommitMap resolves each CommitRecord's original oid against its new
// oid: for a kept commit, newOIDs[Mark] (the oid git fast-import assigned
// that mark, from the marks file); for a pruned commit, zeroOID, mirroring
// how filter-repo-rs represents a pruned commit in its commit-map output.
func BuildCommitMap(records []CommitRecord, newOIDs map[int64]string) []CommitMapEntry {
	entries := make([]CommitMapEntry, 0, len(records))
	for _, rec := range records {
		if rec.OriginalOID == "" {
			continue
		}
		newOID := zeroOID
		if rec.Kept {
			if oid, ok := newOIDs[rec.Mark]; ok {
				newOID = oid
			}
		}
		entries = append(entries, CommitMapEntry{Old: rec.OriginalOID, New: newOID})
	}
	return entries
}

// WriteCommitMap writes entries as "<old-oid> <new-oid>\n" lines, the same
// shape as the original's filter-repo's commit-map artifact under
// --debug-dir, to path.
func WriteCommitMap(path string, entries []CommitMapEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("finalize: creating commit map %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s %s\n", e.Old, e.New); err != nil {
			return fmt.Errorf("finalize: writing commit map %s: %w", path, err)
		}
	}
	return w.Flush()
}
