package filechange

// BlobSizeTable records the size of every blob seen, keyed by its
// fast-import mark, so --max-blob-size and --strip-blobs-with-ids can
// decide at file-change time (when only the mark/oid is visible, not the
// blob payload) whether a Modify should be dropped. Populated as blob
// records stream past in internal/pipeline before any commit referencing
// them is processed, since fast-export always emits a blob ahead of the
// commits that reference it.
type BlobSizeTable struct {
	sizeByMark map[int64]int64
	idByMark   map[int64]string
}

// NewBlobSizeTable returns an empty table.
func NewBlobSizeTable() *BlobSizeTable {
	return &BlobSizeTable{sizeByMark: make(map[int64]int64), idByMark: make(map[int64]string)}
}

// Record stores the size and original oid of the blob assigned to mark.
func (t *BlobSizeTable) Record(mark int64, originalOID string, size int64) {
	t.sizeByMark[mark] = size
	if originalOID != "" {
		t.idByMark[mark] = originalOID
	}
}

// ExceedsMaxSize reports whether the blob at mark is larger than maxSize
// (a non-positive maxSize disables the check).
func (t *BlobSizeTable) ExceedsMaxSize(mark int64, maxSize int64) bool {
	if maxSize <= 0 {
		return false
	}
	size, ok := t.sizeByMark[mark]
	return ok && size > maxSize
}

// MatchesStripID reports whether the blob at mark's original oid is in the
// configured strip set.
func (t *BlobSizeTable) MatchesStripID(mark int64, stripIDs map[string]bool) bool {
	if len(stripIDs) == 0 {
		return false
	}
	id, ok := t.idByMark[mark]
	return ok && stripIDs[id]
}

// BlobSizeEntry is one blob's recorded (mark, original oid, size), the
// snapshot shape internal/analysis reports on.
type BlobSizeEntry struct {
	Mark        int64
	OriginalOID string
	Size        int64
}

// Snapshot returns every recorded blob as a slice, in no particular order;
// callers that need ranking (internal/analysis's largest-blobs report) sort
// it themselves.
func (t *BlobSizeTable) Snapshot() []BlobSizeEntry {
	out := make([]BlobSizeEntry, 0, len(t.sizeByMark))
	for mark, size := range t.sizeByMark {
		out = append(out, BlobSizeEntry{Mark: mark, OriginalOID: t.idByMark[mark], Size: size})
	}
	return out
}
