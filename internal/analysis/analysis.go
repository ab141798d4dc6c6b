// Package analysis is the thin --analyze mode shell spec.md §1 names as an
// external collaborator of the core pipeline: it reports repository
// metrics (largest blobs, commit/tag counts) gathered while streaming,
// without influencing the rewrite itself. It consumes the same
// internal/commitgraph and internal/filechange data the transformer
// already builds, rather than re-reading the repository.
package analysis

import (
	"sort"

	"github.com/cactusinhand/filter-repo-go/internal/filechange"
)

// BlobStat is one entry in the largest-blobs-by-size report.
type BlobStat struct {
	Mark        int64
	OriginalOID string
	Size        int64
}

// Report summarizes one run for --analyze output.
type Report struct {
	CommitCount  int
	TagCount     int
	LargestBlobs []BlobStat
}

// TopBlobsBySize returns the n largest blobs sizes records, from a
// filechange.BlobSizeTable snapshot, largest first. Ties break by mark for
// determinism.
func TopBlobsBySize(sizes []filechange.BlobSizeEntry, n int) []BlobStat {
	sorted := make([]filechange.BlobSizeEntry, len(sizes))
	copy(sorted, sizes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Size != sorted[j].Size {
			return sorted[i].Size > sorted[j].Size
		}
		return sorted[i].Mark < sorted[j].Mark
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	out := make([]BlobStat, n)
	for i, e := range sorted[:n] {
		out[i] = BlobStat{Mark: e.Mark, OriginalOID: e.OriginalOID, Size: e.Size}
	}
	return out
}
