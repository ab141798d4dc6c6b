// Package report accumulates the run-scoped counters spec.md §4.7 asks for
// (blobs stripped by size/id, blobs modified by content replacement, ref
// renames, path-compatibility events) and writes them out as the
// human-readable report file, the Go analogue of the counter fields
// threaded through filter-repo-rs's filter.rs/commit.rs/tag.rs return
// values, aggregated here instead of scattered across call sites.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cactusinhand/filter-repo-go/internal/pathfilter"
)

// Counters is the mutable tally a run updates as it streams records; it is
// not safe for concurrent use, matching the rest of this pipeline's
// single-goroutine-per-run design.
type Counters struct {
	BlobsStrippedBySize int
	BlobsStrippedByID   int
	BlobsModified       int
	CommitsKept         int
	CommitsPruned       int

	PathCompatEvents []pathfilter.CompatEvent
}

// RecordBlobStripped increments the size- or id-based strip counter.
func (c *Counters) RecordBlobStripped(byID bool) {
	if byID {
		c.BlobsStrippedByID++
	} else {
		c.BlobsStrippedBySize++
	}
}

// RecordBlobModified increments the content-replacement counter.
func (c *Counters) RecordBlobModified() { c.BlobsModified++ }

// RecordCommitDecision tallies a kept or pruned commit.
func (c *Counters) RecordCommitDecision(kept bool) {
	if kept {
		c.CommitsKept++
	} else {
		c.CommitsPruned++
	}
}

// RecordPathCompatEvent appends a path-compatibility event (sanitize, skip,
// or error) observed while rewriting file-change paths.
func (c *Counters) RecordPathCompatEvent(e pathfilter.CompatEvent) {
	c.PathCompatEvents = append(c.PathCompatEvents, e)
}

// Write renders the report as plain text to w: one section per counter
// group, then the ref renames (sorted) and path-compat events in the order
// observed.
func (c *Counters) Write(w io.Writer, renames []RenameEntry, generatedAt time.Time) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "filter-repo-go report — generated %s\n\n", generatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(bw, "blobs stripped by size:  %d\n", c.BlobsStrippedBySize)
	fmt.Fprintf(bw, "blobs stripped by id:    %d\n", c.BlobsStrippedByID)
	fmt.Fprintf(bw, "blobs modified:          %d\n", c.BlobsModified)
	fmt.Fprintf(bw, "commits kept:            %d\n", c.CommitsKept)
	fmt.Fprintf(bw, "commits pruned:          %d\n", c.CommitsPruned)

	if len(renames) > 0 {
		fmt.Fprintf(bw, "\nref renames:\n")
		for _, r := range renames {
			fmt.Fprintf(bw, "  %s -> %s\n", r.Old, r.New)
		}
	}

	if len(c.PathCompatEvents) > 0 {
		fmt.Fprintf(bw, "\npath-compatibility events:\n")
		for _, e := range c.PathCompatEvents {
			fmt.Fprintf(bw, "  %s: %q -> %q (%s)\n", e.Action, e.Original, e.Rewritten, e.Reason)
		}
	}

	return bw.Flush()
}

// RenameEntry mirrors tagref.RenameEntry without importing that package
// directly into the report's public surface, so callers can report on
// branch/tag renames recorded anywhere (the commit-header dispatcher, the
// tag processor) without report depending on tagref's internals.
type RenameEntry struct {
	Old string
	New string
}

// WriteToFile is a convenience wrapper that creates path and writes the
// report to it, used by internal/run once a pass finishes.
func WriteToFile(path string, c *Counters, renames []RenameEntry, generatedAt time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: creating report file %s: %w", path, err)
	}
	defer f.Close()
	return c.Write(f, renames, generatedAt)
}
