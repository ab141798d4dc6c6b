// Package commitgraph tracks fast-import mark numbers across a rewrite:
// which marks were actually emitted, the alias chain from a pruned
// commit's mark to its surviving replacement, and the parent-line
// finalization and keep/prune decision that together implement
// filter-repo-rs/src/commit.rs's commit-graph surgery.
package commitgraph

import "github.com/emirpasic/gods/sets/linkedhashset"

// EmittedMarks records every mark number that was actually written to the
// output stream, in emission order. Order is preserved (via gods'
// linkedhashset, the same ordered-set idiom the teacher's dependency stack
// favors over a bare map) so a future debug dump can report marks in the
// sequence commits were kept, not map-iteration order.
type EmittedMarks struct {
	set *linkedhashset.Set
}

// NewEmittedMarks returns an empty mark set.
func NewEmittedMarks() *EmittedMarks {
	return &EmittedMarks{set: linkedhashset.New()}
}

// Add records mark as emitted.
func (e *EmittedMarks) Add(mark int64) {
	e.set.Add(mark)
}

// Contains reports whether mark was emitted.
func (e *EmittedMarks) Contains(mark int64) bool {
	return e.set.Contains(mark)
}

// Marks returns every emitted mark in emission order.
func (e *EmittedMarks) Marks() []int64 {
	values := e.set.Values()
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = v.(int64)
	}
	return out
}
