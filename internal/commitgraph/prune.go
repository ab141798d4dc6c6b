package commitgraph

import "github.com/cactusinhand/filter-repo-go/internal/options"

// KeepDecisionInput bundles the facts ShouldKeepCommit needs, gathered while
// a commit block was buffered.
type KeepDecisionInput struct {
	CommitHasChanges bool
	HasFirstParentMark bool
	HasCommitMark      bool
	ParentCount        int
	WasMerge           bool
	IsDegenerate       bool
	NoFF               bool
	PruneEmpty         options.PruneMode
	PruneDegenerate    options.PruneMode
}

// ShouldKeepCommit decides whether a commit survives pruning, porting
// filter-repo-rs/src/commit.rs's should_keep_commit decision table:
//
//   - A root commit, or one whose own mark was never assigned (malformed
//     input), is always kept: there is nothing to fold it into.
//   - A commit that still has file changes after filtering is always kept.
//   - A commit with two or more surviving parents is still a merge and is
//     kept regardless of emptiness.
//   - A degenerate merge (single distinct parent after dedup) follows
//     --no-ff (always kept) else PruneDegenerate (never=keep,
//     auto/always=drop).
//   - A plain empty commit follows PruneEmpty (never=keep, auto/always=drop).
func ShouldKeepCommit(in KeepDecisionInput) bool {
	if !in.HasFirstParentMark || !in.HasCommitMark {
		return true
	}
	if in.CommitHasChanges {
		return true
	}
	if in.ParentCount >= 2 {
		return true
	}
	if in.WasMerge && in.IsDegenerate {
		if in.NoFF {
			return true
		}
		return in.PruneDegenerate == options.PruneNever
	}
	return in.PruneEmpty == options.PruneNever
}
