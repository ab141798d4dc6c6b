package commitgraph

import "testing"

// Ports finalize_promotes_first_remaining_merge_to_from from
// filter-repo-rs/src/commit.rs: the first surviving parent is always
// re-emitted as "from", even if every earlier candidate (now dropped) used
// to be a "from" or "merge" line.
func TestFinalizePromotesFirstRemainingMergeToFrom(t *testing.T) {
	emitted := NewEmittedMarks()
	emitted.Add(2)
	emitted.Add(3)
	aliases := NewAliasTable()
	// mark 1 was pruned away, aliased onto mark 2.
	aliases.Set(1, 2)

	lines := []ParentLine{
		{Kind: KindFrom, HasMark: true, Mark: 1},
		{Kind: KindMerge, HasMark: true, Mark: 3},
	}

	out := FinalizeParentLines(lines, emitted, aliases)
	want := []string{"from :2\n", "merge :3\n"}
	if !equalStrings(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

// Ports finalize_promotes_raw_merge_to_from: a raw-oid "merge" line (no
// mark, referring to a commit outside the exported set) must be promoted to
// "from" when it ends up first.
func TestFinalizePromotesRawMergeToFrom(t *testing.T) {
	emitted := NewEmittedMarks()
	aliases := NewAliasTable()

	lines := []ParentLine{
		{Kind: KindMerge, HasMark: false, RawOID: "abc123"},
	}

	out := FinalizeParentLines(lines, emitted, aliases)
	want := []string{"from abc123\n"}
	if !equalStrings(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestFinalizeDropsUnemittedParent(t *testing.T) {
	emitted := NewEmittedMarks() // mark 1 never emitted
	aliases := NewAliasTable()

	lines := []ParentLine{
		{Kind: KindFrom, HasMark: true, Mark: 1},
	}

	out := FinalizeParentLines(lines, emitted, aliases)
	if len(out) != 0 {
		t.Fatalf("expected all parents dropped, got %v", out)
	}
}

func TestFinalizeDropsDuplicateCanonicalTargets(t *testing.T) {
	emitted := NewEmittedMarks()
	emitted.Add(5)
	aliases := NewAliasTable()
	aliases.Set(1, 5)
	aliases.Set(2, 5)

	lines := []ParentLine{
		{Kind: KindFrom, HasMark: true, Mark: 1},
		{Kind: KindMerge, HasMark: true, Mark: 2},
	}

	out := FinalizeParentLines(lines, emitted, aliases)
	want := []string{"from :5\n"}
	if !equalStrings(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestResolveCanonicalMarkBreaksCycles(t *testing.T) {
	aliases := NewAliasTable()
	aliases.Set(1, 2)
	aliases.Set(2, 1) // pathological cycle; must terminate

	got := aliases.ResolveCanonicalMark(1)
	if got != 1 && got != 2 {
		t.Fatalf("expected termination at 1 or 2, got %d", got)
	}
}

func TestParseFromAndMergeMark(t *testing.T) {
	if n, ok := ParseFromMark([]byte("from :42\n")); !ok || n != 42 {
		t.Fatalf("ParseFromMark = %d, %v", n, ok)
	}
	if n, ok := ParseMergeMark([]byte("merge :7\n")); !ok || n != 7 {
		t.Fatalf("ParseMergeMark = %d, %v", n, ok)
	}
	if _, ok := ParseFromMark([]byte("from deadbeef\n")); ok {
		t.Fatal("expected no mark for raw-oid from line")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
