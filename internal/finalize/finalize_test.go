package finalize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cactusinhand/filter-repo-go/internal/options"
	"github.com/cactusinhand/filter-repo-go/internal/tagref"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "finalize-*.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return f.Name()
}

func TestParseMarksFile(t *testing.T) {
	path := writeTemp(t, ":1 aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n"+
		":2 bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb\n"+
		"garbage line\n")
	marks, err := ParseMarksFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(marks) != 2 {
		t.Fatalf("got %d marks, want 2", len(marks))
	}
	if marks[1] != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("mark 1 = %q", marks[1])
	}
	if marks[2] != "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb" {
		t.Errorf("mark 2 = %q", marks[2])
	}
}

func TestParseMarksFileMissing(t *testing.T) {
	if _, err := ParseMarksFile(filepath.Join(t.TempDir(), "nope.marks")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBuildCommitMapMarksPrunedCommitsWithZeroOID(t *testing.T) {
	records := []CommitRecord{
		{OriginalOID: "1111111111111111111111111111111111111111", Mark: 1, Kept: true},
		// a commit finalizeCommit pruned still gets a record, with no mark
		// to resolve since fast-import never saw it.
		{OriginalOID: "2222222222222222222222222222222222222222", Kept: false},
	}
	newOIDs := map[int64]string{
		1: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	}

	entries := BuildCommitMap(records, newOIDs)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Old != records[0].OriginalOID || entries[0].New != newOIDs[1] {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Old != records[1].OriginalOID || entries[1].New != zeroOID {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

func TestWriteCommitMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commit-map")
	entries := []CommitMapEntry{{Old: "aaa", New: "bbb"}}
	if err := WriteCommitMap(path, entries); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "aaa bbb" {
		t.Errorf("got %q", data)
	}
}

func TestWriteRefMap(t *testing.T) {
	log := tagref.NewRenameLog()
	log.Record("refs/heads/old", "refs/heads/new")
	path := filepath.Join(t.TempDir(), "ref-map")
	if err := WriteRefMap(path, log); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "refs/heads/old refs/heads/new" {
		t.Errorf("got %q", data)
	}
}

func TestFetchAllRefsIfNeededSkipsWhenDisabled(t *testing.T) {
	base := options.Default()
	base.Source = t.TempDir()

	for _, tc := range []struct {
		name string
		mod  func(*options.Options)
	}{
		{"not sensitive", func(o *options.Options) {}},
		{"no fetch", func(o *options.Options) { o.Sensitive = true; o.NoFetch = true }},
		{"dry run", func(o *options.Options) { o.Sensitive = true; o.DryRun = true }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o := base
			tc.mod(&o)
			if err := FetchAllRefsIfNeeded(o); err != nil {
				t.Fatalf("expected no-op, got %v", err)
			}
		})
	}
}

func TestMigrateOriginToHeadsSkipsWhenDisabled(t *testing.T) {
	base := options.Default()
	base.Source = t.TempDir()

	partial := base
	partial.Partial = true
	if err := MigrateOriginToHeads(partial); err != nil {
		t.Fatalf("expected no-op for --partial, got %v", err)
	}

	dry := base
	dry.DryRun = true
	if err := MigrateOriginToHeads(dry); err != nil {
		t.Fatalf("expected no-op for --dry-run, got %v", err)
	}
}

func TestMigrateOriginToHeadsReturnsNilForNonGitSource(t *testing.T) {
	o := options.Default()
	o.Source = t.TempDir()
	if err := MigrateOriginToHeads(o); err != nil {
		t.Fatalf("expected nil for non-git source, got %v", err)
	}
}

func TestRemoveOriginRemoteSkipsWhenDisabled(t *testing.T) {
	base := options.Default()
	base.Target = t.TempDir()

	for _, tc := range []struct {
		name string
		mod  func(*options.Options)
	}{
		{"sensitive", func(o *options.Options) { o.Sensitive = true }},
		{"partial", func(o *options.Options) { o.Partial = true }},
		{"dry run", func(o *options.Options) { o.DryRun = true }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o := base
			tc.mod(&o)
			if err := RemoveOriginRemoteIfApplicable(o); err != nil {
				t.Fatalf("expected no-op, got %v", err)
			}
		})
	}
}
