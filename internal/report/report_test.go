package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cactusinhand/filter-repo-go/internal/pathfilter"
)

func TestCountersAccumulate(t *testing.T) {
	var c Counters
	c.RecordBlobStripped(false)
	c.RecordBlobStripped(true)
	c.RecordBlobStripped(true)
	c.RecordBlobModified()
	c.RecordCommitDecision(true)
	c.RecordCommitDecision(false)
	c.RecordPathCompatEvent(pathfilter.CompatEvent{Action: "sanitized", Original: []byte("a:b"), Rewritten: []byte("a_b"), Reason: "forbidden character"})

	if c.BlobsStrippedBySize != 1 || c.BlobsStrippedByID != 2 {
		t.Fatalf("strip counts = %d/%d", c.BlobsStrippedBySize, c.BlobsStrippedByID)
	}
	if c.BlobsModified != 1 {
		t.Fatalf("modified = %d", c.BlobsModified)
	}
	if c.CommitsKept != 1 || c.CommitsPruned != 1 {
		t.Fatalf("commit counts = %d/%d", c.CommitsKept, c.CommitsPruned)
	}
	if len(c.PathCompatEvents) != 1 {
		t.Fatalf("events = %d", len(c.PathCompatEvents))
	}
}

func TestCountersWrite(t *testing.T) {
	c := Counters{BlobsStrippedBySize: 2, BlobsModified: 3, CommitsKept: 5, CommitsPruned: 1}
	c.RecordPathCompatEvent(pathfilter.CompatEvent{Action: "skipped", Original: []byte("x"), Reason: "trailing dot"})

	var buf bytes.Buffer
	renames := []RenameEntry{{Old: "refs/heads/old", New: "refs/heads/new"}}
	if err := c.Write(&buf, renames, time.Unix(0, 0)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"blobs stripped by size:  2",
		"blobs modified:          3",
		"commits kept:            5",
		"commits pruned:          1",
		"refs/heads/old -> refs/heads/new",
		"skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestUnifiedDiffIdentical(t *testing.T) {
	out, err := UnifiedDiff("msg", []byte("same\n"), []byte("same\n"))
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("expected empty diff, got %q", out)
	}
}

func TestUnifiedDiffDifferent(t *testing.T) {
	out, err := UnifiedDiff("msg", []byte("line one\n"), []byte("line two\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "line one") || !strings.Contains(out, "line two") {
		t.Errorf("diff missing expected lines: %q", out)
	}
}
