package pipeline

import (
	"bytes"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/cactusinhand/filter-repo-go/internal/blob"
	"github.com/cactusinhand/filter-repo-go/internal/identity"
	"github.com/cactusinhand/filter-repo-go/internal/message"
	"github.com/cactusinhand/filter-repo-go/internal/options"
	"github.com/cactusinhand/filter-repo-go/internal/stream"
)

func runTransform(t *testing.T, tr *Transformer, input string) string {
	t.Helper()
	r := stream.NewReader(strings.NewReader(input), 0)
	var out bytes.Buffer
	if err := tr.Run(r, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func TestTransformerPassesThroughSimpleHistory(t *testing.T) {
	input := "blob\n" +
		"mark :1\n" +
		"original-oid aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n" +
		"data 5\n" +
		"hello\n" +
		"commit refs/heads/main\n" +
		"mark :2\n" +
		"original-oid bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb\n" +
		"author A U Thor <a@example.com> 1000 +0000\n" +
		"committer A U Thor <a@example.com> 1000 +0000\n" +
		"data 7\n" +
		"initial\n" +
		"M 100644 :1 file.txt\n" +
		"\n" +
		"done\n"

	tr := NewTransformer(options.Default())
	out := runTransform(t, tr, input)

	if !strings.Contains(out, "blob\n") || !strings.Contains(out, "mark :2\n") {
		t.Fatalf("expected blob and commit to pass through, got:\n%s", out)
	}
	if !strings.Contains(out, "M 100644 :1 file.txt\n") {
		t.Errorf("file change missing: %q", out)
	}
	if !strings.Contains(out, "done\n") {
		t.Errorf("expected trailing done, got %q", out)
	}
	if tr.Counters.CommitsKept != 1 {
		t.Errorf("expected 1 commit kept, got %d", tr.Counters.CommitsKept)
	}
	if !tr.EmittedMarks.Contains(2) {
		t.Error("expected mark 2 recorded as emitted")
	}
	if len(tr.CommitRecords) != 1 || tr.CommitRecords[0].OriginalOID != "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb" || !tr.CommitRecords[0].Kept {
		t.Errorf("original oid not recorded: %+v", tr.CommitRecords)
	}
}

func TestTransformerPrunesEmptyNonRootCommitByDefault(t *testing.T) {
	input := "commit refs/heads/main\n" +
		"mark :1\n" +
		"original-oid 1111111111111111111111111111111111111111\n" +
		"author A U Thor <a@example.com> 1000 +0000\n" +
		"committer A U Thor <a@example.com> 1000 +0000\n" +
		"data 4\n" +
		"root\n" +
		"M 100644 :9 file.txt\n" +
		"\n" +
		"commit refs/heads/main\n" +
		"mark :2\n" +
		"original-oid 2222222222222222222222222222222222222222\n" +
		"author A U Thor <a@example.com> 1000 +0000\n" +
		"committer A U Thor <a@example.com> 1000 +0000\n" +
		"data 5\n" +
		"empty\n" +
		"from :1\n" +
		"\n" +
		"commit refs/heads/main\n" +
		"mark :3\n" +
		"original-oid 3333333333333333333333333333333333333333\n" +
		"author A U Thor <a@example.com> 1000 +0000\n" +
		"committer A U Thor <a@example.com> 1000 +0000\n" +
		"data 6\n" +
		"second\n" +
		"from :2\n" +
		"M 100644 :9 other.txt\n" +
		"\n"

	tr := NewTransformer(options.Default())
	out := runTransform(t, tr, input)

	if strings.Contains(out, "mark :2\n") {
		t.Errorf("expected mark 2 (empty, non-root) to be pruned, got:\n%s", out)
	}
	if !strings.Contains(out, "mark :1\n") || !strings.Contains(out, "mark :3\n") {
		t.Errorf("expected marks 1 and 3 to survive, got:\n%s", out)
	}
	// mark 3's "from" should now resolve through the alias chain to mark 1,
	// since mark 2 was pruned and aliased onto its own surviving parent.
	if !strings.Contains(out, "from :1\n") {
		t.Errorf("expected mark 3's parent to be re-pointed to :1, got:\n%s", out)
	}
	if tr.Counters.CommitsPruned != 1 || tr.Counters.CommitsKept != 2 {
		t.Errorf("counters = kept %d pruned %d", tr.Counters.CommitsKept, tr.Counters.CommitsPruned)
	}
	if len(tr.CommitRecords) != 3 {
		t.Fatalf("expected a commit-map record for every input commit, got %+v", tr.CommitRecords)
	}
	if tr.CommitRecords[1].OriginalOID != "2222222222222222222222222222222222222222" || tr.CommitRecords[1].Kept {
		t.Errorf("expected the pruned commit to still get a record mapping to the zero oid: %+v", tr.CommitRecords[1])
	}
}

func TestTransformerPassesThroughUnrecognizedCommitBodyLines(t *testing.T) {
	input := "commit refs/heads/main\n" +
		"mark :1\n" +
		"author A U Thor <a@example.com> 1000 +0000\n" +
		"committer A U Thor <a@example.com> 1000 +0000\n" +
		"encoding ISO-8859-1\n" +
		"data 7\n" +
		"initial\n" +
		"M 100644 :9 file.txt\n" +
		"gpgsig-sha256 some-signature-continuation\n" +
		"\n"

	tr := NewTransformer(options.Default())
	out := runTransform(t, tr, input)

	if !strings.Contains(out, "encoding ISO-8859-1\n") {
		t.Errorf("expected unrecognized commit-body line to pass through, got:\n%s", out)
	}
	if !strings.Contains(out, "gpgsig-sha256 some-signature-continuation\n") {
		t.Errorf("expected trailing unrecognized line to pass through, got:\n%s", out)
	}
	if tr.Counters.CommitsKept != 1 {
		t.Errorf("expected the commit to survive despite the unrecognized lines, got %d kept", tr.Counters.CommitsKept)
	}
}

func TestTransformerRewritesBlobContentAndCountsModification(t *testing.T) {
	input := "blob\n" +
		"mark :1\n" +
		"data 7\n" +
		"secret\n" +
		"done\n"

	tr := NewTransformer(options.Default())
	tr.BlobReplacer = blob.NewReplacer([]blob.LiteralRule{{Pattern: []byte("secret"), Replacement: []byte("***")}}, nil)
	out := runTransform(t, tr, input)

	if !strings.Contains(out, "***\n") {
		t.Errorf("expected replacement in output, got %q", out)
	}
	if tr.Counters.BlobsModified != 1 {
		t.Errorf("expected 1 blob modified, got %d", tr.Counters.BlobsModified)
	}
}

func TestTransformerAppliesMailmapToIdentityLines(t *testing.T) {
	mm, err := identity.LoadMailmap(writeMailmap(t, "Proper Name <proper@example.com> <old@example.com>\n"))
	if err != nil {
		t.Fatal(err)
	}

	input := "commit refs/heads/main\n" +
		"mark :1\n" +
		"author Old Name <old@example.com> 1000 +0000\n" +
		"committer Old Name <old@example.com> 1000 +0000\n" +
		"data 7\n" +
		"initial\n" +
		"M 100644 :2 file.txt\n" +
		"\n"

	tr := NewTransformer(options.Default())
	tr.Mailmap = mm
	out := runTransform(t, tr, input)

	if !strings.Contains(out, "Proper Name <proper@example.com>") {
		t.Errorf("expected mailmap rewrite in output, got %q", out)
	}
}

func TestTransformerRewritesCommitMessageShortHashes(t *testing.T) {
	hashes := message.NewShortHashMapper()
	hashes.UpdateMapping("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	body := "see aaaaaaa for details"
	input := "commit refs/heads/main\n" +
		"mark :1\n" +
		"author A U Thor <a@example.com> 1000 +0000\n" +
		"committer A U Thor <a@example.com> 1000 +0000\n" +
		"data " + strconv.Itoa(len(body)) + "\n" +
		body + "\n" +
		"M 100644 :2 file.txt\n" +
		"\n"

	tr := NewTransformer(options.Default())
	tr.ShortHashes = hashes
	out := runTransform(t, tr, input)

	if !strings.Contains(out, "bbbbbbb") {
		t.Errorf("expected short hash remapped in message, got %q", out)
	}
}

func writeMailmap(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "mailmap-*.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return f.Name()
}
