package tagref

import (
	"strings"
	"testing"

	"github.com/cactusinhand/filter-repo-go/internal/message"
	"github.com/cactusinhand/filter-repo-go/internal/stream"
)

func TestReadBlockAndProcess(t *testing.T) {
	raw := "tag v1.0\n" +
		"from :5\n" +
		"tagger Person <p@example.com> 1000 +0000\n" +
		"data 5\n" +
		"hello\n"
	r := stream.NewReader(strings.NewReader(raw), 0)
	tagLine, err := r.Line()
	if err != nil || string(tagLine) != "tag v1.0\n" {
		t.Fatalf("tag line = %q, %v", tagLine, err)
	}
	block, err := ReadBlock(r, tagLine, 0)
	if err != nil {
		t.Fatal(err)
	}
	if block.Name != "v1.0" || len(block.HeaderLines) != 2 {
		t.Fatalf("got %+v", block)
	}
	if string(block.Message) != "hello" {
		t.Fatalf("message = %q", block.Message)
	}

	updated := NewRefSet()
	annotated := NewRefSet()
	log := NewRenameLog()
	out, keep, err := Process(block, "", "", updated, annotated, log, nil, nil)
	if err != nil || !keep {
		t.Fatalf("Process: keep=%v err=%v", keep, err)
	}
	if !strings.Contains(string(out), "tag v1.0\n") {
		t.Errorf("got %q", out)
	}
	if !updated.Contains("refs/tags/v1.0") {
		t.Error("expected ref recorded")
	}
}

func TestProcessDedupDropsDuplicateTargetRef(t *testing.T) {
	block := Block{Name: "v1", HeaderLines: nil, Message: []byte("msg")}
	updated := NewRefSet()
	updated.Add("refs/tags/v1")
	annotated := NewRefSet()
	log := NewRenameLog()
	out, keep, err := Process(block, "", "", updated, annotated, log, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if keep || out != nil {
		t.Fatal("expected duplicate tag to be dropped")
	}
}

func TestProcessAppliesTagRename(t *testing.T) {
	block := Block{Name: "old-v1", Message: []byte("msg")}
	updated := NewRefSet()
	annotated := NewRefSet()
	log := NewRenameLog()
	out, keep, err := Process(block, "old-", "new-", updated, annotated, log, nil, nil)
	if err != nil || !keep {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "tag new-v1\n") {
		t.Errorf("got %q", out)
	}
	if len(log.Entries()) != 1 {
		t.Fatalf("expected one rename logged, got %v", log.Entries())
	}
}

func TestProcessRewritesMessage(t *testing.T) {
	block := Block{Name: "v1", Message: []byte("secret stuff")}
	replacer := message.NewReplacer(nil, nil)
	updated := NewRefSet()
	annotated := NewRefSet()
	log := NewRenameLog()
	out, keep, err := Process(block, "", "", updated, annotated, log, replacer, nil)
	if err != nil || !keep {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "data 12\nsecret stuff\n") {
		t.Errorf("got %q", out)
	}
}

func TestProcessResetHeaderRename(t *testing.T) {
	log := NewRenameLog()
	line, name, ok := ProcessResetHeader([]byte("reset refs/tags/old-v1\n"), "old-", "new-", log)
	if !ok {
		t.Fatal("expected ok")
	}
	if name != "new-v1" {
		t.Errorf("name = %q", name)
	}
	if string(line) != "reset refs/tags/new-v1\n" {
		t.Errorf("line = %q", line)
	}
}

func TestProcessResetHeaderNonTagIgnored(t *testing.T) {
	_, _, ok := ProcessResetHeader([]byte("reset refs/heads/main\n"), "", "", nil)
	if ok {
		t.Fatal("expected not-ok for non-tag reset")
	}
}

func TestCaptureFollowingFrom(t *testing.T) {
	r := stream.NewReader(strings.NewReader("from abc123\nnext\n"), 0)
	from, err := CaptureFollowingFrom(r)
	if err != nil || string(from) != "from abc123\n" {
		t.Fatalf("got %q, %v", from, err)
	}
	next, _ := r.Line()
	if string(next) != "next\n" {
		t.Errorf("got %q", next)
	}
}

func TestCaptureFollowingFromPushesBackNonFrom(t *testing.T) {
	r := stream.NewReader(strings.NewReader("commit refs/heads/main\n"), 0)
	from, err := CaptureFollowingFrom(r)
	if err != nil || from != nil {
		t.Fatalf("expected nil from, got %q, %v", from, err)
	}
	next, _ := r.Line()
	if string(next) != "commit refs/heads/main\n" {
		t.Errorf("pushback failed, got %q", next)
	}
}

func TestRewriteCommitHeaderRefBranch(t *testing.T) {
	log := NewRenameLog()
	out, changed := RewriteCommitHeaderRef([]byte("commit refs/heads/old\n"), "old", "new", "", "", log)
	if !changed {
		t.Fatal("expected change")
	}
	if string(out) != "commit refs/heads/new\n" {
		t.Errorf("got %q", out)
	}
}
