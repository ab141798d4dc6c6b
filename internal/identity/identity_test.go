package identity

import (
	"os"
	"testing"
)

func TestNameRewriterSubstitutesOldName(t *testing.T) {
	r := NewNameRewriter([][2]string{
		{"Old Name <old@example.com>", "New Name <new@example.com>"},
	})
	out, changed := r.Rewrite([]byte("author Old Name <old@example.com> 1000 +0000\n"))
	if !changed {
		t.Fatal("expected change")
	}
	if string(out) != "author New Name <new@example.com> 1000 +0000\n" {
		t.Errorf("got %q", out)
	}
}

func TestNameRewriterEmptyIsNoop(t *testing.T) {
	r := NewNameRewriter(nil)
	line := []byte("author Someone <someone@example.com> 1000 +0000\n")
	out, changed := r.Rewrite(line)
	if changed || string(out) != string(line) {
		t.Errorf("expected no-op, got %q changed=%v", out, changed)
	}
}

func TestMailmapRewriteByEmailOnly(t *testing.T) {
	content := "Proper Name <proper@example.com> <old@example.com>\n"
	path := writeTempMailmap(t, content)
	mm, err := LoadMailmap(path)
	if err != nil {
		t.Fatal(err)
	}
	out, changed := mm.RewriteLine([]byte("author Any Name <old@example.com> 1000 +0000\n"))
	if !changed {
		t.Fatal("expected change")
	}
	if string(out) != "author Proper Name <proper@example.com> 1000 +0000\n" {
		t.Errorf("got %q", out)
	}
}

func TestMailmapRewriteByNameAndEmail(t *testing.T) {
	content := "Proper Name <proper@example.com> Old Commit Name <old@example.com>\n"
	path := writeTempMailmap(t, content)
	mm, err := LoadMailmap(path)
	if err != nil {
		t.Fatal(err)
	}
	// Different name, same email: should not match the name+email rule.
	out, changed := mm.RewriteLine([]byte("committer Other Name <old@example.com> 1000 +0000\n"))
	if changed {
		t.Errorf("did not expect a match, got %q", out)
	}

	out, changed = mm.RewriteLine([]byte("committer Old Commit Name <old@example.com> 1000 +0000\n"))
	if !changed || string(out) != "committer Proper Name <proper@example.com> 1000 +0000\n" {
		t.Errorf("got %q changed=%v", out, changed)
	}
}

func TestMailmapEmptyIsNoop(t *testing.T) {
	mm := &MailmapRewriter{}
	line := []byte("author X <x@example.com> 1 +0000\n")
	out, changed := mm.RewriteLine(line)
	if changed || string(out) != string(line) {
		t.Errorf("expected no-op")
	}
}

func writeTempMailmap(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "mailmap-*.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}
