package message

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRewriteAppliesReplacerThenShortHash(t *testing.T) {
	replacer := NewReplacer(nil, nil)
	hashes := NewShortHashMapper()
	hashes.UpdateMapping("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	body := []byte("see commit aaaaaaa for details")
	out, changed := Rewrite(body, replacer, hashes)
	if !changed {
		t.Fatal("expected change")
	}
	if string(out) != "see commit bbbbbbb for details" {
		t.Errorf("got %q", out)
	}
}

func TestShortHashFullMatch(t *testing.T) {
	m := NewShortHashMapper()
	old := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	newH := "cccccccccccccccccccccccccccccccccccccccc"
	m.UpdateMapping(old, newH)
	out, changed := m.Rewrite([]byte(old))
	if !changed || string(out) != newH {
		t.Errorf("got %q changed=%v", out, changed)
	}
}

func TestShortHashPrunedNotSubstituted(t *testing.T) {
	m := NewShortHashMapper()
	old := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	m.UpdateMapping(old, "0000000000000000000000000000000000000000")
	out, changed := m.Rewrite([]byte("aaaaaaa"))
	if changed {
		t.Errorf("expected no substitution for pruned target, got %q", out)
	}
}

func TestShortHashAmbiguousPrefixLeftAlone(t *testing.T) {
	m := NewShortHashMapper()
	m.UpdateMapping("aaaaaaa1111111111111111111111111111111", "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	m.UpdateMapping("aaaaaaa2222222222222222222222222222222", "cccccccccccccccccccccccccccccccccccccccc")
	out, changed := m.Rewrite([]byte("aaaaaaa"))
	if changed {
		t.Errorf("expected ambiguous prefix to be left alone, got %q", out)
	}
}

func TestFromCommitMapFileMissingReturnsNil(t *testing.T) {
	m, err := FromCommitMapFile(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Fatal("expected nil mapper for missing file")
	}
}

func TestFromCommitMapFileParsesPairs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commit-map")
	content := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := FromCommitMapFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatal("expected a mapper")
	}
	out, changed := m.Rewrite([]byte("aaaaaaa"))
	if !changed || string(out) != "bbbbbbb" {
		t.Errorf("got %q changed=%v", out, changed)
	}
}
