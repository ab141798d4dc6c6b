package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cactusinhand/filter-repo-go/internal/options"
)

func TestCreateReturnsEmptyForDryRun(t *testing.T) {
	o := options.Default()
	o.Source = t.TempDir()
	o.DryRun = true
	path, err := Create(o, []string{"refs/heads/main"})
	if err != nil {
		t.Fatal(err)
	}
	if path != "" {
		t.Errorf("expected empty path for dry run, got %q", path)
	}
}

func TestCreateErrorsWhenRefsEmpty(t *testing.T) {
	o := options.Default()
	o.Source = t.TempDir()
	_, err := Create(o, nil)
	if err == nil {
		t.Fatal("expected error for empty refs")
	}
}

func TestResolveDestinationDefaultsUnderGitDir(t *testing.T) {
	dest, err := resolveDestination("/repo", "", "/repo/.git", "backup-x.bundle")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join("/repo/.git", "filter-repo", "backup-x.bundle")
	if dest != want {
		t.Errorf("got %q, want %q", dest, want)
	}
}

func TestResolveDestinationTreatsExistingDirAsDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "bundles")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	dest, err := resolveDestination("/repo", sub, "/repo/.git", "backup-x.bundle")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(sub, "backup-x.bundle")
	if dest != want {
		t.Errorf("got %q, want %q", dest, want)
	}
}

func TestResolveDestinationTreatsExtensionedPathAsFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "mine.bundle")
	dest, err := resolveDestination("/repo", target, "/repo/.git", "backup-x.bundle")
	if err != nil {
		t.Fatal(err)
	}
	if dest != target {
		t.Errorf("got %q, want %q", dest, target)
	}
}

func TestResolveDestinationRelativeIsJoinedToSource(t *testing.T) {
	dest, err := resolveDestination("/repo", "out.bundle", "/repo/.git", "backup-x.bundle")
	if err != nil {
		t.Fatal(err)
	}
	want := "/repo/out.bundle"
	if dest != want {
		t.Errorf("got %q, want %q", dest, want)
	}
}
