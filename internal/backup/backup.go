// Package backup creates a timestamped git bundle of every ref about to be
// rewritten, before internal/pipeline touches anything, grounded on
// filter-repo-rs/src/backup.rs's create_backup.
package backup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	shutil "github.com/termie/go-shutil"

	"github.com/cactusinhand/filter-repo-go/internal/options"
)

// timestampFormat matches backup.rs's
// "[year][month][day]-[hour][minute][second]-[subsecond digits:9]".
const timestampFormat = "20060102-150405.000000000"

// Create bundles every ref in refs from the source repository into a
// timestamped backup-<timestamp>.bundle, returning its path, or ("", nil)
// under --dry-run (a no-op, since nothing destructive happens in a dry
// run). The bundle is first written to a scratch file under os.TempDir and
// then staged into its final destination with shutil.Copy, so a reader
// racing this function (a concurrent --backup-path listing, say) never
// observes a partially-written bundle.
func Create(o options.Options, refs []string) (string, error) {
	if o.DryRun {
		return "", nil
	}
	if len(refs) == 0 {
		return "", fmt.Errorf("backup: no refs specified for backup")
	}

	gitDir, err := resolveGitDir(o.Source)
	if err != nil {
		return "", fmt.Errorf("backup: resolving git dir for %s: %w", o.Source, err)
	}

	bundleName := fmt.Sprintf("backup-%s.bundle", time.Now().UTC().Format(timestampFormat))
	destPath, err := resolveDestination(o.Source, o.BackupPath, gitDir, bundleName)
	if err != nil {
		return "", err
	}

	scratch, err := os.CreateTemp("", "filter-repo-go-backup-*.bundle")
	if err != nil {
		return "", fmt.Errorf("backup: creating scratch bundle file: %w", err)
	}
	scratchPath := scratch.Name()
	scratch.Close()
	defer os.Remove(scratchPath)

	args := append([]string{"-C", o.Source, "bundle", "create", scratchPath}, refs...)
	cmd := exec.Command("git", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("backup: git bundle create failed: %w (%s)", err, out)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", fmt.Errorf("backup: creating destination directory: %w", err)
	}
	if err := shutil.Copy(scratchPath, destPath, false); err != nil {
		return "", fmt.Errorf("backup: staging bundle to %s: %w", destPath, err)
	}
	return destPath, nil
}

// resolveDestination mirrors backup.rs's backup_path heuristic: an absolute
// or relative --backup-path that names an existing directory, or has no
// file extension, is treated as a directory to create the bundle under;
// otherwise it is the bundle's exact file path. With no override, the
// bundle lands under <git-dir>/filter-repo/.
func resolveDestination(source, backupPath, gitDir, bundleName string) (string, error) {
	if backupPath == "" {
		return filepath.Join(gitDir, "filter-repo", bundleName), nil
	}
	resolved := backupPath
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(source, resolved)
	}
	info, statErr := os.Stat(resolved)
	looksLikeDir := (statErr == nil && info.IsDir()) || (statErr != nil && filepath.Ext(resolved) == "")
	if looksLikeDir {
		return filepath.Join(resolved, bundleName), nil
	}
	return resolved, nil
}

// resolveGitDir shells out to `git rev-parse --git-dir`, the Go analogue of
// filter-repo-rs/src/gitutil.rs's git_dir.
func resolveGitDir(repoDir string) (string, error) {
	cmd := exec.Command("git", "-C", repoDir, "rev-parse", "--git-dir")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	dir := string(trimTrailingNewline(out))
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(repoDir, dir)
	}
	return dir, nil
}

func trimTrailingNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
