package finalize

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/cactusinhand/filter-repo-go/internal/options"
	"github.com/cactusinhand/filter-repo-go/internal/rlog"
)

var log = rlog.For("finalize")

// FetchAllRefsIfNeeded fetches every ref from the source repository's
// origin remote before any rewriting happens, so that a --sensitive run
// (one where leaked history must be scrubbed everywhere it exists) doesn't
// silently miss commits this clone never fetched. No-ops unless --sensitive
// is set, and is itself skipped by --no-fetch or --dry-run. Ported from
// filter-repo-rs/src/migrate.rs's fetch_all_refs_if_needed.
func FetchAllRefsIfNeeded(o options.Options) error {
	if !o.Sensitive || o.NoFetch || o.DryRun {
		return nil
	}
	if !hasRemote(o.Source, "origin") {
		log.Warn("--sensitive: no 'origin' remote found, skipping ref fetch")
		return nil
	}
	log.Info("fetching all refs from origin to ensure full sensitive-history coverage")
	cmd := exec.Command("git", "-C", o.Source, "fetch", "-q", "--prune",
		"--update-head-ok", "--refmap", "", "origin", "+refs/*:refs/*")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("finalize: git fetch origin failed: %w (%s)", err, bytes.TrimSpace(out))
	}
	return nil
}

// MigrateOriginToHeads promotes every refs/remotes/origin/<name> ref in the
// source repository to refs/heads/<name> (skipping names that already have
// a local branch) and removes the remote-tracking refs, including
// refs/remotes/origin/HEAD, via a single batched `git update-ref --stdin`.
// No-ops under --partial or --dry-run, since a partial rewrite is expected
// to coexist with the remote it was filtered from. Ported from
// filter-repo-rs/src/migrate.rs's migrate_origin_to_heads.
func MigrateOriginToHeads(o options.Options) error {
	if o.Partial || o.DryRun {
		return nil
	}
	refs, err := getAllRefs(o.Source)
	if err != nil {
		// A source that isn't a git repository (or has no refs yet) is not
		// fatal here; there's simply nothing to migrate.
		return nil
	}

	var toCreate, toDelete [][2]string
	for name, hash := range refs {
		if !strings.HasPrefix(name, "refs/remotes/origin/") {
			continue
		}
		if name == "refs/remotes/origin/HEAD" {
			toDelete = append(toDelete, [2]string{name, hash})
			continue
		}
		suffix := strings.TrimPrefix(name, "refs/remotes/origin/")
		newRef := "refs/heads/" + suffix
		if _, exists := refs[newRef]; !exists {
			toCreate = append(toCreate, [2]string{newRef, hash})
		}
		toDelete = append(toDelete, [2]string{name, hash})
	}
	if len(toCreate) == 0 && len(toDelete) == 0 {
		return nil
	}

	cmd := exec.Command("git", "-C", o.Source, "update-ref", "--no-deref", "--stdin")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("finalize: wiring update-ref stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("finalize: starting git update-ref: %w", err)
	}
	for _, r := range toCreate {
		fmt.Fprintf(stdin, "create %s %s\n", r[0], r[1])
	}
	for _, r := range toDelete {
		fmt.Fprintf(stdin, "delete %s %s\n", r[0], r[1])
	}
	stdin.Close()
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("finalize: git update-ref failed: %w", err)
	}
	return nil
}

// RemoveOriginRemoteIfApplicable removes the target repository's origin
// remote once the rewrite has produced a new, disconnected history, so a
// later `git push` can't accidentally land filtered-out history back on
// the original remote. Skipped under --sensitive (the remote is needed for
// FetchAllRefsIfNeeded to have done its job and future re-runs), --partial,
// or --dry-run. Ported from
// filter-repo-rs/src/migrate.rs's remove_origin_remote_if_applicable.
func RemoveOriginRemoteIfApplicable(o options.Options) error {
	if o.Sensitive || o.Partial || o.DryRun {
		return nil
	}
	if !hasRemote(o.Target, "origin") {
		return nil
	}
	if url := originURL(o.Target); url != "" {
		log.Infof("removing 'origin' remote (was: %s)", url)
	} else {
		log.Info("removing 'origin' remote; see docs if you want to push back there")
	}
	cmd := exec.Command("git", "-C", o.Target, "remote", "rm", "origin")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("finalize: git remote rm origin failed: %w (%s)", err, bytes.TrimSpace(out))
	}
	return nil
}

func hasRemote(repoDir, name string) bool {
	cmd := exec.Command("git", "-C", repoDir, "remote")
	out, err := cmd.Output()
	if err != nil {
		return false
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == name {
			return true
		}
	}
	return false
}

func originURL(repoDir string) string {
	cmd := exec.Command("git", "-C", repoDir, "config", "--get", "remote.origin.url")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// getAllRefs returns every ref in repoDir mapped to its current oid, the Go
// analogue of filter-repo-rs/src/gitutil.rs's get_all_refs.
func getAllRefs(repoDir string) (map[string]string, error) {
	cmd := exec.Command("git", "-C", repoDir, "for-each-ref", "--format=%(objectname) %(refname)")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("finalize: git for-each-ref failed: %w", err)
	}
	refs := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.SplitN(strings.TrimSpace(scanner.Text()), " ", 2)
		if len(fields) != 2 {
			continue
		}
		refs[fields[1]] = fields[0]
	}
	return refs, nil
}
