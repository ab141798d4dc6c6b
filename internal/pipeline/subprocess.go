// Package pipeline wires a `git fast-export` process to a `git fast-import`
// process through the rewrite stages implemented by internal/blob,
// internal/commitgraph, internal/identity, internal/message,
// internal/pathfilter, internal/filechange, and internal/tagref, grounded on
// surgeon/vcs.go's exporter/importer command templates and surgeon/inner.go's
// StreamParser-driven dispatch loop in filter-repo-go's teacher,
// reposurgeon.
package pipeline

import (
	"fmt"
	"io"
	"os/exec"

	"github.com/kballard/go-shellquote"

	"github.com/cactusinhand/filter-repo-go/internal/options"
	"github.com/cactusinhand/filter-repo-go/internal/rlog"
)

// ExportArgs is the fixed argument list for git fast-export, matching
// reposurgeon's git VCS entry ("git fast-export --show-original-ids
// --signed-tags=verbatim --tag-of-filtered-object=drop --use-done-feature
// --all"), except --all is replaced by an explicit ref list when the caller
// restricted --refs.
var ExportArgs = []string{
	"fast-export",
	"--show-original-ids",
	"--signed-tags=verbatim",
	"--tag-of-filtered-object=drop",
	"--use-done-feature",
}

// ImportArgs is the fixed argument list for git fast-import, matching
// reposurgeon's git VCS entry ("git fast-import --quiet
// --export-marks=.git/marks"), with the marks path supplied by the caller.
var ImportArgs = []string{
	"fast-import",
	"--quiet",
}

// BuildExportCmd constructs the `git fast-export` subprocess for repoDir,
// exporting refs (or --all if refs is empty), plus any user-supplied extra
// arguments split shell-style (internal/options's ExtraExportArgs, parsed
// with github.com/kballard/go-shellquote exactly as reposurgeon splits
// extra VCS command arguments).
func BuildExportCmd(repoDir string, refs []string, extra string) (*exec.Cmd, error) {
	args := append([]string{}, ExportArgs...)
	if len(refs) == 0 {
		args = append(args, "--all")
	} else {
		args = append(args, refs...)
	}
	extraArgs, err := shellquote.Split(extra)
	if err != nil {
		return nil, fmt.Errorf("pipeline: parsing extra export args %q: %w", extra, err)
	}
	args = append(args, extraArgs...)
	cmd := exec.Command("git", args...)
	cmd.Dir = repoDir
	return cmd, nil
}

// BuildImportCmd constructs the `git fast-import` subprocess for repoDir,
// writing a marks file to marksPath and reading its stream from stdin
// (wired by the caller).
func BuildImportCmd(repoDir, marksPath, extra string) (*exec.Cmd, error) {
	args := append([]string{}, ImportArgs...)
	if marksPath != "" {
		args = append(args, "--export-marks="+marksPath)
	}
	extraArgs, err := shellquote.Split(extra)
	if err != nil {
		return nil, fmt.Errorf("pipeline: parsing extra import args %q: %w", extra, err)
	}
	args = append(args, extraArgs...)
	cmd := exec.Command("git", args...)
	cmd.Dir = repoDir
	return cmd, nil
}

// Endpoints bundles the three pipes the transform loop reads from/writes to:
// the exporter's stdout, the importer's stdin, and (optionally) a
// debug-mirror file that receives a raw copy of what was sent to the
// importer, mirroring --debug-dir's output in spec.md §4.7.
type Endpoints struct {
	ExportStdout io.ReadCloser
	ImportStdin  io.WriteCloser
	DebugMirror  io.Writer // nil if no debug mirroring configured
}

// Start launches both subprocesses and returns the endpoints to drive them
// plus a function that waits for both processes and reports the first
// error encountered, treating a broken pipe on the importer side (the
// importer exited first, e.g. due to a deliberate --dry-run-equivalent
// early close) as a recoverable, already-logged condition rather than a
// fatal error — see pipeline.go's IsBrokenPipe.
func Start(exportCmd, importCmd *exec.Cmd) (*Endpoints, func() error, error) {
	exportOut, err := exportCmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: wiring export stdout: %w", err)
	}
	importIn, err := importCmd.StdinPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: wiring import stdin: %w", err)
	}

	log := rlog.For("pipeline")
	if err := exportCmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("pipeline: starting %v: %w", exportCmd.Args, err)
	}
	log.Debugf("started export: %v", exportCmd.Args)
	if err := importCmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("pipeline: starting %v: %w", importCmd.Args, err)
	}
	log.Debugf("started import: %v", importCmd.Args)

	wait := func() error {
		exportErr := exportCmd.Wait()
		importErr := importCmd.Wait()
		if exportErr != nil {
			return fmt.Errorf("pipeline: export process: %w", exportErr)
		}
		if importErr != nil {
			return fmt.Errorf("pipeline: import process: %w", importErr)
		}
		return nil
	}

	return &Endpoints{ExportStdout: exportOut, ImportStdin: importIn}, wait, nil
}

// DefaultSourceAndTarget resolves the export/import working directories a
// run should use from Options, letting --target point the rewrite at a
// fresh clone while --source reads the original history.
func DefaultSourceAndTarget(o options.Options) (source, target string) {
	return o.Source, o.Target
}
