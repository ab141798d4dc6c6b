// Command filter-repo-go rewrites git history in place: it drives `git
// fast-export` and `git fast-import` through the rewrite stages under
// internal/, the Go analogue of reposurgeon's repotool/reposurgeon
// command-line front ends over its surgeon package.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cactusinhand/filter-repo-go/internal/backup"
	"github.com/cactusinhand/filter-repo-go/internal/finalize"
	"github.com/cactusinhand/filter-repo-go/internal/options"
	"github.com/cactusinhand/filter-repo-go/internal/pipeline"
	"github.com/cactusinhand/filter-repo-go/internal/report"
	"github.com/cactusinhand/filter-repo-go/internal/rlog"
	"github.com/cactusinhand/filter-repo-go/internal/stream"
)

// errOptions marks an error as having occurred while resolving flags/config
// rather than during the rewrite itself, so main can choose the exit(2)
// (bad options) vs exit(1) (failed run) split the original Rust CLI used.
var errOptions = errors.New("options")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errOptions) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		source             string
		target             string
		configPath         string
		refs               []string
		paths              []string
		pathGlobs          []string
		pathRegexes        []string
		invertPaths        bool
		pathRenameOld      string
		pathRenameNew      string
		branchRenameOld    string
		branchRenameNew    string
		tagRenameOld       string
		tagRenameNew       string
		replaceTextFile    string
		replaceMessageFile string
		mailmapFile        string
		authorRewriteFile  string
		emailRewriteFile   string
		maxBlobSize        int64
		stripBlobIDs       []string
		pruneEmpty         string
		pruneDegenerate    string
		noFF               bool
		pathCompatPolicy   string
		platformAware      bool
		sensitive          bool
		partial            bool
		dryRun             bool
		force              bool
		noFetch            bool
		backupPath         string
		noBackup           bool
		dataSizeCeiling    int64
		debugDir           string
		extraExportArgs    string
		extraImportArgs    string
		reportFile         string
		verbose            bool
	)

	cmd := &cobra.Command{
		Use:           "filter-repo-go --source <repo> [flags]",
		Short:         "Rewrite git history: strip blobs, filter paths, rewrite identities and messages",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options.LoadYAML(configPath)
			if err != nil {
				return fmt.Errorf("%w: %v", errOptions, err)
			}

			opts.Source = orDefault(source, opts.Source)
			opts.Target = orDefault(target, opts.Target)
			opts.Refs = refs
			opts.Paths = paths
			opts.PathGlobs = pathGlobs
			opts.PathRegexes = pathRegexes
			opts.InvertPaths = opts.InvertPaths || invertPaths
			if pathRenameOld != "" || pathRenameNew != "" {
				opts.PathRenames = append(opts.PathRenames, options.Rename{Old: pathRenameOld, New: pathRenameNew})
			}
			if branchRenameOld != "" || branchRenameNew != "" {
				opts.BranchRename = &options.Rename{Old: branchRenameOld, New: branchRenameNew}
			}
			if tagRenameOld != "" || tagRenameNew != "" {
				opts.TagRename = &options.Rename{Old: tagRenameOld, New: tagRenameNew}
			}
			opts.ReplaceTextFile = orDefault(replaceTextFile, opts.ReplaceTextFile)
			opts.ReplaceMessageFile = orDefault(replaceMessageFile, opts.ReplaceMessageFile)
			opts.MailmapFile = orDefault(mailmapFile, opts.MailmapFile)
			opts.AuthorRewriteFile = orDefault(authorRewriteFile, opts.AuthorRewriteFile)
			opts.EmailRewriteFile = orDefault(emailRewriteFile, opts.EmailRewriteFile)
			if maxBlobSize > 0 {
				opts.MaxBlobSize = maxBlobSize
			}
			opts.StripBlobsWithIDs = append(opts.StripBlobsWithIDs, stripBlobIDs...)
			opts.PruneEmptyStr = orDefault(pruneEmpty, opts.PruneEmptyStr)
			opts.PruneDegenerateStr = orDefault(pruneDegenerate, opts.PruneDegenerateStr)
			opts.NoFF = opts.NoFF || noFF
			opts.PathCompatPolicyStr = orDefault(pathCompatPolicy, opts.PathCompatPolicyStr)
			if cmd.Flags().Changed("platform-aware") {
				opts.PlatformAware = &platformAware
			}
			opts.Sensitive = opts.Sensitive || sensitive
			opts.Partial = opts.Partial || partial
			opts.DryRun = opts.DryRun || dryRun
			opts.Force = opts.Force || force
			opts.NoFetch = opts.NoFetch || noFetch
			opts.BackupPath = orDefault(backupPath, opts.BackupPath)
			opts.NoBackup = opts.NoBackup || noBackup
			if dataSizeCeiling > 0 {
				opts.DataSizeCeiling = dataSizeCeiling
			}
			opts.DebugDir = orDefault(debugDir, opts.DebugDir)
			opts.ExtraExportArgs = orDefault(extraExportArgs, opts.ExtraExportArgs)
			opts.ExtraImportArgs = orDefault(extraImportArgs, opts.ExtraImportArgs)
			opts.ReportFile = orDefault(reportFile, opts.ReportFile)
			opts.Verbose = opts.Verbose || verbose

			if err := opts.Resolve(); err != nil {
				return fmt.Errorf("%w: %v", errOptions, err)
			}

			rlog.SetVerbose(opts.Verbose)
			return runRewrite(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&source, "source", "", "path to the repository to rewrite (required)")
	flags.StringVar(&target, "target", "", "path to write the rewritten repository to (defaults to --source)")
	flags.StringVar(&configPath, "config", "", "YAML config file to load before applying flags")
	flags.StringSliceVar(&refs, "refs", nil, "refs to export; defaults to --all")
	flags.StringSliceVar(&paths, "path", nil, "keep only paths with this literal prefix (repeatable)")
	flags.StringSliceVar(&pathGlobs, "path-glob", nil, "keep only paths matching this glob (repeatable)")
	flags.StringSliceVar(&pathRegexes, "path-regex", nil, "keep only paths matching this regex (repeatable)")
	flags.BoolVar(&invertPaths, "invert-paths", false, "drop the paths that match instead of keeping them")
	flags.StringVar(&pathRenameOld, "path-rename-old", "", "path prefix to rename from")
	flags.StringVar(&pathRenameNew, "path-rename-new", "", "path prefix to rename to")
	flags.StringVar(&branchRenameOld, "branch-rename-old", "", "branch ref prefix to rename from")
	flags.StringVar(&branchRenameNew, "branch-rename-new", "", "branch ref prefix to rename to")
	flags.StringVar(&tagRenameOld, "tag-rename-old", "", "tag ref prefix to rename from")
	flags.StringVar(&tagRenameNew, "tag-rename-new", "", "tag ref prefix to rename to")
	flags.StringVar(&replaceTextFile, "replace-text", "", "rules file of blob-content literal/regex/glob replacements")
	flags.StringVar(&replaceMessageFile, "replace-message", "", "rules file of commit/tag message replacements")
	flags.StringVar(&mailmapFile, "mailmap", "", "mailmap file for canonicalizing author/committer identities")
	flags.StringVar(&authorRewriteFile, "author-rewrite", "", "name-map file of author rewrites")
	flags.StringVar(&emailRewriteFile, "email-rewrite", "", "name-map file of email rewrites")
	flags.Int64Var(&maxBlobSize, "max-blob-size", 0, "strip blobs larger than this many bytes (0 disables)")
	flags.StringSliceVar(&stripBlobIDs, "strip-blobs-with-id", nil, "strip blobs whose original oid is in this list (repeatable)")
	flags.StringVar(&pruneEmpty, "prune-empty", "", "auto|never|always: when to prune emptied commits")
	flags.StringVar(&pruneDegenerate, "prune-degenerate", "", "auto|never|always: when to prune degenerate merges")
	flags.BoolVar(&noFF, "no-ff", false, "never fast-forward a single-parent merge down to its parent")
	flags.StringVar(&pathCompatPolicy, "path-compat-policy", "", "sanitize|skip|error: handling for platform-incompatible paths")
	flags.BoolVar(&platformAware, "platform-aware", false, "enforce Windows path-compatibility rules regardless of host OS")
	flags.BoolVar(&sensitive, "sensitive", false, "treat source as sensitive: fetch refs first, keep the origin remote")
	flags.BoolVar(&partial, "partial", false, "rewrite only the given --refs, leaving the rest of the repo alone")
	flags.BoolVar(&dryRun, "dry-run", false, "run the pipeline but do not touch refs, remotes, or write a backup")
	flags.BoolVar(&force, "force", false, "skip the are-you-sure confirmation for a non---partial, non---dry-run rewrite")
	flags.BoolVar(&noFetch, "no-fetch", false, "skip the --sensitive pre-rewrite fetch")
	flags.StringVar(&backupPath, "backup-path", "", "where to write the pre-rewrite bundle backup")
	flags.BoolVar(&noBackup, "no-backup", false, "skip writing a bundle backup before rewriting")
	flags.Int64Var(&dataSizeCeiling, "data-size-ceiling", 0, "reject any data record larger than this many bytes (0 uses the default)")
	flags.StringVar(&debugDir, "debug-dir", "", "directory to write marks files and the commit/ref maps into")
	flags.StringVar(&extraExportArgs, "extra-export-args", "", "extra arguments appended to the fast-export invocation")
	flags.StringVar(&extraImportArgs, "extra-import-args", "", "extra arguments appended to the fast-import invocation")
	flags.StringVar(&reportFile, "report-file", "", "where to write the end-of-run report (defaults under --target/.git)")
	flags.BoolVar(&verbose, "verbose", false, "enable debug-level logging")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func orDefault(flagValue, existing string) string {
	if flagValue != "" {
		return flagValue
	}
	return existing
}

// runRewrite performs one end-to-end pass: confirm, back up the source,
// run the export/rewrite/import subprocess pipeline, then finalize refs,
// remotes, and the report, mirroring filter_repo_rs::run's top-level
// sequencing in the original Rust implementation this tool was distilled
// from.
func runRewrite(o options.Options) error {
	log := rlog.For("main")

	if !o.Force && !o.Partial && !o.DryRun && !confirm(o.Source) {
		log.Info("aborted: pass --force, --partial, or --dry-run to skip this confirmation")
		return nil
	}

	if err := finalize.FetchAllRefsIfNeeded(o); err != nil {
		return fmt.Errorf("fetching refs: %w", err)
	}

	if !o.NoBackup {
		backupRefs := o.Refs
		if len(backupRefs) == 0 {
			backupRefs = []string{"--all"}
		}
		path, err := backup.Create(o, backupRefs)
		if err != nil {
			return fmt.Errorf("creating backup: %w", err)
		}
		if path != "" {
			log.Infof("wrote backup bundle to %s", path)
		}
	}

	t := pipeline.NewTransformer(o)
	if err := t.LoadConfiguredRules(); err != nil {
		return err
	}

	marksPath, cleanup, err := resolveMarksPath(o)
	if err != nil {
		return err
	}
	defer cleanup()

	exportCmd, err := pipeline.BuildExportCmd(o.Source, o.Refs, o.ExtraExportArgs)
	if err != nil {
		return err
	}
	importCmd, err := pipeline.BuildImportCmd(o.Target, marksPath, o.ExtraImportArgs)
	if err != nil {
		return err
	}

	endpoints, wait, err := pipeline.Start(exportCmd, importCmd)
	if err != nil {
		return err
	}

	importWriter := bufio.NewWriter(endpoints.ImportStdin)
	runErr := t.Run(stream.NewReader(endpoints.ExportStdout, o.DataSizeCeiling), importWriter)
	if runErr == nil {
		runErr = importWriter.Flush()
	}
	_ = endpoints.ImportStdin.Close()

	waitErr := wait()
	if runErr != nil && !pipeline.IsBrokenPipe(runErr) {
		return fmt.Errorf("rewriting stream: %w", runErr)
	}
	if waitErr != nil {
		return waitErr
	}

	newOIDs, err := finalize.ParseMarksFile(marksPath)
	if err != nil {
		return fmt.Errorf("reading import marks: %w", err)
	}
	commitMap := finalize.BuildCommitMap(t.CommitRecords, newOIDs)

	gitDirTarget, gitDirErr := gitDirFor(o.Target)
	if gitDirErr == nil {
		filterRepoDir := filepath.Join(gitDirTarget, "filter-repo")
		if err := os.MkdirAll(filterRepoDir, 0o755); err == nil {
			if err := finalize.WriteCommitMap(filepath.Join(filterRepoDir, "commit-map"), commitMap); err != nil {
				log.Warnf("writing commit-map: %v", err)
			}
			if err := finalize.WriteRefMap(filepath.Join(filterRepoDir, "ref-map"), t.RenameLog); err != nil {
				log.Warnf("writing ref-map: %v", err)
			}
		}
	}

	if !o.DryRun {
		if err := finalize.MigrateOriginToHeads(o); err != nil {
			return fmt.Errorf("migrating origin refs: %w", err)
		}
		if err := finalize.RemoveOriginRemoteIfApplicable(o); err != nil {
			return fmt.Errorf("removing origin remote: %w", err)
		}
	}

	reportPath := o.ReportFile
	if reportPath == "" && gitDirErr == nil {
		reportPath = filepath.Join(gitDirTarget, "filter-repo", "report.txt")
	}
	if reportPath != "" {
		entries := t.RenameLog.Entries()
		renames := make([]report.RenameEntry, len(entries))
		for i, e := range entries {
			renames[i] = report.RenameEntry{Old: e.Old, New: e.New}
		}
		if err := report.WriteToFile(reportPath, t.Counters, renames, time.Now()); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		log.Infof("wrote report to %s", reportPath)
	}

	return nil
}

// resolveMarksPath picks where fast-import's --export-marks file lands:
// under --debug-dir if the caller wants it kept around for inspection,
// otherwise a scratch temp directory cleaned up when the run finishes.
func resolveMarksPath(o options.Options) (path string, cleanup func(), err error) {
	if o.DebugDir != "" {
		if err := os.MkdirAll(o.DebugDir, 0o755); err != nil {
			return "", nil, fmt.Errorf("creating debug dir %s: %w", o.DebugDir, err)
		}
		return filepath.Join(o.DebugDir, "target-marks"), func() {}, nil
	}
	tmpDir, err := os.MkdirTemp("", "filter-repo-go-marks-")
	if err != nil {
		return "", nil, fmt.Errorf("creating marks scratch dir: %w", err)
	}
	return filepath.Join(tmpDir, "target-marks"), func() { os.RemoveAll(tmpDir) }, nil
}

func gitDirFor(repoDir string) (string, error) {
	gitDir := filepath.Join(repoDir, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		return gitDir, nil
	}
	if info, err := os.Stat(repoDir); err == nil && info.IsDir() {
		return repoDir, nil
	}
	return "", fmt.Errorf("cannot locate git dir under %s", repoDir)
}

func confirm(source string) bool {
	fmt.Fprintf(os.Stderr, "About to rewrite history in %s. This cannot be undone without the backup bundle.\nProceed? [y/N] ", source)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}
