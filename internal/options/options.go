// Package options defines the single immutable value that configures a
// filter-repo-go run and the two layers (CLI flags, YAML config file) that
// can populate it.
package options

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v2"
)

// PruneMode controls when an empty or degenerate commit is dropped.
type PruneMode int

const (
	PruneAuto PruneMode = iota
	PruneNever
	PruneAlways
)

func ParsePruneMode(s string) (PruneMode, error) {
	switch s {
	case "", "auto":
		return PruneAuto, nil
	case "never":
		return PruneNever, nil
	case "always":
		return PruneAlways, nil
	default:
		return PruneAuto, fmt.Errorf("options: invalid prune mode %q (want auto|never|always)", s)
	}
}

// PathCompatPolicy controls what happens when a path violates the
// platform-compatibility predicate.
type PathCompatPolicy int

const (
	CompatSanitize PathCompatPolicy = iota
	CompatSkip
	CompatError
)

func ParsePathCompatPolicy(s string) (PathCompatPolicy, error) {
	switch s {
	case "", "sanitize":
		return CompatSanitize, nil
	case "skip":
		return CompatSkip, nil
	case "error":
		return CompatError, nil
	default:
		return CompatSanitize, fmt.Errorf("options: invalid path-compat-policy %q (want sanitize|skip|error)", s)
	}
}

// Rename is an (old, new) prefix pair used for branch/tag/path renaming.
type Rename struct {
	Old string
	New string
}

// Options is the single value threaded through the whole pipeline. It is
// never mutated after Load/Parse returns; every subsystem receives it (or a
// narrower view of it) by value or read-only pointer.
type Options struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`

	Refs []string `yaml:"refs"`

	Paths       []string `yaml:"paths"`
	PathGlobs   []string `yaml:"path_globs"`
	PathRegexes []string `yaml:"path_regexes"`
	InvertPaths bool     `yaml:"invert_paths"`
	PathRenames []Rename `yaml:"path_renames"`

	BranchRename *Rename `yaml:"branch_rename"`
	TagRename    *Rename `yaml:"tag_rename"`

	ReplaceTextFile    string `yaml:"replace_text"`
	ReplaceMessageFile string `yaml:"replace_message"`
	MailmapFile        string `yaml:"mailmap"`
	AuthorRewriteFile  string `yaml:"author_rewrite"`
	EmailRewriteFile   string `yaml:"email_rewrite"`

	MaxBlobSize        int64    `yaml:"max_blob_size"`
	StripBlobsWithIDs   []string `yaml:"strip_blobs_with_ids"`

	PruneEmptyStr      string `yaml:"prune_empty"`
	PruneDegenerateStr string `yaml:"prune_degenerate"`
	NoFF               bool   `yaml:"no_ff"`

	PathCompatPolicyStr string `yaml:"path_compat_policy"`
	PlatformAware        *bool  `yaml:"platform_aware"`

	Sensitive bool `yaml:"sensitive"`
	Partial   bool `yaml:"partial"`
	DryRun    bool `yaml:"dry_run"`
	Force     bool `yaml:"force"`
	NoFetch   bool `yaml:"no_fetch"`

	BackupPath string `yaml:"backup_path"`
	NoBackup   bool   `yaml:"no_backup"`

	DataSizeCeiling int64 `yaml:"data_size_ceiling"`

	DebugDir string `yaml:"debug_dir"`

	ExtraExportArgs string `yaml:"extra_export_args"`
	ExtraImportArgs string `yaml:"extra_import_args"`

	ReportFile string `yaml:"report_file"`
	Verbose    bool   `yaml:"verbose"`

	// Resolved (non-serialized) forms, populated by Resolve.
	PruneEmpty      PruneMode        `yaml:"-"`
	PruneDegenerate PruneMode        `yaml:"-"`
	PathCompat      PathCompatPolicy `yaml:"-"`
	CompiledRegexes []*regexp.Regexp `yaml:"-"`
}

const DefaultDataSizeCeiling = 500 * 1024 * 1024 // 500 MiB, spec.md §4.1

// Default returns an Options value with every field at its documented
// default, matching spec.md §6's option table.
func Default() Options {
	return Options{
		PruneEmpty:      PruneAuto,
		PruneDegenerate: PruneAuto,
		PathCompat:      CompatSanitize,
		DataSizeCeiling: DefaultDataSizeCeiling,
	}
}

// LoadYAML reads a config file and merges it over Default(); CLI flags
// should be applied on top of the result afterward.
func LoadYAML(path string) (Options, error) {
	opts := Default()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("options: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("options: parsing config %s: %w", path, err)
	}
	return opts, nil
}

// Resolve fills in the derived fields (prune modes, path-compat policy,
// compiled regexes) and validates cross-field constraints. Call once after
// all CLI/YAML layers have been applied.
func (o *Options) Resolve() error {
	var err error
	if o.PruneEmpty, err = ParsePruneMode(o.PruneEmptyStr); err != nil {
		return err
	}
	if o.PruneDegenerate, err = ParsePruneMode(o.PruneDegenerateStr); err != nil {
		return err
	}
	if o.PathCompat, err = ParsePathCompatPolicy(o.PathCompatPolicyStr); err != nil {
		return err
	}
	if o.DataSizeCeiling <= 0 {
		o.DataSizeCeiling = DefaultDataSizeCeiling
	}
	o.CompiledRegexes = o.CompiledRegexes[:0]
	for _, pat := range o.PathRegexes {
		re, err := regexp.Compile(pat)
		if err != nil {
			return fmt.Errorf("options: invalid --path-regex %q: %w", pat, err)
		}
		o.CompiledRegexes = append(o.CompiledRegexes, re)
	}
	if o.Source == "" {
		return fmt.Errorf("options: source repository path is required")
	}
	if o.Target == "" {
		o.Target = o.Source
	}
	return nil
}

// PlatformAwareResolved reports whether the platform-compatibility predicate
// (Windows-forbidden characters, trailing dot/space) should be enforced,
// independent of control-byte sanitization which always applies. Defaults to
// the host OS being Windows, matching original_source's cfg!(windows) gate,
// but is overridable for deterministic cross-platform testing (SPEC_FULL.md §3).
func (o Options) PlatformAwareResolved(hostIsWindows bool) bool {
	if o.PlatformAware != nil {
		return *o.PlatformAware
	}
	return hostIsWindows
}
