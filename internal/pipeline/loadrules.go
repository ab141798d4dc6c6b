package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/cactusinhand/filter-repo-go/internal/blob"
	"github.com/cactusinhand/filter-repo-go/internal/identity"
	"github.com/cactusinhand/filter-repo-go/internal/message"
	"github.com/cactusinhand/filter-repo-go/internal/options"
)

// LoadConfiguredRules reads every rule/mailmap/name-map file named in
// Options and wires the resulting engines onto the Transformer, mirroring
// how filter-repo-rs/src/main.rs builds its RewriteRules/MailmapRewriter/
// AuthorRewriter from CLI-supplied file paths before the streaming pass
// begins. Call once after NewTransformer, before Run.
func (t *Transformer) LoadConfiguredRules() error {
	if t.Opts.ReplaceTextFile != "" {
		raw, err := options.ParseRulesFile(t.Opts.ReplaceTextFile)
		if err != nil {
			return fmt.Errorf("pipeline: loading --replace-text file %s: %w", t.Opts.ReplaceTextFile, err)
		}
		replacer, err := blob.FromRawRules(raw)
		if err != nil {
			return fmt.Errorf("pipeline: compiling --replace-text rules: %w", err)
		}
		t.BlobReplacer = replacer
	}

	if t.Opts.ReplaceMessageFile != "" {
		raw, err := options.ParseRulesFile(t.Opts.ReplaceMessageFile)
		if err != nil {
			return fmt.Errorf("pipeline: loading --replace-message file %s: %w", t.Opts.ReplaceMessageFile, err)
		}
		replacer, err := blob.FromRawRules(raw)
		if err != nil {
			return fmt.Errorf("pipeline: compiling --replace-message rules: %w", err)
		}
		t.MessageReplacer = (*message.Replacer)(replacer)
	}

	if t.Opts.MailmapFile != "" {
		mm, err := identity.LoadMailmap(t.Opts.MailmapFile)
		if err != nil {
			return fmt.Errorf("pipeline: loading mailmap %s: %w", t.Opts.MailmapFile, err)
		}
		t.Mailmap = mm
	}

	if t.Opts.AuthorRewriteFile != "" || t.Opts.EmailRewriteFile != "" {
		var pairs [][2]string
		if t.Opts.AuthorRewriteFile != "" {
			p, err := options.ParseNameMapFile(t.Opts.AuthorRewriteFile)
			if err != nil {
				return fmt.Errorf("pipeline: loading author rewrite file %s: %w", t.Opts.AuthorRewriteFile, err)
			}
			pairs = append(pairs, p...)
		}
		if t.Opts.EmailRewriteFile != "" {
			p, err := options.ParseNameMapFile(t.Opts.EmailRewriteFile)
			if err != nil {
				return fmt.Errorf("pipeline: loading email rewrite file %s: %w", t.Opts.EmailRewriteFile, err)
			}
			pairs = append(pairs, p...)
		}
		t.AuthorRewriter = identity.NewNameRewriter(pairs)
	}

	if t.Opts.DebugDir != "" {
		commitMapPath := filepath.Join(t.Opts.DebugDir, "commit-map")
		hashes, err := message.FromCommitMapFile(commitMapPath)
		if err != nil {
			return fmt.Errorf("pipeline: loading prior commit map %s: %w", commitMapPath, err)
		}
		if hashes != nil {
			t.ShortHashes = hashes
		}
	}
	if t.ShortHashes == nil {
		t.ShortHashes = message.NewShortHashMapper()
	}

	return nil
}
