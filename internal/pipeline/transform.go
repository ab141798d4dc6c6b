package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cactusinhand/filter-repo-go/internal/blob"
	"github.com/cactusinhand/filter-repo-go/internal/commitgraph"
	"github.com/cactusinhand/filter-repo-go/internal/filechange"
	"github.com/cactusinhand/filter-repo-go/internal/finalize"
	"github.com/cactusinhand/filter-repo-go/internal/identity"
	"github.com/cactusinhand/filter-repo-go/internal/message"
	"github.com/cactusinhand/filter-repo-go/internal/options"
	"github.com/cactusinhand/filter-repo-go/internal/pathfilter"
	"github.com/cactusinhand/filter-repo-go/internal/report"
	"github.com/cactusinhand/filter-repo-go/internal/stream"
	"github.com/cactusinhand/filter-repo-go/internal/tagref"
)

// Transformer bundles every rewrite engine the main dispatch loop consults,
// and the run-scoped state (emitted marks, alias table, ref-rename log)
// those engines need to share across records. It holds no package-level
// mutable state; a fresh Transformer is built per run from a resolved
// options.Options.
type Transformer struct {
	Opts options.Options

	BlobReplacer    *blob.Replacer
	MessageReplacer *message.Replacer
	ShortHashes     *message.ShortHashMapper
	AuthorRewriter  *identity.NameRewriter
	Mailmap         *identity.MailmapRewriter

	PathFilter filechange.Filter

	BranchRenameOld, BranchRenameNew string
	TagRenameOld, TagRenameNew       string

	UpdatedRefs      *tagref.RefSet
	AnnotatedTagRefs *tagref.RefSet
	RenameLog        *tagref.RenameLog

	EmittedMarks *commitgraph.EmittedMarks
	Aliases      *commitgraph.AliasTable
	BlobSizes    *filechange.BlobSizeTable

	// CommitRecords records every commit finalizeCommit decided on, kept or
	// pruned, in stream order, so internal/finalize can build a commit-map
	// row for every input commit: a kept commit resolves through its mark
	// to the new oid fast-import reports, a pruned one maps straight to
	// the all-zero oid.
	CommitRecords []finalize.CommitRecord

	// Counters tallies everything spec.md §4.7's report wants: blobs
	// stripped/modified, commits kept/pruned, path-compat events. Never
	// nil; NewTransformer allocates it.
	Counters *report.Counters

	stripIDs map[string]bool
}

// NewTransformer builds a Transformer from resolved options, wiring every
// sub-engine from the parsed rule/mailmap/rename files.
func NewTransformer(o options.Options) *Transformer {
	t := &Transformer{
		Opts:             o,
		UpdatedRefs:      tagref.NewRefSet(),
		AnnotatedTagRefs: tagref.NewRefSet(),
		RenameLog:        tagref.NewRenameLog(),
		EmittedMarks:     commitgraph.NewEmittedMarks(),
		Aliases:          commitgraph.NewAliasTable(),
		BlobSizes:        filechange.NewBlobSizeTable(),
		Counters:         &report.Counters{},
		stripIDs:         make(map[string]bool),
	}
	for _, id := range o.StripBlobsWithIDs {
		t.stripIDs[id] = true
	}
	if o.BranchRename != nil {
		t.BranchRenameOld, t.BranchRenameNew = o.BranchRename.Old, o.BranchRename.New
	}
	if o.TagRename != nil {
		t.TagRenameOld, t.TagRenameNew = o.TagRename.Old, o.TagRename.New
	}
	var pathRenames []pathfilter.RenameRule
	for _, r := range o.PathRenames {
		pathRenames = append(pathRenames, pathfilter.RenameRule{Old: []byte(r.Old), New: []byte(r.New)})
	}
	t.PathFilter = filechange.Filter{
		Predicate: buildPredicate(o),
		Renames:   pathRenames,
	}
	return t
}

func buildPredicate(o options.Options) pathfilter.Predicate {
	var p pathfilter.Predicate
	for _, s := range o.Paths {
		p.Paths = append(p.Paths, []byte(s))
	}
	for _, s := range o.PathGlobs {
		p.Globs = append(p.Globs, []byte(s))
	}
	p.Regexes = o.CompiledRegexes
	p.Invert = o.InvertPaths
	return p
}

// Run drives the full dispatch loop, reading fast-export records from r and
// writing the rewritten fast-import stream to w, the Go analogue of
// reposurgeon's StreamParser-driven main loop in surgeon/inner.go.
func (t *Transformer) Run(r *stream.Reader, w io.Writer) error {
	for {
		line, err := r.Line()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("pipeline: reading stream: %w", err)
		}

		switch stream.Classify(line) {
		case stream.DirBlob:
			if err := t.processBlob(r, w); err != nil {
				return err
			}
		case stream.DirCommit:
			if err := t.processCommit(r, line, w); err != nil {
				return err
			}
		case stream.DirTag:
			if err := t.processTag(r, line, w); err != nil {
				return err
			}
		case stream.DirReset:
			if err := t.processReset(r, line, w); err != nil {
				return err
			}
		case stream.DirDone:
			io.WriteString(w, "done\n")
			return nil
		default:
			io.WriteString(w, string(line))
		}
	}
}

func (t *Transformer) processBlob(r *stream.Reader, w io.Writer) error {
	var mark int64
	hasMark := false
	var originalOID string

	for {
		line, err := r.Line()
		if err != nil {
			return fmt.Errorf("pipeline: reading blob record: %w", err)
		}
		switch {
		case bytes.HasPrefix(line, []byte("mark :")):
			mark, hasMark = parseTrailingInt(line, "mark :")
		case bytes.HasPrefix(line, []byte("original-oid ")):
			originalOID = strings.TrimSuffix(string(line[len("original-oid "):]), "\n")
		case bytes.HasPrefix(line, []byte("data ")):
			n, err := stream.ParseDataHeader(line, effectiveCeiling(t.Opts))
			if err != nil {
				return err
			}
			data, err := r.ReadDataBlock(n)
			if err != nil {
				return err
			}
			out := t.rewriteBlobData(data)
			if hasMark {
				t.BlobSizes.Record(mark, originalOID, int64(len(out)))
			}
			io.WriteString(w, "blob\n")
			if hasMark {
				fmt.Fprintf(w, "mark :%d\n", mark)
			}
			fmt.Fprintf(w, "data %d\n", len(out))
			w.Write(out)
			io.WriteString(w, "\n")
			return nil
		default:
			// Unrecognized line inside a blob record; pass through rather
			// than dropping potentially meaningful data.
			w.Write(line)
		}
	}
}

func (t *Transformer) rewriteBlobData(data []byte) []byte {
	if t.BlobReplacer == nil || t.BlobReplacer.IsEmpty() {
		return data
	}
	if int64(len(data)) > blob.StreamingThreshold && t.BlobReplacer.SupportsStreaming() {
		st := t.BlobReplacer.NewStreamState()
		st.Write(data)
		out, changed := st.Finish()
		if changed {
			t.Counters.RecordBlobModified()
		}
		return out
	}
	out, changed := t.BlobReplacer.Apply(data)
	if changed {
		t.Counters.RecordBlobModified()
	}
	return out
}

// shouldDropBlobReference reports whether a Modify line referencing mark
// should be dropped entirely because the blob exceeds --max-blob-size or
// matches --strip-blobs-with-ids, recording which rule triggered for the
// final report.
func (t *Transformer) shouldDropBlobReference(mark int64) bool {
	if t.BlobSizes.ExceedsMaxSize(mark, t.Opts.MaxBlobSize) {
		t.Counters.RecordBlobStripped(false)
		return true
	}
	if t.BlobSizes.MatchesStripID(mark, t.stripIDs) {
		t.Counters.RecordBlobStripped(true)
		return true
	}
	return false
}

func (t *Transformer) processCommit(r *stream.Reader, commitLine []byte, w io.Writer) error {
	headerLine, _ := tagref.RewriteCommitHeaderRef(commitLine,
		t.BranchRenameOld, t.BranchRenameNew, t.TagRenameOld, t.TagRenameNew, t.RenameLog)

	var mark int64
	hasMark := false
	var originalOID string
	var identityLines [][]byte
	var msgBody []byte
	var parents []commitgraph.ParentLine
	var preDataLines [][]byte
	var fileLines [][]byte
	hasChanges := false
	wasMerge := false
	dataSeen := false

	emit := func(line []byte) { identityLines = append(identityLines, line) }

	for {
		line, err := r.Line()
		if err != nil {
			return fmt.Errorf("pipeline: reading commit record: %w", err)
		}

		switch {
		case bytes.Equal(line, []byte("\n")):
			return t.finalizeCommit(w, finalizeInput{
				header: headerLine, mark: mark, hasMark: hasMark, originalOID: originalOID,
				identityLines: identityLines, message: msgBody,
				parents: parents, preDataLines: preDataLines, fileLines: fileLines,
				hasChanges: hasChanges, wasMerge: wasMerge,
			})

		case bytes.HasPrefix(line, []byte("mark :")):
			mark, hasMark = parseTrailingInt(line, "mark :")

		case bytes.HasPrefix(line, []byte("original-oid ")):
			originalOID = strings.TrimSuffix(string(line[len("original-oid "):]), "\n")

		case bytes.HasPrefix(line, []byte("author ")) || bytes.HasPrefix(line, []byte("committer ")) || bytes.HasPrefix(line, []byte("tagger ")):
			rewritten := t.rewriteIdentityLine(line)
			emit(rewritten)

		case bytes.HasPrefix(line, []byte("data ")):
			n, err := stream.ParseDataHeader(line, effectiveCeiling(t.Opts))
			if err != nil {
				return err
			}
			body, err := r.ReadDataBlock(n)
			if err != nil {
				return err
			}
			msgBody, _ = rewriteMessage(body, t.MessageReplacer, t.ShortHashes)
			dataSeen = true

		case bytes.HasPrefix(line, []byte("from :")):
			mk, _ := parseTrailingInt(line, "from :")
			parents = append(parents, commitgraph.ParentLine{Kind: commitgraph.KindFrom, HasMark: true, Mark: mk})

		case bytes.HasPrefix(line, []byte("merge :")):
			mk, _ := parseTrailingInt(line, "merge :")
			parents = append(parents, commitgraph.ParentLine{Kind: commitgraph.KindMerge, HasMark: true, Mark: mk})
			wasMerge = true

		case bytes.HasPrefix(line, []byte("from ")):
			oid := strings.TrimSuffix(string(line[len("from "):]), "\n")
			parents = append(parents, commitgraph.ParentLine{Kind: commitgraph.KindFrom, RawOID: oid})

		case bytes.HasPrefix(line, []byte("merge ")):
			oid := strings.TrimSuffix(string(line[len("merge "):]), "\n")
			parents = append(parents, commitgraph.ParentLine{Kind: commitgraph.KindMerge, RawOID: oid})
			wasMerge = true

		case isFileChangeLine(line):
			fc, err := filechange.ParseLine(line)
			if err != nil {
				return err
			}
			if fc.Kind == filechange.KindModify {
				if mk, ok := parseMarkRef(fc.Ref); ok && t.shouldDropBlobReference(mk) {
					continue
				}
			}
			outcome, err := filechange.Apply(fc, t.PathFilter, t.encodePath)
			if err != nil {
				return err
			}
			if outcome.Line != nil {
				fileLines = append(fileLines, outcome.Line)
				hasChanges = true
			}

		default:
			// Other commit lines (encoding, gpgsig, and anything else a
			// future git version adds): buffer as-is rather than treating
			// them as a malformed file-change line, mirroring commit.rs's
			// "other commit lines: buffer as-is". Lines seen before the
			// data block (e.g. encoding) must stay ahead of it; anything
			// after goes out with the file changes, preserving each
			// line's original position relative to data.
			if dataSeen {
				fileLines = append(fileLines, line)
			} else {
				preDataLines = append(preDataLines, line)
			}
		}
	}
}

type finalizeInput struct {
	header        []byte
	mark          int64
	hasMark       bool
	originalOID   string
	identityLines [][]byte
	message       []byte
	parents       []commitgraph.ParentLine
	preDataLines  [][]byte
	fileLines     [][]byte
	hasChanges    bool
	wasMerge      bool
}

func (t *Transformer) finalizeCommit(w io.Writer, in finalizeInput) error {
	finalParents := commitgraph.FinalizeParentLines(in.parents, t.EmittedMarks, t.Aliases)

	hasFirstParentMark := len(in.parents) > 0 && in.parents[0].HasMark
	isDegenerate := in.wasMerge && len(finalParents) <= 1

	keep := commitgraph.ShouldKeepCommit(commitgraph.KeepDecisionInput{
		CommitHasChanges:   in.hasChanges,
		HasFirstParentMark: hasFirstParentMark,
		HasCommitMark:      in.hasMark,
		ParentCount:        len(finalParents),
		WasMerge:           in.wasMerge,
		IsDegenerate:       isDegenerate,
		NoFF:               t.Opts.NoFF,
		PruneEmpty:         t.Opts.PruneEmpty,
		PruneDegenerate:    t.Opts.PruneDegenerate,
	})

	t.Counters.RecordCommitDecision(keep)

	if !keep {
		if in.originalOID != "" {
			t.CommitRecords = append(t.CommitRecords, finalize.CommitRecord{OriginalOID: in.originalOID, Kept: false})
		}
		if in.hasMark && len(in.parents) > 0 && in.parents[0].HasMark {
			parentMark := t.Aliases.ResolveCanonicalMark(in.parents[0].Mark)
			t.Aliases.Set(in.mark, parentMark)
			io.WriteString(w, commitgraph.BuildAliasDirective(in.mark, parentMark))
		}
		return nil
	}

	if in.hasMark {
		t.EmittedMarks.Add(in.mark)
		if in.originalOID != "" {
			t.CommitRecords = append(t.CommitRecords, finalize.CommitRecord{OriginalOID: in.originalOID, Mark: in.mark, Kept: true})
		}
	}

	w.Write(in.header)
	if in.hasMark {
		fmt.Fprintf(w, "mark :%d\n", in.mark)
	}
	for _, l := range in.identityLines {
		w.Write(l)
	}
	for _, l := range in.preDataLines {
		w.Write(l)
	}
	fmt.Fprintf(w, "data %d\n", len(in.message))
	w.Write(in.message)
	io.WriteString(w, "\n")
	for _, p := range finalParents {
		io.WriteString(w, p)
	}
	for _, l := range in.fileLines {
		w.Write(l)
	}
	io.WriteString(w, "\n")
	return nil
}

func (t *Transformer) processTag(r *stream.Reader, tagLine []byte, w io.Writer) error {
	block, err := tagref.ReadBlock(r, tagLine, effectiveCeiling(t.Opts))
	if err != nil {
		return err
	}
	out, keep, err := tagref.Process(block, t.TagRenameOld, t.TagRenameNew,
		t.UpdatedRefs, t.AnnotatedTagRefs, t.RenameLog, t.MessageReplacer, t.ShortHashes)
	if err != nil {
		return err
	}
	if keep {
		w.Write(out)
	}
	return nil
}

func (t *Transformer) processReset(r *stream.Reader, resetLine []byte, w io.Writer) error {
	rewritten, _, isTagReset := tagref.ProcessResetHeader(resetLine, t.TagRenameOld, t.TagRenameNew, t.RenameLog)
	if !isTagReset {
		// Branch reset: apply branch rename the same way a commit header is
		// rewritten, then pass through untouched otherwise.
		renamedLine, changed := tagref.RewriteCommitHeaderRef(
			bytes.Replace(resetLine, []byte("reset "), []byte("commit "), 1),
			t.BranchRenameOld, t.BranchRenameNew, "", "", t.RenameLog)
		if changed {
			renamedLine = bytes.Replace(renamedLine, []byte("commit "), []byte("reset "), 1)
			w.Write(renamedLine)
		} else {
			w.Write(resetLine)
		}
		return t.passthroughOptionalFrom(r, w)
	}

	w.Write(rewritten)
	return t.passthroughOptionalFrom(r, w)
}

func (t *Transformer) passthroughOptionalFrom(r *stream.Reader, w io.Writer) error {
	from, err := tagref.CaptureFollowingFrom(r)
	if err != nil {
		return err
	}
	if from != nil {
		w.Write(from)
	}
	return nil
}

func (t *Transformer) rewriteIdentityLine(line []byte) []byte {
	if !t.Mailmap.IsEmpty() {
		if out, changed := t.Mailmap.RewriteLine(line); changed {
			return out
		}
	}
	if !t.AuthorRewriter.IsEmpty() {
		if out, changed := t.AuthorRewriter.Rewrite(line); changed {
			return out
		}
	}
	return line
}

func (t *Transformer) encodePath(path []byte) ([]byte, *pathfilter.CompatEvent, error) {
	platformAware := t.Opts.PlatformAwareResolved(false)
	rewritten, event, err := pathfilter.ApplyCompatPolicy(path, t.Opts.PathCompat, platformAware)
	if err != nil {
		return nil, nil, err
	}
	if event != nil {
		t.Counters.RecordPathCompatEvent(*event)
	}
	if rewritten == nil {
		return nil, event, nil
	}
	return pathfilter.EncodeForFastImport(rewritten), event, nil
}

func rewriteMessage(body []byte, replacer *message.Replacer, hashes *message.ShortHashMapper) ([]byte, bool) {
	return message.Rewrite(body, replacer, hashes)
}

// isFileChangeLine reports whether line is one of the five file-change
// forms filechange.ParseLine understands (M/D/C/R/deleteall), so the commit
// dispatch loop can tell a real file-change line from any other commit-body
// line (encoding, gpgsig, ...) that should just be buffered as-is.
func isFileChangeLine(line []byte) bool {
	switch {
	case bytes.Equal(line, []byte("deleteall\n")):
		return true
	case bytes.HasPrefix(line, []byte("M ")):
		return true
	case bytes.HasPrefix(line, []byte("D ")):
		return true
	case bytes.HasPrefix(line, []byte("C ")):
		return true
	case bytes.HasPrefix(line, []byte("R ")):
		return true
	default:
		return false
	}
}

func effectiveCeiling(o options.Options) int64 {
	if o.DataSizeCeiling > 0 {
		return o.DataSizeCeiling
	}
	return options.DefaultDataSizeCeiling
}

func parseTrailingInt(line []byte, prefix string) (int64, bool) {
	if !bytes.HasPrefix(line, []byte(prefix)) {
		return 0, false
	}
	rest := bytes.TrimSuffix(line[len(prefix):], []byte("\n"))
	n, err := strconv.ParseInt(string(rest), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseMarkRef(ref string) (int64, bool) {
	if !strings.HasPrefix(ref, ":") {
		return 0, false
	}
	n, err := strconv.ParseInt(ref[1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
