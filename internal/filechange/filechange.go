// Package filechange parses and rewrites the file-change lines nested
// inside a commit block (M/D/C/R/deleteall), applying path filtering,
// renaming, and platform-compatibility encoding to each, grounded on
// filter-repo-rs/src/filechange.rs.
package filechange

import (
	"bytes"
	"fmt"

	"github.com/cactusinhand/filter-repo-go/internal/pathfilter"
	"github.com/cactusinhand/filter-repo-go/internal/stream"
)

// Kind distinguishes the five file-change operations a fast-export stream
// can emit inside a commit.
type Kind int

const (
	KindDeleteAll Kind = iota
	KindModify
	KindDelete
	KindCopy
	KindRename
)

// FileChange is one parsed file-change line.
type FileChange struct {
	Kind Kind

	Mode string // Modify only, e.g. "100644"
	Ref  string // Modify only: ":N" mark reference, "inline", or a raw oid
	Path []byte // Modify, Delete

	Src []byte // Copy, Rename
	Dst []byte // Copy, Rename
}

// ParseLine parses one file-change line (without its header already
// consumed). Mirrors filter-repo-rs/src/filechange.rs's
// parse_file_change_line.
func ParseLine(line []byte) (FileChange, error) {
	switch {
	case bytes.Equal(line, []byte("deleteall\n")):
		return FileChange{Kind: KindDeleteAll}, nil
	case len(line) > 0 && line[0] == 'M':
		return parseModify(line)
	case len(line) > 0 && line[0] == 'D':
		return parseDelete(line)
	case len(line) > 0 && line[0] == 'C':
		return parseCopyOrRename(line, KindCopy)
	case len(line) > 0 && line[0] == 'R':
		return parseCopyOrRename(line, KindRename)
	default:
		return FileChange{}, fmt.Errorf("filechange: unrecognized file-change line %q", truncate(line))
	}
}

func parseModify(line []byte) (FileChange, error) {
	rest := dropPrefix(line, "M ")
	mode, rest, ok := readSpaceToken(rest)
	if !ok {
		return FileChange{}, fmt.Errorf("filechange: malformed M line %q", truncate(line))
	}
	ref, rest, ok := readSpaceToken(rest)
	if !ok {
		return FileChange{}, fmt.Errorf("filechange: malformed M line %q", truncate(line))
	}
	path, remainder, ok := stream.ParsePathToken(rest)
	if !ok || !stream.IsLineEnd(remainder) {
		return FileChange{}, fmt.Errorf("filechange: malformed M path in %q", truncate(line))
	}
	return FileChange{Kind: KindModify, Mode: string(mode), Ref: string(ref), Path: path}, nil
}

func parseDelete(line []byte) (FileChange, error) {
	rest := dropPrefix(line, "D ")
	path, remainder, ok := stream.ParsePathToken(rest)
	if !ok || !stream.IsLineEnd(remainder) {
		return FileChange{}, fmt.Errorf("filechange: malformed D line %q", truncate(line))
	}
	return FileChange{Kind: KindDelete, Path: path}, nil
}

func parseCopyOrRename(line []byte, kind Kind) (FileChange, error) {
	prefix := "C "
	if kind == KindRename {
		prefix = "R "
	}
	rest := dropPrefix(line, prefix)
	src, rest, ok := stream.ParsePathToken(rest)
	if !ok || len(rest) == 0 {
		return FileChange{}, fmt.Errorf("filechange: malformed %s line %q", prefix[:1], truncate(line))
	}
	rest = rest[1:] // consume the separating space
	dst, remainder, ok := stream.ParsePathToken(rest)
	if !ok || !stream.IsLineEnd(remainder) {
		return FileChange{}, fmt.Errorf("filechange: malformed %s line %q", prefix[:1], truncate(line))
	}
	return FileChange{Kind: kind, Src: src, Dst: dst}, nil
}

func readSpaceToken(b []byte) (tok, rest []byte, ok bool) {
	for i, c := range b {
		if c == ' ' {
			return b[:i], b[i+1:], true
		}
	}
	return nil, nil, false
}

func dropPrefix(line []byte, prefix string) []byte {
	if bytes.HasPrefix(line, []byte(prefix)) {
		return line[len(prefix):]
	}
	return line
}

func truncate(line []byte) []byte {
	const max = 80
	if len(line) > max {
		return line[:max]
	}
	return line
}

// Filter bundles every path-level rewrite a file-change line may need:
// keep/drop selection, ordered renaming, and platform-compat encoding.
type Filter struct {
	Predicate pathfilter.Predicate
	Renames   []pathfilter.RenameRule
}

// Outcome is the result of applying a Filter to one FileChange: either the
// rewritten line to emit, or nothing if the change was dropped, plus any
// platform-compat events observed along the way.
type Outcome struct {
	Line         []byte // nil if the change is dropped
	CompatEvents []pathfilter.CompatEvent
}

// Apply filters and rewrites fc, producing the fast-import line to emit (or
// a dropped Outcome). policy/platformAware/encodePath govern platform
// compatibility the same way filter-repo-rs/src/filechange.rs's
// handle_file_change_line does.
func Apply(fc FileChange, f Filter, encodePath func([]byte) ([]byte, *pathfilter.CompatEvent, error)) (Outcome, error) {
	switch fc.Kind {
	case KindDeleteAll:
		return Outcome{Line: []byte("deleteall\n")}, nil

	case KindModify:
		if !f.Predicate.ShouldKeep(fc.Path) {
			return Outcome{}, nil
		}
		path := pathfilter.RewritePath(fc.Path, f.Renames)
		encoded, event, err := encodePath(path)
		if err != nil {
			return Outcome{}, err
		}
		if encoded == nil {
			return outcomeWithEvent(event), nil
		}
		line := append([]byte("M "+fc.Mode+" "+fc.Ref+" "), encoded...)
		line = append(line, '\n')
		return outcomeWithEvent(event, line), nil

	case KindDelete:
		if !f.Predicate.ShouldKeep(fc.Path) {
			return Outcome{}, nil
		}
		path := pathfilter.RewritePath(fc.Path, f.Renames)
		encoded, event, err := encodePath(path)
		if err != nil {
			return Outcome{}, err
		}
		if encoded == nil {
			return outcomeWithEvent(event), nil
		}
		line := append([]byte("D "), encoded...)
		line = append(line, '\n')
		return outcomeWithEvent(event, line), nil

	case KindCopy, KindRename:
		srcKeep := f.Predicate.ShouldKeep(fc.Src)
		dstKeep := f.Predicate.ShouldKeep(fc.Dst)
		if !srcKeep && !dstKeep {
			return Outcome{}, nil
		}
		src := pathfilter.RewritePath(fc.Src, f.Renames)
		dst := pathfilter.RewritePath(fc.Dst, f.Renames)
		encSrc, ev1, err := encodePath(src)
		if err != nil {
			return Outcome{}, err
		}
		encDst, ev2, err := encodePath(dst)
		if err != nil {
			return Outcome{}, err
		}
		var events []pathfilter.CompatEvent
		if ev1 != nil {
			events = append(events, *ev1)
		}
		if ev2 != nil {
			events = append(events, *ev2)
		}
		if encSrc == nil || encDst == nil {
			return Outcome{CompatEvents: events}, nil
		}
		prefix := "C "
		if fc.Kind == KindRename {
			prefix = "R "
		}
		line := append([]byte(prefix), encSrc...)
		line = append(line, ' ')
		line = append(line, encDst...)
		line = append(line, '\n')
		return Outcome{Line: line, CompatEvents: events}, nil

	default:
		return Outcome{}, fmt.Errorf("filechange: unknown change kind %d", fc.Kind)
	}
}

func outcomeWithEvent(event *pathfilter.CompatEvent, line ...[]byte) Outcome {
	o := Outcome{}
	if len(line) > 0 {
		o.Line = line[0]
	}
	if event != nil {
		o.CompatEvents = []pathfilter.CompatEvent{*event}
	}
	return o
}
