package tagref

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cactusinhand/filter-repo-go/internal/message"
	"github.com/cactusinhand/filter-repo-go/internal/stream"
)

// Block is one buffered "tag <name> ... data N <message>" record.
type Block struct {
	Name        string
	HeaderLines [][]byte // every line between "tag <name>" and "data N", verbatim
	Message     []byte
}

// ReadBlock reads a tag record's headers and message payload following its
// "tag <name>\n" line, which the caller has already consumed.
func ReadBlock(r *stream.Reader, tagLine []byte, ceiling int64) (Block, error) {
	name := strings.TrimSuffix(strings.TrimPrefix(string(tagLine), "tag "), "\n")
	var headers [][]byte
	for {
		line, err := r.Line()
		if err != nil {
			return Block{}, fmt.Errorf("tagref: reading tag %q headers: %w", name, err)
		}
		if bytes.HasPrefix(line, []byte("data ")) {
			n, err := stream.ParseDataHeader(line, ceiling)
			if err != nil {
				return Block{}, err
			}
			data, err := r.ReadDataBlock(n)
			if err != nil {
				return Block{}, err
			}
			return Block{Name: name, HeaderLines: headers, Message: data}, nil
		}
		headers = append(headers, append([]byte(nil), line...))
	}
}

// Process rewrites and deduplicates one annotated tag block:
//   - applies the tag-rename prefix to the tag's name;
//   - looks up "refs/tags/<renamed-name>" in updatedRefs — if already
//     present (a prior tag, after its own rename, landed on the same ref),
//     the whole block is silently dropped, matching
//     filter-repo-rs/src/tag.rs's precheck_duplicate_tag;
//   - otherwise records the ref in updatedRefs/annotatedTagRefs, logs the
//     rename if any, rewrites the tag message through replacer/hashes, and
//     returns the serialized "tag ... data N ..." block to emit.
func Process(b Block, tagOld, tagNew string, updatedRefs, annotatedTagRefs *RefSet, log *RenameLog, replacer *message.Replacer, hashes *message.ShortHashMapper) ([]byte, bool, error) {
	newName := b.Name
	if tagOld != "" {
		if renamed, changed := renameTagName(b.Name, tagOld, tagNew); changed {
			newName = renamed
		}
	}
	targetRef := "refs/tags/" + newName

	if updatedRefs.Contains(targetRef) {
		return nil, false, nil
	}
	updatedRefs.Add(targetRef)
	annotatedTagRefs.Add(targetRef)
	if newName != b.Name {
		log.Record("refs/tags/"+b.Name, targetRef)
	}

	body, _ := message.Rewrite(b.Message, replacer, hashes)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tag %s\n", newName)
	for _, h := range b.HeaderLines {
		buf.Write(h)
	}
	fmt.Fprintf(&buf, "data %d\n", len(body))
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), true, nil
}

func renameTagName(name, old, new string) (string, bool) {
	if !strings.HasPrefix(name, old) {
		return name, false
	}
	rest := name[len(old):]
	renamed := new + rest
	return renamed, renamed != name
}
