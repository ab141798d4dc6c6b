package stream

import "bytes"

// Directive identifies the kind of top-level record a fast-export stream
// line begins.
type Directive int

const (
	DirUnknown Directive = iota
	DirBlob
	DirCommit
	DirTag
	DirReset
	DirCheckpoint
	DirProgress
	DirFeature
	DirOption
	DirAlias
	DirDone
)

var prefixes = []struct {
	b []byte
	d Directive
}{
	{[]byte("blob\n"), DirBlob},
	{[]byte("commit "), DirCommit},
	{[]byte("tag "), DirTag},
	{[]byte("reset "), DirReset},
	{[]byte("checkpoint"), DirCheckpoint},
	{[]byte("progress "), DirProgress},
	{[]byte("feature "), DirFeature},
	{[]byte("option "), DirOption},
	{[]byte("alias\n"), DirAlias},
	{[]byte("done"), DirDone},
}

// Classify returns the Directive a top-level line begins, or DirUnknown for
// anything else (including file-change/header continuation lines, which
// only ever appear nested inside a commit/tag block and are parsed by their
// own packages).
func Classify(line []byte) Directive {
	for _, p := range prefixes {
		if bytes.HasPrefix(line, p.b) {
			return p.d
		}
	}
	return DirUnknown
}
