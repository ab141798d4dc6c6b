// Package stream implements byte-accurate reading of a git fast-export
// stream: line-at-a-time reads with one line of pushback, and the "data N"
// framing used for blob/commit-message/tag-message payloads. The buffered
// reader plus explicit pushback line mirrors reposurgeon's StreamParser
// (surgeon/inner.go's read/readline/pushback/fiReadData), adapted from its
// single mutable struct into a value that holds no other pipeline state.
package stream

import (
	"bufio"
	"fmt"
	"io"
)

// DefaultDataSizeCeiling is the fallback maximum size accepted for a single
// "data N" block, matching filter-repo-rs/src/limits.rs's
// MAX_DATA_BLOCK_SIZE. Options.DataSizeCeiling overrides this per run.
const DefaultDataSizeCeiling = 500 * 1024 * 1024

// Reader reads lines and data blocks from a fast-export stream, with one
// line of pushback so callers can peek a line, decide it belongs to the
// next directive, and hand it back.
type Reader struct {
	src      *bufio.Reader
	pushed   []byte
	hasPush  bool
	lineNo   int64
	ceiling  int64
}

// NewReader wraps r with the framing conventions of a fast-export stream.
// ceiling bounds "data N" blocks; a non-positive value uses
// DefaultDataSizeCeiling.
func NewReader(r io.Reader, ceiling int64) *Reader {
	if ceiling <= 0 {
		ceiling = DefaultDataSizeCeiling
	}
	return &Reader{src: bufio.NewReaderSize(r, 64*1024), ceiling: ceiling}
}

// Line returns the next line, including its trailing '\n' (absent only at
// EOF on an unterminated final line). io.EOF is returned once no more bytes
// remain and there is nothing pushed back.
func (r *Reader) Line() ([]byte, error) {
	if r.hasPush {
		line := r.pushed
		r.pushed = nil
		r.hasPush = false
		return line, nil
	}
	line, err := r.src.ReadBytes('\n')
	if len(line) == 0 && err != nil {
		return nil, err
	}
	r.lineNo++
	if err != nil && err != io.EOF {
		return nil, err
	}
	return line, nil
}

// Pushback returns a line to the reader so the next Line call yields it
// again. At most one line may be pushed back at a time.
func (r *Reader) Pushback(line []byte) {
	r.pushed = line
	r.hasPush = true
}

// LineNumber reports the count of lines consumed so far, for error
// messages.
func (r *Reader) LineNumber() int64 {
	return r.lineNo
}

// ParseDataHeader parses a "data N\n" header line and returns N, validating
// it against the configured ceiling before any allocation is attempted
// (filter-repo-rs/src/limits.rs's parse_data_size_header: the check happens
// before the read, not after).
func ParseDataHeader(line []byte, ceiling int64) (int64, error) {
	const prefix = "data "
	if len(line) < len(prefix) || string(line[:len(prefix)]) != prefix {
		return 0, fmt.Errorf("stream: expected \"data N\" header, got %q", truncateForError(line))
	}
	rest := line[len(prefix):]
	for len(rest) > 0 && (rest[len(rest)-1] == '\n' || rest[len(rest)-1] == '\r') {
		rest = rest[:len(rest)-1]
	}
	if len(rest) == 0 {
		return 0, fmt.Errorf("stream: empty data size in header %q", truncateForError(line))
	}
	var n int64
	for _, c := range rest {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("stream: non-numeric data size in header %q", truncateForError(line))
		}
		n = n*10 + int64(c-'0')
		if n > ceiling {
			return 0, fmt.Errorf("stream: data block size %d exceeds ceiling %d", n, ceiling)
		}
	}
	return n, nil
}

// ReadDataBlock reads exactly n bytes of payload following a "data N"
// header, plus the single trailing newline fast-export always appends after
// inline (non-delimited) data.
func (r *Reader) ReadDataBlock(n int64) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.src, buf); err != nil {
		return nil, fmt.Errorf("stream: reading %d-byte data block: %w", n, err)
	}
	var nl [1]byte
	if _, err := io.ReadFull(r.src, nl[:]); err != nil {
		return nil, fmt.Errorf("stream: reading data block trailing newline: %w", err)
	}
	if nl[0] != '\n' {
		return nil, fmt.Errorf("stream: expected newline after %d-byte data block, got %q", n, nl[0])
	}
	return buf, nil
}

func truncateForError(line []byte) []byte {
	const max = 80
	if len(line) > max {
		return line[:max]
	}
	return line
}
