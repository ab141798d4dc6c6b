package pipeline

import (
	"errors"
	"io"
	"syscall"

	"golang.org/x/sys/unix"
)

// IsBrokenPipe reports whether err represents the importer having closed
// its stdin (EPIPE/SIGPIPE equivalents), which happens when git fast-import
// exits early — e.g. it rejected the stream outright, or (in --dry-run
// tooling built on this pipeline) it was never meant to consume the whole
// export. Classifying this separately from a generic write error mirrors
// spec.md §5's broken-pipe graceful-shutdown requirement and uses
// golang.org/x/sys/unix the way the rest of the ecosystem pack does for
// syscall-errno inspection rather than string-matching err.Error().
func IsBrokenPipe(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == unix.EPIPE
	}
	return false
}
