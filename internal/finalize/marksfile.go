// Package finalize handles the post-import bookkeeping a filter-repo-go run
// performs once git fast-import has finished: pairing the marks file it
// wrote against the original-oid annotations captured during streaming to
// produce an old-oid -> new-oid commit map, writing a ref-rename map, and
// the repository-pointer housekeeping (HEAD, origin remote, origin/*
// remote-tracking migration) reposurgeon's teacher stack leaves to plain
// os/exec calls against git itself, grounded on
// filter-repo-rs/src/migrate.rs.
package finalize

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseMarksFile reads the ":<mark> <oid>\n" pairs git fast-import writes to
// its --export-marks path, returning a mark -> new-oid map. Lines that
// don't match the expected shape are skipped rather than treated as fatal,
// since a marks file may also carry blob marks we have no use for here.
func ParseMarksFile(path string) (map[int64]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("finalize: opening marks file %s: %w", path, err)
	}
	defer f.Close()

	out := make(map[int64]string)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, ":") {
			continue
		}
		fields := strings.SplitN(line[1:], " ", 2)
		if len(fields) != 2 {
			continue
		}
		mark, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			continue
		}
		out[mark] = strings.TrimSpace(fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("finalize: reading marks file %s: %w", path, err)
	}
	return out, nil
}
