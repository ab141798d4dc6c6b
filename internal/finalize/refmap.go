package finalize

import (
	"bufio"
	"fmt"
	"os"

	"github.com/cactusinhand/filter-repo-go/internal/tagref"
)

// WriteRefMap writes every recorded branch/tag rename from log as
// "<old-refname> <new-refname>\n" lines to path, the ref-rename-map artifact
// alongside the commit map, in the order the renames were first observed.
func WriteRefMap(path string, log *tagref.RenameLog) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("finalize: creating ref map %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range log.Entries() {
		if _, err := fmt.Fprintf(w, "%s %s\n", e.Old, e.New); err != nil {
			return fmt.Errorf("finalize: writing ref map %s: %w", path, err)
		}
	}
	return w.Flush()
}
