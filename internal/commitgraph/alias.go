package commitgraph

// AliasTable maps the mark of a commit dropped by pruning to the mark of
// the nearest surviving ancestor it should be treated as, mirroring the
// fast-import "alias" directive filter-repo-rs/src/commit.rs emits instead
// of trying to patch every downstream `from`/`merge` line in place.
type AliasTable struct {
	toParent map[int64]int64
}

// NewAliasTable returns an empty alias table.
func NewAliasTable() *AliasTable {
	return &AliasTable{toParent: make(map[int64]int64)}
}

// Set records that oldMark, once dropped, should resolve to parentMark.
func (a *AliasTable) Set(oldMark, parentMark int64) {
	a.toParent[oldMark] = parentMark
}

// BuildAliasDirective formats the fast-import "alias" stanza used to tell
// git-fast-import that oldMark now refers to the same commit as
// parentMark, matching filter-repo-rs/src/commit.rs's build_alias.
func BuildAliasDirective(oldMark, parentMark int64) string {
	return fmtAlias(oldMark, parentMark)
}

func fmtAlias(oldMark, parentMark int64) string {
	return "alias\nmark :" + itoa(oldMark) + "\nto :" + itoa(parentMark) + "\n\n"
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// ResolveCanonicalMark walks the alias chain starting at mark until it
// reaches a mark with no further alias (or one that was actually emitted),
// breaking cycles with a visited set exactly as
// filter-repo-rs/src/commit.rs's resolve_canonical_mark does.
func (a *AliasTable) ResolveCanonicalMark(mark int64) int64 {
	seen := map[int64]bool{}
	cur := mark
	for {
		if seen[cur] {
			return cur
		}
		seen[cur] = true
		next, ok := a.toParent[cur]
		if !ok {
			return cur
		}
		cur = next
	}
}
