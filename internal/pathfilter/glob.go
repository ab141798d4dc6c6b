package pathfilter

// GlobMatchBytes reports whether name matches pattern using git pathspec
// glob semantics: '*' matches any run of bytes except '/', '?' matches a
// single non-'/' byte, and '**' (optionally followed by '/') matches any
// run of bytes including across '/' boundaries. There is no implicit
// anchor: callers that want a whole-path match pass the full pattern and
// full path. Ported from filter-repo-rs/src/pathutil.rs's glob_match_bytes.
func GlobMatchBytes(pattern, name []byte) bool {
	return matchFrom(pattern, name)
}

func matchFrom(pattern, name []byte) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			if len(pattern) >= 2 && pattern[1] == '*' {
				rest := pattern[2:]
				if len(rest) > 0 && rest[0] == '/' {
					rest = rest[1:]
				}
				// "**" matches zero or more bytes, including '/'.
				for i := 0; i <= len(name); i++ {
					if matchFrom(rest, name[i:]) {
						return true
					}
				}
				return false
			}
			rest := pattern[1:]
			// '*' matches zero or more bytes but never crosses '/'.
			for i := 0; i <= len(name) && !containsSlash(name[:i]); i++ {
				if matchFrom(rest, name[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(name) == 0 || name[0] == '/' {
				return false
			}
			pattern = pattern[1:]
			name = name[1:]
		default:
			if len(name) == 0 || name[0] != pattern[0] {
				return false
			}
			pattern = pattern[1:]
			name = name[1:]
		}
	}
	return len(name) == 0
}

func containsSlash(b []byte) bool {
	for _, c := range b {
		if c == '/' {
			return true
		}
	}
	return false
}
