package message

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// shortHashRegex matches any run of 7 to 40 hex digits on a word boundary,
// the same permissive net filter-repo-rs/src/message.rs's ShortHashMapper
// casts before resolving each candidate against the commit map.
var shortHashRegex = regexp.MustCompile(`(?i)\b[0-9a-f]{7,40}\b`)

const zeroOID = "0000000000000000000000000000000000000000"

// ShortHashMapper rewrites commit-hash references inside message bodies
// (full or abbreviated) to the new hash a commit was rewritten to, using the
// debug-dir commit-map produced by a previous run or the current one.
// Entries whose new oid is the all-zero placeholder (the commit was pruned)
// are never indexed, so a short hash referencing one is simply left alone,
// matching the original's "null/pruned targets not substituted" behavior.
type ShortHashMapper struct {
	lookup      map[string]string   // lowercased 40-hex old oid -> new oid
	prefixIndex map[string][]string // lowercased 7-hex prefix -> candidate old oids
	cache       map[string]string   // lowercased candidate -> resolved replacement
}

// NewShortHashMapper returns an empty mapper; entries are added with
// UpdateMapping as commits are rewritten.
func NewShortHashMapper() *ShortHashMapper {
	return &ShortHashMapper{
		lookup:      make(map[string]string),
		prefixIndex: make(map[string][]string),
		cache:       make(map[string]string),
	}
}

// FromCommitMapFile loads a debug-dir "commit-map" file: one
// "old_oid new_oid" pair per line, with new_oid == zeroOID marking a pruned
// commit. Returns (nil, nil) if the file does not exist or is empty,
// matching the original's from_debug_dir.
func FromCommitMapFile(path string) (*ShortHashMapper, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("message: opening commit map %s: %w", path, err)
	}
	defer f.Close()

	m := NewShortHashMapper()
	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		m.UpdateMapping(fields[0], fields[1])
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("message: reading commit map %s: %w", path, err)
	}
	if count == 0 {
		return nil, nil
	}
	return m, nil
}

// UpdateMapping records that oldFull was rewritten to newFull, or does
// nothing if newFull is the all-zero pruned placeholder. Invalidates the
// whole translation cache, mirroring the original's update_mapping (simpler
// than tracking which cached entries the new mapping could affect).
func (m *ShortHashMapper) UpdateMapping(oldFull, newFull string) {
	oldFull = strings.ToLower(oldFull)
	newFull = strings.ToLower(newFull)
	if newFull == zeroOID {
		return
	}
	if _, exists := m.lookup[oldFull]; !exists && len(oldFull) >= 7 {
		prefix := oldFull[:7]
		m.prefixIndex[prefix] = append(m.prefixIndex[prefix], oldFull)
	}
	m.lookup[oldFull] = newFull
	for k := range m.cache {
		delete(m.cache, k)
	}
}

// Rewrite replaces every hex-hash-looking substring with its mapped
// replacement, trimmed to the same length as the match, and reports whether
// anything changed.
func (m *ShortHashMapper) Rewrite(data []byte) ([]byte, bool) {
	if m == nil || len(m.lookup) == 0 {
		return data, false
	}
	changed := false
	out := shortHashRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		repl, ok := m.translate(string(match))
		if !ok {
			return match
		}
		changed = true
		return []byte(repl)
	})
	return out, changed
}

func (m *ShortHashMapper) translate(candidate string) (string, bool) {
	key := strings.ToLower(candidate)
	if cached, ok := m.cache[key]; ok {
		return cached, cached != ""
	}

	var full string
	var ok bool
	if len(key) == 40 {
		full, ok = m.lookup[key]
	} else {
		full, ok = m.lookupPrefix(key)
	}

	if !ok {
		m.cache[key] = ""
		return "", false
	}

	result := full
	if len(result) > len(candidate) {
		result = result[:len(candidate)]
	}
	m.cache[key] = result
	return result, true
}

// lookupPrefix resolves an abbreviated hash by scanning the candidates
// sharing its first 7 hex characters and requiring exactly one whose full
// oid has candidate as a prefix; more than one match is ambiguous and is
// left unresolved, matching the original's lookup_prefix.
func (m *ShortHashMapper) lookupPrefix(candidate string) (string, bool) {
	if len(candidate) < 7 {
		return "", false
	}
	bucket := m.prefixIndex[candidate[:7]]
	var matched string
	count := 0
	for _, oldFull := range bucket {
		if strings.HasPrefix(oldFull, candidate) {
			matched = oldFull
			count++
		}
	}
	if count != 1 {
		return "", false
	}
	return m.lookup[matched], true
}
