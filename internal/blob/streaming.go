package blob

import "github.com/cactusinhand/filter-repo-go/internal/ahocorasick"

// ApplyStreaming rewrites data using only the automaton-backed literal
// rules, processing it as a sequence of chunks and carrying the last
// (MaxPatternLen-1) bytes across each chunk boundary so a pattern split
// across two chunks still matches. It is the Go analogue of
// message.rs's try_stream_replace_all_with, used by internal/pipeline when
// a blob payload exceeds StreamingThreshold. Regex/glob rules are not
// supported in streaming mode (regexp.Regexp has no incremental API), so
// SupportsStreaming must be checked by the caller first; when regex/glob
// rules are also configured, the caller should fall back to buffering the
// whole payload and calling Apply instead.
func (r *Replacer) ApplyStreaming(chunks [][]byte) ([]byte, bool) {
	st := r.NewStreamState()
	if st == nil {
		var out []byte
		for _, c := range chunks {
			out = append(out, c...)
		}
		return out, false
	}
	for _, c := range chunks {
		st.Write(c)
	}
	return st.Finish()
}

// StreamState supports true incremental (bounded-memory) application over
// an arbitrary sequence of reader-supplied chunks, re-emitting matched
// spans as they complete and holding back only the undecided tail.
type StreamState struct {
	automaton *ahocorasick.Automaton
	repls     [][]byte
	state     ahocorasick.State
	pos       int
	pending   []byte // bytes read but not yet known to be outside any match
	out       []byte
	changed   bool
}

// NewStreamState begins an incremental streaming application using r's
// automaton. Returns nil if r has no automaton (caller should buffer and
// call Apply instead).
func (r *Replacer) NewStreamState() *StreamState {
	if r.automaton == nil {
		return nil
	}
	return &StreamState{automaton: r.automaton, repls: r.replacements, state: r.automaton.Start()}
}

// Write feeds the next chunk of input into the streaming matcher, appending
// any bytes now known to be final (not part of a still-open match) to the
// internal output buffer.
func (s *StreamState) Write(chunk []byte) {
	for _, b := range chunk {
		next, m, ok := s.automaton.StepAt(s.state, b, s.pos)
		s.pending = append(s.pending, b)
		s.pos++
		s.state = next
		if ok {
			matchLenFromEnd := len(s.pending) - (m.End - m.Start)
			if matchLenFromEnd < 0 {
				matchLenFromEnd = 0
			}
			s.out = append(s.out, s.pending[:matchLenFromEnd]...)
			s.out = append(s.out, s.repls[m.Pattern]...)
			s.pending = s.pending[:0]
			s.state = s.automaton.Start()
			s.changed = true
		}
	}
	maxLen := s.automaton.MaxPatternLen()
	if maxLen > 0 && len(s.pending) > maxLen*2 {
		keep := maxLen
		flush := len(s.pending) - keep
		s.out = append(s.out, s.pending[:flush]...)
		s.pending = append([]byte(nil), s.pending[flush:]...)
	}
}

// Finish flushes any remaining undecided bytes and returns the full
// rewritten output plus whether any replacement occurred.
func (s *StreamState) Finish() ([]byte, bool) {
	s.out = append(s.out, s.pending...)
	s.pending = nil
	return s.out, s.changed
}
