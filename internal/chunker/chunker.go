// Package chunker splits document text into overlapping windows sized for an
// LLM context. Offsets are rune (code point) offsets into the source text.
package chunker

import (
	"fmt"
	"strings"
)

const (
	DefaultSize    = 4000
	DefaultOverlap = 150
)

// DefaultSeparators in priority order: paragraph, line, sentence end, word.
// Separators within one level are equally preferred.
var DefaultSeparators = [][]string{{"\n\n"}, {"\n"}, {".", "?", "!"}, {" "}}

// Chunk is a contiguous slice of the source: Text == source[Start:End] in runes.
type Chunk struct {
	Index int    `json:"index"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

type Splitter struct {
	size       int
	overlap    int
	separators [][][]rune
}

func NewSplitter(size, overlap int) (*Splitter, error) {
	return NewSplitterWithSeparators(size, overlap, DefaultSeparators)
}

func NewSplitterWithSeparators(size, overlap int, separators [][]string) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	seps := make([][][]rune, 0, len(separators))
	for _, level := range separators {
		var alts [][]rune
		for _, sep := range level {
			if sep != "" {
				alts = append(alts, []rune(sep))
			}
		}
		if len(alts) > 0 {
			seps = append(seps, alts)
		}
	}
	return &Splitter{size: size, overlap: overlap, separators: seps}, nil
}

func (s *Splitter) Size() int    { return s.size }
func (s *Splitter) Overlap() int { return s.overlap }

type span struct{ start, end int }

func (p span) len() int { return p.end - p.start }

// Split returns the ordered chunks of text. Empty text yields no chunks.
func (s *Splitter) Split(text string) []Chunk {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	pieces := s.pieces(runes, span{0, len(runes)}, 0, nil)
	windows := s.merge(pieces)

	out := make([]Chunk, 0, len(windows))
	for i, w := range windows {
		out = append(out, Chunk{Index: i, Start: w.start, End: w.end, Text: string(runes[w.start:w.end])})
	}
	return out
}

// pieces breaks sp into contiguous units no longer than the size budget,
// descending to a harder separator only for units that are still too long.
// A unit with none of the remaining separators is emitted whole.
func (s *Splitter) pieces(runes []rune, sp span, level int, out []span) []span {
	if sp.len() <= s.size || level >= len(s.separators) {
		return append(out, sp)
	}
	parts := splitKeep(runes, sp, s.separators[level])
	if len(parts) == 1 {
		return s.pieces(runes, sp, level+1, out)
	}
	for _, p := range parts {
		if p.len() <= s.size {
			out = append(out, p)
			continue
		}
		out = s.pieces(runes, p, level+1, out)
	}
	return out
}

// splitKeep cuts sp after every occurrence of any of seps, so each separator
// stays at the end of the unit it terminates.
func splitKeep(runes []rune, sp span, seps [][]rune) []span {
	var parts []span
	start := sp.start
	for i := sp.start; i < sp.end; {
		if n := matchAt(runes, i, sp.end, seps); n > 0 {
			end := i + n
			parts = append(parts, span{start, end})
			start = end
			i = end
			continue
		}
		i++
	}
	if start < sp.end {
		parts = append(parts, span{start, sp.end})
	}
	return parts
}

// matchAt returns the length of the first of seps found at i, or 0.
func matchAt(runes []rune, i, end int, seps [][]rune) int {
	for _, sep := range seps {
		if i+len(sep) <= end && hasPrefixAt(runes, i, sep) {
			return len(sep)
		}
	}
	return 0
}

func hasPrefixAt(runes []rune, i int, sep []rune) bool {
	for j, r := range sep {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}

// merge packs consecutive pieces into windows of at most size runes, carrying
// up to overlap runes of trailing pieces into the next window.
func (s *Splitter) merge(pieces []span) []span {
	var (
		out    []span
		window []span
		total  int
	)
	for _, p := range pieces {
		if len(window) > 0 && total+p.len() > s.size {
			out = append(out, span{window[0].start, window[len(window)-1].end})
			for len(window) > 0 && (total > s.overlap || total+p.len() > s.size) {
				total -= window[0].len()
				window = window[1:]
			}
		}
		window = append(window, p)
		total += p.len()
	}
	if len(window) > 0 {
		out = append(out, span{window[0].start, window[len(window)-1].end})
	}
	return out
}

// Join reconstructs the source from chunks produced by Split.
func Join(chunks []Chunk) string {
	var b strings.Builder
	covered := 0
	for _, c := range chunks {
		runes := []rune(c.Text)
		if c.End <= covered {
			continue
		}
		skip := covered - c.Start
		if skip < 0 {
			skip = 0
		}
		b.WriteString(string(runes[skip:]))
		covered = c.End
	}
	return b.String()
}
