package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paragraph(n int, word string) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(word)
		b.WriteString(" ")
	}
	return b.String()[:n]
}

func TestNewSplitterValidation(t *testing.T) {
	_, err := NewSplitter(0, 0)
	require.Error(t, err)
	_, err = NewSplitter(100, 100)
	require.Error(t, err)
	_, err = NewSplitter(100, -1)
	require.Error(t, err)
	s, err := NewSplitter(DefaultSize, DefaultOverlap)
	require.NoError(t, err)
	assert.Equal(t, 4000, s.Size())
	assert.Equal(t, 150, s.Overlap())
}

func TestSplitNineThousandCharsIntoThreeChunks(t *testing.T) {
	p1 := paragraph(2998, "alpha") + "\n\n"
	p2 := paragraph(2998, "bravo") + "\n\n"
	p3 := paragraph(3000, "charlie")
	text := p1 + p2 + p3
	require.Equal(t, 9000, utf8.RuneCountInString(text))

	s, err := NewSplitter(4000, 150)
	require.NoError(t, err)
	chunks := s.Split(text)

	require.Len(t, chunks, 3)
	assert.Equal(t, p1, chunks[0].Text)
	assert.Equal(t, p2, chunks[1].Text)
	assert.Equal(t, p3, chunks[2].Text)
	assert.Equal(t, 3000, chunks[1].Start)
	assert.Equal(t, 9000, chunks[2].End)
}

func TestSplitPreservesTextAndRespectsBudget(t *testing.T) {
	text := strings.Repeat("The participant described the clinic. ", 40) + "\n\n" +
		strings.Repeat("Nurses listened carefully\n", 30) + "\n\n" +
		strings.Repeat("ünïcödé wörds här ", 50)
	runes := []rune(text)

	for _, cfg := range []struct{ size, overlap int }{
		{50, 0}, {50, 10}, {120, 30}, {400, 150}, {4000, 150},
	} {
		s, err := NewSplitter(cfg.size, cfg.overlap)
		require.NoError(t, err)
		chunks := s.Split(text)
		require.NotEmpty(t, chunks)

		assert.Equal(t, text, Join(chunks), "size=%d overlap=%d", cfg.size, cfg.overlap)
		assert.Equal(t, 0, chunks[0].Start)
		assert.Equal(t, len(runes), chunks[len(chunks)-1].End)
		for i, c := range chunks {
			assert.Equal(t, i, c.Index)
			assert.Equal(t, string(runes[c.Start:c.End]), c.Text)
			assert.LessOrEqual(t, c.End-c.Start, cfg.size, "chunk %d too long", i)
			if i > 0 {
				prev := chunks[i-1]
				assert.LessOrEqual(t, c.Start, prev.End, "gap before chunk %d", i)
				assert.LessOrEqual(t, prev.End-c.Start, cfg.overlap, "overlap too large at chunk %d", i)
				assert.Greater(t, c.End, prev.End)
			}
		}
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	text := "First paragraph line one.\nline two.\n\nSecond paragraph."
	s, err := NewSplitter(40, 0)
	require.NoError(t, err)
	chunks := s.Split(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "First paragraph line one.\nline two.\n\n", chunks[0].Text)
	assert.Equal(t, "Second paragraph.", chunks[1].Text)
}

func TestSplitCutsAtAnySentenceEnd(t *testing.T) {
	text := "Did the nurse listen to you? She did! Then I went home."
	s, err := NewSplitter(30, 0)
	require.NoError(t, err)
	chunks := s.Split(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Did the nurse listen to you?", chunks[0].Text)
	assert.Equal(t, " She did! Then I went home.", chunks[1].Text)
	assert.Equal(t, text, Join(chunks))
}

func TestSplitEmitsUnsplittableUnitWhole(t *testing.T) {
	long := strings.Repeat("x", 75)
	text := "short words here " + long + " tail"
	s, err := NewSplitter(20, 5)
	require.NoError(t, err)
	chunks := s.Split(text)

	assert.Equal(t, text, Join(chunks))
	found := false
	for _, c := range chunks {
		if strings.Contains(c.Text, long) {
			found = true
			assert.LessOrEqual(t, c.End-c.Start, len(long)+1)
		} else {
			assert.LessOrEqual(t, c.End-c.Start, 20)
		}
	}
	assert.True(t, found)
}

func TestSplitIsDeterministic(t *testing.T) {
	text := strings.Repeat("Sentence one. Sentence two.\n", 200)
	s, err := NewSplitter(300, 40)
	require.NoError(t, err)
	assert.Equal(t, s.Split(text), s.Split(text))
	assert.Nil(t, s.Split(""))
}
