package chunker

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSplitter(t *testing.T) {
	t.Run("defaults on zero size", func(t *testing.T) {
		s := NewSplitter(0, -5)
		assert.Equal(t, DefaultChunkSize, s.ChunkSize)
		assert.Equal(t, 0, s.Overlap)
	})

	t.Run("overlap clamped below chunk size", func(t *testing.T) {
		s := NewSplitter(100, 150)
		assert.Less(t, s.Overlap, s.ChunkSize)
		assert.Equal(t, 50, s.Overlap)
	})
}

func TestSplit_EmptyAndShort(t *testing.T) {
	s := NewSplitter(100, 20)

	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\t  "))

	chunks := s.Split("short text")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplit_ChunkSizeRespected(t *testing.T) {
	s := NewSplitter(100, 20)
	text := strings.Repeat("abcdefghij", 100)

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqualf(t, len(c), s.ChunkSize, "chunk %d exceeds size", i)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	s := NewSplitter(100, 20)
	para1 := strings.Repeat("a", 60)
	para2 := strings.Repeat("b", 80)
	text := para1 + "\n\n" + para2

	chunks := s.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, para1, chunks[0])
	assert.False(t, strings.Contains(chunks[0], "b"))
}

func TestSplit_FallsBackToNewlineBoundary(t *testing.T) {
	s := NewSplitter(100, 20)
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString(strings.Repeat("x", 9))
		b.WriteString("\n")
	}
	chunks := s.Split(b.String())
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		// Boundary-aware windows never sever a line.
		for _, line := range strings.Split(c, "\n") {
			assert.LessOrEqual(t, len(line), 9)
		}
	}
}

func TestSplit_AllContentCovered(t *testing.T) {
	s := NewSplitter(120, 30)
	words := make([]string, 200)
	for i := range words {
		words[i] = "word" + strings.Repeat("x", i%7)
	}
	text := strings.Join(words, "\n")

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)

	// Overlapping windows mean every line of the input appears in some chunk.
	joined := strings.Join(chunks, "\n")
	for _, line := range strings.Split(text, "\n") {
		assert.Contains(t, joined, line)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s := NewSplitter(80, 15)
	text := strings.Repeat("the quick brown fox\n", 50)

	first := s.Split(text)
	second := s.Split(text)
	assert.Equal(t, first, second)
}

func TestSplit_TerminatesOnPathologicalInput(t *testing.T) {
	// No newlines at all, overlap near chunk size. The forced step keeps the
	// loop advancing.
	s := NewSplitter(10, 9)
	text := strings.Repeat("z", 500)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.NotEmpty(t, c)
		assert.LessOrEqual(t, len(c), 10)
	}
}

func TestSplit_MultibyteRuneBoundaries(t *testing.T) {
	// Newline-poor accented prose: hard window edges land mid-rune unless
	// they are backed up to a boundary first.
	s := NewSplitter(101, 20)
	text := strings.Repeat("é", 400)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.Truef(t, utf8.ValidString(c), "chunk %d is not valid UTF-8: %q", i, c)
		assert.NotEmpty(t, c)
	}
	assert.Contains(t, strings.Join(chunks, ""), "ééé")
}

func TestSplit_MultibyteForcedAdvance(t *testing.T) {
	// Three-byte runes with overlap forcing the minimal step; the forced
	// advance must move forward to the next rune boundary, not into one.
	s := NewSplitter(10, 9)
	text := strings.Repeat("世", 100)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.Truef(t, utf8.ValidString(c), "chunk %d is not valid UTF-8", i)
	}
}

func TestSplit_MultibyteSurvivesJSON(t *testing.T) {
	s := NewSplitter(101, 20)
	text := strings.Repeat("é", 400)

	for _, c := range s.Split(text) {
		data, err := json.Marshal(c)
		require.NoError(t, err)
		var back string
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, c, back)
	}
}

func TestSplit_WhitespaceOnlyWindows(t *testing.T) {
	s := NewSplitter(50, 10)
	text := strings.Repeat("a", 40) + strings.Repeat(" ", 200) + strings.Repeat("b", 40)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}
