package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("just a short note", 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "just a short note", chunks[0])
}

func TestSplitTextEmptyAndWhitespace(t *testing.T) {
	assert.Empty(t, SplitText("", 1000, 200))
	assert.Empty(t, SplitText("   \n\t  ", 1000, 200))
}

func TestSplitTextSentenceBoundaries(t *testing.T) {
	// 2500 characters with sentence terminators at 799, 1399 and 1999 and nowhere
	// else. Each full window's last terminator sits at 80% of the window, so every
	// chunk but the last is cut there.
	raw := []byte(strings.Repeat("abcdefghij", 250))
	raw[799], raw[1399], raw[1999] = '.', '.', '.'
	text := string(raw)

	chunks := SplitText(text, 1000, 200)
	require.Len(t, chunks, 4)

	assert.Equal(t, text[0:800], chunks[0])
	assert.Equal(t, text[600:1400], chunks[1])
	assert.Equal(t, text[1200:2000], chunks[2])
	assert.Equal(t, text[1800:2500], chunks[3])

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 1000, "chunk %d exceeds the window size", i)
	}

	// Adjacent chunks share the overlap region.
	for i := 0; i < len(chunks)-1; i++ {
		tail := chunks[i][len(chunks[i])-200:]
		head := chunks[i+1][:200]
		assert.Equal(t, tail, head, "chunks %d and %d do not overlap", i, i+1)
	}
}

func TestSplitTextReconstruction(t *testing.T) {
	// Without terminators or whitespace no trimming happens, so dropping each
	// chunk's leading overlap and concatenating must reproduce the input.
	text := strings.Repeat("abcdefghijklmnopqrstuvwxy", 137) // 3425 chars
	size, overlap := 400, 80

	chunks := SplitText(text, size, overlap)
	require.NotEmpty(t, chunks)

	var sb strings.Builder
	sb.WriteString(chunks[0])
	for _, chunk := range chunks[1:] {
		require.Greater(t, len(chunk), overlap)
		sb.WriteString(chunk[overlap:])
	}
	assert.Equal(t, text, sb.String())
}

func TestSplitTextNoEmptyChunks(t *testing.T) {
	text := "First sentence here.\n\n\n   \nSecond one over there. And a third, longer sentence to push past the window."
	for _, chunk := range SplitText(text, 40, 10) {
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplitTextOverlapClamped(t *testing.T) {
	// overlap >= size must not produce a non-advancing walk.
	text := strings.Repeat("a", 100)
	chunks := SplitText(text, 10, 10)
	require.NotEmpty(t, chunks)
	assert.Less(t, len(chunks), 100)
}

func TestSplitTextAlwaysAdvances(t *testing.T) {
	// Terminators placed so the trimmed end minus the overlap would land at or
	// before the window start; the walk must still terminate.
	text := strings.Repeat("abcdefg.ij", 50)
	chunks := SplitText(text, 10, 8)
	require.NotEmpty(t, chunks)
	assert.Less(t, len(chunks), len(text))
}
