package services

import "strings"

const (
	// DefaultChunkSize is the window size in characters for splitting text.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is how many characters adjacent chunks share.
	DefaultChunkOverlap = 200

	// boundaryFraction is how far into the window a sentence boundary must fall to
	// be used as the cut point. Earlier boundaries would produce degenerate tiny
	// chunks, so they are ignored and the window is cut at full size instead.
	boundaryFraction = 0.7
)

// SplitText walks text in windows of size characters and returns the resulting
// chunks in document order. When a window does not reach the end of the text, the
// chunk is trimmed back to the last sentence terminator ('.' or newline) found past
// 70% of the window, so chunks tend to end on sentence boundaries. Each following
// window starts overlap characters before the previous window's end.
//
// Whitespace-only chunks are dropped. An overlap >= size is clamped so the walk
// always advances; the start index strictly increases every iteration.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < n {
		end := start + size
		if end > n {
			end = n
		}

		if end < n {
			if cut := lastBoundary(runes[start:end]); cut >= 0 && float64(cut) >= boundaryFraction*float64(end-start) {
				end = start + cut + 1
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= n {
			break
		}
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// lastBoundary returns the index of the last sentence terminator in window, or -1.
func lastBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}
