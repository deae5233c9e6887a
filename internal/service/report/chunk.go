package report

import (
	"iter"
	"strings"
)

// Chunk splits text into pieces of at most maxChunkSize bytes, cutting only
// after a newline. Concatenating the pieces gives back text exactly. A single
// line longer than maxChunkSize is emitted whole as an oversized piece.
// A non-positive maxChunkSize yields the text as one piece.
//
// The returned sequence is lazy and can be ranged over any number of times.
func Chunk(text string, maxChunkSize int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if maxChunkSize <= 0 {
			if text != "" {
				yield(text)
			}
			return
		}

		start, end := 0, 0
		for end < len(text) {
			lineEnd := len(text)
			if i := strings.IndexByte(text[end:], '\n'); i >= 0 {
				lineEnd = end + i + 1
			}

			if lineEnd-start > maxChunkSize && end > start {
				if !yield(text[start:end]) {
					return
				}
				start = end
			}
			end = lineEnd
		}

		if end > start {
			yield(text[start:end])
		}
	}
}

// ChunkAll collects Chunk into a slice.
func ChunkAll(text string, maxChunkSize int) []string {
	var chunks []string
	for chunk := range Chunk(text, maxChunkSize) {
		chunks = append(chunks, chunk)
	}
	return chunks
}
