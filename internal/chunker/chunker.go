// Package chunker splits extracted text into overlapping, boundary-aware
// chunks sized for embedding.
package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 800 // characters
	DefaultChunkOverlap = 100 // characters
)

// Splitter cuts text into chunks of at most ChunkSize characters, each
// overlapping its predecessor by roughly Overlap characters. Splitting is a
// pure function of its inputs.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Splitter{ChunkSize: chunkSize, Overlap: overlap}
}

// Split returns the ordered chunks of text. Windows prefer to end on a
// paragraph break, then a single newline, so lines are not severed when a
// natural boundary is nearby. Chunks are trimmed, never empty, and never
// cut through a multi-byte rune.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if len(text) <= s.ChunkSize {
		return []string{strings.TrimSpace(text)}
	}

	var chunks []string
	textLen := len(text)
	start := 0

	for start < textLen {
		end := start + s.ChunkSize
		if end > textLen {
			end = textLen
		} else {
			// Sizes are in bytes; a hard edge must not split a rune.
			end = runeFloor(text, end)
		}

		// Shrink the window to a natural boundary, but only one that lies
		// strictly past the overlap region so the next window still advances.
		if end < textLen {
			boundary := -1
			if lastDouble := strings.LastIndex(text[start:end], "\n\n"); lastDouble >= 0 && start+lastDouble > start+s.Overlap {
				boundary = start + lastDouble + 2
			} else if lastNewline := strings.LastIndex(text[start+s.Overlap:end], "\n"); lastNewline > 0 {
				boundary = start + s.Overlap + lastNewline + 1
			}
			if boundary > start {
				end = boundary
			}
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		// Always move forward; a tiny window near the end could otherwise
		// leave start stuck.
		next := end - s.Overlap
		if next > 0 && next < textLen {
			next = runeFloor(text, next)
		}
		if next <= start {
			step := s.ChunkSize - s.Overlap
			if step < 1 {
				step = 1
			}
			next = start + step
			// Forward here, never back: backing up could stall the loop.
			for next < textLen && !utf8.RuneStart(text[next]) {
				next++
			}
		}
		start = next
	}

	if len(chunks) == 0 {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}
	return chunks
}

// runeFloor backs i up to the nearest rune boundary at or before it.
func runeFloor(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
