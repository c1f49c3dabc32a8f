package indexer

import (
	"strings"
	"unicode"
)

const (
	// DefaultChunkMaxLength is the default maximum chunk length in characters.
	DefaultChunkMaxLength = 1000
	// DefaultChunkOverlap is the default number of characters shared by consecutive chunks.
	DefaultChunkOverlap = 200

	sentenceLookback = 100
	wordLookback     = 50
)

// Segmenter splits document text into overlapping, boundary-aware chunks.
type Segmenter struct {
	MaxLength int
	Overlap   int
}

// NewSegmenter creates a segmenter. Non-positive maxLength falls back to the default.
func NewSegmenter(maxLength, overlap int) *Segmenter {
	if maxLength <= 0 {
		maxLength = DefaultChunkMaxLength
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Segmenter{MaxLength: maxLength, Overlap: overlap}
}

// Split segments text with the segmenter's configured lengths.
func (s *Segmenter) Split(text string) []Chunk {
	return Segment(text, s.MaxLength, s.Overlap)
}

// Segment splits text into chunks of at most maxLength characters.
//
// Each cut prefers a sentence end (one of ".!?" followed by whitespace or end
// of text) within the last 100 characters of the window, then whitespace within
// the last 50, and only then cuts mid-word. Offsets are rune offsets into text
// and describe the untrimmed span. The next window starts at
// max(start+1, cut-overlap), so start offsets are strictly increasing.
func Segment(text string, maxLength, overlap int) []Chunk {
	if maxLength < 1 {
		maxLength = 1
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(text)
	n := len(runes)
	chunks := []Chunk{}

	start := 0
	for start < n {
		end := start + maxLength
		if end < n {
			end = findCut(runes, start, end)
		}

		spanEnd := min(end, n)
		trimmed := strings.TrimSpace(string(runes[start:spanEnd]))
		if trimmed != "" {
			chunks = append(chunks, Chunk{
				Index:     len(chunks),
				Text:      trimmed,
				StartChar: start,
				EndChar:   spanEnd,
			})
		}

		// The unclamped end is used here so the final window does not leave a
		// trail of ever-shorter suffix chunks behind it.
		start = max(start+1, end-overlap)
	}

	return chunks
}

// findCut returns the cut point for the window [start, end) where end < len(runes).
func findCut(runes []rune, start, end int) int {
	window := end - start

	for i := 0; i < min(sentenceLookback, window); i++ {
		pos := end - i - 1
		if pos <= start {
			break
		}
		if isSentenceTerminal(runes[pos]) && (pos+1 >= len(runes) || unicode.IsSpace(runes[pos+1])) {
			return pos + 1
		}
	}

	for i := 0; i < min(wordLookback, window); i++ {
		pos := end - i - 1
		if pos <= start {
			break
		}
		if unicode.IsSpace(runes[pos]) {
			return pos
		}
	}

	return end
}

func isSentenceTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
