package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chunker splits raw text into an ordered sequence of overlapping chunks.
// Splitting is deterministic: the same text and configuration always yield
// the same chunk sequence, which keeps content hashes stable across runs.
type Chunker struct {
	chunkSize     int
	chunkOverlap  int
	minChunkChars int
}

func NewChunker(chunkSize, chunkOverlap, minChunkChars int) *Chunker {
	return &Chunker{
		chunkSize:     chunkSize,
		chunkOverlap:  chunkOverlap,
		minChunkChars: minChunkChars,
	}
}

// Split walks the text in chunkSize windows, cutting at the nearest sentence
// or whitespace boundary at or before the window end. Each chunk after the
// first starts chunkOverlap units before its predecessor's end. A trailing
// remainder shorter than the quality floor is merged into the previous chunk
// instead of being emitted on its own; any chunk still below the floor after
// merging is discarded, so a document whose whole text is below the floor
// yields no chunks at all.
func (c *Chunker) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.chunkSize {
		if len(runes) < c.minChunkChars {
			return nil
		}
		return []string{string(runes)}
	}

	type span struct{ start, end int }
	var spans []span

	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = c.cutPoint(runes, start, end)
		}

		spans = append(spans, span{start, end})
		if end >= len(runes) {
			break
		}

		next := end - c.chunkOverlap
		if next <= start {
			// Overlap would stall the walk; move forward regardless.
			next = end
		}
		start = next
	}

	// Merge a below-floor trailing remainder into its predecessor so no
	// near-empty chunk is ever emitted.
	if n := len(spans); n > 1 {
		last := spans[n-1]
		if trimmedLen(runes[last.start:last.end]) < c.minChunkChars {
			spans[n-2].end = last.end
			spans = spans[:n-1]
		}
	}

	chunks := make([]string, 0, len(spans))
	for _, s := range spans {
		chunk := strings.TrimSpace(string(runes[s.start:s.end]))
		if utf8.RuneCountInString(chunk) < c.minChunkChars {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// cutPoint finds the boundary to cut at, searching backwards from limit for
// a sentence end, then any whitespace, before falling back to a hard cut.
// The search never retreats past the midpoint of the window, so a boundary
// starved text still makes progress.
func (c *Chunker) cutPoint(runes []rune, start, limit int) int {
	floor := start + (limit-start)/2

	for i := limit - 1; i > floor; i-- {
		if isSentenceEnd(runes[i]) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}
	for i := limit - 1; i > floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return limit
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '\n':
		return true
	}
	return false
}

func trimmedLen(runes []rune) int {
	return utf8.RuneCountInString(strings.TrimSpace(string(runes)))
}
