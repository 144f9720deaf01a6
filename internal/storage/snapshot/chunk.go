package snapshot

import (
	"strings"
	"unicode/utf8"
)

// Chunk splits text into pieces of at most maxLen bytes whose in-order
// concatenation is text. Pieces end on rune boundaries; maxLen below
// utf8.UTFMax is raised to utf8.UTFMax so that every rune fits. Invalid
// UTF-8 is split at the byte limit. Empty text yields no chunks.
func Chunk(text string, maxLen int) []string {
	if maxLen < utf8.UTFMax {
		maxLen = utf8.UTFMax
	}

	chunks := make([]string, 0, len(text)/maxLen+1)
	for len(text) > maxLen {
		cut := maxLen
		for i := 0; i < utf8.UTFMax-1 && !utf8.RuneStart(text[cut]); i++ {
			cut--
		}
		if !utf8.RuneStart(text[cut]) {
			cut = maxLen
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// Join concatenates chunks in order.
func Join(chunks []string) string {
	return strings.Join(chunks, "")
}
