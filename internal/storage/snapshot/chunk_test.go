package snapshot

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertChunks(t *testing.T, text string, limit int, chunks []string) {
	t.Helper()

	require.Equal(t, text, Join(chunks), "join(chunk(t)) must equal t")

	effective := limit
	if effective < utf8.UTFMax {
		effective = utf8.UTFMax
	}
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), effective, "chunk %d too long", i)
		assert.NotEmpty(t, c, "chunk %d empty", i)
		if utf8.ValidString(text) {
			assert.True(t, utf8.ValidString(c), "chunk %d splits a rune: %q", i, c)
		}
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"empty", "", 10, []string{}},
		{"shorter than limit", "abc", 10, []string{"abc"}},
		{"exact limit", "abcd", 4, []string{"abcd"}},
		{"ascii split", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		// "é" is 2 bytes: a 5-byte limit cannot end after the 3rd byte.
		{"two byte runes", "ééé", 5, []string{"éé", "é"}},
		{"four byte runes", "😀😀", 5, []string{"😀", "😀"}},
		{"limit raised to rune width", "😀😀", 1, []string{"😀", "😀"}},
		{"mixed", "a😀b", 4, []string{"a", "😀", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(tt.text, tt.limit)
			assert.Equal(t, tt.want, got)
			assertChunks(t, tt.text, tt.limit, got)
		})
	}
}

func TestChunk_NaiveByteSplitWouldCorrupt(t *testing.T) {
	// 1999 ASCII bytes followed by a 3-byte rune: a byte-position split at
	// 2000 would cut the rune in half.
	text := strings.Repeat("a", 1999) + "✓" + "tail"

	chunks := Chunk(text, 2000)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 1999)
	assert.True(t, strings.HasPrefix(chunks[1], "✓"))
	assertChunks(t, text, 2000, chunks)
}

func TestChunk_InvalidUTF8(t *testing.T) {
	text := string([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80})

	chunks := Chunk(text, 4)
	assert.Equal(t, []string{text[:4], text[4:8], text[8:]}, chunks)
	assert.Equal(t, text, Join(chunks))
}

func TestChunk_Property(t *testing.T) {
	alphabet := []rune{'a', 'z', '{', '"', 'é', 'ß', '✓', '値', '😀', '𝄞'}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		var sb strings.Builder
		n := rng.Intn(300)
		for j := 0; j < n; j++ {
			sb.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}
		text := sb.String()
		limit := rng.Intn(40)

		assertChunks(t, text, limit, Chunk(text, limit))
	}
}
