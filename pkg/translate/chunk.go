package translate

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkBytes keeps each request well under DeepL's 128 KiB body limit.
const DefaultMaxChunkBytes = 80000

// chunkBoundaries are closing tags after which a cut cannot split an
// element's text, in order of preference.
var chunkBoundaries = []string{"</section>", "</article>", "</div>", "</p>"}

// SplitChunks splits html into pieces of at most maxBytes bytes whose
// concatenation is exactly html. Cuts land right after the last block
// closing tag that fits; when none fits, the cut is made at the bound,
// moved back to a rune boundary and before any unterminated tag.
func SplitChunks(html string, maxBytes int) []string {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxChunkBytes
	}

	var chunks []string
	rest := html
	for len(rest) > maxBytes {
		idx := cutIndex(rest, maxBytes)
		chunks = append(chunks, rest[:idx])
		rest = rest[idx:]
	}
	return append(chunks, rest)
}

func cutIndex(s string, maxBytes int) int {
	window := s[:maxBytes]
	for _, sep := range chunkBoundaries {
		if i := strings.LastIndex(window, sep); i > 0 {
			return i + len(sep)
		}
	}

	idx := maxBytes
	for idx > 0 && !utf8.RuneStart(s[idx]) {
		idx--
	}
	// do not leave a half tag at the end of the chunk
	if open := strings.LastIndexByte(s[:idx], '<'); open > 0 && open > strings.LastIndexByte(s[:idx], '>') {
		idx = open
	}
	if idx == 0 {
		// a single rune or tag larger than the bound; cut anyway to make progress
		idx = maxBytes
	}
	return idx
}
