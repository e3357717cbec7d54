package seo

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dasmlab/lengua/pkg/locale"
)

var (
	// verbatimRx matches regions whose text must never be touched.
	verbatimRx = regexp.MustCompile(`(?is)<!--.*?-->|<script\b.*?</script>|<style\b.*?</style>|<pre\b.*?</pre>|<code\b.*?</code>|<textarea\b.*?</textarea>`)

	leadingLowerRx = regexp.MustCompile(`<(?i:h[1-4]|li|p)(?:\s[^>]*)?>\s*\p{Ll}`)

	// tagRx keeps attribute values out of the French spacing rules.
	tagRx = regexp.MustCompile(`<[^>]*>`)

	frSpaceBeforeRx = regexp.MustCompile(`[ \t\r\n]+([;:?!»])`)
	frSpaceAfterRx  = regexp.MustCompile(`«[ \t\r\n]+`)
)

const nbsp = "\u00a0"

// Typography normalizes text outside verbatim regions: headings, paragraphs
// and list items start with a capital letter, and French gets non-breaking
// spaces around high punctuation and guillemets.
func Typography(doc string, l locale.Locale) string {
	return mapOutside(doc, verbatimRx, func(s string) string {
		return tidy(s, l)
	})
}

func tidy(s string, l locale.Locale) string {
	s = leadingLowerRx.ReplaceAllStringFunc(s, capitalizeLast)
	if l == "fr" {
		s = mapOutside(s, tagRx, frenchSpacing)
	}
	return s
}

// mapOutside applies fn to the parts of s not matched by rx. Matches are
// copied as is.
func mapOutside(s string, rx *regexp.Regexp, fn func(string) string) string {
	var b strings.Builder
	b.Grow(len(s))

	last := 0
	for _, loc := range rx.FindAllStringIndex(s, -1) {
		b.WriteString(fn(s[last:loc[0]]))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(fn(s[last:]))
	return b.String()
}

func frenchSpacing(text string) string {
	text = frSpaceBeforeRx.ReplaceAllString(text, nbsp+"$1")
	return frSpaceAfterRx.ReplaceAllString(text, "«"+nbsp)
}

func capitalizeLast(m string) string {
	r, size := utf8.DecodeLastRuneInString(m)
	return m[:len(m)-size] + string(unicode.ToUpper(r))
}
