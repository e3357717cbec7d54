package locale

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// maxAcceptLanguageLength bounds the header we are willing to scan.
const maxAcceptLanguageLength = 4096

type weightedTag struct {
	tag language.Tag
	q   float64
}

// parseAcceptLanguage splits an Accept-Language header into tags sorted by
// descending quality. Well-formed headers go through x/text; when that
// rejects the header, entries are scanned one by one so a single malformed
// entry does not discard the rest.
func parseAcceptLanguage(header string) []weightedTag {
	if len(header) > maxAcceptLanguageLength {
		header = header[:maxAcceptLanguageLength]
	}

	if tags, weights, err := language.ParseAcceptLanguage(header); err == nil {
		out := make([]weightedTag, 0, len(tags))
		for i, tag := range tags {
			out = append(out, weightedTag{tag: tag, q: float64(weights[i])})
		}
		return out
	}
	return parseAcceptLanguageLenient(header)
}

func parseAcceptLanguageLenient(header string) []weightedTag {
	var tags []weightedTag
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.TrimSpace(name)
		if name == "" || name == "*" {
			continue
		}

		q, ok := qualityParam(params)
		if !ok {
			continue
		}

		tag, err := language.Parse(name)
		if err != nil {
			continue
		}
		tags = append(tags, weightedTag{tag: tag, q: q})
	}

	slices.SortStableFunc(tags, func(a, b weightedTag) int {
		return cmp.Compare(b.q, a.q)
	})
	return tags
}

// qualityParam finds q= among the entry parameters. Other parameters are
// ignored. A missing q means 1; an unparsable or zero q drops the entry.
func qualityParam(params string) (float64, bool) {
	q := 1.0
	for _, p := range strings.Split(params, ";") {
		k, v, _ := strings.Cut(strings.TrimSpace(p), "=")
		if !strings.EqualFold(strings.TrimSpace(k), "q") {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || f <= 0 || f > 1 {
			return 0, false
		}
		q = f
	}
	return q, true
}

// BestMatch picks the highest-quality Accept-Language entry whose base
// language is supported. The default locale is returned when nothing matches.
func (s *Set) BestMatch(acceptLanguage string) Locale {
	for _, wt := range parseAcceptLanguage(acceptLanguage) {
		base, _ := wt.tag.Base()
		if l, ok := s.Parse(base.String()); ok {
			return l
		}
	}
	return s.def
}
