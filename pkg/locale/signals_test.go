package locale_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dasmlab/lengua/pkg/locale"
)

const (
	htmlAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	browserUA  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
)

func newParser(t *testing.T) *locale.SignalParser {
	t.Helper()
	set := locale.MustNewSet("es", "es", "en", "fr")
	p, err := locale.NewSignalParser(set, locale.NewRewriter(set, nil), "")
	require.NoError(t, err)
	return p
}

func browserRequest(target string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.Header.Set("Accept", htmlAccept)
	r.Header.Set("User-Agent", browserUA)
	return r
}

func TestSignalParser(t *testing.T) {
	t.Parallel()

	t.Run("reads prefix, cookie, override and negotiation inputs", func(t *testing.T) {
		t.Parallel()
		r := browserRequest("/fr/rooms/?lang=EN&page=2")
		r.Header.Set("Accept-Language", "fr-FR")
		r.AddCookie(&http.Cookie{Name: locale.CookieName, Value: "fr"})

		s := newParser(t).Parse(r)
		assert.Equal(t, "/fr/rooms/", s.Path)
		assert.Equal(t, "lang=EN&page=2", s.RawQuery)
		assert.Equal(t, locale.Locale("fr"), s.PathPrefix)
		assert.Equal(t, locale.Locale("fr"), s.CookieLocale)
		assert.Equal(t, locale.Locale("en"), s.QueryOverride)
		assert.Equal(t, "fr-FR", s.AcceptLanguage)
		assert.True(t, s.WantsHTML)
		assert.False(t, s.IsBot)
		assert.False(t, s.Internal)
	})

	t.Run("drops invalid cookie and override values", func(t *testing.T) {
		t.Parallel()
		r := browserRequest("/rooms/?lang=de")
		r.AddCookie(&http.Cookie{Name: locale.CookieName, Value: "klingon"})

		s := newParser(t).Parse(r)
		assert.Empty(t, s.CookieLocale)
		assert.Empty(t, s.QueryOverride)
	})

	t.Run("unescapes cookie values", func(t *testing.T) {
		t.Parallel()
		r := browserRequest("/rooms/")
		r.Header.Set("Cookie", "lang=%20en")

		s := newParser(t).Parse(r)
		assert.Equal(t, locale.Locale("en"), s.CookieLocale)
	})

	t.Run("detects bots", func(t *testing.T) {
		t.Parallel()
		for _, ua := range []string{
			"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			"Mozilla/5.0 (X11; Linux x86_64) HeadlessChrome/120.0",
			"Chrome-Lighthouse",
			"Netlifybot/1.0",
		} {
			r := browserRequest("/fr/rooms/")
			r.Header.Set("User-Agent", ua)
			assert.True(t, newParser(t).Parse(r).IsBot, ua)
		}
	})

	t.Run("marks internal requests", func(t *testing.T) {
		t.Parallel()
		for _, target := range []string{"/rooms/?_i18n=1", "/rooms/?_nolang"} {
			assert.True(t, newParser(t).Parse(browserRequest(target)).Internal, target)
		}
	})

	t.Run("wants HTML only for page-shaped paths with an HTML accept", func(t *testing.T) {
		t.Parallel()
		p := newParser(t)
		assert.False(t, p.Parse(browserRequest("/feed.xml")).WantsHTML)

		r := browserRequest("/rooms/")
		r.Header.Set("Accept", "application/json")
		assert.False(t, p.Parse(r).WantsHTML)
	})

	t.Run("rejects an invalid bot pattern", func(t *testing.T) {
		t.Parallel()
		set := locale.MustNewSet("es", "en")
		_, err := locale.NewSignalParser(set, locale.NewRewriter(set, nil), "(")
		assert.Error(t, err)
	})
}

func TestCleanQuery(t *testing.T) {
	t.Parallel()

	q := url.Values{
		"lang":    {"fr"},
		"_i18n":   {"1"},
		"_nolang": {""},
		"page":    {"2"},
		"q":       {"a b"},
	}
	assert.Equal(t, "page=2&q=a+b", locale.CleanQuery(q))
	assert.Empty(t, locale.CleanQuery(url.Values{"lang": {"en"}}))
}
