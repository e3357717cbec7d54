package edge

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dasmlab/lengua/pkg/locale"
	"github.com/dasmlab/lengua/pkg/origin"
	"github.com/dasmlab/lengua/pkg/translate"
)

const (
	// HeaderTranslate carries the translation diagnostic code.
	HeaderTranslate = "X-I18N-Translate"
	// HeaderDebug carries the resolver reason.
	HeaderDebug = "X-I18N-Debug"

	cookieMaxAge = 365 * 24 * 60 * 60
	noStore      = "no-store"
)

// varyHeaders are the request headers a localized answer depends on.
var varyHeaders = []string{"Accept-Language", "Cookie"}

// Composer writes the final client responses and owns the caching and
// cookie policy.
type Composer struct {
	ttl        time.Duration
	noCache    bool
	cdnHeaders []string
}

// NewComposer creates a Composer. cdnHeaders receive the same value as
// Cache-Control.
func NewComposer(ttl time.Duration, noCache bool, cdnHeaders []string) *Composer {
	return &Composer{ttl: ttl, noCache: noCache, cdnHeaders: cdnHeaders}
}

// CachePolicy returns the Cache-Control value for a localized response.
func (c *Composer) CachePolicy(status int, allChunksOK bool) string {
	if c.noCache || !allChunksOK || status >= http.StatusBadRequest || c.ttl <= 0 {
		return noStore
	}
	return "public, max-age=" + strconv.Itoa(int(c.ttl/time.Second))
}

// Redirect writes a 302 to the absolute form of d.Location.
func (c *Composer) Redirect(w http.ResponseWriter, base *url.URL, d locale.Decision, secure bool) {
	h := w.Header()
	h.Set("Location", absolute(base, d.Location))
	addVary(h, varyHeaders...)
	c.setCacheControl(h, noStore)
	h.Set(HeaderDebug, d.Reason)
	if d.Cookie != "" {
		setLocaleCookie(w, d.Cookie, secure)
	}
	w.WriteHeader(http.StatusFound)
}

// Translated writes a localized HTML document. The origin status is kept.
func (c *Composer) Translated(w http.ResponseWriter, resp *http.Response, d locale.Decision, doc translate.Document, body string, secure bool) {
	h := w.Header()
	origin.StripHopHeaders(resp.Header)
	for k, vv := range resp.Header {
		if isCacheDirective(k) {
			continue
		}
		for _, v := range vv {
			h.Add(k, v)
		}
	}
	h.Del("Content-Length")
	h.Del("Content-Language")
	h.Del("ETag")
	h.Del("Last-Modified")
	h.Set("Content-Type", "text/html; charset=utf-8")
	if doc.Translated {
		h.Set("Content-Language", d.Locale.String())
	}
	addVary(h, varyHeaders...)
	h.Set(HeaderTranslate, doc.Diagnostic)
	h.Set(HeaderDebug, d.Reason)

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	policy := c.CachePolicy(status, doc.AllChunksOK)
	c.setCacheControl(h, policy)
	if status < http.StatusBadRequest {
		setLocaleCookie(w, d.Locale, secure)
	}
	translatedResponsesTotal.WithLabelValues(d.Locale.String(), strconv.FormatBool(policy != noStore)).Inc()

	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (c *Composer) setCacheControl(h http.Header, v string) {
	h.Set("Cache-Control", v)
	for _, name := range c.cdnHeaders {
		h.Set(name, v)
	}
}

func setLocaleCookie(w http.ResponseWriter, l locale.Locale, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     locale.CookieName,
		Value:    l.String(),
		Path:     "/",
		MaxAge:   cookieMaxAge,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
}

func absolute(base *url.URL, location string) string {
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	return base.ResolveReference(ref).String()
}

// isCacheDirective reports whether an origin header carries a caching rule,
// including vendor CDN variants such as Netlify-CDN-Cache-Control.
func isCacheDirective(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, "cache-control") || name == "surrogate-control" || name == "expires"
}

// addVary adds names to the Vary header, keeping the values already there.
func addVary(h http.Header, names ...string) {
	var have []string
	for _, v := range h.Values("Vary") {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				have = append(have, f)
			}
		}
	}
	for _, n := range names {
		if !slices.ContainsFunc(have, func(f string) bool { return f == "*" || strings.EqualFold(f, n) }) {
			have = append(have, n)
		}
	}
	h.Set("Vary", strings.Join(have, ", "))
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
