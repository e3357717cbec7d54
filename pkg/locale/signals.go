package locale

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// DefaultBotPattern matches crawlers and audit tools that must see the
// origin content without redirects or machine translation.
const DefaultBotPattern = `(?i)(lighthouse|chrome-lighthouse|headless|googlebot|bingbot|pagespeed|netlifybot)`

// Signals is everything the resolver needs to know about a request.
// It is derived once per request and never mutated afterwards.
type Signals struct {
	Path     string
	RawQuery string
	Query    url.Values

	PathPrefix     Locale
	CookieLocale   Locale
	QueryOverride  Locale
	AcceptLanguage string
	Accept         string

	IsBot     bool
	WantsHTML bool
	// Internal is set when the anti-recursion marker or the manual bypass
	// parameter is present.
	Internal bool
}

// AcceptsHTML reports whether the Accept header allows an HTML response.
func (s Signals) AcceptsHTML() bool {
	return strings.Contains(s.Accept, "text/html")
}

// SignalParser extracts Signals from inbound requests.
type SignalParser struct {
	locales  *Set
	rewriter *Rewriter
	bots     *regexp.Regexp
}

// NewSignalParser compiles botPattern (DefaultBotPattern when empty).
func NewSignalParser(locales *Set, rewriter *Rewriter, botPattern string) (*SignalParser, error) {
	if botPattern == "" {
		botPattern = DefaultBotPattern
	}
	bots, err := regexp.Compile(botPattern)
	if err != nil {
		return nil, err
	}
	return &SignalParser{locales: locales, rewriter: rewriter, bots: bots}, nil
}

// Parse reads the request. Invalid cookie values and unsupported override
// values are dropped silently.
func (p *SignalParser) Parse(r *http.Request) Signals {
	query := r.URL.Query()
	prefix, _ := p.rewriter.Split(r.URL.Path)

	s := Signals{
		Path:           r.URL.Path,
		RawQuery:       r.URL.RawQuery,
		Query:          query,
		PathPrefix:     prefix,
		AcceptLanguage: r.Header.Get("Accept-Language"),
		Accept:         r.Header.Get("Accept"),
		IsBot:          p.bots.MatchString(r.UserAgent()),
		Internal:       query.Has(MarkerParam) || query.Has(BypassParam),
	}

	if c, err := r.Cookie(CookieName); err == nil {
		v := c.Value
		if unescaped, err := url.QueryUnescape(v); err == nil {
			v = unescaped
		}
		if l, ok := p.locales.Parse(v); ok {
			s.CookieLocale = l
		}
	}

	if v := query.Get(QueryParam); v != "" {
		if l, ok := p.locales.Parse(v); ok {
			s.QueryOverride = l
		}
	}

	s.WantsHTML = s.AcceptsHTML() && LooksHTML(s.Path)
	return s
}

// CleanQuery removes the override, marker and bypass parameters.
func CleanQuery(q url.Values) string {
	out := make(url.Values, len(q))
	for k, v := range q {
		switch k {
		case QueryParam, MarkerParam, BypassParam:
			continue
		}
		out[k] = v
	}
	return out.Encode()
}
