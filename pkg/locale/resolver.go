package locale

import "net/url"

// Kind tags a routing decision.
type Kind int

const (
	// PassThrough serves origin content as-is.
	PassThrough Kind = iota
	// Redirect sends the client to another URL with a 302.
	Redirect
	// ServeTranslated fetches the canonical origin page and translates it.
	ServeTranslated
)

func (k Kind) String() string {
	switch k {
	case PassThrough:
		return "pass"
	case Redirect:
		return "redirect"
	case ServeTranslated:
		return "translate"
	default:
		return "unknown"
	}
}

// Decision is the single outcome of resolving a request.
//
// PassThrough and ServeTranslated carry the origin path and raw query to
// request. Redirect carries Location (path and query relative to the site
// root) and, for explicit overrides, the cookie locale to persist.
type Decision struct {
	Kind   Kind
	Locale Locale

	OriginPath  string
	OriginQuery string

	Location string
	Cookie   Locale

	// Reason is a short tag for diagnostics ("translate:fr", "bot", ...).
	Reason string
}

// ResolverOptions tunes the resolver.
type ResolverOptions struct {
	// StickyDisabled turns off the cookie persistence redirect.
	StickyDisabled bool
}

type rule struct {
	name  string
	apply func(Signals) (Decision, bool)
}

// Resolver evaluates an ordered list of guards; the first one that matches
// decides the request.
type Resolver struct {
	locales  *Set
	rewriter *Rewriter
	opts     ResolverOptions
	rules    []rule
}

// NewResolver builds the guard table.
func NewResolver(locales *Set, rewriter *Rewriter, opts ResolverOptions) *Resolver {
	r := &Resolver{locales: locales, rewriter: rewriter, opts: opts}
	r.rules = []rule{
		{"bot", r.botBypass},
		{"static", r.staticBypass},
		{"internal", r.internalBypass},
		{"override", r.explicitOverride},
		{"negotiate", r.firstVisit},
		{"cookie", r.cookiePersistence},
		{"default", r.fallback},
	}
	return r
}

// Resolve returns exactly one decision for s.
func (r *Resolver) Resolve(s Signals) Decision {
	for _, rl := range r.rules {
		if d, ok := rl.apply(s); ok {
			return d
		}
	}
	// fallback always matches
	return r.pass(s, "pass:"+r.locales.Default().String())
}

// RuleNames lists the guards in evaluation order.
func (r *Resolver) RuleNames() []string {
	names := make([]string, len(r.rules))
	for i, rl := range r.rules {
		names[i] = rl.name
	}
	return names
}

func (r *Resolver) pass(s Signals, reason string) Decision {
	return Decision{
		Kind:        PassThrough,
		Locale:      r.locales.Default(),
		OriginPath:  s.Path,
		OriginQuery: s.RawQuery,
		Reason:      reason,
	}
}

func (r *Resolver) redirect(target string, q url.Values, l, cookie Locale, reason string) Decision {
	loc := target
	if clean := CleanQuery(q); clean != "" {
		loc += "?" + clean
	}
	return Decision{
		Kind:     Redirect,
		Locale:   l,
		Location: loc,
		Cookie:   cookie,
		Reason:   reason + ":" + l.String(),
	}
}

func (r *Resolver) botBypass(s Signals) (Decision, bool) {
	if !s.IsBot {
		return Decision{}, false
	}
	if s.PathPrefix == "" {
		return r.pass(s, "bot"), true
	}
	d := r.pass(s, "bot:strip")
	d.OriginPath = NormalizeBase(r.rewriter.ToOrigin(s.Path))
	d.OriginQuery = CleanQuery(s.Query)
	return d, true
}

func (r *Resolver) staticBypass(s Signals) (Decision, bool) {
	if s.AcceptsHTML() && !r.rewriter.IsStatic(s.Path) {
		return Decision{}, false
	}
	d := r.pass(s, "static")
	d.OriginPath = r.rewriter.ToOrigin(s.Path)
	return d, true
}

func (r *Resolver) internalBypass(s Signals) (Decision, bool) {
	if !s.Internal {
		return Decision{}, false
	}
	return r.pass(s, "internal"), true
}

func (r *Resolver) explicitOverride(s Signals) (Decision, bool) {
	if s.QueryOverride == "" || !s.WantsHTML {
		return Decision{}, false
	}
	base := NormalizeBase(r.rewriter.ToOrigin(s.Path))
	target := r.rewriter.ToPublic(base, s.QueryOverride)
	return r.redirect(target, s.Query, s.QueryOverride, s.QueryOverride, "override"), true
}

func (r *Resolver) firstVisit(s Signals) (Decision, bool) {
	if s.PathPrefix != "" || !s.WantsHTML || s.CookieLocale != "" {
		return Decision{}, false
	}
	pick := r.locales.BestMatch(s.AcceptLanguage)
	if r.locales.IsDefault(pick) {
		return Decision{}, false
	}
	return r.redirect(r.rewriter.ToPublic(s.Path, pick), s.Query, pick, "", "negotiate"), true
}

func (r *Resolver) cookiePersistence(s Signals) (Decision, bool) {
	if r.opts.StickyDisabled || s.PathPrefix != "" || !s.WantsHTML {
		return Decision{}, false
	}
	if s.CookieLocale == "" || r.locales.IsDefault(s.CookieLocale) {
		return Decision{}, false
	}
	return r.redirect(r.rewriter.ToPublic(s.Path, s.CookieLocale), s.Query, s.CookieLocale, "", "cookie"), true
}

func (r *Resolver) fallback(s Signals) (Decision, bool) {
	if s.PathPrefix == "" {
		return r.pass(s, "pass:"+r.locales.Default().String()), true
	}
	return Decision{
		Kind:        ServeTranslated,
		Locale:      s.PathPrefix,
		OriginPath:  NormalizeBase(r.rewriter.ToOrigin(s.Path)),
		OriginQuery: s.RawQuery,
		Reason:      "translate:" + s.PathPrefix.String(),
	}, true
}
