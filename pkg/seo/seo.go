// Package seo patches served HTML so search engines see consistent
// language metadata: <html lang>, hreflang alternates and a canonical link.
// Every transform is a pure string rewrite and safe to apply repeatedly.
package seo

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/dasmlab/lengua/pkg/locale"
)

var (
	headOpenRx  = regexp.MustCompile(`(?i)<head(?:\s[^>]*)?>`)
	htmlOpenRx  = regexp.MustCompile(`(?i)<html(?:\s[^>]*)?>`)
	langAttrRx  = regexp.MustCompile(`(?i)(\s)lang\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	alternateRx = regexp.MustCompile(`(?i)rel=["']alternate["'][^>]+hreflang=`)
	canonicalRx = regexp.MustCompile(`(?i)rel=["']canonical["']`)
)

// Patcher injects language metadata for a fixed locale set.
type Patcher struct {
	locales  *locale.Set
	rewriter *locale.Rewriter
}

// NewPatcher creates a Patcher.
func NewPatcher(locales *locale.Set, rewriter *locale.Rewriter) *Patcher {
	return &Patcher{locales: locales, rewriter: rewriter}
}

// Options controls a single Patch call.
type Options struct {
	// Locale is the language the page is published under.
	Locale locale.Locale
	// URL is the absolute public URL of the page (scheme, host, path, query).
	URL *url.URL
	// SetLang rewrites <html lang>. Only set it when the body really is in Locale.
	SetLang bool
}

// Patch applies the lang attribute, alternate links, canonical link and
// typography rules. Applying it twice yields the same output as once.
func (p *Patcher) Patch(doc string, opts Options) string {
	out := doc
	if opts.SetLang {
		out = SetDocumentLang(out, opts.Locale)
	}
	if opts.URL != nil {
		if !alternateRx.MatchString(out) {
			out = injectAfterHead(out, p.alternates(opts.URL))
		}
		if !canonicalRx.MatchString(out) {
			out = injectAfterHead(out, "\n"+linkTag("canonical", "", opts.URL.String())+"\n")
		}
	}
	return Typography(out, opts.Locale)
}

func (p *Patcher) alternates(u *url.URL) string {
	base := p.rewriter.ToOrigin(u.Path)
	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()

	var b strings.Builder
	b.WriteString("\n")
	for _, l := range p.locales.All() {
		b.WriteString(linkTag("alternate", l.String(), origin+p.rewriter.ToPublic(base, l)))
		b.WriteString("\n")
	}
	b.WriteString(linkTag("alternate", "x-default", origin+p.rewriter.ToPublic(base, p.locales.Default())))
	b.WriteString("\n")
	return b.String()
}

func linkTag(rel, hreflang, href string) string {
	if hreflang != "" {
		return `<link rel="` + rel + `" hreflang="` + hreflang + `" href="` + html.EscapeString(href) + `">`
	}
	return `<link rel="` + rel + `" href="` + html.EscapeString(href) + `">`
}

// injectAfterHead inserts s right after the first <head> tag. Documents
// without one are returned unchanged.
func injectAfterHead(doc, s string) string {
	loc := headOpenRx.FindStringIndex(doc)
	if loc == nil {
		return doc
	}
	return doc[:loc[1]] + s + doc[loc[1]:]
}

// SetDocumentLang sets the lang attribute of the first <html> tag to l,
// adding it when missing.
func SetDocumentLang(doc string, l locale.Locale) string {
	loc := htmlOpenRx.FindStringIndex(doc)
	if loc == nil {
		return doc
	}
	tag := doc[loc[0]:loc[1]]
	attr := `lang="` + l.String() + `"`

	var patched string
	if m := langAttrRx.FindStringSubmatchIndex(tag); m != nil {
		patched = tag[:m[0]] + tag[m[2]:m[3]] + attr + tag[m[1]:]
	} else {
		patched = tag[:5] + " " + attr + tag[5:]
	}
	return doc[:loc[0]] + patched + doc[loc[1]:]
}
