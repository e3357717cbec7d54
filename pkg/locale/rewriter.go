package locale

import (
	"regexp"
	"strings"
)

// DefaultReservedDirs are origin directories that are never localized.
var DefaultReservedDirs = []string{"assets", "images", "reports", "admin", ".netlify"}

var (
	staticExtRx = regexp.MustCompile(`(?i)\.(css|js|mjs|map|png|jpe?g|webp|avif|svg|ico|gif|json|xml|txt|pdf|woff2?|ttf)$`)
	anyExtRx    = regexp.MustCompile(`(?i)\.[a-z0-9]+$`)
	htmlExtRx   = regexp.MustCompile(`(?i)\.html?$`)
)

// Rewriter maps public prefixed paths (/fr/rooms/) to canonical origin
// paths (/rooms/) and back.
type Rewriter struct {
	locales  *Set
	reserved []string
}

// NewRewriter builds a Rewriter. An empty reserved list falls back to
// DefaultReservedDirs.
func NewRewriter(locales *Set, reserved []string) *Rewriter {
	if len(reserved) == 0 {
		reserved = DefaultReservedDirs
	}
	dirs := make([]string, 0, len(reserved))
	for _, d := range reserved {
		d = strings.Trim(strings.TrimSpace(d), "/")
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return &Rewriter{locales: locales, reserved: dirs}
}

// Split returns the locale prefix of p and the remaining path. Paths
// without a non-default locale prefix return an empty locale and p.
func (rw *Rewriter) Split(p string) (Locale, string) {
	if !strings.HasPrefix(p, "/") {
		return "", p
	}
	segment, rest, _ := strings.Cut(p[1:], "/")
	l, ok := rw.locales.ParsePrefix(segment)
	if !ok {
		return "", p
	}
	return l, cleanRoot("/" + rest)
}

// ToOrigin strips a locale prefix. "/fr" and "/fr/" both map to "/".
func (rw *Rewriter) ToOrigin(p string) string {
	_, rest := rw.Split(p)
	return rest
}

// ToPublic prefixes an origin path with l. The default locale and
// reserved directories are returned unchanged, and an already prefixed
// path is never prefixed twice.
func (rw *Rewriter) ToPublic(originPath string, l Locale) string {
	p := rw.ToOrigin(cleanRoot(originPath))
	if rw.locales.IsDefault(l) || rw.IsReserved(p) {
		return p
	}
	return "/" + string(l) + p
}

// IsReserved reports whether p lives under a reserved directory.
func (rw *Rewriter) IsReserved(p string) bool {
	for _, d := range rw.reserved {
		if p == "/"+d || strings.HasPrefix(p, "/"+d+"/") {
			return true
		}
	}
	return false
}

// IsStatic reports whether p is a static asset or a reserved path, with or
// without a (mistaken) locale prefix.
func (rw *Rewriter) IsStatic(p string) bool {
	return staticExtRx.MatchString(p) || rw.IsReserved(p) || rw.IsReserved(rw.ToOrigin(p))
}

// HasExtension reports whether the last path element carries a file extension.
func HasExtension(p string) bool {
	return anyExtRx.MatchString(p)
}

// LooksHTML reports whether p is shaped like a page: trailing slash,
// .html/.htm, or no extension at all.
func LooksHTML(p string) bool {
	return strings.HasSuffix(p, "/") || htmlExtRx.MatchString(p) || !HasExtension(p)
}

// NormalizeBase appends a trailing slash to extensionless paths so the
// origin serves directory indexes without its own redirect.
func NormalizeBase(p string) string {
	p = cleanRoot(p)
	if !HasExtension(p) && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// cleanRoot collapses empty and multi-slash roots: "" and "//x" become "/" and "/x".
func cleanRoot(p string) string {
	return "/" + strings.TrimLeft(p, "/")
}
