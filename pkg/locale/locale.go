// Package locale holds the request-time language decision logic: the
// supported locale set, client signal parsing, path rewriting and the
// ordered resolver that turns signals into exactly one routing decision.
package locale

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

const (
	// CookieName is the client-held locale preference cookie.
	CookieName = "lang"
	// QueryParam is the explicit override parameter (?lang=fr).
	QueryParam = "lang"
	// MarkerParam is appended to origin re-requests so a second pass is a no-op.
	MarkerParam = "_i18n"
	// BypassParam disables localization for a single request.
	BypassParam = "_nolang"
)

var (
	// ErrNoLocales is returned when the supported set is empty.
	ErrNoLocales = errors.New("no supported locales configured")
	// ErrInvalidLocale is returned for codes that are not ISO 639 base languages.
	ErrInvalidLocale = errors.New("invalid locale code")
)

// Locale is a lowercase ISO 639-1 language code such as "es" or "fr".
type Locale string

func (l Locale) String() string { return string(l) }

// Set is the finite set of locales a site is published in.
// The default locale is served unprefixed; every other locale is prefixed.
type Set struct {
	def Locale
	all []Locale
}

// NewSet validates the codes and builds a Set. The default locale is added
// to the supported list when missing.
func NewSet(defaultLocale string, supported []string) (*Set, error) {
	def, err := normalize(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("default locale: %w", err)
	}

	all := []Locale{def}
	for _, code := range supported {
		if strings.TrimSpace(code) == "" {
			continue
		}
		l, err := normalize(code)
		if err != nil {
			return nil, fmt.Errorf("supported locale %q: %w", code, err)
		}
		if !slices.Contains(all, l) {
			all = append(all, l)
		}
	}
	if len(all) < 2 {
		return nil, ErrNoLocales
	}

	return &Set{def: def, all: all}, nil
}

// MustNewSet is NewSet for static configuration in tests and examples.
func MustNewSet(defaultLocale string, supported ...string) *Set {
	s, err := NewSet(defaultLocale, supported)
	if err != nil {
		panic(err)
	}
	return s
}

func normalize(code string) (Locale, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) != 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocale, code)
	}
	if _, err := language.ParseBase(code); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocale, code)
	}
	return Locale(code), nil
}

// Default returns the unprefixed locale.
func (s *Set) Default() Locale { return s.def }

// All returns every supported locale, default first.
func (s *Set) All() []Locale { return slices.Clone(s.all) }

// Prefixed returns the non-default locales.
func (s *Set) Prefixed() []Locale { return slices.Clone(s.all[1:]) }

// IsDefault reports whether l is the default locale.
func (s *Set) IsDefault(l Locale) bool { return l == s.def }

// Parse matches v case-insensitively against the set. Unknown, empty and
// oversized values are rejected.
func (s *Set) Parse(v string) (Locale, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || len(v) > 2 {
		return "", false
	}
	l := Locale(v)
	if slices.Contains(s.all, l) {
		return l, true
	}
	return "", false
}

// ParsePrefix matches a path segment against the non-default locales.
// Path segments are case-sensitive: "/EN/" is not a locale prefix.
func (s *Set) ParsePrefix(segment string) (Locale, bool) {
	l := Locale(segment)
	if l == s.def || !slices.Contains(s.all, l) {
		return "", false
	}
	return l, true
}
