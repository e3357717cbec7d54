package translate

import (
	"context"
	"strings"
)

// Translator defines the interface for machine translation backends.
// Implementations translate one HTML fragment per call and must keep
// markup intact.
type Translator interface {
	// Translate translates an HTML fragment from sourceLang to targetLang.
	// Codes are ISO 639-1 (e.g., "es", "fr"); engines map them as needed.
	Translate(ctx context.Context, html, sourceLang, targetLang string) (string, error)

	// CheckHealth verifies that the translation backend is reachable and
	// accepts our credential.
	CheckHealth(ctx context.Context) error

	// SupportedLanguages returns the target language codes the backend
	// accepts, lowercased ISO 639-1.
	SupportedLanguages(ctx context.Context) ([]string, error)
}

// LanguageMapper handles conversion between the site's locale codes and
// the formats each backend expects.
type LanguageMapper struct{}

// NewLanguageMapper creates a new language mapper instance.
func NewLanguageMapper() *LanguageMapper {
	return &LanguageMapper{}
}

// ToBackendCode converts a code to the lowercase base language.
// Examples:
//   - "EN" -> "en"
//   - "fr-CA" -> "fr"
//   - "en_US" -> "en"
func (lm *LanguageMapper) ToBackendCode(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if idx := strings.IndexAny(lang, "-_"); idx >= 0 {
		lang = lang[:idx]
	}
	return lang
}

// ToDeepLCode converts a code to DeepL's uppercase form ("fr" -> "FR").
func (lm *LanguageMapper) ToDeepLCode(lang string) string {
	return strings.ToUpper(lm.ToBackendCode(lang))
}
