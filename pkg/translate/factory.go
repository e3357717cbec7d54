package translate

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// EngineType represents the type of translation engine to use.
type EngineType string

const (
	// EngineDeepL uses the DeepL v2 REST API.
	EngineDeepL EngineType = "deepl"
	// EngineLibreTranslate uses a LibreTranslate server.
	EngineLibreTranslate EngineType = "libretranslate"
)

// Config holds configuration for creating a Translator instance.
type Config struct {
	// Engine specifies which translation engine to use.
	Engine EngineType
	// Endpoint is the translate URL for DeepL or the base URL for LibreTranslate.
	// Defaults depend on the engine when empty.
	Endpoint string
	// Credential is the API key. DeepL requires it; LibreTranslate may not.
	Credential string
	// Timeout bounds each HTTP call. Zero uses the engine default.
	Timeout time.Duration
	// Logger is the logger instance to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// NewTranslator creates a new Translator instance based on the configuration.
func NewTranslator(cfg Config) (Translator, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	cfg.Logger.WithFields(logrus.Fields{
		"engine":         cfg.Engine,
		"endpoint":       cfg.Endpoint,
		"has_credential": cfg.Credential != "",
	}).Info("Creating translator instance")

	switch cfg.Engine {
	case EngineDeepL:
		return NewDeepLClient(cfg.Endpoint, cfg.Credential, cfg.Timeout, cfg.Logger), nil
	case EngineLibreTranslate:
		return NewLibreTranslateClient(cfg.Endpoint, cfg.Credential, cfg.Timeout, cfg.Logger), nil
	default:
		cfg.Logger.WithFields(logrus.Fields{
			"engine": cfg.Engine,
		}).Error("Unknown translation engine")
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, cfg.Engine)
	}
}

// ParseEngineType parses a string into an EngineType, case-insensitively.
func ParseEngineType(s string) (EngineType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deepl", "":
		return EngineDeepL, nil
	case "libretranslate":
		return EngineLibreTranslate, nil
	default:
		return "", fmt.Errorf("%w: %s (supported: deepl, libretranslate)", ErrUnknownEngine, s)
	}
}
