// Package config loads the localization settings from the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/lengua/pkg/locale"
	"github.com/dasmlab/lengua/pkg/translate"
)

var (
	// ErrParsingConfig wraps environment parsing failures.
	ErrParsingConfig = errors.New("failed to parse configuration")
	// ErrInvalidConfig wraps validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the full runtime configuration of the proxy.
type Config struct {
	// SupportedLocales includes the default locale.
	SupportedLocales []string `env:"I18N_LOCALES" envSeparator:"," envDefault:"es,en,fr"`
	DefaultLocale    string   `env:"I18N_DEFAULT_LOCALE" envDefault:"es"`

	CacheTTLSeconds int      `env:"I18N_CACHE_TTL" envDefault:"86400"`
	NoCache         bool     `env:"I18N_NOCACHE"`
	CDNCacheHeaders []string `env:"I18N_CDN_CACHE_HEADERS" envSeparator:"," envDefault:"CDN-Cache-Control"`

	TranslationForcedOff bool `env:"I18N_FORCE_OFF"`
	// StickyDisabled turns off cookie persistence redirects.
	StickyDisabled bool `env:"I18N_NO_STICKY"`

	OriginURL string `env:"I18N_ORIGIN_URL"`
	// PublicURL overrides the scheme and host used in redirects and SEO links.
	PublicURL string `env:"I18N_PUBLIC_URL"`

	BotPattern   string   `env:"I18N_BOT_PATTERN"`
	ReservedDirs []string `env:"I18N_RESERVED_DIRS" envSeparator:","`

	Translator TranslatorConfig

	OriginTimeout time.Duration `env:"I18N_ORIGIN_TIMEOUT" envDefault:"30s"`
}

// TranslatorConfig selects and tunes the translation engine.
type TranslatorConfig struct {
	Engine     string `env:"I18N_ENGINE" envDefault:"deepl"`
	Credential string `env:"DEEPL_KEY"`
	Endpoint   string `env:"DEEPL_ENDPOINT"`

	MaxChunkBytes int           `env:"I18N_MAX_CHUNK" envDefault:"80000"`
	Concurrency   int           `env:"I18N_CONCURRENCY" envDefault:"4"`
	MaxRetries    int           `env:"I18N_RETRIES" envDefault:"1"`
	Timeout       time.Duration `env:"I18N_TRANSLATE_TIMEOUT" envDefault:"30s"`
}

// Load reads a .env file when present, then parses the environment.
func Load() (*Config, error) {
	// the .env file is optional
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if _, err := c.Locales(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.CacheTTLSeconds < 0 {
		return fmt.Errorf("%w: I18N_CACHE_TTL must not be negative", ErrInvalidConfig)
	}
	if _, err := c.EngineType(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Translator.MaxChunkBytes < 1024 {
		return fmt.Errorf("%w: I18N_MAX_CHUNK must be at least 1024", ErrInvalidConfig)
	}
	return nil
}

// Locales builds the supported locale set.
func (c *Config) Locales() (*locale.Set, error) {
	return locale.NewSet(c.DefaultLocale, c.SupportedLocales)
}

// EngineType parses the configured engine.
func (c *Config) EngineType() (translate.EngineType, error) {
	return translate.ParseEngineType(c.Translator.Engine)
}

// CacheTTL returns the public cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// TranslatorSettings maps the engine settings onto a translate.Config.
func (c *Config) TranslatorSettings(logger *logrus.Logger) (translate.Config, error) {
	engine, err := c.EngineType()
	if err != nil {
		return translate.Config{}, err
	}
	return translate.Config{
		Engine:     engine,
		Endpoint:   c.Translator.Endpoint,
		Credential: c.Translator.Credential,
		Timeout:    c.Translator.Timeout,
		Logger:     logger,
	}, nil
}

// PipelineSettings maps the chunking, concurrency and kill-switch settings
// onto a translate.PipelineConfig.
func (c *Config) PipelineSettings(logger *logrus.Logger) translate.PipelineConfig {
	engine, _ := c.EngineType()
	return translate.PipelineConfig{
		SourceLang:        c.DefaultLocale,
		ForcedOff:         c.TranslationForcedOff,
		Credential:        c.Translator.Credential,
		RequireCredential: engine == translate.EngineDeepL,
		Engine:            string(engine),
		MaxChunkBytes:     c.Translator.MaxChunkBytes,
		Concurrency:       c.Translator.Concurrency,
		MaxRetries:        c.Translator.MaxRetries,
		Logger:            logger,
	}
}
