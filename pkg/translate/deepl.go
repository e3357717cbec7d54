package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultDeepLEndpoint is the free-tier translate URL.
	DefaultDeepLEndpoint = "https://api-free.deepl.com/v2/translate"
	// DefaultDeepLTimeout bounds a single chunk call.
	DefaultDeepLTimeout = 30 * time.Second

	// deeplIgnoreTags are left untranslated inside HTML chunks.
	deeplIgnoreTags = "script,style,noscript,code,pre,svg,notranslate"
)

// DeepLClient implements the Translator interface using the DeepL v2 API
// with HTML tag handling.
type DeepLClient struct {
	endpoint   string
	authKey    string
	httpClient *http.Client
	mapper     *LanguageMapper
	logger     *logrus.Logger
}

// NewDeepLClient creates a new DeepL client. endpoint is the full
// /v2/translate URL; the sibling /v2/usage and /v2/languages endpoints are
// derived from it.
func NewDeepLClient(endpoint, authKey string, timeout time.Duration, logger *logrus.Logger) *DeepLClient {
	if endpoint == "" {
		endpoint = DefaultDeepLEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultDeepLTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &DeepLClient{
		endpoint: endpoint,
		authKey:  authKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		mapper: NewLanguageMapper(),
		logger: logger,
	}
}

// deeplTranslateResponse represents a DeepL /v2/translate response.
type deeplTranslateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// deeplLanguage is one entry of the /v2/languages response.
type deeplLanguage struct {
	Language string `json:"language"`
	Name     string `json:"name"`
}

// Translate sends one HTML fragment to DeepL.
func (c *DeepLClient) Translate(ctx context.Context, html, sourceLang, targetLang string) (string, error) {
	if c.authKey == "" {
		return "", ErrMissingCredential
	}

	form := url.Values{}
	form.Set("text", html)
	form.Set("target_lang", c.mapper.ToDeepLCode(targetLang))
	form.Set("source_lang", c.mapper.ToDeepLCode(sourceLang))
	form.Set("tag_handling", "html")
	form.Set("ignore_tags", deeplIgnoreTags)
	form.Set("split_sentences", "nonewlines")
	form.Set("preserve_formatting", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		c.logger.WithError(err).Error("Failed to create translation request")
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.authKey)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"endpoint": c.endpoint,
		}).Warn("DeepL request failed")
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(startTime).Milliseconds(),
		"text_length": len(html),
	}).Debug("DeepL request completed")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(body),
		}).Warn("DeepL returned non-OK status")
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out deeplTranslateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Translations) == 0 || out.Translations[0].Text == "" {
		return "", ErrEmptyTranslation
	}

	return out.Translations[0].Text, nil
}

// CheckHealth calls /v2/usage, which validates the key without spending
// characters.
func (c *DeepLClient) CheckHealth(ctx context.Context) error {
	if c.authKey == "" {
		return ErrMissingCredential
	}

	resp, err := c.get(ctx, c.sibling("usage"))
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	resp.Body.Close()

	c.logger.Debug("DeepL health check passed")
	return nil
}

// SupportedLanguages lists DeepL's target languages as base codes.
func (c *DeepLClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	if c.authKey == "" {
		return nil, ErrMissingCredential
	}

	resp, err := c.get(ctx, c.sibling("languages")+"?type=target")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var languages []deeplLanguage
	if err := json.NewDecoder(resp.Body).Decode(&languages); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	seen := make(map[string]bool, len(languages))
	codes := make([]string, 0, len(languages))
	for _, l := range languages {
		code := c.mapper.ToBackendCode(l.Language)
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}

	c.logger.WithFields(logrus.Fields{
		"count": len(codes),
	}).Debug("Fetched supported languages")

	return codes, nil
}

func (c *DeepLClient) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.authKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"url": u,
		}).Error("DeepL request failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}

// sibling replaces the last path element of the translate endpoint.
func (c *DeepLClient) sibling(name string) string {
	base := strings.TrimSuffix(c.endpoint, "/")
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[:idx]
	}
	return base + "/" + name
}
