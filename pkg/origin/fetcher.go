// Package origin forwards requests to the backing content server.
package origin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dasmlab/lengua/pkg/locale"
)

// DefaultTimeout bounds one origin round trip.
const DefaultTimeout = 30 * time.Second

// ErrNoOrigin is returned when no origin URL is configured.
var ErrNoOrigin = errors.New("origin URL is not configured")

// hopHeaders are connection-scoped and must not be forwarded.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Fetcher issues requests against the origin base URL.
type Fetcher struct {
	base       *url.URL
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewFetcher parses baseURL and creates a Fetcher. Redirects from the
// origin are returned to the caller instead of being followed.
func NewFetcher(baseURL string, timeout time.Duration, logger *logrus.Logger) (*Fetcher, error) {
	if baseURL == "" {
		return nil, ErrNoOrigin
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse origin URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("origin URL %q must be absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Fetcher{
		base: base,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}, nil
}

// Base returns a copy of the origin base URL.
func (f *Fetcher) Base() *url.URL {
	u := *f.base
	return &u
}

// Target describes one origin request.
type Target struct {
	Path     string
	RawQuery string
	// Mark appends the anti-recursion marker and asks for an identity
	// encoded body so the HTML can be rewritten.
	Mark bool
}

// Fetch sends r's method, headers and body to the origin at t. The caller
// owns the response body.
func (f *Fetcher) Fetch(ctx context.Context, r *http.Request, t Target) (*http.Response, error) {
	u := *f.base
	u.Path = joinPath(f.base.Path, t.Path)
	u.RawPath = ""
	u.RawQuery = t.RawQuery
	if t.Mark {
		q := u.Query()
		q.Set(locale.MarkerParam, "1")
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), r.Body)
	if err != nil {
		return nil, fmt.Errorf("create origin request: %w", err)
	}
	req.ContentLength = r.ContentLength
	req.Header = r.Header.Clone()
	for _, h := range hopHeaders {
		req.Header.Del(h)
	}
	if t.Mark {
		req.Header.Set("Accept-Encoding", "identity")
	}
	if r.Host != "" {
		req.Header.Set("X-Forwarded-Host", r.Host)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.WithError(err).WithFields(logrus.Fields{
			"url": u.String(),
		}).Error("Origin request failed")
		return nil, fmt.Errorf("origin request: %w", err)
	}

	f.logger.WithFields(logrus.Fields{
		"url":         u.String(),
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Origin request completed")

	return resp, nil
}

// StripHopHeaders removes connection-scoped headers from an origin response
// before it is copied to the client.
func StripHopHeaders(h http.Header) {
	for _, name := range hopHeaders {
		h.Del(name)
	}
}

func joinPath(basePath, p string) string {
	if basePath == "" || basePath == "/" {
		return p
	}
	if len(basePath) > 0 && basePath[len(basePath)-1] == '/' {
		basePath = basePath[:len(basePath)-1]
	}
	return basePath + p
}
