// Package edge is the localization middleware: it decides per request
// whether to redirect, pass through or serve a translated page, and
// composes the response.
package edge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dasmlab/lengua/pkg/locale"
	"github.com/dasmlab/lengua/pkg/origin"
	"github.com/dasmlab/lengua/pkg/requestid"
	"github.com/dasmlab/lengua/pkg/seo"
	"github.com/dasmlab/lengua/pkg/translate"
)

// DefaultMaxDocumentBytes caps the HTML bodies that are buffered for
// translation. Larger documents are streamed unmodified.
const DefaultMaxDocumentBytes = 5 << 20

// Fetcher retrieves content from the origin.
type Fetcher interface {
	Fetch(ctx context.Context, r *http.Request, t origin.Target) (*http.Response, error)
}

// DocumentTranslator translates whole HTML documents.
type DocumentTranslator interface {
	Translate(ctx context.Context, html, target string) translate.Document
}

// originBase is implemented by fetchers that know the origin address, so
// absolute origin redirects can be mapped to the public host.
type originBase interface {
	Base() *url.URL
}

// Options configures a Handler.
type Options struct {
	Locales      *locale.Set
	ReservedDirs []string
	BotPattern   string
	// StickyDisabled turns off cookie persistence redirects.
	StickyDisabled bool
	// PublicURL fixes the scheme and host of redirects and SEO links.
	// When empty they are derived from the request.
	PublicURL        string
	MaxDocumentBytes int64

	Composer *Composer
	Fetcher  Fetcher
	Pipeline DocumentTranslator
	Logger   *logrus.Logger
}

// Handler is the localization http.Handler.
type Handler struct {
	parser   *locale.SignalParser
	resolver *locale.Resolver
	rewriter *locale.Rewriter
	patcher  *seo.Patcher
	composer *Composer
	fetcher  Fetcher
	pipeline DocumentTranslator
	public   *url.URL
	maxDoc   int64
	logger   *logrus.Logger
}

// New wires a Handler from opts.
func New(opts Options) (*Handler, error) {
	if opts.Locales == nil {
		return nil, locale.ErrNoLocales
	}
	if opts.Fetcher == nil {
		return nil, origin.ErrNoOrigin
	}
	if opts.Pipeline == nil {
		return nil, errors.New("edge: translation pipeline is required")
	}
	if opts.Composer == nil {
		opts.Composer = NewComposer(0, true, nil)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.MaxDocumentBytes <= 0 {
		opts.MaxDocumentBytes = DefaultMaxDocumentBytes
	}

	rw := locale.NewRewriter(opts.Locales, opts.ReservedDirs)
	parser, err := locale.NewSignalParser(opts.Locales, rw, opts.BotPattern)
	if err != nil {
		return nil, err
	}

	var public *url.URL
	if opts.PublicURL != "" {
		public, err = url.Parse(opts.PublicURL)
		if err != nil || public.Scheme == "" || public.Host == "" {
			return nil, fmt.Errorf("edge: public URL %q must be absolute", opts.PublicURL)
		}
	}

	return &Handler{
		parser:   parser,
		resolver: locale.NewResolver(opts.Locales, rw, locale.ResolverOptions{StickyDisabled: opts.StickyDisabled}),
		rewriter: rw,
		patcher:  seo.NewPatcher(opts.Locales, rw),
		composer: opts.Composer,
		fetcher:  opts.Fetcher,
		pipeline: opts.Pipeline,
		public:   public,
		maxDoc:   opts.MaxDocumentBytes,
		logger:   opts.Logger,
	}, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sig := h.parser.Parse(r)
	d := h.resolver.Resolve(sig)
	decisionsTotal.WithLabelValues(d.Kind.String()).Inc()

	log := h.logger.WithFields(logrus.Fields{
		"request_id": requestid.FromContext(r.Context()),
		"path":       r.URL.Path,
		"decision":   d.Kind.String(),
		"reason":     d.Reason,
	})
	log.Debug("Resolved request")

	base := h.baseURL(r)
	secure := base.Scheme == "https"

	switch d.Kind {
	case locale.Redirect:
		h.composer.Redirect(w, base, d, secure)
	case locale.ServeTranslated:
		h.serveTranslated(w, r, d, base, secure, log)
	default:
		// The unprefixed HTML answer depends on the language signals.
		negotiable := sig.WantsHTML && !sig.IsBot && !sig.Internal
		h.passThrough(w, r, d, base, negotiable, log)
	}
}

func (h *Handler) passThrough(w http.ResponseWriter, r *http.Request, d locale.Decision, base *url.URL, negotiable bool, log *logrus.Entry) {
	resp, err := h.fetcher.Fetch(r.Context(), r, origin.Target{Path: d.OriginPath, RawQuery: d.OriginQuery})
	if err != nil {
		h.originFailed(w, d, err, log)
		return
	}
	defer resp.Body.Close()

	if isRedirect(resp) {
		h.relocate(resp.Header, r, base, "")
	}
	if negotiable {
		addVary(resp.Header, varyHeaders...)
	}
	writeUpstream(w, resp, resp.Body)
}

func (h *Handler) serveTranslated(w http.ResponseWriter, r *http.Request, d locale.Decision, base *url.URL, secure bool, log *logrus.Entry) {
	resp, err := h.fetcher.Fetch(r.Context(), r, origin.Target{Path: d.OriginPath, RawQuery: d.OriginQuery, Mark: true})
	if err != nil {
		h.originFailed(w, d, err, log)
		return
	}
	defer resp.Body.Close()

	if isRedirect(resp) {
		h.relocate(resp.Header, r, base, d.Locale)
		resp.Header.Set(HeaderDebug, d.Reason)
		writeUpstream(w, resp, resp.Body)
		return
	}
	if !locale.LooksHTML(d.OriginPath) || !isHTML(resp) || resp.Header.Get("Content-Encoding") != "" || r.Method == http.MethodHead {
		writeUpstream(w, resp, resp.Body)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, h.maxDoc+1))
	if err != nil {
		h.originFailed(w, d, err, log)
		return
	}
	if int64(len(raw)) > h.maxDoc {
		log.WithField("limit_bytes", h.maxDoc).Warn("Document too large to translate, serving original")
		writeUpstream(w, resp, io.MultiReader(bytes.NewReader(raw), resp.Body))
		return
	}

	doc := h.pipeline.Translate(r.Context(), string(raw), d.Locale.String())

	page := *base
	page.Path = r.URL.Path
	page.RawQuery = locale.CleanQuery(r.URL.Query())
	out := h.patcher.Patch(doc.HTML, seo.Options{
		Locale:  d.Locale,
		URL:     &page,
		SetLang: doc.Translated,
	})

	log.WithFields(logrus.Fields{
		"locale":      d.Locale,
		"diagnostic":  doc.Diagnostic,
		"chunks":      doc.Chunks,
		"failed":      doc.Failed,
		"status_code": resp.StatusCode,
	}).Info("Serving localized page")

	h.composer.Translated(w, resp, d, doc, out, secure)
}

func (h *Handler) originFailed(w http.ResponseWriter, d locale.Decision, err error, log *logrus.Entry) {
	originErrorsTotal.WithLabelValues(d.Kind.String()).Inc()
	log.WithError(err).Error("Origin unavailable")
	w.Header().Set(HeaderDebug, d.Reason)
	w.Header().Set("Cache-Control", noStore)
	http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
}

// baseURL returns the scheme and host clients use to reach us.
func (h *Handler) baseURL(r *http.Request) *url.URL {
	if h.public != nil {
		return &url.URL{Scheme: h.public.Scheme, Host: h.public.Host}
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "https" || p == "http" {
		scheme = p
	}
	return &url.URL{Scheme: scheme, Host: r.Host}
}

// relocate rewrites an origin Location for the client. Control parameters
// are removed and, for links back into the site, the host becomes the
// public one and the path gets the prefix of l.
func (h *Handler) relocate(hdr http.Header, r *http.Request, base *url.URL, l locale.Locale) {
	loc := hdr.Get("Location")
	if loc == "" {
		return
	}
	u, err := url.Parse(loc)
	if err != nil {
		return
	}
	if u.RawQuery != "" {
		u.RawQuery = locale.CleanQuery(u.Query())
	}
	if h.sameSite(u, r, base) {
		if u.Host != "" {
			u.Scheme = base.Scheme
			u.Host = base.Host
		}
		if l != "" && strings.HasPrefix(u.Path, "/") {
			u.Path = h.rewriter.ToPublic(u.Path, l)
			u.RawPath = ""
		}
	}
	hdr.Set("Location", u.String())
}

func (h *Handler) sameSite(u *url.URL, r *http.Request, base *url.URL) bool {
	if u.Host == "" {
		return u.Scheme == ""
	}
	if strings.EqualFold(u.Host, base.Host) || strings.EqualFold(u.Host, r.Host) {
		return true
	}
	if ob, ok := h.fetcher.(originBase); ok {
		return strings.EqualFold(u.Host, ob.Base().Host)
	}
	return false
}

func isRedirect(resp *http.Response) bool {
	return resp.StatusCode >= 300 && resp.StatusCode < 400 && resp.Header.Get("Location") != ""
}

func isHTML(resp *http.Response) bool {
	return strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "text/html")
}

func writeUpstream(w http.ResponseWriter, resp *http.Response, body io.Reader) {
	origin.StripHopHeaders(resp.Header)
	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, body)
}
