package translate

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Diagnostic codes reported in the X-I18N-Translate header.
const (
	DiagOK        = "OK"
	DiagPartial   = "PARTIAL"
	DiagForcedOff = "FORCED_OFF"
	DiagNoKey     = "NO_KEY"
)

const (
	// DefaultConcurrency is the number of chunk calls in flight per document.
	DefaultConcurrency = 4
	// DefaultMaxRetries is the number of extra attempts per chunk.
	DefaultMaxRetries = 1
	// DefaultRetryInterval is the first backoff delay.
	DefaultRetryInterval = 200 * time.Millisecond
)

// Document is the result of running a page through the pipeline.
type Document struct {
	HTML string
	// AllChunksOK is true only when every chunk was translated.
	AllChunksOK bool
	// Translated is true when at least one chunk carries translated text.
	Translated bool
	Diagnostic string
	Chunks     int
	Failed     int
}

// PipelineConfig holds the pipeline settings.
type PipelineConfig struct {
	// SourceLang is the language the origin is authored in.
	SourceLang string
	// ForcedOff disables translation administratively.
	ForcedOff bool
	// Credential is the translation service key.
	Credential string
	// RequireCredential makes an empty Credential disable translation.
	RequireCredential bool
	// Engine labels metrics.
	Engine string

	MaxChunkBytes int
	Concurrency   int
	MaxRetries    int
	RetryInterval time.Duration

	Logger *logrus.Logger
}

// Pipeline chunks HTML documents, translates the chunks concurrently and
// reassembles them in their original order.
type Pipeline struct {
	translator Translator
	cfg        PipelineConfig
	metrics    *MetricsCollector
	logger     *logrus.Logger
}

// NewPipeline creates a pipeline over translator.
func NewPipeline(translator Translator, cfg PipelineConfig) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.MaxChunkBytes <= 0 {
		cfg.MaxChunkBytes = DefaultMaxChunkBytes
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.Engine == "" {
		cfg.Engine = string(EngineDeepL)
	}

	return &Pipeline{
		translator: translator,
		cfg:        cfg,
		metrics:    NewMetricsCollector(cfg.Engine),
		logger:     cfg.Logger,
	}
}

// Enabled reports whether Translate will call the service, and the
// diagnostic code to use when it will not.
func (p *Pipeline) Enabled() (bool, string) {
	switch {
	case p.cfg.ForcedOff:
		return false, DiagForcedOff
	case p.translator == nil, p.cfg.RequireCredential && p.cfg.Credential == "":
		return false, DiagNoKey
	default:
		return true, DiagOK
	}
}

// Translate translates html into target. It never fails: chunks that
// cannot be translated keep their original text and mark the document
// partial.
func (p *Pipeline) Translate(ctx context.Context, html, target string) Document {
	if ok, diag := p.Enabled(); !ok {
		p.logger.WithFields(logrus.Fields{
			"locale":     target,
			"diagnostic": diag,
		}).Warn("Translation disabled, serving original content")
		p.metrics.RecordDocument(target, diag, 0)
		return Document{HTML: html, Diagnostic: diag}
	}

	chunks := SplitChunks(html, p.cfg.MaxChunkBytes)
	results := make([]string, len(chunks))
	translated := make([]bool, len(chunks))
	failed := make([]bool, len(chunks))

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			if strings.TrimSpace(chunk) == "" {
				results[i] = chunk
				return nil
			}
			text, err := p.translateChunk(ctx, chunk, target)
			if err != nil {
				p.logger.WithError(err).WithFields(logrus.Fields{
					"locale":      target,
					"chunk":       i,
					"chunk_bytes": len(chunk),
				}).Warn("Chunk translation failed, keeping original text")
				p.metrics.RecordFallback(target)
				results[i] = chunk
				failed[i] = true
				return nil
			}
			results[i] = text
			translated[i] = true
			return nil
		})
	}
	_ = g.Wait()

	doc := Document{
		HTML:   strings.Join(results, ""),
		Chunks: len(chunks),
	}
	for i := range chunks {
		if failed[i] {
			doc.Failed++
		}
		if translated[i] {
			doc.Translated = true
		}
	}
	doc.AllChunksOK = doc.Failed == 0
	doc.Diagnostic = DiagOK
	if !doc.AllChunksOK {
		doc.Diagnostic = DiagPartial
	}

	p.metrics.RecordDocument(target, doc.Diagnostic, doc.Chunks)
	p.logger.WithFields(logrus.Fields{
		"locale":           target,
		"chunks":           doc.Chunks,
		"failed":           doc.Failed,
		"original_bytes":   len(html),
		"translated_bytes": len(doc.HTML),
	}).Debug("Document translated")

	return doc
}

// translateChunk calls the service with bounded retries on transient errors.
func (p *Pipeline) translateChunk(ctx context.Context, chunk, target string) (string, error) {
	var out string
	op := func() error {
		start := time.Now()
		text, err := p.translator.Translate(ctx, chunk, p.cfg.SourceLang, target)
		if err == nil && text == "" {
			err = ErrEmptyTranslation
		}
		p.metrics.RecordChunkRequest(time.Since(start), err == nil, len(chunk))
		if err != nil {
			if isPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = text
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.cfg.MaxRetries)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}
	return out, nil
}
