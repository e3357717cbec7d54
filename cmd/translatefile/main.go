package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dasmlab/lengua/pkg/config"
	"github.com/dasmlab/lengua/pkg/locale"
	"github.com/dasmlab/lengua/pkg/seo"
	"github.com/dasmlab/lengua/pkg/translate"
	"github.com/sirupsen/logrus"
)

var (
	targetLang = flag.String("target", "en", "Target locale (must be one of I18N_LOCALES)")
	htmlFile   = flag.String("file", "", "Path to the HTML file to translate, - for stdin")
	outFile    = flag.String("out", "", "Output path, stdout when empty")
	pageURL    = flag.String("url", "", "Public URL of the page, enables hreflang and canonical links")
	verbose    = flag.Bool("v", false, "Print a summary to stderr")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)

	if *htmlFile == "" {
		logger.Fatal("-file must be provided")
	}
	source, err := readInput(*htmlFile)
	if err != nil {
		logger.WithError(err).Fatalf("Failed to read file: %s", *htmlFile)
	}
	if strings.TrimSpace(source) == "" {
		logger.Fatal("HTML to translate is empty")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	locales, _ := cfg.Locales()
	target, ok := locales.Parse(*targetLang)
	if !ok {
		logger.WithField("locale", *targetLang).Fatal("Unsupported target locale")
	}

	translatorCfg, err := cfg.TranslatorSettings(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to parse translation engine type")
	}
	translator, err := translate.NewTranslator(translatorCfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create translator")
	}
	pipeline := translate.NewPipeline(translator, cfg.PipelineSettings(logger))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	// The default locale is the source language and is only patched.
	doc := translate.Document{HTML: source, AllChunksOK: true, Diagnostic: translate.DiagOK}
	if !locales.IsDefault(target) {
		doc = pipeline.Translate(ctx, source, target.String())
	}

	opts := seo.Options{Locale: target, SetLang: doc.Translated}
	if *pageURL != "" {
		u, err := url.Parse(*pageURL)
		if err != nil {
			logger.WithError(err).Fatal("Invalid -url")
		}
		opts.URL = u
	}
	rw := locale.NewRewriter(locales, cfg.ReservedDirs)
	out := seo.NewPatcher(locales, rw).Patch(doc.HTML, opts)

	if err := writeOutput(*outFile, out); err != nil {
		logger.WithError(err).Fatal("Failed to write output")
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "locale=%s diagnostic=%s chunks=%d failed=%d bytes=%d->%d elapsed=%s\n",
			target, doc.Diagnostic, doc.Chunks, doc.Failed, len(source), len(out), time.Since(start).Round(time.Millisecond))
	}
	if !doc.AllChunksOK {
		os.Exit(2)
	}
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func writeOutput(path, s string) error {
	if path == "" {
		_, err := io.WriteString(os.Stdout, s)
		return err
	}
	return os.WriteFile(path, []byte(s), 0o644)
}
