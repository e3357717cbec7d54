package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/dasmlab/lengua/pkg/config"
	"github.com/dasmlab/lengua/pkg/edge"
	"github.com/dasmlab/lengua/pkg/locale"
	"github.com/dasmlab/lengua/pkg/origin"
	"github.com/dasmlab/lengua/pkg/server"
	"github.com/dasmlab/lengua/pkg/translate"
	"github.com/sirupsen/logrus"
)

// translatorService is the gRPC health service name tracking the backend.
const translatorService = "lengua.translator"

var (
	// Listener configuration flags
	port      = flag.Int("port", 8080, "Public HTTP port")
	adminPort = flag.Int("admin-port", 9090, "Admin HTTP port for health, readiness and metrics")
	grpcPort  = flag.Int("grpc-port", 50051, "gRPC health port, 0 disables it")

	// Logging configuration
	logLevel  = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat = flag.String("log-format", "text", "Log format: text or json")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger := logrus.New()
	if *logFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	locales, _ := cfg.Locales()

	logger.WithFields(logrus.Fields{
		"port":           *port,
		"admin_port":     *adminPort,
		"grpc_port":      *grpcPort,
		"locales":        cfg.SupportedLocales,
		"default_locale": cfg.DefaultLocale,
		"engine":         cfg.Translator.Engine,
		"origin":         cfg.OriginURL,
		"cache_ttl":      cfg.CacheTTL().String(),
		"no_cache":       cfg.NoCache,
		"forced_off":     cfg.TranslationForcedOff,
		"log_level":      level.String(),
	}).Info("Starting lengua localization proxy")

	translatorCfg, err := cfg.TranslatorSettings(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to parse translation engine type")
	}
	translator, err := translate.NewTranslator(translatorCfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create translator")
	}
	pipeline := translate.NewPipeline(translator, cfg.PipelineSettings(logger))

	// Verify translator is healthy
	translatorHealthy := checkTranslator(translator, pipeline, locales.Prefixed(), logger)

	fetcher, err := origin.NewFetcher(cfg.OriginURL, cfg.OriginTimeout, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure origin")
	}

	handler, err := edge.New(edge.Options{
		Locales:        locales,
		ReservedDirs:   cfg.ReservedDirs,
		BotPattern:     cfg.BotPattern,
		StickyDisabled: cfg.StickyDisabled || cfg.TranslationForcedOff,
		PublicURL:      cfg.PublicURL,
		Composer:       edge.NewComposer(cfg.CacheTTL(), cfg.NoCache, cfg.CDNCacheHeaders),
		Fetcher:        fetcher,
		Pipeline:       pipeline,
		Logger:         logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create edge handler")
	}

	httpServer := server.NewHTTPServer(server.Config{
		Port:      *port,
		AdminPort: *adminPort,
	}, handler, logger, map[string]server.ReadinessCheck{
		"translator": func(ctx context.Context) error {
			if ok, diag := pipeline.Enabled(); !ok {
				return fmt.Errorf("translation disabled: %s", diag)
			}
			return translator.CheckHealth(ctx)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpServer.Start(gctx)
	})
	if *grpcPort > 0 {
		g.Go(func() error {
			return serveGRPCHealth(gctx, *grpcPort, translatorHealthy, logger)
		})
	}

	if err := g.Wait(); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
	logger.Info("Server stopped gracefully")
}

// checkTranslator probes the backend once at startup. Failures are only
// logged: pages are served untranslated until the backend recovers.
func checkTranslator(translator translate.Translator, pipeline *translate.Pipeline, targets []locale.Locale, logger *logrus.Logger) bool {
	if ok, diag := pipeline.Enabled(); !ok {
		logger.WithField("diagnostic", diag).Warn("Translation disabled, pages will be served in the default locale")
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("Checking translator health...")
	if err := translator.CheckHealth(ctx); err != nil {
		logger.WithError(err).Warn("Translator health check failed, but continuing anyway")
		return false
	}
	logger.Info("Translator health check passed")

	supported, err := translator.SupportedLanguages(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to list translator languages")
		return true
	}
	available := make(map[string]bool, len(supported))
	for _, code := range supported {
		available[code] = true
	}
	for _, l := range targets {
		if !available[l.String()] {
			logger.WithField("locale", l).Warn("Translator does not list locale as a target language")
		}
	}
	return true
}

// serveGRPCHealth exposes the standard gRPC health service for probes that
// speak gRPC.
func serveGRPCHealth(ctx context.Context, port int, translatorHealthy bool, logger *logrus.Logger) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listen on gRPC port %d: %w", port, err)
	}

	s := grpc.NewServer(
		grpc.Creds(insecure.NewCredentials()),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             15 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 5 * time.Minute,
			Time:              30 * time.Second,
			Timeout:           10 * time.Second,
		}),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	translatorStatus := grpc_health_v1.HealthCheckResponse_SERVING
	if !translatorHealthy {
		translatorStatus = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	healthServer.SetServingStatus(translatorService, translatorStatus)

	// Enable reflection for grpcurl/debugging
	reflection.Register(s)

	errChan := make(chan error, 1)
	go func() {
		logger.WithField("port", port).Info("gRPC health server listening")
		errChan <- s.Serve(lis)
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("gRPC health server: %w", err)
	case <-ctx.Done():
		healthServer.Shutdown()
		s.GracefulStop()
		return nil
	}
}
