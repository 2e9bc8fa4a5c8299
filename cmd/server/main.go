package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/nlpstudio/textlab/internal/analytics"
	"github.com/nlpstudio/textlab/internal/nlp/pipeline"
	"github.com/nlpstudio/textlab/internal/ratelimit"
	"github.com/nlpstudio/textlab/internal/web/handler"
	"github.com/nlpstudio/textlab/internal/web/router"
	"github.com/nlpstudio/textlab/pkg/config"
	"github.com/nlpstudio/textlab/pkg/health"
	"github.com/nlpstudio/textlab/pkg/kafka"
	"github.com/nlpstudio/textlab/pkg/logger"
	"github.com/nlpstudio/textlab/pkg/metrics"
	pkgredis "github.com/nlpstudio/textlab/pkg/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "textlab: %v\n", err)
		os.Exit(1)
	}
}

// run starts the servers and blocks until ctx is cancelled or a server
// fails. Every resource it opens is released before it returns.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file")
	envFile := fs.String("env", ".env", "optional dotenv file loaded before the config")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting textlab", "port", cfg.Server.Port)

	nlp, err := pipeline.Load(cfg.NLP.DataDir)
	if err != nil {
		return fmt.Errorf("loading language pipeline from %q: %w", cfg.NLP.DataDir, err)
	}
	slog.Info("language pipeline loaded", "data_dir", cfg.NLP.DataDir)

	m := metrics.New(nil)

	checker := health.NewChecker(0)
	checker.Register("pipeline", health.Static(health.StatusUp, "lexicons loaded"))

	var redisClient *pkgredis.Client
	if cfg.RateLimit.Enabled && cfg.RateLimit.Backend == "redis" {
		redisClient, err = pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, falling back to in-memory rate limiting", "error", err)
		} else {
			defer redisClient.Close()
			checker.Register("redis", health.PingCheck(redisClient))
		}
	}

	var limiter ratelimit.Limiter
	switch {
	case !cfg.RateLimit.Enabled:
		slog.Info("rate limiting disabled")
	case redisClient != nil:
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.RequestsPerMinute)
		slog.Info("rate limiting enabled", "backend", "redis", "rpm", cfg.RateLimit.RequestsPerMinute)
	default:
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		slog.Info("rate limiting enabled", "backend", "memory", "rpm", cfg.RateLimit.RequestsPerMinute)
	}

	var tracker analytics.Tracker = analytics.Discard{}
	var collector *analytics.Collector
	if cfg.Analytics.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.UsageEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer,
			cfg.Analytics.BufferSize,
			cfg.Analytics.BatchSize,
			cfg.Analytics.FlushInterval,
			m.UsageEventsDropped.Inc,
		)
		collector.Start(context.WithoutCancel(ctx))
		tracker = collector
		slog.Info("usage events enabled", "topic", cfg.Kafka.Topics.UsageEvents)
	}

	h, err := handler.New(nlp, m, tracker, analytics.NewAggregator(), handler.Config{
		RelayURL:     cfg.Contact.RelayURL,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	if err != nil {
		return fmt.Errorf("building handler: %w", err)
	}

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router.New(h, router.Options{
			Metrics:        m,
			Limiter:        limiter,
			Health:         checker,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	servers := []*http.Server{server}
	if cfg.Metrics.Enabled {
		servers = append(servers, metrics.NewServer(cfg.Metrics.Port))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			slog.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutting down %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	err = g.Wait()
	if collector != nil {
		collector.Close()
	}
	if err != nil {
		slog.Error("server error", "error", err)
		return err
	}
	slog.Info("textlab stopped")
	return nil
}
