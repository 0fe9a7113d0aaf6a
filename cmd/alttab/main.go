// Command alttab exports Canvas quiz behavioral telemetry to CSV.
//
// It fetches the course roster, every student's quiz submissions and every
// submission's event log, consolidates them into deduplicated per-event
// records and writes one CSV file. The output file is only created when the
// whole run succeeds.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/primusr/alttab/internal/config"
	"github.com/primusr/alttab/pkg/canvas"
	"github.com/primusr/alttab/pkg/consolidate"
	"github.com/primusr/alttab/pkg/export"
	"github.com/primusr/alttab/pkg/logging"
	"github.com/primusr/alttab/pkg/ratelimit"
)

func main() {
	var (
		course      = flag.String("course", "", "Canvas course ID (required)")
		quiz        = flag.String("quiz", "", "Canvas quiz ID (required)")
		out         = flag.String("out", "", "output CSV path (required)")
		cfgPath     = flag.String("config", "", "path to YAML config file")
		baseURL     = flag.String("base-url", "", "Canvas base URL, e.g. https://school.instructure.com")
		workers     = flag.Int("workers", 0, "concurrent per-student fetchers")
		redisAddr   = flag.String("redis", "", "Redis address for shared rate-limit state")
		metricsAddr = flag.String("metrics-addr", "", "address for the Prometheus /metrics listener")
		logLevel    = flag.String("log-level", "", "log level (debug|info|warn|error)")
		pretty      = flag.Bool("pretty", false, "human-readable console logs")
		transcript  = flag.Bool("transcript", false, "print the per-submission transcript to stdout")
	)
	flag.Parse()

	if *course == "" || *quiz == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "error: -course, -quiz and -out are required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Explicitly set flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.Canvas.BaseURL = *baseURL
		case "workers":
			cfg.Workers = *workers
		case "redis":
			cfg.Redis.Addr = *redisAddr
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "pretty":
			cfg.Logging.Pretty = *pretty
		}
	})

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
		Output: os.Stderr,
	})

	// Tag every log line of this run, across all components.
	log.Logger = log.With().Str("run_id", uuid.New().String()).Logger()
	logger := logging.NewLogger("alttab")

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := quotaStore(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer closeStore()

	if cfg.MetricsAddr != "" {
		startMetricsServer(cfg.MetricsAddr, logger)
	}

	clientCfg := clientConfig(cfg)
	clientCfg.Tracker = ratelimit.NewTracker(store, logging.NewLogger("ratelimit"))

	client, err := canvas.New(clientCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Canvas client setup failed")
	}

	engine, err := consolidate.New(client, consolidate.Config{Workers: cfg.Workers})
	if err != nil {
		logger.Fatal().Err(err).Msg("Engine setup failed")
	}

	logger.Info().
		Str("course_id", *course).
		Str("quiz_id", *quiz).
		Str("out", *out).
		Int("workers", cfg.Workers).
		Msg("Starting export")

	records, err := engine.Consolidate(ctx, *course, *quiz)
	if err != nil {
		logger.Fatal().Err(err).Msg("Consolidation failed, no file written")
	}
	if ctx.Err() != nil {
		logger.Fatal().Err(ctx.Err()).Msg("Run interrupted, no file written")
	}

	if err := export.WriteCSVFile(*out, records); err != nil {
		logger.Fatal().Err(err).Msg("CSV write failed")
	}
	logger.Info().
		Int("records", len(records)).
		Str("path", *out).
		Msg("Export complete")

	if *transcript {
		if err := export.WriteTranscript(os.Stdout, records); err != nil {
			logger.Error().Err(err).Msg("Transcript write failed")
		}
	}
}

// clientConfig maps the run configuration onto the Canvas client config.
// Zero values keep the client defaults.
func clientConfig(cfg config.Config) canvas.Config {
	c := canvas.DefaultConfig(cfg.Canvas.BaseURL, cfg.Canvas.Token)
	if cfg.Canvas.PerPage > 0 {
		c.PerPage = cfg.Canvas.PerPage
	}
	if cfg.Canvas.Timeout > 0 {
		c.Timeout = cfg.Canvas.Timeout
	}
	if cfg.Canvas.RequestsPerSecond > 0 {
		c.RequestsPerSecond = cfg.Canvas.RequestsPerSecond
	}
	if cfg.Canvas.Burst > 0 {
		c.Burst = cfg.Canvas.Burst
	}
	return c
}

// quotaStore selects where rate-limit state lives: Redis when configured,
// so concurrent exports against the same token share one quota view,
// otherwise process memory.
func quotaStore(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (ratelimit.Store, func(), error) {
	if cfg.Addr == "" {
		return ratelimit.NewMemoryStore(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return ratelimit.NewRedisStore(rdb), func() { rdb.Close() }, nil
}

// metricsMux serves the Prometheus scrape endpoint.
func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func startMetricsServer(addr string, logger zerolog.Logger) {
	go func() {
		logger.Info().Str("addr", addr).Msg("Serving Prometheus metrics")
		if err := http.ListenAndServe(addr, metricsMux()); err != nil {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
}
