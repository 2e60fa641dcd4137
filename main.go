package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/krishthi-drishti/farmer-client/internal/cli"
	"github.com/krishthi-drishti/farmer-client/internal/core"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/api"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/dictation"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/metrics"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/repo"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
	pkgredis "github.com/krishthi-drishti/farmer-client/pkg/redis"
)

// AppConfig defines all configurable parameters of the client,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment   core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	DefaultLocale string           `envconfig:"DEFAULT_LOCALE" default:"en"`
	MetricsAddr   string           `envconfig:"METRICS_ADDR"`

	// Infrastructure
	Redis pkgredis.Config

	// Farmer client configs
	API       model.APIConfig
	History   model.HistoryConfig
	Map       model.MapConfig
	Dictation model.DictationConfig
}

func main() {
	if err := run(); err != nil {
		var de *cli.DisplayError
		if errors.As(err, &de) {
			fmt.Fprintln(os.Stderr, de.Text)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Could not load .env file: %v\n", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		return fmt.Errorf("failed to process environment config: %w", err)
	}
	logx.Init(logx.LoggerOpts{Environment: envCfg.Environment})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	clientMetrics, err := metrics.NewClientMetrics(registry)
	if err != nil {
		return err
	}
	if envCfg.MetricsAddr != "" {
		srv := serveMetrics(envCfg.MetricsAddr, registry)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	deps := cli.Deps{
		Client:        api.NewHTTPClient(envCfg.API, api.WithMetrics(clientMetrics)),
		Map:           envCfg.Map,
		Recognizer:    dictation.Unsupported{},
		DefaultLocale: envCfg.DefaultLocale,
	}
	if envCfg.Dictation.Source != "" {
		deps.Recognizer = dictation.NewFileRecognizer(envCfg.Dictation.Source)
	}

	// ====================================================
	// Side channel and history cache: Redis when configured, memory otherwise
	if envCfg.Redis.Enabled() {
		rdb, err := envCfg.Redis.New(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialise Redis client: %w", err)
		}
		defer rdb.Close()
		logx.Info().Msg("Connected to Redis successfully")

		deps.HistoryCache = repo.NewRedisHistoryCache(rdb, envCfg.History.CacheTTL)
		deps.Snapshots = repo.NewRedisSnapshotStore(rdb, envCfg.Map.SnapshotTTL)
		deps.Navigation = repo.NewRedisNavigationSource(rdb, envCfg.Map.NavigationChannel)
	} else {
		logx.Debug().Msg("REDIS_URL not set, keeping local state in memory")
		deps.HistoryCache = repo.NewMemoryHistoryCache(envCfg.History.CacheTTL)
		deps.Snapshots = repo.NewMemorySnapshotStore(envCfg.Map.SnapshotTTL)
		deps.Navigation = repo.NewChannelNavigationSource()
	}

	return cli.Execute(ctx, deps, os.Args[1:])
}

func serveMetrics(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	logx.Info().Str("addr", addr).Msg("serving metrics")
	return srv
}
