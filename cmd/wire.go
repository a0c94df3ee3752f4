package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bnema/feedlink/internal/adapters/metrics/prom"
	"github.com/bnema/feedlink/internal/adapters/probe/tcp"
	feedrender "github.com/bnema/feedlink/internal/adapters/render/feed"
	tomlrepo "github.com/bnema/feedlink/internal/adapters/repo/toml"
	"github.com/bnema/feedlink/internal/adapters/transport/rpc"
	"github.com/bnema/feedlink/internal/application"
	"github.com/bnema/feedlink/internal/domain"
	"github.com/bnema/feedlink/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	pageSizeKey         = "feed.page_size"
	probeTimeoutKey     = "probe.timeout"
	transportTimeoutKey = "transport.timeout"
	cacheSizeKey        = "cache.size"
)

var errNotWired = errors.New("application is not wired")

type globalOptions struct {
	verbose bool
	asJSON  bool
	metrics bool
}

type app struct {
	opts     globalOptions
	client   *application.Client
	settings *tomlrepo.SettingsRepository
	feed     *tomlrepo.FeedCache
	logger   *zap.Logger
	registry *prometheus.Registry
	now      func() time.Time
}

func (a *app) wire(stderr io.Writer) error {
	cfg := viper.New()
	if dir := envOrDefault("FL_CONFIG_DIR", ""); dir != "" {
		cfg.Set(tomlrepo.ConfigDirKey, dir)
	}
	if err := tomlrepo.LoadConfig(cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.SetDefault(pageSizeKey, application.DefaultPageSize)
	cfg.SetDefault(probeTimeoutKey, tcp.DefaultTimeout)
	cfg.SetDefault(transportTimeoutKey, 15*time.Second)
	cfg.SetDefault(cacheSizeKey, application.DefaultDirectorySize)

	settings, err := tomlrepo.NewSettingsRepository(cfg)
	if err != nil {
		return fmt.Errorf("wire settings repository: %w", err)
	}

	feed, err := tomlrepo.NewFeedCache(cfg)
	if err != nil {
		return fmt.Errorf("wire feed cache: %w", err)
	}

	registry := prometheus.NewRegistry()
	recorder, err := prom.NewRecorder(registry)
	if err != nil {
		return fmt.Errorf("wire metrics: %w", err)
	}

	logger := newLogger(stderr, a.opts.verbose)

	client, err := application.NewClient(application.Dependencies{
		Settings:      settings,
		Transport:     rpc.Client{RequestTimeout: cfg.GetDuration(transportTimeoutKey)},
		FeedCache:     feed,
		Prober:        tcp.Prober{Timeout: cfg.GetDuration(probeTimeoutKey)},
		Clock:         ports.SystemClock{},
		Telemetry:     application.Telemetry{Logger: logger, Recorder: recorder},
		PageSize:      cfg.GetInt(pageSizeKey),
		DirectorySize: cfg.GetInt(cacheSizeKey),
	})
	if err != nil {
		return fmt.Errorf("wire client: %w", err)
	}

	a.client = client
	a.settings = settings
	a.feed = feed
	a.logger = logger
	a.registry = registry
	a.now = time.Now

	return nil
}

func (a *app) finish(stderr io.Writer) error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.opts.metrics && a.registry != nil {
		return prom.Dump(stderr, a.registry)
	}
	return nil
}

// bootstrap resolves the session for the persisted user before a command
// talks to the backend.
func (a *app) bootstrap(cmd *cobra.Command) (domain.Session, error) {
	if a.client == nil {
		return domain.Session{}, errNotWired
	}

	return runResolveProgress(cmd.Context(), cmd.ErrOrStderr(), a.client.Resolver.ObserveCandidates, a.client.Resolver.Bootstrap)
}

func (a *app) renderOptions() feedrender.RenderOptions {
	return feedrender.RenderOptions{
		Now:   a.now(),
		Names: a.client.Service.CachedUser,
	}
}

// write prints v as JSON when --json is set, otherwise the rendered text.
func (a *app) write(cmd *cobra.Command, v any, render func() (string, error)) error {
	if a.opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	rendered, err := render()
	if err != nil {
		return fmt.Errorf("render output: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	if verbose {
		level = zapcore.DebugLevel
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), level))
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
