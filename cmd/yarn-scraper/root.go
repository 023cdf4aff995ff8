package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/maltedev/yarn-scraper/internal/browser"
	"github.com/maltedev/yarn-scraper/internal/config"
	"github.com/maltedev/yarn-scraper/internal/fetch"
	"github.com/maltedev/yarn-scraper/internal/llm"
	"github.com/maltedev/yarn-scraper/internal/parser"
	"github.com/maltedev/yarn-scraper/internal/ratelimit"
	"github.com/maltedev/yarn-scraper/internal/scraper"
	"github.com/spf13/cobra"
)

var envFile string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "yarn-scraper",
		Short:        "Extract yarn product data from shop pages",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(newScrapeCommand())
	root.AddCommand(newServeCommand())
	return root
}

func Execute() error {
	return newRootCommand().ExecuteContext(context.Background())
}

// loadEnv reads path into the environment. A missing file is not an error and
// variables already set win.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func newLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newFetcher returns the configured page fetcher and a function that releases it.
func newFetcher(cfg *config.Config) (fetch.Fetcher, func() error, error) {
	limiter := ratelimit.NewHostLimiter(cfg.Scraper.MinHostDelay, cfg.Scraper.MaxHostDelay)
	if cfg.Scraper.Fetcher == config.FetcherBrowser {
		b, err := browser.New(cfg.BrowserOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize browser: %w", err)
		}
		return fetch.Throttle(b, limiter), b.Close, nil
	}
	return fetch.Throttle(fetch.NewHTTPFetcher(&http.Client{}, cfg.FetchOptions()), limiter), func() error { return nil }, nil
}

func newService(cfg *config.Config, fetcher fetch.Fetcher, useModel bool, metrics *scraper.Metrics, logger *slog.Logger) *scraper.Service {
	opts := []scraper.Option{
		scraper.WithMetrics(metrics),
		scraper.WithModelTimeout(cfg.LLM.Timeout),
	}

	if useModel {
		if completer := llm.NewCompleter(cfg.CompleterConfig()); completer != nil {
			modelOpts := cfg.ModelOptions()
			opts = append(opts, scraper.WithModel(
				llm.NewReconciler(completer, modelOpts, logger),
				llm.NewImageRanker(completer, modelOpts, logger),
			))
		} else {
			logger.Info("ANTHROPIC_API_KEY not set, model stages disabled")
		}
	}

	return scraper.NewService(fetcher, parser.DefaultRegistry(cfg.Heuristics), logger, opts...)
}
