package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/maltedev/yarn-scraper/internal/fetch"
	"github.com/maltedev/yarn-scraper/internal/llm"
	"github.com/maltedev/yarn-scraper/internal/models"
	"github.com/maltedev/yarn-scraper/internal/parser"
)

const (
	stageReconcile = "reconcile"
	stageRank      = "rank"
)

// Service turns a product URL into a yarn record. Each call is independent; the service
// holds no state between calls besides its collaborators.
type Service struct {
	fetcher      fetch.Fetcher
	registry     *parser.Registry
	reconciler   *llm.Reconciler
	ranker       *llm.ImageRanker
	metrics      *Metrics
	modelTimeout time.Duration
	logger       *slog.Logger
}

type Option func(*Service)

// WithModel enables reconciliation and image ranking. Nil collaborators leave them off.
func WithModel(reconciler *llm.Reconciler, ranker *llm.ImageRanker) Option {
	return func(s *Service) {
		s.reconciler = reconciler
		s.ranker = ranker
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithModelTimeout bounds each model call. Zero means no extra bound beyond ctx.
func WithModelTimeout(d time.Duration) Option {
	return func(s *Service) { s.modelTimeout = d }
}

func NewService(fetcher fetch.Fetcher, registry *parser.Registry, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		fetcher:  fetcher,
		registry: registry,
		logger:   logger.With("component", "scraper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateURL parses rawURL and accepts only absolute http and https URLs.
func ValidateURL(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, trimmed)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, trimmed)
	}
	return u, nil
}

// ScrapeURL fetches the page, runs the matching parser and, when a model is configured,
// reconciles fields and picks the primary image. Failures come back as *ScrapeError.
func (s *Service) ScrapeURL(ctx context.Context, rawURL string) (*models.YarnProductData, error) {
	product, parserName, err := s.scrape(ctx, rawURL)
	s.metrics.IncScrape(parserName, outcomeLabel(err))
	if err != nil {
		s.logger.Error("scrape failed", "url", rawURL, "error", err)
		return nil, &ScrapeError{URL: rawURL, Err: err}
	}

	s.logger.Info("scrape complete",
		"url", rawURL,
		"parser", parserName,
		"name", product.Name,
		"producer", product.Producer,
		"colors", len(product.Colors),
		"images", len(product.Images))
	return product, nil
}

func (s *Service) scrape(ctx context.Context, rawURL string) (*models.YarnProductData, string, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, "none", err
	}
	pageURL := u.String()

	start := time.Now()
	html, err := s.fetcher.Fetch(ctx, pageURL)
	s.metrics.ObserveFetch(time.Since(start))
	if err != nil {
		return nil, "none", err
	}

	p := s.registry.Select(u)
	if p == nil {
		return nil, "none", ErrNoParser
	}
	s.logger.Debug("parser selected", "url", pageURL, "parser", p.Name())

	heuristic, err := p.Scrape(html, pageURL)
	if err != nil {
		return nil, p.Name(), fmt.Errorf("failed to parse page: %w", err)
	}

	fields := s.reconcile(ctx, html, pageURL)
	product := models.Merge(heuristic, fields)
	s.rankImages(ctx, product)

	if !product.HasValidName() {
		return nil, p.Name(), ErrNameNotFound
	}
	return product, p.Name(), nil
}

// reconcile asks the model for its reading of the page. Every failure is absorbed.
func (s *Service) reconcile(ctx context.Context, html, pageURL string) *models.ProductFields {
	if !s.reconciler.Enabled() {
		return nil
	}

	ctx, cancel := s.modelContext(ctx)
	defer cancel()

	fields, err := s.reconciler.Reconcile(ctx, html, pageURL)
	if err != nil {
		s.metrics.IncModelCall(stageReconcile, "error")
		s.logger.Warn("model reconciliation failed, using heuristic fields", "url", pageURL, "error", err)
		return nil
	}
	s.metrics.IncModelCall(stageReconcile, "success")
	return fields
}

// rankImages tags the model's pick as primary. It only runs with two or more images.
func (s *Service) rankImages(ctx context.Context, product *models.YarnProductData) {
	if !s.ranker.Enabled() || len(product.Images) < 2 {
		return
	}

	ctx, cancel := s.modelContext(ctx)
	defer cancel()

	index, ok, err := s.ranker.Rank(ctx, product.Name, product.Images)
	if err != nil {
		s.metrics.IncModelCall(stageRank, "error")
		s.logger.Warn("image ranking failed", "url", product.Source.URL, "error", err)
		return
	}
	if !ok {
		s.metrics.IncModelCall(stageRank, "no_selection")
		return
	}
	s.metrics.IncModelCall(stageRank, "success")

	product.Images = append([]models.Image(nil), product.Images...)
	product.SetPrimaryImage(index)
}

func (s *Service) modelContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.modelTimeout > 0 {
		return context.WithTimeout(ctx, s.modelTimeout)
	}
	return context.WithCancel(ctx)
}
