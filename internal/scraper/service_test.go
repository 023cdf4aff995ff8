package scraper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/maltedev/yarn-scraper/internal/fetch"
	"github.com/maltedev/yarn-scraper/internal/llm"
	"github.com/maltedev/yarn-scraper/internal/parser"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const melodyURL = "https://garnius.no/produkt/drops-melody/"

const melodyPage = `<html><head><title>Drops Melody | Garnius</title></head><body>
<div class="woocommerce-product-gallery">
  <div class="woocommerce-product-gallery__image"><img src="https://garnius.no/wp-content/uploads/melody-1.jpg" alt="Drops Melody nøste"></div>
  <div class="woocommerce-product-gallery__image"><img src="https://garnius.no/wp-content/uploads/melody-2.jpg" alt="Drops Melody strikket"></div>
</div>
<div class="summary">
  <h1 class="product_title">Drops Melody</h1>
  <p class="price"><span class="amount">129 kr</span></p>
  <div class="woocommerce-product-details__short-description">
    <p>Et luftig børstet garn fra Drops.</p>
    <p>ca 50 gr = 140 m</p>
    <p>Anbefalte pinner: 7 mm</p>
    <p>71% Alpakka, 25% Ull, 4% Polyamid</p>
  </div>
</div>
</body></html>`

const singleImagePage = `<html><body>
<div class="woocommerce-product-gallery__image"><img src="https://garnius.no/wp-content/uploads/air-1.jpg" alt="Drops Air"></div>
<h1 class="product_title">Drops Air</h1>
<p>Garnet er fra Drops.</p>
</body></html>`

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	args := m.Called(ctx, pageURL)
	return args.String(0), args.Error(1)
}

// scriptedCompleter answers model calls in order and records every request.
type scriptedCompleter struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	requests  []llm.CompletionRequest
}

func (c *scriptedCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := len(c.requests)
	c.requests = append(c.requests, req)
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return "null", nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(fetcher fetch.Fetcher, completer llm.Completer, metrics *Metrics) *Service {
	opts := []Option{WithMetrics(metrics), WithModelTimeout(5 * time.Second)}
	if completer != nil {
		modelOpts := llm.DefaultOptions()
		opts = append(opts, WithModel(
			llm.NewReconciler(completer, modelOpts, testLogger()),
			llm.NewImageRanker(completer, modelOpts, testLogger()),
		))
	}
	return NewService(fetcher, parser.DefaultRegistry(parser.DefaultLimits()), testLogger(), opts...)
}

func pageFetcher(pageURL, html string) *mockFetcher {
	f := &mockFetcher{}
	f.On("Fetch", mock.Anything, pageURL).Return(html, nil)
	return f
}

func TestScrapeURLRejectsBadURLsBeforeFetching(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want error
	}{
		{"ftp", "ftp://garnius.no/produkt/drops-melody/", ErrUnsupportedProtocol},
		{"javascript", "javascript:alert(1)", ErrUnsupportedProtocol},
		{"empty", "", ErrInvalidURL},
		{"no scheme", "garnius.no/produkt", ErrInvalidURL},
		{"no host", "https://", ErrInvalidURL},
		{"unparseable", "://garnius.no", ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &mockFetcher{}
			s := newTestService(f, nil, nil)

			product, err := s.ScrapeURL(context.Background(), tt.url)

			require.Error(t, err)
			assert.Nil(t, product)
			assert.ErrorIs(t, err, tt.want)
			var scrapeErr *ScrapeError
			require.True(t, errors.As(err, &scrapeErr))
			assert.True(t, IsInputError(err))
			f.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
		})
	}
}

func TestScrapeURLNamesRejectedProtocol(t *testing.T) {
	s := newTestService(&mockFetcher{}, nil, nil)

	_, err := s.ScrapeURL(context.Background(), "ftp://garnius.no/produkt/drops-melody/")

	require.Error(t, err)
	assert.Equal(t, "Kunne ikke hente produktinformasjon: ugyldig protokoll: ftp", err.Error())
}

func TestScrapeURLFetchErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		f := &mockFetcher{}
		f.On("Fetch", mock.Anything, melodyURL).Return("", fetch.NewStatusError(404, "404 Not Found"))
		s := newTestService(f, nil, nil)

		_, err := s.ScrapeURL(context.Background(), melodyURL)

		require.Error(t, err)
		var statusErr *fetch.StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, 404, statusErr.StatusCode)
		assert.Equal(t, "Kunne ikke hente produktinformasjon: HTTP 404: Not Found", err.Error())
		assert.False(t, IsInputError(err))
	})

	t.Run("network", func(t *testing.T) {
		f := &mockFetcher{}
		f.On("Fetch", mock.Anything, melodyURL).Return("", errors.New("connection reset by peer"))
		s := newTestService(f, nil, nil)

		_, err := s.ScrapeURL(context.Background(), melodyURL)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset by peer")
	})
}

func TestScrapeURLHeuristicOnly(t *testing.T) {
	f := pageFetcher(melodyURL, melodyPage)
	s := newTestService(f, nil, nil)

	product, err := s.ScrapeURL(context.Background(), melodyURL)

	require.NoError(t, err)
	assert.Equal(t, "Drops Melody", product.Name)
	assert.Equal(t, "Drops Design", product.Producer)
	assert.Equal(t, "50g", product.Weight)
	assert.Equal(t, "140m", product.Yardage)
	assert.Equal(t, "7mm", product.NeedleSize)
	assert.Equal(t, "71% Alpakka, 25% Ull, 4% Polyamid", product.Composition)
	require.NotNil(t, product.Price)
	assert.Equal(t, 129.0, *product.Price)
	assert.Equal(t, "Garnius", product.Source.SiteName)
	assert.Equal(t, melodyURL, product.Source.URL)
	require.Len(t, product.Images, 2)
	_, hasPrimary := product.PrimaryImage()
	assert.False(t, hasPrimary)
	f.AssertExpectations(t)
}

func TestScrapeURLSurvivesModelFailure(t *testing.T) {
	baseline, err := newTestService(pageFetcher(melodyURL, melodyPage), nil, nil).
		ScrapeURL(context.Background(), melodyURL)
	require.NoError(t, err)

	tests := []struct {
		name      string
		completer *scriptedCompleter
	}{
		{"unparseable response", &scriptedCompleter{responses: []string{"Beklager, jeg fant ingenting.", "ingen"}}},
		{"api error", &scriptedCompleter{errs: []error{errors.New("overloaded"), errors.New("overloaded")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(pageFetcher(melodyURL, melodyPage), tt.completer, nil)

			product, err := s.ScrapeURL(context.Background(), melodyURL)

			require.NoError(t, err)
			product.Source.ScrapedAt = baseline.Source.ScrapedAt
			assert.Equal(t, baseline, product)
			assert.Len(t, tt.completer.requests, 2)
		})
	}
}

func TestScrapeURLMergesModelFields(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{
		"```json\n" + `{"name": null, "gauge": "13 m x 17 p = 10 cm", "careInstructions": "Håndvask 30°", "producer": "DROPS", "price": 119}` + "\n```",
		"1",
	}}
	s := newTestService(pageFetcher(melodyURL, melodyPage), completer, nil)

	product, err := s.ScrapeURL(context.Background(), melodyURL)

	require.NoError(t, err)
	assert.Equal(t, "Drops Melody", product.Name)
	assert.Equal(t, "13 m x 17 p = 10 cm", product.Gauge)
	assert.Equal(t, "Håndvask 30°", product.CareInstructions)
	assert.Equal(t, "Drops Design", product.Producer)
	require.NotNil(t, product.Price)
	assert.Equal(t, 119.0, *product.Price)
	assert.Equal(t, "7mm", product.NeedleSize)

	primary, ok := product.PrimaryImage()
	require.True(t, ok)
	assert.Equal(t, "https://garnius.no/wp-content/uploads/melody-2.jpg", primary.URL)
	assert.False(t, product.Images[0].IsPrimary)

	require.Len(t, completer.requests, 2)
	assert.Contains(t, completer.requests[1].Prompt, "Produkt: Drops Melody")
}

func TestScrapeURLSingleImageSkipsRanking(t *testing.T) {
	pageURL := "https://garnius.no/produkt/drops-air/"
	completer := &scriptedCompleter{responses: []string{`{}`}}
	s := newTestService(pageFetcher(pageURL, singleImagePage), completer, nil)

	product, err := s.ScrapeURL(context.Background(), pageURL)

	require.NoError(t, err)
	require.Len(t, product.Images, 1)
	assert.False(t, product.Images[0].IsPrimary)
	assert.Len(t, completer.requests, 1)
}

func TestScrapeURLNameNotFound(t *testing.T) {
	pageURL := "https://example.com/garn/ukjent"
	page := `<html><body><p>Pris 189 kr</p></body></html>`

	t.Run("heuristics only", func(t *testing.T) {
		s := newTestService(pageFetcher(pageURL, page), nil, nil)

		_, err := s.ScrapeURL(context.Background(), pageURL)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNameNotFound)
		assert.Equal(t, "Kunne ikke hente produktinformasjon: fant ikke produktnavn", err.Error())
	})

	t.Run("model supplies the name", func(t *testing.T) {
		completer := &scriptedCompleter{responses: []string{`{"name": "Alpakka Silke"}`}}
		s := newTestService(pageFetcher(pageURL, page), completer, nil)

		product, err := s.ScrapeURL(context.Background(), pageURL)

		require.NoError(t, err)
		assert.Equal(t, "Alpakka Silke", product.Name)
		assert.Equal(t, "example.com", product.Source.SiteName)
	})
}

func TestScrapeURLMetrics(t *testing.T) {
	metrics := NewMetrics()
	completer := &scriptedCompleter{responses: []string{"not json", "0"}}
	s := newTestService(pageFetcher(melodyURL, melodyPage), completer, metrics)

	_, err := s.ScrapeURL(context.Background(), melodyURL)
	require.NoError(t, err)
	_, err = s.ScrapeURL(context.Background(), "ftp://garnius.no/")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ScrapesTotal.WithLabelValues("Garnius", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ScrapesTotal.WithLabelValues("none", "invalid_url")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ModelCalls.WithLabelValues(stageReconcile, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ModelCalls.WithLabelValues(stageRank, "success")))
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "success", outcomeLabel(nil))
	assert.Equal(t, "invalid_url", outcomeLabel(ErrUnsupportedProtocol))
	assert.Equal(t, "http_status", outcomeLabel(fetch.NewStatusError(500, "")))
	assert.Equal(t, "no_name", outcomeLabel(ErrNameNotFound))
	assert.Equal(t, "timeout", outcomeLabel(context.DeadlineExceeded))
	assert.Equal(t, "fetch_error", outcomeLabel(errors.New("boom")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncScrape("generic", "success")
		m.IncModelCall(stageRank, "error")
		m.ObserveFetch(time.Second)
	})
}
