package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/maltedev/yarn-scraper/internal/database"
	"github.com/maltedev/yarn-scraper/internal/fetch"
	"github.com/maltedev/yarn-scraper/internal/models"
	"github.com/maltedev/yarn-scraper/internal/scraper"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) ScrapeURL(ctx context.Context, rawURL string) (*models.YarnProductData, error) {
	args := m.Called(ctx, rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.YarnProductData), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Record(ctx context.Context, product *models.YarnProductData) (*database.ScrapeResult, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.ScrapeResult), args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, id uuid.UUID) (*database.ScrapeResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.ScrapeResult), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, limit, offset int) ([]*database.ScrapeResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*database.ScrapeResult), args.Error(1)
}

type fakeOutbox struct {
	pending, deadLetter int64
	err                 error
}

func (f fakeOutbox) Counts(context.Context) (int64, int64, error) {
	return f.pending, f.deadLetter, f.err
}

const airURL = "https://garnius.no/produkt/drops-air/"

func airProduct() *models.YarnProductData {
	p := models.NewYarnProduct(airURL, "Garnius")
	p.Name = "Drops Air"
	p.Producer = "Drops Design"
	return p
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(s Scraper, opts ...Option) http.Handler {
	h := NewHandlers(s, quietLogger(), opts...)
	return NewRouter(h, RouterConfig{RateLimit: 1000, RateBurst: 1000, Metrics: prometheus.NewRegistry()})
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestScrapeHandler(t *testing.T) {
	t.Run("returns the product", func(t *testing.T) {
		s := &mockScraper{}
		s.On("ScrapeURL", mock.Anything, airURL).Return(airProduct(), nil)

		rec := doRequest(t, newTestRouter(s), http.MethodPost, "/api/v1/scrape", `{"url":"`+airURL+`"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ScrapeResponse
		decodeBody(t, rec, &resp)
		assert.Empty(t, resp.ID)
		require.NotNil(t, resp.Product)
		assert.Equal(t, "Drops Air", resp.Product.Name)
	})

	t.Run("records when history is enabled", func(t *testing.T) {
		s := &mockScraper{}
		product := airProduct()
		s.On("ScrapeURL", mock.Anything, airURL).Return(product, nil)
		store := &mockStore{}
		result := database.NewScrapeResult(product)
		store.On("Record", mock.Anything, product).Return(result, nil)

		rec := doRequest(t, newTestRouter(s, WithHistory(store, store)), http.MethodPost, "/api/v1/scrape", `{"url":"`+airURL+`"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ScrapeResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, result.ID.String(), resp.ID)
		store.AssertExpectations(t)
	})

	t.Run("record failure still returns the product", func(t *testing.T) {
		s := &mockScraper{}
		s.On("ScrapeURL", mock.Anything, airURL).Return(airProduct(), nil)
		store := &mockStore{}
		store.On("Record", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		rec := doRequest(t, newTestRouter(s, WithHistory(store, store)), http.MethodPost, "/api/v1/scrape", `{"url":"`+airURL+`"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ScrapeResponse
		decodeBody(t, rec, &resp)
		assert.Empty(t, resp.ID)
		assert.Equal(t, "Drops Air", resp.Product.Name)
	})
}

func TestScrapeHandlerErrors(t *testing.T) {
	wrap := func(err error) error { return &scraper.ScrapeError{URL: airURL, Err: err} }

	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"malformed body", `{"url":`, nil, http.StatusBadRequest},
		{"missing url", `{}`, nil, http.StatusBadRequest},
		{"bad protocol", `{"url":"ftp://garnius.no/x"}`, wrap(fmt.Errorf("%w: ftp", scraper.ErrUnsupportedProtocol)), http.StatusBadRequest},
		{"invalid url", `{"url":"garnius"}`, wrap(scraper.ErrInvalidURL), http.StatusBadRequest},
		{"no name", `{"url":"` + airURL + `"}`, wrap(scraper.ErrNameNotFound), http.StatusUnprocessableEntity},
		{"upstream status", `{"url":"` + airURL + `"}`, wrap(fetch.NewStatusError(503, "")), http.StatusBadGateway},
		{"network", `{"url":"` + airURL + `"}`, wrap(errors.New("dial tcp: timeout")), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &mockScraper{}
			if tt.err != nil {
				s.On("ScrapeURL", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			rec := doRequest(t, newTestRouter(s), http.MethodPost, "/api/v1/scrape", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			decodeBody(t, rec, &body)
			assert.NotEmpty(t, body["error"])
			if tt.err != nil {
				assert.True(t, strings.HasPrefix(body["error"], "Kunne ikke hente produktinformasjon: "))
			}
		})
	}
}

func TestHistoryHandlers(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		router := newTestRouter(&mockScraper{})

		assert.Equal(t, http.StatusServiceUnavailable, doRequest(t, router, http.MethodGet, "/api/v1/scrapes", "").Code)
		assert.Equal(t, http.StatusServiceUnavailable, doRequest(t, router, http.MethodGet, "/api/v1/scrapes/"+uuid.NewString(), "").Code)
	})

	t.Run("list clamps paging", func(t *testing.T) {
		store := &mockStore{}
		result := database.NewScrapeResult(airProduct())
		store.On("List", mock.Anything, defaultListLimit, 0).Return([]*database.ScrapeResult{result}, nil)

		rec := doRequest(t, newTestRouter(&mockScraper{}, WithHistory(store, store)), http.MethodGet, "/api/v1/scrapes?limit=5000&offset=-3", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ListResponse
		decodeBody(t, rec, &resp)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "Drops Air", resp.Results[0].Name)
		assert.Equal(t, defaultListLimit, resp.Limit)
		store.AssertExpectations(t)
	})

	t.Run("list empty", func(t *testing.T) {
		store := &mockStore{}
		store.On("List", mock.Anything, 10, 20).Return(nil, nil)

		rec := doRequest(t, newTestRouter(&mockScraper{}, WithHistory(store, store)), http.MethodGet, "/api/v1/scrapes?limit=10&offset=20", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"results":[]`)
	})

	t.Run("get", func(t *testing.T) {
		store := &mockStore{}
		result := database.NewScrapeResult(airProduct())
		missing := uuid.New()
		store.On("Get", mock.Anything, result.ID).Return(result, nil)
		store.On("Get", mock.Anything, missing).Return(nil, database.ErrNotFound)
		router := newTestRouter(&mockScraper{}, WithHistory(store, store))

		rec := doRequest(t, router, http.MethodGet, "/api/v1/scrapes/"+result.ID.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)
		var got database.ScrapeResult
		decodeBody(t, rec, &got)
		assert.Equal(t, result.ID, got.ID)

		assert.Equal(t, http.StatusNotFound, doRequest(t, router, http.MethodGet, "/api/v1/scrapes/"+missing.String(), "").Code)
		assert.Equal(t, http.StatusBadRequest, doRequest(t, router, http.MethodGet, "/api/v1/scrapes/not-a-uuid", "").Code)
	})
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		status int
		want   string
	}{
		{"no database", nil, http.StatusOK, "ok"},
		{"healthy outbox", []Option{WithOutboxStats(fakeOutbox{pending: 3})}, http.StatusOK, "ok"},
		{"backlog", []Option{WithOutboxStats(fakeOutbox{pending: 1500})}, http.StatusOK, "warning"},
		{"dead letters", []Option{WithOutboxStats(fakeOutbox{deadLetter: 101})}, http.StatusServiceUnavailable, "error"},
		{"database error", []Option{WithOutboxStats(fakeOutbox{err: errors.New("down")})}, http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, newTestRouter(&mockScraper{}, tt.opts...), http.MethodGet, "/health", "")

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]any
			decodeBody(t, rec, &body)
			assert.Equal(t, tt.want, body["status"])
		})
	}
}

func TestRateLimit(t *testing.T) {
	s := &mockScraper{}
	s.On("ScrapeURL", mock.Anything, airURL).Return(airProduct(), nil)
	router := NewRouter(NewHandlers(s, quietLogger()), RouterConfig{RateLimit: 0.001, RateBurst: 2})

	body := `{"url":"` + airURL + `"}`
	assert.Equal(t, http.StatusOK, doRequest(t, router, http.MethodPost, "/api/v1/scrape", body).Code)
	assert.Equal(t, http.StatusOK, doRequest(t, router, http.MethodPost, "/api/v1/scrape", body).Code)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/scrape", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/health", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "yarn_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	router := NewRouter(NewHandlers(&mockScraper{}, quietLogger()), RouterConfig{Metrics: registry})
	rec := doRequest(t, router, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "yarn_test_total 1")
}
