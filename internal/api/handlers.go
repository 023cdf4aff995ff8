package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/maltedev/yarn-scraper/internal/database"
	"github.com/maltedev/yarn-scraper/internal/models"
	"github.com/maltedev/yarn-scraper/internal/scraper"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Scraper interface {
	ScrapeURL(ctx context.Context, rawURL string) (*models.YarnProductData, error)
}

type Recorder interface {
	Record(ctx context.Context, product *models.YarnProductData) (*database.ScrapeResult, error)
}

type History interface {
	Get(ctx context.Context, id uuid.UUID) (*database.ScrapeResult, error)
	List(ctx context.Context, limit, offset int) ([]*database.ScrapeResult, error)
}

type OutboxStats interface {
	Counts(ctx context.Context) (pending, deadLetter int64, err error)
}

type Handlers struct {
	scraper  Scraper
	recorder Recorder
	history  History
	outbox   OutboxStats
	logger   *slog.Logger
}

type Option func(*Handlers)

// WithHistory stores every successful scrape and serves the history endpoints.
func WithHistory(recorder Recorder, history History) Option {
	return func(h *Handlers) {
		h.recorder = recorder
		h.history = history
	}
}

func WithOutboxStats(stats OutboxStats) Option {
	return func(h *Handlers) { h.outbox = stats }
}

func NewHandlers(s Scraper, logger *slog.Logger, opts ...Option) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		scraper: s,
		logger:  logger.With("component", "api"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type ScrapeRequest struct {
	URL string `json:"url"`
}

type ScrapeResponse struct {
	ID      string                  `json:"id,omitempty"`
	Product *models.YarnProductData `json:"product"`
}

type ListResponse struct {
	Results []*database.ScrapeResult `json:"results"`
	Limit   int                      `json:"limit"`
	Offset  int                      `json:"offset"`
}

func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	product, err := h.scraper.ScrapeURL(r.Context(), req.URL)
	if err != nil {
		h.respondError(w, scrapeErrorStatus(err), err.Error())
		return
	}

	resp := ScrapeResponse{Product: product}
	if h.recorder != nil {
		result, err := h.recorder.Record(r.Context(), product)
		if err != nil {
			h.logger.Error("failed to record scrape", "url", req.URL, "error", err)
		} else {
			resp.ID = result.ID.String()
		}
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func scrapeErrorStatus(err error) int {
	switch {
	case scraper.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, scraper.ErrNameNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusBadGateway
	}
}

func (h *Handlers) ListScrapes(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.respondError(w, http.StatusServiceUnavailable, "scrape history is not enabled")
		return
	}

	limit := queryInt(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	results, err := h.history.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list scrapes", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list scrapes")
		return
	}
	if results == nil {
		results = []*database.ScrapeResult{}
	}

	h.respondJSON(w, http.StatusOK, ListResponse{Results: results, Limit: limit, Offset: offset})
}

func (h *Handlers) GetScrape(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.respondError(w, http.StatusServiceUnavailable, "scrape history is not enabled")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "scrapeID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid scrape ID")
		return
	}

	result, err := h.history.Get(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "scrape not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get scrape", "scrape_id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get scrape")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{"status": "ok"}
	status := http.StatusOK

	if h.outbox != nil {
		pending, deadLetter, err := h.outbox.Counts(r.Context())
		if err != nil {
			h.logger.Error("failed to read outbox counts", "error", err)
			health["status"] = "error"
			health["message"] = "database unavailable"
			status = http.StatusServiceUnavailable
		} else {
			health["outbox"] = map[string]int64{
				"pending":     pending,
				"dead_letter": deadLetter,
			}
			if pending > 1000 {
				health["status"] = "warning"
				health["message"] = "high number of pending outbox events"
			}
			if deadLetter > 100 {
				health["status"] = "error"
				health["message"] = "high number of dead letter events"
				status = http.StatusServiceUnavailable
			}
		}
	}

	h.respondJSON(w, status, health)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
