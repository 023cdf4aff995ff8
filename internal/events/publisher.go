package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/maltedev/yarn-scraper/internal/database"
	"github.com/maltedev/yarn-scraper/internal/models"
)

type EventType string

const (
	// EventTypeYarnProductScraped is recorded for every product returned to an API caller.
	EventTypeYarnProductScraped EventType = "YARN_PRODUCT_SCRAPED"

	aggregateType = "scrape_result"
)

type YarnProductScrapedPayload struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	Timestamp    time.Time `json:"timestamp"`
	ScrapeID     string    `json:"scrape_id"`
	URL          string    `json:"url"`
	SiteName     string    `json:"site_name"`
	Name         string    `json:"name"`
	Producer     string    `json:"producer,omitempty"`
	Composition  string    `json:"composition,omitempty"`
	Price        *Price    `json:"price,omitempty"`
	Colors       []string  `json:"colors,omitempty"`
	PrimaryImage string    `json:"primary_image,omitempty"`
	Source       string    `json:"source"`
}

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// NewYarnProductScrapedPayload summarises a stored scrape for stream consumers.
func NewYarnProductScrapedPayload(result *database.ScrapeResult) *YarnProductScrapedPayload {
	product := result.Product
	payload := &YarnProductScrapedPayload{
		EventID:     uuid.New().String(),
		EventType:   string(EventTypeYarnProductScraped),
		Timestamp:   time.Now(),
		ScrapeID:    result.ID.String(),
		URL:         product.Source.URL,
		SiteName:    product.Source.SiteName,
		Name:        product.Name,
		Producer:    product.Producer,
		Composition: product.Composition,
		Source:      "yarn-scraper",
	}
	if product.Price != nil {
		payload.Price = &Price{Amount: *product.Price, Currency: product.Currency}
	}
	for _, c := range product.Colors {
		payload.Colors = append(payload.Colors, c.Name)
	}
	if img, ok := product.PrimaryImage(); ok {
		payload.PrimaryImage = img.URL
	} else if len(product.Images) > 0 {
		payload.PrimaryImage = product.Images[0].URL
	}
	return payload
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error
}

type ResultWriter interface {
	InsertWithTx(ctx context.Context, tx pgx.Tx, result *database.ScrapeResult) error
}

type OutboxWriter interface {
	InsertWithTx(ctx context.Context, tx pgx.Tx, event *database.OutboxEvent) error
}

// Publisher stores scrape results and their outbox events in one transaction.
type Publisher struct {
	db      TxRunner
	results ResultWriter
	outbox  OutboxWriter
	stream  string
	logger  *slog.Logger
}

func NewPublisher(db *database.DB, logger *slog.Logger) *Publisher {
	return newPublisher(db, database.NewScrapeResultRepository(db), database.NewOutboxRepository(db), logger)
}

func newPublisher(db TxRunner, results ResultWriter, outbox OutboxWriter, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		db:      db,
		results: results,
		outbox:  outbox,
		stream:  database.DefaultStream,
		logger:  logger.With("component", "event_publisher"),
	}
}

// Record persists product and queues a YARN_PRODUCT_SCRAPED event for it.
func (p *Publisher) Record(ctx context.Context, product *models.YarnProductData) (*database.ScrapeResult, error) {
	result := database.NewScrapeResult(product)
	payload := NewYarnProductScrapedPayload(result)

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	event := &database.OutboxEvent{
		AggregateType: aggregateType,
		AggregateID:   result.ID.String(),
		EventType:     string(EventTypeYarnProductScraped),
		Payload:       data,
		TargetStream:  p.stream,
	}

	err = p.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := p.results.InsertWithTx(ctx, tx, result); err != nil {
			return err
		}
		return p.outbox.InsertWithTx(ctx, tx, event)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record scrape: %w", err)
	}

	p.logger.Info("scrape recorded",
		"scrape_id", result.ID,
		"event_id", payload.EventID,
		"url", result.URL,
		"name", result.Name)
	return result, nil
}
