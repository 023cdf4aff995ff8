package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/maltedev/yarn-scraper/internal/models"
)

var ErrNotFound = errors.New("scrape result not found")

// ScrapeResult is one stored extraction.
type ScrapeResult struct {
	ID        uuid.UUID               `json:"id"`
	URL       string                  `json:"url"`
	SiteName  string                  `json:"siteName"`
	Name      string                  `json:"name"`
	Producer  string                  `json:"producer,omitempty"`
	Product   *models.YarnProductData `json:"product"`
	ScrapedAt time.Time               `json:"scrapedAt"`
	CreatedAt time.Time               `json:"createdAt"`
}

// NewScrapeResult wraps product for storage under a fresh ID.
func NewScrapeResult(product *models.YarnProductData) *ScrapeResult {
	return &ScrapeResult{
		ID:        uuid.New(),
		URL:       product.Source.URL,
		SiteName:  product.Source.SiteName,
		Name:      product.Name,
		Producer:  product.Producer,
		Product:   product,
		ScrapedAt: product.Source.ScrapedAt,
	}
}

type ScrapeResultRepository struct {
	db *DB
}

func NewScrapeResultRepository(db *DB) *ScrapeResultRepository {
	return &ScrapeResultRepository{db: db}
}

func (r *ScrapeResultRepository) InsertWithTx(ctx context.Context, tx pgx.Tx, result *ScrapeResult) error {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	product, err := json.Marshal(result.Product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}
	result.CreatedAt = time.Now()

	query := `
		INSERT INTO scrape_results (id, url, site_name, name, producer, product, scraped_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = tx.Exec(ctx, query,
		result.ID, result.URL, result.SiteName, result.Name, nullable(result.Producer),
		product, result.ScrapedAt, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scrape result: %w", err)
	}
	return nil
}

func (r *ScrapeResultRepository) Get(ctx context.Context, id uuid.UUID) (*ScrapeResult, error) {
	query := `
		SELECT id, url, site_name, name, producer, product, scraped_at, created_at
		FROM scrape_results
		WHERE id = $1`

	result, err := scanScrapeResult(r.db.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scrape result: %w", err)
	}
	return result, nil
}

// List returns the most recent results first.
func (r *ScrapeResultRepository) List(ctx context.Context, limit, offset int) ([]*ScrapeResult, error) {
	query := `
		SELECT id, url, site_name, name, producer, product, scraped_at, created_at
		FROM scrape_results
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list scrape results: %w", err)
	}
	defer rows.Close()

	var results []*ScrapeResult
	for rows.Next() {
		result, err := scanScrapeResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scrape result: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return results, nil
}

func scanScrapeResult(row pgx.Row) (*ScrapeResult, error) {
	var (
		result   ScrapeResult
		producer *string
		product  []byte
	)
	err := row.Scan(&result.ID, &result.URL, &result.SiteName, &result.Name, &producer,
		&product, &result.ScrapedAt, &result.CreatedAt)
	if err != nil {
		return nil, err
	}
	if producer != nil {
		result.Producer = *producer
	}
	if err := json.Unmarshal(product, &result.Product); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	return &result, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
