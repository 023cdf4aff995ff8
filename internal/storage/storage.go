package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/maltedev/yarn-scraper/internal/models"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Entry is the latest scrape outcome for one page URL.
type Entry struct {
	URL       string                  `json:"url"`
	Status    string                  `json:"status"`
	Product   *models.YarnProductData `json:"product,omitempty"`
	Error     string                  `json:"error,omitempty"`
	AddedAt   time.Time               `json:"added_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// ResultStore keeps scrape outcomes in a JSON file keyed by URL. A URL scraped again
// replaces its previous entry.
type ResultStore struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	filename string
	now      func() time.Time
}

func NewResultStore(filename string) (*ResultStore, error) {
	s := &ResultStore{
		entries:  make(map[string]*Entry),
		filename: filename,
		now:      time.Now,
	}

	if err := s.load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", filename, err)
	}
	return s, nil
}

func (s *ResultStore) SaveProduct(product *models.YarnProductData) error {
	if product == nil || product.Source.URL == "" {
		return fmt.Errorf("product URL is required")
	}
	return s.put(&Entry{URL: product.Source.URL, Status: StatusCompleted, Product: product})
}

func (s *ResultStore) SaveFailure(pageURL string, scrapeErr error) error {
	if pageURL == "" {
		return fmt.Errorf("URL is required")
	}
	entry := &Entry{URL: pageURL, Status: StatusFailed}
	if scrapeErr != nil {
		entry.Error = scrapeErr.Error()
	}
	return s.put(entry)
}

func (s *ResultStore) put(entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	entry.AddedAt = now
	if prev, ok := s.entries[entry.URL]; ok {
		entry.AddedAt = prev.AddedAt
	}
	entry.UpdatedAt = now

	s.entries[entry.URL] = entry
	return s.save()
}

func (s *ResultStore) Get(pageURL string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[pageURL]
	return entry, ok
}

// Entries returns all entries ordered by URL.
func (s *ResultStore) Entries() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

func (s *ResultStore) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int)
	for _, entry := range s.entries {
		stats[entry.Status]++
	}
	stats["total"] = len(s.entries)
	return stats
}

func (s *ResultStore) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}

	// write then rename so a crash never leaves a truncated file
	tmpFile := s.filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpFile, s.filename)
}

func (s *ResultStore) load() error {
	data, err := os.ReadFile(s.filename)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.entries)
}
