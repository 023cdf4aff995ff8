package parser

import (
	"net/url"

	"github.com/maltedev/yarn-scraper/internal/models"
)

// Parser extracts a yarn product record from one vendor's page layout.
type Parser interface {
	Name() string
	CanHandle(u *url.URL) bool
	Scrape(html string, pageURL string) (*models.YarnProductData, error)
}

// Registry dispatches a URL to the first parser that claims it.
type Registry struct {
	parsers  []Parser
	fallback Parser
}

// NewRegistry builds a registry that tries parsers in order and ends with fallback.
func NewRegistry(fallback Parser, parsers ...Parser) *Registry {
	return &Registry{
		parsers:  parsers,
		fallback: fallback,
	}
}

// DefaultRegistry holds every site parser followed by the generic parser.
func DefaultRegistry(limits Limits) *Registry {
	sites := DefaultSiteProfiles()
	parsers := make([]Parser, 0, len(sites))
	for _, profile := range sites {
		parsers = append(parsers, NewSiteParser(profile, limits))
	}
	return NewRegistry(NewGenericParser(limits), parsers...)
}

// Select returns the parser for u. It returns nil only when no fallback was registered.
func (r *Registry) Select(u *url.URL) Parser {
	for _, p := range r.parsers {
		if p.CanHandle(u) {
			return p
		}
	}
	if r.fallback != nil && r.fallback.CanHandle(u) {
		return r.fallback
	}
	return nil
}

func (r *Registry) Parsers() []Parser {
	out := make([]Parser, 0, len(r.parsers)+1)
	out = append(out, r.parsers...)
	if r.fallback != nil {
		out = append(out, r.fallback)
	}
	return out
}
