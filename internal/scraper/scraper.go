package scraper

import (
	"context"
	"errors"

	"github.com/maltedev/yarn-scraper/internal/fetch"
)

var (
	ErrInvalidURL          = errors.New("ugyldig URL")
	ErrUnsupportedProtocol = errors.New("ugyldig protokoll")
	ErrNoParser            = errors.New("fant ingen parser for URL")
	ErrNameNotFound        = errors.New("fant ikke produktnavn")
)

// ScrapeError is the only error ScrapeURL returns. It unwraps to the cause.
type ScrapeError struct {
	URL string
	Err error
}

func (e *ScrapeError) Error() string {
	return "Kunne ikke hente produktinformasjon: " + e.Err.Error()
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err was caused by the URL itself rather than the page.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidURL) || errors.Is(err, ErrUnsupportedProtocol)
}

// outcomeLabel maps an error to the outcome label used in metrics.
func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	var status *fetch.StatusError
	switch {
	case IsInputError(err):
		return "invalid_url"
	case errors.As(err, &status):
		return "http_status"
	case errors.Is(err, ErrNameNotFound):
		return "no_name"
	case errors.Is(err, ErrNoParser):
		return "no_parser"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "fetch_error"
	}
}
