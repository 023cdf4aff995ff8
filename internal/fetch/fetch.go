package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher retrieves the HTML of a product page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// NewStatusError builds a StatusError, falling back to the standard text for code.
func NewStatusError(code int, status string) *StatusError {
	status = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(status), strconv.Itoa(code)))
	if status == "" {
		status = http.StatusText(code)
	}
	return &StatusError{StatusCode: code, Status: status}
}

type Options struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	MaxBodyBytes   int64
}

func DefaultOptions() *Options {
	return &Options{
		UserAgent:      DefaultUserAgent,
		AcceptLanguage: "nb-NO,nb;q=0.9,no;q=0.8,en;q=0.7",
		Timeout:        30 * time.Second,
		MaxBodyBytes:   10 << 20,
	}
}

// HTTPFetcher is a plain GET fetcher that presents itself as a desktop browser.
type HTTPFetcher struct {
	client *http.Client
	opts   *Options
	logger *slog.Logger
}

func NewHTTPFetcher(client *http.Client, opts *Options) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTTPFetcher{
		client: client,
		opts:   opts,
		logger: slog.Default().With("component", "http_fetcher"),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if f.opts.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", f.opts.AcceptLanguage)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	f.logger.Debug("page fetched", "url", pageURL, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", NewStatusError(resp.StatusCode, resp.Status)
	}

	var body io.Reader = resp.Body
	if f.opts.MaxBodyBytes > 0 {
		body = io.LimitReader(body, f.opts.MaxBodyBytes)
	}
	reader, err := charset.NewReader(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(data), nil
}
