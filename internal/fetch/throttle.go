package fetch

import (
	"context"
	"net/url"

	"github.com/maltedev/yarn-scraper/internal/ratelimit"
)

// ThrottledFetcher waits for the page's host to be free before delegating.
type ThrottledFetcher struct {
	next    Fetcher
	limiter *ratelimit.HostLimiter
}

// Throttle wraps f with a per-host delay. It returns f unchanged when the limiter is
// disabled.
func Throttle(f Fetcher, limiter *ratelimit.HostLimiter) Fetcher {
	if !limiter.Enabled() {
		return f
	}
	return &ThrottledFetcher{next: f, limiter: limiter}
}

func (t *ThrottledFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if u, err := url.Parse(pageURL); err == nil {
		if err := t.limiter.Wait(ctx, u.Hostname()); err != nil {
			return "", err
		}
	}
	return t.next.Fetch(ctx, pageURL)
}
