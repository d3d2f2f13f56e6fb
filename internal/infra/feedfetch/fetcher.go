// Package feedfetch implements the feed fetcher and parser (C2): an HTTP
// GET against a feed URL, parsed as RSS, Atom, or JSON Feed through a
// single unified parser, and normalized into a FetchedFeed.
package feedfetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"feedrelay/internal/domain/entity"
	"feedrelay/internal/resilience/circuitbreaker"
	"feedrelay/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
)

// Fetcher fetches and normalizes feeds over HTTP. It is safe for
// concurrent use; it keeps one circuit breaker per feed host so that one
// misbehaving host cannot trip fetches for every other feed.
type Fetcher struct {
	config      Config
	client      *http.Client
	retryConfig retry.Config

	mu       sync.Mutex
	breakers map[string]*circuitbreaker.CircuitBreaker
}

// New creates a Fetcher from the given configuration.
func New(cfg Config) *Fetcher {
	f := &Fetcher{
		config:      cfg,
		retryConfig: retry.FeedFetchConfig(),
		breakers:    make(map[string]*circuitbreaker.CircuitBreaker),
	}

	f.client = &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			return nil
		},
	}

	return f
}

// Fetch performs an HTTP GET against url, parses the response as RSS,
// Atom, or JSON Feed, and normalizes the result. It does not re-validate
// the URL for SSRF safety; that happens once, at subscribe time, via
// Validate.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*FetchedFeed, error) {
	cb := f.breakerFor(feedURL)

	var parsed *gofeed.Feed
	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := cb.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return err
			}
			return err
		}
		parsed = cbResult.(*gofeed.Feed)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	return normalize(parsed, feedURL, time.Now()), nil
}

// FetchForFeed fetches feed.Link and applies feed's ContentFields
// ingest whitelist to each item before returning, zeroing advisory
// fields (description, author, guid) the whitelist disallows. Sync
// calls this instead of Fetch so the whitelist is enforced before
// items ever reach persistence.
func (f *Fetcher) FetchForFeed(ctx context.Context, feed *entity.Feed) (*FetchedFeed, error) {
	fetched, err := f.Fetch(ctx, feed.Link)
	if err != nil {
		return nil, err
	}
	for i, item := range fetched.Items {
		fetched.Items[i] = applyContentFields(item, feed)
	}
	return fetched, nil
}

// Validate fetches url and reports the feed_type it parses as, or
// an error if it cannot be used as a feed (the entity.ValidateURL error
// for a malformed URL, ErrNotAFeed when it does not parse). It is used at
// subscribe time and performs the same fetch as Fetch.
func (f *Fetcher) Validate(ctx context.Context, feedURL string) (entity.FeedType, error) {
	if err := entity.ValidateURL(feedURL); err != nil {
		return "", err
	}

	fetched, err := f.Fetch(ctx, feedURL)
	if err != nil {
		return "", err
	}
	return fetched.FeedType, nil
}

// doFetch performs the actual HTTP request and unified parse, outside of
// retry/circuit-breaker bookkeeping.
func (f *Fetcher) doFetch(ctx context.Context, feedURL string) (interface{}, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = f.config.UserAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			return nil, fmt.Errorf("%w: %v", ErrNotAFeed, err)
		}
		return nil, err
	}
	return feed, nil
}

func (f *Fetcher) breakerFor(feedURL string) *circuitbreaker.CircuitBreaker {
	host := feedURL
	if u, err := url.Parse(feedURL); err == nil && u.Host != "" {
		host = u.Host
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if cb, ok := f.breakers[host]; ok {
		return cb
	}

	cfg := circuitbreaker.FeedFetchConfig()
	cfg.Name = fmt.Sprintf("feed-fetch:%s", host)
	cb := circuitbreaker.New(cfg)
	f.breakers[host] = cb
	return cb
}
