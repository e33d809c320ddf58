package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	log "github.com/sirupsen/logrus"
)

// maxBodyBytes caps how much of a feed is read into memory.
const maxBodyBytes = 16 << 20

var ErrNotModifiedWithoutCache = errors.New("feed answered 304 Not Modified but nothing is cached")

type FetchResult struct {
	Url       string
	Body      []byte
	FromCache bool
}

type cacheEntry struct {
	etag         string
	lastModified string
	body         []byte
}

// Fetcher downloads ICS feeds, retrying transient failures and revalidating with ETag/Last-Modified.
// The validator cache lives in memory for the lifetime of the Fetcher.
type Fetcher struct {
	client   *http.Client
	attempts uint
	delay    time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewFetcher(timeout time.Duration, attempts uint) *Fetcher {
	if attempts == 0 {
		attempts = 1
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		attempts: attempts,
		delay:    500 * time.Millisecond,
		cache:    make(map[string]cacheEntry),
	}
}

// Fetch returns the body of the feed at rawUrl. When the feed cannot be reached but an earlier copy
// is cached, the cached copy is returned instead of an error.
func (f *Fetcher) Fetch(ctx context.Context, rawUrl string) (FetchResult, error) {
	feedUrl, err := normalizeUrl(rawUrl)
	if err != nil {
		return FetchResult{}, err
	}

	f.mu.Lock()
	cached, hasCache := f.cache[feedUrl]
	f.mu.Unlock()

	var result FetchResult
	err = retry.Do(
		func() error {
			var fetchErr error
			result, fetchErr = f.fetchOnce(ctx, feedUrl, cached, hasCache)
			return fetchErr
		},
		retry.Context(ctx),
		retry.Attempts(f.attempts),
		retry.Delay(f.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debugf("Retrying fetch of %s (attempt %d): %v", redactUrl(feedUrl), n+1, err)
		}),
	)
	if err != nil {
		if hasCache {
			log.Warnf("Fetching %s failed, using cached copy: %v", redactUrl(feedUrl), err)
			return FetchResult{Url: feedUrl, Body: cached.body, FromCache: true}, nil
		}
		return FetchResult{}, fmt.Errorf("failed to fetch %s: %w", redactUrl(feedUrl), err)
	}
	return result, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, feedUrl string, cached cacheEntry, hasCache bool) (FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedUrl, nil)
	if err != nil {
		return FetchResult{}, retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "text/calendar, */*;q=0.5")
	if hasCache {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return FetchResult{}, err
		}
		f.mu.Lock()
		f.cache[feedUrl] = cacheEntry{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
		}
		f.mu.Unlock()
		log.Debugf("Fetched %s (%d bytes)", redactUrl(feedUrl), len(body))
		return FetchResult{Url: feedUrl, Body: body}, nil
	case resp.StatusCode == http.StatusNotModified:
		if !hasCache {
			return FetchResult{}, retry.Unrecoverable(ErrNotModifiedWithoutCache)
		}
		log.Debugf("Feed %s not modified", redactUrl(feedUrl))
		return FetchResult{Url: feedUrl, Body: cached.body, FromCache: true}, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return FetchResult{}, fmt.Errorf("unexpected status %s", resp.Status)
	default:
		return FetchResult{}, retry.Unrecoverable(fmt.Errorf("unexpected status %s", resp.Status))
	}
}

// normalizeUrl turns webcal links into https and rejects anything that is not http(s).
func normalizeUrl(rawUrl string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawUrl))
	if err != nil {
		return "", fmt.Errorf("invalid feed url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "webcal", "webcals":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported feed url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("feed url has no host")
	}
	return u.String(), nil
}

// redactUrl keeps only scheme and host, private feed urls carry secrets in path and query.
func redactUrl(rawUrl string) string {
	u, err := url.Parse(rawUrl)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
