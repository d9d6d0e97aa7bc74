// Package covers fetches album cover art over HTTP with disk caching.
package covers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/trumully/dynamo/internal/blobcache"
)

const (
	// maxCoverSize limits download size to prevent memory exhaustion.
	maxCoverSize = 10 * 1024 * 1024 // 10MB

	// fetchTimeout is the maximum time for a cover download.
	fetchTimeout = 30 * time.Second

	// cacheTTL is how long fetched covers stay in the blob cache. Cover
	// URLs point at immutable CDN objects, so a long TTL is safe.
	cacheTTL = 24 * time.Hour
)

// Fetcher downloads album covers and caches the raw bytes on disk.
// Concurrent fetches of the same URL are collapsed into one download.
type Fetcher struct {
	httpClient *http.Client
	cache      *blobcache.Cache
	group      singleflight.Group
	logger     *slog.Logger
}

// NewFetcher creates a cover fetcher backed by the given blob cache.
func NewFetcher(cache *blobcache.Cache, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
		cache:  cache,
		logger: logger,
	}
}

// Fetch returns the cover bytes at rawURL, from cache when possible.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if !validURL(rawURL) {
		return nil, fmt.Errorf("invalid cover URL: %q", rawURL)
	}

	key := cacheKey(rawURL)
	if data, ok, err := f.cache.Get(key); err != nil {
		f.logger.Warn("cover cache read failed", "url", rawURL, "error", err)
	} else if ok {
		return data, nil
	}

	v, err, _ := f.group.Do(key, func() (any, error) {
		data, err := f.download(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if err := f.cache.Set(key, data, cacheTTL); err != nil {
			f.logger.Warn("cover cache write failed", "url", rawURL, "error", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	downloadCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverSize))
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty response body")
	}

	f.logger.Debug("downloaded cover", "url", rawURL, "size", len(data))
	return data, nil
}

// cacheKey derives a short stable blob key from a cover URL.
func cacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return "cover:" + hex.EncodeToString(sum[:16])
}

// validURL reports whether s parses as an absolute http(s) URL.
func validURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
