// internal/fetch/images.go

// Package fetch downloads product images. Downloads within one product's
// photo set are independent, stateless fetches and run concurrently; the
// caller gets the joined result in input order.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/types"
)

var fetchLogger = utils.NewComponentLogger("image-fetch")

// DefaultMaxImageBytes caps a single image download at 16 MB, matching the
// document-store limit for a single record's payload headroom.
const DefaultMaxImageBytes = 16 << 20

// ImageFetcher downloads photo sets.
type ImageFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewImageFetcher creates a fetcher with the given per-request timeout and
// size cap. Zero values select defaults.
func NewImageFetcher(timeout time.Duration, maxBytes int64) *ImageFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &ImageFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxBytes: maxBytes,
	}
}

// FetchAll downloads every URL concurrently and joins the results in input
// order. A failed or oversized download yields a Photo with empty Data and is
// logged; it does not fail the set.
func (f *ImageFetcher) FetchAll(ctx context.Context, urls []string) []types.Photo {
	photos := make([]types.Photo, len(urls))

	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			photo, err := f.fetch(ctx, url)
			if err != nil {
				fetchLogger.Errorf("Failed to download image %s: %v", url, err)
				photos[i] = types.Photo{URL: url}
				return
			}
			photos[i] = photo
		}(i, url)
	}
	wg.Wait()

	return photos
}

func (f *ImageFetcher) fetch(ctx context.Context, url string) (types.Photo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.Photo{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return types.Photo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Photo{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return types.Photo{}, fmt.Errorf("image too large: content length %d", resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return types.Photo{}, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return types.Photo{}, fmt.Errorf("image too large: body exceeds %d bytes", f.maxBytes)
	}

	return types.Photo{
		URL:         url,
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
