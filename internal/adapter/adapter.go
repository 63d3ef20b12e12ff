// internal/adapter/adapter.go

// Package adapter contains the per-site discovery and extraction
// implementations. The crawl engine depends only on the SiteAdapter
// capability set; each supported site provides one concrete implementation.
package adapter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shelfscout/shelfscout/internal/browser"
	"github.com/shelfscout/shelfscout/internal/fetch"
	"github.com/shelfscout/shelfscout/pkg/types"
)

// SiteAdapter is the capability set one site implementation provides. Pages
// are handed in as scoped capabilities; adapters must not retain them across
// calls. ExtractReviewsAndRating additionally receives the browser because it
// may need a separate tab, which is also why the pipeline always calls it
// last: it can navigate away from the product page.
type SiteAdapter interface {
	// SiteID returns the registry identifier, e.g. "amazon".
	SiteID() string

	// Discover returns up to maxResults product URLs for a keyword. It may
	// page through several result pages internally. A keyword with no
	// results yields an empty slice, not an error.
	Discover(ctx context.Context, page browser.Page, keyword string, maxResults int) ([]string, error)

	// CanonicalID extracts the site-native product identifier from a URL,
	// so that URLs differing only in tracking parameters or wrappers
	// collapse to one identity. Returns "" when no identifier is found.
	CanonicalID(url string) string

	// ExtractCore scrapes identifiers, name, description, and price from
	// the product page.
	ExtractCore(ctx context.Context, page browser.Page) (types.CoreFields, error)

	// ExtractDescriptionDetail scrapes the extended description. Returns
	// "" when the site has none for this product.
	ExtractDescriptionDetail(ctx context.Context, page browser.Page) (string, error)

	// ExtractPhotos scrapes photo URLs and downloads their binary data.
	ExtractPhotos(ctx context.Context, page browser.Page) ([]types.Photo, error)

	// ExtractReviewsAndRating scrapes customer reviews and the star-rating
	// summary, possibly on a separate tab.
	ExtractReviewsAndRating(ctx context.Context, b browser.Browser, page browser.Page) ([]types.Review, types.Rating, error)
}

// SessionInitializer is an optional adapter capability for one-time site
// bootstrapping, such as dismissing overlays that would intercept clicks. The
// crawl engine invokes it at most once per site, before the first discovery.
type SessionInitializer interface {
	InitialSetup(ctx context.Context, page browser.Page) error
}

// Registry constructs site adapters by identifier.
type Registry struct {
	fetcher   *fetch.ImageFetcher
	factories map[string]func(domain string) SiteAdapter
}

// NewRegistry creates a registry with all built-in site adapters.
func NewRegistry(fetcher *fetch.ImageFetcher) *Registry {
	r := &Registry{fetcher: fetcher}
	r.factories = map[string]func(domain string) SiteAdapter{
		"amazon":   func(domain string) SiteAdapter { return newAmazonAdapter(domain, fetcher) },
		"walmart":  func(domain string) SiteAdapter { return newWalmartAdapter(domain, fetcher) },
		"firstcry": func(domain string) SiteAdapter { return newFirstCryAdapter(domain, fetcher) },
	}
	return r
}

// Supported returns the sorted identifiers of all registered adapters.
func (r *Registry) Supported() []string {
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// New constructs the adapter for a site identifier and domain.
func (r *Registry) New(siteID, domain string) (SiteAdapter, error) {
	factory, ok := r.factories[strings.ToLower(siteID)]
	if !ok {
		return nil, fmt.Errorf("unsupported site %q: supported sites are %s",
			siteID, strings.Join(r.Supported(), ", "))
	}
	return factory(domain), nil
}
