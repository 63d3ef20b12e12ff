// internal/crawler/search.go
package crawler

import (
	"context"

	"github.com/shelfscout/shelfscout/internal/adapter"
	"github.com/shelfscout/shelfscout/internal/browser"
	"github.com/shelfscout/shelfscout/internal/utils"
)

var searchLogger = utils.NewComponentLogger("search")

// Collector runs keyword searches on one site and assembles the deduplicated
// set of product URLs to visit.
type Collector struct {
	adapter adapter.SiteAdapter
	maxPer  int
}

// NewCollector creates a collector for one site adapter. maxPerKeyword caps
// the URLs kept per keyword; values below 1 count as 1.
func NewCollector(siteAdapter adapter.SiteAdapter, maxPerKeyword int) *Collector {
	if maxPerKeyword < 1 {
		maxPerKeyword = 1
	}
	return &Collector{adapter: siteAdapter, maxPer: maxPerKeyword}
}

// Collect searches every keyword and returns keyword to product URLs. Every
// keyword appears in the result, a no-hit keyword with an empty slice.
// Within one keyword, duplicate listings are dropped by canonical product
// identifier, keeping the first URL seen; URLs without an extractable
// identifier dedupe by the URL itself. Dedup is scoped per keyword: the same
// product discovered under two keywords is visited twice, and reconciliation
// resolves the pair against the store.
func (c *Collector) Collect(ctx context.Context, page browser.Page, keywords []string) (map[string][]string, error) {
	results := make(map[string][]string, len(keywords))

	for _, keyword := range keywords {
		seen := make(map[string]bool)
		urls, err := c.adapter.Discover(ctx, page, keyword, c.maxPer)
		if err != nil {
			return nil, err
		}

		// Adapters may overshoot the cap when a result page yields more
		// links than requested.
		if len(urls) > c.maxPer {
			urls = urls[:c.maxPer]
		}

		kept := make([]string, 0, len(urls))
		for _, u := range urls {
			key := c.adapter.CanonicalID(u)
			if key == "" {
				key = u
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			kept = append(kept, u)
		}

		searchLogger.Infof("Keyword %q on %s: %d product(s) after dedup",
			keyword, c.adapter.SiteID(), len(kept))
		results[keyword] = kept
	}

	return results, nil
}
