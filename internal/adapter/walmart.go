// internal/adapter/walmart.go
package adapter

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shelfscout/shelfscout/internal/browser"
	"github.com/shelfscout/shelfscout/internal/fetch"
	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/types"
)

var walmartLogger = utils.NewComponentLogger("adapter-walmart")

var (
	walmartItemID    = regexp.MustCompile(`/ip/(?:[^/]+/)?([0-9]{5,12})`)
	walmartIDInURL   = regexp.MustCompile(`([0-9]{8,10})`)
	walmartUPCInHTML = regexp.MustCompile(`"displayName":"UPC","displayValue":"([0-9]+)"`)
)

const (
	walmartMaxSearchPages = 20
	walmartMaxReviewPages = 50
)

type walmartAdapter struct {
	domain  string
	fetcher *fetch.ImageFetcher
}

func newWalmartAdapter(domain string, fetcher *fetch.ImageFetcher) SiteAdapter {
	return &walmartAdapter{domain: domain, fetcher: fetcher}
}

func (w *walmartAdapter) SiteID() string { return "walmart" }

func (w *walmartAdapter) baseURL() string {
	return "https://www." + w.domain
}

func (w *walmartAdapter) Discover(ctx context.Context, page browser.Page, keyword string, maxResults int) ([]string, error) {
	var urls []string
	seen := make(map[string]bool)

	for pageNum := 1; len(urls) < maxResults && pageNum <= walmartMaxSearchPages; pageNum++ {
		searchURL := fmt.Sprintf("%s/search/?query=%s&page=%d",
			w.baseURL(), url.QueryEscape(keyword), pageNum)
		if err := page.Navigate(ctx, searchURL); err != nil {
			return nil, err
		}
		doc, err := document(ctx, page)
		if err != nil {
			return nil, err
		}

		if pageNum == 1 && doc.Find("span.zero-results-message").Length() > 0 {
			return []string{}, nil
		}

		found := w.harvestSearchResults(doc)
		if len(found) == 0 {
			break
		}
		for _, u := range found {
			if seen[u] {
				continue
			}
			seen[u] = true
			urls = append(urls, u)
			if len(urls) >= maxResults {
				break
			}
		}

		if doc.Find(".paginator-btn.paginator-btn-next").Length() == 0 {
			break
		}
	}

	return urls, nil
}

// harvestSearchResults keeps only real item links; temporal offer tiles link
// outside /ip/ and are dropped.
func (w *walmartAdapter) harvestSearchResults(doc *goquery.Document) []string {
	var urls []string
	doc.Find(".search-result-gridview-item").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Find("a").First().Attr("href")
		if !ok {
			return
		}
		abs := absolutize(w.baseURL(), href)
		if abs == "" || !strings.Contains(abs, "/ip/") {
			return
		}
		urls = append(urls, abs)
	})
	return urls
}

func (w *walmartAdapter) CanonicalID(rawURL string) string {
	if m := walmartItemID.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	if m := walmartIDInURL.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

func (w *walmartAdapter) ExtractCore(ctx context.Context, page browser.Page) (types.CoreFields, error) {
	loc, err := page.Location(ctx)
	if err != nil {
		return types.CoreFields{}, err
	}
	html, err := page.HTML(ctx)
	if err != nil {
		return types.CoreFields{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return types.CoreFields{}, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	name := firstText(doc, ".prod-ProductTitle", `h1[itemprop="name"]`)
	if name == "" {
		return types.CoreFields{}, fmt.Errorf("product title not found on %s", loc)
	}

	priceText := firstText(doc, `span[class*="price"] .visuallyhidden`, `span[itemprop="price"]`)
	if priceText == "" {
		return types.CoreFields{}, fmt.Errorf("price not found on %s", loc)
	}

	ids := types.Identifiers{SKU: w.CanonicalID(loc)}
	if m := walmartUPCInHTML.FindStringSubmatch(html); m != nil {
		ids.UPC = m[1]
	}
	if gtin, ok := doc.Find(`span[itemprop="gtin13"]`).First().Attr("content"); ok {
		ids.GTIN = gtin
	}

	return types.CoreFields{
		Identifiers: ids,
		Source:      hostOf(loc),
		Name:        name,
		Description: firstInnerHTML(doc, ".about-desc"),
		Price:       ParsePrice(priceText),
	}, nil
}

// ExtractDescriptionDetail concatenates the ingredient, direction, and
// nutrition blocks when present.
func (w *walmartAdapter) ExtractDescriptionDetail(ctx context.Context, page browser.Page) (string, error) {
	doc, err := document(ctx, page)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, selector := range []string{"p.Ingredients", "p.Directions", ".nutrition-facts.Grid"} {
		if html := outerHTML(doc.Find(selector)); html != "" {
			parts = append(parts, html)
		}
	}
	return strings.Join(parts, ""), nil
}

func (w *walmartAdapter) ExtractPhotos(ctx context.Context, page browser.Page) ([]types.Photo, error) {
	doc, err := document(ctx, page)
	if err != nil {
		return nil, err
	}

	var urls []string
	seen := make(map[string]bool)
	doc.Find("img.prod-alt-image-carousel-image, .prod-hero-image img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			return
		}
		// Carousel thumbnails carry resize parameters in the query string.
		src = strings.SplitN(src, "?", 2)[0]
		full := absolutize(w.baseURL(), src)
		if full == "" || seen[full] {
			return
		}
		seen[full] = true
		urls = append(urls, full)
	})

	return w.fetcher.FetchAll(ctx, urls), nil
}

func (w *walmartAdapter) ExtractReviewsAndRating(ctx context.Context, b browser.Browser, page browser.Page) ([]types.Review, types.Rating, error) {
	loc, err := page.Location(ctx)
	if err != nil {
		return nil, types.Rating{}, err
	}
	itemID := w.CanonicalID(loc)
	if itemID == "" {
		return nil, types.Rating{}, fmt.Errorf("cannot derive item id from %s", loc)
	}

	reviewsPage, err := b.NewPage(ctx)
	if err != nil {
		return nil, types.Rating{}, err
	}
	defer reviewsPage.Close()

	var reviews []types.Review
	var rating types.Rating

	for pageNum := 1; pageNum <= walmartMaxReviewPages; pageNum++ {
		reviewURL := fmt.Sprintf("%s/reviews/product/%s?page=%d", w.baseURL(), itemID, pageNum)
		walmartLogger.Debugf("Processing %s", reviewURL)
		if err := reviewsPage.Navigate(ctx, reviewURL); err != nil {
			return nil, types.Rating{}, err
		}
		doc, err := document(ctx, reviewsPage)
		if err != nil {
			return nil, types.Rating{}, err
		}

		if pageNum == 1 {
			rating = w.parseRatingSummary(doc)
			// Rating page without review pagination means no reviews.
			if doc.Find(".pagination-container span").Length() == 0 &&
				doc.Find(".review-footer-userNickname").Length() == 0 {
				return []types.Review{}, rating, nil
			}
		}

		pageReviews := w.parseReviews(doc)
		if len(pageReviews) == 0 {
			break
		}
		reviews = append(reviews, pageReviews...)

		if doc.Find(".product-review-footer .paginator-btn-next").Length() == 0 {
			break
		}
	}

	return reviews, rating, nil
}

// parseRatingSummary reads the per-star filter counts; their sum is the
// rating total.
func (w *walmartAdapter) parseRatingSummary(doc *goquery.Document) types.Rating {
	levels := doc.Find(".RatingFilter")
	if levels.Length() == 0 {
		return types.Rating{}
	}

	counts := [5]int{}
	levels.Each(func(i int, sel *goquery.Selection) {
		if i >= 5 {
			return
		}
		if label, ok := sel.Attr("aria-label"); ok {
			counts[i] = int(leadingNumber(label))
		}
	})

	rating := types.Rating{
		Total:      counts[0] + counts[1] + counts[2] + counts[3] + counts[4],
		FiveStars:  counts[0],
		FourStars:  counts[1],
		ThreeStars: counts[2],
		TwoStars:   counts[3],
		OneStars:   counts[4],
	}
	if overall := leadingNumber(doc.Find(".product-review-ratings span").First().Text()); overall > 0 {
		rating.Overall = &overall
	}
	return rating
}

func (w *walmartAdapter) parseReviews(doc *goquery.Document) []types.Review {
	var reviews []types.Review
	doc.Find(".Grid.ReviewList-content").Each(func(_ int, sel *goquery.Selection) {
		// Helpful score is positive minus negative feedback.
		votes := sel.Find(".yes-no-count")
		helpful := int(leadingNumber(votes.Eq(0).Text())) - int(leadingNumber(votes.Eq(1).Text()))

		reviews = append(reviews, types.Review{
			Author:           strings.TrimSuffix(utils.CleanText(sel.Find(".review-footer-userNickname").First().Text()), ","),
			StarRating:       int(leadingNumber(sel.Find(".seo-avg-rating").First().Text())),
			Title:            utils.CleanText(sel.Find("h3").First().Text()),
			Date:             utils.CleanText(sel.Find(".review-footer-submissionTime").First().Text()),
			VerifiedPurchase: sel.Find(".review-badge").Length() > 0,
			Text:             utils.CleanText(sel.Find(".review-description p").First().Text()),
			HelpfulCount:     helpful,
		})
	})
	return reviews
}
