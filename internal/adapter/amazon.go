// internal/adapter/amazon.go
package adapter

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/shelfscout/shelfscout/internal/browser"
	"github.com/shelfscout/shelfscout/internal/fetch"
	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/types"
)

var amazonLogger = utils.NewComponentLogger("adapter-amazon")

var (
	amazonASINInPath    = regexp.MustCompile(`/(?:dp|gp/product|product-reviews)/([A-Z0-9]{10})`)
	amazonASINAnywhere  = regexp.MustCompile(`\b([A-Z0-9]{10})\b`)
	amazonUPCInText     = regexp.MustCompile(`UPC[\s:\x{200e}]*([0-9]{10,14})`)
	amazonRefSuffix     = regexp.MustCompile(`/ref=[^/?#]*`)
	amazonImageModifier = regexp.MustCompile(`\._[^./]+_\.`)
)

// Search results and reviews are paginated; these bound the walks so a page
// that keeps serving stale content cannot loop forever.
const (
	amazonMaxSearchPages = 20
	amazonMaxReviewPages = 50
)

// amazonZipByDomain pins each storefront to one delivery zip code. Prices
// and availability vary with the delivery location, so without this the data
// depends on wherever the crawl happens to run from.
var amazonZipByDomain = map[string]string{
	"amazon.com":   "10001",
	"amazon.co.uk": "WC2N 5DU",
	"amazon.in":    "110098",
	"amazon.sg":    "059381",
}

type amazonAdapter struct {
	domain  string
	fetcher *fetch.ImageFetcher
}

func newAmazonAdapter(domain string, fetcher *fetch.ImageFetcher) SiteAdapter {
	return &amazonAdapter{domain: domain, fetcher: fetcher}
}

func (a *amazonAdapter) SiteID() string { return "amazon" }

func (a *amazonAdapter) baseURL() string {
	return "https://www." + a.domain
}

// InitialSetup sets the delivery location for the session. Storefronts
// without a configured zip keep whatever location the session starts with.
func (a *amazonAdapter) InitialSetup(ctx context.Context, page browser.Page) error {
	zip, ok := amazonZipByDomain[a.domain]
	if !ok {
		amazonLogger.Debugf("No delivery zip configured for %s, keeping the default location", a.domain)
		return nil
	}

	if err := page.Navigate(ctx, a.baseURL()); err != nil {
		return err
	}

	var location string
	locExpr := `(function(){ var el = document.querySelector('#glow-ingress-line2'); return el ? el.innerText : ''; })()`
	if err := page.Evaluate(ctx, locExpr, &location); err != nil {
		return err
	}
	if strings.Contains(location, zip) {
		return nil
	}

	if err := page.Click(ctx, "#nav-global-location-slot a"); err != nil {
		return fmt.Errorf("failed to open location picker on %s: %w", a.domain, err)
	}
	if err := page.WaitVisible(ctx, "#GLUXZipUpdateInput", 5*time.Second); err != nil {
		return fmt.Errorf("location picker did not open on %s: %w", a.domain, err)
	}
	setExpr := fmt.Sprintf(
		`(function(){ var el = document.querySelector('#GLUXZipUpdateInput'); el.value = %q; el.dispatchEvent(new Event('change', {bubbles: true})); return true; })()`,
		zip)
	if err := page.Evaluate(ctx, setExpr, nil); err != nil {
		return err
	}
	if err := page.Click(ctx, `[aria-labelledby="GLUXZipUpdate-announce"]`); err != nil {
		return fmt.Errorf("failed to apply delivery zip on %s: %w", a.domain, err)
	}
	// The confirmation dialog only appears on some storefronts.
	closeExpr := `(function(){ var el = document.querySelector('#GLUXConfirmClose'); if (el) { el.click(); return true; } return false; })()`
	if err := page.Evaluate(ctx, closeExpr, nil); err != nil {
		return err
	}

	amazonLogger.Infof("Delivery location set to %s on %s", zip, a.domain)
	return nil
}

func (a *amazonAdapter) Discover(ctx context.Context, page browser.Page, keyword string, maxResults int) ([]string, error) {
	searchURL := a.baseURL() + "/s?k=" + url.QueryEscape(keyword)

	var urls []string
	seen := make(map[string]bool)

	for pageNum := 1; len(urls) < maxResults && pageNum <= amazonMaxSearchPages; pageNum++ {
		pageURL := searchURL
		if pageNum > 1 {
			pageURL += fmt.Sprintf("&page=%d", pageNum)
		}
		if err := page.Navigate(ctx, pageURL); err != nil {
			return nil, err
		}
		doc, err := document(ctx, page)
		if err != nil {
			return nil, err
		}

		if pageNum == 1 && doc.Find(`span[class*="no-results"]`).Length() > 0 {
			return []string{}, nil
		}

		found := a.harvestSearchResults(doc)
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

		// The disabled "next" control marks the last result page.
		if doc.Find(".a-disabled.a-last, .s-pagination-next.s-pagination-disabled").Length() > 0 {
			break
		}
	}

	return urls, nil
}

// harvestSearchResults pulls product links from one result page, skipping
// sponsored placements, ad holders, and media listings.
func (a *amazonAdapter) harvestSearchResults(doc *goquery.Document) []string {
	var urls []string
	doc.Find(`div[data-component-type="s-search-results"] div[data-asin]`).Each(func(_ int, sel *goquery.Selection) {
		asin, _ := sel.Attr("data-asin")
		if asin == "" || sel.HasClass("AdHolder") {
			return
		}
		if sel.Find(`div[data-component-type="sp-sponsored-result"]`).Length() > 0 {
			return
		}
		link := sel.Find("h2 a, a.a-link-normal").First()
		href, ok := link.Attr("href")
		if !ok || strings.Contains(href, "/gp/") {
			return
		}
		abs := absolutize(a.baseURL(), href)
		if abs == "" {
			return
		}
		urls = append(urls, amazonRefSuffix.ReplaceAllString(abs, ""))
	})
	return urls
}

func (a *amazonAdapter) CanonicalID(rawURL string) string {
	if m := amazonASINInPath.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	if m := amazonASINAnywhere.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

func (a *amazonAdapter) ExtractCore(ctx context.Context, page browser.Page) (types.CoreFields, error) {
	loc, err := page.Location(ctx)
	if err != nil {
		return types.CoreFields{}, err
	}
	doc, err := document(ctx, page)
	if err != nil {
		return types.CoreFields{}, err
	}

	name := firstText(doc, "#productTitle")
	if name == "" {
		return types.CoreFields{}, fmt.Errorf("product title not found on %s", loc)
	}

	priceText := firstText(doc,
		"#corePrice_feature_div span.a-offscreen",
		"span.a-price span.a-offscreen",
		`span[class*="price"]`,
	)
	if priceText == "" {
		return types.CoreFields{}, fmt.Errorf("price not found on %s", loc)
	}

	ids := types.Identifiers{ASIN: a.CanonicalID(loc)}
	if m := amazonUPCInText.FindStringSubmatch(doc.Text()); m != nil {
		ids.UPC = m[1]
	}

	return types.CoreFields{
		Identifiers: ids,
		Source:      hostOf(loc),
		Name:        name,
		Description: firstInnerHTML(doc, "#feature-bullets ul"),
		Price:       ParsePrice(priceText),
	}, nil
}

func (a *amazonAdapter) ExtractDescriptionDetail(ctx context.Context, page browser.Page) (string, error) {
	doc, err := document(ctx, page)
	if err != nil {
		return "", err
	}

	var detail string
	doc.Find(`#productDescription, div[id$="product-description_feature_div"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if utils.CleanText(sel.Text()) == "" {
			return true
		}
		detail = outerHTML(sel)
		return false
	})
	return detail, nil
}

func (a *amazonAdapter) ExtractPhotos(ctx context.Context, page browser.Page) ([]types.Photo, error) {
	doc, err := document(ctx, page)
	if err != nil {
		return nil, err
	}

	var urls []string
	seen := make(map[string]bool)
	doc.Find("#altImages img, #main-image-container img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" || strings.Contains(src, "data:image") {
			return
		}
		// Thumbnail URLs carry a size modifier; stripping it yields the
		// full-resolution image.
		full := amazonImageModifier.ReplaceAllString(src, ".")
		if seen[full] {
			return
		}
		seen[full] = true
		urls = append(urls, full)
	})

	return a.fetcher.FetchAll(ctx, urls), nil
}

func (a *amazonAdapter) ExtractReviewsAndRating(ctx context.Context, b browser.Browser, page browser.Page) ([]types.Review, types.Rating, error) {
	loc, err := page.Location(ctx)
	if err != nil {
		return nil, types.Rating{}, err
	}
	asin := a.CanonicalID(loc)
	if asin == "" {
		return nil, types.Rating{}, fmt.Errorf("cannot derive ASIN from %s", loc)
	}

	doc, err := document(ctx, page)
	if err != nil {
		return nil, types.Rating{}, err
	}
	// Products without a reviews section have no ratings at all.
	if doc.Find(`[data-hook^="reviews-medley"], #reviewsMedley`).Length() == 0 {
		return []types.Review{}, types.Rating{}, nil
	}

	reviewsPage, err := b.NewPage(ctx)
	if err != nil {
		return nil, types.Rating{}, err
	}
	defer reviewsPage.Close()

	var reviews []types.Review
	var rating types.Rating

	for pageNum := 1; pageNum <= amazonMaxReviewPages; pageNum++ {
		reviewURL := fmt.Sprintf("%s/product-reviews/%s/?pageNumber=%d", a.baseURL(), asin, pageNum)
		amazonLogger.Debugf("Processing %s", reviewURL)
		if err := reviewsPage.Navigate(ctx, reviewURL); err != nil {
			return nil, types.Rating{}, err
		}
		reviewDoc, err := document(ctx, reviewsPage)
		if err != nil {
			return nil, types.Rating{}, err
		}

		if pageNum == 1 {
			rating = a.parseRatingSummary(reviewDoc)
		}

		pageReviews := a.parseReviews(reviewDoc)
		if len(pageReviews) == 0 {
			break
		}
		reviews = append(reviews, pageReviews...)

		if reviewDoc.Find(".a-disabled.a-last").Length() > 0 {
			break
		}
		if rating.Total > 0 && len(reviews) >= rating.Total {
			break
		}
	}

	return reviews, rating, nil
}

// parseRatingSummary reads the overall rating and the histogram, converting
// per-star percentages into absolute counts.
func (a *amazonAdapter) parseRatingSummary(doc *goquery.Document) types.Rating {
	overall := leadingNumber(doc.Find(`[data-hook="rating-out-of-text"]`).First().Text())
	total := int(leadingNumber(doc.Find(`[data-hook="total-review-count"] span, [data-hook="total-review-count"]`).First().Text()))

	rating := types.Rating{Total: total}
	if overall > 0 {
		rating.Overall = &overall
	}

	counts := [5]int{}
	doc.Find("#histogramTable .a-histogram-row").Each(func(i int, sel *goquery.Selection) {
		if i >= 5 {
			return
		}
		percent := leadingNumber(strings.TrimSuffix(utils.CleanText(sel.Find(".a-text-right a").Text()), "%"))
		counts[i] = int(float64(total) * percent / 100)
	})
	rating.FiveStars, rating.FourStars, rating.ThreeStars = counts[0], counts[1], counts[2]
	rating.TwoStars, rating.OneStars = counts[3], counts[4]

	return rating
}

func (a *amazonAdapter) parseReviews(doc *goquery.Document) []types.Review {
	var reviews []types.Review
	doc.Find(".a-section.review").Each(func(_ int, sel *goquery.Selection) {
		helpful := int(leadingNumber(sel.Find(".cr-vote-text").First().Text()))
		reviews = append(reviews, types.Review{
			Author:           utils.CleanText(sel.Find(".a-profile-name").First().Text()),
			StarRating:       int(leadingNumber(sel.Find(`i[class*="a-star"] span.a-icon-alt, i[class*="a-star"]`).First().Text())),
			Title:            utils.CleanText(sel.Find(".review-title span").Last().Text()),
			Date:             utils.CleanText(sel.Find(".review-date").First().Text()),
			VerifiedPurchase: sel.Find(`span[data-hook="avp-badge"]`).Length() > 0,
			Text:             utils.CleanText(sel.Find(".review-text-content span").First().Text()),
			HelpfulCount:     helpful,
		})
	})
	return reviews
}
