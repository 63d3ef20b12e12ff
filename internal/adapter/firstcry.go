// internal/adapter/firstcry.go
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

var firstcryLogger = utils.NewComponentLogger("adapter-firstcry")

var (
	firstcryProidInURL = regexp.MustCompile(`[?&]proid=([0-9]+)`)
	firstcryIDInPath   = regexp.MustCompile(`/([0-9]+)/product-detail`)
	firstcryGTIN       = regexp.MustCompile(`GTIN/Barcode:\s*([0-9]+)`)
)

// FirstCry loads search results and reviews into the current page as the
// user scrolls or clicks "load more"; these bound the respective walks.
const (
	firstcryMaxScrolls   = 30
	firstcryMaxLoadMores = 30
)

type firstcryAdapter struct {
	domain  string
	fetcher *fetch.ImageFetcher
}

func newFirstCryAdapter(domain string, fetcher *fetch.ImageFetcher) SiteAdapter {
	return &firstcryAdapter{domain: domain, fetcher: fetcher}
}

func (f *firstcryAdapter) SiteID() string { return "firstcry" }

// InitialSetup loads the landing page and closes the app-install overlay,
// which otherwise sits over the first rows of search results.
func (f *firstcryAdapter) InitialSetup(ctx context.Context, page browser.Page) error {
	if err := page.Navigate(ctx, f.baseURL()); err != nil {
		return err
	}
	expr := `(function(){ var el = document.querySelector('.popup_closebtn'); if (el) { el.click(); return true; } return false; })()`
	var dismissed bool
	if err := page.Evaluate(ctx, expr, &dismissed); err != nil {
		return err
	}
	if dismissed {
		firstcryLogger.Debug("Dismissed landing page overlay")
	}
	return nil
}

func (f *firstcryAdapter) baseURL() string {
	return "https://www." + f.domain
}

const firstcryLoadedCountExpr = `Array.from(document.querySelectorAll('.list_block'))` +
	`.map(p => p.querySelector('a'))` +
	`.filter(a => a && a.href !== 'javascript:void(0);').length`

// Discover scrolls the single results page until the cap is reached or the
// site reports no more products, then harvests the loaded links.
func (f *firstcryAdapter) Discover(ctx context.Context, page browser.Page, keyword string, maxResults int) ([]string, error) {
	searchURL := f.baseURL() + "/search?q=" + url.QueryEscape(keyword)
	if err := page.Navigate(ctx, searchURL); err != nil {
		return nil, err
	}

	doc, err := document(ctx, page)
	if err != nil {
		return nil, err
	}
	if doc.Find(".lft.fw.urs_txt").Length() > 0 {
		return []string{}, nil
	}

	for i := 0; i < firstcryMaxScrolls; i++ {
		var loaded int
		if err := page.Evaluate(ctx, firstcryLoadedCountExpr, &loaded); err != nil {
			return nil, err
		}
		if loaded >= maxResults {
			break
		}

		var done bool
		noMoreExpr := `(function(){ var el = document.querySelector('.sc_key.fw.lft.nomoredivs'); return el !== null && el.style.display !== 'none'; })()`
		if err := page.Evaluate(ctx, noMoreExpr, &done); err != nil {
			return nil, err
		}
		if done {
			break
		}

		scrollExpr := `window.scrollTo(0, document.querySelectorAll('.list_block')[document.querySelectorAll('.list_block').length - 1].offsetTop)`
		if err := page.Evaluate(ctx, scrollExpr, nil); err != nil {
			return nil, err
		}
		if !waitForMore(ctx, page, firstcryLoadedCountExpr, loaded, 6*time.Second) {
			firstcryLogger.Debugf("No additional results loaded for keyword %s", keyword)
			break
		}
	}

	doc, err = document(ctx, page)
	if err != nil {
		return nil, err
	}
	return f.harvestSearchResults(doc, maxResults), nil
}

func (f *firstcryAdapter) harvestSearchResults(doc *goquery.Document, maxResults int) []string {
	var urls []string
	seen := make(map[string]bool)
	doc.Find(".list_block a").Each(func(_ int, sel *goquery.Selection) {
		if len(urls) >= maxResults {
			return
		}
		href, ok := sel.Attr("href")
		if !ok || strings.Contains(href, "combopack") {
			return
		}
		abs := absolutize(f.baseURL(), href)
		if abs == "" {
			return
		}
		abs = strings.SplitN(abs, "?", 2)[0]
		if seen[abs] {
			return
		}
		seen[abs] = true
		urls = append(urls, abs)
	})
	return urls
}

func (f *firstcryAdapter) CanonicalID(rawURL string) string {
	if m := firstcryProidInURL.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	if m := firstcryIDInPath.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

func (f *firstcryAdapter) ExtractCore(ctx context.Context, page browser.Page) (types.CoreFields, error) {
	loc, err := page.Location(ctx)
	if err != nil {
		return types.CoreFields{}, err
	}
	doc, err := document(ctx, page)
	if err != nil {
		return types.CoreFields{}, err
	}

	name := firstText(doc, ".prod-name")
	if name == "" {
		return types.CoreFields{}, fmt.Errorf("product name not found on %s", loc)
	}

	ids := types.Identifiers{SKU: f.CanonicalID(loc)}
	if m := firstcryGTIN.FindStringSubmatch(doc.Text()); m != nil {
		ids.GTIN = m[1]
	}

	// The description block trails into unrelated markup; keep everything
	// before the first nested div, as the site renders it.
	description := firstInnerHTML(doc, ".p-prod-desc")
	if idx := strings.Index(description, "<div"); idx >= 0 {
		description = description[:idx]
	}

	return types.CoreFields{
		Identifiers: ids,
		Source:      hostOf(loc),
		Name:        name,
		Description: strings.TrimSpace(description),
		Price: types.Price{
			Amount:   parseAmount(priceDigits.ReplaceAllString(firstText(doc, "#prod_price"), "")),
			Currency: "₹",
		},
	}, nil
}

// ExtractDescriptionDetail returns ""; FirstCry has no extended description
// section beyond the product description itself.
func (f *firstcryAdapter) ExtractDescriptionDetail(ctx context.Context, page browser.Page) (string, error) {
	return "", nil
}

func (f *firstcryAdapter) ExtractPhotos(ctx context.Context, page browser.Page) ([]types.Photo, error) {
	doc, err := document(ctx, page)
	if err != nil {
		return nil, err
	}

	var urls []string
	seen := make(map[string]bool)
	doc.Find(".swiper-slide img, #big-img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			return
		}
		full := absolutize(f.baseURL(), strings.SplitN(src, "?", 2)[0])
		if full == "" || seen[full] {
			return
		}
		seen[full] = true
		urls = append(urls, full)
	})

	return f.fetcher.FetchAll(ctx, urls), nil
}

func (f *firstcryAdapter) ExtractReviewsAndRating(ctx context.Context, b browser.Browser, page browser.Page) ([]types.Review, types.Rating, error) {
	loc, err := page.Location(ctx)
	if err != nil {
		return nil, types.Rating{}, err
	}

	parsed, err := url.Parse(loc)
	if err != nil {
		return nil, types.Rating{}, fmt.Errorf("cannot parse product URL %s: %w", loc, err)
	}
	reviewPath := strings.TrimSuffix(parsed.Path, "product-detail")
	reviewURL := f.baseURL() + "/reviews" + reviewPath

	reviewsPage, err := b.NewPage(ctx)
	if err != nil {
		return nil, types.Rating{}, err
	}
	defer reviewsPage.Close()

	firstcryLogger.Debugf("Processing %s", reviewURL)
	if err := reviewsPage.Navigate(ctx, reviewURL); err != nil {
		return nil, types.Rating{}, err
	}

	doc, err := document(ctx, reviewsPage)
	if err != nil {
		return nil, types.Rating{}, err
	}
	rating := f.parseRatingSummary(doc)
	if rating.Total == 0 {
		return []types.Review{}, rating, nil
	}

	// Click "load more" until every review sits in the page.
	countExpr := `document.querySelectorAll('.review-block').length`
	for i := 0; i < firstcryMaxLoadMores; i++ {
		var more bool
		moreExpr := `(function(){ var el = document.querySelector('.p_r_all_reviews'); return el !== null && el.style.display !== 'none'; })()`
		if err := reviewsPage.Evaluate(ctx, moreExpr, &more); err != nil {
			return nil, types.Rating{}, err
		}
		if !more {
			break
		}
		var loaded int
		if err := reviewsPage.Evaluate(ctx, countExpr, &loaded); err != nil {
			return nil, types.Rating{}, err
		}
		if err := reviewsPage.Evaluate(ctx, "ReadAllReview()", nil); err != nil {
			return nil, types.Rating{}, err
		}
		if !waitForMore(ctx, reviewsPage, countExpr, loaded, 6*time.Second) {
			break
		}
	}

	doc, err = document(ctx, reviewsPage)
	if err != nil {
		return nil, types.Rating{}, err
	}
	return f.parseReviews(doc), rating, nil
}

func (f *firstcryAdapter) parseRatingSummary(doc *goquery.Document) types.Rating {
	counts := [5]int{}
	doc.Find(`[id^="ratestar"]`).Each(func(i int, sel *goquery.Selection) {
		if i >= 5 {
			return
		}
		if title, ok := sel.Attr("title"); ok {
			counts[i] = int(leadingNumber(title))
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
	if overall := leadingNumber(doc.Find(".div-big-star.lft").First().Text()); overall > 0 {
		rating.Overall = &overall
	}
	return rating
}

func (f *firstcryAdapter) parseReviews(doc *goquery.Document) []types.Review {
	var reviews []types.Review
	doc.Find(".review-block").Each(func(_ int, sel *goquery.Selection) {
		helpful := int(leadingNumber(sel.Find(".div-like").First().Text())) -
			int(leadingNumber(sel.Find(".div-unlike").First().Text()))

		reviews = append(reviews, types.Review{
			Author:           utils.CleanText(sel.Find(".rev-name").First().Text()),
			StarRating:       int(leadingNumber(sel.Find(`[itemprop="ratingValue"]`).First().Text())),
			Title:            strings.ReplaceAll(utils.CleanText(sel.Find(".p1").First().Text()), `"`, ""),
			Date:             utils.CleanText(sel.Find(".rev-time").First().Text()),
			VerifiedPurchase: sel.Find(".vb-tag").Length() > 0,
			Text:             utils.CleanText(sel.Find(".p2").First().Text()),
			HelpfulCount:     helpful,
		})
	})
	return reviews
}

// waitForMore polls the count expression until it exceeds previous or the
// timeout elapses.
func waitForMore(ctx context.Context, page browser.Page, countExpr string, previous int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(250 * time.Millisecond):
		}
		var count int
		if err := page.Evaluate(ctx, countExpr, &count); err != nil {
			return false
		}
		if count > previous {
			return true
		}
	}
	return false
}
