// internal/adapter/adapter_test.go
package adapter

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// fakePage serves static HTML and a fixed location, standing in for a live
// browser tab.
type fakePage struct {
	html     string
	location string
}

func (p *fakePage) Navigate(ctx context.Context, url string) error { return nil }
func (p *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}
func (p *fakePage) Click(ctx context.Context, selector string) error { return nil }
func (p *fakePage) HTML(ctx context.Context) (string, error)         { return p.html, nil }
func (p *fakePage) Evaluate(ctx context.Context, expression string, res interface{}) error {
	return nil
}
func (p *fakePage) Location(ctx context.Context) (string, error) { return p.location, nil }
func (p *fakePage) Close() error                                 { return nil }

func mustParse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse test HTML: %v", err)
	}
	return doc
}

func TestRegistrySupported(t *testing.T) {
	r := NewRegistry(nil)
	got := r.Supported()
	want := []string{"amazon", "firstcry", "walmart"}
	if len(got) != len(want) {
		t.Fatalf("Supported() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Supported()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistryNew(t *testing.T) {
	r := NewRegistry(nil)

	a, err := r.New("amazon", "amazon.com")
	if err != nil {
		t.Fatalf("New(amazon) failed: %v", err)
	}
	if a.SiteID() != "amazon" {
		t.Errorf("SiteID() = %q, want amazon", a.SiteID())
	}

	// Identifiers are case-insensitive.
	if _, err := r.New("Walmart", "walmart.com"); err != nil {
		t.Errorf("New(Walmart) failed: %v", err)
	}

	if _, err := r.New("ebay", "ebay.com"); err == nil {
		t.Error("New(ebay) should fail for an unsupported site")
	} else if !strings.Contains(err.Error(), "unsupported site") {
		t.Errorf("unexpected error text: %v", err)
	}
}

// scriptedPage records navigation, clicks, and evaluated expressions, and
// answers location lookups with a canned header text.
type scriptedPage struct {
	fakePage
	locationText string

	navigations []string
	clicks      []string
	evals       []string
}

func (p *scriptedPage) Navigate(ctx context.Context, url string) error {
	p.navigations = append(p.navigations, url)
	return nil
}

func (p *scriptedPage) Click(ctx context.Context, selector string) error {
	p.clicks = append(p.clicks, selector)
	return nil
}

func (p *scriptedPage) Evaluate(ctx context.Context, expression string, res interface{}) error {
	p.evals = append(p.evals, expression)
	if s, ok := res.(*string); ok {
		*s = p.locationText
	}
	return nil
}

var _ SessionInitializer = (*amazonAdapter)(nil)

func TestAmazonInitialSetupSetsDeliveryLocation(t *testing.T) {
	a := &amazonAdapter{domain: "amazon.com"}
	page := &scriptedPage{locationText: "Select your address"}

	if err := a.InitialSetup(context.Background(), page); err != nil {
		t.Fatalf("InitialSetup failed: %v", err)
	}
	if len(page.navigations) != 1 || !strings.Contains(page.navigations[0], "amazon.com") {
		t.Errorf("navigations = %v, want the storefront home page", page.navigations)
	}
	wantClicks := []string{"#nav-global-location-slot a", `[aria-labelledby="GLUXZipUpdate-announce"]`}
	if len(page.clicks) != len(wantClicks) {
		t.Fatalf("clicks = %v, want %v", page.clicks, wantClicks)
	}
	for i := range wantClicks {
		if page.clicks[i] != wantClicks[i] {
			t.Errorf("clicks[%d] = %q, want %q", i, page.clicks[i], wantClicks[i])
		}
	}
	var filledZip bool
	for _, expr := range page.evals {
		if strings.Contains(expr, "GLUXZipUpdateInput") && strings.Contains(expr, "10001") {
			filledZip = true
		}
	}
	if !filledZip {
		t.Errorf("zip input never filled, evals = %v", page.evals)
	}
}

func TestAmazonInitialSetupSkipsMatchingLocation(t *testing.T) {
	a := &amazonAdapter{domain: "amazon.com"}
	page := &scriptedPage{locationText: "New York 10001"}

	if err := a.InitialSetup(context.Background(), page); err != nil {
		t.Fatalf("InitialSetup failed: %v", err)
	}
	if len(page.clicks) != 0 {
		t.Errorf("clicks = %v, want none when the location already matches", page.clicks)
	}
}

func TestAmazonInitialSetupIgnoresUnmappedDomain(t *testing.T) {
	a := &amazonAdapter{domain: "amazon.ae"}
	page := &scriptedPage{}

	if err := a.InitialSetup(context.Background(), page); err != nil {
		t.Fatalf("InitialSetup failed: %v", err)
	}
	if len(page.navigations) != 0 || len(page.clicks) != 0 {
		t.Errorf("page touched for a domain without a zip: navigations=%v clicks=%v",
			page.navigations, page.clicks)
	}
}

func TestAmazonCanonicalID(t *testing.T) {
	a := &amazonAdapter{domain: "amazon.com"}
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.amazon.com/dp/B07XJ8C8F5", "B07XJ8C8F5"},
		{"https://www.amazon.com/Some-Product-Name/dp/B07XJ8C8F5/ref=sr_1_1?keywords=bottle", "B07XJ8C8F5"},
		{"https://www.amazon.com/gp/product/B000123456", "B000123456"},
		{"https://www.amazon.com/product-reviews/B07XJ8C8F5/?pageNumber=2", "B07XJ8C8F5"},
		{"https://www.amazon.com/s?k=bottle", ""},
	}
	for _, tt := range tests {
		if got := a.CanonicalID(tt.url); got != tt.want {
			t.Errorf("CanonicalID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestWalmartCanonicalID(t *testing.T) {
	w := &walmartAdapter{domain: "walmart.com"}
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.walmart.com/ip/Some-Baby-Bottle/123456789", "123456789"},
		{"https://www.walmart.com/ip/123456789", "123456789"},
		{"https://www.walmart.com/reviews/product/123456789?page=2", "123456789"},
		{"https://www.walmart.com/search/?query=bottle", ""},
	}
	for _, tt := range tests {
		if got := w.CanonicalID(tt.url); got != tt.want {
			t.Errorf("CanonicalID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestFirstCryCanonicalID(t *testing.T) {
	f := &firstcryAdapter{domain: "firstcry.com"}
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.firstcry.com/mee-mee/bottle/1234567/product-detail", "1234567"},
		{"https://www.firstcry.com/product?proid=7654321&ref=search", "7654321"},
		{"https://www.firstcry.com/search?q=bottle", ""},
	}
	for _, tt := range tests {
		if got := f.CanonicalID(tt.url); got != tt.want {
			t.Errorf("CanonicalID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

const amazonProductHTML = `<html><body>
<span id="productTitle"> Philips Avent Natural Baby Bottle </span>
<div id="corePrice_feature_div"><span class="a-offscreen">$24.99</span></div>
<div id="feature-bullets"><ul><li>BPA free</li></ul></div>
<div id="detailBullets">UPC &lrm; : &lrm; 075020053455</div>
</body></html>`

func TestAmazonExtractCore(t *testing.T) {
	a := &amazonAdapter{domain: "amazon.com"}
	page := &fakePage{
		html:     amazonProductHTML,
		location: "https://www.amazon.com/dp/B07XJ8C8F5",
	}

	core, err := a.ExtractCore(context.Background(), page)
	if err != nil {
		t.Fatalf("ExtractCore failed: %v", err)
	}

	if core.Name != "Philips Avent Natural Baby Bottle" {
		t.Errorf("Name = %q", core.Name)
	}
	if core.Identifiers.ASIN != "B07XJ8C8F5" {
		t.Errorf("ASIN = %q", core.Identifiers.ASIN)
	}
	if core.Identifiers.UPC != "075020053455" {
		t.Errorf("UPC = %q", core.Identifiers.UPC)
	}
	if core.Source != "amazon.com" {
		t.Errorf("Source = %q", core.Source)
	}
	if core.Price.Amount != 24.99 || core.Price.Currency != "$" {
		t.Errorf("Price = %+v", core.Price)
	}
	if !strings.Contains(core.Description, "BPA free") {
		t.Errorf("Description = %q", core.Description)
	}
}

func TestAmazonExtractCoreMissingTitle(t *testing.T) {
	a := &amazonAdapter{domain: "amazon.com"}
	page := &fakePage{
		html:     "<html><body><span class='a-price'><span class='a-offscreen'>$5</span></span></body></html>",
		location: "https://www.amazon.com/dp/B07XJ8C8F5",
	}
	if _, err := a.ExtractCore(context.Background(), page); err == nil {
		t.Error("ExtractCore should fail without a product title")
	}
}

func TestAmazonParseReviews(t *testing.T) {
	doc := mustParse(t, `<html><body>
<div class="a-section review">
  <span class="a-profile-name">Jordan</span>
  <i class="a-star-5"><span class="a-icon-alt">5.0 out of 5 stars</span></i>
  <a class="review-title"><span>5.0 out of 5 stars</span><span>Great bottle</span></a>
  <span class="review-date">Reviewed on March 3, 2023</span>
  <span data-hook="avp-badge">Verified Purchase</span>
  <span class="review-text-content"><span>Works great for our newborn.</span></span>
  <span class="cr-vote-text">12 people found this helpful</span>
</div>
<div class="a-section review">
  <span class="a-profile-name">Sam</span>
  <i class="a-star-2"><span class="a-icon-alt">2.0 out of 5 stars</span></i>
  <a class="review-title"><span>2.0 out of 5 stars</span><span>Leaks</span></a>
  <span class="review-date">Reviewed on June 8, 2023</span>
  <span class="review-text-content"><span>Leaked after a week.</span></span>
</div>
</body></html>`)

	a := &amazonAdapter{domain: "amazon.com"}
	reviews := a.parseReviews(doc)
	if len(reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(reviews))
	}

	first := reviews[0]
	if first.Author != "Jordan" {
		t.Errorf("Author = %q", first.Author)
	}
	if first.StarRating != 5 {
		t.Errorf("StarRating = %d", first.StarRating)
	}
	if first.Title != "Great bottle" {
		t.Errorf("Title = %q", first.Title)
	}
	if !first.VerifiedPurchase {
		t.Error("VerifiedPurchase should be true")
	}
	if first.HelpfulCount != 12 {
		t.Errorf("HelpfulCount = %d", first.HelpfulCount)
	}

	second := reviews[1]
	if second.StarRating != 2 {
		t.Errorf("StarRating = %d", second.StarRating)
	}
	if second.VerifiedPurchase {
		t.Error("VerifiedPurchase should be false")
	}
	if second.HelpfulCount != 0 {
		t.Errorf("HelpfulCount = %d", second.HelpfulCount)
	}
}

func TestAmazonParseRatingSummary(t *testing.T) {
	doc := mustParse(t, `<html><body>
<span data-hook="rating-out-of-text">4.6 out of 5</span>
<div data-hook="total-review-count"><span>200 global ratings</span></div>
<table id="histogramTable">
  <tr class="a-histogram-row"><td class="a-text-right"><a>70%</a></td></tr>
  <tr class="a-histogram-row"><td class="a-text-right"><a>15%</a></td></tr>
  <tr class="a-histogram-row"><td class="a-text-right"><a>8%</a></td></tr>
  <tr class="a-histogram-row"><td class="a-text-right"><a>4%</a></td></tr>
  <tr class="a-histogram-row"><td class="a-text-right"><a>3%</a></td></tr>
</table>
</body></html>`)

	a := &amazonAdapter{domain: "amazon.com"}
	rating := a.parseRatingSummary(doc)

	if rating.Overall == nil || *rating.Overall != 4.6 {
		t.Errorf("Overall = %v", rating.Overall)
	}
	if rating.Total != 200 {
		t.Errorf("Total = %d", rating.Total)
	}
	if rating.FiveStars != 140 {
		t.Errorf("FiveStars = %d", rating.FiveStars)
	}
	if rating.OneStars != 6 {
		t.Errorf("OneStars = %d", rating.OneStars)
	}
}

func TestAmazonHarvestSearchResults(t *testing.T) {
	doc := mustParse(t, `<html><body>
<div data-component-type="s-search-results">
  <div data-asin="B000000001"><h2><a href="/Product-One/dp/B000000001/ref=sr_1_1">One</a></h2></div>
  <div data-asin="B000000002" class="AdHolder"><h2><a href="/Ad/dp/B000000002">Ad</a></h2></div>
  <div data-asin="B000000003"><div data-component-type="sp-sponsored-result"></div><h2><a href="/Sponsored/dp/B000000003">Sp</a></h2></div>
  <div data-asin=""><h2><a href="/Empty/dp/B000000004">Empty</a></h2></div>
  <div data-asin="B000000005"><h2><a href="/gp/video/B000000005">Video</a></h2></div>
  <div data-asin="B000000006"><h2><a href="/Product-Six/dp/B000000006/ref=sr_1_6">Six</a></h2></div>
</div>
</body></html>`)

	a := &amazonAdapter{domain: "amazon.com"}
	urls := a.harvestSearchResults(doc)

	want := []string{
		"https://www.amazon.com/Product-One/dp/B000000001",
		"https://www.amazon.com/Product-Six/dp/B000000006",
	}
	if len(urls) != len(want) {
		t.Fatalf("got %d urls %v, want %d", len(urls), urls, len(want))
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestWalmartExtractCore(t *testing.T) {
	w := &walmartAdapter{domain: "walmart.com"}
	page := &fakePage{
		html: `<html><body>
<h1 class="prod-ProductTitle">Parent's Choice Baby Wipes</h1>
<span class="price-group"><span class="visuallyhidden">$4.97</span></span>
<span itemprop="gtin13" content="0681131123456"></span>
<div class="about-desc">Gentle wipes for sensitive skin.</div>
<script>{"displayName":"UPC","displayValue":"681131123456"}</script>
</body></html>`,
		location: "https://www.walmart.com/ip/Parents-Choice-Wipes/123456789",
	}

	core, err := w.ExtractCore(context.Background(), page)
	if err != nil {
		t.Fatalf("ExtractCore failed: %v", err)
	}

	if core.Name != "Parent's Choice Baby Wipes" {
		t.Errorf("Name = %q", core.Name)
	}
	if core.Identifiers.SKU != "123456789" {
		t.Errorf("SKU = %q", core.Identifiers.SKU)
	}
	if core.Identifiers.UPC != "681131123456" {
		t.Errorf("UPC = %q", core.Identifiers.UPC)
	}
	if core.Identifiers.GTIN != "0681131123456" {
		t.Errorf("GTIN = %q", core.Identifiers.GTIN)
	}
	if core.Price.Amount != 4.97 {
		t.Errorf("Price = %+v", core.Price)
	}
	if core.Source != "walmart.com" {
		t.Errorf("Source = %q", core.Source)
	}
}

func TestWalmartParseReviews(t *testing.T) {
	doc := mustParse(t, `<html><body>
<div class="Grid ReviewList-content">
  <span class="review-footer-userNickname">casey,</span>
  <span class="seo-avg-rating">4</span>
  <h3>Good value</h3>
  <span class="review-footer-submissionTime">May 1, 2023</span>
  <span class="review-badge">Verified purchaser</span>
  <div class="review-description"><p>Does the job.</p></div>
  <span class="yes-no-count">9</span>
  <span class="yes-no-count">2</span>
</div>
</body></html>`)

	w := &walmartAdapter{domain: "walmart.com"}
	reviews := w.parseReviews(doc)
	if len(reviews) != 1 {
		t.Fatalf("got %d reviews, want 1", len(reviews))
	}

	r := reviews[0]
	if r.Author != "casey" {
		t.Errorf("Author = %q", r.Author)
	}
	if r.StarRating != 4 {
		t.Errorf("StarRating = %d", r.StarRating)
	}
	if !r.VerifiedPurchase {
		t.Error("VerifiedPurchase should be true")
	}
	if r.HelpfulCount != 7 {
		t.Errorf("HelpfulCount = %d, want 7", r.HelpfulCount)
	}
}

func TestWalmartParseRatingSummary(t *testing.T) {
	doc := mustParse(t, `<html><body>
<div class="product-review-ratings"><span>4.5</span></div>
<button class="RatingFilter" aria-label="80 reviews with 5 stars"></button>
<button class="RatingFilter" aria-label="10 reviews with 4 stars"></button>
<button class="RatingFilter" aria-label="5 reviews with 3 stars"></button>
<button class="RatingFilter" aria-label="3 reviews with 2 stars"></button>
<button class="RatingFilter" aria-label="2 reviews with 1 star"></button>
</body></html>`)

	w := &walmartAdapter{domain: "walmart.com"}
	rating := w.parseRatingSummary(doc)

	if rating.Total != 100 {
		t.Errorf("Total = %d, want 100", rating.Total)
	}
	if rating.FiveStars != 80 || rating.OneStars != 2 {
		t.Errorf("histogram = %+v", rating)
	}
	if rating.Overall == nil || *rating.Overall != 4.5 {
		t.Errorf("Overall = %v", rating.Overall)
	}
}

func TestFirstCryExtractCore(t *testing.T) {
	f := &firstcryAdapter{domain: "firstcry.com"}
	page := &fakePage{
		html: `<html><body>
<h1 class="prod-name">Mee Mee Feeding Bottle 250ml</h1>
<span id="prod_price">₹ 1,499</span>
<div class="p-prod-desc">A soft feeding bottle for infants.<div class="promo">ad</div></div>
<div class="spec">GTIN/Barcode: 8904146700123</div>
</body></html>`,
		location: "https://www.firstcry.com/mee-mee/feeding-bottle/1234567/product-detail",
	}

	core, err := f.ExtractCore(context.Background(), page)
	if err != nil {
		t.Fatalf("ExtractCore failed: %v", err)
	}

	if core.Name != "Mee Mee Feeding Bottle 250ml" {
		t.Errorf("Name = %q", core.Name)
	}
	if core.Identifiers.SKU != "1234567" {
		t.Errorf("SKU = %q", core.Identifiers.SKU)
	}
	if core.Identifiers.GTIN != "8904146700123" {
		t.Errorf("GTIN = %q", core.Identifiers.GTIN)
	}
	if core.Price.Amount != 1499 || core.Price.Currency != "₹" {
		t.Errorf("Price = %+v", core.Price)
	}
	if strings.Contains(core.Description, "promo") {
		t.Errorf("Description should stop before nested markup: %q", core.Description)
	}
	if !strings.Contains(core.Description, "soft feeding bottle") {
		t.Errorf("Description = %q", core.Description)
	}
}

func TestFirstCryParseReviews(t *testing.T) {
	doc := mustParse(t, `<html><body>
<div class="review-block">
  <span class="rev-name">Priya</span>
  <span itemprop="ratingValue">5</span>
  <div class="p1">"Excellent product"</div>
  <span class="rev-time">12 Mar 2023</span>
  <span class="vb-tag">Verified Buyer</span>
  <div class="p2">My baby loves it.</div>
  <span class="div-like">4</span>
  <span class="div-unlike">1</span>
</div>
</body></html>`)

	f := &firstcryAdapter{domain: "firstcry.com"}
	reviews := f.parseReviews(doc)
	if len(reviews) != 1 {
		t.Fatalf("got %d reviews, want 1", len(reviews))
	}

	r := reviews[0]
	if r.Author != "Priya" {
		t.Errorf("Author = %q", r.Author)
	}
	if r.Title != "Excellent product" {
		t.Errorf("Title = %q", r.Title)
	}
	if r.StarRating != 5 {
		t.Errorf("StarRating = %d", r.StarRating)
	}
	if !r.VerifiedPurchase {
		t.Error("VerifiedPurchase should be true")
	}
	if r.HelpfulCount != 3 {
		t.Errorf("HelpfulCount = %d, want 3", r.HelpfulCount)
	}
}

func TestFirstCryParseRatingSummary(t *testing.T) {
	doc := mustParse(t, `<html><body>
<div class="div-big-star lft">4.2</div>
<div id="ratestar5" title="30 ratings"></div>
<div id="ratestar4" title="10 ratings"></div>
<div id="ratestar3" title="5 ratings"></div>
<div id="ratestar2" title="3 ratings"></div>
<div id="ratestar1" title="2 ratings"></div>
</body></html>`)

	f := &firstcryAdapter{domain: "firstcry.com"}
	rating := f.parseRatingSummary(doc)

	if rating.Total != 50 {
		t.Errorf("Total = %d, want 50", rating.Total)
	}
	if rating.FiveStars != 30 || rating.TwoStars != 3 {
		t.Errorf("histogram = %+v", rating)
	}
	if rating.Overall == nil || *rating.Overall != 4.2 {
		t.Errorf("Overall = %v", rating.Overall)
	}
}

func TestFirstCryHarvestSearchResults(t *testing.T) {
	doc := mustParse(t, `<html><body>
<div class="list_block"><a href="/mee-mee/bottle/1111111/product-detail?asid=1">A</a></div>
<div class="list_block"><a href="/combopack/set/2222222/product-detail">B</a></div>
<div class="list_block"><a href="javascript:void(0);">C</a></div>
<div class="list_block"><a href="/babyhug/bib/3333333/product-detail">D</a></div>
<div class="list_block"><a href="/mee-mee/bottle/1111111/product-detail?asid=2">dup</a></div>
</body></html>`)

	f := &firstcryAdapter{domain: "firstcry.com"}
	urls := f.harvestSearchResults(doc, 10)

	want := []string{
		"https://www.firstcry.com/mee-mee/bottle/1111111/product-detail",
		"https://www.firstcry.com/babyhug/bib/3333333/product-detail",
	}
	if len(urls) != len(want) {
		t.Fatalf("got %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}
