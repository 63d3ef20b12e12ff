// internal/adapter/html.go
package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shelfscout/shelfscout/internal/browser"
	"github.com/shelfscout/shelfscout/internal/utils"
)

// document parses the page's current HTML into a goquery document.
func document(ctx context.Context, page browser.Page) (*goquery.Document, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}
	return doc, nil
}

// firstText tries selectors in order and returns the cleaned text of the
// first match, or "" when none matches.
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return utils.CleanText(sel.Text())
		}
	}
	return ""
}

// firstInnerHTML tries selectors in order and returns the inner HTML of the
// first match, or "" when none matches.
func firstInnerHTML(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			if html, err := sel.Html(); err == nil {
				return strings.TrimSpace(html)
			}
		}
	}
	return ""
}

// outerHTML renders a selection including its own tag.
func outerHTML(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	html, err := goquery.OuterHtml(sel.First())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(html)
}

// absolutize resolves href against base, returning "" for unusable links.
func absolutize(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}

// hostOf returns the URL's host with any www. prefix removed.
func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}

// leadingNumber parses the first number in a text like "4.7 out of 5 stars"
// or "1,234 global ratings", tolerating thousands separators.
func leadingNumber(text string) float64 {
	fields := strings.Fields(utils.CleanText(text))
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", ""), 64)
	if err != nil {
		return 0
	}
	return n
}
