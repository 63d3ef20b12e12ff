// pkg/types/types.go

// Package types defines the product records exchanged between the crawl
// pipeline, the reconciler, and the document store.
package types

import (
	"time"
)

// Identifiers holds the product identifier fields a site may expose. Every
// field is optional: Amazon pages carry an ASIN and sometimes a UPC, Walmart
// exposes SKU and GTIN, FirstCry only a SKU. Identity matching treats the
// present fields disjunctively, never as a composite key.
type Identifiers struct {
	UPC  string `bson:"upc,omitempty" json:"upc,omitempty" yaml:"upc,omitempty"`
	SKU  string `bson:"sku,omitempty" json:"sku,omitempty" yaml:"sku,omitempty"`
	GTIN string `bson:"gtin,omitempty" json:"gtin,omitempty" yaml:"gtin,omitempty"`
	ASIN string `bson:"asin,omitempty" json:"asin,omitempty" yaml:"asin,omitempty"`
}

// Any reports whether at least one identifier field is present.
func (i Identifiers) Any() bool {
	return i.UPC != "" || i.SKU != "" || i.GTIN != "" || i.ASIN != ""
}

// Present returns the non-empty identifier fields keyed by their store field
// name, in a fixed order suitable for filter building and logging.
func (i Identifiers) Present() []IdentifierField {
	var fields []IdentifierField
	if i.UPC != "" {
		fields = append(fields, IdentifierField{Name: "upc", Value: i.UPC})
	}
	if i.SKU != "" {
		fields = append(fields, IdentifierField{Name: "sku", Value: i.SKU})
	}
	if i.GTIN != "" {
		fields = append(fields, IdentifierField{Name: "gtin", Value: i.GTIN})
	}
	if i.ASIN != "" {
		fields = append(fields, IdentifierField{Name: "asin", Value: i.ASIN})
	}
	return fields
}

// IdentifierField is one named identifier value.
type IdentifierField struct {
	Name  string
	Value string
}

// Price is a scraped price with its currency marker as displayed by the site
// (a symbol such as "$", not necessarily an ISO code).
type Price struct {
	Amount   float64 `bson:"amount" json:"amount"`
	Currency string  `bson:"currency" json:"currency"`
}

// Photo is one product image, downloaded at extraction time.
type Photo struct {
	URL         string `bson:"url" json:"url"`
	Data        []byte `bson:"data" json:"data"`
	ContentType string `bson:"contentType,omitempty" json:"content_type,omitempty"`
}

// Review is one customer review as shown on the site. Date keeps the
// site-formatted text because formats vary per site and locale.
type Review struct {
	Author           string `bson:"name" json:"name"`
	StarRating       int    `bson:"rating" json:"rating"`
	Title            string `bson:"title" json:"title"`
	Date             string `bson:"date" json:"date"`
	VerifiedPurchase bool   `bson:"isVerifiedPurchase" json:"is_verified_purchase"`
	Text             string `bson:"textContent" json:"text_content"`
	HelpfulCount     int    `bson:"foundHelpful" json:"found_helpful"`
}

// Rating is the star-rating summary for a product. Overall is nil when the
// product has no ratings at all.
type Rating struct {
	Overall    *float64 `bson:"overall,omitempty" json:"overall,omitempty"`
	Total      int      `bson:"total" json:"total"`
	FiveStars  int      `bson:"fiveStars" json:"five_stars"`
	FourStars  int      `bson:"fourStars" json:"four_stars"`
	ThreeStars int      `bson:"threeStars" json:"three_stars"`
	TwoStars   int      `bson:"twoStars" json:"two_stars"`
	OneStars   int      `bson:"oneStars" json:"one_stars"`
}

// CoreFields are the fields extracted from the product page itself, before
// description detail, photos, and reviews are collected.
type CoreFields struct {
	Identifiers Identifiers
	Source      string
	Name        string
	Description string
	Price       Price
}

// CandidateProduct is the in-memory result of one pipeline execution. It
// exists only between extraction and reconciliation; partial candidates are
// never persisted.
type CandidateProduct struct {
	Identifiers       `bson:",inline"`
	SourceURL         string   `bson:"productUrl" json:"product_url"`
	Source            string   `bson:"source" json:"source"`
	Keyword           string   `bson:"keyword,omitempty" json:"keyword,omitempty"`
	Name              string   `bson:"name" json:"name"`
	Description       string   `bson:"description" json:"description"`
	DescriptionDetail string   `bson:"descriptionDetail,omitempty" json:"description_detail,omitempty"`
	Price             Price    `bson:"price" json:"price"`
	Photos            []Photo  `bson:"photos" json:"photos"`
	Reviews           []Review `bson:"reviews" json:"reviews"`
	Rating            Rating   `bson:"rating" json:"rating"`
}

// StoredProduct is a persisted product record. RunVersion tags the crawl run
// that last wrote or confirmed the record; reconciliation only ever matches
// records whose RunVersion differs from the current run's.
type StoredProduct struct {
	CandidateProduct `bson:",inline"`
	RunVersion       string    `bson:"scraperRunId" json:"scraper_run_id"`
	LastUpdatedAt    time.Time `bson:"lastUpdated" json:"last_updated"`
}

// Stored stamps a candidate with the given run version and update time.
func (c CandidateProduct) Stored(runVersion string, updatedAt time.Time) StoredProduct {
	return StoredProduct{
		CandidateProduct: c,
		RunVersion:       runVersion,
		LastUpdatedAt:    updatedAt,
	}
}
