// internal/utils/text.go
package utils

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanText applies NFKC normalization and collapses runs of whitespace to a
// single space. Scraped pages are full of non-breaking spaces and other
// compatibility characters that would otherwise leak into stored names,
// descriptions, and price strings.
func CleanText(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
