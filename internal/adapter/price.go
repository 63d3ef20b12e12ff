// internal/adapter/price.go
package adapter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/types"
)

var priceDigits = regexp.MustCompile(`[^0-9.,]`)

// ParsePrice splits a displayed price like "$1,299.99", "1.299,99 €" or
// "₹1,499" into amount and currency marker. Price ranges ("$10 - $15") keep
// the lower bound. The currency is whatever non-numeric marker the site
// displays, not an ISO code.
func ParsePrice(display string) types.Price {
	s := utils.CleanText(display)
	if idx := strings.Index(s, "-"); idx > 0 {
		s = s[:idx]
	}

	// Collect every non-digit marker so "US $" style prefixes survive.
	currency := strings.TrimSpace(strings.Join(priceDigits.FindAllString(s, -1), ""))

	digits := priceDigits.ReplaceAllString(s, "")
	amount := parseAmount(digits)

	return types.Price{Amount: amount, Currency: currency}
}

// parseAmount interprets both decimal-point and decimal-comma notations: the
// last separator followed by at most two digits is the decimal mark, every
// other separator is a grouping mark.
func parseAmount(digits string) float64 {
	if digits == "" {
		return 0
	}

	lastSep := strings.LastIndexAny(digits, ".,")
	var intPart, fracPart string
	if lastSep >= 0 && len(digits)-lastSep-1 <= 2 {
		intPart, fracPart = digits[:lastSep], digits[lastSep+1:]
	} else {
		intPart = digits
	}

	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	normalized := intPart
	if fracPart != "" {
		normalized += "." + fracPart
	}

	amount, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0
	}
	return amount
}
