// internal/adapter/price_test.go
package adapter

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		display  string
		amount   float64
		currency string
	}{
		{
			name:     "dollar with grouping",
			display:  "$1,299.99",
			amount:   1299.99,
			currency: "$",
		},
		{
			name:     "euro decimal comma",
			display:  "1.299,99 €",
			amount:   1299.99,
			currency: "€",
		},
		{
			name:     "rupee no decimals",
			display:  "₹1,499",
			amount:   1499,
			currency: "₹",
		},
		{
			name:     "range keeps lower bound",
			display:  "$10.49 - $15.99",
			amount:   10.49,
			currency: "$",
		},
		{
			name:     "plain integer",
			display:  "42",
			amount:   42,
			currency: "",
		},
		{
			name:     "whitespace noise",
			display:  "  $ 7.50 ",
			amount:   7.5,
			currency: "$",
		},
		{
			name:     "empty",
			display:  "",
			amount:   0,
			currency: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price := ParsePrice(tt.display)
			if price.Amount != tt.amount {
				t.Errorf("amount = %v, want %v", price.Amount, tt.amount)
			}
			if price.Currency != tt.currency {
				t.Errorf("currency = %q, want %q", price.Currency, tt.currency)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		digits string
		want   float64
	}{
		{"1,299.99", 1299.99},
		{"1.299,99", 1299.99},
		{"1,499", 1499},
		{"1.234.567", 1234567},
		{"99", 99},
		{"0.99", 0.99},
		{"", 0},
	}

	for _, tt := range tests {
		if got := parseAmount(tt.digits); got != tt.want {
			t.Errorf("parseAmount(%q) = %v, want %v", tt.digits, got, tt.want)
		}
	}
}
