// internal/config/types.go

// Package config loads and validates the YAML run configuration. Invalid
// configuration is fatal: the process exits before a browser session or a
// store connection is opened.
package config

import (
	"github.com/shelfscout/shelfscout/internal/browser"
	"github.com/shelfscout/shelfscout/internal/store"
)

// Config is the full run configuration.
type Config struct {
	// Sites lists the sites to crawl, processed in order.
	Sites []SiteConfig `yaml:"sites" json:"sites"`

	// MaxProductsPerKeyword caps discovered product URLs per keyword.
	MaxProductsPerKeyword int `yaml:"max_products_per_keyword" json:"max_products_per_keyword"`

	// Retries is the bounded attempt budget for the search phase and for
	// each product's detail phase. Minimum 1.
	Retries int `yaml:"retries" json:"retries"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`

	Browser browser.Config `yaml:"browser,omitempty" json:"browser,omitempty"`

	MongoDB store.Options `yaml:"mongodb" json:"mongodb"`

	// VerificationAPI optionally exposes the read-only debug endpoint.
	VerificationAPI VerificationAPIConfig `yaml:"verification_api,omitempty" json:"verification_api,omitempty"`

	// Metrics optionally exposes Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// SiteConfig describes one site to crawl.
type SiteConfig struct {
	// Site selects the adapter, e.g. "amazon", "walmart", "firstcry".
	Site string `yaml:"site" json:"site"`

	// Domain is the site domain to crawl, e.g. "amazon.co.uk".
	Domain string `yaml:"domain" json:"domain"`

	// Keywords are searched in order.
	Keywords []string `yaml:"keywords" json:"keywords"`

	// MaxProductsPerKeyword overrides the global cap for this site.
	MaxProductsPerKeyword int `yaml:"max_products_per_keyword,omitempty" json:"max_products_per_keyword,omitempty"`
}

// EffectiveCap returns the per-keyword URL cap for this site.
func (s SiteConfig) EffectiveCap(globalCap int) int {
	if s.MaxProductsPerKeyword > 0 {
		return s.MaxProductsPerKeyword
	}
	return globalCap
}

// VerificationAPIConfig configures the read-only verification endpoint.
type VerificationAPIConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	ListenAddress string `yaml:"listen_address,omitempty" json:"listen_address,omitempty"`
}

// MetricsConfig configures the Prometheus metrics listener.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	ListenAddress string `yaml:"listen_address,omitempty" json:"listen_address,omitempty"`
}
