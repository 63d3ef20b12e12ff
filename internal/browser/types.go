// internal/browser/types.go

// Package browser owns the headless Chrome session shared by a crawl run.
// The session is opened once per run; searches and product visits get fresh
// logical pages (tabs) from it. Adapters receive pages as scoped capabilities
// and must not retain them across calls.
package browser

import (
	"context"
	"time"
)

// Config controls the Chrome session for a run.
type Config struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	UserAgent         string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	UserDataDir       string        `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	ViewportWidth     int           `yaml:"viewport_width,omitempty" json:"viewport_width,omitempty"`
	ViewportHeight    int           `yaml:"viewport_height,omitempty" json:"viewport_height,omitempty"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout,omitempty" json:"navigation_timeout,omitempty"`
	NavigationsPerSec float64       `yaml:"navigations_per_second,omitempty" json:"navigations_per_second,omitempty"`
	DisableImages     bool          `yaml:"disable_images,omitempty" json:"disable_images,omitempty"`
}

// DefaultConfig returns the browser defaults used when the run configuration
// leaves the browser section empty.
func DefaultConfig() *Config {
	return &Config{
		Headless:          true,
		ViewportWidth:     1920,
		ViewportHeight:    1080,
		NavigationTimeout: 30 * time.Second,
		NavigationsPerSec: 1,
		UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = def.ViewportWidth
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = def.ViewportHeight
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = def.NavigationTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
}

// Page is one logical browser tab. All operations respect the session's
// navigation timeout; a timed-out operation returns an error that flows into
// the caller's retry accounting.
type Page interface {
	// Navigate loads a URL and waits for the document body to be ready.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until the selector matches a visible element.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Click clicks the first element matching the selector.
	Click(ctx context.Context, selector string) error
	// HTML returns the current document's outer HTML.
	HTML(ctx context.Context) (string, error)
	// Evaluate runs a JavaScript expression, decoding its result into res
	// when res is non-nil.
	Evaluate(ctx context.Context, expression string, res interface{}) error
	// Location returns the page's current URL.
	Location(ctx context.Context) (string, error)
	// Close releases the tab.
	Close() error
}

// Browser hands out logical pages backed by one shared automation session.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}
