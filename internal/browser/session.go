// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/shelfscout/shelfscout/internal/utils"
)

var sessionLogger = utils.NewComponentLogger("browser")

// Session implements Browser on top of a single chromedp allocator. One
// Session serves a whole crawl run; NewPage opens tabs inside it.
type Session struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
	config      *Config
	limiter     *utils.RateLimiter
}

// NewSession launches headless Chrome and returns the run-wide session.
func NewSession(config *Config) (*Session, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config.applyDefaults()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // required in container environments
		chromedp.WindowSize(config.ViewportWidth, config.ViewportHeight),
	}
	if config.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(config.UserDataDir))
	}
	if config.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// Start the browser process now so a broken Chrome install fails fast
	// instead of on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	sessionLogger.Infof("Browser session started (headless=%v, timeout=%v)",
		config.Headless, config.NavigationTimeout)

	return &Session{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		cancel:      cancel,
		config:      config,
		limiter:     utils.NewRateLimiter(config.NavigationsPerSec),
	}, nil
}

// NewPage opens a fresh tab in the shared session.
func (s *Session) NewPage(ctx context.Context) (Page, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	return &chromePage{
		ctx:     tabCtx,
		cancel:  tabCancel,
		timeout: s.config.NavigationTimeout,
		limiter: s.limiter,
	}, nil
}

// Close shuts the browser down.
func (s *Session) Close() error {
	s.cancel()
	s.allocCancel()
	return nil
}

// chromePage implements Page for one chromedp tab.
type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	limiter *utils.RateLimiter
}

func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, opCancel := context.WithTimeout(p.ctx, timeout)
	defer opCancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(opCtx, actions...) }()

	select {
	case <-ctx.Done():
		opCancel()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	err := p.run(ctx, p.timeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (p *chromePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.timeout
	}
	if err := p.run(ctx, timeout, chromedp.WaitVisible(selector)); err != nil {
		return fmt.Errorf("element %q did not appear: %w", selector, err)
	}
	return nil
}

func (p *chromePage) Click(ctx context.Context, selector string) error {
	if err := p.run(ctx, p.timeout, chromedp.Click(selector, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, p.timeout, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (p *chromePage) Evaluate(ctx context.Context, expression string, res interface{}) error {
	if err := p.run(ctx, p.timeout, chromedp.Evaluate(expression, res)); err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	return nil
}

func (p *chromePage) Location(ctx context.Context) (string, error) {
	var loc string
	if err := p.run(ctx, p.timeout, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to get location: %w", err)
	}
	return loc, nil
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}
