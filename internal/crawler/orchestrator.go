// internal/crawler/orchestrator.go

// Package crawler drives crawl runs: keyword search, product extraction, and
// reconciliation, with bounded retries around every navigation-heavy step.
package crawler

import (
	"context"
	"strconv"
	"time"

	"github.com/shelfscout/shelfscout/internal/adapter"
	"github.com/shelfscout/shelfscout/internal/browser"
	"github.com/shelfscout/shelfscout/internal/config"
	"github.com/shelfscout/shelfscout/internal/monitoring"
	"github.com/shelfscout/shelfscout/internal/reconcile"
	"github.com/shelfscout/shelfscout/internal/store"
	"github.com/shelfscout/shelfscout/internal/utils"
)

var orchestratorLogger = utils.NewComponentLogger("orchestrator")

// SiteState is the lifecycle position of one site within a run.
type SiteState int

const (
	// SiteInit is the state before any work on the site has started.
	SiteInit SiteState = iota
	// SiteSearching means keyword searches are in progress.
	SiteSearching
	// SiteScraping means product pages are being extracted and reconciled.
	SiteScraping
	// SiteDone means the site finished; individual URLs may still have been
	// skipped.
	SiteDone
	// SiteFailed means search retries were exhausted and the site was
	// abandoned. Failed is absorbing; a failed site is never revisited in
	// the run.
	SiteFailed
)

func (s SiteState) String() string {
	switch s {
	case SiteInit:
		return "init"
	case SiteSearching:
		return "searching"
	case SiteScraping:
		return "scraping"
	case SiteDone:
		return "done"
	case SiteFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunSummary describes one finished crawl run.
type RunSummary struct {
	RunVersion  string
	Products    int
	Inserted    int
	Updated     int
	Keywords    int
	Sites       int
	FailedSites []string
	SkippedURLs int
	Duration    time.Duration
}

// Orchestrator executes a full crawl run over every configured site.
type Orchestrator struct {
	config  *config.Config
	store   store.ProductStore
	metrics *monitoring.Metrics
	retry   *RetryExecutor

	// lookup and newBrowser are swapped out in tests.
	lookup     func(siteID, domain string) (adapter.SiteAdapter, error)
	newBrowser func() (browser.Browser, error)
	now        func() time.Time
}

// NewOrchestrator wires an orchestrator from its run-wide dependencies.
// metrics may be nil.
func NewOrchestrator(cfg *config.Config, registry *adapter.Registry, productStore store.ProductStore, metrics *monitoring.Metrics) *Orchestrator {
	return &Orchestrator{
		config:  cfg,
		store:   productStore,
		metrics: metrics,
		retry:   NewRetryExecutor(),
		lookup:  registry.New,
		newBrowser: func() (browser.Browser, error) {
			return browser.NewSession(&cfg.Browser)
		},
		now: time.Now,
	}
}

// Run crawls every configured site and reconciles the results. The browser
// session is opened once and shared by all sites. A failed site is skipped,
// not fatal; Run only errors when the browser cannot start or the context is
// cancelled.
func (o *Orchestrator) Run(ctx context.Context) (*RunSummary, error) {
	started := o.now()
	runVersion := strconv.FormatInt(started.UnixMilli(), 10)
	orchestratorLogger.Infof("Starting crawl run %s over %d site(s)", runVersion, len(o.config.Sites))

	b, err := o.newBrowser()
	if err != nil {
		return nil, err
	}
	defer b.Close()

	reconciler := reconcile.NewReconciler(o.store, runVersion)
	pipeline := NewPipeline(b)
	summary := &RunSummary{RunVersion: runVersion, Sites: len(o.config.Sites)}

	for _, site := range o.config.Sites {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := o.runSite(ctx, b, pipeline, reconciler, site, summary); err != nil {
			return nil, err
		}
	}

	summary.Duration = o.now().Sub(started)
	o.metrics.RunCompleted(summary.Duration)
	orchestratorLogger.Infof("Scraping finished. Scraped %d products from %d keywords and %d sites",
		summary.Products, summary.Keywords, summary.Sites)
	return summary, nil
}

// runSite walks one site through the search and scrape phases. Only context
// cancellation propagates as an error; everything else degrades to a failed
// site or skipped URLs.
func (o *Orchestrator) runSite(ctx context.Context, b browser.Browser, pipeline *Pipeline, reconciler *reconcile.Reconciler, site config.SiteConfig, summary *RunSummary) error {
	state := SiteInit
	logger := orchestratorLogger.WithField("site", site.Site)

	// Keywords counts the configured workload, like Sites does, so failed
	// sites still show up in the summary line.
	summary.Keywords += len(site.Keywords)

	siteAdapter, err := o.lookup(site.Site, site.Domain)
	if err != nil {
		// Validation catches unknown sites before a run; reaching this
		// means the registry and the validator disagree.
		logger.Errorf("Cannot construct adapter: %v", err)
		state = SiteFailed
		summary.FailedSites = append(summary.FailedSites, site.Site)
		return nil
	}

	state = SiteSearching
	logger.Infof("Site state: %s", state)

	collector := NewCollector(siteAdapter, site.EffectiveCap(o.config.MaxProductsPerKeyword))
	var found map[string][]string
	initialized := false

	searchErr := o.retry.Execute(ctx, "keyword search on "+site.Site, o.config.Retries, func(ctx context.Context) error {
		page, err := b.NewPage(ctx)
		if err != nil {
			return err
		}
		defer page.Close()

		if init, ok := siteAdapter.(adapter.SessionInitializer); ok && !initialized {
			if err := init.InitialSetup(ctx, page); err != nil {
				o.metrics.Retry(site.Site, "search")
				return err
			}
			initialized = true
		}

		results, err := collector.Collect(ctx, page, site.Keywords)
		if err != nil {
			o.metrics.Retry(site.Site, "search")
			return err
		}
		found = results
		return nil
	})
	if searchErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		state = SiteFailed
		logger.Errorf("Site state: %s (%v)", state, searchErr)
		o.metrics.Skip(site.Site, "search")
		summary.FailedSites = append(summary.FailedSites, site.Site)
		return nil
	}

	state = SiteScraping
	logger.Infof("Site state: %s", state)

	for _, keyword := range site.Keywords {
		for _, productURL := range found[keyword] {
			if err := ctx.Err(); err != nil {
				return err
			}
			o.scrapeProduct(ctx, pipeline, reconciler, siteAdapter, site.Site, keyword, productURL, summary)
		}
	}

	state = SiteDone
	logger.Infof("Site state: %s", state)
	return nil
}

// scrapeProduct runs the extraction pipeline and reconciliation for one URL
// under retry. Exhausted retries skip the URL.
func (o *Orchestrator) scrapeProduct(ctx context.Context, pipeline *Pipeline, reconciler *reconcile.Reconciler, siteAdapter adapter.SiteAdapter, site, keyword, productURL string, summary *RunSummary) {
	err := o.retry.Execute(ctx, "product "+productURL, o.config.Retries, func(ctx context.Context) error {
		candidate, err := pipeline.Run(ctx, siteAdapter, productURL)
		if err != nil {
			o.metrics.Retry(site, "product")
			return err
		}
		candidate.Keyword = keyword
		o.metrics.PageScraped(site)

		outcome, err := reconciler.Reconcile(ctx, candidate)
		if err != nil {
			o.metrics.Retry(site, "product")
			return err
		}
		o.metrics.ProductReconciled(site, string(outcome))

		summary.Products++
		if outcome == reconcile.Inserted {
			summary.Inserted++
		} else {
			summary.Updated++
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		o.metrics.Skip(site, "product")
		summary.SkippedURLs++
	}
}
