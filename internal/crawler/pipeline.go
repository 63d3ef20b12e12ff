// internal/crawler/pipeline.go
package crawler

import (
	"context"
	"fmt"

	"github.com/shelfscout/shelfscout/internal/adapter"
	"github.com/shelfscout/shelfscout/internal/browser"
	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/types"
)

var pipelineLogger = utils.NewComponentLogger("pipeline")

// Pipeline extracts one full product record from a product URL. Steps run in
// a fixed order with reviews last, because review extraction can navigate
// away from the product page and would corrupt the remaining steps.
type Pipeline struct {
	browser browser.Browser
}

// NewPipeline creates a pipeline bound to the run's browser session.
func NewPipeline(b browser.Browser) *Pipeline {
	return &Pipeline{browser: b}
}

// Run opens the product page and runs every extraction step. Any step error
// aborts the whole call; a retry re-runs all steps from the navigation on, so
// a partially filled record never escapes.
func (p *Pipeline) Run(ctx context.Context, siteAdapter adapter.SiteAdapter, productURL string) (types.CandidateProduct, error) {
	page, err := p.browser.NewPage(ctx)
	if err != nil {
		return types.CandidateProduct{}, err
	}
	defer page.Close()

	pipelineLogger.Debugf("Processing %s", productURL)
	if err := page.Navigate(ctx, productURL); err != nil {
		return types.CandidateProduct{}, err
	}

	core, err := siteAdapter.ExtractCore(ctx, page)
	if err != nil {
		return types.CandidateProduct{}, fmt.Errorf("core extraction: %w", err)
	}

	detail, err := siteAdapter.ExtractDescriptionDetail(ctx, page)
	if err != nil {
		return types.CandidateProduct{}, fmt.Errorf("description detail extraction: %w", err)
	}

	photos, err := siteAdapter.ExtractPhotos(ctx, page)
	if err != nil {
		return types.CandidateProduct{}, fmt.Errorf("photo extraction: %w", err)
	}

	reviews, rating, err := siteAdapter.ExtractReviewsAndRating(ctx, p.browser, page)
	if err != nil {
		return types.CandidateProduct{}, fmt.Errorf("review extraction: %w", err)
	}

	return types.CandidateProduct{
		Identifiers:       core.Identifiers,
		SourceURL:         productURL,
		Source:            core.Source,
		Name:              core.Name,
		Description:       core.Description,
		DescriptionDetail: detail,
		Price:             core.Price,
		Photos:            photos,
		Reviews:           reviews,
		Rating:            rating,
	}, nil
}
