// internal/reconcile/reconciler.go

// Package reconcile folds crawled product candidates into the document store.
// Matching is run-versioned: a record written by the current run is invisible
// to later matches in the same run, so two same-run candidates sharing an
// identifier become two records instead of clobbering each other.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfscout/shelfscout/internal/store"
	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/types"
)

var reconcileLogger = utils.NewComponentLogger("reconcile")

// Outcome says what Reconcile did with a candidate.
type Outcome string

const (
	// Inserted means a new record was created.
	Inserted Outcome = "inserted"
	// Updated means an existing record from a previous run was replaced in
	// place.
	Updated Outcome = "updated"
)

// Reconciler applies the match-or-insert policy for one crawl run.
type Reconciler struct {
	store      store.ProductStore
	runVersion string
	now        func() time.Time
}

// NewReconciler creates a reconciler bound to a run version.
func NewReconciler(productStore store.ProductStore, runVersion string) *Reconciler {
	return &Reconciler{
		store:      productStore,
		runVersion: runVersion,
		now:        time.Now,
	}
}

// Reconcile persists one candidate. A candidate matching a record from a
// previous run by any present identifier replaces that record in place,
// keeping the record's storage identity; anything else, including a candidate
// with no identifiers at all, becomes a new record. When several previous-run
// records match, the first is updated and the ambiguity is logged.
func (r *Reconciler) Reconcile(ctx context.Context, candidate types.CandidateProduct) (Outcome, error) {
	record := candidate.Stored(r.runVersion, r.now())

	if !candidate.Identifiers.Any() {
		reconcileLogger.Debugf("No identifiers for %q, inserting new record", candidate.Name)
		if err := r.store.Insert(ctx, record); err != nil {
			return "", fmt.Errorf("insert failed: %w", err)
		}
		return Inserted, nil
	}

	matches, err := r.store.CountMatchesFromOtherRun(ctx, candidate.Identifiers, r.runVersion)
	if err != nil {
		return "", fmt.Errorf("match count failed: %w", err)
	}
	if matches > 1 {
		reconcileLogger.Warnf("Identifiers %v match %d records, updating the first match only",
			candidate.Identifiers.Present(), matches)
	}

	replaced, err := r.store.ReplaceMatchFromOtherRun(ctx, candidate.Identifiers, r.runVersion, record)
	if err != nil {
		return "", fmt.Errorf("replace failed: %w", err)
	}
	if replaced {
		return Updated, nil
	}

	if err := r.store.Insert(ctx, record); err != nil {
		return "", fmt.Errorf("insert failed: %w", err)
	}
	return Inserted, nil
}
