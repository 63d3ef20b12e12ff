// internal/store/store.go

// Package store persists product records in a document store. Identity is
// policy-driven: no single field is globally unique, so the store exposes
// identifier-filter queries instead of key lookups.
package store

import (
	"context"
	"time"

	"github.com/shelfscout/shelfscout/pkg/types"
)

// Options configures the MongoDB connection.
type Options struct {
	ConnectionString string        `yaml:"connection_string" json:"connection_string"`
	Database         string        `yaml:"database" json:"database"`
	Collection       string        `yaml:"collection" json:"collection"`
	Timeout          time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	MaxPoolSize      int           `yaml:"max_pool_size,omitempty" json:"max_pool_size,omitempty"`
}

// ProductStore is the persistence surface the reconciler, verification API,
// and exporter depend on. Each call is its own atomic read-then-write; no
// transaction spans multiple reconciliation decisions.
type ProductStore interface {
	// ReplaceMatchFromOtherRun finds one record matching any of the given
	// identifiers whose run version differs from runVersion, and replaces
	// its content in place, keeping the record's storage identity. It
	// returns false when no such record exists.
	ReplaceMatchFromOtherRun(ctx context.Context, ids types.Identifiers, runVersion string, product types.StoredProduct) (bool, error)

	// CountMatchesFromOtherRun counts records from other runs matching any
	// of the given identifiers. Used to flag ambiguous multi-matches.
	CountMatchesFromOtherRun(ctx context.Context, ids types.Identifiers, runVersion string) (int64, error)

	// Insert stores a new record.
	Insert(ctx context.Context, product types.StoredProduct) error

	// FindAll returns every stored record.
	FindAll(ctx context.Context) ([]types.StoredProduct, error)

	// Close releases the connection.
	Close(ctx context.Context) error
}
