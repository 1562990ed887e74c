// Package store persists Comtrade API responses (with TTL semantics),
// classified commodity searches, and completed analyses. Two backends
// implement the same contract: SQLite for single-machine use and Postgres
// for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/exportdss/downstream-cli/internal/model"
)

// DefaultCacheTTL is how long an API response stays usable. Trade statistics
// for a closed year change rarely; a month keeps refetch pressure low.
const DefaultCacheTTL = 30 * 24 * time.Hour

// Store is the persistence contract for the analysis engine.
//
// GetCachedResponse treats expired entries as absent and returns (nil, nil)
// on a miss. SetCachedResponse is an upsert: a second call with the same key
// replaces the payload and resets both timestamps. Concurrent upserts for
// one key may race; last write wins.
type Store interface {
	GetCachedResponse(ctx context.Context, key string) ([]byte, error)
	SetCachedResponse(ctx context.Context, key, kind, code string, payload []byte, ttl time.Duration) error
	DeleteExpired(ctx context.Context) (int, error)

	SaveSearch(ctx context.Context, rec *model.SearchRecord) error
	GetSearch(ctx context.Context, input string) (*model.SearchRecord, error)
	SaveAnalysis(ctx context.Context, rec *model.AnalysisRecord) error

	Migrate(ctx context.Context) error
	Close() error
}
