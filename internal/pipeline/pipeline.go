// Package pipeline implements the bounded-concurrency fetch, parse,
// enrich and aggregate engine that turns a range of numeric title
// identifiers into an ordered record set plus a disjoint set of error
// entries.
//
// The engine owns all coordination: a rate-limited fetch worker pool, a
// separately bounded enrichment pool, a write-once result slot table
// that makes output ordering a pure function of identifier order, and
// an error tracker for identifiers that terminally fail. Site and
// metadata access happen through the collaborator interfaces below, so
// the engine itself never touches the network.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"aniscan/internal/anime"
	"aniscan/internal/tmdb"
)

// Fetcher retrieves the raw episode-list document for one identifier.
// URL reports the address a fetch would use, for error reporting and
// retry lists.
type Fetcher interface {
	Fetch(ctx context.Context, id int) ([]byte, error)
	URL(id int) string
}

// Parser turns a raw document into an episode range. Implementations
// must be pure: same document, same result.
type Parser interface {
	Parse(doc []byte) (anime.EpisodeList, error)
}

// Lookup resolves a cleaned query name to title metadata. Any returned
// error, including tmdb.ErrNoMatch, degrades the item to fallback
// naming; it never fails the item.
type Lookup interface {
	Lookup(ctx context.Context, name string) (tmdb.Match, error)
}

// OffsetFunc reconciles the site's episode numbering with canonical
// 1-based numbering. It receives the parsed first and last episode
// numbers and returns the offset to record.
type OffsetFunc func(first, last int) int

// DefaultOffset is the standard numbering policy: the distance between
// the site's first episode and episode 1, never negative.
func DefaultOffset(first, last int) int {
	if first > 1 {
		return first - 1
	}
	return 0
}

// Config carries every knob of one pipeline run.
type Config struct {
	// FetchWorkers bounds concurrent fetch+parse attempts.
	FetchWorkers int
	// EnrichWorkers bounds concurrent metadata lookups. The metadata
	// service has its own limits, so this is usually smaller.
	EnrichWorkers int
	// BatchSize bounds in-flight work and peak memory: each batch is
	// driven to full completion before the next starts.
	BatchSize int
	// FetchAttempts is the total attempt budget per identifier for
	// retryable fetch failures (1 means no retries).
	FetchAttempts int
	// FetchTimeout bounds a single fetch attempt.
	FetchTimeout time.Duration
	// RequestsPerSecond paces outbound site fetches across all workers.
	RequestsPerSecond int
	// StartSerial is the running record total from prior resumed runs;
	// the first record of this run gets StartSerial+1.
	StartSerial int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		FetchWorkers:      30,
		EnrichWorkers:     10,
		BatchSize:         100,
		FetchAttempts:     3,
		FetchTimeout:      10 * time.Second,
		RequestsPerSecond: 10,
	}
}

// ConfigError reports an invalid configuration value. It is the only
// error class that aborts a run before dispatch.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func (c Config) validate() error {
	if c.FetchWorkers < 1 {
		return &ConfigError{Field: "FetchWorkers", Reason: "must be positive"}
	}
	if c.EnrichWorkers < 1 {
		return &ConfigError{Field: "EnrichWorkers", Reason: "must be positive"}
	}
	if c.BatchSize < 1 {
		return &ConfigError{Field: "BatchSize", Reason: "must be positive"}
	}
	if c.FetchAttempts < 1 {
		return &ConfigError{Field: "FetchAttempts", Reason: "must be positive"}
	}
	if c.FetchTimeout <= 0 {
		return &ConfigError{Field: "FetchTimeout", Reason: "must be positive"}
	}
	if c.RequestsPerSecond < 1 {
		return &ConfigError{Field: "RequestsPerSecond", Reason: "must be positive"}
	}
	if c.StartSerial < 0 {
		return &ConfigError{Field: "StartSerial", Reason: "must not be negative"}
	}
	return nil
}

// IdentifierRange expands [lo, hi) into the identifier list for a full
// sweep. Returns a ConfigError for an empty or inverted range.
func IdentifierRange(lo, hi int) ([]int, error) {
	if hi <= lo {
		return nil, &ConfigError{Field: "range", Reason: fmt.Sprintf("[%d, %d) is empty", lo, hi)}
	}
	ids := make([]int, 0, hi-lo)
	for id := lo; id < hi; id++ {
		ids = append(ids, id)
	}
	return ids, nil
}
