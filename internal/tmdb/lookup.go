package tmdb

import (
	"context"
	"errors"
	"log/slog"

	"aniscan/internal/cache"
)

// Resolver answers title-metadata queries for the pipeline's enrichment
// stage. Results are cached in SQLite keyed by the query name, with
// negative caching for queries TMDB cannot match.
type Resolver struct {
	client      *Client
	useCache    bool
	fetchIMDBID bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithoutCache disables the SQLite response cache.
func WithoutCache() ResolverOption {
	return func(r *Resolver) { r.useCache = false }
}

// WithIMDBIDs enables the extra external_ids call that fills Match.IMDBID.
func WithIMDBIDs() ResolverOption {
	return func(r *Resolver) { r.fetchIMDBID = true }
}

// NewResolver creates a Resolver on top of a TMDB client.
func NewResolver(client *Client, opts ...ResolverOption) *Resolver {
	r := &Resolver{client: client, useCache: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// cachedMatch is the cache representation of a lookup, including the
// negative ("no match") case.
type cachedMatch struct {
	Match    Match `json:"match"`
	NotFound bool  `json:"not_found"`
}

// Lookup resolves a cleaned query name to TMDB metadata.
// Returns ErrNoMatch when the search succeeds but yields nothing; any
// other error means the lookup itself failed. Callers are expected to
// degrade gracefully in both cases.
func (r *Resolver) Lookup(ctx context.Context, name string) (Match, error) {
	if !r.useCache {
		return r.lookupDirect(ctx, name)
	}

	result, fromCache, err := cache.GetOrFetchWithTTL("tmdb_cache", name,
		func() (cachedMatch, error) {
			match, err := r.lookupDirect(ctx, name)
			if errors.Is(err, ErrNoMatch) {
				return cachedMatch{NotFound: true}, nil
			}
			if err != nil {
				return cachedMatch{}, err
			}
			return cachedMatch{Match: match}, nil
		},
		cache.SelectNegativeCacheTTL(func(m cachedMatch) bool { return m.NotFound }),
	)
	if err != nil {
		return Match{}, err
	}
	if fromCache {
		slog.Debug("TMDB result from cache", "query", name, "not_found", result.NotFound)
	}
	if result.NotFound {
		return Match{}, ErrNoMatch
	}
	return result.Match, nil
}

func (r *Resolver) lookupDirect(ctx context.Context, name string) (Match, error) {
	results, err := r.client.SearchTV(ctx, name, 1)
	if err != nil {
		return Match{}, err
	}
	if len(results) == 0 {
		return Match{}, ErrNoMatch
	}

	best := results[0]
	match := Match{
		Title:  best.Name,
		TMDBID: best.ID,
		Year:   best.YearInt(),
	}

	if r.fetchIMDBID {
		imdbID, err := r.client.ExternalIDs(ctx, best.ID)
		if err != nil {
			// The search already matched; a missing IMDb ID is not worth
			// failing the lookup over.
			slog.Debug("external_ids lookup failed", "query", name, "tmdb_id", best.ID, "error", err)
		} else {
			match.IMDBID = imdbID
		}
	}

	return match, nil
}
