package cache

// SQL schemas for cache tables.
// All cache tables use "cache_key" as the primary key column.

// TMDBCacheSchema defines the schema for TMDB TV search cache.
const TMDBCacheSchema = `
CREATE TABLE IF NOT EXISTS tmdb_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tmdb_cached_at ON tmdb_cache(cached_at);
`

// AllCacheSchemas lists every cache table created at startup.
var AllCacheSchemas = []string{
	TMDBCacheSchema,
}

// ValidCacheTableNames whitelists table names for invalidation queries.
var ValidCacheTableNames = map[string]bool{
	"tmdb_cache": true,
}
