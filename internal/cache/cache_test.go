package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"

	"aniscan/internal/testutil"
)

type testData struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func setupTestCache(t *testing.T) *CacheDB {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	// Register test_cache as a valid table name for tests
	ValidCacheTableNames["test_cache"] = true
	t.Cleanup(func() {
		delete(ValidCacheTableNames, "test_cache")
	})

	env := testutil.NewTestEnv(t)

	cache, err := NewCacheDB(env.Path("test_cache.db"))
	if err != nil {
		t.Fatalf("Failed to create cache database: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	testSchema := `
		CREATE TABLE IF NOT EXISTS test_cache (
			cache_key TEXT PRIMARY KEY NOT NULL,
			data TEXT NOT NULL,
			cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	if err := cache.CreateTable(testSchema); err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}

	viper.Set("cache.ttl", "1h")

	return cache
}

func withGlobalCache(t *testing.T, cache *CacheDB) {
	t.Helper()

	oldCache := globalCache
	globalCache = cache
	globalCacheOnce = sync.Once{}
	globalCacheOnce.Do(func() {})

	t.Cleanup(func() {
		globalCache = oldCache
		globalCacheOnce = sync.Once{}
	})
}

func setCachedAt(t *testing.T, cache *CacheDB, tableName, key string, at time.Time) {
	t.Helper()

	if _, err := cache.db.Exec("UPDATE "+tableName+" SET cached_at = ? WHERE cache_key = ?", at.UTC(), key); err != nil {
		t.Fatalf("Failed to update cached_at: %v", err)
	}
}

func TestGetOrFetch_CacheHit(t *testing.T) {
	cache := setupTestCache(t)

	if err := cache.Set("test_cache", "test-key", `{"id":1,"name":"Test"}`); err != nil {
		t.Fatalf("Failed to pre-populate cache: %v", err)
	}

	withGlobalCache(t, cache)

	fetchCalled := false
	result, fromCache, err := GetOrFetch("test_cache", "test-key", func() (testData, error) {
		fetchCalled = true
		return testData{}, nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !fromCache {
		t.Error("Expected fromCache to be true")
	}
	if fetchCalled {
		t.Error("Expected fetch function not to be called")
	}
	if result.ID != 1 || result.Name != "Test" {
		t.Errorf("Unexpected cached result: %+v", result)
	}
}

func TestGetOrFetch_CacheMissFetchesAndStores(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	fetchCalled := false
	result, fromCache, err := GetOrFetch("test_cache", "missing-key", func() (testData, error) {
		fetchCalled = true
		return testData{ID: 2, Name: "Fetched"}, nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fromCache {
		t.Error("Expected fromCache to be false on miss")
	}
	if !fetchCalled {
		t.Error("Expected fetch function to be called")
	}
	if result.ID != 2 {
		t.Errorf("Unexpected fetched result: %+v", result)
	}

	// A second call must now hit the cache.
	_, fromCache, err = GetOrFetch("test_cache", "missing-key", func() (testData, error) {
		t.Error("Fetch must not be called on a warm cache")
		return testData{}, nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !fromCache {
		t.Error("Expected the second call to be a cache hit")
	}
}

func TestGetOrFetch_ExpiredEntryRefetches(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	if err := cache.Set("test_cache", "stale-key", `{"id":3,"name":"Stale"}`); err != nil {
		t.Fatalf("Failed to pre-populate cache: %v", err)
	}
	setCachedAt(t, cache, "test_cache", "stale-key", time.Now().Add(-2*time.Hour))

	fetchCalled := false
	result, fromCache, err := GetOrFetch("test_cache", "stale-key", func() (testData, error) {
		fetchCalled = true
		return testData{ID: 4, Name: "Fresh"}, nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fromCache {
		t.Error("Expected expired entry to miss")
	}
	if !fetchCalled {
		t.Error("Expected fetch function to be called for expired entry")
	}
	if result.ID != 4 {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestGetOrFetchWithTTL_ZeroTTLSkipsStore(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	_, _, err := GetOrFetchWithTTL("test_cache", "no-store", func() (testData, error) {
		return testData{ID: 5}, nil
	}, func(testData) time.Duration { return 0 })
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, found, _ := cache.Get("test_cache", "no-store", time.Hour); found {
		t.Error("Expected zero-TTL result not to be stored")
	}
}

func TestSelectNegativeCacheTTL(t *testing.T) {
	selector := SelectNegativeCacheTTL(func(d testData) bool { return d.ID == 0 })

	if got := selector(testData{ID: 0}); got != NegativeCacheTTL {
		t.Errorf("Expected negative TTL for not-found, got %v", got)
	}
	if got := selector(testData{ID: 1}); got != DefaultCacheTTL {
		t.Errorf("Expected default TTL for found, got %v", got)
	}
}

func TestInvalidateSource(t *testing.T) {
	cache := setupTestCache(t)

	for _, key := range []string{"a", "b", "c"} {
		if err := cache.Set("test_cache", key, `{}`); err != nil {
			t.Fatalf("Failed to set %q: %v", key, err)
		}
	}

	deleted, err := cache.InvalidateSource("test_cache")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted rows, got %d", deleted)
	}
}

func TestValidateTableNameRejectsUnknownTables(t *testing.T) {
	cache := setupTestCache(t)

	if err := cache.Set("series; DROP TABLE tmdb_cache", "k", "{}"); err == nil {
		t.Error("Expected unknown table name to be rejected")
	}
	if _, _, err := cache.Get("bogus", "k", time.Hour); err == nil {
		t.Error("Expected unknown table name to be rejected")
	}
}
