package testutil

import (
	"testing"

	"github.com/spf13/viper"

	"aniscan/internal/config"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	TMDBAPIKey   string
	SiteBaseURL  string
	FetchIMDBIDs bool
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		TMDBAPIKey:   config.TMDBAPIKey,
		SiteBaseURL:  config.SiteBaseURL,
		FetchIMDBIDs: config.FetchIMDBIDs,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.TMDBAPIKey = state.TMDBAPIKey
	config.SiteBaseURL = state.SiteBaseURL
	config.FetchIMDBIDs = state.FetchIMDBIDs
}

// ResetConfig saves the current config state and schedules restoration
// when the test completes. It also resets viper.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetTestConfig sets up a test configuration with common defaults.
// It saves the current state and restores it when the test completes.
func SetTestConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	config.TMDBAPIKey = "test-tmdb-key"
	config.SiteBaseURL = "https://4anime.gg"
	config.FetchIMDBIDs = false

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetViperValue sets a viper configuration value and schedules cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		if hadValue {
			viper.Set(key, oldValue)
		}
	})
}

// SetupTestCache configures viper for test caching with a temporary directory.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	cacheDir := env.Path("cache")
	env.MkdirAll("cache")

	viper.Set("cache.dbfile", env.Path("cache", "test-cache.db"))
	viper.Set("cache.ttl", "24h")

	return cacheDir
}

// SetupDatasetteDB configures a SQLite output database within the test
// environment and returns its path.
func SetupDatasetteDB(t *testing.T, env *TestEnv) string {
	t.Helper()

	dbPath := env.Path("test.db")

	SetViperValue(t, "datasette.enabled", true)
	SetViperValue(t, "datasette.dbfile", dbPath)

	return dbPath
}
