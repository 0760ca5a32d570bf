package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func resetState(t *testing.T) {
	t.Helper()

	origKey, origBase, origIMDB := TMDBAPIKey, SiteBaseURL, FetchIMDBIDs
	viper.Reset()
	t.Cleanup(func() {
		TMDBAPIKey, SiteBaseURL, FetchIMDBIDs = origKey, origBase, origIMDB
		viper.Reset()
	})
}

func TestInitConfigDefaults(t *testing.T) {
	resetState(t)

	InitConfig()
	require.Equal(t, "https://4anime.gg", SiteBaseURL)
	require.False(t, FetchIMDBIDs)
	require.Empty(t, TMDBAPIKey)
}

func TestInitConfigReadsViperValues(t *testing.T) {
	resetState(t)

	viper.Set("TMDBAPIKey", "from-config")
	viper.Set("site.baseurl", "https://mirror.example")
	viper.Set("tmdb.imdbids", true)

	InitConfig()
	require.Equal(t, "from-config", TMDBAPIKey)
	require.Equal(t, "https://mirror.example", SiteBaseURL)
	require.True(t, FetchIMDBIDs)
}

func TestSetTMDBAPIKey(t *testing.T) {
	resetState(t)

	TMDBAPIKey = "original"
	SetTMDBAPIKey("")
	require.Equal(t, "original", TMDBAPIKey, "empty flag must not clobber the configured key")

	SetTMDBAPIKey("override")
	require.Equal(t, "override", TMDBAPIKey)
}
