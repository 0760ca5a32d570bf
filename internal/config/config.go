package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// TMDBAPIKey is the API key for TheMovieDB
	TMDBAPIKey string
	// SiteBaseURL is the base URL of the episode-list site
	SiteBaseURL string
	// FetchIMDBIDs enables the extra external_ids lookup per matched title
	FetchIMDBIDs bool
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("site.baseurl", "https://4anime.gg")
	viper.SetDefault("tmdb.imdbids", false)

	// Get values from viper
	TMDBAPIKey = viper.GetString("TMDBAPIKey")
	SiteBaseURL = viper.GetString("site.baseurl")
	FetchIMDBIDs = viper.GetBool("tmdb.imdbids")
}

// SetTMDBAPIKey sets the TMDB API key (CLI flag override)
func SetTMDBAPIKey(key string) {
	if key != "" {
		TMDBAPIKey = key
	}
}
