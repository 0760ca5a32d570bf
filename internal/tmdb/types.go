package tmdb

import "strconv"

// SearchResult represents a single TV search result from TMDB.
type SearchResult struct {
	ID           int
	Name         string
	OriginalName string
	FirstAirDate string
	Overview     string
	VoteAverage  float64
	Popularity   float64
}

// YearInt returns the first-air year as an int, or 0 when unknown.
func (r SearchResult) YearInt() int {
	if len(r.FirstAirDate) >= 4 {
		if year, err := strconv.Atoi(r.FirstAirDate[:4]); err == nil {
			return year
		}
	}
	return 0
}

// Match is the enrichment payload the pipeline consumes: the resolved
// display title plus the external identifiers worth recording.
type Match struct {
	Title  string
	TMDBID int
	IMDBID string
	Year   int
}
