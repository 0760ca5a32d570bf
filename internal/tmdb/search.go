package tmdb

import (
	"context"
	"fmt"
	"net/url"
)

// SearchTV performs a TV-series search on TMDB and returns results in API
// order. The first result is the canonical auto-select match.
func (c *Client) SearchTV(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 1
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	params.Set("language", "en-US")
	params.Set("include_adult", "false")

	endpoint := fmt.Sprintf("%s/search/tv?%s", c.baseURL, params.Encode())

	var response struct {
		Results []struct {
			ID           int     `json:"id"`
			Name         string  `json:"name"`
			OriginalName string  `json:"original_name"`
			FirstAirDate string  `json:"first_air_date"`
			Overview     string  `json:"overview"`
			VoteAverage  float64 `json:"vote_average"`
			Popularity   float64 `json:"popularity"`
		} `json:"results"`
	}

	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, limit)
	for _, item := range response.Results {
		if len(results) >= limit {
			break
		}
		results = append(results, SearchResult{
			ID:           item.ID,
			Name:         item.Name,
			OriginalName: item.OriginalName,
			FirstAirDate: item.FirstAirDate,
			Overview:     item.Overview,
			VoteAverage:  item.VoteAverage,
			Popularity:   item.Popularity,
		})
	}

	return results, nil
}

// ExternalIDs fetches the IMDb ID for a TMDB TV series via the
// /tv/{id}/external_ids endpoint. Returns an empty string when TMDB has
// no IMDb mapping for the series.
func (c *Client) ExternalIDs(ctx context.Context, tvID int) (string, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)

	endpoint := fmt.Sprintf("%s/tv/%d/external_ids?%s", c.baseURL, tvID, params.Encode())

	var response struct {
		IMDBID string `json:"imdb_id"`
	}
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return "", err
	}
	return response.IMDBID, nil
}
