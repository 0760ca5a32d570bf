package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"aniscan/internal/ratelimit"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient("test-key",
		WithBaseURL(server.URL),
		WithRateLimiter(ratelimit.New("test", 10000)),
	)
}

func TestSearchTV(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/tv", r.URL.Path)

		query := r.URL.Query()
		require.Equal(t, "test-key", query.Get("api_key"))
		require.Equal(t, "example show", query.Get("query"))
		require.Equal(t, "en-US", query.Get("language"))
		require.Equal(t, "false", query.Get("include_adult"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"id": 555, "name": "Example Show", "original_name": "Example Show", "first_air_date": "2018-04-03", "vote_average": 8.2, "popularity": 45.1},
				{"id": 556, "name": "Example Show II", "first_air_date": "2020-01-01"}
			]
		}`))
	})

	results, err := client.SearchTV(context.Background(), "example show", 1)
	require.NoError(t, err)
	require.Len(t, results, 1, "limit caps the result count")

	best := results[0]
	require.Equal(t, 555, best.ID)
	require.Equal(t, "Example Show", best.Name)
	require.Equal(t, 2018, best.YearInt())
}

func TestSearchTVEmptyResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": []}`))
	})

	results, err := client.SearchTV(context.Background(), "no such show", 1)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchTVUnexpectedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status_message": "Invalid API key"}`, http.StatusUnauthorized)
	})

	_, err := client.SearchTV(context.Background(), "example", 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}

func TestExternalIDs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tv/555/external_ids", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("api_key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"imdb_id": "tt0555000", "tvdb_id": 12}`))
	})

	imdbID, err := client.ExternalIDs(context.Background(), 555)
	require.NoError(t, err)
	require.Equal(t, "tt0555000", imdbID)
}

func TestExternalIDsMissingMapping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"imdb_id": null}`))
	})

	imdbID, err := client.ExternalIDs(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, imdbID)
}

func TestYearInt(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2018-04-03", 2018},
		{"1999", 1999},
		{"", 0},
		{"bad", 0},
	}

	for _, tt := range tests {
		result := SearchResult{FirstAirDate: tt.date}
		require.Equal(t, tt.want, result.YearInt(), "FirstAirDate %q", tt.date)
	}
}
