package pipeline

import "time"

// Record is one enriched output entry. Field names follow the exported
// JSON document; pointer fields serialize as null when enrichment had
// nothing to offer. Identifier is the source identifier the record was
// built from; it stays out of the JSON document but lets sinks map a
// record back to its fetch URL.
type Record struct {
	Identifier    int     `json:"-"`
	SerialNo      int     `json:"serial_no"`
	Name          string  `json:"name"`
	Title         string  `json:"title"`
	TMDBID        *int    `json:"tmdb_id"`
	IMDBID        *string `json:"imdb_id"`
	Year          *int    `json:"year"`
	Episodes      string  `json:"episodes"`
	EpisodeOffset int     `json:"episode_offset"`
}

// Classification buckets terminal failures for reporting.
type Classification string

const (
	// ClassNetwork covers connection failures and timeouts.
	ClassNetwork Classification = "network"
	// ClassHTTPStatus covers server-signaled non-2xx responses.
	ClassHTTPStatus Classification = "http_status"
	// ClassParse covers documents missing the expected structure.
	ClassParse Classification = "parse"
	// ClassOther covers everything else, including cancellation.
	ClassOther Classification = "other"
)

// ErrorEntry records one identifier whose pipeline terminated without
// producing a record.
type ErrorEntry struct {
	Identifier int            `json:"identifier"`
	URL        string         `json:"url"`
	Reason     string         `json:"reason"`
	Class      Classification `json:"classification"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Summary is the per-run accounting reported on completion, whether or
// not individual identifiers failed.
type Summary struct {
	Attempted int
	Succeeded int
	Degraded  int
	Failed    map[Classification]int
}

// TotalFailed sums failures across classifications.
func (s Summary) TotalFailed() int {
	total := 0
	for _, n := range s.Failed {
		total += n
	}
	return total
}
