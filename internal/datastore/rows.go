package datastore

import (
	"time"

	"aniscan/internal/pipeline"
)

// RecordRows converts enriched records to insertable rows.
// Nil pointer fields become SQL NULLs.
func RecordRows(records []pipeline.Record) []map[string]any {
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		row := map[string]any{
			"serial_no":      rec.SerialNo,
			"name":           rec.Name,
			"title":          rec.Title,
			"tmdb_id":        nil,
			"imdb_id":        nil,
			"year":           nil,
			"episodes":       rec.Episodes,
			"episode_offset": rec.EpisodeOffset,
		}
		if rec.TMDBID != nil {
			row["tmdb_id"] = *rec.TMDBID
		}
		if rec.IMDBID != nil {
			row["imdb_id"] = *rec.IMDBID
		}
		if rec.Year != nil {
			row["year"] = *rec.Year
		}
		rows = append(rows, row)
	}
	return rows
}

// ErrorRows converts error entries to insertable rows.
func ErrorRows(entries []pipeline.ErrorEntry) []map[string]any {
	rows := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, map[string]any{
			"identifier":     entry.Identifier,
			"url":            entry.URL,
			"reason":         entry.Reason,
			"classification": string(entry.Class),
			"failed_at":      entry.Timestamp.Format(time.RFC3339),
		})
	}
	return rows
}
