package pipeline

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestErrorTrackerExportsSortedByIdentifier(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker := newErrorTracker()
	tracker.now = func() time.Time { return fixed }

	tracker.report(30, "https://site.test/30", "HTTP 404", ClassHTTPStatus)
	tracker.report(10, "https://site.test/10", "fetch timed out", ClassNetwork)
	tracker.report(20, "https://site.test/20", "parse: no ep-item entries", ClassParse)

	entries := tracker.export()
	assert.Equal(t, 3, len(entries))
	assert.Equal(t, 10, entries[0].Identifier)
	assert.Equal(t, 20, entries[1].Identifier)
	assert.Equal(t, 30, entries[2].Identifier)

	assert.Equal(t, ClassNetwork, entries[0].Class)
	assert.Equal(t, fixed, entries[0].Timestamp)
	assert.Equal(t, 3, tracker.len())
}

func TestErrorTrackerTimestampsAreUTC(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	assert.NoError(t, err)

	tracker := newErrorTracker()
	tracker.now = func() time.Time {
		return time.Date(2026, 6, 15, 15, 30, 0, 0, helsinki)
	}

	tracker.report(1, "u", "r", ClassOther)
	entries := tracker.export()
	assert.Equal(t, time.UTC, entries[0].Timestamp.Location())
}
