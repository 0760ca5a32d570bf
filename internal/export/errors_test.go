package export

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aniscan/internal/pipeline"
	"aniscan/internal/testutil"
)

func TestErrorWriterWritesURLListAndLog(t *testing.T) {
	env := testutil.NewTestEnv(t)

	w, err := NewErrorWriter(env.Path("errors.txt"), env.Path("errors.log"))
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	require.NoError(t, w.Append([]pipeline.ErrorEntry{
		{
			Identifier: 20000,
			URL:        "https://site.test/ajax/episode/list/20000",
			Reason:     "HTTP 404",
			Class:      pipeline.ClassHTTPStatus,
			Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			Identifier: 99999,
			URL:        "https://site.test/ajax/episode/list/99999",
			Reason:     "fetch timed out",
			Class:      pipeline.ClassNetwork,
			Timestamp:  time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC),
		},
	}))

	urls := env.ReadFileString("errors.txt")
	require.Equal(t, "https://site.test/ajax/episode/list/20000\nhttps://site.test/ajax/episode/list/99999\n", urls)

	log := env.ReadFileString("errors.log")
	require.Contains(t, log, "identifier=20000")
	require.Contains(t, log, "classification=http_status")
	require.Contains(t, log, "classification=network")
	require.Contains(t, log, `reason="fetch timed out"`)
}

func TestErrorWriterResumesExistingURLList(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("errors.txt", "https://site.test/ajax/episode/list/111\n\n")

	w, err := NewErrorWriter(env.Path("errors.txt"), env.Path("errors.log"))
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	require.NoError(t, w.Append([]pipeline.ErrorEntry{
		{
			Identifier: 222,
			URL:        "https://site.test/ajax/episode/list/222",
			Class:      pipeline.ClassNetwork,
			Reason:     "fetch timed out",
			Timestamp:  time.Now(),
		},
	}))

	urls := env.ReadFileString("errors.txt")
	require.Equal(t,
		"https://site.test/ajax/episode/list/111\nhttps://site.test/ajax/episode/list/222\n",
		urls)
}

func TestErrorWriterAppendsToLogAcrossRuns(t *testing.T) {
	env := testutil.NewTestEnv(t)

	for i := 0; i < 2; i++ {
		w, err := NewErrorWriter(env.Path("errors.txt"), env.Path("errors.log"))
		require.NoError(t, err)
		require.NoError(t, w.Append([]pipeline.ErrorEntry{
			{
				Identifier: 100 + i,
				URL:        "https://site.test/ajax/episode/list/1",
				Class:      pipeline.ClassOther,
				Reason:     "run cancelled",
				Timestamp:  time.Now(),
			},
		}))
		require.NoError(t, w.Close())
	}

	log := env.ReadFileString("errors.log")
	require.Contains(t, log, "identifier=100")
	require.Contains(t, log, "identifier=101")
}

func TestErrorWriterEmptyBatchIsNoop(t *testing.T) {
	env := testutil.NewTestEnv(t)

	w, err := NewErrorWriter(env.Path("errors.txt"), env.Path("errors.log"))
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	require.NoError(t, w.Append(nil))
	require.False(t, env.FileExists("errors.txt"), "no URL file until there is a failure")
}

func TestErrorWriterDeduplicatesRepeatedFailures(t *testing.T) {
	env := testutil.NewTestEnv(t)

	entry := pipeline.ErrorEntry{
		Identifier: 555,
		URL:        "https://site.test/ajax/episode/list/555",
		Class:      pipeline.ClassNetwork,
		Reason:     "fetch timed out",
		Timestamp:  time.Now(),
	}

	for i := 0; i < 2; i++ {
		w, err := NewErrorWriter(env.Path("errors.txt"), env.Path("errors.log"))
		require.NoError(t, err)
		require.NoError(t, w.Append([]pipeline.ErrorEntry{entry}))
		require.NoError(t, w.Close())
	}

	require.Equal(t, "https://site.test/ajax/episode/list/555\n", env.ReadFileString("errors.txt"),
		"a URL that keeps failing is listed once, not once per run")
}

func TestErrorWriterResolveRemovesSucceededURLs(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("errors.txt",
		"https://site.test/ajax/episode/list/5\nhttps://site.test/ajax/episode/list/7\n")

	w, err := NewErrorWriter(env.Path("errors.txt"), env.Path("errors.log"))
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	require.NoError(t, w.Resolve([]string{"https://site.test/ajax/episode/list/5"}))
	require.Equal(t, "https://site.test/ajax/episode/list/7\n", env.ReadFileString("errors.txt"))

	// Resolving a URL that is not listed leaves the file alone.
	require.NoError(t, w.Resolve([]string{"https://site.test/ajax/episode/list/9"}))
	require.Equal(t, "https://site.test/ajax/episode/list/7\n", env.ReadFileString("errors.txt"))

	require.NoError(t, w.Resolve([]string{"https://site.test/ajax/episode/list/7"}))
	require.Equal(t, "", env.ReadFileString("errors.txt"))
}

// Drives two retry cycles over the same artifact files the way the
// retry command does: each cycle appends the round's records, appends
// the round's failures, then resolves the URLs that now have records.
func TestRetryCycleKeepsArtifactsDuplicateFree(t *testing.T) {
	env := testutil.NewTestEnv(t)
	urlFor := func(id int) string {
		return fmt.Sprintf("https://site.test/ajax/episode/list/%d", id)
	}
	entryFor := func(id int) pipeline.ErrorEntry {
		return pipeline.ErrorEntry{
			Identifier: id,
			URL:        urlFor(id),
			Class:      pipeline.ClassNetwork,
			Reason:     "fetch timed out",
			Timestamp:  time.Now(),
		}
	}
	runCycle := func(succeeded []pipeline.Record, failed []pipeline.ErrorEntry) {
		records, err := NewRecordWriter[pipeline.Record](env.Path("records.json"))
		require.NoError(t, err)
		w, err := NewErrorWriter(env.Path("errors.txt"), env.Path("errors.log"))
		require.NoError(t, err)
		defer func() { require.NoError(t, w.Close()) }()

		serial := records.Count()
		for i := range succeeded {
			serial++
			succeeded[i].SerialNo = serial
		}
		require.NoError(t, records.Append(succeeded))
		require.NoError(t, w.Append(failed))
		resolved := make([]string, 0, len(succeeded))
		for _, rec := range succeeded {
			resolved = append(resolved, urlFor(rec.Identifier))
		}
		require.NoError(t, w.Resolve(resolved))
	}

	// Initial sweep: identifiers 5 and 7 fail.
	runCycle(nil, []pipeline.ErrorEntry{entryFor(5), entryFor(7)})
	require.Equal(t, urlFor(5)+"\n"+urlFor(7)+"\n", env.ReadFileString("errors.txt"))

	// First retry: 5 succeeds, 7 still fails.
	runCycle(
		[]pipeline.Record{{Identifier: 5, Name: "show-five", Title: "Show Five", Episodes: "1-12"}},
		[]pipeline.ErrorEntry{entryFor(7)},
	)
	require.Equal(t, urlFor(7)+"\n", env.ReadFileString("errors.txt"),
		"a resolved URL leaves the retry list and a still-failing one stays listed once")

	// Second retry: 7 succeeds too.
	runCycle(
		[]pipeline.Record{{Identifier: 7, Name: "show-seven", Title: "Show Seven", Episodes: "1-24"}},
		nil,
	)
	require.Equal(t, "", env.ReadFileString("errors.txt"), "retry list drains once everything resolves")

	var out []pipeline.Record
	require.NoError(t, json.Unmarshal(env.ReadFile("records.json"), &out))
	require.Len(t, out, 2, "each identifier is recorded exactly once across retries")
	require.Equal(t, 1, out[0].SerialNo)
	require.Equal(t, 2, out[1].SerialNo)
	require.Equal(t, "show-five", out[0].Name)
	require.Equal(t, "show-seven", out[1].Name)
}
