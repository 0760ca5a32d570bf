package export

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"aniscan/internal/pipeline"
	"aniscan/internal/testutil"
)

func TestRecordWriterCreatesNewFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("out", "records.json")

	w, err := NewRecordWriter[pipeline.Record](path)
	require.NoError(t, err)
	require.Equal(t, 0, w.Count())

	require.NoError(t, w.Append([]pipeline.Record{
		{SerialNo: 1, Name: "show-1", Title: "Show One", Episodes: "1-12"},
		{SerialNo: 2, Name: "show-2", Title: "Show Two", Episodes: "1"},
	}))
	require.Equal(t, 2, w.Count())

	var records []pipeline.Record
	require.NoError(t, json.Unmarshal(env.ReadFile("out/records.json"), &records))
	require.Len(t, records, 2)
	require.Equal(t, "Show One", records[0].Title)
}

func TestRecordWriterResumesExistingArray(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("records.json")

	first, err := NewRecordWriter[pipeline.Record](path)
	require.NoError(t, err)
	require.NoError(t, first.Append([]pipeline.Record{
		{SerialNo: 1, Name: "show-1", Title: "Show One", Episodes: "1"},
	}))

	resumed, err := NewRecordWriter[pipeline.Record](path)
	require.NoError(t, err)
	require.Equal(t, 1, resumed.Count())

	require.NoError(t, resumed.Append([]pipeline.Record{
		{SerialNo: 2, Name: "show-2", Title: "Show Two", Episodes: "1"},
	}))

	var records []pipeline.Record
	require.NoError(t, json.Unmarshal(env.ReadFile("records.json"), &records))
	require.Len(t, records, 2)
	require.Equal(t, 1, records[0].SerialNo)
	require.Equal(t, 2, records[1].SerialNo)
}

func TestRecordWriterRejectsNonArrayFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("records.json", `{"not": "an array"}`)

	_, err := NewRecordWriter[pipeline.Record](env.Path("records.json"))
	require.Error(t, err)
}

func TestRecordWriterTreatsEmptyFileAsFresh(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("records.json", "")

	w, err := NewRecordWriter[pipeline.Record](env.Path("records.json"))
	require.NoError(t, err)
	require.Equal(t, 0, w.Count())
}

func TestRecordWriterNullFieldsSerializeAsNull(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("records.json")

	w, err := NewRecordWriter[pipeline.Record](path)
	require.NoError(t, err)
	require.NoError(t, w.Append([]pipeline.Record{
		{Identifier: 12345, SerialNo: 1, Name: "show-1", Title: "Show One", Episodes: "1"},
	}))

	content := env.ReadFileString("records.json")
	require.Contains(t, content, `"tmdb_id": null`)
	require.Contains(t, content, `"imdb_id": null`)
	require.Contains(t, content, `"year": null`)
	require.NotContains(t, content, "Identifier", "the source identifier is internal bookkeeping, not output")
	require.NotContains(t, content, "12345")
}
