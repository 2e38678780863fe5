package upcoming

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jszwec/csvutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/movie-ingress/pkg/tmdb"
)

func raw(t *testing.T, s string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestProject(t *testing.T) {
	movie := Project(raw(t, `{
		"id": 1184918,
		"title": "The Wild \"Robot\"",
		"release_date": "2024-09-12",
		"vote_average": 8.5,
		"vote_count": 120,
		"original_language": "en",
		"overview": null,
		"adult": false
	}`))

	assert.Equal(t, Movie{
		ID:               "1184918",
		Title:            `The Wild "Robot"`,
		ReleaseDate:      "2024-09-12",
		VoteAverage:      "8.5",
		VoteCount:        "120",
		OriginalLanguage: "en",
		Overview:         "",
	}, movie)

	assert.Equal(t, Movie{ID: "7"}, Project(raw(t, `{"id":7}`)))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Movie{{ID: "1", Title: "Dune, Part Two", Overview: "Spice"}}))

	assert.Equal(t,
		"id,title,release_date,vote_average,vote_count,original_language,overview\n"+
			"1,\"Dune, Part Two\",,,,,Spice\n",
		buf.String())

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "id,title,release_date,vote_average,vote_count,original_language,overview\n", buf.String())
}

type fakeSource struct {
	pages map[int]string
	calls []int
	err   error
}

func (f *fakeSource) Upcoming(_ context.Context, page int) (*tmdb.UpcomingPage, error) {
	f.calls = append(f.calls, page)
	if f.err != nil {
		return nil, f.err
	}
	var result tmdb.UpcomingPage
	if err := json.Unmarshal([]byte(f.pages[page]), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func TestFetcherRun(t *testing.T) {
	source := &fakeSource{pages: map[int]string{
		1: `{"page":1,"total_pages":2,"results":[{"id":1,"title":"A"},{"id":2,"title":"B"}]}`,
		2: `{"page":2,"total_pages":2,"results":[{"id":3,"title":"C"}]}`,
	}}

	path := filepath.Join(t.TempDir(), "out", "upcoming_movies.csv")
	n, err := NewFetcher(source, 5, zap.NewNop()).Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{1, 2}, source.calls)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var movies []Movie
	require.NoError(t, csvutil.Unmarshal(data, &movies))
	require.Len(t, movies, 3)
	assert.Equal(t, "C", movies[2].Title)
}

func TestFetcherRunFailsOnAPIError(t *testing.T) {
	source := &fakeSource{err: errors.New("tmdb: 401 Unauthorized")}
	path := filepath.Join(t.TempDir(), "upcoming_movies.csv")

	_, err := NewFetcher(source, 1, zap.NewNop()).Run(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 1")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
