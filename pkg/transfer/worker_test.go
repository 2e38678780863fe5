package transfer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/movie-ingress/pkg/connector"
	"github.com/David-Botos/movie-ingress/pkg/model"
)

type lookup struct {
	title string
	year  string
}

type fakeFinder struct {
	mu    sync.Mutex
	keys  map[string]string
	errs  map[string]error
	calls []lookup
}

func (f *fakeFinder) TrailerFor(_ context.Context, title, year string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, lookup{title: title, year: year})
	if err := f.errs[title]; err != nil {
		return "", err
	}
	return f.keys[title], nil
}

func (f *fakeFinder) titles() []string {
	titles := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		titles = append(titles, c.title)
	}
	return titles
}

func seedMovies(store *memoryStore) {
	store.tables["movies"] = []model.Record{
		{"id": float64(1), "title": "Alpha", "release_date": "2021-12-15", "genre": "Action", "poster_url": "https://img/1.jpg"},
		{"id": float64(2), "title": "Bravo", "release_date": "2019-01-01"},
		{"id": float64(3), "Title": "Charlie", "Release_date": "2020-06-30 00:00:00", "youtube_id": ""},
		{"id": float64(4), "title": "Delta", "youtube_id": nil},
		{"id": float64(5), "name": "Echo", "category": "Family"},
		{"id": float64(6), "title": "Foxtrot", "youtube_id": "already"},
	}
}

func TestTrailerWorker_BackfillTable(t *testing.T) {
	store := newMemoryStore()
	seedMovies(store)

	finder := &fakeFinder{
		keys: map[string]string{"Alpha": "yt-a", "Charlie": "yt-c", "Echo": "yt-e"},
		errs: map[string]error{"Bravo": errors.New("(429) rate limited")},
	}

	w := NewTrailerWorker(store, finder, zap.NewNop()).WithPageSize(2)
	result := w.BackfillTable(context.Background(), "movies")

	require.NoError(t, result.Err)
	assert.Equal(t, 5, result.Processed)
	assert.Equal(t, 3, result.Updated)
	assert.Equal(t, 2, result.Skipped)

	// every row without a trailer is looked up exactly once
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo"}, finder.titles())
	assert.Equal(t, lookup{title: "Alpha", year: "2021"}, finder.calls[0])
	assert.Equal(t, lookup{title: "Charlie", year: "2020"}, finder.calls[2])
	assert.Equal(t, lookup{title: "Delta", year: ""}, finder.calls[3])

	movies := store.tables["movies"]
	assert.Equal(t, "yt-a", movies[0][connector.TrailerColumn])
	assert.Nil(t, movies[1][connector.TrailerColumn])
	assert.Equal(t, "yt-c", movies[2][connector.TrailerColumn])
	assert.Equal(t, "yt-e", movies[4][connector.TrailerColumn])
	assert.Equal(t, "already", movies[5][connector.TrailerColumn])

	trailers := store.tables["trailers"]
	require.Len(t, trailers, 3)
	assert.Equal(t, model.Trailer{
		ID: "1", Title: "Alpha", YoutubeID: "yt-a", Category: "Action", PosterURL: "https://img/1.jpg",
	}.Record(), trailers[0])
	assert.Equal(t, "Unknown", trailers[1]["category"])
	assert.Equal(t, "Echo", trailers[2]["title"])
	assert.Equal(t, "Family", trailers[2]["category"])

	for _, c := range store.upserts {
		assert.Equal(t, "trailers", c.table)
		assert.Equal(t, "id", c.keyColumn)
		assert.Equal(t, 1, c.size)
	}

	summary := w.Errors().GetErrorSummary()
	assert.Equal(t, 1, summary[ErrorCategoryLookup])
	assert.Equal(t, 4, w.Metrics().RowsLookedUp)
	assert.Equal(t, 3, w.Metrics().TrailersFound)
}

func TestTrailerWorker_TrailerUpsertFailureIsWarning(t *testing.T) {
	store := newMemoryStore()
	store.tables["movies"] = []model.Record{{"id": "m1", "title": "Alpha"}}
	store.failTables["trailers"] = errors.New("(403) permission denied")

	finder := &fakeFinder{keys: map[string]string{"Alpha": "yt-a"}}
	w := NewTrailerWorker(store, finder, zap.NewNop())

	result := w.BackfillTable(context.Background(), "movies")
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, "yt-a", store.tables["movies"][0][connector.TrailerColumn])
	assert.Empty(t, store.tables["trailers"])
	assert.Zero(t, w.Errors().TotalErrors())
}

func TestTrailerWorker_Run(t *testing.T) {
	store := newMemoryStore()
	seedMovies(store)
	store.tables["new_releases"] = []model.Record{{"id": float64(10), "title": "Alpha"}}
	store.missingErr["upcoming_movies"] = errors.New(`relation "upcoming_movies" does not exist`)

	finder := &fakeFinder{keys: map[string]string{"Alpha": "yt-a"}}
	w := NewTrailerWorker(store, finder, zap.NewNop())

	summary, err := w.Run(context.Background(), []string{"movies", "upcoming_movies", "new_releases"})
	require.NoError(t, err)
	require.Len(t, summary.Tables, 3)

	assert.Equal(t, 1, summary.Tables[0].Updated)
	assert.Error(t, summary.Tables[1].Err)
	assert.Equal(t, 1, summary.Tables[2].Updated)
	assert.Equal(t, 2, summary.TotalUpdated())
	assert.Equal(t, []string{"upcoming_movies"}, summary.FailedTables())
	assert.Equal(t, WorkerStateError, w.GetState())
}

func TestTrailerWorker_RunCancelled(t *testing.T) {
	store := newMemoryStore()
	seedMovies(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewTrailerWorker(store, &fakeFinder{}, zap.NewNop())
	_, err := w.Run(ctx, []string{"movies"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrailerFromRow(t *testing.T) {
	tr := trailerFromRow(model.Record{"id": 7}, "7", "yt")
	assert.Equal(t, "Unknown Movie", tr.Title)
	assert.Equal(t, "Unknown", tr.Category)
	assert.Equal(t, "", tr.PosterURL)

	tr = trailerFromRow(model.Record{"Title": "Dune", "Genre": "Sci-Fi", "Poster_url": "p"}, "1", "yt")
	assert.Equal(t, "Dune", tr.Title)
	assert.Equal(t, "Sci-Fi", tr.Category)
	assert.Equal(t, "p", tr.PosterURL)
}

func TestReleaseYear(t *testing.T) {
	assert.Equal(t, "2021", releaseYear("2021-12-15"))
	assert.Equal(t, "1999", releaseYear("1999-03-31 12:00:00"))
	assert.Equal(t, "", releaseYear("someday"))
	assert.Equal(t, "", releaseYear(""))
}
