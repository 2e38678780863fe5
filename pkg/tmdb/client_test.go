package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/movie-ingress/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&config.TMDBConfig{
		APIKey:     "secret",
		BaseURL:    server.URL + "/3/",
		Language:   "en-US",
		RateLimit:  1000,
		RateWindow: time.Second,
	}, server.Client(), nil)
}

func TestUpcoming(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/3/movie/upcoming", r.URL.Path)
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "en-US", q.Get("language"))
		assert.Equal(t, "2", q.Get("page"))
		w.Write([]byte(`{"page":2,"total_pages":5,"results":[{"id":42,"title":"Dune"}]}`))
	})

	page, err := client.Upcoming(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalPages)
	require.Len(t, page.Results, 1)
	assert.Equal(t, `42`, string(page.Results[0]["id"]))
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key"}`))
	})

	_, err := client.Upcoming(context.Background(), 1)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid API key", apiErr.Message)
}

func TestSearchMoviePrefersYear(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Dune", r.URL.Query().Get("query"))
		w.Write([]byte(`{"results":[
			{"id":1,"title":"Dune","release_date":"1984-12-14"},
			{"id":2,"title":"Dune","release_date":"2021-09-15"}
		]}`))
	})

	movie, err := client.SearchMovie(context.Background(), "Dune", "2021")
	require.NoError(t, err)
	assert.Equal(t, int64(2), movie.ID)

	movie, err = client.SearchMovie(context.Background(), "Dune", "1999")
	require.NoError(t, err)
	assert.Equal(t, int64(1), movie.ID)

	movie, err = client.SearchMovie(context.Background(), "Dune", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), movie.ID)
}

func TestBestTrailer(t *testing.T) {
	tests := []struct {
		name   string
		videos []Video
		want   string
	}{
		{"None", nil, ""},
		{"NotYouTube", []Video{{Key: "v", Site: "Vimeo", Type: "Trailer"}}, ""},
		{"NoTrailerType", []Video{{Key: "f", Site: "YouTube", Type: "Featurette"}}, ""},
		{
			"OfficialFirst",
			[]Video{
				{Key: "t1", Site: "YouTube", Type: "Trailer"},
				{Key: "teaser", Site: "YouTube", Type: "Teaser", Official: true},
			},
			"teaser",
		},
		{
			"TrailerOverTeaser",
			[]Video{
				{Key: "teaser", Site: "YouTube", Type: "Teaser"},
				{Key: "t1", Site: "YouTube", Type: "Trailer"},
			},
			"t1",
		},
		{
			"FirstTeaser",
			[]Video{
				{Key: "a", Site: "YouTube", Type: "Teaser"},
				{Key: "b", Site: "YouTube", Type: "Teaser"},
			},
			"a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best := BestTrailer(tt.videos)
			if tt.want == "" {
				assert.Nil(t, best)
				return
			}
			require.NotNil(t, best)
			assert.Equal(t, tt.want, best.Key)
		})
	}
}

func TestTrailerFor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/3/search/movie":
			if r.URL.Query().Get("query") == "Unknown" {
				w.Write([]byte(`{"results":[]}`))
				return
			}
			w.Write([]byte(`{"results":[{"id":438631,"title":"Dune","release_date":"2021-09-15"}]}`))
		case "/3/movie/438631/videos":
			w.Write([]byte(`{"id":438631,"results":[
				{"key":"n9xhJrPXop4","site":"YouTube","type":"Trailer","official":true}
			]}`))
		default:
			http.NotFound(w, r)
		}
	})

	key, err := client.TrailerFor(context.Background(), "Dune", "2021")
	require.NoError(t, err)
	assert.Equal(t, "n9xhJrPXop4", key)

	key, err = client.TrailerFor(context.Background(), "Unknown", "")
	require.NoError(t, err)
	assert.Equal(t, "", key)
}

func TestClientPacesRequests(t *testing.T) {
	client := NewClient(&config.TMDBConfig{
		APIKey:     "secret",
		BaseURL:    "http://localhost",
		RateLimit:  40,
		RateWindow: 10 * time.Second,
	}, nil, nil)

	start := time.Now()
	allowed := 0
	for i := 0; i < 1000; i++ {
		if client.limiter.AllowN(start.Add(time.Duration(i)*10*time.Millisecond), 1) {
			allowed++
		}
	}
	assert.LessOrEqual(t, allowed, 40)
	assert.GreaterOrEqual(t, allowed, 39)

	// a burst at one instant gets a single request through
	burst := NewClient(&config.TMDBConfig{RateLimit: 40, RateWindow: 10 * time.Second}, nil, nil)
	assert.True(t, burst.limiter.AllowN(start, 1))
	assert.False(t, burst.limiter.AllowN(start, 1))
}
