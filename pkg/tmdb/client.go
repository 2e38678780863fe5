// pkg/tmdb/client.go
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/David-Botos/movie-ingress/pkg/config"
)

// APIError is returned for a non-2xx TMDB response
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tmdb: %s: %s", e.Status, e.Message)
	}
	return "tmdb: " + e.Status
}

// Client is a rate limited TMDB v3 client authenticated with an api_key query parameter
type Client struct {
	apiKey   string
	baseURL  string
	language string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewClient creates a client allowing cfg.RateLimit requests per cfg.RateWindow,
// spaced evenly across the window. A nil httpClient gets one with cfg.HTTPTimeout.
func NewClient(cfg *config.TMDBConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	calls := cfg.RateLimit
	if calls <= 0 {
		calls = 1
	}
	window := cfg.RateWindow
	if window <= 0 {
		window = time.Second
	}

	return &Client{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		language: cfg.Language,
		client:   httpClient,
		limiter:  rate.NewLimiter(rate.Every(window/time.Duration(calls)), 1),
		logger:   logger.Named("tmdb"),
	}
}

// UpcomingPage is one page of /movie/upcoming. Results are kept raw so any field can be projected.
type UpcomingPage struct {
	Page         int                          `json:"page"`
	TotalPages   int                          `json:"total_pages"`
	TotalResults int                          `json:"total_results"`
	Results      []map[string]json.RawMessage `json:"results"`
}

// Movie is a search result
type Movie struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
}

type searchResponse struct {
	Page    int     `json:"page"`
	Results []Movie `json:"results"`
}

// Video is an entry of /movie/{id}/videos
type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type videosResponse struct {
	ID      int64   `json:"id"`
	Results []Video `json:"results"`
}

// Upcoming fetches one page of upcoming releases
func (c *Client) Upcoming(ctx context.Context, page int) (*UpcomingPage, error) {
	params := url.Values{}
	params.Set("language", c.language)
	params.Set("page", strconv.Itoa(page))

	var result UpcomingPage
	if err := c.get(ctx, "/movie/upcoming", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchMovie returns the result whose release date starts with year, else the first result.
// Returns nil when nothing matched the title.
func (c *Client) SearchMovie(ctx context.Context, title, year string) (*Movie, error) {
	params := url.Values{}
	params.Set("query", title)

	var result searchResponse
	if err := c.get(ctx, "/search/movie", params, &result); err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, nil
	}

	if year != "" {
		for i := range result.Results {
			if strings.HasPrefix(result.Results[i].ReleaseDate, year) {
				return &result.Results[i], nil
			}
		}
	}
	return &result.Results[0], nil
}

// MovieVideos lists the videos attached to a movie
func (c *Client) MovieVideos(ctx context.Context, id int64) ([]Video, error) {
	var result videosResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/videos", id), url.Values{}, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// BestTrailer picks a YouTube trailer or teaser: official first, then any "Trailer", then the first.
// Returns nil when there is none.
func BestTrailer(videos []Video) *Video {
	var candidates []Video
	for _, v := range videos {
		if v.Site == "YouTube" && (v.Type == "Trailer" || v.Type == "Teaser") {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	for i := range candidates {
		if candidates[i].Official {
			return &candidates[i]
		}
	}
	for i := range candidates {
		if candidates[i].Type == "Trailer" {
			return &candidates[i]
		}
	}
	return &candidates[0]
}

// TrailerFor searches a movie and returns its best YouTube video key, or "" when none was found
func (c *Client) TrailerFor(ctx context.Context, title, year string) (string, error) {
	movie, err := c.SearchMovie(ctx, title, year)
	if err != nil {
		return "", fmt.Errorf("searching %q: %w", title, err)
	}
	if movie == nil {
		c.logger.Debug("Movie not found", zap.String("title", title), zap.String("year", year))
		return "", nil
	}

	videos, err := c.MovieVideos(ctx, movie.ID)
	if err != nil {
		return "", fmt.Errorf("listing videos of %d: %w", movie.ID, err)
	}

	best := BestTrailer(videos)
	if best == nil {
		return "", nil
	}
	return best.Key, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("api_key", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("TMDB request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
		var body struct {
			StatusMessage string `json:"status_message"`
		}
		if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil && json.Unmarshal(data, &body) == nil {
			apiErr.Message = body.StatusMessage
		}
		return fmt.Errorf("GET %s: %w", path, apiErr)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
