// pkg/upcoming/upcoming.go
package upcoming

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"
	"go.uber.org/zap"

	"github.com/David-Botos/movie-ingress/pkg/tmdb"
)

// Movie is one row of the upcoming movies CSV. Field order is the column order.
type Movie struct {
	ID               string `csv:"id"`
	Title            string `csv:"title"`
	ReleaseDate      string `csv:"release_date"`
	VoteAverage      string `csv:"vote_average"`
	VoteCount        string `csv:"vote_count"`
	OriginalLanguage string `csv:"original_language"`
	Overview         string `csv:"overview"`
}

// Source is the part of the TMDB client the fetcher uses
type Source interface {
	Upcoming(ctx context.Context, page int) (*tmdb.UpcomingPage, error)
}

// Project keeps the seven exported fields of an API result.
// Missing and null fields become empty strings; numbers keep their JSON text.
func Project(result map[string]json.RawMessage) Movie {
	return Movie{
		ID:               field(result, "id"),
		Title:            field(result, "title"),
		ReleaseDate:      field(result, "release_date"),
		VoteAverage:      field(result, "vote_average"),
		VoteCount:        field(result, "vote_count"),
		OriginalLanguage: field(result, "original_language"),
		Overview:         field(result, "overview"),
	}
}

func field(result map[string]json.RawMessage, name string) string {
	raw, ok := result[name]
	if !ok {
		return ""
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// WriteCSV writes the header and one row per movie
func WriteCSV(w io.Writer, movies []Movie) error {
	csvw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(csvw)

	if err := enc.EncodeHeader(Movie{}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i := range movies {
		if err := enc.Encode(movies[i]); err != nil {
			return fmt.Errorf("writing movie %s: %w", movies[i].ID, err)
		}
	}

	csvw.Flush()
	return csvw.Error()
}

// Fetcher downloads upcoming releases and writes them as CSV
type Fetcher struct {
	source Source
	pages  int
	logger *zap.Logger
}

// NewFetcher creates a fetcher reading pages 1..pages
func NewFetcher(source Source, pages int, logger *zap.Logger) *Fetcher {
	if pages <= 0 {
		pages = 1
	}
	return &Fetcher{source: source, pages: pages, logger: logger}
}

// Fetch collects the projected results of every configured page.
// It stops early once the API reports no further pages.
func (f *Fetcher) Fetch(ctx context.Context) ([]Movie, error) {
	var movies []Movie
	for page := 1; page <= f.pages; page++ {
		result, err := f.source.Upcoming(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("fetching upcoming page %d: %w", page, err)
		}

		for _, r := range result.Results {
			movies = append(movies, Project(r))
		}

		f.logger.Info("Fetched upcoming page",
			zap.Int("page", page),
			zap.Int("results", len(result.Results)),
			zap.Int("totalPages", result.TotalPages))

		if result.TotalPages > 0 && page >= result.TotalPages {
			break
		}
	}
	return movies, nil
}

// Run fetches and writes the CSV to path, creating parent directories
func (f *Fetcher) Run(ctx context.Context, path string) (int, error) {
	start := time.Now()

	movies, err := f.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSV(out, movies); err != nil {
		out.Close()
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("closing %s: %w", path, err)
	}

	f.logger.Info("Upcoming movies written",
		zap.String("path", path),
		zap.Int("movies", len(movies)),
		zap.Duration("duration", time.Since(start)))

	return len(movies), nil
}
