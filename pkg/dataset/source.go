// pkg/dataset/source.go
package dataset

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Loader fetches a dataset from a URL or a local path
type Loader struct {
	client *http.Client
	logger *zap.Logger
}

// NewLoader creates a loader. A nil client uses a client with a 5 minute timeout.
func NewLoader(client *http.Client, logger *zap.Logger) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{client: client, logger: logger}
}

// Load reads the CSV behind source. Sources ending in .gz are decompressed.
func (l *Loader) Load(ctx context.Context, source string) (*Table, error) {
	start := time.Now()

	body, err := l.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var r io.Reader = body
	if isGzip(source) {
		gzreader, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream %s: %w", source, err)
		}
		defer gzreader.Close()
		r = gzreader
	}

	table, err := ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", source, err)
	}

	l.logger.Info("Loaded dataset",
		zap.String("source", source),
		zap.Int("columns", len(table.Columns)),
		zap.Int("rows", table.Len()),
		zap.Duration("duration", time.Since(start)))

	return table, nil
}

func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !isRemote(source) {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening dataset %s: %w", source, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", source, err)
	}

	l.logger.Info("Downloading dataset", zap.String("url", source))
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading dataset %s: %w", source, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("downloading dataset %s: unexpected status %s", source, resp.Status)
	}

	return resp.Body, nil
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func isGzip(source string) bool {
	path := source
	if isRemote(source) {
		if u, err := url.Parse(source); err == nil {
			path = u.Path
		}
	}
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}
