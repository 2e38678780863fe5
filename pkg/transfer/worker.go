package transfer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/movie-ingress/pkg/connector"
	"github.com/David-Botos/movie-ingress/pkg/converter"
	"github.com/David-Botos/movie-ingress/pkg/model"
)

// TrailerFinder resolves a movie title to a YouTube trailer key.
// An empty key with a nil error means no trailer exists.
type TrailerFinder interface {
	TrailerFor(ctx context.Context, title, year string) (string, error)
}

// WorkerState represents the current state of a worker
type WorkerState string

const (
	WorkerStateIdle      WorkerState = "idle"
	WorkerStateWorking   WorkerState = "working"
	WorkerStateCompleted WorkerState = "completed"
	WorkerStateError     WorkerState = "error"
)

const (
	unknownTitle    = "Unknown Movie"
	unknownCategory = "Unknown"
)

// TrailerWorker fills the youtube_id column of rows that have none
type TrailerWorker struct {
	store        connector.TrailerStore
	finder       TrailerFinder
	errorHandler *ErrorHandler
	metrics      *RunMetrics
	logger       *zap.Logger

	keyColumn     string
	trailersTable string
	pageSize      int

	state     WorkerState
	stateLock sync.RWMutex
}

// NewTrailerWorker creates a backfill worker
func NewTrailerWorker(
	store connector.TrailerStore,
	finder TrailerFinder,
	logger *zap.Logger,
) *TrailerWorker {
	return &TrailerWorker{
		store:         store,
		finder:        finder,
		errorHandler:  NewErrorHandler(logger),
		metrics:       NewRunMetrics(logger),
		logger:        logger,
		keyColumn:     "id",
		trailersTable: "trailers",
		pageSize:      200,
		state:         WorkerStateIdle,
	}
}

// WithKeyColumn sets the key column used to address rows
func (w *TrailerWorker) WithKeyColumn(column string) *TrailerWorker {
	w.keyColumn = column
	return w
}

// WithTrailersTable sets the table that receives one row per trailer found
func (w *TrailerWorker) WithTrailersTable(table string) *TrailerWorker {
	w.trailersTable = table
	return w
}

// WithPageSize sets how many rows are requested per page
func (w *TrailerWorker) WithPageSize(size int) *TrailerWorker {
	if size > 0 {
		w.pageSize = size
	}
	return w
}

// Errors returns the handler holding per-row failures
func (w *TrailerWorker) Errors() *ErrorHandler {
	return w.errorHandler
}

// Metrics returns the run counters
func (w *TrailerWorker) Metrics() *RunMetrics {
	return w.metrics
}

// GetState returns the current state of the worker
func (w *TrailerWorker) GetState() WorkerState {
	w.stateLock.RLock()
	defer w.stateLock.RUnlock()
	return w.state
}

// setState updates the worker state
func (w *TrailerWorker) setState(state WorkerState) {
	w.stateLock.Lock()
	defer w.stateLock.Unlock()

	prevState := w.state
	w.state = state

	if prevState != state {
		w.logger.Debug("Worker state changed",
			zap.String("from", string(prevState)),
			zap.String("to", string(state)))
	}
}

// Run backfills every table in order. A table that cannot be queried is
// recorded in the summary and the next table is processed.
func (w *TrailerWorker) Run(ctx context.Context, tables []string) (*BackfillSummary, error) {
	w.setState(WorkerStateWorking)
	summary := NewBackfillSummary()

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			w.setState(WorkerStateError)
			summary.Complete()
			return summary, err
		}

		result := w.BackfillTable(ctx, table)
		summary.Tables = append(summary.Tables, result)
	}

	summary.Complete()
	w.metrics.Complete()

	if len(summary.FailedTables()) > 0 {
		w.setState(WorkerStateError)
	} else {
		w.setState(WorkerStateCompleted)
	}

	w.logger.Info("Trailer backfill completed",
		zap.String("runID", summary.RunID),
		zap.Int("tables", len(summary.Tables)),
		zap.Int("updated", summary.TotalUpdated()),
		zap.Strings("failedTables", summary.FailedTables()),
		zap.Duration("duration", summary.Duration))

	return summary, nil
}

// BackfillTable processes all rows of table that lack a trailer
func (w *TrailerWorker) BackfillTable(ctx context.Context, table string) TableBackfill {
	start := time.Now()
	result := TableBackfill{Table: table}

	w.logger.Info("Backfilling trailers",
		zap.String("table", table),
		zap.Int("pageSize", w.pageSize))

	offset := 0
	for {
		rows, err := w.store.MissingTrailers(ctx, table, w.keyColumn, offset, w.pageSize)
		if err != nil {
			result.Err = fmt.Errorf("failed to query %s: %w", table, err)
			w.logger.Error("Failed to query rows without trailers",
				zap.String("table", table),
				zap.Int("offset", offset),
				zap.Error(err))
			break
		}
		if len(rows) == 0 {
			break
		}

		updated := 0
		for _, row := range rows {
			if ctx.Err() != nil {
				result.Err = ctx.Err()
				result.Duration = time.Since(start)
				return result
			}

			result.Processed++
			if w.processRow(ctx, table, row) {
				updated++
			} else {
				result.Skipped++
			}
		}
		result.Updated += updated

		// updated rows no longer match the filter
		offset += len(rows) - updated

		if len(rows) < w.pageSize {
			break
		}
	}

	result.Duration = time.Since(start)

	w.logger.Info("Table backfill finished",
		zap.String("table", table),
		zap.Int("processed", result.Processed),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Duration("duration", result.Duration))

	return result
}

// processRow looks up one row's trailer and stores it. It reports whether
// the row's youtube_id was set.
func (w *TrailerWorker) processRow(ctx context.Context, table string, row model.Record) bool {
	keyName, ok := row.ColumnName(w.keyColumn)
	if !ok {
		w.errorHandler.RecordError(NewErrorRecord(
			fmt.Errorf("row has no %s column", w.keyColumn), ErrorCategoryLookup).
			WithTable(table))
		return false
	}
	id := row[keyName]
	rowID := model.FormatValue(id)

	title := row.Text("title", "name", w.keyColumn)
	year := releaseYear(row.Text("release_date"))

	key, err := w.finder.TrailerFor(ctx, title, year)
	if err != nil {
		w.metrics.RecordError(ErrorCategoryLookup)
		w.errorHandler.RecordError(NewErrorRecord(err, ErrorCategoryLookup).
			WithTable(table).
			WithRow(rowID))
		return false
	}

	w.metrics.RecordLookup(key != "")
	if key == "" {
		w.logger.Debug("No trailer found",
			zap.String("table", table),
			zap.String("title", title))
		return false
	}

	if err := w.store.SetTrailer(ctx, table, keyName, id, key); err != nil {
		w.metrics.RecordError(ErrorCategoryLookup)
		w.errorHandler.RecordError(NewErrorRecord(err, ErrorCategoryLookup).
			WithTable(table).
			WithRow(rowID))
		return false
	}

	w.logger.Info("Trailer set",
		zap.String("table", table),
		zap.String("id", rowID),
		zap.String("title", title),
		zap.String("youtubeID", key))

	trailer := trailerFromRow(row, rowID, key)
	if err := w.store.Upsert(ctx, w.trailersTable, []model.Record{trailer.Record()}, "id"); err != nil {
		w.logger.Warn("Failed to upsert trailer row",
			zap.String("table", w.trailersTable),
			zap.String("id", rowID),
			zap.Error(err))
	}

	return true
}

// trailerFromRow builds the trailers table entry for a movie row
func trailerFromRow(row model.Record, id, youtubeID string) model.Trailer {
	title := row.Text("title", "name")
	if title == "" {
		title = unknownTitle
	}

	category := row.Text("genre", "category")
	if category == "" {
		category = unknownCategory
	}

	return model.Trailer{
		ID:        id,
		Title:     title,
		YoutubeID: youtubeID,
		Category:  category,
		PosterURL: row.Text("poster_url"),
	}
}

// releaseYear returns the four-digit year of a release date, or "" when the
// date cannot be parsed
func releaseYear(value string) string {
	if value == "" {
		return ""
	}
	t, _, err := converter.ParseDate(value)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%04d", t.Year())
}
