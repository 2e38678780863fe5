package transfer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/David-Botos/movie-ingress/pkg/config"
	"github.com/David-Botos/movie-ingress/pkg/connector"
	"github.com/David-Botos/movie-ingress/pkg/converter"
	"github.com/David-Botos/movie-ingress/pkg/dataset"
	"github.com/David-Botos/movie-ingress/pkg/model"
)

// Importer loads a cleaned CSV into a remote table in sequential batches
type Importer struct {
	store         connector.Store
	typeConverter *converter.TypeConverter
	verifier      *Verifier
	errorHandler  *ErrorHandler
	metrics       *RunMetrics
	logger        *zap.Logger

	table     string
	keyColumn string
	batchSize int
}

// NewImporter creates an importer for the table and key column named in cfg
func NewImporter(store connector.Store, cfg *config.ImportConfig, logger *zap.Logger) *Importer {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}

	return &Importer{
		store:         store,
		typeConverter: converter.NewTypeConverter(logger),
		verifier:      NewVerifier(store, logger),
		errorHandler:  NewErrorHandler(logger),
		metrics:       NewRunMetrics(logger),
		logger:        logger,
		table:         cfg.Table,
		keyColumn:     cfg.KeyColumn,
		batchSize:     batchSize,
	}
}

// Errors returns the handler holding the failures recorded by the importer
func (im *Importer) Errors() *ErrorHandler {
	return im.errorHandler
}

// Metrics returns the run counters
func (im *Importer) Metrics() *RunMetrics {
	return im.metrics
}

// Run reads csvPath and upserts its rows. A missing or unparseable file
// is returned as an error before the store is touched. Failed batches do not
// stop the run; they are reported through the returned summary.
func (im *Importer) Run(ctx context.Context, csvPath string) (*ImportSummary, error) {
	if _, err := os.Stat(csvPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrInputNotFound, csvPath)
			im.errorHandler.RecordError(NewErrorRecord(err, ErrorCategoryMissingInput).WithTable(im.table))
			return nil, err
		}
		return nil, WrapError(err, "failed to stat input file")
	}

	records, err := im.readRecords(csvPath)
	if err != nil {
		return nil, err
	}

	im.logger.Info("Loaded input file",
		zap.String("path", csvPath),
		zap.Int("rows", len(records)))

	summary := im.ImportRecords(ctx, records)
	summary.CSVPath = csvPath
	return summary, nil
}

// readRecords parses the CSV and types every cell
func (im *Importer) readRecords(csvPath string) ([]model.Record, error) {
	table, err := dataset.ReadFile(csvPath)
	if err != nil {
		return nil, WrapError(err, "failed to read input file")
	}

	metadata := im.typeConverter.InferMetadata(im.table, table.Columns, table.Rows)

	records := make([]model.Record, 0, len(table.Rows))
	for i, row := range table.Rows {
		rec, err := im.typeConverter.ConvertRow(metadata, row)
		if err != nil {
			// header counts as line 1
			return nil, fmt.Errorf("failed to parse %s line %d: %w", csvPath, i+2, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// ImportRecords upserts records batch by batch, then counts what the table holds
func (im *Importer) ImportRecords(ctx context.Context, records []model.Record) *ImportSummary {
	summary := NewImportSummary(im.table, im.keyColumn, "", im.batchSize)
	summary.TotalRows = len(records)
	im.metrics.RecordRowsRead(len(records))

	jobs := BuildBatchJobs(im.table, records, im.batchSize)
	summary.TotalBatches = len(jobs)

	im.logger.Info("Starting import",
		zap.String("runID", summary.RunID),
		zap.String("table", im.table),
		zap.String("keyColumn", im.keyColumn),
		zap.Int("rows", len(records)),
		zap.Int("batchSize", im.batchSize),
		zap.Int("batches", len(jobs)))

	for _, job := range jobs {
		result := im.processBatch(ctx, job)
		summary.AddBatch(result)
		im.metrics.RecordBatch(result)
	}

	im.verify(ctx, summary)

	summary.Complete()
	im.metrics.Complete()

	if summary.Partial() {
		im.logger.Warn("Import finished with failed batches",
			zap.String("table", im.table),
			zap.Strings("failedBatches", summary.FailedLabels()),
			zap.Int("rowsImported", summary.RowsImported()),
			zap.Int("totalRows", summary.TotalRows),
			zap.Duration("duration", summary.Duration))
	} else {
		im.logger.Info("Import completed",
			zap.String("table", im.table),
			zap.Int("rowsImported", summary.RowsImported()),
			zap.Int("batches", summary.TotalBatches),
			zap.Duration("duration", summary.Duration))
	}

	return summary
}

// processBatch sends one batch and records a failure without stopping the run
func (im *Importer) processBatch(ctx context.Context, job BatchJob) BatchResult {
	result := NewBatchResult(job)

	im.logger.Info("Importing batch",
		zap.String("batch", job.Label()),
		zap.Int("size", len(job.Records)))

	err := im.store.Upsert(ctx, im.table, job.Records, im.keyColumn)
	result.Complete(err)

	if err != nil {
		im.errorHandler.RecordError(NewErrorRecord(err, ErrorCategoryBatch).
			WithTable(im.table).
			WithBatch(job))
		return result
	}

	im.logger.Debug("Imported batch",
		zap.String("batch", job.Label()),
		zap.Int("size", result.Size),
		zap.Duration("duration", result.Duration))

	return result
}

// verify counts the keyed rows in the table. A failed count is a warning only.
func (im *Importer) verify(ctx context.Context, summary *ImportSummary) {
	report, err := im.verifier.VerifyRowCount(ctx, im.table, im.keyColumn, int64(summary.RowsImported()))
	if err != nil {
		summary.VerifyErr = err
		im.errorHandler.RecordError(NewErrorRecord(err, ErrorCategoryVerification).WithTable(im.table))
		return
	}

	summary.Verified = true
	summary.StoredRows = report.StoredRows
}
