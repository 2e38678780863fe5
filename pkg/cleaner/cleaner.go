// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/movie-ingress/pkg/dataset"
	"github.com/David-Botos/movie-ingress/pkg/model"
)

// IDColumn is the column the cleaner guarantees before capitalization
const IDColumn = "id"

// DataCleaner turns a raw movies dataset into the canonical CSV layout
type DataCleaner struct {
	logger     *zap.Logger
	dateColumn string
}

// NewDataCleaner creates a new DataCleaner for the given release date column.
// The date column is matched after column names are capitalized.
func NewDataCleaner(logger *zap.Logger, dateColumn string) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if dateColumn == "" {
		return nil, errors.New("date column cannot be empty")
	}

	return &DataCleaner{
		logger:     logger,
		dateColumn: dateColumn,
	}, nil
}

// Clean applies id synthesis, column capitalization and date normalization, in that order.
// The input table is modified in place and returned along with the report.
func (c *DataCleaner) Clean(table *dataset.Table, source string) (*dataset.Table, *model.CleaningReport, error) {
	if table == nil {
		return nil, nil, errors.New("table cannot be nil")
	}

	start := time.Now()
	report := &model.CleaningReport{
		Source:   source,
		RowsRead: table.Len(),
	}

	report.IDsGenerated = ensureIDs(table, report)
	if report.IDsGenerated > 0 {
		c.logger.Info("Assigned sequential ids",
			zap.Int("rows", report.IDsGenerated))
	}

	report.ColumnsRenamed = capitalizeColumns(table, report)
	if dup := duplicateColumn(table.Columns); dup != "" {
		return nil, report, fmt.Errorf("column %q appears twice after capitalization", dup)
	}

	dropped, err := normalizeDates(table, c.dateColumn, report)
	if err != nil {
		return nil, report, err
	}
	report.RowsDropped = dropped
	report.RowsWritten = table.Len()

	c.logger.Info("Dataset cleaned",
		zap.String("source", source),
		zap.Int("rowsRead", report.RowsRead),
		zap.Int("idsGenerated", report.IDsGenerated),
		zap.Int("columnsRenamed", report.ColumnsRenamed),
		zap.Int("rowsDropped", report.RowsDropped),
		zap.Int("rowsWritten", report.RowsWritten),
		zap.Duration("duration", time.Since(start)))

	return table, report, nil
}

// LogReport writes one line per cleaning operation type
func (c *DataCleaner) LogReport(report *model.CleaningReport) {
	for op, count := range report.CountByOperation() {
		c.logger.Info("Cleaning operation summary",
			zap.String("operation", op),
			zap.Int("count", count))
	}

	// Dropped rows are few and worth seeing individually
	for _, op := range report.Operations {
		if op.CleaningOperation != OpRowDropped {
			continue
		}
		c.logger.Debug("Dropped row",
			zap.Int("row", op.RowIndex),
			zap.String("column", op.ColumnName),
			zap.String("value", op.OriginalValue),
			zap.String("reason", op.CleaningReason))
	}
}

func duplicateColumn(columns []string) string {
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if _, ok := seen[col]; ok {
			return col
		}
		seen[col] = struct{}{}
	}
	return ""
}
