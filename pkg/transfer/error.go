package transfer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInputNotFound is returned when the import CSV does not exist
var ErrInputNotFound = errors.New("input file not found")

// ErrorCategory defines categories of errors during an import or backfill
type ErrorCategory int

const (
	ErrorCategoryConfiguration ErrorCategory = iota + 1
	ErrorCategoryMissingInput
	ErrorCategoryBatch
	ErrorCategoryVerification
	ErrorCategoryLookup
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryConfiguration:
		return "Configuration"
	case ErrorCategoryMissingInput:
		return "MissingInput"
	case ErrorCategoryBatch:
		return "Batch"
	case ErrorCategoryVerification:
		return "Verification"
	case ErrorCategoryLookup:
		return "Lookup"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrorRecord represents a single recorded failure
type ErrorRecord struct {
	Category  ErrorCategory
	TableName string
	Batch     string
	BatchNum  int
	BatchSize int
	RowID     string
	Error     error
	Message   string // Derived from Error but stored for serialization
	Timestamp time.Time
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:  category,
		Error:     err,
		Timestamp: time.Now(),
	}

	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// WithTable adds table information to the error record
func (r ErrorRecord) WithTable(table string) ErrorRecord {
	r.TableName = table
	return r
}

// WithBatch adds the "n/total" label and size of the failed batch
func (r ErrorRecord) WithBatch(job BatchJob) ErrorRecord {
	r.Batch = job.Label()
	r.BatchNum = job.Index
	r.BatchSize = len(job.Records)
	return r
}

// WithRow adds row information to the error record
func (r ErrorRecord) WithRow(rowID string) ErrorRecord {
	r.RowID = rowID
	return r
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))

	if r.TableName != "" {
		sb.WriteString(fmt.Sprintf("Table: %s ", r.TableName))
	}

	if r.Batch != "" {
		sb.WriteString(fmt.Sprintf("Batch: %s (%d rows) ", r.Batch, r.BatchSize))
	}

	if r.RowID != "" {
		sb.WriteString(fmt.Sprintf("Row: %s ", r.RowID))
	}

	if r.Error != nil {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Error.Error()))
	} else if r.Message != "" {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Message))
	}

	return strings.TrimSpace(sb.String())
}

// ErrorHandler records and logs failures that do not stop a run
type ErrorHandler struct {
	logger       *zap.Logger
	errorCounts  map[ErrorCategory]int
	sampleErrors map[ErrorCategory][]ErrorRecord
	tableErrors  map[string]int
	mu           sync.Mutex
	maxSamples   int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger,
		errorCounts:  make(map[ErrorCategory]int),
		sampleErrors: make(map[ErrorCategory][]ErrorRecord),
		tableErrors:  make(map[string]int),
		maxSamples:   5, // Store up to 5 sample errors per category
	}
}

// RecordError saves an error occurrence
func (eh *ErrorHandler) RecordError(record ErrorRecord) {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.errorCounts[record.Category]++

	samples := eh.sampleErrors[record.Category]
	if len(samples) < eh.maxSamples {
		eh.sampleErrors[record.Category] = append(samples, record)
	}

	if record.TableName != "" {
		eh.tableErrors[record.TableName]++
	}

	if eh.logger == nil {
		return
	}

	var logLevel zapcore.Level
	switch record.Category {
	case ErrorCategoryVerification, ErrorCategoryLookup:
		logLevel = zap.WarnLevel
	default:
		logLevel = zap.ErrorLevel
	}

	fields := []zap.Field{
		zap.String("category", record.Category.String()),
		zap.String("table", record.TableName),
		zap.String("error", record.Message),
	}
	if record.Batch != "" {
		fields = append(fields,
			zap.String("batch", record.Batch),
			zap.Int("index", record.BatchNum),
			zap.Int("size", record.BatchSize))
	}
	if record.RowID != "" {
		fields = append(fields, zap.String("row", record.RowID))
	}

	eh.logger.Log(logLevel, "Recorded error", fields...)
}

// TotalErrors returns the number of recorded errors across categories
func (eh *ErrorHandler) TotalErrors() int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	total := 0
	for _, count := range eh.errorCounts {
		total += count
	}
	return total
}

// GetErrorSummary returns the number of errors per category
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	summary := make(map[ErrorCategory]int)
	for category, count := range eh.errorCounts {
		summary[category] = count
	}

	return summary
}

// GetErrorSamples returns sample errors for each category
func (eh *ErrorHandler) GetErrorSamples() map[ErrorCategory][]ErrorRecord {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	samples := make(map[ErrorCategory][]ErrorRecord)
	for category, records := range eh.sampleErrors {
		categorySamples := make([]ErrorRecord, len(records))
		copy(categorySamples, records)
		samples[category] = categorySamples
	}

	return samples
}

// GetTableErrorCounts returns error counts by table
func (eh *ErrorHandler) GetTableErrorCounts() map[string]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	tableCounts := make(map[string]int)
	for table, count := range eh.tableErrors {
		tableCounts[table] = count
	}

	return tableCounts
}

// LogSummary writes the error totals of a run at info level and each kept sample at debug level
func (eh *ErrorHandler) LogSummary(logger *zap.Logger) {
	total := eh.TotalErrors()
	if total == 0 {
		logger.Info("No errors recorded")
		return
	}

	logger.Info("Error summary",
		zap.Int("total", total),
		zap.Object("byCategory", categoryCounts(eh.GetErrorSummary())),
		zap.Any("byTable", eh.GetTableErrorCounts()))

	for category, records := range eh.GetErrorSamples() {
		for _, record := range records {
			logger.Debug("Error sample",
				zap.Stringer("category", category),
				zap.String("record", record.String()))
		}
	}
}

// categoryCounts logs per-category totals keyed by category name
type categoryCounts map[ErrorCategory]int

func (c categoryCounts) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	for category, count := range c {
		enc.AddInt(category.String(), count)
	}
	return nil
}

// WrapError creates a new error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
