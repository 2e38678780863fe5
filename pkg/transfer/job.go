package transfer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/David-Botos/movie-ingress/pkg/model"
)

// BatchJob is one contiguous slice of records sent in a single upsert
type BatchJob struct {
	ID        string // Unique job identifier
	Table     string
	Index     int // 1-based position within the run
	Total     int // Number of batches in the run
	Records   []model.Record
	CreatedAt time.Time
}

// NewBatchJob creates a batch job for records
func NewBatchJob(table string, index, total int, records []model.Record) BatchJob {
	return BatchJob{
		ID:        uuid.New().String(),
		Table:     table,
		Index:     index,
		Total:     total,
		Records:   records,
		CreatedAt: time.Now(),
	}
}

// Label returns the "n/total" label used in logs
func (j BatchJob) Label() string {
	return fmt.Sprintf("%d/%d", j.Index, j.Total)
}

// BatchResult is the outcome of one batch upsert
type BatchResult struct {
	JobID     string
	Index     int
	Total     int
	Size      int
	Err       error
	StartTime time.Time
	Duration  time.Duration
}

// NewBatchResult initializes a result for job
func NewBatchResult(job BatchJob) BatchResult {
	return BatchResult{
		JobID:     job.ID,
		Index:     job.Index,
		Total:     job.Total,
		Size:      len(job.Records),
		StartTime: time.Now(),
	}
}

// Complete records the upsert error, if any, and the elapsed time
func (r *BatchResult) Complete(err error) {
	r.Err = err
	r.Duration = time.Since(r.StartTime)
}

// Label returns the "n/total" label used in logs
func (r BatchResult) Label() string {
	return fmt.Sprintf("%d/%d", r.Index, r.Total)
}

// Succeeded reports whether the batch was accepted by the store
func (r BatchResult) Succeeded() bool {
	return r.Err == nil
}

// ImportSummary describes a whole importer run
type ImportSummary struct {
	RunID        string
	Table        string
	KeyColumn    string
	CSVPath      string
	TotalRows    int
	BatchSize    int
	TotalBatches int
	Batches      []BatchResult

	// StoredRows is the non-null key count read back after the batches
	StoredRows int64
	Verified   bool
	VerifyErr  error

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// NewImportSummary initializes a summary for one run
func NewImportSummary(table, keyColumn, csvPath string, batchSize int) *ImportSummary {
	return &ImportSummary{
		RunID:     uuid.New().String(),
		Table:     table,
		KeyColumn: keyColumn,
		CSVPath:   csvPath,
		BatchSize: batchSize,
		Batches:   make([]BatchResult, 0),
		StartTime: time.Now(),
	}
}

// AddBatch appends a finished batch result
func (s *ImportSummary) AddBatch(result BatchResult) {
	s.Batches = append(s.Batches, result)
}

// Complete marks the run as finished
func (s *ImportSummary) Complete() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// Failed returns the batches the store rejected
func (s *ImportSummary) Failed() []BatchResult {
	var failed []BatchResult
	for _, b := range s.Batches {
		if !b.Succeeded() {
			failed = append(failed, b)
		}
	}
	return failed
}

// FailedLabels returns the labels of the rejected batches
func (s *ImportSummary) FailedLabels() []string {
	failed := s.Failed()
	labels := make([]string, 0, len(failed))
	for _, b := range failed {
		labels = append(labels, b.Label())
	}
	return labels
}

// Succeeded returns the number of accepted batches
func (s *ImportSummary) Succeeded() int {
	return len(s.Batches) - len(s.Failed())
}

// RowsImported returns the number of rows in accepted batches
func (s *ImportSummary) RowsImported() int {
	n := 0
	for _, b := range s.Batches {
		if b.Succeeded() {
			n += b.Size
		}
	}
	return n
}

// Partial reports whether at least one batch failed
func (s *ImportSummary) Partial() bool {
	return len(s.Failed()) > 0
}

// TableBackfill is the backfill outcome for one table
type TableBackfill struct {
	Table     string
	Processed int
	Updated   int
	Skipped   int
	Err       error // set when the table could not be queried
	Duration  time.Duration
}

// BackfillSummary describes a whole trailer backfill run
type BackfillSummary struct {
	RunID     string
	Tables    []TableBackfill
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// NewBackfillSummary initializes a backfill summary
func NewBackfillSummary() *BackfillSummary {
	return &BackfillSummary{
		RunID:     uuid.New().String(),
		Tables:    make([]TableBackfill, 0),
		StartTime: time.Now(),
	}
}

// Complete marks the backfill as finished
func (s *BackfillSummary) Complete() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// TotalUpdated returns the number of rows given a trailer across tables
func (s *BackfillSummary) TotalUpdated() int {
	n := 0
	for _, t := range s.Tables {
		n += t.Updated
	}
	return n
}

// FailedTables returns the tables that could not be queried
func (s *BackfillSummary) FailedTables() []string {
	var failed []string
	for _, t := range s.Tables {
		if t.Err != nil {
			failed = append(failed, t.Table)
		}
	}
	return failed
}
