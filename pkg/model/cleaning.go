// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation represents a single change made while preparing a dataset
type CleaningOperation struct {
	ColumnName        string    // Column that was cleaned
	RowIndex          int       // Zero-based row position in the source table
	OriginalValue     string    // Value before cleaning (may be empty)
	NewValue          string    // Value after cleaning, empty when the row was dropped
	CleaningOperation string    // Type of cleaning performed (e.g., "id_generation")
	CleaningReason    string    // Reason for cleaning (e.g., "missing_id")
	CleanedAt         time.Time // When the cleaning occurred
}

// CleaningReport aggregates the operations applied to one dataset
type CleaningReport struct {
	Source         string
	RowsRead       int
	RowsWritten    int
	RowsDropped    int
	IDsGenerated   int
	ColumnsRenamed int
	Operations     []CleaningOperation
}

// Add records an operation
func (r *CleaningReport) Add(op CleaningOperation) {
	if op.CleanedAt.IsZero() {
		op.CleanedAt = time.Now()
	}
	r.Operations = append(r.Operations, op)
}

// CountByOperation groups the recorded operations by type
func (r *CleaningReport) CountByOperation() map[string]int {
	counts := make(map[string]int)
	for _, op := range r.Operations {
		counts[op.CleaningOperation]++
	}
	return counts
}
