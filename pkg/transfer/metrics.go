package transfer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RunMetrics tracks counters for an import or backfill run
type RunMetrics struct {
	mu     sync.Mutex
	logger *zap.Logger

	StartTime time.Time
	EndTime   time.Time

	RowsRead         int64
	RowsWritten      int64
	BatchesSucceeded int
	BatchesFailed    int
	SlowestBatch     time.Duration

	RowsLookedUp  int
	TrailersFound int

	ErrorCounts map[ErrorCategory]int
}

// NewRunMetrics creates a new RunMetrics instance
func NewRunMetrics(logger *zap.Logger) *RunMetrics {
	return &RunMetrics{
		StartTime:   time.Now(),
		ErrorCounts: make(map[ErrorCategory]int),
		logger:      logger,
	}
}

// RecordRowsRead adds n parsed input rows
func (m *RunMetrics) RecordRowsRead(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RowsRead += int64(n)
}

// RecordBatch records the outcome of one batch upsert
func (m *RunMetrics) RecordBatch(result BatchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if result.Succeeded() {
		m.BatchesSucceeded++
		m.RowsWritten += int64(result.Size)
	} else {
		m.BatchesFailed++
		m.ErrorCounts[ErrorCategoryBatch]++
	}

	if result.Duration > m.SlowestBatch {
		m.SlowestBatch = result.Duration
	}
}

// RecordLookup records one trailer lookup and whether it produced a key
func (m *RunMetrics) RecordLookup(found bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RowsLookedUp++
	if found {
		m.TrailersFound++
		m.RowsWritten++
	}
}

// RecordError increments the count for a specific error category
func (m *RunMetrics) RecordError(category ErrorCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ErrorCounts[category]++
}

// Complete marks the run as finished
func (m *RunMetrics) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EndTime = time.Now()

	if m.logger != nil {
		m.logger.Debug("Run metrics finalized",
			zap.Duration("totalDuration", m.duration()),
			zap.Int64("rowsWritten", m.RowsWritten),
			zap.Float64("throughput", m.throughput()))
	}
}

// Duration returns the total duration of the run
func (m *RunMetrics) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.duration()
}

// CalculateThroughput calculates the rows/second throughput
func (m *RunMetrics) CalculateThroughput() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.throughput()
}

func (m *RunMetrics) duration() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

func (m *RunMetrics) throughput() float64 {
	seconds := m.duration().Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(m.RowsWritten) / seconds
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// GenerateMetricsReport creates a plain-text metrics report
func (m *RunMetrics) GenerateMetricsReport() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	totalBatches := m.BatchesSucceeded + m.BatchesFailed

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`
Run Metrics Report
==================
Duration:                %s
Start Time:              %s

Rows
----
Rows Read:               %d
Rows Written:            %d
Average Throughput:      %.2f rows/sec
`,
		formatDuration(m.duration()),
		m.StartTime.Format(time.RFC3339),
		m.RowsRead,
		m.RowsWritten,
		m.throughput(),
	))

	if totalBatches > 0 {
		sb.WriteString(fmt.Sprintf(`
Batches
-------
Succeeded:               %d (%.1f%%)
Failed:                  %d (%.1f%%)
Slowest Batch:           %s
`,
			m.BatchesSucceeded, getPercentage(float64(m.BatchesSucceeded), float64(totalBatches)),
			m.BatchesFailed, getPercentage(float64(m.BatchesFailed), float64(totalBatches)),
			formatDuration(m.SlowestBatch),
		))
	}

	if m.RowsLookedUp > 0 {
		sb.WriteString(fmt.Sprintf(`
Trailer Lookups
---------------
Rows Looked Up:          %d
Trailers Found:          %d (%.1f%%)
`,
			m.RowsLookedUp,
			m.TrailersFound, getPercentage(float64(m.TrailersFound), float64(m.RowsLookedUp)),
		))
	}

	if len(m.ErrorCounts) > 0 {
		sb.WriteString("\nError Distribution\n------------------\n")
		totalErrors := 0
		categories := make([]ErrorCategory, 0, len(m.ErrorCounts))
		for category, count := range m.ErrorCounts {
			totalErrors += count
			categories = append(categories, category)
		}
		sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

		for _, category := range categories {
			count := m.ErrorCounts[category]
			sb.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n",
				category.String(), count, getPercentage(float64(count), float64(totalErrors))))
		}
	}

	return sb.String()
}

// getPercentage safely calculates a percentage, avoiding division by zero
func getPercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * 100
}

// ToJSON serializes metrics to JSON
func (m *RunMetrics) ToJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	errorCounts := make(map[string]int, len(m.ErrorCounts))
	for category, count := range m.ErrorCounts {
		errorCounts[category.String()] = count
	}

	return json.Marshal(struct {
		Duration         string         `json:"duration"`
		RowsRead         int64          `json:"rowsRead"`
		RowsWritten      int64          `json:"rowsWritten"`
		BatchesSucceeded int            `json:"batchesSucceeded"`
		BatchesFailed    int            `json:"batchesFailed"`
		RowsLookedUp     int            `json:"rowsLookedUp"`
		TrailersFound    int            `json:"trailersFound"`
		Throughput       float64        `json:"throughput"`
		ErrorCounts      map[string]int `json:"errorCounts"`
	}{
		Duration:         formatDuration(m.duration()),
		RowsRead:         m.RowsRead,
		RowsWritten:      m.RowsWritten,
		BatchesSucceeded: m.BatchesSucceeded,
		BatchesFailed:    m.BatchesFailed,
		RowsLookedUp:     m.RowsLookedUp,
		TrailersFound:    m.TrailersFound,
		Throughput:       m.throughput(),
		ErrorCounts:      errorCounts,
	})
}
