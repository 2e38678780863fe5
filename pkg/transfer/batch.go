package transfer

import "github.com/David-Botos/movie-ingress/pkg/model"

// Partition splits items into consecutive chunks of at most size elements,
// preserving order. Only the last chunk may be shorter. It panics if size < 1.
func Partition[T any](items []T, size int) [][]T {
	if size < 1 {
		panic("transfer: partition size must be positive")
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end:end])
	}
	return chunks
}

// BuildBatchJobs partitions records into labelled batch jobs for table
func BuildBatchJobs(table string, records []model.Record, batchSize int) []BatchJob {
	chunks := Partition(records, batchSize)
	jobs := make([]BatchJob, 0, len(chunks))
	for i, chunk := range chunks {
		jobs = append(jobs, NewBatchJob(table, i+1, len(chunks), chunk))
	}
	return jobs
}
