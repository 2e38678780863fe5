// pkg/cleaner/operations.go
package cleaner

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/David-Botos/movie-ingress/pkg/converter"
	"github.com/David-Botos/movie-ingress/pkg/dataset"
	"github.com/David-Botos/movie-ingress/pkg/model"
)

// Cleaning operation types
const (
	OpIDGeneration = "id_generation"
	OpColumnRename = "column_rename"
	OpRowDropped   = "row_dropped"
)

// ensureIDs assigns ids 1..N in row order when the id column is absent or has a NULL cell.
// NULL follows the importer's reading of a cell, so "NaN" or "null" count as missing.
// Returns the number of ids written.
func ensureIDs(table *dataset.Table, report *model.CleaningReport) int {
	idx := table.ColumnIndex(IDColumn)
	nulls := converter.NewTypeConverter(nil)

	reason := ""
	if idx < 0 {
		reason = "missing_id_column"
	} else {
		for _, row := range table.Rows {
			if nulls.IsNull(strings.TrimSpace(row[idx])) {
				reason = "empty_id"
				break
			}
		}
	}
	if reason == "" {
		return 0
	}

	if idx < 0 {
		table.Columns = append([]string{IDColumn}, table.Columns...)
		for i, row := range table.Rows {
			table.Rows[i] = append([]string{""}, row...)
		}
		idx = 0
	}

	for i, row := range table.Rows {
		newID := strconv.Itoa(i + 1)
		report.Add(model.CleaningOperation{
			ColumnName:        table.Columns[idx],
			RowIndex:          i,
			OriginalValue:     row[idx],
			NewValue:          newID,
			CleaningOperation: OpIDGeneration,
			CleaningReason:    reason,
		})
		row[idx] = newID
	}

	return len(table.Rows)
}

// CapitalizeColumn upper-cases the first rune of a name and lower-cases the rest
func CapitalizeColumn(name string) string {
	if name == "" {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	upper := cases.Upper(language.Und)
	lower := cases.Lower(language.Und)
	return upper.String(string(r)) + lower.String(name[size:])
}

// capitalizeColumns renames every column. Returns the number of names that changed.
func capitalizeColumns(table *dataset.Table, report *model.CleaningReport) int {
	renamed := 0
	for i, col := range table.Columns {
		capitalized := CapitalizeColumn(col)
		if capitalized == col {
			continue
		}
		report.Add(model.CleaningOperation{
			ColumnName:        capitalized,
			RowIndex:          -1,
			OriginalValue:     col,
			NewValue:          capitalized,
			CleaningOperation: OpColumnRename,
			CleaningReason:    "capitalize",
		})
		table.Columns[i] = capitalized
		renamed++
	}
	return renamed
}

// normalizeDates parses the date column, drops rows that fail to parse and rewrites
// the rest in canonical form. The time of day is kept only if some value has one.
func normalizeDates(table *dataset.Table, column string, report *model.CleaningReport) (int, error) {
	idx := table.ColumnIndex(column)
	if idx < 0 {
		return 0, fmt.Errorf("date column %q not found in dataset columns %v", column, table.Columns)
	}

	type parsedRow struct {
		row    []string
		parsed time.Time
	}

	kept := make([]parsedRow, 0, len(table.Rows))
	withClock := false
	dropped := 0

	for i, row := range table.Rows {
		t, hasClock, err := converter.ParseDate(row[idx])
		if err != nil {
			report.Add(model.CleaningOperation{
				ColumnName:        table.Columns[idx],
				RowIndex:          i,
				OriginalValue:     row[idx],
				CleaningOperation: OpRowDropped,
				CleaningReason:    "invalid_date",
			})
			dropped++
			continue
		}
		withClock = withClock || hasClock
		kept = append(kept, parsedRow{row: row, parsed: t})
	}

	rows := make([][]string, len(kept))
	for i, k := range kept {
		k.row[idx] = converter.FormatDate(k.parsed, withClock)
		rows[i] = k.row
	}
	table.Rows = rows

	return dropped, nil
}
