// pkg/model/metadata.go
package model

import "strings"

// ColumnKind is the scalar type inferred for a CSV column
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindInteger
	KindFloat
	KindBoolean
)

func (k ColumnKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	default:
		return "string"
	}
}

// TableMetadata describes the columns of a CSV destined for a table
type TableMetadata struct {
	Table   string   // Target table name
	Columns []Column // Column definitions in file order
}

// Column represents metadata about a CSV column
type Column struct {
	Name     string     // Header name as written in the file
	Kind     ColumnKind // Inferred kind across all rows
	Nullable bool       // Whether any cell was empty
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (tm *TableMetadata) GetColumnByName(name string) *Column {
	normalizedName := normalizeColumnName(name)
	for i, col := range tm.Columns {
		if normalizeColumnName(col.Name) == normalizedName {
			return &tm.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the header in file order
func (tm *TableMetadata) ColumnNames() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
