// pkg/converter/converter.go
package converter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/movie-ingress/pkg/model"
)

// Kind is the scalar type inferred for a column
type Kind = model.ColumnKind

const (
	String  = model.KindString
	Integer = model.KindInteger
	Float   = model.KindFloat
	Boolean = model.KindBoolean
)

// TypeConverter infers column kinds from CSV cells and converts cells to typed values
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Cell texts read as NULL in addition to the empty string
	NullLiterals []string
	// Whether cells are trimmed before inference and conversion
	TrimSpace bool
}

// DefaultConfig returns the default configuration.
// The null literals follow the usual dataframe CSV readers.
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		NullLiterals: []string{
			"#N/A", "#N/A N/A", "#NA", "-NaN", "-nan", "<NA>", "N/A", "NA",
			"NULL", "NaN", "None", "n/a", "nan", "null",
		},
		TrimSpace: false,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// InferKind picks one kind for a column from all of its cells.
// NULL cells are ignored; a column with no values is a string column.
func (c *TypeConverter) InferKind(cells []string) Kind {
	ints, floats, bools, seen := true, true, true, 0

	for _, raw := range cells {
		cell := c.prepare(raw)
		if c.IsNull(cell) {
			continue
		}
		seen++

		if ints && !isInteger(cell) {
			ints = false
		}
		if floats && !isFloat(cell) {
			floats = false
		}
		if bools && !isBoolean(cell) {
			bools = false
		}
		if !ints && !floats && !bools {
			return String
		}
	}

	switch {
	case seen == 0:
		return String
	case ints:
		return Integer
	case floats:
		return Float
	case bools:
		return Boolean
	default:
		return String
	}
}

// InferMetadata infers the kind of every column of a parsed CSV
func (c *TypeConverter) InferMetadata(table string, header []string, rows [][]string) *model.TableMetadata {
	metadata := &model.TableMetadata{
		Table:   table,
		Columns: make([]model.Column, len(header)),
	}

	cells := make([]string, len(rows))
	for i, name := range header {
		nullable := false
		for j, row := range rows {
			if i < len(row) {
				cells[j] = row[i]
			} else {
				cells[j] = ""
			}
			if c.IsNull(c.prepare(cells[j])) {
				nullable = true
			}
		}

		metadata.Columns[i] = model.Column{
			Name:     name,
			Kind:     c.InferKind(cells),
			Nullable: nullable,
		}

		c.logger.Debug("Inferred column kind",
			zap.String("table", table),
			zap.String("column", name),
			zap.Stringer("kind", metadata.Columns[i].Kind),
			zap.Bool("nullable", nullable))
	}

	return metadata
}

// ConvertRow turns one CSV row into a record using the inferred metadata
func (c *TypeConverter) ConvertRow(metadata *model.TableMetadata, row []string) (model.Record, error) {
	if len(row) != len(metadata.Columns) {
		return nil, fmt.Errorf("row has %d fields, header has %d", len(row), len(metadata.Columns))
	}

	record := make(model.Record, len(row))
	for i, col := range metadata.Columns {
		value, err := c.ConvertValue(row[i], col.Kind)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		record[col.Name] = value
	}

	return record, nil
}
