// pkg/converter/values.go
package converter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ConvertValue converts a CSV cell to the Go value of the given kind.
// NULL cells become nil regardless of kind.
func (c *TypeConverter) ConvertValue(raw string, kind Kind) (any, error) {
	cell := c.prepare(raw)
	if c.IsNull(cell) {
		return nil, nil
	}

	switch kind {
	case Integer:
		return convertToInteger(cell)
	case Float:
		return convertToFloat(cell)
	case Boolean:
		return convertToBoolean(cell)
	default:
		return cell, nil
	}
}

// IsNull determines if a cell should be treated as NULL
func (c *TypeConverter) IsNull(cell string) bool {
	if cell == "" {
		return true
	}
	for _, null := range c.config.NullLiterals {
		if cell == null {
			return true
		}
	}
	return false
}

func (c *TypeConverter) prepare(cell string) string {
	if c.config.TrimSpace {
		return strings.TrimSpace(cell)
	}
	return cell
}

func isInteger(cell string) bool {
	_, err := strconv.ParseInt(cell, 10, 64)
	return err == nil
}

func isFloat(cell string) bool {
	f, err := strconv.ParseFloat(cell, 64)
	return err == nil && !math.IsInf(f, 0) && !math.IsNaN(f)
}

func isBoolean(cell string) bool {
	_, err := convertToBoolean(cell)
	return err == nil
}

// convertToInteger converts a cell to int64
func convertToInteger(cell string) (any, error) {
	v, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cannot convert '%s' to integer", cell)
	}
	return v, nil
}

// convertToFloat converts a cell to float64
func convertToFloat(cell string) (any, error) {
	if !isFloat(cell) {
		return nil, fmt.Errorf("cannot convert '%s' to float", cell)
	}
	v, _ := strconv.ParseFloat(cell, 64)
	return v, nil
}

// convertToBoolean accepts the spellings dataframe readers recognize
func convertToBoolean(cell string) (any, error) {
	switch cell {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	default:
		return nil, fmt.Errorf("cannot convert '%s' to boolean", cell)
	}
}
